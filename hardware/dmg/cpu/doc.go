// This file is part of Gopherboy.
//
// Gopherboy is free software: you can redistribute it and/or modify
// it under the terms of the GNU General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
//
// Gopherboy is distributed in the hope that it will be useful,
// but WITHOUT ANY WARRANTY; without even the implied warranty of
// MERCHANTABILITY or FITNESS FOR A PARTICULAR PURPOSE.  See the
// GNU General Public License for more details.
//
// You should have received a copy of the GNU General Public License
// along with Gopherboy.  If not, see <https://www.gnu.org/licenses/>.

// Package cpu implements the Sharp LR35902 family processor found in
// the original handheld. The Step() function executes one opcode (or
// one halt period) and returns the number of clock cycles consumed.
//
// The divider and programmable timer are implemented here too, rather
// than in a chip package of their own, because on this hardware they
// are clocked directly from the CPU's internal counter and share state
// with the STOP and speed-switch logic.
//
// Interrupt state (the IF and IE registers, the master enable and the
// cached serviceable set) is maintained by this package. The memory
// package forwards reads/writes of the CPU-owned registers through the
// ReadRegister() and WriteRegister() hooks.
package cpu
