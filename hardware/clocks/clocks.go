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

// Package clocks defines the constant values that define the speed of
// the main clock in the two consoles. The values are in Hz and are
// used to translate a wall-clock running budget into a cycle budget.
package clocks

const (
	// the crystal of the original handheld. the divider, timer and
	// instruction timings all count cycles of this clock. doubled when
	// the speed switch of the colour model is engaged
	DMG = 4194304

	// the crystal of the 32bit successor
	AGB = 16777216
)
