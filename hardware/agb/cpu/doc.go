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

// Package cpu implements the ARM7TDMI found in the 32bit console. The
// T bit of CPSR selects between the 32bit instruction encoding
// (arm.go) and the 16bit encoding (thumb.go); both report consumed
// cycles as a sum of sequential, non-sequential and internal cycles.
//
// The register file is a flat array of physical slots with a per-mode
// lookup built by bankMap(); processor modes are a tag plus a lookup,
// never a type of their own. Mode transitions save and restore CPSR
// through the SPSR bank and rebuild the lookup.
//
// Instruction fetch walks a cached window into the backing buffer of
// whatever region the PC is executing from. The cache is refreshed
// whenever the PC moves discontinuously, so branch targets pay the
// non-sequential fetch cost recorded for their region.
package cpu
