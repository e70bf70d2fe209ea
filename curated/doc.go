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

// Package curated is how errors are created and tested throughout the
// emulator. Errors are created with Errorf() and a pattern string. The
// pattern is both the format of the error message and the identity of
// the error:
//
//	curated.Errorf(cpu.UnimplementedInstruction, opcode, pc)
//
// Code that wants to test for a specific error compares against the
// pattern with Is() or, for errors that may be wrapped deeper in a
// message chain, with Has():
//
//	if curated.Is(err, cpu.UnimplementedInstruction) {
//		...
//	}
//
// Sentinel patterns are declared as exported string constants in the
// package that creates them. Packages never compare message text.
package curated
