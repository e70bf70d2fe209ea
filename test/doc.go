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

// Package test contains helper functions to remove common boilerplate
// from the emulator tests.
//
// The ExpectedFailure and ExpectedSuccess functions test for failure
// and success under generic conditions. Note that the nil type is
// interpreted as a success because of how errors are usually reported
// (nil indicating no error); ExpectedFailure with a nil argument
// therefore fails.
//
// The Equate() function compares like-typed values for equality. The
// unsigned integer types can be compared against int for convenience,
// saving a cast at every call site where the expected value is a
// literal.
package test
