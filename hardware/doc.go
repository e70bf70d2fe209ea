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

// Package hardware is the parent package for the two emulated
// machines. The dmg package is the original 8bit handheld; the agb
// package is its 32bit successor. Each machine owns its CPU and memory
// bus exclusively and is driven through Run(), with the video and
// audio units attached as collaborators behind narrow register-hook
// interfaces.
package hardware
