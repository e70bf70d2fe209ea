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

package memory

import (
	"github.com/jetsetilly/gopherboy/hardware/agb/memory/addresses"
)

// power-on wait states for the three ROM windows and the save region.
func (mem *Memory) resetWaitControl() {
	mem.cartAccessN[0] = 5
	mem.cartAccessS[0] = 3
	mem.cartAccessN[1] = 5
	mem.cartAccessS[1] = 5
	mem.cartAccessN[2] = 5
	mem.cartAccessS[2] = 9

	mem.cartAccessN[3] = 5
	mem.cartAccessS[3] = 5
}

// UpdateWaitControl reprograms the cartridge access times from the
// WAITCNT register.
func (mem *Memory) UpdateWaitControl(waitcnt uint16) {
	nTimings := [4]int{4, 3, 2, 8}

	mem.cartAccessN[0] = nTimings[(waitcnt&addresses.WaitCntROM0N)>>2] + 1
	mem.cartAccessN[1] = nTimings[(waitcnt&addresses.WaitCntROM1N)>>5] + 1
	mem.cartAccessN[2] = nTimings[(waitcnt&addresses.WaitCntROM2N)>>8] + 1

	if waitcnt&addresses.WaitCntROM0S == addresses.WaitCntROM0S {
		mem.cartAccessS[0] = 2
	} else {
		mem.cartAccessS[0] = 3
	}
	if waitcnt&addresses.WaitCntROM1S == addresses.WaitCntROM1S {
		mem.cartAccessS[1] = 2
	} else {
		mem.cartAccessS[1] = 5
	}
	if waitcnt&addresses.WaitCntROM2S == addresses.WaitCntROM2S {
		mem.cartAccessS[2] = 2
	} else {
		mem.cartAccessS[2] = 9
	}

	// ... and the save region
	mem.cartAccessN[3] = nTimings[waitcnt&addresses.WaitCntSRAM] + 1
	mem.cartAccessS[3] = mem.cartAccessN[3]
}

// AccessCycles returns the number of cycles an access of the given
// width takes. The width argument is in bytes. Cartridge regions are
// 16 bits wide: the second half of a 32bit access is always
// sequential.
func (mem *Memory) AccessCycles(addr uint32, width int, sequential bool) int {
	switch addr >> 24 {
	case 0x0, 0x3, 0x4, 0x7:
		// BIOS, IWRAM, IO and OAM are on the fast internal bus
		return 1

	case 0x2:
		if width == 4 {
			return 6
		}
		return 3

	case 0x5, 0x6:
		if width == 4 {
			return 2
		}
		return 1

	case 0x8, 0x9, 0xa, 0xb, 0xc, 0xd, 0xe, 0xf:
		window := (addr >> 25) - 4
		cycles := mem.cartAccessN[window]
		if sequential {
			cycles = mem.cartAccessS[window]
		}
		if width == 4 {
			cycles += mem.cartAccessS[window]
		}
		return cycles
	}

	return 1
}
