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

package agb

import (
	"github.com/jetsetilly/gopherboy/hardware/agb/memory/addresses"
)

// dmaTransfer runs one channel to completion and returns the consumed
// cycles: one N plus count-1 S cycles on each side, plus two internal
// cycles.
//
// The IRQ-on-complete control bit is stored but never raised: a
// completed transfer does not flag a DMA interrupt.
func (sys *AGB) dmaTransfer(channel int) int {
	regOffset := uint32(channel) * addresses.DMAStride

	control := sys.Mem.ReadIO(addresses.DMA0CNT_H + regOffset)

	srcAddr := uint32(sys.Mem.ReadIO(addresses.DMA0SAD+regOffset)) |
		uint32(sys.Mem.ReadIO(addresses.DMA0SAD+regOffset+2))<<16
	dstAddr := uint32(sys.Mem.ReadIO(addresses.DMA0DAD+regOffset)) |
		uint32(sys.Mem.ReadIO(addresses.DMA0DAD+regOffset+2))<<16

	// channel zero cannot reach the cartridge; only channel three can
	// write to it
	if channel == 0 {
		srcAddr &= 0x7ffffff
	} else {
		srcAddr &= 0xfffffff
	}
	if channel == 3 {
		dstAddr &= 0xfffffff
	} else {
		dstAddr &= 0x7ffffff
	}

	count := int(sys.Mem.ReadIO(addresses.DMA0CNT_L + regOffset))

	width := 2
	if control&addresses.DMACnt32Bit == addresses.DMACnt32Bit {
		width = 4
	}

	dstMode := (control & addresses.DMACntDestMode) >> 5
	srcMode := (control & addresses.DMACntSrcMode) >> 7

	seq := count - 1
	if seq < 0 {
		seq = 0
	}
	cycles := sys.Mem.AccessCycles(srcAddr, width, false) + sys.Mem.AccessCycles(srcAddr, width, true)*seq +
		sys.Mem.AccessCycles(dstAddr, width, false) + sys.Mem.AccessCycles(dstAddr, width, true)*seq +
		2

	srcAddr &^= uint32(width - 1)
	dstAddr &^= uint32(width - 1)

	for ; count > 0; count-- {
		if width == 4 {
			sys.Mem.Write32(dstAddr, sys.Mem.Read32(srcAddr))
		} else {
			sys.Mem.Write16(dstAddr, sys.Mem.Read16(srcAddr))
		}

		// destination mode 3 is increment with reload; the reload
		// itself only matters for repeating transfers
		if dstMode == 0 || dstMode == 3 {
			dstAddr += uint32(width)
		} else if dstMode == 1 {
			dstAddr -= uint32(width)
		}

		if srcMode == 0 {
			srcAddr += uint32(width)
		} else if srcMode == 1 {
			srcAddr -= uint32(width)
		}
	}

	if control&addresses.DMACntRepeat == 0 {
		sys.Mem.WriteIO(addresses.DMA0CNT_H+regOffset, control&^uint16(addresses.DMACntEnable))
	}

	return cycles
}
