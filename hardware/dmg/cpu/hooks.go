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

package cpu

import (
	"github.com/jetsetilly/gopherboy/hardware/dmg/memory/addresses"
	"github.com/jetsetilly/gopherboy/logger"
)

// ReadRegister is called by the memory bus for reads of IO registers
// that the CPU owns. The val argument is the stored register value;
// the return value is what the read observes.
func (mc *CPU) ReadRegister(addr uint16, val uint8) uint8 {
	switch uint8(addr) {
	case addresses.DIV:
		return uint8(mc.divCounter >> 8)

	case addresses.KEY1:
		v := uint8(0)
		if mc.DoubleSpeed {
			v |= 0x80
		}
		if mc.speedSwitch {
			v |= 0x01
		}
		return v

	case addresses.JOYP:
		// select bits choose which half of the key matrix drives the
		// low nibble. all lines are active low
		v := val&0x30 | 0xc0 | 0x0f
		if val&0x10 == 0 {
			v &^= mc.inputs & 0x0f
		}
		if val&0x20 == 0 {
			v &^= (mc.inputs >> 4) & 0x0f
		}
		return v
	}

	return val
}

// WriteRegister is called by the memory bus for writes of IO registers
// that the CPU owns. Returns true if the write was consumed and should
// not be stored in the register file.
func (mc *CPU) WriteRegister(addr uint16, data uint8) bool {
	switch uint8(addr) {
	case addresses.DMA:
		// 160 byte block copy to OAM, executed atomically
		src := uint16(data) << 8
		for i := uint16(0); i < 0xa0; i++ {
			mc.mem.Write(0xfe00+i, mc.mem.Read(src+i))
		}
		return true

	case addresses.HDMA5:
		src := uint16(mc.mem.ReadIO(addresses.HDMA1))<<8 | uint16(mc.mem.ReadIO(addresses.HDMA2)&0xf0)
		dst := 0x8000 | uint16(mc.mem.ReadIO(addresses.HDMA3)&0x1f)<<8 | uint16(mc.mem.ReadIO(addresses.HDMA4)&0xf0)
		count := (uint16(data&0x7f) + 1) << 4

		if data&0x80 == 0x80 {
			// the hblank paced variant is not implemented
			logger.Logf("dmg", "hblank dma ignored (%#03x %#04x -> %#04x)", count, src, dst)
		} else {
			// general purpose transfer happens immediately
			for ; count > 0; count-- {
				mc.mem.Write(dst, mc.mem.Read(src))
				src++
				dst++
			}
			mc.mem.WriteIO(addresses.HDMA5, 0xff)
		}
		return true

	case addresses.DIV:
		// any write clears the whole counter
		mc.divCounter = 0
		return true

	case addresses.TAC:
		timerBits := [4]uint16{1 << 9, 1 << 3, 1 << 5, 1 << 7}
		mc.timerEnabled = data&addresses.TACStart == addresses.TACStart
		mc.timerBit = timerBits[data&addresses.TACClock]

	case addresses.KEY1:
		mc.speedSwitch = data&0x01 == 0x01

	case addresses.IF:
		mc.serviceable = data & mc.mem.ReadIO(addresses.IE)

	case addresses.IE:
		mc.serviceable = data & mc.mem.ReadIO(addresses.IF)
	}

	return false
}
