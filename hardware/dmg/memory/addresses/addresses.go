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

// Package addresses defines the register addresses of the 8bit
// console. The IO registers live in the 0xff00 to 0xff7f window and
// are identified by the low byte of the address. IE is the odd one
// out, living at 0xffff, but its low byte does not collide with
// anything in the IO window so the same identification works.
package addresses

// IO register addresses (low byte).
const (
	JOYP  = 0x00
	DIV   = 0x04
	TIMA  = 0x05
	TMA   = 0x06
	TAC   = 0x07
	IF    = 0x0f
	DMA   = 0x46
	KEY1  = 0x4d
	VBK   = 0x4f
	HDMA1 = 0x51
	HDMA2 = 0x52
	HDMA3 = 0x53
	HDMA4 = 0x54
	HDMA5 = 0x55
	SVBK  = 0x70
	IE    = 0xff
)

// the boundaries of the IO ranges claimed by the video and audio
// collaborators.
const (
	AudioRegStart = 0x10
	AudioRegEnd   = 0x3f
	VideoRegStart = 0x40
	VideoRegEnd   = 0x4b
)

// Interrupt bits as they appear in the IF and IE registers.
const (
	IntVBlank  = 0x01
	IntLCDStat = 0x02
	IntTimer   = 0x04
	IntSerial  = 0x08
	IntJoypad  = 0x10
)

// Fields of the TAC timer control register.
const (
	TACStart = 0x04
	TACClock = 0x03
)

// CartridgeType is the offset in the cartridge header that announces
// colour support (bit 7).
const CartridgeType = 0x143
