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

// Package addresses defines the IO register offsets of the 32bit
// console. The IO window is 0x400 bytes wide, starting at 0x04000000;
// registers are identified by their offset into the window.
package addresses

// display registers occupy the bottom of the IO window. only the
// boundary is interesting to the core; the registers themselves belong
// to the video collaborator.
const (
	DISPCNT = 0x000
)

// sound registers. the audio collaborator owns the range from
// SOUND1CNT_L to FIFO_B inclusive.
const (
	SOUND1CNT_L = 0x060
	FIFO_B      = 0x0a4
)

// DMA channel registers. each channel occupies twelve bytes.
const (
	DMA0SAD   = 0x0b0
	DMA0DAD   = 0x0b4
	DMA0CNT_L = 0x0b8
	DMA0CNT_H = 0x0ba

	DMAStride = 12
)

// timer registers. each timer occupies four bytes.
const (
	TM0CNT_L = 0x100
	TM0CNT_H = 0x102

	TimerStride = 4
)

// keypad registers. KEYINPUT is active low.
const (
	KEYINPUT = 0x130
	KEYCNT   = 0x132
)

// interrupt, wait state and power control.
const (
	IE      = 0x200
	IF      = 0x202
	WAITCNT = 0x204
	IME     = 0x208
	POSTFLG = 0x300
	HALTCNT = 0x301
)

// Interrupt bits as they appear in the IE and IF registers.
const (
	IntLCDVBlank = 0x0001
	IntLCDHBlank = 0x0002
	IntLCDVCount = 0x0004
	IntTimer0    = 0x0008
	IntTimer1    = 0x0010
	IntTimer2    = 0x0020
	IntTimer3    = 0x0040
	IntSerial    = 0x0080
	IntDMA0      = 0x0100
	IntDMA1      = 0x0200
	IntDMA2      = 0x0400
	IntDMA3      = 0x0800
	IntKeypad    = 0x1000
	IntGamePak   = 0x2000
)

// Fields of the DMA control registers.
const (
	DMACntDestMode = 0x0060
	DMACntSrcMode  = 0x0180
	DMACntRepeat   = 0x0200
	DMACnt32Bit    = 0x0400
	DMACntStart    = 0x3000
	DMACntIRQ      = 0x4000
	DMACntEnable   = 0x8000
)

// Fields of the timer control registers.
const (
	TimerCntPrescaler = 0x0003
	TimerCntCountUp   = 0x0004
	TimerCntIRQ       = 0x0040
	TimerCntEnable    = 0x0080
)

// Fields of the WAITCNT register.
const (
	WaitCntSRAM   = 0x0003
	WaitCntROM0N  = 0x000c
	WaitCntROM0S  = 0x0010
	WaitCntROM1N  = 0x0060
	WaitCntROM1S  = 0x0080
	WaitCntROM2N  = 0x0300
	WaitCntROM2S  = 0x0400
)
