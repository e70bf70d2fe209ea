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

package memory_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jetsetilly/gopherboy/hardware/agb/memory"
)

// the flash unlock sequence shared by every flash command.
func flashCommand(mem *memory.Memory, cmd uint8) {
	mem.Write8(0x0e005555, 0xaa)
	mem.Write8(0x0e002aaa, 0x55)
	mem.Write8(0x0e005555, cmd)
}

func TestSaveDetectSRAM(t *testing.T) {
	mem := memory.NewMemory()
	assert.Equal(t, memory.SaveUnknown, mem.SaveType())

	// any ordinary write to the save region implies SRAM
	mem.Write8(0x0e000123, 0x42)
	assert.Equal(t, memory.SaveSRAM, mem.SaveType())
	assert.Equal(t, uint8(0x42), mem.Read8(0x0e000123))

	// SRAM wraps every 32k
	assert.Equal(t, uint8(0x42), mem.Read8(0x0e008123))

	// detection is one-shot: the flash unlock write is now just data
	mem.Write8(0x0e005555, 0xaa)
	assert.Equal(t, memory.SaveSRAM, mem.SaveType())
	assert.Equal(t, uint8(0xaa), mem.Read8(0x0e005555))
}

func TestSaveDetectFlash(t *testing.T) {
	mem := memory.NewMemory()

	// a write of 0xaa to the first unlock address implies flash
	mem.Write8(0x0e005555, 0xaa)
	assert.Equal(t, memory.SaveFlash, mem.SaveType())
}

func TestSaveDetectEEPROM(t *testing.T) {
	mem := memory.NewMemory()

	// the first 16bit write to the upper ROM window implies EEPROM
	mem.Write16(0x0d000000, 1)
	assert.Equal(t, memory.SaveEEPROM, mem.SaveType())
}

func TestSaveWiderReadsDuplicate(t *testing.T) {
	mem := memory.NewMemory()

	mem.Write8(0x0e000000, 0x5a)
	assert.Equal(t, uint16(0x5a5a), mem.Read16(0x0e000000))
	assert.Equal(t, uint32(0x5a5a5a5a), mem.Read32(0x0e000000))
}

func TestFlashWriteAndErase(t *testing.T) {
	mem := memory.NewMemory()

	// unlock as flash, then program a byte
	mem.Write8(0x0e005555, 0xaa)
	mem.Write8(0x0e002aaa, 0x55)
	mem.Write8(0x0e005555, 0xa0) // enter write
	mem.Write8(0x0e001234, 0x77)
	assert.Equal(t, uint8(0x77), mem.Read8(0x0e001234))

	// erase the sector holding the byte
	flashCommand(mem, 0x80) // arm erase
	mem.Write8(0x0e005555, 0xaa)
	mem.Write8(0x0e002aaa, 0x55)
	mem.Write8(0x0e001000, 0x30) // erase 4k sector
	assert.Equal(t, uint8(0xff), mem.Read8(0x0e001234))
}

func TestFlashChipID(t *testing.T) {
	mem := memory.NewMemory()

	mem.Write8(0x0e005555, 0xaa) // detect
	flashCommand(mem, 0x90)      // enter id
	assert.Equal(t, uint8(0x62), mem.Read8(0x0e000000))
	assert.Equal(t, uint8(0x13), mem.Read8(0x0e000001))

	flashCommand(mem, 0xf0) // back to read
	assert.Equal(t, uint8(0xff), mem.Read8(0x0e000000))
}

func TestFlashBanking(t *testing.T) {
	mem := memory.NewMemory()

	mem.Write8(0x0e005555, 0xaa) // detect

	// program a byte in bank 0
	flashCommand(mem, 0xa0)
	mem.Write8(0x0e000010, 0x11)

	// switch to bank 1 and program the same offset
	flashCommand(mem, 0xb0)
	mem.Write8(0x0e000000, 0x01)
	flashCommand(mem, 0xa0)
	mem.Write8(0x0e000010, 0x22)
	assert.Equal(t, uint8(0x22), mem.Read8(0x0e000010))

	// bank 0 still holds its own byte
	flashCommand(mem, 0xb0)
	mem.Write8(0x0e000000, 0x00)
	assert.Equal(t, uint8(0x11), mem.Read8(0x0e000010))

	// using the second bank grows the save blob to 128k
	assert.Equal(t, 128*1024, len(mem.SaveData()))
}

// eepromWriteBits clocks a bitstream into the EEPROM one 16bit write
// at a time, the way a DMA transfer from the program would.
func eepromWriteBits(mem *memory.Memory, bits []uint16) {
	for i, b := range bits {
		mem.Write16(0x0d000000+uint32(i)*2, b)
	}
}

func TestEEPROMWriteRead(t *testing.T) {
	mem := memory.NewMemory()

	// write request: 10, six address bits (address 3), 64 data bits
	bits := make([]uint16, 0x49)
	bits[0] = 1
	bits[1] = 0
	// address 3
	bits[6] = 1
	bits[7] = 1
	// data: set the top bit of the block
	bits[8] = 1
	eepromWriteBits(mem, bits)

	require.Equal(t, memory.SaveEEPROM, mem.SaveType())

	// the write acknowledges through the out bits
	assert.Equal(t, uint16(1), mem.Read16(0x0d000000))

	// read request: 11, six address bits (address 3)
	bits = make([]uint16, 0x09)
	bits[0] = 1
	bits[1] = 1
	bits[6] = 1
	bits[7] = 1
	eepromWriteBits(mem, bits)

	// the out bits deliver four ignored bits then the 64 data bits msb
	// first
	assert.Equal(t, uint16(1), mem.Read16(0x0d000000+4*2))
	for i := 5; i < 0x44; i++ {
		assert.Equal(t, uint16(0), mem.Read16(0x0d000000+uint32(i)*2))
	}
}

func TestSaveBlobRoundTrip(t *testing.T) {
	mem := memory.NewMemory()

	blob := make([]uint8, 32*1024)
	blob[0x100] = 0x99
	require.NoError(t, mem.LoadSave(blob))
	assert.Equal(t, memory.SaveSRAM, mem.SaveType())
	assert.Equal(t, uint8(0x99), mem.Read8(0x0e000100))

	mem.Write8(0x0e000101, 0xaa)
	out := mem.SaveData()
	require.Equal(t, 32*1024, len(out))
	assert.Equal(t, uint8(0x99), out[0x100])
	assert.Equal(t, uint8(0xaa), out[0x101])

	// unrecognised sizes are rejected at the boundary
	assert.Error(t, mem.LoadSave(make([]uint8, 1000)))
}
