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

	"github.com/jetsetilly/gopherboy/curated"
	"github.com/jetsetilly/gopherboy/hardware/agb/memory"
	"github.com/jetsetilly/gopherboy/test"
)

func newTestMemory() *memory.Memory {
	return memory.NewMemory()
}

func TestAttachBoundary(t *testing.T) {
	mem := newTestMemory()

	// the BIOS must be exactly 16k
	err := mem.SetBIOS(make([]uint8, 0x4000))
	test.ExpectedSuccess(t, err)
	err = mem.SetBIOS(make([]uint8, 0x2000))
	test.ExpectedFailure(t, err)
	test.ExpectedSuccess(t, curated.Is(err, memory.InvalidBIOSSize))

	// oversized cartridge ROM is rejected
	err = mem.SetCartROM(make([]uint8, 0x2000001))
	test.ExpectedFailure(t, err)
	test.ExpectedSuccess(t, curated.Is(err, memory.InvalidROMSize))
}

func TestInternalRAM(t *testing.T) {
	mem := newTestMemory()

	mem.Write32(0x02000000, 0x12345678)
	test.Equate(t, mem.Read32(0x02000000), 0x12345678)
	test.Equate(t, mem.Read16(0x02000000), 0x5678)
	test.Equate(t, mem.Read8(0x02000001), 0x56)

	// EWRAM mirrors every 256k
	test.Equate(t, mem.Read32(0x02040000), 0x12345678)

	mem.Write16(0x03000100, 0xbeef)
	test.Equate(t, mem.Read16(0x03000100), 0xbeef)

	// IWRAM mirrors every 32k
	test.Equate(t, mem.Read16(0x03008100), 0xbeef)
}

func TestVRAMMirror(t *testing.T) {
	mem := newTestMemory()

	// the last 32k of the 128k window mirrors the previous 32k
	mem.Write16(0x06010000, 0x1234)
	test.Equate(t, mem.Read16(0x06018000), 0x1234)

	// and the whole 128k window mirrors across the region
	test.Equate(t, mem.Read16(0x06030000), 0x1234)
}

func TestByteWriteDuplication(t *testing.T) {
	mem := newTestMemory()

	// palette RAM duplicates byte writes into both halves
	mem.Write8(0x05000003, 0xab)
	test.Equate(t, mem.Read16(0x05000002), 0xabab)

	// so does background VRAM
	mem.Write8(0x06000005, 0xcd)
	test.Equate(t, mem.Read16(0x06000004), 0xcdcd)

	// sprite VRAM ignores byte writes
	mem.Write8(0x06010001, 0xef)
	test.Equate(t, mem.Read16(0x06010000), 0)

	// OAM ignores byte writes
	mem.Write8(0x07000000, 0x11)
	test.Equate(t, mem.Read16(0x07000000), 0)
}

func TestIOWidths(t *testing.T) {
	mem := newTestMemory()

	// IO is naturally 16bit. byte writes merge with the stored value
	mem.Write16(0x04000200, 0x1234)
	mem.Write8(0x04000200, 0xff)
	test.Equate(t, mem.Read16(0x04000200), 0x12ff)
	mem.Write8(0x04000201, 0xee)
	test.Equate(t, mem.Read16(0x04000200), 0xeeff)

	// byte reads extract from the 16bit value
	test.Equate(t, mem.Read8(0x04000201), 0xee)

	// 32bit access splits into two 16bit operations
	mem.Write32(0x04000208, 0xcafe0001)
	test.Equate(t, mem.Read16(0x04000208), 0x0001)
	test.Equate(t, mem.Read16(0x0400020a), 0xcafe)
	test.Equate(t, mem.Read32(0x04000208), 0xcafe0001)

	// the IO window does not mirror past 0x400: reads see the open bus
	test.Equate(t, mem.Read16(0x04000400), 0x0200)
}

func TestOpenBus(t *testing.T) {
	mem := newTestMemory()

	// unmapped regions return the low bits of the address as a 16bit
	// pattern
	test.Equate(t, mem.Read16(0x01000020), 0x0010)
	test.Equate(t, mem.Read32(0x01000020), uint32(0x0010|0x0011<<16))
	test.Equate(t, mem.Read8(0x01000020), 0x10)
	test.Equate(t, mem.Read8(0x01000021), 0x00)

	// out of range cartridge ROM reads behave the same way
	test.ExpectedSuccess(t, mem.SetCartROM(make([]uint8, 0x100)))
	test.Equate(t, mem.Read16(0x08000200), 0x0100)
}

func TestROMWindows(t *testing.T) {
	mem := newTestMemory()

	rom := make([]uint8, 0x200)
	rom[0x10] = 0x12
	rom[0x11] = 0x34
	test.ExpectedSuccess(t, mem.SetCartROM(rom))

	// the same ROM appears in all three wait state windows
	test.Equate(t, mem.Read16(0x08000010), 0x3412)
	test.Equate(t, mem.Read16(0x0a000010), 0x3412)
	test.Equate(t, mem.Read16(0x0c000010), 0x3412)

	// ROM writes are dropped
	mem.Write16(0x08000010, 0xffff)
	test.Equate(t, mem.Read16(0x08000010), 0x3412)
}

func TestWaitStates(t *testing.T) {
	mem := newTestMemory()

	// internal memories are single cycle at every width
	test.Equate(t, mem.AccessCycles(0x03000000, 4, false), 1)
	test.Equate(t, mem.AccessCycles(0x04000000, 2, false), 1)

	// EWRAM is 3 cycles for 8/16 bits and 6 for 32
	test.Equate(t, mem.AccessCycles(0x02000000, 2, false), 3)
	test.Equate(t, mem.AccessCycles(0x02000000, 4, false), 6)

	// palette and VRAM pay one extra cycle at 32 bits
	test.Equate(t, mem.AccessCycles(0x05000000, 2, false), 1)
	test.Equate(t, mem.AccessCycles(0x06000000, 4, false), 2)

	// cartridge window 0 power-on timing: N=5, S=3; a 32bit access
	// adds a sequential second half
	test.Equate(t, mem.AccessCycles(0x08000000, 2, false), 5)
	test.Equate(t, mem.AccessCycles(0x08000000, 2, true), 3)
	test.Equate(t, mem.AccessCycles(0x08000000, 4, false), 8)
	test.Equate(t, mem.AccessCycles(0x08000000, 4, true), 6)

	// reprogram via WAITCNT: ws0 N=3,S=2 is encoded as 0x0018
	mem.UpdateWaitControl(0x0018)
	test.Equate(t, mem.AccessCycles(0x08000000, 2, false), 3)
	test.Equate(t, mem.AccessCycles(0x08000000, 2, true), 2)

	// save region timing comes from the SRAM field
	mem.UpdateWaitControl(0x0003)
	test.Equate(t, mem.AccessCycles(0x0e000000, 1, false), 9)
}

func TestMapAddress(t *testing.T) {
	mem := newTestMemory()

	rom := make([]uint8, 0x100)
	test.ExpectedSuccess(t, mem.SetCartROM(rom))

	buf, idx := mem.MapAddress(0x08000010)
	test.ExpectedSuccess(t, buf != nil)
	test.Equate(t, idx, uint32(0x10))

	// out of range ROM cannot hold code
	buf, _ = mem.MapAddress(0x08001000)
	test.ExpectedSuccess(t, buf == nil)

	// no BIOS attached: the reset vector is unmapped
	buf, _ = mem.MapAddress(0x00000000)
	test.ExpectedSuccess(t, buf == nil)
}
