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

package dmg_test

import (
	"testing"

	"github.com/jetsetilly/gopherboy/curated"
	"github.com/jetsetilly/gopherboy/hardware/dmg"
	"github.com/jetsetilly/gopherboy/hardware/dmg/memory/addresses"
	"github.com/jetsetilly/gopherboy/test"
)

// flatCart is a 32k cartridge with no banking.
type flatCart struct {
	rom [0x8000]uint8
	ram [0x2000]uint8
}

func (c *flatCart) Read(addr uint16) uint8 {
	if addr < 0x8000 {
		return c.rom[addr]
	}
	return c.ram[addr&0x1fff]
}

func (c *flatCart) Write(addr uint16, data uint8) {
	if addr >= 0xa000 && addr < 0xc000 {
		c.ram[addr&0x1fff] = data
	}
}

func newTestDMG(program ...uint8) (*dmg.DMG, *flatCart) {
	cart := &flatCart{}
	copy(cart.rom[0x0100:], program)
	sys := dmg.NewDMG(cart)
	sys.Reset()
	return sys, cart
}

func TestRunBeforeReset(t *testing.T) {
	sys := dmg.NewDMG(&flatCart{})
	err := sys.Run(1)
	test.ExpectedFailure(t, err)
	test.ExpectedSuccess(t, curated.Is(err, dmg.NotReset))
}

func TestRunProgram(t *testing.T) {
	// a program that copies a value through memory and stops
	sys, _ := newTestDMG(
		0x3e, 0x5a, // LD A,0x5a
		0xea, 0x00, 0xc0, // LD (0xc000),A
		0x10, // STOP
	)

	err := sys.Run(1)
	test.ExpectedSuccess(t, err)
	test.ExpectedSuccess(t, sys.CPU.Stopped)
	test.Equate(t, sys.Mem.Read(0xc000), 0x5a)
}

func TestCycleCallback(t *testing.T) {
	sys, _ := newTestDMG(0x00, 0x00, 0x10) // NOP / NOP / STOP

	total := 0
	sys.SetCycleCallback(func(cycles int) {
		total += cycles
	})

	err := sys.Run(1)
	test.ExpectedSuccess(t, err)
	test.Equate(t, total, 12)
}

func TestOAMDMA(t *testing.T) {
	sys, _ := newTestDMG(0x10)

	// source block in work ram
	for i := 0; i < 0xa0; i++ {
		sys.Mem.Write(0xc000+uint16(i), uint8(i))
	}

	// write to the DMA register triggers the copy atomically
	sys.Mem.Write(0xff00|addresses.DMA, 0xc0)

	for i := 0; i < 0xa0; i++ {
		test.Equate(t, sys.Mem.Read(0xfe00+uint16(i)), uint8(i))
	}
}

func TestGeneralPurposeDMA(t *testing.T) {
	sys, _ := newTestDMG(0x10)

	for i := 0; i < 0x20; i++ {
		sys.Mem.Write(0xc100+uint16(i), uint8(0x80+i))
	}

	sys.Mem.Write(0xff00|addresses.HDMA1, 0xc1)
	sys.Mem.Write(0xff00|addresses.HDMA2, 0x00)
	sys.Mem.Write(0xff00|addresses.HDMA3, 0x01)
	sys.Mem.Write(0xff00|addresses.HDMA4, 0x00)

	// bit 7 clear: general purpose transfer of two 16 byte blocks
	sys.Mem.Write(0xff00|addresses.HDMA5, 0x01)

	for i := 0; i < 0x20; i++ {
		test.Equate(t, sys.Mem.Read(0x8100+uint16(i)), uint8(0x80+i))
	}
	test.Equate(t, sys.Mem.ReadIO(addresses.HDMA5), 0xff)

	// bit 7 set: hblank paced transfer is not implemented and is
	// ignored
	sys.Mem.Write(0x8100, 0x00)
	sys.Mem.Write(0xff00|addresses.HDMA5, 0x81)
	test.Equate(t, sys.Mem.Read(0x8100), 0x00)
}

func TestKeyInput(t *testing.T) {
	sys, _ := newTestDMG(0x10)

	// select the direction half of the matrix (bit 4 low)
	sys.Mem.Write(0xff00|addresses.JOYP, 0x20)

	// nothing pressed: low nibble reads high
	test.Equate(t, sys.Mem.Read(0xff00|addresses.JOYP)&0x0f, 0x0f)

	sys.SetInputs(0x01)
	test.Equate(t, sys.Mem.Read(0xff00|addresses.JOYP)&0x0f, 0x0e)

	// the press flagged the joypad interrupt
	test.Equate(t, sys.Mem.ReadIO(addresses.IF)&addresses.IntJoypad, addresses.IntJoypad)
}

func TestStopWake(t *testing.T) {
	sys, _ := newTestDMG(0x10, 0x00, 0x00) // STOP / NOP / NOP

	err := sys.Run(1)
	test.ExpectedSuccess(t, err)
	test.ExpectedSuccess(t, sys.CPU.Stopped)

	sys.SetInputs(0x10)
	test.ExpectedFailure(t, sys.CPU.Stopped)
}
