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

// Package memory implements the 16bit address space of the 8bit
// console. The bus owns every internal memory region; the cartridge
// (ROM and external RAM) is reached through the Mapper interface and
// reads/writes of IO registers are offered to the RegisterHandler
// before they touch the register file.
package memory

import (
	"github.com/jetsetilly/gopherboy/hardware/dmg/memory/addresses"
)

// Mapper is the cartridge as seen by the bus. It decodes the ROM
// window (0x0000 to 0x7fff) and the external RAM window (0xa000 to
// 0xbfff), including any bank switching scheme the cartridge uses.
type Mapper interface {
	Read(addr uint16) uint8
	Write(addr uint16, data uint8)
}

// RegisterHandler is consulted for every access to the IO window and
// the IE register. ReadRegister returns the value the read should
// observe, given the stored register value. WriteRegister returns true
// if the write was consumed and should not be stored.
type RegisterHandler interface {
	ReadRegister(addr uint16, val uint8) uint8
	WriteRegister(addr uint16, data uint8) bool
}

// Memory is the bus of the 8bit console.
type Memory struct {
	cart Mapper
	regs RegisterHandler

	// on the colour model VRAM has two banks, selected by VBK, and the
	// switched WRAM bank is selected by SVBK
	vram [2][0x2000]uint8
	wram [8][0x1000]uint8
	oam  [0xa0]uint8
	hram [0x7f]uint8

	// IO register file, indexed by the low byte of the address. IE
	// lives apart at 0xffff
	io [0x80]uint8
	ie uint8

	vramBank int
	wramBank int

	// colour model flag. decided by the cartridge header at reset
	color bool
}

// NewMemory is the preferred method of initialisation for the Memory
// type. The register handler is attached later with Plumb().
func NewMemory(cart Mapper) *Memory {
	return &Memory{
		cart:     cart,
		wramBank: 1,
	}
}

// Plumb the register handler into the bus.
func (mem *Memory) Plumb(regs RegisterHandler) {
	mem.regs = regs
}

// Reset the bus to its post-boot state.
func (mem *Memory) Reset() {
	for b := range mem.vram {
		for i := range mem.vram[b] {
			mem.vram[b][i] = 0
		}
	}
	for b := range mem.wram {
		for i := range mem.wram[b] {
			mem.wram[b][i] = 0
		}
	}
	for i := range mem.oam {
		mem.oam[i] = 0
	}
	for i := range mem.hram {
		mem.hram[i] = 0
	}
	for i := range mem.io {
		mem.io[i] = 0
	}
	mem.ie = 0
	mem.vramBank = 0
	mem.wramBank = 1

	mem.color = mem.cart != nil && mem.cart.Read(addresses.CartridgeType)&0x80 == 0x80
}

// Color returns true if the cartridge header has requested the colour
// model.
func (mem *Memory) Color() bool {
	return mem.color
}

// Read a byte from the specified address.
func (mem *Memory) Read(addr uint16) uint8 {
	switch {
	case addr < 0x8000:
		// ROM banks 0 and 1 decode inside the cartridge
		if mem.cart == nil {
			return 0xff
		}
		return mem.cart.Read(addr)

	case addr < 0xa000:
		return mem.vram[mem.vramBank][addr&0x1fff]

	case addr < 0xc000:
		if mem.cart == nil {
			return 0xff
		}
		return mem.cart.Read(addr)

	case addr < 0xd000:
		return mem.wram[0][addr&0x0fff]

	case addr < 0xe000:
		return mem.wram[mem.wramBank][addr&0x0fff]

	case addr < 0xfe00:
		// echo of 0xc000 to 0xddff
		return mem.Read(addr - 0x2000)

	case addr < 0xfea0:
		return mem.oam[addr-0xfe00]

	case addr < 0xff00:
		// unusable region
		return 0xff

	case addr < 0xff80:
		return mem.regs.ReadRegister(addr, mem.io[addr&0x7f])

	case addr < 0xffff:
		return mem.hram[addr-0xff80]
	}

	return mem.regs.ReadRegister(addr, mem.ie)
}

// Write a byte to the specified address.
func (mem *Memory) Write(addr uint16, data uint8) {
	switch {
	case addr < 0x8000:
		if mem.cart != nil {
			mem.cart.Write(addr, data)
		}

	case addr < 0xa000:
		mem.vram[mem.vramBank][addr&0x1fff] = data

	case addr < 0xc000:
		if mem.cart != nil {
			mem.cart.Write(addr, data)
		}

	case addr < 0xd000:
		mem.wram[0][addr&0x0fff] = data

	case addr < 0xe000:
		mem.wram[mem.wramBank][addr&0x0fff] = data

	case addr < 0xfe00:
		mem.Write(addr-0x2000, data)

	case addr < 0xfea0:
		mem.oam[addr-0xfe00] = data

	case addr < 0xff00:
		// unusable region. writes are dropped

	case addr < 0xff80:
		if mem.regs.WriteRegister(addr, data) {
			return
		}
		mem.io[addr&0x7f] = data

		// bank selection registers take effect on write
		switch uint8(addr) {
		case addresses.VBK:
			if mem.color {
				mem.vramBank = int(data & 0x01)
			}
		case addresses.SVBK:
			if mem.color {
				mem.wramBank = int(data & 0x07)
				if mem.wramBank == 0 {
					mem.wramBank = 1
				}
			}
		}

	case addr < 0xffff:
		mem.hram[addr-0xff80] = data

	default:
		if mem.regs.WriteRegister(addr, data) {
			return
		}
		mem.ie = data
	}
}

// ReadIO reads an IO register directly, without consulting the
// register handler. The reg argument is the low byte of the address.
func (mem *Memory) ReadIO(reg uint8) uint8 {
	if reg == addresses.IE {
		return mem.ie
	}
	return mem.io[reg&0x7f]
}

// WriteIO writes an IO register directly, without consulting the
// register handler.
func (mem *Memory) WriteIO(reg uint8, data uint8) {
	if reg == addresses.IE {
		mem.ie = data
		return
	}
	mem.io[reg&0x7f] = data
}
