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

// Package memory implements the 32bit address space of the 32bit
// console. The top byte of an address selects the region. The bus owns
// every internal region, the cartridge save state machine and the wait
// state bookkeeping; IO register traffic is offered to the
// RegisterHandler at its natural 16bit width.
//
// Addresses passed to the 16bit and 32bit access functions are assumed
// to be aligned; the CPU performs the architectural rotation of
// unaligned reads before they arrive here.
package memory

import (
	"github.com/jetsetilly/gopherboy/curated"
)

// sentinel errors for host misuse at the attach boundary.
const (
	InvalidBIOSSize = "agb memory: bios must be 16k (not %d bytes)"
	InvalidROMSize  = "agb memory: cartridge rom too large (%d bytes)"
	InvalidSaveSize = "agb memory: unrecognised save size (%d bytes)"
)

// region sizes.
const (
	biosSize  = 0x4000
	ewramSize = 0x40000
	iwramSize = 0x8000
	ioSize    = 0x400
	palSize   = 0x400
	vramSize  = 0x18000
	oamSize   = 0x400
	maxROM    = 0x2000000
)

// RegisterHandler is consulted for every 16bit access to the IO
// window. ReadRegister returns the value the read should observe,
// given the stored register value. WriteRegister returns true if the
// write was consumed and should not be stored.
type RegisterHandler interface {
	ReadRegister(addr uint32, val uint16) uint16
	WriteRegister(addr uint32, data uint16) bool
}

// Memory is the bus of the 32bit console.
type Memory struct {
	regs RegisterHandler

	bios []uint8
	rom  []uint8

	ewram [ewramSize]uint8
	iwram [iwramSize]uint8
	io    [ioSize]uint8
	pal   [palSize]uint8
	vram  [vramSize]uint8
	oam   [oamSize]uint8

	// cartridge save state. see save.go
	saveType      SaveType
	saveData      [0x20000]uint8
	saveSize      int
	flashState    flashState
	flashCmdState int
	flashBank     uint32
	flashID       [2]uint8
	eepromIn      [0x80]uint8
	eepromOut     [0x84]uint8

	// per wait-state-window access cycles. index 3 is the save region.
	// see waitstates.go
	cartAccessN [4]int
	cartAccessS [4]int
}

// NewMemory is the preferred method of initialisation for the Memory
// type. The register handler is attached later with Plumb().
func NewMemory() *Memory {
	mem := &Memory{}
	mem.Reset()
	return mem
}

// Plumb the register handler into the bus.
func (mem *Memory) Plumb(regs RegisterHandler) {
	mem.regs = regs
}

// SetBIOS attaches the BIOS ROM. The image must be exactly 16k.
func (mem *Memory) SetBIOS(data []uint8) error {
	if len(data) != biosSize {
		return curated.Errorf(InvalidBIOSSize, len(data))
	}
	mem.bios = data
	return nil
}

// SetCartROM attaches the cartridge ROM. Images larger than the 32M
// window are rejected.
func (mem *Memory) SetCartROM(data []uint8) error {
	if len(data) > maxROM {
		return curated.Errorf(InvalidROMSize, len(data))
	}
	mem.rom = data
	return nil
}

// Reset the bus. The BIOS and cartridge ROM attachments survive a
// reset; everything else returns to its power-on state.
func (mem *Memory) Reset() {
	for i := range mem.ewram {
		mem.ewram[i] = 0
	}
	for i := range mem.iwram {
		mem.iwram[i] = 0
	}
	for i := range mem.io {
		mem.io[i] = 0
	}
	for i := range mem.pal {
		mem.pal[i] = 0
	}
	for i := range mem.vram {
		mem.vram[i] = 0
	}
	for i := range mem.oam {
		mem.oam[i] = 0
	}

	mem.resetSave()
	mem.resetWaitControl()
}

// helpers for the little-endian backing buffers.

func get16(s []uint8) uint16 {
	return uint16(s[0]) | uint16(s[1])<<8
}

func put16(s []uint8, v uint16) {
	s[0] = uint8(v)
	s[1] = uint8(v >> 8)
}

func get32(s []uint8) uint32 {
	return uint32(s[0]) | uint32(s[1])<<8 | uint32(s[2])<<16 | uint32(s[3])<<24
}

func put32(s []uint8, v uint32) {
	s[0] = uint8(v)
	s[1] = uint8(v >> 8)
	s[2] = uint8(v >> 16)
	s[3] = uint8(v >> 24)
}

// open bus reads return the low bits of the address as a 16bit
// pattern. out of range cartridge ROM reads behave the same way.

func openBus8(addr uint32) uint8 {
	return uint8((addr >> 1) >> ((addr & 1) * 8))
}

func openBus16(addr uint32) uint16 {
	return uint16(addr >> 1)
}

func openBus32(addr uint32) uint32 {
	low := addr >> 1 & 0xffff
	return low | (low+1)<<16
}

// vramIndex folds the 128k addressing of the 96k VRAM region. the last
// 32k is a mirror of the previous 32k.
func vramIndex(addr uint32) uint32 {
	addr &= 0x1ffff
	if addr >= vramSize {
		addr &^= 0x8000
	}
	return addr
}

// Read8 reads a byte from the specified address.
func (mem *Memory) Read8(addr uint32) uint8 {
	switch addr >> 24 {
	case 0x0:
		if mem.bios == nil {
			return openBus8(addr)
		}
		return mem.bios[addr&(biosSize-1)]
	case 0x2:
		return mem.ewram[addr&(ewramSize-1)]
	case 0x3:
		return mem.iwram[addr&(iwramSize-1)]
	case 0x4:
		// IO is naturally 16bit. extract the byte from the 16bit read
		v := mem.readIO16(addr &^ 1)
		return uint8(v >> ((addr & 1) * 8))
	case 0x5:
		return mem.pal[addr&(palSize-1)]
	case 0x6:
		return mem.vram[vramIndex(addr)]
	case 0x7:
		return mem.oam[addr&(oamSize-1)]
	case 0x8, 0x9, 0xa, 0xb, 0xc, 0xd:
		a := addr & (maxROM - 1)
		if int(a) >= len(mem.rom) {
			return openBus8(a)
		}
		return mem.rom[a]
	case 0xe, 0xf:
		return mem.saveRead8(addr)
	}

	return openBus8(addr)
}

// Read16 reads an aligned halfword from the specified address.
func (mem *Memory) Read16(addr uint32) uint16 {
	addr &^= 1

	switch addr >> 24 {
	case 0x0:
		if mem.bios == nil {
			return openBus16(addr)
		}
		return get16(mem.bios[addr&(biosSize-2):])
	case 0x2:
		return get16(mem.ewram[addr&(ewramSize-2):])
	case 0x3:
		return get16(mem.iwram[addr&(iwramSize-2):])
	case 0x4:
		return mem.readIO16(addr)
	case 0x5:
		return get16(mem.pal[addr&(palSize-2):])
	case 0x6:
		return get16(mem.vram[vramIndex(addr):])
	case 0x7:
		return get16(mem.oam[addr&(oamSize-2):])
	case 0x8, 0x9, 0xa, 0xb, 0xc:
		return mem.romRead16(addr)
	case 0xd:
		// a 16bit read from the upper ROM window could be EEPROM
		if mem.saveType == SaveEEPROM {
			return uint16(mem.eepromOut[(addr&0xff)>>1])
		}
		return mem.romRead16(addr)
	case 0xe, 0xf:
		b := uint16(mem.saveRead8(addr))
		return b | b<<8
	}

	return openBus16(addr)
}

// Read32 reads an aligned word from the specified address.
func (mem *Memory) Read32(addr uint32) uint32 {
	addr &^= 3

	switch addr >> 24 {
	case 0x0:
		if mem.bios == nil {
			return openBus32(addr)
		}
		return get32(mem.bios[addr&(biosSize-4):])
	case 0x2:
		return get32(mem.ewram[addr&(ewramSize-4):])
	case 0x3:
		return get32(mem.iwram[addr&(iwramSize-4):])
	case 0x4:
		// split into two 16bit reads, low half first
		return uint32(mem.readIO16(addr)) | uint32(mem.readIO16(addr+2))<<16
	case 0x5:
		return get32(mem.pal[addr&(palSize-4):])
	case 0x6:
		return get32(mem.vram[vramIndex(addr):])
	case 0x7:
		return get32(mem.oam[addr&(oamSize-4):])
	case 0x8, 0x9, 0xa, 0xb, 0xc, 0xd:
		a := addr & (maxROM - 4)
		if int(a)+4 > len(mem.rom) {
			return openBus32(a)
		}
		return get32(mem.rom[a:])
	case 0xe, 0xf:
		b := uint32(mem.saveRead8(addr))
		return b | b<<8 | b<<16 | b<<24
	}

	return openBus32(addr)
}

// Write8 writes a byte to the specified address. Byte writes to
// palette RAM and the background half of VRAM are duplicated into both
// halves of the addressed halfword; byte writes to OAM and the sprite
// half of VRAM are ignored.
func (mem *Memory) Write8(addr uint32, data uint8) {
	switch addr >> 24 {
	case 0x2:
		mem.ewram[addr&(ewramSize-1)] = data
	case 0x3:
		mem.iwram[addr&(iwramSize-1)] = data
	case 0x4:
		// promote to a 16bit write by merging with the stored value
		if addr&0x00ffffff >= ioSize {
			return
		}
		v := get16(mem.io[addr&0x3fe:])
		if addr&1 == 1 {
			v = v&0x00ff | uint16(data)<<8
		} else {
			v = v&0xff00 | uint16(data)
		}
		mem.writeIO16(addr&^1, v)
	case 0x5:
		put16(mem.pal[addr&(palSize-2):], uint16(data)|uint16(data)<<8)
	case 0x6:
		if addr&0x1ffff < 0x10000 {
			// background VRAM behaves like palette RAM
			a := addr & 0xfffe
			put16(mem.vram[a:], uint16(data)|uint16(data)<<8)
		}
		// sprite VRAM ignores byte writes
	case 0x7:
		// OAM ignores byte writes
	case 0xe, 0xf:
		mem.saveWrite8(addr, data)
	}
}

// Write16 writes an aligned halfword to the specified address.
func (mem *Memory) Write16(addr uint32, data uint16) {
	addr &^= 1

	switch addr >> 24 {
	case 0x2:
		put16(mem.ewram[addr&(ewramSize-2):], data)
	case 0x3:
		put16(mem.iwram[addr&(iwramSize-2):], data)
	case 0x4:
		mem.writeIO16(addr, data)
	case 0x5:
		put16(mem.pal[addr&(palSize-2):], data)
	case 0x6:
		put16(mem.vram[vramIndex(addr):], data)
	case 0x7:
		put16(mem.oam[addr&(oamSize-2):], data)
	case 0xd:
		mem.eepromWrite16(addr, data)
	case 0xe, 0xf:
		mem.saveWrite8(addr, uint8(data))
	}
}

// Write32 writes an aligned word to the specified address.
func (mem *Memory) Write32(addr uint32, data uint32) {
	addr &^= 3

	switch addr >> 24 {
	case 0x2:
		put32(mem.ewram[addr&(ewramSize-4):], data)
	case 0x3:
		put32(mem.iwram[addr&(iwramSize-4):], data)
	case 0x4:
		// split into two 16bit writes, low half first
		mem.writeIO16(addr, uint16(data))
		mem.writeIO16(addr+2, uint16(data>>16))
	case 0x5:
		put32(mem.pal[addr&(palSize-4):], data)
	case 0x6:
		put32(mem.vram[vramIndex(addr):], data)
	case 0x7:
		put32(mem.oam[addr&(oamSize-4):], data)
	case 0xe, 0xf:
		mem.saveWrite8(addr, uint8(data))
	}
}

// romRead16 reads from the cartridge ROM windows. out of range reads
// return the low bits of the (halfword) address, which is what the
// unconnected bus lines float to.
func (mem *Memory) romRead16(addr uint32) uint16 {
	a := addr & (maxROM - 2)
	if int(a)+2 > len(mem.rom) {
		return openBus16(a)
	}
	return get16(mem.rom[a:])
}

// readIO16 reads a stored IO register and offers the value to the
// register handler. The IO window does not mirror past its 0x400
// bytes.
func (mem *Memory) readIO16(addr uint32) uint16 {
	if addr&0x00ffffff >= ioSize {
		return openBus16(addr)
	}

	v := get16(mem.io[addr&0x3fe:])
	if mem.regs != nil {
		v = mem.regs.ReadRegister(addr, v)
	}
	return v
}

// writeIO16 offers the write to the register handler and stores it in
// the register file if it was not consumed.
func (mem *Memory) writeIO16(addr uint32, data uint16) {
	if addr&0x00ffffff >= ioSize {
		return
	}

	if mem.regs != nil && mem.regs.WriteRegister(addr, data) {
		return
	}
	put16(mem.io[addr&0x3fe:], data)
}

// ReadIO reads an IO register directly, without consulting the
// register handler. The reg argument is the offset into the IO window.
func (mem *Memory) ReadIO(reg uint32) uint16 {
	return get16(mem.io[reg&0x3fe:])
}

// WriteIO writes an IO register directly, without consulting the
// register handler.
func (mem *Memory) WriteIO(reg uint32, data uint16) {
	put16(mem.io[reg&0x3fe:], data)
}

// MapAddress returns the backing buffer for the region containing the
// address, along with the index of the address in that buffer. Used by
// the CPU to cache a prefetch window. Returns nil for regions that
// cannot hold code.
func (mem *Memory) MapAddress(addr uint32) ([]uint8, uint32) {
	switch addr >> 24 {
	case 0x0:
		if mem.bios == nil {
			return nil, 0
		}
		return mem.bios, addr & (biosSize - 1)
	case 0x2:
		return mem.ewram[:], addr & (ewramSize - 1)
	case 0x3:
		return mem.iwram[:], addr & (iwramSize - 1)
	case 0x5:
		return mem.pal[:], addr & (palSize - 1)
	case 0x6:
		return mem.vram[:], vramIndex(addr)
	case 0x7:
		return mem.oam[:], addr & (oamSize - 1)
	case 0x8, 0x9, 0xa, 0xb, 0xc, 0xd:
		a := addr & (maxROM - 1)
		if int(a) >= len(mem.rom) {
			return nil, 0
		}
		return mem.rom, a
	}

	return nil, 0
}
