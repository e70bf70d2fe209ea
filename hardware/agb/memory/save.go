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
	"github.com/jetsetilly/gopherboy/curated"
	"github.com/jetsetilly/gopherboy/logger"
)

// SaveType identifies the cartridge save hardware. The type is decided
// once per session: either from the size of a loaded save blob or from
// the first write the program makes to the save region.
type SaveType int

// List of valid SaveType values.
const (
	SaveUnknown SaveType = iota
	SaveEEPROM
	SaveSRAM
	SaveFlash
)

func (t SaveType) String() string {
	switch t {
	case SaveEEPROM:
		return "EEPROM"
	case SaveSRAM:
		return "SRAM"
	case SaveFlash:
		return "Flash"
	}
	return "unknown"
}

// flashState is the command state of the flash chip.
type flashState int

const (
	flashRead flashState = iota
	flashErase
	flashWrite
	flashBankSelect
	flashID
)

// the flash command sequence is two unlock writes followed by the
// command itself.
const (
	flashCmdAddr1 = 0x0e005555
	flashCmdAddr2 = 0x0e002aaa
)

func (mem *Memory) resetSave() {
	mem.saveType = SaveUnknown
	mem.saveSize = 0
	mem.flashState = flashRead
	mem.flashCmdState = 0
	mem.flashBank = 0

	for i := range mem.saveData {
		mem.saveData[i] = 0xff
	}
	for i := range mem.eepromIn {
		mem.eepromIn[i] = 0
	}
	for i := range mem.eepromOut {
		mem.eepromOut[i] = 0
	}
}

// SaveType returns the detected save hardware.
func (mem *Memory) SaveType() SaveType {
	return mem.saveType
}

// LoadSave attaches a save blob. The size of the blob determines the
// save hardware: 512 or 4096 bytes for EEPROM, 32k for SRAM, 64k or
// 128k for flash.
func (mem *Memory) LoadSave(data []uint8) error {
	switch len(data) {
	case 512, 4096:
		mem.saveType = SaveEEPROM
	case 32 * 1024:
		mem.saveType = SaveSRAM
	case 64 * 1024, 128 * 1024:
		mem.saveType = SaveFlash
	default:
		return curated.Errorf(InvalidSaveSize, len(data))
	}

	mem.saveSize = len(data)
	copy(mem.saveData[:], data)
	return nil
}

// SaveData returns a copy of the save blob, sized for the detected
// save hardware. Returns nil if no save hardware has been detected.
func (mem *Memory) SaveData() []uint8 {
	if mem.saveType == SaveUnknown || mem.saveSize == 0 {
		return nil
	}
	data := make([]uint8, mem.saveSize)
	copy(data, mem.saveData[:mem.saveSize])
	return data
}

// saveRead8 reads a byte from the save region. the only width the
// hardware really supports; wider reads duplicate the byte.
func (mem *Memory) saveRead8(addr uint32) uint8 {
	switch mem.saveType {
	case SaveSRAM:
		// SRAM is 32k and wraps
		return mem.saveData[addr&0x7fff]
	case SaveFlash:
		if mem.flashState == flashID {
			return mem.flashID[addr&1]
		}
		// one or two 64k banks
		return mem.saveData[(addr&0xffff)+mem.flashBank<<16]
	}

	return 0xff
}

// saveWrite8 writes a byte to the save region, deciding the save
// hardware on the first write of the session.
func (mem *Memory) saveWrite8(addr uint32, data uint8) {
	if mem.saveType == SaveUnknown {
		// the first write of the flash unlock sequence implies flash
		if addr == flashCmdAddr1 && data == 0xaa {
			mem.saveType = SaveFlash
			mem.saveSize = 64 * 1024
		} else {
			mem.saveType = SaveSRAM
			mem.saveSize = 32 * 1024
		}
		logger.Logf("agb", "cartridge save detected as %s", mem.saveType)
	}

	if mem.saveType == SaveFlash {
		mem.flashWrite8(addr, data)
		return
	}

	if mem.saveType == SaveSRAM {
		mem.saveData[addr&0x7fff] = data
	}
}

// flashWrite8 runs the flash command state machine.
func (mem *Memory) flashWrite8(addr uint32, data uint8) {
	// bank switch and data write states consume the next write
	if mem.flashState == flashBankSelect && addr == 0x0e000000 {
		mem.flashBank = uint32(data & 1)
		if mem.flashBank == 1 {
			mem.saveSize = 128 * 1024
		}
		mem.flashState = flashRead
		return
	}

	if mem.flashState == flashWrite {
		mem.saveData[(addr&0xffff)+mem.flashBank<<16] = data
		mem.flashState = flashRead
		return
	}

	// command parsing
	switch {
	case mem.flashCmdState < 2 && addr == flashCmdAddr1 && data == 0xaa:
		// a repeated first unlock write restarts the sequence
		mem.flashCmdState = 1

	case mem.flashCmdState == 1 && addr == flashCmdAddr2 && data == 0x55:
		mem.flashCmdState = 2

	case mem.flashCmdState == 2:
		switch {
		case data == 0x10 && addr == flashCmdAddr1 && mem.flashState == flashErase:
			// erase entire chip
			for i := range mem.saveData {
				mem.saveData[i] = 0xff
			}
			mem.flashState = flashRead

		case data == 0x30 && mem.flashState == flashErase:
			// erase the addressed 4k sector
			base := (addr & 0xf000) + mem.flashBank<<16
			for i := uint32(0); i < 0x1000; i++ {
				mem.saveData[base+i] = 0xff
			}
			mem.flashState = flashRead

		case data == 0x80 && addr == flashCmdAddr1:
			// arm an erase. the erase itself happens later
			mem.flashState = flashErase

		case data == 0x90 && addr == flashCmdAddr1:
			// the id of a 128k sanyo part
			mem.flashID[0] = 0x62
			mem.flashID[1] = 0x13
			mem.flashState = flashID

		case data == 0xa0 && addr == flashCmdAddr1:
			mem.flashState = flashWrite

		case data == 0xb0 && addr == flashCmdAddr1:
			mem.flashState = flashBankSelect

		case data == 0xf0 && addr == flashCmdAddr1:
			mem.flashState = flashRead

		default:
			logger.Logf("agb", "unrecognised flash command %#02x", data)
		}
		mem.flashCmdState = 0

	default:
		mem.flashCmdState = 0
	}
}

// eepromWrite16 feeds the EEPROM bitstream. The EEPROM is addressed
// through 16bit writes to the upper ROM window; the first such write
// of a session claims the save hardware.
func (mem *Memory) eepromWrite16(addr uint32, data uint16) {
	if mem.saveType == SaveUnknown {
		mem.saveType = SaveEEPROM
		mem.saveSize = 512
		logger.Logf("agb", "cartridge save detected as %s", mem.saveType)
	}

	if mem.saveType != SaveEEPROM {
		return
	}

	mem.eepromIn[(addr&0xff)>>1] = uint8(data & 1)

	if addr&0xff == 0x10 && mem.eepromIn[0] == 1 && mem.eepromIn[1] == 1 {
		// end of a read request. the six address bits select an 8 byte
		// block which is clocked out over the next 68 reads
		eepromAddr := uint32(mem.eepromIn[2])<<5 | uint32(mem.eepromIn[3])<<4 |
			uint32(mem.eepromIn[4])<<3 | uint32(mem.eepromIn[5])<<2 |
			uint32(mem.eepromIn[6])<<1 | uint32(mem.eepromIn[7])

		var v uint64
		for i := uint32(0); i < 8; i++ {
			v |= uint64(mem.saveData[eepromAddr*8+i]) << (i * 8)
		}

		for i := 0; i < 64; i++ {
			if v&(1<<(63-i)) != 0 {
				mem.eepromOut[i+4] = 1
			} else {
				mem.eepromOut[i+4] = 0
			}
		}
	} else if addr&0xff == 0x90 && mem.eepromIn[0] == 1 && mem.eepromIn[1] == 0 {
		// end of a write request: six address bits followed by 64 data
		// bits
		eepromAddr := uint32(mem.eepromIn[2])<<5 | uint32(mem.eepromIn[3])<<4 |
			uint32(mem.eepromIn[4])<<3 | uint32(mem.eepromIn[5])<<2 |
			uint32(mem.eepromIn[6])<<1 | uint32(mem.eepromIn[7])

		var v uint64
		for i := 0; i < 64; i++ {
			v |= uint64(mem.eepromIn[i+8]&1) << (63 - i)
		}

		for i := uint32(0); i < 8; i++ {
			mem.saveData[eepromAddr*8+i] = uint8(v >> (i * 8))
		}

		mem.eepromOut[0] = 1
	}
}
