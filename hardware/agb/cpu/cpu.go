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
	"fmt"
	"strings"

	"github.com/jetsetilly/gopherboy/logger"
)

// sentinel errors.
const (
	UnimplementedInstruction = "agb cpu: unimplemented instruction (%#08x) (PC=%#08x)"
	NoProgramMemory          = "agb cpu: no program memory at %#08x"
)

// the address of the HALTCNT register. an 8bit write here is consumed
// by the CPU rather than the bus.
const haltcntAddr = 0x04000301

// Memory is the bus as the CPU sees it. The 16bit and 32bit accessors
// expect aligned addresses; the CPU performs the architectural
// rotation for unaligned reads itself. MapAddress and AccessCycles
// support the prefetch cache and the S/N/I cycle counting.
type Memory interface {
	Read8(addr uint32) uint8
	Read16(addr uint32) uint16
	Read32(addr uint32) uint32
	Write8(addr uint32, data uint8)
	Write16(addr uint32, data uint16)
	Write32(addr uint32, data uint32)
	AccessCycles(addr uint32, width int, sequential bool) int
	MapAddress(addr uint32) ([]uint8, uint32)
}

// CPU implements the ARM7TDMI as found in the 32bit console. The T bit
// of CPSR selects between the 32bit and 16bit instruction encodings.
type CPU struct {
	mem Memory

	// the physical register slots and the logical register map for the
	// current mode
	regs   [numSlots]uint32
	regMap [16]uint8

	// saved program status registers, one per privileged mode
	spsr [5]uint32

	CPSR uint32

	// Halted is set through the HALTCNT register and cleared by any
	// interrupt that passes the IE mask
	Halted bool

	// prefetch cache. fetch is the backing buffer of the region the PC
	// is executing from and fetchIdx the index of the PC within it.
	// invalidated whenever the PC changes discontinuously
	fetch    []uint8
	fetchIdx uint32

	// fetch cycle costs for the current prefetch region
	pcSCycles int
	pcNCycles int
}

// NewCPU is the preferred method of initialisation for the CPU type.
func NewCPU(mem Memory) *CPU {
	mc := &CPU{mem: mem}
	mc.regMap = bankMap(ModeSupervisor)
	return mc
}

// Plumb a new Memory implementation into the CPU.
func (mc *CPU) Plumb(mem Memory) {
	mc.mem = mem
}

// Reset restores the documented power-on state: supervisor mode with
// both interrupt lines disabled and the PC at the reset vector.
func (mc *CPU) Reset() {
	for i := range mc.regs {
		mc.regs[i] = 0
	}
	for i := range mc.spsr {
		mc.spsr[i] = 0
	}

	mc.CPSR = uint32(ModeSupervisor) | FlagI | FlagF
	mc.modeChanged()
	mc.Halted = false

	mc.updateARMPC()
}

func (mc *CPU) String() string {
	s := strings.Builder{}
	for i := 0; i < 16; i++ {
		if i > 0 {
			if i%4 == 0 {
				s.WriteString("\n")
			} else {
				s.WriteString("\t")
			}
		}
		s.WriteString(fmt.Sprintf("R%-2d: %08x", i, mc.reg(i)))
	}
	s.WriteString(fmt.Sprintf("\nCPSR: %08x (%s)", mc.CPSR, mc.Mode()))
	return s.String()
}

// Step executes a single instruction in the encoding selected by the T
// bit. Returns the consumed cycles as a sum of S, N and I cycles.
func (mc *CPU) Step() (int, error) {
	if mc.CPSR&FlagT == FlagT {
		return mc.executeTHUMB()
	}
	return mc.executeARM()
}

// prefetch management. the fetch pointer is refreshed whenever the PC
// moves discontinuously; sequential execution just walks the cached
// buffer.

func (mc *CPU) updateARMPC() {
	mc.fetch, mc.fetchIdx = mc.mem.MapAddress(mc.regs[regPC])
	mc.pcSCycles = mc.mem.AccessCycles(mc.regs[regPC], 4, true)
	mc.pcNCycles = mc.mem.AccessCycles(mc.regs[regPC], 4, false)
}

func (mc *CPU) updateTHUMBPC() {
	mc.fetch, mc.fetchIdx = mc.mem.MapAddress(mc.regs[regPC])
	mc.pcSCycles = mc.mem.AccessCycles(mc.regs[regPC], 2, true)
	mc.pcNCycles = mc.mem.AccessCycles(mc.regs[regPC], 2, false)
}

func le16(s []uint8) uint16 {
	return uint16(s[0]) | uint16(s[1])<<8
}

func le32(s []uint8) uint32 {
	return uint32(s[0]) | uint32(s[1])<<8 | uint32(s[2])<<16 | uint32(s[3])<<24
}

// memory access helpers. unaligned reads rotate the aligned value so
// that the addressed byte lands in the low byte; writes round the
// address down.

func (mc *CPU) readMem8(addr uint32) uint8 {
	return mc.mem.Read8(addr)
}

func (mc *CPU) readMem16(addr uint32) uint32 {
	v := uint32(mc.mem.Read16(addr &^ 1))
	if addr&1 == 1 {
		return v>>8 | v<<24
	}
	return v
}

func (mc *CPU) readMem16Aligned(addr uint32) uint16 {
	return mc.mem.Read16(addr &^ 1)
}

func (mc *CPU) readMem32(addr uint32) uint32 {
	v := mc.mem.Read32(addr &^ 3)
	shift := (addr & 3) * 8
	if shift != 0 {
		return v>>shift | v<<(32-shift)
	}
	return v
}

func (mc *CPU) writeMem8(addr uint32, data uint8) {
	if addr == haltcntAddr {
		if data&0x80 == 0x80 {
			// the deep stop state is not implemented
			logger.Log("agb", "stop request via HALTCNT ignored")
		} else {
			mc.Halted = true
		}
		return
	}

	mc.mem.Write8(addr, data)
}

func (mc *CPU) writeMem16(addr uint32, data uint16) {
	mc.mem.Write16(addr&^1, data)
}

func (mc *CPU) writeMem32(addr uint32, data uint32) {
	mc.mem.Write32(addr&^3, data)
}

// Interrupt enters the IRQ exception: SPSR of the IRQ mode is loaded
// from CPSR, the mode changes, T clears, I sets and control transfers
// to the IRQ vector. Returns false when the I flag masks the request.
// The halted state always ends.
func (mc *CPU) Interrupt() bool {
	mc.Halted = false

	if mc.CPSR&FlagI == FlagI {
		return false
	}

	ret := mc.regs[regPC] + 4
	mc.spsr[spsrIndex(ModeIRQ)] = mc.CPSR

	mc.regs[regPC] = 0x18
	mc.CPSR = (mc.CPSR &^ (ModeMask | FlagT)) | FlagI | uint32(ModeIRQ)
	mc.modeChanged()
	mc.updateARMPC()
	mc.setReg(regLR, ret)

	return true
}

// swi enters the software interrupt exception. the ret argument is the
// address the handler should return to.
func (mc *CPU) swi(ret uint32) {
	mc.spsr[spsrIndex(ModeSupervisor)] = mc.CPSR

	mc.regs[regPC] = 0x08
	mc.CPSR = (mc.CPSR &^ (ModeMask | FlagT)) | FlagI | uint32(ModeSupervisor)
	mc.modeChanged()
	mc.updateARMPC()
	mc.setReg(regLR, ret)
}
