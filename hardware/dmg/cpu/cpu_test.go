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

package cpu_test

import (
	"testing"

	"github.com/jetsetilly/gopherboy/curated"
	"github.com/jetsetilly/gopherboy/hardware/dmg/cpu"
	"github.com/jetsetilly/gopherboy/hardware/dmg/memory/addresses"
	"github.com/jetsetilly/gopherboy/test"
)

// mockMem is a flat 64k memory with no register hooks. good enough for
// instruction level testing.
type mockMem struct {
	data [0x10000]uint8
}

func (m *mockMem) Read(addr uint16) uint8 {
	return m.data[addr]
}

func (m *mockMem) Write(addr uint16, data uint8) {
	m.data[addr] = data
}

func (m *mockMem) ReadIO(reg uint8) uint8 {
	if reg == addresses.IE {
		return m.data[0xffff]
	}
	return m.data[0xff00|uint16(reg)]
}

func (m *mockMem) WriteIO(reg uint8, data uint8) {
	if reg == addresses.IE {
		m.data[0xffff] = data
		return
	}
	m.data[0xff00|uint16(reg)] = data
}

// newTestCPU returns a reset CPU with the supplied program loaded at
// the post-boot program counter.
func newTestCPU(program ...uint8) (*cpu.CPU, *mockMem) {
	mem := &mockMem{}
	mc := cpu.NewCPU(mem)
	mc.Reset(false)
	copy(mem.data[0x0100:], program)
	return mc, mem
}

func step(t *testing.T, mc *cpu.CPU) int {
	t.Helper()
	cycles, err := mc.Step()
	test.ExpectedSuccess(t, err)
	return cycles
}

func TestReset(t *testing.T) {
	mc, _ := newTestCPU()

	test.Equate(t, mc.Regs.PC, 0x0100)
	test.Equate(t, mc.Regs.AF(), 0x01b0)
	test.Equate(t, mc.Regs.BC(), 0x0013)
	test.Equate(t, mc.Regs.DE(), 0x00d8)
	test.Equate(t, mc.Regs.HL(), 0x01d4)
	test.Equate(t, mc.Regs.SP, 0xfffe)

	// reset is idempotent: resetting an already reset CPU changes
	// nothing
	snap := mc.Snapshot()
	mc.Reset(false)
	test.Equate(t, mc.String(), snap.String())
}

func TestDecimalAdjust(t *testing.T) {
	// ADD A,A / DAA
	mc, _ := newTestCPU(0x87, 0x27)
	mc.Regs.A = 0x15
	mc.Regs.F = 0

	step(t, mc)
	test.Equate(t, mc.Regs.A, 0x2a)
	test.Equate(t, mc.Regs.F, 0)

	step(t, mc)
	test.Equate(t, mc.Regs.A, 0x30)
	test.Equate(t, mc.Regs.F, 0)
}

func TestDecimalAdjustCarry(t *testing.T) {
	// ADD A,A / DAA with a result that needs the 0x60 correction
	mc, _ := newTestCPU(0x87, 0x27)
	mc.Regs.A = 0x99
	mc.Regs.F = 0

	step(t, mc)
	test.Equate(t, mc.Regs.A, 0x32)
	test.Equate(t, mc.Regs.F, cpu.FlagC|cpu.FlagH)

	step(t, mc)
	test.Equate(t, mc.Regs.A, 0x98)
	test.Equate(t, mc.Regs.F, cpu.FlagC)
}

func TestPopAF(t *testing.T) {
	// POP AF with 0xffff on the stack. the low nibble of F must read
	// back as zero
	mc, mem := newTestCPU(0xf1)
	mc.Regs.SP = 0xc000
	mem.data[0xc000] = 0xff
	mem.data[0xc001] = 0xff

	step(t, mc)
	test.Equate(t, mc.Regs.A, 0xff)
	test.Equate(t, mc.Regs.F, 0xf0)
	test.Equate(t, mc.Regs.SP, 0xc002)
}

func TestFlagLowNibble(t *testing.T) {
	// no instruction can leave the low nibble of F set. exercise the
	// flag-heavy instructions with worst-case operands
	program := []uint8{
		0x87,       // ADD A,A
		0x9f,       // SBC A,A
		0xa7,       // AND A
		0x37,       // SCF
		0x3f,       // CCF
		0x27,       // DAA
		0xcb, 0x17, // RL A
	}
	mc, _ := newTestCPU(program...)
	mc.Regs.A = 0xff
	mc.Regs.F = 0xf0

	for i := 0; i < 7; i++ {
		step(t, mc)
		test.Equate(t, mc.Regs.F&0x0f, 0)
	}
}

func TestRotateAccumulatorZeroFlag(t *testing.T) {
	// RLCA always clears Z even when the result is zero...
	mc, _ := newTestCPU(0x07)
	mc.Regs.A = 0x00
	mc.Regs.F = cpu.FlagZ
	step(t, mc)
	test.Equate(t, mc.Regs.F, 0)

	// ...but the equivalent instruction in the extended table sets Z
	// from the result
	mc, _ = newTestCPU(0xcb, 0x07)
	mc.Regs.A = 0x00
	step(t, mc)
	test.Equate(t, mc.Regs.F, cpu.FlagZ)
}

func TestAddCarryChain(t *testing.T) {
	// ADC A,n with carry in and carry out
	mc, _ := newTestCPU(0xce, 0xff)
	mc.Regs.A = 0x01
	mc.Regs.F = cpu.FlagC

	step(t, mc)
	test.Equate(t, mc.Regs.A, 0x01)
	test.Equate(t, mc.Regs.F, cpu.FlagC|cpu.FlagH)
}

func TestSubBorrow(t *testing.T) {
	// CP n with a borrow
	mc, _ := newTestCPU(0xfe, 0x20)
	mc.Regs.A = 0x10

	step(t, mc)
	test.Equate(t, mc.Regs.A, 0x10)
	test.Equate(t, mc.Regs.F, cpu.FlagN|cpu.FlagC)
}

func TestAddSPRelative(t *testing.T) {
	// ADD SP,n with a negative offset. flags are those of an 8bit
	// addition of the low bytes
	mc, _ := newTestCPU(0xe8, 0xfe) // ADD SP,-2
	mc.Regs.SP = 0xfffe

	step(t, mc)
	test.Equate(t, mc.Regs.SP, 0xfffc)
	test.Equate(t, mc.Regs.F, cpu.FlagC|cpu.FlagH)
}

func TestLoadHLSPRelative(t *testing.T) {
	mc, _ := newTestCPU(0xf8, 0x02) // LDHL SP,2
	mc.Regs.SP = 0xc0ff

	step(t, mc)
	test.Equate(t, mc.Regs.HL(), 0xc101)
	test.Equate(t, mc.Regs.SP, 0xc0ff)
	test.Equate(t, mc.Regs.F, cpu.FlagC|cpu.FlagH)
}

func TestJumpHL(t *testing.T) {
	mc, _ := newTestCPU(0xe9)
	mc.Regs.SetHL(0x1234)
	step(t, mc)
	test.Equate(t, mc.Regs.PC, 0x1234)
}

func TestConditionalCallReturn(t *testing.T) {
	// CALL Z,nn not taken then taken
	mc, _ := newTestCPU(0xcc, 0x00, 0x20) // CALL Z,0x2000
	mc.Regs.F = 0
	cycles := step(t, mc)
	test.Equate(t, cycles, 12)
	test.Equate(t, mc.Regs.PC, 0x0103)

	mc, mem := newTestCPU(0xcc, 0x00, 0x20)
	mc.Regs.SP = 0xc100
	mc.Regs.F = cpu.FlagZ
	cycles = step(t, mc)
	test.Equate(t, cycles, 24)
	test.Equate(t, mc.Regs.PC, 0x2000)
	test.Equate(t, mc.Regs.SP, 0xc0fe)

	// RET at the call target returns to the pushed address
	mem.data[0x2000] = 0xc9
	cycles = step(t, mc)
	test.Equate(t, cycles, 16)
	test.Equate(t, mc.Regs.PC, 0x0103)
}

func TestInterruptMasterEnableImmediate(t *testing.T) {
	// EI takes effect immediately, not after the next instruction. a
	// serviceable interrupt pending when EI executes is serviced
	// before the next instruction
	mc, mem := newTestCPU(0xfb) // EI
	mc.Regs.SP = 0xc100
	mem.WriteIO(addresses.IE, addresses.IntVBlank)
	mc.FlagInterrupt(addresses.IntVBlank)

	cycles := step(t, mc)
	test.Equate(t, mc.Regs.PC, 0x0040)
	test.Equate(t, cycles, 4+20)

	// IF bit cleared and serviceable cache in step
	test.Equate(t, mem.ReadIO(addresses.IF), 0)
	test.Equate(t, mc.Serviceable(), 0)
}

func TestHaltWithoutMasterEnable(t *testing.T) {
	// HALT ends on a serviceable interrupt even when the master enable
	// is off. execution continues without vectoring
	mc, mem := newTestCPU(0x76, 0x00) // HALT / NOP
	mem.WriteIO(addresses.IE, addresses.IntTimer)

	step(t, mc)
	test.ExpectedSuccess(t, mc.Halted)

	// a step while halted executes nothing
	cycles := step(t, mc)
	test.Equate(t, cycles, 4)
	test.Equate(t, mc.Regs.PC, 0x0101)
	test.ExpectedSuccess(t, mc.Halted)

	// the serviceable interrupt ends the halt but does not vector
	mc.FlagInterrupt(addresses.IntTimer)
	step(t, mc)
	test.ExpectedFailure(t, mc.Halted)
	test.Equate(t, mc.Regs.PC, 0x0101)

	// execution continues with the next instruction
	step(t, mc)
	test.Equate(t, mc.Regs.PC, 0x0102)
}

func TestInterruptPriority(t *testing.T) {
	// the lowest pending bit is serviced first
	mc, mem := newTestCPU(0xfb) // EI
	mem.WriteIO(addresses.IE, 0xff)
	mc.Regs.SP = 0xc100
	mc.FlagInterrupt(addresses.IntTimer | addresses.IntVBlank)

	step(t, mc)
	test.Equate(t, mc.Regs.PC, 0x0040)
	test.Equate(t, mem.ReadIO(addresses.IF), addresses.IntTimer)
}

func TestServiceableCache(t *testing.T) {
	// the serviceable cache always equals IE & IF
	mc, mem := newTestCPU()
	mem.WriteIO(addresses.IE, 0x05)
	mc.FlagInterrupt(0x07)
	test.Equate(t, mc.Serviceable(), mem.ReadIO(addresses.IE)&mem.ReadIO(addresses.IF))

	// register writes through the hook keep the cache in sync
	mc.WriteRegister(0xffff, 0x02)
	mem.WriteIO(addresses.IE, 0x02)
	test.Equate(t, mc.Serviceable(), 0x02)
}

func TestStopAndSpeedSwitch(t *testing.T) {
	// STOP without an armed speed switch stops the machine
	mc, _ := newTestCPU(0x10)
	step(t, mc)
	test.ExpectedSuccess(t, mc.Stopped)

	// new input wakes it and flags the joypad interrupt
	mc.SetInputs(0x01)
	test.ExpectedFailure(t, mc.Stopped)

	// with the speed switch armed, STOP toggles the clock instead
	mc, _ = newTestCPU(0x10, 0x10)
	mc.WriteRegister(0xff4d, 0x01)
	step(t, mc)
	test.ExpectedFailure(t, mc.Stopped)
	test.ExpectedSuccess(t, mc.DoubleSpeed)

	// switch is one-shot: the second STOP stops
	step(t, mc)
	test.ExpectedSuccess(t, mc.Stopped)
	test.ExpectedSuccess(t, mc.DoubleSpeed)
}

func TestUnimplementedOpcode(t *testing.T) {
	mc, _ := newTestCPU(0xd3)
	_, err := mc.Step()
	test.ExpectedFailure(t, err)
	test.ExpectedSuccess(t, curated.Is(err, cpu.UnimplementedInstruction))
}

func TestRegisterPairs(t *testing.T) {
	mc, _ := newTestCPU()

	mc.Regs.SetBC(0x1234)
	test.Equate(t, mc.Regs.B, 0x12)
	test.Equate(t, mc.Regs.C, 0x34)
	test.Equate(t, mc.Regs.BC(), 0x1234)

	// the low nibble of F does not exist
	mc.Regs.SetAF(0xabcd)
	test.Equate(t, mc.Regs.AF(), 0xabc0)
}
