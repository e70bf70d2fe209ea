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

	"github.com/jetsetilly/gopherboy/hardware/dmg/memory/addresses"
)

// UnimplementedInstruction is the sentinel error returned when the CPU
// encounters an opcode with no implementation. The arguments are the
// opcode and the address it was fetched from.
const UnimplementedInstruction = "dmg cpu: unimplemented opcode (%#02x) (PC=%#04x)"

// Memory is the bus as the CPU sees it. ReadIO() and WriteIO() access
// the IO register file directly, without triggering the register
// hooks; they are used for the registers the CPU itself owns.
type Memory interface {
	Read(addr uint16) uint8
	Write(addr uint16, data uint8)
	ReadIO(reg uint8) uint8
	WriteIO(reg uint8, data uint8)
}

// CPU implements the Sharp LR35902 as found in the original handheld.
type CPU struct {
	Regs Registers

	mem Memory

	// Halted is set by the HALT instruction and cleared by any
	// serviceable interrupt, even when the master enable is off
	Halted bool

	// Stopped is set by the STOP instruction (when no speed switch is
	// armed) and cleared by new key input
	Stopped bool

	// master interrupt enable. note that EI and DI change this
	// immediately rather than after the next instruction. see the
	// conformance test for this deliberate choice
	ime bool

	// the cached value of IE & IF. updated whenever either register
	// changes
	serviceable uint8

	// the free running divider. reads of the DIV register return the
	// high byte
	divCounter uint16

	// timer state derived from the TAC register. timerOldVal is the
	// previous state of the selected divider bit; TIMA increments on
	// the falling edge
	timerEnabled bool
	timerOldVal  bool
	timerBit     uint16

	// Color is set at reset time from the cartridge header
	Color bool

	// speed switch state. writing bit 0 of KEY1 arms the switch; the
	// next STOP toggles DoubleSpeed instead of stopping
	DoubleSpeed bool
	speedSwitch bool

	// raw key input mask as set by SetInputs
	inputs uint8
}

// NewCPU is the preferred method of initialisation for the CPU type.
func NewCPU(mem Memory) *CPU {
	return &CPU{mem: mem}
}

// Snapshot creates a copy of the CPU in its current state.
func (mc *CPU) Snapshot() *CPU {
	n := *mc
	return &n
}

// Plumb a new Memory implementation into the CPU.
func (mc *CPU) Plumb(mem Memory) {
	mc.mem = mem
}

func (mc *CPU) String() string {
	return fmt.Sprintf("%s F=%c%c%c%c", &mc.Regs,
		flagRune(mc.Regs.F, FlagZ, 'z'), flagRune(mc.Regs.F, FlagN, 'n'),
		flagRune(mc.Regs.F, FlagH, 'h'), flagRune(mc.Regs.F, FlagC, 'c'))
}

func flagRune(f uint8, bit uint8, r rune) rune {
	if f&bit == bit {
		return r - 32
	}
	return r
}

// Reset restores the documented state of the CPU after the boot rom
// has run. The color flag selects the colour-model accumulator value.
func (mc *CPU) Reset(color bool) {
	mc.Stopped = false
	mc.Halted = false
	mc.ime = false
	mc.serviceable = 0
	mc.divCounter = 0xabcc

	mc.timerEnabled = false
	mc.timerOldVal = false
	mc.timerBit = 1 << 9

	mc.Color = color
	mc.DoubleSpeed = false
	mc.speedSwitch = false

	// values after boot rom
	mc.Regs.PC = 0x0100
	mc.Regs.SetAF(0x01b0)
	mc.Regs.SetBC(0x0013)
	mc.Regs.SetDE(0x00d8)
	mc.Regs.SetHL(0x01d4)
	mc.Regs.SP = 0xfffe

	if color {
		mc.Regs.A = 0x11
	}
}

// Step executes a single instruction (or a single halt period),
// services any pending interrupt and advances the timer. Returns the
// number of clock cycles consumed.
func (mc *CPU) Step() (int, error) {
	exec := 4
	if !mc.Halted {
		var err error
		exec, err = mc.executeInstruction()
		if err != nil {
			return exec, err
		}
	}

	if mc.serviceable != 0 && mc.serviceInterrupts() {
		// five machine cycles to push PC and load the vector
		exec += 5 * 4
	}

	mc.updateTimer(exec)

	return exec, nil
}

// FlagInterrupt ORs the specified bit into the IF register. The
// serviceable cache is updated accordingly.
func (mc *CPU) FlagInterrupt(interrupt uint8) {
	mc.mem.WriteIO(addresses.IF, mc.mem.ReadIO(addresses.IF)|interrupt)
	mc.serviceable = mc.mem.ReadIO(addresses.IF) & mc.mem.ReadIO(addresses.IE)
}

// Serviceable returns the cached IE & IF value.
func (mc *CPU) Serviceable() uint8 {
	return mc.serviceable
}

// SetInputs updates the raw key input mask. Any new key press wakes
// the CPU from the STOP state and flags the Joypad interrupt.
func (mc *CPU) SetInputs(inputs uint8) {
	if mc.inputs == 0 && inputs != 0 {
		mc.FlagInterrupt(addresses.IntJoypad)
		mc.Stopped = false
	}
	mc.inputs = inputs
}

// interrupt vectors in IF bit order.
var interruptVectors = [...]uint16{0x40, 0x48, 0x50, 0x58, 0x60}

// serviceInterrupts transfers control to the vector of the lowest
// pending serviceable interrupt. Returns true if an interrupt was
// serviced. The halt state always ends, even when the master enable
// is off.
func (mc *CPU) serviceInterrupts() bool {
	mc.Halted = false

	if !mc.ime {
		return false
	}

	// only the five architectural interrupt bits can vector
	serv := mc.serviceable & 0x1f
	for i := 0; serv != 0; i++ {
		if serv&1 == 1 {
			mc.ime = false
			mc.mem.WriteIO(addresses.IF, mc.mem.ReadIO(addresses.IF)&^(1<<i))
			mc.serviceable &^= 1 << i

			mc.push16(mc.Regs.PC)
			mc.Regs.PC = interruptVectors[i]
			return true
		}
		serv >>= 1
	}

	return false
}

// updateTimer advances the divider by the number of clock cycles just
// retired and clocks TIMA from the falling edge of the selected
// divider bit.
func (mc *CPU) updateTimer(cycles int) {
	if !mc.timerEnabled && !mc.timerOldVal {
		mc.divCounter += uint16(cycles)
		return
	}

	for ; cycles > 0; cycles -= 4 {
		mc.divCounter += 4

		// enable is ANDed with the selected bit
		val := mc.divCounter&mc.timerBit != 0 && mc.timerEnabled

		// TIMA increments on the falling edge
		if mc.timerOldVal && !val {
			tima := mc.mem.ReadIO(addresses.TIMA)
			if tima == 0xff {
				// overflow. reload from TMA and raise the interrupt
				mc.mem.WriteIO(addresses.TIMA, mc.mem.ReadIO(addresses.TMA))
				mc.FlagInterrupt(addresses.IntTimer)
			} else {
				mc.mem.WriteIO(addresses.TIMA, tima+1)
			}
		}

		mc.timerOldVal = val
	}
}

// DivCounter returns the current value of the internal 16bit divider.
func (mc *CPU) DivCounter() uint16 {
	return mc.divCounter
}

// SetDivCounter sets the internal 16bit divider directly. Used by
// tests that need a known timer phase.
func (mc *CPU) SetDivCounter(v uint16) {
	mc.divCounter = v
}
