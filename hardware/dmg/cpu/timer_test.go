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

	"github.com/jetsetilly/gopherboy/hardware/dmg/memory/addresses"
	"github.com/jetsetilly/gopherboy/test"
)

// the timer is clocked by the falling edge of a divider bit. stepping
// the CPU through NOPs advances the divider by four cycles at a time.

func TestTimerFallingEdge(t *testing.T) {
	// enough NOPs for the test
	program := make([]uint8, 64)
	mc, mem := newTestCPU(program...)

	// enable timer with the bit 3 divider (TAC clock select 1)
	mc.WriteRegister(0xff00|addresses.TAC, addresses.TACStart|0x01)
	mc.SetDivCounter(0xab00)
	mem.WriteIO(addresses.TIMA, 0)

	// bit 3 of the divider falls every 16 cycles. eight NOPs is 32
	// cycles: exactly two increments
	for i := 0; i < 8; i++ {
		step(t, mc)
	}
	test.Equate(t, mem.ReadIO(addresses.TIMA), 2)
	test.Equate(t, mc.DivCounter(), 0xab20)
}

func TestTimerOverflow(t *testing.T) {
	program := make([]uint8, 64)
	mc, mem := newTestCPU(program...)

	mc.WriteRegister(0xff00|addresses.TAC, addresses.TACStart|0x01)
	mc.SetDivCounter(0xab00)
	mem.WriteIO(addresses.TIMA, 0xff)
	mem.WriteIO(addresses.TMA, 0xab)

	// one falling edge: overflow reloads from TMA and raises the
	// timer interrupt
	for i := 0; i < 4; i++ {
		step(t, mc)
	}
	test.Equate(t, mem.ReadIO(addresses.TIMA), 0xab)
	test.Equate(t, mem.ReadIO(addresses.IF)&addresses.IntTimer, addresses.IntTimer)
}

func TestTimerDisabled(t *testing.T) {
	program := make([]uint8, 64)
	mc, mem := newTestCPU(program...)

	// timer disabled: the divider still advances but TIMA does not
	mc.SetDivCounter(0xab00)
	mem.WriteIO(addresses.TIMA, 0)

	for i := 0; i < 8; i++ {
		step(t, mc)
	}
	test.Equate(t, mem.ReadIO(addresses.TIMA), 0)
	test.Equate(t, mc.DivCounter(), 0xab20)
}

func TestDividerReadWrite(t *testing.T) {
	mc, _ := newTestCPU()

	mc.SetDivCounter(0xab00)
	test.Equate(t, mc.ReadRegister(0xff00|addresses.DIV, 0), 0xab)

	// any write clears the whole counter
	mc.WriteRegister(0xff00|addresses.DIV, 0x55)
	test.Equate(t, mc.DivCounter(), 0)
}
