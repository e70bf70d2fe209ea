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

	"github.com/jetsetilly/gopherboy/test"
)

func TestFIQBanking(t *testing.T) {
	// FIQ banks R8 to R12 in addition to SP and LR
	mc, mem := newTestCPU()
	mem.putARM(0,
		0xe321f011, // MSR CPSR_c,#0x11 (fiq)
		0xe321f013, // MSR CPSR_c,#0x13 (supervisor)
	)

	mc.SetReg(7, 0x777)
	mc.SetReg(8, 0x888)
	mc.SetReg(13, 0xddd)

	step(t, mc)
	test.Equate(t, mc.Mode().String(), "fiq")

	// R7 is shared, R8 and SP are banked
	test.Equate(t, mc.Reg(7), 0x777)
	test.Equate(t, mc.Reg(8), 0)
	test.Equate(t, mc.Reg(13), 0)

	mc.SetReg(8, 0xf88)

	step(t, mc)
	test.Equate(t, mc.Mode().String(), "svc")
	test.Equate(t, mc.Reg(8), 0x888)
	test.Equate(t, mc.Reg(13), 0xddd)
}

func TestPCAlignmentInvariant(t *testing.T) {
	// with T clear the PC is always word aligned, and the fetch width
	// is four bytes
	mc, mem := newTestCPU()
	mem.putARM(0, 0xe1a00000, 0xe1a00000)

	step(t, mc)
	test.Equate(t, mc.Reg(15)&3, 0)
	test.Equate(t, mc.Reg(15), 4)

	step(t, mc)
	test.Equate(t, mc.Reg(15), 8)
}
