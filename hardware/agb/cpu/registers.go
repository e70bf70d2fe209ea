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

// logical register names.
const (
	regSP = 13
	regLR = 14
	regPC = 15
)

// Mode is the processor mode field at the bottom of CPSR.
type Mode uint32

// List of valid Mode values.
const (
	ModeUser       Mode = 0x10
	ModeFIQ        Mode = 0x11
	ModeIRQ        Mode = 0x12
	ModeSupervisor Mode = 0x13
	ModeAbort      Mode = 0x17
	ModeUndefined  Mode = 0x1b
	ModeSystem     Mode = 0x1f
)

func (m Mode) String() string {
	switch m {
	case ModeUser:
		return "usr"
	case ModeFIQ:
		return "fiq"
	case ModeIRQ:
		return "irq"
	case ModeSupervisor:
		return "svc"
	case ModeAbort:
		return "abt"
	case ModeUndefined:
		return "und"
	case ModeSystem:
		return "sys"
	}
	return "invalid"
}

// The register file is a flat array of physical slots. Slots 0 to 15
// are the user bank; the privileged modes bank SP and LR; FIQ
// additionally banks R8 to R12. The regMap lookup translates a logical
// register index to a physical slot for the current mode. Modes are a
// tag plus a lookup, nothing more.
const (
	slotSvcSP = 16 + iota
	slotSvcLR
	slotIrqSP
	slotIrqLR
	slotAbtSP
	slotAbtLR
	slotUndSP
	slotUndLR
	slotFiqR8
	slotFiqR9
	slotFiqR10
	slotFiqR11
	slotFiqR12
	slotFiqSP
	slotFiqLR
	numSlots
)

// bankMap returns the logical to physical register map for a mode.
// user and system modes share the user bank.
func bankMap(mode Mode) [16]uint8 {
	var m [16]uint8
	for i := range m {
		m[i] = uint8(i)
	}

	switch mode {
	case ModeFIQ:
		m[8] = slotFiqR8
		m[9] = slotFiqR9
		m[10] = slotFiqR10
		m[11] = slotFiqR11
		m[12] = slotFiqR12
		m[13] = slotFiqSP
		m[14] = slotFiqLR
	case ModeIRQ:
		m[13] = slotIrqSP
		m[14] = slotIrqLR
	case ModeSupervisor:
		m[13] = slotSvcSP
		m[14] = slotSvcLR
	case ModeAbort:
		m[13] = slotAbtSP
		m[14] = slotAbtLR
	case ModeUndefined:
		m[13] = slotUndSP
		m[14] = slotUndLR
	}

	return m
}

// spsrIndex returns the SPSR bank for a mode, or -1 for the modes
// that have no SPSR.
func spsrIndex(mode Mode) int {
	switch mode {
	case ModeFIQ:
		return 0
	case ModeSupervisor:
		return 1
	case ModeAbort:
		return 2
	case ModeIRQ:
		return 3
	case ModeUndefined:
		return 4
	}
	return -1
}

// reg reads a logical register through the bank map.
func (mc *CPU) reg(r int) uint32 {
	return mc.regs[mc.regMap[r]]
}

// setReg writes a logical register through the bank map.
func (mc *CPU) setReg(r int, v uint32) {
	mc.regs[mc.regMap[r]] = v
}

// userReg reads a logical register from the user bank, regardless of
// the current mode. Used by the S bit of the block transfer
// instructions.
func (mc *CPU) userReg(r int) uint32 {
	return mc.regs[r]
}

// setUserReg writes a logical register in the user bank.
func (mc *CPU) setUserReg(r int, v uint32) {
	mc.regs[r] = v
}

// Reg returns the value of a logical register in the current mode.
// Exported for tests and debugging front-ends.
func (mc *CPU) Reg(r int) uint32 {
	return mc.reg(r & 0xf)
}

// SetReg sets the value of a logical register in the current mode.
// Setting R15 resynchronises the prefetch state.
func (mc *CPU) SetReg(r int, v uint32) {
	mc.setReg(r&0xf, v)
	if r&0xf == regPC {
		if mc.CPSR&FlagT == FlagT {
			mc.updateTHUMBPC()
		} else {
			mc.updateARMPC()
		}
	}
}
