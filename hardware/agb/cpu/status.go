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

// Bits of the CPSR. N, Z, C and V are the condition flags; I and F
// disable the two interrupt lines; T selects the 16bit instruction
// encoding. The bottom five bits are the mode field.
const (
	FlagN = uint32(1) << 31
	FlagZ = uint32(1) << 30
	FlagC = uint32(1) << 29
	FlagV = uint32(1) << 28
	FlagI = uint32(1) << 7
	FlagF = uint32(1) << 6
	FlagT = uint32(1) << 5

	ModeMask = uint32(0x1f)
)

const signBit = uint32(1) << 31

// Mode returns the current processor mode.
func (mc *CPU) Mode() Mode {
	return Mode(mc.CPSR & ModeMask)
}

// modeChanged rebuilds the register bank map after any change to the
// mode field of CPSR.
func (mc *CPU) modeChanged() {
	mc.regMap = bankMap(mc.Mode())
}

// spsrVal returns the SPSR of the current mode. Modes without an SPSR
// observe CPSR instead.
func (mc *CPU) spsrVal() uint32 {
	if i := spsrIndex(mc.Mode()); i >= 0 {
		return mc.spsr[i]
	}
	return mc.CPSR
}

// setSPSR sets the SPSR of the current mode. A no-op in the modes
// without an SPSR.
func (mc *CPU) setSPSR(v uint32) {
	if i := spsrIndex(mc.Mode()); i >= 0 {
		mc.spsr[i] = v
	}
}

// SPSR returns the saved program status register of the current mode.
// Modes without an SPSR observe CPSR instead.
func (mc *CPU) SPSR() uint32 {
	return mc.spsrVal()
}

// condition flag helpers.

func (mc *CPU) flagN() bool {
	return mc.CPSR&FlagN == FlagN
}

func (mc *CPU) flagZ() bool {
	return mc.CPSR&FlagZ == FlagZ
}

func (mc *CPU) flagC() bool {
	return mc.CPSR&FlagC == FlagC
}

func (mc *CPU) flagV() bool {
	return mc.CPSR&FlagV == FlagV
}

// conditionMet evaluates a four bit condition code against the
// condition flags. Condition 0xe always executes; 0xf is reserved and
// treated as never.
func (mc *CPU) conditionMet(cond uint32) bool {
	switch cond {
	case 0x0: // EQ
		return mc.flagZ()
	case 0x1: // NE
		return !mc.flagZ()
	case 0x2: // CS
		return mc.flagC()
	case 0x3: // CC
		return !mc.flagC()
	case 0x4: // MI
		return mc.flagN()
	case 0x5: // PL
		return !mc.flagN()
	case 0x6: // VS
		return mc.flagV()
	case 0x7: // VC
		return !mc.flagV()
	case 0x8: // HI
		return mc.flagC() && !mc.flagZ()
	case 0x9: // LS
		return !mc.flagC() || mc.flagZ()
	case 0xa: // GE
		return mc.flagN() == mc.flagV()
	case 0xb: // LT
		return mc.flagN() != mc.flagV()
	case 0xc: // GT
		return !mc.flagZ() && mc.flagN() == mc.flagV()
	case 0xd: // LE
		return mc.flagZ() || mc.flagN() != mc.flagV()
	case 0xe: // AL
		return true
	}
	return false
}
