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
	"github.com/jetsetilly/gopherboy/curated"
)

// memory access helpers. 16bit values are little-endian.

func (mc *CPU) read8(addr uint16) uint8 {
	return mc.mem.Read(addr)
}

func (mc *CPU) read16(addr uint16) uint16 {
	return uint16(mc.mem.Read(addr)) | uint16(mc.mem.Read(addr+1))<<8
}

func (mc *CPU) write8(addr uint16, data uint8) {
	mc.mem.Write(addr, data)
}

func (mc *CPU) write16(addr uint16, data uint16) {
	mc.mem.Write(addr, uint8(data))
	mc.mem.Write(addr+1, uint8(data>>8))
}

func (mc *CPU) imm8() uint8 {
	v := mc.read8(mc.Regs.PC)
	mc.Regs.PC++
	return v
}

func (mc *CPU) imm16() uint16 {
	v := mc.read16(mc.Regs.PC)
	mc.Regs.PC += 2
	return v
}

func (mc *CPU) push16(v uint16) {
	mc.Regs.SP -= 2
	mc.write16(mc.Regs.SP, v)
}

func (mc *CPU) pop16() uint16 {
	v := mc.read16(mc.Regs.SP)
	mc.Regs.SP += 2
	return v
}

// carry returns the C flag as a 0 or 1 value.
func (mc *CPU) carry() uint8 {
	if mc.Regs.F&FlagC == FlagC {
		return 1
	}
	return 0
}

// the 8bit registers in instruction encoding order. index six is the
// memory location addressed by HL.
func (mc *CPU) getReg8(idx uint8) uint8 {
	switch idx {
	case 0:
		return mc.Regs.B
	case 1:
		return mc.Regs.C
	case 2:
		return mc.Regs.D
	case 3:
		return mc.Regs.E
	case 4:
		return mc.Regs.H
	case 5:
		return mc.Regs.L
	case 6:
		return mc.read8(mc.Regs.HL())
	}
	return mc.Regs.A
}

func (mc *CPU) setReg8(idx uint8, v uint8) {
	switch idx {
	case 0:
		mc.Regs.B = v
	case 1:
		mc.Regs.C = v
	case 2:
		mc.Regs.D = v
	case 3:
		mc.Regs.E = v
	case 4:
		mc.Regs.H = v
	case 5:
		mc.Regs.L = v
	case 6:
		mc.write8(mc.Regs.HL(), v)
	default:
		mc.Regs.A = v
	}
}

// arithmetic helpers. all of them set F fresh from the operation.

func (mc *CPU) add(b uint8, c uint8) {
	a := mc.Regs.A
	v := uint16(a) + uint16(b) + uint16(c)
	mc.Regs.A = uint8(v)

	f := uint8(0)
	if v > 0xff {
		f |= FlagC
	}
	if a&0x0f+b&0x0f+c > 0x0f {
		f |= FlagH
	}
	if uint8(v) == 0 {
		f |= FlagZ
	}
	mc.Regs.F = f
}

func (mc *CPU) sub(b uint8, c uint8) {
	a := mc.Regs.A
	v := int(a) - int(b) - int(c)
	mc.Regs.A = uint8(v)

	f := uint8(FlagN)
	if v < 0 {
		f |= FlagC
	}
	if int(a&0x0f)-int(b&0x0f)-int(c) < 0 {
		f |= FlagH
	}
	if uint8(v) == 0 {
		f |= FlagZ
	}
	mc.Regs.F = f
}

func (mc *CPU) and(b uint8) {
	mc.Regs.A &= b
	mc.Regs.F = FlagH
	if mc.Regs.A == 0 {
		mc.Regs.F |= FlagZ
	}
}

func (mc *CPU) or(b uint8) {
	mc.Regs.A |= b
	mc.Regs.F = 0
	if mc.Regs.A == 0 {
		mc.Regs.F = FlagZ
	}
}

func (mc *CPU) xor(b uint8) {
	mc.Regs.A ^= b
	mc.Regs.F = 0
	if mc.Regs.A == 0 {
		mc.Regs.F = FlagZ
	}
}

func (mc *CPU) cmp(b uint8) {
	a := mc.Regs.A

	f := uint8(FlagN)
	if a < b {
		f |= FlagC
	}
	if a&0x0f < b&0x0f {
		f |= FlagH
	}
	if a == b {
		f |= FlagZ
	}
	mc.Regs.F = f
}

// inc8 and dec8 compute flags from the value before the operation.
// the C flag is not affected.

func (mc *CPU) inc8(r *uint8) {
	v := *r
	*r = v + 1

	f := mc.Regs.F & FlagC
	if v&0x0f == 0x0f {
		f |= FlagH
	}
	if v == 0xff {
		f |= FlagZ
	}
	mc.Regs.F = f
}

func (mc *CPU) dec8(r *uint8) {
	v := *r
	*r = v - 1

	f := mc.Regs.F&FlagC | FlagN
	if v&0x0f == 0 {
		f |= FlagH
	}
	if v == 1 {
		f |= FlagZ
	}
	mc.Regs.F = f
}

// addHL adds to the HL register. Z is preserved; H and C are the
// carries out of bits 11 and 15.
func (mc *CPU) addHL(b uint16) {
	a := mc.Regs.HL()
	v := uint32(a) + uint32(b)
	mc.Regs.SetHL(uint16(v))

	f := mc.Regs.F & FlagZ
	if v > 0xffff {
		f |= FlagC
	}
	if a&0x0fff+b&0x0fff > 0x0fff {
		f |= FlagH
	}
	mc.Regs.F = f
}

// addSPRel returns SP plus a signed immediate. flags are set as though
// this were an 8bit addition of the immediate to the low byte of SP.
func (mc *CPU) addSPRel() uint16 {
	a := mc.Regs.SP & 0xff
	b := mc.imm8()
	v := a + uint16(b)

	f := uint8(0)
	if v > 0xff {
		f |= FlagC
	}
	if a&0x0f+uint16(b&0x0f) > 0x0f {
		f |= FlagH
	}
	mc.Regs.F = f

	return uint16(int32(mc.Regs.SP) + int32(int8(b)))
}

// control flow helpers. a flag value of zero means unconditional.

func (mc *CPU) jump(flag uint8, set bool) int {
	addr := mc.imm16()
	if flag == 0 || (mc.Regs.F&flag == flag) == set {
		mc.Regs.PC = addr
		return 16
	}
	return 12
}

func (mc *CPU) jumpRel(flag uint8, set bool) int {
	off := int8(mc.imm8())
	if flag == 0 || (mc.Regs.F&flag == flag) == set {
		mc.Regs.PC = uint16(int32(mc.Regs.PC) + int32(off))
		return 12
	}
	return 8
}

func (mc *CPU) call(flag uint8, set bool) int {
	addr := mc.imm16()
	if flag == 0 || (mc.Regs.F&flag == flag) == set {
		mc.push16(mc.Regs.PC)
		mc.Regs.PC = addr
		return 24
	}
	return 12
}

func (mc *CPU) rst(addr uint16) int {
	mc.push16(mc.Regs.PC)
	mc.Regs.PC = addr
	return 16
}

func (mc *CPU) ret(flag uint8, set bool) int {
	addr := mc.read16(mc.Regs.SP)
	if flag == 0 || (mc.Regs.F&flag == flag) == set {
		mc.Regs.SP += 2
		mc.Regs.PC = addr
		if flag != 0 {
			return 20
		}
		return 16
	}
	return 8
}

// executeInstruction interprets a single opcode and returns the clock
// cycles consumed.
func (mc *CPU) executeInstruction() (int, error) {
	opcode := mc.imm8()

	// the two middle quadrants of the opcode space decode by bitfield:
	// register to register loads and the main arithmetic group. HALT
	// sits in the hole left by LD (HL),(HL)
	if opcode >= 0x40 && opcode <= 0xbf && opcode != 0x76 {
		idx := opcode & 0x07
		cycles := 4
		if idx == 6 {
			cycles = 8
		}

		if opcode < 0x80 {
			dst := (opcode >> 3) & 0x07
			mc.setReg8(dst, mc.getReg8(idx))
			if dst == 6 {
				cycles = 8
			}
			return cycles, nil
		}

		v := mc.getReg8(idx)
		switch (opcode >> 3) & 0x07 {
		case 0: // ADD
			mc.add(v, 0)
		case 1: // ADC
			mc.add(v, mc.carry())
		case 2: // SUB
			mc.sub(v, 0)
		case 3: // SBC
			mc.sub(v, mc.carry())
		case 4: // AND
			mc.and(v)
		case 5: // XOR
			mc.xor(v)
		case 6: // OR
			mc.or(v)
		case 7: // CP
			mc.cmp(v)
		}
		return cycles, nil
	}

	switch opcode {
	case 0x00: // NOP
		return 4, nil

	case 0x01: // LD BC,nn
		mc.Regs.SetBC(mc.imm16())
		return 12, nil

	case 0x02: // LD (BC),A
		mc.write8(mc.Regs.BC(), mc.Regs.A)
		return 8, nil

	case 0x03: // INC BC
		mc.Regs.SetBC(mc.Regs.BC() + 1)
		return 8, nil

	case 0x04: // INC B
		mc.inc8(&mc.Regs.B)
		return 4, nil

	case 0x05: // DEC B
		mc.dec8(&mc.Regs.B)
		return 4, nil

	case 0x06: // LD B,n
		mc.Regs.B = mc.imm8()
		return 8, nil

	case 0x07: // RLCA
		c := mc.Regs.A & 0x80
		mc.Regs.A = mc.Regs.A<<1 | mc.Regs.A>>7
		mc.Regs.F = 0
		if c == 0x80 {
			mc.Regs.F = FlagC
		}
		return 4, nil

	case 0x08: // LD (nn),SP
		mc.write16(mc.imm16(), mc.Regs.SP)
		return 20, nil

	case 0x09: // ADD HL,BC
		mc.addHL(mc.Regs.BC())
		return 8, nil

	case 0x0a: // LD A,(BC)
		mc.Regs.A = mc.read8(mc.Regs.BC())
		return 8, nil

	case 0x0b: // DEC BC
		mc.Regs.SetBC(mc.Regs.BC() - 1)
		return 8, nil

	case 0x0c: // INC C
		mc.inc8(&mc.Regs.C)
		return 4, nil

	case 0x0d: // DEC C
		mc.dec8(&mc.Regs.C)
		return 4, nil

	case 0x0e: // LD C,n
		mc.Regs.C = mc.imm8()
		return 8, nil

	case 0x0f: // RRCA
		c := mc.Regs.A & 0x01
		mc.Regs.A = mc.Regs.A>>1 | mc.Regs.A<<7
		mc.Regs.F = 0
		if c == 0x01 {
			mc.Regs.F = FlagC
		}
		return 4, nil

	case 0x10: // STOP
		if mc.speedSwitch {
			mc.speedSwitch = false
			mc.DoubleSpeed = !mc.DoubleSpeed
		} else {
			mc.Stopped = true
		}
		return 4, nil

	case 0x11: // LD DE,nn
		mc.Regs.SetDE(mc.imm16())
		return 12, nil

	case 0x12: // LD (DE),A
		mc.write8(mc.Regs.DE(), mc.Regs.A)
		return 8, nil

	case 0x13: // INC DE
		mc.Regs.SetDE(mc.Regs.DE() + 1)
		return 8, nil

	case 0x14: // INC D
		mc.inc8(&mc.Regs.D)
		return 4, nil

	case 0x15: // DEC D
		mc.dec8(&mc.Regs.D)
		return 4, nil

	case 0x16: // LD D,n
		mc.Regs.D = mc.imm8()
		return 8, nil

	case 0x17: // RLA
		c := mc.Regs.A & 0x80
		mc.Regs.A = mc.Regs.A<<1 | mc.carry()
		mc.Regs.F = 0
		if c == 0x80 {
			mc.Regs.F = FlagC
		}
		return 4, nil

	case 0x18: // JR n
		return mc.jumpRel(0, true), nil

	case 0x19: // ADD HL,DE
		mc.addHL(mc.Regs.DE())
		return 8, nil

	case 0x1a: // LD A,(DE)
		mc.Regs.A = mc.read8(mc.Regs.DE())
		return 8, nil

	case 0x1b: // DEC DE
		mc.Regs.SetDE(mc.Regs.DE() - 1)
		return 8, nil

	case 0x1c: // INC E
		mc.inc8(&mc.Regs.E)
		return 4, nil

	case 0x1d: // DEC E
		mc.dec8(&mc.Regs.E)
		return 4, nil

	case 0x1e: // LD E,n
		mc.Regs.E = mc.imm8()
		return 8, nil

	case 0x1f: // RRA
		c := mc.Regs.A & 0x01
		mc.Regs.A = mc.Regs.A>>1 | mc.carry()<<7
		mc.Regs.F = 0
		if c == 0x01 {
			mc.Regs.F = FlagC
		}
		return 4, nil

	case 0x20: // JR NZ,n
		return mc.jumpRel(FlagZ, false), nil

	case 0x21: // LD HL,nn
		mc.Regs.SetHL(mc.imm16())
		return 12, nil

	case 0x22: // LDI (HL),A
		mc.write8(mc.Regs.HL(), mc.Regs.A)
		mc.Regs.SetHL(mc.Regs.HL() + 1)
		return 8, nil

	case 0x23: // INC HL
		mc.Regs.SetHL(mc.Regs.HL() + 1)
		return 8, nil

	case 0x24: // INC H
		mc.inc8(&mc.Regs.H)
		return 4, nil

	case 0x25: // DEC H
		mc.dec8(&mc.Regs.H)
		return 4, nil

	case 0x26: // LD H,n
		mc.Regs.H = mc.imm8()
		return 8, nil

	case 0x27: // DAA
		mc.daa()
		return 4, nil

	case 0x28: // JR Z,n
		return mc.jumpRel(FlagZ, true), nil

	case 0x29: // ADD HL,HL
		mc.addHL(mc.Regs.HL())
		return 8, nil

	case 0x2a: // LDI A,(HL)
		mc.Regs.A = mc.read8(mc.Regs.HL())
		mc.Regs.SetHL(mc.Regs.HL() + 1)
		return 8, nil

	case 0x2b: // DEC HL
		mc.Regs.SetHL(mc.Regs.HL() - 1)
		return 8, nil

	case 0x2c: // INC L
		mc.inc8(&mc.Regs.L)
		return 4, nil

	case 0x2d: // DEC L
		mc.dec8(&mc.Regs.L)
		return 4, nil

	case 0x2e: // LD L,n
		mc.Regs.L = mc.imm8()
		return 8, nil

	case 0x2f: // CPL
		mc.Regs.A = ^mc.Regs.A
		mc.Regs.F |= FlagH | FlagN
		return 4, nil

	case 0x30: // JR NC,n
		return mc.jumpRel(FlagC, false), nil

	case 0x31: // LD SP,nn
		mc.Regs.SP = mc.imm16()
		return 12, nil

	case 0x32: // LDD (HL),A
		mc.write8(mc.Regs.HL(), mc.Regs.A)
		mc.Regs.SetHL(mc.Regs.HL() - 1)
		return 8, nil

	case 0x33: // INC SP
		mc.Regs.SP++
		return 8, nil

	case 0x34: // INC (HL)
		v := mc.read8(mc.Regs.HL())
		mc.write8(mc.Regs.HL(), v+1)

		f := mc.Regs.F & FlagC
		if v&0x0f == 0x0f {
			f |= FlagH
		}
		if v == 0xff {
			f |= FlagZ
		}
		mc.Regs.F = f
		return 12, nil

	case 0x35: // DEC (HL)
		v := mc.read8(mc.Regs.HL())
		mc.write8(mc.Regs.HL(), v-1)

		f := mc.Regs.F&FlagC | FlagN
		if v&0x0f == 0 {
			f |= FlagH
		}
		if v == 1 {
			f |= FlagZ
		}
		mc.Regs.F = f
		return 12, nil

	case 0x36: // LD (HL),n
		mc.write8(mc.Regs.HL(), mc.imm8())
		return 12, nil

	case 0x37: // SCF
		mc.Regs.F = FlagC | mc.Regs.F&FlagZ
		return 4, nil

	case 0x38: // JR C,n
		return mc.jumpRel(FlagC, true), nil

	case 0x39: // ADD HL,SP
		mc.addHL(mc.Regs.SP)
		return 8, nil

	case 0x3a: // LDD A,(HL)
		mc.Regs.A = mc.read8(mc.Regs.HL())
		mc.Regs.SetHL(mc.Regs.HL() - 1)
		return 8, nil

	case 0x3b: // DEC SP
		mc.Regs.SP--
		return 8, nil

	case 0x3c: // INC A
		mc.inc8(&mc.Regs.A)
		return 4, nil

	case 0x3d: // DEC A
		mc.dec8(&mc.Regs.A)
		return 4, nil

	case 0x3e: // LD A,n
		mc.Regs.A = mc.imm8()
		return 8, nil

	case 0x3f: // CCF
		mc.Regs.F = ^mc.Regs.F&FlagC | mc.Regs.F&FlagZ
		return 4, nil

	case 0x76: // HALT
		mc.Halted = true
		return 4, nil

	case 0xc0: // RET NZ
		return mc.ret(FlagZ, false), nil

	case 0xc1: // POP BC
		mc.Regs.SetBC(mc.pop16())
		return 12, nil

	case 0xc2: // JP NZ,nn
		return mc.jump(FlagZ, false), nil

	case 0xc3: // JP nn
		return mc.jump(0, true), nil

	case 0xc4: // CALL NZ,nn
		return mc.call(FlagZ, false), nil

	case 0xc5: // PUSH BC
		mc.push16(mc.Regs.BC())
		return 16, nil

	case 0xc6: // ADD A,n
		mc.add(mc.imm8(), 0)
		return 8, nil

	case 0xc7: // RST 00
		return mc.rst(0x00), nil

	case 0xc8: // RET Z
		return mc.ret(FlagZ, true), nil

	case 0xc9: // RET
		return mc.ret(0, true), nil

	case 0xca: // JP Z,nn
		return mc.jump(FlagZ, true), nil

	case 0xcb: // extended instructions
		return mc.executeExtendedInstruction(), nil

	case 0xcc: // CALL Z,nn
		return mc.call(FlagZ, true), nil

	case 0xcd: // CALL nn
		return mc.call(0, true), nil

	case 0xce: // ADC A,n
		mc.add(mc.imm8(), mc.carry())
		return 8, nil

	case 0xcf: // RST 08
		return mc.rst(0x08), nil

	case 0xd0: // RET NC
		return mc.ret(FlagC, false), nil

	case 0xd1: // POP DE
		mc.Regs.SetDE(mc.pop16())
		return 12, nil

	case 0xd2: // JP NC,nn
		return mc.jump(FlagC, false), nil

	case 0xd4: // CALL NC,nn
		return mc.call(FlagC, false), nil

	case 0xd5: // PUSH DE
		mc.push16(mc.Regs.DE())
		return 16, nil

	case 0xd6: // SUB n
		mc.sub(mc.imm8(), 0)
		return 8, nil

	case 0xd7: // RST 10
		return mc.rst(0x10), nil

	case 0xd8: // RET C
		return mc.ret(FlagC, true), nil

	case 0xd9: // RETI
		mc.ime = true
		return mc.ret(0, true), nil

	case 0xda: // JP C,nn
		return mc.jump(FlagC, true), nil

	case 0xdc: // CALL C,nn
		return mc.call(FlagC, true), nil

	case 0xde: // SBC A,n
		mc.sub(mc.imm8(), mc.carry())
		return 8, nil

	case 0xdf: // RST 18
		return mc.rst(0x18), nil

	case 0xe0: // LDH (n),A
		mc.write8(0xff00|uint16(mc.imm8()), mc.Regs.A)
		return 12, nil

	case 0xe1: // POP HL
		mc.Regs.SetHL(mc.pop16())
		return 12, nil

	case 0xe2: // LDH (C),A
		mc.write8(0xff00|uint16(mc.Regs.C), mc.Regs.A)
		return 8, nil

	case 0xe5: // PUSH HL
		mc.push16(mc.Regs.HL())
		return 16, nil

	case 0xe6: // AND n
		mc.and(mc.imm8())
		return 8, nil

	case 0xe7: // RST 20
		return mc.rst(0x20), nil

	case 0xe8: // ADD SP,n
		mc.Regs.SP = mc.addSPRel()
		return 16, nil

	case 0xe9: // JP (HL)
		mc.Regs.PC = mc.Regs.HL()
		return 4, nil

	case 0xea: // LD (nn),A
		mc.write8(mc.imm16(), mc.Regs.A)
		return 16, nil

	case 0xee: // XOR n
		mc.xor(mc.imm8())
		return 8, nil

	case 0xef: // RST 28
		return mc.rst(0x28), nil

	case 0xf0: // LDH A,(n)
		mc.Regs.A = mc.read8(0xff00 | uint16(mc.imm8()))
		return 12, nil

	case 0xf1: // POP AF
		mc.Regs.SetAF(mc.pop16())
		return 12, nil

	case 0xf2: // LDH A,(C)
		mc.Regs.A = mc.read8(0xff00 | uint16(mc.Regs.C))
		return 8, nil

	case 0xf3: // DI
		mc.ime = false
		return 4, nil

	case 0xf5: // PUSH AF
		mc.push16(mc.Regs.AF())
		return 16, nil

	case 0xf6: // OR n
		mc.or(mc.imm8())
		return 8, nil

	case 0xf7: // RST 30
		return mc.rst(0x30), nil

	case 0xf8: // LDHL SP,n
		mc.Regs.SetHL(mc.addSPRel())
		return 12, nil

	case 0xf9: // LD SP,HL
		mc.Regs.SP = mc.Regs.HL()
		return 8, nil

	case 0xfa: // LD A,(nn)
		mc.Regs.A = mc.read8(mc.imm16())
		return 16, nil

	case 0xfb: // EI
		mc.ime = true
		return 4, nil

	case 0xfe: // CP n
		mc.cmp(mc.imm8())
		return 8, nil

	case 0xff: // RST 38
		return mc.rst(0x38), nil
	}

	return 0, curated.Errorf(UnimplementedInstruction, opcode, mc.Regs.PC-1)
}

// daa adjusts the accumulator after a BCD add or subtract. after an
// add: correct by 0x60 (setting C) when C is set or A exceeds 0x99,
// and by 0x06 when H is set or the low digit exceeds 9. after a sub:
// correct downwards using only the C and H flags.
func (mc *CPU) daa() {
	flags := mc.Regs.F
	val := mc.Regs.A
	newFlags := flags &^ (FlagH | FlagZ)

	if flags&FlagN == FlagN {
		if flags&FlagC == FlagC {
			val -= 0x60
		}
		if flags&FlagH == FlagH {
			val -= 0x06
		}
	} else {
		if flags&FlagC == FlagC || val > 0x99 {
			val += 0x60
			newFlags |= FlagC
		}
		if flags&FlagH == FlagH || val&0x0f > 0x09 {
			val += 0x06
		}
	}

	mc.Regs.A = val
	if val == 0 {
		newFlags |= FlagZ
	}
	mc.Regs.F = newFlags
}
