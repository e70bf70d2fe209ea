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
	"math/bits"

	"github.com/jetsetilly/gopherboy/curated"
)

// executeTHUMB interprets a single 16bit encoded instruction. The
// nineteen instruction formats are selected by the top bits of the
// opcode.
func (mc *CPU) executeTHUMB() (int, error) {
	if mc.fetch == nil || mc.fetchIdx+2 > uint32(len(mc.fetch)) {
		mc.updateTHUMBPC()
		if mc.fetch == nil {
			return 0, curated.Errorf(NoProgramMemory, mc.regs[regPC])
		}
	}

	opcode := le16(mc.fetch[mc.fetchIdx:])
	mc.fetchIdx += 2

	mc.regs[regPC] += 2

	switch opcode >> 12 {
	case 0x0: // format 1: move shifted register (LSL, LSR)
		return mc.thumbMoveShifted(opcode), nil
	case 0x1: // format 1 (ASR) and format 2: add/subtract
		return mc.thumbAddSubtract(opcode), nil
	case 0x2, 0x3: // format 3: move/compare/add/subtract immediate
		return mc.thumbImmediate(opcode), nil
	case 0x4: // formats 4 to 6
		if opcode&(1<<11) == 1<<11 {
			return mc.thumbPCRelativeLoad(opcode), nil
		}
		if opcode&(1<<10) == 1<<10 {
			return mc.thumbHiRegister(opcode), nil
		}
		return mc.thumbALU(opcode), nil
	case 0x5: // formats 7 and 8: load/store with register offset
		return mc.thumbLoadStoreRegOffset(opcode), nil
	case 0x6: // format 9: load/store word with immediate offset
		return mc.thumbLoadStoreWord(opcode), nil
	case 0x7: // format 9: load/store byte with immediate offset
		return mc.thumbLoadStoreByte(opcode), nil
	case 0x8: // format 10: load/store halfword
		return mc.thumbLoadStoreHalf(opcode), nil
	case 0x9: // format 11: SP-relative load/store
		return mc.thumbSPRelativeLoadStore(opcode), nil
	case 0xa: // format 12: load address
		return mc.thumbLoadAddress(opcode), nil
	case 0xb: // formats 13 and 14: SP offset, push/pop
		if opcode&(1<<10) == 1<<10 {
			return mc.thumbPushPop(opcode), nil
		}
		return mc.thumbSPOffset(opcode), nil
	case 0xc: // format 15: multiple load/store
		return mc.thumbMultipleLoadStore(opcode), nil
	case 0xd: // formats 16 and 17: conditional branch, SWI
		return mc.thumbConditionalBranch(opcode), nil
	case 0xe: // format 18: unconditional branch
		return mc.thumbUnconditionalBranch(opcode), nil
	case 0xf: // format 19: long branch with link
		return mc.thumbLongBranchLink(opcode), nil
	}

	return 0, curated.Errorf(UnimplementedInstruction, uint32(opcode), mc.regs[regPC]-2)
}

// setNZ sets N and Z from the result, preserving C and V.
func (mc *CPU) setNZ(res uint32) {
	cpsr := mc.CPSR &^ (FlagN | FlagZ)
	cpsr |= res & signBit
	if res == 0 {
		cpsr |= FlagZ
	}
	mc.CPSR = cpsr
}

// setNZShift sets N and Z from the result and C from the shifter.
func (mc *CPU) setNZShift(res uint32, carry bool) {
	cpsr := mc.CPSR &^ (FlagN | FlagZ | FlagC)
	cpsr |= res & signBit
	if res == 0 {
		cpsr |= FlagZ
	}
	if carry {
		cpsr |= FlagC
	}
	mc.CPSR = cpsr
}

// format 1: LSL and LSR with an immediate shift amount.
func (mc *CPU) thumbMoveShifted(opcode uint16) int {
	srcReg := int((opcode >> 3) & 7)
	dstReg := int(opcode & 7)
	offset := uint32((opcode >> 6) & 0x1f)

	res := mc.reg(srcReg)
	carry := mc.flagC()

	if opcode&(1<<11) == 0 { // LSL
		if offset != 0 {
			carry = res&(1<<(32-offset)) != 0
			res <<= offset
		}
	} else { // LSR
		// shift by 0 is really 32
		if offset == 0 {
			offset = 32
		}
		carry = res&(1<<(offset-1)) != 0
		if offset == 32 {
			res = 0
		} else {
			res >>= offset
		}
	}

	mc.setReg(dstReg, res)
	mc.setNZShift(res, carry)

	return mc.pcSCycles
}

// format 1 (ASR) and format 2: three operand add/subtract.
func (mc *CPU) thumbAddSubtract(opcode uint16) int {
	srcReg := int((opcode >> 3) & 7)
	dstReg := int(opcode & 7)

	if (opcode>>11)&3 == 3 { // format 2
		op1 := mc.reg(srcReg)
		op2 := uint32((opcode >> 6) & 7)
		if opcode&(1<<10) == 0 { // register operand
			op2 = mc.reg(int(op2))
		}

		var res uint32
		if opcode&(1<<9) == 1<<9 { // SUB
			res = mc.subFlags(op1, op2, 1)
		} else { // ADD
			res = mc.addFlags(op1, op2, 0)
		}
		mc.setReg(dstReg, res)

		return mc.pcSCycles
	}

	// format 1 ASR
	offset := uint32((opcode >> 6) & 0x1f)
	res := mc.reg(srcReg)

	if offset == 0 {
		offset = 32
	}

	sign := res&signBit == signBit
	carry := res&(1<<(offset-1)) != 0
	if offset == 32 {
		if sign {
			res = 0xffffffff
		} else {
			res = 0
		}
	} else {
		res = uint32(int32(res) >> offset)
	}

	mc.setReg(dstReg, res)
	mc.setNZShift(res, carry)

	return mc.pcSCycles
}

// format 3: MOV, CMP, ADD and SUB with an 8bit immediate.
func (mc *CPU) thumbImmediate(opcode uint16) int {
	dstReg := int((opcode >> 8) & 7)
	imm := uint32(opcode & 0xff)

	dst := mc.reg(dstReg)

	switch (opcode >> 11) & 3 {
	case 0: // MOV
		mc.setReg(dstReg, imm)
		// N is not possible with an 8bit immediate
		mc.setNZ(imm)
	case 1: // CMP
		mc.subFlags(dst, imm, 1)
	case 2: // ADD
		mc.setReg(dstReg, mc.addFlags(dst, imm, 0))
	case 3: // SUB
		mc.setReg(dstReg, mc.subFlags(dst, imm, 1))
	}

	return mc.pcSCycles
}

// format 4: the register to register ALU group.
func (mc *CPU) thumbALU(opcode uint16) int {
	srcReg := int((opcode >> 3) & 7)
	dstReg := int(opcode & 7)

	op1 := mc.reg(dstReg)
	op2 := mc.reg(srcReg)

	switch (opcode >> 6) & 0xf {
	case 0x0: // AND
		res := op1 & op2
		mc.setReg(dstReg, res)
		mc.setNZ(res)
	case 0x1: // EOR
		res := op1 ^ op2
		mc.setReg(dstReg, res)
		mc.setNZ(res)
	case 0x2: // LSL
		carry := mc.flagC()
		res := op1
		switch {
		case op2 >= 32:
			carry = op2 == 32 && op1&1 == 1
			res = 0
		case op2 != 0:
			carry = op1&(1<<(32-op2)) != 0
			res = op1 << op2
		}
		mc.setReg(dstReg, res)
		mc.setNZShift(res, carry)
		return mc.pcSCycles + 1 // +1I for shift by register
	case 0x3: // LSR
		carry := mc.flagC()
		res := op1
		switch {
		case op2 >= 32:
			carry = op2 == 32 && op1&signBit == signBit
			res = 0
		case op2 != 0:
			carry = op1&(1<<(op2-1)) != 0
			res = op1 >> op2
		}
		mc.setReg(dstReg, res)
		mc.setNZShift(res, carry)
		return mc.pcSCycles + 1
	case 0x4: // ASR
		carry := mc.flagC()
		res := op1
		sign := op1&signBit == signBit
		switch {
		case op2 >= 32:
			carry = sign
			if sign {
				res = 0xffffffff
			} else {
				res = 0
			}
		case op2 != 0:
			carry = op1&(1<<(op2-1)) != 0
			res = uint32(int32(op1) >> op2)
		}
		mc.setReg(dstReg, res)
		mc.setNZShift(res, carry)
		return mc.pcSCycles + 1
	case 0x5: // ADC
		mc.setReg(dstReg, mc.addFlags(op1, op2, mc.carryIn()))
	case 0x6: // SBC
		mc.setReg(dstReg, mc.subFlags(op1, op2, mc.carryIn()))
	case 0x7: // ROR
		carry := mc.flagC()
		shift := op2 & 0x1f
		if op2 != 0 {
			carry = op1&(1<<(shift-1)) != 0
		}
		res := op1>>shift | op1<<(32-shift)
		mc.setReg(dstReg, res)
		mc.setNZShift(res, carry)
		return mc.pcSCycles + 1
	case 0x8: // TST
		mc.setNZ(op1 & op2)
	case 0x9: // NEG
		mc.setReg(dstReg, mc.subFlags(0, op2, 1))
	case 0xa: // CMP
		mc.subFlags(op1, op2, 1)
	case 0xb: // CMN
		mc.addFlags(op1, op2, 0)
	case 0xc: // ORR
		res := op1 | op2
		mc.setReg(dstReg, res)
		mc.setNZ(res)
	case 0xd: // MUL
		// C is meaningless, V is unaffected
		res := op1 * op2
		mc.setReg(dstReg, res)
		mc.setNZ(res)
		return mc.pcSCycles + multiplyIdleCycles(op1, true, false)
	case 0xe: // BIC
		res := op1 &^ op2
		mc.setReg(dstReg, res)
		mc.setNZ(res)
	case 0xf: // MVN
		mc.setReg(dstReg, ^op2)
		mc.setNZ(^op2)
	}

	return mc.pcSCycles
}

// format 5: operations on the high registers and BX.
func (mc *CPU) thumbHiRegister(opcode uint16) int {
	srcReg := int((opcode>>3)&7) + int((opcode>>6)&1)*8
	dstReg := int(opcode&7) + int((opcode>>7)&1)*8

	src := mc.reg(srcReg)
	if srcReg == regPC {
		src += 2
	}

	switch (opcode >> 8) & 3 {
	case 0: // ADD
		mc.setReg(dstReg, mc.reg(dstReg)+mc.reg(srcReg))
		if dstReg == regPC {
			mc.setReg(dstReg, mc.reg(dstReg)+2)
		}
	case 1: // CMP
		dst := mc.reg(dstReg)
		if dstReg == regPC {
			dst += 2
		}
		mc.subFlags(dst, src, 1)
	case 2: // MOV
		mc.setReg(dstReg, src)
	case 3: // BX
		mc.regs[regPC] = src &^ 1

		// bit 0 of the target selects the instruction encoding
		if src&1 == 0 {
			mc.CPSR &^= FlagT
			mc.updateARMPC()
		} else {
			mc.updateTHUMBPC()
		}

		return mc.pcSCycles
	}

	if dstReg == regPC {
		mc.regs[regPC] &^= 1
		mc.updateTHUMBPC()
	}

	return mc.pcSCycles
}

// format 6: PC-relative load. the PC value used is rounded down to a
// word boundary.
func (mc *CPU) thumbPCRelativeLoad(opcode uint16) int {
	dstReg := int((opcode >> 8) & 7)
	word := uint32(opcode&0xff) << 2

	base := (mc.regs[regPC] + 2) &^ 2
	addr := base + word
	mc.setReg(dstReg, mc.mem.Read32(addr&^3))

	return mc.pcSCycles + mc.pcNCycles + 1
}

// formats 7 and 8: load/store with a register offset, including the
// sign extending variants.
func (mc *CPU) thumbLoadStoreRegOffset(opcode uint16) int {
	offReg := int((opcode >> 6) & 7)
	baseReg := int((opcode >> 3) & 7)
	dstReg := int(opcode & 7)

	addr := mc.reg(baseReg) + mc.reg(offReg)

	if opcode&(1<<9) == 1<<9 { // format 8: sign-extended byte/halfword
		hFlag := opcode&(1<<11) == 1<<11
		signEx := opcode&(1<<10) == 1<<10

		if signEx {
			if hFlag && addr&1 == 0 { // LDRSH (misaligned loads a byte)
				mc.setReg(dstReg, uint32(int32(int16(mc.readMem16Aligned(addr)))))
				return mc.pcSCycles + mc.mem.AccessCycles(addr, 2, false) + 1
			}
			// LDRSB
			mc.setReg(dstReg, uint32(int32(int8(mc.readMem8(addr)))))
			return mc.pcSCycles + mc.mem.AccessCycles(addr, 1, false) + 1
		}

		if hFlag { // LDRH
			mc.setReg(dstReg, mc.readMem16(addr))
			return mc.pcSCycles + mc.mem.AccessCycles(addr, 2, false) + 1
		}
		// STRH
		mc.writeMem16(addr, uint16(mc.reg(dstReg)))
		return mc.pcNCycles + mc.mem.AccessCycles(addr, 2, false)
	}

	// format 7
	isLoad := opcode&(1<<11) == 1<<11
	isByte := opcode&(1<<10) == 1<<10
	width := 4
	if isByte {
		width = 1
	}

	if isLoad {
		if isByte { // LDRB
			mc.setReg(dstReg, uint32(mc.readMem8(addr)))
		} else { // LDR
			mc.setReg(dstReg, mc.readMem32(addr))
		}
		return mc.pcSCycles + mc.mem.AccessCycles(addr, width, false) + 1
	}

	if isByte { // STRB
		mc.writeMem8(addr, uint8(mc.reg(dstReg)))
	} else { // STR
		mc.writeMem32(addr, mc.reg(dstReg))
	}
	return mc.pcNCycles + mc.mem.AccessCycles(addr, width, false)
}

// format 9 (words): load/store with a scaled immediate offset.
func (mc *CPU) thumbLoadStoreWord(opcode uint16) int {
	offset := uint32((opcode>>6)&0x1f) << 2
	baseReg := int((opcode >> 3) & 7)
	dstReg := int(opcode & 7)

	addr := mc.reg(baseReg) + offset

	if opcode&(1<<11) == 1<<11 { // LDR
		mc.setReg(dstReg, mc.readMem32(addr))
		return mc.pcSCycles + mc.mem.AccessCycles(addr, 4, false) + 1
	}

	// STR
	mc.writeMem32(addr, mc.reg(dstReg))
	return mc.pcNCycles + mc.mem.AccessCycles(addr, 4, false)
}

// format 9 (bytes).
func (mc *CPU) thumbLoadStoreByte(opcode uint16) int {
	offset := uint32((opcode >> 6) & 0x1f)
	baseReg := int((opcode >> 3) & 7)
	dstReg := int(opcode & 7)

	addr := mc.reg(baseReg) + offset

	if opcode&(1<<11) == 1<<11 { // LDRB
		mc.setReg(dstReg, uint32(mc.readMem8(addr)))
		return mc.pcSCycles + mc.mem.AccessCycles(addr, 1, false) + 1
	}

	// STRB
	mc.writeMem8(addr, uint8(mc.reg(dstReg)))
	return mc.pcNCycles + mc.mem.AccessCycles(addr, 1, false)
}

// format 10: load/store halfword with a scaled immediate offset.
func (mc *CPU) thumbLoadStoreHalf(opcode uint16) int {
	offset := uint32((opcode>>6)&0x1f) << 1
	baseReg := int((opcode >> 3) & 7)
	dstReg := int(opcode & 7)

	addr := mc.reg(baseReg) + offset

	if opcode&(1<<11) == 1<<11 { // LDRH
		mc.setReg(dstReg, mc.readMem16(addr))
		return mc.pcSCycles + mc.mem.AccessCycles(addr, 2, false) + 1
	}

	// STRH
	mc.writeMem16(addr, uint16(mc.reg(dstReg)))
	return mc.pcNCycles + mc.mem.AccessCycles(addr, 2, false)
}

// format 11: SP-relative load/store.
func (mc *CPU) thumbSPRelativeLoadStore(opcode uint16) int {
	dstReg := int((opcode >> 8) & 7)
	word := uint32(opcode&0xff) << 2

	addr := mc.reg(regSP) + word

	if opcode&(1<<11) == 1<<11 { // LDR
		mc.setReg(dstReg, mc.readMem32(addr))
		return mc.pcSCycles + mc.mem.AccessCycles(addr, 4, false) + 1
	}

	// STR
	mc.mem.Write32(addr&^3, mc.reg(dstReg))
	return mc.pcNCycles + mc.mem.AccessCycles(addr, 4, false)
}

// format 12: load an address relative to the PC or the SP.
func (mc *CPU) thumbLoadAddress(opcode uint16) int {
	dstReg := int((opcode >> 8) & 7)
	word := uint32(opcode&0xff) << 2

	if opcode&(1<<11) == 1<<11 { // SP
		mc.setReg(dstReg, mc.reg(regSP)+word)
	} else { // PC, bit 1 forced to 0
		mc.setReg(dstReg, (mc.regs[regPC]+2)&^2+word)
	}

	return mc.pcSCycles
}

// format 13: add a signed offset to the SP.
func (mc *CPU) thumbSPOffset(opcode uint16) int {
	offset := uint32(opcode&0x7f) << 2

	if opcode&(1<<7) == 1<<7 {
		mc.setReg(regSP, mc.reg(regSP)-offset)
	} else {
		mc.setReg(regSP, mc.reg(regSP)+offset)
	}

	return mc.pcSCycles
}

// format 14: push/pop, optionally with LR/PC.
func (mc *CPU) thumbPushPop(opcode uint16) int {
	isLoad := opcode&(1<<11) == 1<<11
	pclr := opcode&(1<<8) == 1<<8 // store LR / load PC
	regList := uint8(opcode)

	if isLoad { // POP
		addr := mc.reg(regSP)

		for i := 0; regList != 0; i, regList = i+1, regList>>1 {
			if regList&1 == 1 {
				mc.setReg(i, mc.mem.Read32(addr&^3))
				addr += 4
			}
		}

		if pclr {
			// bit 0 of a popped PC is discarded
			mc.regs[regPC] = mc.mem.Read32(addr&^3) &^ 1
			mc.updateTHUMBPC()
			addr += 4
		}

		mc.setReg(regSP, addr)
		return mc.pcSCycles
	}

	// PUSH
	count := uint32(bits.OnesCount8(regList))
	if pclr {
		count++
	}
	addr := mc.reg(regSP) - count*4
	mc.setReg(regSP, addr)

	for i := 0; regList != 0; i, regList = i+1, regList>>1 {
		if regList&1 == 1 {
			mc.mem.Write32(addr&^3, mc.reg(i))
			addr += 4
		}
	}

	if pclr {
		mc.mem.Write32(addr&^3, mc.reg(regLR))
	}

	return mc.pcSCycles
}

// format 15: multiple load/store. writeback to the base happens after
// the first transfer. an empty register list transfers the PC and
// moves the base by 0x40.
func (mc *CPU) thumbMultipleLoadStore(opcode uint16) int {
	isLoad := opcode&(1<<11) == 1<<11
	baseReg := int((opcode >> 8) & 7)
	regList := uint8(opcode)

	addr := mc.reg(baseReg)

	if regList == 0 {
		if isLoad {
			mc.regs[regPC] = mc.readMem32(addr&^3) &^ 1
			mc.updateTHUMBPC()
		} else {
			mc.writeMem32(addr&^3, mc.regs[regPC]+4)
		}

		mc.setReg(baseReg, addr+0x40)
		return mc.pcSCycles
	}

	endAddr := addr + uint32(bits.OnesCount8(regList))*4
	addr &^= 3

	first := true
	for i := 0; regList != 0; i, regList = i+1, regList>>1 {
		if regList&1 == 0 {
			continue
		}

		if isLoad {
			mc.setReg(i, mc.mem.Read32(addr))
		} else {
			mc.mem.Write32(addr, mc.reg(i))
		}

		if first {
			mc.setReg(baseReg, endAddr)
		}
		first = false

		addr += 4
	}

	return mc.pcSCycles
}

// formats 16 and 17: conditional branch and SWI.
func (mc *CPU) thumbConditionalBranch(opcode uint16) int {
	cond := uint32((opcode >> 8) & 0xf)

	if cond == 0xf { // format 17: SWI
		mc.swi(mc.regs[regPC] &^ 1)
	} else if mc.conditionMet(cond) {
		offset := uint32(int32(int8(opcode&0xff))) << 1
		mc.regs[regPC] += offset + 2
		mc.updateTHUMBPC()
	}

	return mc.pcSCycles*2 + mc.pcNCycles // 2S + 1N
}

// format 18: unconditional branch.
func (mc *CPU) thumbUnconditionalBranch(opcode uint16) int {
	// sign extend the 11 bit offset and double it
	offset := uint32(int32(int16(opcode<<5)) >> 4)

	mc.regs[regPC] += offset + 2
	mc.updateTHUMBPC()

	return mc.pcSCycles*2 + mc.pcNCycles // 2S + 1N
}

// format 19: long branch with link, encoded as two instructions. the
// first half stages the high part of the offset in LR; the second half
// completes the branch and leaves the return address (with bit 0 set)
// in LR.
func (mc *CPU) thumbLongBranchLink(opcode uint16) int {
	offset := uint32(opcode & 0x7ff)

	if opcode&(1<<11) == 0 { // first half
		offset <<= 12
		if offset&(1<<22) == 1<<22 {
			offset |= 0xff800000 // sign extend
		}
		mc.setReg(regLR, mc.regs[regPC]+2+offset)
		return mc.pcSCycles
	}

	// second half
	temp := mc.regs[regPC]
	mc.regs[regPC] = mc.reg(regLR) + offset<<1
	mc.setReg(regLR, temp|1)

	ret := mc.pcNCycles
	mc.updateTHUMBPC()

	return ret + mc.pcSCycles*2
}
