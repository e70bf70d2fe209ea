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

// executeARM interprets a single 32bit encoded instruction.
//
// A note on the PC prefetch model: the PC is incremented past the
// instruction before any operand is read, so a read of R15 through the
// register file observes the instruction address plus four. The
// helpers add the extra increments the pipeline would have performed:
// plus four more for most operand reads, plus eight when the shifter
// is fed from a register (the shifter consumes a cycle before the
// ALU).
func (mc *CPU) executeARM() (int, error) {
	if mc.fetch == nil || mc.fetchIdx+4 > uint32(len(mc.fetch)) {
		mc.updateARMPC()
		if mc.fetch == nil {
			return 0, curated.Errorf(NoProgramMemory, mc.regs[regPC])
		}
	}

	opcode := le32(mc.fetch[mc.fetchIdx:])
	mc.fetchIdx += 4

	timing := mc.pcSCycles
	mc.regs[regPC] += 4

	// a failing condition consumes only the fetch cycle
	if !mc.conditionMet(opcode >> 28) {
		return timing, nil
	}

	switch (opcode >> 24) & 0xf {
	case 0x0: // data processing with register (and halfword transfer/multiply)
		if (opcode>>4)&9 == 9 {
			if (opcode>>5)&3 != 0 {
				return mc.armHalfwordTransfer(opcode, false), nil
			}
			if opcode&(1<<23) == 1<<23 {
				return mc.armMultiplyLong(opcode), nil
			}
			return mc.armMultiply(opcode), nil
		}

		op2Shift := uint8((opcode >> 4) & 0xff)
		op2, carry := mc.shiftedReg(int(opcode&0xf), op2Shift)

		// +1 I cycle and PC reads of +8 if the shift amount comes from
		// a register
		if op2Shift&1 == 1 {
			return mc.armDataProcessing(opcode, op2, carry, 8) + 1, nil
		}
		return mc.armDataProcessing(opcode, op2, carry, 4), nil

	case 0x1: // data processing with register (and branch exchange/swap)
		if opcode&0x0fffff00 == 0x012fff00 { // BX
			newPC := mc.reg(int(opcode & 0xf))
			mc.regs[regPC] = newPC &^ 1

			// bit 0 of the target selects the instruction encoding
			if newPC&1 == 1 {
				mc.CPSR |= FlagT
				mc.updateTHUMBPC()
			} else {
				mc.updateARMPC()
			}

			return timing, nil
		}

		if (opcode>>4)&9 == 9 {
			if (opcode>>5)&3 != 0 {
				return mc.armHalfwordTransfer(opcode, true), nil
			}
			return mc.armSwap(opcode, timing), nil
		}

		instOp := (opcode >> 21) & 0xf
		setCondCode := opcode&(1<<20) == 1<<20

		if !setCondCode && instOp >= 0x8 && instOp <= 0xb { // PSR transfer
			mc.armPSRTransfer(opcode, 0, false)
			return timing, nil
		}

		op2Shift := uint8((opcode >> 4) & 0xff)
		op2, carry := mc.shiftedReg(int(opcode&0xf), op2Shift)

		if op2Shift&1 == 1 {
			return mc.armDataProcessing(opcode, op2, carry, 8) + 1, nil
		}
		return mc.armDataProcessing(opcode, op2, carry, 4), nil

	case 0x2, 0x3: // data processing with immediate (and MSR)
		// the immediate is an 8bit value rotated right by twice the
		// shift field
		op2 := opcode & 0xff
		shift := (opcode >> 8 & 0xf) * 2
		op2 = op2>>shift | op2<<(32-shift)

		carry := mc.flagC()
		if shift != 0 {
			carry = op2&signBit == signBit
		}

		instOp := (opcode >> 21) & 0xf
		setCondCode := opcode&(1<<20) == 1<<20

		if !setCondCode && instOp >= 0x8 && instOp <= 0xb { // MSR
			mc.armPSRTransfer(opcode, op2, true)
			return timing, nil
		}

		return mc.armDataProcessing(opcode, op2, carry, 4), nil

	case 0x4: // single data transfer (immediate offset, post indexed)
		return mc.armSingleDataTransfer(opcode, false, false), nil
	case 0x5: // single data transfer (immediate offset, pre indexed)
		return mc.armSingleDataTransfer(opcode, false, true), nil
	case 0x6: // single data transfer (register offset, post indexed)
		return mc.armSingleDataTransfer(opcode, true, false), nil
	case 0x7: // single data transfer (register offset, pre indexed)
		return mc.armSingleDataTransfer(opcode, true, true), nil

	case 0x8: // block data transfer (post indexed)
		mc.armBlockDataTransfer(opcode, false)
		return timing, nil
	case 0x9: // block data transfer (pre indexed)
		mc.armBlockDataTransfer(opcode, true)
		return timing, nil

	case 0xa: // branch
		offset := uint32(int32(opcode<<8) >> 6)
		mc.regs[regPC] += offset + 4
		mc.updateARMPC()
		return timing, nil

	case 0xb: // branch with link
		offset := uint32(int32(opcode<<8) >> 6)
		mc.setReg(regLR, mc.regs[regPC])
		mc.regs[regPC] += offset + 4
		mc.updateARMPC()
		return timing, nil

	case 0xf: // software interrupt
		mc.swi(mc.regs[regPC])
		return timing, nil
	}

	return 0, curated.Errorf(UnimplementedInstruction, opcode, mc.regs[regPC]-4)
}

// shiftedReg computes operand two of a data processing instruction
// from a register and the shift field. Returns the operand and the
// shifter carry.
//
// The degenerate shift amounts all have defined results: an immediate
// shift of zero means 32 for LSR and ASR and rotate-through-carry for
// ROR; a register shift of zero preserves the operand and the carry;
// shifts of 32 or more saturate.
func (mc *CPU) shiftedReg(r int, shift uint8) (uint32, bool) {
	ret := mc.reg(r)

	// prefetch
	if r == regPC {
		if shift&1 == 1 {
			ret += 8
		} else {
			ret += 4
		}
	}

	// left shift by immediate zero. do nothing and preserve carry
	if shift == 0 {
		return ret, mc.flagC()
	}

	carry := false
	shiftType := (shift >> 1) & 3

	var shiftAmount uint32
	if shift&1 == 1 {
		shiftAmount = mc.reg(int(shift>>4)) & 0xff
		if shiftAmount == 0 {
			return ret, mc.flagC()
		}
	} else {
		shiftAmount = uint32(shift >> 3)
		if shiftAmount == 0 {
			// lsr/asr shift by 32 instead of 0
			shiftAmount = 32
		}
	}

	switch shiftType {
	case 0: // LSL
		if shiftAmount >= 32 {
			carry = shiftAmount == 32 && ret&1 == 1
			ret = 0
		} else {
			carry = ret&(1<<(32-shiftAmount)) != 0
			ret <<= shiftAmount
		}

	case 1: // LSR
		if shiftAmount >= 32 {
			carry = shiftAmount == 32 && ret&signBit == signBit
			ret = 0
		} else {
			carry = ret&(1<<(shiftAmount-1)) != 0
			ret >>= shiftAmount
		}

	case 2: // ASR
		sign := ret&signBit == signBit
		if shiftAmount >= 32 {
			carry = sign
			if sign {
				ret = 0xffffffff
			} else {
				ret = 0
			}
		} else {
			carry = ret&(1<<(shiftAmount-1)) != 0
			ret = uint32(int32(ret) >> shiftAmount)
		}

	case 3:
		if shift&1 == 0 && shiftAmount == 32 { // RRX (immediate 0)
			carry = ret&1 == 1
			ret >>= 1
			if mc.flagC() {
				ret |= signBit
			}
		} else { // ROR
			shiftAmount &= 0x1f
			ret = ret>>shiftAmount | ret<<(32-shiftAmount)
			carry = ret&signBit == signBit
		}
	}

	return ret, carry
}

// armDataProcessing dispatches a data processing instruction once
// operand two has been resolved.
func (mc *CPU) armDataProcessing(opcode uint32, op2 uint32, carry bool, pcInc uint32) int {
	op1Reg := int((opcode >> 16) & 0xf)
	op1 := mc.reg(op1Reg)
	if op1Reg == regPC {
		op1 += pcInc
	}

	instOp := (opcode >> 21) & 0xf
	destReg := int((opcode >> 12) & 0xf)

	if opcode&(1<<20) == 1<<20 {
		return mc.armALUOp(instOp, destReg, op1, op2, carry)
	}
	return mc.armALUOpNoCond(instOp, destReg, op1, op2)
}

// flag setting helpers shared by the two instruction encodings.

// setLogicalFlags sets N and Z from the result and C from the shifter
// carry. V is preserved.
func (mc *CPU) setLogicalFlags(res uint32, carry bool) {
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

// addFlags performs a+b+c and sets all four condition flags.
func (mc *CPU) addFlags(a uint32, b uint32, c uint32) uint32 {
	res := a + b + c

	cpsr := mc.CPSR & 0x0fffffff
	cpsr |= res & signBit
	if res == 0 {
		cpsr |= FlagZ
	}
	if res < a || (res == a && c != 0) {
		cpsr |= FlagC
	}
	if ^(a^b)&(a^res)&signBit != 0 {
		cpsr |= FlagV
	}
	mc.CPSR = cpsr

	return res
}

// subFlags performs a-b+c-1 and sets all four condition flags. The c
// argument is 1 for a plain subtract. C is set when no borrow
// occurred.
func (mc *CPU) subFlags(a uint32, b uint32, c uint32) uint32 {
	res := a - b + c - 1

	cpsr := mc.CPSR & 0x0fffffff
	cpsr |= res & signBit
	if res == 0 {
		cpsr |= FlagZ
	}
	if !(b > a || (b == a && c == 0)) {
		cpsr |= FlagC
	}
	if (a^b)&(a^res)&signBit != 0 {
		cpsr |= FlagV
	}
	mc.CPSR = cpsr

	return res
}

func (mc *CPU) carryIn() uint32 {
	if mc.flagC() {
		return 1
	}
	return 0
}

// armALUOp executes a data processing operation with condition code
// update. When the destination is R15, CPSR is reloaded from SPSR and
// the register banks change accordingly.
func (mc *CPU) armALUOp(op uint32, destReg int, op1 uint32, op2 uint32, carry bool) int {
	if destReg == regPC {
		ret := mc.armALUOpNoCond(op, destReg, op1, op2)

		mc.CPSR = mc.spsrVal()
		mc.modeChanged()

		if mc.CPSR&FlagT == FlagT {
			mc.regs[regPC] &^= 1
			mc.updateTHUMBPC()
		} else {
			mc.regs[regPC] &^= 3
			mc.updateARMPC()
		}

		return ret
	}

	switch op {
	case 0x0: // AND
		res := op1 & op2
		mc.setReg(destReg, res)
		mc.setLogicalFlags(res, carry)
	case 0x1: // EOR
		res := op1 ^ op2
		mc.setReg(destReg, res)
		mc.setLogicalFlags(res, carry)
	case 0x2: // SUB
		mc.setReg(destReg, mc.subFlags(op1, op2, 1))
	case 0x3: // RSB
		mc.setReg(destReg, mc.subFlags(op2, op1, 1))
	case 0x4: // ADD
		mc.setReg(destReg, mc.addFlags(op1, op2, 0))
	case 0x5: // ADC
		mc.setReg(destReg, mc.addFlags(op1, op2, mc.carryIn()))
	case 0x6: // SBC
		mc.setReg(destReg, mc.subFlags(op1, op2, mc.carryIn()))
	case 0x7: // RSC
		mc.setReg(destReg, mc.subFlags(op2, op1, mc.carryIn()))
	case 0x8: // TST
		mc.setLogicalFlags(op1&op2, carry)
	case 0x9: // TEQ
		mc.setLogicalFlags(op1^op2, carry)
	case 0xa: // CMP
		mc.subFlags(op1, op2, 1)
	case 0xb: // CMN
		mc.addFlags(op1, op2, 0)
	case 0xc: // ORR
		res := op1 | op2
		mc.setReg(destReg, res)
		mc.setLogicalFlags(res, carry)
	case 0xd: // MOV
		mc.setReg(destReg, op2)
		mc.setLogicalFlags(op2, carry)
	case 0xe: // BIC
		res := op1 &^ op2
		mc.setReg(destReg, res)
		mc.setLogicalFlags(res, carry)
	case 0xf: // MVN
		mc.setReg(destReg, ^op2)
		mc.setLogicalFlags(^op2, carry)
	}

	return mc.pcSCycles
}

// armALUOpNoCond executes a data processing operation without touching
// the condition flags.
func (mc *CPU) armALUOpNoCond(op uint32, destReg int, op1 uint32, op2 uint32) int {
	var res uint32

	switch op {
	case 0x0: // AND
		res = op1 & op2
	case 0x1: // EOR
		res = op1 ^ op2
	case 0x2: // SUB
		res = op1 - op2
	case 0x3: // RSB
		res = op2 - op1
	case 0x4: // ADD
		res = op1 + op2
	case 0x5: // ADC
		res = op1 + op2 + mc.carryIn()
	case 0x6: // SBC
		res = op1 - op2 + mc.carryIn() - 1
	case 0x7: // RSC
		res = op2 - op1 + mc.carryIn() - 1
	case 0x8, 0x9, 0xa, 0xb:
		// the compare ops without the S bit are PSR transfers and
		// never reach here
		return mc.pcSCycles
	case 0xc: // ORR
		res = op1 | op2
	case 0xd: // MOV
		res = op2
	case 0xe: // BIC
		res = op1 &^ op2
	case 0xf: // MVN
		res = ^op2
	}

	mc.setReg(destReg, res)

	if destReg == regPC {
		mc.regs[regPC] &^= 3
		mc.updateARMPC()
	}

	return mc.pcSCycles
}

// armPSRTransfer implements MRS and MSR. For MSR, the field mask
// selects the flag byte and/or the control byte.
func (mc *CPU) armPSRTransfer(opcode uint32, imm uint32, isImm bool) {
	isSPSR := opcode&(1<<22) == 1<<22

	if opcode&(1<<21) == 1<<21 { // MSR
		var val uint32
		if isImm {
			val = imm
		} else {
			val = mc.reg(int(opcode & 0xf))
		}

		var mask uint32
		if opcode&(1<<19) == 1<<19 { // flag field
			mask |= 0xff000000
		}
		if opcode&(1<<16) == 1<<16 { // control field
			mask |= 0x000000ff
		}

		if isSPSR {
			mc.setSPSR(mc.spsrVal()&^mask | val&mask)
		} else {
			mc.CPSR = mc.CPSR&^mask | val&mask
			mc.modeChanged()
		}
		return
	}

	// MRS
	destReg := int((opcode >> 12) & 0xf)
	if isSPSR {
		mc.setReg(destReg, mc.spsrVal())
	} else {
		mc.setReg(destReg, mc.CPSR)
	}
}

// multiplyIdleCycles counts the internal cycles of a multiply: one per
// significant byte of the operand. Leading bytes of all zeros (or all
// ones, when the ones argument is set) terminate the multiply early.
func multiplyIdleCycles(op2 uint32, ones bool, accumulate bool) int {
	prefix := bits.LeadingZeros32(op2)
	if ones && op2&signBit == signBit {
		prefix = bits.LeadingZeros32(^op2)
	}

	if prefix == 32 {
		return 1
	}

	n := 4 - prefix/8
	if accumulate {
		n++
	}
	return n
}

// armMultiply implements MUL and MLA. C becomes meaningless
// (cleared); V is preserved.
func (mc *CPU) armMultiply(opcode uint32) int {
	accumulate := opcode&(1<<21) == 1<<21
	setCondCode := opcode&(1<<20) == 1<<20
	destReg := int((opcode >> 16) & 0xf)
	op3Reg := int((opcode >> 12) & 0xf)
	op2Reg := int((opcode >> 8) & 0xf)
	op1Reg := int(opcode & 0xf)

	op2 := mc.reg(op2Reg)

	res := mc.reg(op1Reg) * op2
	if accumulate {
		res += mc.reg(op3Reg)
	}
	mc.setReg(destReg, res)

	if setCondCode {
		cpsr := mc.CPSR &^ (FlagN | FlagZ | FlagC)
		cpsr |= res & signBit
		if res == 0 {
			cpsr |= FlagZ
		}
		mc.CPSR = cpsr
	}

	return mc.pcSCycles + multiplyIdleCycles(op2, true, accumulate)
}

// armMultiplyLong implements UMULL, SMULL, UMLAL and SMLAL.
func (mc *CPU) armMultiplyLong(opcode uint32) int {
	isSigned := opcode&(1<<22) == 1<<22
	accumulate := opcode&(1<<21) == 1<<21
	setCondCode := opcode&(1<<20) == 1<<20
	destHiReg := int((opcode >> 16) & 0xf)
	destLoReg := int((opcode >> 12) & 0xf)
	op2Reg := int((opcode >> 8) & 0xf)
	op1Reg := int(opcode & 0xf)

	op2 := mc.reg(op2Reg)

	var res uint64
	if isSigned {
		res = uint64(int64(int32(mc.reg(op1Reg))) * int64(int32(op2)))
	} else {
		res = uint64(mc.reg(op1Reg)) * uint64(op2)
	}

	if accumulate {
		res += uint64(mc.reg(destHiReg))<<32 | uint64(mc.reg(destLoReg))
	}

	mc.setReg(destHiReg, uint32(res>>32))
	mc.setReg(destLoReg, uint32(res))

	if setCondCode {
		cpsr := mc.CPSR &^ (FlagN | FlagZ | FlagC)
		if res&(1<<63) != 0 {
			cpsr |= FlagN
		}
		if res == 0 {
			cpsr |= FlagZ
		}
		mc.CPSR = cpsr
	}

	return mc.pcSCycles + multiplyIdleCycles(op2, isSigned, accumulate) + 1
}

// armHalfwordTransfer implements the halfword and signed transfer
// instructions (LDRH, STRH, LDRSB, LDRSH).
func (mc *CPU) armHalfwordTransfer(opcode uint32, isPre bool) int {
	baseReg := int((opcode >> 16) & 0xf)
	srcDestReg := int((opcode >> 12) & 0xf)

	var offset uint32
	if opcode&(1<<22) == 1<<22 { // immediate
		offset = (opcode>>4)&0xf0 | opcode&0xf
	} else {
		offset = mc.reg(int(opcode & 0xf))
	}

	if opcode&(1<<23) == 0 { // down
		offset = -offset
	}

	addr := mc.reg(baseReg)
	if baseReg == regPC {
		addr += 4
	}

	// value for a store must be read before any writeback
	val := mc.reg(srcDestReg)

	if isPre {
		addr += offset
		if opcode&(1<<21) == 1<<21 { // writeback
			mc.setReg(baseReg, addr)
		}
	} else {
		// post indexing always writes back
		mc.setReg(baseReg, mc.reg(baseReg)+offset)
	}

	if opcode&(1<<20) == 1<<20 { // load
		sign := opcode&(1<<6) == 1<<6
		half := opcode&(1<<5) == 1<<5

		switch {
		case half && !sign: // LDRH
			mc.setReg(srcDestReg, mc.readMem16(addr))
		case half && addr&1 == 0: // LDRSH (aligned)
			mc.setReg(srcDestReg, uint32(int32(int16(mc.readMem16Aligned(addr)))))
		default: // LDRSB, and the byte behaviour of a misaligned LDRSH
			mc.setReg(srcDestReg, uint32(int32(int8(mc.readMem8(addr)))))
		}

		width := 1
		if half {
			width = 2
		}
		return mc.pcSCycles + mc.mem.AccessCycles(addr, width, false) + 1 // 1S + 1N + 1I
	}

	// only unsigned halfword stores exist
	if srcDestReg == regPC {
		val += 8
	}
	mc.writeMem16(addr, uint16(val)) // STRH

	return mc.pcNCycles + mc.mem.AccessCycles(addr, 2, false) // 2N
}

// armSingleDataTransfer implements LDR, STR, LDRB and STRB with all
// the indexing variants.
func (mc *CPU) armSingleDataTransfer(opcode uint32, isReg bool, isPre bool) int {
	baseReg := int((opcode >> 16) & 0xf)
	srcDestReg := int((opcode >> 12) & 0xf)

	var offset uint32
	if !isReg { // immediate
		offset = opcode & 0xfff
	} else {
		offset, _ = mc.shiftedReg(int(opcode&0xf), uint8((opcode>>4)&0xfe))
	}

	if opcode&(1<<23) == 0 { // down
		offset = -offset
	}

	addr := mc.reg(baseReg)
	if baseReg == regPC {
		addr += 4
	}

	// value for a store must be read before any writeback
	val := mc.reg(srcDestReg)

	if isPre {
		addr += offset
		if opcode&(1<<21) == 1<<21 { // writeback
			mc.setReg(baseReg, addr)
		}
	} else {
		// post indexing always writes back
		mc.setReg(baseReg, mc.reg(baseReg)+offset)
	}

	isByte := opcode&(1<<22) == 1<<22
	width := 4
	if isByte {
		width = 1
	}

	if opcode&(1<<20) == 1<<20 { // load
		if isByte {
			mc.setReg(srcDestReg, uint32(mc.readMem8(addr)))
		} else {
			mc.setReg(srcDestReg, mc.readMem32(addr))
		}

		if srcDestReg == regPC {
			mc.regs[regPC] &^= 3
			mc.updateARMPC()
		}

		return mc.pcSCycles + mc.mem.AccessCycles(addr, width, false) + 1 // 1S + 1N + 1I
	}

	if srcDestReg == regPC {
		val += 8
	}

	if isByte {
		mc.writeMem8(addr, uint8(val))
	} else {
		mc.writeMem32(addr, val)
	}

	return mc.pcNCycles + mc.mem.AccessCycles(addr, width, false) // 2N
}

// armBlockDataTransfer implements LDM and STM. Registers are always
// transferred in ascending index order from the lowest address; the
// decrement addressing modes are folded into a starting address
// adjustment. Writeback to the base happens after the first transfer
// and is suppressed when the base appears in a load list. An empty
// register list transfers R15 alone and moves the base by 0x40.
func (mc *CPU) armBlockDataTransfer(opcode uint32, preIndex bool) {
	isUp := opcode&(1<<23) == 1<<23
	forceUser := opcode&(1<<22) == 1<<22
	writeBack := opcode&(1<<21) == 1<<21
	isLoad := opcode&(1<<20) == 1<<20
	baseReg := int((opcode >> 16) & 0xf)
	regList := uint16(opcode)

	addr := mc.reg(baseReg)
	numRegs := uint32(bits.OnesCount16(regList))

	lowAddr := uint32(0)
	highAddr := addr + numRegs*4

	// flip decrement addressing around so that regs are transferred in
	// ascending order
	if !isUp {
		addr -= numRegs * 4
		lowAddr = addr
		if !preIndex {
			addr += 4
		}
	} else if preIndex {
		addr += 4
	}

	if isLoad && regList&(1<<baseReg) != 0 {
		// base in the load list: the loaded value wins
		writeBack = false
	}

	// empty list transfers R15 alone and moves the base a full 0x40
	if regList == 0 {
		regList = 1 << 15

		if isUp {
			highAddr += 0x40
		} else {
			addr -= 0x40
			lowAddr = addr
			if !preIndex {
				lowAddr = addr - 4
			}
		}
	}

	pcWritten := isLoad && regList&(1<<15) != 0

	// the S bit forces the user bank, except for a load that includes
	// R15 which uses the current bank and restores CPSR at the end
	userBank := forceUser && !pcWritten

	first := true
	for i := 0; regList != 0; i, regList = i+1, regList>>1 {
		if regList&1 == 0 {
			continue
		}

		if isLoad {
			v := mc.mem.Read32(addr &^ 3)
			if userBank {
				mc.setUserReg(i, v)
			} else {
				mc.setReg(i, v)
			}
		} else {
			var v uint32
			if userBank {
				v = mc.userReg(i)
			} else {
				v = mc.reg(i)
			}
			if i == regPC {
				v += 8
			}
			mc.writeMem32(addr&^3, v)
		}

		addr += 4

		if first && writeBack {
			// write back after the first transfer
			if isUp {
				mc.setReg(baseReg, highAddr)
			} else {
				mc.setReg(baseReg, lowAddr)
			}
		}
		first = false
	}

	if forceUser && pcWritten {
		mc.CPSR = mc.spsrVal()
		mc.modeChanged()
	}

	if pcWritten {
		if mc.CPSR&FlagT == FlagT {
			mc.regs[regPC] &^= 1
			mc.updateTHUMBPC()
		} else {
			mc.regs[regPC] &^= 3
			mc.updateARMPC()
		}
	}
}

// armSwap implements SWP and SWPB.
func (mc *CPU) armSwap(opcode uint32, timing int) int {
	isByte := opcode&(1<<22) == 1<<22
	baseReg := int((opcode >> 16) & 0xf)
	destReg := int((opcode >> 12) & 0xf)
	srcReg := int(opcode & 0xf)

	addr := mc.reg(baseReg)

	if isByte {
		v := mc.readMem8(addr)
		mc.writeMem8(addr, uint8(mc.reg(srcReg)))
		mc.setReg(destReg, uint32(v))
	} else {
		v := mc.readMem32(addr)
		mc.writeMem32(addr, mc.reg(srcReg))
		mc.setReg(destReg, v)
	}

	return timing
}
