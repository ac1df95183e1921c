// Package amd64 provides x86-64 machine code encoding utilities. It has no
// dependency on compiler internals and can be used standalone, the same
// way the teacher's pkg/amd64 could — generalized here from a handful of
// instructions hardcoded against two fixed registers (r12, r13) into
// helpers parameterized by an arbitrary Reg, since this codebase pins more
// registers to more roles (see internal/codegen/jit).
//
// For the encoding rules (REX prefixes, ModRM, SIB), see
// https://wiki.osdev.org/X86-64_Instruction_Encoding.
package amd64

import "encoding/binary"

// Reg is an x86-64 general-purpose register, numbered the way the
// instruction encoding itself numbers them (0-7 legacy, 8-15 need a REX.R/
// X/B extension bit).
type Reg uint8

const (
	RAX Reg = iota
	RCX
	RDX
	RBX
	RSP
	RBP
	RSI
	RDI
	R8
	R9
	R10
	R11
	R12
	R13
	R14
	R15
)

// low3 returns the 3-bit register field used in ModRM/SIB/opcode+r.
func (r Reg) low3() byte { return byte(r) & 7 }

// extended reports whether r needs a REX extension bit to encode.
func (r Reg) extended() bool { return r >= R8 }

// rex builds a REX prefix. w selects 64-bit operand size; r/x/b extend the
// ModRM.reg, SIB.index and ModRM.rm/SIB.base fields respectively.
func rex(w, r, x, b bool) byte {
	rex := byte(0x40)
	if w {
		rex |= 0x08
	}
	if r {
		rex |= 0x04
	}
	if x {
		rex |= 0x02
	}
	if b {
		rex |= 0x01
	}
	return rex
}

func modrm(mod, reg, rm byte) byte {
	return (mod << 6) | ((reg & 7) << 3) | (rm & 7)
}

func le32(v int32) []byte {
	buf := make([]byte, 4)
	binary.LittleEndian.PutUint32(buf, uint32(v))
	return buf
}

func le64(v uint64) []byte {
	buf := make([]byte, 8)
	binary.LittleEndian.PutUint64(buf, v)
	return buf
}

// Push encodes: push r64 (50+r, with REX.B if r is extended).
func Push(r Reg) []byte {
	if r.extended() {
		return []byte{rex(false, false, false, true), 0x50 + r.low3()}
	}
	return []byte{0x50 + r.low3()}
}

// Pop encodes: pop r64 (58+r, with REX.B if r is extended).
func Pop(r Reg) []byte {
	if r.extended() {
		return []byte{rex(false, false, false, true), 0x58 + r.low3()}
	}
	return []byte{0x58 + r.low3()}
}

// MovRegReg encodes: mov dst, src (64-bit register-register move).
func MovRegReg(dst, src Reg) []byte {
	return []byte{
		rex(true, src.extended(), false, dst.extended()),
		0x89, // mov r/m64, r64
		modrm(3, src.low3(), dst.low3()),
	}
}

// XorSelf encodes: xor r, r (zeros r; shorter than a mov-immediate-0).
func XorSelf(r Reg) []byte {
	return []byte{
		rex(true, r.extended(), false, r.extended()),
		0x31,
		modrm(3, r.low3(), r.low3()),
	}
}

// MovabsImm64 encodes: movabs r64, imm64.
func MovabsImm64(r Reg, imm64 uint64) []byte {
	out := []byte{rex(true, false, false, r.extended()), 0xB8 + r.low3()}
	return append(out, le64(imm64)...)
}

// MovRegImm32 encodes: mov r32, imm32 (zero-extends into the full r64).
// Used by the freestanding backends for small syscall-number constants,
// where a 64-bit movabs would be eight bytes of mostly zeroes.
func MovRegImm32(r Reg, imm32 uint32) []byte {
	out := []byte{}
	if r.extended() {
		out = append(out, rex(false, false, false, true))
	}
	out = append(out, 0xB8+r.low3())
	return append(out, le32(int32(imm32))...)
}

// Syscall encodes: syscall.
func Syscall() []byte { return []byte{0x0F, 0x05} }

// CallRel32 encodes: call rel32.
func CallRel32(rel32 int32) []byte {
	return append([]byte{0xE8}, le32(rel32)...)
}

// AddRegImm32 encodes: add r64, imm32 (sign-extended).
func AddRegImm32(r Reg, imm32 int32) []byte {
	out := []byte{rex(true, false, false, r.extended()), 0x81, modrm(3, 0, r.low3())}
	return append(out, le32(imm32)...)
}

// SubRegImm32 encodes: sub r64, imm32 (sign-extended).
func SubRegImm32(r Reg, imm32 int32) []byte {
	out := []byte{rex(true, false, false, r.extended()), 0x81, modrm(3, 5, r.low3())}
	return append(out, le32(imm32)...)
}

// CmpRegReg encodes: cmp a, b (64-bit register compare, a - b).
func CmpRegReg(a, b Reg) []byte {
	return []byte{
		rex(true, b.extended(), false, a.extended()),
		0x39, // cmp r/m64, r64
		modrm(3, b.low3(), a.low3()),
	}
}

// memByteOp encodes a byte-sized opcode with an 8-bit immediate against a
// single-register memory operand [base], e.g. `add byte [base], imm8`
// (/digit selects the opcode extension in ModRM.reg).
//
// Unlike the teacher's r12/r13 base+index pair, every register this
// backend addresses through memory (R15, the tape pointer) is used alone,
// so there is no SIB byte to build — RBP/R13 (the one pair whose low 3
// bits collide with the no-SIB "disp32" encoding) is the only register
// that would need the disp8-of-zero workaround the teacher's encoder
// hardcodes; this code pays that cost only when addressing through one of
// those two registers.
func memByteOp(opcode, digit byte, base Reg, imm8 byte) []byte {
	out := []byte{rex(false, false, false, base.extended()), opcode}
	if base.low3() == RBP.low3() {
		// mod=01 (disp8) with rm=101 means [base+disp8]; mod=00 with
		// rm=101 would mean RIP-relative instead of [base], so rbp/r13
		// need an explicit (zero) displacement byte.
		out = append(out, modrm(1, digit, base.low3()), 0x00, imm8)
		return out
	}
	out = append(out, modrm(0, digit, base.low3()), imm8)
	return out
}

// AddByteMemImm8 encodes: add byte [base], imm8.
func AddByteMemImm8(base Reg, imm8 uint8) []byte {
	return memByteOp(0x80, 0, base, imm8)
}

// SubByteMemImm8 encodes: sub byte [base], imm8.
func SubByteMemImm8(base Reg, imm8 uint8) []byte {
	return memByteOp(0x80, 5, base, imm8)
}

// CmpByteMemImm8 encodes: cmp byte [base], imm8.
func CmpByteMemImm8(base Reg, imm8 uint8) []byte {
	return memByteOp(0x80, 7, base, imm8)
}

// MovByteMemReg encodes: mov [base], srcLow8 (store the low byte of src).
func MovByteMemReg(base, src Reg) []byte {
	out := []byte{rex(false, src.extended(), false, base.extended()), 0x88}
	if base.low3() == RBP.low3() {
		return append(out, modrm(1, src.low3(), base.low3()), 0x00)
	}
	return append(out, modrm(0, src.low3(), base.low3()))
}

// MovRegByteMem encodes: mov dstLow8, [base] (zero-extension is the
// caller's concern; this only loads the byte).
func MovRegByteMem(dst, base Reg) []byte {
	out := []byte{rex(false, dst.extended(), false, base.extended()), 0x8A}
	if base.low3() == RBP.low3() {
		return append(out, modrm(1, dst.low3(), base.low3()), 0x00)
	}
	return append(out, modrm(0, dst.low3(), base.low3()))
}

// JzRel32 encodes: jz rel32.
func JzRel32(rel32 int32) []byte {
	return append([]byte{0x0F, 0x84}, le32(rel32)...)
}

// JnzRel32 encodes: jnz rel32.
func JnzRel32(rel32 int32) []byte {
	return append([]byte{0x0F, 0x85}, le32(rel32)...)
}

// JcRel32 encodes: jc rel32 (jump if carry — unsigned overflow).
func JcRel32(rel32 int32) []byte {
	return append([]byte{0x0F, 0x82}, le32(rel32)...)
}

// JaeRel32 encodes: jae rel32 (jump if above-or-equal, unsigned >=).
func JaeRel32(rel32 int32) []byte {
	return append([]byte{0x0F, 0x83}, le32(rel32)...)
}

// JbRel32 encodes: jb rel32 (jump if below, unsigned <).
func JbRel32(rel32 int32) []byte {
	return append([]byte{0x0F, 0x82}, le32(rel32)...)
}

// JmpRel32 encodes: jmp rel32.
func JmpRel32(rel32 int32) []byte {
	return append([]byte{0xE9}, le32(rel32)...)
}

// CallReg encodes: call r64 (indirect call through a register).
func CallReg(r Reg) []byte {
	if r.extended() {
		return []byte{rex(false, false, false, true), 0xFF, modrm(3, 2, r.low3())}
	}
	return []byte{0xFF, modrm(3, 2, r.low3())}
}

// TestRegReg encodes: test a, a (sets ZF iff a == 0).
func TestRegReg(r Reg) []byte {
	return []byte{
		rex(true, r.extended(), false, r.extended()),
		0x85,
		modrm(3, r.low3(), r.low3()),
	}
}

// Ret encodes: ret.
func Ret() []byte { return []byte{0xC3} }
