// Package linux produces standalone ELF64 x86_64 Linux executables from a
// folded IR program: no host process, no callbacks, just raw syscalls for
// I/O and a fixed-address BSS segment for the tape.
package linux

import (
	"github.com/jitbf/bfjit/internal/codegen/amd64"
	"github.com/jitbf/bfjit/internal/core"
	"github.com/jitbf/bfjit/pkg/elf"
)

// Linux x86_64 syscall numbers.
const (
	sysRead  = 0
	sysWrite = 1
	sysExit  = 60
)

// Memory layout.
const (
	CodeBase = 0x400000 // virtual address of the code segment
	BSSBase  = 0x600000 // virtual address of the BSS segment (tape)
)

// Register assignment, mirroring internal/codegen/jit's r13/r14/r15 roles;
// there is no r12/vm_self here since there is no host to call back into.
const (
	regBase = amd64.R13
	regEnd  = amd64.R14
	regPtr  = amd64.R15
)

// X86_64Generator produces x86_64 machine code and, via GenerateELF, a
// complete ELF64 executable from a folded IR program.
type X86_64Generator struct {
	ops      []core.Op
	codeBase uint64
	bssBase  uint64
}

// NewX86_64Generator creates a generator for ops.
func NewX86_64Generator(ops []core.Op) *X86_64Generator {
	return &X86_64Generator{
		ops:      ops,
		codeBase: CodeBase + elf.PageSize, // code starts after ELF headers
		bssBase:  BSSBase,
	}
}

// Generate produces raw x86_64 machine code for a freestanding entry
// point (no calling convention to honor — the kernel jumps here).
func (g *X86_64Generator) Generate() []byte {
	asm := amd64.NewAssembler()

	overflow := asm.NewLabel()
	readHelper := asm.NewLabel()
	writeHelper := asm.NewLabel()

	g.emitPrologue(asm)
	g.emitBody(asm, readHelper, writeHelper, overflow)
	g.emitSuccessExit(asm)
	g.emitOverflowExit(asm, overflow)
	g.emitHelpers(asm, readHelper, writeHelper)

	code, err := asm.Code()
	if err != nil {
		// Every label created above is bound unconditionally on every
		// path through this function; a fixup error here means this
		// package itself has a bug, not the input program.
		panic(err)
	}
	return code
}

// GenerateELF produces a complete ELF64 executable.
func (g *X86_64Generator) GenerateELF() []byte {
	code := g.Generate()

	builder := elf.NewBuilder()
	builder.SetEntry(g.codeBase)
	builder.AddLoadSegment(code, g.codeBase, elf.PF_R|elf.PF_X)
	builder.AddBSSSegment(g.bssBase, core.TapeSize, elf.PF_R|elf.PF_W)

	return builder.Build()
}

// emitPrologue loads the tape bounds into r13/r14 and starts the tape
// pointer r15 at the base.
func (g *X86_64Generator) emitPrologue(asm *amd64.Assembler) {
	asm.Emit(amd64.MovabsImm64(regBase, g.bssBase))
	asm.Emit(amd64.MovabsImm64(regEnd, g.bssBase+uint64(core.TapeSize)))
	asm.Emit(amd64.MovRegReg(regPtr, regBase))
}

// emitSuccessExit falls through here when the program runs to completion
// without a pointer excursion.
func (g *X86_64Generator) emitSuccessExit(asm *amd64.Assembler) {
	asm.Emit(amd64.MovRegImm32(amd64.RAX, sysExit))
	asm.Emit(amd64.XorSelf(amd64.RDI))
	asm.Emit(amd64.Syscall())
}

// emitOverflowExit exits with status 2 on pointer overflow. A freestanding
// binary has no host VMError to hand back the way internal/runtime does;
// a distinct exit status is the freestanding equivalent.
func (g *X86_64Generator) emitOverflowExit(asm *amd64.Assembler, overflow int) {
	asm.Bind(overflow)
	asm.Emit(amd64.MovRegImm32(amd64.RAX, sysExit))
	asm.Emit(amd64.MovRegImm32(amd64.RDI, 2))
	asm.Emit(amd64.Syscall())
}

// emitHelpers emits the read-one-byte/write-one-byte syscall wrappers,
// addressing the tape through r15 directly (no base+index SIB addressing
// needed, since r15 always holds the absolute cell address).
func (g *X86_64Generator) emitHelpers(asm *amd64.Assembler, readHelper, writeHelper int) {
	asm.Bind(readHelper)
	asm.Emit(amd64.MovRegReg(amd64.RSI, regPtr))
	asm.Emit(amd64.MovRegImm32(amd64.RAX, sysRead))
	asm.Emit(amd64.XorSelf(amd64.RDI))
	asm.Emit(amd64.MovRegImm32(amd64.RDX, 1))
	asm.Emit(amd64.Syscall())
	asm.Emit(amd64.Ret())

	asm.Bind(writeHelper)
	asm.Emit(amd64.MovRegReg(amd64.RSI, regPtr))
	asm.Emit(amd64.MovRegImm32(amd64.RAX, sysWrite))
	asm.Emit(amd64.MovRegImm32(amd64.RDI, 1))
	asm.Emit(amd64.MovRegImm32(amd64.RDX, 1))
	asm.Emit(amd64.Syscall())
	asm.Emit(amd64.Ret())
}

// emitBody walks the folded IR with its own loop-label stack, the same
// approach internal/codegen/jit takes, since Jz/Jnz carry no stored jump
// target.
func (g *X86_64Generator) emitBody(asm *amd64.Assembler, readHelper, writeHelper, overflow int) {
	type loopLabels struct{ left, right int }
	var stack []loopLabels

	for _, op := range g.ops {
		switch op.Kind {
		case core.OpAddVal:
			asm.Emit(amd64.AddByteMemImm8(regPtr, op.Val))
		case core.OpSubVal:
			asm.Emit(amd64.SubByteMemImm8(regPtr, op.Val))

		case core.OpAddPtr:
			asm.Emit(amd64.AddRegImm32(regPtr, int32(op.Delta)))
			asm.Jc(overflow)
			asm.Emit(amd64.CmpRegReg(regPtr, regEnd))
			asm.Jae(overflow)

		case core.OpSubPtr:
			asm.Emit(amd64.SubRegImm32(regPtr, int32(op.Delta)))
			asm.Jc(overflow)
			asm.Emit(amd64.CmpRegReg(regPtr, regBase))
			asm.Jb(overflow)

		case core.OpGetByte:
			asm.Call(readHelper)
		case core.OpPutByte:
			asm.Call(writeHelper)

		case core.OpJz:
			left := asm.NewLabel()
			right := asm.NewLabel()
			stack = append(stack, loopLabels{left, right})
			asm.Emit(amd64.CmpByteMemImm8(regPtr, 0))
			asm.Jz(right)
			asm.Bind(left)

		case core.OpJnz:
			top := stack[len(stack)-1]
			stack = stack[:len(stack)-1]
			asm.Emit(amd64.CmpByteMemImm8(regPtr, 0))
			asm.Jnz(top.left)
			asm.Bind(top.right)
		}
	}
}
