// Package jit compiles a folded IR program into a single native x86-64
// function with the calling convention
//
//	entry(vm_self, memory_start, memory_end) -> *VMError
//
// matching the System V AMD64 ABI: arguments in rdi, rsi, rdx; a null
// return means success, a non-null return is a pointer the caller now
// owns and must reclaim.
//
// This is the in-process analogue of the teacher's
// internal/codegen/linux.X86_64Generator (which instead emitted a
// standalone ELF binary doing raw Linux syscalls) and
// internal/codegen/gas.Generator (GAS text). Both of those assumed a
// freestanding program; this one assumes it is one function call deep
// inside a host process and must round-trip through host callbacks for
// every byte of I/O and the one way it can fail permanently
// (PointerOverflow).
package jit

import (
	"github.com/jitbf/bfjit/internal/codegen/amd64"
	"github.com/jitbf/bfjit/internal/core"
)

// Register assignment, fixed for the whole compiled program.
const (
	regVMSelf = amd64.R12
	regBase   = amd64.R13 // memory_start, the first cell of the tape
	regEnd    = amd64.R14 // memory_end, one past the last cell
	regPtr    = amd64.R15 // tape pointer p
)

// Callbacks are the raw, already-materialized addresses of the three host
// trampolines the generated code calls into. They are C-ABI-callable
// function pointers (see internal/runtime/callbacks.go, which mints them
// with purego.NewCallback); this package only needs their addresses.
type Callbacks struct {
	GetByte  uint64
	PutByte  uint64
	Overflow uint64
}

// Generate lowers a folded IR program into machine code and returns it
// together with the byte offset of the entry point (always 0: the
// function body starts at the top of the buffer, with no ELF/object
// header ahead of it the way the teacher's AOT backends needed).
func Generate(ops []core.Op, cb Callbacks) ([]byte, int, error) {
	g := &generator{asm: amd64.NewAssembler(), cb: cb}
	g.emitPrologue()
	g.emitBody(ops)
	g.emitTail()

	code, err := g.asm.Code()
	if err != nil {
		return nil, 0, err
	}
	return code, 0, nil
}

type generator struct {
	asm *amd64.Assembler
	cb  Callbacks

	exitLabel     int
	overflowLabel int
	ioErrorLabel  int
}

// emitPrologue saves callee-saved registers (plus rax as 16-byte stack-
// alignment padding — see the doc comment on emitTail for why that
// matters), loads the three incoming arguments into r12/r13/r14, and
// initializes the tape pointer to the base of the tape.
func (g *generator) emitPrologue() {
	g.asm.Emit(amd64.Push(amd64.RAX))
	g.asm.Emit(amd64.Push(amd64.R12))
	g.asm.Emit(amd64.Push(amd64.R13))
	g.asm.Emit(amd64.Push(amd64.R14))
	g.asm.Emit(amd64.Push(amd64.R15))

	g.asm.Emit(amd64.MovRegReg(regVMSelf, amd64.RDI))
	g.asm.Emit(amd64.MovRegReg(regBase, amd64.RSI))
	g.asm.Emit(amd64.MovRegReg(regEnd, amd64.RDX))
	g.asm.Emit(amd64.MovRegReg(regPtr, regBase))

	g.exitLabel = g.asm.NewLabel()
	g.overflowLabel = g.asm.NewLabel()
	g.ioErrorLabel = g.asm.NewLabel()
}

// emitTail emits, in order: the fall-through success path, the shared
// `overflow` and `io_error` trampolines, and the `exit` epilogue —
// exactly the layout the spec lays out for the tail of the function.
// io_error has no code of its own; it is a label bound right before exit,
// so falling off the end of the overflow trampoline's jump lands on
// exit's epilogue, and falling into io_error (the normal case, when a
// callback returns non-null) reaches the same epilogue immediately after.
//
// The prologue pushed rax purely to keep the stack 16-byte aligned ahead
// of any `call` the body makes (5 pushes of 8 bytes each, on top of the
// 8-byte return address already on the stack from the caller's `call`,
// lands back on a 16-byte boundary). rax is not a callee-saved register
// and its pushed value is never meant to be restored — by the time
// control reaches `exit`, rax already holds the function's real return
// value (null, or an owned error pointer from one of the trampolines).
// Popping that padding slot back into rax the way a naively symmetric
// push/pop would do clobbers the return value; this is the asymmetry the
// design notes flag in the original source (which popped into rdx
// instead — itself arbitrary, and not clearly intentional). The fix kept
// here: pop every callee-saved register normally, then discard the
// padding slot with an explicit stack-pointer adjustment instead of a
// pop, so rax is never touched on the way out.
func (g *generator) emitTail() {
	g.asm.Emit(amd64.XorSelf(amd64.RAX))
	g.asm.Jmp(g.exitLabel)

	g.asm.Bind(g.overflowLabel)
	g.asm.Emit(amd64.MovabsImm64(amd64.RAX, g.cb.Overflow))
	g.asm.Emit(amd64.CallReg(amd64.RAX))
	g.asm.Jmp(g.exitLabel)

	g.asm.Bind(g.ioErrorLabel)
	// rax already holds the pointer returned by the failing callback;
	// straight fall-through into exit.

	g.asm.Bind(g.exitLabel)
	g.asm.Emit(amd64.Pop(amd64.R15))
	g.asm.Emit(amd64.Pop(amd64.R14))
	g.asm.Emit(amd64.Pop(amd64.R13))
	g.asm.Emit(amd64.Pop(amd64.R12))
	g.asm.Emit(amd64.AddRegImm32(amd64.RSP, 8)) // discard rax padding slot
	g.asm.Emit(amd64.Ret())
}

// emitBody walks the folded IR, maintaining its own loop-label stack:
// Jz allocates a fresh (left, right) pair and pushes it; Jnz pops the most
// recent pair. Nothing here reads a stored jump target — there isn't
// one — the stack mirrors the parser's own bracket stack, which is
// guaranteed well-formed by the time IR reaches this package.
func (g *generator) emitBody(ops []core.Op) {
	type loopLabels struct{ left, right int }
	var stack []loopLabels

	for _, op := range ops {
		switch op.Kind {
		case core.OpAddVal:
			g.asm.Emit(amd64.AddByteMemImm8(regPtr, op.Val))
		case core.OpSubVal:
			g.asm.Emit(amd64.SubByteMemImm8(regPtr, op.Val))

		case core.OpAddPtr:
			g.asm.Emit(amd64.AddRegImm32(regPtr, int32(op.Delta)))
			g.asm.Jc(g.overflowLabel)
			g.asm.Emit(amd64.CmpRegReg(regPtr, regEnd))
			g.asm.Jae(g.overflowLabel)

		case core.OpSubPtr:
			g.asm.Emit(amd64.SubRegImm32(regPtr, int32(op.Delta)))
			g.asm.Jc(g.overflowLabel)
			g.asm.Emit(amd64.CmpRegReg(regPtr, regBase))
			g.asm.Jb(g.overflowLabel)

		case core.OpGetByte:
			g.asm.Emit(amd64.MovRegReg(amd64.RDI, regVMSelf))
			g.asm.Emit(amd64.MovRegReg(amd64.RSI, regPtr))
			g.asm.Emit(amd64.MovabsImm64(amd64.RAX, g.cb.GetByte))
			g.asm.Emit(amd64.CallReg(amd64.RAX))
			g.asm.Emit(amd64.TestRegReg(amd64.RAX))
			g.asm.Jnz(g.ioErrorLabel)

		case core.OpPutByte:
			g.asm.Emit(amd64.MovRegReg(amd64.RDI, regVMSelf))
			g.asm.Emit(amd64.MovRegReg(amd64.RSI, regPtr))
			g.asm.Emit(amd64.MovabsImm64(amd64.RAX, g.cb.PutByte))
			g.asm.Emit(amd64.CallReg(amd64.RAX))
			g.asm.Emit(amd64.TestRegReg(amd64.RAX))
			g.asm.Jnz(g.ioErrorLabel)

		case core.OpJz:
			left := g.asm.NewLabel()
			right := g.asm.NewLabel()
			stack = append(stack, loopLabels{left, right})
			g.asm.Emit(amd64.CmpByteMemImm8(regPtr, 0))
			g.asm.Jz(right)
			g.asm.Bind(left)

		case core.OpJnz:
			top := stack[len(stack)-1]
			stack = stack[:len(stack)-1]
			g.asm.Emit(amd64.CmpByteMemImm8(regPtr, 0))
			g.asm.Jnz(top.left)
			g.asm.Bind(top.right)
		}
	}
}

