// Package gas produces GAS (AT&T syntax) assembly text for x86_64 Linux
// from a folded IR program, for inspection or hand-assembly with `as`.
// It mirrors internal/codegen/jit's register assignment (r13 = tape base,
// r15 = tape pointer) and its own-label-stack approach to Jz/Jnz, but
// targets a freestanding _start entry point doing raw syscalls the way
// the teacher's version did, rather than calling back into a host
// process.
package gas

import (
	"fmt"
	"strings"

	"github.com/jitbf/bfjit/internal/core"
)

// Linux x86_64 syscall numbers.
const (
	sysRead  = 0
	sysWrite = 1
	sysExit  = 60
)

// Generator produces GAS assembly from a folded IR program.
type Generator struct {
	ops []core.Op
	out strings.Builder

	label int // next unused label number
}

// NewGenerator creates a Generator for ops.
func NewGenerator(ops []core.Op) *Generator {
	return &Generator{ops: ops}
}

// Generate returns the complete assembly source.
func (g *Generator) Generate() string {
	g.emitHeader()
	g.emitPrologue()
	g.emitBody()
	g.emitSuccessExit()
	g.emitOverflowHandler()
	g.emitHelpers()
	return g.out.String()
}

func (g *Generator) emitHeader() {
	fmt.Fprintf(&g.out, ".section .bss\n")
	fmt.Fprintf(&g.out, "    .lcomm tape, %d\n", core.TapeSize)
	fmt.Fprintf(&g.out, "\n.section .text\n")
	fmt.Fprintf(&g.out, ".globl _start\n")
}

// emitPrologue loads the tape base into r13 and initializes the tape
// pointer r15 to the same address.
func (g *Generator) emitPrologue() {
	fmt.Fprintf(&g.out, "_start:\n")
	fmt.Fprintf(&g.out, "    movq $tape, %%r13\n")
	fmt.Fprintf(&g.out, "    movq $tape+%d, %%r14\n", core.TapeSize)
	fmt.Fprintf(&g.out, "    movq %%r13, %%r15\n")
}

func (g *Generator) emitSuccessExit() {
	fmt.Fprintf(&g.out, "    movq $%d, %%rax\n", sysExit)
	fmt.Fprintf(&g.out, "    xorq %%rdi, %%rdi\n")
	fmt.Fprintf(&g.out, "    syscall\n")
}

// emitOverflowHandler writes a short diagnostic to stderr and exits 1,
// the freestanding-binary analogue of internal/codegen/jit's Overflow
// callback.
func (g *Generator) emitOverflowHandler() {
	fmt.Fprintf(&g.out, "\n.overflow:\n")
	fmt.Fprintf(&g.out, "    movq $%d, %%rax\n", sysWrite)
	fmt.Fprintf(&g.out, "    movq $2, %%rdi\n") // stderr
	fmt.Fprintf(&g.out, "    leaq overflow_msg(%%rip), %%rsi\n")
	fmt.Fprintf(&g.out, "    movq $overflow_msg_len, %%rdx\n")
	fmt.Fprintf(&g.out, "    syscall\n")
	fmt.Fprintf(&g.out, "    movq $%d, %%rax\n", sysExit)
	fmt.Fprintf(&g.out, "    movq $1, %%rdi\n")
	fmt.Fprintf(&g.out, "    syscall\n")
	fmt.Fprintf(&g.out, "\n.section .rodata\n")
	fmt.Fprintf(&g.out, "overflow_msg: .ascii \"pointer overflow\\n\"\n")
	fmt.Fprintf(&g.out, "overflow_msg_len = . - overflow_msg\n")
	fmt.Fprintf(&g.out, ".section .text\n")
}

// emitHelpers outputs the read/write syscall wrappers, addressing through
// r15 (the current tape pointer) rather than the teacher's (%r13,%r12).
func (g *Generator) emitHelpers() {
	fmt.Fprintf(&g.out, "\n_bf_read:\n")
	fmt.Fprintf(&g.out, "    movq %%r15, %%rsi\n")
	fmt.Fprintf(&g.out, "    movq $%d, %%rax\n", sysRead)
	fmt.Fprintf(&g.out, "    xorq %%rdi, %%rdi\n")
	fmt.Fprintf(&g.out, "    movq $1, %%rdx\n")
	fmt.Fprintf(&g.out, "    syscall\n")
	fmt.Fprintf(&g.out, "    ret\n")

	fmt.Fprintf(&g.out, "\n_bf_write:\n")
	fmt.Fprintf(&g.out, "    movq %%r15, %%rsi\n")
	fmt.Fprintf(&g.out, "    movq $%d, %%rax\n", sysWrite)
	fmt.Fprintf(&g.out, "    movq $1, %%rdi\n")
	fmt.Fprintf(&g.out, "    movq $1, %%rdx\n")
	fmt.Fprintf(&g.out, "    syscall\n")
	fmt.Fprintf(&g.out, "    ret\n")
}

func (g *Generator) newLabel() int {
	g.label++
	return g.label
}

// emitBody walks the IR maintaining its own loop-label stack, the same
// approach internal/codegen/jit/generator.go uses, since Jz/Jnz no longer
// carry a stored jump target to read.
func (g *Generator) emitBody() {
	type loopLabels struct{ left, right int }
	var stack []loopLabels

	for _, op := range g.ops {
		switch op.Kind {
		case core.OpAddVal:
			fmt.Fprintf(&g.out, "    addb $%d, (%%r15)\n", op.Val)
		case core.OpSubVal:
			fmt.Fprintf(&g.out, "    subb $%d, (%%r15)\n", op.Val)

		case core.OpAddPtr:
			fmt.Fprintf(&g.out, "    addq $%d, %%r15\n", op.Delta)
			fmt.Fprintf(&g.out, "    jc .overflow\n")
			fmt.Fprintf(&g.out, "    cmpq %%r14, %%r15\n")
			fmt.Fprintf(&g.out, "    jae .overflow\n")

		case core.OpSubPtr:
			fmt.Fprintf(&g.out, "    subq $%d, %%r15\n", op.Delta)
			fmt.Fprintf(&g.out, "    jc .overflow\n")
			fmt.Fprintf(&g.out, "    cmpq %%r13, %%r15\n")
			fmt.Fprintf(&g.out, "    jb .overflow\n")

		case core.OpGetByte:
			fmt.Fprintf(&g.out, "    call _bf_read\n")
		case core.OpPutByte:
			fmt.Fprintf(&g.out, "    call _bf_write\n")

		case core.OpJz:
			left := g.newLabel()
			right := g.newLabel()
			stack = append(stack, loopLabels{left, right})
			fmt.Fprintf(&g.out, "    testb $0xff, (%%r15)\n")
			fmt.Fprintf(&g.out, "    jz .L%d\n", right)
			fmt.Fprintf(&g.out, ".L%d:\n", left)

		case core.OpJnz:
			top := stack[len(stack)-1]
			stack = stack[:len(stack)-1]
			fmt.Fprintf(&g.out, "    testb $0xff, (%%r15)\n")
			fmt.Fprintf(&g.out, "    jnz .L%d\n", top.left)
			fmt.Fprintf(&g.out, ".L%d:\n", top.right)
		}
	}
}
