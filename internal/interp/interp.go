// Package interp provides a pure-Go reference interpreter for the folded
// IR, adapted from the teacher's internal/vm.VM. internal/runtime is the
// real execution path (JIT-compiled, amd64-only); this package exists for
// platforms SyscallN can't target, for validating the code generator
// against a simple ground truth, and for the `bfjit interp` command, which
// trades throughput for not needing an executable-memory mapping.
package interp

import (
	"fmt"
	"io"
	"os"

	"github.com/jitbf/bfjit/internal/core"
)

// RuntimeError is raised when the data pointer leaves the tape or an I/O
// callback fails — the interpreter's equivalent of internal/runtime's
// PointerOverflow/IOError RuntimeError, without the boxed-pointer ABI
// since there's no generated code to hand a pointer back through.
type RuntimeError struct {
	Msg string
	PC  int
}

func (e *RuntimeError) Error() string {
	return fmt.Sprintf("runtime error at pc %d: %s", e.PC, e.Msg)
}

// EOFBehavior controls what GetByte does when input is exhausted.
type EOFBehavior int

const (
	EOFZero     EOFBehavior = iota // set the cell to 0
	EOFMinusOne                    // set the cell to 255
	EOFNoChange                    // leave the cell unchanged (default, matches internal/runtime)
)

// VM interprets a folded IR program directly, without generating machine
// code. Constructed the same functional-options way as the JIT-backed
// internal/runtime.VM.
type VM struct {
	memSize     int
	input       io.Reader
	output      io.Writer
	eofBehavior EOFBehavior
	ioBuf       [1]byte
}

// Option configures a VM.
type Option func(*VM)

// WithMemorySize sets the tape size (default core.TapeSize).
func WithMemorySize(size int) Option {
	return func(v *VM) { v.memSize = size }
}

// WithInput sets the input reader (default os.Stdin).
func WithInput(r io.Reader) Option {
	return func(v *VM) { v.input = r }
}

// WithOutput sets the output writer (default os.Stdout).
func WithOutput(w io.Writer) Option {
	return func(v *VM) { v.output = w }
}

// WithEOFBehavior sets EOF handling (default EOFNoChange).
func WithEOFBehavior(b EOFBehavior) Option {
	return func(v *VM) { v.eofBehavior = b }
}

// New creates a VM with the given options applied over the defaults.
func New(opts ...Option) *VM {
	vm := &VM{
		memSize:     core.TapeSize,
		input:       os.Stdin,
		output:      os.Stdout,
		eofBehavior: EOFNoChange,
	}
	for _, opt := range opts {
		opt(vm)
	}
	return vm
}

// Run interprets ops to completion or until a RuntimeError occurs.
func (v *VM) Run(ops []core.Op) error {
	tape := make([]byte, v.memSize)
	p := 0

	jumpTarget := matchBrackets(ops)

	for pc := 0; pc < len(ops); pc++ {
		op := ops[pc]

		switch op.Kind {
		case core.OpAddVal:
			tape[p] += op.Val
		case core.OpSubVal:
			tape[p] -= op.Val

		case core.OpAddPtr:
			p += int(op.Delta)
			if p < 0 || p >= v.memSize {
				return &RuntimeError{Msg: "pointer overflow", PC: pc}
			}
		case core.OpSubPtr:
			p -= int(op.Delta)
			if p < 0 || p >= v.memSize {
				return &RuntimeError{Msg: "pointer overflow", PC: pc}
			}

		case core.OpGetByte:
			n, err := v.input.Read(v.ioBuf[:])
			switch {
			case n > 0:
				tape[p] = v.ioBuf[0]
			case err == io.EOF || err == nil:
				switch v.eofBehavior {
				case EOFZero:
					tape[p] = 0
				case EOFMinusOne:
					tape[p] = 255
				case EOFNoChange:
				}
			default:
				return &RuntimeError{Msg: fmt.Sprintf("input error: %v", err), PC: pc}
			}

		case core.OpPutByte:
			v.ioBuf[0] = tape[p]
			if _, err := v.output.Write(v.ioBuf[:]); err != nil {
				return &RuntimeError{Msg: fmt.Sprintf("output error: %v", err), PC: pc}
			}

		case core.OpJz:
			if tape[p] == 0 {
				pc = jumpTarget[pc]
			}
		case core.OpJnz:
			if tape[p] != 0 {
				pc = jumpTarget[pc]
			}
		}
	}

	return nil
}

// matchBrackets builds a pc -> matching-pc table for every Jz/Jnz pair.
// The IR carries no stored jump target (see internal/core/ir.go), so the
// interpreter derives pairing up front from nesting order, same as the
// code generator's own loop-label stack and the optimiser test's local
// reference interpreter.
func matchBrackets(ops []core.Op) []int {
	targets := make([]int, len(ops))
	var stack []int
	for i, op := range ops {
		switch op.Kind {
		case core.OpJz:
			stack = append(stack, i)
		case core.OpJnz:
			start := stack[len(stack)-1]
			stack = stack[:len(stack)-1]
			targets[start] = i
			targets[i] = start
		}
	}
	return targets
}
