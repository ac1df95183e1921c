// Package runtime wires the compiler pipeline in internal/core and the
// code generator in internal/codegen/jit into a runnable in-process VM:
// it owns the tape, the executable code buffer, and the host callbacks
// generated code calls back into for I/O and overflow reporting.
//
// The shape mirrors the teacher's internal/vm.VM — a struct built through
// a functional-options constructor, wrapping a tape and an interpreter
// loop — except the loop here is machine code and is reached via
// purego.SyscallN rather than a Go switch statement.
package runtime

import (
	"fmt"
	"io"
	"os"
	"time"
	"unsafe"

	"github.com/ebitengine/purego"
	"github.com/rs/zerolog"

	"github.com/jitbf/bfjit/internal/codegen/jit"
	"github.com/jitbf/bfjit/internal/core"
)

// VM holds one compiled program: its tape, its executable code buffer,
// and the I/O streams its host callbacks read and write.
type VM struct {
	input  io.Reader
	output io.Writer
	ioBuf  [1]byte

	tape []byte
	code *codeBuffer

	logger zerolog.Logger
}

// Option configures ambient (non-spec) concerns of New — currently just
// logging. Unlike the teacher's WithMemorySize/WithEOFBehavior, tape size
// and EOF behaviour aren't configurable here: TapeSize is fixed per
// core.TapeSize and EOF-as-no-op is fixed per hostGetByte, both decisions
// recorded in DESIGN.md.
type Option func(*options)

type options struct {
	logger zerolog.Logger
}

// WithLogger attaches a zerolog.Logger the VM uses for debug-level
// construction and execution tracing. Defaults to a no-op logger.
func WithLogger(l zerolog.Logger) Option {
	return func(o *options) { o.logger = l }
}

// New reads, tokenizes, parses, optionally optimises, and compiles the
// Brainfuck source at path, returning a VM ready to Run. optimize selects
// whether the folded-run optimiser runs before code generation.
//
// Construction can fail three distinct ways, each its own error type:
// the file can't be read (*FileReadError), the source is structurally
// invalid (*core.ParseError), or executable memory can't be allocated
// (*CodegenAllocationError).
func New(path string, input io.Reader, output io.Writer, optimize bool, opts ...Option) (*VM, error) {
	cfg := options{logger: zerolog.Nop()}
	for _, opt := range opts {
		opt(&cfg)
	}

	src, err := os.ReadFile(path)
	if err != nil {
		return nil, &FileReadError{Path: path, Cause: err}
	}

	ops, err := core.Parse(core.Tokenize(src))
	if err != nil {
		return nil, err
	}
	if optimize {
		before := len(ops)
		ops = core.Optimise(ops)
		cfg.logger.Debug().Int("before", before).Int("after", len(ops)).Msg("optimised")
	}

	vm := &VM{
		input:  input,
		output: output,
		tape:   make([]byte, core.TapeSize),
		logger: cfg.logger,
	}

	cb := vm.bindCallbacks()
	code, entry, err := jit.Generate(ops, cb)
	if err != nil {
		return nil, fmt.Errorf("generate code: %w", err)
	}

	buf, err := newCodeBuffer(code, entry)
	if err != nil {
		return nil, err
	}
	vm.code = buf

	cfg.logger.Debug().Str("path", path).Int("ops", len(ops)).Int("code_bytes", len(code)).Msg("compiled")
	return vm, nil
}

// Run invokes the compiled program once. It returns nil on success or a
// *RuntimeError (wrapping PointerOverflow or IOError) if generated code
// reported a failure.
func (vm *VM) Run() error {
	memStart := uintptr(unsafe.Pointer(&vm.tape[0]))
	memEnd := memStart + uintptr(len(vm.tape))
	vmSelf := uintptr(unsafe.Pointer(vm))

	start := time.Now()
	r1, _, _ := purego.SyscallN(vm.code.addr(), vmSelf, memStart, memEnd)
	vm.logger.Debug().Int("tape_size", len(vm.tape)).Dur("elapsed", time.Since(start)).Msg("run finished")

	if r1 == 0 {
		return nil
	}
	return reclaimRuntimeError(r1)
}

// Close releases the VM's executable code buffer. The tape is ordinary Go
// memory and needs no explicit release.
func (vm *VM) Close() error {
	if vm.code == nil {
		return nil
	}
	return vm.code.Close()
}
