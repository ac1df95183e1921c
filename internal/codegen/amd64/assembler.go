package amd64

import "fmt"

// label is an as-yet-possibly-unresolved code address.
type label struct {
	addr int // -1 until Bind is called
}

// fixup records a rel32 field that needs patching once its label is bound.
type fixup struct {
	rel32Offset int // offset of the 4-byte relative displacement field
	instrEnd    int // offset one past the end of the jump/call instruction
	label       int
}

// Assembler accumulates machine code and resolves forward/backward jump
// targets through a small label table, generalizing the teacher's
// jumpFixup/labelAddr pair (which was keyed by IR index) into one keyed by
// an opaque label handle — needed because this IR no longer carries jump
// targets for Jz/Jnz, so the code generator must mint and pair its own
// labels as it walks the program (see internal/codegen/jit and the Design
// Notes' "Nested-loop label stack").
type Assembler struct {
	code   []byte
	labels []label
	fixups []fixup
}

// NewAssembler returns an empty Assembler.
func NewAssembler() *Assembler {
	return &Assembler{code: make([]byte, 0, 4096)}
}

// NewLabel allocates an unbound label.
func (a *Assembler) NewLabel() int {
	a.labels = append(a.labels, label{addr: -1})
	return len(a.labels) - 1
}

// Bind fixes label l's address to the current end of the code buffer.
func (a *Assembler) Bind(l int) {
	a.labels[l].addr = len(a.code)
}

// Pos returns the current length of the code buffer.
func (a *Assembler) Pos() int { return len(a.code) }

// Emit appends raw bytes verbatim.
func (a *Assembler) Emit(b []byte) { a.code = append(a.code, b...) }

// emitWithFixup appends an instruction whose trailing 4 bytes are a rel32
// relative to the target label, recording a fixup if the label isn't
// bound yet.
func (a *Assembler) emitWithFixup(instr []byte, l int) {
	rel32Offset := len(a.code) + len(instr) - 4
	instrEnd := len(a.code) + len(instr)
	a.code = append(a.code, instr...)
	a.fixups = append(a.fixups, fixup{rel32Offset: rel32Offset, instrEnd: instrEnd, label: l})
}

func (a *Assembler) Jz(l int)  { a.emitWithFixup(JzRel32(0), l) }
func (a *Assembler) Jnz(l int) { a.emitWithFixup(JnzRel32(0), l) }
func (a *Assembler) Jc(l int)  { a.emitWithFixup(JcRel32(0), l) }
func (a *Assembler) Jae(l int) { a.emitWithFixup(JaeRel32(0), l) }
func (a *Assembler) Jb(l int)  { a.emitWithFixup(JbRel32(0), l) }
func (a *Assembler) Jmp(l int)  { a.emitWithFixup(JmpRel32(0), l) }
func (a *Assembler) Call(l int) { a.emitWithFixup(CallRel32(0), l) }

// Code resolves every fixup against its label's bound address and returns
// the finished machine code. It is an error to call this before every
// label referenced by a fixup has been bound.
func (a *Assembler) Code() ([]byte, error) {
	for _, f := range a.fixups {
		lbl := a.labels[f.label]
		if lbl.addr < 0 {
			return nil, fmt.Errorf("amd64: label %d referenced but never bound", f.label)
		}
		rel32 := int32(lbl.addr - f.instrEnd)
		putLE32(a.code[f.rel32Offset:], rel32)
	}
	return a.code, nil
}

func putLE32(b []byte, v int32) {
	u := uint32(v)
	b[0] = byte(u)
	b[1] = byte(u >> 8)
	b[2] = byte(u >> 16)
	b[3] = byte(u >> 24)
}
