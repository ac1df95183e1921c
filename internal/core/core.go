// Package core implements the front end of the Brainfuck JIT: a tokenizer,
// an IR lowering pass, and a peephole optimiser.
//
// Brainfuck has eight commands, each a single character:
//
//	> : move the tape pointer right
//	< : move the tape pointer left
//	+ : increment the byte at the tape pointer
//	- : decrement the byte at the tape pointer
//	. : output the byte at the tape pointer
//	, : read a byte into the tape pointer
//	[ : jump past the matching ] if the current byte is zero
//	] : jump back to the matching [ if the current byte is nonzero
//
// All other characters are comments and are ignored.
//
// The IR mirrors these eight commands one-for-one (AddVal, SubVal, AddPtr,
// SubPtr, GetByte, PutByte, Jz, Jnz). Jz and Jnz carry no operand: nothing
// downstream needs a stored jump target, because the code generator
// rebuilds the pairing itself from nesting order (see
// internal/codegen/jit). Parse is the only pass that can fail; once it
// succeeds, bracket nesting is a structural guarantee the rest of the
// pipeline relies on without rechecking it.
package core

// TapeSize is the fixed size of the Brainfuck tape in bytes (4 MiB).
const TapeSize = 4 * 1024 * 1024

// Position is a location in the source text.
type Position struct {
	Offset int // byte offset from start of file
	Line   int // 1-based line number
	Column int // 1-based column number
}
