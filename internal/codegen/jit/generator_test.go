package jit_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jitbf/bfjit/internal/codegen/jit"
	"github.com/jitbf/bfjit/internal/core"
)

func compile(t *testing.T, src string) []byte {
	t.Helper()
	ops, err := core.Parse(core.Tokenize([]byte(src)))
	require.NoError(t, err)
	ops = core.Optimise(ops)

	code, entry, err := jit.Generate(ops, jit.Callbacks{GetByte: 1, PutByte: 2, Overflow: 3})
	require.NoError(t, err)
	assert.Equal(t, 0, entry)
	return code
}

func TestGenerateProducesNonEmptyCode(t *testing.T) {
	code := compile(t, "+[,.]")
	assert.NotEmpty(t, code)
}

func TestGenerateIsDeterministic(t *testing.T) {
	a := compile(t, "++>>>[-]<<<.")
	b := compile(t, "++>>>[-]<<<.")
	assert.Equal(t, a, b)
}

func TestGenerateHandlesEmptyProgram(t *testing.T) {
	code := compile(t, "")
	// Prologue + success path + trampolines + epilogue are still emitted
	// even for an empty program.
	assert.NotEmpty(t, code)
}

func TestGenerateHandlesNestedLoops(t *testing.T) {
	// Exercises the loop-label stack across nesting depth > 1.
	code := compile(t, "+[>+[>+<-]<-]")
	assert.NotEmpty(t, code)
}

func TestGenerateGrowsWithMoreIO(t *testing.T) {
	small := compile(t, ".")
	large := compile(t, "...............")
	assert.Greater(t, len(large), len(small))
}
