package interp_test

import (
	"bytes"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jitbf/bfjit/internal/core"
	"github.com/jitbf/bfjit/internal/interp"
)

func run(t *testing.T, src string, opts ...interp.Option) string {
	t.Helper()
	ops, err := core.Parse(core.Tokenize([]byte(src)))
	require.NoError(t, err)
	ops = core.Optimise(ops)

	var out bytes.Buffer
	opts = append(opts, interp.WithOutput(&out))
	vm := interp.New(opts...)
	require.NoError(t, vm.Run(ops))
	return out.String()
}

func TestInterpEchoesUntilZeroByte(t *testing.T) {
	got := run(t, ",[.,]", interp.WithInput(strings.NewReader("hi\x00ignored")))
	assert.Equal(t, "hi", got)
}

func TestInterpMultiplicationLoop(t *testing.T) {
	got := run(t, "+++++++[>+++++++<-]>.")
	assert.Equal(t, "1", got)
}

func TestInterpPointerUnderflowIsRuntimeError(t *testing.T) {
	ops, err := core.Parse(core.Tokenize([]byte("<")))
	require.NoError(t, err)

	vm := interp.New(interp.WithOutput(&bytes.Buffer{}))
	err = vm.Run(ops)
	require.Error(t, err)

	var rerr *interp.RuntimeError
	require.ErrorAs(t, err, &rerr)
}

func TestInterpByteValueWrapsAt256(t *testing.T) {
	got := run(t, strings.Repeat("+", 256)+".")
	require.Len(t, got, 1)
	assert.Equal(t, byte(0), got[0])
}

func TestInterpEOFBehaviors(t *testing.T) {
	zero := run(t, ",.", interp.WithInput(strings.NewReader("")), interp.WithEOFBehavior(interp.EOFZero))
	assert.Equal(t, byte(0), zero[0])

	minusOne := run(t, ",.", interp.WithInput(strings.NewReader("")), interp.WithEOFBehavior(interp.EOFMinusOne))
	assert.Equal(t, byte(255), minusOne[0])
}
