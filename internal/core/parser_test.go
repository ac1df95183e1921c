package core_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jitbf/bfjit/internal/core"
)

func parse(t *testing.T, src string) []core.Op {
	t.Helper()
	ops, err := core.Parse(core.Tokenize([]byte(src)))
	require.NoError(t, err)
	return ops
}

func TestParseEchoUntilZero(t *testing.T) {
	ops := parse(t, "+[,.]")
	assert.Equal(t, []core.Op{
		core.AddVal(1),
		core.Jz(),
		core.GetByte(),
		core.PutByte(),
		core.Jnz(),
	}, ops)
}

func TestParseIgnoresNonCommandBytes(t *testing.T) {
	ops := parse(t, "+ this is a comment\n- ok")
	assert.Equal(t, []core.Op{core.AddVal(1), core.SubVal(1)}, ops)
}

func TestParseUnclosedLeftBracket(t *testing.T) {
	_, err := core.Parse(core.Tokenize([]byte("[")))
	require.Error(t, err)

	var pe *core.ParseError
	require.ErrorAs(t, err, &pe)
	assert.Equal(t, core.UnclosedLeftBracket, pe.Kind)
	assert.Equal(t, 1, pe.Line)
	assert.Equal(t, 1, pe.Col)
}

func TestParseUnexpectedRightBracket(t *testing.T) {
	_, err := core.Parse(core.Tokenize([]byte("]")))
	require.Error(t, err)

	var pe *core.ParseError
	require.ErrorAs(t, err, &pe)
	assert.Equal(t, core.UnexpectedRightBracket, pe.Kind)
	assert.Equal(t, 1, pe.Line)
	assert.Equal(t, 1, pe.Col)
}

func TestParseInnermostUnclosedBracketReported(t *testing.T) {
	// Two opens, one close: the outer [ (line 1) stays open, the inner one
	// (line 2) was matched and closed.
	_, err := core.Parse(core.Tokenize([]byte("[\n[]")))
	require.Error(t, err)

	var pe *core.ParseError
	require.ErrorAs(t, err, &pe)
	assert.Equal(t, core.UnclosedLeftBracket, pe.Kind)
	assert.Equal(t, 1, pe.Line)
}

func TestParseColumnsResetOnNewline(t *testing.T) {
	toks := core.Tokenize([]byte("+\n+"))
	require.Len(t, toks, 3) // + + EOF
	assert.Equal(t, 1, toks[0].Pos.Line)
	assert.Equal(t, 1, toks[0].Pos.Column)
	assert.Equal(t, 2, toks[1].Pos.Line)
	assert.Equal(t, 1, toks[1].Pos.Column)
}

func TestParseIsTokenEquivalentRoundTrip(t *testing.T) {
	// Parse folds nothing, so reading back the kind of each op, ignoring
	// operands, reproduces the source's operator sequence one for one.
	src := "++--><[,.]"
	ops := parse(t, src)

	var seq []core.OpKind
	for _, op := range ops {
		seq = append(seq, op.Kind)
	}
	assert.Equal(t, []core.OpKind{
		core.OpAddVal, core.OpAddVal, core.OpSubVal, core.OpSubVal,
		core.OpAddPtr, core.OpSubPtr, core.OpJz, core.OpGetByte,
		core.OpPutByte, core.OpJnz,
	}, seq)
}
