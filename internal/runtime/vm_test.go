package runtime_test

import (
	"bytes"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jitbf/bfjit/internal/runtime"
)

func writeSource(t *testing.T, src string) string {
	t.Helper()
	dir := t.TempDir()
	path := filepath.Join(dir, "prog.bf")
	require.NoError(t, os.WriteFile(path, []byte(src), 0o644))
	return path
}

func TestVMEchoesUntilZeroByte(t *testing.T) {
	path := writeSource(t, ",[.,]")
	in := bytes.NewBufferString("hi\x00ignored")
	var out bytes.Buffer

	vm, err := runtime.New(path, in, &out, true)
	require.NoError(t, err)
	defer vm.Close()

	require.NoError(t, vm.Run())
	assert.Equal(t, "hi", out.String())
}

func TestVMMultiplicationLoopProducesASCIIOne(t *testing.T) {
	// Classic cell-multiplication idiom: 7 * 7 = 49 = ASCII '1'.
	path := writeSource(t, "+++++++[>+++++++<-]>.")
	var out bytes.Buffer

	vm, err := runtime.New(path, strings.NewReader(""), &out, true)
	require.NoError(t, err)
	defer vm.Close()

	require.NoError(t, vm.Run())
	assert.Equal(t, "1", out.String())
}

func TestVMPointerUnderflowReportsOverflow(t *testing.T) {
	path := writeSource(t, "<")
	var out bytes.Buffer

	vm, err := runtime.New(path, strings.NewReader(""), &out, true)
	require.NoError(t, err)
	defer vm.Close()

	err = vm.Run()
	require.Error(t, err)

	var rerr *runtime.RuntimeError
	require.True(t, errors.As(err, &rerr))
	assert.Equal(t, runtime.PointerOverflow, rerr.Kind)
}

func TestVMByteValueWrapsAt256(t *testing.T) {
	src := strings.Repeat("+", 256) + "."
	path := writeSource(t, src)
	var out bytes.Buffer

	vm, err := runtime.New(path, strings.NewReader(""), &out, true)
	require.NoError(t, err)
	defer vm.Close()

	require.NoError(t, vm.Run())
	require.Len(t, out.String(), 1)
	assert.Equal(t, byte(0), out.String()[0])
}

func TestVMUnoptimisedMatchesOptimisedOutput(t *testing.T) {
	src := "++++++++[>++++++++<-]>+."
	path := writeSource(t, src)

	var outOpt, outPlain bytes.Buffer

	vmOpt, err := runtime.New(path, strings.NewReader(""), &outOpt, true)
	require.NoError(t, err)
	defer vmOpt.Close()
	require.NoError(t, vmOpt.Run())

	vmPlain, err := runtime.New(path, strings.NewReader(""), &outPlain, false)
	require.NoError(t, err)
	defer vmPlain.Close()
	require.NoError(t, vmPlain.Run())

	assert.Equal(t, outOpt.String(), outPlain.String())
}

func TestVMRejectsUnclosedBracket(t *testing.T) {
	path := writeSource(t, "[+")
	_, err := runtime.New(path, strings.NewReader(""), &bytes.Buffer{}, true)
	require.Error(t, err)
}

func TestVMReportsMissingFile(t *testing.T) {
	_, err := runtime.New(filepath.Join(t.TempDir(), "missing.bf"), strings.NewReader(""), &bytes.Buffer{}, true)
	require.Error(t, err)

	var ferr *runtime.FileReadError
	require.True(t, errors.As(err, &ferr))
}
