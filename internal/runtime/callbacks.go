package runtime

import (
	"io"
	"runtime/cgo"
	"unsafe"

	"github.com/ebitengine/purego"

	"github.com/jitbf/bfjit/internal/codegen/jit"
)

// bindCallbacks mints the three C-ABI function pointers generated code
// calls into, closing each one over vm. purego.NewCallback is what makes
// this possible without hand-written assembly trampolines: it produces a
// real callable address for a Go closure, following the same ABI the
// generated code already expects for getbyte/putbyte/overflow in
// original_source/src/bfjit.rs's extern "sysv64" signatures.
func (vm *VM) bindCallbacks() jit.Callbacks {
	getByte := purego.NewCallback(func(vmSelf, cellPtr uintptr) uintptr {
		return vm.hostGetByte(cellPtr)
	})
	putByte := purego.NewCallback(func(vmSelf, cellPtr uintptr) uintptr {
		return vm.hostPutByte(cellPtr)
	})
	overflow := purego.NewCallback(func() uintptr {
		return vm.hostOverflow()
	})

	return jit.Callbacks{
		GetByte:  uint64(getByte),
		PutByte:  uint64(putByte),
		Overflow: uint64(overflow),
	}
}

// hostGetByte reads one byte from vm.input into the cell at cellPtr. EOF
// (or a zero-length read with no error) leaves the cell unchanged and
// reports success, matching the original's "a failed read just means no
// more input" behaviour rather than treating EOF as a hard failure.
func (vm *VM) hostGetByte(cellPtr uintptr) uintptr {
	n, err := vm.input.Read(vm.ioBuf[:1])
	if n > 0 {
		*(*byte)(unsafe.Pointer(cellPtr)) = vm.ioBuf[0]
		return 0
	}
	if err == nil || err == io.EOF {
		return 0
	}
	return boxRuntimeError(&RuntimeError{Kind: IOError, Cause: err})
}

// hostPutByte writes the byte at cellPtr to vm.output, retrying short
// writes until the single byte is fully written or an error occurs.
func (vm *VM) hostPutByte(cellPtr uintptr) uintptr {
	vm.ioBuf[0] = *(*byte)(unsafe.Pointer(cellPtr))
	buf := vm.ioBuf[:1]
	for len(buf) > 0 {
		n, err := vm.output.Write(buf)
		if err != nil {
			return boxRuntimeError(&RuntimeError{Kind: IOError, Cause: err})
		}
		buf = buf[n:]
	}
	return 0
}

// hostOverflow boxes a PointerOverflow error. Called once generated code
// has already detected the tape pointer left [memory_start, memory_end).
func (vm *VM) hostOverflow() uintptr {
	return boxRuntimeError(&RuntimeError{Kind: PointerOverflow})
}

// boxRuntimeError hands a *RuntimeError to generated code as a raw
// pointer-sized value without exposing it to the garbage collector as a
// bare uintptr: a cgo.Handle is the supported way to carry a Go value
// across a boundary (here, our own JIT'd code, not C) that only
// understands integers, and reclaimRuntimeError takes it back on the way out. No third-party
// library in the example pack addresses this; it is the standard library
// mechanism purpose-built for exactly this handoff.
func boxRuntimeError(re *RuntimeError) uintptr {
	return uintptr(cgo.NewHandle(re))
}

// reclaimRuntimeError converts a non-zero return value from the entry
// function back into the *RuntimeError it was boxed from, deleting the
// handle so it doesn't leak.
func reclaimRuntimeError(h uintptr) *RuntimeError {
	handle := cgo.Handle(h)
	defer handle.Delete()
	return handle.Value().(*RuntimeError)
}
