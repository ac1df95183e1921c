package runtime

import (
	"unsafe"

	"golang.org/x/sys/unix"
)

// codeBuffer owns a page-aligned region of memory holding JIT-generated
// code. It is mmap'd RW, filled, then mprotect'd to RX and never written
// to again — the same two-step W^X transition the teacher's AOT path
// sidesteps entirely (it links an ELF binary and leaves the kernel's
// loader to set permissions); this is the in-process equivalent, grounded
// on launix-de-memcp/scm/jit.go's allocExec/makeRX, ported from the raw
// syscall package to golang.org/x/sys/unix.
type codeBuffer struct {
	mem   []byte
	entry int
}

// newCodeBuffer copies code into a fresh executable mapping and returns a
// handle to it. entry is the byte offset within code of the function's
// entry point (always 0 for this backend; see jit.Generate's doc comment).
func newCodeBuffer(code []byte, entry int) (*codeBuffer, error) {
	size := pageAlign(len(code))
	if size == 0 {
		size = unix.Getpagesize()
	}

	mem, err := unix.Mmap(-1, 0, size, unix.PROT_READ|unix.PROT_WRITE, unix.MAP_PRIVATE|unix.MAP_ANON)
	if err != nil {
		return nil, &CodegenAllocationError{Cause: err}
	}

	copy(mem, code)

	if err := unix.Mprotect(mem, unix.PROT_READ|unix.PROT_EXEC); err != nil {
		_ = unix.Munmap(mem)
		return nil, &CodegenAllocationError{Cause: err}
	}

	return &codeBuffer{mem: mem, entry: entry}, nil
}

func pageAlign(n int) int {
	pageSize := unix.Getpagesize()
	return (n + pageSize - 1) &^ (pageSize - 1)
}

// addr returns the callable address of the entry point.
func (c *codeBuffer) addr() uintptr {
	return uintptr(unsafe.Pointer(&c.mem[0])) + uintptr(c.entry)
}

// Close releases the mapping. Safe to call more than once.
func (c *codeBuffer) Close() error {
	if c.mem == nil {
		return nil
	}
	err := unix.Munmap(c.mem)
	c.mem = nil
	return err
}
