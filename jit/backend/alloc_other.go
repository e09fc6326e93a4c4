//go:build !linux

package backend

import (
	"fmt"
	"unsafe"
)

// Non-linux platforms have no native lowering (see archSupported in
// emit_unsupported.go); this allocator stub exists only so the package
// type-checks when cross-compiled.
type execAllocator struct{}

func newExecAllocator() *execAllocator { return &execAllocator{} }

type execRegion struct{}

func (r *execRegion) entry() unsafe.Pointer { return nil }

func (a *execAllocator) install(code []byte) (*execRegion, error) {
	return nil, fmt.Errorf("backend: unsupported platform")
}

func (a *execAllocator) Close() error { return nil }
