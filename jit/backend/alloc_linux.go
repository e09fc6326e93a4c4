//go:build linux

package backend

import (
	"fmt"
	"sync"
	"unsafe"

	"github.com/edsrzf/mmap-go"
	"golang.org/x/sys/unix"
)

// execAllocator hands out executable mappings for compiled machine code,
// grounded on wagon's go.mod dependency on github.com/edsrzf/mmap-go (the
// allocator implementation file itself, exec/internal/compile's
// MMapAllocator, was not present in the retrieval pack, this is authored
// fresh in the same spirit: one mmap.MMap per compiled function, writable
// at creation so the machine code can be copied in, then mprotected to
// read+execute before any call).
type execAllocator struct {
	mu      sync.Mutex
	regions []mmap.MMap
	closed  bool
}

func newExecAllocator() *execAllocator { return &execAllocator{} }

// execRegion is one executable mapping holding exactly one function's
// machine code.
type execRegion struct {
	mem mmap.MMap
}

func (r *execRegion) entry() unsafe.Pointer { return unsafe.Pointer(&r.mem[0]) }

func (a *execAllocator) install(code []byte) (*execRegion, error) {
	a.mu.Lock()
	defer a.mu.Unlock()
	if a.closed {
		return nil, fmt.Errorf("backend: allocator closed")
	}

	m, err := mmap.MapRegion(nil, len(code), mmap.RDWR, mmap.ANON, 0)
	if err != nil {
		return nil, fmt.Errorf("backend: mmap: %w", err)
	}
	copy(m, code)
	if err := unix.Mprotect(m, unix.PROT_READ|unix.PROT_EXEC); err != nil {
		m.Unmap()
		return nil, fmt.Errorf("backend: mprotect: %w", err)
	}

	a.regions = append(a.regions, m)
	return &execRegion{mem: m}, nil
}

// Close unmaps every region this allocator produced. Callables obtained
// from a closed Context must not be invoked afterward.
func (a *execAllocator) Close() error {
	a.mu.Lock()
	defer a.mu.Unlock()
	if a.closed {
		return nil
	}
	a.closed = true
	var firstErr error
	for _, m := range a.regions {
		if err := m.Unmap(); err != nil && firstErr == nil {
			firstErr = err
		}
	}
	a.regions = nil
	return firstErr
}
