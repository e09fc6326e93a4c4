//go:build amd64 && linux

package backend

import "unsafe"

// jitcall bridges from Go into a compiled function's machine code. It is
// a minimal hand-written trampoline in the same spirit as wagon's own
// asmBlock.Invoke (exec/internal/compile/native_exec.go), which calls an
// equivalent jitcall(unsafe.Pointer, stack, locals *[]uint64); that
// trampoline's assembly source was not present in the retrieval pack, so
// jitcall_amd64.s below is authored fresh rather than adapted from it.
//
//go:noescape
func jitcall(code unsafe.Pointer, cells *[]uint64)
