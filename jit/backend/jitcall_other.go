//go:build !(amd64 && linux)

package backend

import "unsafe"

func jitcall(code unsafe.Pointer, cells *[]uint64) {
	panic("backend: unsupported architecture")
}
