// Package jit implements the lowering pass of spec.md §4.4: compiling a
// bytecode.Function to a native Callable by walking its basic-block graph
// (package cfg) once, guided by the inferred local types (package infer),
// and emitting into the back-end façade (package jit/backend).
package jit

import (
	"github.com/mhsato/stackjit/jit/backend"
	"github.com/mhsato/stackjit/vtype"
)

// Policy resolves the Open Questions spec.md §9 leaves to the
// implementation. A zero Policy is a usable default.
type Policy struct {
	// UnknownDefault is the storage width given to a local the inference
	// pass never pins down (it is written on no reachable path, or never
	// written at all). spec.md §9 leaves this to the implementation;
	// Int32 is the default here since it is the narrower,
	// cheaper-to-zero representation and an unwritten local reads as zero
	// either way. The field's zero value is vtype.Unknown, which is
	// treated as "use Int32".
	UnknownDefault vtype.Type

	// Strict is forwarded to the inference pass (infer.Options.Strict):
	// a type conflict becomes a compile error instead of a diagnostic.
	Strict bool

	// DispHook is not read by Compile or by interp.Interpret, which takes
	// its own DispFunc argument (see cmd/stackjit). The compiled path does
	// not wire this: bridging generated machine code back into an
	// arbitrary Go closure safely requires a stack-growth-aware calling
	// convention this façade does not implement, so Disp is always a
	// silent no-op once a function is JIT-compiled. A program that relies
	// on Disp's side effect should run under interp.Interpret instead.
	DispHook func(v float32)
}

func (p Policy) unknownDefault() vtype.Type {
	if p.UnknownDefault == vtype.Unknown {
		return vtype.Int32
	}
	return p.UnknownDefault
}

func backendType(t vtype.Type, fallback vtype.Type) backend.Type {
	if t == vtype.Unknown {
		t = fallback
	}
	if t == vtype.Float32 {
		return backend.Float32
	}
	return backend.Int32
}
