// Package backend is the façade of spec.md §4.5/§6: a thin, well-typed
// wrapper around github.com/twitchyliquid64/golang-asm, the opaque
// "code-generation library" this core treats as an external collaborator.
// It exposes exactly the operations the JIT lowering pass (package jit)
// needs, builder-scope bracketing, function creation, constant
// materialization, arithmetic/logic/comparison, local load/store/dup,
// labels and branches, return, and finalization/reification, and nothing
// of the back end's internals (register allocation, instruction selection,
// machine-code emission all live inside golang-asm, not here).
//
// The façade is grounded directly on wagon's own JIT backend
// (exec/internal/compile/backend_amd64.go): both reserve a handful of
// general-purpose registers for bookkeeping (here, a single pointer to a
// shared "cell pool" backing every local and every transient IR value) and
// use golang-asm's obj.Prog/x86 opcode constants to assemble one function
// body at a time.
package backend

import (
	"errors"
	"fmt"

	asm "github.com/twitchyliquid64/golang-asm"
)

// Type is the IR-level storage width a Value or local cell is given. This
// core only ever needs the two spec.md §1 allows.
type Type uint8

const (
	Int32 Type = iota
	Float32
)

func (t Type) String() string {
	if t == Float32 {
		return "float32"
	}
	return "int32"
}

// BackendError reports that golang-asm rejected an emission. Per spec.md
// §4.4's failure semantics, the caller must treat this as fatal to the
// whole compile; partial IR is discarded when the build scope is released.
type BackendError struct {
	Op  string
	Err error
}

func (e *BackendError) Error() string { return fmt.Sprintf("backend: %s: %v", e.Op, e.Err) }
func (e *BackendError) Unwrap() error { return e.Err }

var (
	// ErrUnsupportedArch is returned by NewContext on platforms this
	// façade has no lowering for. spec.md scopes the back end itself out
	// of this core (§1); only the amd64 path is implemented, mirroring
	// wagon's own single-architecture native backend at the time this was
	// written (exec/native_compile_nogae.go lists only amd64/linux).
	ErrUnsupportedArch = errors.New("backend: unsupported architecture")
	// ErrEmptyStack is a StackUnderflow-class error (spec.md §7): the
	// lowering pass tried to pop/consume a Value from an empty emission
	// stack. The façade itself never pops an emission stack (that is the
	// lowering pass's job), this is reserved for façade-internal
	// consistency checks, e.g. Ret/BranchIf called without a live Value.
	ErrEmptyStack = errors.New("backend: stack underflow")
)

// Available reports whether this façade can produce native code on the
// running architecture/OS. The JIT lowering pass checks this before
// attempting to compile and returns jit.ErrUnsupportedPlatform otherwise,
// the same "compiled-in capability" shape as wagon's supportedNativeArchs.
func Available() bool { return archSupported() }

// Context owns the executable-memory allocator shared by every function
// compiled through it. A Context must be destroyed after every callable it
// produced is done being called: the façade's generated closures keep a
// reference to the mapping that holds their machine code, but the
// allocator itself (and the bookkeeping to free mappings) lives here.
type Context struct {
	alloc *execAllocator
}

// NewContext creates a façade Context. It returns ErrUnsupportedArch if
// this process's architecture/OS has no lowering implemented.
func NewContext() (*Context, error) {
	if !Available() {
		return nil, ErrUnsupportedArch
	}
	return &Context{alloc: newExecAllocator()}, nil
}

// Destroy releases every executable mapping this Context produced. Callers
// must not invoke any callable obtained from this Context afterward.
func (c *Context) Destroy() error { return c.alloc.Close() }

// Signature is deliberately narrow: spec.md §4.4 fixes every compiled
// function to the nullary, f32-returning shape. BuildStart does not read
// Return; a Callable's result width is taken from the Value passed to
// Ret, and Apply always converts the result to float32.
type Signature struct {
	Return Type
}

// FunctionBuilder accumulates one function's IR between BuildStart and
// BuildEnd. It is not safe for concurrent use, matching spec.md §5.
type FunctionBuilder struct {
	ctx *Context
	asm *asm.Builder

	cells    int    // number of uint64-wide cells reserved so far
	cellType []Type // Type tag of each reserved cell, parallel to cells

	retSlot int
	retType Type

	prog *progEmitter
}

// BuildStart acquires a builder scope and creates a function builder; sig
// is accepted for the build_start shape but not read (see Signature). Per
// spec.md §5's shared-resource policy, the returned
// *FunctionBuilder must have BuildEnd called on every exit path, including
// error returns from the lowering pass, see jit.Compile.
func (c *Context) BuildStart(sig Signature) (*FunctionBuilder, error) {
	b, err := asm.NewBuilder("amd64", 128)
	if err != nil {
		return nil, &BackendError{Op: "NewBuilder", Err: err}
	}
	fb := &FunctionBuilder{ctx: c, asm: b}
	fb.prog = newProgEmitter(b)
	fb.prog.emitPreamble()
	return fb, nil
}

// BuildEnd finalizes emission. It must be called exactly once, on every
// exit path from the lowering pass (success or failure).
func (fb *FunctionBuilder) BuildEnd() {
	// golang-asm's Builder holds no OS-level resource of its own beyond
	// the Go heap memory backing its Prog list; the only resource that
	// outlives BuildEnd is the executable mapping Compile produces, which
	// the Context (not the builder) owns. BuildEnd exists chiefly so the
	// façade's bracketing matches spec.md §6's build_start/build_end
	// contract, and as the hook a future multi-architecture backend would
	// use to release arch-specific scratch state.
}
