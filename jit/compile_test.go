package jit_test

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/mhsato/stackjit/bytecode"
	"github.com/mhsato/stackjit/interp"
	"github.com/mhsato/stackjit/jit"
	"github.com/mhsato/stackjit/jit/backend"
)

// equivalent asserts the JIT-compiled result matches the reference
// interpreter's result on fn, the central correctness property of this
// whole system (spec.md §8 invariant 5). Tests skip entirely when this
// process has no native backend (see backend.Available), rather than
// failing: the compiled path is an optional accelerator, never the
// source of truth.
func equivalent(t *testing.T, fn *bytecode.Function) {
	t.Helper()
	if !backend.Available() {
		t.Skip("no native backend available on this platform")
	}

	want, err := interp.Interpret(fn, nil)
	require.NoError(t, err)

	callable, err := jit.Compile(fn, jit.Policy{})
	require.NoError(t, err)
	got := callable.Apply()
	require.InDelta(t, want, got, 1e-3)
}

func TestCompileConstantReturn(t *testing.T) {
	equivalent(t, &bytecode.Function{Instrs: []bytecode.Instruction{
		bytecode.MakeConstF32(3.5), bytecode.MakeRet(),
	}})
}

func TestCompileFactorialLoop(t *testing.T) {
	equivalent(t, &bytecode.Function{Instrs: []bytecode.Instruction{
		bytecode.MakeConstI32(10), bytecode.MakeStore(0),
		bytecode.MakeConstI32(1), bytecode.MakeStore(1),
		bytecode.MakeLoadI32(0), bytecode.MakeConstI32(1), bytecode.MakeLeq(), bytecode.MakeIfTrue(17),
		bytecode.MakeLoadI32(0), bytecode.MakeLoadI32(1), bytecode.MakeMul(), bytecode.MakeStore(1),
		bytecode.MakeLoadI32(0), bytecode.MakeConstI32(1), bytecode.MakeSub(), bytecode.MakeStore(0),
		bytecode.MakeJmp(4),
		bytecode.MakeLoadI32(1), bytecode.MakeRet(),
	}})
}

func TestCompileArithmeticStackDiscipline(t *testing.T) {
	equivalent(t, &bytecode.Function{Instrs: []bytecode.Instruction{
		bytecode.MakeConstF32(100), bytecode.MakeConstF32(102.22), bytecode.MakeMul(),
		bytecode.MakeConstF32(100), bytecode.MakeConstF32(102.22), bytecode.MakeAdd(),
		bytecode.MakeSub(), bytecode.MakeRet(),
	}})
}

func TestCompileBranchToExitFallthrough(t *testing.T) {
	equivalent(t, &bytecode.Function{Instrs: []bytecode.Instruction{
		bytecode.MakeConstI32(0), bytecode.MakeIfTrue(3), bytecode.MakeConstI32(42), bytecode.MakeRet(),
	}})
}

func TestCompileRanOffEndIsAnError(t *testing.T) {
	if !backend.Available() {
		t.Skip("no native backend available on this platform")
	}
	fn := &bytecode.Function{Instrs: []bytecode.Instruction{
		bytecode.MakeConstI32(1), bytecode.MakeIfTrue(4), bytecode.MakeConstI32(42), bytecode.MakeRet(),
	}}
	_, err := jit.Compile(fn, jit.Policy{})
	require.ErrorIs(t, err, jit.ErrRanOffEnd)
}

func TestCompileUnknownDefaultPolicy(t *testing.T) {
	if !backend.Available() {
		t.Skip("no native backend available on this platform")
	}
	// Slot 0 is never referenced, so inference leaves it Unknown and the
	// zero Policy's default width is used for its cell; slot 1 is stored
	// with Int32 but never loaded, so the result depends on neither cell.
	fn := &bytecode.Function{Instrs: []bytecode.Instruction{
		bytecode.MakeConstI32(9), bytecode.MakeStore(1),
		bytecode.MakeConstF32(1.5), bytecode.MakeRet(),
	}}
	callable, err := jit.Compile(fn, jit.Policy{})
	require.NoError(t, err)
	require.InDelta(t, 1.5, float64(callable.Apply()), 1e-6)
}
