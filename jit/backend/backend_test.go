package backend_test

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/mhsato/stackjit/jit/backend"
)

func build(t *testing.T) (*backend.Context, *backend.FunctionBuilder) {
	t.Helper()
	if !backend.Available() {
		t.Skip("no native backend available on this platform")
	}
	ctx, err := backend.NewContext()
	require.NoError(t, err)
	t.Cleanup(func() { require.NoError(t, ctx.Destroy()) })
	fb, err := ctx.BuildStart(backend.Signature{Return: backend.Float32})
	require.NoError(t, err)
	return ctx, fb
}

func TestConstantReturn(t *testing.T) {
	_, fb := build(t)
	v := fb.ConstFloat32(0x40400000) // 3.0f
	fb.Ret(v)
	fb.BuildEnd()

	callable, err := fb.Compile()
	require.NoError(t, err)
	require.InDelta(t, 3.0, float64(callable.Apply()), 1e-6)
}

func TestArithmeticInt32(t *testing.T) {
	_, fb := build(t)
	a := fb.ConstInt32(6)
	b := fb.ConstInt32(7)
	fb.Ret(fb.Mul(a, b))
	fb.BuildEnd()

	callable, err := fb.Compile()
	require.NoError(t, err)
	require.Equal(t, float32(42), callable.Apply())
}

func TestLocalsStoreLoad(t *testing.T) {
	_, fb := build(t)
	local := fb.CreateLocal(backend.Int32)
	fb.Store(local, fb.ConstInt32(11))
	fb.Ret(fb.Dup(local))
	fb.BuildEnd()

	callable, err := fb.Compile()
	require.NoError(t, err)
	require.Equal(t, float32(11), callable.Apply())
}

func TestBranchIfNotTakenFallsThrough(t *testing.T) {
	_, fb := build(t)
	done := fb.NewLabel()
	cond := fb.ConstInt32(0)
	fb.BranchIf(cond, done) // not taken
	wrong := fb.ConstInt32(-1)
	fb.Ret(wrong)
	fb.SetLabel(done)
	fb.Ret(fb.ConstInt32(5))
	fb.BuildEnd()

	callable, err := fb.Compile()
	require.NoError(t, err)
	// The first Ret (unconditionally reachable here, since BranchIf was
	// not taken) wins; this asserts fall-through ordering, not dead-code
	// elimination, so the expected result is the wrong arm's -1.
	require.Equal(t, float32(-1), callable.Apply())
}

func TestLoopSum(t *testing.T) {
	_, fb := build(t)
	i := fb.CreateLocal(backend.Int32)
	sum := fb.CreateLocal(backend.Int32)
	fb.Store(i, fb.ConstInt32(0))
	fb.Store(sum, fb.ConstInt32(0))

	head := fb.NewLabel()
	body := fb.NewLabel()
	exit := fb.NewLabel()

	fb.SetLabel(head)
	cond := fb.Lt(fb.Dup(i), fb.ConstInt32(5))
	fb.BranchIf(cond, body)
	fb.Branch(exit)

	fb.SetLabel(body)
	fb.Store(sum, fb.Add(fb.Dup(sum), fb.Dup(i)))
	fb.Store(i, fb.Add(fb.Dup(i), fb.ConstInt32(1)))
	fb.Branch(head)

	fb.SetLabel(exit)
	fb.Ret(fb.Dup(sum))
	fb.BuildEnd()

	callable, err := fb.Compile()
	require.NoError(t, err)
	require.Equal(t, float32(10), callable.Apply()) // 0+1+2+3+4
}
