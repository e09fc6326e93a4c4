package interp_test

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/mhsato/stackjit/bytecode"
	"github.com/mhsato/stackjit/interp"
)

// TestConstantReturnFloat is scenario S1.
func TestConstantReturnFloat(t *testing.T) {
	fn := &bytecode.Function{Instrs: []bytecode.Instruction{
		bytecode.MakeConstF32(3.5), bytecode.MakeRet(),
	}}
	v, err := interp.Interpret(fn, nil)
	require.NoError(t, err)
	require.Equal(t, float32(3.5), v)
}

// TestFactorial10 is scenario S2.
func TestFactorial10(t *testing.T) {
	fn := &bytecode.Function{Instrs: []bytecode.Instruction{
		bytecode.MakeConstI32(10), bytecode.MakeStore(0),
		bytecode.MakeConstI32(1), bytecode.MakeStore(1),
		bytecode.MakeLoadI32(0), bytecode.MakeConstI32(1), bytecode.MakeLeq(), bytecode.MakeIfTrue(17),
		bytecode.MakeLoadI32(0), bytecode.MakeLoadI32(1), bytecode.MakeMul(), bytecode.MakeStore(1),
		bytecode.MakeLoadI32(0), bytecode.MakeConstI32(1), bytecode.MakeSub(), bytecode.MakeStore(0),
		bytecode.MakeJmp(4),
		bytecode.MakeLoadI32(1), bytecode.MakeRet(),
	}}
	v, err := interp.Interpret(fn, nil)
	require.NoError(t, err)
	require.Equal(t, float32(3628800), v)
}

// TestBranchToExit is scenario S4.
func TestBranchToExit(t *testing.T) {
	fallthroughFn := &bytecode.Function{Instrs: []bytecode.Instruction{
		bytecode.MakeConstI32(0), bytecode.MakeIfTrue(3), bytecode.MakeConstI32(42), bytecode.MakeRet(),
	}}
	v, err := interp.Interpret(fallthroughFn, nil)
	require.NoError(t, err)
	require.Equal(t, float32(42), v)

	takenFn := &bytecode.Function{Instrs: []bytecode.Instruction{
		bytecode.MakeConstI32(1), bytecode.MakeIfTrue(4), bytecode.MakeConstI32(42), bytecode.MakeRet(),
	}}
	_, err = interp.Interpret(takenFn, nil)
	require.ErrorIs(t, err, interp.ErrRanOffEnd)
}

// TestArithmeticStackDiscipline is scenario S5.
func TestArithmeticStackDiscipline(t *testing.T) {
	fn := &bytecode.Function{Instrs: []bytecode.Instruction{
		bytecode.MakeConstF32(100), bytecode.MakeConstF32(102.22), bytecode.MakeMul(),
		bytecode.MakeConstF32(100), bytecode.MakeConstF32(102.22), bytecode.MakeAdd(),
		bytecode.MakeSub(), bytecode.MakeRet(),
	}}
	v, err := interp.Interpret(fn, nil)
	require.NoError(t, err)
	want := float32(100*102.22 - (100 + 102.22))
	require.InDelta(t, want, v, 1e-3)
}

func TestDispHookInvoked(t *testing.T) {
	fn := &bytecode.Function{Instrs: []bytecode.Instruction{
		bytecode.MakeConstI32(7), bytecode.MakeDisp(), bytecode.MakeConstI32(0), bytecode.MakeRet(),
	}}
	var got float32
	_, err := interp.Interpret(fn, func(v float32) { got = v })
	require.NoError(t, err)
	require.Equal(t, float32(7), got)
}

func TestStackUnderflow(t *testing.T) {
	fn := &bytecode.Function{Instrs: []bytecode.Instruction{bytecode.MakeAdd(), bytecode.MakeRet()}}
	_, err := interp.Interpret(fn, nil)
	require.ErrorIs(t, err, interp.ErrStackUnderflow)
}
