package bytecode_test

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/mhsato/stackjit/bytecode"
)

func TestLocalCount(t *testing.T) {
	cases := []struct {
		name string
		fn   bytecode.Function
		want int
	}{
		{"empty", bytecode.Function{}, 1},
		{"no locals", bytecode.Function{Instrs: []bytecode.Instruction{
			bytecode.MakeConstI32(1), bytecode.MakeRet(),
		}}, 1},
		{"single slot", bytecode.Function{Instrs: []bytecode.Instruction{
			bytecode.MakeConstI32(1), bytecode.MakeStore(0), bytecode.MakeRet(),
		}}, 1},
		{"two slots, store and load", bytecode.Function{Instrs: []bytecode.Instruction{
			bytecode.MakeConstI32(1), bytecode.MakeStore(0),
			bytecode.MakeLoadI32(0), bytecode.MakeStore(3),
			bytecode.MakeRet(),
		}}, 4},
	}
	for _, c := range cases {
		t.Run(c.name, func(t *testing.T) {
			require.Equal(t, c.want, bytecode.LocalCount(&c.fn))
			// idempotent under re-application
			require.Equal(t, c.want, bytecode.LocalCount(&c.fn))
		})
	}
}

func TestValidateBranchTargets(t *testing.T) {
	ok := bytecode.Function{Instrs: []bytecode.Instruction{
		bytecode.MakeConstI32(0), bytecode.MakeIfTrue(3), bytecode.MakeConstI32(42), bytecode.MakeRet(),
	}}
	require.NoError(t, ok.Validate())

	bad := bytecode.Function{Instrs: []bytecode.Instruction{
		bytecode.MakeJmp(99),
	}}
	require.ErrorIs(t, bad.Validate(), bytecode.ErrBranchOutOfRange)

	// N itself (one-past-the-end) is a valid target.
	exit := bytecode.Function{Instrs: []bytecode.Instruction{
		bytecode.MakeJmp(1),
	}}
	require.NoError(t, exit.Validate())
}

func TestTargetPanicsOnNonBranch(t *testing.T) {
	require.Panics(t, func() {
		bytecode.MakeAdd().Target()
	})
}

func TestInstructionString(t *testing.T) {
	require.Equal(t, "const.i32 42", bytecode.MakeConstI32(42).String())
	require.Equal(t, "store 3", bytecode.MakeStore(3).String())
	require.Equal(t, "add", bytecode.MakeAdd().String())
}
