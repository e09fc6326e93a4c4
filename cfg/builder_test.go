package cfg_test

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/mhsato/stackjit/bytecode"
	"github.com/mhsato/stackjit/cfg"
)

func noBranchOpcodes(t *testing.T, g *cfg.Graph) {
	t.Helper()
	for _, b := range g.Blocks() {
		for _, in := range b.Opcodes {
			require.False(t, in.Op.IsBranch(), "block %d retained a branch opcode %s", b.Start, in.Op)
		}
	}
}

func predecessorsConsistent(t *testing.T, g *cfg.Graph) {
	t.Helper()
	hasPred := func(b *cfg.Block, want *cfg.Block) bool {
		for _, p := range b.Pred {
			if p == want {
				return true
			}
		}
		return false
	}
	for _, a := range g.Blocks() {
		if a.Next != nil {
			require.True(t, hasPred(a.Next, a), "Next edge %d->%d missing predecessor", a.Start, a.Next.Start)
		}
		if a.Cond != nil {
			require.True(t, hasPred(a.Cond, a), "Cond edge %d->%d missing predecessor", a.Start, a.Cond.Start)
		}
	}
}

// factorial10 is scenario S2 from spec.md §8.
func factorial10() *bytecode.Function {
	return &bytecode.Function{Instrs: []bytecode.Instruction{
		bytecode.MakeConstI32(10), bytecode.MakeStore(0),
		bytecode.MakeConstI32(1), bytecode.MakeStore(1),
		bytecode.MakeLoadI32(0), bytecode.MakeConstI32(1), bytecode.MakeLeq(), bytecode.MakeIfTrue(17),
		bytecode.MakeLoadI32(0), bytecode.MakeLoadI32(1), bytecode.MakeMul(), bytecode.MakeStore(1),
		bytecode.MakeLoadI32(0), bytecode.MakeConstI32(1), bytecode.MakeSub(), bytecode.MakeStore(0),
		bytecode.MakeJmp(4),
		bytecode.MakeLoadI32(1), bytecode.MakeRet(),
	}}
}

func TestBuildLoop(t *testing.T) {
	fn := factorial10()
	g := cfg.Build(fn)
	noBranchOpcodes(t, g)
	predecessorsConsistent(t, g)

	// Leaders: 0 (entry), 4 (loop header, target of Jmp(4)), 8 (body after
	// IfTrue), 17 (IfTrue target and the instruction after Jmp(4), exit
	// path).
	starts := map[int]bool{}
	for _, b := range g.Blocks() {
		starts[b.Start] = true
	}
	require.Len(t, g.Blocks(), 4)
	for _, want := range []int{0, 4, 8, 17} {
		require.True(t, starts[want], "expected leader at %d", want)
	}
}

// diamond builds scenario S6: an IfTrue with both arms rejoining at a
// common Ret.
func diamond() *bytecode.Function {
	return &bytecode.Function{Instrs: []bytecode.Instruction{
		bytecode.MakeConstI32(1), bytecode.MakeIfTrue(4), // 0,1: header
		bytecode.MakeConstI32(2), bytecode.MakeJmp(5), // 2,3: else-arm
		bytecode.MakeConstI32(1), // 4: then-arm
		bytecode.MakeRet(),       // 5: join
	}}
}

func TestBuildDiamond(t *testing.T) {
	g := cfg.Build(diamond())
	noBranchOpcodes(t, g)
	predecessorsConsistent(t, g)

	require.Len(t, g.Blocks(), 4)

	header := g.At(0)
	require.NotNil(t, header)
	require.Empty(t, header.Pred)

	thenArm := g.At(4)
	elseArm := g.At(2)
	join := g.At(5)

	require.Equal(t, []*cfg.Block{header}, thenArm.Pred)
	require.Equal(t, []*cfg.Block{header}, elseArm.Pred)
	require.ElementsMatch(t, []*cfg.Block{thenArm, elseArm}, join.Pred)
}

func TestBuildEmptyFunctionHasNoBlocks(t *testing.T) {
	g := cfg.Build(&bytecode.Function{})
	require.Empty(t, g.Blocks())
}

func TestIfFalsePolarityRecorded(t *testing.T) {
	fn := &bytecode.Function{Instrs: []bytecode.Instruction{
		bytecode.MakeConstI32(0), bytecode.MakeIfFalse(3),
		bytecode.MakeConstI32(1), bytecode.MakeRet(),
	}}
	g := cfg.Build(fn)
	header := g.At(0)
	require.True(t, header.CondIsIfFalse())
}
