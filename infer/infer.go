// Package infer implements the type-inference pass of spec.md §4.3: a
// fixpoint abstract interpretation over the three-point vtype lattice that
// assigns each local slot an inferred storage type, used by the JIT
// lowering pass to pick IR cell widths.
package infer

import (
	"errors"
	"fmt"

	"github.com/mhsato/stackjit/bytecode"
	"github.com/mhsato/stackjit/cfg"
	"github.com/mhsato/stackjit/diag"
	"github.com/mhsato/stackjit/vtype"
)

// ErrTypeConflict is returned instead of warned when Options.Strict is set
// and the pass observes incompatible concrete types for the same local or
// stack position (spec.md §9's strict-mode Open Question).
var ErrTypeConflict = errors.New("infer: type conflict")

// Options controls the resolution strategy for the Open Questions spec.md
// §9 leaves to the implementation.
type Options struct {
	// Strict promotes TypeConflict diagnostics to errors instead of
	// warnings, and forbids loading a slot via the "wrong" tagged opcode
	// (LoadI32 of a Float32-typed slot or vice versa).
	Strict bool
}

// Types is the inferred type of each local slot, indexed by slot number.
type Types []vtype.Type

// Infer runs the fixpoint abstract interpretation described in spec.md
// §4.3 over g, the basic-block graph of fn, producing the inferred type of
// each of the L locals. It terminates within L+1 passes (the lattice has
// height 1 per local) and the returned vector is a post-fixpoint: one
// additional pass would not change it.
func Infer(fn *bytecode.Function, g *cfg.Graph, l int, opts Options) (Types, error) {
	types := make(Types, l)

	blocks := g.Blocks()
	maxPasses := l + 1
	for pass := 0; pass < maxPasses; pass++ {
		changed := false
		for _, b := range blocks {
			blockChanged, err := inferBlock(b, types, opts)
			if err != nil {
				return nil, err
			}
			changed = changed || blockChanged
		}
		if !changed {
			return types, nil
		}
	}

	// Unreachable given the lattice's height-1-per-local guarantee; kept as
	// a defensive error rather than a panic because a future widening of
	// the lattice (see spec.md §9's REDESIGN FLAGS discussion) could
	// violate the assumption, and silently returning a non-fixpoint vector
	// would be worse than failing loudly.
	return nil, fmt.Errorf("infer: did not converge within %d passes", maxPasses)
}

// inferBlock abstract-interprets one block starting from an empty abstract
// stack (spec.md §3 invariant: the evaluation stack is empty at every block
// boundary), mutating types in place and reporting whether it changed.
func inferBlock(b *cfg.Block, types Types, opts Options) (changed bool, err error) {
	stack := make([]vtype.Type, 0, 4)
	pop := func() vtype.Type {
		if len(stack) == 0 {
			return vtype.Unknown
		}
		v := stack[len(stack)-1]
		stack = stack[:len(stack)-1]
		return v
	}
	push := func(t vtype.Type) { stack = append(stack, t) }

	for _, in := range b.Opcodes {
		switch in.Op {
		case bytecode.ConstI32:
			push(vtype.Int32)
		case bytecode.ConstF32:
			push(vtype.Float32)
		case bytecode.LoadI32, bytecode.LoadF32:
			slot := in.U32
			if opts.Strict {
				want := vtype.Int32
				if in.Op == bytecode.LoadF32 {
					want = vtype.Float32
				}
				if types[slot] != vtype.Unknown && types[slot] != want {
					return changed, fmt.Errorf("infer: slot %d: %w (tagged %s, inferred %s)", slot, ErrTypeConflict, want, types[slot])
				}
			}
			push(types[slot])
		case bytecode.Add, bytecode.Sub, bytecode.Mul, bytecode.Div:
			t1 := pop() // top-of-stack operand (right-hand)
			t2 := pop() // left-hand operand
			result, ok := vtype.Join(t2, t1)
			if !ok {
				diag.Warnf("type inference: incompatible operand types %s and %s in %s, adopting %s", t2, t1, in.Op, t1)
				if opts.Strict {
					return changed, fmt.Errorf("infer: %w: %s got %s and %s", ErrTypeConflict, in.Op, t2, t1)
				}
				result = t1 // conservatively adopt the top-of-stack operand's type
			}
			push(result)
		case bytecode.Eq, bytecode.Neq, bytecode.Leq, bytecode.Geq, bytecode.Lt, bytecode.Gt,
			bytecode.And, bytecode.Or, bytecode.Xor:
			pop()
			pop()
			push(vtype.Int32)
		case bytecode.Negate:
			push(pop())
		case bytecode.Not:
			pop()
			push(vtype.Int32)
		case bytecode.Store:
			slot := in.U32
			v := pop()
			if v == vtype.Unknown {
				continue
			}
			if types[slot] == vtype.Unknown {
				types[slot] = v
				changed = true
			} else if types[slot] != v {
				diag.Warnf("type inference: slot %d inconsistent: already %s, now storing %s", slot, types[slot], v)
				if opts.Strict {
					return changed, fmt.Errorf("infer: slot %d: %w (%s then %s)", slot, ErrTypeConflict, types[slot], v)
				}
				// first-seen non-Unknown type wins (spec.md §7).
			}
		case bytecode.Ret, bytecode.Disp, bytecode.Nop:
			// Leaves the abstract stack unchanged. Nop pops nothing; Ret
			// and Disp each end a statement under the single-expression-
			// per-statement contract (spec.md §3), so no later opcode in
			// this block observes whatever Ret/Disp would otherwise have
			// popped.
		}
	}
	return changed, nil
}
