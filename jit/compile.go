package jit

import (
	"errors"
	"fmt"
	"math"

	"github.com/mhsato/stackjit/bytecode"
	"github.com/mhsato/stackjit/cfg"
	"github.com/mhsato/stackjit/infer"
	"github.com/mhsato/stackjit/jit/backend"
)

// ErrUnsupportedPlatform is returned by Compile when this process has no
// native lowering available (see backend.Available); the caller should
// fall back to interp.Interpret.
var ErrUnsupportedPlatform = backend.ErrUnsupportedArch

// Compile lowers fn to a native backend.Callable, following spec.md
// §4.4's procedure: validate, build the basic-block graph, infer local
// types, then walk the graph once, emitting one backend op per bytecode
// instruction and one Label per block.
func Compile(fn *bytecode.Function, policy Policy) (*backend.Callable, error) {
	if !backend.Available() {
		return nil, ErrUnsupportedPlatform
	}
	if err := fn.Validate(); err != nil {
		return nil, fmt.Errorf("jit: %w", err)
	}
	// cfg leaves Cond nil for a conditional branch whose target is the exit
	// position N, so lowerTerminator cannot see that path; catch it here.
	for _, in := range fn.Instrs {
		if in.Op.IsConditionalBranch() && int(in.U32) == len(fn.Instrs) {
			return nil, fmt.Errorf("jit: %w", ErrRanOffEnd)
		}
	}

	g := cfg.Build(fn)
	l := bytecode.LocalCount(fn)
	types, err := infer.Infer(fn, g, l, infer.Options{Strict: policy.Strict})
	if err != nil {
		return nil, fmt.Errorf("jit: %w", err)
	}

	ctx, err := backend.NewContext()
	if err != nil {
		return nil, fmt.Errorf("jit: %w", err)
	}
	// The Context is single-use from the lowering pass's point of view:
	// it exists only to host this one function's executable mapping, and
	// the Callable it produces keeps the mapping alive on its own, so
	// there is nothing further for Compile to release here.

	fb, err := ctx.BuildStart(backend.Signature{})
	if err != nil {
		return nil, fmt.Errorf("jit: %w", err)
	}
	defer fb.BuildEnd()

	lw := &lowerer{fb: fb, policy: policy, types: types}
	lw.allocateLocals(l)
	lw.allocateLabels(g)

	if err := lw.lowerAll(g); err != nil {
		return nil, fmt.Errorf("jit: %w", err)
	}

	callable, err := fb.Compile()
	if err != nil {
		return nil, fmt.Errorf("jit: %w", err)
	}
	return callable, nil
}

// ErrRanOffEnd reports that some path through fn reaches the exit
// sentinel (spec.md §3's one-past-the-end position N) without executing
// Ret, the same "undefined program" condition interp.ErrRanOffEnd
// detects at run time, caught here at compile time instead since a
// native RET has nowhere to source a return value from.
var ErrRanOffEnd = errors.New("jit: a path reaches the end of the function without Ret")

// lowerer carries the state threaded through one Compile call: the
// backend builder being emitted into, the resolved local storage, and a
// Label per basic block (allocated up front so both forward and backward
// branches resolve uniformly).
type lowerer struct {
	fb     *backend.FunctionBuilder
	policy Policy
	types  infer.Types

	locals []backend.Value
	labels map[int]backend.Label
}

func (lw *lowerer) allocateLocals(l int) {
	lw.locals = make([]backend.Value, l)
	for i := 0; i < l; i++ {
		t := backendType(lw.types[i], lw.policy.unknownDefault())
		lw.locals[i] = lw.fb.CreateLocal(t)
	}
}

func (lw *lowerer) allocateLabels(g *cfg.Graph) {
	lw.labels = make(map[int]backend.Label, len(g.Blocks()))
	for _, b := range g.Blocks() {
		lw.labels[b.Start] = lw.fb.NewLabel()
	}
}

// lowerAll emits every block, recovering from an emission-stack
// underflow the same way interp.Interpret detects one at run time: this
// core does not statically verify stack balance beyond branch-target
// range checking (spec.md §4.2), so a malformed function can only be
// caught here or at interpretation time, never both for free.
func (lw *lowerer) lowerAll(g *cfg.Graph) (err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("malformed bytecode: %v", r)
		}
	}()
	for _, b := range g.Blocks() {
		if err := lw.lowerBlock(b); err != nil {
			return err
		}
	}
	return nil
}

func (lw *lowerer) lowerBlock(b *cfg.Block) error {
	lw.fb.SetLabel(lw.labels[b.Start])

	stack := make([]backend.Value, 0, 8)
	pop := func() backend.Value {
		v := stack[len(stack)-1]
		stack = stack[:len(stack)-1]
		return v
	}
	push := func(v backend.Value) { stack = append(stack, v) }

	for _, in := range b.Opcodes {
		switch in.Op {
		case bytecode.Nop:
		case bytecode.ConstI32:
			push(lw.fb.ConstInt32(in.I32))
		case bytecode.ConstF32:
			push(lw.fb.ConstFloat32(math.Float32bits(in.F32)))
		case bytecode.LoadI32, bytecode.LoadF32:
			push(lw.fb.Dup(lw.locals[in.U32]))
		case bytecode.Store:
			lw.fb.Store(lw.locals[in.U32], pop())
		case bytecode.Add:
			r, l := pop(), pop()
			push(lw.fb.Add(l, r))
		case bytecode.Sub:
			r, l := pop(), pop()
			push(lw.fb.Sub(l, r))
		case bytecode.Mul:
			r, l := pop(), pop()
			push(lw.fb.Mul(l, r))
		case bytecode.Div:
			r, l := pop(), pop()
			push(lw.fb.Div(l, r))
		case bytecode.And:
			r, l := pop(), pop()
			push(lw.fb.And(l, r))
		case bytecode.Or:
			r, l := pop(), pop()
			push(lw.fb.Or(l, r))
		case bytecode.Xor:
			r, l := pop(), pop()
			push(lw.fb.Xor(l, r))
		case bytecode.Eq:
			r, l := pop(), pop()
			push(lw.fb.Eq(l, r))
		case bytecode.Neq:
			r, l := pop(), pop()
			push(lw.fb.Neq(l, r))
		case bytecode.Leq:
			r, l := pop(), pop()
			push(lw.fb.Leq(l, r))
		case bytecode.Geq:
			r, l := pop(), pop()
			push(lw.fb.Geq(l, r))
		case bytecode.Lt:
			r, l := pop(), pop()
			push(lw.fb.Lt(l, r))
		case bytecode.Gt:
			r, l := pop(), pop()
			push(lw.fb.Gt(l, r))
		case bytecode.Negate:
			push(lw.fb.Negate(pop()))
		case bytecode.Not:
			push(lw.fb.Not(pop()))
		case bytecode.Ret:
			lw.fb.Ret(pop())
		case bytecode.Disp:
			pop() // compiled path: always a no-op, see Policy.DispHook.
		}
	}

	return lw.lowerTerminator(b, stack)
}

// lowerTerminator emits b's outgoing edge. cfg.Block.Opcodes never
// contains Jmp, IfTrue, or IfFalse (those are resolved into b.Next/b.Cond
// at CFG-construction time, see cfg.Block's doc comment), so the branch
// condition, if any, is whatever Value is left on the emission stack once
// the straight-line body above has run.
func (lw *lowerer) lowerTerminator(b *cfg.Block, stack []backend.Value) error {
	if b.Cond != nil {
		if b.Next == nil {
			return ErrRanOffEnd
		}
		cond := stack[len(stack)-1]
		if !b.CondIsIfFalse() {
			lw.fb.BranchIf(cond, lw.labels[b.Cond.Start])
			lw.fb.Branch(lw.labels[b.Next.Start])
		} else {
			lw.fb.BranchIf(cond, lw.labels[b.Next.Start])
			lw.fb.Branch(lw.labels[b.Cond.Start])
		}
		return nil
	}
	if b.Next == nil {
		if lastIsRet(b) {
			return nil
		}
		return ErrRanOffEnd
	}
	lw.fb.Branch(lw.labels[b.Next.Start])
	return nil
}

func lastIsRet(b *cfg.Block) bool {
	return len(b.Opcodes) > 0 && b.Opcodes[len(b.Opcodes)-1].Op == bytecode.Ret
}
