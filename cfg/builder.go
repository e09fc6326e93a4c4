package cfg

import (
	"golang.org/x/exp/slices"

	"github.com/mhsato/stackjit/bytecode"
)

// Build recovers the basic-block graph of fn (spec.md §4.2). fn must
// already satisfy bytecode.Function.Validate; Build does not re-validate
// branch targets, it trusts them (MalformedBytecode is the caller's
// concern, checked once up front by the pipeline entry points).
func Build(fn *bytecode.Function) *Graph {
	n := len(fn.Instrs)
	if n == 0 {
		return &Graph{byStart: map[int]*Block{}}
	}

	leaders := leaderSet(fn)

	g := &Graph{byStart: make(map[int]*Block, len(leaders))}
	for _, start := range leaders {
		b := &Block{Start: start}
		g.blocks = append(g.blocks, b)
		g.byStart[start] = b
	}

	// blockAt maps an absolute instruction index to the block it starts,
	// with N (one-past-the-end) mapping to nil: the "exit" sentinel from
	// spec.md §3.
	blockAt := func(addr uint32) *Block {
		if int(addr) >= n {
			return nil
		}
		return g.byStart[int(addr)]
	}
	addPred := func(succ, pred *Block) {
		if succ != nil {
			succ.Pred = append(succ.Pred, pred)
		}
	}

	for bi, b := range g.blocks {
		end := n
		if bi+1 < len(g.blocks) {
			end = g.blocks[bi+1].Start
		}

		body := fn.Instrs[b.Start:end]
		if len(body) > 0 && body[len(body)-1].Op.IsBranch() {
			term := body[len(body)-1]
			b.Opcodes = body[:len(body)-1]

			switch term.Op {
			case bytecode.Jmp:
				b.Next = blockAt(term.U32)
				addPred(b.Next, b)
			case bytecode.IfTrue, bytecode.IfFalse:
				b.Cond = blockAt(term.U32)
				b.condIsIfFalse = term.Op == bytecode.IfFalse
				addPred(b.Cond, b)
				b.Next = blockAt(uint32(end))
				addPred(b.Next, b)
			}
		} else {
			b.Opcodes = body
			b.Next = blockAt(uint32(end))
			addPred(b.Next, b)
		}
	}

	return g
}

// leaderSet computes the sorted, de-duplicated set of leader indices per
// spec.md §4.2: index 0, every branch target, and every index immediately
// following a branch instruction (excluding N itself, which starts no
// block).
func leaderSet(fn *bytecode.Function) []int {
	n := len(fn.Instrs)
	set := map[int]struct{}{0: {}}
	for i, in := range fn.Instrs {
		if !in.Op.IsBranch() {
			continue
		}
		if t := int(in.U32); t < n {
			set[t] = struct{}{}
		}
		if i+1 < n {
			set[i+1] = struct{}{}
		}
	}

	leaders := make([]int, 0, len(set))
	for idx := range set {
		leaders = append(leaders, idx)
	}
	slices.Sort(leaders)
	return leaders
}
