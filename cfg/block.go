// Package cfg recovers a control-flow graph of basic blocks from a linear
// bytecode.Function, per spec.md §4.2. The graph is a cyclic directed graph
// (loops create back-edges); per spec.md §9 it is stored as a single arena
// keyed by leader index, with edges expressed as pointers into that arena so
// that equality and hashing are by arena identity, not content.
package cfg

import (
	"fmt"
	"strings"

	"github.com/mhsato/stackjit/bytecode"
)

// Block is a maximal run of straight-line instructions together with its
// terminator edges. Opcodes never contains Jmp, IfTrue, or IfFalse: those
// are resolved into Next/Cond during construction (spec.md §3 invariant).
type Block struct {
	// Start is this block's leader index in the original instruction
	// stream. It doubles as the block's identity within the arena.
	Start int

	Opcodes []bytecode.Instruction

	Next *Block // fall-through successor, nil if execution exits here
	Cond *Block // taken successor of a conditional branch, nil if none or if the target is the exit position
	Pred []*Block

	// condIsIfFalse records whether the terminator that produced Cond was
	// an IfFalse rather than an IfTrue. The CFG shape spec.md §4.2
	// describes is identical for both (Cond = branch target, Next =
	// fall-through), so this polarity bit has nowhere else to live; the
	// JIT lowering pass (§4.4) needs it to pick which successor gets the
	// emitted branch_if and which gets the unconditional branch.
	condIsIfFalse bool

	// Label is an opaque handle a consumer may attach to identify this
	// block's start address in generated code. No package in this module
	// sets it (the JIT lowering pass keeps its own labels keyed by Start),
	// and cfg itself never reads or writes it beyond zero-initializing it;
	// this keeps cfg back-end agnostic while
	// still matching the Block.label field spec.md §3 describes.
	Label interface{}
}

// CondIsIfFalse reports whether Cond, if non-nil, is taken on a zero
// (IfFalse) rather than nonzero (IfTrue) condition value.
func (b *Block) CondIsIfFalse() bool { return b.condIsIfFalse }

// String renders the block's leader index and body, one instruction per
// line, for disassembly output and test failure messages, the same role
// wagon's disasm package plays for wasm bytecode.
func (b *Block) String() string {
	var sb strings.Builder
	fmt.Fprintf(&sb, "L%d:\n", b.Start)
	for _, in := range b.Opcodes {
		fmt.Fprintf(&sb, "    %s\n", in)
	}
	switch {
	case b.Cond != nil && b.condIsIfFalse:
		fmt.Fprintf(&sb, "    if_false -> L%d else L%d\n", b.Cond.Start, b.Next.Start)
	case b.Cond != nil:
		fmt.Fprintf(&sb, "    if_true -> L%d else L%d\n", b.Cond.Start, b.Next.Start)
	case b.Next != nil:
		fmt.Fprintf(&sb, "    jmp L%d\n", b.Next.Start)
	default:
		fmt.Fprintf(&sb, "    <exit>\n")
	}
	return sb.String()
}

// Graph owns every block produced from one Function. Blocks are returned in
// deterministic ascending-start-address order by Blocks.
type Graph struct {
	blocks  []*Block
	byStart map[int]*Block
}

// Blocks returns the blocks in construction (ascending start address) order.
func (g *Graph) Blocks() []*Block { return g.blocks }

// At returns the block beginning at the given leader index, or nil if start
// is the one-past-the-end exit position (or any other non-leader index).
func (g *Graph) At(start int) *Block { return g.byStart[start] }
