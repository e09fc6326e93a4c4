//go:build amd64 && linux

package backend

import (
	asm "github.com/twitchyliquid64/golang-asm"
	"github.com/twitchyliquid64/golang-asm/obj"
	"github.com/twitchyliquid64/golang-asm/obj/x86"
)

func archSupported() bool { return true }

// Scratch register convention, kept disjoint from the R11/R12 cell-pool
// pointers described on progEmitter below.
const (
	scratch0    = x86.REG_AX
	scratch1    = x86.REG_BX
	xmmScratch0 = x86.REG_X0
	xmmScratch1 = x86.REG_X1
)

// progEmitter holds the bookkeeping golang-asm itself doesn't: label
// binding and the backward/forward patching branches need. Every compiled
// function shares one fixed register convention, modeled directly on
// wagon's own AMD64Backend (exec/internal/compile/backend_amd64.go):
//
//   - R11: pointer to the cell-pool sliceHeader (the function's sole
//     argument, supplied by the jitcall trampoline)
//   - R12: the cell pool's data pointer, dereferenced from R11 once in
//     the preamble; every local and every transient Value lives at
//     [R12 + slot*8]
//   - AX, BX, CX, DX, R8, R9, R13, R14, R15, X0, X1: scratch
//
// wagon additionally reserves R10/R13 for its operand-stack slice header
// and length; this backend has no separate operand stack to spill,
// spec.md's emission-time stack (§4.4 step 6c) is a compile-time-only
// bookkeeping device, realized here as a stack of already-materialized
// Values (cells), so there is nothing left to push/pop at run time.
type progEmitter struct {
	b *asm.Builder

	nextLabel int
	labelProg map[int]*obj.Prog
	pending   map[int][]*obj.Prog // branches awaiting their label's Prog
}

func newProgEmitter(b *asm.Builder) *progEmitter {
	return &progEmitter{
		b:         b,
		labelProg: map[int]*obj.Prog{},
		pending:   map[int][]*obj.Prog{},
	}
}

// emitPreamble dereferences the incoming cell-pool slice header once, the
// same "load the locals sliceHeader's Data pointer into a reserved
// register" idiom as wagon's emitWasmLocalsLoad.
func (e *progEmitter) emitPreamble() {
	p := e.b.NewProg()
	p.As = x86.AMOVQ
	p.From.Type = obj.TYPE_MEM
	p.From.Reg = x86.REG_R11
	p.To.Type = obj.TYPE_REG
	p.To.Reg = x86.REG_R12
	e.b.AddInstruction(p)
}

func (e *progEmitter) newLabel() Label {
	e.nextLabel++
	return Label{id: e.nextLabel}
}

// bindLabel marks the current emission position as l's target. A NOP
// marks the position so forward branches emitted before the label existed
// have a concrete *obj.Prog to patch their Pcond to.
func (e *progEmitter) bindLabel(l Label) {
	p := e.b.NewProg()
	p.As = obj.ANOP
	e.b.AddInstruction(p)
	e.labelProg[l.id] = p
	for _, branch := range e.pending[l.id] {
		branch.Pcond = p
	}
	delete(e.pending, l.id)
}

// branchTo emits an unconditional jump to l, patched immediately if l is
// already bound (backward branch) or deferred until bindLabel (forward
// branch) otherwise, the same deferred-patch shape every assembler in
// the obj lineage uses for forward branches.
func (e *progEmitter) branchTo(as obj.As, l Label) *obj.Prog {
	p := e.b.NewProg()
	p.As = as
	p.To.Type = obj.TYPE_BRANCH
	if target, ok := e.labelProg[l.id]; ok {
		p.Pcond = target
	} else {
		e.pending[l.id] = append(e.pending[l.id], p)
	}
	e.b.AddInstruction(p)
	return p
}

func cellAddr(reg int16, slot int) obj.Addr {
	return obj.Addr{Type: obj.TYPE_MEM, Reg: reg, Offset: int64(slot) * 8}
}

func (e *progEmitter) loadCellGP(slot int, reg int16) {
	p := e.b.NewProg()
	p.As = x86.AMOVL
	p.From = cellAddr(x86.REG_R12, slot)
	p.To.Type = obj.TYPE_REG
	p.To.Reg = reg
	e.b.AddInstruction(p)
}

func (e *progEmitter) storeCellGP(slot int, reg int16) {
	p := e.b.NewProg()
	p.As = x86.AMOVL
	p.From.Type = obj.TYPE_REG
	p.From.Reg = reg
	p.To = cellAddr(x86.REG_R12, slot)
	e.b.AddInstruction(p)
}

func (e *progEmitter) loadCellXMM(slot int, reg int16) {
	p := e.b.NewProg()
	p.As = x86.AMOVSS
	p.From = cellAddr(x86.REG_R12, slot)
	p.To.Type = obj.TYPE_REG
	p.To.Reg = reg
	e.b.AddInstruction(p)
}

func (e *progEmitter) storeCellXMM(slot int, reg int16) {
	p := e.b.NewProg()
	p.As = x86.AMOVSS
	p.From.Type = obj.TYPE_REG
	p.From.Reg = reg
	p.To = cellAddr(x86.REG_R12, slot)
	e.b.AddInstruction(p)
}

func (e *progEmitter) movConstGP(bits uint32, reg int16) {
	p := e.b.NewProg()
	p.As = x86.AMOVL
	p.From.Type = obj.TYPE_CONST
	p.From.Offset = int64(bits)
	p.To.Type = obj.TYPE_REG
	p.To.Reg = reg
	e.b.AddInstruction(p)
}

func (e *progEmitter) regToReg(as obj.As, from, to int16) {
	p := e.b.NewProg()
	p.As = as
	p.From.Type = obj.TYPE_REG
	p.From.Reg = from
	p.To.Type = obj.TYPE_REG
	p.To.Reg = to
	e.b.AddInstruction(p)
}

func (e *progEmitter) unary(as obj.As, reg int16) {
	p := e.b.NewProg()
	p.As = as
	p.To.Type = obj.TYPE_REG
	p.To.Reg = reg
	e.b.AddInstruction(p)
}

func (e *progEmitter) xorConstGP(bits uint32, reg int16) {
	p := e.b.NewProg()
	p.As = x86.AXORL
	p.From.Type = obj.TYPE_CONST
	p.From.Offset = int64(bits)
	p.To.Type = obj.TYPE_REG
	p.To.Reg = reg
	e.b.AddInstruction(p)
}

func (e *progEmitter) ret() {
	p := e.b.NewProg()
	p.As = obj.ARET
	e.b.AddInstruction(p)
}

func (e *progEmitter) assemble() []byte { return e.b.Assemble() }

func (e *progEmitter) negGP(reg int16) { e.unary(x86.ANEGL, reg) }
func (e *progEmitter) notGP(reg int16) { e.unary(x86.ANOTL, reg) }

// binaryInt computes out = lhs <kind> rhs over the 32-bit pattern stored
// in each cell. Division is the one case needing more than two
// instructions: IDIVL implicitly divides DX:AX by its operand, so the
// dividend must be sign-extended into DX first (CDQL) the way every x86
// compiler backend handles 32-bit signed division.
func (e *progEmitter) binaryInt(kind arithKind, lhsSlot, rhsSlot, outSlot int) {
	e.loadCellGP(lhsSlot, scratch0)
	e.loadCellGP(rhsSlot, scratch1)
	switch kind {
	case opAdd:
		e.regToReg(x86.AADDL, scratch1, scratch0)
	case opSub:
		e.regToReg(x86.ASUBL, scratch1, scratch0)
	case opMul:
		e.regToReg(x86.AIMULL, scratch1, scratch0)
	case opDiv:
		p := e.b.NewProg()
		p.As = x86.ACDQ
		e.b.AddInstruction(p)
		p = e.b.NewProg()
		p.As = x86.AIDIVL
		p.From.Type = obj.TYPE_REG
		p.From.Reg = scratch1
		e.b.AddInstruction(p)
	case opAnd:
		e.regToReg(x86.AANDL, scratch1, scratch0)
	case opOr:
		e.regToReg(x86.AORL, scratch1, scratch0)
	case opXor:
		e.regToReg(x86.AXORL, scratch1, scratch0)
	}
	e.storeCellGP(outSlot, scratch0)
}

func (e *progEmitter) binaryFloat(kind arithKind, lhsSlot, rhsSlot, outSlot int) {
	e.loadCellXMM(lhsSlot, xmmScratch0)
	e.loadCellXMM(rhsSlot, xmmScratch1)
	var as obj.As
	switch kind {
	case opAdd:
		as = x86.AADDSS
	case opSub:
		as = x86.ASUBSS
	case opMul:
		as = x86.AMULSS
	case opDiv:
		as = x86.ADIVSS
	default:
		panic("backend: bitwise op on float operands")
	}
	e.regToReg(as, xmmScratch1, xmmScratch0)
	e.storeCellXMM(outSlot, xmmScratch0)
}

// setcc maps a cmpKind to the SETcc mnemonic that reads "lhs <kind> rhs"
// out of the flags a preceding CMP/UCOMISS left behind. compareInt's CMPL
// has lhs in From (Go's assembler compares From against To) and
// compareFloat's UCOMISS has lhs in To (it compares To against From), so
// either way the flags encode lhs - rhs. UCOMISS sets only CF/ZF/PF, so
// float comparisons use the unsigned (below/above) conditions.
func setcc(kind cmpKind, float bool) obj.As {
	switch kind {
	case cmpEq:
		return x86.ASETEQ
	case cmpNeq:
		return x86.ASETNE
	case cmpLeq:
		if float {
			return x86.ASETLS
		}
		return x86.ASETLE
	case cmpGeq:
		if float {
			return x86.ASETCC
		}
		return x86.ASETGE
	case cmpLt:
		if float {
			return x86.ASETCS
		}
		return x86.ASETLT
	default:
		if float {
			return x86.ASETHI
		}
		return x86.ASETGT
	}
}

func (e *progEmitter) compareInt(kind cmpKind, lhsSlot, rhsSlot, outSlot int) {
	e.loadCellGP(lhsSlot, scratch0)
	e.loadCellGP(rhsSlot, scratch1)
	p := e.b.NewProg()
	p.As = x86.ACMPL
	p.From.Type = obj.TYPE_REG
	p.From.Reg = scratch0
	p.To.Type = obj.TYPE_REG
	p.To.Reg = scratch1
	e.b.AddInstruction(p)
	e.setThenStore(kind, false, outSlot)
}

func (e *progEmitter) compareFloat(kind cmpKind, lhsSlot, rhsSlot, outSlot int) {
	e.loadCellXMM(lhsSlot, xmmScratch0)
	e.loadCellXMM(rhsSlot, xmmScratch1)
	p := e.b.NewProg()
	p.As = x86.AUCOMISS
	p.From.Type = obj.TYPE_REG
	p.From.Reg = xmmScratch1
	p.To.Type = obj.TYPE_REG
	p.To.Reg = xmmScratch0
	e.b.AddInstruction(p)
	e.setThenStore(kind, true, outSlot)
}

func (e *progEmitter) setThenStore(kind cmpKind, float bool, outSlot int) {
	p := e.b.NewProg()
	p.As = setcc(kind, float)
	p.To.Type = obj.TYPE_REG
	p.To.Reg = scratch0
	e.b.AddInstruction(p)

	// SETcc only writes the low byte; the rest of the cell's previous
	// contents is stale, so zero-extend before storing a full 32-bit 0/1.
	p = e.b.NewProg()
	p.As = x86.AMOVBLZX
	p.From.Type = obj.TYPE_REG
	p.From.Reg = scratch0
	p.To.Type = obj.TYPE_REG
	p.To.Reg = scratch0
	e.b.AddInstruction(p)

	e.storeCellGP(outSlot, scratch0)
}

func (e *progEmitter) jmp(l Label) { e.branchTo(obj.AJMP, l) }

func (e *progEmitter) jmpIfNonZero(reg int16, l Label) {
	p := e.b.NewProg()
	p.As = x86.ATESTL
	p.From.Type = obj.TYPE_REG
	p.From.Reg = reg
	p.To.Type = obj.TYPE_REG
	p.To.Reg = reg
	e.b.AddInstruction(p)
	e.branchTo(x86.AJNE, l)
}
