package backend

// arithKind and cmpKind identify which binary operation an emission
// helper should encode; keeping them as backend-local enums (rather than
// reusing bytecode.Op directly) keeps this package independent of the
// bytecode package, matching spec.md §4.5's "the back end has no
// knowledge of bytecode op codes" framing.
type arithKind uint8

const (
	opAdd arithKind = iota
	opSub
	opMul
	opDiv
	opAnd
	opOr
	opXor
)

type cmpKind uint8

const (
	cmpEq cmpKind = iota
	cmpNeq
	cmpLeq
	cmpGeq
	cmpLt
	cmpGt
)

// Const materializes an immediate into a fresh Value.
func (fb *FunctionBuilder) ConstInt32(v int32) Value {
	out := fb.allocCell(Int32)
	fb.prog.movConstGP(uint32(v), scratch0)
	fb.prog.storeCellGP(out.slot, scratch0)
	return out
}

func (fb *FunctionBuilder) ConstFloat32(bits uint32) Value {
	out := fb.allocCell(Float32)
	fb.prog.movConstGP(bits, scratch0)
	fb.prog.storeCellGP(out.slot, scratch0)
	return out
}

// Load reads a storage cell's current contents into a fresh Value. It is
// used for the façade's Value-returning local accesses; spec.md §4.4's
// lowering pass always calls Dup instead, but both resolve to the same
// load-materialize operation described in spec.md §6's operation table.
func (fb *FunctionBuilder) Load(cell Value) Value {
	return fb.Dup(cell)
}

// Dup produces a fresh Value reading cell's current contents (spec.md §6:
// "dup(src) - produce a fresh IR value reading src").
func (fb *FunctionBuilder) Dup(cell Value) Value {
	out := fb.allocCell(cell.typ)
	fb.copyCell(cell.slot, out.slot, cell.typ)
	return out
}

// Store writes src's contents into dest's cell in place, without
// allocating a new cell, dest keeps its identity (spec.md §6:
// "store(dest, src)").
func (fb *FunctionBuilder) Store(dest, src Value) {
	fb.copyCell(src.slot, dest.slot, dest.typ)
}

func (fb *FunctionBuilder) copyCell(from, to int, t Type) {
	if t == Float32 {
		fb.prog.loadCellXMM(from, xmmScratch0)
		fb.prog.storeCellXMM(to, xmmScratch0)
		return
	}
	fb.prog.loadCellGP(from, scratch0)
	fb.prog.storeCellGP(to, scratch0)
}

// Arithmetic. All four follow spec.md §4.3's Join rule upstream (the
// lowering pass resolves the result Type via vtype.Join before calling
// here); the façade trusts the caller and stores the result at whichever
// width lhs.Type reports.
func (fb *FunctionBuilder) Add(lhs, rhs Value) Value { return fb.arith(opAdd, lhs, rhs) }
func (fb *FunctionBuilder) Sub(lhs, rhs Value) Value { return fb.arith(opSub, lhs, rhs) }
func (fb *FunctionBuilder) Mul(lhs, rhs Value) Value { return fb.arith(opMul, lhs, rhs) }
func (fb *FunctionBuilder) Div(lhs, rhs Value) Value { return fb.arith(opDiv, lhs, rhs) }

// Bitwise ops always operate on the raw 32-bit pattern of their operands,
// regardless of the Type tag either carries, mirroring interp.Interpret's
// own asInt32-then-bitwise behavior (spec.md §7: a Float32 operand here is
// a warning, never an error).
func (fb *FunctionBuilder) And(lhs, rhs Value) Value { return fb.bitwise(opAnd, lhs, rhs) }
func (fb *FunctionBuilder) Or(lhs, rhs Value) Value  { return fb.bitwise(opOr, lhs, rhs) }
func (fb *FunctionBuilder) Xor(lhs, rhs Value) Value { return fb.bitwise(opXor, lhs, rhs) }

func (fb *FunctionBuilder) arith(kind arithKind, lhs, rhs Value) Value {
	out := fb.allocCell(lhs.typ)
	if lhs.typ == Float32 {
		fb.prog.binaryFloat(kind, lhs.slot, rhs.slot, out.slot)
	} else {
		fb.prog.binaryInt(kind, lhs.slot, rhs.slot, out.slot)
	}
	return out
}

func (fb *FunctionBuilder) bitwise(kind arithKind, lhs, rhs Value) Value {
	out := fb.allocCell(Int32)
	fb.prog.binaryInt(kind, lhs.slot, rhs.slot, out.slot)
	return out
}

// Compare produces an Int32 Value holding 1 or 0 (spec.md §4.3: comparison
// opcodes always push Int32).
func (fb *FunctionBuilder) Compare(kind cmpKind, lhs, rhs Value) Value {
	out := fb.allocCell(Int32)
	if lhs.typ == Float32 {
		fb.prog.compareFloat(kind, lhs.slot, rhs.slot, out.slot)
	} else {
		fb.prog.compareInt(kind, lhs.slot, rhs.slot, out.slot)
	}
	return out
}

func (fb *FunctionBuilder) Eq(lhs, rhs Value) Value  { return fb.Compare(cmpEq, lhs, rhs) }
func (fb *FunctionBuilder) Neq(lhs, rhs Value) Value { return fb.Compare(cmpNeq, lhs, rhs) }
func (fb *FunctionBuilder) Leq(lhs, rhs Value) Value { return fb.Compare(cmpLeq, lhs, rhs) }
func (fb *FunctionBuilder) Geq(lhs, rhs Value) Value { return fb.Compare(cmpGeq, lhs, rhs) }
func (fb *FunctionBuilder) Lt(lhs, rhs Value) Value  { return fb.Compare(cmpLt, lhs, rhs) }
func (fb *FunctionBuilder) Gt(lhs, rhs Value) Value  { return fb.Compare(cmpGt, lhs, rhs) }

// Negate flips sign: arithmetic negation for either width (an integer NEG
// for Int32, a sign-bit XOR for Float32, the usual bit-level trick for
// negating an IEEE-754 value without touching the FPU's rounding state).
func (fb *FunctionBuilder) Negate(v Value) Value {
	out := fb.allocCell(v.typ)
	fb.prog.loadCellGP(v.slot, scratch0)
	if v.typ == Float32 {
		fb.prog.xorConstGP(0x80000000, scratch0)
	} else {
		fb.prog.negGP(scratch0)
	}
	fb.prog.storeCellGP(out.slot, scratch0)
	return out
}

// Not is bitwise complement of the operand's raw 32-bit pattern (always
// Int32-typed on the way out, mirroring interp.Interpret).
func (fb *FunctionBuilder) Not(v Value) Value {
	out := fb.allocCell(Int32)
	fb.prog.loadCellGP(v.slot, scratch0)
	fb.prog.notGP(scratch0)
	fb.prog.storeCellGP(out.slot, scratch0)
	return out
}

// Branch emits an unconditional jump to l.
func (fb *FunctionBuilder) Branch(l Label) {
	fb.prog.jmp(l)
}

// BranchIf emits a conditional jump to l, taken when cond's raw bits are
// non-zero (spec.md §4.4's literal IfTrue polarity; the lowering pass is
// responsible for swapping target/fallthrough per cfg.Block.CondIsIfFalse
// when lowering an IfFalse terminator).
func (fb *FunctionBuilder) BranchIf(cond Value, l Label) {
	fb.prog.loadCellGP(cond.slot, scratch0)
	fb.prog.jmpIfNonZero(scratch0, l)
}

// Ret copies v into the function's dedicated return cell and emits a plain
// RET so the native entry point returns to its caller (the jitcall
// trampoline); Apply reads that cell back after control returns to Go, so
// whichever Ret executes supplies the result. The return cell is reserved
// by the first Ret and takes that Value's Type; every later Ret stores into
// it at that same width.
func (fb *FunctionBuilder) Ret(v Value) {
	if fb.retSlot == 0 {
		// v already occupies a cell, so the return cell is never cell 0.
		out := fb.allocCell(v.typ)
		fb.retSlot, fb.retType = out.slot, out.typ
	}
	fb.copyCell(v.slot, fb.retSlot, fb.retType)
	fb.prog.ret()
}
