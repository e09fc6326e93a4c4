package backend

// Value is an opaque handle to a scalar produced somewhere in the IR: a
// constant, a local's current contents, or the result of an arithmetic,
// comparison, or bitwise operation. Every Value the façade hands out is
// backed by one cell in its FunctionBuilder's cell pool, there is no
// register allocator here; each op reads its operands from cells and
// writes its result to a freshly reserved cell, the same "everything lives
// in a flat memory array" discipline wagon's own backend uses for wasm
// locals and the wasm operand stack alike.
type Value struct {
	typ  Type
	slot int
}

// Type reports the Value's storage width.
func (v Value) Type() Type { return v.typ }

// Label is an opaque, forward-declarable branch target. It must be bound
// exactly once via SetLabel before the builder is finalized with Compile.
type Label struct {
	id int
}

// NewLabel allocates an unbound Label. Branches may reference it before
// it is bound, matching golang-asm's own forward-branch support (a Prog's
// branch target can be patched in after the branch instruction is
// emitted).
func (fb *FunctionBuilder) NewLabel() Label {
	return fb.prog.newLabel()
}

// SetLabel binds l to the current emission position. Per spec.md §4.4,
// every block in the lowering pass must bind exactly one Label before
// emitting its body.
func (fb *FunctionBuilder) SetLabel(l Label) {
	fb.prog.bindLabel(l)
}

// allocCell reserves the next free cell for t and returns the Value
// referring to it.
func (fb *FunctionBuilder) allocCell(t Type) Value {
	slot := fb.cells
	fb.cells++
	fb.cellType = append(fb.cellType, t)
	return Value{typ: t, slot: slot}
}

// CreateLocal pre-allocates one storage cell for a local of type t,
// returning the Value that names it going forward (spec.md §4.4 step 5:
// "pre-allocate one IR storage cell per local"). Locals must be created,
// in slot order, before any other Value is created, so that the lowering
// pass's locals[] indexing lines up with the cell pool's low indices; the
// façade does not enforce this ordering itself.
func (fb *FunctionBuilder) CreateLocal(t Type) Value {
	return fb.allocCell(t)
}
