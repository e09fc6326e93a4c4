package backend

import (
	"fmt"
	"math"
)

// Callable is a compiled function, callable any number of times. Each call
// gets a freshly zeroed cell pool, spec.md never describes locals as
// persisting across invocations, and a fresh call-your-own-frame is the
// simplest reading consistent with the reference interpreter, which
// allocates a fresh locals array per Interpret call.
type Callable struct {
	code    []byte
	region  *execRegion
	cells   int
	retSlot int
	retType Type
}

// Compile finalizes fb's IR and produces a Callable. It is the façade's
// compile()/closure() operation (spec.md §6): golang-asm assembles the
// accumulated obj.Prog list into a machine-code byte slice, which the
// Context's executable-memory allocator then copies into a mapping
// marked PROT_EXEC.
func (fb *FunctionBuilder) Compile() (*Callable, error) {
	code := fb.prog.assemble()
	if len(code) == 0 {
		return nil, &BackendError{Op: "Compile", Err: fmt.Errorf("empty machine code")}
	}
	region, err := fb.ctx.alloc.install(code)
	if err != nil {
		return nil, &BackendError{Op: "Compile", Err: err}
	}
	return &Callable{
		code:    code,
		region:  region,
		cells:   fb.cells,
		retSlot: fb.retSlot,
		retType: fb.retType,
	}, nil
}

// Apply invokes the compiled function once and returns its Ret value as a
// float32, converting from Int32 if that is how the function's result was
// typed (spec.md §4.4: the compiled callable's signature is fixed at
// ()->f32 for this core).
func (c *Callable) Apply() float32 {
	cells := make([]uint64, c.cells)
	jitcall(c.region.entry(), &cells)
	bits := uint32(cells[c.retSlot])
	if c.retType == Int32 {
		return float32(int32(bits))
	}
	return math.Float32frombits(bits)
}
