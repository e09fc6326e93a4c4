// Command stackjit runs a handful of built-in sample programs (spec.md
// §8's S1-S6 scenarios) through both the reference interpreter and the
// JIT, printing both results side by side. It exists to exercise the
// module end to end, the same role wagon's cmd/wasm-run plays for that
// project: a thin driver with no framework, just stdlib flag and log.
package main

import (
	"flag"
	"fmt"
	"log"
	"os"

	"github.com/mhsato/stackjit/bytecode"
	"github.com/mhsato/stackjit/interp"
	"github.com/mhsato/stackjit/jit"
	"github.com/mhsato/stackjit/jit/backend"
)

func main() {
	log.SetPrefix("stackjit: ")
	log.SetFlags(0)

	strict := flag.Bool("strict", false, "promote type-inference warnings to errors")
	name := flag.String("run", "", "run only the named sample (default: all)")
	flag.Parse()

	policy := jit.Policy{Strict: *strict}

	for _, s := range samples {
		if *name != "" && s.name != *name {
			continue
		}
		runSample(os.Stdout, s, policy)
	}
}

type sample struct {
	name string
	fn   *bytecode.Function
}

func runSample(w *os.File, s sample, policy jit.Policy) {
	interpreted, err := interp.Interpret(s.fn, func(v float32) {
		fmt.Fprintf(w, "%s: disp %g\n", s.name, v)
	})
	if err != nil {
		fmt.Fprintf(w, "%-24s interp error: %v\n", s.name, err)
		return
	}

	line := fmt.Sprintf("%-24s interp=%-12g", s.name, interpreted)
	if !backend.Available() {
		fmt.Fprintf(w, "%s jit=unavailable\n", line)
		return
	}

	callable, err := jit.Compile(s.fn, policy)
	if err != nil {
		fmt.Fprintf(w, "%s jit error: %v\n", line, err)
		return
	}
	fmt.Fprintf(w, "%s jit=%-12g\n", line, callable.Apply())
}

// samples is the bytecode for spec.md §8's worked scenarios, used here
// purely as a demonstration corpus; the authoritative copies live beside
// the packages that test against them.
var samples = []sample{
	{"S1_constant", &bytecode.Function{Instrs: []bytecode.Instruction{
		bytecode.MakeConstF32(3.5), bytecode.MakeRet(),
	}}},
	{"S2_factorial10", &bytecode.Function{Instrs: []bytecode.Instruction{
		bytecode.MakeConstI32(10), bytecode.MakeStore(0),
		bytecode.MakeConstI32(1), bytecode.MakeStore(1),
		bytecode.MakeLoadI32(0), bytecode.MakeConstI32(1), bytecode.MakeLeq(), bytecode.MakeIfTrue(17),
		bytecode.MakeLoadI32(0), bytecode.MakeLoadI32(1), bytecode.MakeMul(), bytecode.MakeStore(1),
		bytecode.MakeLoadI32(0), bytecode.MakeConstI32(1), bytecode.MakeSub(), bytecode.MakeStore(0),
		bytecode.MakeJmp(4),
		bytecode.MakeLoadI32(1), bytecode.MakeRet(),
	}}},
	{"S4_branchFallthrough", &bytecode.Function{Instrs: []bytecode.Instruction{
		bytecode.MakeConstI32(0), bytecode.MakeIfTrue(3), bytecode.MakeConstI32(42), bytecode.MakeRet(),
	}}},
	{"S5_arithmeticStack", &bytecode.Function{Instrs: []bytecode.Instruction{
		bytecode.MakeConstF32(100), bytecode.MakeConstF32(102.22), bytecode.MakeMul(),
		bytecode.MakeConstF32(100), bytecode.MakeConstF32(102.22), bytecode.MakeAdd(),
		bytecode.MakeSub(), bytecode.MakeRet(),
	}}},
	{"S6_dispHook", &bytecode.Function{Instrs: []bytecode.Instruction{
		bytecode.MakeConstI32(7), bytecode.MakeDisp(), bytecode.MakeConstI32(0), bytecode.MakeRet(),
	}}},
}
