// Package interp is the reference interpreter for bytecode.Function: the
// executable semantics spec.md §4.1 describes, used both for eager
// execution and as the oracle the JIT lowering pass is tested against
// (spec.md §8 invariant 5).
//
// Open Question (spec.md §9): the interpreter stores every scalar in a
// single numeric domain. The upstream reference (original_source/interpret.rs)
// settles this directly: its runtime stack is declared `stack: &mut ~[f32]`
// and ConstI32's operand is pushed as `operand as f32`, so this
// implementation follows suit and picks float32, not a wider type. Add,
// Sub, Mul, Div, and the comparisons operate directly on float32, matching
// interpret.rs's binary_opcode helper. Bitwise/logical opcodes (And, Or,
// Xor, Not) narrow their operands to int32 first (interpret.rs casts
// through `as uint` for the same ops), since a bitwise operation has no
// meaning on a float32 bit pattern here. Consequently integer overflow,
// modular wraparound, and division-by-zero behavior are only well-defined
// in the compiled path, exactly as spec.md §9 flags.
package interp

import (
	"errors"
	"fmt"

	"github.com/mhsato/stackjit/bytecode"
)

var (
	ErrStackUnderflow  = errors.New("interp: stack underflow")
	ErrSlotOutOfRange  = errors.New("interp: local slot out of range")
	ErrBranchOutOfRange = errors.New("interp: branch target out of range")
	ErrRanOffEnd       = errors.New("interp: program counter ran off the end without Ret")
)

// ExecutionError is a fatal, instruction-addressed interpreter error
// (spec.md §7's ExecutionError / StackUnderflow / MalformedBytecode kinds,
// as observed at run time rather than compile time).
type ExecutionError struct {
	IP  int
	Err error
}

func (e *ExecutionError) Error() string { return fmt.Sprintf("interp: at ip=%d: %v", e.IP, e.Err) }
func (e *ExecutionError) Unwrap() error { return e.Err }

// DispFunc receives the operand of a Disp instruction. The default
// interpreter hook, used when none is supplied to Interpret, discards it.
type DispFunc func(v float32)

// Interpret runs fn to completion and returns the popped operand of the
// first Ret encountered. If execution runs off the end of the instruction
// stream without hitting Ret, it returns ErrRanOffEnd wrapped in an
// ExecutionError (spec.md §4.1: "undefined program; implementations should
// report an error").
func Interpret(fn *bytecode.Function, disp DispFunc) (float32, error) {
	if disp == nil {
		disp = func(float32) {}
	}

	l := bytecode.LocalCount(fn)
	locals := make([]float32, l)
	stack := make([]float32, 0, 16)
	n := len(fn.Instrs)

	pop := func(ip int) (float32, error) {
		if len(stack) == 0 {
			return 0, &ExecutionError{IP: ip, Err: ErrStackUnderflow}
		}
		v := stack[len(stack)-1]
		stack = stack[:len(stack)-1]
		return v, nil
	}
	push := func(v float32) { stack = append(stack, v) }

	ip := 0
	for ip < n {
		in := fn.Instrs[ip]
		next := ip + 1

		switch in.Op {
		case bytecode.Nop:
		case bytecode.ConstI32:
			push(float32(in.I32))
		case bytecode.ConstF32:
			push(in.F32)
		case bytecode.LoadI32, bytecode.LoadF32:
			if int(in.U32) >= l {
				return 0, &ExecutionError{IP: ip, Err: ErrSlotOutOfRange}
			}
			push(locals[in.U32])
		case bytecode.Store:
			if int(in.U32) >= l {
				return 0, &ExecutionError{IP: ip, Err: ErrSlotOutOfRange}
			}
			v, err := pop(ip)
			if err != nil {
				return 0, err
			}
			locals[in.U32] = v
		case bytecode.Add, bytecode.Sub, bytecode.Mul, bytecode.Div:
			v1, err := pop(ip)
			if err != nil {
				return 0, err
			}
			v2, err := pop(ip)
			if err != nil {
				return 0, err
			}
			push(binaryArith(in.Op, v2, v1))
		case bytecode.And, bytecode.Or, bytecode.Xor:
			v1, err := pop(ip)
			if err != nil {
				return 0, err
			}
			v2, err := pop(ip)
			if err != nil {
				return 0, err
			}
			push(float32(binaryBitwise(in.Op, asInt32(v2), asInt32(v1))))
		case bytecode.Eq, bytecode.Neq, bytecode.Leq, bytecode.Geq, bytecode.Lt, bytecode.Gt:
			v1, err := pop(ip)
			if err != nil {
				return 0, err
			}
			v2, err := pop(ip)
			if err != nil {
				return 0, err
			}
			push(compare(in.Op, v2, v1))
		case bytecode.Negate:
			v, err := pop(ip)
			if err != nil {
				return 0, err
			}
			push(-v)
		case bytecode.Not:
			v, err := pop(ip)
			if err != nil {
				return 0, err
			}
			push(float32(^asInt32(v)))
		case bytecode.Jmp:
			if err := checkBranch(in.U32, n); err != nil {
				return 0, &ExecutionError{IP: ip, Err: err}
			}
			next = int(in.U32)
		case bytecode.IfTrue, bytecode.IfFalse:
			v, err := pop(ip)
			if err != nil {
				return 0, err
			}
			if err := checkBranch(in.U32, n); err != nil {
				return 0, &ExecutionError{IP: ip, Err: err}
			}
			taken := v != 0
			if in.Op == bytecode.IfFalse {
				taken = v == 0
			}
			if taken {
				next = int(in.U32)
			}
		case bytecode.Ret:
			v, err := pop(ip)
			if err != nil {
				return 0, err
			}
			return v, nil
		case bytecode.Disp:
			v, err := pop(ip)
			if err != nil {
				return 0, err
			}
			disp(v)
		}

		ip = next
	}
	return 0, &ExecutionError{IP: ip, Err: ErrRanOffEnd}
}

func checkBranch(target uint32, n int) error {
	if int(target) > n {
		return ErrBranchOutOfRange
	}
	return nil
}

func asInt32(v float32) int32 { return int32(v) }

func binaryArith(op bytecode.Op, v2, v1 float32) float32 {
	switch op {
	case bytecode.Add:
		return v2 + v1
	case bytecode.Sub:
		return v2 - v1
	case bytecode.Mul:
		return v2 * v1
	case bytecode.Div:
		return v2 / v1
	default:
		panic("interp: not a binary arithmetic opcode")
	}
}

func binaryBitwise(op bytecode.Op, v2, v1 int32) int32 {
	switch op {
	case bytecode.And:
		return v2 & v1
	case bytecode.Or:
		return v2 | v1
	case bytecode.Xor:
		return v2 ^ v1
	default:
		panic("interp: not a binary bitwise opcode")
	}
}

func compare(op bytecode.Op, v2, v1 float32) float32 {
	var result bool
	switch op {
	case bytecode.Eq:
		result = v2 == v1
	case bytecode.Neq:
		result = v2 != v1
	case bytecode.Leq:
		result = v2 <= v1
	case bytecode.Geq:
		result = v2 >= v1
	case bytecode.Lt:
		result = v2 < v1
	case bytecode.Gt:
		result = v2 > v1
	default:
		panic("interp: not a comparison opcode")
	}
	if result {
		return 1
	}
	return 0
}
