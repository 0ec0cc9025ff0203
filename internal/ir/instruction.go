// instruction.go defines the closed set of three-address instructions
// and their pure uses()/def() observers (spec.md §4.1). Grounded
// directly on the original_source draft's Instruction enum
// (l2/src/lib.rs) and its Display impl, which fixes the textual syntax
// every variant below mirrors.
package ir

import "fmt"

// ----------------------------
// ----- Type definitions -----
// ----------------------------

// Op discriminates the variants of Instruction.
type Op uint8

const (
	OpAssign      Op = iota // dst <- src
	OpLoad                  // dst <- mem src+offset
	OpStore                 // mem dst+offset <- src
	OpStackArg              // dst <- stack-arg offset
	OpArith                 // dst arithOp= src
	OpShift                 // dst shiftOp= src
	OpLoadArith             // dst arithOp= mem src+offset
	OpStoreArith            // mem dst+offset arithOp= src
	OpCompare               // dst <- lhs compareOp rhs
	OpCJump                 // cjump lhs compareOp rhs :label
	OpLabel                 // :label
	OpGoto                  // goto :label
	OpReturn                // return
	OpCall                  // dst <- call callee, nargs   (dst optional)
	OpPrint                 // print
	OpInput                 // dst <- input
	OpAllocate              // dst <- allocate
	OpTupleError            // tuple-error
	OpTensorError           // tensor-error arity
	OpIncrement             // dst++
	OpDecrement             // dst--
	OpLEA                   // dst <- lea base, index, scale
)

// ArithOp discriminates OpArith/OpLoadArith/OpStoreArith variants.
type ArithOp uint8

const (
	ArithAdd ArithOp = iota
	ArithSub
	ArithMul
	ArithAnd
)

// ShiftOp discriminates OpShift variants.
type ShiftOp uint8

const (
	ShiftLeft ShiftOp = iota
	ShiftRight
)

// CompareOp discriminates OpCompare/OpCJump variants.
type CompareOp uint8

const (
	CompareLt CompareOp = iota
	CompareLe
	CompareEq
)

// Instruction is one three-address-code operation. Exactly the fields
// relevant to Op are meaningful; the rest are zero. This mirrors
// spec.md §9's instruction to use a tagged variant matched with a
// total switch rather than a dynamic-dispatch interface hierarchy.
type Instruction struct {
	Op Op

	Dst Value // OpAssign/OpLoad/OpStackArg/OpArith/OpShift/OpLoadArith/OpCompare/OpCall/OpInput/OpAllocate/OpIncrement/OpDecrement/OpLEA destination; OpStore/OpStoreArith memory base.
	Src Value // OpAssign/OpStore/OpArith/OpShift/OpStoreArith source; OpLoad/OpLoadArith memory base.

	Lhs Value // OpCompare/OpCJump left operand.
	Rhs Value // OpCompare/OpCJump right operand.

	Offset int64 // OpLoad/OpStore/OpStackArg/OpLoadArith/OpStoreArith byte offset (a multiple of 8).

	ArithOp   ArithOp
	ShiftOp   ShiftOp
	CompareOp CompareOp

	Target string // OpCJump/OpGoto/OpLabel symbol.

	Callee     Value // OpCall callee.
	NArgs      int64 // OpCall argument count.
	HasResult  bool  // OpCall: whether Dst is meaningful.

	TensorArity int // OpTensorError arity.

	Base  Value // OpLEA base.
	Index Value // OpLEA index.
	Scale int64 // OpLEA scale.
}

// ---------------------
// ----- Functions -----
// ---------------------

// Assign constructs a "dst <- src" instruction.
func Assign(dst, src Value) Instruction {
	return Instruction{Op: OpAssign, Dst: dst, Src: src}
}

// Load constructs a "dst <- mem src+offset" instruction.
func Load(dst, src Value, offset int64) Instruction {
	return Instruction{Op: OpLoad, Dst: dst, Src: src, Offset: offset}
}

// Store constructs a "mem dst+offset <- src" instruction.
func Store(dst, src Value, offset int64) Instruction {
	return Instruction{Op: OpStore, Dst: dst, Src: src, Offset: offset}
}

// StackArg constructs a "dst <- stack-arg offset" instruction.
func StackArg(dst Value, offset int64) Instruction {
	return Instruction{Op: OpStackArg, Dst: dst, Offset: offset}
}

// Arith constructs a "dst arithOp= src" instruction.
func Arith(op ArithOp, dst, src Value) Instruction {
	return Instruction{Op: OpArith, ArithOp: op, Dst: dst, Src: src}
}

// Shift constructs a "dst shiftOp= src" instruction. src must be an
// immediate or the rcx register (spec.md §4.1, §7 edge cases).
func Shift(op ShiftOp, dst, src Value) Instruction {
	return Instruction{Op: OpShift, ShiftOp: op, Dst: dst, Src: src}
}

// LoadArith constructs a "dst arithOp= mem src+offset" instruction.
func LoadArith(op ArithOp, dst, src Value, offset int64) Instruction {
	return Instruction{Op: OpLoadArith, ArithOp: op, Dst: dst, Src: src, Offset: offset}
}

// StoreArith constructs a "mem dst+offset arithOp= src" instruction.
func StoreArith(op ArithOp, dst, src Value, offset int64) Instruction {
	return Instruction{Op: OpStoreArith, ArithOp: op, Dst: dst, Src: src, Offset: offset}
}

// Compare constructs a "dst <- lhs compareOp rhs" instruction.
func Compare(op CompareOp, dst, lhs, rhs Value) Instruction {
	return Instruction{Op: OpCompare, CompareOp: op, Dst: dst, Lhs: lhs, Rhs: rhs}
}

// CJump constructs a "cjump lhs compareOp rhs :target" instruction.
func CJump(op CompareOp, lhs, rhs Value, target string) Instruction {
	return Instruction{Op: OpCJump, CompareOp: op, Lhs: lhs, Rhs: rhs, Target: target}
}

// MakeLabel constructs a ":target" label instruction.
func MakeLabel(target string) Instruction {
	return Instruction{Op: OpLabel, Target: target}
}

// Goto constructs a "goto :target" instruction.
func Goto(target string) Instruction {
	return Instruction{Op: OpGoto, Target: target}
}

// Return constructs a "return" instruction.
func Return() Instruction {
	return Instruction{Op: OpReturn}
}

// Call constructs a "[dst <-] call callee, nargs" instruction.
func Call(dst Value, hasResult bool, callee Value, nargs int64) Instruction {
	return Instruction{Op: OpCall, Dst: dst, HasResult: hasResult, Callee: callee, NArgs: nargs}
}

// Print constructs a "print" instruction.
func Print() Instruction {
	return Instruction{Op: OpPrint}
}

// Input constructs a "dst <- input" instruction.
func Input(dst Value) Instruction {
	return Instruction{Op: OpInput, Dst: dst}
}

// Allocate constructs a "dst <- allocate" instruction.
func Allocate(dst Value) Instruction {
	return Instruction{Op: OpAllocate, Dst: dst}
}

// TupleError constructs a "tuple-error" instruction.
func TupleError() Instruction {
	return Instruction{Op: OpTupleError}
}

// TensorError constructs a "tensor-error arity" instruction.
func TensorError(arity int) Instruction {
	return Instruction{Op: OpTensorError, TensorArity: arity}
}

// Increment constructs a "dst++" instruction.
func Increment(dst Value) Instruction {
	return Instruction{Op: OpIncrement, Dst: dst}
}

// Decrement constructs a "dst--" instruction.
func Decrement(dst Value) Instruction {
	return Instruction{Op: OpDecrement, Dst: dst}
}

// LEA constructs a "dst <- lea base, index, scale" instruction.
func LEA(dst, base, index Value, scale int64) Instruction {
	return Instruction{Op: OpLEA, Dst: dst, Base: base, Index: index, Scale: scale}
}

// IsControlFlow reports whether i ends a basic block (spec.md §3 CFG
// construction splits blocks before labels and after jumps/returns).
func (i Instruction) IsControlFlow() bool {
	switch i.Op {
	case OpGoto, OpCJump, OpReturn, OpTupleError, OpTensorError:
		return true
	default:
		return false
	}
}

// IsLabel reports whether i begins a new basic block.
func (i Instruction) IsLabel() bool {
	return i.Op == OpLabel
}

// Uses returns the general purpose values read by i, in a stable
// order, per the uses/def table of spec.md §4.1.
func (i Instruction) Uses() []Value {
	gp := func(vs ...Value) []Value {
		out := make([]Value, 0, len(vs))
		for _, v := range vs {
			if v.IsGeneralPurpose() {
				out = append(out, v)
			}
		}
		return out
	}
	switch i.Op {
	case OpAssign:
		return gp(i.Src)
	case OpLoad:
		return gp(i.Src)
	case OpStore:
		return gp(i.Dst, i.Src)
	case OpStackArg:
		return nil
	case OpArith, OpShift:
		return gp(i.Dst, i.Src)
	case OpLoadArith:
		return gp(i.Dst, i.Src)
	case OpStoreArith:
		return gp(i.Dst, i.Src)
	case OpCompare, OpCJump:
		return gp(i.Lhs, i.Rhs)
	case OpLabel, OpGoto:
		return nil
	case OpReturn:
		out := make([]Value, 0, len(CalleeSaveRegisters))
		for _, r := range CalleeSaveRegisters {
			out = append(out, Register(r))
		}
		return out
	case OpCall:
		out := gp(i.Callee)
		n := i.NArgs
		if n > int64(len(ArgRegisters)) {
			n = int64(len(ArgRegisters))
		}
		for a := int64(0); a < n; a++ {
			out = append(out, Register(ArgRegisters[a]))
		}
		return out
	case OpPrint:
		return []Value{Register(RDI)}
	case OpInput:
		return nil
	case OpAllocate:
		return []Value{Register(RDI), Register(RSI)}
	case OpTupleError:
		return []Value{Register(RDI), Register(RSI), Register(RDX)}
	case OpTensorError:
		regs := ArgRegisters
		n := i.TensorArity
		if n > len(regs) {
			n = len(regs)
		}
		out := make([]Value, 0, n)
		for a := 0; a < n; a++ {
			out = append(out, Register(regs[a]))
		}
		return out
	case OpIncrement, OpDecrement:
		return gp(i.Dst)
	case OpLEA:
		return gp(i.Base, i.Index)
	default:
		panic(fmt.Sprintf("ir: unhandled op %d in Uses", i.Op))
	}
}

// Defs returns every general purpose value written by i, in a stable
// order. For ordinary instructions this has at most one element; for
// call-like instructions it is the full caller-save clobber set, since
// liveness and interference both need the full kill/def set, not just
// the single distinguished destination variable (see Def).
func (i Instruction) Defs() []Value {
	switch i.Op {
	case OpAssign, OpLoad, OpStackArg, OpArith, OpShift, OpLoadArith,
		OpCompare, OpInput, OpAllocate, OpIncrement, OpDecrement, OpLEA:
		if i.Dst.IsGeneralPurpose() {
			return []Value{i.Dst}
		}
		return nil
	case OpStore, OpStoreArith, OpCJump, OpLabel, OpGoto, OpReturn, OpTupleError:
		return nil
	case OpCall:
		out := make([]Value, 0, len(CallerSaveRegisters))
		for _, r := range CallerSaveRegisters {
			out = append(out, Register(r))
		}
		return out
	case OpPrint:
		out := make([]Value, 0, len(CallerSaveRegisters))
		for _, r := range CallerSaveRegisters {
			out = append(out, Register(r))
		}
		return out
	case OpTensorError:
		out := make([]Value, 0, len(CallerSaveRegisters))
		for _, r := range CallerSaveRegisters {
			out = append(out, Register(r))
		}
		return out
	default:
		panic(fmt.Sprintf("ir: unhandled op %d in Defs", i.Op))
	}
}

// Def returns the single general purpose value i defines, if i defines
// exactly one. Reaching-definitions (spec.md §4.4) tracks definition
// sites in this singular sense: a call clobbers many registers at once
// (see Defs) but is not "the" definition site of any one variable, so
// it never participates in a def-use chain.
func (i Instruction) Def() (Value, bool) {
	d := i.Defs()
	if len(d) == 1 {
		return d[0], true
	}
	return Value{}, false
}

// ReplaceValue returns a copy of i with every occurrence of old among
// its general purpose operands replaced by repl. Used by the register
// allocator's colouring pass and by the spiller to rewrite variables
// in place (spec.md §9 Design Notes).
func (i Instruction) ReplaceValue(old, repl Value) Instruction {
	r := func(v Value) Value {
		if v == old {
			return repl
		}
		return v
	}
	i.Dst = r(i.Dst)
	i.Src = r(i.Src)
	i.Lhs = r(i.Lhs)
	i.Rhs = r(i.Rhs)
	i.Callee = r(i.Callee)
	i.Base = r(i.Base)
	i.Index = r(i.Index)
	return i
}

func (op ArithOp) String() string {
	switch op {
	case ArithAdd:
		return "+="
	case ArithSub:
		return "-="
	case ArithMul:
		return "*="
	case ArithAnd:
		return "&="
	default:
		panic(fmt.Sprintf("ir: invalid arith op %d", op))
	}
}

func (op ShiftOp) String() string {
	switch op {
	case ShiftLeft:
		return "<<="
	case ShiftRight:
		return ">>="
	default:
		panic(fmt.Sprintf("ir: invalid shift op %d", op))
	}
}

func (op CompareOp) String() string {
	switch op {
	case CompareLt:
		return "<"
	case CompareLe:
		return "<="
	case CompareEq:
		return "="
	default:
		panic(fmt.Sprintf("ir: invalid compare op %d", op))
	}
}

// String renders i in its textual IR form (spec.md §6).
func (i Instruction) String() string {
	switch i.Op {
	case OpAssign:
		return fmt.Sprintf("%s <- %s", i.Dst, i.Src)
	case OpLoad:
		return fmt.Sprintf("%s <- mem %s+%d", i.Dst, i.Src, i.Offset)
	case OpStore:
		return fmt.Sprintf("mem %s+%d <- %s", i.Dst, i.Offset, i.Src)
	case OpStackArg:
		return fmt.Sprintf("%s <- stack-arg %d", i.Dst, i.Offset)
	case OpArith:
		return fmt.Sprintf("%s %s %s", i.Dst, i.ArithOp, i.Src)
	case OpShift:
		return fmt.Sprintf("%s %s %s", i.Dst, i.ShiftOp, i.Src)
	case OpLoadArith:
		return fmt.Sprintf("%s %s mem %s+%d", i.Dst, i.ArithOp, i.Src, i.Offset)
	case OpStoreArith:
		return fmt.Sprintf("mem %s+%d %s %s", i.Dst, i.Offset, i.ArithOp, i.Src)
	case OpCompare:
		return fmt.Sprintf("%s <- %s %s %s", i.Dst, i.Lhs, i.CompareOp, i.Rhs)
	case OpCJump:
		return fmt.Sprintf("cjump %s %s %s :%s", i.Lhs, i.CompareOp, i.Rhs, i.Target)
	case OpLabel:
		return fmt.Sprintf(":%s", i.Target)
	case OpGoto:
		return fmt.Sprintf("goto :%s", i.Target)
	case OpReturn:
		return "return"
	case OpCall:
		if i.HasResult {
			return fmt.Sprintf("%s <- call %s, %d", i.Dst, i.Callee, i.NArgs)
		}
		return fmt.Sprintf("call %s, %d", i.Callee, i.NArgs)
	case OpPrint:
		return "print"
	case OpInput:
		return fmt.Sprintf("%s <- input", i.Dst)
	case OpAllocate:
		return fmt.Sprintf("%s <- allocate", i.Dst)
	case OpTupleError:
		return "tuple-error"
	case OpTensorError:
		return fmt.Sprintf("tensor-error %d", i.TensorArity)
	case OpIncrement:
		return fmt.Sprintf("%s++", i.Dst)
	case OpDecrement:
		return fmt.Sprintf("%s--", i.Dst)
	case OpLEA:
		return fmt.Sprintf("%s <- lea %s, %s, %d", i.Dst, i.Base, i.Index, i.Scale)
	default:
		panic(fmt.Sprintf("ir: unhandled op %d in String", i.Op))
	}
}
