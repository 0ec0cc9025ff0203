// assembly.go renders an L1 ir.Program (physical registers and stack
// slots only) to AT&T-syntax x86-64 assembly, spec.md §6's final
// external collaborator: "L1's code generator writes prog.S ...
// .text, .globl go, entry trampoline that saves/restores callee-save,
// calls the entry symbol, returns." spec.md §9's open question notes
// the source oscillates between "globl" and ".globl"; this follows the
// spec's own ruling and always emits the AT&T-correct ".globl".
//
// Grounded on the shape of the teacher's ARM/RISC-V printers
// (backend/arm/print.go, backend/riscv/print.go) — one function per
// instruction kind, walking a function's blocks in order and writing
// through the shared util.Writer — retargeted from those two RISC
// ISAs to AT&T x86-64 two-operand syntax, since the teacher's own
// backend/asm.go (the x86 entry point) was never implemented.
package printer

import (
	"fmt"

	"rax/internal/ir"
	"rax/internal/util"
)

// PrintAssembly renders every function of p as AT&T x86-64 assembly,
// plus the entry trampoline spec.md §6 requires: a "go" symbol that
// saves/restores the callee-save registers around a call to p.Entry.
func PrintAssembly(w *util.Writer, p *ir.Program) {
	w.WriteString(".text\n")
	w.WriteString(".globl go\n")
	w.WriteString("go:\n")
	for _, r := range ir.CalleeSaveRegisters {
		if r == ir.RAX {
			continue
		}
		w.Write("\tpushq %%%s\n", r)
	}
	w.Write("\tcallq %s\n", p.Entry)
	for i1 := len(ir.CalleeSaveRegisters) - 1; i1 >= 0; i1-- {
		r := ir.CalleeSaveRegisters[i1]
		if r == ir.RAX {
			continue
		}
		w.Write("\tpopq %%%s\n", r)
	}
	w.WriteString("\tret\n")

	for i1 := range p.Functions {
		printFunctionAsm(w, &p.Functions[i1])
	}
}

func printFunctionAsm(w *util.Writer, f *ir.Function) {
	w.Write(".globl %s\n", f.Name)
	w.Write("%s:\n", f.Name)
	w.WriteString("\tpushq %rbp\n")
	w.WriteString("\tmovq %rsp, %rbp\n")
	if f.Locals > 0 {
		w.Write("\tsubq $%d, %%rsp\n", f.Locals*8)
	}

	for b, blk := range f.Blocks {
		if b > 0 && blk.Name != "" {
			w.Write("%s:\n", blk.Name)
		}
		for _, instr := range blk.Instructions {
			printInstructionAsm(w, instr)
		}
	}
}

func operand(v ir.Value) string {
	switch v.Kind {
	case ir.KindRegister:
		return "%" + v.Reg.String()
	case ir.KindImmediate:
		return fmt.Sprintf("$%d", v.Imm)
	case ir.KindLabel:
		return v.Sym
	case ir.KindFunctionName:
		return v.Sym
	default:
		panic(fmt.Sprintf("printer: value %v has no physical operand (did register allocation run?)", v))
	}
}

func mem(base ir.Value, offset int64) string {
	return fmt.Sprintf("%d(%s)", offset, operand(base))
}

func arithMnemonic(op ir.ArithOp) string {
	switch op {
	case ir.ArithAdd:
		return "addq"
	case ir.ArithSub:
		return "subq"
	case ir.ArithMul:
		return "imulq"
	case ir.ArithAnd:
		return "andq"
	default:
		panic(fmt.Sprintf("printer: invalid arith op %d", op))
	}
}

func shiftMnemonic(op ir.ShiftOp) string {
	switch op {
	case ir.ShiftLeft:
		return "shlq"
	case ir.ShiftRight:
		return "shrq"
	default:
		panic(fmt.Sprintf("printer: invalid shift op %d", op))
	}
}

// setMnemonic maps a comparison to the SETcc suffix used after cmpq
// lhs, rhs to materialize a 0/1 boolean into a register.
func setMnemonic(op ir.CompareOp) string {
	switch op {
	case ir.CompareLt:
		return "setl"
	case ir.CompareLe:
		return "setle"
	case ir.CompareEq:
		return "sete"
	default:
		panic(fmt.Sprintf("printer: invalid compare op %d", op))
	}
}

func jumpMnemonic(op ir.CompareOp) string {
	switch op {
	case ir.CompareLt:
		return "jl"
	case ir.CompareLe:
		return "jle"
	case ir.CompareEq:
		return "je"
	default:
		panic(fmt.Sprintf("printer: invalid compare op %d", op))
	}
}

// shiftSource renders a shift's count operand: the spec requires it be
// either an immediate or the fixed %cl register (spec.md §4.1, §7.5).
func shiftSource(v ir.Value) string {
	if v.Kind == ir.KindImmediate {
		return fmt.Sprintf("$%d", v.Imm)
	}
	if r, ok := v.IsRegister(); ok && r == ir.ShiftCountRegister {
		return "%cl"
	}
	panic(fmt.Sprintf("printer: shift source %v is neither an immediate nor %%rcx", v))
}

func printInstructionAsm(w *util.Writer, i ir.Instruction) {
	switch i.Op {
	case ir.OpAssign:
		w.Write("\tmovq %s, %s\n", operand(i.Src), operand(i.Dst))
	case ir.OpLoad:
		w.Write("\tmovq %s, %s\n", mem(i.Src, i.Offset), operand(i.Dst))
	case ir.OpStore:
		w.Write("\tmovq %s, %s\n", operand(i.Src), mem(i.Dst, i.Offset))
	case ir.OpStackArg:
		w.Write("\tmovq %s, %s\n", mem(ir.Register(ir.RBP), i.Offset+16), operand(i.Dst))
	case ir.OpArith:
		w.Write("\t%s %s, %s\n", arithMnemonic(i.ArithOp), operand(i.Src), operand(i.Dst))
	case ir.OpShift:
		w.Write("\t%s %s, %s\n", shiftMnemonic(i.ShiftOp), shiftSource(i.Src), operand(i.Dst))
	case ir.OpLoadArith:
		w.Write("\t%s %s, %s\n", arithMnemonic(i.ArithOp), mem(i.Src, i.Offset), operand(i.Dst))
	case ir.OpStoreArith:
		w.Write("\t%s %s, %s\n", arithMnemonic(i.ArithOp), operand(i.Src), mem(i.Dst, i.Offset))
	case ir.OpCompare:
		w.Write("\tcmpq %s, %s\n", operand(i.Rhs), operand(i.Lhs))
		w.Write("\t%s %%al\n", setMnemonic(i.CompareOp))
		w.Write("\tmovzbq %%al, %s\n", operand(i.Dst))
	case ir.OpCJump:
		w.Write("\tcmpq %s, %s\n", operand(i.Rhs), operand(i.Lhs))
		w.Write("\t%s %s\n", jumpMnemonic(i.CompareOp), i.Target)
	case ir.OpLabel:
		w.Write("%s:\n", i.Target)
	case ir.OpGoto:
		w.Write("\tjmp %s\n", i.Target)
	case ir.OpReturn:
		w.WriteString("\tleave\n")
		w.WriteString("\tret\n")
	case ir.OpCall:
		w.Write("\tcallq %s\n", operand(i.Callee))
	case ir.OpPrint:
		w.WriteString("\tcallq rax_print\n")
	case ir.OpInput:
		w.WriteString("\tcallq rax_input\n")
		w.Write("\tmovq %%rax, %s\n", operand(i.Dst))
	case ir.OpAllocate:
		w.WriteString("\tcallq rax_allocate\n")
		w.Write("\tmovq %%rax, %s\n", operand(i.Dst))
	case ir.OpTupleError:
		w.WriteString("\tcallq rax_tuple_error\n")
	case ir.OpTensorError:
		w.Write("\tcallq rax_tensor_error%d\n", i.TensorArity)
	case ir.OpIncrement:
		w.Write("\tincq %s\n", operand(i.Dst))
	case ir.OpDecrement:
		w.Write("\tdecq %s\n", operand(i.Dst))
	case ir.OpLEA:
		w.Write("\tleaq (%s,%s,%d), %s\n", operand(i.Base), operand(i.Index), i.Scale, operand(i.Dst))
	default:
		panic(fmt.Sprintf("printer: unhandled op %d in assembly emission", i.Op))
	}
}
