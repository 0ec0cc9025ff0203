package driver

import (
	"testing"

	"rax/internal/ir"
	"rax/internal/util"
)

// flatten concatenates every block's instructions in block order.
func flatten(f *ir.Function) []ir.Instruction {
	var out []ir.Instruction
	for _, blk := range f.Blocks {
		out = append(out, blk.Instructions...)
	}
	return out
}

// chainProgram builds an nFuncs-function program with a simple register
// chain in each function body, small enough that allocation never
// needs to spill.
func chainProgram(nFuncs int) ir.Program {
	p := ir.Program{Entry: "f0"}
	for fn := 0; fn < nFuncs; fn++ {
		a, b, c := ir.Variable("a"), ir.Variable("b"), ir.Variable("c")
		blk := ir.BasicBlock{
			Name: "entry",
			Instructions: []ir.Instruction{
				ir.Assign(a, ir.Immediate(1)),
				ir.Assign(b, ir.Immediate(2)),
				ir.Assign(c, ir.Immediate(3)),
				ir.Arith(ir.ArithAdd, b, a),
				ir.Arith(ir.ArithAdd, c, b),
				ir.Return(),
			},
		}
		p.Functions = append(p.Functions, ir.Function{
			Name:      nameOf(fn),
			NumParams: 0,
			Blocks:    []ir.BasicBlock{blk},
			CFG:       ir.NewControlFlowGraph(1),
		})
	}
	return p
}

func nameOf(i int) string {
	return "f" + string(rune('0'+i))
}

func TestCompileProgramL2AllocatesEveryVariable(t *testing.T) {
	p := chainProgram(3)
	opt := util.Options{From: util.LayerL2, Threads: 1}
	res, err := CompileProgram(p, opt)
	if err != nil {
		t.Fatalf("CompileProgram: %v", err)
	}
	if len(res.Program.Functions) != len(p.Functions) {
		t.Fatalf("expected %d functions, got %d", len(p.Functions), len(res.Program.Functions))
	}
	for i1 := range res.Program.Functions {
		f := res.Program.Functions[i1]
		for _, instr := range flatten(&f) {
			for _, v := range instr.Uses() {
				if v.IsVariable() {
					t.Errorf("function %s: use of %v was not coloured to a physical register", f.Name, v)
				}
			}
			if d, ok := instr.Def(); ok && d.IsVariable() {
				t.Errorf("function %s: def of %v was not coloured to a physical register", f.Name, d)
			}
		}
	}
}

func TestCompileProgramParallelMatchesSequential(t *testing.T) {
	p := chainProgram(4)

	seq, err := CompileProgram(p, util.Options{From: util.LayerL2, Threads: 1})
	if err != nil {
		t.Fatalf("sequential CompileProgram: %v", err)
	}
	par, err := CompileProgram(p, util.Options{From: util.LayerL2, Threads: 4})
	if err != nil {
		t.Fatalf("parallel CompileProgram: %v", err)
	}
	if len(seq.Program.Functions) != len(par.Program.Functions) {
		t.Fatalf("function count mismatch between sequential and parallel runs")
	}
	for i1 := range seq.Program.Functions {
		sf, pf := seq.Program.Functions[i1], par.Program.Functions[i1]
		seqInstrs := flatten(&sf)
		parInstrs := flatten(&pf)
		if len(seqInstrs) != len(parInstrs) {
			t.Fatalf("function %d: instruction count mismatch", i1)
		}
	}
}

func TestCompileProgramL1PassesThrough(t *testing.T) {
	p := chainProgram(1)
	res, err := CompileProgram(p, util.Options{From: util.LayerL1, Threads: 1})
	if err != nil {
		t.Fatalf("CompileProgram: %v", err)
	}
	rf, pf := res.Program.Functions[0], p.Functions[0]
	if len(flatten(&rf)) != len(flatten(&pf)) {
		t.Errorf("expected an already-allocated program to pass through unchanged")
	}
}
