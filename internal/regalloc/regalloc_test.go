package regalloc

import (
	"fmt"
	"testing"

	"rax/internal/ir"
)

// chainFunction builds a += b; b += c; c += d; return, a four-variable
// chain with no spills expected: there are far fewer live variables at
// any program point than the 15 allocatable registers.
func chainFunction() ir.Function {
	a, b, c, d := ir.Variable("a"), ir.Variable("b"), ir.Variable("c"), ir.Variable("d")
	blk := ir.BasicBlock{
		Name: "entry",
		Instructions: []ir.Instruction{
			ir.Arith(ir.ArithAdd, a, b),
			ir.Arith(ir.ArithAdd, b, c),
			ir.Arith(ir.ArithAdd, c, d),
			ir.Return(),
		},
	}
	return ir.Function{
		Name:      "f",
		NumParams: 4,
		Params:    []ir.Value{a, b, c, d},
		Blocks:    []ir.BasicBlock{blk},
		CFG:       ir.NewControlFlowGraph(1),
	}
}

func TestAllocateFunctionNoSpill(t *testing.T) {
	f := chainFunction()
	res, err := AllocateFunction(f)
	if err != nil {
		t.Fatalf("AllocateFunction: %v", err)
	}
	for _, v := range f.Params {
		if _, ok := res.Color[v]; !ok {
			t.Errorf("parameter %v was not coloured", v)
		}
	}
}

func TestAllocateFunctionForcesSpill(t *testing.T) {
	// 16 independently defined variables, each still live when the next
	// is defined (none are used until the very end), forces a mutual
	// interference clique one node larger than the 15 allocatable
	// registers: Chaitin-Briggs colouring must spill at least one.
	const n = 16
	vars := make([]ir.Value, n)
	for i1 := range vars {
		vars[i1] = ir.Variable(fmt.Sprintf("v%d", i1))
	}

	var instrs []ir.Instruction
	for i1 := range vars {
		instrs = append(instrs, ir.Assign(vars[i1], ir.Immediate(int64(i1))))
	}
	acc := vars[0]
	for i1 := 1; i1 < n; i1++ {
		instrs = append(instrs, ir.Arith(ir.ArithAdd, acc, vars[i1]))
	}
	instrs = append(instrs, ir.Return())

	f := ir.Function{
		Name:   "g",
		Blocks: []ir.BasicBlock{{Name: "entry", Instructions: instrs}},
		CFG:    ir.NewControlFlowGraph(1),
	}

	res, err := AllocateFunction(f)
	if err != nil {
		t.Fatalf("AllocateFunction: %v", err)
	}
	if res.Function.Locals == 0 {
		t.Errorf("expected at least one spilled variable to grow Locals, got 0")
	}
}
