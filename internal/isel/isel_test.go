package isel

import (
	"testing"

	"rax/internal/ir"
)

// TestSelectFunctionFusesLoadArith builds "t0 <- mem p+0; x += t0" where
// t0 has no other use, and checks the selector folds it into a single
// load-arith instruction instead of emitting both separately.
func TestSelectFunctionFusesLoadArith(t *testing.T) {
	p := ir.Variable("p")
	x := ir.Variable("x")
	t0 := ir.Variable("t0")

	blk := ir.BasicBlock{
		Name: "entry",
		Instructions: []ir.Instruction{
			ir.Load(t0, p, 0),
			ir.Arith(ir.ArithAdd, x, t0),
			ir.Return(),
		},
	}
	f := ir.Function{
		Name:   "f",
		Params: []ir.Value{p, x},
		Blocks: []ir.BasicBlock{blk},
		CFG:    ir.NewControlFlowGraph(1),
	}

	out := SelectFunction(&f)
	if len(out.Blocks) != 1 {
		t.Fatalf("expected 1 block, got %d", len(out.Blocks))
	}
	instrs := out.Blocks[0].Instructions

	foundLoadArith := false
	for _, i1 := range instrs {
		if i1.Op == ir.OpLoadArith {
			foundLoadArith = true
		}
		if i1.Op == ir.OpLoad {
			t.Errorf("expected the standalone Load to be folded away, found %v", i1)
		}
	}
	if !foundLoadArith {
		t.Errorf("expected a fused LoadArith instruction, got %v", instrs)
	}
}

func TestCreateContextsSplitsAtCall(t *testing.T) {
	a := ir.Variable("a")
	blk := ir.BasicBlock{
		Name: "entry",
		Instructions: []ir.Instruction{
			ir.Assign(a, ir.Immediate(1)),
			ir.Call(a, true, ir.FunctionName("g"), 0),
			ir.Return(),
		},
	}
	f := ir.Function{Blocks: []ir.BasicBlock{blk}, CFG: ir.NewControlFlowGraph(1)}

	ctxs := CreateContexts(&f)
	if len(ctxs) != 2 {
		t.Fatalf("expected 2 contexts (split before the call), got %d", len(ctxs))
	}
	if len(ctxs[0].Refs) != 1 {
		t.Errorf("expected the first context to hold only the assign, got %d instructions", len(ctxs[0].Refs))
	}
	if len(ctxs[1].Refs) != 2 {
		t.Errorf("expected the second context to hold call+return, got %d instructions", len(ctxs[1].Refs))
	}
}
