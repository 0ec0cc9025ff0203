package dataflow

import (
	"testing"

	"rax/internal/ir"
)

// buildLinearFunction builds a single-block function computing
// t0 <- a + b; return, with a and b as parameters, to exercise
// liveness and reaching definitions over straight-line code.
func buildLinearFunction() ir.Function {
	a := ir.Variable("a")
	b := ir.Variable("b")
	t0 := ir.Variable("t0")

	blk := ir.BasicBlock{
		Name: "entry",
		Instructions: []ir.Instruction{
			ir.Assign(t0, a),
			ir.Arith(ir.ArithAdd, t0, b),
			ir.Return(),
		},
	}

	cfg := ir.NewControlFlowGraph(1)
	return ir.Function{
		Name:      "f",
		NumParams: 2,
		Params:    []ir.Value{a, b},
		Blocks:    []ir.BasicBlock{blk},
		CFG:       cfg,
	}
}

func TestLivenessLinear(t *testing.T) {
	f := buildLinearFunction()
	res := ComputeLiveness(&f)

	a := ir.Variable("a")
	b := ir.Variable("b")
	t0 := ir.Variable("t0")

	if !res.IsLiveIn(0, 0, a) {
		t.Errorf("a should be live-in at instruction 0")
	}
	if res.IsLiveIn(0, 0, b) == false {
		t.Errorf("b should be live-in at instruction 0 (used by instruction 1)")
	}
	if !res.IsLiveIn(0, 1, b) {
		t.Errorf("b should be live-in at instruction 1")
	}
	if res.IsLiveOut(0, 1, t0) {
		t.Errorf("t0 should be dead after instruction 1: return only uses physical registers, not t0")
	}
}

func TestReachingDefsLinear(t *testing.T) {
	f := buildLinearFunction()
	reach := ComputeReachingDefs(&f)

	// At instruction 1 (t0 += b), the reaching definition of t0 must be
	// instruction 0 (t0 <- a).
	site, ok := reach.Sites.Get(f.Blocks[0].Instructions[0])
	if !ok {
		t.Fatalf("instruction 0 was not interned as a definition site")
	}
	if !reach.ReachIn[0][1].Test(site) {
		t.Errorf("reach-in at instruction 1 should include the definition of t0 at instruction 0")
	}
}

func TestDefUseLinear(t *testing.T) {
	f := buildLinearFunction()
	reach := ComputeReachingDefs(&f)
	du := BuildDefUse(&f, reach)

	site, ok := reach.Sites.Get(f.Blocks[0].Instructions[0])
	if !ok {
		t.Fatalf("instruction 0 was not interned as a definition site")
	}
	user, ok := du.HasSingleUser(site)
	if !ok {
		t.Fatalf("expected instruction 0's definition to have exactly one user")
	}
	if user.Block != 0 || user.Index != 1 {
		t.Errorf("expected sole user to be instruction 1, got %+v", user)
	}
}
