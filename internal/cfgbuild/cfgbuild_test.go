package cfgbuild

import (
	"testing"

	"rax/internal/ir"
)

func TestBuildStraightLine(t *testing.T) {
	x := ir.Variable("x")
	flat := []ir.Instruction{
		ir.Assign(x, ir.Immediate(1)),
		ir.Return(),
	}
	f, err := Build("f", 0, nil, 0, flat)
	if err != nil {
		t.Fatalf("Build: %v", err)
	}
	if len(f.Blocks) != 1 {
		t.Fatalf("expected 1 block, got %d", len(f.Blocks))
	}
	if len(f.CFG.Succ[0]) != 0 {
		t.Errorf("return block should have no successors, got %v", f.CFG.Succ[0])
	}
}

func TestBuildLoop(t *testing.T) {
	x := ir.Variable("x")
	flat := []ir.Instruction{
		ir.MakeLabel("loop"),
		ir.Decrement(x),
		ir.CJump(ir.CompareLt, ir.Immediate(0), x, "loop"),
		ir.Return(),
	}
	f, err := Build("f", 0, nil, 0, flat)
	if err != nil {
		t.Fatalf("Build: %v", err)
	}
	if len(f.Blocks) != 2 {
		t.Fatalf("expected 2 blocks, got %d", len(f.Blocks))
	}
	if len(f.CFG.Succ[0]) != 2 {
		t.Errorf("loop block should branch to itself and fall through, got %v", f.CFG.Succ[0])
	}
	if len(f.CFG.Pred[0]) != 1 {
		t.Errorf("loop block should have itself as sole predecessor, got %v", f.CFG.Pred[0])
	}
}

func TestBuildUndefinedLabel(t *testing.T) {
	flat := []ir.Instruction{ir.Goto("nowhere")}
	if _, err := Build("f", 0, nil, 0, flat); err == nil {
		t.Errorf("expected an error for a goto to an undefined label")
	}
}
