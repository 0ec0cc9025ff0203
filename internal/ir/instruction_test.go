package ir

import (
	"reflect"
	"testing"
)

func TestValueString(t *testing.T) {
	tests := []struct {
		v    Value
		want string
	}{
		{Register(RAX), "rax"},
		{Immediate(-7), "-7"},
		{Label("L0"), ":L0"},
		{FunctionName("go"), "@go"},
		{Variable("t0"), "%t0"},
	}
	for _, tt := range tests {
		if got := tt.v.String(); got != tt.want {
			t.Errorf("Value.String() = %q, want %q", got, tt.want)
		}
	}
}

func TestInstructionUsesDef(t *testing.T) {
	x := Variable("x")
	y := Variable("y")

	assign := Assign(x, y)
	if got := assign.Uses(); !reflect.DeepEqual(got, []Value{y}) {
		t.Errorf("Assign.Uses() = %v, want [y]", got)
	}
	if d, ok := assign.Def(); !ok || d != x {
		t.Errorf("Assign.Def() = %v, %v, want x, true", d, ok)
	}

	store := Store(x, y, 8)
	if got := store.Uses(); !reflect.DeepEqual(got, []Value{x, y}) {
		t.Errorf("Store.Uses() = %v, want [x y]", got)
	}
	if _, ok := store.Def(); ok {
		t.Errorf("Store.Def() should have no def")
	}

	call := Call(x, true, FunctionName("f"), 2)
	uses := call.Uses()
	want := []Value{Register(RDI), Register(RSI)}
	if !reflect.DeepEqual(uses, want) {
		t.Errorf("Call.Uses() = %v, want %v", uses, want)
	}
	if _, ok := call.Def(); ok {
		t.Errorf("Call.Def() should be ambiguous (multiple clobbers), got a single def")
	}
	if len(call.Defs()) != 9 {
		t.Errorf("Call.Defs() len = %d, want 9 caller-save registers", len(call.Defs()))
	}

	ret := Return()
	if len(ret.Uses()) != 7 {
		t.Errorf("Return.Uses() len = %d, want 7 callee-save registers", len(ret.Uses()))
	}
}

func TestReplaceValue(t *testing.T) {
	x := Variable("x")
	rax := Register(RAX)
	i := Assign(x, Immediate(1))
	i2 := i.ReplaceValue(x, rax)
	if i2.Dst != rax {
		t.Errorf("ReplaceValue did not rewrite Dst: got %v", i2.Dst)
	}
	if i.Dst != x {
		t.Errorf("ReplaceValue mutated the receiver in place")
	}
}

func TestInstructionString(t *testing.T) {
	i := CJump(CompareLt, Variable("a"), Immediate(3), "L1")
	if got, want := i.String(), "cjump %a < 3 :L1"; got != want {
		t.Errorf("CJump.String() = %q, want %q", got, want)
	}
}
