package parse

import (
	"testing"

	"rax/internal/ir"
)

func TestParseSimpleProgram(t *testing.T) {
	src := `
(@entry @main
  (@fn @main 0 1
    %x <- 1
    %x += 2
    :loop
    %x--
    cjump %x < 0 :done
    goto :loop
    :done
    return
  )
)
`
	prog, err := Parse(src)
	if err != nil {
		t.Fatalf("Parse: %v", err)
	}
	if prog.Entry != "main" {
		t.Errorf("expected entry main, got %q", prog.Entry)
	}
	if len(prog.Functions) != 1 {
		t.Fatalf("expected 1 function, got %d", len(prog.Functions))
	}
	f := prog.Functions[0]
	if f.Name != "main" || f.NumParams != 0 || f.Locals != 1 {
		t.Errorf("unexpected function header: %+v", f)
	}
	if len(f.Blocks) != 4 {
		t.Errorf("expected 4 blocks (entry, loop, the goto after the cjump, done), got %d", len(f.Blocks))
	}
}

func TestParseArithmeticAndCompareForms(t *testing.T) {
	src := `
(@entry @f
  (@fn @f 2 0
    %a <- stack-arg 0
    %b <- stack-arg 8
    %c <- mem %a+0
    mem %a+0 <- %b
    %c += mem %a+8
    mem %b+0 += %c
    %c <<= 2
    %c >>= rcx
    %d <- %a < %b
    %r <- call @helper, 2
    call @helper, 1
    %e <- input
    %p <- allocate
    %q <- lea %a, %b, 8
    tuple-error
    tensor-error 1
    return
  )
)
`
	prog, err := Parse(src)
	if err != nil {
		t.Fatalf("Parse: %v", err)
	}
	f := prog.Functions[0]
	if len(flatten(&f)) == 0 {
		t.Fatalf("expected a non-empty instruction stream")
	}
}

// flatten concatenates every block's instructions in block order, for
// tests that want to assert against the whole function body at once.
func flatten(f *ir.Function) []ir.Instruction {
	var out []ir.Instruction
	for _, blk := range f.Blocks {
		out = append(out, blk.Instructions...)
	}
	return out
}

func TestParseAssignVsCompareAmbiguity(t *testing.T) {
	// dst <- src (plain assign, no comparison operator follows lhs)
	// and dst <- lhs cmp rhs must both parse without the compare form
	// swallowing the assign form or vice versa.
	src := `
(@entry @f
  (@fn @f 0 0
    %a <- 5
    %b <- %a
    %c <- %a < %b
    return
  )
)
`
	prog, err := Parse(src)
	if err != nil {
		t.Fatalf("Parse: %v", err)
	}
	f := prog.Functions[0]
	instrs := flatten(&f)
	if len(instrs) != 4 {
		t.Fatalf("expected 4 instructions, got %d", len(instrs))
	}
	if instrs[0].Op != ir.OpAssign {
		t.Errorf("expected instr 0 to be OpAssign, got %v", instrs[0])
	}
	if instrs[1].Op != ir.OpAssign {
		t.Errorf("expected instr 1 to be OpAssign, got %v", instrs[1])
	}
	if instrs[2].Op != ir.OpCompare {
		t.Errorf("expected instr 2 to be OpCompare, got %v", instrs[2])
	}
}

func TestParseUndefinedLabelError(t *testing.T) {
	src := `
(@entry @f
  (@fn @f 0 0
    goto :nowhere
    return
  )
)
`
	if _, err := Parse(src); err == nil {
		t.Errorf("expected an error for a goto to an undefined label")
	}
}

func TestParseSpillInput(t *testing.T) {
	src := `
(@fn @f 1 0
  %x <- 1
  %x += %arg0
  return
)
%x spillx
`
	fn, v, prefix, err := ParseSpillInput(src)
	if err != nil {
		t.Fatalf("ParseSpillInput: %v", err)
	}
	if fn.Name != "f" {
		t.Errorf("expected function f, got %q", fn.Name)
	}
	if v != ir.Variable("x") {
		t.Errorf("expected spill target %%x, got %v", v)
	}
	if prefix != "spillx" {
		t.Errorf("expected prefix spillx, got %q", prefix)
	}
}

func TestParseMissingParenError(t *testing.T) {
	if _, err := Parse("@entry @f)"); err == nil {
		t.Errorf("expected an error for a missing opening paren")
	}
}
