package printer

import (
	"bytes"
	"strings"
	"testing"

	"rax/internal/ir"
	"rax/internal/ir/parse"
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

const roundTripSource = `
(@entry @f
  (@fn @f 1 0
    %x <- stack-arg 0
    %x += 1
    :loop
    %x--
    cjump %x < 0 :done
    goto :loop
    :done
    return
  )
)
`

// TestRoundTrip checks the idempotence property: parsing and
// re-printing a program yields a program that parses to the same
// instruction stream (spec.md §8).
func TestRoundTrip(t *testing.T) {
	prog, err := parse.Parse(roundTripSource)
	if err != nil {
		t.Fatalf("Parse: %v", err)
	}

	var buf bytes.Buffer
	w := util.NewWriter(&buf)
	PrintProgram(w, &prog)
	if err := w.Flush(); err != nil {
		t.Fatalf("Flush: %v", err)
	}

	reparsed, err := parse.Parse(buf.String())
	if err != nil {
		t.Fatalf("re-Parse of printed output failed: %v\noutput:\n%s", err, buf.String())
	}

	if reparsed.Entry != prog.Entry {
		t.Errorf("entry mismatch: %q vs %q", reparsed.Entry, prog.Entry)
	}
	if len(reparsed.Functions) != len(prog.Functions) {
		t.Fatalf("function count mismatch: %d vs %d", len(reparsed.Functions), len(prog.Functions))
	}

	origF, againF := prog.Functions[0], reparsed.Functions[0]
	orig := flatten(&origF)
	again := flatten(&againF)
	if len(orig) != len(again) {
		t.Fatalf("instruction count mismatch: %d vs %d", len(orig), len(again))
	}
	for i1 := range orig {
		if orig[i1].String() != again[i1].String() {
			t.Errorf("instruction %d changed across round-trip: %q vs %q", i1, orig[i1].String(), again[i1].String())
		}
	}
}

func TestPrintProgramContainsEntryHeader(t *testing.T) {
	prog, err := parse.Parse(roundTripSource)
	if err != nil {
		t.Fatalf("Parse: %v", err)
	}
	var buf bytes.Buffer
	w := util.NewWriter(&buf)
	PrintProgram(w, &prog)
	_ = w.Flush()
	if !strings.Contains(buf.String(), "(@entry @f") {
		t.Errorf("expected printed output to contain the entry header, got:\n%s", buf.String())
	}
}
