// Package printer renders an ir.Program back to the textual IR form
// read by internal/ir/parse (spec.md §6, "L2's code generator writes
// prog.L1 ... L3 analogously writes prog.L2") and, for the final L1
// layer, to AT&T x86-64 assembly (assembly.go). Like parsing, pretty
// printing is spec.md's other explicitly thin external collaborator;
// it is a direct consumer of the total String() methods internal/ir
// already carries for every Value/Instruction variant, the same way
// the teacher's print.go files (ir/lir/print.go, backend/arm/print.go,
// backend/riscv/print.go) are each a thin walk over an already-fully-
// Stringer'd instruction set.
package printer

import (
	"rax/internal/ir"
	"rax/internal/util"
)

// PrintProgram renders p in the parenthesized textual IR form
// understood by parse.Parse: "(@entry name (@fn name nparams locals
// instr*) ...)".
func PrintProgram(w *util.Writer, p *ir.Program) {
	w.Write("(@entry @%s\n", p.Entry)
	for i1 := range p.Functions {
		PrintFunction(w, &p.Functions[i1])
	}
	w.WriteString(")\n")
}

// PrintFunction renders one function, its blocks flattened back into
// a single instruction stream with label instructions reintroduced at
// each block boundary that is not the function's first block (the
// first block's own implicit label is the function name itself).
func PrintFunction(w *util.Writer, f *ir.Function) {
	w.Write("  (@fn @%s %d %d\n", f.Name, f.NumParams, f.Locals)
	for b, blk := range f.Blocks {
		if b > 0 && blk.Name != "" {
			w.Write("    :%s\n", blk.Name)
		}
		for _, instr := range blk.Instructions {
			w.Write("    %s\n", instr.String())
		}
	}
	w.WriteString("  )\n")
}
