// Command raxc is the rax compiler back end's CLI entry point
// (spec.md §6). Like the teacher's main.go (src/main.go), it is a
// thin "read options, read source, run the pipeline, report errors"
// shell with no logic of its own beyond wiring; the same separation of
// "run(opt) error" from "main() calls run and maps the error to an
// exit code" is kept.
package main

import (
	"fmt"
	"os"

	"rax/internal/dataflow"
	"rax/internal/driver"
	"rax/internal/ir"
	"rax/internal/ir/parse"
	"rax/internal/ir/printer"
	"rax/internal/regalloc"
	"rax/internal/util"
)

func main() {
	opt, err := util.ParseArgs(os.Args[1:])
	if err != nil {
		fmt.Printf("Command line argument error: %s\n", err)
		os.Exit(1)
	}
	if opt.Src == "" {
		fmt.Println("Error: no source file given")
		os.Exit(1)
	}

	if err := run(opt); err != nil {
		fmt.Printf("Error: %s\n", err)
		os.Exit(1)
	}
}

// run drives one compilation unit through the stage(s) selected by
// opt, mirroring the teacher's run(opt) shape in src/main.go.
func run(opt util.Options) error {
	src, err := util.ReadSource(opt.Src)
	if err != nil {
		return err
	}

	out, closeOut, err := util.OpenOutput(opt.Out)
	if err != nil {
		return err
	}
	defer func() { _ = closeOut() }()
	w := util.NewWriter(out)
	defer func() { _ = w.Flush() }()

	if opt.SpillMode {
		return runSpillMode(w, src)
	}

	prog, err := parse.Parse(src)
	if err != nil {
		return fmt.Errorf("parse error: %w", err)
	}

	if opt.DumpParsed {
		printer.PrintProgram(w, &prog)
		return nil
	}

	if opt.DumpLive || opt.DumpInterference {
		return runDiagnostics(w, &prog, opt)
	}

	result, err := driver.CompileProgram(prog, opt)
	if err != nil {
		return fmt.Errorf("compilation error: %w", err)
	}

	switch opt.From {
	case util.LayerL3:
		// Ran selection and allocation: the final textual form is L1,
		// and -g's "next layer" for an L1 program is assembly.
		if opt.EmitNext {
			printer.PrintAssembly(w, &result.Program)
			return nil
		}
		printer.PrintProgram(w, &result.Program)
	case util.LayerL2:
		if opt.EmitNext {
			printer.PrintAssembly(w, &result.Program)
			return nil
		}
		printer.PrintProgram(w, &result.Program)
	case util.LayerL1:
		printer.PrintAssembly(w, &result.Program)
	}
	return nil
}

// runSpillMode implements the -s CLI mode of spec.md §6: the source
// file holds a single bare function followed by a variable and a
// fresh-name prefix; the spilled function is printed.
func runSpillMode(w *util.Writer, src string) error {
	fn, v, prefix, err := parse.ParseSpillInput(src)
	if err != nil {
		return fmt.Errorf("parse error: %w", err)
	}
	spilled := regalloc.SpillVariablesWithPrefix(fn, []ir.Value{v}, prefix)
	printer.PrintFunction(w, &spilled)
	return nil
}

// runDiagnostics implements the -l and -i inspection flags: liveness
// and interference are recomputed per function (the L2→L1 allocator's
// own first two stages) and printed without running the full pipeline.
func runDiagnostics(w *util.Writer, prog *ir.Program, opt util.Options) error {
	for i1 := range prog.Functions {
		f := &prog.Functions[i1]
		live := dataflow.ComputeLiveness(f)
		if opt.DumpLive {
			printer.PrintLiveness(w, f, live)
		}
		if opt.DumpInterference {
			graph := regalloc.Build(f, live)
			printer.PrintInterference(w, f, graph)
		}
	}
	return nil
}
