// args.go provides command line argument parsing for the raxc driver.
//
// Adapted from the teacher's util.ParseArgs: same hand-rolled switch-driven
// argument loop and text/tabwriter-based help message, retargeted from the
// VSL front end's flags to the flags of spec.md §6 (-v -g -s -l -i).

package util

import (
	"fmt"
	"os"
	"strconv"
	"text/tabwriter"
)

// Layer names an input textual IR layer, selecting which of the three
// stages (§1: L3→L2 selection, L2→L1 allocation, L1→assembly) raxc
// runs. The teacher builds one tool per target architecture selected
// by -t arch; rax instead builds one tool for three pipeline stages,
// so it needs the analogous -from flag to say which stage applies to
// the given source file (spec.md's own grammar does not distinguish
// L1/L2/L3 syntactically, since L2 and L3 share an instruction set and
// only differ in whether variables have been assigned registers yet).
type Layer int

const (
	LayerL3 Layer = iota // Pre-selection: named variables only, no physical registers chosen.
	LayerL2              // Post-selection, pre-allocation: physical registers and virtual variables coexist.
	LayerL1              // Post-allocation: only physical registers and spill slots remain.
)

// Options holds the parsed command line configuration for a single
// invocation of raxc.
type Options struct {
	Src     string // Path to the input textual IR file.
	Out     string // Path to the output file; empty means stdout.
	Threads int    // Number of functions to compile in parallel.
	From    Layer  // -from: which pipeline stage the source file represents.

	DumpParsed       bool // -v: dump the parsed program and exit.
	EmitNext         bool // -g: emit the next layer's textual form (default for compile mode).
	SpillMode        bool // -s: spill mode; expects a single function plus "%var %prefix".
	DumpLive         bool // -l: print per-function liveness result.
	DumpInterference bool // -i: print per-function interference graph.
}

// maxThreads bounds the thread count accepted by -t, mirroring the teacher's
// util.maxThreads.
const maxThreads = 64

const appVersion = "rax 1.0"

// ParseArgs parses command line arguments into an Options structure.
func ParseArgs(argv []string) (Options, error) {
	opt := Options{Threads: 1}
	if len(argv) == 0 {
		return opt, nil
	}

	i1 := 0
	for ; i1 < len(argv); i1++ {
		switch argv[i1] {
		case "-h", "--help":
			printHelp()
			os.Exit(0)
		case "-version", "--version":
			fmt.Println(appVersion)
			os.Exit(0)
		case "-v":
			opt.DumpParsed = true
		case "-g":
			opt.EmitNext = true
		case "-s":
			opt.SpillMode = true
		case "-l":
			opt.DumpLive = true
		case "-i":
			opt.DumpInterference = true
		case "-o":
			if i1+1 >= len(argv) {
				return opt, fmt.Errorf("got flag %s but no argument", argv[i1])
			}
			i1++
			opt.Out = argv[i1]
		case "-t":
			if i1+1 >= len(argv) {
				return opt, fmt.Errorf("got flag %s but no argument", argv[i1])
			}
			i1++
			t, err := strconv.Atoi(argv[i1])
			if err != nil {
				return opt, fmt.Errorf("expected integer thread count, got: %s", argv[i1])
			}
			if t < 1 || t > maxThreads {
				return opt, fmt.Errorf("thread count must be in range [1, %d]", maxThreads)
			}
			opt.Threads = t
		case "-from":
			if i1+1 >= len(argv) {
				return opt, fmt.Errorf("got flag %s but no argument", argv[i1])
			}
			i1++
			switch argv[i1] {
			case "l3":
				opt.From = LayerL3
			case "l2":
				opt.From = LayerL2
			case "l1":
				opt.From = LayerL1
			default:
				return opt, fmt.Errorf("unrecognized -from layer %q, want l3, l2 or l1", argv[i1])
			}
		default:
			if len(argv[i1]) > 0 && argv[i1][0] == '-' {
				return opt, fmt.Errorf("unexpected flag: %s", argv[i1])
			}
			opt.Src = argv[i1]
		}
	}
	return opt, nil
}

// printHelp prints a helpful usage message to stdout.
func printHelp() {
	w := tabwriter.NewWriter(os.Stdout, 6, 1, 1, 0, 0)
	_, _ = fmt.Fprintln(w, "-h, --help\tPrints this help message and exits.")
	_, _ = fmt.Fprintln(w, "-v\tDump the parsed program and exit.")
	_, _ = fmt.Fprintln(w, "-g\tEmit the next layer's textual form (default for compile mode).")
	_, _ = fmt.Fprintf(w, "-s\tSpill mode: expects a single function plus \"%%var %%prefix\".\n")
	_, _ = fmt.Fprintln(w, "-l\tPrint per-function liveness results.")
	_, _ = fmt.Fprintln(w, "-i\tPrint per-function interference graphs.")
	_, _ = fmt.Fprintln(w, "-from\tInput pipeline stage: l3 (default), l2 or l1.")
	_, _ = fmt.Fprintln(w, "-o\tPath to the output file; defaults to stdout.")
	_, _ = fmt.Fprintf(w, "-t\tNumber of functions to compile in parallel, in range [1, %d].\n", maxThreads)
	_, _ = fmt.Fprintln(w, "-version, --version\tPrints the application version and exits.")
	_ = w.Flush()
}
