// Package driver orchestrates a whole Program through the pipeline
// stage(s) selected by util.Options.From: L3→L2 instruction selection,
// L2→L1 register allocation, or both back to back when the input is
// L3 (spec.md §1's dependency order, run end to end).
//
// Grounded on the teacher's AllocateRegisters
// (backend/lir/regalloc.go): a parallel-per-function worker pool
// gated by Options.Threads, reporting errors through a perror
// listener and joining with a sync.WaitGroup, the one place spec.md
// §5 permits concurrency ("compiling multiple independent Functions of
// a Program in parallel at the driver layer"). Every per-function pass
// invoked inside a worker (selection, liveness, interference,
// colouring, spilling) stays single-threaded internally, exactly as
// spec.md requires.
package driver

import (
	"fmt"
	"sync"

	"rax/internal/ir"
	"rax/internal/isel"
	"rax/internal/regalloc"
	"rax/internal/util"
)

// FunctionStats carries the supplemented move-coalescing statistics
// SPEC_FULL.md §5 calls for, surfaced per function for -v reporting.
type FunctionStats struct {
	Name             string
	CoalescedMoves   int
	ConstrainedMoves int
	FrozenMoves      int
	SpillRounds      int
}

// Result is the outcome of compiling an entire Program through the
// stage(s) selected by opt.From.
type Result struct {
	Program ir.Program
	Stats   []FunctionStats
}

// CompileProgram runs p through instruction selection and/or register
// allocation according to opt.From, compiling independent functions in
// parallel when opt.Threads > 1.
func CompileProgram(p ir.Program, opt util.Options) (Result, error) {
	switch opt.From {
	case util.LayerL1:
		// Already fully allocated; nothing left to do before printing.
		return Result{Program: p}, nil
	case util.LayerL3:
		p = isel.SelectProgram(&p)
		fallthrough
	case util.LayerL2:
		return allocateProgram(p, opt)
	default:
		return Result{}, fmt.Errorf("driver: unrecognized input layer %d", opt.From)
	}
}

// allocateProgram runs the L2→L1 register allocator over every
// function of p, spec.md §4.8, distributing functions across
// opt.Threads workers.
func allocateProgram(p ir.Program, opt util.Options) (Result, error) {
	n := len(p.Functions)
	out := ir.Program{Entry: p.Entry, Functions: make([]ir.Function, n)}
	stats := make([]FunctionStats, n)

	threads := opt.Threads
	if threads < 1 {
		threads = 1
	}
	if threads > n {
		threads = n
	}

	if threads <= 1 {
		for i1 := range p.Functions {
			res, err := regalloc.AllocateFunction(p.Functions[i1])
			if err != nil {
				return Result{}, err
			}
			out.Functions[i1] = rewriteColours(res)
			stats[i1] = statsOf(res)
		}
		return Result{Program: out, Stats: stats}, nil
	}

	perr := newPerror(n)
	wg := sync.WaitGroup{}
	jobs := make(chan int)

	for w := 0; w < threads; w++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for i1 := range jobs {
				res, err := regalloc.AllocateFunction(p.Functions[i1])
				if err != nil {
					perr.Append(err)
					continue
				}
				out.Functions[i1] = rewriteColours(res)
				stats[i1] = statsOf(res)
			}
		}()
	}
	for i1 := range p.Functions {
		jobs <- i1
	}
	close(jobs)
	wg.Wait()
	perr.Stop()

	if perr.Len() > 0 {
		errs := perr.Errors()
		return Result{}, fmt.Errorf("%d error(s) during parallel register allocation: %w", len(errs), errs[0])
	}
	return Result{Program: out, Stats: stats}, nil
}

// rewriteColours substitutes every general purpose value of res's
// function with its assigned physical register, the final step of
// spec.md §4.8's driver loop.
func rewriteColours(res regalloc.FunctionResult) ir.Function {
	f := res.Function
	for b := range f.Blocks {
		instrs := f.Blocks[b].Instructions
		for k, instr := range instrs {
			for _, v := range distinctOperands(instr) {
				if !v.IsVariable() {
					continue
				}
				if r, ok := res.Color[v]; ok {
					instr = instr.ReplaceValue(v, ir.Register(r))
				}
			}
			instrs[k] = instr
		}
	}
	return f
}

// distinctOperands returns every general purpose value an instruction
// mentions, uses and def alike, since ReplaceValue needs to consider
// both sides.
func distinctOperands(i ir.Instruction) []ir.Value {
	out := i.Uses()
	if d, ok := i.Def(); ok {
		out = append(out, d)
	}
	return out
}

func statsOf(res regalloc.FunctionResult) FunctionStats {
	return FunctionStats{
		Name:             res.Function.Name,
		CoalescedMoves:   res.CoalescedMoves,
		ConstrainedMoves: res.ConstrainedMoves,
		FrozenMoves:      res.FrozenMoves,
	}
}
