// driver.go drives one function through liveness, interference,
// colouring and spilling to a fixed point (spec.md §4.8): colour,
// and if any node is left uncoloured, rewrite the function with
// SpillVariables and start over, bounded by a retry limit exactly the
// way the teacher bounds its own simplify/assign loop.
//
// Grounded on the teacher's allocateRegisterFunc
// (backend/lir/regalloc.go), which loops "simplify, assign, and if
// assignment failed spill and retry" up to a constant retry bound
// rather than looping unconditionally.
package regalloc

import (
	"fmt"

	"rax/internal/dataflow"
	"rax/internal/ir"
)

// retryLimit bounds the colour/spill loop, mirroring the teacher's
// `retry = 128` constant in backend/lir/regalloc.go.
const retryLimit = 128

// FunctionResult is the outcome of allocating registers for one
// function: the rewritten function (with any spilled variables turned
// into stack accesses) and the final colouring of every remaining
// variable and register.
type FunctionResult struct {
	Function ir.Function
	Color    map[ir.Value]ir.PhysicalRegister

	CoalescedMoves   int
	ConstrainedMoves int
	FrozenMoves      int
}

// AllocateFunction runs the colour/spill loop over f until every
// variable is coloured or the retry bound is hit.
func AllocateFunction(f ir.Function) (FunctionResult, error) {
	for attempt := 0; attempt < retryLimit; attempt++ {
		live := dataflow.ComputeLiveness(&f)
		graph := Build(&f, live)
		colouring := Colour(graph)

		if len(colouring.Spilled) == 0 {
			result := FunctionResult{
				Function:         f,
				Color:            make(map[ir.Value]ir.PhysicalRegister, graph.N),
				CoalescedMoves:   colouring.CoalescedMoves,
				ConstrainedMoves: colouring.ConstrainedMoves,
				FrozenMoves:      colouring.FrozenMoves,
			}
			for node, reg := range colouring.Color {
				result.Color[graph.Vars.Resolve(node)] = reg
			}
			return result, nil
		}

		targets := make([]ir.Value, 0, len(colouring.Spilled))
		for _, node := range colouring.Spilled {
			v := graph.Vars.Resolve(node)
			if v.IsVariable() {
				targets = append(targets, v)
			}
		}
		if len(targets) == 0 {
			return FunctionResult{}, fmt.Errorf("regalloc: function %q: colouring failed with no spillable variable", f.Name)
		}
		f = SpillVariables(f, targets)
	}
	return FunctionResult{}, fmt.Errorf("regalloc: function %q: did not converge after %d spill rounds", f.Name, retryLimit)
}
