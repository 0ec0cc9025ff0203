// Package dataflow implements the generic fixed-point dataflow solver
// (spec.md §4.3) and the three analyses built on top of it: liveness,
// reaching definitions and def-use chains (spec.md §4.4).
//
// Grounded directly on the original_source draft's Dataflow trait and
// solve() function (l3/src/analysis/dataflow.rs): a direction, a
// boundary condition, a meet operator and a per-block transfer
// function, iterated to a fixed point with a worklist. Ported to the
// teacher's idiom (banner comments, panic-on-invariant-violation,
// explicit `e1`-style loop variables) rather than the Rust original's
// trait-object shape.
package dataflow

import "rax/internal/bitset"

// ----------------------------
// ----- Type definitions -----
// ----------------------------

// Direction selects whether an Analysis propagates information from
// entry blocks forward along CFG edges, or from exit blocks backward.
type Direction uint8

const (
	Forward Direction = iota
	Backward
)

// Graph is the minimal control-flow shape the solver needs: successor
// and predecessor block indices.
type Graph struct {
	Succ [][]int
	Pred [][]int
}

// Analysis is a monotone dataflow problem over bitvectors of a fixed
// universe size.
type Analysis interface {
	// Direction reports whether this analysis flows forward or backward.
	Direction() Direction
	// Boundary returns the value assumed at the graph's entry blocks
	// (Forward) or exit blocks (Backward).
	Boundary() bitset.Bitset
	// Meet combines two predecessor/successor values. Liveness and
	// reaching definitions are both "may" analyses, so this is set
	// union, but the solver does not assume that.
	Meet(a, b bitset.Bitset) bitset.Bitset
	// Transfer computes a block's output value from its input value.
	Transfer(block int, in bitset.Bitset) bitset.Bitset
}

// Result holds the per-block fixed point reached by Solve: In[b] is
// the value flowing into block b, Out[b] the value flowing out.
type Result struct {
	In  []bitset.Bitset
	Out []bitset.Bitset
}

// ---------------------
// ----- Functions -----
// ---------------------

// Solve runs a to a fixed point over g using the worklist algorithm:
// blocks are reprocessed whenever a neighbour's boundary value changes,
// until none do.
func Solve(g Graph, universe int, a Analysis) Result {
	n := len(g.Succ)
	res := Result{In: make([]bitset.Bitset, n), Out: make([]bitset.Bitset, n)}
	for i1 := 0; i1 < n; i1++ {
		res.In[i1] = bitset.New(universe)
		res.Out[i1] = bitset.New(universe)
	}

	queue := make([]int, n)
	queued := make([]bool, n)
	for i1 := 0; i1 < n; i1++ {
		queue[i1] = i1
		queued[i1] = true
	}

	preds := g.Pred
	if a.Direction() == Backward {
		preds = g.Succ
	}

	for len(queue) > 0 {
		b := queue[0]
		queue = queue[1:]
		queued[b] = false

		var in bitset.Bitset
		if len(preds[b]) == 0 {
			in = a.Boundary()
		} else {
			in = bitset.New(universe)
			first := true
			for _, p := range preds[b] {
				pv := res.Out[p]
				if a.Direction() == Backward {
					pv = res.In[p]
				}
				if first {
					in = pv.Clone()
					first = false
				} else {
					in = a.Meet(in, pv)
				}
			}
		}

		out := a.Transfer(b, in)

		var changed bool
		if a.Direction() == Forward {
			changed = !in.Equal(&res.In[b]) || !out.Equal(&res.Out[b])
			res.In[b] = in
			res.Out[b] = out
		} else {
			// Backward: "in" here is actually the block's Out value
			// (meet of successors' In), and "out" is the block's In
			// value (transfer applied backward).
			changed = !in.Equal(&res.Out[b]) || !out.Equal(&res.In[b])
			res.Out[b] = in
			res.In[b] = out
		}

		if changed {
			// Re-enqueue the blocks that read b's changed value as
			// their own boundary: successors for Forward (b's Out
			// feeds their In), predecessors for Backward (b's In
			// feeds their Out).
			next := g.Succ[b]
			if a.Direction() == Backward {
				next = g.Pred[b]
			}
			for _, m := range next {
				if !queued[m] {
					queued[m] = true
					queue = append(queue, m)
				}
			}
		}
	}

	return res
}
