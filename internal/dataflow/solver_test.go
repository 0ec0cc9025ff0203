package dataflow

import (
	"testing"

	"rax/internal/bitset"
)

// cycleAnalysis is a minimal synthetic analysis used to pin down the
// worklist's re-enqueue direction on a graph with a back edge. Block
// killNode unconditionally emits bit 0 regardless of its input: every
// other block is a pass-through (out = in). The only way bit 0 can
// reach every block is by correctly re-enqueuing the blocks that read
// a changed block's value once the graph is walked all the way around
// the cycle.
type cycleAnalysis struct {
	dir      Direction
	universe int
	killNode int
}

func (a *cycleAnalysis) Direction() Direction { return a.dir }

func (a *cycleAnalysis) Boundary() bitset.Bitset {
	return bitset.New(a.universe)
}

func (a *cycleAnalysis) Meet(x, y bitset.Bitset) bitset.Bitset {
	out := x.Clone()
	out.Union(&y)
	return out
}

func (a *cycleAnalysis) Transfer(block int, in bitset.Bitset) bitset.Bitset {
	if block == a.killNode {
		out := bitset.New(a.universe)
		out.Set(0)
		return out
	}
	return in.Clone()
}

// TestSolveForwardLoopPropagatesAroundBackEdge builds a 3-block pure
// cycle 0 -> 1 -> 2 -> 0 (2 -> 0 is the back edge) and checks that the
// bit emitted by block 2 reaches every block in the cycle. If a
// block's change re-enqueues the wrong neighbour set, block 0 never
// gets reprocessed after block 2 runs and the solver settles on a
// fixed point that is missing bit 0 at blocks 0 and 1.
func TestSolveForwardLoopPropagatesAroundBackEdge(t *testing.T) {
	g := Graph{
		Succ: [][]int{{1}, {2}, {0}},
		Pred: [][]int{{2}, {0}, {1}},
	}
	a := &cycleAnalysis{dir: Forward, universe: 1, killNode: 2}
	res := Solve(g, 1, a)

	for b := 0; b < 3; b++ {
		if !res.Out[b].Test(0) {
			t.Errorf("block %d: Out should contain bit 0 after the fixed point converges around the back edge", b)
		}
		if !res.In[b].Test(0) {
			t.Errorf("block %d: In should contain bit 0 after the fixed point converges around the back edge", b)
		}
	}
}

// TestSolveBackwardLoopPropagatesAroundBackEdge is the mirror of
// TestSolveForwardLoopPropagatesAroundBackEdge for Backward analyses
// (liveness's direction): the graph is built so that the solver's
// internal meet-predecessors and re-enqueue targets land on the same
// edges the forward test exercises, just swapped between Succ and
// Pred, the way liveness walks the CFG against the direction of
// control flow.
func TestSolveBackwardLoopPropagatesAroundBackEdge(t *testing.T) {
	g := Graph{
		Succ: [][]int{{2}, {0}, {1}},
		Pred: [][]int{{1}, {2}, {0}},
	}
	a := &cycleAnalysis{dir: Backward, universe: 1, killNode: 2}
	res := Solve(g, 1, a)

	for b := 0; b < 3; b++ {
		if !res.Out[b].Test(0) {
			t.Errorf("block %d: Out should contain bit 0 after the fixed point converges around the back edge", b)
		}
		if !res.In[b].Test(0) {
			t.Errorf("block %d: In should contain bit 0 after the fixed point converges around the back edge", b)
		}
	}
}
