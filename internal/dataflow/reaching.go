// reaching.go computes reaching definitions (spec.md §4.4): a forward
// may-analysis over the set of definition sites, where a "site" is a
// uniquely interned Instruction value. Function parameters are given a
// definition site by appending a synthetic block, ahead of the entry
// block, that self-assigns every parameter; the synthetic block is
// removed again once the fixed point and per-instruction results are
// extracted.
//
// Grounded directly on the original_source draft's
// compute_reaching_def (l3/src/analysis/reaching_def.rs), which builds
// exactly this dummy predecessor block before calling solve() and pops
// it back off afterwards.
package dataflow

import (
	"rax/internal/bitset"
	"rax/internal/intern"
	"rax/internal/ir"
)

// ReachResult is the reaching-definitions fixed point for one Function,
// with the synthetic parameter block already removed.
type ReachResult struct {
	Sites   *intern.Interner[ir.Instruction]
	ReachIn  [][]bitset.Bitset
	ReachOut [][]bitset.Bitset
}

type reachingAnalysis struct {
	universe  int
	gen, kill []bitset.Bitset
}

func (a *reachingAnalysis) Direction() Direction          { return Forward }
func (a *reachingAnalysis) Boundary() bitset.Bitset        { return bitset.New(a.universe) }
func (a *reachingAnalysis) Meet(x, y bitset.Bitset) bitset.Bitset {
	out := x.Clone()
	out.Union(&y)
	return out
}

// Transfer computes a block's reach-out set from its reach-in set:
// out = gen ∪ (in - kill).
func (a *reachingAnalysis) Transfer(block int, in bitset.Bitset) bitset.Bitset {
	out := in.Clone()
	out.Difference(&a.kill[block])
	out.Union(&a.gen[block])
	return out
}

// ComputeReachingDefs runs reaching-definition analysis over f.
func ComputeReachingDefs(f *ir.Function) *ReachResult {
	dummy := make([]ir.Instruction, len(f.Params))
	for i1, p := range f.Params {
		dummy[i1] = ir.Assign(p, p)
	}

	blocks := make([][]ir.Instruction, 0, len(f.Blocks)+1)
	blocks = append(blocks, dummy)
	for _, blk := range f.Blocks {
		blocks = append(blocks, blk.Instructions)
	}
	n := len(blocks)

	sites := intern.New[ir.Instruction]()
	defSitesOf := make(map[ir.Value][]int)
	for _, is := range blocks {
		for _, instr := range is {
			if d, ok := instr.Def(); ok {
				s := sites.Intern(instr)
				defSitesOf[d] = append(defSitesOf[d], s)
			}
		}
	}
	universe := sites.Len()

	gen := make([]bitset.Bitset, n)
	kill := make([]bitset.Bitset, n)
	for b, is := range blocks {
		g := bitset.New(universe)
		k := bitset.New(universe)
		for _, instr := range is {
			if d, ok := instr.Def(); ok {
				site, _ := sites.Get(instr)
				for _, other := range defSitesOf[d] {
					if other == site {
						continue
					}
					k.Set(other)
					g.Reset(other)
				}
				g.Set(site)
			}
		}
		gen[b] = g
		kill[b] = k
	}

	succ := make([][]int, n)
	pred := make([][]int, n)
	succ[0] = []int{1}
	pred[1] = append(pred[1], 0)
	for b := range f.CFG.Succ {
		for _, s := range f.CFG.Succ[b] {
			succ[b+1] = append(succ[b+1], s+1)
		}
		for _, p := range f.CFG.Pred[b] {
			pred[b+1] = append(pred[b+1], p+1)
		}
	}

	analysis := &reachingAnalysis{universe: universe, gen: gen, kill: kill}
	blockResult := Solve(Graph{Succ: succ, Pred: pred}, universe, analysis)

	reachIn := make([][]bitset.Bitset, len(f.Blocks))
	reachOut := make([][]bitset.Bitset, len(f.Blocks))
	for b, blk := range f.Blocks {
		m := len(blk.Instructions)
		reachIn[b] = make([]bitset.Bitset, m)
		reachOut[b] = make([]bitset.Bitset, m)
		cur := blockResult.In[b+1].Clone()
		for i1, instr := range blk.Instructions {
			reachIn[b][i1] = cur.Clone()
			if d, ok := instr.Def(); ok {
				site, _ := sites.Get(instr)
				for _, other := range defSitesOf[d] {
					if other == site {
						continue
					}
					cur.Reset(other)
				}
				cur.Set(site)
			}
			reachOut[b][i1] = cur.Clone()
		}
	}

	return &ReachResult{Sites: sites, ReachIn: reachIn, ReachOut: reachOut}
}
