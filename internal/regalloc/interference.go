// Package regalloc implements the L2→L1 register allocator: dataflow
// liveness feeds an interference graph (spec.md §4.5), which iterated
// register coalescing (spec.md §4.6) colours, spilling (spec.md §4.7)
// uncolourable variables and retrying until every variable has a
// physical register or a stack slot.
//
// interference.go is grounded on the original_source draft's
// InterferenceGraph construction (l2/src/regalloc/interference.rs):
// seed a clique over every precoloured (physical) register, then walk
// each block in reverse adding an edge between every definition and
// every value simultaneously live, skipping the edge from a move's
// destination to its own source so the move remains a coalescing
// candidate, and finally forcing every variable shift count onto rcx
// by making it interfere with every other register.
package regalloc

import (
	"rax/internal/dataflow"
	"rax/internal/intern"
	"rax/internal/ir"
)

// Graph is an interference graph over a function's general purpose
// values: physical registers (pre-coloured) and variables.
type Graph struct {
	Vars       *intern.Interner[ir.Value]
	N          int
	adj        []map[int]bool
	Precolored map[int]ir.PhysicalRegister
	// Moves lists move-related node pairs (dst, src), in program order.
	Moves [][2]int
}

func newGraph(vars *intern.Interner[ir.Value]) *Graph {
	return &Graph{
		Vars: vars,
		N:    vars.Len(),
		adj:  make([]map[int]bool, vars.Len()),
	}
}

func (g *Graph) ensure(u int) map[int]bool {
	if g.adj[u] == nil {
		g.adj[u] = make(map[int]bool)
	}
	return g.adj[u]
}

// AddEdge records an undirected interference edge between u and v. A
// self-edge is a no-op.
func (g *Graph) AddEdge(u, v int) {
	if u == v {
		return
	}
	g.ensure(u)[v] = true
	g.ensure(v)[u] = true
}

// Interferes reports whether u and v interfere.
func (g *Graph) Interferes(u, v int) bool {
	return g.adj[u][v]
}

// Neighbours returns the nodes interfering with u.
func (g *Graph) Neighbours(u int) map[int]bool {
	return g.adj[u]
}

// Build constructs the interference graph of f from its liveness
// result. Every physical register used anywhere in f, plus every
// allocatable register (so the precoloured clique is complete even for
// registers f never mentions directly), is given a node alongside f's
// variables.
func Build(f *ir.Function, live *dataflow.LiveResult) *Graph {
	vars := live.Vars
	for _, r := range ir.AllocatableRegisters {
		vars.Intern(ir.Register(r))
	}

	g := newGraph(vars)
	g.Precolored = make(map[int]ir.PhysicalRegister)
	for _, r := range ir.AllocatableRegisters {
		idx, _ := vars.Get(ir.Register(r))
		g.Precolored[idx] = r
	}

	// Precoloured clique: every physical register interferes with every
	// other physical register.
	for _, r1 := range ir.AllocatableRegisters {
		i1, _ := vars.Get(ir.Register(r1))
		for _, r2 := range ir.AllocatableRegisters {
			i2, _ := vars.Get(ir.Register(r2))
			g.AddEdge(i1, i2)
		}
	}

	for b, blk := range f.Blocks {
		for k, instr := range blk.Instructions {
			liveOut := live.LiveOut[b][k]

			var moveSrc ir.Value
			isMove := instr.Op == ir.OpAssign
			if isMove {
				moveSrc = instr.Src
			}

			for _, d := range instr.Defs() {
				du, _ := vars.Get(d)
				for _, w := range liveOut.Elements() {
					if isMove && moveSrc.IsGeneralPurpose() {
						if ws, ok := vars.Get(moveSrc); ok && ws == w {
							continue
						}
					}
					g.AddEdge(du, w)
				}
			}

			if isMove && instr.Dst.IsGeneralPurpose() && instr.Src.IsGeneralPurpose() {
				du, _ := vars.Get(instr.Dst)
				su, _ := vars.Get(instr.Src)
				g.Moves = append(g.Moves, [2]int{du, su})
			}

			if instr.Op == ir.OpShift && instr.Src.IsVariable() {
				su, _ := vars.Get(instr.Src)
				rcx, _ := vars.Get(ir.Register(ir.ShiftCountRegister))
				for _, r := range ir.AllocatableRegisters {
					ru, _ := vars.Get(ir.Register(r))
					if ru == rcx {
						continue
					}
					g.AddEdge(su, ru)
				}
			}
		}
	}

	g.N = vars.Len()
	return g
}
