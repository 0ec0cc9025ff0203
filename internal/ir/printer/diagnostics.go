// diagnostics.go renders the -l (liveness) and -i (interference) CLI
// dumps of spec.md §6, used by cmd/raxc for inspection rather than by
// any downstream pass.
package printer

import (
	"sort"

	"rax/internal/bitset"
	"rax/internal/dataflow"
	"rax/internal/intern"
	"rax/internal/ir"
	"rax/internal/regalloc"
	"rax/internal/util"
)

// PrintLiveness renders, for every instruction of f, the live-in and
// live-out value sets computed by dataflow.ComputeLiveness.
func PrintLiveness(w *util.Writer, f *ir.Function, live *dataflow.LiveResult) {
	w.Write("function %s\n", f.Name)
	for b, blk := range f.Blocks {
		w.Write("  block %d (%s):\n", b, blockLabel(blk))
		for k, instr := range blk.Instructions {
			w.Write("    %-40s in={%s} out={%s}\n",
				instr.String(),
				valueSetString(live.Vars, live.LiveIn[b][k]),
				valueSetString(live.Vars, live.LiveOut[b][k]))
		}
	}
}

// PrintInterference renders the interference graph's node/edge set.
func PrintInterference(w *util.Writer, f *ir.Function, g *regalloc.Graph) {
	w.Write("function %s: interference graph\n", f.Name)
	names := make([]string, g.N)
	for i1 := 0; i1 < g.N; i1++ {
		names[i1] = g.Vars.Resolve(i1).String()
	}
	for u := 0; u < g.N; u++ {
		neighbours := g.Neighbours(u)
		ids := make([]int, 0, len(neighbours))
		for v := range neighbours {
			ids = append(ids, v)
		}
		sort.Ints(ids)
		labels := make([]string, len(ids))
		for i1, v := range ids {
			labels[i1] = names[v]
		}
		w.Write("  %s: %s\n", names[u], joinComma(labels))
	}
}

func blockLabel(blk ir.BasicBlock) string {
	if blk.Name == "" {
		return "entry"
	}
	return blk.Name
}

func valueSetString(vars *intern.Interner[ir.Value], bs bitset.Bitset) string {
	elems := bs.Elements()
	labels := make([]string, len(elems))
	for i1, idx := range elems {
		labels[i1] = vars.Resolve(idx).String()
	}
	return joinComma(labels)
}

func joinComma(ss []string) string {
	out := ""
	for i1, s := range ss {
		if i1 > 0 {
			out += ", "
		}
		out += s
	}
	return out
}
