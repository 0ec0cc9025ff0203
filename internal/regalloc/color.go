// color.go implements iterated register coalescing (spec.md §4.6):
// simplify, coalesce, freeze and select-spill worklists driven to a
// fixed point, followed by colour assignment from the select stack.
//
// Grounded on the other_examples draft
// a90b172a_raymyers-ralph-cc-go__pkg-regalloc-irc.go (itself an
// implementation of the George/Appel "Iterated Register Coalescing"
// algorithm): the same worklist names, the same Briggs and George
// coalescing tests, and the same combine/assignColours structure,
// ported into the teacher's receiver-and-banner-comment idiom with
// map[int]bool worklists in place of the original's slightly different
// bookkeeping.
package regalloc

import (
	"rax/internal/ir"
	"rax/internal/util"
)

// Result is the outcome of one colouring attempt over a Graph.
type Result struct {
	Color   map[int]ir.PhysicalRegister // node -> assigned physical register
	Spilled []int                       // nodes that could not be coloured

	CoalescedMoves   int
	ConstrainedMoves int
	FrozenMoves      int
}

// allocator carries the mutable state of one run of iterated register
// coalescing over a Graph.
type allocator struct {
	g *Graph
	k int

	degree []int

	// Node worklists, Briggs/George/Appel naming.
	precolored map[int]bool
	simplify   map[int]bool
	freeze     map[int]bool
	spill      map[int]bool
	spilled    map[int]bool
	coalesced  map[int]bool
	colored    map[int]bool

	selectStack util.Stack

	// Move worklists.
	moveList         map[int][]int // node -> indices into g.Moves
	worklistMoves    map[int]bool
	activeMoves      map[int]bool
	coalescedMoves   map[int]bool
	constrainedMoves map[int]bool
	frozenMoves      map[int]bool

	alias []int
	color map[int]ir.PhysicalRegister
}

// Colour runs iterated register coalescing over g and returns the
// colouring, along with any nodes that must be spilled.
func Colour(g *Graph) Result {
	a := &allocator{
		g:                g,
		k:                len(ir.AllocatableRegisters),
		degree:           make([]int, g.N),
		precolored:       make(map[int]bool),
		simplify:         make(map[int]bool),
		freeze:           make(map[int]bool),
		spill:            make(map[int]bool),
		spilled:          make(map[int]bool),
		coalesced:        make(map[int]bool),
		colored:          make(map[int]bool),
		moveList:         make(map[int][]int),
		worklistMoves:    make(map[int]bool),
		activeMoves:      make(map[int]bool),
		coalescedMoves:   make(map[int]bool),
		constrainedMoves: make(map[int]bool),
		frozenMoves:      make(map[int]bool),
		alias:            make([]int, g.N),
		color:            make(map[int]ir.PhysicalRegister),
	}

	for u := range a.alias {
		a.alias[u] = u
	}
	for n, r := range g.Precolored {
		a.precolored[n] = true
		a.color[n] = r
	}
	for u := 0; u < g.N; u++ {
		a.degree[u] = len(g.Neighbours(u))
		if a.precolored[u] {
			a.degree[u] = 1 << 30 // infinite degree: never simplified, never spilled.
		}
	}
	for mi, mv := range g.Moves {
		a.moveList[mv[0]] = append(a.moveList[mv[0]], mi)
		a.moveList[mv[1]] = append(a.moveList[mv[1]], mi)
		a.worklistMoves[mi] = true
	}

	a.makeInitialWorklists()

	for {
		switch {
		case len(a.simplify) > 0:
			a.doSimplify()
		case len(a.worklistMoves) > 0:
			a.doCoalesce()
		case len(a.freeze) > 0:
			a.doFreeze()
		case len(a.spill) > 0:
			a.doSelectSpill()
		default:
			goto assign
		}
	}

assign:
	a.assignColors()

	res := Result{
		Color:            a.color,
		CoalescedMoves:   len(a.coalescedMoves),
		ConstrainedMoves: len(a.constrainedMoves),
		FrozenMoves:      len(a.frozenMoves),
	}
	for n := 0; n < g.N; n++ {
		if a.spilled[n] {
			res.Spilled = append(res.Spilled, n)
		}
	}
	return res
}

func (a *allocator) makeInitialWorklists() {
	for u := 0; u < a.g.N; u++ {
		if a.precolored[u] {
			continue
		}
		switch {
		case a.degree[u] >= a.k:
			a.spill[u] = true
		case a.isMoveRelated(u):
			a.freeze[u] = true
		default:
			a.simplify[u] = true
		}
	}
}

func (a *allocator) isMoveRelated(u int) bool {
	for _, mi := range a.moveList[u] {
		if a.worklistMoves[mi] || a.activeMoves[mi] {
			return true
		}
	}
	return false
}

func (a *allocator) nodeMoves(u int) []int {
	var out []int
	for _, mi := range a.moveList[u] {
		if a.worklistMoves[mi] || a.activeMoves[mi] {
			out = append(out, mi)
		}
	}
	return out
}

// minKey returns the smallest key present in m. The worklists are maps
// only for O(1) membership tests and deletes; which node or move gets
// picked must not depend on Go's randomized map iteration order, so
// every "pick one" below scans to the smallest key instead (spec.md §5
// requires byte-identical output across runs).
func minKey(m map[int]bool) int {
	best := -1
	for k := range m {
		if best == -1 || k < best {
			best = k
		}
	}
	return best
}

func (a *allocator) doSimplify() {
	u := minKey(a.simplify)
	delete(a.simplify, u)
	a.selectStack.Push(u)
	for w := range a.g.Neighbours(u) {
		if !a.selectedOrCoalesced(w) {
			a.decrementDegree(w)
		}
	}
}

func (a *allocator) selectedOrCoalesced(u int) bool {
	if a.coalesced[u] {
		return true
	}
	for _, s := range stackSlice(&a.selectStack) {
		if s == u {
			return true
		}
	}
	return false
}

func (a *allocator) decrementDegree(u int) {
	d := a.degree[u]
	a.degree[u] = d - 1
	if d == a.k {
		nodes := append([]int{u}, a.adjacentUncolored(u)...)
		a.enableMoves(nodes)
		delete(a.spill, u)
		if a.isMoveRelated(u) {
			a.freeze[u] = true
		} else {
			a.simplify[u] = true
		}
	}
}

func (a *allocator) enableMoves(nodes []int) {
	for _, n := range nodes {
		for _, mi := range a.nodeMoves(n) {
			if a.activeMoves[mi] {
				delete(a.activeMoves, mi)
				a.worklistMoves[mi] = true
			}
		}
	}
}

func (a *allocator) adjacentUncolored(u int) []int {
	var out []int
	for w := range a.g.Neighbours(u) {
		if !a.selectedOrCoalesced(w) {
			out = append(out, w)
		}
	}
	return out
}

func (a *allocator) doCoalesce() {
	mi := minKey(a.worklistMoves)
	delete(a.worklistMoves, mi)

	x := a.getAlias(a.g.Moves[mi][0])
	y := a.getAlias(a.g.Moves[mi][1])
	var u, v int
	if a.precolored[y] {
		u, v = y, x
	} else {
		u, v = x, y
	}

	switch {
	case u == v:
		a.coalescedMoves[mi] = true
		a.addWorklist(u)
	case a.precolored[v] || a.g.Interferes(u, v):
		a.constrainedMoves[mi] = true
		a.addWorklist(u)
		a.addWorklist(v)
	case a.precolored[u] && a.allAdjacentOK(u, v), !a.precolored[u] && a.conservative(u, v):
		a.coalescedMoves[mi] = true
		a.combine(u, v)
		a.addWorklist(u)
	default:
		a.activeMoves[mi] = true
	}
}

func (a *allocator) addWorklist(u int) {
	if !a.precolored[u] && !a.isMoveRelated(u) && a.degree[u] < a.k {
		delete(a.freeze, u)
		a.simplify[u] = true
	}
}

// allAdjacentOK implements the George test: coalescing a precoloured u
// with v is safe if every neighbour of v either already interferes
// with u, or has degree below k.
func (a *allocator) allAdjacentOK(u, v int) bool {
	for t := range a.g.Neighbours(v) {
		if a.selectedOrCoalesced(t) {
			continue
		}
		if !(a.degree[t] < a.k || a.precolored[t] || a.g.Interferes(t, u)) {
			return false
		}
	}
	return true
}

// conservative implements the Briggs test: coalescing u and v is safe
// if the combined node has fewer than k neighbours of significant
// degree.
func (a *allocator) conservative(u, v int) bool {
	seen := make(map[int]bool)
	n := 0
	count := func(w int) {
		if seen[w] || a.selectedOrCoalesced(w) {
			return
		}
		seen[w] = true
		if a.degree[w] >= a.k {
			n++
		}
	}
	for w := range a.g.Neighbours(u) {
		count(w)
	}
	for w := range a.g.Neighbours(v) {
		count(w)
	}
	return n < a.k
}

func (a *allocator) getAlias(u int) int {
	for a.coalesced[u] {
		u = a.alias[u]
	}
	return u
}

func (a *allocator) combine(u, v int) {
	if _, ok := a.freeze[v]; ok {
		delete(a.freeze, v)
	} else {
		delete(a.spill, v)
	}
	a.coalesced[v] = true
	a.alias[v] = u
	a.moveList[u] = append(a.moveList[u], a.moveList[v]...)
	a.enableMoves([]int{v})
	for t := range a.g.Neighbours(v) {
		if a.selectedOrCoalesced(t) {
			continue
		}
		a.g.AddEdge(t, u)
		a.decrementDegreeForCombine(t)
	}
	if a.degree[u] >= a.k {
		if _, ok := a.freeze[u]; ok {
			delete(a.freeze, u)
			a.spill[u] = true
		}
	}
}

// decrementDegreeForCombine resets t's degree to its current neighbour
// count after combine has added the edge to u (a no-op if t was already
// adjacent to u). The edge to v stays in the graph and is counted, and
// earlier decrements of t's degree are not kept. A precoloured t keeps
// its infinite degree.
func (a *allocator) decrementDegreeForCombine(t int) {
	a.degree[t] = len(a.g.Neighbours(t))
	if a.precolored[t] {
		a.degree[t] = 1 << 30
	}
}

func (a *allocator) doFreeze() {
	u := minKey(a.freeze)
	delete(a.freeze, u)
	a.simplify[u] = true
	a.freezeMoves(u)
}

func (a *allocator) freezeMoves(u int) {
	for _, mi := range a.nodeMoves(u) {
		var v int
		if a.getAlias(a.g.Moves[mi][0]) == a.getAlias(u) {
			v = a.getAlias(a.g.Moves[mi][1])
		} else {
			v = a.getAlias(a.g.Moves[mi][0])
		}
		delete(a.activeMoves, mi)
		delete(a.worklistMoves, mi)
		a.frozenMoves[mi] = true
		if !a.precolored[v] && len(a.nodeMoves(v)) == 0 && a.degree[v] < a.k {
			delete(a.freeze, v)
			a.simplify[v] = true
		}
	}
}

func (a *allocator) doSelectSpill() {
	// Choose the spill candidate with the highest degree (the simplest
	// defensible heuristic; no other spill cost is weighed). Ties broken by
	// lowest node index: iterate in numeric order rather than ranging
	// over the map, so the choice does not depend on map order.
	best, bestDeg := -1, -1
	for u := 0; u < a.g.N; u++ {
		if !a.spill[u] {
			continue
		}
		if a.degree[u] > bestDeg {
			best, bestDeg = u, a.degree[u]
		}
	}
	delete(a.spill, best)
	a.simplify[best] = true
	a.freezeMoves(best)
}

func (a *allocator) assignColors() {
	for a.selectStack.Size() > 0 {
		u := a.selectStack.Pop().(int)
		used := make(map[ir.PhysicalRegister]bool)
		for w := range a.g.Neighbours(u) {
			aw := a.getAlias(w)
			if c, ok := a.color[aw]; ok {
				used[c] = true
			} else if a.colored[aw] {
				used[a.color[aw]] = true
			}
		}
		var assigned ir.PhysicalRegister
		ok := false
		for _, r := range ir.AllocatableRegisters {
			if !used[r] {
				assigned, ok = r, true
				break
			}
		}
		if !ok {
			a.spilled[u] = true
			continue
		}
		a.colored[u] = true
		a.color[u] = assigned
	}
	for u := range a.coalesced {
		a.color[u] = a.color[a.getAlias(u)]
	}
}

// stackSlice returns the select stack's contents, bottom to top, for
// membership tests. It lives here (rather than in internal/util) since
// only the colourer needs to scan the stack rather than pop it.
func stackSlice(s *util.Stack) []int {
	out := make([]int, 0, s.Size())
	for i1 := 0; i1 < s.Size(); i1++ {
		out = append(out, s.Get(i1).(int))
	}
	return out
}
