// forest.go builds a selection forest — one tree per instruction in a
// Context — and repeatedly merges a producer's tree into its sole
// consumer wherever that is safe, so the tile matcher in tiling.go can
// munch whole expression trees instead of single instructions.
//
// Grounded directly on the original_source draft's SelectionForest
// (l3/src/isel/forest.rs): Node{kind, parent, children}, merge_all's
// restart-on-success double loop, try_merge's def-use sole-consumer
// check, and its explicit rule that a Load can never be folded across
// an intervening Store. The draft's separate liveness-deadness check is
// not repeated: a value whose only user is the consumer is dead after it.
package isel

import (
	"rax/internal/dataflow"
	"rax/internal/ir"
)

// Node is either a leaf operand (a variable, register or immediate) or
// an interior node wrapping the L3 instruction that computes it, with
// one child per operand slot the instruction reads.
type Node struct {
	Leaf  bool
	Value ir.Value // meaningful when Leaf.

	Instr ir.Instruction    // meaningful when !Leaf.
	Ref   ir.InstructionRef // meaningful when !Leaf: the instruction's original location.

	Children  []*Node
	Result    ir.Value
	HasResult bool
}

func leafNode(v ir.Value) *Node {
	return &Node{Leaf: true, Value: v}
}

func makeRoot(f *ir.Function, ref ir.InstructionRef) *Node {
	instr := f.At(ref)
	// One leaf per operand slot, in the order tiling.go reads them back.
	var operands []ir.Value
	switch instr.Op {
	case ir.OpAssign, ir.OpLoad:
		operands = []ir.Value{instr.Src}
	case ir.OpStore, ir.OpArith, ir.OpShift, ir.OpLoadArith, ir.OpStoreArith:
		operands = []ir.Value{instr.Dst, instr.Src}
	case ir.OpCompare, ir.OpCJump:
		operands = []ir.Value{instr.Lhs, instr.Rhs}
	case ir.OpIncrement, ir.OpDecrement:
		operands = []ir.Value{instr.Dst}
	case ir.OpLEA:
		operands = []ir.Value{instr.Base, instr.Index}
	}
	children := make([]*Node, len(operands))
	for i1, v := range operands {
		children[i1] = leafNode(v)
	}
	n := &Node{Instr: instr, Ref: ref, Children: children}
	if d, ok := instr.Def(); ok {
		n.Result, n.HasResult = d, true
	}
	return n
}

// BuildForest constructs one root Node per instruction of ctx, merging
// producer subtrees into their sole consumer until no further merge
// applies.
func BuildForest(f *ir.Function, ctx Context, du *dataflow.DefUse, reach *dataflow.ReachResult) []*Node {
	roots := make([]*Node, len(ctx.Refs))
	for i1, ref := range ctx.Refs {
		roots[i1] = makeRoot(f, ref)
	}

	for {
		progress := false
		for _, root := range roots {
			if tryMerge(f, root, ctx, du, reach) {
				progress = true
			}
		}
		if !progress {
			break
		}
	}

	// A producer folded into a consumer's tree is emitted there, so its
	// own root is dropped. Producers precede their consumers, so walking
	// the roots backwards marks every absorbed producer before reaching it.
	merged := make(map[ir.InstructionRef]bool)
	var kept []*Node
	for i1 := len(roots) - 1; i1 >= 0; i1-- {
		if merged[roots[i1].Ref] {
			continue
		}
		kept = append([]*Node{roots[i1]}, kept...)
		for todo := append([]*Node(nil), roots[i1].Children...); len(todo) > 0; todo = todo[1:] {
			if c := todo[0]; !c.Leaf {
				merged[c.Ref] = true
				todo = append(todo, c.Children...)
			}
		}
	}
	return kept
}

// tryMerge performs at most one merge somewhere within node's subtree
// and reports whether it did.
func tryMerge(f *ir.Function, node *Node, ctx Context, du *dataflow.DefUse, reach *dataflow.ReachResult) bool {
	if node.Leaf {
		return false
	}
	for i1, child := range node.Children {
		if child.Leaf {
			if !child.Value.IsVariable() {
				continue
			}
			if prod, ok := findProducer(f, ctx, node.Ref, child.Value, du, reach); ok {
				node.Children[i1] = makeRoot(f, prod)
				return true
			}
			continue
		}
		if tryMerge(f, child, ctx, du, reach) {
			return true
		}
	}
	return false
}

// findProducer locates the instruction within ctx, preceding consumer,
// that is v's sole reaching definition and whose sole user (by def-use
// chain) is consumer, and whose merge into consumer is safe.
func findProducer(f *ir.Function, ctx Context, consumer ir.InstructionRef, v ir.Value, du *dataflow.DefUse, reach *dataflow.ReachResult) (ir.InstructionRef, bool) {
	reachIn := reach.ReachIn[consumer.Block][consumer.Index]

	var producer ir.InstructionRef
	found := false
	for _, site := range reachIn.Elements() {
		defInstr := reach.Sites.Resolve(site)
		d, ok := defInstr.Def()
		if !ok || d != v {
			continue
		}
		user, single := du.HasSingleUser(site)
		if !single || user != consumer {
			continue
		}
		if ref, ok := nearestEqualBefore(f, ctx, consumer, defInstr); ok {
			producer, found = ref, true
		}
	}
	if !found {
		return ir.InstructionRef{}, false
	}
	if !safeToMerge(f, producer, consumer) {
		return ir.InstructionRef{}, false
	}
	return producer, true
}

// nearestEqualBefore returns the last instruction reference in ctx,
// strictly before consumer, whose resolved instruction equals want.
func nearestEqualBefore(f *ir.Function, ctx Context, consumer ir.InstructionRef, want ir.Instruction) (ir.InstructionRef, bool) {
	var best ir.InstructionRef
	found := false
	for _, ref := range ctx.Refs {
		if ref.Block != consumer.Block || ref.Index >= consumer.Index {
			continue
		}
		if f.At(ref) == want {
			best, found = ref, true
		}
	}
	return best, found
}

// safeToMerge reports whether folding producer's subtree into consumer
// is safe: they must lie in the same block, and no instruction between
// them may clobber a value producer reads, with the extra rule that a
// Load may never be folded across an intervening Store (spec.md §4.9).
func safeToMerge(f *ir.Function, producer, consumer ir.InstructionRef) bool {
	if producer.Block != consumer.Block {
		return false
	}
	blk := f.Blocks[producer.Block]
	prodInstr := blk.Instructions[producer.Index]
	uses := prodInstr.Uses()

	for i1 := producer.Index + 1; i1 < consumer.Index; i1++ {
		instr := blk.Instructions[i1]
		if prodInstr.Op == ir.OpLoad && instr.Op == ir.OpStore {
			return false
		}
		for _, d := range instr.Defs() {
			for _, u := range uses {
				if d == u {
					return false
				}
			}
		}
	}
	return true
}
