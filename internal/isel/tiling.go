// tiling.go walks a selection-forest tree bottom-up and emits the
// cheapest L2 instruction sequence that realizes it, folding a merged
// Load into an arithmetic op as load-arith and a merged arithmetic op
// into a Store as store-arith — the two "destructive update" tiles
// that make munching a tree worthwhile instead of re-emitting each
// original L3 instruction unchanged.
//
// Grounded on the original_source draft's tile catalogue
// (l3/src/isel/tiling.rs): one emission rule per instruction kind,
// sorted so a larger/cheaper tile is always preferred over emitting
// the same work as separate instructions — here expressed directly as
// a post-order walk that special-cases the two destructive-update
// shapes rather than as the Rust draft's explicit Pattern/Tile
// registry, since Go's switch over a closed Op enum already gives a
// total, exhaustive match without one.
package isel

import "rax/internal/ir"

// tiler carries the fresh-temporary counter shared by one Context's
// emission.
type tiler struct {
	counter int
}

func (t *tiler) fresh(prefix string) ir.Value {
	t.counter++
	return ir.Variable(prefixedName(prefix, t.counter))
}

func prefixedName(prefix string, n int) string {
	digits := [...]byte{'0', '1', '2', '3', '4', '5', '6', '7', '8', '9'}
	if n < 10 {
		return prefix + string(digits[n])
	}
	// Fall back to repeated division for multi-digit counters.
	var buf []byte
	for n > 0 {
		buf = append([]byte{digits[n%10]}, buf...)
		n /= 10
	}
	return prefix + string(buf)
}

// Tile emits the L2 instructions realizing every root in forest, in
// order. Each call uses a fresh tiler, so temporary names are distinct
// within one context only; the counter restarts for the next context.
func Tile(forest []*Node) []ir.Instruction {
	t := &tiler{}
	var out []ir.Instruction
	for _, root := range forest {
		t.emit(root, &out)
	}
	return out
}

// emit recursively lowers node, appending L2 instructions to out, and
// returns the Value holding node's result (its own Value, if a leaf;
// otherwise the destination the emitted instruction(s) wrote).
func (t *tiler) emit(node *Node, out *[]ir.Instruction) ir.Value {
	if node.Leaf {
		return node.Value
	}

	switch node.Instr.Op {
	case ir.OpStore:
		dstChild, srcChild := node.Children[0], node.Children[1]
		base := t.emit(dstChild, out)
		if fused, ok := t.tryStoreArith(base, node.Instr.Offset, srcChild, out); ok {
			_ = fused
			return ir.Value{}
		}
		src := t.emit(srcChild, out)
		*out = append(*out, ir.Store(base, src, node.Instr.Offset))
		return ir.Value{}

	case ir.OpArith:
		dstChild, srcChild := node.Children[0], node.Children[1]
		dst := t.emit(dstChild, out)
		if !srcChild.Leaf && srcChild.Instr.Op == ir.OpLoad {
			base := t.emit(srcChild.Children[0], out)
			*out = append(*out, ir.LoadArith(node.Instr.ArithOp, dst, base, srcChild.Instr.Offset))
			return dst
		}
		src := t.emit(srcChild, out)
		*out = append(*out, ir.Arith(node.Instr.ArithOp, dst, src))
		return dst

	case ir.OpShift:
		dstChild, srcChild := node.Children[0], node.Children[1]
		dst := t.emit(dstChild, out)
		src := t.emit(srcChild, out)
		*out = append(*out, ir.Shift(node.Instr.ShiftOp, dst, src))
		return dst

	case ir.OpLoad:
		base := t.emit(node.Children[0], out)
		dst := t.resultOf(node)
		*out = append(*out, ir.Load(dst, base, node.Instr.Offset))
		return dst

	case ir.OpLoadArith:
		dst := t.emit(node.Children[0], out)
		base := t.emit(node.Children[1], out)
		*out = append(*out, ir.LoadArith(node.Instr.ArithOp, dst, base, node.Instr.Offset))
		return dst

	case ir.OpStoreArith:
		dst := t.emit(node.Children[0], out)
		src := t.emit(node.Children[1], out)
		*out = append(*out, ir.StoreArith(node.Instr.ArithOp, dst, src, node.Instr.Offset))
		return ir.Value{}

	case ir.OpAssign:
		src := t.emit(node.Children[0], out)
		dst := t.resultOf(node)
		*out = append(*out, ir.Assign(dst, src))
		return dst

	case ir.OpCompare:
		lhs := t.emit(node.Children[0], out)
		rhs := t.emit(node.Children[1], out)
		dst := t.resultOf(node)
		*out = append(*out, ir.Compare(node.Instr.CompareOp, dst, lhs, rhs))
		return dst

	case ir.OpCJump:
		lhs := t.emit(node.Children[0], out)
		rhs := t.emit(node.Children[1], out)
		*out = append(*out, ir.CJump(node.Instr.CompareOp, lhs, rhs, node.Instr.Target))
		return ir.Value{}

	case ir.OpIncrement:
		dst := t.emit(node.Children[0], out)
		*out = append(*out, ir.Increment(dst))
		return dst

	case ir.OpDecrement:
		dst := t.emit(node.Children[0], out)
		*out = append(*out, ir.Decrement(dst))
		return dst

	case ir.OpLEA:
		base := t.emit(node.Children[0], out)
		index := t.emit(node.Children[1], out)
		dst := t.resultOf(node)
		*out = append(*out, ir.LEA(dst, base, index, node.Instr.Scale))
		return dst

	case ir.OpCall:
		if node.Instr.Callee.IsVariable() {
			node.Instr.Callee = t.emit(leafNode(node.Instr.Callee), out)
		}
		*out = append(*out, node.Instr)
		return node.Instr.Dst

	case ir.OpLabel, ir.OpGoto, ir.OpReturn, ir.OpStackArg, ir.OpPrint,
		ir.OpInput, ir.OpAllocate, ir.OpTupleError, ir.OpTensorError:
		*out = append(*out, node.Instr)
		return node.Result

	default:
		*out = append(*out, node.Instr)
		return node.Result
	}
}

// resultOf returns the value a node's own instruction defines, or a
// fresh temporary if the forest needs one that was not already present
// (defensive; makeRoot always sets Result from Def() when one exists).
func (t *tiler) resultOf(node *Node) ir.Value {
	if node.HasResult {
		return node.Result
	}
	return t.fresh("t")
}

// tryStoreArith folds "mem base+off <- src" into a single StoreArith
// when src is a merged Arith node whose own destination operand is a
// Load from the exact same base and offset — the classic
// read-modify-write "mem[off] += y" shape.
func (t *tiler) tryStoreArith(base ir.Value, offset int64, srcChild *Node, out *[]ir.Instruction) (ir.Value, bool) {
	if srcChild.Leaf || srcChild.Instr.Op != ir.OpArith {
		return ir.Value{}, false
	}
	arithDstChild := srcChild.Children[0]
	if arithDstChild.Leaf || arithDstChild.Instr.Op != ir.OpLoad {
		return ir.Value{}, false
	}
	loadBase := arithDstChild.Children[0]
	if !loadBase.Leaf || loadBase.Value != base || arithDstChild.Instr.Offset != offset {
		return ir.Value{}, false
	}
	src := t.emit(srcChild.Children[1], out)
	*out = append(*out, ir.StoreArith(srcChild.Instr.ArithOp, base, src, offset))
	return ir.Value{}, true
}
