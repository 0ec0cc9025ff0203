// Package cfgbuild splits a function's flat instruction list into
// basic blocks and wires up the control-flow graph between them. This
// is one of spec.md's explicitly thin, externally-facing collaborators
// (not core algorithmic territory): the parser hands it a flat
// instruction list per function, and every downstream package
// (dataflow, regalloc, isel) operates on the resulting ir.Function.
//
// Grounded on the teacher's basic-block splitting in
// ir/lir/lir.go/block.go (a block begins at a label and ends at the
// last instruction before the next label, or at a jump/branch/return),
// generalized here from vslc's own ARM/RISC-V-oriented helpers to the
// closed L1/L2/L3 instruction set of spec.md §3.
package cfgbuild

import (
	"fmt"

	"rax/internal/ir"
)

// Build splits a flat, label-annotated instruction list into basic
// blocks and computes the control-flow edges between them. name is the
// function's name, numParams and params describe its formal
// parameters, and locals is the number of stack slots it already
// reserves (grows further only once the allocator spills).
func Build(name string, numParams int, params []ir.Value, locals int, flat []ir.Instruction) (ir.Function, error) {
	blocks, labelIndex := splitBlocks(flat)

	f := ir.Function{
		Name:      name,
		NumParams: numParams,
		Params:    params,
		Locals:    locals,
		Blocks:    blocks,
		CFG:       ir.NewControlFlowGraph(len(blocks)),
	}

	for b, blk := range blocks {
		if len(blk.Instructions) == 0 {
			continue
		}
		last := blk.Instructions[len(blk.Instructions)-1]
		switch last.Op {
		case ir.OpGoto:
			target, ok := labelIndex[last.Target]
			if !ok {
				return ir.Function{}, fmt.Errorf("cfgbuild: function %q: goto to undefined label %q", name, last.Target)
			}
			f.CFG.AddEdge(b, target)
		case ir.OpCJump:
			target, ok := labelIndex[last.Target]
			if !ok {
				return ir.Function{}, fmt.Errorf("cfgbuild: function %q: cjump to undefined label %q", name, last.Target)
			}
			f.CFG.AddEdge(b, target)
			if b+1 < len(blocks) {
				f.CFG.AddEdge(b, b+1)
			}
		case ir.OpReturn, ir.OpTupleError, ir.OpTensorError:
			// No successors.
		default:
			// Falls through to the next block.
			if b+1 < len(blocks) {
				f.CFG.AddEdge(b, b+1)
			}
		}
	}

	return f, nil
}

// splitBlocks partitions flat into maximal straight-line runs: a new
// block begins at every label and immediately after every
// jump/branch/return.
func splitBlocks(flat []ir.Instruction) ([]ir.BasicBlock, map[string]int) {
	var blocks []ir.BasicBlock
	labelIndex := make(map[string]int)

	cur := ir.BasicBlock{Name: "entry"}
	flush := func() {
		if len(cur.Instructions) > 0 {
			blocks = append(blocks, cur)
			cur = ir.BasicBlock{}
		}
	}

	for _, instr := range flat {
		if instr.Op == ir.OpLabel {
			flush()
			cur.Name = instr.Target
			labelIndex[instr.Target] = len(blocks)
			continue
		}
		cur.Instructions = append(cur.Instructions, instr)
		if instr.IsControlFlow() {
			flush()
		}
	}
	flush()

	return blocks, labelIndex
}
