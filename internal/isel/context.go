// Package isel implements the L3→L2 greedy maximum-munch instruction
// selector (spec.md §4.9): split a function into straight-line
// selection contexts, build a selection forest per context, merge
// producer trees into their sole consumer where it is safe to do so,
// then tile each resulting tree with the cost-minimal catalogue match.
//
// context.go is grounded directly on the original_source draft's
// Context/create_contexts (l3/src/isel/contexts.rs): cut after Return,
// Goto and CJump (the instruction stays in the context that is being
// closed), and cut before Label and Call (the instruction opens the
// next context instead).
package isel

import "rax/internal/ir"

// Context is one maximal straight-line run of L3 instructions handed
// to the selection forest as a unit, identified by the (block, index)
// reference of each instruction so later passes can cross-reference
// liveness and def-use information computed over the whole function.
type Context struct {
	Refs []ir.InstructionRef
}

// Instructions resolves ctx's instruction references against f.
func (ctx Context) Instructions(f *ir.Function) []ir.Instruction {
	out := make([]ir.Instruction, len(ctx.Refs))
	for i1, r := range ctx.Refs {
		out[i1] = f.At(r)
	}
	return out
}

// CreateContexts splits f's instructions into selection contexts.
func CreateContexts(f *ir.Function) []Context {
	var contexts []Context
	var cur []ir.InstructionRef

	flushOpening := func(ref ir.InstructionRef) {
		if len(cur) > 0 {
			contexts = append(contexts, Context{Refs: cur})
		}
		cur = []ir.InstructionRef{ref}
	}
	flushClosing := func(ref ir.InstructionRef) {
		cur = append(cur, ref)
		contexts = append(contexts, Context{Refs: cur})
		cur = nil
	}

	for b, blk := range f.Blocks {
		for k, instr := range blk.Instructions {
			ref := ir.InstructionRef{Block: b, Index: k}
			switch instr.Op {
			case ir.OpLabel, ir.OpCall:
				flushOpening(ref)
			case ir.OpReturn, ir.OpGoto, ir.OpCJump, ir.OpTupleError, ir.OpTensorError:
				flushClosing(ref)
			default:
				cur = append(cur, ref)
			}
		}
	}
	if len(cur) > 0 {
		contexts = append(contexts, Context{Refs: cur})
	}
	return contexts
}
