// select.go is the public entry point for instruction selection: given
// an L3 Function, produce the equivalent L2 Function by splitting into
// contexts, building and merging each context's selection forest, and
// tiling the result (spec.md §4.9).
package isel

import (
	"rax/internal/dataflow"
	"rax/internal/ir"
)

// SelectFunction lowers an L3 function to L2 instructions, preserving
// its block and CFG shape: the instruction selector only changes how
// many and which L2 instructions realize each original L3 instruction,
// never the control-flow skeleton around them.
func SelectFunction(f *ir.Function) ir.Function {
	reach := dataflow.ComputeReachingDefs(f)
	du := dataflow.BuildDefUse(f, reach)

	contexts := CreateContexts(f)

	// Map every instruction ref of each context to the context, so the
	// per-block rebuild below emits a context's output at its first
	// instruction and skips the rest.
	contextOf := make(map[ir.InstructionRef]*Context, len(contexts))
	for i1 := range contexts {
		for _, ref := range contexts[i1].Refs {
			contextOf[ref] = &contexts[i1]
		}
	}

	out := ir.Function{
		Name:      f.Name,
		NumParams: f.NumParams,
		Params:    f.Params,
		Locals:    f.Locals,
		Blocks:    make([]ir.BasicBlock, len(f.Blocks)),
		CFG:       f.CFG,
	}

	seen := make(map[*Context]bool, len(contexts))
	for b, blk := range f.Blocks {
		var instrs []ir.Instruction
		for k := range blk.Instructions {
			ref := ir.InstructionRef{Block: b, Index: k}
			ctx := contextOf[ref]
			if ctx == nil || seen[ctx] {
				continue
			}
			seen[ctx] = true
			forest := BuildForest(f, *ctx, du, reach)
			instrs = append(instrs, Tile(forest)...)
		}
		out.Blocks[b] = ir.BasicBlock{Name: blk.Name, Instructions: instrs}
	}

	return out
}

// SelectProgram lowers every function of p from L3 to L2.
func SelectProgram(p *ir.Program) ir.Program {
	out := ir.Program{Entry: p.Entry, Functions: make([]ir.Function, len(p.Functions))}
	for i1 := range p.Functions {
		out.Functions[i1] = SelectFunction(&p.Functions[i1])
	}
	return out
}
