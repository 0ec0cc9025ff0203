// spill.go rewrites a function to replace an uncolourable variable
// with an explicit stack slot (spec.md §4.7): every instruction that
// reads the variable gets a fresh temporary loaded from the slot right
// before it, every instruction that writes the variable writes through
// a fresh temporary stored to the slot right after it, and the
// function's local slot count grows by one per spilled variable.
//
// Grounded directly on the original_source draft's spill_variable
// (l2/src/regalloc/spilling.rs): a fresh variable per referencing
// instruction, load-before-use, store-after-def, and a locals bump
// only for variables actually spilled.
package regalloc

import (
	"fmt"

	"rax/internal/ir"
)

// spillSlotOffset returns the byte offset of local slot i relative to
// rbp, matching the frame layout internal/ir/printer emits (locals
// live below the saved frame pointer, growing downward).
func spillSlotOffset(slot int) int64 {
	return -int64(slot+1) * 8
}

// SpillVariables rewrites f so that every variable in targets is backed
// by a dedicated stack slot instead of holding a colour. It returns the
// updated function; f itself is left untouched.
func SpillVariables(f ir.Function, targets []ir.Value) ir.Function {
	return SpillVariablesWithPrefix(f, targets, "spill")
}

// SpillVariablesWithPrefix is SpillVariables with an explicit
// fresh-name prefix, the parameter spec.md §4.7 and the CLI's -s mode
// (spec.md §6) expose directly to the caller.
func SpillVariablesWithPrefix(f ir.Function, targets []ir.Value, prefix string) ir.Function {
	base := f.Locals
	slotOf := make(map[ir.Value]int, len(targets))
	for i1, t := range targets {
		slotOf[t] = base + i1
	}
	f.Locals = base + len(targets)

	fresh := 0
	newName := func() ir.Value {
		fresh++
		return ir.Variable(fmt.Sprintf("%s%d", prefix, fresh))
	}

	rbp := ir.Register(ir.RBP)

	for b := range f.Blocks {
		var out []ir.Instruction
		for _, instr := range f.Blocks[b].Instructions {
			spilled := spilledOperand(instr, slotOf)
			if spilled == nil {
				out = append(out, instr)
				continue
			}

			rewritten := instr
			var afterStores []ir.Instruction
			for target, slot := range spilled {
				usesTarget := containsValue(instr.Uses(), target)
				def, hasDef := instr.Def()
				definesTarget := hasDef && def == target

				t := newName()
				if usesTarget {
					out = append(out, ir.Load(t, rbp, spillSlotOffset(slot)))
				}
				rewritten = rewritten.ReplaceValue(target, t)
				if definesTarget {
					afterStores = append(afterStores, ir.Store(rbp, t, spillSlotOffset(slot)))
				}
			}
			out = append(out, rewritten)
			out = append(out, afterStores...)
		}
		f.Blocks[b].Instructions = out
	}

	return f
}

// spilledOperand returns the slot of every spill target that instr
// either uses or defines, or nil if none apply.
func spilledOperand(instr ir.Instruction, slotOf map[ir.Value]int) map[ir.Value]int {
	var found map[ir.Value]int
	check := func(v ir.Value) {
		if slot, ok := slotOf[v]; ok {
			if found == nil {
				found = make(map[ir.Value]int)
			}
			found[v] = slot
		}
	}
	for _, u := range instr.Uses() {
		check(u)
	}
	if d, ok := instr.Def(); ok {
		check(d)
	}
	return found
}

func containsValue(vs []ir.Value, v ir.Value) bool {
	for _, x := range vs {
		if x == v {
			return true
		}
	}
	return false
}
