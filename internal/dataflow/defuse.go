// defuse.go builds def-use chains on top of reaching definitions
// (spec.md §4.4): for each definition site, the set of instructions
// that may observe it.
//
// Grounded on the original_source draft's DefUseChain::new/users_of
// (l3/src/analysis/def_use.rs), which is built directly from a
// ReachingDefResult the same way DefUse is built from a ReachResult
// here.
package dataflow

import "rax/internal/ir"

// DefUse maps each reaching-definition site to the instructions that
// use the value it defines.
type DefUse struct {
	Reach   *ReachResult
	usersOf map[int][]ir.InstructionRef
}

// BuildDefUse computes the def-use chains of f from its reaching
// definitions result.
func BuildDefUse(f *ir.Function, reach *ReachResult) *DefUse {
	usersOf := make(map[int][]ir.InstructionRef)
	for b, blk := range f.Blocks {
		for k, instr := range blk.Instructions {
			reachIn := reach.ReachIn[b][k]
			for _, u := range instr.Uses() {
				for _, site := range reachIn.Elements() {
					defInstr := reach.Sites.Resolve(site)
					if d, ok := defInstr.Def(); ok && d == u {
						ref := ir.InstructionRef{Block: b, Index: k}
						// An instruction reading the value twice is still one user.
						if us := usersOf[site]; len(us) > 0 && us[len(us)-1] == ref {
							continue
						}
						usersOf[site] = append(usersOf[site], ref)
					}
				}
			}
		}
	}
	return &DefUse{Reach: reach, usersOf: usersOf}
}

// UsersOf returns every instruction reference that may observe the
// value written at the given definition site.
func (du *DefUse) UsersOf(site int) []ir.InstructionRef {
	return du.usersOf[site]
}

// HasSingleUser reports whether the definition at site has exactly one
// possible user, and if so returns it. The instruction selector's merge
// phase (spec.md §4.9) only folds a producer into a consumer when this
// holds.
func (du *DefUse) HasSingleUser(site int) (ir.InstructionRef, bool) {
	users := du.usersOf[site]
	if len(users) == 1 {
		return users[0], true
	}
	return ir.InstructionRef{}, false
}
