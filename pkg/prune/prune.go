// Package prune implements the five graph-cleanup passes of spec.md §4.2:
// dropping unsatisfiable initial rules, unreachable/dead leaves, dead
// nonlinear branches, duplicate rules and dominated parallel rules. Every
// exported function returns a "changed" boolean, mirroring the teacher's
// optimiser-pass contract in pkg/mir/optimiser.go (each pass reports whether
// it rewrote anything, and the driver loops passes to a fixpoint on that
// signal).
package prune

import (
	"github.com/mmjb/LoAT/internal/alg"
	"github.com/mmjb/LoAT/internal/presburger"
	"github.com/mmjb/LoAT/pkg/complexity"
	"github.com/mmjb/LoAT/pkg/its"
)

// RemoveUnsatInitialRules removes every rule outgoing from the initial
// location whose guard the LIA decision procedure proves unsatisfiable.
// Decisions coming back Unknown keep the rule (spec.md §4.2).
func RemoveUnsatInitialRules(s *its.Store) bool {
	changed := false
	for _, idx := range s.RulesFrom(s.InitialLocation()) {
		if presburger.Check(s.Rule(idx).Guard) == presburger.Unsat {
			s.RemoveRule(idx)
			changed = true
		}
	}
	return changed
}

// reachableFrom computes the set of locations reachable from start via live
// rules, start included.
func reachableFrom(s *its.Store, start int) map[int]bool {
	seen := map[int]bool{start: true}
	stack := []int{start}
	for len(stack) > 0 {
		loc := stack[len(stack)-1]
		stack = stack[:len(stack)-1]
		for _, succ := range s.SuccessorLocations(loc) {
			if !seen[succ] {
				seen[succ] = true
				stack = append(stack, succ)
			}
		}
	}
	return seen
}

// RemoveLeafsAndUnreachable repeatedly removes (a) rules whose source is
// unreachable from the initial location, and (b) locations with no outgoing
// rules and only a constant-cost incoming rule (whose cost is absorbed into
// the constant complexity class by simply discarding it), iterating to a
// fixpoint (spec.md §4.2).
func RemoveLeafsAndUnreachable(s *its.Store) bool {
	changed := false
	for {
		roundChanged := false

		reachable := reachableFrom(s, s.InitialLocation())
		for _, idx := range s.AllRuleIndices() {
			if !reachable[s.Rule(idx).Source] {
				s.RemoveRule(idx)
				roundChanged = true
			}
		}

		for _, loc := range s.Locations() {
			if loc == s.InitialLocation() {
				continue
			}
			if len(s.RulesFrom(loc)) != 0 {
				continue
			}
			incoming := s.RulesTo(loc)
			if len(incoming) != 1 {
				continue
			}
			r := s.Rule(incoming[0])
			if !r.IsLinear() {
				continue
			}
			if _, isConst := alg.IsConstantValue(r.Cost); !isConst {
				continue
			}
			s.RemoveRule(incoming[0])
			roundChanged = true
		}

		if !roundChanged {
			break
		}
		changed = true
	}
	return changed
}

// RemoveSinkRhss drops, for nonlinear rules only, any rhs branch whose
// target has no outgoing rules (no cost can accrue after calling into a dead
// location). Per DESIGN NOTES §9 this is treated as nonlinear-only; calling
// it on a fully linear store is a programmer error, mirroring pkg/its's own
// panic-on-misuse contract.
func RemoveSinkRhss(s *its.Store) bool {
	if s.IsLinear() {
		panic("prune: RemoveSinkRhss called on a fully linear store")
	}

	changed := false
	for _, idx := range s.AllRuleIndices() {
		r := s.Rule(idx)
		if r.IsLinear() {
			continue
		}
		var kept []its.Branch
		dropped := false
		for _, b := range r.Rhs.Branches {
			if len(s.RulesFrom(b.Target)) == 0 {
				dropped = true
				continue
			}
			kept = append(kept, b)
		}
		if dropped {
			r.Rhs.Branches = kept
			s.SetRule(idx, r)
			changed = true
		}
	}
	return changed
}

// RemoveDuplicateRules removes, among the given candidate indices, rules
// that are duplicates of an earlier-indexed rule: same source, same rhs
// structure (branch count and targets, in order), same guard modulo
// reordering, identical cost, and — if compareUpdates — identical updates.
// The lowest RuleIdx of each duplicate group is kept (spec.md §4.2).
func RemoveDuplicateRules(s *its.Store, candidates []its.RuleIdx, compareUpdates bool) bool {
	changed := false
	kept := make([]its.RuleIdx, 0, len(candidates))

	for _, idx := range candidates {
		if !s.Has(idx) {
			continue
		}
		r := s.Rule(idx)
		isDup := false
		for _, other := range kept {
			if !s.Has(other) {
				continue
			}
			if duplicateOf(r, s.Rule(other), compareUpdates) {
				isDup = true
				break
			}
		}
		if isDup {
			s.RemoveRule(idx)
			changed = true
		} else {
			kept = append(kept, idx)
		}
	}
	return changed
}

func duplicateOf(a, b its.Rule, compareUpdates bool) bool {
	if a.Source != b.Source {
		return false
	}
	if len(a.Rhs.Branches) != len(b.Rhs.Branches) {
		return false
	}
	for i := range a.Rhs.Branches {
		if a.Rhs.Branches[i].Target != b.Rhs.Branches[i].Target {
			return false
		}
		if compareUpdates && !a.Rhs.Branches[i].Update.Equal(b.Rhs.Branches[i].Update) {
			return false
		}
	}
	if !alg.Equal(a.Cost, b.Cost) {
		return false
	}
	return a.Guard.EqualModuloOrder(b.Guard)
}

// PruneParallelRules removes, among rules between the same pair of
// locations, any rule B dominated by another rule A between the same pair:
// A's complexity is at least B's and A's guard is implied by B's guard (so
// every state that could take B could instead take the at-least-as-costly
// A). Bounded by maxParallel: pairs between a source/target with more than
// maxParallel candidate rules are skipped entirely, since the pairwise
// domination check is quadratic (spec.md §4.2, §6 max_parallel).
func PruneParallelRules(s *its.Store, maxParallel int) bool {
	changed := false
	seenPairs := map[[2]int]bool{}

	for _, idx := range s.AllRuleIndices() {
		if !s.Has(idx) {
			continue
		}
		r := s.Rule(idx)
		if !r.IsLinear() {
			continue
		}
		pair := [2]int{r.Source, r.Rhs.Branches[0].Target}
		if seenPairs[pair] {
			continue
		}
		seenPairs[pair] = true

		rules := s.RulesBetween(pair[0], pair[1])
		if len(rules) > maxParallel {
			continue
		}

		for i := 0; i < len(rules); i++ {
			if !s.Has(rules[i]) {
				continue
			}
			a := s.Rule(rules[i])
			for j := 0; j < len(rules); j++ {
				if i == j || !s.Has(rules[j]) {
					continue
				}
				b := s.Rule(rules[j])
				if dominates(a, b) {
					s.RemoveRule(rules[j])
					changed = true
				}
			}
		}
	}
	return changed
}

// dominates reports whether a dominates b: a's cost is at least as
// asymptotically expensive as b's, and a's guard is implied by b's (every
// state satisfying b's guard also satisfies a's, so a is always available
// wherever b is and never cheaper).
func dominates(a, b its.Rule) bool {
	if complexity.Complexity(a.Cost).Compare(complexity.Complexity(b.Cost)) < 0 {
		return false
	}
	return presburger.ImpliesAll(b.Guard, a.Guard) == presburger.Sat
}

// TryRemoveCostConstraint drops a rule's trailing synthetic "cost > 0" (or
// "cost >= 0") guard atom when the rest of the guard already implies it,
// supplementing spec.md with the original tool's eliminate_cost_constraints
// option (original_source/.../preprocess.h's tryToRemoveCost). Only ever
// strips the single atom NewRule appended, never a user-written constraint.
func TryRemoveCostConstraint(s *its.Store, idx its.RuleIdx) bool {
	r := s.Rule(idx)
	if len(r.Guard) == 0 {
		return false
	}
	last := r.Guard[len(r.Guard)-1]
	if (last.Rel != its.Gt && last.Rel != its.Ge) || !alg.Equal(last.Expr, r.Cost) {
		return false
	}

	rest := r.Guard[:len(r.Guard)-1]
	if presburger.Implies(rest, last) != presburger.Sat {
		return false
	}

	r.Guard = rest
	s.SetRule(idx, r)
	return true
}
