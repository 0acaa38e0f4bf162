// Package chain implements the Chainer of spec.md §4.4: sequential
// composition of two rules into one, and the graph-contraction passes built
// on top of it (linear-path chaining, tree-path chaining, post-acceleration
// chaining, and the last-resort single-location elimination heuristic).
package chain

import (
	"sort"

	"github.com/mmjb/LoAT/internal/alg"
	"github.com/mmjb/LoAT/internal/presburger"
	"github.com/mmjb/LoAT/pkg/its"
)

// ChainRules composes r1 (A->B) and r2 (B->C) into a rule A->C by
// substituting r1's update into r2's guard/update/cost and conjoining
// guards (spec.md §4.4). branch selects which of r1's branches supplies B
// when r1 is nonlinear (callers chaining a specific branch pass its index);
// linear callers always pass 0. ok is false if the combined guard is
// unsatisfiable.
func ChainRules(r1 its.Rule, branch int, r2 its.Rule) (its.Rule, bool) {
	b1 := r1.Rhs.Branches[branch]
	mapping := b1.Update.AsMapping()

	guard := r1.Guard.Concat(r2.Guard.Substitute(mapping))
	if presburger.Check(guard) == presburger.Unsat {
		return its.Rule{}, false
	}

	cost := alg.AddOf(r1.Cost, alg.Substitute(r2.Cost, mapping))

	var branches []its.Branch
	for _, b2 := range r2.Rhs.Branches {
		branches = append(branches, its.Branch{
			Target: b2.Target,
			Update: composeUpdates(b1.Update, b2.Update),
		})
	}

	return its.Rule{Source: r1.Source, Guard: guard, Cost: cost, Rhs: its.Rhs{Branches: branches}}, true
}

// composeUpdates builds (u1;u2)(v) = substitute(u2(v), u1), extended by u1 on
// variables u2 does not mention (spec.md §4.4).
func composeUpdates(u1, u2 its.Update) its.Update {
	out := its.Update{}
	mapping := u1.AsMapping()
	for v, e := range u2 {
		out[v] = alg.Substitute(e, mapping)
	}
	for v, e := range u1 {
		if _, ok := u2[v]; !ok {
			out[v] = e
		}
	}
	return out
}

// ChainLinearPaths finds locations M != initial with exactly one outgoing
// and one incoming rule, both linear, and replaces the pair by their chain.
// Repeats to a fixpoint (spec.md §4.4).
func ChainLinearPaths(s *its.Store) bool {
	changed := false
	for {
		roundChanged := false
		for _, loc := range s.Locations() {
			if loc == s.InitialLocation() {
				continue
			}
			in := s.RulesTo(loc)
			out := s.RulesFrom(loc)
			if len(in) != 1 || len(out) != 1 {
				continue
			}
			r1, r2 := s.Rule(in[0]), s.Rule(out[0])
			if !r1.IsLinear() || !r2.IsLinear() || r1.Rhs.Branches[0].Target != loc {
				continue
			}
			if in[0] == out[0] {
				continue // a bare self-loop at loc, not a path
			}

			chained, ok := ChainRules(r1, 0, r2)
			if !ok {
				// The combined guard is unsatisfiable: this path is dead,
				// but r1 and r2 are each still live, individually
				// satisfiable rules. Retiring either without a
				// replacement would silently drop the behavior and cost
				// it represents on its own.
				continue
			}
			s.RemoveRule(in[0])
			s.RemoveRule(out[0])
			s.AddRule(chained)
			roundChanged = true
		}
		if !roundChanged {
			break
		}
		changed = true
	}
	return changed
}

// fanOut bounds how many chained pairs ChainTreePaths will create for a
// single location, guarding against the combinatorial blowup of chaining
// every (in, out) pair when both sets are large.
const fanOut = 64

// ChainTreePaths chains every (incoming, outgoing) pair at each non-initial
// location M whose outgoing rules contain no self-loop, provided doing so
// would not exceed the fan-out budget, then removes each of M's incoming and
// outgoing rules that took part in at least one successful chaining
// (spec.md §4.4); a rule whose every pairing had an unsatisfiable combined
// guard stays. Returns whether any rule was removed this way.
func ChainTreePaths(s *its.Store) bool {
	changed := false
	for _, loc := range s.Locations() {
		if loc == s.InitialLocation() {
			continue
		}
		in := s.RulesTo(loc)
		out := s.RulesFrom(loc)
		if len(in) == 0 || len(out) == 0 {
			continue
		}
		if hasSelfLoop(s, loc, out) {
			continue
		}
		if len(in)*len(out) > fanOut {
			continue
		}

		chainedIn := map[its.RuleIdx]bool{}
		chainedOut := map[its.RuleIdx]bool{}
		for _, i := range in {
			for _, o := range out {
				r1, r2 := s.Rule(i), s.Rule(o)
				for b := range r1.Rhs.Branches {
					if r1.Rhs.Branches[b].Target != loc {
						continue
					}
					if chained, ok := ChainRules(r1, b, r2); ok {
						s.AddRule(chained)
						chainedIn[i] = true
						chainedOut[o] = true
					}
				}
			}
		}
		// Only rules that actually produced at least one replacement are
		// safe to retire; an (i, o) pair whose combined guard was
		// unsatisfiable leaves both i and o's own behavior live.
		for _, i := range in {
			if chainedIn[i] && s.Has(i) {
				s.RemoveRule(i)
				changed = true
			}
		}
		for _, o := range out {
			if chainedOut[o] && s.Has(o) {
				s.RemoveRule(o)
				changed = true
			}
		}
	}
	return changed
}

func hasSelfLoop(s *its.Store, loc int, out []its.RuleIdx) bool {
	for _, idx := range out {
		if s.Rule(idx).IsSelfLoop() {
			return true
		}
	}
	return false
}

// ChainAcceleratedRules chains each accelerated self-loop L->L with every
// rule incoming to L, except other accelerated loops at L (spec.md §4.4).
// If keepIncoming is false, the incoming rule is consumed (removed) once
// chained. The accelerated self-loop itself is removed once every
// predecessor has been chained into it: its "at least one more iteration"
// behavior is now subsumed by the chained edges, and leaving it live would
// have a later pass re-accelerate or re-chain an already-summarized loop.
func ChainAcceleratedRules(s *its.Store, accelerated map[its.RuleIdx]bool, keepIncoming bool) bool {
	changed := false
	for _, accIdx := range sortedRuleIdxs(accelerated) {
		if !s.Has(accIdx) {
			continue
		}
		accRule := s.Rule(accIdx)
		if !accRule.IsSelfLoop() {
			continue
		}
		loc := accRule.Source

		for _, inIdx := range s.RulesTo(loc) {
			if accelerated[inIdx] {
				continue
			}
			inRule := s.Rule(inIdx)
			for b := range inRule.Rhs.Branches {
				if inRule.Rhs.Branches[b].Target != loc {
					continue
				}
				if chained, ok := ChainRules(inRule, b, accRule); ok {
					s.AddRule(chained)
					changed = true
				}
			}
			if !keepIncoming {
				s.RemoveRule(inIdx)
			}
		}

		s.RemoveRule(accIdx)
		changed = true
	}
	return changed
}

// sortedRuleIdxs returns m's keys in ascending order, so that map iteration
// order never leaks into which rule is chained or removed first (spec.md
// §5's determinism guarantee).
func sortedRuleIdxs(m map[its.RuleIdx]bool) []its.RuleIdx {
	out := make([]its.RuleIdx, 0, len(m))
	for idx := range m {
		out = append(out, idx)
	}
	sort.Slice(out, func(i, j int) bool { return out[i] < out[j] })
	return out
}

// EliminateALocation is the last-resort heuristic: pick a non-initial
// location M minimizing |In|*|Out| plus a penalty for self-loops at M, then
// force-apply a tree-path chain to it even if ChainTreePaths's general
// policy (no self-loop at M) would refuse. Returns the eliminated location
// and whether one was found (spec.md §4.4).
func EliminateALocation(s *its.Store) (int, bool) {
	best := -1
	bestScore := -1
	for _, loc := range s.Locations() {
		if loc == s.InitialLocation() {
			continue
		}
		in := s.RulesTo(loc)
		out := s.RulesFrom(loc)
		if len(in) == 0 || len(out) == 0 {
			// Pure leaves and unreachable stubs are prune's job, not
			// this pass's; chaining them here would just delete the
			// incoming rule's cost instead of composing it.
			continue
		}
		score := len(in) * len(out)
		if hasSelfLoop(s, loc, out) {
			score += len(in) + len(out) + 1
		}
		if best == -1 || score < bestScore {
			best, bestScore = loc, score
		}
	}
	if best == -1 {
		return 0, false
	}

	forceEliminate(s, best)
	return best, true
}

// forceEliminate chains every (in, out) pair at loc, self-loops included,
// except that a rule is never chained with itself, then drops each incident
// rule that took part in at least one successful chaining.
func forceEliminate(s *its.Store, loc int) {
	in := s.RulesTo(loc)
	out := s.RulesFrom(loc)

	chainedIn := map[its.RuleIdx]bool{}
	chainedOut := map[its.RuleIdx]bool{}
	for _, i := range in {
		for _, o := range out {
			if i == o {
				continue
			}
			r1, r2 := s.Rule(i), s.Rule(o)
			for b := range r1.Rhs.Branches {
				if r1.Rhs.Branches[b].Target != loc {
					continue
				}
				if chained, ok := ChainRules(r1, b, r2); ok {
					s.AddRule(chained)
					chainedIn[i] = true
					chainedOut[o] = true
				}
			}
		}
	}
	// As in ChainTreePaths, a pair whose combined guard is unsatisfiable
	// must not be retired: neither side gained a replacement.
	for _, i := range in {
		if chainedIn[i] && s.Has(i) {
			s.RemoveRule(i)
		}
	}
	for _, o := range out {
		if chainedOut[o] && s.Has(o) {
			s.RemoveRule(o)
		}
	}
}
