package its

import (
	"fmt"

	"github.com/mmjb/LoAT/internal/alg"
)

// Store owns all locations and rules of an Integer Transition System: the
// Rule Store of spec.md §2/§4.1. All other components read and mutate the
// graph exclusively through this type's methods.
//
// Store is a plain value-carrying struct, not a process-wide singleton, so
// that multiple independent analyses can run in the same process (DESIGN
// NOTES §9).
type Store struct {
	vars *variables

	// locationCount is the number of locations ever added; locations are
	// added but never removed (their index persists even once orphaned).
	locationCount int
	initial       int

	rules   map[RuleIdx]Rule
	nextIdx RuleIdx

	// order preserves rule insertion order so that iteration is
	// deterministic even though rules live in a map keyed by RuleIdx.
	order []RuleIdx
}

// NewStore creates an empty store with a single location (index 0), marked
// initial.
func NewStore() *Store {
	s := &Store{
		vars:  newVariables(),
		rules: map[RuleIdx]Rule{},
	}
	s.AddLocation()
	return s
}

// AddLocation adds a fresh location and returns its index. Locations carry
// no payload (spec.md §3).
func (s *Store) AddLocation() int {
	idx := s.locationCount
	s.locationCount++
	return idx
}

// Locations returns every location index ever added, in ascending order
// (including orphans whose rules have all been removed).
func (s *Store) Locations() []int {
	out := make([]int, s.locationCount)
	for i := range out {
		out[i] = i
	}
	return out
}

// InitialLocation returns the current initial location.
func (s *Store) InitialLocation() int { return s.initial }

// SetInitialLocation marks loc as the initial location.
func (s *Store) SetInitialLocation(loc int) {
	s.requireLocation(loc)
	s.initial = loc
}

// DeclareVariable registers a new variable of the given kind.
func (s *Store) DeclareVariable(name string, kind VarKind) Variable {
	return s.vars.declare(name, kind)
}

// FreshVariable mints a new temporary variable with a name derived from
// basename.
func (s *Store) FreshVariable(basename string) Variable {
	return s.vars.fresh(basename)
}

// Variable returns the variable registered at idx.
func (s *Store) Variable(idx int) Variable { return s.vars.get(idx) }

// LookupVariable returns the variable with the given name, if any.
func (s *Store) LookupVariable(name string) (Variable, bool) { return s.vars.lookup(name) }

// Variables returns every registered variable.
func (s *Store) Variables() []Variable { return s.vars.all() }

// VarExpr is shorthand for an alg.Var referencing idx by its registered name.
func (s *Store) VarExpr(idx int) alg.Expr {
	return alg.NewVar(idx, s.vars.get(idx).Name)
}

func (s *Store) requireLocation(loc int) {
	if loc < 0 || loc >= s.locationCount {
		panic(fmt.Sprintf("its: location %d out of range", loc))
	}
}

// AddRule inserts rule and returns a fresh RuleIdx. O(1) amortized.
func (s *Store) AddRule(rule Rule) RuleIdx {
	s.requireLocation(rule.Source)
	for _, b := range rule.Rhs.Branches {
		s.requireLocation(b.Target)
	}

	idx := s.nextIdx
	s.nextIdx++
	s.rules[idx] = rule
	s.order = append(s.order, idx)
	return idx
}

// RemoveRule deletes the rule with the given index. It is a programmer error
// to remove an index twice or one that was never inserted (spec.md §4.1).
func (s *Store) RemoveRule(idx RuleIdx) {
	if _, ok := s.rules[idx]; !ok {
		panic(fmt.Sprintf("its: remove of unknown or already-removed rule %v", idx))
	}
	delete(s.rules, idx)
	for i, o := range s.order {
		if o == idx {
			s.order = append(s.order[:i], s.order[i+1:]...)
			break
		}
	}
}

// Rule returns the rule at idx.
func (s *Store) Rule(idx RuleIdx) Rule { return s.rules[idx] }

// Has reports whether idx currently refers to a live rule.
func (s *Store) Has(idx RuleIdx) bool {
	_, ok := s.rules[idx]
	return ok
}

// SetRule replaces the rule stored at idx in place, preserving its identity.
// Used by passes that rewrite a rule's guard/update/cost without wanting a
// fresh RuleIdx (e.g. cost-constraint stripping).
func (s *Store) SetRule(idx RuleIdx, rule Rule) {
	if _, ok := s.rules[idx]; !ok {
		panic(fmt.Sprintf("its: SetRule of unknown rule %v", idx))
	}
	s.rules[idx] = rule
}

// AllRuleIndices returns every live RuleIdx, in insertion order.
func (s *Store) AllRuleIndices() []RuleIdx {
	out := make([]RuleIdx, 0, len(s.order))
	out = append(out, s.order...)
	return out
}

// RulesFrom returns, in a deterministic (insertion) order, the indices of
// every live rule whose source is loc. Callers must not mutate the store
// while iterating the returned slice.
func (s *Store) RulesFrom(loc int) []RuleIdx {
	var out []RuleIdx
	for _, idx := range s.order {
		if s.rules[idx].Source == loc {
			out = append(out, idx)
		}
	}
	return out
}

// RulesTo returns every live rule with at least one branch targeting loc.
func (s *Store) RulesTo(loc int) []RuleIdx {
	var out []RuleIdx
	for _, idx := range s.order {
		for _, b := range s.rules[idx].Rhs.Branches {
			if b.Target == loc {
				out = append(out, idx)
				break
			}
		}
	}
	return out
}

// RulesBetween returns every live rule from a with some branch targeting b.
func (s *Store) RulesBetween(a, b int) []RuleIdx {
	var out []RuleIdx
	for _, idx := range s.order {
		r := s.rules[idx]
		if r.Source != a {
			continue
		}
		for _, br := range r.Rhs.Branches {
			if br.Target == b {
				out = append(out, idx)
				break
			}
		}
	}
	return out
}

// SuccessorLocations returns the unique, deterministically ordered set of
// locations reachable from loc via a single live rule.
func (s *Store) SuccessorLocations(loc int) []int {
	seen := map[int]bool{}
	var out []int
	for _, idx := range s.RulesFrom(loc) {
		for _, b := range s.rules[idx].Rhs.Branches {
			if !seen[b.Target] {
				seen[b.Target] = true
				out = append(out, b.Target)
			}
		}
	}
	return out
}

// PredecessorLocations returns the unique, deterministically ordered set of
// locations with a live rule targeting loc.
func (s *Store) PredecessorLocations(loc int) []int {
	seen := map[int]bool{}
	var out []int
	for _, idx := range s.order {
		r := s.rules[idx]
		for _, b := range r.Rhs.Branches {
			if b.Target == loc && !seen[r.Source] {
				seen[r.Source] = true
				out = append(out, r.Source)
			}
		}
	}
	return out
}

// IsLinear reports whether every live rule's rhs is a single branch.
func (s *Store) IsLinear() bool {
	for _, idx := range s.order {
		if !s.rules[idx].IsLinear() {
			return false
		}
	}
	return true
}

// IsEmpty reports whether the initial location has no outgoing rules.
func (s *Store) IsEmpty() bool { return len(s.RulesFrom(s.initial)) == 0 }

// IsFullySimplified reports whether every non-initial location has no
// outgoing rules (spec.md §3/§4.5).
func (s *Store) IsFullySimplified() bool {
	for _, loc := range s.Locations() {
		if loc == s.initial {
			continue
		}
		if len(s.RulesFrom(loc)) > 0 {
			return false
		}
	}
	return true
}
