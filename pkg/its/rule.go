package its

import (
	"fmt"

	"github.com/mmjb/LoAT/internal/alg"
)

// RuleIdx uniquely identifies a rule for the lifetime of a Store. Values are
// never reused, even across insertions and deletions (spec.md §3).
type RuleIdx uint64

func (r RuleIdx) String() string { return fmt.Sprintf("#%d", uint64(r)) }

// Branch is one call target of a rule's right-hand side: a destination
// location together with the update performed on taking it.
type Branch struct {
	Target int
	Update Update
}

// Rhs is the tagged variant of DESIGN NOTES §9: a rule's right-hand side is
// either a single call (Linear) or an ordered sequence of calls (Branch),
// each execution firing all branches.
type Rhs struct {
	// Branches holds one entry for a Linear rhs, two-or-more for a
	// genuinely branching (nonlinear) rhs.
	Branches []Branch
}

// LinearRhs builds a single-branch right-hand side.
func LinearRhs(target int, update Update) Rhs {
	return Rhs{Branches: []Branch{{Target: target, Update: update}}}
}

// BranchRhs builds a (possibly) multi-branch right-hand side.
func BranchRhs(branches ...Branch) Rhs {
	return Rhs{Branches: branches}
}

// IsLinear reports whether this rhs has exactly one branch.
func (r Rhs) IsLinear() bool { return len(r.Branches) == 1 }

// Rule is one edge of the ITS graph: (lhs_loc, guard, cost, rhs) (spec.md
// §3). Cost is required to be positive on the guard; callers that accept a
// user-supplied cost must append "cost > 0" to the guard themselves (see
// NewRule).
type Rule struct {
	Source int
	Guard  Guard
	Cost   alg.Expr
	Rhs    Rhs
}

// NewRule builds a rule, appending "cost > 0" to the guard when
// appendCostGuard is true (the user-cost case of spec.md §3).
func NewRule(source int, guard Guard, cost alg.Expr, rhs Rhs, appendCostGuard bool) Rule {
	if appendCostGuard {
		guard = guard.Append(Atom{Expr: cost, Rel: Gt})
	}
	return Rule{Source: source, Guard: guard, Cost: cost, Rhs: rhs}
}

// IsLinear reports whether this rule's rhs is a single branch.
func (r Rule) IsLinear() bool { return r.Rhs.IsLinear() }

// IsSelfLoop reports whether this is a single-branch rule whose target
// equals its source (a simple loop, spec.md glossary).
func (r Rule) IsSelfLoop() bool {
	return r.Rhs.IsLinear() && r.Rhs.Branches[0].Target == r.Source
}

// SoleBranch returns the rule's single branch; panics if the rule is
// branching (programmer error, per spec.md §4.1's error policy).
func (r Rule) SoleBranch() Branch {
	if !r.IsLinear() {
		panic("its: SoleBranch called on a branching rule")
	}
	return r.Rhs.Branches[0]
}

func (r Rule) String() string {
	targets := ""
	for i, b := range r.Rhs.Branches {
		if i > 0 {
			targets += ", "
		}
		targets += fmt.Sprintf("loc%d%s", b.Target, updateString(b.Update))
	}
	return fmt.Sprintf("loc%d -{%s}-> [%s] : %s", r.Source, r.Cost, targets, r.Guard)
}

func updateString(u Update) string {
	s := "("
	first := true
	for k, v := range u {
		if !first {
			s += ", "
		}
		first = false
		s += fmt.Sprintf("x%d:=%s", k, v)
	}
	return s + ")"
}
