package complexity

import (
	"github.com/mmjb/LoAT/internal/alg"
	"github.com/mmjb/LoAT/internal/timeout"
	"github.com/mmjb/LoAT/pkg/chain"
	"github.com/mmjb/LoAT/pkg/its"
)

// Prover is the black-box asymptotic-bound prover spec.md §6 names:
// determine_complexity(guard, cost, final) -> {class, witness-cost, reason}.
// It is kept as a function value rather than a direct import of
// internal/asymp because internal/asymp imports this package (for Class),
// so that import would form a cycle; wiring the concrete prover is the
// caller's job (pkg/cmd's prove, and pkg/driver's tests).
type Prover func(guard its.Guard, cost alg.Expr, final bool) ProveResult

// Complexity is the conservative complexity()/getComplexity() estimator the
// specification requires of the algebra collaborator: a constant expression
// is O(1), otherwise the expression is treated as a polynomial of its total
// degree (every expression constructible here is already polynomial, since
// the only division is Div by a nonzero integer constant and no variable
// appears in an exponent). This is an upper bound,
// never a proof; this package's extraction logic only trusts it to skip
// asymptotic checks that cannot possibly improve on the current best
// (spec.md §4.6).
func Complexity(e alg.Expr) Class {
	d := alg.Degree(e)
	if d == 0 {
		return Const()
	}
	return Poly(d)
}

// ProveResult is the shape of one answer from a Prover.
type ProveResult struct {
	Cpx, ReducedCpx Class
	Cost            alg.Expr
	Reason          string
}

// GetMaxRuntime implements spec.md §4.6's fully-simplified extraction: walk
// the rules outgoing from the initial location in RuleIdx order, skip any
// whose cheap degree-based estimate cannot possibly beat the current best
// (unless its cost mentions a temporary, which can be unbounded), and invoke
// the asymptotic-bound prover on the rest. Stops early once Infty is
// reached, and polls the hard timeout between rules.
//
// finalInfinityCheck is spec.md §6's compile-time final_infinity_check
// option: when false, the asymptotic-bound prover is never consulted and
// every rule's bound is instead taken verbatim from cost.complexity(), with
// the returned Result marked Unsound, exactly as spec.md §6 documents
// ("if disabled, skip the asymptotic prover and return cost.complexity();
// result is unsound").
func GetMaxRuntime(s *its.Store, prove Prover, sig timeout.Signal, finalInfinityCheck bool) Result {
	rules := s.RulesFrom(s.InitialLocation())
	if len(rules) == 0 {
		// spec.md §7: the extractor never returns Unknown; an empty graph
		// is a trivial (Const, 1).
		return Result{Cpx: Const(), Bound: alg.One(), ReducedCpx: Const(), Guard: its.Guard{}}
	}

	best := Result{Cpx: Unknown(), ReducedCpx: Unknown(), Unsound: !finalInfinityCheck}
	for _, idx := range rules {
		if sig.Hard() {
			break
		}

		r := s.Rule(idx)
		cheap := Complexity(r.Cost)

		if !finalInfinityCheck {
			if cheap.Compare(best.Cpx) > 0 {
				best = Result{Cpx: cheap, Bound: r.Cost, ReducedCpx: cheap, Guard: r.Guard, Unsound: true}
			}
			continue
		}

		if cheap.Compare(best.Cpx) <= 0 && !costMentionsTemporary(s, r.Cost) {
			continue
		}

		pr := prove(r.Guard, r.Cost, true)
		if pr.Cpx.Compare(best.Cpx) > 0 {
			best = Result{Cpx: pr.Cpx, Bound: pr.Cost, ReducedCpx: pr.ReducedCpx, Guard: r.Guard}
		}
		if best.Cpx.Kind == KindInfty {
			break
		}
	}

	if best.Cpx.Kind == KindUnknown {
		// spec.md §4.6: "if final best is still Unknown, coerce to Const
		// with bound 1" -- the empty case was already short-circuited above,
		// so this only fires when the hard timeout expired before the first
		// rule was examined, or the prover answered Unknown for every rule.
		return Result{Cpx: Const(), Bound: alg.One(), ReducedCpx: Const(), Guard: its.Guard{}, Unsound: best.Unsound}
	}
	return best
}

func costMentionsTemporary(s *its.Store, cost alg.Expr) bool {
	for idx := range alg.Vars(cost) {
		if s.Variable(idx).IsTemporary() {
			return true
		}
	}
	return false
}

// RemoveConstantPaths implements spec.md §4.6's pre-loop pass: a DFS from
// every location determines whether every rule reachable from it (including
// itself) has constant cost; for every location n where that holds, every
// constant-cost rule entering n is deleted (its cost can never contribute
// anything beyond the class the rest of the graph already witnesses).
func RemoveConstantPaths(s *its.Store) bool {
	memo := map[int]bool{}
	visiting := map[int]bool{}

	var onlyConstant func(loc int) bool
	onlyConstant = func(loc int) bool {
		if v, ok := memo[loc]; ok {
			return v
		}
		if visiting[loc] {
			// A cycle back to a node still being resolved is treated
			// conservatively as "not provably constant" rather than risking
			// an unsound deletion.
			return false
		}
		visiting[loc] = true

		result := true
		for _, idx := range s.RulesFrom(loc) {
			r := s.Rule(idx)
			if Complexity(r.Cost).Compare(Const()) > 0 {
				result = false
				break
			}
			allTargetsConstant := true
			for _, b := range r.Rhs.Branches {
				if !onlyConstant(b.Target) {
					allTargetsConstant = false
					break
				}
			}
			if !allTargetsConstant {
				result = false
				break
			}
		}

		delete(visiting, loc)
		memo[loc] = result
		return result
	}

	changed := false
	for _, loc := range s.Locations() {
		if !onlyConstant(loc) {
			continue
		}
		for _, idx := range s.RulesTo(loc) {
			if !s.Has(idx) {
				continue
			}
			if Complexity(s.Rule(idx).Cost).Compare(Const()) <= 0 {
				s.RemoveRule(idx)
				changed = true
			}
		}
	}
	return changed
}

// GetMaxPartialResult implements spec.md §4.6's timeout-case extraction:
// repeatedly scan the current graph with GetMaxRuntime, then chain the
// initial location's outgoing rules one level forward into their
// successors' rules, consuming the original outgoing rule, until the
// initial location has no successors, the best complexity hits Infty, or
// the hard timeout fires. RemoveConstantPaths runs once before the loop.
func GetMaxPartialResult(s *its.Store, prove Prover, sig timeout.Signal, finalInfinityCheck bool) Result {
	RemoveConstantPaths(s)

	best := Result{Cpx: Unknown(), ReducedCpx: Unknown(), Unsound: !finalInfinityCheck}
	for {
		r := GetMaxRuntime(s, prove, sig, finalInfinityCheck)
		if r.Cpx.Compare(best.Cpx) > 0 {
			best = r
		}
		if best.Cpx.Kind == KindInfty || sig.Hard() {
			break
		}

		succs := s.SuccessorLocations(s.InitialLocation())
		if len(succs) == 0 {
			break
		}
		chainOneLevelFromStart(s, succs)
	}
	return best
}

// chainOneLevelFromStart implements "for every successor s of initial and
// every pair (first in rules(initial->s), second in rules_from(s)), add the
// chain if any, then delete first" (spec.md §4.6).
func chainOneLevelFromStart(s *its.Store, succs []int) {
	for _, succ := range succs {
		firsts := s.RulesFrom(s.InitialLocation())
		for _, fIdx := range firsts {
			if !s.Has(fIdx) {
				continue
			}
			f := s.Rule(fIdx)
			touchesSucc := false
			for b, br := range f.Rhs.Branches {
				if br.Target != succ {
					continue
				}
				touchesSucc = true
				for _, sIdx := range s.RulesFrom(succ) {
					if chained, ok := chain.ChainRules(f, b, s.Rule(sIdx)); ok {
						s.AddRule(chained)
					}
				}
			}
			if touchesSucc {
				s.RemoveRule(fIdx)
			}
		}
	}
}
