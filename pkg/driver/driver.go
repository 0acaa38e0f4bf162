// Package driver implements the Simplification Driver of spec.md §4.5: the
// top-level fixpoint loop that interleaves pruning, loop acceleration and
// chaining under a soft/hard time budget until the store is fully
// simplified (only rules outgoing from the initial location remain) or the
// budget is exhausted, plus the initial-location grooming step that
// precedes it.
package driver

import (
	"time"

	log "github.com/sirupsen/logrus"

	"github.com/mmjb/LoAT/internal/alg"
	"github.com/mmjb/LoAT/internal/timeout"
	"github.com/mmjb/LoAT/pkg/chain"
	"github.com/mmjb/LoAT/pkg/config"
	"github.com/mmjb/LoAT/pkg/its"
	"github.com/mmjb/LoAT/pkg/meter"
	"github.com/mmjb/LoAT/pkg/prune"
)

// Recorder receives one call per labeled checkpoint named in spec.md §4.5,
// so a proof-log renderer (internal/report.ProofLog) can capture a stepwise
// transcript without this package depending on that one.
type Recorder interface {
	Step(name string, s *its.Store)
}

// Driver owns the timeout signal and configuration for a single analysis
// run. It is a plain value-carrying struct, not a package-global singleton,
// so that multiple independent analyses can run in the same process (DESIGN
// NOTES §9).
type Driver struct {
	Config config.AnalysisConfig
	Signal timeout.Signal
	Rec    Recorder
}

// New builds a Driver from cfg, deriving its timeout.Signal from the
// configured soft/hard second budgets (zero means "never expires").
func New(cfg config.AnalysisConfig) *Driver {
	return &Driver{
		Config: cfg,
		Signal: timeout.New(secs(cfg.SoftTimeoutSecs), secs(cfg.HardTimeoutSecs)),
	}
}

func secs(n int) time.Duration { return time.Duration(n) * time.Second }

func (d *Driver) step(name string, s *its.Store) {
	log.Debugf("driver: checkpoint %s", name)
	if d.Rec != nil {
		d.Rec.Step(name, s)
	}
}

// timedOut polls both cancellation signals, as spec.md §5 requires at every
// labeled checkpoint.
func (d *Driver) timedOut() bool {
	return d.Signal.Soft() || d.Signal.Hard()
}

// EnsureProperInitialLocation implements spec.md §4.5: if the initial
// location has any incoming rule, a fresh location S is created with a
// trivially-true zero-cost rule S->old_initial, and S becomes the new
// initial location.
func (d *Driver) EnsureProperInitialLocation(s *its.Store) {
	if len(s.RulesTo(s.InitialLocation())) == 0 {
		return
	}
	old := s.InitialLocation()
	fresh := s.AddLocation()
	s.AddRule(its.NewRule(fresh, its.Guard{}, alg.Zero(), its.LinearRhs(old, its.Update{}), false))
	s.SetInitialLocation(fresh)
	d.step("ensure_proper_initial_location", s)
}

// Preprocess is SPEC_FULL.md's supplemented preprocessing pass, gated by
// cfg.DoPreprocessing: one pass of RemoveLeafsAndUnreachable, a defensive
// re-simplification of every rule's guard/cost/update expressions, and
// RemoveDuplicateRules per source/target location pair.
func (d *Driver) Preprocess(s *its.Store) {
	if !d.Config.DoPreprocessing {
		return
	}
	prune.RemoveLeafsAndUnreachable(s)
	d.normalizeRules(s)
	d.dedupeAllPairs(s)
	d.step("preprocess", s)
}

func (d *Driver) normalizeRules(s *its.Store) {
	for _, idx := range s.AllRuleIndices() {
		r := s.Rule(idx)
		r.Cost = alg.Simplify(r.Cost)

		guard := make(its.Guard, len(r.Guard))
		for i, a := range r.Guard {
			guard[i] = its.Atom{Expr: alg.Simplify(a.Expr), Rel: a.Rel}
		}
		r.Guard = guard

		for i, b := range r.Rhs.Branches {
			for v, e := range b.Update {
				r.Rhs.Branches[i].Update[v] = alg.Simplify(e)
			}
		}
		s.SetRule(idx, r)
	}
}

func (d *Driver) dedupeAllPairs(s *its.Store) {
	pairs := map[[2]int][]its.RuleIdx{}
	for _, idx := range s.AllRuleIndices() {
		r := s.Rule(idx)
		if !r.IsLinear() {
			continue
		}
		pair := [2]int{r.Source, r.Rhs.Branches[0].Target}
		pairs[pair] = append(pairs[pair], idx)
	}
	for _, idxs := range pairs {
		prune.RemoveDuplicateRules(s, idxs, true)
	}
}

// Run drives the main fixpoint of spec.md §4.5 against s, returning true
// once the store is fully simplified. A false return means the soft or
// hard timeout fired first; the caller should then fall back to
// pkg/complexity.GetMaxPartialResult rather than pkg/complexity.GetMaxRuntime.
func (d *Driver) Run(s *its.Store) bool {
	d.EnsureProperInitialLocation(s)
	if prune.RemoveUnsatInitialRules(s) {
		d.step("remove_unsat_initial_rules", s)
	}
	d.Preprocess(s)

	accelerated := false

	for !s.IsFullySimplified() {
		if d.innerLoop(s, &accelerated) {
			return s.IsFullySimplified()
		}

		if s.IsFullySimplified() {
			break
		}

		if chain.ChainTreePaths(s) {
			d.step("chain_tree_paths", s)
		} else {
			if loc, ok := chain.EliminateALocation(s); ok {
				log.Debugf("driver: force-eliminated location %d", loc)
			}
			d.step("eliminate_a_location", s)
		}

		if accelerated {
			d.pruneRules(s)
		}

		if d.timedOut() {
			return s.IsFullySimplified()
		}
	}

	d.finalize(s)
	return true
}

// innerLoop runs spec.md §4.5's "inner loop until no change", returning
// true if a timeout fired mid-loop (the caller must then return
// immediately rather than proceeding to the outer loop's chain_tree_paths
// step).
func (d *Driver) innerLoop(s *its.Store, accelerated *bool) bool {
	for {
		wasNonlinear := !s.IsLinear()

		if wasNonlinear {
			prune.RemoveSinkRhss(s)
			d.step("remove_sink_rhss", s)
		}

		accelSet := d.accelerateSimpleLoops(s)
		if len(accelSet) > 0 {
			*accelerated = true
		}
		d.step("accelerate_simple_loops", s)

		chainedAccel := chain.ChainAcceleratedRules(s, accelSet, false)
		d.step("chain_accelerated_rules", s)

		changedLeafs := prune.RemoveLeafsAndUnreachable(s)
		d.step("remove_leafs_and_unreachable", s)

		changedChain := chain.ChainLinearPaths(s)
		d.step("chain_linear_paths", s)

		if wasNonlinear && s.IsLinear() {
			log.Debug("driver: store transitioned from nonlinear to linear")
		}

		if d.timedOut() {
			return true
		}

		if len(accelSet) == 0 && !chainedAccel && !changedLeafs && !changedChain {
			return false
		}
	}
}

// accelerateSimpleLoops attempts pkg/meter.Accelerate on every live
// self-loop rule, replacing each success with its accelerated variant(s)
// and recording their fresh RuleIdx values as spec.md §4.3's
// accelerated_rules set. Per-loop failures leave the original rule in
// place (spec.md §4.3/§7).
func (d *Driver) accelerateSimpleLoops(s *its.Store) map[its.RuleIdx]bool {
	accel := map[its.RuleIdx]bool{}
	cfg := meter.Config{FreevarInstantiateMaxBounds: d.Config.FreevarInstantiateMaxBounds}

	for _, idx := range s.AllRuleIndices() {
		if !s.Has(idx) {
			continue
		}
		r := s.Rule(idx)
		if !r.IsSelfLoop() {
			continue
		}

		res, ok := meter.Accelerate(s, idx, cfg)
		if !ok {
			continue
		}

		s.RemoveRule(idx)
		for _, nr := range res.Rules {
			accel[s.AddRule(nr)] = true
		}
	}
	return accel
}

func (d *Driver) pruneRules(s *its.Store) {
	if !d.Config.PruningEnable {
		return
	}
	if prune.PruneParallelRules(s, d.Config.MaxParallel) {
		d.step("prune_rules", s)
	}
}

// finalize runs the post-loop cleanup of spec.md §4.5 once the store is
// fully simplified: duplicate rules leaving the initial location are merged
// (not comparing updates, since spec.md only requires structural/guard/cost
// identity at this stage), and SPEC_FULL.md's eliminate_cost_constraints
// option strips any now-redundant synthetic cost tail constraint.
func (d *Driver) finalize(s *its.Store) {
	prune.RemoveDuplicateRules(s, s.RulesFrom(s.InitialLocation()), false)
	d.step("final_remove_duplicate_rules", s)

	if d.Config.EliminateCostConstraints {
		for _, idx := range s.RulesFrom(s.InitialLocation()) {
			prune.TryRemoveCostConstraint(s, idx)
		}
		d.step("eliminate_cost_constraints", s)
	}
}
