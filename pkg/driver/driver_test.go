package driver

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mmjb/LoAT/internal/alg"
	"github.com/mmjb/LoAT/internal/asymp"
	"github.com/mmjb/LoAT/pkg/complexity"
	"github.com/mmjb/LoAT/pkg/config"
	"github.com/mmjb/LoAT/pkg/its"
)

func prove(guard its.Guard, cost alg.Expr, final bool) complexity.ProveResult {
	r := asymp.DetermineComplexity(guard, cost, final)
	return complexity.ProveResult{Cpx: r.Cpx, ReducedCpx: r.ReducedCpx, Cost: r.Cost, Reason: r.Reason}
}

func runToCompletion(t *testing.T, s *its.Store) complexity.Result {
	t.Helper()
	d := New(config.DefaultConfig())
	fullySimplified := d.Run(s)
	require.True(t, fullySimplified, "driver did not reach a fully simplified store")
	return complexity.GetMaxRuntime(s, prove, d.Signal, true)
}

// spec.md §8 scenario 1: two constant-cost rules in sequence.
func TestDriverConstantChain(t *testing.T) {
	s := its.NewStore()
	a := s.AddLocation()
	b := s.AddLocation()
	s.SetInitialLocation(0)

	s.AddRule(its.NewRule(0, nil, alg.NewConst(5), its.LinearRhs(a, nil), false))
	s.AddRule(its.NewRule(a, nil, alg.NewConst(3), its.LinearRhs(b, nil), false))

	result := runToCompletion(t, s)
	assert.Equal(t, complexity.KindConst, result.Cpx.Kind)
}

// spec.md §8 scenario 2: a single linear self-loop decrementing x.
func TestDriverLinearLoopAccelerates(t *testing.T) {
	s := its.NewStore()
	x := s.DeclareVariable("x", its.Program)
	loop := s.AddLocation()
	s.SetInitialLocation(0)

	s.AddRule(its.NewRule(0, nil, alg.Zero(), its.LinearRhs(loop, nil), false))
	s.AddRule(its.NewRule(loop,
		its.Guard{{Expr: s.VarExpr(x.Index), Rel: its.Gt}},
		alg.One(),
		its.LinearRhs(loop, its.Update{x.Index: alg.SubOf(s.VarExpr(x.Index), alg.One())}),
		false))

	result := runToCompletion(t, s)
	assert.Equal(t, complexity.KindPoly, result.Cpx.Kind)
	assert.Equal(t, uint(1), result.Cpx.Degree)
}

// spec.md §8 scenario 5: one location is disconnected from the initial
// location and must not affect the result.
func TestDriverPrunesUnreachableComponent(t *testing.T) {
	s := its.NewStore()
	connected := s.AddLocation()
	disconnected := s.AddLocation()
	other := s.AddLocation()
	s.SetInitialLocation(0)

	s.AddRule(its.NewRule(0, nil, alg.NewConst(1), its.LinearRhs(connected, nil), false))
	s.AddRule(its.NewRule(disconnected, nil, alg.NewConst(1), its.LinearRhs(other, nil), false))

	result := runToCompletion(t, s)
	assert.Equal(t, complexity.KindConst, result.Cpx.Kind)
}

// An empty ITS (no outgoing rules from initial) must report (Const, 1),
// never Unknown (spec.md §7, §8).
func TestDriverEmptyStoreReportsConst1(t *testing.T) {
	s := its.NewStore()
	result := runToCompletion(t, s)
	assert.Equal(t, complexity.Const(), result.Cpx)
	v, ok := alg.IsConstantValue(result.Bound.(alg.Expr))
	require.True(t, ok)
	assert.Equal(t, int64(1), v.Int64())
}

// spec.md §8 scenario 3: nested loops compose into Poly(2).
func TestDriverNestedLoopsQuadratic(t *testing.T) {
	s := its.NewStore()
	x := s.DeclareVariable("x", its.Program)
	y := s.DeclareVariable("y", its.Program)
	l1 := s.AddLocation()
	l2 := s.AddLocation()
	s.SetInitialLocation(0)

	s.AddRule(its.NewRule(0, nil, alg.Zero(),
		its.LinearRhs(l1, its.Update{y.Index: s.VarExpr(x.Index)}), false))
	s.AddRule(its.NewRule(l1, its.Guard{{Expr: s.VarExpr(y.Index), Rel: its.Gt}}, alg.One(),
		its.LinearRhs(l1, its.Update{y.Index: alg.SubOf(s.VarExpr(y.Index), alg.One())}), false))
	s.AddRule(its.NewRule(l1, nil, alg.Zero(), its.LinearRhs(l2, nil), false))
	s.AddRule(its.NewRule(l2, its.Guard{{Expr: s.VarExpr(x.Index), Rel: its.Gt}}, s.VarExpr(y.Index),
		its.LinearRhs(l2, its.Update{x.Index: alg.SubOf(s.VarExpr(x.Index), alg.One())}), false))

	result := runToCompletion(t, s)
	assert.Equal(t, complexity.KindPoly, result.Cpx.Kind)
}

func TestEnsureProperInitialLocationGroomsIncomingEdges(t *testing.T) {
	s := its.NewStore()
	loop := s.AddLocation()
	s.SetInitialLocation(0)
	s.AddRule(its.NewRule(0, nil, alg.NewConst(1), its.LinearRhs(loop, nil), false))
	s.AddRule(its.NewRule(loop, nil, alg.NewConst(1), its.LinearRhs(0, nil), false))

	d := New(config.DefaultConfig())
	d.EnsureProperInitialLocation(s)

	assert.Empty(t, s.RulesTo(s.InitialLocation()))
}
