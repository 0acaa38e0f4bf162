package prune

import (
	"testing"

	"github.com/mmjb/LoAT/internal/alg"
	"github.com/mmjb/LoAT/pkg/its"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRemoveUnsatInitialRules(t *testing.T) {
	s := its.NewStore()
	x := s.DeclareVariable("x", its.Program)
	a := s.AddLocation()
	s.SetInitialLocation(0)

	// x >= 0 and x <= -1: unsatisfiable.
	unsat := its.Guard{
		{Expr: s.VarExpr(x.Index), Rel: its.Ge},
		{Expr: alg.AddOf(s.VarExpr(x.Index), alg.NewConst(1)), Rel: its.Le},
	}
	r := s.AddRule(its.NewRule(0, unsat, alg.NewConst(1), its.LinearRhs(a, nil), false))

	changed := RemoveUnsatInitialRules(s)
	assert.True(t, changed)
	assert.False(t, s.Has(r))
}

func TestRemoveLeafsAndUnreachable(t *testing.T) {
	s := its.NewStore()
	a := s.AddLocation()
	dead := s.AddLocation()
	s.SetInitialLocation(0)

	s.AddRule(its.NewRule(0, nil, alg.NewConst(1), its.LinearRhs(a, nil), false))
	// dead is never referenced from initial: unreachable.
	deadRule := s.AddRule(its.NewRule(dead, nil, alg.NewConst(1), its.LinearRhs(dead, nil), false))

	changed := RemoveLeafsAndUnreachable(s)
	assert.True(t, changed)
	assert.False(t, s.Has(deadRule))
}

func TestRemoveLeafAbsorbsConstantCost(t *testing.T) {
	s := its.NewStore()
	leaf := s.AddLocation()
	s.SetInitialLocation(0)

	r := s.AddRule(its.NewRule(0, nil, alg.NewConst(3), its.LinearRhs(leaf, nil), false))
	changed := RemoveLeafsAndUnreachable(s)
	require.True(t, changed)
	assert.False(t, s.Has(r))
}

func TestRemoveDuplicateRulesKeepsLowestIdx(t *testing.T) {
	s := its.NewStore()
	a := s.AddLocation()
	s.SetInitialLocation(0)

	r1 := s.AddRule(its.NewRule(0, nil, alg.NewConst(1), its.LinearRhs(a, nil), false))
	r2 := s.AddRule(its.NewRule(0, nil, alg.NewConst(1), its.LinearRhs(a, nil), false))

	changed := RemoveDuplicateRules(s, []its.RuleIdx{r1, r2}, true)
	assert.True(t, changed)
	assert.True(t, s.Has(r1))
	assert.False(t, s.Has(r2))
}

func TestPruneParallelRulesRemovesDominated(t *testing.T) {
	s := its.NewStore()
	x := s.DeclareVariable("x", its.Program)
	a := s.AddLocation()
	s.SetInitialLocation(0)

	guard := its.Guard{{Expr: s.VarExpr(x.Index), Rel: its.Ge}}
	cheap := s.AddRule(its.NewRule(0, guard, alg.NewConst(1), its.LinearRhs(a, nil), false))
	expensive := s.AddRule(its.NewRule(0, guard, s.VarExpr(x.Index), its.LinearRhs(a, nil), false))

	changed := PruneParallelRules(s, 8)
	assert.True(t, changed)
	assert.True(t, s.Has(expensive))
	assert.False(t, s.Has(cheap))
}
