package chain

import (
	"testing"

	"github.com/mmjb/LoAT/internal/alg"
	"github.com/mmjb/LoAT/pkg/its"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestChainRulesComposesUpdatesAndCosts(t *testing.T) {
	s := its.NewStore()
	x := s.DeclareVariable("x", its.Program)
	b := s.AddLocation()
	c := s.AddLocation()
	s.SetInitialLocation(0)

	r1 := its.NewRule(0, nil, alg.NewConst(1),
		its.LinearRhs(b, its.Update{x.Index: alg.AddOf(s.VarExpr(x.Index), alg.NewConst(1))}), false)
	r2 := its.NewRule(b, its.Guard{{Expr: s.VarExpr(x.Index), Rel: its.Ge}}, s.VarExpr(x.Index),
		its.LinearRhs(c, its.Update{x.Index: alg.NewConst(0)}), false)

	chained, ok := ChainRules(r1, 0, r2)
	require.True(t, ok)
	assert.Equal(t, 0, chained.Source)
	assert.True(t, alg.Equal(chained.Cost, alg.AddOf(alg.NewConst(1), alg.AddOf(s.VarExpr(x.Index), alg.NewConst(1)))))
	assert.True(t, alg.Equal(chained.SoleBranch().Update[x.Index], alg.Zero()))
}

func TestChainRulesUnsatGuardFails(t *testing.T) {
	s := its.NewStore()
	x := s.DeclareVariable("x", its.Program)
	b := s.AddLocation()
	c := s.AddLocation()
	s.SetInitialLocation(0)

	r1 := its.NewRule(0, nil, alg.NewConst(1),
		its.LinearRhs(b, its.Update{x.Index: alg.NewConst(-1)}), false)
	r2 := its.NewRule(b, its.Guard{{Expr: s.VarExpr(x.Index), Rel: its.Ge}}, alg.NewConst(1),
		its.LinearRhs(c, nil), false)

	_, ok := ChainRules(r1, 0, r2)
	assert.False(t, ok)
}

func TestChainLinearPathsEliminatesMiddleLocation(t *testing.T) {
	s := its.NewStore()
	s.DeclareVariable("x", its.Program)
	mid := s.AddLocation()
	end := s.AddLocation()
	s.SetInitialLocation(0)

	s.AddRule(its.NewRule(0, nil, alg.NewConst(1), its.LinearRhs(mid, nil), false))
	s.AddRule(its.NewRule(mid, nil, alg.NewConst(1), its.LinearRhs(end, nil), false))

	changed := ChainLinearPaths(s)
	assert.True(t, changed)
	assert.Empty(t, s.RulesFrom(mid))
	out := s.RulesFrom(0)
	require.Len(t, out, 1)
	assert.Equal(t, end, s.Rule(out[0]).SoleBranch().Target)
}

func TestChainAcceleratedRulesChainsIncoming(t *testing.T) {
	s := its.NewStore()
	x := s.DeclareVariable("x", its.Program)
	s.SetInitialLocation(0)

	entry := s.AddRule(its.NewRule(0, nil, alg.NewConst(1),
		its.LinearRhs(0, its.Update{x.Index: alg.NewConst(10)}), false))
	loop := s.AddRule(its.NewRule(0, its.Guard{{Expr: s.VarExpr(x.Index), Rel: its.Gt}}, s.VarExpr(x.Index),
		its.LinearRhs(0, its.Update{x.Index: alg.Zero()}), false))

	changed := ChainAcceleratedRules(s, map[its.RuleIdx]bool{loop: true}, false)
	assert.True(t, changed)
	assert.False(t, s.Has(entry))
}

func TestEliminateALocationPicksNonInitial(t *testing.T) {
	s := its.NewStore()
	s.DeclareVariable("x", its.Program)
	mid := s.AddLocation()
	end := s.AddLocation()
	s.SetInitialLocation(0)

	s.AddRule(its.NewRule(0, nil, alg.NewConst(1), its.LinearRhs(mid, nil), false))
	s.AddRule(its.NewRule(mid, nil, alg.NewConst(1), its.LinearRhs(end, nil), false))

	loc, ok := EliminateALocation(s)
	require.True(t, ok)
	assert.Equal(t, mid, loc)
	assert.Empty(t, s.RulesTo(mid))
	assert.Empty(t, s.RulesFrom(mid))
}
