package its

import (
	"testing"

	"github.com/mmjb/LoAT/internal/alg"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func mkLinear(t *testing.T, s *Store, from, to int, cost alg.Expr) RuleIdx {
	t.Helper()
	return s.AddRule(Rule{Source: from, Guard: nil, Cost: cost, Rhs: LinearRhs(to, nil)})
}

func TestStoreBasics(t *testing.T) {
	s := NewStore()
	a := s.AddLocation()
	b := s.AddLocation()
	s.SetInitialLocation(0)

	r1 := mkLinear(t, s, 0, a, alg.NewConst(1))
	r2 := mkLinear(t, s, a, b, alg.NewConst(1))

	require.True(t, s.Has(r1))
	assert.Equal(t, []RuleIdx{r1}, s.RulesFrom(0))
	assert.Equal(t, []RuleIdx{r2}, s.RulesFrom(a))
	assert.Equal(t, []int{a}, s.SuccessorLocations(0))
	assert.Equal(t, []int{0}, s.PredecessorLocations(a))
	assert.True(t, s.IsLinear())
	assert.False(t, s.IsEmpty())
	assert.False(t, s.IsFullySimplified())

	s.RemoveRule(r2)
	assert.True(t, s.IsFullySimplified())
	assert.Empty(t, s.RulesFrom(a))
}

func TestRuleIdxNeverReused(t *testing.T) {
	s := NewStore()
	loc := s.AddLocation()
	r1 := mkLinear(t, s, 0, loc, alg.NewConst(1))
	s.RemoveRule(r1)
	r2 := mkLinear(t, s, 0, loc, alg.NewConst(1))
	assert.NotEqual(t, r1, r2)
}

func TestRemoveUnknownRulePanics(t *testing.T) {
	s := NewStore()
	assert.Panics(t, func() { s.RemoveRule(RuleIdx(999)) })
}

func TestBranchingRuleIsNotLinear(t *testing.T) {
	s := NewStore()
	a := s.AddLocation()
	b := s.AddLocation()
	r := s.AddRule(Rule{
		Source: 0,
		Cost:   alg.NewConst(1),
		Rhs:    BranchRhs(Branch{Target: a}, Branch{Target: b}),
	})
	rule := s.Rule(r)
	assert.False(t, rule.IsLinear())
	assert.False(t, s.IsLinear())
}
