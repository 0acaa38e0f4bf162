package parse

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mmjb/LoAT/internal/alg"
	"github.com/mmjb/LoAT/pkg/its"
)

func TestParseBasicProgram(t *testing.T) {
	src := `
(VAR x)
(GOAL COMPLEXITY)
(STARTTERM (FUNCTIONSYMBOLS l0))
(RULES
  l0(x) -> l1(x) [x > 0]
  l1(x) -{ 2 }> l1(x - 1) [x > 0]
)
`
	p, err := Parse(src)
	require.NoError(t, err)
	s := p.Store

	assert.Equal(t, "COMPLEXITY", p.Goal)
	assert.Equal(t, 0, s.InitialLocation())

	x, ok := s.LookupVariable("x")
	require.True(t, ok)

	rules := s.AllRuleIndices()
	require.Len(t, rules, 2)

	r0 := s.Rule(rules[0])
	assert.Equal(t, 0, r0.Source)
	assert.True(t, alg.Equal(r0.Cost, alg.One()))
	require.Len(t, r0.Guard, 1)
	assert.Equal(t, its.Gt, r0.Guard[0].Rel)
	assert.Equal(t, 1, r0.SoleBranch().Target)

	r1 := s.Rule(rules[1])
	assert.Equal(t, 1, r1.Source)
	assert.True(t, alg.Equal(r1.Cost, alg.NewConst(2)))
	// the explicit cost arrow appends "cost > 0" alongside the user guard.
	assert.Len(t, r1.Guard, 2)
	assert.True(t, alg.Equal(r1.SoleBranch().Update[x.Index], alg.SubOf(s.VarExpr(x.Index), alg.One())))
}

func TestParseDefaultsInitialLocationToFirstRule(t *testing.T) {
	src := `
(VAR x)
(RULES
  f(x) -> g(x) [TRUE]
  g(x) -{ 1 }> g(x) [x > 0]
)
`
	p, err := Parse(src)
	require.NoError(t, err)
	assert.Equal(t, 0, p.Store.InitialLocation())
}

func TestParseGuardConjunctionOperators(t *testing.T) {
	src := `
(VAR x y)
(RULES
  f(x,y) -> f(x,y) [x > 0 /\ y > 0 && x < 10]
)
`
	p, err := Parse(src)
	require.NoError(t, err)
	r := p.Store.Rule(p.Store.AllRuleIndices()[0])
	assert.Len(t, r.Guard, 3)
}

func TestParseComWrapperEquivalentToBareTerm(t *testing.T) {
	src := `
(VAR x)
(RULES
  f(x) -> Com_1(g(x)) [TRUE]
)
`
	p, err := Parse(src)
	require.NoError(t, err)
	r := p.Store.Rule(p.Store.AllRuleIndices()[0])
	assert.True(t, r.IsLinear())
}

func TestParseBranchingComWrapper(t *testing.T) {
	src := `
(VAR x)
(RULES
  f(x) -> Com_2(g(x), h(x)) [TRUE]
  g(x) -> g(x) [x > 0]
  h(x) -> h(x) [x > 0]
)
`
	p, err := Parse(src)
	require.NoError(t, err)
	r := p.Store.Rule(p.Store.AllRuleIndices()[0])
	assert.False(t, r.IsLinear())
	assert.Len(t, r.Rhs.Branches, 2)
}

func TestParseRejectsDivision(t *testing.T) {
	src := `
(VAR x)
(RULES
  f(x) -> f(x / 2) [x > 0]
)
`
	_, err := Parse(src)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "division")
}

func TestEscapeNameHandlesLeadingDigitAndLetterI(t *testing.T) {
	assert.Equal(t, "q1x", escapeName("1x"))
	assert.Equal(t, "Qx", escapeName("Ix"))
	assert.Equal(t, "x_y", escapeName("x'y"))
}

func TestParseSinkLocationHasNoSpuriousUpdate(t *testing.T) {
	src := `
(VAR x)
(RULES
  f(x) -> sink(x + 1) [TRUE]
)
`
	p, err := Parse(src)
	require.NoError(t, err)
	r := p.Store.Rule(p.Store.AllRuleIndices()[0])
	assert.Empty(t, r.SoleBranch().Update)
}
