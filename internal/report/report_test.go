package report

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/mmjb/LoAT/internal/alg"
	"github.com/mmjb/LoAT/pkg/its"
)

func TestProofLogRecordsStepsAndRuleCounts(t *testing.T) {
	s := its.NewStore()
	loc := s.AddLocation()
	s.SetInitialLocation(0)
	s.AddRule(its.NewRule(0, nil, alg.NewConst(1), its.LinearRhs(loc, nil), false))

	log := NewProofLog()
	log.Step("remove_leafs_and_unreachable", s)
	s.AddRule(its.NewRule(loc, nil, alg.NewConst(1), its.LinearRhs(loc, nil), false))
	log.Step("chain_linear_paths", s)

	assert.Len(t, log.Entries, 2)
	assert.Equal(t, 1, log.Entries[0].RuleCount)
	assert.Equal(t, 2, log.Entries[1].RuleCount)
	assert.NotEmpty(t, log.RunID)
	assert.Contains(t, log.String(), "chain_linear_paths")
}

func TestRenderCTSIncludesVariablesAndRules(t *testing.T) {
	s := its.NewStore()
	x := s.DeclareVariable("x", its.Program)
	loc := s.AddLocation()
	s.SetInitialLocation(0)
	s.AddRule(its.NewRule(0, its.Guard{{Expr: s.VarExpr(x.Index), Rel: its.Gt}}, alg.One(),
		its.LinearRhs(loc, its.Update{x.Index: alg.Zero()}), false))

	out := RenderCTS(s)
	assert.True(t, strings.Contains(out, "(VAR x)"))
	assert.True(t, strings.Contains(out, "loc0"))
}

func TestRenderDotMentionsEveryLocation(t *testing.T) {
	s := its.NewStore()
	loc := s.AddLocation()
	s.SetInitialLocation(0)
	s.AddRule(its.NewRule(0, nil, alg.NewConst(1), its.LinearRhs(loc, nil), false))

	out := RenderDot(s, "final")
	assert.True(t, strings.Contains(out, "doublecircle"))
	assert.True(t, strings.Contains(out, "loc0 -> loc1"))
}
