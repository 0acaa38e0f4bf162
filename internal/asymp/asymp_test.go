package asymp

import (
	"testing"

	"github.com/mmjb/LoAT/internal/alg"
	"github.com/mmjb/LoAT/pkg/complexity"
	"github.com/mmjb/LoAT/pkg/its"
	"github.com/stretchr/testify/assert"
)

func TestDetermineComplexityConstantCost(t *testing.T) {
	r := DetermineComplexity(its.Guard{}, alg.NewConst(5), true)
	assert.Equal(t, complexity.Const(), r.Cpx)
}

func TestDetermineComplexityUnboundedVariableKeepsDegree(t *testing.T) {
	x := alg.NewVar(0, "x")
	guard := its.Guard{{Expr: x, Rel: its.Ge}} // x >= 0, no upper bound
	r := DetermineComplexity(guard, x, true)
	assert.Equal(t, complexity.Poly(1), r.Cpx)
}

func TestDetermineComplexityBoundedVariableDegrades(t *testing.T) {
	x := alg.NewVar(0, "x")
	guard := its.Guard{
		{Expr: x, Rel: its.Ge},
		{Expr: alg.SubOf(alg.NewConst(10), x), Rel: its.Ge}, // x <= 10
	}
	r := DetermineComplexity(guard, x, true)
	assert.Equal(t, complexity.Const(), r.Cpx)
}
