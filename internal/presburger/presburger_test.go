package presburger

import (
	"testing"

	"github.com/mmjb/LoAT/internal/alg"
	"github.com/mmjb/LoAT/pkg/its"
	"github.com/stretchr/testify/assert"
)

func TestCheckDetectsContradiction(t *testing.T) {
	x := alg.NewVar(0, "x")
	g := its.Guard{
		{Expr: x, Rel: its.Ge},                                 // x >= 0
		{Expr: alg.AddOf(x, alg.NewConst(1)), Rel: its.Le},      // x <= -1
	}
	assert.Equal(t, Unsat, Check(g))
}

func TestCheckFindsIntegerWitness(t *testing.T) {
	x := alg.NewVar(0, "x")
	g := its.Guard{
		{Expr: x, Rel: its.Ge},                                    // x >= 0
		{Expr: alg.SubOf(x, alg.NewConst(5)), Rel: its.Le},         // x <= 5
	}
	assert.Equal(t, Sat, Check(g))
}

func TestCheckUnknownWhenRationalFeasibleButNoIntegerWitness(t *testing.T) {
	x := alg.NewVar(0, "x")
	threeX := alg.MulOf(alg.NewConst(3), x)
	g := its.Guard{
		{Expr: alg.SubOf(threeX, alg.NewConst(1)), Rel: its.Ge}, // 3x - 1 >= 0  (x >= 1/3)
		{Expr: alg.SubOf(threeX, alg.NewConst(2)), Rel: its.Le}, // 3x - 2 <= 0  (x <= 2/3)
	}
	assert.Equal(t, Unknown, Check(g))
}

func TestCheckUnknownOnNonLinearGuard(t *testing.T) {
	x := alg.NewVar(0, "x")
	sq := &alg.Pow{Arg: x, Exp: 2}
	g := its.Guard{{Expr: sq, Rel: its.Ge}}
	assert.Equal(t, Unknown, Check(g))
}

func TestImpliesHoldsForWeakerBound(t *testing.T) {
	x := alg.NewVar(0, "x")
	g := its.Guard{{Expr: x, Rel: its.Ge}} // x >= 0
	weaker := its.Atom{Expr: alg.AddOf(x, alg.NewConst(1)), Rel: its.Ge} // x >= -1
	assert.Equal(t, Sat, Implies(g, weaker))
}

func TestImpliesFailsWhenCounterexampleExists(t *testing.T) {
	x := alg.NewVar(0, "x")
	g := its.Guard{{Expr: x, Rel: its.Ge}} // x >= 0
	stronger := its.Atom{Expr: alg.SubOf(x, alg.NewConst(1)), Rel: its.Ge} // x >= 1
	assert.Equal(t, Unsat, Implies(g, stronger))
}

func TestImpliesEqualityBothDirections(t *testing.T) {
	x := alg.NewVar(0, "x")
	g := its.Guard{
		{Expr: x, Rel: its.Ge},
		{Expr: alg.SubOf(x, alg.NewConst(0)), Rel: its.Le},
	} // x >= 0 and x <= 0, so x = 0
	eq := its.Atom{Expr: x, Rel: its.Eq}
	assert.Equal(t, Sat, Implies(g, eq))
}

func TestImpliesAllRequiresEveryAtom(t *testing.T) {
	x := alg.NewVar(0, "x")
	g := its.Guard{
		{Expr: x, Rel: its.Ge},
		{Expr: alg.SubOf(x, alg.NewConst(5)), Rel: its.Le},
	} // 0 <= x <= 5
	other := its.Guard{
		{Expr: x, Rel: its.Ge},
		{Expr: alg.SubOf(x, alg.NewConst(10)), Rel: its.Le},
	} // 0 <= x <= 10 (weaker, implied) AND x>=0 (implied)
	assert.Equal(t, Sat, ImpliesAll(g, other))

	tooStrong := its.Guard{{Expr: alg.SubOf(x, alg.NewConst(1)), Rel: its.Ge}} // x >= 1
	assert.Equal(t, Unsat, ImpliesAll(g, tooStrong))
}
