package recurrence

import (
	"testing"

	"github.com/mmjb/LoAT/internal/alg"
	"github.com/stretchr/testify/assert"
)

func TestSolveArithmeticDecrement(t *testing.T) {
	// x(n-1) - 1, x(1) = x0 - 1  =>  x(n) = x0 - n.
	prev := alg.NewVar(100, "prev")
	rhs := alg.SubOf(prev, alg.One())
	x0 := alg.NewVar(0, "x0")
	initial := alg.SubOf(x0, alg.One())
	n := alg.NewVar(200, "n")

	got, ok := Solve(rhs, 100, initial, n)
	assert.True(t, ok)
	want := alg.SubOf(x0, n)
	assert.True(t, alg.Equal(got, want))
}

func TestSolveOverwrite(t *testing.T) {
	prev := alg.NewVar(100, "prev")
	_ = prev
	rhs := alg.NewConst(7) // doesn't mention prevVar: overwritten every iteration.
	n := alg.NewVar(200, "n")

	got, ok := Solve(rhs, 100, alg.NewConst(7), n)
	assert.True(t, ok)
	assert.True(t, alg.Equal(got, alg.NewConst(7)))
}

func TestSolveGeometricUnsolved(t *testing.T) {
	prev := alg.NewVar(100, "prev")
	rhs := alg.MulOf(alg.NewConst(2), prev) // x <- 2x
	n := alg.NewVar(200, "n")

	_, ok := Solve(rhs, 100, alg.NewVar(0, "x0"), n)
	assert.False(t, ok)
}

func TestSolveCostConstant(t *testing.T) {
	n := alg.NewVar(200, "n")
	got, ok := SolveCost(alg.NewConst(1), 100, n)
	assert.True(t, ok)
	assert.True(t, alg.Equal(got, n))
}

func TestSolveCostLinear(t *testing.T) {
	// cost at iterate k (0-indexed) is k; sum_{k=0}^{n-1} k = n(n-1)/2.
	prev := alg.NewVar(100, "prev")
	n := alg.NewVar(200, "n")
	got, ok := SolveCost(prev, 100, n)
	assert.True(t, ok)
	assert.Equal(t, complexityDegree(t, got), uint(2))
}

func complexityDegree(t *testing.T, e alg.Expr) uint {
	t.Helper()
	return alg.Degree(e)
}
