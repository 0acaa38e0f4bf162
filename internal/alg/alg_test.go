package alg

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestSimplifyFoldsConstants(t *testing.T) {
	x := NewVar(0, "x")
	e := AddOf(NewConst(2), NewConst(3), x)
	assert.True(t, Equal(e, AddOf(NewConst(5), x)))
}

func TestEqualIgnoresOrdering(t *testing.T) {
	x, y := NewVar(0, "x"), NewVar(1, "y")
	a := AddOf(x, y, NewConst(1))
	b := AddOf(NewConst(1), y, x)
	assert.True(t, Equal(a, b))
}

func TestDegreeOfProduct(t *testing.T) {
	x, y := NewVar(0, "x"), NewVar(1, "y")
	assert.EqualValues(t, 2, Degree(MulOf(x, y)))
	assert.EqualValues(t, 3, Degree(MulOf(x, x, y)))
	assert.True(t, IsLinear(AddOf(x, MulOf(NewConst(2), y)), map[int]bool{0: true, 1: true}))
	assert.False(t, IsLinear(MulOf(x, y), map[int]bool{0: true, 1: true}))
}

func TestSubstituteIsSimultaneous(t *testing.T) {
	x, y := NewVar(0, "x"), NewVar(1, "y")
	// swap x and y: x<-y, y<-x must not chain through an intermediate value.
	mapping := map[int]Expr{0: y, 1: x}
	got := Substitute(AddOf(x, MulOf(NewConst(2), y)), mapping)
	want := AddOf(y, MulOf(NewConst(2), x))
	assert.True(t, Equal(got, want))
}

func TestIsConstantValue(t *testing.T) {
	v, ok := IsConstantValue(AddOf(NewConst(2), NewConst(3)))
	assert.True(t, ok)
	assert.EqualValues(t, 5, v.Int64())

	_, ok = IsConstantValue(NewVar(0, "x"))
	assert.False(t, ok)
}
