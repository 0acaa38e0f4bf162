package alg

import "math/big"

// Div is exact division by a nonzero integer constant. The input dialect
// has no division; Div comes from closed-form recurrence solutions — e.g.
// the Faulhaber-style sum-of-integers identity n*(n-1)/2, whose value is
// always integral for integer n even though its expanded monomials (n^2 and
// n individually) are not evenly divisible by 2 — and from Simplify, which
// emits a Div over the common denominator whenever an expanded polynomial
// has non-integer coefficients. Constructors of Div are responsible for the
// exactness invariant; nothing here re-derives it.
type Div struct {
	Num   Expr
	Denom *big.Int
}

func (*Div) isExpr() {}

// NewDiv builds a Div node, folding immediately when Num's value already
// divides Denom evenly (the common case once enough of a sum has cancelled).
func NewDiv(num Expr, denom *big.Int) Expr {
	if denom.Sign() == 0 {
		panic("alg: division by zero")
	}
	if denom.CmpAbs(big.NewInt(1)) == 0 {
		if denom.Sign() < 0 {
			return NegOf(num)
		}
		return num
	}
	if v, ok := IsConstantValue(num); ok {
		q, r := new(big.Int).QuoRem(v, denom, new(big.Int))
		if r.Sign() == 0 {
			return NewConstBig(q)
		}
	}
	return &Div{Num: num, Denom: new(big.Int).Set(denom)}
}

func (e *Div) String() string {
	return "(" + e.Num.String() + " / " + e.Denom.String() + ")"
}
