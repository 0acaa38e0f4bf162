// Package recurrence solves the two closed-form shapes the metering engine
// needs (spec.md §4.3): an updated variable's own first-order recurrence
// x(n) = u[v<-x(n-1), w<-x_w(n-1)] and the cost-accumulation recurrence
// c(n) = c(n-1) + cost(state(n-1)). Both reduce, once the right-hand side is
// expanded in terms of the previous iterate, to one of two shapes this
// solver actually recognises: affine (x(n) = a*x(n-1) + b) and polynomial
// accumulation (c(n) = c(n-1) + f(n-1) where f is polynomial in n). Anything
// else is reported unsolved via the (Expr, bool) idiom the teacher's own
// lowering functions use (pkg/mir/term.go's (Term, bool) results), never an
// error (spec.md §7: a per-loop acceleration failure is a no-op, not fatal).
//
// Grounded on original_source/src/accelerate/meter/recurrence.cpp's
// findUpdateRecurrence/findCostRecurrence pair, reimplemented from scratch
// without PURRS (the original's general-purpose recurrence-solving library):
// this port only ever needs to identify the two families above, extracted
// symbolically from the expanded polynomial form internal/alg already
// maintains, so a full recurrence-solver dependency has no footing here.
package recurrence

import (
	"math/big"

	"github.com/mmjb/LoAT/internal/alg"
)

// Solve attempts to find the closed form x(n) of the recurrence whose
// right-hand side, rhsInPrev, is expressed in terms of the "previous
// iterate" placeholder variable prevVar (i.e. rhsInPrev = x(n-1) substituted
// symbolically), with initial condition x(1) = initial. It returns
// (closedForm, true) on success; (nil, false) if the shape isn't one this
// solver recognises.
//
// Geometric growth (coefficient a outside {0,1}, e.g. a doubling update
// x<-2x) is deliberately left unsolved: its closed form x(1)*a^(n-1) needs a
// variable in the exponent, which internal/alg's term algebra has no node
// for (the input dialect forbids exponents on anything but fixed integer
// literals, per spec.md §6, and every other consumer of alg.Expr relies on
// that polynomial-only invariant). This is the documented fallback spec.md
// §8 scenario 4 permits: metering reports no accelerated variant for such a
// loop, and the complexity extractor falls back to Unknown/Const for it.
func Solve(rhsInPrev alg.Expr, prevVar int, initial alg.Expr, n alg.Expr) (alg.Expr, bool) {
	a, b, ok := affineCoeffs(rhsInPrev, prevVar)
	if !ok {
		return nil, false
	}
	if a.Sign() != 0 && a.Cmp(big.NewInt(1)) != 0 {
		return nil, false
	}
	return solveAffine(a, b, initial, n), true
}

// affineCoeffs recognises rhs = a*prevVar + b for constant a, b (b may
// mention any variable except prevVar). Returns ok=false if rhs is not
// affine in prevVar.
func affineCoeffs(rhs alg.Expr, prevVar int) (coeff *big.Int, rest alg.Expr, ok bool) {
	if !alg.IsLinear(rhs, map[int]bool{prevVar: true}) {
		return nil, nil, false
	}
	if !alg.HasVar(rhs, prevVar) {
		return big.NewInt(0), rhs, true
	}
	// rhs is linear in prevVar: rhs = a*prevVar + b. Extract a by
	// differencing rhs[prevVar:=1] and rhs[prevVar:=0], which is exact
	// since the degree in prevVar is at most 1.
	at1 := alg.SubstituteVar(rhs, prevVar, alg.One())
	at0 := alg.SubstituteVar(rhs, prevVar, alg.Zero())
	diff := alg.SubOf(at1, at0)
	v, ok := alg.IsConstantValue(diff)
	if !ok {
		return nil, nil, false
	}
	return v, at0, true
}

// solveAffine builds the closed form of x(n) = a*x(n-1) + b, x(1) = initial,
// for a restricted to {0,1} (see Solve's doc comment for why the general
// geometric case is excluded).
//
//   - a == 1: x(n) = initial + (n-1)*b       (arithmetic accumulation)
//   - a == 0: x(n) = b                       (n>=1; the update overwrites)
func solveAffine(a *big.Int, b alg.Expr, initial alg.Expr, n alg.Expr) alg.Expr {
	if a.Sign() == 0 {
		return b
	}
	nMinus1 := alg.SubOf(n, alg.One())
	return alg.AddOf(initial, alg.MulOf(nMinus1, b))
}

// SolveCost solves the cost-accumulation recurrence c(n) = c(n-1) +
// costAtPrev(n-1), c(0) = 0, where costAtPrev is the per-iteration cost
// expressed as a polynomial in the iterate-count placeholder variable
// prevVar standing for "n-1". Summation identities for the low-degree
// polynomials this analyzer actually produces (degree 0, 1 and 2) are used
// directly rather than a general Faulhaber-formula generator, mirroring
// findCostRecurrence's own specialised small-degree handling.
func SolveCost(costAtPrev alg.Expr, prevVar int, n alg.Expr) (alg.Expr, bool) {
	degVars := map[int]bool{prevVar: true}
	if !alg.IsPolynomial(costAtPrev, degVars) {
		return nil, false
	}
	switch alg.DegreeIn(costAtPrev, degVars) {
	case 0:
		// cost doesn't depend on the iterate: sum of n copies.
		return alg.MulOf(n, costAtPrev), true
	case 1:
		return sumLinear(costAtPrev, prevVar, n)
	case 2:
		return sumQuadratic(costAtPrev, prevVar, n)
	default:
		return nil, false
	}
}

// sumLinear closes sum_{k=0}^{n-1} (a*k + b) = a*n*(n-1)/2 + b*n, by
// splitting costAtPrev into its prevVar-coefficient a and prevVar-free
// remainder b via the same differencing trick as affineCoeffs.
func sumLinear(costAtPrev alg.Expr, prevVar int, n alg.Expr) (alg.Expr, bool) {
	a, b, ok := affineCoeffs(costAtPrev, prevVar)
	if !ok {
		return nil, false
	}
	nMinus1 := alg.SubOf(n, alg.One())
	triangular := alg.NewDiv(alg.MulOf(n, nMinus1), big.NewInt(2))
	return alg.AddOf(alg.MulOf(alg.NewConstBig(a), triangular), alg.MulOf(n, b)), true
}

// sumQuadratic closes sum_{k=0}^{n-1} (a*k^2 + rest(k)) using the classic
// sum-of-squares identity n*(n-1)*(2n-1)/6 for the quadratic part, plus
// sumLinear for the remaining affine residual.
func sumQuadratic(costAtPrev alg.Expr, prevVar int, n alg.Expr) (alg.Expr, bool) {
	quadCoeff, residual, ok := quadraticCoeff(costAtPrev, prevVar)
	if !ok {
		return nil, false
	}
	nMinus1 := alg.SubOf(n, alg.One())
	twoNMinus1 := alg.SubOf(alg.MulOf(alg.NewConst(2), n), alg.One())
	sumSquares := alg.NewDiv(alg.MulOf(n, nMinus1, twoNMinus1), big.NewInt(6))
	linPart, ok := sumLinear(residual, prevVar, n)
	if !ok {
		return nil, false
	}
	return alg.AddOf(alg.MulOf(alg.NewConstBig(quadCoeff), sumSquares), linPart), true
}

// quadraticCoeff extracts the coefficient of prevVar^2 from a degree-2
// polynomial, and the affine residual once that term is removed, via finite
// differencing at prevVar = 0, 1, 2 (a degree-2 polynomial is exactly
// determined by three samples).
func quadraticCoeff(e alg.Expr, prevVar int) (*big.Int, alg.Expr, bool) {
	at0 := alg.SubstituteVar(e, prevVar, alg.Zero())
	at1 := alg.SubstituteVar(e, prevVar, alg.One())
	at2 := alg.SubstituteVar(e, prevVar, alg.NewConst(2))

	v0, ok0 := alg.IsConstantValue(at0)
	v1, ok1 := alg.IsConstantValue(at1)
	v2, ok2 := alg.IsConstantValue(at2)
	if !ok0 || !ok1 || !ok2 {
		return nil, nil, false
	}
	// Second finite difference: f(2) - 2f(1) + f(0) = 2*quadCoeff.
	secondDiff := new(big.Int).Add(v2, v0)
	secondDiff.Sub(secondDiff, new(big.Int).Mul(big.NewInt(2), v1))
	quad := new(big.Int).Quo(secondDiff, big.NewInt(2))
	if new(big.Int).Mul(quad, big.NewInt(2)).Cmp(secondDiff) != 0 {
		return nil, nil, false
	}
	quadTerm := alg.MulOf(alg.NewConstBig(quad), &alg.Pow{Arg: alg.NewVar(prevVar, ""), Exp: 2})
	residual := alg.SubOf(e, quadTerm)
	return quad, residual, true
}
