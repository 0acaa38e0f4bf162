// Package presburger is the SMT-style decision procedure the specification
// names as an external collaborator (spec.md §6): Check decides
// satisfiability of a conjunction of linear-integer-arithmetic atoms,
// Implies decides whether a guard entails a single atom. Both only ever
// answer Sat/Unsat when they can prove it; anything they cannot settle comes
// back Unknown rather than risking an unsound answer, exactly as spec.md §7
// requires ("decisions returning unknown keep the rule").
//
// The decision procedure is Fourier-Motzkin elimination over the rationals
// (exact, via math/big.Rat) to rule out satisfiability, followed by an
// integer-witness reconstruction pass for any system the elimination leaves
// feasible. No pack example ships a pure-Go linear-arithmetic solver — the
// SMT-flavoured examples in the retrieval pack (z3 bindings) are cgo, and
// this module is never built with the Go toolchain in this exercise — so
// this component is, deliberately, one of the few built on the standard
// library alone; see DESIGN.md.
package presburger

import (
	"math/big"
	"sort"

	"github.com/mmjb/LoAT/internal/alg"
	"github.com/mmjb/LoAT/pkg/its"
)

// Result is the three-valued outcome of a decision query.
type Result uint8

// The three outcomes named in spec.md §6.
const (
	Unknown Result = iota
	Sat
	Unsat
)

// Check decides whether g's atoms are simultaneously satisfiable over the
// integers.
func Check(g its.Guard) Result {
	sys, ok := buildSystem(g)
	if !ok {
		return Unknown
	}
	return sys.decide()
}

// Implies decides whether g entails atom (i.e. whether g ∧ ¬atom is
// unsatisfiable).
func Implies(g its.Guard, atom its.Atom) Result {
	if atom.Rel == its.Eq {
		// g |= e=0 iff g|=e>=0 and g|=e<=0.
		ge := Implies(g, its.Atom{Expr: atom.Expr, Rel: its.Ge})
		le := Implies(g, its.Atom{Expr: atom.Expr, Rel: its.Le})
		if ge == Unknown || le == Unknown {
			return Unknown
		}
		if ge == Sat && le == Sat {
			return Sat
		}
		return Unsat
	}

	negated := g.Append(atom.Negate())
	switch Check(negated) {
	case Unsat:
		return Sat
	case Sat:
		return Unsat
	default:
		return Unknown
	}
}

// ImpliesAll reports Sat only if g entails every atom of other.
func ImpliesAll(g its.Guard, other its.Guard) Result {
	best := Sat
	for _, a := range other {
		switch Implies(g, a) {
		case Unsat:
			return Unsat
		case Unknown:
			best = Unknown
		}
	}
	return best
}

// linExpr is a linear combination of (a subset of) guard variables plus a
// constant, used internally while eliminating variables one at a time.
type linExpr struct {
	coeffs map[int]*big.Rat
	cst    *big.Rat
}

func zeroExpr() linExpr { return linExpr{coeffs: map[int]*big.Rat{}, cst: new(big.Rat)} }

func (e linExpr) clone() linExpr {
	c := make(map[int]*big.Rat, len(e.coeffs))
	for k, v := range e.coeffs {
		c[k] = new(big.Rat).Set(v)
	}
	return linExpr{coeffs: c, cst: new(big.Rat).Set(e.cst)}
}

func (e linExpr) sub(o linExpr) linExpr {
	out := e.clone()
	for k, v := range o.coeffs {
		if cur, ok := out.coeffs[k]; ok {
			cur.Sub(cur, v)
		} else {
			out.coeffs[k] = new(big.Rat).Neg(v)
		}
	}
	out.cst.Sub(out.cst, o.cst)
	return out
}

func (e linExpr) scale(f *big.Rat) linExpr {
	out := zeroExpr()
	for k, v := range e.coeffs {
		out.coeffs[k] = new(big.Rat).Mul(v, f)
	}
	out.cst.Mul(e.cst, f)
	return out
}

// dropVar removes a (by-then-zero) coefficient entry so the expr no longer
// mentions it.
func (e linExpr) dropVar(v int) linExpr {
	out := e.clone()
	delete(out.coeffs, v)
	return out
}

func (e linExpr) isConstant() bool { return len(e.coeffs) == 0 }

// substitute evaluates every variable present in assignment, returning a
// (possibly still non-constant) residual expression.
func (e linExpr) substitute(assignment map[int]*big.Rat) linExpr {
	out := zeroExpr()
	out.cst.Set(e.cst)
	for k, v := range e.coeffs {
		if val, ok := assignment[k]; ok {
			t := new(big.Rat).Mul(v, val)
			out.cst.Add(out.cst, t)
		} else {
			out.coeffs[k] = new(big.Rat).Set(v)
		}
	}
	return out
}

// constraint is "expr <= 0" (strict=false) or "expr < 0" (strict=true).
type constraint struct {
	expr   linExpr
	strict bool
}

// boundExpr records one side of an eliminated variable's bound, in terms of
// whatever variables had not yet been eliminated at that point.
type boundExpr struct {
	expr   linExpr
	strict bool
}

type elimStep struct {
	v      int
	lowers []boundExpr // v >= lowers[i].expr (strict per entry)
	uppers []boundExpr // v <= uppers[i].expr (strict per entry)
}

type system struct {
	constraints []constraint
	order       []int // variable elimination order
	steps       []elimStep
}

// buildSystem converts a guard into an initial constraint system. It fails
// (ok=false) if any atom is non-linear in the guard's own variables — the
// bounded LIA procedure here does not attempt non-linear reasoning.
func buildSystem(g its.Guard) (*system, bool) {
	vars := g.Vars()

	var cons []constraint
	for _, a := range g {
		if !alg.IsLinear(a.Expr, vars) {
			return nil, false
		}
		e, ok := toLinExpr(a.Expr, vars)
		if !ok {
			return nil, false
		}
		switch a.Rel {
		case its.Le:
			cons = append(cons, constraint{expr: e, strict: false})
		case its.Lt:
			cons = append(cons, constraint{expr: e, strict: true})
		case its.Ge:
			cons = append(cons, constraint{expr: e.scale(big.NewRat(-1, 1)), strict: false})
		case its.Gt:
			cons = append(cons, constraint{expr: e.scale(big.NewRat(-1, 1)), strict: true})
		case its.Eq:
			cons = append(cons, constraint{expr: e, strict: false})
			cons = append(cons, constraint{expr: e.scale(big.NewRat(-1, 1)), strict: false})
		}
	}

	order := make([]int, 0, len(vars))
	for v := range vars {
		order = append(order, v)
	}
	sort.Ints(order)

	return &system{constraints: cons, order: order}, true
}

// toLinExpr flattens an alg.Expr already known to be linear in vars into a
// linExpr. Any sub-term outside the polynomial normal form's degree-<=1
// shape causes this to fail, which should not happen once IsLinear has
// already confirmed linearity, but is checked defensively.
func toLinExpr(e alg.Expr, vars map[int]bool) (linExpr, bool) {
	out := zeroExpr()
	ok := linearize(e, vars, big.NewRat(1, 1), &out)
	return out, ok
}

func linearize(e alg.Expr, vars map[int]bool, scale *big.Rat, out *linExpr) bool {
	switch e := e.(type) {
	case *alg.Const:
		t := new(big.Rat).SetInt(e.Value)
		t.Mul(t, scale)
		out.cst.Add(out.cst, t)
		return true
	case *alg.Var:
		coeff, ok := out.coeffs[e.Index]
		if !ok {
			coeff = new(big.Rat)
			out.coeffs[e.Index] = coeff
		}
		coeff.Add(coeff, scale)
		return true
	case *alg.Neg:
		neg := new(big.Rat).Neg(scale)
		return linearize(e.Arg, vars, neg, out)
	case *alg.Add:
		for _, a := range e.Args {
			if !linearize(a, vars, scale, out) {
				return false
			}
		}
		return true
	case *alg.Mul:
		// A linear (degree<=1) product has at most one non-constant factor;
		// fold the constant factors into scale and linearize the rest.
		factorScale := new(big.Rat).Set(scale)
		var nonConst alg.Expr
		for _, a := range e.Args {
			if v, ok := alg.IsConstantValue(a); ok {
				factorScale.Mul(factorScale, new(big.Rat).SetInt(v))
				continue
			}
			if nonConst != nil {
				return false
			}
			nonConst = a
		}
		if nonConst == nil {
			out.cst.Add(out.cst, factorScale)
			return true
		}
		return linearize(nonConst, vars, factorScale, out)
	default:
		return false
	}
}

// decide runs Fourier-Motzkin elimination to completion, returning Unsat as
// soon as a constant contradiction is derived, otherwise attempts to
// reconstruct an integer witness and answers Sat only if one verifies.
func (s *system) decide() Result {
	cons := s.constraints
	for _, v := range s.order {
		var unaffected []constraint
		var lowerBounds, upperBounds []boundExpr

		for _, c := range cons {
			coeff, has := c.expr.coeffs[v]
			if !has || coeff.Sign() == 0 {
				unaffected = append(unaffected, c)
				continue
			}
			rest := c.expr.dropVar(v)
			inv := new(big.Rat).Inv(new(big.Rat).Abs(coeff))
			bound := rest.scale(inv)
			if coeff.Sign() > 0 {
				// coeff*v + rest <=(<) 0  =>  v <=(<) -rest/coeff
				upperBounds = append(upperBounds, boundExpr{expr: bound.scale(big.NewRat(-1, 1)), strict: c.strict})
			} else {
				// coeff*v + rest <=(<) 0, coeff<0 => v >=(>) rest/(-coeff)
				lowerBounds = append(lowerBounds, boundExpr{expr: bound, strict: c.strict})
			}
		}

		s.steps = append(s.steps, elimStep{v: v, lowers: lowerBounds, uppers: upperBounds})

		derived := make([]constraint, 0, len(lowerBounds)*len(upperBounds))
		for _, lo := range lowerBounds {
			for _, up := range upperBounds {
				diff := lo.expr.sub(up.expr)
				derived = append(derived, constraint{expr: diff, strict: lo.strict || up.strict})
			}
		}
		cons = append(unaffected, derived...)
	}

	for _, c := range cons {
		if !c.expr.isConstant() {
			// Should not happen once every variable has been eliminated.
			return Unknown
		}
		sign := c.expr.cst.Sign()
		if c.strict && sign >= 0 {
			return Unsat
		}
		if !c.strict && sign > 0 {
			return Unsat
		}
	}

	// Rationally feasible: try to reconstruct an integer witness.
	witness, ok := s.reconstructWitness()
	if !ok {
		return Unknown
	}
	if s.verify(witness) {
		return Sat
	}
	return Unknown
}

func (s *system) reconstructWitness() (map[int]*big.Int, bool) {
	assigned := map[int]*big.Rat{}

	for i := len(s.steps) - 1; i >= 0; i-- {
		step := s.steps[i]

		var lowerVal *big.Rat
		lowerStrict := false
		for _, b := range step.lowers {
			val := evalConstant(b.expr.substitute(assigned))
			switch {
			case lowerVal == nil || val.Cmp(lowerVal) > 0:
				lowerVal, lowerStrict = val, b.strict
			case val.Cmp(lowerVal) == 0:
				lowerStrict = lowerStrict || b.strict
			}
		}

		var upperVal *big.Rat
		upperStrict := false
		for _, b := range step.uppers {
			val := evalConstant(b.expr.substitute(assigned))
			if upperVal == nil || val.Cmp(upperVal) < 0 {
				upperVal, upperStrict = val, b.strict
			} else if val.Cmp(upperVal) == 0 {
				upperStrict = upperStrict || b.strict
			}
		}

		chosen, ok := pickInteger(lowerVal, lowerStrict, upperVal, upperStrict)
		if !ok {
			return nil, false
		}
		assigned[step.v] = new(big.Rat).SetInt(chosen)
	}

	out := make(map[int]*big.Int, len(assigned))
	for k, v := range assigned {
		if !v.IsInt() {
			return nil, false
		}
		out[k] = v.Num()
	}
	return out, true
}

func evalConstant(e linExpr) *big.Rat {
	return new(big.Rat).Set(e.cst)
}

// pickInteger chooses an integer in the (possibly half- or fully-unbounded)
// interval described by lower/upper, respecting strictness. ok is false if
// the interval provably contains no integer.
func pickInteger(lower *big.Rat, lowerStrict bool, upper *big.Rat, upperStrict bool) (*big.Int, bool) {
	var lo, hi *big.Int

	if lower != nil {
		lo = ceilRat(lower)
		if lowerStrict && new(big.Rat).SetInt(lo).Cmp(lower) == 0 {
			lo = new(big.Int).Add(lo, big.NewInt(1))
		}
	}
	if upper != nil {
		hi = floorRat(upper)
		if upperStrict && new(big.Rat).SetInt(hi).Cmp(upper) == 0 {
			hi = new(big.Int).Sub(hi, big.NewInt(1))
		}
	}

	switch {
	case lo != nil && hi != nil:
		if lo.Cmp(hi) > 0 {
			return nil, false
		}
		return lo, true
	case lo != nil:
		return lo, true
	case hi != nil:
		return hi, true
	default:
		return big.NewInt(0), true
	}
}

func floorRat(r *big.Rat) *big.Int {
	q := new(big.Int)
	m := new(big.Int)
	q.DivMod(r.Num(), r.Denom(), m)
	return q
}

func ceilRat(r *big.Rat) *big.Int {
	f := floorRat(r)
	if new(big.Rat).SetInt(f).Cmp(r) == 0 {
		return f
	}
	return new(big.Int).Add(f, big.NewInt(1))
}

func (s *system) verify(witness map[int]*big.Int) bool {
	for _, c := range s.constraints {
		val := evalLinExprInt(c.expr, witness)
		sign := val.Sign()
		if c.strict && sign >= 0 {
			return false
		}
		if !c.strict && sign > 0 {
			return false
		}
	}
	return true
}

func evalLinExprInt(e linExpr, witness map[int]*big.Int) *big.Int {
	acc := new(big.Rat)
	for k, coeff := range e.coeffs {
		v, ok := witness[k]
		if !ok {
			v = big.NewInt(0)
		}
		t := new(big.Rat).Mul(coeff, new(big.Rat).SetInt(v))
		acc.Add(acc, t)
	}
	acc.Add(acc, e.cst)
	// acc must be an integer since all coefficients/witness values are
	// integers; Num() after reducing gives the exact value.
	return new(big.Int).Quo(acc.Num(), acc.Denom())
}
