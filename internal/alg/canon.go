package alg

import (
	"math/big"
	"sort"
)

// monomial is a single term of a canonical sum-of-products form: coefficient
// times a product of variables raised to fixed powers. This mirrors the
// array-polynomial representation used for range analysis in the teacher's
// util/poly package, specialised to plain integer variables rather than
// field elements.
//
// coeff is a rational, not an integer: a *Div node nested inside an Add/Mul/
// Neg/Pow (e.g. MulOf(a, Div(n*(n-1), 2))) must expand through the same
// monomial machinery as everything else rather than being treated as an
// opaque unknown, and that only works if dividing a monomial's coefficient
// can produce a fraction instead of silently truncating. toExpr recovers a
// single common-denominator Div wrapping an all-integer polynomial once the
// arithmetic settles, so Div never leaks into the monomial representation
// itself.
type monomial struct {
	coeff  *big.Rat
	powers map[int]uint
}

// degree is the total degree of the monomial (sum of exponents).
func (m monomial) degree() uint {
	var d uint
	for _, p := range m.powers {
		d += p
	}
	return d
}

// signature is a stable string key identifying the monomial's variable part,
// used to combine like terms.
func (m monomial) signature() string {
	keys := make([]int, 0, len(m.powers))
	for k := range m.powers {
		keys = append(keys, k)
	}
	sort.Ints(keys)

	sig := make([]byte, 0, 8*len(keys))
	for _, k := range keys {
		sig = append(sig, []byte(itoa(k))...)
		sig = append(sig, '^')
		sig = append(sig, []byte(itoa(int(m.powers[k])))...)
		sig = append(sig, ';')
	}
	return string(sig)
}

func itoa(v int) string {
	return big.NewInt(int64(v)).String()
}

// polynomial is an ordered, deduplicated, zero-free sum of monomials. A nil
// or empty polynomial represents the constant zero.
type polynomial []monomial

func expand(e Expr) polynomial {
	switch e := e.(type) {
	case *Const:
		if e.Value.Sign() == 0 {
			return nil
		}
		return polynomial{{coeff: new(big.Rat).SetInt(e.Value), powers: map[int]uint{}}}
	case *Var:
		return polynomial{{coeff: big.NewRat(1, 1), powers: map[int]uint{e.Index: 1}}}
	case *Neg:
		return expand(e.Arg).negate()
	case *Add:
		var acc polynomial
		for _, a := range e.Args {
			acc = acc.add(expand(a))
		}
		return acc
	case *Mul:
		acc := polynomial{{coeff: big.NewRat(1, 1), powers: map[int]uint{}}}
		for _, a := range e.Args {
			acc = acc.mul(expand(a))
		}
		return acc
	case *Pow:
		base := expand(e.Arg)
		acc := polynomial{{coeff: big.NewRat(1, 1), powers: map[int]uint{}}}
		for i := uint64(0); i < e.Exp; i++ {
			acc = acc.mul(base)
		}
		return acc
	case *Div:
		num := expand(e.Num)
		denom := new(big.Rat).SetInt(e.Denom)
		out := make(polynomial, len(num))
		for i, m := range num {
			out[i] = monomial{coeff: new(big.Rat).Quo(m.coeff, denom), powers: m.powers}
		}
		return out
	default:
		return nil
	}
}

func (p polynomial) negate() polynomial {
	out := make(polynomial, len(p))
	for i, m := range p {
		out[i] = monomial{coeff: new(big.Rat).Neg(m.coeff), powers: m.powers}
	}
	return out
}

func (p polynomial) add(q polynomial) polynomial {
	byKey := map[string]monomial{}
	order := []string{}

	merge := func(terms polynomial) {
		for _, m := range terms {
			key := m.signature()
			if existing, ok := byKey[key]; ok {
				byKey[key] = monomial{coeff: new(big.Rat).Add(existing.coeff, m.coeff), powers: existing.powers}
			} else {
				byKey[key] = m
				order = append(order, key)
			}
		}
	}
	merge(p)
	merge(q)

	out := make(polynomial, 0, len(order))
	for _, key := range order {
		m := byKey[key]
		if m.coeff.Sign() != 0 {
			out = append(out, m)
		}
	}
	return out.sorted()
}

func (p polynomial) mul(q polynomial) polynomial {
	var acc polynomial
	for _, a := range p {
		for _, b := range q {
			powers := map[int]uint{}
			for k, v := range a.powers {
				powers[k] = v
			}
			for k, v := range b.powers {
				powers[k] += v
			}
			acc = acc.add(polynomial{{coeff: new(big.Rat).Mul(a.coeff, b.coeff), powers: powers}})
		}
	}
	return acc.sorted()
}

func (p polynomial) sorted() polynomial {
	out := make(polynomial, len(p))
	copy(out, p)
	sort.Slice(out, func(i, j int) bool { return out[i].signature() < out[j].signature() })
	return out
}

func (p polynomial) degree() uint {
	var d uint
	for _, m := range p {
		if md := m.degree(); md > d {
			d = md
		}
	}
	return d
}

// degreeIn is the polynomial's degree considering only the given variables as
// unknowns; every other variable index is treated as a fixed constant.
func (p polynomial) degreeIn(vars map[int]bool) uint {
	var d uint
	for _, m := range p {
		var md uint
		for idx, pow := range m.powers {
			if vars[idx] {
				md += pow
			}
		}
		if md > d {
			d = md
		}
	}
	return d
}

// toExpr rebuilds p as an Expr. Every monomial's coefficient is rational, but
// the result is only ever a plain polynomial (all coefficients already
// integral) or a single Div wrapping an all-integer polynomial scaled by the
// LCM of every monomial's denominator, never a mix and never a nested Div:
// scaling every monomial by the same common denominator clears every
// fraction at once.
func (p polynomial) toExpr() Expr {
	if len(p) == 0 {
		return Zero()
	}

	denom := commonDenominator(p)
	terms := make([]Expr, 0, len(p))
	for _, m := range p {
		terms = append(terms, m.scaledBy(denom).toExprInt())
	}

	var sum Expr
	if len(terms) == 1 {
		sum = terms[0]
	} else {
		sum = &Add{Args: terms}
	}
	if denom.Cmp(big.NewInt(1)) == 0 {
		return sum
	}
	return NewDiv(sum, denom)
}

// commonDenominator is the LCM of every monomial's coefficient denominator,
// so that scaling every monomial by it clears every fraction simultaneously.
func commonDenominator(p polynomial) *big.Int {
	d := big.NewInt(1)
	for _, m := range p {
		d = lcm(d, m.coeff.Denom())
	}
	return d
}

func lcm(a, b *big.Int) *big.Int {
	g := new(big.Int).GCD(nil, nil, new(big.Int).Abs(a), new(big.Int).Abs(b))
	l := new(big.Int).Div(new(big.Int).Abs(a), g)
	return l.Mul(l, new(big.Int).Abs(b))
}

// scaledBy multiplies m's coefficient by denom, which commonDenominator
// guarantees divides out to an exact integer.
func (m monomial) scaledBy(denom *big.Int) monomial {
	scaled := new(big.Rat).Mul(m.coeff, new(big.Rat).SetInt(denom))
	return monomial{coeff: scaled, powers: m.powers}
}

// toExprInt rebuilds a single monomial whose coefficient is known to be an
// integer (scaledBy's caller guarantees this via commonDenominator).
func (m monomial) toExprInt() Expr {
	coeff := new(big.Int).Set(m.coeff.Num())
	abs := new(big.Int).Abs(coeff)

	factors := make([]Expr, 0, len(m.powers)+1)
	if abs.CmpAbs(big.NewInt(1)) != 0 || len(m.powers) == 0 {
		factors = append(factors, NewConstBig(abs))
	}

	keys := make([]int, 0, len(m.powers))
	for k := range m.powers {
		keys = append(keys, k)
	}
	sort.Ints(keys)

	for _, k := range keys {
		v := &Var{Index: k}
		if m.powers[k] == 1 {
			factors = append(factors, v)
		} else {
			factors = append(factors, &Pow{Arg: v, Exp: uint64(m.powers[k])})
		}
	}

	var body Expr
	switch len(factors) {
	case 0:
		body = One()
	case 1:
		body = factors[0]
	default:
		body = &Mul{Args: factors}
	}
	if coeff.Sign() < 0 {
		return &Neg{Arg: body}
	}
	return body
}

// Simplify rewrites e into a normal form: constants folded, nested sums and
// products flattened, zero terms and unit factors dropped. It never changes
// the value the expression denotes.
//
// A top-level Div is simplified by folding its numerator and re-attempting
// exact division (NewDiv), rather than expanding through the polynomial
// machinery, since Div's whole purpose is to carry values the monomial
// representation cannot (see div.go).
func Simplify(e Expr) Expr {
	if d, ok := e.(*Div); ok {
		return NewDiv(Simplify(d.Num), d.Denom)
	}
	return expand(e).toExpr()
}

// Equal reports whether a and b denote the same value for all assignments,
// decided by comparing their expanded polynomial normal forms. Div nodes are
// only considered equal when their numerators and denominators coincide
// exactly: two differently-denominated Div expressions that denote the same
// rational value compare unequal, and a Div never equals a non-Div
// expression.
func Equal(a, b Expr) bool {
	da, aIsDiv := a.(*Div)
	db, bIsDiv := b.(*Div)
	if aIsDiv || bIsDiv {
		if !aIsDiv || !bIsDiv {
			return false
		}
		return da.Denom.Cmp(db.Denom) == 0 && Equal(da.Num, db.Num)
	}

	pa, pb := expand(a).sorted(), expand(b).sorted()
	if len(pa) != len(pb) {
		return false
	}
	for i := range pa {
		if pa[i].signature() != pb[i].signature() || pa[i].coeff.Cmp(pb[i].coeff) != 0 {
			return false
		}
	}
	return true
}

// Degree returns the total polynomial degree of e over all its variables.
// Division by a nonzero constant never changes degree, so a Div defers to
// its numerator rather than being expanded.
func Degree(e Expr) uint {
	if d, ok := e.(*Div); ok {
		return Degree(d.Num)
	}
	return expand(e).degree()
}

// DegreeIn returns the polynomial degree of e treating only vars as unknowns.
func DegreeIn(e Expr, vars map[int]bool) uint {
	if d, ok := e.(*Div); ok {
		return DegreeIn(d.Num, vars)
	}
	return expand(e).degreeIn(vars)
}

// IsPolynomial always holds: the only division is Div by a nonzero integer
// constant and no variable appears in an exponent, so every expression is a
// polynomial by construction.
// The vars argument is accepted to match the collaborator interface named in
// the specification (algebra.is_polynomial(expr, vars)).
func IsPolynomial(_ Expr, _ map[int]bool) bool { return true }

// IsLinear reports whether e has degree at most 1 in the given variables.
func IsLinear(e Expr, vars map[int]bool) bool { return DegreeIn(e, vars) <= 1 }

// IsConstantValue reports whether e is a literal constant, returning its
// value. A lone constant monomial with a non-integer coefficient cannot
// arise from a sound Div (NewDiv only ever produces an exact quotient), so
// that case is treated as "not a constant" rather than panicking or
// truncating.
func IsConstantValue(e Expr) (*big.Int, bool) {
	p := expand(e)
	if len(p) == 0 {
		return big.NewInt(0), true
	}
	if len(p) == 1 && len(p[0].powers) == 0 && p[0].coeff.IsInt() {
		return new(big.Int).Set(p[0].coeff.Num()), true
	}
	return nil, false
}
