package its

import (
	"strings"

	"github.com/mmjb/LoAT/internal/alg"
)

// Rel is an atomic constraint's relational operator.
type Rel uint8

// The five relational operators a guard atom may carry (spec.md §3).
const (
	Eq Rel = iota
	Le
	Lt
	Ge
	Gt
)

func (r Rel) String() string {
	switch r {
	case Eq:
		return "="
	case Le:
		return "<="
	case Lt:
		return "<"
	case Ge:
		return ">="
	case Gt:
		return ">"
	default:
		return "?"
	}
}

// Atom is a single atomic constraint "Expr ⋈ 0".
type Atom struct {
	Expr alg.Expr
	Rel  Rel
}

func (a Atom) String() string { return a.Expr.String() + " " + a.Rel.String() + " 0" }

// Negate builds the atom equivalent to ¬a. Negating an equality (a
// disjunction on integers) is not expressible as a single atom, so Negate
// only handles the four order relations; callers must not negate Eq atoms
// (the presburger decision procedure never needs to).
func (a Atom) Negate() Atom {
	switch a.Rel {
	case Le:
		return Atom{Expr: a.Expr, Rel: Gt}
	case Lt:
		return Atom{Expr: a.Expr, Rel: Ge}
	case Ge:
		return Atom{Expr: a.Expr, Rel: Lt}
	case Gt:
		return Atom{Expr: a.Expr, Rel: Le}
	default:
		panic("its: cannot negate an equality atom to a single atom")
	}
}

// Substitute applies mapping to the atom's expression.
func (a Atom) Substitute(mapping map[int]alg.Expr) Atom {
	return Atom{Expr: alg.Substitute(a.Expr, mapping), Rel: a.Rel}
}

// Guard is a finite ordered sequence of atomic constraints, conjoined.
// Ordering carries no semantic weight but is preserved for deterministic
// output (spec.md §3).
type Guard []Atom

// Substitute applies mapping to every atom, preserving order.
func (g Guard) Substitute(mapping map[int]alg.Expr) Guard {
	out := make(Guard, len(g))
	for i, a := range g {
		out[i] = a.Substitute(mapping)
	}
	return out
}

// Append returns a new guard with extra atoms appended.
func (g Guard) Append(atoms ...Atom) Guard {
	out := make(Guard, 0, len(g)+len(atoms))
	out = append(out, g...)
	out = append(out, atoms...)
	return out
}

// Concat conjoins two guards.
func (g Guard) Concat(other Guard) Guard { return g.Append(other...) }

// Vars collects every variable index mentioned anywhere in the guard.
func (g Guard) Vars() map[int]bool {
	out := map[int]bool{}
	for _, a := range g {
		for idx := range alg.Vars(a.Expr) {
			out[idx] = true
		}
	}
	return out
}

// EqualModuloOrder reports whether two guards contain the same atoms up to
// reordering and algebraic equality, used by RemoveDuplicateRules (spec.md
// §4.2).
func (g Guard) EqualModuloOrder(o Guard) bool {
	if len(g) != len(o) {
		return false
	}
	used := make([]bool, len(o))
	for _, a := range g {
		found := false
		for j, b := range o {
			if used[j] {
				continue
			}
			if a.Rel == b.Rel && alg.Equal(a.Expr, b.Expr) {
				used[j] = true
				found = true
				break
			}
		}
		if !found {
			return false
		}
	}
	return true
}

func (g Guard) String() string {
	parts := make([]string, len(g))
	for i, a := range g {
		parts[i] = a.String()
	}
	if len(parts) == 0 {
		return "TRUE"
	}
	return strings.Join(parts, " /\\ ")
}

// Update is a simultaneous parallel assignment from pre-state to post-state;
// variables absent from the map are implicitly unchanged (spec.md §3).
type Update map[int]alg.Expr

// Clone returns a shallow copy of the update map.
func (u Update) Clone() Update {
	out := make(Update, len(u))
	for k, v := range u {
		out[k] = v
	}
	return out
}

// AsMapping returns the update as the variable-index-to-expression map that
// alg.Substitute takes (used by the chainer to substitute r1's update into
// r2's guard/update/cost).
func (u Update) AsMapping() map[int]alg.Expr {
	return map[int]alg.Expr(u)
}

// IsUpdated reports whether v is assigned by this update.
func (u Update) IsUpdated(v int) bool {
	_, ok := u[v]
	return ok
}

// Equal reports whether two updates assign algebraically equal expressions
// to exactly the same set of variables.
func (u Update) Equal(o Update) bool {
	if len(u) != len(o) {
		return false
	}
	for k, v := range u {
		ov, ok := o[k]
		if !ok || !alg.Equal(v, ov) {
			return false
		}
	}
	return true
}
