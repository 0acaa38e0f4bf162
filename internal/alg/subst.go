package alg

// Substitute replaces every occurrence of a variable present in mapping by
// its image, simultaneously (the mapping is read once against the original
// expression tree, never re-applied to its own output), matching the
// simultaneous-update semantics of its.Update.
func Substitute(e Expr, mapping map[int]Expr) Expr {
	switch e := e.(type) {
	case *Const:
		return e
	case *Var:
		if repl, ok := mapping[e.Index]; ok {
			return repl
		}
		return e
	case *Add:
		args := make([]Expr, len(e.Args))
		for i, a := range e.Args {
			args[i] = Substitute(a, mapping)
		}
		return Simplify(&Add{Args: args})
	case *Mul:
		args := make([]Expr, len(e.Args))
		for i, a := range e.Args {
			args[i] = Substitute(a, mapping)
		}
		return Simplify(&Mul{Args: args})
	case *Neg:
		return Simplify(&Neg{Arg: Substitute(e.Arg, mapping)})
	case *Pow:
		return Simplify(&Pow{Arg: Substitute(e.Arg, mapping), Exp: e.Exp})
	case *Div:
		return NewDiv(Substitute(e.Num, mapping), e.Denom)
	default:
		return e
	}
}

// SubstituteVar replaces a single variable by an expression; a convenience
// wrapper over Substitute used throughout the recurrence solver.
func SubstituteVar(e Expr, index int, repl Expr) Expr {
	return Substitute(e, map[int]Expr{index: repl})
}
