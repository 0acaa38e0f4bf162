package alg

import "fmt"

func (e *Const) String() string { return e.Value.String() }

func (e *Var) String() string {
	if e.Name != "" {
		return e.Name
	}
	return fmt.Sprintf("_v%d", e.Index)
}

func (e *Add) String() string { return naryString("+", e.Args) }

func (e *Mul) String() string { return naryString("*", e.Args) }

func (e *Neg) String() string { return fmt.Sprintf("(- %s)", e.Arg) }

func (e *Pow) String() string { return fmt.Sprintf("(%s^%d)", e.Arg, e.Exp) }

func naryString(operator string, args []Expr) string {
	if len(args) == 0 {
		return "0"
	}

	s := args[0].String()
	for _, a := range args[1:] {
		s = fmt.Sprintf("%s %s %s", s, operator, a)
	}
	return fmt.Sprintf("(%s)", s)
}
