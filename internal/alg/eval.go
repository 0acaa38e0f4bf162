package alg

// EvalConst evaluates a ground (variable-free) expression to its integer
// value; the bool is false when e is not an integer constant.
func EvalConst(e Expr) (int64, bool) {
	v, ok := IsConstantValue(e)
	if !ok {
		return 0, false
	}
	return v.Int64(), true
}
