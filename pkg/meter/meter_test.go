package meter

import (
	"testing"

	"github.com/mmjb/LoAT/internal/alg"
	"github.com/mmjb/LoAT/pkg/its"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestAccelerateLinearDecrement(t *testing.T) {
	s := its.NewStore()
	x := s.DeclareVariable("x", its.Program)
	s.SetInitialLocation(0)

	guard := its.Guard{{Expr: s.VarExpr(x.Index), Rel: its.Gt}}
	update := its.Update{x.Index: alg.SubOf(s.VarExpr(x.Index), alg.One())}
	idx := s.AddRule(its.NewRule(0, guard, alg.NewConst(1), its.LinearRhs(0, update), false))

	result, ok := Accelerate(s, idx, DefaultConfig)
	require.True(t, ok)
	require.Len(t, result.Rules, 1)

	accel := result.Rules[0]
	assert.True(t, alg.Equal(accel.Cost, s.VarExpr(x.Index)))
	assert.True(t, alg.Equal(accel.SoleBranch().Update[x.Index], alg.Zero()))
}

// The accelerated cost of a loop whose per-iteration cost is itself the
// decrementing loop counter is a triangular number (degree 2 in the
// metering function): sum_{k=1}^{x} k = x(x+1)/2. This exercises
// internal/recurrence.sumLinear's triangular term with a nonzero leading
// coefficient end-to-end, which a polynomial-expansion bug in
// internal/alg.expand (silently zeroing any Div node nested inside a Mul)
// used to discard entirely.
func TestAccelerateCostLinearInLoopVariable(t *testing.T) {
	s := its.NewStore()
	x := s.DeclareVariable("x", its.Program)
	s.SetInitialLocation(0)

	guard := its.Guard{{Expr: s.VarExpr(x.Index), Rel: its.Gt}}
	update := its.Update{x.Index: alg.SubOf(s.VarExpr(x.Index), alg.One())}
	idx := s.AddRule(its.NewRule(0, guard, s.VarExpr(x.Index), its.LinearRhs(0, update), false))

	result, ok := Accelerate(s, idx, DefaultConfig)
	require.True(t, ok)
	require.Len(t, result.Rules, 1)

	assert.Equal(t, uint(2), alg.Degree(result.Rules[0].Cost))
}

// Same shape, but the per-iteration cost is the loop counter squared: the
// accelerated cost is the classic sum-of-squares identity, cubic in the
// metering function. Exercises internal/recurrence.sumQuadratic's
// sum-of-squares term for the same reason as the linear case above.
func TestAccelerateCostQuadraticInLoopVariable(t *testing.T) {
	s := its.NewStore()
	x := s.DeclareVariable("x", its.Program)
	s.SetInitialLocation(0)

	guard := its.Guard{{Expr: s.VarExpr(x.Index), Rel: its.Gt}}
	update := its.Update{x.Index: alg.SubOf(s.VarExpr(x.Index), alg.One())}
	cost := &alg.Pow{Arg: s.VarExpr(x.Index), Exp: 2}
	idx := s.AddRule(its.NewRule(0, guard, cost, its.LinearRhs(0, update), false))

	result, ok := Accelerate(s, idx, DefaultConfig)
	require.True(t, ok)
	require.Len(t, result.Rules, 1)

	assert.Equal(t, uint(3), alg.Degree(result.Rules[0].Cost))
}

func TestAccelerateDoublingFails(t *testing.T) {
	s := its.NewStore()
	x := s.DeclareVariable("x", its.Program)
	s.SetInitialLocation(0)

	guard := its.Guard{{Expr: s.VarExpr(x.Index), Rel: its.Gt}}
	update := its.Update{x.Index: alg.MulOf(alg.NewConst(2), s.VarExpr(x.Index))}
	idx := s.AddRule(its.NewRule(0, guard, alg.NewConst(1), its.LinearRhs(0, update), false))

	_, ok := Accelerate(s, idx, DefaultConfig)
	assert.False(t, ok)
}
