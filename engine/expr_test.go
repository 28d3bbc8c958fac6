package engine_test

import (
	"errors"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/warp/payroll-engine/engine"
)

func TestEvalConstExpr_Arithmetic(t *testing.T) {
	cases := []struct {
		expr string
		want string
	}{
		{"25000", "25000"},
		{"1500 * 20", "30000"},
		{"100000 / 4", "25000"},
		{"2 + 3 * 4", "14"},
		{"(2 + 3) * 4", "20"},
		{"10 - 2 - 3", "5"},
		{"-5 + 10", "5"},
		{"0.15 * 200000", "30000"},
		{" 7 * ( 3 + 1 ) ", "28"},
	}
	for _, c := range cases {
		got, err := engine.EvalConstExpr(c.expr)
		if err != nil {
			t.Errorf("%q: unexpected error: %v", c.expr, err)
			continue
		}
		if !got.Equal(decimal.RequireFromString(c.want)) {
			t.Errorf("%q: expected %s, got %s", c.expr, c.want, got)
		}
	}
}

func TestEvalConstExpr_RejectsIdentifiers(t *testing.T) {
	// The evaluator accepts constants only. Anything resembling a variable
	// or function reference is a formula error, never a lookup.
	for _, expr := range []string{"salaire * 0.1", "base", "min(1, 2)", "2x"} {
		_, err := engine.EvalConstExpr(expr)
		if !errors.Is(err, engine.ErrInvalidFormula) {
			t.Errorf("%q: expected ErrInvalidFormula, got %v", expr, err)
		}
	}
}

func TestEvalConstExpr_Malformed(t *testing.T) {
	for _, expr := range []string{"", "1 +", "(1 + 2", "1..5", "3.", "1 / 0", "4 5"} {
		_, err := engine.EvalConstExpr(expr)
		if !errors.Is(err, engine.ErrInvalidFormula) {
			t.Errorf("%q: expected ErrInvalidFormula, got %v", expr, err)
		}
	}
}
