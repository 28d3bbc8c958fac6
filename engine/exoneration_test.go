package engine_test

import (
	"testing"

	"github.com/shopspring/decimal"
	"github.com/warp/payroll-engine/engine"
)

func TestApplyExoneration_ExcessReentersTaxableBase(t *testing.T) {
	// GIVEN: gross pay 1 000 000, 15% exoneration cap, 200 000 of
	// designated bonuses
	res := engine.ApplyExoneration(engine.NewMoney(1_000_000), engine.NewMoney(200_000), decimal.NewFromFloat(0.15))

	// THEN: cap 150 000, exempt at the cap, 50 000 re-enters the taxable base
	if res.Cap.Int64() != 150_000 {
		t.Errorf("expected cap 150000, got %s", res.Cap)
	}
	if res.Exempt.Int64() != 150_000 {
		t.Errorf("expected exempt 150000, got %s", res.Exempt)
	}
	if res.ExcessTaxable.Int64() != 50_000 {
		t.Errorf("expected excess 50000, got %s", res.ExcessTaxable)
	}
}

func TestApplyExoneration_BonusUnderCap_FullyExempt(t *testing.T) {
	res := engine.ApplyExoneration(engine.NewMoney(1_000_000), engine.NewMoney(100_000), decimal.NewFromFloat(0.15))
	if res.Exempt.Int64() != 100_000 {
		t.Errorf("expected fully exempt 100000, got %s", res.Exempt)
	}
	if !res.ExcessTaxable.IsZero() {
		t.Errorf("expected zero excess, got %s", res.ExcessTaxable)
	}
}

func TestApplyExoneration_SplitAlwaysReconciles(t *testing.T) {
	// Exempt + excess must equal the bonus total, and exempt never exceeds
	// the cap, across a spread of inputs.
	cases := []struct {
		gross, bonus int64
	}{
		{1_000_000, 0},
		{1_000_000, 150_000},
		{1_000_000, 150_001},
		{1_000_000, 2_000_000},
		{0, 50_000},
	}
	rate := decimal.NewFromFloat(0.15)
	for _, c := range cases {
		res := engine.ApplyExoneration(engine.NewMoney(c.gross), engine.NewMoney(c.bonus), rate)
		sum := res.Exempt.Add(res.ExcessTaxable)
		if !sum.Equal(engine.NewMoney(c.bonus)) {
			t.Errorf("gross=%d bonus=%d: exempt+excess=%s, want %d", c.gross, c.bonus, sum, c.bonus)
		}
		if res.Exempt.GreaterThan(res.Cap) {
			t.Errorf("gross=%d bonus=%d: exempt %s exceeds cap %s", c.gross, c.bonus, res.Exempt, res.Cap)
		}
	}
}
