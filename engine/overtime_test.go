package engine_test

import (
	"testing"

	"github.com/shopspring/decimal"
	"github.com/warp/payroll-engine/engine"
)

func TestHourlyWage_FromMonthlySalaryAndLegalHours(t *testing.T) {
	// GIVEN: a 173 333 monthly salary over 173.33 legal hours
	hw, err := engine.HourlyWage(engine.NewMoney(346_660), decimal.NewFromFloat(173.33))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !hw.Equal(decimal.NewFromInt(2000)) {
		t.Errorf("expected hourly wage 2000, got %s", hw)
	}
}

func TestHourlyWage_NonPositiveLegalHours_Fails(t *testing.T) {
	_, err := engine.HourlyWage(engine.NewMoney(300_000), decimal.Zero)
	if !engine.IsInvariantError(err) {
		t.Errorf("expected invariant error on zero legal hours, got %v", err)
	}
}

func TestComputeOvertime_TwoTiers_SingleTerminalRounding(t *testing.T) {
	// GIVEN: hourly wage 1 000, 5h at +10% and 2h at +25%
	hours := engine.OvertimeHours{
		DayFirst: decimal.NewFromInt(5),
		DayNext:  decimal.NewFromInt(2),
	}
	rates := engine.OvertimeRates{
		DayFirst: decimal.NewFromInt(10),
		DayNext:  decimal.NewFromInt(25),
	}

	lines, total := engine.ComputeOvertime(decimal.NewFromInt(1000), hours, rates)

	// THEN: 5 x 1000 x 1.10 + 2 x 1000 x 1.25 = 5 500 + 2 500 = 8 000
	if total.Int64() != 8_000 {
		t.Errorf("expected total 8000, got %s", total)
	}
	if len(lines) != 2 {
		t.Fatalf("expected 2 lines, got %d", len(lines))
	}
	if lines[0].Tier != engine.TierDayFirst || lines[1].Tier != engine.TierDayNext {
		t.Errorf("unexpected tier order: %s, %s", lines[0].Tier, lines[1].Tier)
	}
}

func TestComputeOvertime_SparseOutput(t *testing.T) {
	// GIVEN: hours in only one of the five tiers
	hours := engine.OvertimeHours{RestNight: decimal.NewFromInt(3)}
	rates := engine.OvertimeRates{RestNight: decimal.NewFromInt(50)}

	lines, total := engine.ComputeOvertime(decimal.NewFromInt(2000), hours, rates)

	// THEN: exactly one line, no zero-amount filler for the empty tiers
	if len(lines) != 1 {
		t.Fatalf("expected 1 line, got %d", len(lines))
	}
	if lines[0].Tier != engine.TierRestNight {
		t.Errorf("expected repos_nuit line, got %s", lines[0].Tier)
	}
	if total.Int64() != 9_000 {
		t.Errorf("expected total 9000, got %s", total)
	}
}

func TestComputeOvertime_NoHours_NoLines(t *testing.T) {
	lines, total := engine.ComputeOvertime(decimal.NewFromInt(1500), engine.OvertimeHours{}, engine.OvertimeRates{})
	if len(lines) != 0 {
		t.Errorf("expected no lines, got %d", len(lines))
	}
	if !total.IsZero() {
		t.Errorf("expected zero total, got %s", total)
	}
}

func TestComputeOvertime_FractionalAmountsRoundOnceOnTotal(t *testing.T) {
	// GIVEN: a fractional hourly wage so per-tier amounts are not whole
	// 1 666.67 x 3 x 1.10 = 5 500.011 and 1 666.67 x 1 x 1.25 = 2 083.3375
	hw := decimal.NewFromFloat(1666.67)
	hours := engine.OvertimeHours{
		DayFirst: decimal.NewFromInt(3),
		DayNext:  decimal.NewFromInt(1),
	}
	rates := engine.OvertimeRates{
		DayFirst: decimal.NewFromInt(10),
		DayNext:  decimal.NewFromInt(25),
	}

	lines, total := engine.ComputeOvertime(hw, hours, rates)

	// THEN: line amounts stay unrounded; the sum 7 583.3485 rounds to 7 583
	if lines[0].Amount.Equal(lines[0].Amount.Round(0)) {
		t.Errorf("expected unrounded line amount, got %s", lines[0].Amount)
	}
	if total.Int64() != 7_583 {
		t.Errorf("expected total 7583, got %s", total)
	}
}
