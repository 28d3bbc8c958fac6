package engine_test

import (
	"errors"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/warp/payroll-engine/engine"
)

// dismissalScale is the standard completed-years rate table:
// 30% up to 6 years, 38% to 12, 44% to 20, 50% beyond.
func dismissalScale() []engine.ScaleRow {
	return []engine.ScaleRow{
		{Type: engine.IndemnityDismissal, MinYears: 1, MaxYears: intPtr(6), Rate: decimal.NewFromFloat(0.30)},
		{Type: engine.IndemnityDismissal, MinYears: 7, MaxYears: intPtr(12), Rate: decimal.NewFromFloat(0.38)},
		{Type: engine.IndemnityDismissal, MinYears: 13, MaxYears: intPtr(20), Rate: decimal.NewFromFloat(0.44)},
		{Type: engine.IndemnityDismissal, MinYears: 21, MaxYears: nil, Rate: decimal.NewFromFloat(0.50)},
	}
}

// =============================================================================
// RETIREMENT
// =============================================================================

func TestRetirementIndemnity_ShortAndLongService(t *testing.T) {
	short := decimal.NewFromInt(5)
	long := decimal.NewFromInt(7)

	// GIVEN: 9 years of seniority -> short multiple
	got := engine.RetirementIndemnity(engine.NewMoney(300_000), 9*12, short, long)
	if got.Int64() != 1_500_000 {
		t.Errorf("expected 5x = 1500000 under 10 years, got %s", got)
	}

	// GIVEN: exactly 10 years -> long multiple
	got = engine.RetirementIndemnity(engine.NewMoney(300_000), 10*12, short, long)
	if got.Int64() != 2_100_000 {
		t.Errorf("expected 7x = 2100000 from 10 years, got %s", got)
	}
}

// =============================================================================
// DISMISSAL
// =============================================================================

func TestDismissalIndemnity_ScaleRateTimesYears(t *testing.T) {
	// GIVEN: 8 completed years on a 500 000 average 12-month salary
	got, err := engine.DismissalIndemnity(engine.NewMoney(500_000), 8*12, dismissalScale())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	// THEN: 500 000 x 38% x 8 = 1 520 000
	if got.Int64() != 1_520_000 {
		t.Errorf("expected 1520000, got %s", got)
	}
}

func TestDismissalIndemnity_Below18Months_Zero(t *testing.T) {
	// GIVEN: 17 months of seniority, below the statutory gate
	got, err := engine.DismissalIndemnity(engine.NewMoney(500_000), 17, dismissalScale())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !got.IsZero() {
		t.Errorf("expected zero under 18 months, got %s", got)
	}
}

func TestDismissalIndemnity_NoCoveringScaleRow_Fails(t *testing.T) {
	// GIVEN: a scale with no row for low seniority, employee at 18 months
	// (1 completed year)
	scale := []engine.ScaleRow{
		{Type: engine.IndemnityDismissal, MinYears: 5, MaxYears: nil, Rate: decimal.NewFromFloat(0.30)},
	}
	_, err := engine.DismissalIndemnity(engine.NewMoney(500_000), 18, scale)
	if !errors.Is(err, engine.ErrScaleNotFound) {
		t.Errorf("expected ErrScaleNotFound, got %v", err)
	}
}

// =============================================================================
// WORKFORCE REDUCTION
// =============================================================================

func TestWorkforceReductionIndemnity_FlatRate(t *testing.T) {
	// GIVEN: 5 completed years at a 15% flat rate on 400 000
	got := engine.WorkforceReductionIndemnity(engine.NewMoney(400_000), 5*12, decimal.NewFromFloat(0.15))

	// THEN: 400 000 x 15% x 5 = 300 000
	if got.Int64() != 300_000 {
		t.Errorf("expected 300000, got %s", got)
	}
}

func TestWorkforceReductionIndemnity_BelowOneYear_Zero(t *testing.T) {
	got := engine.WorkforceReductionIndemnity(engine.NewMoney(400_000), 11, decimal.NewFromFloat(0.15))
	if !got.IsZero() {
		t.Errorf("expected zero under 12 months, got %s", got)
	}
}

// =============================================================================
// MATERNITY
// =============================================================================

func TestMaternityIndemnity_EmployerShareOverLeaveWeeks(t *testing.T) {
	// GIVEN: 600 000 monthly, 15 weeks of leave, employer bears 50%,
	// 4 weeks per month
	got, err := engine.MaternityIndemnity(
		engine.NewMoney(600_000),
		decimal.NewFromInt(15),
		decimal.NewFromFloat(0.5),
		decimal.NewFromInt(4),
	)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	// THEN: 600 000 x 0.5 x (15/4) = 1 125 000
	if got.Int64() != 1_125_000 {
		t.Errorf("expected 1125000, got %s", got)
	}
}

func TestMaternityIndemnity_BadConversion_Fails(t *testing.T) {
	_, err := engine.MaternityIndemnity(engine.NewMoney(600_000), decimal.NewFromInt(15), decimal.NewFromFloat(0.5), decimal.Zero)
	if !engine.IsInvariantError(err) {
		t.Errorf("expected invariant error on zero weeks-per-month, got %v", err)
	}

	_, err = engine.MaternityIndemnity(engine.NewMoney(600_000), decimal.NewFromInt(-1), decimal.NewFromFloat(0.5), decimal.NewFromInt(4))
	if !engine.IsValidationError(err) {
		t.Errorf("expected validation error on negative leave weeks, got %v", err)
	}
}

// =============================================================================
// YEAR-END BONUS
// =============================================================================

func TestYearEndBonus_FullAfterTwelveMonths(t *testing.T) {
	// GIVEN: hired mid-2023, bonus year 2025
	got := engine.YearEndBonus(engine.YearEndBonusInput{
		BaseSalary: engine.NewMoney(400_000),
		HireDate:   time.Date(2023, time.June, 15, 0, 0, 0, 0, time.UTC),
		BonusYear:  2025,
	})
	if got.Int64() != 400_000 {
		t.Errorf("expected full base salary, got %s", got)
	}
}

func TestYearEndBonus_FirstQuarterHire_Prorated(t *testing.T) {
	// GIVEN: hired in February of the bonus year
	got := engine.YearEndBonus(engine.YearEndBonusInput{
		BaseSalary: engine.NewMoney(400_000),
		HireDate:   time.Date(2025, time.February, 10, 0, 0, 0, 0, time.UTC),
		BonusYear:  2025,
	})

	// THEN: 11 months employed -> 400 000 x 11/12 = 366 666.67 -> 366 667
	if got.Int64() != 366_667 {
		t.Errorf("expected prorated 366667, got %s", got)
	}
}

func TestYearEndBonus_MidYearHire_BelowGate_Zero(t *testing.T) {
	// GIVEN: hired in May of the bonus year, outside the first quarter and
	// under 12 months by December 31
	got := engine.YearEndBonus(engine.YearEndBonusInput{
		BaseSalary: engine.NewMoney(400_000),
		HireDate:   time.Date(2025, time.May, 1, 0, 0, 0, 0, time.UTC),
		BonusYear:  2025,
	})
	if !got.IsZero() {
		t.Errorf("expected zero bonus under the gate, got %s", got)
	}
}

func TestYearEndBonus_Sanctioned_Forfeited(t *testing.T) {
	got := engine.YearEndBonus(engine.YearEndBonusInput{
		BaseSalary: engine.NewMoney(400_000),
		HireDate:   time.Date(2020, time.January, 1, 0, 0, 0, 0, time.UTC),
		BonusYear:  2025,
		Sanctioned: true,
	})
	if !got.IsZero() {
		t.Errorf("expected forfeited bonus, got %s", got)
	}
}

// =============================================================================
// SENIORITY BONUS
// =============================================================================

func TestSeniorityBonus_RatePerCompletedYear(t *testing.T) {
	// GIVEN: 3 completed years at 2% per year on 500 000
	got := engine.SeniorityBonus(engine.NewMoney(500_000), 36, decimal.NewFromFloat(0.02))
	if got.Int64() != 30_000 {
		t.Errorf("expected 30000, got %s", got)
	}
}

func TestSeniorityBonus_BelowTwoYears_Zero(t *testing.T) {
	got := engine.SeniorityBonus(engine.NewMoney(500_000), 23, decimal.NewFromFloat(0.02))
	if !got.IsZero() {
		t.Errorf("expected zero under 24 months, got %s", got)
	}
}

// =============================================================================
// SENIORITY ARITHMETIC
// =============================================================================

func TestMonthsBetween_AnniversaryDayCounts(t *testing.T) {
	hire := time.Date(2024, time.March, 15, 0, 0, 0, 0, time.UTC)

	// Day before the anniversary: the month is not completed
	if got := engine.MonthsBetween(hire, time.Date(2024, time.April, 14, 0, 0, 0, 0, time.UTC)); got != 0 {
		t.Errorf("expected 0 completed months, got %d", got)
	}
	// On the anniversary day: completed
	if got := engine.MonthsBetween(hire, time.Date(2024, time.April, 15, 0, 0, 0, 0, time.UTC)); got != 1 {
		t.Errorf("expected 1 completed month, got %d", got)
	}
	// asOf before hire clamps to zero
	if got := engine.MonthsBetween(hire, time.Date(2024, time.January, 1, 0, 0, 0, 0, time.UTC)); got != 0 {
		t.Errorf("expected 0 months before hire, got %d", got)
	}
}
