package engine_test

import (
	"testing"

	"github.com/shopspring/decimal"
	"github.com/warp/payroll-engine/engine"
)

// =============================================================================
// CAPPED CONTRIBUTIONS
// =============================================================================

func TestContribution_CapAppliesBeforeRates(t *testing.T) {
	// GIVEN: a gross social base of 2 000 000 against a 1 200 000 cap,
	// 4% employee / 8% employer
	spec := engine.ContributionSpec{
		Code:         "CNSS",
		Cap:          engine.MoneyPtr(engine.NewMoney(1_200_000)),
		EmployeeRate: decimal.NewFromFloat(0.04),
		EmployerRate: decimal.NewFromFloat(0.08),
	}

	res := spec.Compute(engine.NewMoney(2_000_000))

	// THEN: rates apply to the capped base, not the raw gross
	if res.Base.Int64() != 1_200_000 {
		t.Errorf("expected capped base 1200000, got %s", res.Base)
	}
	if res.Employee.Int64() != 48_000 {
		t.Errorf("expected employee share 48000, got %s", res.Employee)
	}
	if res.Employer.Int64() != 96_000 {
		t.Errorf("expected employer share 96000, got %s", res.Employer)
	}
	if res.Total().Int64() != 144_000 {
		t.Errorf("expected total 144000, got %s", res.Total())
	}
}

func TestContribution_BelowCap_FullBase(t *testing.T) {
	// GIVEN: a gross below the cap
	spec := engine.ContributionSpec{
		Code:         "CNSS",
		Cap:          engine.MoneyPtr(engine.NewMoney(1_200_000)),
		EmployeeRate: decimal.NewFromFloat(0.04),
		EmployerRate: decimal.NewFromFloat(0.08),
	}

	res := spec.Compute(engine.NewMoney(800_000))

	if res.Base.Int64() != 800_000 {
		t.Errorf("expected uncapped base 800000, got %s", res.Base)
	}
	if res.Employee.Int64() != 32_000 {
		t.Errorf("expected employee share 32000, got %s", res.Employee)
	}
}

func TestContribution_NilCap_Uncapped(t *testing.T) {
	// GIVEN: the payroll tax, employer-only and uncapped
	spec := engine.ContributionSpec{
		Code:         "TUS",
		EmployerRate: decimal.NewFromFloat(0.045),
	}

	res := spec.Compute(engine.NewMoney(4_000_000))

	if !res.Employee.IsZero() {
		t.Errorf("expected zero employee share, got %s", res.Employee)
	}
	if res.Employer.Int64() != 180_000 {
		t.Errorf("expected employer share 180000, got %s", res.Employer)
	}
}

func TestContribution_RoundingPerLine(t *testing.T) {
	// GIVEN: a base and rate producing a fractional franc amount
	spec := engine.ContributionSpec{
		Code:         "AT",
		EmployerRate: decimal.NewFromFloat(0.0225),
	}

	// 333 333 x 0.0225 = 7 499.9925 -> 7 500 (half-up, once)
	res := spec.Compute(engine.NewMoney(333_333))
	if res.Employer.Int64() != 7_500 {
		t.Errorf("expected 7500, got %s", res.Employer)
	}
}

func TestContribution_NegativeGross_ClampsToZero(t *testing.T) {
	spec := engine.ContributionSpec{
		Code:         "CNSS",
		EmployeeRate: decimal.NewFromFloat(0.04),
	}
	res := spec.Compute(engine.NewMoney(-50_000))
	if !res.Employee.IsZero() || !res.Base.IsZero() {
		t.Errorf("expected zero contribution on negative gross, got base=%s employee=%s", res.Base, res.Employee)
	}
}

// =============================================================================
// CAMU - threshold EXEMPT, not capped
// =============================================================================

func TestComputeCAMU_OnlyExcessContributes(t *testing.T) {
	// GIVEN: gross 600 000 against a 500 000 threshold at 0.5%
	got := engine.ComputeCAMU(engine.NewMoney(600_000), engine.NewMoney(500_000), decimal.NewFromFloat(0.005))

	// THEN: only the 100 000 above the threshold contributes
	if got.Int64() != 500 {
		t.Errorf("expected CAMU 500, got %s", got)
	}
}

func TestComputeCAMU_AtOrBelowThreshold_Zero(t *testing.T) {
	// GIVEN: gross exactly at the threshold
	got := engine.ComputeCAMU(engine.NewMoney(500_000), engine.NewMoney(500_000), decimal.NewFromFloat(0.005))
	if !got.IsZero() {
		t.Errorf("expected zero CAMU at threshold, got %s", got)
	}

	// AND: below it
	got = engine.ComputeCAMU(engine.NewMoney(300_000), engine.NewMoney(500_000), decimal.NewFromFloat(0.005))
	if !got.IsZero() {
		t.Errorf("expected zero CAMU below threshold, got %s", got)
	}
}
