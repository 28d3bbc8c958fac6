/*
contributions.go - Capped percentage social contributions

PURPOSE:
  The shared shape of CNSS, family allowance, work accident, and payroll
  tax computations:

    base     = min(grossSocialBase, cap)
    employee = round(base * employeeRate)
    employer = round(base * employerRate)

  Some contributions carry a zero employee rate (fully employer-borne) or
  vice versa. Rounding is half-up to whole francs, once per line item,
  never on intermediate sums.

  CAMU is the one threshold-EXEMPT variant: only the portion of the gross
  base above the threshold contributes.

SEE ALSO:
  - params.go: rates and caps are resolved per tenant and period
*/
package engine

import (
	"github.com/shopspring/decimal"
)

// =============================================================================
// CAPPED CONTRIBUTIONS
// =============================================================================

// ContributionSpec is a resolved contribution rule: rates applied to a
// possibly capped base. A nil Cap means uncapped.
type ContributionSpec struct {
	Code         string
	Cap          *Money
	EmployeeRate decimal.Decimal
	EmployerRate decimal.Decimal
}

// ContributionResult is the computed split for one contribution line.
type ContributionResult struct {
	Code     string
	Base     Money // capped base the rates were applied to
	Employee Money
	Employer Money
}

// Total returns employee + employer amounts.
func (r ContributionResult) Total() Money {
	return r.Employee.Add(r.Employer)
}

// Compute applies the spec to a gross social base.
func (s ContributionSpec) Compute(grossSocialBase Money) ContributionResult {
	base := grossSocialBase.Max(Zero())
	if s.Cap != nil {
		base = base.Min(*s.Cap)
	}
	return ContributionResult{
		Code:     s.Code,
		Base:     base,
		Employee: base.Mul(s.EmployeeRate).Round(),
		Employer: base.Mul(s.EmployerRate).Round(),
	}
}

// =============================================================================
// CAMU - Threshold-exempt solidarity health contribution
// =============================================================================

// ComputeCAMU computes the employee-borne CAMU contribution: the gross base
// is exempt up to the threshold, and only the excess contributes. The
// monthly base is always the current period's authoritative gross, never a
// share re-derived from stored payslips.
func ComputeCAMU(grossSocialBase, threshold Money, rate decimal.Decimal) Money {
	excess := grossSocialBase.Sub(threshold)
	if !excess.IsPositive() {
		return Zero()
	}
	return excess.Mul(rate).Round()
}
