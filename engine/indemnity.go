/*
indemnity.go - Seniority/threshold-gated lump-sum indemnities

PURPOSE:
  Pure formulas for the statutory indemnities:

  - Retirement: 5x monthly salary under 10 years of seniority, 7x from
    10 years (multipliers overridable per tenant).
  - Standard dismissal: gated at 18 months; rate by completed years from
    the effective-dated indemnity scale, times avg 12-month salary, times
    completed years.
  - Workforce-reduction dismissal: gated at 1 year; flat rate times avg
    12-month salary times completed years.
  - Maternity: employer bears a share (50%) of salary prorated over leave
    weeks via a weeks-per-month conversion; the remainder is the social
    fund's, outside this system.
  - Year-end bonus: gated at 12 months of seniority; forfeited on
    confirmed sanctions; prorated by months employed when the hire date
    falls in the first calendar quarter of the bonus year.
  - Seniority bonus (prime d'anciennete): rate per completed year applied
    to base salary, gated at 24 months.

  Gates written as named constants are fixed legal thresholds; every rate
  and multiplier is a resolvable fiscal parameter or scale row.
*/
package engine

import (
	"context"
	"fmt"
	"time"

	"github.com/shopspring/decimal"
)

// =============================================================================
// INDEMNITY TYPES AND SCALES
// =============================================================================

// IndemnityType identifies one indemnity formula family.
type IndemnityType string

const (
	IndemnityRetirement         IndemnityType = "retraite"
	IndemnityDismissal          IndemnityType = "licenciement"
	IndemnityWorkforceReduction IndemnityType = "compression"
	IndemnityMaternity          IndemnityType = "maternite"
	IndemnityYearEnd            IndemnityType = "prime_fin_annee"
)

// ScaleRow maps a completed-years range to a rate. MinYears and MaxYears are
// both inclusive; a nil MaxYears means unbounded above.
type ScaleRow struct {
	Type     IndemnityType
	MinYears int
	MaxYears *int
	Rate     decimal.Decimal
}

// Contains reports whether the row covers the given completed years.
func (r ScaleRow) Contains(years int) bool {
	if years < r.MinYears {
		return false
	}
	return r.MaxYears == nil || years <= *r.MaxYears
}

// ScaleSource supplies the indemnity scale effective for a tenant as of a
// date.
type ScaleSource interface {
	ScaleAsOf(ctx context.Context, tenant TenantID, typ IndemnityType, asOf time.Time) ([]ScaleRow, error)
}

// Fixed legal seniority thresholds (months). These are statutory gates, not
// tenant configuration.
const (
	RetirementLongServiceYears      = 10
	DismissalMinimumMonths          = 18
	WorkforceReductionMinimumMonths = 12
	YearEndBonusMinimumMonths       = 12
	SeniorityBonusMinimumMonths     = 24
)

// =============================================================================
// FORMULAS
// =============================================================================

// RetirementIndemnity: a salary multiple gated on the 10-year mark.
func RetirementIndemnity(monthlySalary Money, seniorityMonths int, shortMultiple, longMultiple decimal.Decimal) Money {
	multiple := shortMultiple
	if seniorityMonths >= RetirementLongServiceYears*12 {
		multiple = longMultiple
	}
	return monthlySalary.Mul(multiple).Round()
}

// DismissalIndemnity: scale rate by completed years, times average 12-month
// salary, times completed years. Zero below 18 months of seniority.
func DismissalIndemnity(avg12MonthSalary Money, seniorityMonths int, scale []ScaleRow) (Money, error) {
	if seniorityMonths < DismissalMinimumMonths {
		return Zero(), nil
	}
	years := CompletedYears(seniorityMonths)
	for _, row := range scale {
		if row.Type == IndemnityDismissal && row.Contains(years) {
			return avg12MonthSalary.Mul(row.Rate).Mul(decimal.NewFromInt(int64(years))).Round(), nil
		}
	}
	return Zero(), fmt.Errorf("%w: %s at %d years", ErrScaleNotFound, IndemnityDismissal, years)
}

// WorkforceReductionIndemnity: flat rate, gated at one year of seniority.
func WorkforceReductionIndemnity(avg12MonthSalary Money, seniorityMonths int, rate decimal.Decimal) Money {
	if seniorityMonths < WorkforceReductionMinimumMonths {
		return Zero()
	}
	years := CompletedYears(seniorityMonths)
	return avg12MonthSalary.Mul(rate).Mul(decimal.NewFromInt(int64(years))).Round()
}

// MaternityIndemnity: the employer-borne share of salary over the leave,
// converting weeks to months. The social-fund remainder is not computed here.
func MaternityIndemnity(monthlySalary Money, leaveWeeks, employerShare, weeksPerMonth decimal.Decimal) (Money, error) {
	if !weeksPerMonth.IsPositive() {
		return Zero(), &InvariantError{Reason: "weeks-per-month conversion must be positive"}
	}
	if leaveWeeks.IsNegative() {
		return Zero(), &ValidationError{Field: "leaveWeeks", Reason: "negative leave duration"}
	}
	months := leaveWeeks.Div(weeksPerMonth)
	return monthlySalary.Mul(employerShare).Mul(months).Round(), nil
}

// YearEndBonusInput gathers the situation evaluated as of December 31 of the
// bonus year.
type YearEndBonusInput struct {
	BaseSalary Money
	HireDate   time.Time
	BonusYear  int
	Sanctioned bool // confirmed sanction flag, maintained externally
}

// YearEndBonus: full base salary from 12 months of seniority; employees
// hired in the first calendar quarter of the bonus year get a proration by
// months employed instead; confirmed sanctions forfeit the bonus entirely.
func YearEndBonus(in YearEndBonusInput) Money {
	if in.Sanctioned {
		return Zero()
	}
	yearEnd := time.Date(in.BonusYear, time.December, 31, 0, 0, 0, 0, time.UTC)
	if in.HireDate.After(yearEnd) {
		return Zero()
	}
	if InFirstQuarter(in.HireDate, in.BonusYear) {
		monthsEmployed := 12 - int(in.HireDate.Month()) + 1
		return in.BaseSalary.Mul(decimal.NewFromInt(int64(monthsEmployed))).Div(decimal.NewFromInt(12)).Round()
	}
	if MonthsBetween(in.HireDate, yearEnd) < YearEndBonusMinimumMonths {
		return Zero()
	}
	return in.BaseSalary.Round()
}

// SeniorityBonus (prime d'anciennete): rate per completed year applied to
// base salary, gated at two years.
func SeniorityBonus(baseSalary Money, seniorityMonths int, ratePerYear decimal.Decimal) Money {
	if seniorityMonths < SeniorityBonusMinimumMonths {
		return Zero()
	}
	years := CompletedYears(seniorityMonths)
	return baseSalary.Mul(ratePerYear).Mul(decimal.NewFromInt(int64(years))).Round()
}
