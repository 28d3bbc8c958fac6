/*
overtime.go - Tiered overtime premium computation

PURPOSE:
  Overtime pay is computed per legal tier, each with an independently
  configurable premium percentage:

    paid(tier) = hourlyWage * hours(tier) * (1 + premium/100)

  The hourly wage is monthly salary / legal monthly hours (itself a
  resolved parameter). The total is the sum across tiers, rounded ONCE at
  the end. Tiers with zero hours contribute nothing and produce NO line:
  output is sparse, not dense.

TIERS:
  day first-hours, day subsequent-hours, night on working days,
  day on rest/holiday, night on rest/holiday.
*/
package engine

import (
	"github.com/shopspring/decimal"
)

// =============================================================================
// OVERTIME TIERS
// =============================================================================

// OvertimeTier identifies one legal overtime category.
type OvertimeTier string

const (
	TierDayFirst     OvertimeTier = "jour_premieres"
	TierDayNext      OvertimeTier = "jour_suivantes"
	TierNightWorking OvertimeTier = "nuit_ouvree"
	TierRestDay      OvertimeTier = "repos_jour"
	TierRestNight    OvertimeTier = "repos_nuit"
)

// OvertimeHours holds the hours worked in each tier for the period.
type OvertimeHours struct {
	DayFirst     decimal.Decimal
	DayNext      decimal.Decimal
	NightWorking decimal.Decimal
	RestDay      decimal.Decimal
	RestNight    decimal.Decimal
}

// OvertimeRates holds the premium percentage per tier (10 = +10%).
type OvertimeRates struct {
	DayFirst     decimal.Decimal
	DayNext      decimal.Decimal
	NightWorking decimal.Decimal
	RestDay      decimal.Decimal
	RestNight    decimal.Decimal
}

// OvertimeLine is the computed pay for one non-empty tier. Amount is
// unrounded; the terminal rounding happens on the total.
type OvertimeLine struct {
	Tier    OvertimeTier
	Hours   decimal.Decimal
	Premium decimal.Decimal
	Amount  decimal.Decimal
}

// =============================================================================
// CALCULATION
// =============================================================================

// HourlyWage derives the legal hourly wage from the monthly salary.
func HourlyWage(monthlySalary Money, legalMonthlyHours decimal.Decimal) (decimal.Decimal, error) {
	if !legalMonthlyHours.IsPositive() {
		return decimal.Zero, &InvariantError{Reason: "legal monthly hours must be positive"}
	}
	return monthlySalary.Value.Div(legalMonthlyHours), nil
}

// ComputeOvertime computes the per-tier lines and the rounded total.
func ComputeOvertime(hourlyWage decimal.Decimal, hours OvertimeHours, rates OvertimeRates) ([]OvertimeLine, Money) {
	hundred := decimal.NewFromInt(100)
	tiers := []struct {
		tier    OvertimeTier
		hours   decimal.Decimal
		premium decimal.Decimal
	}{
		{TierDayFirst, hours.DayFirst, rates.DayFirst},
		{TierDayNext, hours.DayNext, rates.DayNext},
		{TierNightWorking, hours.NightWorking, rates.NightWorking},
		{TierRestDay, hours.RestDay, rates.RestDay},
		{TierRestNight, hours.RestNight, rates.RestNight},
	}

	var lines []OvertimeLine
	total := decimal.Zero
	for _, t := range tiers {
		if !t.hours.IsPositive() {
			continue
		}
		multiplier := decimal.NewFromInt(1).Add(t.premium.Div(hundred))
		amount := hourlyWage.Mul(t.hours).Mul(multiplier)
		lines = append(lines, OvertimeLine{Tier: t.tier, Hours: t.hours, Premium: t.premium, Amount: amount})
		total = total.Add(amount)
	}

	return lines, MoneyFromDecimal(total).Round()
}
