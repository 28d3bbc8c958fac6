/*
rubrique.go - Line-item dispatcher

PURPOSE:
  Maps each catalog code to the calculator that produces its line. The
  dispatcher is a pure routing layer: it owns no rates and no totals, it
  reads resolved parameters and computation state from the
  DispatchContext the aggregator prepares.

PHASES:
  Gain lines run first. Contribution and tax lines run second and may
  read the gain totals as their base - a one-way dependency, never
  circular. The aggregator enforces the ordering; Phase classifies each
  kind.

SKIPPING:
  A dispatch that does not apply (no entry for an event-driven indemnity,
  zero overtime hours, a gate not met) returns a nil line, not a
  zero-amount one. Payslips itemize what happened, not the whole catalog.
*/
package payroll

import (
	"context"
	"fmt"

	"github.com/shopspring/decimal"
	"github.com/warp/payroll-engine/engine"
)

// =============================================================================
// DISPATCH CONTEXT
// =============================================================================

// DispatchContext carries everything the calculators need for one
// (employee, period) computation. The aggregator fills the gain-phase
// fields before phase one and the base/tax fields before phase two.
type DispatchContext struct {
	Employee Employee
	Period   engine.Period
	Params   map[string]decimal.Decimal
	Entries  map[string]Entry

	// DeductibleCharges are caller-declared IRPP-deductible charges,
	// added to the CNSS employee share when the tax base is formed.
	DeductibleCharges engine.Money

	// Set between phases.
	BrutSocial   engine.Money
	BrutFiscal   engine.Money
	CNSSEmployee engine.Money // deductible from the IRPP base
	Parts        decimal.Decimal
	Brackets     []engine.Bracket
}

func (dc *DispatchContext) param(code string) (decimal.Decimal, error) {
	v, ok := dc.Params[code]
	if !ok {
		return decimal.Zero, &engine.InvariantError{Reason: fmt.Sprintf("parameter %s not resolved before dispatch", code)}
	}
	return v, nil
}

// seniorityMonths is the employee's completed months as of period end.
func (dc *DispatchContext) seniorityMonths() int {
	return engine.MonthsBetween(dc.Employee.HireDate, dc.Period.End())
}

// =============================================================================
// PHASES
// =============================================================================

// Phase orders kinds within the aggregator pipeline.
type Phase int

const (
	PhaseGain Phase = iota + 1
	PhaseContribution
	PhaseDeduction
)

// PhaseOf classifies a kind. Manual lines follow their category: a manual
// rubrique in a deduction category is an employee-side deduction.
func PhaseOf(rub Rubrique) Phase {
	switch rub.Kind {
	case KindCNSS, KindCAMU, KindFamilyAllowance, KindWorkAccident, KindPayrollTax, KindIRPP:
		return PhaseContribution
	}
	if rub.Category == CategoryNonTaxableDeduction {
		return PhaseDeduction
	}
	return PhaseGain
}

// =============================================================================
// PARAMETER REQUIREMENTS
// =============================================================================

var tierParams = map[engine.OvertimeTier]string{
	engine.TierDayFirst:     engine.ParamOvertimeDayFirst,
	engine.TierDayNext:      engine.ParamOvertimeDayNext,
	engine.TierNightWorking: engine.ParamOvertimeNightWorking,
	engine.TierRestDay:      engine.ParamOvertimeRestDay,
	engine.TierRestNight:    engine.ParamOvertimeRestNight,
}

// ParamsFor lists the fiscal parameter codes a rubrique's calculator
// resolves. The aggregator unions these across the catalog and resolves
// them all-or-nothing before any calculator runs.
func ParamsFor(rub Rubrique) []string {
	switch rub.Kind {
	case KindSeniorityBonus:
		return []string{engine.ParamSeniorityBonusRate}
	case KindOvertime:
		p, ok := tierParams[rub.Tier]
		if !ok {
			return nil
		}
		return []string{engine.ParamLegalMonthlyHours, p}
	case KindRetirement:
		return []string{engine.ParamRetirementShortMultiple, engine.ParamRetirementLongMultiple}
	case KindWorkforceReduction:
		return []string{engine.ParamWorkforceReductionRate}
	case KindMaternity:
		return []string{engine.ParamMaternityEmployerShare, engine.ParamWeeksPerMonth}
	case KindCNSS:
		return []string{engine.ParamCNSSCap, engine.ParamCNSSEmployeeRate, engine.ParamCNSSEmployerRate}
	case KindCAMU:
		return []string{engine.ParamCAMURate, engine.ParamCAMUThreshold}
	case KindFamilyAllowance:
		return []string{engine.ParamFamilyAllowanceCap, engine.ParamFamilyAllowanceRate}
	case KindWorkAccident:
		return []string{engine.ParamWorkAccidentCap, engine.ParamWorkAccidentRate}
	case KindPayrollTax:
		return []string{engine.ParamPayrollTaxRate}
	}
	return nil
}

// =============================================================================
// DISPATCHER
// =============================================================================

// Dispatcher routes a rubrique to its calculator.
type Dispatcher struct {
	scales engine.ScaleSource
}

func NewDispatcher(scales engine.ScaleSource) *Dispatcher {
	return &Dispatcher{scales: scales}
}

// Dispatch computes the line for one rubrique, or nil when the line does
// not apply to this employee/period.
func (d *Dispatcher) Dispatch(ctx context.Context, rub Rubrique, dc *DispatchContext) (*Line, error) {
	switch rub.Kind {
	case KindBaseSalary:
		return line(rub, dc.Employee.BaseSalary.Round()), nil
	case KindSeniorityBonus:
		return d.seniorityBonus(rub, dc)
	case KindOvertime:
		return d.overtime(rub, dc)
	case KindManual:
		return d.manual(rub, dc)
	case KindFormula:
		return d.formula(rub)
	case KindRetirement:
		return d.retirement(rub, dc)
	case KindDismissal:
		return d.dismissal(ctx, rub, dc)
	case KindWorkforceReduction:
		return d.workforceReduction(rub, dc)
	case KindMaternity:
		return d.maternity(rub, dc)
	case KindYearEndBonus:
		return d.yearEndBonus(rub, dc)
	case KindCNSS:
		return d.cappedContribution(rub, dc, engine.ParamCNSSCap, engine.ParamCNSSEmployeeRate, engine.ParamCNSSEmployerRate)
	case KindFamilyAllowance:
		return d.cappedContribution(rub, dc, engine.ParamFamilyAllowanceCap, "", engine.ParamFamilyAllowanceRate)
	case KindWorkAccident:
		return d.cappedContribution(rub, dc, engine.ParamWorkAccidentCap, "", engine.ParamWorkAccidentRate)
	case KindPayrollTax:
		return d.cappedContribution(rub, dc, "", "", engine.ParamPayrollTaxRate)
	case KindCAMU:
		return d.camu(rub, dc)
	case KindIRPP:
		return d.irpp(rub, dc)
	}
	return nil, fmt.Errorf("%w: %s (kind %s)", engine.ErrUnknownRubrique, rub.Code, rub.Kind)
}

func line(rub Rubrique, amount engine.Money) *Line {
	return &Line{Code: rub.Code, Label: rub.Label, Category: rub.Category, Amount: amount}
}

// =============================================================================
// GAIN CALCULATORS
// =============================================================================

func (d *Dispatcher) seniorityBonus(rub Rubrique, dc *DispatchContext) (*Line, error) {
	ratePerYear, err := dc.param(engine.ParamSeniorityBonusRate)
	if err != nil {
		return nil, err
	}
	amount := engine.SeniorityBonus(dc.Employee.BaseSalary, dc.seniorityMonths(), ratePerYear)
	if amount.IsZero() {
		return nil, nil
	}
	return line(rub, amount), nil
}

func (d *Dispatcher) overtime(rub Rubrique, dc *DispatchContext) (*Line, error) {
	entry, ok := dc.Entries[rub.Code]
	if !ok || !entry.Quantity.IsPositive() {
		return nil, nil
	}
	paramCode, ok := tierParams[rub.Tier]
	if !ok {
		return nil, &engine.ValidationError{Field: "rubrique", Reason: fmt.Sprintf("%s: unknown overtime tier %q", rub.Code, rub.Tier)}
	}
	legalHours, err := dc.param(engine.ParamLegalMonthlyHours)
	if err != nil {
		return nil, err
	}
	premium, err := dc.param(paramCode)
	if err != nil {
		return nil, err
	}
	hw, err := engine.HourlyWage(dc.Employee.BaseSalary, legalHours)
	if err != nil {
		return nil, err
	}
	_, total := engine.ComputeOvertime(hw, tierHours(rub.Tier, entry.Quantity), tierRates(rub.Tier, premium))
	l := line(rub, total)
	l.Quantity = entry.Quantity
	return l, nil
}

func tierHours(tier engine.OvertimeTier, qty decimal.Decimal) engine.OvertimeHours {
	var h engine.OvertimeHours
	switch tier {
	case engine.TierDayFirst:
		h.DayFirst = qty
	case engine.TierDayNext:
		h.DayNext = qty
	case engine.TierNightWorking:
		h.NightWorking = qty
	case engine.TierRestDay:
		h.RestDay = qty
	case engine.TierRestNight:
		h.RestNight = qty
	}
	return h
}

func tierRates(tier engine.OvertimeTier, premium decimal.Decimal) engine.OvertimeRates {
	var r engine.OvertimeRates
	switch tier {
	case engine.TierDayFirst:
		r.DayFirst = premium
	case engine.TierDayNext:
		r.DayNext = premium
	case engine.TierNightWorking:
		r.NightWorking = premium
	case engine.TierRestDay:
		r.RestDay = premium
	case engine.TierRestNight:
		r.RestNight = premium
	}
	return r
}

func (d *Dispatcher) manual(rub Rubrique, dc *DispatchContext) (*Line, error) {
	entry, ok := dc.Entries[rub.Code]
	if !ok {
		return nil, nil
	}
	if entry.Amount.IsNegative() {
		return nil, &engine.ValidationError{Field: "entry", Reason: fmt.Sprintf("%s: negative amount", rub.Code)}
	}
	l := line(rub, entry.Amount.Round())
	l.Quantity = entry.Quantity
	return l, nil
}

func (d *Dispatcher) formula(rub Rubrique) (*Line, error) {
	v, err := engine.EvalConstExpr(rub.Formula)
	if err != nil {
		return nil, fmt.Errorf("rubrique %s: %w", rub.Code, err)
	}
	return line(rub, engine.MoneyFromDecimal(v).Round()), nil
}

// =============================================================================
// INDEMNITY CALCULATORS - event-driven, fire only on a submitted entry
// =============================================================================

func (d *Dispatcher) retirement(rub Rubrique, dc *DispatchContext) (*Line, error) {
	if _, ok := dc.Entries[rub.Code]; !ok {
		return nil, nil
	}
	short, err := dc.param(engine.ParamRetirementShortMultiple)
	if err != nil {
		return nil, err
	}
	long, err := dc.param(engine.ParamRetirementLongMultiple)
	if err != nil {
		return nil, err
	}
	amount := engine.RetirementIndemnity(dc.Employee.BaseSalary, dc.seniorityMonths(), short, long)
	return line(rub, amount), nil
}

func (d *Dispatcher) dismissal(ctx context.Context, rub Rubrique, dc *DispatchContext) (*Line, error) {
	if _, ok := dc.Entries[rub.Code]; !ok {
		return nil, nil
	}
	scale, err := d.scales.ScaleAsOf(ctx, dc.Employee.TenantID, engine.IndemnityDismissal, dc.Period.Start())
	if err != nil {
		return nil, err
	}
	amount, err := engine.DismissalIndemnity(dc.Employee.Avg12MonthSalary, dc.seniorityMonths(), scale)
	if err != nil {
		return nil, err
	}
	if amount.IsZero() {
		return nil, nil
	}
	return line(rub, amount), nil
}

func (d *Dispatcher) workforceReduction(rub Rubrique, dc *DispatchContext) (*Line, error) {
	if _, ok := dc.Entries[rub.Code]; !ok {
		return nil, nil
	}
	rate, err := dc.param(engine.ParamWorkforceReductionRate)
	if err != nil {
		return nil, err
	}
	amount := engine.WorkforceReductionIndemnity(dc.Employee.Avg12MonthSalary, dc.seniorityMonths(), rate)
	if amount.IsZero() {
		return nil, nil
	}
	return line(rub, amount), nil
}

func (d *Dispatcher) maternity(rub Rubrique, dc *DispatchContext) (*Line, error) {
	entry, ok := dc.Entries[rub.Code]
	if !ok {
		return nil, nil
	}
	share, err := dc.param(engine.ParamMaternityEmployerShare)
	if err != nil {
		return nil, err
	}
	weeksPerMonth, err := dc.param(engine.ParamWeeksPerMonth)
	if err != nil {
		return nil, err
	}
	amount, err := engine.MaternityIndemnity(dc.Employee.BaseSalary, entry.Quantity, share, weeksPerMonth)
	if err != nil {
		return nil, err
	}
	l := line(rub, amount)
	l.Quantity = entry.Quantity
	return l, nil
}

func (d *Dispatcher) yearEndBonus(rub Rubrique, dc *DispatchContext) (*Line, error) {
	if _, ok := dc.Entries[rub.Code]; !ok {
		return nil, nil
	}
	amount := engine.YearEndBonus(engine.YearEndBonusInput{
		BaseSalary: dc.Employee.BaseSalary,
		HireDate:   dc.Employee.HireDate,
		BonusYear:  dc.Period.Year,
		Sanctioned: dc.Employee.Sanctioned,
	})
	if amount.IsZero() {
		return nil, nil
	}
	return line(rub, amount), nil
}

// =============================================================================
// CONTRIBUTION AND TAX CALCULATORS - phase two, read gain totals
// =============================================================================

func (d *Dispatcher) cappedContribution(rub Rubrique, dc *DispatchContext, capCode, employeeCode, employerCode string) (*Line, error) {
	spec := engine.ContributionSpec{Code: rub.Code}
	if capCode != "" {
		capValue, err := dc.param(capCode)
		if err != nil {
			return nil, err
		}
		spec.Cap = engine.MoneyPtr(engine.MoneyFromDecimal(capValue))
	}
	if employeeCode != "" {
		v, err := dc.param(employeeCode)
		if err != nil {
			return nil, err
		}
		spec.EmployeeRate = v
	}
	if employerCode != "" {
		v, err := dc.param(employerCode)
		if err != nil {
			return nil, err
		}
		spec.EmployerRate = v
	}
	res := spec.Compute(dc.BrutSocial)
	l := line(rub, res.Employee)
	l.Base = res.Base
	l.EmployerAmount = res.Employer
	return l, nil
}

func (d *Dispatcher) camu(rub Rubrique, dc *DispatchContext) (*Line, error) {
	rate, err := dc.param(engine.ParamCAMURate)
	if err != nil {
		return nil, err
	}
	threshold, err := dc.param(engine.ParamCAMUThreshold)
	if err != nil {
		return nil, err
	}
	// The base is always the current period's authoritative gross, never
	// re-derived from previously stored payslips.
	amount := engine.ComputeCAMU(dc.BrutSocial, engine.MoneyFromDecimal(threshold), rate)
	l := line(rub, amount)
	l.Base = dc.BrutSocial
	return l, nil
}

func (d *Dispatcher) irpp(rub Rubrique, dc *DispatchContext) (*Line, error) {
	deductible := dc.CNSSEmployee.Add(dc.DeductibleCharges)
	amount, err := engine.ComputeIRPP(dc.BrutFiscal, deductible, dc.Parts, dc.Brackets)
	if err != nil {
		return nil, err
	}
	l := line(rub, amount)
	l.Base = dc.BrutFiscal
	return l, nil
}
