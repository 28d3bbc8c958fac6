/*
demo.go - Built-in demo configuration

PURPOSE:
  A complete, coherent demo tenant: rubrique catalog, fiscal parameters,
  bracket table, family-quotient grid, dismissal scale, and a few
  employees. Production tenants configure all of this through the API;
  the demo set exists so a fresh database can compute a payslip in one
  call.
*/
package factory

import (
	"context"
	"time"

	"github.com/shopspring/decimal"

	"github.com/warp/payroll-engine/engine"
	"github.com/warp/payroll-engine/payroll"
)

// DemoTenant is the tenant the demo data belongs to.
const DemoTenant = engine.TenantID("demo")

// demoEpoch is the effective date of all demo configuration.
var demoEpoch = time.Date(2024, time.January, 1, 0, 0, 0, 0, time.UTC)

// =============================================================================
// SEED TARGET
// =============================================================================

// ConfigWriter is the write side of the configuration stores. Both the
// SQLite store and the in-memory store implement it.
type ConfigWriter interface {
	PutParameter(ctx context.Context, v engine.ParameterVersion) error
	PutBrackets(ctx context.Context, tenant engine.TenantID, dateEffet time.Time, rows []engine.Bracket) error
	PutQuotientRows(ctx context.Context, tenant engine.TenantID, dateEffet time.Time, rows []engine.QuotientRow) error
	PutScale(ctx context.Context, tenant engine.TenantID, typ engine.IndemnityType, dateEffet time.Time, rows []engine.ScaleRow) error
}

// CatalogWriter persists rubrique catalog entries.
type CatalogWriter interface {
	SaveRubrique(ctx context.Context, tenant engine.TenantID, rub payroll.Rubrique) error
}

// EmployeeWriter persists employee snapshots.
type EmployeeWriter interface {
	SaveEmployee(ctx context.Context, emp payroll.Employee) error
}

// SeedTarget is what SeedDemo writes to.
type SeedTarget interface {
	ConfigWriter
	CatalogWriter
	EmployeeWriter
}

// =============================================================================
// DEMO DATA
// =============================================================================

func d(f float64) decimal.Decimal { return decimal.NewFromFloat(f) }

func decPtr(v int64) *decimal.Decimal {
	dd := decimal.NewFromInt(v)
	return &dd
}

func intPtr(v int) *int { return &v }

// DemoParameters returns the demo fiscal parameter values, also usable as
// an engine.DefaultSet for tests.
func DemoParameters() engine.DefaultSet {
	return engine.DefaultSet{
		engine.ParamLegalMonthlyHours: d(173.33),

		engine.ParamCNSSCap:          d(1_200_000),
		engine.ParamCNSSEmployeeRate: d(0.04),
		engine.ParamCNSSEmployerRate: d(0.08),

		engine.ParamFamilyAllowanceCap:  d(600_000),
		engine.ParamFamilyAllowanceRate: d(0.1035),

		engine.ParamWorkAccidentCap:  d(600_000),
		engine.ParamWorkAccidentRate: d(0.0225),

		engine.ParamPayrollTaxRate: d(0.0425),

		engine.ParamCAMURate:      d(0.005),
		engine.ParamCAMUThreshold: d(500_000),

		engine.ParamExonerationRate: d(0.15),

		engine.ParamOvertimeDayFirst:     d(10),
		engine.ParamOvertimeDayNext:      d(25),
		engine.ParamOvertimeNightWorking: d(50),
		engine.ParamOvertimeRestDay:      d(50),
		engine.ParamOvertimeRestNight:    d(100),

		engine.ParamRetirementShortMultiple: d(5),
		engine.ParamRetirementLongMultiple:  d(7),
		engine.ParamWorkforceReductionRate:  d(0.15),
		engine.ParamMaternityEmployerShare:  d(0.5),
		engine.ParamWeeksPerMonth:           d(4.33),
		engine.ParamSeniorityBonusRate:      d(0.02),
	}
}

// DefaultBrackets returns the demo progressive IRPP table.
func DefaultBrackets() []engine.Bracket {
	return []engine.Bracket{
		{Ordre: 1, SeuilMin: decimal.Zero, SeuilMax: decPtr(464_000), Taux: d(0.01)},
		{Ordre: 2, SeuilMin: decimal.NewFromInt(464_001), SeuilMax: decPtr(1_000_000), Taux: d(0.10)},
		{Ordre: 3, SeuilMin: decimal.NewFromInt(1_000_001), SeuilMax: decPtr(3_000_000), Taux: d(0.25)},
		{Ordre: 4, SeuilMin: decimal.NewFromInt(3_000_001), SeuilMax: nil, Taux: d(0.40)},
	}
}

// DefaultQuotientRows returns the demo family-quotient grid. Children
// ranges are closed-open; the highest range per status is unbounded.
func DefaultQuotientRows() []engine.QuotientRow {
	grid := func(status engine.MaritalStatus, base float64) []engine.QuotientRow {
		return []engine.QuotientRow{
			{Status: status, MinChildren: 0, MaxChildren: intPtr(1), Parts: d(base)},
			{Status: status, MinChildren: 1, MaxChildren: intPtr(2), Parts: d(base + 1)},
			{Status: status, MinChildren: 2, MaxChildren: intPtr(3), Parts: d(base + 1.5)},
			{Status: status, MinChildren: 3, MaxChildren: intPtr(4), Parts: d(base + 2)},
			{Status: status, MinChildren: 4, MaxChildren: intPtr(5), Parts: d(base + 2.5)},
			{Status: status, MinChildren: 5, MaxChildren: nil, Parts: d(base + 3)},
		}
	}
	var rows []engine.QuotientRow
	rows = append(rows, grid(engine.StatusSingle, 1)...)
	rows = append(rows, grid(engine.StatusDivorced, 1)...)
	rows = append(rows, grid(engine.StatusMarried, 2)...)
	rows = append(rows, grid(engine.StatusWidowed, 2)...)
	return rows
}

// DefaultDismissalScale returns the demo dismissal indemnity scale.
func DefaultDismissalScale() []engine.ScaleRow {
	return []engine.ScaleRow{
		{Type: engine.IndemnityDismissal, MinYears: 1, MaxYears: intPtr(6), Rate: d(0.30)},
		{Type: engine.IndemnityDismissal, MinYears: 7, MaxYears: intPtr(12), Rate: d(0.38)},
		{Type: engine.IndemnityDismissal, MinYears: 13, MaxYears: intPtr(20), Rate: d(0.44)},
		{Type: engine.IndemnityDismissal, MinYears: 21, MaxYears: nil, Rate: d(0.50)},
	}
}

// DefaultRubriques returns the demo pay-line catalog.
func DefaultRubriques() []payroll.Rubrique {
	return []payroll.Rubrique{
		{Code: "1000", Label: "Salaire de base", Category: payroll.CategoryTaxableGain, Kind: payroll.KindBaseSalary, Taxable: true, Active: true},
		{Code: "1100", Label: "Prime d'anciennete", Category: payroll.CategoryTaxableGain, Kind: payroll.KindSeniorityBonus, Taxable: true, Active: true},

		{Code: "1200", Label: "HS jour (premieres)", Category: payroll.CategoryTaxableGain, Kind: payroll.KindOvertime, Tier: engine.TierDayFirst, Taxable: true, Active: true},
		{Code: "1210", Label: "HS jour (suivantes)", Category: payroll.CategoryTaxableGain, Kind: payroll.KindOvertime, Tier: engine.TierDayNext, Taxable: true, Active: true},
		{Code: "1220", Label: "HS nuit ouvree", Category: payroll.CategoryTaxableGain, Kind: payroll.KindOvertime, Tier: engine.TierNightWorking, Taxable: true, Active: true},
		{Code: "1230", Label: "HS repos jour", Category: payroll.CategoryTaxableGain, Kind: payroll.KindOvertime, Tier: engine.TierRestDay, Taxable: true, Active: true},
		{Code: "1240", Label: "HS repos nuit", Category: payroll.CategoryTaxableGain, Kind: payroll.KindOvertime, Tier: engine.TierRestNight, Taxable: true, Active: true},

		{Code: "1300", Label: "Prime de transport", Category: payroll.CategoryNonTaxableGain, Kind: payroll.KindManual, PlafondArt38: true, Active: true},
		{Code: "1310", Label: "Prime de panier", Category: payroll.CategoryNonTaxableGain, Kind: payroll.KindManual, PlafondArt38: true, Active: true},
		{Code: "1320", Label: "Prime de salissure", Category: payroll.CategoryNonTaxableGain, Kind: payroll.KindFormula, Formula: "25000", PlafondArt38: true, Active: true},

		{Code: "1400", Label: "Indemnite de retraite", Category: payroll.CategoryNonTaxableGain, Kind: payroll.KindRetirement, Active: true},
		{Code: "1410", Label: "Indemnite de licenciement", Category: payroll.CategoryNonTaxableGain, Kind: payroll.KindDismissal, Active: true},
		{Code: "1420", Label: "Indemnite de compression", Category: payroll.CategoryNonTaxableGain, Kind: payroll.KindWorkforceReduction, Active: true},
		{Code: "1430", Label: "Indemnite de maternite", Category: payroll.CategoryTaxableGain, Kind: payroll.KindMaternity, Taxable: true, Active: true},
		{Code: "1500", Label: "Prime de fin d'annee", Category: payroll.CategoryTaxableGain, Kind: payroll.KindYearEndBonus, Taxable: true, Active: true},

		{Code: "3000", Label: "CNSS", Category: payroll.CategoryContribution, Kind: payroll.KindCNSS, Active: true},
		{Code: "3100", Label: "CAMU", Category: payroll.CategoryContribution, Kind: payroll.KindCAMU, Active: true},
		{Code: "3200", Label: "Allocations familiales", Category: payroll.CategoryContribution, Kind: payroll.KindFamilyAllowance, Active: true},
		{Code: "3300", Label: "Accident de travail", Category: payroll.CategoryContribution, Kind: payroll.KindWorkAccident, Active: true},
		{Code: "3400", Label: "Taxe unique sur salaires", Category: payroll.CategoryContribution, Kind: payroll.KindPayrollTax, Active: true},
		{Code: "3500", Label: "IRPP", Category: payroll.CategoryContribution, Kind: payroll.KindIRPP, Active: true},

		{Code: "4000", Label: "Avance sur salaire", Category: payroll.CategoryNonTaxableDeduction, Kind: payroll.KindManual, Active: true},
	}
}

// DefaultEmployees returns the demo employee roster.
func DefaultEmployees() []payroll.Employee {
	return []payroll.Employee{
		{
			ID: "emp-okemba", TenantID: DemoTenant, Name: "Ange Okemba",
			BaseSalary:       engine.NewMoney(1_000_000),
			Avg12MonthSalary: engine.NewMoney(1_000_000),
			HireDate:         time.Date(2019, time.March, 4, 0, 0, 0, 0, time.UTC),
			MaritalStatus:    engine.StatusMarried, Children: 2,
			Active:           true,
		},
		{
			ID: "emp-mboungou", TenantID: DemoTenant, Name: "Clarisse Mboungou",
			BaseSalary:       engine.NewMoney(450_000),
			Avg12MonthSalary: engine.NewMoney(462_000),
			HireDate:         time.Date(2023, time.October, 16, 0, 0, 0, 0, time.UTC),
			MaritalStatus:    engine.StatusSingle, Children: 0,
			Active:           true,
		},
		{
			ID: "emp-ngoma", TenantID: DemoTenant, Name: "Parfait Ngoma",
			BaseSalary:       engine.NewMoney(2_400_000),
			Avg12MonthSalary: engine.NewMoney(2_350_000),
			HireDate:         time.Date(2012, time.June, 1, 0, 0, 0, 0, time.UTC),
			MaritalStatus:    engine.StatusMarried, Children: 4,
			Active:           true,
		},
	}
}

// =============================================================================
// SEEDING
// =============================================================================

// SeedDemo writes the full demo tenant into the target store. Parameter
// versions get deterministic IDs so reseeding an already-seeded store
// fails loudly on the unique constraint instead of duplicating versions.
func SeedDemo(ctx context.Context, target SeedTarget) error {
	for code, value := range DemoParameters() {
		v := engine.ParameterVersion{
			ID:        "demo-" + code,
			TenantID:  DemoTenant,
			Code:      code,
			Value:     value,
			DateEffet: demoEpoch,
		}
		if err := target.PutParameter(ctx, v); err != nil {
			return err
		}
	}
	if err := target.PutBrackets(ctx, DemoTenant, demoEpoch, DefaultBrackets()); err != nil {
		return err
	}
	if err := target.PutQuotientRows(ctx, DemoTenant, demoEpoch, DefaultQuotientRows()); err != nil {
		return err
	}
	if err := target.PutScale(ctx, DemoTenant, engine.IndemnityDismissal, demoEpoch, DefaultDismissalScale()); err != nil {
		return err
	}
	for _, rub := range DefaultRubriques() {
		if err := target.SaveRubrique(ctx, DemoTenant, rub); err != nil {
			return err
		}
	}
	for _, emp := range DefaultEmployees() {
		if err := target.SaveEmployee(ctx, emp); err != nil {
			return err
		}
	}
	return nil
}
