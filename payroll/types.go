/*
Package payroll implements gross-to-net payslip computation.

PURPOSE:
  This package orchestrates the pure calculators in engine/ into complete
  payslips. It owns the pay-line catalog (rubriques), the dispatcher that
  maps each catalog code to its calculator, and the aggregator that runs
  the full pipeline for one employee and period and persists exactly one
  immutable payslip.

KEY CONCEPTS IN THIS FILE (types.go):
  - Rubrique: one catalog entry - a gain, contribution, or deduction line
  - Employee: the payroll-relevant snapshot of an employee
  - Entry: a manually supplied amount or quantity for one line
  - Payslip: the computed, reconciled, immutable output

PIPELINE:
  Aggregator -> Dispatcher -> calculators -> itemized lines -> totals

SEE ALSO:
  - aggregator.go: the orchestration pipeline and its state machine
  - rubrique.go: the code-to-calculator dispatcher
*/
package payroll

import (
	"time"

	"github.com/shopspring/decimal"
	"github.com/warp/payroll-engine/engine"
)

// =============================================================================
// RUBRIQUE CATALOG
// =============================================================================

// Category classifies a payslip line for totaling.
type Category string

const (
	CategoryTaxableGain         Category = "gain_imposable"
	CategoryNonTaxableGain      Category = "gain_non_imposable"
	CategoryContribution        Category = "cotisation"
	CategoryNonTaxableDeduction Category = "retenue_non_imposable"
)

// IsGain reports whether lines in this category add to gross pay.
func (c Category) IsGain() bool {
	return c == CategoryTaxableGain || c == CategoryNonTaxableGain
}

// RubriqueKind selects the calculator behind a catalog code. Kinds are
// engine behaviors, not tenant data: a tenant picks which kinds appear in
// its catalog and under which codes, never what a kind computes.
type RubriqueKind string

const (
	// Gains.
	KindBaseSalary     RubriqueKind = "salaire_base"
	KindSeniorityBonus RubriqueKind = "prime_anciennete"
	KindOvertime       RubriqueKind = "heures_sup" // one rubrique per tier
	KindManual         RubriqueKind = "manuel"
	KindFormula        RubriqueKind = "formule"

	// Event-driven indemnities, triggered by a submitted entry.
	KindRetirement         RubriqueKind = "indemnite_retraite"
	KindDismissal          RubriqueKind = "indemnite_licenciement"
	KindWorkforceReduction RubriqueKind = "indemnite_compression"
	KindMaternity          RubriqueKind = "indemnite_maternite"
	KindYearEndBonus       RubriqueKind = "prime_fin_annee"

	// Contributions and tax.
	KindCNSS            RubriqueKind = "cnss"
	KindCAMU            RubriqueKind = "camu"
	KindFamilyAllowance RubriqueKind = "allocations_familiales"
	KindWorkAccident    RubriqueKind = "accident_travail"
	KindPayrollTax      RubriqueKind = "taxe_unique_salaires"
	KindIRPP            RubriqueKind = "irpp"
)

// Rubrique is one pay-line catalog entry, tenant-scoped.
type Rubrique struct {
	Code     string              `json:"code"`
	Label    string              `json:"label"`
	Category Category            `json:"category"`
	Kind     RubriqueKind        `json:"kind"`
	Tier     engine.OvertimeTier `json:"tier,omitempty"`    // KindOvertime only
	Formula  string              `json:"formula,omitempty"` // KindFormula only; constant expression
	Taxable  bool                `json:"taxable"`
	// PlafondArt38 marks a bonus counted against the non-taxable
	// exoneration cap; the excess re-enters the taxable base.
	PlafondArt38 bool `json:"plafond_art38"`
	Active       bool `json:"active"`
}

// =============================================================================
// EMPLOYEE SNAPSHOT
// =============================================================================

// Employee is the payroll-relevant view of an employee. The aggregator
// reads it at computation time; it never writes back.
type Employee struct {
	ID               engine.EmployeeID
	TenantID         engine.TenantID
	Name             string
	BaseSalary       engine.Money
	Avg12MonthSalary engine.Money // basis for seniority-scaled indemnities
	HireDate         time.Time
	MaritalStatus    engine.MaritalStatus
	Children         int
	Sanctioned       bool // confirmed sanction; forfeits the year-end bonus
	// Active is the soft-delete flag. A deactivated employee keeps the
	// payslips that reference it but never receives a new one.
	Active bool
}

// =============================================================================
// MANUAL ENTRIES
// =============================================================================

// Entry is a manually supplied input for one rubrique code in one period:
// an amount for manual lines, a quantity (hours, leave weeks) for
// quantity-driven ones. Event-driven indemnities fire only when an entry
// for their code is present.
type Entry struct {
	Code     string
	Amount   engine.Money
	Quantity decimal.Decimal
}

// =============================================================================
// PAYSLIP
// =============================================================================

// Status is the payslip computation state machine:
// NotStarted -> Computing -> Computed | Failed. Computed is terminal.
type Status string

const (
	StatusNotStarted Status = "not_started"
	StatusComputing  Status = "computing"
	StatusComputed   Status = "computed"
	StatusFailed     Status = "failed"
)

// Line is one itemized payslip row. Amount is the employee-side value
// (gain or deduction depending on the category); EmployerAmount carries
// the employer-borne share for contribution lines.
type Line struct {
	Code           string          `json:"code"`
	Label          string          `json:"label"`
	Category       Category        `json:"category"`
	Base           engine.Money    `json:"base"`     // contribution base, zero otherwise
	Quantity       decimal.Decimal `json:"quantity"` // hours/weeks for quantity-driven lines
	Amount         engine.Money    `json:"amount"`
	EmployerAmount engine.Money    `json:"employer_amount"`
}

// Payslip is the reconciled output for one (employee, period) pair.
// Uniqueness on that pair is enforced transactionally by the store; once
// Computed, a payslip is immutable.
type Payslip struct {
	ID         string            `json:"id"`
	TenantID   engine.TenantID   `json:"tenant_id"`
	EmployeeID engine.EmployeeID `json:"employee_id"`
	Period     string            `json:"period"` // YYYY-MM
	Status     Status            `json:"status"`

	// JoursTravailles is the declared days-worked input, when submitted.
	// Recorded as-is; absences are itemized as their own lines.
	JoursTravailles *int `json:"jours_travailles,omitempty"`

	Lines []Line `json:"lines"`

	// Totals. All whole francs, rounded per line.
	BrutSocial             engine.Money `json:"brut_social"`             // all gain lines
	BrutFiscal             engine.Money `json:"brut_fiscal"`             // taxable gains + exoneration excess
	TotalRetenues          engine.Money `json:"total_retenues"`          // employee-side contributions, tax, deductions
	TotalChargesPatronales engine.Money `json:"total_charges_patronales"` // employer-side contributions
	NetAPayer              engine.Money `json:"net_a_payer"`             // BrutSocial - TotalRetenues
	CoutEmployeur          engine.Money `json:"cout_employeur"`          // BrutSocial + TotalChargesPatronales

	ComputedAt time.Time `json:"computed_at"`
}
