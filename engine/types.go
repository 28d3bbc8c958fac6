/*
Package engine provides the core payroll rule-evaluation engine.

PURPOSE:
  This package contains the pure calculators that turn resolved fiscal
  parameters, bracket tables, and employee inputs into payslip amounts:
  progressive income tax (IRPP), capped social contributions (CNSS, family
  allowance, work accident, payroll taxes), the CAMU solidarity health
  contribution, tiered overtime premiums, severance and bonus indemnities,
  and the Article 38 bonus exoneration cap.

KEY CONCEPTS IN THIS FILE (types.go):
  - Money: a whole-franc amount backed by decimal.Decimal
  - Rate: a fractional rate (0.04 = 4%) or percentage premium
  - Tenant/Employee IDs: type-safe identifiers

DESIGN PRINCIPLES:
  1. Purity: every calculator is a function of its explicit inputs. No
     module-level caches of rates, no shared mutable state.
  2. Precision: decimal.Decimal throughout; no floating-point money.
  3. Rounding discipline: the franc has no sub-unit, so amounts round
     half-up to whole francs ONCE per payslip line, never on
     intermediate sums.
  4. Versioned configuration: every rate, cap, and threshold is an
     effective-dated record resolved per period, never a constant baked
     into a calculator (fixed legal thresholds excepted).

USAGE:
  base := engine.NewMoney(2_000_000)
  spec := engine.ContributionSpec{
      Code:         "3000",
      Cap:          engine.MoneyPtr(engine.NewMoney(1_200_000)),
      EmployeeRate: decimal.NewFromFloat(0.04),
      EmployerRate: decimal.NewFromFloat(0.08),
  }
  result := spec.Compute(base) // employee 48 000, employer 96 000

SEE ALSO:
  - params.go: effective-dated fiscal parameter resolution
  - brackets.go: progressive IRPP calculation
  - errors.go: error taxonomy
*/
package engine

import (
	"github.com/shopspring/decimal"
)

// =============================================================================
// MONEY - Whole CFA francs with decimal-backed arithmetic
// =============================================================================

// Money is an amount of CFA francs. The franc has no sub-unit: persisted
// amounts are whole francs, but intermediate arithmetic keeps full decimal
// precision. Callers round once per payslip line via Round.
type Money struct {
	Value decimal.Decimal
}

func NewMoney(v int64) Money {
	return Money{Value: decimal.NewFromInt(v)}
}

func MoneyFromDecimal(d decimal.Decimal) Money {
	return Money{Value: d}
}

func MustParseMoney(s string) Money {
	d, err := decimal.NewFromString(s)
	if err != nil {
		return Money{Value: decimal.Zero}
	}
	return Money{Value: d}
}

// MoneyPtr is a convenience for optional caps.
func MoneyPtr(m Money) *Money { return &m }

func (m Money) Add(b Money) Money             { return Money{Value: m.Value.Add(b.Value)} }
func (m Money) Sub(b Money) Money             { return Money{Value: m.Value.Sub(b.Value)} }
func (m Money) Mul(r decimal.Decimal) Money   { return Money{Value: m.Value.Mul(r)} }
func (m Money) Div(r decimal.Decimal) Money   { return Money{Value: m.Value.Div(r)} }
func (m Money) Neg() Money                    { return Money{Value: m.Value.Neg()} }
func (m Money) IsZero() bool                  { return m.Value.IsZero() }
func (m Money) IsNegative() bool              { return m.Value.IsNegative() }
func (m Money) IsPositive() bool              { return m.Value.IsPositive() }
func (m Money) GreaterThan(b Money) bool      { return m.Value.GreaterThan(b.Value) }
func (m Money) LessThan(b Money) bool         { return m.Value.LessThan(b.Value) }
func (m Money) Equal(b Money) bool            { return m.Value.Equal(b.Value) }

func (m Money) Min(b Money) Money {
	if m.LessThan(b) {
		return m
	}
	return b
}

func (m Money) Max(b Money) Money {
	if m.GreaterThan(b) {
		return m
	}
	return b
}

// Round rounds half-up to whole francs. Applied once per payslip line.
// decimal.Round rounds half away from zero, which is half-up for the
// non-negative amounts this domain produces.
func (m Money) Round() Money {
	return Money{Value: m.Value.Round(0)}
}

// Int64 returns the whole-franc value. Only meaningful after Round.
func (m Money) Int64() int64 {
	return m.Value.IntPart()
}

func (m Money) String() string {
	return m.Value.String()
}

// MarshalJSON encodes the amount as a JSON number string, matching how
// decimal values are persisted.
func (m Money) MarshalJSON() ([]byte, error) {
	return m.Value.MarshalJSON()
}

func (m *Money) UnmarshalJSON(data []byte) error {
	return m.Value.UnmarshalJSON(data)
}

// Zero is the zero amount.
func Zero() Money { return Money{Value: decimal.Zero} }

// =============================================================================
// IDENTIFIERS
// =============================================================================

type TenantID string
type EmployeeID string

// MaritalStatus is the civil status used for family-quotient lookup.
type MaritalStatus string

const (
	StatusSingle   MaritalStatus = "celibataire"
	StatusMarried  MaritalStatus = "marie"
	StatusDivorced MaritalStatus = "divorce"
	StatusWidowed  MaritalStatus = "veuf"
)

// ValidStatus reports whether s is one of the known civil statuses.
func ValidStatus(s MaritalStatus) bool {
	switch s {
	case StatusSingle, StatusMarried, StatusDivorced, StatusWidowed:
		return true
	}
	return false
}
