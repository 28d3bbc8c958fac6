/*
brackets.go - Progressive income tax (IRPP) calculation

PURPOSE:
  Applies the tenant's effective-dated progressive bracket table to a
  taxable income after family-quotient splitting.

ALGORITHM:
  netIncome     = max(0, taxableIncome - deductibleCharges)
  incomePerPart = netIncome / parts
  taxPerPart    = sum over brackets of taxedPortion(bracket) * taux
  tax           = round(taxPerPart * parts)     <- single terminal rounding

  The taxed portion within a bracket [seuilMin, seuilMax] is
  max(0, min(incomePerPart, seuilMax) - seuilMin); the last bracket has no
  upper bound.

INVARIANTS:
  - Brackets are ordered by ordre, start at 0, and are contiguous:
    each seuilMin equals the previous seuilMax + 1.
  - Only the last bracket may omit seuilMax.
  - parts > 0. Zero parts indicates corrupt quotient configuration and
    fails fast instead of dividing by zero.

SEE ALSO:
  - quotient.go: produces the parts input
  - params.go: bracket tables are effective-dated like parameters
*/
package engine

import (
	"context"
	"time"

	"github.com/shopspring/decimal"
)

// =============================================================================
// BRACKET TABLE
// =============================================================================

// Bracket is one tranche of the progressive IRPP table.
type Bracket struct {
	Ordre    int
	SeuilMin decimal.Decimal
	SeuilMax *decimal.Decimal // nil = unbounded (last bracket only)
	Taux     decimal.Decimal  // fractional, e.g. 0.10
}

// BracketSource supplies the bracket table effective for a tenant as of a
// date. Returns ErrBracketsNotFound when no table is configured.
type BracketSource interface {
	BracketsAsOf(ctx context.Context, tenant TenantID, asOf time.Time) ([]Bracket, error)
}

// ValidateBrackets checks ordering, contiguity, and boundedness. A violation
// means corrupt configuration and fails the computation.
func ValidateBrackets(brackets []Bracket) error {
	if len(brackets) == 0 {
		return ErrBracketsNotFound
	}
	one := decimal.NewFromInt(1)
	for i, b := range brackets {
		if i == 0 {
			if !b.SeuilMin.IsZero() {
				return &BracketError{Ordre: b.Ordre, Reason: "first bracket must start at 0"}
			}
		} else {
			prev := brackets[i-1]
			if prev.SeuilMax == nil {
				return &BracketError{Ordre: prev.Ordre, Reason: "only the last bracket may be unbounded"}
			}
			if !b.SeuilMin.Equal(prev.SeuilMax.Add(one)) {
				return &BracketError{Ordre: b.Ordre, Reason: "not contiguous with previous bracket"}
			}
		}
		if b.SeuilMax != nil && !b.SeuilMax.GreaterThan(b.SeuilMin) {
			return &BracketError{Ordre: b.Ordre, Reason: "seuilMax must exceed seuilMin"}
		}
		if b.Taux.IsNegative() {
			return &BracketError{Ordre: b.Ordre, Reason: "negative rate"}
		}
	}
	if brackets[len(brackets)-1].SeuilMax != nil {
		return &BracketError{Ordre: brackets[len(brackets)-1].Ordre, Reason: "last bracket must be unbounded"}
	}
	return nil
}

// =============================================================================
// IRPP CALCULATION
// =============================================================================

// ComputeIRPP computes the progressive income tax for one payslip.
// The bracket table must already be validated for the computation period.
func ComputeIRPP(taxableIncome, deductibleCharges Money, parts decimal.Decimal, brackets []Bracket) (Money, error) {
	if err := ValidateBrackets(brackets); err != nil {
		return Zero(), err
	}
	if !parts.IsPositive() {
		return Zero(), &InvariantError{Reason: "family quotient parts must be positive"}
	}

	netIncome := taxableIncome.Sub(deductibleCharges).Max(Zero())
	incomePerPart := netIncome.Value.Div(parts)

	taxPerPart := decimal.Zero
	for _, b := range brackets {
		upper := incomePerPart
		if b.SeuilMax != nil && b.SeuilMax.LessThan(upper) {
			upper = *b.SeuilMax
		}
		portion := upper.Sub(b.SeuilMin)
		if !portion.IsPositive() {
			continue
		}
		taxPerPart = taxPerPart.Add(portion.Mul(b.Taux))
	}

	return MoneyFromDecimal(taxPerPart.Mul(parts)).Round(), nil
}
