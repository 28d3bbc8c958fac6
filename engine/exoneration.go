package engine

import (
	"github.com/shopspring/decimal"
)

// =============================================================================
// EXONERATION - Article 38 non-taxable bonus cap
// =============================================================================

// ExonerationResult splits the designated bonus total between its exempt
// share and the excess that re-enters the taxable base.
type ExonerationResult struct {
	Cap           Money // round(grossPay * rate)
	Exempt        Money
	ExcessTaxable Money
}

// ApplyExoneration caps the designated non-taxable bonus lines at a
// percentage of gross pay. The excess MUST be folded into the taxable base
// before the progressive tax runs; the aggregator enforces that ordering.
//
// Invariant: Exempt + ExcessTaxable = bonusTotal and Exempt <= Cap.
func ApplyExoneration(grossPay, bonusTotal Money, rate decimal.Decimal) ExonerationResult {
	cap := grossPay.Mul(rate).Round()
	exempt := bonusTotal.Min(cap)
	excess := bonusTotal.Sub(exempt).Max(Zero())
	return ExonerationResult{Cap: cap, Exempt: exempt, ExcessTaxable: excess}
}
