package engine

import (
	"context"
	"fmt"
	"time"

	"github.com/shopspring/decimal"
)

// =============================================================================
// FAMILY QUOTIENT - Splitting taxable income into parts
// =============================================================================

// maxParts is the global ceiling on family-quotient parts. It applies
// regardless of the per-row value, guarding against misconfigured tables.
var maxParts = decimal.NewFromFloat(6.5)

// QuotientRow maps a (status, children-count range) to parts. Ranges are
// closed-open: MinChildren inclusive, MaxChildren exclusive; a nil
// MaxChildren means the highest range for the status, unbounded above.
type QuotientRow struct {
	Status      MaritalStatus
	MinChildren int
	MaxChildren *int
	Parts       decimal.Decimal
}

// Contains reports whether the row covers the given children count.
func (r QuotientRow) Contains(children int) bool {
	if children < r.MinChildren {
		return false
	}
	return r.MaxChildren == nil || children < *r.MaxChildren
}

// QuotientSource supplies the family-quotient table effective for a tenant
// as of a date.
type QuotientSource interface {
	QuotientRowsAsOf(ctx context.Context, tenant TenantID, asOf time.Time) ([]QuotientRow, error)
}

// ResolveQuotient finds the parts for a family situation. The result is
// capped at 6.5 parts regardless of the raw table value.
func ResolveQuotient(rows []QuotientRow, status MaritalStatus, children int) (decimal.Decimal, error) {
	if children < 0 {
		return decimal.Zero, &ValidationError{Field: "children", Reason: "negative dependent count"}
	}
	if !ValidStatus(status) {
		return decimal.Zero, &ValidationError{Field: "maritalStatus", Reason: fmt.Sprintf("unknown status %q", status)}
	}
	for _, r := range rows {
		if r.Status == status && r.Contains(children) {
			if r.Parts.GreaterThan(maxParts) {
				return maxParts, nil
			}
			return r.Parts, nil
		}
	}
	return decimal.Zero, fmt.Errorf("%w: status %s, %d children", ErrQuotientNotFound, status, children)
}
