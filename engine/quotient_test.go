package engine_test

import (
	"errors"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/warp/payroll-engine/engine"
)

func intPtr(v int) *int { return &v }

// standardQuotient is a representative family-quotient grid. Children ranges
// are closed-open.
func standardQuotient() []engine.QuotientRow {
	return []engine.QuotientRow{
		{Status: engine.StatusSingle, MinChildren: 0, MaxChildren: intPtr(1), Parts: decimal.NewFromInt(1)},
		{Status: engine.StatusSingle, MinChildren: 1, MaxChildren: nil, Parts: decimal.NewFromInt(2)},
		{Status: engine.StatusMarried, MinChildren: 0, MaxChildren: intPtr(1), Parts: decimal.NewFromInt(2)},
		{Status: engine.StatusMarried, MinChildren: 1, MaxChildren: intPtr(4), Parts: decimal.NewFromFloat(2.5)},
		{Status: engine.StatusMarried, MinChildren: 4, MaxChildren: nil, Parts: decimal.NewFromFloat(3.5)},
		{Status: engine.StatusWidowed, MinChildren: 0, MaxChildren: nil, Parts: decimal.NewFromInt(1)},
	}
}

func TestResolveQuotient_RangeLookup(t *testing.T) {
	// GIVEN: a married employee with 2 dependent children
	parts, err := engine.ResolveQuotient(standardQuotient(), engine.StatusMarried, 2)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	// THEN: the [1, 4) row applies
	if !parts.Equal(decimal.NewFromFloat(2.5)) {
		t.Errorf("expected 2.5 parts, got %s", parts)
	}
}

func TestResolveQuotient_RangesAreClosedOpen(t *testing.T) {
	// GIVEN: a married employee with exactly 4 children
	// WHEN: resolving against a [1, 4) row followed by a [4, nil) row
	parts, err := engine.ResolveQuotient(standardQuotient(), engine.StatusMarried, 4)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	// THEN: 4 falls in the upper row, not the [1, 4) one
	if !parts.Equal(decimal.NewFromFloat(3.5)) {
		t.Errorf("expected 3.5 parts for 4 children, got %s", parts)
	}
}

func TestResolveQuotient_CappedAtSixAndAHalf(t *testing.T) {
	// GIVEN: a misconfigured grid granting 7 parts
	rows := []engine.QuotientRow{
		{Status: engine.StatusMarried, MinChildren: 0, MaxChildren: nil, Parts: decimal.NewFromInt(7)},
	}

	parts, err := engine.ResolveQuotient(rows, engine.StatusMarried, 10)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	// THEN: the global 6.5 ceiling applies regardless of the row value
	if !parts.Equal(decimal.NewFromFloat(6.5)) {
		t.Errorf("expected parts capped at 6.5, got %s", parts)
	}
}

func TestResolveQuotient_UnknownStatus_Rejected(t *testing.T) {
	_, err := engine.ResolveQuotient(standardQuotient(), engine.MaritalStatus("pacse"), 0)
	if !engine.IsValidationError(err) {
		t.Errorf("expected validation error for unknown status, got %v", err)
	}
}

func TestResolveQuotient_NegativeChildren_Rejected(t *testing.T) {
	_, err := engine.ResolveQuotient(standardQuotient(), engine.StatusSingle, -1)
	if !engine.IsValidationError(err) {
		t.Errorf("expected validation error for negative children, got %v", err)
	}
}

func TestResolveQuotient_NoCoveringRow_NotFound(t *testing.T) {
	// GIVEN: a grid with no row for divorced employees
	_, err := engine.ResolveQuotient(standardQuotient(), engine.StatusDivorced, 1)

	// THEN: the gap is a configuration error, never a silent default
	if !errors.Is(err, engine.ErrQuotientNotFound) {
		t.Errorf("expected ErrQuotientNotFound, got %v", err)
	}
}
