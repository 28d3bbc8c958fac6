/*
errors.go - Centralized error types for the payroll engine

PURPOSE:
  All error types in one place for consistency and discoverability.
  The taxonomy mirrors how callers must react:

  1. Configuration errors - missing/ambiguous fiscal parameter, bracket
     table, quotient row, or indemnity scale for the requested period.
     Always fatal to that computation; never silently defaulted in
     production paths.
  2. Validation errors - malformed period, negative salary, unknown pay
     line code. Rejected before any calculator runs.
  3. Invariant errors - zero family-quotient parts, non-contiguous
     brackets. Corrupt configuration; fatal.
  4. Conflict errors - a payslip already exists for (employee, period).
     Rejected, never retried automatically.

USAGE:
  Callers classify with errors.Is or the helpers below:

    if engine.IsConflict(err) {
        // 409 - payslip already computed
    }

SEE ALSO:
  - params.go: raises ParameterNotFoundError
  - brackets.go: raises BracketError
*/
package engine

import (
	"errors"
	"fmt"
	"time"
)

// =============================================================================
// SENTINEL ERRORS - Use with errors.Is()
// =============================================================================

var (
	// ErrParameterNotFound is returned when no version of a fiscal parameter
	// is effective for the requested period.
	ErrParameterNotFound = errors.New("fiscal parameter not found for period")

	// ErrParameterAmbiguous is returned when more than one version of a
	// fiscal parameter is effective for the requested period.
	ErrParameterAmbiguous = errors.New("fiscal parameter ambiguous for period")

	// ErrBracketsNotFound is returned when no bracket table is effective for
	// the requested period.
	ErrBracketsNotFound = errors.New("tax bracket table not found for period")

	// ErrQuotientNotFound is returned when no family-quotient row covers the
	// requested (status, children) pair.
	ErrQuotientNotFound = errors.New("family quotient row not found")

	// ErrScaleNotFound is returned when no indemnity scale row covers the
	// requested seniority.
	ErrScaleNotFound = errors.New("indemnity scale row not found")

	// ErrValidation is the root of all pre-calculation input rejections.
	ErrValidation = errors.New("validation failed")

	// ErrInvalidPeriod is returned for periods not matching YYYY-MM.
	ErrInvalidPeriod = errors.New("invalid period: want YYYY-MM")

	// ErrUnknownRubrique is returned for a pay-line code absent from the
	// tenant's catalog.
	ErrUnknownRubrique = errors.New("unknown pay line code")

	// ErrInvalidFormula is returned by the constant-expression evaluator.
	ErrInvalidFormula = errors.New("invalid constant formula")

	// ErrPayslipExists is returned when a payslip was already computed for
	// the (employee, period) pair.
	ErrPayslipExists = errors.New("payslip already exists for period")

	// ErrEmployeeNotFound is returned for lookups of unknown employees.
	ErrEmployeeNotFound = errors.New("employee not found")

	// ErrPayslipNotFound is returned for lookups of unknown payslips.
	ErrPayslipNotFound = errors.New("payslip not found")

	// ErrInvariant indicates corrupt configuration or an impossible
	// arithmetic state (zero parts, gapped brackets, totals that do not
	// reconcile). Fatal to the computation.
	ErrInvariant = errors.New("arithmetic invariant violated")
)

// =============================================================================
// STRUCTURED ERRORS - Carry the offending parameter/line code
// =============================================================================

// ParameterNotFoundError identifies exactly which code failed to resolve so
// configuration can be corrected.
type ParameterNotFoundError struct {
	TenantID TenantID
	Code     string
	AsOf     time.Time
}

func (e *ParameterNotFoundError) Error() string {
	return fmt.Sprintf("no version of parameter %q effective on %s for tenant %s",
		e.Code, e.AsOf.Format("2006-01-02"), e.TenantID)
}

func (e *ParameterNotFoundError) Unwrap() error { return ErrParameterNotFound }

// AmbiguousParameterError reports two versions of the same code effective
// on the same date. The configuration must be corrected; resolution never
// picks a winner silently.
type AmbiguousParameterError struct {
	TenantID  TenantID
	Code      string
	DateEffet time.Time
}

func (e *AmbiguousParameterError) Error() string {
	return fmt.Sprintf("multiple versions of parameter %q effective from %s for tenant %s",
		e.Code, e.DateEffet.Format("2006-01-02"), e.TenantID)
}

func (e *AmbiguousParameterError) Unwrap() error { return ErrParameterAmbiguous }

// ValidationError rejects an input before any calculator runs.
type ValidationError struct {
	Field  string
	Reason string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("invalid %s: %s", e.Field, e.Reason)
}

func (e *ValidationError) Unwrap() error { return ErrValidation }

// BracketError reports a malformed bracket table.
type BracketError struct {
	Ordre  int
	Reason string
}

func (e *BracketError) Error() string {
	return fmt.Sprintf("bracket table invalid at ordre %d: %s", e.Ordre, e.Reason)
}

func (e *BracketError) Unwrap() error { return ErrInvariant }

// InvariantError reports a violated arithmetic precondition.
type InvariantError struct {
	Reason string
}

func (e *InvariantError) Error() string { return e.Reason }

func (e *InvariantError) Unwrap() error { return ErrInvariant }

// ConflictError reports a duplicate payslip request.
type ConflictError struct {
	EmployeeID EmployeeID
	Period     string
}

func (e *ConflictError) Error() string {
	return fmt.Sprintf("payslip already computed for employee %s period %s", e.EmployeeID, e.Period)
}

func (e *ConflictError) Unwrap() error { return ErrPayslipExists }

// =============================================================================
// ERROR HELPERS
// =============================================================================

// IsConfigError returns true for missing configuration (parameter, brackets,
// quotient, scale) - correct the tenant configuration and recompute.
func IsConfigError(err error) bool {
	return errors.Is(err, ErrParameterNotFound) ||
		errors.Is(err, ErrParameterAmbiguous) ||
		errors.Is(err, ErrBracketsNotFound) ||
		errors.Is(err, ErrQuotientNotFound) ||
		errors.Is(err, ErrScaleNotFound)
}

// IsValidationError returns true if the input was rejected before any
// calculator ran.
func IsValidationError(err error) bool {
	return errors.Is(err, ErrValidation) ||
		errors.Is(err, ErrInvalidPeriod) ||
		errors.Is(err, ErrUnknownRubrique) ||
		errors.Is(err, ErrInvalidFormula)
}

// IsConflict returns true for duplicate payslip requests.
func IsConflict(err error) bool {
	return errors.Is(err, ErrPayslipExists)
}

// IsNotFound returns true for lookups of records that do not exist.
func IsNotFound(err error) bool {
	return errors.Is(err, ErrEmployeeNotFound) || errors.Is(err, ErrPayslipNotFound)
}

// IsInvariantError returns true for corrupt-configuration failures.
func IsInvariantError(err error) bool {
	return errors.Is(err, ErrInvariant)
}
