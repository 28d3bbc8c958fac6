package engine

import (
	"fmt"
	"regexp"
	"time"
)

// =============================================================================
// PERIOD - A payroll month, the unit of every computation
// =============================================================================

// Period is a payroll month. Every payslip, and every fiscal-parameter
// resolution feeding it, is anchored to exactly one Period.
type Period struct {
	Year  int
	Month time.Month
}

var periodPattern = regexp.MustCompile(`^\d{4}-\d{2}$`)

// ParsePeriod validates and parses a YYYY-MM string. Any other shape is
// rejected before any calculation begins.
func ParsePeriod(s string) (Period, error) {
	if !periodPattern.MatchString(s) {
		return Period{}, &ValidationError{Field: "period", Reason: fmt.Sprintf("%q does not match YYYY-MM", s)}
	}
	var year, month int
	fmt.Sscanf(s, "%4d-%2d", &year, &month)
	if month < 1 || month > 12 {
		return Period{}, &ValidationError{Field: "period", Reason: fmt.Sprintf("month %02d out of range", month)}
	}
	return Period{Year: year, Month: time.Month(month)}, nil
}

func (p Period) String() string {
	return fmt.Sprintf("%04d-%02d", p.Year, int(p.Month))
}

// Start returns the first day of the month (UTC). Fiscal parameters are
// resolved as of this date.
func (p Period) Start() time.Time {
	return time.Date(p.Year, p.Month, 1, 0, 0, 0, 0, time.UTC)
}

// End returns the last day of the month (UTC).
func (p Period) End() time.Time {
	return p.Start().AddDate(0, 1, -1)
}

func (p Period) Next() Period {
	t := p.Start().AddDate(0, 1, 0)
	return Period{Year: t.Year(), Month: t.Month()}
}

func (p Period) Prev() Period {
	t := p.Start().AddDate(0, -1, 0)
	return Period{Year: t.Year(), Month: t.Month()}
}

func (p Period) Contains(t time.Time) bool {
	return t.Year() == p.Year && t.Month() == p.Month
}

func (p Period) IsZero() bool {
	return p.Year == 0 && p.Month == 0
}

// =============================================================================
// SENIORITY - Completed months/years between two dates
// =============================================================================

// MonthsBetween returns the number of COMPLETED months from hire to asOf.
// A month counts only once its day-of-month anniversary has passed.
func MonthsBetween(hire, asOf time.Time) int {
	if asOf.Before(hire) {
		return 0
	}
	months := (asOf.Year()-hire.Year())*12 + int(asOf.Month()) - int(hire.Month())
	if asOf.Day() < hire.Day() {
		months--
	}
	if months < 0 {
		return 0
	}
	return months
}

// CompletedYears converts completed months to completed years.
func CompletedYears(months int) int {
	if months < 0 {
		return 0
	}
	return months / 12
}

// InFirstQuarter reports whether t falls in January-March of year.
func InFirstQuarter(t time.Time, year int) bool {
	return t.Year() == year && t.Month() <= time.March
}
