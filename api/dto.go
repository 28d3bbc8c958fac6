/*
dto.go - Data Transfer Objects for API requests and responses

PURPOSE:
  Defines the JSON structures for API communication. These types decouple
  the internal domain model from the external API contract, allowing:
  - Field renaming without breaking clients
  - API-specific validation
  - Version evolution

NAMING CONVENTION:
  - *DTO: Response types returned to clients
  - *Request: Request body types from clients

AMOUNTS:
  Monetary fields travel as JSON strings ("1000000") and are parsed with
  decimal on the way in. Floats never touch money.

VALIDATION:
  Validation is done in handlers and the domain, not in DTOs. DTOs are
  pure data carriers.

SEE ALSO:
  - handlers.go: Uses these types
  - factory/catalog.go: RubriqueJSON, the rubrique wire shape
*/
package api

import (
	"time"

	"github.com/shopspring/decimal"

	"github.com/warp/payroll-engine/engine"
	"github.com/warp/payroll-engine/payroll"
)

// =============================================================================
// REQUEST/RESPONSE TYPES
// =============================================================================

// EmployeeDTO represents an employee in API responses.
type EmployeeDTO struct {
	ID               string `json:"id"`
	Name             string `json:"name"`
	BaseSalary       string `json:"base_salary"`
	Avg12MonthSalary string `json:"avg12_salary"`
	HireDate         string `json:"hire_date"`
	MaritalStatus    string `json:"marital_status"`
	Children         int    `json:"children"`
	Sanctioned       bool   `json:"sanctioned"`
	Active           bool   `json:"active"`
}

// CreateEmployeeRequest is the request to create or update an employee.
type CreateEmployeeRequest struct {
	ID               string `json:"id"`
	Name             string `json:"name"`
	BaseSalary       string `json:"base_salary"`
	Avg12MonthSalary string `json:"avg12_salary"`
	HireDate         string `json:"hire_date"` // YYYY-MM-DD
	MaritalStatus    string `json:"marital_status"`
	Children         int    `json:"children"`
	Sanctioned       bool   `json:"sanctioned"`
}

// EntryDTO is one manual input for a pay line in one period.
type EntryDTO struct {
	Code     string `json:"code"`
	Amount   string `json:"amount,omitempty"`   // manual lines
	Quantity string `json:"quantity,omitempty"` // hours, leave weeks
}

// ComputeRequest asks for one payslip.
type ComputeRequest struct {
	EmployeeID string     `json:"employee_id"`
	Period     string     `json:"period"` // YYYY-MM
	Entries    []EntryDTO `json:"entries,omitempty"`

	// DeductibleCharges are extra IRPP-deductible charges for the period,
	// on top of the CNSS employee share. Empty means none.
	DeductibleCharges string `json:"deductible_charges,omitempty"`

	// JoursTravailles is the declared days-worked count, recorded on the
	// payslip. Omitted means a full month.
	JoursTravailles *int `json:"jours_travailles,omitempty"`
}

// BatchComputeRequest asks for payslips for several employees in one period.
type BatchComputeRequest struct {
	Period      string                `json:"period"`
	EmployeeIDs []string              `json:"employee_ids"`
	Entries     map[string][]EntryDTO `json:"entries,omitempty"` // keyed by employee ID
}

// BatchResultDTO is one employee's outcome in a batch run.
type BatchResultDTO struct {
	EmployeeID string           `json:"employee_id"`
	Payslip    *payroll.Payslip `json:"payslip,omitempty"`
	Error      string           `json:"error,omitempty"`
}

// ParameterVersionDTO represents one fiscal parameter version.
type ParameterVersionDTO struct {
	ID        string  `json:"id"`
	Code      string  `json:"code"`
	Value     string  `json:"value"`
	DateEffet string  `json:"date_effet"`
	DateFin   *string `json:"date_fin,omitempty"`
}

// CreateParameterRequest appends a new parameter version. Existing versions
// are never edited; a correction is a new version with its own date.
type CreateParameterRequest struct {
	Code      string  `json:"code"`
	Value     string  `json:"value"`
	DateEffet string  `json:"date_effet"` // YYYY-MM-DD
	DateFin   *string `json:"date_fin,omitempty"`
}

// ErrorResponse is the standard error response.
type ErrorResponse struct {
	Error   string `json:"error"`
	Code    string `json:"code,omitempty"`
	Details any    `json:"details,omitempty"`
}

// =============================================================================
// CONVERSION HELPERS
// =============================================================================

func toEmployeeDTO(e payroll.Employee) EmployeeDTO {
	return EmployeeDTO{
		ID:               string(e.ID),
		Name:             e.Name,
		BaseSalary:       e.BaseSalary.String(),
		Avg12MonthSalary: e.Avg12MonthSalary.String(),
		HireDate:         e.HireDate.Format("2006-01-02"),
		MaritalStatus:    string(e.MaritalStatus),
		Children:         e.Children,
		Sanctioned:       e.Sanctioned,
		Active:           e.Active,
	}
}

func toParameterVersionDTO(v engine.ParameterVersion) ParameterVersionDTO {
	dto := ParameterVersionDTO{
		ID:        v.ID,
		Code:      v.Code,
		Value:     v.Value.String(),
		DateEffet: v.DateEffet.Format("2006-01-02"),
	}
	if v.DateFin != nil {
		f := v.DateFin.Format("2006-01-02")
		dto.DateFin = &f
	}
	return dto
}

// toEntries parses DTO amounts and quantities. Empty fields mean zero.
func toEntries(dtos []EntryDTO) ([]payroll.Entry, error) {
	entries := make([]payroll.Entry, 0, len(dtos))
	for _, d := range dtos {
		e := payroll.Entry{Code: d.Code, Amount: engine.Zero(), Quantity: decimal.Zero}
		if d.Amount != "" {
			v, err := decimal.NewFromString(d.Amount)
			if err != nil {
				return nil, &engine.ValidationError{Field: "entries", Reason: "amount for " + d.Code + " is not a number"}
			}
			e.Amount = engine.MoneyFromDecimal(v)
		}
		if d.Quantity != "" {
			q, err := decimal.NewFromString(d.Quantity)
			if err != nil {
				return nil, &engine.ValidationError{Field: "entries", Reason: "quantity for " + d.Code + " is not a number"}
			}
			e.Quantity = q
		}
		entries = append(entries, e)
	}
	return entries, nil
}

func parseDate(s string) (time.Time, error) {
	t, err := time.Parse("2006-01-02", s)
	if err != nil {
		return time.Time{}, &engine.ValidationError{Field: "date", Reason: s + " does not match YYYY-MM-DD"}
	}
	return t, nil
}
