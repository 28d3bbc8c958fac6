/*
handlers.go - HTTP API handlers for the payroll engine

PURPOSE:
  Exposes payslip computation and tenant configuration via REST API.
  Handles HTTP request/response, JSON serialization, and delegates to
  the payroll aggregator and stores.

ENDPOINTS:
  Payslips:
    POST   /api/payslips/compute        Compute one payslip
    POST   /api/payslips/compute-batch  Compute a bounded batch
    GET    /api/payslips/{id}           Get a computed payslip

  Employees:
    GET    /api/employees               List employees
    POST   /api/employees               Create/update employee
    GET    /api/employees/{id}          Get employee details
    DELETE /api/employees/{id}          Delete (or deactivate) employee
    GET    /api/employees/{id}/payslips Payslip history

  Configuration:
    GET    /api/parameters              Fiscal parameter version history
    POST   /api/parameters              Append a parameter version
    GET    /api/rubriques               List the pay-line catalog
    POST   /api/rubriques               Create/update a catalog entry

  Admin:
    POST   /api/admin/seed-demo         Seed the demo tenant
    POST   /api/admin/reset             Wipe all data (dev only)

TENANCY:
  The tenant is taken from the X-Tenant-ID header, defaulting to the
  demo tenant. Every store read and write is tenant-scoped.

ERROR HANDLING:
  Domain errors map to HTTP status by classification:
  - 400: validation errors (bad period, negative amounts, unknown codes)
  - 404: unknown employee or payslip
  - 409: payslip already computed for (employee, period)
  - 422: missing fiscal configuration or violated invariants
  - 500: everything else

SECURITY NOTE:
  No authentication middleware currently. All endpoints are public.

SEE ALSO:
  - dto.go: Request/response data structures
  - server.go: Router setup and middleware
  - payroll/aggregator.go: The computation pipeline behind /compute
*/
package api

import (
	"encoding/json"
	"io"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	"github.com/warp/payroll-engine/engine"
	"github.com/warp/payroll-engine/factory"
	"github.com/warp/payroll-engine/payroll"
	"github.com/warp/payroll-engine/store/sqlite"
)

// =============================================================================
// HANDLER CONTEXT
// =============================================================================

// Handler holds all dependencies for HTTP handlers.
type Handler struct {
	Store      *sqlite.Store
	Aggregator *payroll.Aggregator
	Log        *zap.Logger
}

// NewHandler wires the aggregator over the given store.
func NewHandler(store *sqlite.Store, log *zap.Logger) *Handler {
	if log == nil {
		log = zap.NewNop()
	}
	agg := payroll.NewAggregator(payroll.AggregatorConfig{
		Params:    engine.NewResolver(store),
		Brackets:  store,
		Quotients: store,
		Scales:    store,
		Catalog:   store,
		Employees: store,
		Payslips:  store,
		Logger:    log,
	})
	return &Handler{Store: store, Aggregator: agg, Log: log}
}

// tenantFrom extracts the tenant, defaulting to the demo tenant.
func tenantFrom(r *http.Request) engine.TenantID {
	if t := r.Header.Get("X-Tenant-ID"); t != "" {
		return engine.TenantID(t)
	}
	return factory.DemoTenant
}

// =============================================================================
// PAYSLIP HANDLERS
// =============================================================================

// ComputePayslip computes and persists one payslip.
func (h *Handler) ComputePayslip(w http.ResponseWriter, r *http.Request) {
	var req ComputeRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request body", err)
		return
	}

	entries, err := toEntries(req.Entries)
	if err != nil {
		writeDomainError(w, err)
		return
	}

	deductible := engine.Zero()
	if req.DeductibleCharges != "" {
		v, err := decimal.NewFromString(req.DeductibleCharges)
		if err != nil {
			writeError(w, http.StatusBadRequest, "deductible_charges must be a number", err)
			return
		}
		deductible = engine.MoneyFromDecimal(v)
	}

	slip, err := h.Aggregator.Compute(r.Context(), payroll.ComputeInput{
		TenantID:          tenantFrom(r),
		EmployeeID:        engine.EmployeeID(req.EmployeeID),
		Period:            req.Period,
		Entries:           entries,
		DeductibleCharges: deductible,
		JoursTravailles:   req.JoursTravailles,
	})
	if err != nil {
		writeDomainError(w, err)
		return
	}

	writeJSON(w, http.StatusCreated, slip)
}

// ComputeBatch computes payslips for several employees in one period.
// Per-employee failures are reported in the result list, not as a
// request-level error.
func (h *Handler) ComputeBatch(w http.ResponseWriter, r *http.Request) {
	var req BatchComputeRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request body", err)
		return
	}

	ids := make([]engine.EmployeeID, len(req.EmployeeIDs))
	for i, id := range req.EmployeeIDs {
		ids[i] = engine.EmployeeID(id)
	}
	entries := make(map[engine.EmployeeID][]payroll.Entry, len(req.Entries))
	for id, dtos := range req.Entries {
		es, err := toEntries(dtos)
		if err != nil {
			writeDomainError(w, err)
			return
		}
		entries[engine.EmployeeID(id)] = es
	}

	results, err := h.Aggregator.ComputeBatch(r.Context(), tenantFrom(r), req.Period, ids, entries)
	if err != nil {
		writeDomainError(w, err)
		return
	}

	dtos := make([]BatchResultDTO, len(results))
	for i, res := range results {
		dtos[i] = BatchResultDTO{EmployeeID: string(res.EmployeeID), Payslip: res.Payslip}
		if res.Err != nil {
			dtos[i].Error = res.Err.Error()
		}
	}
	writeJSON(w, http.StatusOK, dtos)
}

// GetPayslip returns one computed payslip.
func (h *Handler) GetPayslip(w http.ResponseWriter, r *http.Request) {
	slip, err := h.Store.ByID(r.Context(), tenantFrom(r), chi.URLParam(r, "id"))
	if err != nil {
		writeDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, slip)
}

// ListEmployeePayslips returns an employee's payslips, newest first.
func (h *Handler) ListEmployeePayslips(w http.ResponseWriter, r *http.Request) {
	id := engine.EmployeeID(chi.URLParam(r, "id"))
	slips, err := h.Store.ForEmployee(r.Context(), tenantFrom(r), id)
	if err != nil {
		writeDomainError(w, err)
		return
	}
	if slips == nil {
		slips = []*payroll.Payslip{}
	}
	writeJSON(w, http.StatusOK, slips)
}

// =============================================================================
// EMPLOYEE HANDLERS
// =============================================================================

// ListEmployees returns all employees of the tenant.
func (h *Handler) ListEmployees(w http.ResponseWriter, r *http.Request) {
	employees, err := h.Store.ListEmployees(r.Context(), tenantFrom(r))
	if err != nil {
		writeError(w, http.StatusInternalServerError, "Failed to list employees", err)
		return
	}

	dtos := make([]EmployeeDTO, len(employees))
	for i, e := range employees {
		dtos[i] = toEmployeeDTO(e)
	}
	writeJSON(w, http.StatusOK, dtos)
}

// GetEmployee returns a single employee.
func (h *Handler) GetEmployee(w http.ResponseWriter, r *http.Request) {
	id := engine.EmployeeID(chi.URLParam(r, "id"))
	emp, err := h.Store.EmployeeByID(r.Context(), tenantFrom(r), id)
	if err != nil {
		writeDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, toEmployeeDTO(emp))
}

// CreateEmployee creates or updates an employee snapshot.
func (h *Handler) CreateEmployee(w http.ResponseWriter, r *http.Request) {
	var req CreateEmployeeRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request body", err)
		return
	}

	if req.ID == "" || req.Name == "" {
		writeError(w, http.StatusBadRequest, "id and name are required", nil)
		return
	}
	if !engine.ValidStatus(engine.MaritalStatus(req.MaritalStatus)) {
		writeError(w, http.StatusBadRequest, "Unknown marital_status", nil)
		return
	}
	baseSalary, err := decimal.NewFromString(req.BaseSalary)
	if err != nil || baseSalary.IsNegative() {
		writeError(w, http.StatusBadRequest, "base_salary must be a non-negative number", err)
		return
	}
	avg12 := baseSalary
	if req.Avg12MonthSalary != "" {
		avg12, err = decimal.NewFromString(req.Avg12MonthSalary)
		if err != nil || avg12.IsNegative() {
			writeError(w, http.StatusBadRequest, "avg12_salary must be a non-negative number", err)
			return
		}
	}
	hireDate, err := parseDate(req.HireDate)
	if err != nil {
		writeError(w, http.StatusBadRequest, "Invalid hire_date format (use YYYY-MM-DD)", err)
		return
	}
	if req.Children < 0 {
		writeError(w, http.StatusBadRequest, "children cannot be negative", nil)
		return
	}

	emp := payroll.Employee{
		ID:               engine.EmployeeID(req.ID),
		TenantID:         tenantFrom(r),
		Name:             req.Name,
		BaseSalary:       engine.MoneyFromDecimal(baseSalary),
		Avg12MonthSalary: engine.MoneyFromDecimal(avg12),
		HireDate:         hireDate,
		MaritalStatus:    engine.MaritalStatus(req.MaritalStatus),
		Children:         req.Children,
		Sanctioned:       req.Sanctioned,
		Active:           true,
	}
	if err := h.Store.SaveEmployee(r.Context(), emp); err != nil {
		writeError(w, http.StatusInternalServerError, "Failed to save employee", err)
		return
	}
	writeJSON(w, http.StatusCreated, toEmployeeDTO(emp))
}

// DeleteEmployee removes an employee. One with payslips is deactivated
// instead, so the payslips keep their subject.
func (h *Handler) DeleteEmployee(w http.ResponseWriter, r *http.Request) {
	id := engine.EmployeeID(chi.URLParam(r, "id"))
	if err := h.Store.DeleteEmployee(r.Context(), tenantFrom(r), id); err != nil {
		writeDomainError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// =============================================================================
// CONFIGURATION HANDLERS
// =============================================================================

// ListParameters returns the full parameter version history for the tenant.
func (h *Handler) ListParameters(w http.ResponseWriter, r *http.Request) {
	versions, err := h.Store.ParameterHistory(r.Context(), tenantFrom(r))
	if err != nil {
		writeError(w, http.StatusInternalServerError, "Failed to list parameters", err)
		return
	}

	dtos := make([]ParameterVersionDTO, len(versions))
	for i, v := range versions {
		dtos[i] = toParameterVersionDTO(v)
	}
	writeJSON(w, http.StatusOK, dtos)
}

// CreateParameter appends a new parameter version. Past versions stay
// untouched so historical payslips remain reproducible.
func (h *Handler) CreateParameter(w http.ResponseWriter, r *http.Request) {
	var req CreateParameterRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request body", err)
		return
	}

	if req.Code == "" {
		writeError(w, http.StatusBadRequest, "code is required", nil)
		return
	}
	value, err := decimal.NewFromString(req.Value)
	if err != nil {
		writeError(w, http.StatusBadRequest, "value must be a number", err)
		return
	}
	dateEffet, err := parseDate(req.DateEffet)
	if err != nil {
		writeError(w, http.StatusBadRequest, "Invalid date_effet format (use YYYY-MM-DD)", err)
		return
	}

	v := engine.ParameterVersion{
		ID:        uuid.NewString(),
		TenantID:  tenantFrom(r),
		Code:      req.Code,
		Value:     value,
		DateEffet: dateEffet,
	}
	if req.DateFin != nil {
		dateFin, err := parseDate(*req.DateFin)
		if err != nil {
			writeError(w, http.StatusBadRequest, "Invalid date_fin format (use YYYY-MM-DD)", err)
			return
		}
		if dateFin.Before(dateEffet) {
			writeError(w, http.StatusBadRequest, "date_fin cannot precede date_effet", nil)
			return
		}
		v.DateFin = &dateFin
	}

	if err := h.Store.PutParameter(r.Context(), v); err != nil {
		writeError(w, http.StatusInternalServerError, "Failed to save parameter version", err)
		return
	}

	h.Log.Info("parameter version added",
		zap.String("tenant", string(v.TenantID)),
		zap.String("code", v.Code),
		zap.String("date_effet", req.DateEffet))
	writeJSON(w, http.StatusCreated, toParameterVersionDTO(v))
}

// ListRubriques returns the tenant's pay-line catalog.
func (h *Handler) ListRubriques(w http.ResponseWriter, r *http.Request) {
	rubs, err := h.Store.ListRubriques(r.Context(), tenantFrom(r))
	if err != nil {
		writeError(w, http.StatusInternalServerError, "Failed to list rubriques", err)
		return
	}
	if rubs == nil {
		rubs = []payroll.Rubrique{}
	}
	writeJSON(w, http.StatusOK, rubs)
}

// CreateRubrique validates and upserts one catalog entry. Malformed
// formulas are rejected here, at configuration time.
func (h *Handler) CreateRubrique(w http.ResponseWriter, r *http.Request) {
	body, err := io.ReadAll(r.Body)
	if err != nil {
		writeError(w, http.StatusBadRequest, "Failed to read request body", err)
		return
	}

	rub, err := factory.ParseRubrique(body)
	if err != nil {
		writeDomainError(w, err)
		return
	}
	if err := h.Store.SaveRubrique(r.Context(), tenantFrom(r), rub); err != nil {
		writeError(w, http.StatusInternalServerError, "Failed to save rubrique", err)
		return
	}
	writeJSON(w, http.StatusCreated, rub)
}

// =============================================================================
// ADMIN HANDLERS
// =============================================================================

// SeedDemo installs the demo tenant: parameters, brackets, quotient grid,
// dismissal scale, catalog, and employees.
func (h *Handler) SeedDemo(w http.ResponseWriter, r *http.Request) {
	if err := factory.SeedDemo(r.Context(), h.Store); err != nil {
		writeError(w, http.StatusInternalServerError, "Failed to seed demo tenant", err)
		return
	}
	h.Log.Info("demo tenant seeded", zap.String("tenant", string(factory.DemoTenant)))
	writeJSON(w, http.StatusOK, map[string]string{"status": "seeded", "tenant": string(factory.DemoTenant)})
}

// ResetDatabase wipes all data. Dev only.
func (h *Handler) ResetDatabase(w http.ResponseWriter, r *http.Request) {
	if err := h.Store.Reset(r.Context()); err != nil {
		writeError(w, http.StatusInternalServerError, "Failed to reset database", err)
		return
	}
	h.Log.Warn("database reset")
	writeJSON(w, http.StatusOK, map[string]string{"status": "reset"})
}

// =============================================================================
// RESPONSE HELPERS
// =============================================================================

func writeJSON(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(data)
}

func writeError(w http.ResponseWriter, status int, message string, err error) {
	resp := ErrorResponse{Error: message}
	if err != nil {
		resp.Details = err.Error()
	}
	writeJSON(w, status, resp)
}

// writeDomainError maps the error taxonomy to HTTP status codes.
func writeDomainError(w http.ResponseWriter, err error) {
	switch {
	case engine.IsValidationError(err):
		writeError(w, http.StatusBadRequest, "Validation failed", err)
	case engine.IsNotFound(err):
		writeError(w, http.StatusNotFound, "Not found", err)
	case engine.IsConflict(err):
		writeError(w, http.StatusConflict, "Payslip already computed", err)
	case engine.IsConfigError(err):
		writeError(w, http.StatusUnprocessableEntity, "Missing fiscal configuration", err)
	case engine.IsInvariantError(err):
		writeError(w, http.StatusUnprocessableEntity, "Corrupt configuration", err)
	default:
		writeError(w, http.StatusInternalServerError, "Internal error", err)
	}
}
