/*
Package sqlite provides a SQLite-backed implementation of the storage interfaces.

PURPOSE:
  Implements all persistence interfaces of the payroll engine using
  SQLite. In production, the same patterns apply to PostgreSQL - only
  minor SQL dialect differences.

INTERFACES IMPLEMENTED:
  engine.ParameterSource:  Versioned fiscal parameters
  engine.BracketSource:    Effective-dated IRPP bracket tables
  engine.QuotientSource:   Effective-dated family-quotient grids
  engine.ScaleSource:      Effective-dated indemnity scales
  payroll.CatalogSource:   Rubrique catalogs
  payroll.EmployeeSource:  Employee snapshots
  payroll.PayslipStore:    Computed payslips

APPEND-ONLY ENFORCEMENT:
  Fiscal configuration is append-only:
  - No UPDATE statements on fiscal_parameters; editing a parameter means
    inserting a new version with its own effective date
  - Bracket tables, quotient grids, and scales are installed as whole
    effective-dated sets, never patched row by row
  - Payslips are immutable once computed

KEY INDEXES:
  - idx_parameters_tenant_code: parameter resolution (hot path)
  - idx_unique_payslip_period: enforces one payslip per (tenant,
    employee, period) - the concurrency-critical constraint

CONCURRENCY:
  Uses sync.RWMutex for thread-safety. The payslip uniqueness race is
  settled by the unique index: of two concurrent computations exactly
  one insert succeeds, the other maps to engine.ErrPayslipExists.

WAL MODE:
  SQLite is opened with WAL (Write-Ahead Logging) for better concurrency.

USAGE:
  store, err := sqlite.New("./data/payroll.db")
  if err != nil {
      log.Fatal(err)
  }
  defer store.Close()

MIGRATION:
  Schema is auto-migrated on New(). For production, use a proper
  migration tool (golang-migrate, goose) with versioned migrations.

SEE ALSO:
  - engine/params.go: the resolution rule these tables feed
  - engine/store/memory.go: in-memory implementation for tests
*/
package sqlite

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"strings"
	"sync"
	"time"

	_ "github.com/mattn/go-sqlite3"
	"github.com/shopspring/decimal"

	"github.com/warp/payroll-engine/engine"
	"github.com/warp/payroll-engine/payroll"
)

const dateLayout = "2006-01-02"

// Store implements all storage interfaces using SQLite.
type Store struct {
	db *sql.DB
	mu sync.RWMutex
}

// New creates a new SQLite store with the given database path.
// Use ":memory:" for an in-memory database.
func New(dbPath string) (*Store, error) {
	db, err := sql.Open("sqlite3", dbPath+"?_foreign_keys=on&_journal_mode=WAL")
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	store := &Store{db: db}
	if err := store.migrate(); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to migrate database: %w", err)
	}

	return store, nil
}

// Close closes the database connection.
func (s *Store) Close() error {
	return s.db.Close()
}

// migrate creates the database schema.
func (s *Store) migrate() error {
	schema := `
	-- Fiscal parameters (append-only versions)
	CREATE TABLE IF NOT EXISTS fiscal_parameters (
		id TEXT PRIMARY KEY,
		tenant_id TEXT NOT NULL,
		code TEXT NOT NULL,
		value TEXT NOT NULL,
		date_effet TEXT NOT NULL,
		date_fin TEXT,
		created_at TEXT NOT NULL
	);

	CREATE INDEX IF NOT EXISTS idx_parameters_tenant_code
		ON fiscal_parameters(tenant_id, code, date_effet);

	-- IRPP bracket tables, installed as whole effective-dated sets
	CREATE TABLE IF NOT EXISTS tax_brackets (
		tenant_id TEXT NOT NULL,
		date_effet TEXT NOT NULL,
		ordre INTEGER NOT NULL,
		seuil_min TEXT NOT NULL,
		seuil_max TEXT,
		taux TEXT NOT NULL,
		PRIMARY KEY (tenant_id, date_effet, ordre)
	);

	-- Family-quotient grids
	CREATE TABLE IF NOT EXISTS family_quotient (
		tenant_id TEXT NOT NULL,
		date_effet TEXT NOT NULL,
		status TEXT NOT NULL,
		min_children INTEGER NOT NULL,
		max_children INTEGER,
		parts TEXT NOT NULL,
		PRIMARY KEY (tenant_id, date_effet, status, min_children)
	);

	-- Indemnity scales
	CREATE TABLE IF NOT EXISTS indemnity_scales (
		tenant_id TEXT NOT NULL,
		indemnity_type TEXT NOT NULL,
		date_effet TEXT NOT NULL,
		min_years INTEGER NOT NULL,
		max_years INTEGER,
		rate TEXT NOT NULL,
		PRIMARY KEY (tenant_id, indemnity_type, date_effet, min_years)
	);

	-- Rubrique catalogs
	CREATE TABLE IF NOT EXISTS rubriques (
		tenant_id TEXT NOT NULL,
		code TEXT NOT NULL,
		label TEXT NOT NULL,
		category TEXT NOT NULL,
		kind TEXT NOT NULL,
		tier TEXT NOT NULL DEFAULT '',
		formula TEXT NOT NULL DEFAULT '',
		taxable BOOLEAN NOT NULL DEFAULT FALSE,
		plafond_art38 BOOLEAN NOT NULL DEFAULT FALSE,
		active BOOLEAN NOT NULL DEFAULT TRUE,
		PRIMARY KEY (tenant_id, code)
	);

	-- Employees
	CREATE TABLE IF NOT EXISTS employees (
		tenant_id TEXT NOT NULL,
		id TEXT NOT NULL,
		name TEXT NOT NULL,
		base_salary TEXT NOT NULL,
		avg12_salary TEXT NOT NULL,
		hire_date TEXT NOT NULL,
		marital_status TEXT NOT NULL,
		children INTEGER NOT NULL DEFAULT 0,
		sanctioned BOOLEAN NOT NULL DEFAULT FALSE,
		active BOOLEAN NOT NULL DEFAULT TRUE,
		created_at TEXT NOT NULL,
		PRIMARY KEY (tenant_id, id)
	);

	-- Payslips (immutable once computed)
	CREATE TABLE IF NOT EXISTS payslips (
		id TEXT PRIMARY KEY,
		tenant_id TEXT NOT NULL,
		employee_id TEXT NOT NULL,
		period TEXT NOT NULL,
		status TEXT NOT NULL,
		jours_travailles INTEGER,
		lines_json TEXT NOT NULL,
		brut_social TEXT NOT NULL,
		brut_fiscal TEXT NOT NULL,
		total_retenues TEXT NOT NULL,
		total_charges TEXT NOT NULL,
		net_a_payer TEXT NOT NULL,
		cout_employeur TEXT NOT NULL,
		computed_at TEXT NOT NULL
	);

	-- CRITICAL: one payslip per (tenant, employee, period). Two concurrent
	-- computations of the same payslip yield one success and one conflict.
	CREATE UNIQUE INDEX IF NOT EXISTS idx_unique_payslip_period
		ON payslips(tenant_id, employee_id, period);

	CREATE INDEX IF NOT EXISTS idx_payslips_employee
		ON payslips(tenant_id, employee_id);
	`

	_, err := s.db.Exec(schema)
	return err
}

// =============================================================================
// FISCAL PARAMETERS (engine.ParameterSource)
// =============================================================================

// PutParameter appends a new parameter version. Append-only: versions are
// never updated or deleted.
func (s *Store) PutParameter(ctx context.Context, v engine.ParameterVersion) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	var dateFin *string
	if v.DateFin != nil {
		f := v.DateFin.Format(dateLayout)
		dateFin = &f
	}

	_, err := s.db.ExecContext(ctx, `
		INSERT INTO fiscal_parameters (id, tenant_id, code, value, date_effet, date_fin, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?)
	`,
		v.ID, v.TenantID, v.Code, v.Value.String(),
		v.DateEffet.Format(dateLayout), dateFin,
		time.Now().UTC().Format(time.RFC3339),
	)
	if err != nil {
		return fmt.Errorf("failed to insert parameter version: %w", err)
	}
	return nil
}

// VersionsOf returns all versions of a code for a tenant, oldest first.
func (s *Store) VersionsOf(ctx context.Context, tenant engine.TenantID, code string) ([]engine.ParameterVersion, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	rows, err := s.db.QueryContext(ctx, `
		SELECT id, tenant_id, code, value, date_effet, date_fin
		FROM fiscal_parameters
		WHERE tenant_id = ? AND code = ?
		ORDER BY date_effet ASC
	`, tenant, code)
	if err != nil {
		return nil, fmt.Errorf("failed to query parameter versions: %w", err)
	}
	defer rows.Close()

	var versions []engine.ParameterVersion
	for rows.Next() {
		var (
			v         engine.ParameterVersion
			value     string
			dateEffet string
			dateFin   sql.NullString
		)
		if err := rows.Scan(&v.ID, &v.TenantID, &v.Code, &value, &dateEffet, &dateFin); err != nil {
			return nil, fmt.Errorf("failed to scan parameter version: %w", err)
		}
		v.Value, err = decimal.NewFromString(value)
		if err != nil {
			return nil, fmt.Errorf("corrupt parameter value for %s: %w", v.ID, err)
		}
		v.DateEffet, _ = time.Parse(dateLayout, dateEffet)
		if dateFin.Valid {
			t, _ := time.Parse(dateLayout, dateFin.String)
			v.DateFin = &t
		}
		versions = append(versions, v)
	}
	return versions, rows.Err()
}

// ParameterHistory returns every version of every code for a tenant,
// for the configuration API.
func (s *Store) ParameterHistory(ctx context.Context, tenant engine.TenantID) ([]engine.ParameterVersion, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	rows, err := s.db.QueryContext(ctx, `
		SELECT id, tenant_id, code, value, date_effet, date_fin
		FROM fiscal_parameters
		WHERE tenant_id = ?
		ORDER BY code ASC, date_effet ASC
	`, tenant)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var versions []engine.ParameterVersion
	for rows.Next() {
		var (
			v         engine.ParameterVersion
			value     string
			dateEffet string
			dateFin   sql.NullString
		)
		if err := rows.Scan(&v.ID, &v.TenantID, &v.Code, &value, &dateEffet, &dateFin); err != nil {
			return nil, err
		}
		v.Value, err = decimal.NewFromString(value)
		if err != nil {
			return nil, fmt.Errorf("corrupt parameter value for %s: %w", v.ID, err)
		}
		v.DateEffet, _ = time.Parse(dateLayout, dateEffet)
		if dateFin.Valid {
			t, _ := time.Parse(dateLayout, dateFin.String)
			v.DateFin = &t
		}
		versions = append(versions, v)
	}
	return versions, rows.Err()
}

// =============================================================================
// BRACKET TABLES (engine.BracketSource)
// =============================================================================

// PutBrackets installs a validated bracket set effective from the given
// date. The whole set is written atomically.
func (s *Store) PutBrackets(ctx context.Context, tenant engine.TenantID, dateEffet time.Time, rows []engine.Bracket) error {
	if err := engine.ValidateBrackets(rows); err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	for _, b := range rows {
		var seuilMax *string
		if b.SeuilMax != nil {
			m := b.SeuilMax.String()
			seuilMax = &m
		}
		_, err := tx.ExecContext(ctx, `
			INSERT INTO tax_brackets (tenant_id, date_effet, ordre, seuil_min, seuil_max, taux)
			VALUES (?, ?, ?, ?, ?, ?)
		`, tenant, dateEffet.Format(dateLayout), b.Ordre, b.SeuilMin.String(), seuilMax, b.Taux.String())
		if err != nil {
			return fmt.Errorf("failed to insert bracket: %w", err)
		}
	}
	return tx.Commit()
}

// BracketsAsOf returns the latest bracket set effective on or before asOf.
func (s *Store) BracketsAsOf(ctx context.Context, tenant engine.TenantID, asOf time.Time) ([]engine.Bracket, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var dateEffet sql.NullString
	err := s.db.QueryRowContext(ctx, `
		SELECT MAX(date_effet) FROM tax_brackets
		WHERE tenant_id = ? AND date_effet <= ?
	`, tenant, asOf.Format(dateLayout)).Scan(&dateEffet)
	if err != nil {
		return nil, err
	}
	if !dateEffet.Valid {
		return nil, engine.ErrBracketsNotFound
	}

	rows, err := s.db.QueryContext(ctx, `
		SELECT ordre, seuil_min, seuil_max, taux
		FROM tax_brackets
		WHERE tenant_id = ? AND date_effet = ?
		ORDER BY ordre ASC
	`, tenant, dateEffet.String)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var brackets []engine.Bracket
	for rows.Next() {
		var (
			b        engine.Bracket
			seuilMin string
			seuilMax sql.NullString
			taux     string
		)
		if err := rows.Scan(&b.Ordre, &seuilMin, &seuilMax, &taux); err != nil {
			return nil, err
		}
		if b.SeuilMin, err = decimal.NewFromString(seuilMin); err != nil {
			return nil, fmt.Errorf("corrupt bracket seuil_min: %w", err)
		}
		if seuilMax.Valid {
			m, err := decimal.NewFromString(seuilMax.String)
			if err != nil {
				return nil, fmt.Errorf("corrupt bracket seuil_max: %w", err)
			}
			b.SeuilMax = &m
		}
		if b.Taux, err = decimal.NewFromString(taux); err != nil {
			return nil, fmt.Errorf("corrupt bracket taux: %w", err)
		}
		brackets = append(brackets, b)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	if len(brackets) == 0 {
		return nil, engine.ErrBracketsNotFound
	}
	return brackets, nil
}

// =============================================================================
// FAMILY QUOTIENT (engine.QuotientSource)
// =============================================================================

// PutQuotientRows installs a quotient grid effective from the given date.
func (s *Store) PutQuotientRows(ctx context.Context, tenant engine.TenantID, dateEffet time.Time, rows []engine.QuotientRow) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	for _, r := range rows {
		_, err := tx.ExecContext(ctx, `
			INSERT INTO family_quotient (tenant_id, date_effet, status, min_children, max_children, parts)
			VALUES (?, ?, ?, ?, ?, ?)
		`, tenant, dateEffet.Format(dateLayout), r.Status, r.MinChildren, r.MaxChildren, r.Parts.String())
		if err != nil {
			return fmt.Errorf("failed to insert quotient row: %w", err)
		}
	}
	return tx.Commit()
}

// QuotientRowsAsOf returns the latest grid effective on or before asOf.
func (s *Store) QuotientRowsAsOf(ctx context.Context, tenant engine.TenantID, asOf time.Time) ([]engine.QuotientRow, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var dateEffet sql.NullString
	err := s.db.QueryRowContext(ctx, `
		SELECT MAX(date_effet) FROM family_quotient
		WHERE tenant_id = ? AND date_effet <= ?
	`, tenant, asOf.Format(dateLayout)).Scan(&dateEffet)
	if err != nil {
		return nil, err
	}
	if !dateEffet.Valid {
		return nil, engine.ErrQuotientNotFound
	}

	rows, err := s.db.QueryContext(ctx, `
		SELECT status, min_children, max_children, parts
		FROM family_quotient
		WHERE tenant_id = ? AND date_effet = ?
		ORDER BY status ASC, min_children ASC
	`, tenant, dateEffet.String)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []engine.QuotientRow
	for rows.Next() {
		var (
			r           engine.QuotientRow
			maxChildren sql.NullInt64
			parts       string
		)
		if err := rows.Scan(&r.Status, &r.MinChildren, &maxChildren, &parts); err != nil {
			return nil, err
		}
		if maxChildren.Valid {
			m := int(maxChildren.Int64)
			r.MaxChildren = &m
		}
		if r.Parts, err = decimal.NewFromString(parts); err != nil {
			return nil, fmt.Errorf("corrupt quotient parts: %w", err)
		}
		out = append(out, r)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	if len(out) == 0 {
		return nil, engine.ErrQuotientNotFound
	}
	return out, nil
}

// =============================================================================
// INDEMNITY SCALES (engine.ScaleSource)
// =============================================================================

// PutScale installs an indemnity scale effective from the given date.
func (s *Store) PutScale(ctx context.Context, tenant engine.TenantID, typ engine.IndemnityType, dateEffet time.Time, rows []engine.ScaleRow) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	for _, r := range rows {
		_, err := tx.ExecContext(ctx, `
			INSERT INTO indemnity_scales (tenant_id, indemnity_type, date_effet, min_years, max_years, rate)
			VALUES (?, ?, ?, ?, ?, ?)
		`, tenant, typ, dateEffet.Format(dateLayout), r.MinYears, r.MaxYears, r.Rate.String())
		if err != nil {
			return fmt.Errorf("failed to insert scale row: %w", err)
		}
	}
	return tx.Commit()
}

// ScaleAsOf returns the latest scale effective on or before asOf.
func (s *Store) ScaleAsOf(ctx context.Context, tenant engine.TenantID, typ engine.IndemnityType, asOf time.Time) ([]engine.ScaleRow, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var dateEffet sql.NullString
	err := s.db.QueryRowContext(ctx, `
		SELECT MAX(date_effet) FROM indemnity_scales
		WHERE tenant_id = ? AND indemnity_type = ? AND date_effet <= ?
	`, tenant, typ, asOf.Format(dateLayout)).Scan(&dateEffet)
	if err != nil {
		return nil, err
	}
	if !dateEffet.Valid {
		return nil, engine.ErrScaleNotFound
	}

	rows, err := s.db.QueryContext(ctx, `
		SELECT min_years, max_years, rate
		FROM indemnity_scales
		WHERE tenant_id = ? AND indemnity_type = ? AND date_effet = ?
		ORDER BY min_years ASC
	`, tenant, typ, dateEffet.String)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []engine.ScaleRow
	for rows.Next() {
		var (
			r        engine.ScaleRow
			maxYears sql.NullInt64
			rate     string
		)
		if err := rows.Scan(&r.MinYears, &maxYears, &rate); err != nil {
			return nil, err
		}
		r.Type = typ
		if maxYears.Valid {
			m := int(maxYears.Int64)
			r.MaxYears = &m
		}
		if r.Rate, err = decimal.NewFromString(rate); err != nil {
			return nil, fmt.Errorf("corrupt scale rate: %w", err)
		}
		out = append(out, r)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	if len(out) == 0 {
		return nil, engine.ErrScaleNotFound
	}
	return out, nil
}

// =============================================================================
// RUBRIQUE CATALOG (payroll.CatalogSource)
// =============================================================================

// SaveRubrique upserts one catalog entry.
func (s *Store) SaveRubrique(ctx context.Context, tenant engine.TenantID, rub payroll.Rubrique) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	_, err := s.db.ExecContext(ctx, `
		INSERT INTO rubriques (tenant_id, code, label, category, kind, tier, formula, taxable, plafond_art38, active)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(tenant_id, code) DO UPDATE SET
			label = excluded.label,
			category = excluded.category,
			kind = excluded.kind,
			tier = excluded.tier,
			formula = excluded.formula,
			taxable = excluded.taxable,
			plafond_art38 = excluded.plafond_art38,
			active = excluded.active
	`, tenant, rub.Code, rub.Label, rub.Category, rub.Kind, rub.Tier, rub.Formula,
		rub.Taxable, rub.PlafondArt38, rub.Active)
	return err
}

// ActiveRubriques returns the active catalog for a tenant in code order.
func (s *Store) ActiveRubriques(ctx context.Context, tenant engine.TenantID) ([]payroll.Rubrique, error) {
	return s.queryRubriques(ctx, `
		SELECT code, label, category, kind, tier, formula, taxable, plafond_art38, active
		FROM rubriques
		WHERE tenant_id = ? AND active = TRUE
		ORDER BY code ASC
	`, tenant)
}

// ListRubriques returns the whole catalog, active or not.
func (s *Store) ListRubriques(ctx context.Context, tenant engine.TenantID) ([]payroll.Rubrique, error) {
	return s.queryRubriques(ctx, `
		SELECT code, label, category, kind, tier, formula, taxable, plafond_art38, active
		FROM rubriques
		WHERE tenant_id = ?
		ORDER BY code ASC
	`, tenant)
}

func (s *Store) queryRubriques(ctx context.Context, query string, args ...any) ([]payroll.Rubrique, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []payroll.Rubrique
	for rows.Next() {
		var r payroll.Rubrique
		if err := rows.Scan(&r.Code, &r.Label, &r.Category, &r.Kind, &r.Tier, &r.Formula,
			&r.Taxable, &r.PlafondArt38, &r.Active); err != nil {
			return nil, err
		}
		out = append(out, r)
	}
	return out, rows.Err()
}

// =============================================================================
// EMPLOYEES (payroll.EmployeeSource)
// =============================================================================

// SaveEmployee upserts an employee snapshot.
func (s *Store) SaveEmployee(ctx context.Context, emp payroll.Employee) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	_, err := s.db.ExecContext(ctx, `
		INSERT INTO employees (tenant_id, id, name, base_salary, avg12_salary, hire_date, marital_status, children, sanctioned, active, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(tenant_id, id) DO UPDATE SET
			name = excluded.name,
			base_salary = excluded.base_salary,
			avg12_salary = excluded.avg12_salary,
			hire_date = excluded.hire_date,
			marital_status = excluded.marital_status,
			children = excluded.children,
			sanctioned = excluded.sanctioned,
			active = excluded.active
	`, emp.TenantID, emp.ID, emp.Name,
		emp.BaseSalary.String(), emp.Avg12MonthSalary.String(),
		emp.HireDate.Format(dateLayout), emp.MaritalStatus, emp.Children, emp.Sanctioned, emp.Active,
		time.Now().UTC().Format(time.RFC3339))
	return err
}

// DeleteEmployee removes an employee. An employee with payslips is only
// deactivated so the payslips keep their subject; one without any is
// removed outright.
func (s *Store) DeleteEmployee(ctx context.Context, tenant engine.TenantID, id engine.EmployeeID) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	var exists int
	err := s.db.QueryRowContext(ctx,
		"SELECT COUNT(*) FROM employees WHERE tenant_id = ? AND id = ?",
		tenant, id,
	).Scan(&exists)
	if err != nil {
		return err
	}
	if exists == 0 {
		return fmt.Errorf("%w: %s", engine.ErrEmployeeNotFound, id)
	}

	var referenced int
	err = s.db.QueryRowContext(ctx,
		"SELECT COUNT(*) FROM payslips WHERE tenant_id = ? AND employee_id = ?",
		tenant, id,
	).Scan(&referenced)
	if err != nil {
		return err
	}

	if referenced > 0 {
		_, err = s.db.ExecContext(ctx,
			"UPDATE employees SET active = FALSE WHERE tenant_id = ? AND id = ?", tenant, id)
		return err
	}
	_, err = s.db.ExecContext(ctx,
		"DELETE FROM employees WHERE tenant_id = ? AND id = ?", tenant, id)
	return err
}

// EmployeeByID returns one employee snapshot.
func (s *Store) EmployeeByID(ctx context.Context, tenant engine.TenantID, id engine.EmployeeID) (payroll.Employee, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var (
		emp        payroll.Employee
		baseSalary string
		avg12      string
		hireDate   string
	)
	err := s.db.QueryRowContext(ctx, `
		SELECT tenant_id, id, name, base_salary, avg12_salary, hire_date, marital_status, children, sanctioned, active
		FROM employees
		WHERE tenant_id = ? AND id = ?
	`, tenant, id).Scan(&emp.TenantID, &emp.ID, &emp.Name, &baseSalary, &avg12, &hireDate,
		&emp.MaritalStatus, &emp.Children, &emp.Sanctioned, &emp.Active)
	if err == sql.ErrNoRows {
		return payroll.Employee{}, fmt.Errorf("%w: %s", engine.ErrEmployeeNotFound, id)
	}
	if err != nil {
		return payroll.Employee{}, err
	}

	emp.BaseSalary = engine.MustParseMoney(baseSalary)
	emp.Avg12MonthSalary = engine.MustParseMoney(avg12)
	emp.HireDate, _ = time.Parse(dateLayout, hireDate)
	return emp, nil
}

// ListEmployees returns all employees of a tenant, ordered by name.
func (s *Store) ListEmployees(ctx context.Context, tenant engine.TenantID) ([]payroll.Employee, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	rows, err := s.db.QueryContext(ctx, `
		SELECT tenant_id, id, name, base_salary, avg12_salary, hire_date, marital_status, children, sanctioned, active
		FROM employees
		WHERE tenant_id = ?
		ORDER BY name ASC
	`, tenant)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []payroll.Employee
	for rows.Next() {
		var (
			emp        payroll.Employee
			baseSalary string
			avg12      string
			hireDate   string
		)
		if err := rows.Scan(&emp.TenantID, &emp.ID, &emp.Name, &baseSalary, &avg12, &hireDate,
			&emp.MaritalStatus, &emp.Children, &emp.Sanctioned, &emp.Active); err != nil {
			return nil, err
		}
		emp.BaseSalary = engine.MustParseMoney(baseSalary)
		emp.Avg12MonthSalary = engine.MustParseMoney(avg12)
		emp.HireDate, _ = time.Parse(dateLayout, hireDate)
		out = append(out, emp)
	}
	return out, rows.Err()
}

// =============================================================================
// PAYSLIPS (payroll.PayslipStore)
// =============================================================================

// Exists reports whether a payslip was already computed for the period.
func (s *Store) Exists(ctx context.Context, tenant engine.TenantID, employee engine.EmployeeID, period string) (bool, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var count int
	err := s.db.QueryRowContext(ctx,
		"SELECT COUNT(*) FROM payslips WHERE tenant_id = ? AND employee_id = ? AND period = ?",
		tenant, employee, period,
	).Scan(&count)
	return count > 0, err
}

// Save inserts a computed payslip. A uniqueness violation on
// (tenant, employee, period) maps to engine.ErrPayslipExists.
func (s *Store) Save(ctx context.Context, p *payroll.Payslip) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	linesJSON, err := json.Marshal(p.Lines)
	if err != nil {
		return fmt.Errorf("failed to encode payslip lines: %w", err)
	}

	_, err = s.db.ExecContext(ctx, `
		INSERT INTO payslips
		(id, tenant_id, employee_id, period, status, jours_travailles, lines_json,
		 brut_social, brut_fiscal, total_retenues, total_charges, net_a_payer, cout_employeur, computed_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	`,
		p.ID, p.TenantID, p.EmployeeID, p.Period, p.Status, p.JoursTravailles, string(linesJSON),
		p.BrutSocial.String(), p.BrutFiscal.String(),
		p.TotalRetenues.String(), p.TotalChargesPatronales.String(),
		p.NetAPayer.String(), p.CoutEmployeur.String(),
		p.ComputedAt.Format(time.RFC3339),
	)
	if err != nil {
		if isUniqueConstraintError(err) {
			return engine.ErrPayslipExists
		}
		return fmt.Errorf("failed to insert payslip: %w", err)
	}
	return nil
}

// ByID returns one payslip.
func (s *Store) ByID(ctx context.Context, tenant engine.TenantID, id string) (*payroll.Payslip, error) {
	payslips, err := s.queryPayslips(ctx, `
		SELECT id, tenant_id, employee_id, period, status, jours_travailles, lines_json,
		       brut_social, brut_fiscal, total_retenues, total_charges, net_a_payer, cout_employeur, computed_at
		FROM payslips
		WHERE tenant_id = ? AND id = ?
	`, tenant, id)
	if err != nil {
		return nil, err
	}
	if len(payslips) == 0 {
		return nil, fmt.Errorf("%w: %s", engine.ErrPayslipNotFound, id)
	}
	return payslips[0], nil
}

// ForEmployee returns an employee's payslips, newest period first.
func (s *Store) ForEmployee(ctx context.Context, tenant engine.TenantID, employee engine.EmployeeID) ([]*payroll.Payslip, error) {
	return s.queryPayslips(ctx, `
		SELECT id, tenant_id, employee_id, period, status, jours_travailles, lines_json,
		       brut_social, brut_fiscal, total_retenues, total_charges, net_a_payer, cout_employeur, computed_at
		FROM payslips
		WHERE tenant_id = ? AND employee_id = ?
		ORDER BY period DESC
	`, tenant, employee)
}

func (s *Store) queryPayslips(ctx context.Context, query string, args ...any) ([]*payroll.Payslip, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []*payroll.Payslip
	for rows.Next() {
		var (
			p          payroll.Payslip
			jours      sql.NullInt64
			linesJSON  string
			brutSocial string
			brutFiscal string
			retenues   string
			charges    string
			net        string
			cout       string
			computedAt string
		)
		if err := rows.Scan(&p.ID, &p.TenantID, &p.EmployeeID, &p.Period, &p.Status, &jours, &linesJSON,
			&brutSocial, &brutFiscal, &retenues, &charges, &net, &cout, &computedAt); err != nil {
			return nil, err
		}
		if jours.Valid {
			j := int(jours.Int64)
			p.JoursTravailles = &j
		}
		if err := json.Unmarshal([]byte(linesJSON), &p.Lines); err != nil {
			return nil, fmt.Errorf("corrupt payslip lines for %s: %w", p.ID, err)
		}
		p.BrutSocial = engine.MustParseMoney(brutSocial)
		p.BrutFiscal = engine.MustParseMoney(brutFiscal)
		p.TotalRetenues = engine.MustParseMoney(retenues)
		p.TotalChargesPatronales = engine.MustParseMoney(charges)
		p.NetAPayer = engine.MustParseMoney(net)
		p.CoutEmployeur = engine.MustParseMoney(cout)
		p.ComputedAt, _ = time.Parse(time.RFC3339, computedAt)
		out = append(out, &p)
	}
	return out, rows.Err()
}

// =============================================================================
// UTILITIES
// =============================================================================

// Reset clears all data (for testing/demo).
func (s *Store) Reset(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	tables := []string{"payslips", "employees", "rubriques", "indemnity_scales", "family_quotient", "tax_brackets", "fiscal_parameters"}
	for _, table := range tables {
		if _, err := s.db.ExecContext(ctx, "DELETE FROM "+table); err != nil {
			return err
		}
	}
	return nil
}

func isUniqueConstraintError(err error) bool {
	return err != nil && strings.Contains(err.Error(), "UNIQUE constraint failed")
}
