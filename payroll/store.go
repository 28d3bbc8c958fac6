package payroll

import (
	"context"

	"github.com/warp/payroll-engine/engine"
)

// =============================================================================
// STORE INTERFACES - Implemented by store/sqlite
// =============================================================================

// CatalogSource supplies a tenant's rubrique catalog.
type CatalogSource interface {
	// ActiveRubriques returns the active catalog entries for the tenant,
	// in stable catalog order.
	ActiveRubriques(ctx context.Context, tenant engine.TenantID) ([]Rubrique, error)
}

// EmployeeSource supplies employee snapshots for computation.
type EmployeeSource interface {
	EmployeeByID(ctx context.Context, tenant engine.TenantID, id engine.EmployeeID) (Employee, error)
}

// PayslipStore persists computed payslips. Save must enforce the
// (tenant, employee, period) uniqueness transactionally and surface a
// violation as engine.ErrPayslipExists, so that two concurrent attempts
// yield exactly one success and one conflict.
type PayslipStore interface {
	Exists(ctx context.Context, tenant engine.TenantID, employee engine.EmployeeID, period string) (bool, error)
	Save(ctx context.Context, p *Payslip) error
	ByID(ctx context.Context, tenant engine.TenantID, id string) (*Payslip, error)
	ForEmployee(ctx context.Context, tenant engine.TenantID, employee engine.EmployeeID) ([]*Payslip, error)
}
