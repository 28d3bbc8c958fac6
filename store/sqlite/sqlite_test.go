/*
sqlite_test.go - Persistence behavior tests

Focuses on what the schema must guarantee: payslip uniqueness per
(tenant, employee, period), append-only parameter versioning, and
effective-dated set lookup.
*/
package sqlite_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/warp/payroll-engine/engine"
	"github.com/warp/payroll-engine/payroll"
	"github.com/warp/payroll-engine/store/sqlite"
)

const tenant = engine.TenantID("acme")

func newStore(t *testing.T) *sqlite.Store {
	t.Helper()
	store, err := sqlite.New(":memory:")
	require.NoError(t, err)
	t.Cleanup(func() { store.Close() })
	return store
}

func day(y int, m time.Month, d int) time.Time {
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

func testPayslip(id, employee, period string) *payroll.Payslip {
	return &payroll.Payslip{
		ID:         id,
		TenantID:   tenant,
		EmployeeID: engine.EmployeeID(employee),
		Period:     period,
		Status:     payroll.StatusComputed,
		Lines: []payroll.Line{
			{Code: "1000", Label: "Salaire de base", Category: payroll.CategoryTaxableGain, Amount: engine.NewMoney(500_000)},
		},
		BrutSocial:    engine.NewMoney(500_000),
		BrutFiscal:    engine.NewMoney(500_000),
		NetAPayer:     engine.NewMoney(500_000),
		CoutEmployeur: engine.NewMoney(500_000),
		ComputedAt:    time.Now().UTC(),
	}
}

func TestPayslipUniquenessPerPeriod(t *testing.T) {
	store := newStore(t)
	ctx := context.Background()

	require.NoError(t, store.Save(ctx, testPayslip("ps-1", "emp-1", "2025-03")))

	// Same employee and period under a different ID: the unique index
	// decides, and the loser sees the conflict sentinel.
	err := store.Save(ctx, testPayslip("ps-2", "emp-1", "2025-03"))
	require.Error(t, err)
	assert.True(t, errors.Is(err, engine.ErrPayslipExists))

	// Different period and different employee both pass.
	assert.NoError(t, store.Save(ctx, testPayslip("ps-3", "emp-1", "2025-04")))
	assert.NoError(t, store.Save(ctx, testPayslip("ps-4", "emp-2", "2025-03")))

	exists, err := store.Exists(ctx, tenant, "emp-1", "2025-03")
	require.NoError(t, err)
	assert.True(t, exists)
	exists, err = store.Exists(ctx, tenant, "emp-1", "2025-05")
	require.NoError(t, err)
	assert.False(t, exists)
}

func TestPayslipRoundTrip(t *testing.T) {
	store := newStore(t)
	ctx := context.Background()

	first := testPayslip("ps-1", "emp-1", "2025-03")
	jours := 21
	first.JoursTravailles = &jours
	require.NoError(t, store.Save(ctx, first))
	require.NoError(t, store.Save(ctx, testPayslip("ps-2", "emp-1", "2025-04")))

	loaded, err := store.ByID(ctx, tenant, "ps-1")
	require.NoError(t, err)
	assert.Equal(t, "2025-03", loaded.Period)
	require.Len(t, loaded.Lines, 1)
	assert.Equal(t, int64(500_000), loaded.Lines[0].Amount.Int64())
	require.NotNil(t, loaded.JoursTravailles)
	assert.Equal(t, 21, *loaded.JoursTravailles)

	// Without a declared days-worked input the column stays empty.
	second, err := store.ByID(ctx, tenant, "ps-2")
	require.NoError(t, err)
	assert.Nil(t, second.JoursTravailles)

	_, err = store.ByID(ctx, tenant, "ps-missing")
	require.Error(t, err)
	assert.True(t, engine.IsNotFound(err))

	// Tenant scoping: another tenant sees nothing.
	_, err = store.ByID(ctx, engine.TenantID("other"), "ps-1")
	assert.True(t, engine.IsNotFound(err))

	history, err := store.ForEmployee(ctx, tenant, "emp-1")
	require.NoError(t, err)
	require.Len(t, history, 2)
	// Newest period first.
	assert.Equal(t, "2025-04", history[0].Period)
}

func TestParameterVersionsAppendOnly(t *testing.T) {
	store := newStore(t)
	ctx := context.Background()

	put := func(id string, value int64, effet time.Time) {
		require.NoError(t, store.PutParameter(ctx, engine.ParameterVersion{
			ID: id, TenantID: tenant, Code: engine.ParamCNSSCap,
			Value: decimal.NewFromInt(value), DateEffet: effet,
		}))
	}
	put("v2", 1_300_000, day(2025, time.January, 1))
	put("v1", 1_200_000, day(2024, time.January, 1))

	versions, err := store.VersionsOf(ctx, tenant, engine.ParamCNSSCap)
	require.NoError(t, err)
	require.Len(t, versions, 2)
	// Oldest first regardless of insertion order.
	assert.Equal(t, "v1", versions[0].ID)
	assert.Equal(t, "v2", versions[1].ID)

	// Duplicate version IDs are rejected, not merged.
	err = store.PutParameter(ctx, engine.ParameterVersion{
		ID: "v1", TenantID: tenant, Code: engine.ParamCNSSCap,
		Value: decimal.NewFromInt(1), DateEffet: day(2026, time.January, 1),
	})
	assert.Error(t, err)

	// The resolver picks the effective version per period.
	resolver := engine.NewResolver(store)
	v, err := resolver.Resolve(ctx, tenant, engine.ParamCNSSCap, day(2024, time.June, 1))
	require.NoError(t, err)
	assert.True(t, v.Equal(decimal.NewFromInt(1_200_000)))
	v, err = resolver.Resolve(ctx, tenant, engine.ParamCNSSCap, day(2025, time.June, 1))
	require.NoError(t, err)
	assert.True(t, v.Equal(decimal.NewFromInt(1_300_000)))
}

func TestBracketSetsEffectiveDating(t *testing.T) {
	store := newStore(t)
	ctx := context.Background()

	old := []engine.Bracket{
		{Ordre: 1, SeuilMin: decimal.Zero, SeuilMax: nil, Taux: decimal.NewFromFloat(0.10)},
	}
	reform := []engine.Bracket{
		{Ordre: 1, SeuilMin: decimal.Zero, SeuilMax: nil, Taux: decimal.NewFromFloat(0.12)},
	}
	require.NoError(t, store.PutBrackets(ctx, tenant, day(2024, time.January, 1), old))
	require.NoError(t, store.PutBrackets(ctx, tenant, day(2025, time.July, 1), reform))

	got, err := store.BracketsAsOf(ctx, tenant, day(2025, time.June, 1))
	require.NoError(t, err)
	require.Len(t, got, 1)
	assert.True(t, got[0].Taux.Equal(decimal.NewFromFloat(0.10)))

	got, err = store.BracketsAsOf(ctx, tenant, day(2025, time.July, 1))
	require.NoError(t, err)
	assert.True(t, got[0].Taux.Equal(decimal.NewFromFloat(0.12)))

	_, err = store.BracketsAsOf(ctx, tenant, day(2023, time.December, 31))
	require.Error(t, err)
	assert.True(t, errors.Is(err, engine.ErrBracketsNotFound))

	// Invalid sets never reach the database.
	gapped := []engine.Bracket{
		{Ordre: 1, SeuilMin: decimal.NewFromInt(100), SeuilMax: nil, Taux: decimal.NewFromFloat(0.10)},
	}
	assert.Error(t, store.PutBrackets(ctx, tenant, day(2026, time.January, 1), gapped))
}

func TestEmployeeRoundTrip(t *testing.T) {
	store := newStore(t)
	ctx := context.Background()

	emp := payroll.Employee{
		ID: "emp-1", TenantID: tenant, Name: "Test",
		BaseSalary:       engine.NewMoney(800_000),
		Avg12MonthSalary: engine.NewMoney(820_000),
		HireDate:         day(2020, time.May, 15),
		MaritalStatus:    engine.StatusMarried,
		Children:         3,
		Active:           true,
	}
	require.NoError(t, store.SaveEmployee(ctx, emp))

	loaded, err := store.EmployeeByID(ctx, tenant, "emp-1")
	require.NoError(t, err)
	assert.Equal(t, emp.Name, loaded.Name)
	assert.True(t, loaded.BaseSalary.Equal(emp.BaseSalary))
	assert.Equal(t, emp.HireDate, loaded.HireDate)
	assert.Equal(t, 3, loaded.Children)
	assert.True(t, loaded.Active)

	// Upsert updates in place.
	emp.BaseSalary = engine.NewMoney(850_000)
	require.NoError(t, store.SaveEmployee(ctx, emp))
	loaded, err = store.EmployeeByID(ctx, tenant, "emp-1")
	require.NoError(t, err)
	assert.True(t, loaded.BaseSalary.Equal(engine.NewMoney(850_000)))

	_, err = store.EmployeeByID(ctx, tenant, "emp-missing")
	require.Error(t, err)
	assert.True(t, engine.IsNotFound(err))
}

func TestEmployeeDeleteKeepsPayslipSubjects(t *testing.T) {
	store := newStore(t)
	ctx := context.Background()

	save := func(id string) {
		require.NoError(t, store.SaveEmployee(ctx, payroll.Employee{
			ID: engine.EmployeeID(id), TenantID: tenant, Name: "Test",
			BaseSalary:       engine.NewMoney(400_000),
			Avg12MonthSalary: engine.NewMoney(400_000),
			HireDate:         day(2021, time.February, 1),
			MaritalStatus:    engine.StatusSingle,
			Active:           true,
		}))
	}
	save("emp-1")
	save("emp-2")
	require.NoError(t, store.Save(ctx, testPayslip("ps-1", "emp-1", "2025-03")))

	// Referenced by a payslip: deactivated, still readable, flagged.
	require.NoError(t, store.DeleteEmployee(ctx, tenant, "emp-1"))
	loaded, err := store.EmployeeByID(ctx, tenant, "emp-1")
	require.NoError(t, err)
	assert.False(t, loaded.Active)

	history, err := store.ForEmployee(ctx, tenant, "emp-1")
	require.NoError(t, err)
	assert.Len(t, history, 1)

	// Unreferenced: removed outright.
	require.NoError(t, store.DeleteEmployee(ctx, tenant, "emp-2"))
	_, err = store.EmployeeByID(ctx, tenant, "emp-2")
	require.Error(t, err)
	assert.True(t, engine.IsNotFound(err))

	// Unknown employee: not-found, not a silent no-op.
	err = store.DeleteEmployee(ctx, tenant, "emp-ghost")
	require.Error(t, err)
	assert.True(t, engine.IsNotFound(err))
}

func TestReset(t *testing.T) {
	store := newStore(t)
	ctx := context.Background()

	require.NoError(t, store.Save(ctx, testPayslip("ps-1", "emp-1", "2025-03")))
	require.NoError(t, store.Reset(ctx))

	exists, err := store.Exists(ctx, tenant, "emp-1", "2025-03")
	require.NoError(t, err)
	assert.False(t, exists)
}
