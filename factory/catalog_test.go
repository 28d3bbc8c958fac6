/*
catalog_test.go - JSON catalog parsing and validation tests
*/
package factory_test

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/warp/payroll-engine/engine"
	"github.com/warp/payroll-engine/factory"
	"github.com/warp/payroll-engine/payroll"
	"github.com/warp/payroll-engine/store/sqlite"
)

func TestParseRubrique_Valid(t *testing.T) {
	rub, err := factory.ParseRubrique([]byte(`{
		"code": "1210",
		"label": "Heures sup jour (suivantes)",
		"category": "gain_imposable",
		"kind": "heures_sup",
		"tier": "jour_suivantes",
		"taxable": true
	}`))
	require.NoError(t, err)
	assert.Equal(t, "1210", rub.Code)
	assert.Equal(t, payroll.KindOvertime, rub.Kind)
	assert.Equal(t, engine.TierDayNext, rub.Tier)
	assert.True(t, rub.Active, "active defaults to true")
}

func TestParseRubrique_Rejections(t *testing.T) {
	cases := map[string]string{
		"missing code":          `{"label": "X", "category": "gain_imposable", "kind": "manuel"}`,
		"unknown category":      `{"code": "1", "category": "gain_magique", "kind": "manuel"}`,
		"unknown kind":          `{"code": "1", "category": "gain_imposable", "kind": "teleportation"}`,
		"overtime without tier": `{"code": "1", "category": "gain_imposable", "kind": "heures_sup"}`,
		"tier on non-overtime":  `{"code": "1", "category": "gain_imposable", "kind": "manuel", "tier": "jour_premieres"}`,
		"formula kind, none":    `{"code": "1", "category": "gain_imposable", "kind": "formule"}`,
		"formula on manual":     `{"code": "1", "category": "gain_imposable", "kind": "manuel", "formula": "100"}`,
		"malformed formula":     `{"code": "1", "category": "gain_imposable", "kind": "formule", "formula": "1 +"}`,
		"identifier in formula": `{"code": "1", "category": "gain_imposable", "kind": "formule", "formula": "salaire * 2"}`,
	}
	for name, payload := range cases {
		_, err := factory.ParseRubrique([]byte(payload))
		require.Error(t, err, name)
		assert.True(t, engine.IsValidationError(err), name)
	}
}

func TestParseCatalog_DuplicateCodes(t *testing.T) {
	_, err := factory.ParseCatalog([]byte(`[
		{"code": "1000", "category": "gain_imposable", "kind": "salaire_base", "taxable": true},
		{"code": "1000", "category": "gain_imposable", "kind": "manuel"}
	]`))
	require.Error(t, err)
	assert.True(t, engine.IsValidationError(err))
}

func TestParseCatalog_InactiveEntry(t *testing.T) {
	rubs, err := factory.ParseCatalog([]byte(`[
		{"code": "1000", "category": "gain_imposable", "kind": "salaire_base", "taxable": true},
		{"code": "1300", "category": "gain_non_imposable", "kind": "manuel", "active": false}
	]`))
	require.NoError(t, err)
	require.Len(t, rubs, 2)
	assert.True(t, rubs[0].Active)
	assert.False(t, rubs[1].Active)
}

// The demo set must be internally coherent: seeding an empty store and
// reading everything back must succeed.
func TestSeedDemo_Coherent(t *testing.T) {
	db, err := sqlite.New(":memory:")
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })

	ctx := context.Background()
	require.NoError(t, factory.SeedDemo(ctx, db))

	asOf := time.Date(2025, time.June, 1, 0, 0, 0, 0, time.UTC)
	brackets, err := db.BracketsAsOf(ctx, factory.DemoTenant, asOf)
	require.NoError(t, err)
	require.NoError(t, engine.ValidateBrackets(brackets))

	rows, err := db.QuotientRowsAsOf(ctx, factory.DemoTenant, asOf)
	require.NoError(t, err)
	// Every status resolves for a childless employee.
	for _, status := range []engine.MaritalStatus{engine.StatusSingle, engine.StatusMarried, engine.StatusDivorced, engine.StatusWidowed} {
		_, err := engine.ResolveQuotient(rows, status, 0)
		assert.NoError(t, err, string(status))
	}

	scale, err := db.ScaleAsOf(ctx, factory.DemoTenant, engine.IndemnityDismissal, asOf)
	require.NoError(t, err)
	assert.NotEmpty(t, scale)

	rubs, err := db.ActiveRubriques(ctx, factory.DemoTenant)
	require.NoError(t, err)
	assert.Len(t, rubs, len(factory.DefaultRubriques()))

	employees, err := db.ListEmployees(ctx, factory.DemoTenant)
	require.NoError(t, err)
	assert.Len(t, employees, len(factory.DefaultEmployees()))

	// Reseeding must fail loudly instead of duplicating parameter versions.
	assert.Error(t, factory.SeedDemo(ctx, db))
}
