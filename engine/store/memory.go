// Package store provides engine source implementations.
package store

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/warp/payroll-engine/engine"
)

// =============================================================================
// MEMORY STORE - In-memory implementation (for testing/dev)
// =============================================================================

// Memory holds versioned fiscal configuration in memory. It implements
// engine.ParameterSource, engine.BracketSource, engine.QuotientSource and
// engine.ScaleSource. Parameter writes are append-only: a new version never
// mutates an existing one.
type Memory struct {
	mu        sync.RWMutex
	params    map[paramKey][]engine.ParameterVersion
	brackets  map[engine.TenantID][]bracketSet
	quotients map[engine.TenantID][]quotientSet
	scales    map[scaleKey][]scaleSet
}

type paramKey struct {
	Tenant engine.TenantID
	Code   string
}

type scaleKey struct {
	Tenant engine.TenantID
	Type   engine.IndemnityType
}

type bracketSet struct {
	DateEffet time.Time
	Rows      []engine.Bracket
}

type quotientSet struct {
	DateEffet time.Time
	Rows      []engine.QuotientRow
}

type scaleSet struct {
	DateEffet time.Time
	Rows      []engine.ScaleRow
}

func NewMemory() *Memory {
	return &Memory{
		params:    make(map[paramKey][]engine.ParameterVersion),
		brackets:  make(map[engine.TenantID][]bracketSet),
		quotients: make(map[engine.TenantID][]quotientSet),
		scales:    make(map[scaleKey][]scaleSet),
	}
}

// PutParameter appends a new parameter version. Append-only.
func (m *Memory) PutParameter(_ context.Context, v engine.ParameterVersion) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	k := paramKey{Tenant: v.TenantID, Code: v.Code}
	versions := m.params[k]

	// Insert sorted by DateEffet so reads never re-sort.
	i := sort.Search(len(versions), func(i int) bool {
		return versions[i].DateEffet.After(v.DateEffet)
	})
	versions = append(versions, engine.ParameterVersion{})
	copy(versions[i+1:], versions[i:])
	versions[i] = v
	m.params[k] = versions
	return nil
}

// PutBrackets installs a bracket set effective from the given date. The set
// is validated before it is accepted.
func (m *Memory) PutBrackets(_ context.Context, tenant engine.TenantID, dateEffet time.Time, rows []engine.Bracket) error {
	if err := engine.ValidateBrackets(rows); err != nil {
		return err
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.brackets[tenant] = append(m.brackets[tenant], bracketSet{DateEffet: dateEffet, Rows: rows})
	return nil
}

// PutQuotientRows installs a family-quotient grid effective from the given date.
func (m *Memory) PutQuotientRows(_ context.Context, tenant engine.TenantID, dateEffet time.Time, rows []engine.QuotientRow) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.quotients[tenant] = append(m.quotients[tenant], quotientSet{DateEffet: dateEffet, Rows: rows})
	return nil
}

// PutScale installs an indemnity scale effective from the given date.
func (m *Memory) PutScale(_ context.Context, tenant engine.TenantID, typ engine.IndemnityType, dateEffet time.Time, rows []engine.ScaleRow) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	k := scaleKey{Tenant: tenant, Type: typ}
	m.scales[k] = append(m.scales[k], scaleSet{DateEffet: dateEffet, Rows: rows})
	return nil
}

// VersionsOf implements engine.ParameterSource.
func (m *Memory) VersionsOf(_ context.Context, tenant engine.TenantID, code string) ([]engine.ParameterVersion, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	k := paramKey{Tenant: tenant, Code: code}
	result := make([]engine.ParameterVersion, len(m.params[k]))
	copy(result, m.params[k])
	return result, nil
}

// BracketsAsOf implements engine.BracketSource: the latest set whose
// effective date is on or before asOf.
func (m *Memory) BracketsAsOf(_ context.Context, tenant engine.TenantID, asOf time.Time) ([]engine.Bracket, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	var best *bracketSet
	for i := range m.brackets[tenant] {
		s := &m.brackets[tenant][i]
		if s.DateEffet.After(asOf) {
			continue
		}
		if best == nil || s.DateEffet.After(best.DateEffet) {
			best = s
		}
	}
	if best == nil {
		return nil, engine.ErrBracketsNotFound
	}
	rows := make([]engine.Bracket, len(best.Rows))
	copy(rows, best.Rows)
	return rows, nil
}

// QuotientRowsAsOf implements engine.QuotientSource.
func (m *Memory) QuotientRowsAsOf(_ context.Context, tenant engine.TenantID, asOf time.Time) ([]engine.QuotientRow, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	var best *quotientSet
	for i := range m.quotients[tenant] {
		s := &m.quotients[tenant][i]
		if s.DateEffet.After(asOf) {
			continue
		}
		if best == nil || s.DateEffet.After(best.DateEffet) {
			best = s
		}
	}
	if best == nil {
		return nil, engine.ErrQuotientNotFound
	}
	rows := make([]engine.QuotientRow, len(best.Rows))
	copy(rows, best.Rows)
	return rows, nil
}

// ScaleAsOf implements engine.ScaleSource.
func (m *Memory) ScaleAsOf(_ context.Context, tenant engine.TenantID, typ engine.IndemnityType, asOf time.Time) ([]engine.ScaleRow, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	k := scaleKey{Tenant: tenant, Type: typ}
	var best *scaleSet
	for i := range m.scales[k] {
		s := &m.scales[k][i]
		if s.DateEffet.After(asOf) {
			continue
		}
		if best == nil || s.DateEffet.After(best.DateEffet) {
			best = s
		}
	}
	if best == nil {
		return nil, engine.ErrScaleNotFound
	}
	rows := make([]engine.ScaleRow, len(best.Rows))
	copy(rows, best.Rows)
	return rows, nil
}
