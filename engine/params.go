/*
params.go - Effective-dated fiscal parameter resolution

PURPOSE:
  Resolves named rates, caps, and thresholds for a tenant as of a payroll
  period. Parameters are immutable, append-only, effective-dated records:
  "editing a parameter" always means inserting a new version, never
  mutating history, so historical payslips can be recomputed exactly.

RESOLUTION RULE:
  Among all versions of a code for the tenant, select the one with the
  latest dateEffet <= period start whose dateFin is null or >= period
  start. No match is fatal (ParameterNotFoundError) - production
  configuration never defaults silently. Two effective versions tied on
  dateEffet are equally fatal (AmbiguousParameterError). A Resolver
  constructed with an explicit DefaultSet (demo/test databases only)
  falls back to it.

BATCH RESOLUTION:
  ResolveMany resolves every code against the SAME as-of date and fails
  all-or-nothing: a single missing code aborts the whole batch, because a
  payslip computed with a partial parameter set would be silently wrong.

SEE ALSO:
  - errors.go: ParameterNotFoundError
  - store/sqlite: production ParameterSource
  - engine/store: in-memory ParameterSource for tests
*/
package engine

import (
	"context"
	"sort"
	"time"

	"github.com/shopspring/decimal"
)

// =============================================================================
// PARAMETER CODES
// =============================================================================

// Codes of the statutory parameters the calculators consume. Tenants may
// define additional codes; these are the ones the engine resolves itself.
const (
	ParamLegalMonthlyHours = "HEURES_LEGALES_MOIS"

	ParamCNSSCap          = "CNSS_PLAFOND"
	ParamCNSSEmployeeRate = "CNSS_TAUX_SALARIAL"
	ParamCNSSEmployerRate = "CNSS_TAUX_PATRONAL"

	ParamFamilyAllowanceCap  = "AF_PLAFOND"
	ParamFamilyAllowanceRate = "AF_TAUX_PATRONAL"

	ParamWorkAccidentCap  = "AT_PLAFOND"
	ParamWorkAccidentRate = "AT_TAUX_PATRONAL"

	ParamPayrollTaxRate = "TUS_TAUX_PATRONAL"

	ParamCAMURate      = "CAMU_TAUX"
	ParamCAMUThreshold = "CAMU_SEUIL"

	ParamExonerationRate = "EXO_PRIMES_TAUX"

	ParamOvertimeDayFirst     = "HS_JOUR_1_TAUX"
	ParamOvertimeDayNext      = "HS_JOUR_2_TAUX"
	ParamOvertimeNightWorking = "HS_NUIT_OUVREE_TAUX"
	ParamOvertimeRestDay      = "HS_REPOS_JOUR_TAUX"
	ParamOvertimeRestNight    = "HS_REPOS_NUIT_TAUX"

	ParamRetirementShortMultiple = "RETRAITE_MULT_COURT"
	ParamRetirementLongMultiple  = "RETRAITE_MULT_LONG"
	ParamWorkforceReductionRate  = "COMPRESSION_TAUX"
	ParamMaternityEmployerShare  = "MATERNITE_PART_EMPLOYEUR"
	ParamWeeksPerMonth           = "SEMAINES_PAR_MOIS"
	ParamSeniorityBonusRate      = "ANCIENNETE_TAUX_PAR_AN"
)

// =============================================================================
// PARAMETER VERSIONS
// =============================================================================

// ParameterVersion is one immutable version of a tenant-scoped fiscal
// setting. Multiple versions of the same code coexist; exactly one must be
// effective for any given period.
type ParameterVersion struct {
	ID        string
	TenantID  TenantID
	Code      string
	Value     decimal.Decimal
	DateEffet time.Time
	DateFin   *time.Time // nil = open-ended
}

// EffectiveOn reports whether this version applies as of the given date.
func (v ParameterVersion) EffectiveOn(asOf time.Time) bool {
	if v.DateEffet.After(asOf) {
		return false
	}
	return v.DateFin == nil || !v.DateFin.Before(asOf)
}

// ParameterSource supplies all versions of a code for a tenant. Implemented
// by the SQLite store and the in-memory test store.
type ParameterSource interface {
	VersionsOf(ctx context.Context, tenant TenantID, code string) ([]ParameterVersion, error)
}

// DefaultSet is an explicit fallback value set. Only demo and test wiring
// ever constructs one; production resolvers carry nil.
type DefaultSet map[string]decimal.Decimal

// =============================================================================
// RESOLVER
// =============================================================================

// Resolver answers "what is the value of code X for tenant T in period P".
type Resolver struct {
	Source   ParameterSource
	Defaults DefaultSet // nil in production
}

func NewResolver(source ParameterSource) *Resolver {
	return &Resolver{Source: source}
}

// NewResolverWithDefaults builds a resolver that falls back to the given
// defaults when no version exists. Demo/test wiring only.
func NewResolverWithDefaults(source ParameterSource, defaults DefaultSet) *Resolver {
	return &Resolver{Source: source, Defaults: defaults}
}

// Resolve returns the value of code effective for the tenant as of asOf.
func (r *Resolver) Resolve(ctx context.Context, tenant TenantID, code string, asOf time.Time) (decimal.Decimal, error) {
	versions, err := r.Source.VersionsOf(ctx, tenant, code)
	if err != nil {
		return decimal.Zero, err
	}

	// Latest dateEffet wins among effective versions. Two effective
	// versions sharing that dateEffet have no winner: the configuration
	// is ambiguous and resolution fails instead of picking one silently.
	sort.Slice(versions, func(i, j int) bool {
		return versions[i].DateEffet.Before(versions[j].DateEffet)
	})
	for i := len(versions) - 1; i >= 0; i-- {
		if !versions[i].EffectiveOn(asOf) {
			continue
		}
		for j := i - 1; j >= 0 && versions[j].DateEffet.Equal(versions[i].DateEffet); j-- {
			if versions[j].EffectiveOn(asOf) {
				return decimal.Zero, &AmbiguousParameterError{TenantID: tenant, Code: code, DateEffet: versions[i].DateEffet}
			}
		}
		return versions[i].Value, nil
	}

	if r.Defaults != nil {
		if v, ok := r.Defaults[code]; ok {
			return v, nil
		}
	}
	return decimal.Zero, &ParameterNotFoundError{TenantID: tenant, Code: code, AsOf: asOf}
}

// ResolveMany resolves every code against the same as-of date. All-or-nothing:
// any missing code fails the whole batch.
func (r *Resolver) ResolveMany(ctx context.Context, tenant TenantID, codes []string, asOf time.Time) (map[string]decimal.Decimal, error) {
	out := make(map[string]decimal.Decimal, len(codes))
	for _, code := range codes {
		v, err := r.Resolve(ctx, tenant, code, asOf)
		if err != nil {
			return nil, err
		}
		out[code] = v
	}
	return out, nil
}
