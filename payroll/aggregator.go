/*
aggregator.go - Payroll aggregator

PURPOSE:
  Runs the full gross-to-net pipeline for one employee and period and
  persists exactly one immutable payslip. All-or-nothing: the first
  calculator error aborts the computation with nothing persisted.

PIPELINE:
  1. Parse and validate the period, reject duplicates up front
  2. Load employee snapshot and the active rubrique catalog
  3. Resolve every needed fiscal parameter at the period start,
     all-or-nothing
  4. Phase one: gain lines (salary, bonuses, overtime, indemnities)
  5. Article 38 split: exempt bonuses up to the cap, excess re-enters
     the taxable base
  6. Phase two: contributions and IRPP, reading the gain totals
  7. Phase three: manual employee-side deductions
  8. Total, reconcile, persist

STATE MACHINE:
  NotStarted -> Computing -> Computed | Failed. Computed is terminal;
  Failed is never persisted (the payslip simply does not exist).

CONCURRENCY:
  Each computation is a synchronous chain over data resolved for the
  period; computations for different employees share no mutable state.
  The (employee, period) uniqueness race is settled transactionally by
  the store: of two concurrent attempts exactly one succeeds.
*/
package payroll

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	"github.com/warp/payroll-engine/engine"
)

// maxBatchSize bounds one batch-generation call.
const maxBatchSize = 50

// =============================================================================
// AGGREGATOR
// =============================================================================

type Aggregator struct {
	params     *engine.Resolver
	brackets   engine.BracketSource
	quotients  engine.QuotientSource
	catalog    CatalogSource
	employees  EmployeeSource
	payslips   PayslipStore
	dispatcher *Dispatcher
	log        *zap.Logger
}

// AggregatorConfig wires the aggregator's collaborators.
type AggregatorConfig struct {
	Params    *engine.Resolver
	Brackets  engine.BracketSource
	Quotients engine.QuotientSource
	Scales    engine.ScaleSource
	Catalog   CatalogSource
	Employees EmployeeSource
	Payslips  PayslipStore
	Logger    *zap.Logger
}

func NewAggregator(cfg AggregatorConfig) *Aggregator {
	log := cfg.Logger
	if log == nil {
		log = zap.NewNop()
	}
	return &Aggregator{
		params:     cfg.Params,
		brackets:   cfg.Brackets,
		quotients:  cfg.Quotients,
		catalog:    cfg.Catalog,
		employees:  cfg.Employees,
		payslips:   cfg.Payslips,
		dispatcher: NewDispatcher(cfg.Scales),
		log:        log,
	}
}

// ComputeInput is one payslip computation request.
type ComputeInput struct {
	TenantID   engine.TenantID
	EmployeeID engine.EmployeeID
	Period     string // YYYY-MM
	Entries    []Entry

	// DeductibleCharges are caller-declared charges deducted from the
	// taxable base before IRPP, on top of the employee CNSS share.
	DeductibleCharges engine.Money

	// JoursTravailles is the declared days-worked count for the period,
	// nil when not submitted. Validated against the period's calendar and
	// recorded on the payslip.
	JoursTravailles *int
}

// =============================================================================
// SINGLE COMPUTATION
// =============================================================================

// Compute runs the pipeline and persists the payslip. On error, nothing is
// persisted.
func (a *Aggregator) Compute(ctx context.Context, in ComputeInput) (*Payslip, error) {
	period, err := engine.ParsePeriod(in.Period)
	if err != nil {
		return nil, err
	}

	exists, err := a.payslips.Exists(ctx, in.TenantID, in.EmployeeID, period.String())
	if err != nil {
		return nil, err
	}
	if exists {
		return nil, &engine.ConflictError{EmployeeID: in.EmployeeID, Period: period.String()}
	}

	if in.DeductibleCharges.IsNegative() {
		return nil, &engine.ValidationError{Field: "deductibleCharges", Reason: "negative amount"}
	}
	if in.JoursTravailles != nil {
		if *in.JoursTravailles < 1 || *in.JoursTravailles > period.End().Day() {
			return nil, &engine.ValidationError{
				Field:  "joursTravailles",
				Reason: fmt.Sprintf("%d outside 1..%d for period %s", *in.JoursTravailles, period.End().Day(), period),
			}
		}
	}

	emp, err := a.employees.EmployeeByID(ctx, in.TenantID, in.EmployeeID)
	if err != nil {
		return nil, err
	}
	if !emp.Active {
		return nil, &engine.ValidationError{Field: "employee", Reason: fmt.Sprintf("%s is deactivated", in.EmployeeID)}
	}
	if emp.BaseSalary.IsNegative() {
		return nil, &engine.ValidationError{Field: "baseSalary", Reason: "negative salary"}
	}
	if emp.Avg12MonthSalary.IsNegative() {
		return nil, &engine.ValidationError{Field: "avg12MonthSalary", Reason: "negative salary"}
	}

	rubriques, err := a.catalog.ActiveRubriques(ctx, in.TenantID)
	if err != nil {
		return nil, err
	}
	entries, err := indexEntries(in.Entries, rubriques)
	if err != nil {
		return nil, err
	}

	params, err := a.resolveParams(ctx, in.TenantID, rubriques, period)
	if err != nil {
		return nil, err
	}

	a.log.Info("payslip computation started",
		zap.String("tenant", string(in.TenantID)),
		zap.String("employee", string(in.EmployeeID)),
		zap.String("period", period.String()))

	p := &Payslip{
		ID:              uuid.NewString(),
		TenantID:        in.TenantID,
		EmployeeID:      in.EmployeeID,
		Period:          period.String(),
		Status:          StatusComputing,
		JoursTravailles: in.JoursTravailles,
	}

	dc := &DispatchContext{
		Employee:          emp,
		Period:            period,
		Params:            params,
		Entries:           entries,
		DeductibleCharges: in.DeductibleCharges,
	}

	if err := a.runPipeline(ctx, p, rubriques, dc); err != nil {
		p.Status = StatusFailed
		a.log.Warn("payslip computation failed",
			zap.String("employee", string(in.EmployeeID)),
			zap.String("period", period.String()),
			zap.Error(err))
		return nil, err
	}

	p.Status = StatusComputed
	p.ComputedAt = time.Now().UTC()
	if err := a.payslips.Save(ctx, p); err != nil {
		if engine.IsConflict(err) {
			// Lost the race to a concurrent computation.
			return nil, &engine.ConflictError{EmployeeID: in.EmployeeID, Period: period.String()}
		}
		return nil, err
	}

	a.log.Info("payslip computed",
		zap.String("employee", string(in.EmployeeID)),
		zap.String("period", period.String()),
		zap.Int64("brut_social", p.BrutSocial.Int64()),
		zap.Int64("net_a_payer", p.NetAPayer.Int64()),
		zap.Int64("cout_employeur", p.CoutEmployeur.Int64()))
	return p, nil
}

// runPipeline fills the payslip's lines and totals. It mutates p only;
// persistence stays with the caller.
func (a *Aggregator) runPipeline(ctx context.Context, p *Payslip, rubriques []Rubrique, dc *DispatchContext) error {
	// ----- Phase one: gains -----
	brutSocial := engine.Zero()
	taxableGains := engine.Zero()
	bonusArt38 := engine.Zero()
	for _, rub := range rubriques {
		if PhaseOf(rub) != PhaseGain {
			continue
		}
		l, err := a.dispatcher.Dispatch(ctx, rub, dc)
		if err != nil {
			return err
		}
		if l == nil {
			continue
		}
		p.Lines = append(p.Lines, *l)
		brutSocial = brutSocial.Add(l.Amount)
		if rub.Taxable {
			taxableGains = taxableGains.Add(l.Amount)
		}
		if rub.PlafondArt38 {
			bonusArt38 = bonusArt38.Add(l.Amount)
		}
	}

	// ----- Article 38: split designated bonuses at the cap -----
	brutFiscal := taxableGains
	if bonusArt38.IsPositive() {
		rate, ok := dc.Params[engine.ParamExonerationRate]
		if !ok {
			return &engine.InvariantError{Reason: "exoneration rate not resolved"}
		}
		exo := engine.ApplyExoneration(brutSocial, bonusArt38, rate)
		brutFiscal = taxableGains.Add(exo.ExcessTaxable)
	}
	dc.BrutSocial = brutSocial
	dc.BrutFiscal = brutFiscal

	// ----- Phase two: contributions, then IRPP last -----
	var irppRub *Rubrique
	for i, rub := range rubriques {
		if PhaseOf(rub) != PhaseContribution {
			continue
		}
		if rub.Kind == KindIRPP {
			irppRub = &rubriques[i]
			continue
		}
		l, err := a.dispatcher.Dispatch(ctx, rub, dc)
		if err != nil {
			return err
		}
		if l == nil {
			continue
		}
		p.Lines = append(p.Lines, *l)
		if rub.Kind == KindCNSS {
			dc.CNSSEmployee = l.Amount
		}
	}
	if irppRub != nil {
		if err := a.prepareIRPP(ctx, dc); err != nil {
			return err
		}
		l, err := a.dispatcher.Dispatch(ctx, *irppRub, dc)
		if err != nil {
			return err
		}
		if l != nil {
			p.Lines = append(p.Lines, *l)
		}
	}

	// ----- Phase three: manual employee-side deductions -----
	for _, rub := range rubriques {
		if PhaseOf(rub) != PhaseDeduction {
			continue
		}
		l, err := a.dispatcher.Dispatch(ctx, rub, dc)
		if err != nil {
			return err
		}
		if l != nil {
			p.Lines = append(p.Lines, *l)
		}
	}

	return a.total(p, brutSocial, brutFiscal)
}

// prepareIRPP resolves the family quotient and bracket table into dc.
func (a *Aggregator) prepareIRPP(ctx context.Context, dc *DispatchContext) error {
	rows, err := a.quotients.QuotientRowsAsOf(ctx, dc.Employee.TenantID, dc.Period.Start())
	if err != nil {
		return err
	}
	parts, err := engine.ResolveQuotient(rows, dc.Employee.MaritalStatus, dc.Employee.Children)
	if err != nil {
		return err
	}
	brackets, err := a.brackets.BracketsAsOf(ctx, dc.Employee.TenantID, dc.Period.Start())
	if err != nil {
		return err
	}
	dc.Parts = parts
	dc.Brackets = brackets
	return nil
}

// total sums the lines into the payslip totals and re-checks them against
// an independent pass over the lines.
func (a *Aggregator) total(p *Payslip, brutSocial, brutFiscal engine.Money) error {
	retenues := engine.Zero()
	charges := engine.Zero()
	gains := engine.Zero()
	for _, l := range p.Lines {
		switch {
		case l.Category.IsGain():
			gains = gains.Add(l.Amount)
		default:
			retenues = retenues.Add(l.Amount)
		}
		charges = charges.Add(l.EmployerAmount)
	}

	if !gains.Equal(brutSocial) {
		return &engine.InvariantError{Reason: fmt.Sprintf("gain lines sum to %s, brut social is %s", gains, brutSocial)}
	}
	if brutFiscal.GreaterThan(brutSocial) {
		return &engine.InvariantError{Reason: "brut fiscal exceeds brut social"}
	}

	p.BrutSocial = brutSocial
	p.BrutFiscal = brutFiscal
	p.TotalRetenues = retenues
	p.TotalChargesPatronales = charges
	p.NetAPayer = brutSocial.Sub(retenues)
	p.CoutEmployeur = brutSocial.Add(charges)

	// net + retenues must reconstruct the gross exactly.
	if !p.NetAPayer.Add(p.TotalRetenues).Equal(p.BrutSocial) {
		return &engine.InvariantError{Reason: "net plus retenues does not reconcile to brut social"}
	}
	return nil
}

// resolveParams unions the parameter needs of the active catalog and
// resolves them against the period start, all-or-nothing.
func (a *Aggregator) resolveParams(ctx context.Context, tenant engine.TenantID, rubriques []Rubrique, period engine.Period) (map[string]decimal.Decimal, error) {
	seen := make(map[string]bool)
	var codes []string
	add := func(code string) {
		if !seen[code] {
			seen[code] = true
			codes = append(codes, code)
		}
	}
	for _, rub := range rubriques {
		for _, code := range ParamsFor(rub) {
			add(code)
		}
		if rub.PlafondArt38 {
			add(engine.ParamExonerationRate)
		}
	}
	return a.params.ResolveMany(ctx, tenant, codes, period.Start())
}

// indexEntries validates the submitted entries against the active catalog
// and indexes them by code. An entry for a code absent from the catalog is
// rejected before any calculator runs.
func indexEntries(entries []Entry, rubriques []Rubrique) (map[string]Entry, error) {
	known := make(map[string]bool, len(rubriques))
	for _, rub := range rubriques {
		known[rub.Code] = true
	}
	out := make(map[string]Entry, len(entries))
	for _, e := range entries {
		if !known[e.Code] {
			return nil, fmt.Errorf("%w: %s", engine.ErrUnknownRubrique, e.Code)
		}
		out[e.Code] = e
	}
	return out, nil
}

// =============================================================================
// BATCH COMPUTATION
// =============================================================================

// BatchResult is the per-employee outcome of a batch run.
type BatchResult struct {
	EmployeeID engine.EmployeeID
	Payslip    *Payslip
	Err        error
}

// ComputeBatch generates payslips for a bounded set of employees,
// sequentially and with per-employee isolation: one employee's failure
// never rolls back payslips already committed for the others.
func (a *Aggregator) ComputeBatch(ctx context.Context, tenant engine.TenantID, period string, employees []engine.EmployeeID, entries map[engine.EmployeeID][]Entry) ([]BatchResult, error) {
	if len(employees) == 0 {
		return nil, &engine.ValidationError{Field: "employees", Reason: "empty batch"}
	}
	if len(employees) > maxBatchSize {
		return nil, &engine.ValidationError{Field: "employees", Reason: fmt.Sprintf("batch of %d exceeds the %d-employee limit", len(employees), maxBatchSize)}
	}

	results := make([]BatchResult, 0, len(employees))
	for _, id := range employees {
		p, err := a.Compute(ctx, ComputeInput{
			TenantID:   tenant,
			EmployeeID: id,
			Period:     period,
			Entries:    entries[id],
		})
		results = append(results, BatchResult{EmployeeID: id, Payslip: p, Err: err})
	}
	return results, nil
}
