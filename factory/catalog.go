/*
Package factory provides JSON to Go rubrique-catalog conversion and demo
seed data.

PURPOSE:
  Converts JSON pay-line definitions into payroll.Rubrique values. This
  enables catalog configuration without code changes - an administrator
  can define a tenant's pay lines in JSON, and the factory validates and
  creates the proper Go structs.

JSON SCHEMA:
  {
    "code": "1210",
    "label": "Heures sup jour (suivantes)",
    "category": "gain_imposable",
    "kind": "heures_sup",
    "tier": "jour_suivantes",
    "taxable": true,
    "active": true
  }

KEY FEATURES:
  - Validates codes, categories, kinds, and tier/formula coherence
  - Formula strings are checked against the constant-expression grammar
    at parse time, not at first payslip computation

USAGE:
  rubs, err := factory.ParseCatalog(jsonBytes)

SEE ALSO:
  - payroll/types.go: Rubrique definition
  - demo.go: the built-in demo catalog
*/
package factory

import (
	"encoding/json"
	"fmt"

	"github.com/warp/payroll-engine/engine"
	"github.com/warp/payroll-engine/payroll"
)

// =============================================================================
// JSON SCHEMA TYPES
// =============================================================================

// RubriqueJSON is the JSON representation of one catalog entry.
type RubriqueJSON struct {
	Code         string `json:"code"`
	Label        string `json:"label"`
	Category     string `json:"category"`
	Kind         string `json:"kind"`
	Tier         string `json:"tier,omitempty"`
	Formula      string `json:"formula,omitempty"`
	Taxable      bool   `json:"taxable"`
	PlafondArt38 bool   `json:"plafond_art38,omitempty"`
	Active       *bool  `json:"active,omitempty"` // default true
}

var validCategories = map[payroll.Category]bool{
	payroll.CategoryTaxableGain:         true,
	payroll.CategoryNonTaxableGain:      true,
	payroll.CategoryContribution:        true,
	payroll.CategoryNonTaxableDeduction: true,
}

var validKinds = map[payroll.RubriqueKind]bool{
	payroll.KindBaseSalary:         true,
	payroll.KindSeniorityBonus:     true,
	payroll.KindOvertime:           true,
	payroll.KindManual:             true,
	payroll.KindFormula:            true,
	payroll.KindRetirement:         true,
	payroll.KindDismissal:          true,
	payroll.KindWorkforceReduction: true,
	payroll.KindMaternity:          true,
	payroll.KindYearEndBonus:       true,
	payroll.KindCNSS:               true,
	payroll.KindCAMU:               true,
	payroll.KindFamilyAllowance:    true,
	payroll.KindWorkAccident:       true,
	payroll.KindPayrollTax:         true,
	payroll.KindIRPP:               true,
}

var validTiers = map[engine.OvertimeTier]bool{
	engine.TierDayFirst:     true,
	engine.TierDayNext:      true,
	engine.TierNightWorking: true,
	engine.TierRestDay:      true,
	engine.TierRestNight:    true,
}

// =============================================================================
// PARSING
// =============================================================================

// ParseRubrique validates and converts one JSON catalog entry.
func ParseRubrique(data []byte) (payroll.Rubrique, error) {
	var rj RubriqueJSON
	if err := json.Unmarshal(data, &rj); err != nil {
		return payroll.Rubrique{}, &engine.ValidationError{Field: "rubrique", Reason: err.Error()}
	}
	return rubriqueFromJSON(rj)
}

// ParseCatalog validates and converts a JSON array of catalog entries.
// Codes must be unique within the catalog.
func ParseCatalog(data []byte) ([]payroll.Rubrique, error) {
	var rjs []RubriqueJSON
	if err := json.Unmarshal(data, &rjs); err != nil {
		return nil, &engine.ValidationError{Field: "catalog", Reason: err.Error()}
	}
	seen := make(map[string]bool, len(rjs))
	out := make([]payroll.Rubrique, 0, len(rjs))
	for _, rj := range rjs {
		rub, err := rubriqueFromJSON(rj)
		if err != nil {
			return nil, err
		}
		if seen[rub.Code] {
			return nil, &engine.ValidationError{Field: "catalog", Reason: fmt.Sprintf("duplicate code %s", rub.Code)}
		}
		seen[rub.Code] = true
		out = append(out, rub)
	}
	return out, nil
}

func rubriqueFromJSON(rj RubriqueJSON) (payroll.Rubrique, error) {
	if rj.Code == "" {
		return payroll.Rubrique{}, &engine.ValidationError{Field: "code", Reason: "required"}
	}
	cat := payroll.Category(rj.Category)
	if !validCategories[cat] {
		return payroll.Rubrique{}, &engine.ValidationError{Field: "category", Reason: fmt.Sprintf("%s: unknown category %q", rj.Code, rj.Category)}
	}
	kind := payroll.RubriqueKind(rj.Kind)
	if !validKinds[kind] {
		return payroll.Rubrique{}, &engine.ValidationError{Field: "kind", Reason: fmt.Sprintf("%s: unknown kind %q", rj.Code, rj.Kind)}
	}

	tier := engine.OvertimeTier(rj.Tier)
	switch {
	case kind == payroll.KindOvertime && !validTiers[tier]:
		return payroll.Rubrique{}, &engine.ValidationError{Field: "tier", Reason: fmt.Sprintf("%s: overtime rubrique needs a valid tier", rj.Code)}
	case kind != payroll.KindOvertime && rj.Tier != "":
		return payroll.Rubrique{}, &engine.ValidationError{Field: "tier", Reason: fmt.Sprintf("%s: tier only applies to overtime", rj.Code)}
	}

	switch {
	case kind == payroll.KindFormula && rj.Formula == "":
		return payroll.Rubrique{}, &engine.ValidationError{Field: "formula", Reason: fmt.Sprintf("%s: formula rubrique needs a formula", rj.Code)}
	case kind != payroll.KindFormula && rj.Formula != "":
		return payroll.Rubrique{}, &engine.ValidationError{Field: "formula", Reason: fmt.Sprintf("%s: formula only applies to formula rubriques", rj.Code)}
	}
	if kind == payroll.KindFormula {
		// Reject malformed formulas at configuration time, not payday.
		if _, err := engine.EvalConstExpr(rj.Formula); err != nil {
			return payroll.Rubrique{}, err
		}
	}

	active := true
	if rj.Active != nil {
		active = *rj.Active
	}
	return payroll.Rubrique{
		Code:         rj.Code,
		Label:        rj.Label,
		Category:     cat,
		Kind:         kind,
		Tier:         tier,
		Formula:      rj.Formula,
		Taxable:      rj.Taxable,
		PlafondArt38: rj.PlafondArt38,
		Active:       active,
	}, nil
}
