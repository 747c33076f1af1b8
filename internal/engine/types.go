// Package engine implements the emissions quantification core: unit
// normalization, factor resolution, multi-gas CO2e blending, and
// category/activity aggregation, plus reduction scenarios built on the
// same primitive.
//
// All computation is synchronous and stateless between invocations:
// each call receives its full input and returns a complete result with
// no shared mutable state.
package engine

import (
	"strings"

	"github.com/rshade/carbonledger/internal/factors"
	"github.com/rshade/carbonledger/internal/units"
)

// Global-warming-potential multipliers (100-year, AR5). These are part
// of the external contract: changing them breaks reproducibility of
// every stored historical total.
const (
	// CH4GWP converts methane mass to CO2e.
	CH4GWP = 28.0

	// N2OGWP converts nitrous oxide mass to CO2e.
	N2OGWP = 265.0
)

// ActivityRecord is one row of quantification input.
type ActivityRecord struct {
	// Category is the scope tag (scope1/scope2/scope3 or free-form).
	Category string `json:"category"`

	// Activity is the free-text activity name.
	Activity string `json:"activity"`

	// Unit is the physical unit of Amount.
	Unit string `json:"unit"`

	// Amount is the non-negative activity quantity.
	Amount float64 `json:"amount"`

	// EmissionFactor is the CO2 factor per unit. Nil means missing;
	// the resolver may fill it from the factor library. Rows whose
	// factor stays nil are dropped from the aggregate.
	EmissionFactor *float64 `json:"emission_factor"`

	// CH4 and N2O are optional per-gas factors (mass per unit).
	CH4 float64 `json:"ch4"`
	N2O float64 `json:"n2o"`

	// Source labels where the row came from (sheet, file, form).
	Source string `json:"source"`

	// Provenance records where the emission factor came from. Zero
	// until the record passes through a calculation.
	Provenance factors.Provenance `json:"provenance"`
}

// ScopeAliases maps free-form scope labels to canonical categories.
// Injectable so tests can substitute alternate taxonomies.
type ScopeAliases map[string]string

// DefaultScopeAliases returns the built-in scope synonym table.
func DefaultScopeAliases() ScopeAliases {
	return ScopeAliases{
		"scope1": "scope1", "scope_1": "scope1", "scope 1": "scope1", "s1": "scope1",
		"scope2": "scope2", "scope_2": "scope2", "scope 2": "scope2", "s2": "scope2",
		"scope3": "scope3", "scope_3": "scope3", "scope 3": "scope3", "s3": "scope3",
	}
}

// Normalize maps a free-form scope label to its canonical category.
// Unrecognized labels pass through verbatim (trimmed and lowercased),
// they are not rejected.
func (a ScopeAliases) Normalize(label string) string {
	key := strings.ToLower(strings.TrimSpace(label))
	if canonical, ok := a[key]; ok {
		return canonical
	}
	return key
}

// Options configures one calculation.
type Options struct {
	// Factors is the factor library used to fill missing emission
	// factors. Nil or empty skips resolution entirely.
	Factors []factors.Record

	// Region filters library factors; GlobalRegion candidates always
	// qualify. Empty disables the region filter.
	Region string

	// Year filters library factors; year-agnostic candidates always
	// qualify. Nil disables the year filter.
	Year *int

	// UnitTable overrides the conversion table. Nil means
	// units.DefaultTable.
	UnitTable units.Table

	// Aliases overrides the scope synonym table. Nil means
	// DefaultScopeAliases.
	Aliases ScopeAliases
}

// DetailRow is one surviving record with its computed contributions.
type DetailRow struct {
	ActivityRecord

	CO2eCO2   float64 `json:"co2e_co2"`
	CO2eCH4   float64 `json:"co2e_ch4"`
	CO2eN2O   float64 `json:"co2e_n2o"`
	TotalCO2e float64 `json:"total_co2e"`
}

// ActivityTotal is one (category, activity) summary row.
type ActivityTotal struct {
	Category  string  `json:"category"`
	Activity  string  `json:"activity"`
	Amount    float64 `json:"amount"`
	TotalCO2e float64 `json:"total_co2e"`

	// SharePct is this row's share of the grand total, in percent.
	// Zero when the grand total is zero.
	SharePct float64 `json:"share_pct"`
}

// ScopeTotal is one category-level summary row.
type ScopeTotal struct {
	Category  string  `json:"category"`
	TotalCO2e float64 `json:"total_co2e"`
}

// ProvenanceRow summarizes factor provenance across rows sharing the
// same (activity, unit, source, version, region).
type ProvenanceRow struct {
	Activity      string  `json:"activity"`
	Unit          string  `json:"unit"`
	FactorSource  string  `json:"factor_source"`
	FactorVersion string  `json:"factor_version"`
	FactorRegion  string  `json:"factor_region"`
	MeanFactor    float64 `json:"emission_factor"`
	Rows          int     `json:"rows"`
}

// Result is the complete output of one calculation. It is owned by the
// caller for the duration of that calculation and never shared across
// concurrent calculations.
type Result struct {
	// TotalCO2e is the grand total across all surviving rows.
	TotalCO2e float64 `json:"total_co2e"`

	// Summary aggregates by (category, activity), sorted descending by
	// total CO2e so the largest contributors come first.
	Summary []ActivityTotal `json:"summary"`

	// Scopes aggregates by category, sorted by category name.
	Scopes []ScopeTotal `json:"scopes"`

	// ByScope maps each category to its total.
	ByScope map[string]float64 `json:"by_scope"`

	// Provenance summarizes the factors actually used.
	Provenance []ProvenanceRow `json:"provenance"`

	// Warnings lists soft data-quality issues (unknown units, applied
	// conversions). Empty means no issues; never an error channel.
	Warnings []string `json:"warnings"`

	// Detail holds the surviving rows with per-gas contributions.
	Detail []DetailRow `json:"detail"`
}
