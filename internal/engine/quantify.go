package engine

import (
	"math"
	"sort"

	"github.com/rshade/carbonledger/internal/factors"
	"github.com/rshade/carbonledger/internal/units"
)

// Calculate quantifies CO2e for a batch of activity records.
//
// Pipeline: unit normalization (collecting warnings), factor
// resolution against opts.Factors when supplied, numeric validation
// (rows with a missing factor or a non-finite or negative amount or
// factor are dropped, not zeroed), per-row GWP blending, then
// aggregation by (category, activity), by scope, and by factor
// provenance.
//
// Returns ErrEmptyInput for an empty batch and ErrNoValidRows when
// validation drops every row.
func Calculate(records []ActivityRecord, opts Options) (*Result, error) {
	if len(records) == 0 {
		return nil, ErrEmptyInput
	}

	table := opts.UnitTable
	if table == nil {
		table = units.DefaultTable()
	}
	aliases := opts.Aliases
	if aliases == nil {
		aliases = DefaultScopeAliases()
	}

	working := normalizeUnits(records, table)
	normalizer := working.normalizer

	if len(opts.Factors) > 0 {
		lib := normalizeFactorUnits(opts.Factors, table)
		lookup := factors.BuildLookup(factors.Prepare(lib, opts.Region, opts.Year))
		resolve(working.rows, lookup)
	} else {
		for i := range working.rows {
			if working.rows[i].Provenance == (factors.Provenance{}) {
				working.rows[i].Provenance = factors.UserProvenance()
			}
		}
	}

	detail := make([]DetailRow, 0, len(working.rows))
	for _, row := range working.rows {
		if !validRow(row) {
			continue
		}
		row.Category = aliases.Normalize(row.Category)

		co2 := row.Amount * *row.EmissionFactor
		ch4 := row.Amount * row.CH4 * CH4GWP
		n2o := row.Amount * row.N2O * N2OGWP
		detail = append(detail, DetailRow{
			ActivityRecord: row,
			CO2eCO2:        co2,
			CO2eCH4:        ch4,
			CO2eN2O:        n2o,
			TotalCO2e:      co2 + ch4 + n2o,
		})
	}

	if len(detail) == 0 {
		return nil, ErrNoValidRows
	}

	result := &Result{
		Warnings: normalizer.Warnings(),
		Detail:   detail,
	}
	aggregate(result)
	return result, nil
}

// workingSet pairs the normalized row copies with the unit normalizer
// that accumulated their warnings.
type workingSet struct {
	rows       []ActivityRecord
	normalizer *units.Normalizer
}

// normalizeUnits rewrites each record to its canonical unit, adjusting
// the paired emission factor so amount*factor is preserved. The input
// slice is never mutated.
func normalizeUnits(records []ActivityRecord, table units.Table) workingSet {
	n := units.NewNormalizer(table)
	rows := make([]ActivityRecord, len(records))
	for i, r := range records {
		amount, unit, factor := n.Apply(i+1, r.Amount, r.Unit, r.EmissionFactor)
		r.Amount = amount
		r.Unit = unit
		r.EmissionFactor = factor
		rows[i] = r
	}
	return workingSet{rows: rows, normalizer: n}
}

// normalizeFactorUnits aligns library unit labels with the canonical
// labels produced by unit normalization so lookups are unit-consistent.
func normalizeFactorUnits(lib []factors.Record, table units.Table) []factors.Record {
	out := make([]factors.Record, len(lib))
	for i, r := range lib {
		r.Unit = units.Canonical(r.Unit, table)
		out[i] = r
	}
	return out
}

// resolve fills missing emission factors from the lookup and tags
// provenance. Records that already carry a factor are never
// overwritten; their provenance stays user_input because no library
// factor was used for them.
func resolve(rows []ActivityRecord, lookup factors.Lookup) {
	for i := range rows {
		if rows[i].EmissionFactor != nil {
			rows[i].Provenance = factors.UserProvenance()
			continue
		}
		match, ok := lookup.Find(rows[i].Activity, rows[i].Unit)
		if !ok {
			// Unresolved and absent: left nil, dropped in validation.
			rows[i].Provenance = factors.UserProvenance()
			continue
		}
		ef := match.EmissionFactor
		rows[i].EmissionFactor = &ef
		rows[i].Provenance = factors.Provenance{
			Source:  match.Source,
			Version: match.Version,
			Region:  match.Region,
		}
	}
}

// validRow reports whether a row survives numeric validation: factor
// present, amount and factor finite and non-negative.
func validRow(r ActivityRecord) bool {
	if r.EmissionFactor == nil {
		return false
	}
	for _, v := range []float64{r.Amount, *r.EmissionFactor, r.CH4, r.N2O} {
		if math.IsNaN(v) || math.IsInf(v, 0) {
			return false
		}
	}
	return r.Amount >= 0 && *r.EmissionFactor >= 0
}

// aggregate fills the summary tables from result.Detail.
func aggregate(result *Result) {
	type activityKey struct{ category, activity string }
	type provKey struct{ activity, unit, source, version, region string }

	activityTotals := make(map[activityKey]*ActivityTotal)
	activityOrder := make([]activityKey, 0)
	scopeTotals := make(map[string]float64)
	provTotals := make(map[provKey]*ProvenanceRow)
	provSums := make(map[provKey]float64)

	for _, row := range result.Detail {
		result.TotalCO2e += row.TotalCO2e
		scopeTotals[row.Category] += row.TotalCO2e

		ak := activityKey{row.Category, row.Activity}
		if _, ok := activityTotals[ak]; !ok {
			activityTotals[ak] = &ActivityTotal{Category: ak.category, Activity: ak.activity}
			activityOrder = append(activityOrder, ak)
		}
		activityTotals[ak].Amount += row.Amount
		activityTotals[ak].TotalCO2e += row.TotalCO2e

		pk := provKey{
			activity: row.Activity,
			unit:     row.Unit,
			source:   row.Provenance.Source,
			version:  row.Provenance.Version,
			region:   row.Provenance.Region,
		}
		if _, ok := provTotals[pk]; !ok {
			provTotals[pk] = &ProvenanceRow{
				Activity:      pk.activity,
				Unit:          pk.unit,
				FactorSource:  pk.source,
				FactorVersion: pk.version,
				FactorRegion:  pk.region,
			}
		}
		provTotals[pk].Rows++
		provSums[pk] += *row.EmissionFactor
	}

	result.Summary = make([]ActivityTotal, 0, len(activityOrder))
	for _, k := range activityOrder {
		result.Summary = append(result.Summary, *activityTotals[k])
	}
	sort.SliceStable(result.Summary, func(i, j int) bool {
		return result.Summary[i].TotalCO2e > result.Summary[j].TotalCO2e
	})
	if result.TotalCO2e != 0 {
		for i := range result.Summary {
			result.Summary[i].SharePct = result.Summary[i].TotalCO2e / result.TotalCO2e * 100.0
		}
	}

	result.ByScope = scopeTotals
	result.Scopes = make([]ScopeTotal, 0, len(scopeTotals))
	for category, total := range scopeTotals {
		result.Scopes = append(result.Scopes, ScopeTotal{Category: category, TotalCO2e: total})
	}
	sort.Slice(result.Scopes, func(i, j int) bool {
		return result.Scopes[i].Category < result.Scopes[j].Category
	})

	result.Provenance = make([]ProvenanceRow, 0, len(provTotals))
	for pk, row := range provTotals {
		row.MeanFactor = provSums[pk] / float64(row.Rows)
		result.Provenance = append(result.Provenance, *row)
	}
	sort.Slice(result.Provenance, func(i, j int) bool {
		a, b := result.Provenance[i], result.Provenance[j]
		if a.Activity != b.Activity {
			return a.Activity < b.Activity
		}
		if a.Unit != b.Unit {
			return a.Unit < b.Unit
		}
		return a.FactorSource < b.FactorSource
	})
}
