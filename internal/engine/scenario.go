package engine

import (
	"math"
	"strings"
)

// ScenarioOptions configures a reduction scenario.
type ScenarioOptions struct {
	// ScopeReductions maps scope keys to reduction percentages applied
	// to every row whose normalized category matches the key.
	// Percentages are clamped to [0, 100].
	ScopeReductions map[string]float64

	// ActivityReductions maps activity names to reduction percentages
	// applied to every row whose normalized activity matches the key.
	// Applied after the scope pass, so a row matched by both compounds.
	ActivityReductions map[string]float64

	// TargetTotal, when set, is compared against the scenario total to
	// report target compliance.
	TargetTotal *float64
}

// MetricRow is one line of the baseline/scenario comparison table.
type MetricRow struct {
	Metric string  `json:"metric"`
	TCO2e  float64 `json:"tco2e"`
}

// ScenarioResult compares a baseline calculation against the same
// records with reductions applied.
type ScenarioResult struct {
	Baseline *Result `json:"baseline"`
	Scenario *Result `json:"scenario"`

	BaselineTotal float64 `json:"baseline_total"`
	ScenarioTotal float64 `json:"scenario_total"`

	// Abatement is baseline minus scenario; AbatementPct is its share
	// of the baseline (0 when the baseline is 0).
	Abatement    float64 `json:"abatement"`
	AbatementPct float64 `json:"abatement_pct"`

	// MeetsTarget is nil when no target was supplied, otherwise
	// scenario_total <= target.
	MeetsTarget *bool    `json:"meets_target,omitempty"`
	TargetTotal *float64 `json:"target_total,omitempty"`

	// Adjusted is the record set after reductions, as fed to the
	// scenario calculation.
	Adjusted []ActivityRecord `json:"adjusted"`

	// Comparison holds the baseline/scenario/abatement table.
	Comparison []MetricRow `json:"comparison"`
}

// clampPct limits a reduction percentage to [0, 100].
func clampPct(pct float64) float64 {
	return math.Min(100, math.Max(0, pct))
}

// scopeKey normalizes a scope reduction key: lowercase with spaces
// stripped, so "Scope 1" and "scope1" address the same rows.
func scopeKey(s string) string {
	return strings.ReplaceAll(strings.ToLower(s), " ", "")
}

// RunScenario computes baseline totals, applies scope-level then
// activity-level percentage reductions to the record amounts, and
// recomputes totals on the adjusted set.
//
// Both reduction passes multiply the amount by (1 - pct/100); a row
// matched by a scope key and an activity key is reduced twice.
// Fails with ErrEmptyInput on an empty baseline.
func RunScenario(records []ActivityRecord, opts ScenarioOptions, calcOpts Options) (*ScenarioResult, error) {
	if len(records) == 0 {
		return nil, ErrEmptyInput
	}

	baseline, err := Calculate(records, calcOpts)
	if err != nil {
		return nil, err
	}

	adjusted := make([]ActivityRecord, len(records))
	copy(adjusted, records)

	for scope, pct := range opts.ScopeReductions {
		multiplier := 1 - clampPct(pct)/100
		key := scopeKey(scope)
		for i := range adjusted {
			if scopeKey(adjusted[i].Category) == key {
				adjusted[i].Amount *= multiplier
			}
		}
	}

	for activity, pct := range opts.ActivityReductions {
		multiplier := 1 - clampPct(pct)/100
		key := strings.ToLower(strings.TrimSpace(activity))
		for i := range adjusted {
			if strings.ToLower(strings.TrimSpace(adjusted[i].Activity)) == key {
				adjusted[i].Amount *= multiplier
			}
		}
	}

	scenario, err := Calculate(adjusted, calcOpts)
	if err != nil {
		return nil, err
	}

	abatement := baseline.TotalCO2e - scenario.TotalCO2e
	abatementPct := 0.0
	if baseline.TotalCO2e != 0 {
		abatementPct = abatement / baseline.TotalCO2e * 100
	}

	result := &ScenarioResult{
		Baseline:      baseline,
		Scenario:      scenario,
		BaselineTotal: baseline.TotalCO2e,
		ScenarioTotal: scenario.TotalCO2e,
		Abatement:     abatement,
		AbatementPct:  abatementPct,
		TargetTotal:   opts.TargetTotal,
		Adjusted:      adjusted,
		Comparison: []MetricRow{
			{Metric: "Baseline Total", TCO2e: baseline.TotalCO2e},
			{Metric: "Scenario Total", TCO2e: scenario.TotalCO2e},
			{Metric: "Abatement", TCO2e: abatement},
		},
	}

	if opts.TargetTotal != nil {
		meets := scenario.TotalCO2e <= *opts.TargetTotal
		result.MeetsTarget = &meets
	}

	return result, nil
}
