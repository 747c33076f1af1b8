// Package quality scores the integrity of an activity dataset before
// quantification. The score starts at 100 and loses capped penalties
// per issue class so one noisy column cannot zero out the report.
package quality

import (
	"math"
	"sort"
	"strconv"
	"strings"

	"github.com/rshade/carbonledger/internal/engine"
)

// Issue is one detected data problem with its occurrence count.
type Issue struct {
	Issue string `json:"issue"`
	Count int    `json:"count"`
}

// Report summarizes dataset integrity.
type Report struct {
	Score    float64 `json:"score"`
	RowCount int     `json:"row_count"`
	Issues   []Issue `json:"issues"`
}

// Penalty caps and per-occurrence weights by issue class.
const (
	missingCap, missingWeight   = 25.0, 1.2
	numericCap, numericWeight   = 20.0, 2.0
	dupCap, dupWeight           = 15.0, 1.5
	negativeCap, negativeWeight = 15.0, 3.0
	outlierCap, outlierWeight   = 10.0, 1.0
)

// Assess inspects records as ingested, before the engine drops invalid
// rows, and returns the integrity report.
func Assess(records []engine.ActivityRecord) Report {
	if len(records) == 0 {
		return Report{Score: 0, RowCount: 0, Issues: []Issue{{Issue: "Empty dataset", Count: 1}}}
	}

	report := Report{RowCount: len(records)}
	score := 100.0

	penalize := func(issue string, count int, weight, cap float64) {
		if count == 0 {
			return
		}
		report.Issues = append(report.Issues, Issue{Issue: issue, Count: count})
		score -= math.Min(cap, float64(count)*weight)
	}

	penalize("Missing required values", countMissingRequired(records), missingWeight, missingCap)
	penalize("Non-numeric amount", countBadAmounts(records), numericWeight, numericCap)
	penalize("Non-numeric emission_factor", countBadFactors(records), numericWeight, numericCap)
	penalize("Duplicate rows", countDuplicates(records), dupWeight, dupCap)
	penalize("Negative amount values", countNegativeAmounts(records), negativeWeight, negativeCap)
	penalize("Potential outliers", countOutliers(records), outlierWeight, outlierCap)

	report.Score = math.Max(0, math.Round(score*100)/100)
	if len(report.Issues) == 0 {
		report.Issues = []Issue{{Issue: "No issues detected", Count: 0}}
	}
	return report
}

// countMissingRequired counts empty required cells across all rows,
// one per missing field rather than one per row.
func countMissingRequired(records []engine.ActivityRecord) int {
	count := 0
	for _, r := range records {
		for _, field := range []string{r.Category, r.Activity, r.Unit} {
			if strings.TrimSpace(field) == "" {
				count++
			}
		}
		if !finite(r.Amount) {
			count++
		}
		if r.EmissionFactor == nil || !finite(*r.EmissionFactor) {
			count++
		}
	}
	return count
}

func countBadAmounts(records []engine.ActivityRecord) int {
	count := 0
	for _, r := range records {
		if !finite(r.Amount) {
			count++
		}
	}
	return count
}

func countBadFactors(records []engine.ActivityRecord) int {
	count := 0
	for _, r := range records {
		if r.EmissionFactor == nil || !finite(*r.EmissionFactor) {
			count++
		}
	}
	return count
}

func countDuplicates(records []engine.ActivityRecord) int {
	seen := make(map[string]bool, len(records))
	count := 0
	for _, r := range records {
		factor := "nil"
		if r.EmissionFactor != nil {
			factor = strconv.FormatFloat(*r.EmissionFactor, 'g', -1, 64)
		}
		key := strings.Join([]string{
			r.Category, r.Activity, r.Unit,
			strconv.FormatFloat(r.Amount, 'g', -1, 64),
			factor,
			strconv.FormatFloat(r.CH4, 'g', -1, 64),
			strconv.FormatFloat(r.N2O, 'g', -1, 64),
			r.Source,
		}, "\x1f")
		if seen[key] {
			count++
		}
		seen[key] = true
	}
	return count
}

func countNegativeAmounts(records []engine.ActivityRecord) int {
	count := 0
	for _, r := range records {
		if finite(r.Amount) && r.Amount < 0 {
			count++
		}
	}
	return count
}

// countOutliers flags values outside 1.5×IQR of each numeric column.
// Columns with fewer than four usable samples or a degenerate IQR are
// skipped.
func countOutliers(records []engine.ActivityRecord) int {
	amounts := make([]float64, 0, len(records))
	factorValues := make([]float64, 0, len(records))
	for _, r := range records {
		if finite(r.Amount) {
			amounts = append(amounts, r.Amount)
		}
		if r.EmissionFactor != nil && finite(*r.EmissionFactor) {
			factorValues = append(factorValues, *r.EmissionFactor)
		}
	}
	return columnOutliers(amounts) + columnOutliers(factorValues)
}

func columnOutliers(values []float64) int {
	if len(values) < 4 {
		return 0
	}
	sorted := append([]float64(nil), values...)
	sort.Float64s(sorted)

	q1 := quantile(sorted, 0.25)
	q3 := quantile(sorted, 0.75)
	iqr := q3 - q1
	if iqr <= 0 {
		return 0
	}
	lower := q1 - 1.5*iqr
	upper := q3 + 1.5*iqr

	count := 0
	for _, v := range values {
		if v < lower || v > upper {
			count++
		}
	}
	return count
}

// quantile interpolates linearly between order statistics, matching
// the conventional linear-interpolation definition.
func quantile(sorted []float64, q float64) float64 {
	pos := q * float64(len(sorted)-1)
	low := int(math.Floor(pos))
	high := int(math.Ceil(pos))
	if low == high {
		return sorted[low]
	}
	frac := pos - float64(low)
	return sorted[low]*(1-frac) + sorted[high]*frac
}

func finite(v float64) bool {
	return !math.IsNaN(v) && !math.IsInf(v, 0)
}
