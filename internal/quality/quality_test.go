package quality

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/rshade/carbonledger/internal/engine"
)

func floatPtr(v float64) *float64 { return &v }

func record(category, activity, unit string, amount float64, factor *float64) engine.ActivityRecord {
	return engine.ActivityRecord{
		Category: category, Activity: activity, Unit: unit,
		Amount: amount, EmissionFactor: factor,
	}
}

func TestAssessEmptyDataset(t *testing.T) {
	report := Assess(nil)

	assert.Zero(t, report.Score)
	assert.Zero(t, report.RowCount)
	require.Len(t, report.Issues, 1)
	assert.Equal(t, "Empty dataset", report.Issues[0].Issue)
}

func TestAssessCleanDataset(t *testing.T) {
	records := []engine.ActivityRecord{
		record("scope1", "Diesel", "L", 100, floatPtr(2.68)),
		record("scope2", "Electricity", "kWh", 1000, floatPtr(0.4)),
		record("scope3", "Freight", "km", 500, floatPtr(0.12)),
	}

	report := Assess(records)

	assert.Equal(t, 100.0, report.Score)
	assert.Equal(t, 3, report.RowCount)
	require.Len(t, report.Issues, 1)
	assert.Equal(t, "No issues detected", report.Issues[0].Issue)
	assert.Zero(t, report.Issues[0].Count)
}

func TestAssessMissingRequiredCountsPerCell(t *testing.T) {
	records := []engine.ActivityRecord{
		record("", "", "L", 100, floatPtr(2.68)),
		record("scope1", "Diesel", "L", 50, nil),
	}

	report := Assess(records)

	found := issueCount(report, "Missing required values")
	assert.Equal(t, 3, found)
	// 100 - 3*1.2 (missing) - 1*2.0 (nil factor)
	assert.InDelta(t, 94.4, report.Score, 1e-9)
}

func TestAssessNilFactorCountsTwice(t *testing.T) {
	records := []engine.ActivityRecord{
		record("scope1", "Diesel", "L", 100, nil),
	}

	report := Assess(records)

	assert.Equal(t, 1, issueCount(report, "Missing required values"))
	assert.Equal(t, 1, issueCount(report, "Non-numeric emission_factor"))
	assert.InDelta(t, 96.8, report.Score, 1e-9)
}

func TestAssessNonNumericAmount(t *testing.T) {
	records := []engine.ActivityRecord{
		record("scope1", "Diesel", "L", math.NaN(), floatPtr(2.68)),
		record("scope1", "Petrol", "L", 50, floatPtr(2.31)),
	}

	report := Assess(records)

	assert.Equal(t, 1, issueCount(report, "Non-numeric amount"))
}

func TestAssessDuplicateRows(t *testing.T) {
	r := record("scope1", "Diesel", "L", 100, floatPtr(2.68))
	report := Assess([]engine.ActivityRecord{r, r, r})

	assert.Equal(t, 2, issueCount(report, "Duplicate rows"))
	assert.InDelta(t, 97.0, report.Score, 1e-9)
}

func TestAssessNegativeAmounts(t *testing.T) {
	records := []engine.ActivityRecord{
		record("scope1", "Diesel", "L", -10, floatPtr(2.68)),
		record("scope1", "Petrol", "L", 50, floatPtr(2.31)),
	}

	report := Assess(records)

	assert.Equal(t, 1, issueCount(report, "Negative amount values"))
}

func TestAssessOutliersNeedFourSamples(t *testing.T) {
	records := []engine.ActivityRecord{
		record("scope1", "A", "L", 1, floatPtr(1)),
		record("scope1", "B", "L", 2, floatPtr(1)),
		record("scope1", "C", "L", 1000, floatPtr(1)),
	}

	report := Assess(records)

	assert.Zero(t, issueCount(report, "Potential outliers"))
}

func TestAssessOutliersDetected(t *testing.T) {
	records := []engine.ActivityRecord{
		record("scope1", "A", "L", 10, floatPtr(1)),
		record("scope1", "B", "L", 11, floatPtr(1.1)),
		record("scope1", "C", "L", 12, floatPtr(0.9)),
		record("scope1", "D", "L", 13, floatPtr(1.05)),
		record("scope1", "E", "L", 10000, floatPtr(1.02)),
	}

	report := Assess(records)

	assert.GreaterOrEqual(t, issueCount(report, "Potential outliers"), 1)
}

func TestAssessPenaltyCaps(t *testing.T) {
	var records []engine.ActivityRecord
	for i := 0; i < 50; i++ {
		records = append(records, record("", "", "", math.NaN(), nil))
	}

	report := Assess(records)

	// 100 - 25 (missing) - 20 - 20 (numeric) - 15 (duplicates) = 20.
	assert.InDelta(t, 20.0, report.Score, 1e-9)
}

func issueCount(report Report, name string) int {
	for _, issue := range report.Issues {
		if issue.Issue == name {
			return issue.Count
		}
	}
	return 0
}
