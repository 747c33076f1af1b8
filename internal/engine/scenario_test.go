package engine

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func baselineRecords() []ActivityRecord {
	return []ActivityRecord{
		record("scope1", "fuel combustion", "l", 100, floatPtr(2.68)),
		record("scope2", "electricity", "kwh", 1000, floatPtr(0.4)),
		record("scope3", "transport", "km", 500, floatPtr(0.12)),
	}
}

func TestRunScenarioScopeReduction(t *testing.T) {
	result, err := RunScenario(baselineRecords(), ScenarioOptions{
		ScopeReductions: map[string]float64{"scope2": 50},
	}, Options{})
	require.NoError(t, err)

	// Baseline: 268 + 400 + 60 = 728; scope2 halved removes 200.
	assert.InDelta(t, 728.0, result.BaselineTotal, 1e-9)
	assert.InDelta(t, 528.0, result.ScenarioTotal, 1e-9)
	assert.InDelta(t, 200.0, result.Abatement, 1e-9)
	assert.InDelta(t, 200.0/728.0*100, result.AbatementPct, 1e-9)
}

func TestRunScenarioScopeKeyNormalization(t *testing.T) {
	result, err := RunScenario(baselineRecords(), ScenarioOptions{
		ScopeReductions: map[string]float64{"Scope 2": 50},
	}, Options{})
	require.NoError(t, err)
	assert.InDelta(t, 528.0, result.ScenarioTotal, 1e-9)
}

func TestRunScenarioActivityReduction(t *testing.T) {
	result, err := RunScenario(baselineRecords(), ScenarioOptions{
		ActivityReductions: map[string]float64{" Transport ": 100},
	}, Options{})
	require.NoError(t, err)

	assert.InDelta(t, 668.0, result.ScenarioTotal, 1e-9)
}

func TestRunScenarioCompoundReductions(t *testing.T) {
	// A row matched by both a scope and an activity reduction is
	// reduced twice: 100 * 0.5 * 0.5 = 25 units of fuel.
	result, err := RunScenario(baselineRecords(), ScenarioOptions{
		ScopeReductions:    map[string]float64{"scope1": 50},
		ActivityReductions: map[string]float64{"fuel combustion": 50},
	}, Options{})
	require.NoError(t, err)

	assert.InDelta(t, 25*2.68+400+60, result.ScenarioTotal, 1e-9)
}

func TestRunScenarioClampsPercentages(t *testing.T) {
	tests := []struct {
		name string
		pct  float64
		want float64
	}{
		{name: "over 100 clamps to full reduction", pct: 250, want: 328.0},
		{name: "negative clamps to no-op", pct: -10, want: 728.0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			result, err := RunScenario(baselineRecords(), ScenarioOptions{
				ScopeReductions: map[string]float64{"scope2": tt.pct},
			}, Options{})
			require.NoError(t, err)
			assert.InDelta(t, tt.want, result.ScenarioTotal, 1e-9)
		})
	}
}

// Scenario monotonicity: any reduction in (0, 100] on a positive
// baseline strictly lowers the total.
func TestRunScenarioMonotonicity(t *testing.T) {
	for _, pct := range []float64{0.5, 10, 50, 99.9, 100} {
		result, err := RunScenario(baselineRecords(), ScenarioOptions{
			ScopeReductions: map[string]float64{
				"scope1": pct, "scope2": pct, "scope3": pct,
			},
		}, Options{})
		require.NoError(t, err)

		assert.Less(t, result.ScenarioTotal, result.BaselineTotal, "pct=%v", pct)
		assert.Greater(t, result.Abatement, 0.0, "pct=%v", pct)
	}
}

func TestRunScenarioTarget(t *testing.T) {
	target := 600.0
	result, err := RunScenario(baselineRecords(), ScenarioOptions{
		ScopeReductions: map[string]float64{"scope2": 50},
		TargetTotal:     &target,
	}, Options{})
	require.NoError(t, err)

	require.NotNil(t, result.MeetsTarget)
	assert.True(t, *result.MeetsTarget)

	tight := 100.0
	result, err = RunScenario(baselineRecords(), ScenarioOptions{
		TargetTotal: &tight,
	}, Options{})
	require.NoError(t, err)

	require.NotNil(t, result.MeetsTarget)
	assert.False(t, *result.MeetsTarget)
}

func TestRunScenarioNoTarget(t *testing.T) {
	result, err := RunScenario(baselineRecords(), ScenarioOptions{}, Options{})
	require.NoError(t, err)
	assert.Nil(t, result.MeetsTarget)

	// No reductions: abatement is zero, not negative.
	assert.InDelta(t, 0.0, result.Abatement, 1e-9)
	assert.InDelta(t, 0.0, result.AbatementPct, 1e-9)
}

func TestRunScenarioEmptyBaseline(t *testing.T) {
	_, err := RunScenario(nil, ScenarioOptions{}, Options{})
	assert.ErrorIs(t, err, ErrEmptyInput)
}

func TestRunScenarioComparisonTable(t *testing.T) {
	result, err := RunScenario(baselineRecords(), ScenarioOptions{
		ScopeReductions: map[string]float64{"scope2": 50},
	}, Options{})
	require.NoError(t, err)

	require.Len(t, result.Comparison, 3)
	assert.Equal(t, "Baseline Total", result.Comparison[0].Metric)
	assert.Equal(t, "Scenario Total", result.Comparison[1].Metric)
	assert.Equal(t, "Abatement", result.Comparison[2].Metric)
	assert.InDelta(t, result.Abatement, result.Comparison[2].TCO2e, 1e-9)
}

func TestRunScenarioDoesNotMutateInput(t *testing.T) {
	records := baselineRecords()
	_, err := RunScenario(records, ScenarioOptions{
		ScopeReductions: map[string]float64{"scope1": 50},
	}, Options{})
	require.NoError(t, err)

	assert.Equal(t, 100.0, records[0].Amount)
}
