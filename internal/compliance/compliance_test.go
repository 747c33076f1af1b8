package compliance

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/rshade/carbonledger/internal/engine"
	"github.com/rshade/carbonledger/internal/factors"
	"github.com/rshade/carbonledger/internal/kpi"
	"github.com/rshade/carbonledger/internal/quality"
)

func intPtr(v int) *int { return &v }

func sampleResult() engine.Result {
	return engine.Result{
		TotalCO2e: 700,
		Scopes: []engine.ScopeTotal{
			{Category: "scope1", TotalCO2e: 268},
			{Category: "scope2", TotalCO2e: 432},
		},
	}
}

func tableByName(t *testing.T, tables []Table, name string) Table {
	t.Helper()
	for _, table := range tables {
		if table.Name == name {
			return table
		}
	}
	t.Fatalf("table %q not built", name)
	return Table{}
}

func TestBuildProducesSixTables(t *testing.T) {
	tables := Build(sampleResult(), Options{})

	require.Len(t, tables, 6)
	names := make([]string, 0, len(tables))
	for _, table := range tables {
		names = append(names, table.Name)
	}
	assert.Equal(t, []string{
		"GHG Scope Table", "Emission Factor Provenance", "Assumptions",
		"Change Log", "Intensity KPI", "Data Quality",
	}, names)
}

func TestScopeTableCarriesMetadata(t *testing.T) {
	tables := Build(sampleResult(), Options{Metadata: Metadata{
		ReportingYear: "2025",
		Organization:  "Acme Corp",
	}})

	scope := tableByName(t, tables, "GHG Scope Table")
	require.Len(t, scope.Rows, 2)
	assert.Equal(t, []string{"scope1", "268", "GHG Protocol", "2025", "Acme Corp"}, scope.Rows[0])
}

func TestScopeTableFallsBackToTotalRow(t *testing.T) {
	tables := Build(engine.Result{TotalCO2e: 42}, Options{})

	scope := tableByName(t, tables, "GHG Scope Table")
	require.Len(t, scope.Rows, 1)
	assert.Equal(t, "total", scope.Rows[0][0])
	assert.Equal(t, "42", scope.Rows[0][1])
}

func TestFactorProvenanceTable(t *testing.T) {
	tables := Build(sampleResult(), Options{Factors: []factors.Record{{
		Activity: "diesel", Unit: "l", EmissionFactor: 2.68,
		Scope: "scope1", Region: "eu", Year: intPtr(2024),
		Source: "DEFRA", Version: "v2", Active: true,
	}}})

	provenance := tableByName(t, tables, "Emission Factor Provenance")
	require.Len(t, provenance.Rows, 1)
	assert.Equal(t, "diesel", provenance.Rows[0][0])
	assert.Equal(t, "2024", provenance.Rows[0][6])
	assert.Equal(t, "true", provenance.Rows[0][9])
}

func TestPlaceholderRows(t *testing.T) {
	tables := Build(sampleResult(), Options{})

	assumptions := tableByName(t, tables, "Assumptions")
	require.Len(t, assumptions.Rows, 1)
	assert.Equal(t, "No explicit assumptions provided", assumptions.Rows[0][0])

	changes := tableByName(t, tables, "Change Log")
	require.Len(t, changes.Rows, 1)
	assert.Equal(t, "Initial report generation", changes.Rows[0][0])
}

func TestIntensityAndQualityTables(t *testing.T) {
	report := quality.Report{Score: 95.5, RowCount: 12, Issues: []quality.Issue{{Issue: "Duplicate rows", Count: 2}}}
	tables := Build(sampleResult(), Options{
		Intensity: []kpi.Metric{{Name: "tCO2e_per_unit", Value: 0.5}},
		Quality:   &report,
	})

	intensity := tableByName(t, tables, "Intensity KPI")
	require.Len(t, intensity.Rows, 1)
	assert.Equal(t, []string{"tCO2e_per_unit", "0.5"}, intensity.Rows[0])

	qualityTable := tableByName(t, tables, "Data Quality")
	require.Len(t, qualityTable.Rows, 1)
	assert.Equal(t, []string{"95.5", "12", "1"}, qualityTable.Rows[0])
}
