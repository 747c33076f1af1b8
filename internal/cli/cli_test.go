package cli

import (
	"bytes"
	"os"
	"path/filepath"
	"testing"

	json "github.com/goccy/go-json"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// execute runs the root command with args and returns stdout.
func execute(t *testing.T, args ...string) (string, error) {
	t.Helper()

	dir := t.TempDir()
	base := []string{
		"--config", filepath.Join(dir, "absent.yaml"),
		"--db", filepath.Join(dir, "carbonledger.db"),
	}

	cmd := NewRootCmd("test")
	out := &bytes.Buffer{}
	errOut := &bytes.Buffer{}
	cmd.SetOut(out)
	cmd.SetErr(errOut)
	cmd.SetArgs(append(base, args...))

	err := cmd.Execute()
	return out.String(), err
}

func writeActivityCSV(t *testing.T, dir string) string {
	t.Helper()
	path := filepath.Join(dir, "activities.csv")
	content := "category,activity,unit,amount,emission_factor\n" +
		"scope1,Diesel,L,100,2.68\n" +
		"scope2,Electricity,kWh,1000,0.4\n" +
		"scope3,Freight,km,500,0.12\n"
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}

func TestCalcCommandJSON(t *testing.T) {
	csv := writeActivityCSV(t, t.TempDir())

	out, err := execute(t, "calc", "--input", csv, "--format", "json")
	require.NoError(t, err)

	var payload struct {
		Result struct {
			TotalCO2e float64 `json:"total_co2e"`
		} `json:"result"`
	}
	require.NoError(t, json.Unmarshal([]byte(out), &payload))
	assert.InDelta(t, 728.0, payload.Result.TotalCO2e, 1e-9)
}

func TestCalcCommandTable(t *testing.T) {
	csv := writeActivityCSV(t, t.TempDir())

	out, err := execute(t, "calc", "--input", csv)
	require.NoError(t, err)
	assert.Contains(t, out, "Emissions Summary")
	assert.Contains(t, out, "Scope Breakdown")
	assert.Contains(t, out, "Diesel")
}

func TestCalcCommandRequiresInput(t *testing.T) {
	_, err := execute(t, "calc")
	require.Error(t, err)
}

func TestCalcCommandQuality(t *testing.T) {
	csv := writeActivityCSV(t, t.TempDir())

	out, err := execute(t, "calc", "--input", csv, "--quality")
	require.NoError(t, err)
	assert.Contains(t, out, "Data Quality")
	assert.Contains(t, out, "No issues detected")
}

func TestCalcCommandExportDir(t *testing.T) {
	dir := t.TempDir()
	csv := writeActivityCSV(t, dir)
	exportDir := filepath.Join(dir, "report")

	_, err := execute(t, "calc", "--input", csv, "--export-dir", exportDir)
	require.NoError(t, err)

	entries, err := os.ReadDir(exportDir)
	require.NoError(t, err)
	names := make([]string, 0, len(entries))
	for _, e := range entries {
		names = append(names, e.Name())
	}
	assert.Contains(t, names, "Emissions Summary.csv")
	assert.Contains(t, names, "Scope Breakdown.csv")
}

func TestScenarioCommand(t *testing.T) {
	csv := writeActivityCSV(t, t.TempDir())

	out, err := execute(t, "scenario", "--input", csv,
		"--reduce-scope", "scope2=50", "--target", "600", "--format", "json")
	require.NoError(t, err)

	var result struct {
		BaselineTotal float64 `json:"baseline_total"`
		ScenarioTotal float64 `json:"scenario_total"`
		MeetsTarget   *bool   `json:"meets_target"`
	}
	require.NoError(t, json.Unmarshal([]byte(out), &result))
	assert.InDelta(t, 728.0, result.BaselineTotal, 1e-9)
	assert.InDelta(t, 528.0, result.ScenarioTotal, 1e-9)
	require.NotNil(t, result.MeetsTarget)
	assert.True(t, *result.MeetsTarget)
}

func TestScenarioCommandRejectsBadReduction(t *testing.T) {
	csv := writeActivityCSV(t, t.TempDir())

	_, err := execute(t, "scenario", "--input", csv, "--reduce-scope", "scope2")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "key=percent")
}

func TestLCACommand(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "stages.csv")
	content := "stage,amount,emission_factor\n" +
		"materials,10,2.0\n" +
		"transport,5,1.0\n" +
		"processing,4,1.25\n" +
		"end-of-life,2,3.0\n"
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))

	out, err := execute(t, "lca", "--input", path, "--boundary", "cradle-to-gate", "--format", "json")
	require.NoError(t, err)

	var result struct {
		TotalEmissions float64 `json:"total_emissions"`
	}
	require.NoError(t, json.Unmarshal([]byte(out), &result))
	assert.InDelta(t, 30.0, result.TotalEmissions, 1e-9)
}

func TestManualCommand(t *testing.T) {
	out, err := execute(t, "manual", "--fuel-litres", "100", "--format", "json")
	require.NoError(t, err)

	var result struct {
		TotalCO2e float64 `json:"total_co2e"`
	}
	require.NoError(t, json.Unmarshal([]byte(out), &result))
	assert.InDelta(t, 268.0, result.TotalCO2e, 1e-9)
}

func TestManualCommandAllZero(t *testing.T) {
	_, err := execute(t, "manual")
	require.Error(t, err)
}

func TestParseReductions(t *testing.T) {
	parsed, err := parseReductions([]string{"scope1=25", "Grid Electricity=50.5"})
	require.NoError(t, err)
	assert.Equal(t, 25.0, parsed["scope1"])
	assert.Equal(t, 50.5, parsed["Grid Electricity"])

	_, err = parseReductions([]string{"=10"})
	assert.Error(t, err)

	_, err = parseReductions([]string{"scope1=abc"})
	assert.Error(t, err)

	parsed, err = parseReductions(nil)
	require.NoError(t, err)
	assert.Nil(t, parsed)
}
