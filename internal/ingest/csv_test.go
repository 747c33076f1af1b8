package ingest

import (
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseCSVHeaderAliases(t *testing.T) {
	input := strings.Join([]string{
		"Scope,Activity Name,UoM,Quantity,EF,Data Source",
		"Scope 1,Diesel Generator,L,100,2.68,fleet audit",
	}, "\n")

	result, err := ParseCSV(strings.NewReader(input), "audit.csv", nil)
	require.NoError(t, err)
	require.Len(t, result.Records, 1)

	record := result.Records[0]
	assert.Equal(t, "scope1", record.Category)
	assert.Equal(t, "Diesel Generator", record.Activity)
	assert.Equal(t, "L", record.Unit)
	assert.Equal(t, 100.0, record.Amount)
	require.NotNil(t, record.EmissionFactor)
	assert.Equal(t, 2.68, *record.EmissionFactor)
	assert.Equal(t, "fleet audit", record.Source)
	assert.Empty(t, result.Warnings)
}

func TestParseCSVMissingColumnsNamesFileAndColumns(t *testing.T) {
	input := "category,activity,unit,amount\nscope1,Diesel,L,100"

	_, err := ParseCSV(strings.NewReader(input), "sites.csv", nil)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "sites.csv")
	assert.Contains(t, err.Error(), "emission_factor")
}

func TestParseCSVMissingSeveralColumns(t *testing.T) {
	_, err := ParseCSV(strings.NewReader("activity,amount\nDiesel,100"), "partial.csv", nil)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "category, unit, emission_factor")
}

func TestParseCSVNumericCoercion(t *testing.T) {
	input := strings.Join([]string{
		"category,activity,unit,amount,emission_factor",
		"scope1,Diesel,L,not-a-number,2.68",
		"scope1,Petrol,L,50,abc",
		"scope2,Electricity,kWh,120,0.4",
	}, "\n")

	result, err := ParseCSV(strings.NewReader(input), "mixed.csv", nil)
	require.NoError(t, err)
	require.Len(t, result.Records, 1)
	assert.Equal(t, "Electricity", result.Records[0].Activity)
	require.Len(t, result.Warnings, 1)
	assert.Contains(t, result.Warnings[0], "2 row(s)")
	assert.Contains(t, result.Warnings[0], "mixed.csv")
}

func TestParseCSVEmptyFactorIsResolvableGap(t *testing.T) {
	input := strings.Join([]string{
		"category,activity,unit,amount,emission_factor",
		"scope2,Electricity,kWh,120,",
	}, "\n")

	result, err := ParseCSV(strings.NewReader(input), "gaps.csv", nil)
	require.NoError(t, err)
	require.Len(t, result.Records, 1)
	assert.Nil(t, result.Records[0].EmissionFactor)
	assert.Empty(t, result.Warnings)
}

func TestParseCSVDropsRowsMissingIdentity(t *testing.T) {
	input := strings.Join([]string{
		"category,activity,unit,amount,emission_factor",
		",Diesel,L,100,2.68",
		"scope1,,L,100,2.68",
		"scope1,Diesel,,100,2.68",
		"scope1,Diesel,L,100,2.68",
	}, "\n")

	result, err := ParseCSV(strings.NewReader(input), "identity.csv", nil)
	require.NoError(t, err)
	assert.Len(t, result.Records, 1)
	assert.Empty(t, result.Warnings)
}

func TestParseCSVSourceDefaultsToFileName(t *testing.T) {
	input := "category,activity,unit,amount,emission_factor\nscope1,Diesel,L,100,2.68"

	result, err := ParseCSV(strings.NewReader(input), "plant-a.csv", nil)
	require.NoError(t, err)
	require.Len(t, result.Records, 1)
	assert.Equal(t, "plant-a.csv", result.Records[0].Source)
}

func TestParseCSVSecondaryGasColumns(t *testing.T) {
	input := strings.Join([]string{
		"category,activity,unit,amount,emission_factor,ch4_factor,n2o_factor",
		"scope1,Diesel,L,100,2.68,0.0001,junk",
	}, "\n")

	result, err := ParseCSV(strings.NewReader(input), "gases.csv", nil)
	require.NoError(t, err)
	require.Len(t, result.Records, 1)
	assert.Equal(t, 0.0001, result.Records[0].CH4)
	assert.Zero(t, result.Records[0].N2O)
}

func TestParseFilesMergesInPathOrder(t *testing.T) {
	dir := t.TempDir()
	first := filepath.Join(dir, "first.csv")
	second := filepath.Join(dir, "second.csv")
	require.NoError(t, os.WriteFile(first,
		[]byte("category,activity,unit,amount,emission_factor\nscope1,Diesel,L,100,2.68\n"), 0o644))
	require.NoError(t, os.WriteFile(second,
		[]byte("category,activity,unit,amount,emission_factor\nscope2,Electricity,kWh,50,0.4\n"), 0o644))

	result, err := ParseFiles(context.Background(), []string{first, second}, nil)
	require.NoError(t, err)
	require.Len(t, result.Records, 2)
	assert.Equal(t, "Diesel", result.Records[0].Activity)
	assert.Equal(t, "Electricity", result.Records[1].Activity)
}

func TestParseFilesDemotesPartialFailures(t *testing.T) {
	dir := t.TempDir()
	good := filepath.Join(dir, "good.csv")
	bad := filepath.Join(dir, "bad.csv")
	require.NoError(t, os.WriteFile(good,
		[]byte("category,activity,unit,amount,emission_factor\nscope1,Diesel,L,100,2.68\n"), 0o644))
	require.NoError(t, os.WriteFile(bad, []byte("no,usable,headers\n1,2,3\n"), 0o644))

	result, err := ParseFiles(context.Background(), []string{good, bad}, nil)
	require.NoError(t, err)
	assert.Len(t, result.Records, 1)
	require.NotEmpty(t, result.Warnings)
	assert.Contains(t, strings.Join(result.Warnings, "\n"), "bad.csv")
}

func TestParseFilesAllFailed(t *testing.T) {
	dir := t.TempDir()
	bad := filepath.Join(dir, "bad.csv")
	require.NoError(t, os.WriteFile(bad, []byte("no,usable,headers\n1,2,3\n"), 0o644))

	_, err := ParseFiles(context.Background(), []string{bad, filepath.Join(dir, "absent.csv")}, nil)
	require.ErrorIs(t, err, ErrNoParsableFiles)
}

func TestParseLCACSV(t *testing.T) {
	input := strings.Join([]string{
		"Lifecycle Stage,Amount,Emission Factor",
		"materials,10,2.0",
		"transport,5,oops",
		"processing,4,1.5",
	}, "\n")

	items, warnings, err := ParseLCACSV(strings.NewReader(input), "stages.csv", nil)
	require.NoError(t, err)
	require.Len(t, items, 2)
	assert.Equal(t, "materials", items[0].Stage)
	assert.Equal(t, 10.0, items[0].Amount)
	require.Len(t, warnings, 1)
	assert.Contains(t, warnings[0], "1 row(s)")
}

func TestParseLCACSVMissingColumns(t *testing.T) {
	_, _, err := ParseLCACSV(strings.NewReader("stage,amount\nmaterials,1"), "stages.csv", nil)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "emission_factor")
}
