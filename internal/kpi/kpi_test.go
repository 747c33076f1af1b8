package kpi

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestIntensityAllDenominators(t *testing.T) {
	metrics := Intensity(500_000, Inputs{
		ProductionUnits: 1000,
		RevenueUSD:      2_000_000,
		Employees:       50,
	})

	require.Len(t, metrics, 3)
	assert.Equal(t, "tCO2e_per_unit", metrics[0].Name)
	assert.InDelta(t, 0.5, metrics[0].Value, 1e-9)
	assert.Equal(t, "tCO2e_per_musd", metrics[1].Name)
	assert.InDelta(t, 250.0, metrics[1].Value, 1e-9)
	assert.Equal(t, "tCO2e_per_employee", metrics[2].Name)
	assert.InDelta(t, 10.0, metrics[2].Value, 1e-9)
}

func TestIntensitySkipsNonPositiveDenominators(t *testing.T) {
	metrics := Intensity(500_000, Inputs{ProductionUnits: 1000, Employees: -3})

	require.Len(t, metrics, 1)
	assert.Equal(t, "tCO2e_per_unit", metrics[0].Name)
}

func TestIntensityNoDenominators(t *testing.T) {
	assert.Empty(t, Intensity(500_000, Inputs{}))
}
