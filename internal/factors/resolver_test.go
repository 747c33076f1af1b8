package factors

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func intPtr(i int) *int { return &i }

func TestFilterRegion(t *testing.T) {
	records := []Record{
		{Activity: "diesel", Unit: "l", EmissionFactor: 2.7, Region: "us"},
		{Activity: "diesel", Unit: "l", EmissionFactor: 2.6, Region: "eu"},
		{Activity: "diesel", Unit: "l", EmissionFactor: 2.68, Region: GlobalRegion},
	}

	tests := []struct {
		name        string
		region      string
		wantRegions []string
	}{
		{
			name:        "region keeps match and global fallback",
			region:      "us",
			wantRegions: []string{"us", "global"},
		},
		{
			name:        "region matching is case-insensitive",
			region:      " US ",
			wantRegions: []string{"us", "global"},
		},
		{
			name:        "unknown region still sees global",
			region:      "apac",
			wantRegions: []string{"global"},
		},
		{
			name:        "empty region keeps everything",
			region:      "",
			wantRegions: []string{"us", "eu", "global"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			kept := Filter(records, tt.region, nil)
			regions := make([]string, 0, len(kept))
			for _, r := range kept {
				regions = append(regions, r.Region)
			}
			assert.Equal(t, tt.wantRegions, regions)
		})
	}
}

func TestFilterYear(t *testing.T) {
	records := []Record{
		{Activity: "grid", Unit: "kwh", EmissionFactor: 0.4, Year: intPtr(2023)},
		{Activity: "grid", Unit: "kwh", EmissionFactor: 0.38, Year: intPtr(2024)},
		{Activity: "grid", Unit: "kwh", EmissionFactor: 0.42},
	}

	kept := Filter(records, "", intPtr(2024))
	require.Len(t, kept, 2)
	assert.Equal(t, 0.38, kept[0].EmissionFactor)
	// Year-agnostic factors always qualify.
	assert.Nil(t, kept[1].Year)
}

func TestDedupePrefersConcreteYear(t *testing.T) {
	records := []Record{
		{Activity: "grid", Unit: "kwh", EmissionFactor: 0.42},
		{Activity: "grid", Unit: "kwh", EmissionFactor: 0.38, Year: intPtr(2024)},
	}

	deduped := Dedupe(records)
	require.Len(t, deduped, 1)
	assert.Equal(t, 0.38, deduped[0].EmissionFactor)
}

func TestDedupePrefersNonIPCCSource(t *testing.T) {
	records := []Record{
		{Activity: "diesel", Unit: "l", EmissionFactor: 2.68, Source: "IPCC 2006 Guidelines"},
		{Activity: "diesel", Unit: "l", EmissionFactor: 2.71, Source: "internal_audit"},
	}

	deduped := Dedupe(records)
	require.Len(t, deduped, 1)
	assert.Equal(t, "internal_audit", deduped[0].Source)
}

func TestDedupeBreaksTiesByLastUpdated(t *testing.T) {
	older := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	newer := time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC)

	records := []Record{
		{Activity: "diesel", Unit: "l", EmissionFactor: 2.60, Source: "audit", UpdatedAt: newer},
		{Activity: "diesel", Unit: "l", EmissionFactor: 2.70, Source: "audit", UpdatedAt: older},
	}

	deduped := Dedupe(records)
	require.Len(t, deduped, 1)
	assert.Equal(t, 2.60, deduped[0].EmissionFactor)
}

func TestDedupeKeepsDistinctKeys(t *testing.T) {
	records := []Record{
		{Activity: "diesel", Unit: "l", EmissionFactor: 2.68},
		{Activity: "diesel", Unit: "kg", EmissionFactor: 3.1},
		{Activity: "petrol", Unit: "l", EmissionFactor: 2.31},
	}

	assert.Len(t, Dedupe(records), 3)
}

func TestLookupNormalizesKeys(t *testing.T) {
	lookup := BuildLookup([]Record{
		{Activity: "diesel", Unit: "l", EmissionFactor: 2.68},
	})

	r, ok := lookup.Find("  Diesel ", "L")
	require.True(t, ok)
	assert.Equal(t, 2.68, r.EmissionFactor)

	_, ok = lookup.Find("diesel", "kg")
	assert.False(t, ok)
}

func TestPrepareRegionFallback(t *testing.T) {
	// A request for region "us" must match a global factor when no
	// us-specific factor exists.
	records := []Record{
		{Activity: "diesel", Unit: "l", EmissionFactor: 2.68, Region: GlobalRegion},
		{Activity: "grid", Unit: "kwh", EmissionFactor: 0.31, Region: "eu"},
	}

	prepared := Prepare(records, "us", nil)
	require.Len(t, prepared, 1)
	assert.Equal(t, "diesel", prepared[0].Activity)
}

func TestSourcePrioritySubstringHeuristic(t *testing.T) {
	// The match is a substring check, so any label mentioning ipcc is
	// deprioritized, not just the canonical "IPCC" source.
	assert.Equal(t, 0, sourcePriority("derived from IPCC AR5"))
	assert.Equal(t, 0, sourcePriority("ipcc"))
	assert.Equal(t, 1, sourcePriority("national inventory"))
	assert.Equal(t, 1, sourcePriority(""))
}
