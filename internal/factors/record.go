// Package factors implements emission-factor records and the
// resolution precedence rules: region and year filtering, tie-break
// deduplication, and provenance tagging.
package factors

import (
	"strings"
	"time"
)

// GlobalRegion is the region label that always qualifies as a fallback
// candidate during region filtering.
const GlobalRegion = "global"

// Record is one emission factor in the library, keyed by normalized
// (activity, unit).
type Record struct {
	// ID is the storage identifier; zero for records not yet persisted.
	ID int64

	// Activity and Unit form the lookup key. Both are stored trimmed
	// and lowercased (see NormalizeKey).
	Activity string
	Unit     string

	// EmissionFactor is the CO2e multiplier per canonical unit. Always
	// positive for a valid record.
	EmissionFactor float64

	// Scope and ScopeCategory classify the factor under the GHG
	// Protocol taxonomy. Informational; not part of the lookup key.
	Scope         string
	ScopeCategory string

	// Region the factor applies to; GlobalRegion when unrestricted.
	Region string

	// Year is the validity year. Nil means year-agnostic: the factor
	// qualifies for any requested year.
	Year *int

	// Source and Version record provenance of the factor value.
	Source  string
	Version string

	// Active marks the factor as eligible for resolution. Superseded
	// factors are deactivated rather than deleted.
	Active bool

	CreatedAt time.Time
	UpdatedAt time.Time
}

// Provenance tags a resolved activity record with where its emission
// factor came from. The zero value means "not tagged yet".
type Provenance struct {
	Source  string
	Version string
	Region  string
}

// UserProvenance is the sentinel provenance for records whose factor
// was supplied by the caller rather than resolved from the library.
// The literal values are part of the external reporting contract.
func UserProvenance() Provenance {
	return Provenance{Source: "user_input", Version: "n/a", Region: "n/a"}
}

// NormalizeKey normalizes an activity or unit label for lookup.
func NormalizeKey(s string) string {
	return strings.ToLower(strings.TrimSpace(s))
}
