// Package units converts activity amounts and paired emission factors
// into canonical physical units.
//
// The defining invariant is CO2e conversion invariance: for a unit with
// multiplier m, amount*factor == (amount*m)*(factor/m), so rewriting a
// row to its canonical unit never changes its emissions contribution.
package units

import (
	"fmt"
	"sort"
	"strings"
)

// Conversion maps a unit label to its canonical unit and multiplier.
type Conversion struct {
	// Canonical is the target unit label (e.g. "kg").
	Canonical string

	// Multiplier converts an amount in the source unit into the
	// canonical unit. Must be > 0 to be applied.
	Multiplier float64
}

// Table maps normalized (trimmed, lowercased) unit labels to their
// conversions. Tables are injectable so alternate unit taxonomies can
// be substituted; DefaultTable returns the built-in one.
type Table map[string]Conversion

// DefaultTable returns the fixed conversion table: mass to kilograms,
// volume to liters, energy to kilowatt-hours or megajoules per family,
// distance to kilometers.
func DefaultTable() Table {
	return Table{
		"l":     {Canonical: "l", Multiplier: 1.0},
		"liter": {Canonical: "l", Multiplier: 1.0},
		"litre": {Canonical: "l", Multiplier: 1.0},
		"ml":    {Canonical: "l", Multiplier: 0.001},
		"kg":    {Canonical: "kg", Multiplier: 1.0},
		"g":     {Canonical: "kg", Multiplier: 0.001},
		// "ton" is the US short ton; "t"/"tonne" are metric.
		"ton":   {Canonical: "kg", Multiplier: 907.18474},
		"tonne": {Canonical: "kg", Multiplier: 1000.0},
		"t":     {Canonical: "kg", Multiplier: 1000.0},
		"kwh":   {Canonical: "kwh", Multiplier: 1.0},
		"mwh":   {Canonical: "kwh", Multiplier: 1000.0},
		"wh":    {Canonical: "kwh", Multiplier: 0.001},
		"mj":    {Canonical: "mj", Multiplier: 1.0},
		"gj":    {Canonical: "mj", Multiplier: 1000.0},
		"km":    {Canonical: "km", Multiplier: 1.0},
		"m":     {Canonical: "km", Multiplier: 0.001},
		"mile":  {Canonical: "km", Multiplier: 1.60934},
		"miles": {Canonical: "km", Multiplier: 1.60934},
	}
}

// Canonical returns the canonical label for a unit, or the trimmed,
// lowercased input when the unit is not in the table. Used to align
// factor-library unit labels with normalized activity units.
func Canonical(unit string, table Table) string {
	key := strings.ToLower(strings.TrimSpace(unit))
	if conv, ok := table[key]; ok {
		return conv.Canonical
	}
	return key
}

// maxWarnRows caps how many row numbers an unknown-unit warning lists.
const maxWarnRows = 6

// Normalizer rewrites (amount, unit, factor) triples to canonical
// units while accumulating human-readable warnings. It is not safe for
// concurrent use; create one per batch.
type Normalizer struct {
	table    Table
	warnings []string
	unknown  map[string][]int
	applied  map[string]struct{}
}

// NewNormalizer creates a Normalizer over the given table. A nil table
// means DefaultTable.
func NewNormalizer(table Table) *Normalizer {
	if table == nil {
		table = DefaultTable()
	}
	return &Normalizer{
		table:   table,
		unknown: make(map[string][]int),
		applied: make(map[string]struct{}),
	}
}

// Apply converts one row. The row argument is the 1-based position
// used in warnings. A nil factor stays nil; unknown units and invalid
// multipliers leave the row unchanged and record a warning.
func (n *Normalizer) Apply(row int, amount float64, unit string, factor *float64) (float64, string, *float64) {
	key := strings.ToLower(strings.TrimSpace(unit))

	conv, ok := n.table[key]
	if !ok {
		if display := strings.TrimSpace(unit); display != "" {
			n.unknown[display] = append(n.unknown[display], row)
		}
		return amount, unit, factor
	}

	if conv.Multiplier <= 0 {
		n.warnings = append(n.warnings, fmt.Sprintf("Invalid conversion multiplier for '%s'; kept as-is.", unit))
		return amount, unit, factor
	}

	converted := amount * conv.Multiplier
	var adjusted *float64
	if factor != nil {
		f := *factor / conv.Multiplier
		adjusted = &f
	}

	if key != conv.Canonical {
		n.applied[key+"->"+conv.Canonical] = struct{}{}
	}
	return converted, conv.Canonical, adjusted
}

// Warnings returns the accumulated warning list: invalid-multiplier
// warnings in encounter order, then unknown units sorted by label,
// then a single summary of the distinct conversions applied. An empty
// slice means no issues; warnings are advisory, not an error channel.
func (n *Normalizer) Warnings() []string {
	warnings := make([]string, len(n.warnings))
	copy(warnings, n.warnings)

	labels := make([]string, 0, len(n.unknown))
	for label := range n.unknown {
		labels = append(labels, label)
	}
	sort.Slice(labels, func(i, j int) bool {
		return strings.ToLower(labels[i]) < strings.ToLower(labels[j])
	})

	for _, label := range labels {
		rows := n.unknown[label]
		shown := make([]string, 0, maxWarnRows)
		for i, row := range rows {
			if i == maxWarnRows {
				break
			}
			shown = append(shown, fmt.Sprintf("%d", row))
		}
		list := strings.Join(shown, ", ")
		if len(rows) > maxWarnRows {
			list = fmt.Sprintf("%s, +%d more", list, len(rows)-maxWarnRows)
		}
		warnings = append(warnings, fmt.Sprintf("Unknown unit '%s' at row(s) %s; kept as-is.", label, list))
	}

	if len(n.applied) > 0 {
		pairs := make([]string, 0, len(n.applied))
		for pair := range n.applied {
			pairs = append(pairs, pair)
		}
		sort.Strings(pairs)
		warnings = append(warnings, "Converted units: "+strings.Join(pairs, ", "))
	}

	return warnings
}
