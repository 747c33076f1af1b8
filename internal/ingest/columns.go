// Package ingest converts tabular input files and manual form entries
// into the canonical activity-record schema consumed by the engine.
package ingest

import "strings"

// Canonical activity-record column names.
const (
	colCategory       = "category"
	colActivity       = "activity"
	colUnit           = "unit"
	colAmount         = "amount"
	colEmissionFactor = "emission_factor"
	colSource         = "source"
	colCH4            = "ch4"
	colN2O            = "n2o"
	colStage          = "stage"
)

// requiredColumns must be present (directly or via alias) in every
// activity sheet.
var requiredColumns = []string{colCategory, colActivity, colUnit, colAmount, colEmissionFactor}

// ColumnAliases maps canonical column names to the accepted header
// spellings. Injectable so alternate header vocabularies can be
// supplied by callers.
type ColumnAliases map[string][]string

// DefaultColumnAliases returns the built-in header alias table.
func DefaultColumnAliases() ColumnAliases {
	return ColumnAliases{
		colCategory:       {"scope", "scope_tag", "emission_scope", "category_tag"},
		colActivity:       {"activity_name", "activity_type", "item", "description", "process"},
		colUnit:           {"uom", "units", "measurement_unit"},
		colAmount:         {"value", "quantity", "activity_amount", "consumption"},
		colEmissionFactor: {"ef", "factor", "co2_factor", "co2e_factor"},
		colSource:         {"data_source", "reference", "origin"},
		colCH4:            {"ch4_factor", "methane", "methane_factor"},
		colN2O:            {"n2o_factor", "nitrous_oxide", "nitrous_oxide_factor"},
		colStage:          {"lifecycle_stage", "life_cycle_stage", "phase"},
	}
}

// normalizeHeader canonicalizes a raw header cell: trimmed, lowered,
// spaces and hyphens collapsed to underscores.
func normalizeHeader(header string) string {
	h := strings.ToLower(strings.TrimSpace(header))
	h = strings.ReplaceAll(h, " ", "_")
	return strings.ReplaceAll(h, "-", "_")
}

// resolveColumns maps raw headers to canonical column names, returning
// the index of each canonical column found. Unmapped headers are
// ignored rather than rejected.
func resolveColumns(headers []string, aliases ColumnAliases) map[string]int {
	index := make(map[string]int, len(headers))
	for i, raw := range headers {
		normalized := normalizeHeader(raw)
		canonical, ok := canonicalColumn(normalized, aliases)
		if !ok {
			continue
		}
		if _, taken := index[canonical]; !taken {
			index[canonical] = i
		}
	}
	return index
}

// canonicalColumn maps one normalized header to its canonical name.
func canonicalColumn(normalized string, aliases ColumnAliases) (string, bool) {
	for canonical, spellings := range aliases {
		if normalized == canonical {
			return canonical, true
		}
		for _, alias := range spellings {
			if normalized == alias {
				return canonical, true
			}
		}
	}
	return "", false
}

// missingColumns lists required columns absent from the index, in
// requiredColumns order.
func missingColumns(index map[string]int, required []string) []string {
	var missing []string
	for _, col := range required {
		if _, ok := index[col]; !ok {
			missing = append(missing, col)
		}
	}
	return missing
}
