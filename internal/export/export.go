// Package export writes quantification results and compliance tables
// as CSV files into a report directory.
package export

import (
	"encoding/csv"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/rshade/carbonledger/internal/compliance"
	"github.com/rshade/carbonledger/internal/engine"
)

// invalidNameRunes are characters spreadsheet tools reject in sheet
// names; cleaned names double as file stems.
const invalidNameRunes = `[]*?/\:`

// maxNameLen caps cleaned names at the spreadsheet sheet-name limit.
const maxNameLen = 31

// CleanName scrubs a table name into a safe sheet/file stem.
func CleanName(name string) string {
	cleaned := strings.Map(func(r rune) rune {
		if strings.ContainsRune(invalidNameRunes, r) {
			return ' '
		}
		return r
	}, name)
	cleaned = strings.TrimSpace(cleaned)
	if len(cleaned) > maxNameLen {
		cleaned = strings.TrimSpace(cleaned[:maxNameLen])
	}
	if cleaned == "" {
		return "Sheet"
	}
	return cleaned
}

// ResultTables converts a quantification result into its three export
// tables: raw rows, the activity summary, and the scope breakdown.
func ResultTables(result engine.Result) []compliance.Table {
	raw := compliance.Table{
		Name: "Raw Input Data",
		Columns: []string{
			"category", "activity", "unit", "amount", "emission_factor",
			"ch4", "n2o", "source", "total_co2e",
		},
	}
	for _, row := range result.Detail {
		factor := ""
		if row.EmissionFactor != nil {
			factor = formatFloat(*row.EmissionFactor)
		}
		raw.Rows = append(raw.Rows, []string{
			row.Category, row.Activity, row.Unit, formatFloat(row.Amount), factor,
			formatFloat(row.CH4), formatFloat(row.N2O), row.Source, formatFloat(row.TotalCO2e),
		})
	}

	summary := compliance.Table{
		Name:    "Emissions Summary",
		Columns: []string{"activity", "total_co2e", "share_pct"},
	}
	for _, row := range result.Summary {
		summary.Rows = append(summary.Rows, []string{
			row.Activity, formatFloat(row.TotalCO2e), formatFloat(row.SharePct),
		})
	}

	scopes := compliance.Table{
		Name:    "Scope Breakdown",
		Columns: []string{"category", "total_co2e"},
	}
	for _, row := range result.Scopes {
		scopes.Rows = append(scopes.Rows, []string{row.Category, formatFloat(row.TotalCO2e)})
	}

	return []compliance.Table{raw, summary, scopes}
}

// WriteDir writes each non-empty table to dir as <CleanName>.csv,
// creating the directory if needed. It returns the written paths.
func WriteDir(dir string, tables []compliance.Table) ([]string, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("creating export directory: %w", err)
	}

	var written []string
	for _, table := range tables {
		if len(table.Rows) == 0 {
			continue
		}
		path := filepath.Join(dir, CleanName(table.Name)+".csv")
		if err := writeTable(path, table); err != nil {
			return written, err
		}
		written = append(written, path)
	}
	return written, nil
}

func writeTable(path string, table compliance.Table) error {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("creating %s: %w", path, err)
	}
	defer f.Close()

	w := csv.NewWriter(f)
	if err := w.Write(table.Columns); err != nil {
		return fmt.Errorf("writing %s: %w", path, err)
	}
	for _, row := range table.Rows {
		if err := w.Write(row); err != nil {
			return fmt.Errorf("writing %s: %w", path, err)
		}
	}
	w.Flush()
	if err := w.Error(); err != nil {
		return fmt.Errorf("writing %s: %w", path, err)
	}
	return f.Close()
}

func formatFloat(v float64) string {
	return strconv.FormatFloat(v, 'f', -1, 64)
}
