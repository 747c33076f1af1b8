// Package compliance assembles the report tables auditors expect
// alongside a quantification run: scope totals with reporting
// metadata, factor provenance, assumptions, the change log, intensity
// KPIs, and the data-quality summary.
package compliance

import (
	"strconv"

	"github.com/rshade/carbonledger/internal/engine"
	"github.com/rshade/carbonledger/internal/factors"
	"github.com/rshade/carbonledger/internal/kpi"
	"github.com/rshade/carbonledger/internal/quality"
)

// Table is a generic named table ready for export.
type Table struct {
	Name    string     `json:"name"`
	Columns []string   `json:"columns"`
	Rows    [][]string `json:"rows"`
}

// Metadata labels the reporting context stamped onto the scope table.
type Metadata struct {
	ReportingStandard string
	ReportingYear     string
	Organization      string
}

// Options collects the optional report inputs.
type Options struct {
	Metadata    Metadata
	Factors     []factors.Record
	Assumptions []string
	ChangeLog   []string
	Intensity   []kpi.Metric
	Quality     *quality.Report
}

// Build produces the compliance table set for a quantification result.
// Empty optional inputs yield placeholder rows, not missing tables.
func Build(result engine.Result, opts Options) []Table {
	standard := opts.Metadata.ReportingStandard
	if standard == "" {
		standard = "GHG Protocol"
	}

	tables := []Table{
		scopeTable(result, standard, opts.Metadata),
		factorTable(opts.Factors),
		listTable("Assumptions", "assumption", opts.Assumptions, "No explicit assumptions provided"),
		listTable("Change Log", "change", opts.ChangeLog, "Initial report generation"),
		intensityTable(opts.Intensity),
		qualityTable(opts.Quality),
	}
	return tables
}

func scopeTable(result engine.Result, standard string, meta Metadata) Table {
	table := Table{
		Name:    "GHG Scope Table",
		Columns: []string{"category", "total_co2e", "reporting_standard", "reporting_year", "organization"},
	}
	if len(result.Scopes) == 0 {
		table.Rows = [][]string{{"total", formatFloat(result.TotalCO2e), standard, meta.ReportingYear, meta.Organization}}
		return table
	}
	for _, scope := range result.Scopes {
		table.Rows = append(table.Rows, []string{
			scope.Category, formatFloat(scope.TotalCO2e), standard, meta.ReportingYear, meta.Organization,
		})
	}
	return table
}

func factorTable(records []factors.Record) Table {
	table := Table{
		Name: "Emission Factor Provenance",
		Columns: []string{
			"activity", "unit", "emission_factor", "scope", "scope_category",
			"region", "year", "source", "version", "active",
		},
	}
	for _, r := range records {
		year := ""
		if r.Year != nil {
			year = strconv.Itoa(*r.Year)
		}
		table.Rows = append(table.Rows, []string{
			r.Activity, r.Unit, formatFloat(r.EmissionFactor), r.Scope, r.ScopeCategory,
			r.Region, year, r.Source, r.Version, strconv.FormatBool(r.Active),
		})
	}
	return table
}

func listTable(name, column string, values []string, placeholder string) Table {
	table := Table{Name: name, Columns: []string{column}}
	if len(values) == 0 {
		table.Rows = [][]string{{placeholder}}
		return table
	}
	for _, v := range values {
		table.Rows = append(table.Rows, []string{v})
	}
	return table
}

func intensityTable(metrics []kpi.Metric) Table {
	table := Table{Name: "Intensity KPI", Columns: []string{"metric", "value"}}
	for _, m := range metrics {
		table.Rows = append(table.Rows, []string{m.Name, formatFloat(m.Value)})
	}
	return table
}

func qualityTable(report *quality.Report) Table {
	table := Table{Name: "Data Quality", Columns: []string{"score", "row_count", "issue_count"}}
	if report == nil {
		table.Rows = [][]string{{"", "", "0"}}
		return table
	}
	table.Rows = [][]string{{
		formatFloat(report.Score),
		strconv.Itoa(report.RowCount),
		strconv.Itoa(len(report.Issues)),
	}}
	return table
}

func formatFloat(v float64) string {
	return strconv.FormatFloat(v, 'f', -1, 64)
}
