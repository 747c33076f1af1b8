package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/rshade/carbonledger/internal/compliance"
	"github.com/rshade/carbonledger/internal/engine"
	"github.com/rshade/carbonledger/internal/export"
	"github.com/rshade/carbonledger/internal/ingest"
	"github.com/rshade/carbonledger/internal/kpi"
	"github.com/rshade/carbonledger/internal/quality"
)

// calcParams holds the flag values for the calc command.
type calcParams struct {
	inputs    []string
	library   string
	format    string
	saveRun   string
	exportDir string

	showQuality bool
	compliance  bool

	organization  string
	reportingYear string
	production    float64
	revenue       float64
	employees     float64
}

// newCalcCmd creates the "calc" subcommand quantifying activity data
// into CO2e totals.
func newCalcCmd() *cobra.Command {
	var params calcParams

	cmd := &cobra.Command{
		Use:   "calc",
		Short: "Quantify activity data into CO2e totals",
		Long: `Quantify activity CSV files into CO2e totals per activity and scope.

Missing emission factors are resolved from the factor library using
region and year precedence; rows that still lack a factor are dropped
with a warning.`,
		Example: `  carbonledger calc --input activities.csv --region eu --year 2024
  carbonledger calc --input q1.csv --input q2.csv --export-dir report/ --quality
  carbonledger calc --input activities.csv --library factors.yaml --format json`,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return executeCalc(cmd, params)
		},
	}

	cmd.Flags().StringArrayVar(&params.inputs, "input", nil, "Activity CSV file (repeatable)")
	cmd.Flags().String("region", "", "Region filter for factor resolution")
	cmd.Flags().Int("year", 0, "Year filter for factor resolution")
	cmd.Flags().StringVar(&params.library, "library", "", "YAML factor library file (bypasses the database)")
	cmd.Flags().StringVar(&params.format, "format", "", "Output format: table or json")
	cmd.Flags().StringVar(&params.saveRun, "save-run", "", "Save the result under this run name")
	cmd.Flags().StringVar(&params.exportDir, "export-dir", "", "Write result tables as CSV files into this directory")
	cmd.Flags().BoolVar(&params.showQuality, "quality", false, "Assess and display data quality")
	cmd.Flags().BoolVar(&params.compliance, "compliance", false, "Include compliance tables in the export")
	cmd.Flags().StringVar(&params.organization, "organization", "", "Organization name for compliance tables")
	cmd.Flags().StringVar(&params.reportingYear, "reporting-year", "", "Reporting year for compliance tables")
	cmd.Flags().Float64Var(&params.production, "production-units", 0, "Production units for intensity KPIs")
	cmd.Flags().Float64Var(&params.revenue, "revenue-usd", 0, "Annual revenue in USD for intensity KPIs")
	cmd.Flags().Float64Var(&params.employees, "employees", 0, "Employee count for intensity KPIs")
	_ = cmd.MarkFlagRequired("input")

	return cmd
}

func executeCalc(cmd *cobra.Command, params calcParams) error {
	format, err := outputFormat(cmd)
	if err != nil {
		return err
	}
	ctx := cmd.Context()
	region, year := regionAndYear(cmd)

	parsed, err := ingest.ParseFiles(ctx, params.inputs, nil)
	if err != nil {
		return err
	}

	library, err := loadFactors(ctx, params.library, region, year)
	if err != nil {
		return err
	}

	result, err := engine.Calculate(parsed.Records, engine.Options{
		Factors: library,
		Region:  region,
		Year:    year,
	})
	if err != nil {
		return err
	}
	result.Warnings = append(parsed.Warnings, result.Warnings...)

	logger.Info().
		Int("rows", len(result.Detail)).
		Float64("total_co2e", result.TotalCO2e).
		Msg("calculation complete")

	var qualityReport *quality.Report
	if params.showQuality || params.compliance {
		report := quality.Assess(parsed.Records)
		qualityReport = &report
	}

	var complianceTables []compliance.Table
	if params.compliance {
		complianceTables = compliance.Build(*result, compliance.Options{
			Metadata: compliance.Metadata{
				Organization:  params.organization,
				ReportingYear: params.reportingYear,
			},
			Factors: library,
			Intensity: kpi.Intensity(result.TotalCO2e, kpi.Inputs{
				ProductionUnits: params.production,
				RevenueUSD:      params.revenue,
				Employees:       params.employees,
			}),
			Quality: qualityReport,
		})
	}

	if params.exportDir != "" {
		tables := export.ResultTables(*result)
		tables = append(tables, complianceTables...)
		written, err := export.WriteDir(params.exportDir, tables)
		if err != nil {
			return err
		}
		cmd.PrintErrf("Exported %d table(s) to %s\n", len(written), params.exportDir)
	}

	if params.saveRun != "" {
		s, err := openStore()
		if err != nil {
			return err
		}
		defer s.Close()
		metadata := map[string]any{"region": region, "inputs": params.inputs}
		if year != nil {
			metadata["year"] = *year
		}
		id, err := s.SaveRun(ctx, params.saveRun, "calc", result, metadata, &result.TotalCO2e)
		if err != nil {
			return err
		}
		cmd.PrintErrf("Saved run %s\n", id)
	}

	if format == formatJSON {
		payload := map[string]any{"result": result}
		if qualityReport != nil {
			payload["quality"] = qualityReport
		}
		if complianceTables != nil {
			payload["compliance"] = complianceTables
		}
		return renderJSON(cmd.OutOrStdout(), payload)
	}

	renderCalcResult(cmd, result)
	if params.showQuality {
		renderQuality(cmd, qualityReport)
	}
	return nil
}

func renderCalcResult(cmd *cobra.Command, result *engine.Result) {
	out := cmd.OutOrStdout()
	renderWarnings(cmd.ErrOrStderr(), result.Warnings)

	summary := compliance.Table{
		Name:    "Emissions Summary",
		Columns: []string{"activity", "total_co2e", "share_pct"},
	}
	for _, row := range result.Summary {
		summary.Rows = append(summary.Rows, []string{row.Activity, fmtFloat(row.TotalCO2e), fmtFloat(row.SharePct)})
	}
	renderTable(out, summary)

	scopes := compliance.Table{
		Name:    "Scope Breakdown",
		Columns: []string{"category", "total_co2e"},
	}
	for _, row := range result.Scopes {
		scopes.Rows = append(scopes.Rows, []string{row.Category, fmtFloat(row.TotalCO2e)})
	}
	renderTable(out, scopes)

	provenance := compliance.Table{
		Name:    "Factor Provenance",
		Columns: []string{"activity", "unit", "source", "version", "region", "mean_factor", "rows"},
	}
	for _, row := range result.Provenance {
		provenance.Rows = append(provenance.Rows, []string{
			row.Activity, row.Unit, row.FactorSource, row.FactorVersion, row.FactorRegion,
			fmtFloat(row.MeanFactor), fmt.Sprintf("%d", row.Rows),
		})
	}
	renderTable(out, provenance)

	fmt.Fprintf(out, "%s %s kg CO2e\n",
		tableTitleStyle().Render("Total:"), fmtFloat(result.TotalCO2e))
}

func renderQuality(cmd *cobra.Command, report *quality.Report) {
	if report == nil {
		return
	}
	out := cmd.OutOrStdout()
	table := compliance.Table{
		Name:    fmt.Sprintf("Data Quality (score %s, %d rows)", fmtFloat(report.Score), report.RowCount),
		Columns: []string{"issue", "count"},
	}
	for _, issue := range report.Issues {
		table.Rows = append(table.Rows, []string{issue.Issue, fmt.Sprintf("%d", issue.Count)})
	}
	renderTable(out, table)
}
