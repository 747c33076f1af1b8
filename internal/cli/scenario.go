package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/rshade/carbonledger/internal/compliance"
	"github.com/rshade/carbonledger/internal/engine"
	"github.com/rshade/carbonledger/internal/ingest"
)

// scenarioParams holds the flag values for the scenario command.
type scenarioParams struct {
	inputs          []string
	library         string
	format          string
	saveRun         string
	scopeReductions []string
	activityCuts    []string
	target          float64
}

// newScenarioCmd creates the "scenario" subcommand modelling emission
// reductions against a baseline calculation.
func newScenarioCmd() *cobra.Command {
	var params scenarioParams

	cmd := &cobra.Command{
		Use:   "scenario",
		Short: "Model reduction scenarios against a baseline",
		Long: `Apply percentage reductions per scope or per activity on top of a
baseline calculation and compare the outcome against an optional
target total. Reductions compound when both a scope and an activity
reduction match the same row.`,
		Example: `  carbonledger scenario --input activities.csv --reduce-scope scope2=30
  carbonledger scenario --input activities.csv --reduce-activity "Grid Electricity=50" --target 500`,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return executeScenario(cmd, params)
		},
	}

	cmd.Flags().StringArrayVar(&params.inputs, "input", nil, "Activity CSV file (repeatable)")
	cmd.Flags().String("region", "", "Region filter for factor resolution")
	cmd.Flags().Int("year", 0, "Year filter for factor resolution")
	cmd.Flags().StringVar(&params.library, "library", "", "YAML factor library file (bypasses the database)")
	cmd.Flags().StringArrayVar(&params.scopeReductions, "reduce-scope", nil,
		"Scope reduction as scope=percent (repeatable)")
	cmd.Flags().StringArrayVar(&params.activityCuts, "reduce-activity", nil,
		"Activity reduction as activity=percent (repeatable)")
	cmd.Flags().Float64Var(&params.target, "target", 0, "Target total in kg CO2e")
	cmd.Flags().StringVar(&params.format, "format", "", "Output format: table or json")
	cmd.Flags().StringVar(&params.saveRun, "save-run", "", "Save the result under this run name")
	_ = cmd.MarkFlagRequired("input")

	return cmd
}

func executeScenario(cmd *cobra.Command, params scenarioParams) error {
	format, err := outputFormat(cmd)
	if err != nil {
		return err
	}
	ctx := cmd.Context()
	region, year := regionAndYear(cmd)

	scopeReductions, err := parseReductions(params.scopeReductions)
	if err != nil {
		return err
	}
	activityReductions, err := parseReductions(params.activityCuts)
	if err != nil {
		return err
	}

	parsed, err := ingest.ParseFiles(ctx, params.inputs, nil)
	if err != nil {
		return err
	}
	library, err := loadFactors(ctx, params.library, region, year)
	if err != nil {
		return err
	}

	scenarioOpts := engine.ScenarioOptions{
		ScopeReductions:    scopeReductions,
		ActivityReductions: activityReductions,
	}
	if cmd.Flags().Changed("target") {
		scenarioOpts.TargetTotal = &params.target
	}

	result, err := engine.RunScenario(parsed.Records, scenarioOpts, engine.Options{
		Factors: library,
		Region:  region,
		Year:    year,
	})
	if err != nil {
		return err
	}

	logger.Info().
		Float64("baseline", result.BaselineTotal).
		Float64("scenario", result.ScenarioTotal).
		Msg("scenario complete")

	if params.saveRun != "" {
		s, err := openStore()
		if err != nil {
			return err
		}
		defer s.Close()
		id, err := s.SaveRun(ctx, params.saveRun, "scenario", result,
			map[string]any{"region": region, "inputs": params.inputs}, &result.ScenarioTotal)
		if err != nil {
			return err
		}
		cmd.PrintErrf("Saved run %s\n", id)
	}

	if format == formatJSON {
		return renderJSON(cmd.OutOrStdout(), result)
	}

	renderScenarioResult(cmd, result)
	return nil
}

func renderScenarioResult(cmd *cobra.Command, result *engine.ScenarioResult) {
	out := cmd.OutOrStdout()
	renderWarnings(cmd.ErrOrStderr(), result.Baseline.Warnings)

	comparison := compliance.Table{
		Name:    "Scenario Comparison",
		Columns: []string{"metric", "value"},
	}
	for _, row := range result.Comparison {
		comparison.Rows = append(comparison.Rows, []string{row.Metric, fmtFloat(row.TCO2e)})
	}
	renderTable(out, comparison)

	scopes := compliance.Table{
		Name:    "Scenario Scope Breakdown",
		Columns: []string{"category", "baseline_co2e", "scenario_co2e"},
	}
	baseline := make(map[string]float64, len(result.Baseline.Scopes))
	for _, row := range result.Baseline.Scopes {
		baseline[row.Category] = row.TotalCO2e
	}
	for _, row := range result.Scenario.Scopes {
		scopes.Rows = append(scopes.Rows, []string{
			row.Category, fmtFloat(baseline[row.Category]), fmtFloat(row.TotalCO2e),
		})
	}
	renderTable(out, scopes)

	fmt.Fprintf(out, "%s %s%% abatement\n",
		tableTitleStyle().Render("Abatement:"), fmtFloat(result.AbatementPct))
	if result.MeetsTarget != nil {
		status := "missed"
		if *result.MeetsTarget {
			status = "met"
		}
		fmt.Fprintf(out, "Target %s kg CO2e: %s\n", fmtFloat(*result.TargetTotal), status)
	}
}
