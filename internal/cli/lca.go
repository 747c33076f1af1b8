package cli

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/rshade/carbonledger/internal/compliance"
	"github.com/rshade/carbonledger/internal/ingest"
	"github.com/rshade/carbonledger/internal/lca"
)

// lcaParams holds the flag values for the lca command.
type lcaParams struct {
	input             string
	boundary          string
	allocationMethod  string
	defaultAllocation float64
	stageAllocations  []string
	sensitivity       float64
	format            string
	saveRun           string
}

// newLCACmd creates the "lca" subcommand running a lifecycle
// assessment over stage inventory data.
func newLCACmd() *cobra.Command {
	var params lcaParams

	cmd := &cobra.Command{
		Use:   "lca",
		Short: "Run a lifecycle assessment over stage data",
		Long: `Aggregate lifecycle inventory rows per stage within a system
boundary, apply allocation factors, rank hotspot stages, and sweep
emission-factor uncertainty.`,
		Example: `  carbonledger lca --input stages.csv --boundary cradle-to-gate
  carbonledger lca --input stages.csv --allocation-method economic --stage-allocation Transport=0.5
  carbonledger lca --input stages.csv --sensitivity 20 --format json`,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return executeLCA(cmd, params)
		},
	}

	cmd.Flags().StringVar(&params.input, "input", "", "Lifecycle stage CSV file")
	cmd.Flags().StringVar(&params.boundary, "boundary", "cradle-to-grave",
		"System boundary: cradle-to-grave, cradle-to-gate, or gate-to-gate")
	cmd.Flags().StringVar(&params.allocationMethod, "allocation-method", "none",
		"Allocation method: none, mass, energy, or economic")
	cmd.Flags().Float64Var(&params.defaultAllocation, "default-allocation", 1.0,
		"Default allocation factor, clamped to [0, 1]")
	cmd.Flags().StringArrayVar(&params.stageAllocations, "stage-allocation", nil,
		"Per-stage allocation override as stage=factor (repeatable)")
	cmd.Flags().Float64Var(&params.sensitivity, "sensitivity", 10,
		"Sensitivity sweep percentage applied to all emission factors")
	cmd.Flags().StringVar(&params.format, "format", "", "Output format: table or json")
	cmd.Flags().StringVar(&params.saveRun, "save-run", "", "Save the result under this run name")
	_ = cmd.MarkFlagRequired("input")

	return cmd
}

func executeLCA(cmd *cobra.Command, params lcaParams) error {
	format, err := outputFormat(cmd)
	if err != nil {
		return err
	}
	ctx := cmd.Context()

	stageAllocation, err := parseReductions(params.stageAllocations)
	if err != nil {
		return err
	}

	f, err := os.Open(params.input)
	if err != nil {
		return err
	}
	defer f.Close()

	items, warnings, err := ingest.ParseLCACSV(f, filepath.Base(params.input), nil)
	if err != nil {
		return err
	}
	renderWarnings(cmd.ErrOrStderr(), warnings)

	result, err := lca.Run(items, lca.Options{
		Boundary:          params.boundary,
		AllocationMethod:  params.allocationMethod,
		DefaultAllocation: params.defaultAllocation,
		StageAllocation:   stageAllocation,
		SensitivityPct:    params.sensitivity,
	})
	if err != nil {
		return err
	}

	logger.Info().
		Str("boundary", result.Boundary).
		Float64("total_emissions", result.TotalEmissions).
		Msg("lifecycle assessment complete")

	if params.saveRun != "" {
		s, err := openStore()
		if err != nil {
			return err
		}
		defer s.Close()
		id, err := s.SaveRun(ctx, params.saveRun, "lca", result,
			map[string]any{"boundary": result.Boundary, "input": params.input}, &result.TotalEmissions)
		if err != nil {
			return err
		}
		cmd.PrintErrf("Saved run %s\n", id)
	}

	if format == formatJSON {
		return renderJSON(cmd.OutOrStdout(), result)
	}

	renderLCAResult(cmd, result)
	return nil
}

func renderLCAResult(cmd *cobra.Command, result *lca.Result) {
	out := cmd.OutOrStdout()

	stages := compliance.Table{
		Name:    fmt.Sprintf("Stage Summary (%s)", result.Boundary),
		Columns: []string{"stage", "total_amount", "total_emissions", "avg_allocation"},
	}
	for _, stage := range result.Summary {
		stages.Rows = append(stages.Rows, []string{
			stage.Stage, fmtFloat(stage.TotalAmount),
			fmtFloat(stage.TotalEmissions), fmtFloat(stage.MeanAllocation),
		})
	}
	renderTable(out, stages)

	hotspots := compliance.Table{
		Name:    "Hotspot Stages",
		Columns: []string{"stage", "total_emissions"},
	}
	for _, h := range result.Hotspots {
		hotspots.Rows = append(hotspots.Rows, []string{h.Stage, fmtFloat(h.TotalEmissions)})
	}
	renderTable(out, hotspots)

	fmt.Fprintf(out, "%s %s kg CO2e (+/-%s%%: %s to %s)\n",
		tableTitleStyle().Render("Total:"),
		fmtFloat(result.TotalEmissions),
		fmtFloat(result.Sensitivity.Pct),
		fmtFloat(result.Sensitivity.LowTotal),
		fmtFloat(result.Sensitivity.HighTotal))
}
