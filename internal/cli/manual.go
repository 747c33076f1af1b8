package cli

import (
	"github.com/spf13/cobra"

	"github.com/rshade/carbonledger/internal/engine"
	"github.com/rshade/carbonledger/internal/ingest"
)

// manualParams holds the flag values for the manual command.
type manualParams struct {
	entry   ingest.ManualEntry
	format  string
	saveRun string
}

// newManualCmd creates the "manual" subcommand quantifying the four
// common activity groups without an input file.
func newManualCmd() *cobra.Command {
	var params manualParams

	cmd := &cobra.Command{
		Use:   "manual",
		Short: "Quantify a quick manual entry",
		Long: `Quantify fuel, electricity, transport, and waste amounts without an
input file. Each group uses a built-in default emission factor unless
overridden; grid electricity is discounted by the renewable fraction.`,
		Example: `  carbonledger manual --fuel-litres 100 --electricity-kwh 1000 --renewable-fraction 0.2
  carbonledger manual --transport-km 500 --transport-ef 0.15 --format json`,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return executeManual(cmd, params)
		},
	}

	cmd.Flags().Float64Var(&params.entry.FuelLitres, "fuel-litres", 0, "Fuel burned in litres")
	cmd.Flags().Float64Var(&params.entry.ElectricityKWh, "electricity-kwh", 0, "Grid electricity in kWh")
	cmd.Flags().Float64Var(&params.entry.RenewableFraction, "renewable-fraction", 0,
		"Fraction of electricity from renewables, 0 to 1")
	cmd.Flags().Float64Var(&params.entry.TransportKm, "transport-km", 0, "Road transport in km")
	cmd.Flags().Float64Var(&params.entry.WasteKg, "waste-kg", 0, "Waste to landfill in kg")
	cmd.Flags().Float64Var(&params.entry.FuelEF, "fuel-ef", 0, "Override fuel emission factor")
	cmd.Flags().Float64Var(&params.entry.ElectricityEF, "electricity-ef", 0, "Override electricity emission factor")
	cmd.Flags().Float64Var(&params.entry.TransportEF, "transport-ef", 0, "Override transport emission factor")
	cmd.Flags().Float64Var(&params.entry.WasteEF, "waste-ef", 0, "Override waste emission factor")
	cmd.Flags().StringVar(&params.format, "format", "", "Output format: table or json")
	cmd.Flags().StringVar(&params.saveRun, "save-run", "", "Save the result under this run name")

	return cmd
}

func executeManual(cmd *cobra.Command, params manualParams) error {
	format, err := outputFormat(cmd)
	if err != nil {
		return err
	}

	records, err := params.entry.Records()
	if err != nil {
		return err
	}

	result, err := engine.Calculate(records, engine.Options{})
	if err != nil {
		return err
	}

	logger.Info().
		Int("rows", len(result.Detail)).
		Float64("total_co2e", result.TotalCO2e).
		Msg("manual calculation complete")

	if params.saveRun != "" {
		s, err := openStore()
		if err != nil {
			return err
		}
		defer s.Close()
		id, err := s.SaveRun(cmd.Context(), params.saveRun, "manual", result, nil, &result.TotalCO2e)
		if err != nil {
			return err
		}
		cmd.PrintErrf("Saved run %s\n", id)
	}

	if format == formatJSON {
		return renderJSON(cmd.OutOrStdout(), result)
	}
	renderCalcResult(cmd, result)
	return nil
}
