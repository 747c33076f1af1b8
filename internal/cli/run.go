package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/rshade/carbonledger/internal/compliance"
	"github.com/rshade/carbonledger/internal/store"
)

// newRunCmd creates the "run" command group over saved analysis runs.
func newRunCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "run",
		Short: "Inspect saved analysis runs",
	}
	cmd.AddCommand(newRunListCmd(), newRunShowCmd(), newRunCompareCmd())
	return cmd
}

func newRunListCmd() *cobra.Command {
	var (
		limit  int
		format string
	)

	cmd := &cobra.Command{
		Use:   "list",
		Short: "List saved runs, newest first",
		RunE: func(cmd *cobra.Command, _ []string) error {
			s, err := openStore()
			if err != nil {
				return err
			}
			defer s.Close()

			runs, err := s.ListRuns(cmd.Context(), limit)
			if err != nil {
				return err
			}
			if format == formatJSON {
				return renderJSON(cmd.OutOrStdout(), runs)
			}

			table := compliance.Table{
				Name:    "Analysis Runs",
				Columns: []string{"id", "name", "type", "timestamp", "total_co2e"},
			}
			for _, run := range runs {
				total := ""
				if run.TotalCO2e != nil {
					total = fmtFloat(*run.TotalCO2e)
				}
				table.Rows = append(table.Rows, []string{
					run.ID, run.Name, run.Type, run.Timestamp.Format("2006-01-02 15:04:05"), total,
				})
			}
			if len(table.Rows) == 0 {
				cmd.Println("No saved runs")
				return nil
			}
			renderTable(cmd.OutOrStdout(), table)
			return nil
		},
	}
	cmd.Flags().IntVar(&limit, "limit", 200, "Maximum number of runs to list")
	cmd.Flags().StringVar(&format, "format", "", "Output format: table or json")
	return cmd
}

func newRunShowCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "show <id>",
		Short: "Show one saved run with its payload",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			s, err := openStore()
			if err != nil {
				return err
			}
			defer s.Close()

			run, err := s.LoadRun(cmd.Context(), args[0])
			if err != nil {
				return err
			}
			return renderJSON(cmd.OutOrStdout(), run)
		},
	}
	return cmd
}

func newRunCompareCmd() *cobra.Command {
	var format string

	cmd := &cobra.Command{
		Use:   "compare <id-a> <id-b>",
		Short: "Compare two saved runs",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			s, err := openStore()
			if err != nil {
				return err
			}
			defer s.Close()

			comparison, err := s.CompareRuns(cmd.Context(), args[0], args[1])
			if err != nil {
				return err
			}
			if format == formatJSON {
				return renderJSON(cmd.OutOrStdout(), comparison)
			}

			renderRunComparison(cmd, comparison)
			return nil
		},
	}
	cmd.Flags().StringVar(&format, "format", "", "Output format: table or json")
	return cmd
}

func renderRunComparison(cmd *cobra.Command, comparison store.RunComparison) {
	out := cmd.OutOrStdout()

	table := compliance.Table{
		Name:    "Run Comparison",
		Columns: []string{"run", "name", "type", "total_co2e"},
	}
	for _, entry := range []struct {
		label string
		run   store.Run
	}{{"A", comparison.RunA}, {"B", comparison.RunB}} {
		total := ""
		if entry.run.TotalCO2e != nil {
			total = fmtFloat(*entry.run.TotalCO2e)
		}
		table.Rows = append(table.Rows, []string{entry.label, entry.run.Name, entry.run.Type, total})
	}
	renderTable(out, table)

	fmt.Fprintf(out, "%s %s kg CO2e", tableTitleStyle().Render("Delta:"), fmtFloat(comparison.Delta))
	if comparison.DeltaPct != nil {
		fmt.Fprintf(out, " (%s%%)", fmtFloat(*comparison.DeltaPct))
	}
	fmt.Fprintln(out)
}
