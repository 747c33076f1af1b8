package cli

import (
	"fmt"
	"strconv"

	"github.com/spf13/cobra"

	"github.com/rshade/carbonledger/internal/compliance"
	"github.com/rshade/carbonledger/internal/factors"
)

// newFactorCmd creates the "factor" command group managing the
// emission-factor library.
func newFactorCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "factor",
		Short: "Manage the emission factor library",
	}
	cmd.AddCommand(
		newFactorListCmd(),
		newFactorUpsertCmd(),
		newFactorDeleteCmd(),
		newFactorImportCmd(),
		newFactorCategoriesCmd(),
	)
	return cmd
}

func newFactorListCmd() *cobra.Command {
	var (
		activeOnly bool
		format     string
	)

	cmd := &cobra.Command{
		Use:   "list",
		Short: "List emission factors",
		RunE: func(cmd *cobra.Command, _ []string) error {
			s, err := openStore()
			if err != nil {
				return err
			}
			defer s.Close()

			records, err := s.ListFactors(cmd.Context(), activeOnly)
			if err != nil {
				return err
			}
			if format == formatJSON {
				return renderJSON(cmd.OutOrStdout(), records)
			}
			renderFactorTable(cmd, records)
			return nil
		},
	}
	cmd.Flags().BoolVar(&activeOnly, "active", false, "List only active factors")
	cmd.Flags().StringVar(&format, "format", "", "Output format: table or json")
	return cmd
}

// factorUpsertParams holds the flag values for factor upsert.
type factorUpsertParams struct {
	id            int64
	activity      string
	unit          string
	factor        float64
	scope         string
	scopeCategory string
	region        string
	year          int
	source        string
	version       string
	inactive      bool
}

func newFactorUpsertCmd() *cobra.Command {
	var params factorUpsertParams

	cmd := &cobra.Command{
		Use:   "upsert",
		Short: "Insert or update an emission factor",
		Long: `Insert or update one factor. Without --id, an existing factor is
matched on the full natural key (activity, unit, scope, region, year,
source, version); a new version or source always creates a new row.`,
		RunE: func(cmd *cobra.Command, _ []string) error {
			s, err := openStore()
			if err != nil {
				return err
			}
			defer s.Close()

			record := factors.Record{
				ID:             params.id,
				Activity:       params.activity,
				Unit:           params.unit,
				EmissionFactor: params.factor,
				Scope:          params.scope,
				ScopeCategory:  params.scopeCategory,
				Region:         params.region,
				Source:         params.source,
				Version:        params.version,
				Active:         !params.inactive,
			}
			if cmd.Flags().Changed("year") {
				record.Year = &params.year
			}

			id, err := s.UpsertFactor(cmd.Context(), record)
			if err != nil {
				return err
			}
			cmd.Printf("Factor %d saved\n", id)
			return nil
		},
	}

	cmd.Flags().Int64Var(&params.id, "id", 0, "Explicit factor id to update")
	cmd.Flags().StringVar(&params.activity, "activity", "", "Activity name")
	cmd.Flags().StringVar(&params.unit, "unit", "", "Unit the factor applies to")
	cmd.Flags().Float64Var(&params.factor, "factor", 0, "Emission factor in kg CO2e per unit")
	cmd.Flags().StringVar(&params.scope, "scope", "", "GHG scope (scope1, scope2, scope3)")
	cmd.Flags().StringVar(&params.scopeCategory, "scope-category", "", "Scope category code")
	cmd.Flags().StringVar(&params.region, "region", "", "Region the factor applies to (default global)")
	cmd.Flags().IntVar(&params.year, "year", 0, "Validity year (omit for year-agnostic)")
	cmd.Flags().StringVar(&params.source, "source", "", "Factor source")
	cmd.Flags().StringVar(&params.version, "version", "", "Factor version")
	cmd.Flags().BoolVar(&params.inactive, "inactive", false, "Mark the factor inactive")
	_ = cmd.MarkFlagRequired("activity")
	_ = cmd.MarkFlagRequired("unit")
	_ = cmd.MarkFlagRequired("factor")

	return cmd
}

func newFactorDeleteCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "delete <id>",
		Short: "Permanently delete an emission factor",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := strconv.ParseInt(args[0], 10, 64)
			if err != nil {
				return fmt.Errorf("invalid factor id %q", args[0])
			}

			s, err := openStore()
			if err != nil {
				return err
			}
			defer s.Close()

			if err := s.DeleteFactor(cmd.Context(), id); err != nil {
				return err
			}
			cmd.Printf("Factor %d deleted\n", id)
			return nil
		},
	}
	return cmd
}

func newFactorImportCmd() *cobra.Command {
	var library string

	cmd := &cobra.Command{
		Use:   "import",
		Short: "Import a YAML factor library into the database",
		RunE: func(cmd *cobra.Command, _ []string) error {
			records, err := factors.LoadLibrary(library)
			if err != nil {
				return err
			}

			s, err := openStore()
			if err != nil {
				return err
			}
			defer s.Close()

			for _, record := range records {
				if _, err := s.UpsertFactor(cmd.Context(), record); err != nil {
					return fmt.Errorf("importing %q: %w", record.Activity, err)
				}
			}
			cmd.Printf("Imported %d factor(s)\n", len(records))
			logger.Info().Int("count", len(records)).Str("library", library).Msg("library imported")
			return nil
		},
	}
	cmd.Flags().StringVar(&library, "library", "", "YAML factor library file")
	_ = cmd.MarkFlagRequired("library")
	return cmd
}

func newFactorCategoriesCmd() *cobra.Command {
	var format string

	cmd := &cobra.Command{
		Use:   "categories",
		Short: "List the GHG Protocol scope categories",
		RunE: func(cmd *cobra.Command, _ []string) error {
			s, err := openStore()
			if err != nil {
				return err
			}
			defer s.Close()

			categories, err := s.ListScopeCategories(cmd.Context())
			if err != nil {
				return err
			}
			if format == formatJSON {
				return renderJSON(cmd.OutOrStdout(), categories)
			}

			table := compliance.Table{
				Name:    "Scope Categories",
				Columns: []string{"scope", "code", "name", "description"},
			}
			for _, c := range categories {
				table.Rows = append(table.Rows, []string{c.Scope, c.Code, c.Name, c.Description})
			}
			renderTable(cmd.OutOrStdout(), table)
			return nil
		},
	}
	cmd.Flags().StringVar(&format, "format", "", "Output format: table or json")
	return cmd
}

func renderFactorTable(cmd *cobra.Command, records []factors.Record) {
	table := compliance.Table{
		Name:    "Factor Library",
		Columns: []string{"id", "activity", "unit", "factor", "scope", "region", "year", "source", "version", "active"},
	}
	for _, r := range records {
		year := ""
		if r.Year != nil {
			year = strconv.Itoa(*r.Year)
		}
		table.Rows = append(table.Rows, []string{
			strconv.FormatInt(r.ID, 10), r.Activity, r.Unit, fmtFloat(r.EmissionFactor),
			r.Scope, r.Region, year, r.Source, r.Version, strconv.FormatBool(r.Active),
		})
	}
	if len(table.Rows) == 0 {
		cmd.Println("No factors found")
		return
	}
	renderTable(cmd.OutOrStdout(), table)
}
