package cli

import (
	"context"
	"fmt"
	"strconv"
	"strings"

	"github.com/spf13/cobra"

	"github.com/rshade/carbonledger/internal/factors"
)

// parseReductions parses repeated key=pct flag values.
func parseReductions(values []string) (map[string]float64, error) {
	if len(values) == 0 {
		return nil, nil
	}
	parsed := make(map[string]float64, len(values))
	for _, raw := range values {
		key, value, found := strings.Cut(raw, "=")
		if !found || strings.TrimSpace(key) == "" {
			return nil, fmt.Errorf("invalid reduction %q, expected key=percent", raw)
		}
		pct, err := strconv.ParseFloat(strings.TrimSpace(value), 64)
		if err != nil {
			return nil, fmt.Errorf("invalid reduction %q: %w", raw, err)
		}
		parsed[strings.TrimSpace(key)] = pct
	}
	return parsed, nil
}

// regionAndYear resolves the effective region and year filters from
// flags with config defaults.
func regionAndYear(cmd *cobra.Command) (string, *int) {
	region, _ := cmd.Flags().GetString("region")
	if region == "" {
		region = cfg.Defaults.Region
	}

	var year *int
	if y, _ := cmd.Flags().GetInt("year"); y != 0 {
		year = &y
	} else if cfg.Defaults.Year != 0 {
		y := cfg.Defaults.Year
		year = &y
	}
	return region, year
}

// loadFactors fetches the factor set for a calculation: from a YAML
// library file when given, otherwise from the configured database.
func loadFactors(ctx context.Context, library, region string, year *int) ([]factors.Record, error) {
	if library != "" {
		records, err := factors.LoadLibrary(library)
		if err != nil {
			return nil, err
		}
		return factors.Prepare(records, region, year), nil
	}

	s, err := openStore()
	if err != nil {
		return nil, err
	}
	defer s.Close()
	return s.FactorsForCalculation(ctx, region, year)
}

// outputFormat resolves the --format flag with the configured default.
func outputFormat(cmd *cobra.Command) (string, error) {
	format, _ := cmd.Flags().GetString("format")
	if format == "" {
		format = cfg.Defaults.Output
	}
	if format == "" {
		format = formatTable
	}
	if format != formatTable && format != formatJSON {
		return "", fmt.Errorf("unsupported format %q, expected table or json", format)
	}
	return format, nil
}
