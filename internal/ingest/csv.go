package ingest

import (
	"context"
	"encoding/csv"
	"fmt"
	"io"
	"math"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"golang.org/x/sync/errgroup"

	"github.com/rshade/carbonledger/internal/engine"
	"github.com/rshade/carbonledger/internal/factors"
	"github.com/rshade/carbonledger/internal/lca"
)

const (
	// ErrNoParsableFiles indicates that none of the supplied files
	// yielded any activity records.
	ErrNoParsableFiles = constError("no parsable activity data found in the supplied files")
)

type constError string

func (e constError) Error() string { return string(e) }

// ParseResult carries the records extracted from one or more input
// files together with non-fatal parse warnings.
type ParseResult struct {
	Records  []engine.ActivityRecord
	Warnings []string
}

// ParseCSV reads one activity CSV. name labels the source in errors,
// warnings, and as the default record source. A nil aliases table uses
// DefaultColumnAliases.
func ParseCSV(r io.Reader, name string, aliases ColumnAliases) (ParseResult, error) {
	if aliases == nil {
		aliases = DefaultColumnAliases()
	}

	reader := csv.NewReader(r)
	reader.FieldsPerRecord = -1
	reader.TrimLeadingSpace = true

	rows, err := reader.ReadAll()
	if err != nil {
		return ParseResult{}, fmt.Errorf("file %q: reading csv: %w", name, err)
	}
	if len(rows) == 0 {
		return ParseResult{}, fmt.Errorf("file %q is empty", name)
	}

	index := resolveColumns(rows[0], aliases)
	if missing := missingColumns(index, requiredColumns); len(missing) > 0 {
		return ParseResult{}, fmt.Errorf("file %q missing required columns: %s", name, strings.Join(missing, ", "))
	}

	result := ParseResult{}
	invalidNumeric := 0
	for _, row := range rows[1:] {
		record, ok, numericOK := parseRow(row, index, name)
		if !numericOK {
			invalidNumeric++
			continue
		}
		if !ok {
			continue
		}
		result.Records = append(result.Records, record)
	}
	if invalidNumeric > 0 {
		result.Warnings = append(result.Warnings,
			fmt.Sprintf("File %q: %d row(s) excluded for non-numeric amount or emission_factor.", name, invalidNumeric))
	}
	return result, nil
}

// parseRow builds one activity record from a data row. The second
// return reports whether the row carries usable identifying fields;
// the third reports whether numeric coercion succeeded.
func parseRow(row []string, index map[string]int, source string) (engine.ActivityRecord, bool, bool) {
	cell := func(col string) string {
		i, ok := index[col]
		if !ok || i >= len(row) {
			return ""
		}
		return strings.TrimSpace(row[i])
	}

	amount, ok := parseFloat(cell(colAmount))
	if !ok {
		return engine.ActivityRecord{}, false, false
	}

	// An empty factor cell is a resolvable gap, not a coercion
	// failure; only a non-empty non-numeric cell excludes the row.
	var factor *float64
	if raw := cell(colEmissionFactor); raw != "" {
		value, numOK := parseFloat(raw)
		if !numOK {
			return engine.ActivityRecord{}, false, false
		}
		factor = &value
	}

	record := engine.ActivityRecord{
		Category:       factors.NormalizeKey(strings.ReplaceAll(cell(colCategory), " ", "")),
		Activity:       cell(colActivity),
		Unit:           cell(colUnit),
		Amount:         amount,
		EmissionFactor: factor,
		CH4:            optionalFloat(cell(colCH4)),
		N2O:            optionalFloat(cell(colN2O)),
		Source:         cell(colSource),
	}
	if record.Category == "" || record.Activity == "" || record.Unit == "" {
		return engine.ActivityRecord{}, false, true
	}
	if record.Source == "" {
		record.Source = source
	}
	return record, true, true
}

func parseFloat(raw string) (float64, bool) {
	if raw == "" {
		return 0, false
	}
	value, err := strconv.ParseFloat(strings.ReplaceAll(raw, ",", ""), 64)
	if err != nil || math.IsNaN(value) || math.IsInf(value, 0) {
		return 0, false
	}
	return value, true
}

// optionalFloat parses secondary-gas cells, treating anything
// unparsable as zero.
func optionalFloat(raw string) float64 {
	value, ok := parseFloat(raw)
	if !ok {
		return 0
	}
	return value
}

// ParseFiles parses every path concurrently and merges records in path
// order. Per-file failures are demoted to warnings unless no file
// yields data, in which case ErrNoParsableFiles wraps the details.
func ParseFiles(ctx context.Context, paths []string, aliases ColumnAliases) (ParseResult, error) {
	results := make([]ParseResult, len(paths))
	failures := make([]string, len(paths))

	g, ctx := errgroup.WithContext(ctx)
	for i, path := range paths {
		g.Go(func() error {
			if err := ctx.Err(); err != nil {
				return err
			}
			f, err := os.Open(path)
			if err != nil {
				failures[i] = err.Error()
				return nil
			}
			defer f.Close()

			parsed, err := ParseCSV(f, filepath.Base(path), aliases)
			if err != nil {
				failures[i] = err.Error()
				return nil
			}
			results[i] = parsed
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return ParseResult{}, err
	}

	merged := ParseResult{}
	for i := range results {
		merged.Records = append(merged.Records, results[i].Records...)
		merged.Warnings = append(merged.Warnings, results[i].Warnings...)
	}
	var failed []string
	for _, msg := range failures {
		if msg != "" {
			failed = append(failed, msg)
		}
	}
	if len(merged.Records) == 0 {
		if len(failed) > 0 {
			return ParseResult{}, fmt.Errorf("%w: %s", ErrNoParsableFiles, strings.Join(failed, "; "))
		}
		return ParseResult{}, ErrNoParsableFiles
	}
	merged.Warnings = append(merged.Warnings, failed...)
	return merged, nil
}

// ParseLCACSV reads a lifecycle-stage CSV with stage, amount, and
// emission_factor columns.
func ParseLCACSV(r io.Reader, name string, aliases ColumnAliases) ([]lca.Item, []string, error) {
	if aliases == nil {
		aliases = DefaultColumnAliases()
	}

	reader := csv.NewReader(r)
	reader.FieldsPerRecord = -1
	reader.TrimLeadingSpace = true

	rows, err := reader.ReadAll()
	if err != nil {
		return nil, nil, fmt.Errorf("file %q: reading csv: %w", name, err)
	}
	if len(rows) == 0 {
		return nil, nil, fmt.Errorf("file %q is empty", name)
	}

	index := resolveColumns(rows[0], aliases)
	if missing := missingColumns(index, []string{colStage, colAmount, colEmissionFactor}); len(missing) > 0 {
		return nil, nil, fmt.Errorf("file %q missing required columns: %s", name, strings.Join(missing, ", "))
	}

	var (
		items    []lca.Item
		warnings []string
		invalid  int
	)
	cell := func(row []string, col string) string {
		i, ok := index[col]
		if !ok || i >= len(row) {
			return ""
		}
		return strings.TrimSpace(row[i])
	}
	for _, row := range rows[1:] {
		stage := cell(row, colStage)
		if stage == "" {
			continue
		}
		amount, okA := parseFloat(cell(row, colAmount))
		factor, okF := parseFloat(cell(row, colEmissionFactor))
		if !okA || !okF {
			invalid++
			continue
		}
		items = append(items, lca.Item{Stage: stage, Amount: amount, EmissionFactor: factor})
	}
	if invalid > 0 {
		warnings = append(warnings,
			fmt.Sprintf("File %q: %d row(s) excluded for non-numeric amount or emission_factor.", name, invalid))
	}
	return items, warnings, nil
}
