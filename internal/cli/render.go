package cli

import (
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/charmbracelet/lipgloss"
	json "github.com/goccy/go-json"

	"github.com/rshade/carbonledger/internal/compliance"
)

// Output formats accepted by the --format flag.
const (
	formatTable = "table"
	formatJSON  = "json"
)

// tableTitleStyle colors table titles.
func tableTitleStyle() lipgloss.Style {
	return lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("39"))
}

// tableHeaderStyle bolds the header row.
func tableHeaderStyle() lipgloss.Style {
	return lipgloss.NewStyle().Bold(true)
}

// ruleStyle dims separators.
func ruleStyle() lipgloss.Style {
	return lipgloss.NewStyle().Foreground(lipgloss.Color("240"))
}

// renderJSON writes v as indented JSON.
func renderJSON(w io.Writer, v any) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

// renderTable writes one titled, column-aligned table.
func renderTable(w io.Writer, table compliance.Table) {
	if len(table.Rows) == 0 {
		return
	}

	widths := make([]int, len(table.Columns))
	for i, col := range table.Columns {
		widths[i] = len(col)
	}
	for _, row := range table.Rows {
		for i, cell := range row {
			if i < len(widths) && len(cell) > widths[i] {
				widths[i] = len(cell)
			}
		}
	}

	formatRow := func(cells []string) string {
		parts := make([]string, 0, len(cells))
		for i, cell := range cells {
			if i < len(widths) {
				parts = append(parts, pad(cell, widths[i]))
			}
		}
		return strings.Join(parts, "  ")
	}

	total := 0
	for _, width := range widths {
		total += width + 2
	}

	fmt.Fprintln(w, tableTitleStyle().Render(table.Name))
	fmt.Fprintln(w, tableHeaderStyle().Render(formatRow(table.Columns)))
	fmt.Fprintln(w, ruleStyle().Render(strings.Repeat("-", total)))
	for _, row := range table.Rows {
		fmt.Fprintln(w, formatRow(row))
	}
	fmt.Fprintln(w)
}

func pad(s string, width int) string {
	if len(s) >= width {
		return s
	}
	return s + strings.Repeat(" ", width-len(s))
}

// renderWarnings prints calculation warnings, one per line.
func renderWarnings(w io.Writer, warnings []string) {
	for _, warning := range warnings {
		fmt.Fprintf(w, "Warning: %s\n", warning)
	}
}

// fmtFloat renders values for table cells with three decimals,
// matching the export number format.
func fmtFloat(v float64) string {
	return strconv.FormatFloat(v, 'f', 3, 64)
}
