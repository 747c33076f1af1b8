// Package lca runs lifecycle assessments over a stage inventory:
// system-boundary filtering, per-stage allocation, quantification,
// sensitivity bounds, and hotspot ranking.
package lca

import (
	"math"
	"sort"
	"strings"

	"golang.org/x/text/cases"
	"golang.org/x/text/language"
)

// SystemBoundaryNode is the source node of every flow edge.
const SystemBoundaryNode = "System Boundary"

// CanonicalStages lists the five canonical lifecycle stages in report
// order. Custom stage names sort after these, in first-seen order.
var CanonicalStages = []string{"Materials", "Transport", "Processing", "Distribution", "End-Of-Life"}

// boundaryPresets maps boundary names to the stage subset they keep.
// An unrecognized boundary keeps all stages unfiltered.
var boundaryPresets = map[string][]string{
	"cradle-to-grave": {"Materials", "Transport", "Processing", "Distribution", "End-Of-Life"},
	"cradle-to-gate":  {"Materials", "Transport", "Processing"},
	"gate-to-gate":    {"Processing"},
}

type constError string

func (e constError) Error() string { return string(e) }

var (
	// ErrNoValidRows indicates the inventory was empty or every row
	// failed numeric validation.
	ErrNoValidRows = constError("no valid lifecycle rows remain after validation")

	// ErrEmptyBoundary indicates the boundary filter removed every row.
	ErrEmptyBoundary = constError("no rows remain after applying selected boundary")
)

// Item is one lifecycle inventory row.
type Item struct {
	// Stage is the lifecycle stage label; normalized to title case.
	Stage string `json:"stage"`

	// Amount is the non-negative activity quantity for the stage.
	Amount float64 `json:"amount"`

	// EmissionFactor is the CO2e multiplier per unit of Amount.
	EmissionFactor float64 `json:"emission_factor"`
}

// Options configures a lifecycle run.
type Options struct {
	// Boundary selects a stage subset preset (cradle-to-grave,
	// cradle-to-gate, gate-to-gate). Unrecognized values keep all
	// stages.
	Boundary string

	// AllocationMethod controls whether allocation factors scale the
	// emissions math. With "none" the raw emission factor is used and
	// allocation factors are recorded but not applied.
	AllocationMethod string

	// DefaultAllocation is applied to every row, clamped to [0, 1].
	DefaultAllocation float64

	// StageAllocation overrides the default per stage
	// (case-insensitive match), each clamped to [0, 1].
	StageAllocation map[string]float64

	// SensitivityPct is the +/- percentage for the sensitivity sweep,
	// clamped to >= 0.
	SensitivityPct float64
}

// StageSummary aggregates one stage.
type StageSummary struct {
	Stage          string  `json:"stage"`
	TotalAmount    float64 `json:"total_amount"`
	TotalEmissions float64 `json:"total_emissions"`
	MeanAllocation float64 `json:"avg_allocation_factor"`
}

// Hotspot is one entry of the top-emitting stage ranking.
type Hotspot struct {
	Stage          string  `json:"stage"`
	TotalEmissions float64 `json:"total_emissions"`
}

// FlowEdge is one weighted edge of the boundary-to-stage flow list,
// consumable by downstream diagram renderers.
type FlowEdge struct {
	Source string  `json:"source"`
	Target string  `json:"target"`
	Value  float64 `json:"value"`
}

// Sensitivity holds the low/high total bounds of the factor
// uncertainty sweep.
type Sensitivity struct {
	Pct       float64 `json:"pct"`
	LowTotal  float64 `json:"low_total"`
	HighTotal float64 `json:"high_total"`
}

// Result is the complete lifecycle assessment output.
type Result struct {
	Boundary         string             `json:"boundary"`
	AllocationMethod string             `json:"allocation_method"`
	TotalEmissions   float64            `json:"total_emissions"`
	Summary          []StageSummary     `json:"summary"`
	ByStage          map[string]float64 `json:"by_stage"`
	Hotspots         []Hotspot          `json:"hotspot_categories"`
	Sensitivity      Sensitivity        `json:"sensitivity"`
	Flows            []FlowEdge         `json:"flows"`
}

// stageCaser title-cases stage labels; cases.Title capitalizes each
// hyphen-separated token, and the -of- correction keeps the compound
// "End-Of-Life" form stable across caser versions.
var stageCaser = cases.Title(language.English)

// NormalizeStage canonicalizes a stage label: trim, title case, and
// the End-Of-Life compound correction.
func NormalizeStage(stage string) string {
	s := stageCaser.String(strings.ToLower(strings.TrimSpace(stage)))
	return strings.ReplaceAll(s, "-of-", "-Of-")
}

// clamp01 limits an allocation factor to [0, 1].
func clamp01(v float64) float64 {
	return math.Min(1, math.Max(0, v))
}

// Run executes a lifecycle assessment over the inventory.
//
// Rows with non-finite numbers or negative amounts are dropped; an
// inventory empty after validation fails with ErrNoValidRows, and one
// emptied by the boundary filter fails with ErrEmptyBoundary.
func Run(inventory []Item, opts Options) (*Result, error) {
	type row struct {
		Item
		allocation float64
		emissions  float64
	}

	rows := make([]row, 0, len(inventory))
	for _, item := range inventory {
		if math.IsNaN(item.Amount) || math.IsInf(item.Amount, 0) ||
			math.IsNaN(item.EmissionFactor) || math.IsInf(item.EmissionFactor, 0) {
			continue
		}
		if item.Amount < 0 {
			continue
		}
		item.Stage = NormalizeStage(item.Stage)
		if item.Stage == "" {
			continue
		}
		rows = append(rows, row{Item: item})
	}
	if len(rows) == 0 {
		return nil, ErrNoValidRows
	}

	boundary := strings.ToLower(strings.TrimSpace(opts.Boundary))
	if preset, ok := boundaryPresets[boundary]; ok {
		keep := make(map[string]bool, len(preset))
		for _, stage := range preset {
			keep[stage] = true
		}
		filtered := rows[:0]
		for _, r := range rows {
			if keep[r.Stage] {
				filtered = append(filtered, r)
			}
		}
		rows = filtered
	}
	if len(rows) == 0 {
		return nil, ErrEmptyBoundary
	}

	method := strings.ToLower(strings.TrimSpace(opts.AllocationMethod))
	defaultAllocation := clamp01(opts.DefaultAllocation)
	stageAllocation := make(map[string]float64, len(opts.StageAllocation))
	for stage, factor := range opts.StageAllocation {
		stageAllocation[strings.ToLower(strings.TrimSpace(stage))] = clamp01(factor)
	}

	for i := range rows {
		allocation := defaultAllocation
		if override, ok := stageAllocation[strings.ToLower(rows[i].Stage)]; ok {
			allocation = override
		}
		rows[i].allocation = allocation

		effective := rows[i].EmissionFactor
		if method != "none" && method != "" {
			effective *= allocation
		}
		rows[i].emissions = rows[i].Amount * effective
	}

	// Canonical stages first, then custom stages in first-seen order.
	stageOrder := make([]string, 0, len(CanonicalStages))
	seen := make(map[string]bool)
	present := make(map[string]bool)
	for _, r := range rows {
		present[r.Stage] = true
	}
	for _, stage := range CanonicalStages {
		if present[stage] {
			stageOrder = append(stageOrder, stage)
			seen[stage] = true
		}
	}
	for _, r := range rows {
		if !seen[r.Stage] {
			stageOrder = append(stageOrder, r.Stage)
			seen[r.Stage] = true
		}
	}

	type agg struct {
		amount     float64
		emissions  float64
		allocation float64
		count      int
	}
	byStage := make(map[string]*agg, len(stageOrder))
	for _, r := range rows {
		a, ok := byStage[r.Stage]
		if !ok {
			a = &agg{}
			byStage[r.Stage] = a
		}
		a.amount += r.Amount
		a.emissions += r.emissions
		a.allocation += r.allocation
		a.count++
	}

	result := &Result{
		Boundary:         opts.Boundary,
		AllocationMethod: method,
		ByStage:          make(map[string]float64, len(stageOrder)),
	}
	for _, stage := range stageOrder {
		a := byStage[stage]
		result.Summary = append(result.Summary, StageSummary{
			Stage:          stage,
			TotalAmount:    a.amount,
			TotalEmissions: a.emissions,
			MeanAllocation: a.allocation / float64(a.count),
		})
		result.ByStage[stage] = a.emissions
		result.TotalEmissions += a.emissions
		result.Flows = append(result.Flows, FlowEdge{
			Source: SystemBoundaryNode,
			Target: stage,
			Value:  a.emissions,
		})
	}

	hotspots := make([]Hotspot, 0, len(result.Summary))
	for _, s := range result.Summary {
		hotspots = append(hotspots, Hotspot{Stage: s.Stage, TotalEmissions: s.TotalEmissions})
	}
	sort.SliceStable(hotspots, func(i, j int) bool {
		return hotspots[i].TotalEmissions > hotspots[j].TotalEmissions
	})
	if len(hotspots) > 3 {
		hotspots = hotspots[:3]
	}
	result.Hotspots = hotspots

	pct := math.Max(0, opts.SensitivityPct)
	result.Sensitivity = Sensitivity{
		Pct:       pct,
		LowTotal:  result.TotalEmissions * (1 - pct/100),
		HighTotal: result.TotalEmissions * (1 + pct/100),
	}

	return result, nil
}
