// Package kpi derives emissions-intensity metrics from a quantified
// total and optional business denominators.
package kpi

// Metric is one intensity ratio.
type Metric struct {
	Name  string  `json:"metric"`
	Value float64 `json:"value"`
}

// Inputs carries the optional denominators. Zero or negative values
// suppress the corresponding metric rather than erroring.
type Inputs struct {
	ProductionUnits float64
	RevenueUSD      float64
	Employees       float64
}

// Intensity computes the intensity metrics that have a positive
// denominator, in a fixed order. totalCO2e is in kg; ratios are
// reported per tonne CO2e.
func Intensity(totalCO2e float64, in Inputs) []Metric {
	tonnes := totalCO2e / 1000.0

	var metrics []Metric
	if in.ProductionUnits > 0 {
		metrics = append(metrics, Metric{Name: "tCO2e_per_unit", Value: tonnes / in.ProductionUnits})
	}
	if in.RevenueUSD > 0 {
		metrics = append(metrics, Metric{Name: "tCO2e_per_musd", Value: tonnes / (in.RevenueUSD / 1_000_000.0)})
	}
	if in.Employees > 0 {
		metrics = append(metrics, Metric{Name: "tCO2e_per_employee", Value: tonnes / in.Employees})
	}
	return metrics
}
