package ingest

import (
	"fmt"

	"github.com/rshade/carbonledger/internal/engine"
	"github.com/rshade/carbonledger/internal/factors"
)

// Default emission factors for manual quick-entry, in kg CO2e per
// canonical unit.
const (
	DefaultFuelEF        = 2.68 // kg CO2e per litre of diesel
	DefaultElectricityEF = 0.4  // kg CO2e per kWh of grid electricity
	DefaultTransportEF   = 0.12 // kg CO2e per km of road freight
	DefaultWasteEF       = 0.45 // kg CO2e per kg of landfilled waste
)

// ErrAllZero indicates a manual entry with no positive activity amount.
const ErrAllZero = constError("enter at least one activity amount greater than zero")

// ManualEntry captures the quick-entry form covering the four common
// activity groups. Zero emission-factor fields fall back to the
// built-in defaults.
type ManualEntry struct {
	FuelLitres        float64
	ElectricityKWh    float64
	RenewableFraction float64
	TransportKm       float64
	WasteKg           float64

	FuelEF        float64
	ElectricityEF float64
	TransportEF   float64
	WasteEF       float64
}

// Records expands the entry into activity records, one per non-zero
// amount. Grid electricity is discounted by the renewable fraction
// before conversion.
func (e ManualEntry) Records() ([]engine.ActivityRecord, error) {
	if e.RenewableFraction < 0 || e.RenewableFraction > 1 {
		return nil, fmt.Errorf("renewable fraction %.2f out of range [0, 1]", e.RenewableFraction)
	}
	for _, amount := range []float64{e.FuelLitres, e.ElectricityKWh, e.TransportKm, e.WasteKg} {
		if amount < 0 {
			return nil, fmt.Errorf("manual entry amounts must be non-negative")
		}
	}

	factorOr := func(value, fallback float64) float64 {
		if value > 0 {
			return value
		}
		return fallback
	}

	type line struct {
		category string
		activity string
		unit     string
		amount   float64
		factor   float64
	}
	lines := []line{
		{"scope1", "Fuel Combustion", "L", e.FuelLitres, factorOr(e.FuelEF, DefaultFuelEF)},
		{"scope2", "Grid Electricity", "kWh", e.ElectricityKWh * (1 - e.RenewableFraction), factorOr(e.ElectricityEF, DefaultElectricityEF)},
		{"scope3", "Road Transport", "km", e.TransportKm, factorOr(e.TransportEF, DefaultTransportEF)},
		{"scope3", "Waste to Landfill", "kg", e.WasteKg, factorOr(e.WasteEF, DefaultWasteEF)},
	}

	var records []engine.ActivityRecord
	for _, l := range lines {
		if l.amount <= 0 {
			continue
		}
		factor := l.factor
		records = append(records, engine.ActivityRecord{
			Category:       l.category,
			Activity:       l.activity,
			Unit:           l.unit,
			Amount:         l.amount,
			EmissionFactor: &factor,
			Source:         "manual entry",
			Provenance:     factors.UserProvenance(),
		})
	}
	if len(records) == 0 {
		return nil, ErrAllZero
	}
	return records, nil
}
