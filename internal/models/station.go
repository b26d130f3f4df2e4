package models

import (
	"time"
)

type FuelType string

const (
	FuelUnleaded  FuelType = "unleaded"
	FuelDiesel    FuelType = "diesel"
	FuelPremium95 FuelType = "premium95"
	FuelPremium98 FuelType = "premium98"
	FuelLPG       FuelType = "lpg"
)

// AllFuelTypes returns the fixed set of supported fuel types, in display order.
func AllFuelTypes() []FuelType {
	return []FuelType{FuelUnleaded, FuelDiesel, FuelPremium95, FuelPremium98, FuelLPG}
}

func ValidFuelType(s string) bool {
	switch FuelType(s) {
	case FuelUnleaded, FuelDiesel, FuelPremium95, FuelPremium98, FuelLPG:
		return true
	}
	return false
}

// FuelPrices maps every supported fuel type to a price in cents-per-litre.
// A nil value means the price is unknown; the key is still present. Use
// Normalised to restore that invariant after decoding loose upstream data.
type FuelPrices map[FuelType]*float64

func NewFuelPrices() FuelPrices {
	fp := make(FuelPrices, 5)
	for _, ft := range AllFuelTypes() {
		fp[ft] = nil
	}
	return fp
}

// Normalised returns a copy with all five fuel-type keys present and any
// non-positive prices demoted to unknown.
func (fp FuelPrices) Normalised() FuelPrices {
	out := NewFuelPrices()
	for _, ft := range AllFuelTypes() {
		if p, ok := fp[ft]; ok && p != nil && *p > 0 {
			v := *p
			out[ft] = &v
		}
	}
	return out
}

// Price returns the price for the given fuel type, and whether it is known.
func (fp FuelPrices) Price(ft FuelType) (float64, bool) {
	p, ok := fp[ft]
	if !ok || p == nil {
		return 0, false
	}
	return *p, true
}

// Min returns the lowest known price across all fuel types, and whether any
// price is known at all.
func (fp FuelPrices) Min() (float64, bool) {
	lowest := 0.0
	found := false
	for _, ft := range AllFuelTypes() {
		if p, ok := fp.Price(ft); ok && (!found || p < lowest) {
			lowest = p
			found = true
		}
	}
	return lowest, found
}

type Coordinates struct {
	Latitude  float64 `json:"latitude"`
	Longitude float64 `json:"longitude"`
}

type StationRecord struct {
	ID          string       `json:"id"`
	Name        string       `json:"name"`
	Brand       string       `json:"brand"`
	Address     string       `json:"address"`
	Suburb      string       `json:"suburb"`
	Postcode    string       `json:"postcode"`
	Region      string       `json:"region"`
	FuelPrices  FuelPrices   `json:"fuel_prices"`
	Coordinates *Coordinates `json:"coordinates,omitempty"`
	LastUpdated time.Time    `json:"last_updated"`
	Verified    bool         `json:"verified"`
}

// Normalised returns a copy of the record with the fuel price invariant
// restored (all five keys present, unknown as nil).
func (s StationRecord) Normalised() StationRecord {
	s.FuelPrices = s.FuelPrices.Normalised()
	return s
}
