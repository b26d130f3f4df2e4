package models

import (
	"log"
	"strconv"
	"time"
)

// BaserowRowsResponse is one page of the Baserow "list rows" endpoint
// (user_field_names=true), with a cursor to the next page.
type BaserowRowsResponse struct {
	Count   int                 `json:"count"`
	Next    *string             `json:"next"`
	Results []BaserowStationRow `json:"results"`
}

// BaserowStationRow mirrors the station table columns. Baserow serialises
// number and date columns as strings, so prices and coordinates arrive as
// *string and are parsed during conversion.
type BaserowStationRow struct {
	ID          int     `json:"id"`
	Name        string  `json:"Name"`
	Brand       string  `json:"Brand"`
	Address     string  `json:"Address"`
	Suburb      string  `json:"Suburb"`
	Postcode    string  `json:"Postcode"`
	Region      string  `json:"Region"`
	Unleaded    *string `json:"Unleaded"`
	Diesel      *string `json:"Diesel"`
	Premium95   *string `json:"Premium 95"`
	Premium98   *string `json:"Premium 98"`
	LPG         *string `json:"LPG"`
	Latitude    *string `json:"Latitude"`
	Longitude   *string `json:"Longitude"`
	Verified    bool    `json:"Verified"`
	LastUpdated *string `json:"Last Updated"`
}

// ToStationRecord normalises a loose Baserow row into a StationRecord with
// the fixed five-key price map.
func (r *BaserowStationRow) ToStationRecord() StationRecord {
	record := StationRecord{
		ID:       strconv.Itoa(r.ID),
		Name:     r.Name,
		Brand:    r.Brand,
		Address:  r.Address,
		Suburb:   r.Suburb,
		Postcode: r.Postcode,
		Region:   r.Region,
		Verified: r.Verified,
		FuelPrices: FuelPrices{
			FuelUnleaded:  parsePrice(r.Unleaded),
			FuelDiesel:    parsePrice(r.Diesel),
			FuelPremium95: parsePrice(r.Premium95),
			FuelPremium98: parsePrice(r.Premium98),
			FuelLPG:       parsePrice(r.LPG),
		},
	}

	if lat, lng, ok := parseCoordinates(r.Latitude, r.Longitude); ok {
		record.Coordinates = &Coordinates{Latitude: lat, Longitude: lng}
	}

	if r.LastUpdated != nil {
		if ts, err := time.Parse(time.RFC3339, *r.LastUpdated); err == nil {
			record.LastUpdated = ts
		} else {
			log.Printf("station %d: unparseable last-updated value %q", r.ID, *r.LastUpdated)
		}
	}

	return record.Normalised()
}

func parsePrice(s *string) *float64 {
	if s == nil || *s == "" {
		return nil
	}
	v, err := strconv.ParseFloat(*s, 64)
	if err != nil || v <= 0 {
		return nil
	}
	return &v
}

func parseCoordinates(lat, lng *string) (float64, float64, bool) {
	if lat == nil || lng == nil {
		return 0, 0, false
	}
	latV, err := strconv.ParseFloat(*lat, 64)
	if err != nil {
		return 0, 0, false
	}
	lngV, err := strconv.ParseFloat(*lng, 64)
	if err != nil {
		return 0, 0, false
	}
	return latV, lngV, true
}
