package providers

import (
	"context"
	"os"
	"strconv"
	"time"

	"github.com/cockroachdb/errors"

	"github.com/petrolscout/stations-api/internal"
	"github.com/petrolscout/stations-api/internal/models"
)

// csvColumns is the expected header: identity and address columns, the five
// price columns, then metadata.
var csvColumns = []string{
	"id", "name", "brand", "address", "suburb", "postcode", "region",
	"latitude", "longitude",
	"unleaded", "diesel", "premium95", "premium98", "lpg",
	"last_updated", "verified",
}

// CSVFile loads stations from a local CSV export, the fallback of last
// resort.
type CSVFile struct {
	path string
}

func NewCSVFile(path string) *CSVFile {
	return &CSVFile{path: path}
}

func (c *CSVFile) Name() string {
	return "csv:" + c.path
}

func (c *CSVFile) Stations(_ context.Context) ([]models.StationRecord, error) {
	f, err := os.Open(c.path)
	if err != nil {
		return nil, errors.Wrap(err, "failed to open CSV file")
	}
	defer func() {
		_ = f.Close()
	}()

	stations := make([]models.StationRecord, 0, 100)
	for record := range internal.ParseCSV(f, true, stationFromCSV) {
		if record.Error != nil {
			return nil, errors.Wrap(record.Error, "failed to parse station CSV")
		}
		stations = append(stations, record.Value.Normalised())
	}

	return stations, nil
}

func stationFromCSV(record, _ []string) (*models.StationRecord, error) {
	if len(record) != len(csvColumns) {
		return nil, errors.Newf("expected %d columns, got %d", len(csvColumns), len(record))
	}

	station := &models.StationRecord{
		ID:       record[0],
		Name:     record[1],
		Brand:    record[2],
		Address:  record[3],
		Suburb:   record[4],
		Postcode: record[5],
		Region:   record[6],
		FuelPrices: models.FuelPrices{
			models.FuelUnleaded:  csvPrice(record[9]),
			models.FuelDiesel:    csvPrice(record[10]),
			models.FuelPremium95: csvPrice(record[11]),
			models.FuelPremium98: csvPrice(record[12]),
			models.FuelLPG:       csvPrice(record[13]),
		},
	}

	if record[7] != "" && record[8] != "" {
		lat, latErr := strconv.ParseFloat(record[7], 64)
		lng, lngErr := strconv.ParseFloat(record[8], 64)
		if latErr == nil && lngErr == nil {
			station.Coordinates = &models.Coordinates{Latitude: lat, Longitude: lng}
		}
	}

	if record[14] != "" {
		ts, err := time.Parse(time.RFC3339, record[14])
		if err != nil {
			return nil, errors.Wrapf(err, "invalid last_updated for station %s", station.ID)
		}
		station.LastUpdated = ts
	}

	station.Verified = record[15] == "true"

	return station, nil
}

func csvPrice(s string) *float64 {
	if s == "" {
		return nil
	}
	v, err := strconv.ParseFloat(s, 64)
	if err != nil || v <= 0 {
		return nil
	}
	return &v
}
