package providers

import (
	"context"
	"os"
	"strconv"
	"time"

	"github.com/cockroachdb/errors"
	jsoniter "github.com/json-iterator/go"

	"github.com/petrolscout/stations-api/internal/models"
)

var json = jsoniter.ConfigCompatibleWithStandardLibrary

type geoJSONFeatureCollection struct {
	Type     string           `json:"type"`
	Features []geoJSONFeature `json:"features"`
}

type geoJSONFeature struct {
	Type     string `json:"type"`
	Geometry *struct {
		Type        string    `json:"type"`
		Coordinates []float64 `json:"coordinates"` // [lon, lat]
	} `json:"geometry"`
	Properties struct {
		ID          string              `json:"id"`
		Name        string              `json:"name"`
		Brand       string              `json:"brand"`
		Address     string              `json:"address"`
		Suburb      string              `json:"suburb"`
		Postcode    string              `json:"postcode"`
		Region      string              `json:"region"`
		Prices      map[string]*float64 `json:"prices"`
		LastUpdated string              `json:"last_updated"`
		Verified    bool                `json:"verified"`
	} `json:"properties"`
}

// GeoJSONFile loads stations from a local GeoJSON FeatureCollection, used as
// an offline fallback when the remote table is unreachable.
type GeoJSONFile struct {
	path string
}

func NewGeoJSONFile(path string) *GeoJSONFile {
	return &GeoJSONFile{path: path}
}

func (g *GeoJSONFile) Name() string {
	return "geojson:" + g.path
}

func (g *GeoJSONFile) Stations(_ context.Context) ([]models.StationRecord, error) {
	data, err := os.ReadFile(g.path)
	if err != nil {
		return nil, errors.Wrap(err, "failed to read GeoJSON file")
	}

	var collection geoJSONFeatureCollection
	if err := json.Unmarshal(data, &collection); err != nil {
		return nil, errors.Wrap(err, "malformed GeoJSON file")
	}
	if collection.Type != "FeatureCollection" {
		return nil, errors.Newf("expected a FeatureCollection, got %q", collection.Type)
	}

	stations := make([]models.StationRecord, 0, len(collection.Features))
	for i, feature := range collection.Features {
		props := feature.Properties

		id := props.ID
		if id == "" {
			id = strconv.Itoa(i + 1)
		}

		record := models.StationRecord{
			ID:       id,
			Name:     props.Name,
			Brand:    props.Brand,
			Address:  props.Address,
			Suburb:   props.Suburb,
			Postcode: props.Postcode,
			Region:   props.Region,
			Verified: props.Verified,
		}

		prices := models.NewFuelPrices()
		for key, price := range props.Prices {
			if models.ValidFuelType(key) {
				prices[models.FuelType(key)] = price
			}
		}
		record.FuelPrices = prices

		if feature.Geometry != nil && len(feature.Geometry.Coordinates) == 2 {
			record.Coordinates = &models.Coordinates{
				Latitude:  feature.Geometry.Coordinates[1],
				Longitude: feature.Geometry.Coordinates[0],
			}
		}

		if props.LastUpdated != "" {
			if ts, err := time.Parse(time.RFC3339, props.LastUpdated); err == nil {
				record.LastUpdated = ts
			}
		}

		stations = append(stations, record.Normalised())
	}

	return stations, nil
}
