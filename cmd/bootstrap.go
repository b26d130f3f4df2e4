package cmd

import (
	"fmt"
	"log"
	"os"
	"time"

	"github.com/joho/godotenv"
	"github.com/rm-hull/godx"

	"github.com/petrolscout/stations-api/internal"
	"github.com/petrolscout/stations-api/internal/cache"
	"github.com/petrolscout/stations-api/internal/models"
	"github.com/petrolscout/stations-api/internal/providers"
)

// bootstrap initialises shared resources used by both the API server and
// import commands: env config, the sqlite cache store, the station cache,
// and the provider chain behind the catalogue.
func bootstrap(dbPath string) (*internal.StationCatalogue, *internal.CacheStore, error) {
	if err := godotenv.Load(); err != nil {
		log.Println("No .env file found")
	}

	godx.GitVersion()
	godx.EnvironmentVars()
	godx.UserInfo()

	db, err := internal.Connect(dbPath)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to initialize database: %w", err)
	}

	if err := internal.Migrate("migrations", dbPath); err != nil {
		_ = db.Close()
		return nil, nil, fmt.Errorf("failed to migrate SQL: %w", err)
	}

	store := internal.NewCacheStore(db)

	stationCache, err := cache.New[[]models.StationRecord]("stations", 16, store)
	if err != nil {
		_ = store.Close()
		return nil, nil, fmt.Errorf("failed to create station cache: %w", err)
	}

	provider, err := buildProvider()
	if err != nil {
		_ = store.Close()
		return nil, nil, err
	}

	catalogue := internal.NewStationCatalogue(stationCache, provider, stationsTTL())

	return catalogue, store, nil
}

// buildProvider assembles the fallback chain from the environment: the
// Baserow table when credentials are set, then any configured local GeoJSON
// and CSV files.
func buildProvider() (internal.StationProvider, error) {
	var chain []internal.StationProvider

	token := os.Getenv("BASEROW_API_TOKEN")
	tableID := os.Getenv("BASEROW_STATIONS_TABLE_ID")
	if token != "" && tableID != "" {
		chain = append(chain, providers.NewBaserow(providers.BaserowOptions{
			BaseURL: os.Getenv("BASEROW_API_URL"),
			Token:   token,
			TableID: tableID,
		}))
	}

	if path := os.Getenv("STATIONS_GEOJSON_FILE"); path != "" {
		chain = append(chain, providers.NewGeoJSONFile(path))
	}
	if path := os.Getenv("STATIONS_CSV_FILE"); path != "" {
		chain = append(chain, providers.NewCSVFile(path))
	}

	if len(chain) == 0 {
		return nil, fmt.Errorf("no station providers configured: set BASEROW_API_TOKEN/BASEROW_STATIONS_TABLE_ID, STATIONS_GEOJSON_FILE or STATIONS_CSV_FILE")
	}

	return providers.NewFallback(chain...), nil
}

func stationsTTL() time.Duration {
	value := os.Getenv("STATIONS_CACHE_TTL")
	if value == "" {
		return internal.DefaultStationsTTL
	}
	ttl, err := time.ParseDuration(value)
	if err != nil || ttl <= 0 {
		log.Printf("invalid STATIONS_CACHE_TTL %q, using default", value)
		return internal.DefaultStationsTTL
	}
	return ttl
}
