package internal

import (
	"context"
	"time"

	"github.com/cockroachdb/errors"

	"github.com/petrolscout/stations-api/internal/cache"
	"github.com/petrolscout/stations-api/internal/models"
)

// ATTRIBUTION is included in every search response.
var ATTRIBUTION = []string{
	"Prices sourced from participating retailers and community reports.",
	"Station locations may be approximate.",
}

const stationsCacheKey = "stations:all"

// DefaultStationsTTL is how long a fetched station list is considered fresh.
const DefaultStationsTTL = 1 * time.Hour

// StationProvider supplies the full station list from some upstream source.
type StationProvider interface {
	Name() string
	Stations(ctx context.Context) ([]models.StationRecord, error)
}

// StationCatalogue serves the station list through the two-tier cache:
// reads prefer an immediate (possibly stale) answer with background
// revalidation, and scheduled refreshes force a fetch.
type StationCatalogue struct {
	cache    *cache.Cache[[]models.StationRecord]
	provider StationProvider
	ttl      time.Duration
}

func NewStationCatalogue(c *cache.Cache[[]models.StationRecord], provider StationProvider, ttl time.Duration) *StationCatalogue {
	if ttl <= 0 {
		ttl = DefaultStationsTTL
	}
	return &StationCatalogue{
		cache:    c,
		provider: provider,
		ttl:      ttl,
	}
}

// Stations returns the station list and whether it is stale. A cold cache
// fetches synchronously; an expired entry is returned immediately while a
// background refresh runs.
func (sc *StationCatalogue) Stations(ctx context.Context) ([]models.StationRecord, bool, error) {
	return sc.cache.GetStale(ctx, stationsCacheKey, sc.ttl, sc.fetch)
}

// Refresh forces a fetch and replaces the cached list, returning the number
// of stations fetched.
func (sc *StationCatalogue) Refresh(ctx context.Context) (int, error) {
	records, err := sc.fetch(ctx)
	if err != nil {
		return 0, err
	}
	if err := sc.cache.Set(ctx, stationsCacheKey, records, sc.ttl); err != nil {
		return 0, errors.Wrap(err, "failed to cache station list")
	}
	return len(records), nil
}

// SweepCache purges expired entries from both cache tiers.
func (sc *StationCatalogue) SweepCache(ctx context.Context) (int, error) {
	return sc.cache.Sweep(ctx)
}

func (sc *StationCatalogue) fetch(ctx context.Context) ([]models.StationRecord, error) {
	records, err := sc.provider.Stations(ctx)
	if err != nil {
		return nil, errors.Wrapf(err, "provider %s failed", sc.provider.Name())
	}
	if len(records) == 0 {
		// An empty payload is treated as malformed so it can never
		// clobber a previously good list.
		return nil, errors.Newf("provider %s returned no stations", sc.provider.Name())
	}

	normalised := make([]models.StationRecord, len(records))
	for i, record := range records {
		normalised[i] = record.Normalised()
	}
	return normalised, nil
}
