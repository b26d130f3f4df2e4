package internal

import (
	"context"
	"sync/atomic"
	"testing"
	"time"

	"github.com/cockroachdb/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/petrolscout/stations-api/internal/cache"
	"github.com/petrolscout/stations-api/internal/models"
)

type fakeProvider struct {
	calls    atomic.Int32
	stations []models.StationRecord
	err      error
}

func (p *fakeProvider) Name() string {
	return "fake"
}

func (p *fakeProvider) Stations(context.Context) ([]models.StationRecord, error) {
	p.calls.Add(1)
	return p.stations, p.err
}

func setupCatalogue(t *testing.T, provider StationProvider) *StationCatalogue {
	t.Helper()
	c, err := cache.New[[]models.StationRecord]("catalogue-test", 4, nil)
	require.NoError(t, err)
	return NewStationCatalogue(c, provider, time.Hour)
}

func TestCatalogueStationsCachesFetch(t *testing.T) {
	negative := -5.0
	provider := &fakeProvider{stations: []models.StationRecord{
		{ID: "1", Name: "Shell", FuelPrices: models.FuelPrices{models.FuelDiesel: &negative}},
	}}
	catalogue := setupCatalogue(t, provider)
	ctx := context.Background()

	records, stale, err := catalogue.Stations(ctx)
	require.NoError(t, err)
	assert.False(t, stale)
	require.Len(t, records, 1)

	// Records come back normalised: all five price keys, bad values unknown.
	assert.Len(t, records[0].FuelPrices, 5)
	_, known := records[0].FuelPrices.Price(models.FuelDiesel)
	assert.False(t, known)

	_, _, err = catalogue.Stations(ctx)
	require.NoError(t, err)
	assert.Equal(t, int32(1), provider.calls.Load(), "second read is served from cache")
}

func TestCatalogueRejectsEmptyList(t *testing.T) {
	provider := &fakeProvider{stations: nil}
	catalogue := setupCatalogue(t, provider)

	_, _, err := catalogue.Stations(context.Background())
	require.Error(t, err)
	assert.ErrorContains(t, err, "no stations")
}

func TestCatalogueRefresh(t *testing.T) {
	provider := &fakeProvider{stations: []models.StationRecord{
		{ID: "1", Name: "Shell"},
		{ID: "2", Name: "BP"},
	}}
	catalogue := setupCatalogue(t, provider)
	ctx := context.Background()

	count, err := catalogue.Refresh(ctx)
	require.NoError(t, err)
	assert.Equal(t, 2, count)

	records, stale, err := catalogue.Stations(ctx)
	require.NoError(t, err)
	assert.False(t, stale)
	assert.Len(t, records, 2)
	assert.Equal(t, int32(1), provider.calls.Load(), "reads reuse the refreshed list")
}

func TestCatalogueRefreshFailureKeepsOldList(t *testing.T) {
	provider := &fakeProvider{stations: []models.StationRecord{{ID: "1", Name: "Shell"}}}
	catalogue := setupCatalogue(t, provider)
	ctx := context.Background()

	_, err := catalogue.Refresh(ctx)
	require.NoError(t, err)

	provider.err = errors.New("upstream down")
	_, err = catalogue.Refresh(ctx)
	require.Error(t, err)

	records, _, err := catalogue.Stations(ctx)
	require.NoError(t, err)
	assert.Len(t, records, 1, "failed refresh never clobbers the cached list")
}
