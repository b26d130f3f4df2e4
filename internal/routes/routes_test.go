package routes

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/cockroachdb/errors"
	"github.com/gin-gonic/gin"
	jsoniter "github.com/json-iterator/go"
	"github.com/kofalt/go-memoize"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/petrolscout/stations-api/internal"
	"github.com/petrolscout/stations-api/internal/cache"
	"github.com/petrolscout/stations-api/internal/models"
)

var json = jsoniter.ConfigCompatibleWithStandardLibrary

type stubProvider struct {
	stations []models.StationRecord
	err      error
}

func (s *stubProvider) Name() string {
	return "stub"
}

func (s *stubProvider) Stations(context.Context) ([]models.StationRecord, error) {
	return s.stations, s.err
}

func price(v float64) *float64 {
	return &v
}

func testStations() []models.StationRecord {
	return []models.StationRecord{
		{
			ID: "1", Name: "Shell Richmond", Brand: "Shell", Suburb: "Richmond",
			FuelPrices: models.FuelPrices{models.FuelUnleaded: price(189.9)},
		},
		{
			ID: "2", Name: "BP Carlton", Brand: "BP", Suburb: "Carlton",
			FuelPrices: models.FuelPrices{models.FuelUnleaded: price(185.5)},
		},
		{
			ID: "3", Name: "United Brunswick", Brand: "United", Suburb: "Brunswick",
			FuelPrices: models.FuelPrices{models.FuelDiesel: price(179.0)},
		},
	}
}

func setupRouter(t *testing.T, provider internal.StationProvider) *gin.Engine {
	t.Helper()
	gin.SetMode(gin.TestMode)

	stationsCache, err := cache.New[[]models.StationRecord]("stations-test", 4, nil)
	require.NoError(t, err)
	catalogue := internal.NewStationCatalogue(stationsCache, provider, time.Hour)
	memo := memoize.NewMemoizer(5*time.Minute, 10*time.Minute)

	router := gin.New()
	v1 := router.Group("/v1/stations")
	v1.GET("/search", Search(catalogue))
	v1.GET("/facets", Facets(catalogue, memo))
	v1.GET("/retailers", Retailers())
	return router
}

func get(router *gin.Engine, url string) *httptest.ResponseRecorder {
	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, url, nil)
	router.ServeHTTP(w, req)
	return w
}

func TestSearchDefaults(t *testing.T) {
	router := setupRouter(t, &stubProvider{stations: testStations()})

	w := get(router, "/v1/stations/search")
	require.Equal(t, http.StatusOK, w.Code)

	var response models.SearchResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &response))

	assert.Equal(t, 3, response.TotalCount)
	assert.Equal(t, 1, response.TotalPages)
	assert.Equal(t, 1, response.Page)
	assert.False(t, response.Stale)
	assert.NotEmpty(t, response.Attribution)
	require.NotNil(t, response.Statistics)

	// Default ordering is by name.
	names := make([]string, 0, len(response.Results))
	for _, record := range response.Results {
		names = append(names, record.Name)
	}
	assert.Equal(t, []string{"BP Carlton", "Shell Richmond", "United Brunswick"}, names)
}

func TestSearchFilters(t *testing.T) {
	router := setupRouter(t, &stubProvider{stations: testStations()})

	t.Run("brand", func(t *testing.T) {
		w := get(router, "/v1/stations/search?brand=BP")
		require.Equal(t, http.StatusOK, w.Code)

		var response models.SearchResponse
		require.NoError(t, json.Unmarshal(w.Body.Bytes(), &response))
		require.Len(t, response.Results, 1)
		assert.Equal(t, "2", response.Results[0].ID)
	})

	t.Run("free text", func(t *testing.T) {
		w := get(router, "/v1/stations/search?q=brunswick")
		require.Equal(t, http.StatusOK, w.Code)

		var response models.SearchResponse
		require.NoError(t, json.Unmarshal(w.Body.Bytes(), &response))
		require.Len(t, response.Results, 1)
		assert.Equal(t, "3", response.Results[0].ID)
	})

	t.Run("price sort hides stations without the fuel", func(t *testing.T) {
		w := get(router, "/v1/stations/search?fuel_type=unleaded&sort=price-ascending")
		require.Equal(t, http.StatusOK, w.Code)

		var response models.SearchResponse
		require.NoError(t, json.Unmarshal(w.Body.Bytes(), &response))
		require.Len(t, response.Results, 2)
		assert.Equal(t, "2", response.Results[0].ID)
		assert.Equal(t, "1", response.Results[1].ID)
	})

	t.Run("unknown sort falls back to name ordering", func(t *testing.T) {
		w := get(router, "/v1/stations/search?sort=bogus")
		require.Equal(t, http.StatusOK, w.Code)

		var response models.SearchResponse
		require.NoError(t, json.Unmarshal(w.Body.Bytes(), &response))
		assert.Equal(t, 3, response.TotalCount)
		assert.Equal(t, "BP Carlton", response.Results[0].Name)
	})

	t.Run("pagination past the end", func(t *testing.T) {
		w := get(router, "/v1/stations/search?page=9&page_size=2")
		require.Equal(t, http.StatusOK, w.Code)

		var response models.SearchResponse
		require.NoError(t, json.Unmarshal(w.Body.Bytes(), &response))
		assert.Empty(t, response.Results)
		assert.Equal(t, 3, response.TotalCount)
		assert.Equal(t, 2, response.TotalPages)
		assert.Equal(t, 9, response.Page)
	})
}

func TestSearchBadParameters(t *testing.T) {
	router := setupRouter(t, &stubProvider{stations: testStations()})

	for name, url := range map[string]string{
		"max_price not a number": "/v1/stations/search?max_price=abc",
		"max_price non-positive": "/v1/stations/search?max_price=-5",
		"page not a number":      "/v1/stations/search?page=first",
		"page below one":         "/v1/stations/search?page=0",
		"page_size too large":    "/v1/stations/search?page_size=1000",
	} {
		t.Run(name, func(t *testing.T) {
			w := get(router, url)
			assert.Equal(t, http.StatusBadRequest, w.Code)
		})
	}
}

func TestSearchUpstreamUnavailable(t *testing.T) {
	router := setupRouter(t, &stubProvider{err: errors.New("connection refused")})

	w := get(router, "/v1/stations/search")
	require.Equal(t, http.StatusBadGateway, w.Code)

	var body struct {
		Error     string `json:"error"`
		Retryable bool   `json:"retryable"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
	assert.True(t, body.Retryable)
	assert.NotEmpty(t, body.Error)
}

func TestFacets(t *testing.T) {
	router := setupRouter(t, &stubProvider{stations: testStations()})

	w := get(router, "/v1/stations/facets")
	require.Equal(t, http.StatusOK, w.Code)

	var response models.FacetsResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &response))
	assert.Equal(t, []string{"BP", "Shell", "United"}, response.Brands)
	assert.Equal(t, []string{"Brunswick", "Carlton", "Richmond"}, response.Suburbs)
	assert.Equal(t, models.AllFuelTypes(), response.FuelTypes)
}

func TestFacetsUpstreamUnavailable(t *testing.T) {
	router := setupRouter(t, &stubProvider{err: errors.New("connection refused")})

	w := get(router, "/v1/stations/facets")
	assert.Equal(t, http.StatusBadGateway, w.Code)
}

func TestRetailers(t *testing.T) {
	router := setupRouter(t, &stubProvider{stations: testStations()})

	w := get(router, "/v1/stations/retailers")
	require.Equal(t, http.StatusOK, w.Code)

	var body struct {
		Retailers []models.Retailer `json:"retailers"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
	assert.NotEmpty(t, body.Retailers)

	names := make(map[string]bool, len(body.Retailers))
	for _, retailer := range body.Retailers {
		names[retailer.Name] = true
	}
	assert.True(t, names["BP"])
	assert.True(t, names["Shell"])
}
