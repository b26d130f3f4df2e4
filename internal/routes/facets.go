package routes

import (
	"log"
	"net/http"
	"sort"

	"github.com/gin-gonic/gin"
	"github.com/kofalt/go-memoize"

	"github.com/petrolscout/stations-api/internal"
	"github.com/petrolscout/stations-api/internal/models"
)

// Facets lists the distinct brands and suburbs available for filtering.
// Deriving them walks the whole station list, so the result is memoized.
func Facets(catalogue *internal.StationCatalogue, memo *memoize.Memoizer) func(c *gin.Context) {
	return func(c *gin.Context) {
		result, err, _ := memo.Memoize("facets", func() (any, error) {
			records, _, err := catalogue.Stations(c.Request.Context())
			if err != nil {
				return nil, err
			}
			return deriveFacets(records), nil
		})
		if err != nil {
			log.Printf("error while deriving facets: %v", err)
			c.JSON(http.StatusBadGateway, gin.H{
				"error":     "Station data is currently unavailable",
				"retryable": true,
			})
			return
		}

		c.JSON(http.StatusOK, result.(*models.FacetsResponse))
	}
}

func deriveFacets(records []models.StationRecord) *models.FacetsResponse {
	brandSet := make(map[string]struct{})
	suburbSet := make(map[string]struct{})
	for _, record := range records {
		if record.Brand != "" {
			brandSet[record.Brand] = struct{}{}
		}
		if record.Suburb != "" {
			suburbSet[record.Suburb] = struct{}{}
		}
	}

	facets := &models.FacetsResponse{
		Brands:    make([]string, 0, len(brandSet)),
		Suburbs:   make([]string, 0, len(suburbSet)),
		FuelTypes: models.AllFuelTypes(),
	}
	for brand := range brandSet {
		facets.Brands = append(facets.Brands, brand)
	}
	for suburb := range suburbSet {
		facets.Suburbs = append(facets.Suburbs, suburb)
	}
	sort.Strings(facets.Brands)
	sort.Strings(facets.Suburbs)

	return facets
}
