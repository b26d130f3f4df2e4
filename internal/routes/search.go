package routes

import (
	"fmt"
	"log"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"github.com/petrolscout/stations-api/internal"
	"github.com/petrolscout/stations-api/internal/models"
	"github.com/petrolscout/stations-api/internal/pipeline"
	"github.com/petrolscout/stations-api/internal/stats"
)

func Search(catalogue *internal.StationCatalogue) func(c *gin.Context) {
	return func(c *gin.Context) {
		spec, err := parseFilterSpec(c)
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
			return
		}

		records, stale, err := catalogue.Stations(c.Request.Context())
		if err != nil {
			log.Printf("error while fetching stations: %v", err)
			c.JSON(http.StatusBadGateway, gin.H{
				"error":     "Station data is currently unavailable",
				"retryable": true,
			})
			return
		}

		result := pipeline.Apply(records, spec)

		c.JSON(http.StatusOK, models.SearchResponse{
			Results:     result.Page,
			TotalCount:  result.TotalCount,
			TotalPages:  result.TotalPages,
			Page:        spec.Normalised().Page,
			Stale:       stale,
			Statistics:  stats.Derive(result.Page, 3),
			Attribution: internal.ATTRIBUTION,
		})
	}
}

// parseFilterSpec builds a FilterSpec from query params. Unparseable numbers
// are rejected; unrecognised sort keys and fuel types fall back to defaults
// via FilterSpec.Normalised so a bad link never breaks the page.
func parseFilterSpec(c *gin.Context) (models.FilterSpec, error) {
	spec := models.DefaultFilterSpec()

	spec.SearchText = c.Query("q")
	if v := c.Query("fuel_type"); v != "" {
		spec.FuelType = v
	}
	if v := c.Query("brand"); v != "" {
		spec.Brand = v
	}
	if v := c.Query("suburb"); v != "" {
		spec.Suburb = v
	}
	if v := c.Query("sort"); v != "" {
		spec.SortKey = models.SortKey(v)
	}

	if v := c.Query("max_price"); v != "" {
		maxPrice, err := strconv.ParseFloat(v, 64)
		if err != nil || maxPrice <= 0 {
			return spec, fmt.Errorf("invalid max_price parameter")
		}
		spec.MaxPrice = &maxPrice
	}

	if v := c.Query("page"); v != "" {
		page, err := strconv.Atoi(v)
		if err != nil || page < 1 {
			return spec, fmt.Errorf("invalid page parameter")
		}
		spec.Page = page
	}

	if v := c.Query("page_size"); v != "" {
		pageSize, err := strconv.Atoi(v)
		if err != nil || pageSize < 1 || pageSize > models.MaxPageSize {
			return spec, fmt.Errorf("invalid page_size parameter")
		}
		spec.PageSize = pageSize
	}

	return spec, nil
}
