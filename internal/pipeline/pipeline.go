// Package pipeline turns the full in-memory station list into the filtered,
// ordered page a single search request asks for. Apply is pure: it never
// mutates its input and the same inputs always produce the same output.
package pipeline

import (
	"math"
	"slices"
	"strings"

	"golang.org/x/text/collate"
	"golang.org/x/text/language"

	"github.com/petrolscout/stations-api/internal/models"
)

type Result struct {
	Page       []models.StationRecord `json:"page"`
	TotalCount int                    `json:"total_count"`
	TotalPages int                    `json:"total_pages"`
}

// Apply filters, sorts and paginates records according to spec. Filtering
// runs in a fixed order (search text, brand, suburb, fuel-type visibility,
// max price) before a stable sort and the page slice. Out-of-range pages
// yield an empty page, not an error.
func Apply(records []models.StationRecord, spec models.FilterSpec) Result {
	spec = spec.Normalised()

	filtered := applyFilters(records, spec)
	sortRecords(filtered, spec)

	totalCount := len(filtered)
	totalPages := (totalCount + spec.PageSize - 1) / spec.PageSize

	start := (spec.Page - 1) * spec.PageSize
	if start >= totalCount {
		return Result{Page: []models.StationRecord{}, TotalCount: totalCount, TotalPages: totalPages}
	}
	end := min(start+spec.PageSize, totalCount)

	return Result{Page: filtered[start:end], TotalCount: totalCount, TotalPages: totalPages}
}

func applyFilters(records []models.StationRecord, spec models.FilterSpec) []models.StationRecord {
	filtered := make([]models.StationRecord, 0, len(records))

	query := strings.ToLower(strings.TrimSpace(spec.SearchText))
	fuelType := models.FuelType(spec.FuelType)

	// A station missing the selected fuel is only hidden when its price is
	// load-bearing: a price sort or a price ceiling is in effect.
	priceSort := spec.SortKey == models.SortByPriceAsc || spec.SortKey == models.SortByPriceDesc
	requireFuel := spec.FuelType != models.FilterAll && (priceSort || spec.MaxPrice != nil)

	for _, record := range records {
		if query != "" && !matchesQuery(record, query) {
			continue
		}
		if spec.Brand != models.FilterAll && record.Brand != spec.Brand {
			continue
		}
		if spec.Suburb != models.FilterAll && record.Suburb != spec.Suburb {
			continue
		}
		if requireFuel {
			price, known := record.FuelPrices.Price(fuelType)
			if !known {
				continue
			}
			if spec.MaxPrice != nil && price > *spec.MaxPrice {
				continue
			}
		}
		filtered = append(filtered, record)
	}

	return filtered
}

func matchesQuery(record models.StationRecord, query string) bool {
	return strings.Contains(strings.ToLower(record.Name), query) ||
		strings.Contains(strings.ToLower(record.Address), query) ||
		strings.Contains(strings.ToLower(record.Suburb), query) ||
		strings.Contains(strings.ToLower(record.Brand), query)
}

func sortRecords(records []models.StationRecord, spec models.FilterSpec) {
	switch spec.SortKey {
	case models.SortBySuburb:
		c := newCollator()
		slices.SortStableFunc(records, func(a, b models.StationRecord) int {
			if n := c.CompareString(a.Suburb, b.Suburb); n != 0 {
				return n
			}
			return c.CompareString(a.Name, b.Name)
		})

	case models.SortByPriceAsc:
		slices.SortStableFunc(records, func(a, b models.StationRecord) int {
			return compareFloats(sortPrice(a, spec, true), sortPrice(b, spec, true))
		})

	case models.SortByPriceDesc:
		slices.SortStableFunc(records, func(a, b models.StationRecord) int {
			return compareFloats(sortPrice(b, spec, false), sortPrice(a, spec, false))
		})

	default: // models.SortByName
		c := newCollator()
		slices.SortStableFunc(records, func(a, b models.StationRecord) int {
			return c.CompareString(a.Name, b.Name)
		})
	}
}

// sortPrice picks the comparable price for a record: the selected fuel's
// price, or the cheapest known price when no fuel type is selected. A record
// with no usable price gets a sentinel that sorts it last in either
// direction (+Inf ascending, 0 descending).
func sortPrice(record models.StationRecord, spec models.FilterSpec, ascending bool) float64 {
	var price float64
	var known bool
	if spec.FuelType == models.FilterAll {
		price, known = record.FuelPrices.Min()
	} else {
		price, known = record.FuelPrices.Price(models.FuelType(spec.FuelType))
	}
	if !known {
		if ascending {
			return math.Inf(1)
		}
		return 0
	}
	return price
}

func compareFloats(a, b float64) int {
	switch {
	case a < b:
		return -1
	case a > b:
		return 1
	default:
		return 0
	}
}

func newCollator() *collate.Collator {
	return collate.New(language.English, collate.IgnoreCase)
}
