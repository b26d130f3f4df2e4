package models

// PriceStatistics summarises the prices visible on one page of results,
// keyed by fuel type.
type PriceStatistics struct {
	CheapestStations  map[FuelType][]string       `json:"cheapest_stations"`
	LowestPrice       map[FuelType]float64        `json:"lowest_price"`
	AveragePrice      map[FuelType]float64        `json:"average_price"`
	HighestPrice      map[FuelType]float64        `json:"highest_price"`
	PriceDistribution map[FuelType]map[string]int `json:"price_distribution"`
	StandardDeviation map[FuelType]float64        `json:"standard_deviation"`
	BrandDistribution map[string]int              `json:"brand_distribution"`
}

type SearchResponse struct {
	Results     []StationRecord  `json:"results"`
	TotalCount  int              `json:"total_count"`
	TotalPages  int              `json:"total_pages"`
	Page        int              `json:"page"`
	Stale       bool             `json:"stale,omitempty"`
	Statistics  *PriceStatistics `json:"statistics,omitempty"`
	Attribution []string         `json:"attribution"`
}

type FacetsResponse struct {
	Brands    []string   `json:"brands"`
	Suburbs   []string   `json:"suburbs"`
	FuelTypes []FuelType `json:"fuel_types"`
}
