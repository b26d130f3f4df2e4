package stats

import (
	"fmt"
	"math"

	"github.com/petrolscout/stations-api/internal/models"
)

// Derive summarises the prices across a page of results: per-fuel-type
// lowest/average/highest, cheapest stations, a bucketed price distribution,
// standard deviation, and a brand breakdown.
func Derive(results []models.StationRecord, bucketSize int) *models.PriceStatistics {
	if bucketSize <= 0 {
		bucketSize = 3
	}
	stats := &models.PriceStatistics{
		CheapestStations:  make(map[models.FuelType][]string),
		LowestPrice:       make(map[models.FuelType]float64),
		AveragePrice:      make(map[models.FuelType]float64),
		HighestPrice:      make(map[models.FuelType]float64),
		PriceDistribution: make(map[models.FuelType]map[string]int),
		StandardDeviation: make(map[models.FuelType]float64),
		BrandDistribution: make(map[string]int),
	}

	// Group known prices by fuel type
	fuelTypePrices := make(map[models.FuelType][]float64)
	fuelTypeStations := make(map[models.FuelType]map[float64][]string) // price -> station ids

	for _, result := range results {
		for _, fuelType := range models.AllFuelTypes() {
			price, known := result.FuelPrices.Price(fuelType)
			if !known {
				continue
			}

			fuelTypePrices[fuelType] = append(fuelTypePrices[fuelType], price)

			if fuelTypeStations[fuelType] == nil {
				fuelTypeStations[fuelType] = make(map[float64][]string)
			}
			fuelTypeStations[fuelType][price] = append(fuelTypeStations[fuelType][price], result.ID)
		}
	}

	for fuelType, prices := range fuelTypePrices {
		if len(prices) == 0 {
			continue
		}

		// Lowest/avg/highest price and cheapest stations
		lowestPrice := prices[0]
		highestPrice := prices[0]
		sum := 0.0

		for _, p := range prices {
			if p < lowestPrice {
				lowestPrice = p
			}
			if p > highestPrice {
				highestPrice = p
			}
			sum += p
		}
		stats.LowestPrice[fuelType] = lowestPrice
		stats.HighestPrice[fuelType] = highestPrice
		stats.CheapestStations[fuelType] = fuelTypeStations[fuelType][lowestPrice]

		avgPrice := sum / float64(len(prices))
		stats.AveragePrice[fuelType] = math.Round(avgPrice*10) / 10

		// Standard deviation
		if len(prices) > 1 {
			variance := 0.0
			for _, p := range prices {
				variance += math.Pow(p-avgPrice, 2)
			}
			variance /= float64(len(prices))
			stats.StandardDeviation[fuelType] = math.Sqrt(variance)
		}

		stats.PriceDistribution[fuelType] = make(map[string]int)
		for _, p := range prices {
			price := int(p)
			bucketStart := (price / bucketSize) * bucketSize
			bucketEnd := bucketStart + bucketSize - 1
			bucketKey := fmt.Sprintf("%d-%d", bucketStart, bucketEnd)
			stats.PriceDistribution[fuelType][bucketKey]++
		}
	}

	for _, result := range results {
		if result.Brand != "" {
			stats.BrandDistribution[result.Brand]++
		}
	}

	return stats
}
