// Package analysis derives corpus statistics and deal rankings from
// normalized products. Everything here is a pure function of its input.
package analysis

import (
	"github.com/aluiziolira/go-product-parser/models"
	"github.com/shopspring/decimal"
)

// Statistics summarizes a product collection. Price figures only consider
// priced products; counts and the rating average consider all of them.
type Statistics struct {
	Total      int
	InStock    int
	OutOfStock int
	Priced     int

	AvgPrice  decimal.Decimal
	MinPrice  decimal.Decimal
	MaxPrice  decimal.Decimal
	AvgRating decimal.Decimal
}

// HasData reports whether any product contributed to the statistics.
func (s Statistics) HasData() bool {
	return s.Total > 0
}

// ComputeStatistics folds products into Statistics. An empty input yields
// the zero value with every figure at 0.
func ComputeStatistics(products []*models.Product) Statistics {
	stats := Statistics{
		AvgPrice:  decimal.Zero,
		MinPrice:  decimal.Zero,
		MaxPrice:  decimal.Zero,
		AvgRating: decimal.Zero,
	}

	priceSum := decimal.Zero
	ratingSum := int64(0)
	for _, p := range products {
		if p == nil {
			continue
		}
		stats.Total++
		if p.InStock {
			stats.InStock++
		}
		ratingSum += int64(p.Rating)

		if !p.PriceValue.IsPositive() {
			continue
		}
		if stats.Priced == 0 || p.PriceValue.LessThan(stats.MinPrice) {
			stats.MinPrice = p.PriceValue
		}
		if stats.Priced == 0 || p.PriceValue.GreaterThan(stats.MaxPrice) {
			stats.MaxPrice = p.PriceValue
		}
		priceSum = priceSum.Add(p.PriceValue)
		stats.Priced++
	}
	stats.OutOfStock = stats.Total - stats.InStock

	if stats.Priced > 0 {
		stats.AvgPrice = priceSum.Div(decimal.NewFromInt(int64(stats.Priced))).Round(2)
	}
	if stats.Total > 0 {
		stats.AvgRating = decimal.NewFromInt(ratingSum).Div(decimal.NewFromInt(int64(stats.Total))).Round(1)
	}
	return stats
}
