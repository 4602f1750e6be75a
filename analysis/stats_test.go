package analysis

import (
	"testing"

	"github.com/aluiziolira/go-product-parser/models"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func product(price string, rating int, inStock bool) *models.Product {
	return &models.Product{
		Title:      "Book " + price,
		Price:      "£" + price,
		PriceValue: decimal.RequireFromString(price),
		Rating:     rating,
		InStock:    inStock,
	}
}

func assertDecimal(t *testing.T, want string, got decimal.Decimal) {
	t.Helper()
	assert.Truef(t, decimal.RequireFromString(want).Equal(got), "got %s, want %s", got, want)
}

func TestComputeStatisticsEmpty(t *testing.T) {
	for _, input := range [][]*models.Product{nil, {}} {
		stats := ComputeStatistics(input)

		assert.False(t, stats.HasData())
		assert.Zero(t, stats.Total)
		assert.Zero(t, stats.InStock)
		assert.Zero(t, stats.OutOfStock)
		assert.Zero(t, stats.Priced)
		assertDecimal(t, "0", stats.AvgPrice)
		assertDecimal(t, "0", stats.MinPrice)
		assertDecimal(t, "0", stats.MaxPrice)
		assertDecimal(t, "0", stats.AvgRating)
	}
}

func TestComputeStatistics(t *testing.T) {
	products := []*models.Product{
		product("51.77", 3, true),
		product("13.99", 1, false),
		product("0", 5, true), // unpriced
		product("20.00", 4, true),
	}

	stats := ComputeStatistics(products)

	require.True(t, stats.HasData())
	assert.Equal(t, 4, stats.Total)
	assert.Equal(t, 3, stats.InStock)
	assert.Equal(t, 1, stats.OutOfStock)
	assert.Equal(t, 3, stats.Priced)
	assertDecimal(t, "28.59", stats.AvgPrice) // 85.76 / 3
	assertDecimal(t, "13.99", stats.MinPrice)
	assertDecimal(t, "51.77", stats.MaxPrice)
	assertDecimal(t, "3.3", stats.AvgRating) // 13 / 4
}

func TestComputeStatisticsOnlyUnpriced(t *testing.T) {
	stats := ComputeStatistics([]*models.Product{product("0", 2, false)})

	assert.Equal(t, 1, stats.Total)
	assert.Equal(t, 1, stats.OutOfStock)
	assert.Zero(t, stats.Priced)
	assertDecimal(t, "0", stats.AvgPrice)
	assertDecimal(t, "0", stats.MinPrice)
	assertDecimal(t, "2", stats.AvgRating)
}
