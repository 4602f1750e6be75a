package main

import (
	"bytes"
	"errors"
	"log/slog"
	"testing"
	"time"

	"github.com/aluiziolira/go-product-parser/analysis"
	"github.com/aluiziolira/go-product-parser/models"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPrintRunSummary(t *testing.T) {
	start := time.Date(2026, 10, 19, 9, 0, 0, 0, time.UTC)
	result := &models.ScrapeResult{
		RunID:          "run-1",
		Products:       make([]*models.Product, 40),
		StartTime:      start,
		EndTime:        start.Add(1500 * time.Millisecond),
		PageCount:      2,
		RequestCount:   3,
		SkippedEntries: 1,
		Stop:           models.StopFetchFailed,
		LastFetchError: errors.New("boom"),
		ErrorsByType:   map[string]int{"not_found": 1},
	}

	var buf bytes.Buffer
	printRunSummary(&buf, result)
	out := buf.String()

	assert.Contains(t, out, "Run run-1")
	assert.Contains(t, out, "fetch_failed")
	assert.Contains(t, out, "not_found")
	assert.Contains(t, out, "1.5s")
}

func TestPrintStatistics(t *testing.T) {
	products := []*models.Product{
		{Title: "A", Price: "£10.00", PriceValue: decimal.NewFromInt(10), Rating: 4, InStock: true},
		{Title: "B", Price: "£20.00", PriceValue: decimal.NewFromInt(20), Rating: 2, InStock: false},
	}

	var buf bytes.Buffer
	printStatistics(&buf, analysis.ComputeStatistics(products))
	out := buf.String()

	assert.Contains(t, out, "£15.00")
	assert.Contains(t, out, "£10.00 - £20.00")
	assert.Contains(t, out, "3.0/5")
}

func TestPrintStatisticsEmpty(t *testing.T) {
	var buf bytes.Buffer
	printStatistics(&buf, analysis.ComputeStatistics(nil))
	assert.Equal(t, "No products collected, nothing to summarize.\n", buf.String())
}

func TestPrintDeals(t *testing.T) {
	products := []*models.Product{
		{Title: "Cheap and great", Price: "£9.99", PriceValue: decimal.RequireFromString("9.99"), Rating: 5, InStock: true},
		{Title: "Pricey", Price: "£40.00", PriceValue: decimal.NewFromInt(40), Rating: 5, InStock: true},
	}
	selection := analysis.RankDeals(products, analysis.DefaultDealCriteria())
	require.Len(t, selection.Deals, 1)

	var buf bytes.Buffer
	printDeals(&buf, selection)
	out := buf.String()

	assert.Contains(t, out, "Cheap and great")
	assert.Contains(t, out, "★★★★★")
	assert.NotContains(t, out, "Pricey")
}

func TestPrintDealsNone(t *testing.T) {
	var buf bytes.Buffer
	printDeals(&buf, analysis.RankDeals(nil, analysis.DefaultDealCriteria()))
	assert.Equal(t, "No deals under £15.00 with 4+ stars.\n", buf.String())
}

func TestShorten(t *testing.T) {
	assert.Equal(t, "short", shorten("short", 10))
	assert.Equal(t, "abcde...", shorten("abcdefgh", 5))
	assert.Equal(t, "-", stars(0))
}

func TestBuildConfig(t *testing.T) {
	maxPrice, err := parseMaxPrice(" 12.5 ")
	require.NoError(t, err)

	cfg := buildConfig(cliFlags{
		baseURL:   "http://example.test",
		pages:     2,
		delayMs:   250,
		timeoutMs: 1000,
		maxPrice:  maxPrice,
		minRating: 3,
		deals:     4,
		format:    "DUAL",
		verbose:   true,
	})
	require.NoError(t, cfg.Validate())

	assert.Equal(t, 250*time.Millisecond, cfg.Delay)
	assert.Equal(t, time.Second, cfg.Timeout)
	assert.True(t, cfg.MaxPrice.Equal(decimal.RequireFromString("12.5")))
	assert.Equal(t, "dual", cfg.OutputFormat)
	assert.True(t, cfg.Verbose)

	_, err = parseMaxPrice("cheap")
	assert.ErrorContains(t, err, "invalid max price")
}

func TestNewLoggerLevel(t *testing.T) {
	_, level := newLogger(true)
	assert.Equal(t, slog.LevelDebug, level.Level())

	_, level = newLogger(false)
	assert.Equal(t, slog.LevelInfo, level.Level())
}
