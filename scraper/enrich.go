package scraper

import (
	"context"
	"fmt"
	"strings"
	"unicode/utf8"

	"github.com/PuerkitoBio/goquery"
	"github.com/aluiziolira/go-product-parser/models"
	"github.com/aluiziolira/go-product-parser/parser"
	lru "github.com/hashicorp/golang-lru/v2"
)

const (
	descriptionSelector = "#product_description ~ p"
	upcSelector         = "table tr:nth-child(1) td"
	maxDescriptionRunes = 200

	defaultDescription = "No description"
	defaultUPC         = "N/A"
)

// Enricher reads a product's own page. Lookups are memoized by detail URL.
type Enricher struct {
	fetcher DocumentFetcher
	cache   *lru.Cache[string, *models.ProductDetails]
	metrics *Metrics
}

// NewEnricher builds an enricher with an LRU of the given size.
func NewEnricher(fetcher DocumentFetcher, cacheSize int, metrics *Metrics) (*Enricher, error) {
	cache, err := lru.New[string, *models.ProductDetails](cacheSize)
	if err != nil {
		return nil, fmt.Errorf("create detail cache: %w", err)
	}
	return &Enricher{
		fetcher: fetcher,
		cache:   cache,
		metrics: metrics,
	}, nil
}

// Lookup returns the details behind detailURL. The second return value
// reports whether a request was issued.
func (e *Enricher) Lookup(ctx context.Context, detailURL string) (*models.ProductDetails, bool, error) {
	if detailURL == "" {
		return nil, false, fmt.Errorf("product has no detail url")
	}
	if details, ok := e.cache.Get(detailURL); ok {
		return details, false, nil
	}

	doc, err := e.fetcher.Fetch(ctx, detailURL)
	if err != nil {
		e.metrics.IncEnrichFailure()
		return nil, true, err
	}

	details := ParseDetails(doc)
	e.cache.Add(detailURL, details)
	return details, true, nil
}

// ParseDetails reads description, availability and UPC from a product page,
// defaulting each field on its own.
func ParseDetails(doc *goquery.Document) *models.ProductDetails {
	details := &models.ProductDetails{
		Description:  defaultDescription,
		Availability: parser.DefaultStock,
		UPC:          defaultUPC,
	}

	if desc := doc.Find(descriptionSelector).First(); desc.Length() > 0 {
		if text := strings.TrimSpace(desc.Text()); text != "" {
			details.Description = truncate(text, maxDescriptionRunes)
		}
	}
	if stock := doc.Find(stockSelector).First(); stock.Length() > 0 {
		details.Availability = strings.Join(strings.Fields(stock.Text()), " ")
	}
	if upc := doc.Find(upcSelector).First(); upc.Length() > 0 {
		details.UPC = strings.TrimSpace(upc.Text())
	}
	return details
}

func truncate(text string, limit int) string {
	if utf8.RuneCountInString(text) <= limit {
		return text
	}
	runes := []rune(text)
	return string(runes[:limit]) + "..."
}
