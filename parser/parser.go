// Package parser converts captured catalog text into typed product values.
package parser

import (
	"fmt"
	"strings"
	"time"
	"unicode"

	"github.com/aluiziolira/go-product-parser/models"
	"github.com/shopspring/decimal"
)

const (
	// DefaultTitle is used when the entry link carries no title.
	DefaultTitle = "Unknown"
	// DefaultPrice is the displayed price when no price element exists.
	DefaultPrice = "N/A"
	// DefaultStock is the stock text when no availability element exists.
	DefaultStock = "Unknown"
	// InStockPhrase marks an available product.
	InStockPhrase = "In stock"
	// MaxRating is the top of the star scale.
	MaxRating = 5
)

var ratingLabels = map[string]int{
	"One":   1,
	"Two":   2,
	"Three": 3,
	"Four":  4,
	"Five":  5,
}

// Mojibake left over when a UTF-8 "£" is decoded as Latin-1, plus spacing
// characters that appear around prices.
var priceArtifacts = strings.NewReplacer(
	"\u00c2", "",
	"\u00a0", "",
	"\ufffd", "",
	",", "",
)

// ParsePrice converts displayed price text to a non-negative amount.
// Anything that does not parse yields zero.
func ParsePrice(text string) decimal.Decimal {
	text = strings.TrimSpace(text)
	if text == "" || text == DefaultPrice {
		return decimal.Zero
	}

	text = priceArtifacts.Replace(text)
	text = strings.Map(func(r rune) rune {
		if unicode.Is(unicode.Sc, r) || unicode.IsSpace(r) {
			return -1
		}
		return r
	}, text)

	value, err := decimal.NewFromString(text)
	if err != nil || value.IsNegative() {
		return decimal.Zero
	}
	return value
}

// ParseRating converts a star-rating class token to 1..5, or 0 when unrated.
func ParseRating(label string) int {
	return ratingLabels[strings.TrimSpace(label)]
}

// ParseStock reports whether the availability text announces stock.
func ParseStock(text string) bool {
	return strings.Contains(text, InStockPhrase)
}

// Normalize applies field defaults and conversions to one raw candidate.
func Normalize(raw models.RawCandidate, capturedAt time.Time) *models.Product {
	title := strings.TrimSpace(raw.Title.Or(DefaultTitle))
	if title == "" {
		title = DefaultTitle
	}
	price := strings.TrimSpace(raw.PriceText.Or(DefaultPrice))
	if price == "" {
		price = DefaultPrice
	}

	return &models.Product{
		Title:      title,
		Price:      price,
		PriceValue: ParsePrice(price),
		Rating:     ParseRating(raw.RatingLabel.Value),
		InStock:    ParseStock(raw.StockText.Or(DefaultStock)),
		URL:        raw.DetailURL.Value,
		ImageURL:   raw.ImageURL.Value,
		ParsedAt:   capturedAt,
	}
}

// ValidateProduct ensures a record respects the value ranges normalization
// guarantees.
func ValidateProduct(p *models.Product) error {
	if p == nil {
		return fmt.Errorf("product is nil")
	}
	if strings.TrimSpace(p.Title) == "" {
		return fmt.Errorf("product missing title")
	}
	if p.PriceValue.IsNegative() {
		return fmt.Errorf("negative price %s for %s", p.PriceValue, p.Title)
	}
	if p.Rating < 0 || p.Rating > MaxRating {
		return fmt.Errorf("rating %d out of range for %s", p.Rating, p.Title)
	}
	return nil
}
