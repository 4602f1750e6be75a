// Package models defines data structures for the product parser.
package models

import (
	"time"

	"github.com/shopspring/decimal"
)

// Product is one normalized catalog record. It is not modified after the
// extractor builds it.
type Product struct {
	Title      string          `csv:"title" json:"title"`
	Price      string          `csv:"price" json:"price"`
	PriceValue decimal.Decimal `csv:"price_value" json:"price_value"`
	Rating     int             `csv:"rating" json:"rating"`
	InStock    bool            `csv:"in_stock" json:"in_stock"`
	URL        string          `csv:"url" json:"url,omitempty"`
	ImageURL   string          `csv:"image_url" json:"image_url,omitempty"`
	ParsedAt   time.Time       `csv:"parsed_at" json:"parsed_at"`

	// Details is only set when detail-page enrichment is enabled.
	Details *ProductDetails `csv:"-" json:"details,omitempty"`
}

// ProductDetails holds the fields read from a product's own page.
type ProductDetails struct {
	Description  string `json:"description"`
	Availability string `json:"availability"`
	UPC          string `json:"upc"`
}

// Field is a captured markup value that may be absent.
type Field struct {
	Value string
	Valid bool
}

// Present wraps a captured value.
func Present(v string) Field {
	return Field{Value: v, Valid: true}
}

// Absent is the zero Field.
var Absent = Field{}

// Or returns the value, or def when the field was not captured.
func (f Field) Or(def string) string {
	if !f.Valid {
		return def
	}
	return f.Value
}

// RawCandidate is the unnormalized text captured for one listing entry.
type RawCandidate struct {
	Title       Field
	PriceText   Field
	RatingLabel Field
	StockText   Field
	DetailURL   Field
	ImageURL    Field
}

// StopReason records why pagination ended.
type StopReason string

const (
	StopFetchFailed StopReason = "fetch_failed"
	StopEmptyPage   StopReason = "empty_page"
	StopPageLimit   StopReason = "page_limit"
	StopCanceled    StopReason = "canceled"
)

// ScrapeResult holds the overall result of a pagination run.
type ScrapeResult struct {
	RunID          string
	Products       []*Product
	StartTime      time.Time
	EndTime        time.Time
	PageCount      int
	RequestCount   int
	SkippedEntries int
	EnrichFailures int
	Stop           StopReason
	LastFetchError error
	ErrorsByType   map[string]int
}
