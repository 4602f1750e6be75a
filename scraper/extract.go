package scraper

import (
	"errors"
	"fmt"
	"net/url"
	"strings"
	"time"

	"github.com/PuerkitoBio/goquery"
	"github.com/aluiziolira/go-product-parser/models"
	"github.com/aluiziolira/go-product-parser/parser"
)

const (
	productSelector = "article.product_pod"
	linkSelector    = "h3 a"
	priceSelector   = ".price_color"
	ratingSelector  = ".star-rating"
	stockSelector   = ".availability"
	imageSelector   = "img.thumbnail, .thumbnail img"
	ratingClass     = "star-rating"
)

var errEmptyEntry = errors.New("entry has no link, price or rating markup")

// EntryResult is the outcome of extracting one listing entry: either a
// product or the reason the entry was skipped.
type EntryResult struct {
	Index      int
	Product    *models.Product
	SkipReason string
}

// Skipped reports whether the entry produced no product.
func (r EntryResult) Skipped() bool {
	return r.Product == nil
}

// ExtractEntries maps every product entry of a listing document, in
// document order. Relative links are resolved against pageURL.
func ExtractEntries(doc *goquery.Document, pageURL *url.URL, capturedAt time.Time) []EntryResult {
	entries := doc.Find(productSelector)
	results := make([]EntryResult, 0, entries.Length())
	entries.Each(func(i int, s *goquery.Selection) {
		results = append(results, extractEntry(i, s, pageURL, capturedAt))
	})
	return results
}

// ExtractProducts returns only the products of a listing document.
func ExtractProducts(doc *goquery.Document, pageURL *url.URL, capturedAt time.Time) []*models.Product {
	return productsOf(ExtractEntries(doc, pageURL, capturedAt))
}

func productsOf(results []EntryResult) []*models.Product {
	products := make([]*models.Product, 0, len(results))
	for _, r := range results {
		if !r.Skipped() {
			products = append(products, r.Product)
		}
	}
	return products
}

func extractEntry(index int, s *goquery.Selection, base *url.URL, capturedAt time.Time) (result EntryResult) {
	defer func() {
		if r := recover(); r != nil {
			result = EntryResult{Index: index, SkipReason: fmt.Sprintf("panic: %v", r)}
		}
	}()

	raw, err := captureEntry(s, base)
	if err != nil {
		return EntryResult{Index: index, SkipReason: err.Error()}
	}
	return EntryResult{Index: index, Product: parser.Normalize(raw, capturedAt)}
}

// captureEntry reads each field independently; a missing element leaves the
// field absent. Only unusable markup is an error.
func captureEntry(s *goquery.Selection, base *url.URL) (models.RawCandidate, error) {
	var raw models.RawCandidate

	link := s.Find(linkSelector).First()
	price := s.Find(priceSelector).First()
	rating := s.Find(ratingSelector).First()
	if link.Length() == 0 && price.Length() == 0 && rating.Length() == 0 {
		return raw, errEmptyEntry
	}

	if title, ok := link.Attr("title"); ok {
		raw.Title = models.Present(title)
	}
	if href, ok := link.Attr("href"); ok {
		detail, err := resolveURL(base, href)
		if err != nil {
			return raw, fmt.Errorf("resolve detail url: %w", err)
		}
		raw.DetailURL = detail
	}

	if price.Length() > 0 {
		raw.PriceText = models.Present(strings.TrimSpace(price.Text()))
	}
	if class, ok := rating.Attr("class"); ok {
		if label := ratingLabel(class); label != "" {
			raw.RatingLabel = models.Present(label)
		}
	}
	if stock := s.Find(stockSelector).First(); stock.Length() > 0 {
		raw.StockText = models.Present(strings.TrimSpace(stock.Text()))
	}

	img := s.Find(imageSelector).First()
	if img.Length() == 0 {
		img = s.Find("img").First()
	}
	if src, ok := img.Attr("src"); ok {
		image, err := resolveURL(base, src)
		if err != nil {
			return raw, fmt.Errorf("resolve image url: %w", err)
		}
		raw.ImageURL = image
	}

	return raw, nil
}

// ratingLabel picks the class token that is not the indicator class itself,
// e.g. "Three" from "star-rating Three".
func ratingLabel(class string) string {
	for _, token := range strings.Fields(class) {
		if token != ratingClass {
			return token
		}
	}
	return ""
}

func resolveURL(base *url.URL, ref string) (models.Field, error) {
	ref = strings.TrimSpace(ref)
	if ref == "" {
		return models.Absent, nil
	}
	parsed, err := url.Parse(ref)
	if err != nil {
		return models.Absent, err
	}
	if base == nil {
		return models.Present(parsed.String()), nil
	}
	return models.Present(base.ResolveReference(parsed).String()), nil
}
