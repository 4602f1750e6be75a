package scraper

import (
	"context"
	"strings"
	"testing"
	"unicode/utf8"
)

func TestParseDetails(t *testing.T) {
	doc := mustDoc(t, buildDetailPage("A short description.", "In stock (22 available)", "abc123"))
	details := ParseDetails(doc)

	if details.Description != "A short description." {
		t.Errorf("description = %q", details.Description)
	}
	if details.Availability != "In stock (22 available)" {
		t.Errorf("availability = %q", details.Availability)
	}
	if details.UPC != "abc123" {
		t.Errorf("upc = %q", details.UPC)
	}
}

func TestParseDetailsDefaults(t *testing.T) {
	details := ParseDetails(mustDoc(t, "<html><body><p>unrelated</p></body></html>"))
	if details.Description != defaultDescription || details.Availability != "Unknown" || details.UPC != defaultUPC {
		t.Fatalf("defaults = %+v", details)
	}
}

func TestParseDetailsTruncatesDescription(t *testing.T) {
	long := strings.Repeat("é", 250)
	details := ParseDetails(mustDoc(t, buildDetailPage(long, "In stock", "x")))

	if !strings.HasSuffix(details.Description, "...") {
		t.Fatalf("description should be truncated: %q", details.Description)
	}
	if got := utf8.RuneCountInString(details.Description); got != maxDescriptionRunes+3 {
		t.Fatalf("description runes = %d, want %d", got, maxDescriptionRunes+3)
	}
}

func TestEnricherCachesLookups(t *testing.T) {
	const detailURL = "http://example.test/catalogue/book-1_1/index.html"
	fetcher := newFakeFetcher()
	fetcher.pages[detailURL] = buildDetailPage("Cached.", "In stock", "upc-1")

	enricher, err := NewEnricher(fetcher, 4, NewMetrics())
	if err != nil {
		t.Fatalf("new enricher: %v", err)
	}

	first, fetched, err := enricher.Lookup(context.Background(), detailURL)
	if err != nil || !fetched {
		t.Fatalf("first lookup: fetched=%v err=%v", fetched, err)
	}
	second, fetched, err := enricher.Lookup(context.Background(), detailURL)
	if err != nil || fetched {
		t.Fatalf("second lookup: fetched=%v err=%v", fetched, err)
	}
	if first != second {
		t.Fatalf("expected cached details to be reused")
	}
	if got := len(fetcher.Calls()); got != 1 {
		t.Fatalf("fetches = %d, want 1", got)
	}
}

func TestEnricherRejectsMissingURL(t *testing.T) {
	enricher, err := NewEnricher(newFakeFetcher(), 1, nil)
	if err != nil {
		t.Fatalf("new enricher: %v", err)
	}
	if _, fetched, err := enricher.Lookup(context.Background(), ""); err == nil || fetched {
		t.Fatalf("expected error without fetch, got fetched=%v err=%v", fetched, err)
	}
}
