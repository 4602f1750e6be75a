package scraper

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"testing"

	"github.com/jarcoal/httpmock"
	"github.com/prometheus/client_golang/prometheus/testutil"
)

func newTestFetcher(t *testing.T) (*Fetcher, *httpmock.MockTransport, *Metrics) {
	t.Helper()
	metrics := NewMetrics()
	f, err := NewFetcher(testConfig(), metrics)
	if err != nil {
		t.Fatalf("new fetcher: %v", err)
	}
	transport := httpmock.NewMockTransport()
	f.WithTransport(transport)
	return f, transport, metrics
}

func TestFetcherReturnsDocument(t *testing.T) {
	f, transport, metrics := newTestFetcher(t)
	const pageURL = "http://example.test/catalogue/page-1.html"
	transport.RegisterResponder("GET", pageURL, htmlResponder(buildCatalogPage(1, 2)))

	doc, err := f.Fetch(context.Background(), pageURL)
	if err != nil {
		t.Fatalf("fetch: %v", err)
	}
	if got := doc.Find(productSelector).Length(); got != 2 {
		t.Fatalf("entries = %d, want 2", got)
	}
	if got := testutil.ToFloat64(metrics.RequestsTotal.WithLabelValues("succeeded")); got != 1 {
		t.Fatalf("succeeded requests = %v, want 1", got)
	}

	// Revisiting the same URL must issue a second request.
	if _, err := f.Fetch(context.Background(), pageURL); err != nil {
		t.Fatalf("refetch: %v", err)
	}
	if got := transport.GetTotalCallCount(); got != 2 {
		t.Fatalf("http calls = %d, want 2", got)
	}
}

func TestFetcherHTTPStatusClassification(t *testing.T) {
	tests := []struct {
		status   int
		expected string
	}{
		{status: http.StatusTooManyRequests, expected: "rate_limited"},
		{status: http.StatusForbidden, expected: "forbidden"},
		{status: http.StatusNotFound, expected: "not_found"},
		{status: http.StatusInternalServerError, expected: "http_status"},
	}

	for _, tt := range tests {
		t.Run(fmt.Sprintf("status_%d", tt.status), func(t *testing.T) {
			f, transport, metrics := newTestFetcher(t)
			const pageURL = "http://example.test/catalogue/page-1.html"
			transport.RegisterResponder("GET", pageURL, httpmock.NewStringResponder(tt.status, ""))

			_, err := f.Fetch(context.Background(), pageURL)
			if err == nil {
				t.Fatalf("expected error for status %d", tt.status)
			}
			if got := errorTypeLabel(err); got != tt.expected {
				t.Fatalf("label = %q, want %q (err=%v)", got, tt.expected, err)
			}
			if got := testutil.ToFloat64(metrics.ErrorsTotal.WithLabelValues(tt.expected)); got != 1 {
				t.Fatalf("errors metric = %v, want 1", got)
			}
		})
	}
}

func TestFetcherAcceptsAnySuccessStatus(t *testing.T) {
	for _, status := range []int{http.StatusOK, http.StatusNonAuthoritativeInfo, http.StatusPartialContent} {
		t.Run(fmt.Sprintf("status_%d", status), func(t *testing.T) {
			f, transport, metrics := newTestFetcher(t)
			const pageURL = "http://example.test/catalogue/page-1.html"
			transport.RegisterResponder("GET", pageURL, httpmock.NewStringResponder(status, buildCatalogPage(1, 3)))

			doc, err := f.Fetch(context.Background(), pageURL)
			if err != nil {
				t.Fatalf("fetch with status %d: %v", status, err)
			}
			if got := doc.Find(productSelector).Length(); got != 3 {
				t.Fatalf("entries = %d, want 3", got)
			}
			if got := testutil.ToFloat64(metrics.RequestsTotal.WithLabelValues("failed")); got != 0 {
				t.Fatalf("failed requests = %v, want 0", got)
			}
		})
	}
}

func TestFetcherRejectsRedirectStatus(t *testing.T) {
	f, transport, _ := newTestFetcher(t)
	const pageURL = "http://example.test/catalogue/page-1.html"
	transport.RegisterResponder("GET", pageURL, httpmock.NewStringResponder(http.StatusNotModified, ""))

	_, err := f.Fetch(context.Background(), pageURL)
	var status ErrStatus
	if !errors.As(err, &status) || status.Code != http.StatusNotModified {
		t.Fatalf("err = %v, want ErrStatus 304", err)
	}
}

func TestFetcherTransportFailure(t *testing.T) {
	f, transport, _ := newTestFetcher(t)
	transport.RegisterNoResponder(httpmock.NewErrorResponder(errors.New("connection reset")))

	if _, err := f.Fetch(context.Background(), "http://example.test/catalogue/page-9.html"); err == nil {
		t.Fatalf("expected transport error")
	}
}

func TestFetcherRejectsForeignHost(t *testing.T) {
	f, transport, _ := newTestFetcher(t)

	if _, err := f.Fetch(context.Background(), "http://elsewhere.test/"); err == nil {
		t.Fatalf("expected error for foreign host")
	}
	if got := transport.GetTotalCallCount(); got != 0 {
		t.Fatalf("http calls = %d, want 0", got)
	}
}

func TestFetcherCanceledContext(t *testing.T) {
	f, transport, _ := newTestFetcher(t)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	if _, err := f.Fetch(ctx, "http://example.test/catalogue/page-1.html"); !errors.Is(err, context.Canceled) {
		t.Fatalf("err = %v, want context.Canceled", err)
	}
	if got := transport.GetTotalCallCount(); got != 0 {
		t.Fatalf("http calls = %d, want 0", got)
	}
}
