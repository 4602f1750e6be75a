package scraper

import (
	"context"
	"fmt"
	"log/slog"
	"net/url"
	"time"

	"github.com/aluiziolira/go-product-parser/config"
	"github.com/aluiziolira/go-product-parser/models"
	"github.com/google/uuid"
)

// Scraper walks catalog pages one at a time until the catalog runs out.
type Scraper struct {
	cfg      *config.Config
	fetcher  DocumentFetcher
	enricher *Enricher
	Metrics  *Metrics

	now   func() time.Time
	sleep func(context.Context, time.Duration) error
}

// NewScraper builds a scraper with a colly-backed fetcher.
func NewScraper(cfg *config.Config) (*Scraper, error) {
	metrics := NewMetrics()
	fetcher, err := NewFetcher(cfg, metrics)
	if err != nil {
		return nil, err
	}
	return newScraper(cfg, fetcher, metrics)
}

func newScraper(cfg *config.Config, fetcher DocumentFetcher, metrics *Metrics) (*Scraper, error) {
	s := &Scraper{
		cfg:     cfg,
		fetcher: fetcher,
		Metrics: metrics,
		now:     time.Now,
		sleep:   sleepContext,
	}
	if cfg.EnrichDetails {
		enricher, err := NewEnricher(fetcher, cfg.DetailCacheSize, metrics)
		if err != nil {
			return nil, err
		}
		s.enricher = enricher
	}
	return s, nil
}

// Run fetches pages 1..MaxPages in order. It stops at the first page that
// fails to fetch or yields no products; both end the catalog. The returned
// result owns every product collected, in document order.
func (s *Scraper) Run(ctx context.Context) *models.ScrapeResult {
	if ctx == nil {
		ctx = context.Background()
	}

	result := &models.ScrapeResult{
		RunID:        uuid.NewString(),
		StartTime:    s.now(),
		ErrorsByType: make(map[string]int),
	}
	logger := slog.With(slog.String("run_id", result.RunID))

	for page := 1; ; page++ {
		if page > s.cfg.MaxPages {
			result.Stop = models.StopPageLimit
			break
		}
		if ctx.Err() != nil {
			result.Stop = models.StopCanceled
			break
		}

		products, err := s.scrapePage(ctx, logger, page, result)
		if err != nil {
			result.Stop = models.StopFetchFailed
			result.LastFetchError = err
			result.ErrorsByType[errorTypeLabel(err)]++
			logger.Error("page fetch failed, stopping",
				slog.Int("page", page),
				slog.String("category", errorTypeLabel(err)),
				slog.Any("error", err),
			)
			break
		}
		if len(products) == 0 {
			result.Stop = models.StopEmptyPage
			logger.Info("no more products found", slog.Int("page", page))
			break
		}

		result.Products = append(result.Products, products...)
		result.PageCount++
		s.Metrics.IncPages()

		if page < s.cfg.MaxPages {
			if err := s.sleep(ctx, s.cfg.Delay); err != nil {
				result.Stop = models.StopCanceled
				break
			}
		}
	}

	result.EndTime = s.now()
	logger.Info("pagination finished",
		slog.String("stop", string(result.Stop)),
		slog.Int("pages", result.PageCount),
		slog.Int("products", len(result.Products)),
		slog.Int("skipped", result.SkippedEntries),
	)
	return result
}

func (s *Scraper) scrapePage(ctx context.Context, logger *slog.Logger, page int, result *models.ScrapeResult) ([]*models.Product, error) {
	pageURL := s.cfg.PageURL(page)
	logger.Info("parsing page", slog.Int("page", page), slog.String("url", pageURL))

	base, err := url.Parse(pageURL)
	if err != nil {
		return nil, fmt.Errorf("parse page url: %w", err)
	}

	result.RequestCount++
	doc, err := s.fetcher.Fetch(ctx, pageURL)
	if err != nil {
		return nil, err
	}

	entries := ExtractEntries(doc, base, s.now())
	for _, entry := range entries {
		if entry.Skipped() {
			logger.Warn("skipped entry",
				slog.Int("page", page),
				slog.Int("index", entry.Index),
				slog.String("reason", entry.SkipReason),
			)
		}
	}
	products := productsOf(entries)
	skipped := len(entries) - len(products)
	result.SkippedEntries += skipped
	s.Metrics.AddSkipped(skipped)
	s.Metrics.AddProducts(len(products))

	if s.enricher != nil {
		s.enrich(ctx, logger, products, result)
	}

	for _, p := range products {
		logger.Debug("product",
			slog.String("title", p.Title),
			slog.String("price", p.Price),
			slog.Int("rating", p.Rating),
			slog.Bool("in_stock", p.InStock),
		)
	}
	return products, nil
}

// enrich attaches detail-page fields. A failed lookup leaves the product as
// it came from the listing.
func (s *Scraper) enrich(ctx context.Context, logger *slog.Logger, products []*models.Product, result *models.ScrapeResult) {
	for _, p := range products {
		if p.URL == "" {
			continue
		}
		details, fetched, err := s.enricher.Lookup(ctx, p.URL)
		if fetched {
			result.RequestCount++
		}
		if err != nil {
			result.EnrichFailures++
			logger.Warn("detail page unavailable",
				slog.String("url", p.URL),
				slog.Any("error", err),
			)
			continue
		}
		p.Details = details
	}
}

func sleepContext(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return ctx.Err()
	}
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}
