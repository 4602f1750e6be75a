package main

import (
	"context"
	"flag"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/aluiziolira/go-product-parser/analysis"
	"github.com/aluiziolira/go-product-parser/config"
	"github.com/aluiziolira/go-product-parser/models"
	"github.com/aluiziolira/go-product-parser/pipeline"
	"github.com/aluiziolira/go-product-parser/scraper"
	"github.com/shopspring/decimal"
)

type cliFlags struct {
	baseURL     string
	pages       int
	delayMs     int
	timeoutMs   int
	maxPrice    decimal.Decimal
	minRating   int
	deals       int
	output      string
	format      string
	details     bool
	input       string
	metricsFile string
	verbose     bool
}

func main() {
	os.Exit(run())
}

func run() int {
	defaults := config.DefaultConfig()
	f := cliFlags{maxPrice: defaults.MaxPrice}
	flag.StringVar(&f.baseURL, "base-url", defaults.BaseURL, "Catalog base URL")
	flag.IntVar(&f.pages, "pages", defaults.MaxPages, "Maximum catalog pages to parse")
	flag.IntVar(&f.delayMs, "delay", int(defaults.Delay/time.Millisecond), "Pause between page requests (milliseconds)")
	flag.IntVar(&f.timeoutMs, "timeout", int(defaults.Timeout/time.Millisecond), "Request timeout (milliseconds)")
	flag.Func("max-price", "Highest price for a deal (default "+defaults.MaxPrice.String()+")", func(s string) error {
		v, err := parseMaxPrice(s)
		if err != nil {
			return err
		}
		f.maxPrice = v
		return nil
	})
	flag.IntVar(&f.minRating, "min-rating", defaults.MinRating, "Lowest star rating for a deal")
	flag.IntVar(&f.deals, "deals", defaults.DealLimit, "Number of deals to show")
	flag.StringVar(&f.output, "output", "", "Output file path (default output/products_<timestamp>.csv)")
	flag.StringVar(&f.format, "format", defaults.OutputFormat, "Output format: csv, json, or dual")
	flag.BoolVar(&f.details, "details", false, "Fetch each product page for description and UPC")
	flag.StringVar(&f.input, "input", "", "Analyse a previous CSV export instead of scraping")
	flag.StringVar(&f.metricsFile, "metrics-file", "", "Write Prometheus metrics to this textfile when done")
	flag.BoolVar(&f.verbose, "v", false, "Enable verbose logging")
	flag.Parse()

	cfg := buildConfig(f)

	logger, level := newLogger(cfg.Verbose)
	slog.SetDefault(logger)
	slog.SetLogLoggerLevel(level.Level())

	if err := cfg.Validate(); err != nil {
		slog.Error("invalid configuration", slog.Any("error", err))
		return 1
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	products, metrics, err := collect(ctx, cfg)
	if err != nil {
		slog.Error("loading products failed", slog.Any("error", err))
		return 1
	}

	printStatistics(os.Stdout, analysis.ComputeStatistics(products))
	printDeals(os.Stdout, analysis.RankDeals(products, analysis.DealCriteria{
		MaxPrice:  cfg.MaxPrice,
		MinRating: cfg.MinRating,
		Limit:     cfg.DealLimit,
	}))

	if cfg.MetricsFile != "" {
		if err := metrics.WriteTextfile(cfg.MetricsFile); err != nil {
			slog.Error("metrics export failed", slog.Any("error", err))
		}
	}

	if len(products) == 0 {
		slog.Warn("no products to save")
		return 0
	}
	if cfg.InputFile != "" && cfg.OutputFile == "" {
		return 0
	}

	report, err := pipeline.Save(products, cfg.OutputPath(time.Now()), cfg.OutputFormat, cfg.BatchSize)
	if err != nil {
		slog.Error("products not saved", slog.Any("error", err))
		return 1
	}
	for _, reject := range report.Rejected {
		slog.Warn("record left out of export", slog.Any("error", reject))
	}
	if len(report.Rejected) > 0 {
		slog.Warn("export is incomplete",
			slog.Int("written", report.Written),
			slog.Int("rejected", len(report.Rejected)),
		)
	}
	fmt.Printf("\nData exported to: %s (%d records)\n", report.Path, report.Written)
	return 0
}

// collect scrapes the catalog, or loads a previous export when -input is set.
func collect(ctx context.Context, cfg *config.Config) ([]*models.Product, *scraper.Metrics, error) {
	if cfg.InputFile != "" {
		products, err := pipeline.ReadCSV(cfg.InputFile)
		if err != nil {
			return nil, nil, err
		}
		slog.Info("loaded previous export",
			slog.String("file", cfg.InputFile),
			slog.Int("products", len(products)),
		)
		return products, nil, nil
	}

	slog.Info("starting scrape",
		slog.String("base_url", cfg.BaseURL),
		slog.Int("pages", cfg.MaxPages),
		slog.Bool("details", cfg.EnrichDetails),
	)

	s, err := scraper.NewScraper(cfg)
	if err != nil {
		return nil, nil, fmt.Errorf("initialising scraper: %w", err)
	}
	result := s.Run(ctx)
	printRunSummary(os.Stdout, result)
	return result.Products, s.Metrics, nil
}

func parseMaxPrice(s string) (decimal.Decimal, error) {
	v, err := decimal.NewFromString(strings.TrimSpace(s))
	if err != nil {
		return decimal.Zero, fmt.Errorf("invalid max price %q: %w", s, err)
	}
	return v, nil
}

func buildConfig(f cliFlags) *config.Config {
	cfg := config.DefaultConfig()
	cfg.BaseURL = f.baseURL
	cfg.MaxPages = f.pages
	cfg.Delay = time.Duration(f.delayMs) * time.Millisecond
	cfg.Timeout = time.Duration(f.timeoutMs) * time.Millisecond
	cfg.MaxPrice = f.maxPrice
	cfg.MinRating = f.minRating
	cfg.DealLimit = f.deals
	cfg.OutputFile = f.output
	cfg.OutputFormat = strings.ToLower(f.format)
	cfg.EnrichDetails = f.details
	cfg.InputFile = f.input
	cfg.MetricsFile = f.metricsFile
	cfg.Verbose = f.verbose
	return cfg
}

func newLogger(verbose bool) (*slog.Logger, *slog.LevelVar) {
	level := &slog.LevelVar{}
	if verbose {
		level.Set(slog.LevelDebug)
	} else {
		level.Set(slog.LevelInfo)
	}

	opts := &slog.HandlerOptions{Level: level}
	var handler slog.Handler
	if isTerminal(os.Stderr) {
		handler = slog.NewTextHandler(os.Stderr, opts)
	} else {
		handler = slog.NewJSONHandler(os.Stderr, opts)
	}

	return slog.New(handler), level
}

func isTerminal(f *os.File) bool {
	info, err := f.Stat()
	if err != nil {
		return false
	}
	return (info.Mode() & os.ModeCharDevice) != 0
}
