package config

import (
	"fmt"
	"net/url"
	"path/filepath"
	"strings"
	"time"

	"github.com/shopspring/decimal"
)

// Config holds parser configuration.
type Config struct {
	BaseURL      string
	CatalogPath  string // page URL template relative to BaseURL
	MaxPages     int
	Delay        time.Duration
	Timeout      time.Duration
	UserAgent    string
	OutputDir    string
	OutputFile   string // empty means a timestamped name under OutputDir
	OutputFormat string // csv, json, or dual
	BatchSize    int

	MaxPrice  decimal.Decimal
	MinRating int
	DealLimit int

	EnrichDetails   bool
	DetailCacheSize int

	InputFile   string
	MetricsFile string
	Verbose     bool
}

// DefaultConfig returns conservative defaults for the demo target.
func DefaultConfig() *Config {
	return &Config{
		BaseURL:         "https://books.toscrape.com",
		CatalogPath:     "catalogue/page-%d.html",
		MaxPages:        3,
		Delay:           500 * time.Millisecond,
		Timeout:         10 * time.Second,
		UserAgent:       "Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36",
		OutputDir:       "output",
		OutputFormat:    "csv",
		BatchSize:       64,
		MaxPrice:        decimal.NewFromInt(15),
		MinRating:       4,
		DealLimit:       5,
		DetailCacheSize: 256,
	}
}

// Validate ensures all configuration values are coherent.
func (c *Config) Validate() error {
	if c.BaseURL == "" {
		return fmt.Errorf("base URL cannot be empty")
	}

	parsedURL, err := url.Parse(c.BaseURL)
	if err != nil {
		return fmt.Errorf("invalid base URL: %w", err)
	}
	if parsedURL.Host == "" {
		return fmt.Errorf("base URL must include a host")
	}

	if !strings.Contains(c.CatalogPath, "%d") {
		return fmt.Errorf("catalog path must contain a %%d page placeholder")
	}
	if c.MaxPages <= 0 {
		return fmt.Errorf("max pages must be positive")
	}
	if c.Delay < 0 {
		return fmt.Errorf("delay cannot be negative")
	}
	if c.Timeout <= 0 {
		return fmt.Errorf("timeout must be positive")
	}
	if c.UserAgent == "" {
		return fmt.Errorf("user agent cannot be empty")
	}
	if c.OutputFormat != "csv" && c.OutputFormat != "json" && c.OutputFormat != "dual" {
		return fmt.Errorf("output format must be csv, json, or dual")
	}
	if c.OutputFormat == "dual" && strings.EqualFold(filepath.Ext(c.OutputFile), ".jsonl") {
		return fmt.Errorf("dual output file must be the csv path, not %s", c.OutputFile)
	}
	if c.BatchSize <= 0 {
		return fmt.Errorf("batch size must be positive")
	}
	if c.MaxPrice.IsNegative() {
		return fmt.Errorf("max price cannot be negative")
	}
	if c.MinRating < 0 || c.MinRating > 5 {
		return fmt.Errorf("min rating must be between 0 and 5")
	}
	if c.DealLimit <= 0 {
		return fmt.Errorf("deal limit must be positive")
	}
	if c.EnrichDetails && c.DetailCacheSize <= 0 {
		return fmt.Errorf("detail cache size must be positive when enrichment is enabled")
	}

	return nil
}

// PageURL resolves a catalog page number to an absolute URL.
func (c *Config) PageURL(page int) string {
	return strings.TrimSuffix(c.BaseURL, "/") + "/" + fmt.Sprintf(c.CatalogPath, page)
}

// OutputPath returns the configured output file, or a name derived from now.
func (c *Config) OutputPath(now time.Time) string {
	if c.OutputFile != "" {
		return c.OutputFile
	}
	ext := ".csv"
	if c.OutputFormat == "json" {
		ext = ".jsonl"
	}
	return filepath.Join(c.OutputDir, "products_"+now.Format("20060102_150405")+ext)
}
