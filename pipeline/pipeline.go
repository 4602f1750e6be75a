package pipeline

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/aluiziolira/go-product-parser/models"
	"github.com/aluiziolira/go-product-parser/parser"
)

var (
	// ErrPipelineClosed is returned when Process is called after Close.
	ErrPipelineClosed = errors.New("pipeline: closed")
)

// OutputWriter defines the interface for data output.
type OutputWriter interface {
	Write(products []*models.Product) error
	Close() error
	Validate() error
}

// Pipeline validates products and hands them to an OutputWriter in
// batches. It runs on the caller's goroutine and is not safe for
// concurrent use.
type Pipeline struct {
	writer    OutputWriter
	batch     []*models.Product
	batchSize int

	metrics  metrics
	rejected []error

	closed bool
	err    error
}

// NewPipeline builds a pipeline flushing every batchSize products.
func NewPipeline(writer OutputWriter, batchSize int) *Pipeline {
	if batchSize <= 0 {
		batchSize = 64
	}
	return &Pipeline{
		writer:    writer,
		batch:     make([]*models.Product, 0, batchSize),
		batchSize: batchSize,
		metrics:   newMetrics(),
	}
}

// Process validates products and writes every full batch.
func (p *Pipeline) Process(products ...*models.Product) error {
	if p.err != nil {
		return p.err
	}
	if p.closed {
		return ErrPipelineClosed
	}

	for _, product := range products {
		if product == nil {
			continue
		}
		if err := parser.ValidateProduct(product); err != nil {
			p.metrics.addValidation("invalid_record")
			p.rejected = append(p.rejected, fmt.Errorf("record %q: %w", product.Title, err))
			continue
		}
		p.batch = append(p.batch, product)
		if len(p.batch) >= p.batchSize {
			if err := p.flush(); err != nil {
				return err
			}
		}
	}
	return nil
}

// Close flushes the pending batch and prevents more submissions. The
// writer itself stays open so the caller can validate it.
func (p *Pipeline) Close() error {
	if p.closed {
		return p.err
	}
	p.closed = true
	if p.err != nil {
		return p.err
	}
	return p.flush()
}

// Err returns the first error encountered during processing.
func (p *Pipeline) Err() error {
	return p.err
}

// Written returns how many products reached the writer.
func (p *Pipeline) Written() int {
	return int(p.metrics.processed)
}

// Rejected returns one error per product that failed validation, in
// submission order.
func (p *Pipeline) Rejected() []error {
	return p.rejected
}

// GetMetrics returns a snapshot of the internal counters.
func (p *Pipeline) GetMetrics() map[string]interface{} {
	return p.metrics.snapshot()
}

func (p *Pipeline) flush() error {
	if len(p.batch) == 0 {
		return nil
	}
	if err := p.writer.Write(p.batch); err != nil {
		p.err = fmt.Errorf("write batch: %w", err)
		return p.err
	}
	p.metrics.processed += int64(len(p.batch))
	p.metrics.batches++
	p.batch = p.batch[:0]
	return nil
}

type metrics struct {
	processed  int64
	batches    int64
	validation map[string]int
}

func newMetrics() metrics {
	return metrics{
		validation: make(map[string]int),
	}
}

func (m *metrics) addValidation(kind string) {
	m.validation[kind]++
}

func (m *metrics) snapshot() map[string]interface{} {
	copyValidation := make(map[string]int, len(m.validation))
	for k, v := range m.validation {
		copyValidation[k] = v
	}

	return map[string]interface{}{
		"processed_products": m.processed,
		"batches":            m.batches,
		"validation_errors":  copyValidation,
	}
}

// SaveReport describes a completed Save. Rejected holds the products
// that failed validation and were left out of the file.
type SaveReport struct {
	Path     string
	Written  int
	Rejected []error
}

// Save writes products to path in the given format (csv, json, or dual).
// On any failure the partial output is removed and nothing counts as
// saved.
func Save(products []*models.Product, path, format string, batchSize int) (SaveReport, error) {
	writer, err := NewWriter(format, path)
	if err != nil {
		return SaveReport{}, err
	}

	fail := func(err error) (SaveReport, error) {
		if closeErr := writer.Close(); closeErr != nil {
			err = errors.Join(err, closeErr)
		}
		removeOutput(format, path)
		return SaveReport{}, err
	}

	p := NewPipeline(writer, batchSize)
	if err := p.Process(products...); err != nil {
		return fail(fmt.Errorf("save products: %w", err))
	}
	if err := p.Close(); err != nil {
		return fail(fmt.Errorf("save products: %w", err))
	}
	if err := writer.Validate(); err != nil {
		return fail(fmt.Errorf("validate output: %w", err))
	}
	if err := writer.Close(); err != nil {
		removeOutput(format, path)
		return SaveReport{}, fmt.Errorf("close output: %w", err)
	}
	return SaveReport{Path: path, Written: p.Written(), Rejected: p.Rejected()}, nil
}

func removeOutput(format, path string) {
	for _, file := range OutputFiles(format, path) {
		os.Remove(file)
	}
}

// NewWriter creates the OutputWriter for a format.
func NewWriter(format, path string) (OutputWriter, error) {
	switch format {
	case "json":
		return NewJSONWriter(path)
	case "csv":
		return NewCSVWriter(path)
	case "dual":
		companion := jsonCompanion(path)
		if companion == path {
			return nil, fmt.Errorf("dual output %s: csv path must not end in .jsonl", path)
		}
		return NewDualWriter(path, companion)
	default:
		return nil, fmt.Errorf("unsupported format: %s", format)
	}
}

// OutputFiles lists every file a format writes for path.
func OutputFiles(format, path string) []string {
	if format == "dual" {
		return []string{path, jsonCompanion(path)}
	}
	return []string{path}
}

// jsonCompanion names the JSONL file written next to a dual CSV export.
func jsonCompanion(path string) string {
	return strings.TrimSuffix(path, filepath.Ext(path)) + ".jsonl"
}
