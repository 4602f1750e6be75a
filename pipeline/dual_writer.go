package pipeline

import (
	"errors"
	"fmt"
	"os"

	"github.com/aluiziolira/go-product-parser/models"
)

// namedWriter tags an OutputWriter with the label used in its errors.
type namedWriter struct {
	name string
	OutputWriter
}

// MultiWriter fans every batch out to several writers in order.
type MultiWriter struct {
	writers []namedWriter
}

// NewDualWriter writes the same products to a CSV file and a JSONL file.
func NewDualWriter(csvFilename, jsonFilename string) (*MultiWriter, error) {
	csvWriter, err := NewCSVWriter(csvFilename)
	if err != nil {
		return nil, fmt.Errorf("create CSV writer: %w", err)
	}

	jsonWriter, err := NewJSONWriter(jsonFilename)
	if err != nil {
		csvWriter.Close()
		os.Remove(csvFilename)
		return nil, fmt.Errorf("create JSON writer: %w", err)
	}

	return &MultiWriter{writers: []namedWriter{
		{name: "CSV", OutputWriter: csvWriter},
		{name: "JSON", OutputWriter: jsonWriter},
	}}, nil
}

// Write stops at the first writer that fails.
func (mw *MultiWriter) Write(products []*models.Product) error {
	for _, w := range mw.writers {
		if err := w.Write(products); err != nil {
			return fmt.Errorf("%s write: %w", w.name, err)
		}
	}
	return nil
}

// Close closes every writer, even after a failure.
func (mw *MultiWriter) Close() error {
	return mw.each("close", OutputWriter.Close)
}

// Validate checks every writer's output.
func (mw *MultiWriter) Validate() error {
	return mw.each("validate", OutputWriter.Validate)
}

func (mw *MultiWriter) each(op string, fn func(OutputWriter) error) error {
	var errs []error
	for _, w := range mw.writers {
		if err := fn(w.OutputWriter); err != nil {
			errs = append(errs, fmt.Errorf("%s %s: %w", w.name, op, err))
		}
	}
	return errors.Join(errs...)
}
