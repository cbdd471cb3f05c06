package output

import (
	"encoding/csv"
	"fmt"
	"io"
)

// Row is implemented by types that can be written as CSV.
type Row interface {
	CSVHeader() []string
	CSVRow() []string
}

// CSVWriter writes Row items as CSV, with a header taken from the first item.
type CSVWriter struct {
	w      *csv.Writer
	header bool
}

// NewCSVWriter creates a CSV writer.
func NewCSVWriter(w io.Writer) *CSVWriter {
	return &CSVWriter{w: csv.NewWriter(w)}
}

// Write writes a single row. Items that do not implement Row are rejected.
func (w *CSVWriter) Write(data any) error {
	row, ok := data.(Row)
	if !ok {
		return fmt.Errorf("%w: csv cannot encode %T", ErrUnsupportedFormat, data)
	}
	if !w.header {
		if err := w.w.Write(row.CSVHeader()); err != nil {
			return err
		}
		w.header = true
	}
	return w.w.Write(row.CSVRow())
}

// WriteAll writes multiple rows.
func (w *CSVWriter) WriteAll(data []any) error {
	for _, item := range data {
		if err := w.Write(item); err != nil {
			return err
		}
	}
	return nil
}

// Flush flushes buffered rows.
func (w *CSVWriter) Flush() error {
	w.w.Flush()
	return w.w.Error()
}

// Close flushes the writer.
func (w *CSVWriter) Close() error {
	return w.Flush()
}
