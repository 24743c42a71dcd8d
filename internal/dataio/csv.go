// Package dataio implements loader and writer adapters.
// This file implements the CSV adapters.
package dataio

import (
	"context"
	"encoding/csv"
	"io"
	"log/slog"
	"os"

	"github.com/rowmill/runtime/internal/errhandling"
	"github.com/rowmill/runtime/internal/record"
	"github.com/rowmill/runtime/internal/value"
)

// CSVLoader reads CSV files. The first row is the header; every cell is
// coerced into a typed Value. Short rows leave trailing columns absent
// rather than null, and cells beyond the header are dropped.
type CSVLoader struct {
	log *slog.Logger
}

// NewCSVLoader returns a CSV loader logging through log.
func NewCSVLoader(log *slog.Logger) *CSVLoader {
	if log == nil {
		log = slog.Default()
	}
	return &CSVLoader{log: log}
}

// Format implements the Loader interface.
func (l *CSVLoader) Format() string { return FormatCSV }

// Load implements the Loader interface. An empty or header-only file
// yields an empty Dataset.
func (l *CSVLoader) Load(ctx context.Context, path string) (record.Dataset, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, errhandling.NewLoadError(path, err)
	}
	defer f.Close()

	r := csv.NewReader(f)
	r.FieldsPerRecord = -1

	header, err := r.Read()
	if err == io.EOF {
		return record.Dataset{}, nil
	}
	if err != nil {
		return nil, errhandling.NewLoadError(path, err)
	}

	ds := record.Dataset{}
	for {
		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		default:
		}

		row, err := r.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, errhandling.NewLoadError(path, err)
		}

		rec := record.New(len(header))
		for i, name := range header {
			if i >= len(row) {
				break
			}
			rec.Set(name, value.Coerce(row[i]))
		}
		ds = append(ds, rec)
	}

	l.log.Debug("csv loaded", "path", path, "records", len(ds), "columns", len(header))
	return ds, nil
}

// CSVWriter writes CSV files with a header row. Values are rendered with
// their canonical string form; null renders as the empty string.
type CSVWriter struct {
	log *slog.Logger
}

// NewCSVWriter returns a CSV writer logging through log.
func NewCSVWriter(log *slog.Logger) *CSVWriter {
	if log == nil {
		log = slog.Default()
	}
	return &CSVWriter{log: log}
}

// Format implements the Writer interface.
func (w *CSVWriter) Format() string { return FormatCSV }

// Write implements the Writer interface. An empty Dataset with a field
// order hint produces a header-only file; with no hint either, the file
// is empty.
func (w *CSVWriter) Write(ctx context.Context, path string, ds record.Dataset, fieldOrder []string) error {
	if len(fieldOrder) == 0 {
		fieldOrder = ds.Fields()
	}

	f, err := os.Create(path)
	if err != nil {
		return errhandling.NewWriteError(path, err)
	}
	defer f.Close()

	cw := csv.NewWriter(f)
	if len(fieldOrder) > 0 {
		if err := cw.Write(fieldOrder); err != nil {
			return errhandling.NewWriteError(path, err)
		}
	}

	row := make([]string, len(fieldOrder))
	for _, rec := range ds {
		select {
		case <-ctx.Done():
			return ctx.Err()
		default:
		}

		for i, name := range fieldOrder {
			if v, ok := rec.Get(name); ok {
				row[i] = v.String()
			} else {
				row[i] = ""
			}
		}
		if err := cw.Write(row); err != nil {
			return errhandling.NewWriteError(path, err)
		}
	}

	cw.Flush()
	if err := cw.Error(); err != nil {
		return errhandling.NewWriteError(path, err)
	}
	if err := f.Close(); err != nil {
		return errhandling.NewWriteError(path, err)
	}

	w.log.Debug("csv written", "path", path, "records", len(ds), "columns", len(fieldOrder))
	return nil
}

var (
	_ Loader = (*CSVLoader)(nil)
	_ Writer = (*CSVWriter)(nil)
)
