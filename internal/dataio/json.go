// Package dataio implements loader and writer adapters.
// This file implements the JSON adapters. The loader walks the token
// stream instead of decoding into maps: Go maps would scramble object
// key order, and field order must survive a load/write round trip.
package dataio

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"os"

	"github.com/rowmill/runtime/internal/errhandling"
	"github.com/rowmill/runtime/internal/record"
	"github.com/rowmill/runtime/internal/value"
)

// JSONLoader reads a JSON file holding an array of flat objects. Numbers
// are decoded with UseNumber so integers stay integral; non-scalar
// member values are stringified.
type JSONLoader struct {
	log *slog.Logger
}

// NewJSONLoader returns a JSON loader logging through log.
func NewJSONLoader(log *slog.Logger) *JSONLoader {
	if log == nil {
		log = slog.Default()
	}
	return &JSONLoader{log: log}
}

// Format implements the Loader interface.
func (l *JSONLoader) Format() string { return FormatJSON }

// Load implements the Loader interface. The document must be a top-level
// array; an empty array yields an empty Dataset.
func (l *JSONLoader) Load(ctx context.Context, path string) (record.Dataset, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, errhandling.NewLoadError(path, err)
	}
	defer f.Close()

	dec := json.NewDecoder(f)
	dec.UseNumber()

	tok, err := dec.Token()
	if err != nil {
		return nil, errhandling.NewLoadError(path, fmt.Errorf("invalid JSON: %w", err))
	}
	if d, ok := tok.(json.Delim); !ok || d != '[' {
		return nil, errhandling.NewLoadError(path, fmt.Errorf("expected a top-level array, got %v", tok))
	}

	ds := record.Dataset{}
	for dec.More() {
		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		default:
		}

		rec, err := decodeObject(dec)
		if err != nil {
			return nil, errhandling.NewLoadError(path, err)
		}
		ds = append(ds, rec)
	}
	if _, err := dec.Token(); err != nil {
		return nil, errhandling.NewLoadError(path, fmt.Errorf("invalid JSON: %w", err))
	}

	l.log.Debug("json loaded", "path", path, "records", len(ds))
	return ds, nil
}

// decodeObject reads one object from the token stream, keeping member
// order as written in the file.
func decodeObject(dec *json.Decoder) (*record.Record, error) {
	tok, err := dec.Token()
	if err != nil {
		return nil, fmt.Errorf("invalid JSON: %w", err)
	}
	if d, ok := tok.(json.Delim); !ok || d != '{' {
		return nil, fmt.Errorf("expected an object element, got %v", tok)
	}

	rec := record.New(8)
	for dec.More() {
		keyTok, err := dec.Token()
		if err != nil {
			return nil, fmt.Errorf("invalid JSON: %w", err)
		}
		key, ok := keyTok.(string)
		if !ok {
			return nil, fmt.Errorf("expected an object key, got %v", keyTok)
		}

		native, err := decodeValue(dec)
		if err != nil {
			return nil, err
		}
		rec.Set(key, value.FromNative(native))
	}
	if _, err := dec.Token(); err != nil {
		return nil, fmt.Errorf("invalid JSON: %w", err)
	}
	return rec, nil
}

// decodeValue reads one value from the token stream. Scalars come back
// as-is; nested objects and arrays are rebuilt as native containers for
// stringification.
func decodeValue(dec *json.Decoder) (interface{}, error) {
	tok, err := dec.Token()
	if err != nil {
		return nil, fmt.Errorf("invalid JSON: %w", err)
	}

	d, ok := tok.(json.Delim)
	if !ok {
		// string, json.Number, bool, or nil
		return tok, nil
	}

	switch d {
	case '{':
		obj := make(map[string]interface{})
		for dec.More() {
			keyTok, err := dec.Token()
			if err != nil {
				return nil, fmt.Errorf("invalid JSON: %w", err)
			}
			key, ok := keyTok.(string)
			if !ok {
				return nil, fmt.Errorf("expected an object key, got %v", keyTok)
			}
			v, err := decodeValue(dec)
			if err != nil {
				return nil, err
			}
			obj[key] = v
		}
		if _, err := dec.Token(); err != nil {
			return nil, fmt.Errorf("invalid JSON: %w", err)
		}
		return obj, nil
	case '[':
		var arr []interface{}
		for dec.More() {
			v, err := decodeValue(dec)
			if err != nil {
				return nil, err
			}
			arr = append(arr, v)
		}
		if _, err := dec.Token(); err != nil {
			return nil, fmt.Errorf("invalid JSON: %w", err)
		}
		return arr, nil
	}
	return nil, fmt.Errorf("unexpected token %v", d)
}

// JSONWriter writes a Dataset as an indented JSON array of objects with
// member order following each record's field order.
type JSONWriter struct {
	log *slog.Logger
}

// NewJSONWriter returns a JSON writer logging through log.
func NewJSONWriter(log *slog.Logger) *JSONWriter {
	if log == nil {
		log = slog.Default()
	}
	return &JSONWriter{log: log}
}

// Format implements the Writer interface.
func (w *JSONWriter) Format() string { return FormatJSON }

// Write implements the Writer interface. The field order hint is unused:
// JSON objects carry their own order via each record's fields. An empty
// Dataset writes an empty array.
func (w *JSONWriter) Write(ctx context.Context, path string, ds record.Dataset, _ []string) error {
	select {
	case <-ctx.Done():
		return ctx.Err()
	default:
	}

	if ds == nil {
		ds = record.Dataset{}
	}
	data, err := json.MarshalIndent(ds, "", "  ")
	if err != nil {
		return errhandling.NewWriteError(path, err)
	}
	data = append(data, '\n')

	if err := os.WriteFile(path, data, 0o644); err != nil {
		return errhandling.NewWriteError(path, err)
	}

	w.log.Debug("json written", "path", path, "records", len(ds))
	return nil
}

var (
	_ Loader = (*JSONLoader)(nil)
	_ Writer = (*JSONWriter)(nil)
)
