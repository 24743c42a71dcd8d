// Package dataio implements the loader and writer adapters that move
// datasets between files and the in-memory record model. The transform
// engine itself performs no I/O; these adapters sit at the pipeline's
// edges.
package dataio

import (
	"context"
	"path/filepath"
	"strings"

	"github.com/rowmill/runtime/internal/record"
)

// Supported data formats.
const (
	FormatCSV  = "csv"
	FormatJSON = "json"
)

// Loader reads a file into a Dataset with coerced Values.
type Loader interface {
	// Load reads the file at path. The returned Dataset may be empty;
	// zero records is a valid result, not an error.
	Load(ctx context.Context, path string) (record.Dataset, error)
	// Format returns the format name the loader handles.
	Format() string
}

// Writer writes a Dataset to a file.
type Writer interface {
	// Write writes ds to the file at path. fieldOrder is the column
	// order hint; an empty hint falls back to the Dataset's own field
	// union. An empty Dataset is valid and produces a well-formed empty
	// output (header-only CSV, empty JSON array).
	Write(ctx context.Context, path string, ds record.Dataset, fieldOrder []string) error
	// Format returns the format name the writer handles.
	Format() string
}

// DetectFormat resolves a format name from an explicit setting or, when
// that is empty, from the path's extension. It returns "" when neither
// identifies a supported format.
func DetectFormat(explicit, path string) string {
	switch strings.ToLower(strings.TrimSpace(explicit)) {
	case FormatCSV:
		return FormatCSV
	case FormatJSON:
		return FormatJSON
	}
	switch strings.ToLower(filepath.Ext(path)) {
	case ".csv":
		return FormatCSV
	case ".json":
		return FormatJSON
	}
	return ""
}
