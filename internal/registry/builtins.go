// Package registry provides registries for transform modules and for
// data format adapters. This file registers the built-in modules.
package registry

import (
	"log/slog"

	"github.com/rowmill/runtime/internal/dataio"
	"github.com/rowmill/runtime/internal/transform"
)

func init() {
	RegisterTransform("select", func(params string, log *slog.Logger) (transform.Module, error) {
		return transform.NewSelectFromSpec(params, log)
	})
	RegisterTransform("filter", func(params string, log *slog.Logger) (transform.Module, error) {
		return transform.NewFilterFromSpec(params, log)
	})
	RegisterTransform("rename", func(params string, log *slog.Logger) (transform.Module, error) {
		return transform.NewRenameFromSpec(params, log)
	})
	RegisterTransform("sort", func(params string, log *slog.Logger) (transform.Module, error) {
		return transform.NewSortFromSpec(params, log)
	})
	RegisterTransform("addcol", func(params string, log *slog.Logger) (transform.Module, error) {
		return transform.NewAddColumnFromSpec(params, log)
	})
	RegisterTransform("where", func(params string, log *slog.Logger) (transform.Module, error) {
		return transform.NewWhereFromSpec(params, log)
	})
	RegisterTransform("script", func(params string, log *slog.Logger) (transform.Module, error) {
		return transform.NewScriptFromSpec(params, log)
	})

	RegisterLoader(dataio.FormatCSV, func(log *slog.Logger) dataio.Loader {
		return dataio.NewCSVLoader(log)
	})
	RegisterLoader(dataio.FormatJSON, func(log *slog.Logger) dataio.Loader {
		return dataio.NewJSONLoader(log)
	})
	RegisterWriter(dataio.FormatCSV, func(log *slog.Logger) dataio.Writer {
		return dataio.NewCSVWriter(log)
	})
	RegisterWriter(dataio.FormatJSON, func(log *slog.Logger) dataio.Writer {
		return dataio.NewJSONWriter(log)
	})
}
