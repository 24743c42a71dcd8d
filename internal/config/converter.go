// Package config provides functionality for parsing and validating
// pipeline configuration files (JSON/YAML).
// This file converts validated configuration data into pipeline types.
package config

import (
	"fmt"
	"strings"

	"github.com/google/uuid"

	"github.com/rowmill/runtime/pkg/pipeline"
)

// ToPipeline converts validated configuration data into a Pipeline.
// Call after ValidateConfig; the conversion itself only guards against
// shapes the schema cannot express. A missing id gets a generated UUID.
func ToPipeline(data map[string]interface{}) (*pipeline.Pipeline, error) {
	p := &pipeline.Pipeline{
		ID:          stringField(data, "id"),
		Name:        stringField(data, "name"),
		Description: stringField(data, "description"),
	}
	if p.ID == "" {
		p.ID = uuid.NewString()
	}
	if p.Name == "" {
		p.Name = p.ID
	}

	input, err := endpointField(data, "input")
	if err != nil {
		return nil, err
	}
	p.Input = &pipeline.SourceConfig{Path: input.Path, Format: input.Format}

	output, err := endpointField(data, "output")
	if err != nil {
		return nil, err
	}
	p.Output = &pipeline.SinkConfig{Path: output.Path, Format: output.Format}

	if raw, ok := data["transforms"]; ok {
		list, ok := raw.([]interface{})
		if !ok {
			return nil, fmt.Errorf("transforms: expected a list, got %T", raw)
		}
		p.Transforms = make([]pipeline.StageConfig, 0, len(list))
		for i, item := range list {
			spec, ok := item.(string)
			if !ok {
				return nil, fmt.Errorf("transforms[%d]: expected a string, got %T", i, item)
			}
			action, params, _ := strings.Cut(spec, ":")
			p.Transforms = append(p.Transforms, pipeline.StageConfig{
				Action: strings.TrimSpace(action),
				Params: params,
				Raw:    spec,
			})
		}
	}

	return p, nil
}

// endpoint is the common shape of input and output blocks.
type endpoint struct {
	Path   string
	Format string
}

func endpointField(data map[string]interface{}, key string) (*endpoint, error) {
	raw, ok := data[key]
	if !ok {
		return nil, fmt.Errorf("%s: missing required block", key)
	}
	block, ok := raw.(map[string]interface{})
	if !ok {
		return nil, fmt.Errorf("%s: expected a mapping, got %T", key, raw)
	}
	ep := &endpoint{
		Path:   stringField(block, "path"),
		Format: stringField(block, "format"),
	}
	if ep.Path == "" {
		return nil, fmt.Errorf("%s: missing required path", key)
	}
	return ep, nil
}

func stringField(data map[string]interface{}, key string) string {
	if s, ok := data[key].(string); ok {
		return s
	}
	return ""
}
