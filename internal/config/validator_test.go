package config

import (
	"encoding/json"
	"testing"
)

func TestEmbeddedSchema(t *testing.T) {
	var doc map[string]interface{}
	if err := json.Unmarshal(GetEmbeddedSchema(), &doc); err != nil {
		t.Fatalf("embedded schema is not valid JSON: %v", err)
	}

	required, ok := doc["required"].([]interface{})
	if !ok {
		t.Fatal("embedded schema declares no required properties")
	}
	want := map[string]bool{"input": false, "output": false}
	for _, r := range required {
		if name, ok := r.(string); ok {
			want[name] = true
		}
	}
	for name, found := range want {
		if !found {
			t.Errorf("schema does not require %q", name)
		}
	}
}

func TestValidateConfigAcceptsMinimal(t *testing.T) {
	data := map[string]interface{}{
		"input":  map[string]interface{}{"path": "in.csv"},
		"output": map[string]interface{}{"path": "out.csv"},
	}
	result := ValidateConfig(data)
	if !result.Valid {
		t.Errorf("minimal configuration rejected: %v", result.Errors)
	}
}
