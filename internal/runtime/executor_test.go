package runtime

import (
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/rowmill/runtime/internal/record"
	"github.com/rowmill/runtime/internal/value"
	"github.com/rowmill/runtime/pkg/pipeline"
)

const peopleCSV = "Name,Age,City\nAna,34,Berlin\nBo,17,Oslo\nCleo,28,Lima\n"

func writeInput(t *testing.T, name, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatalf("writing %s: %v", name, err)
	}
	return path
}

func testPipeline(input, output string, transforms ...string) *pipeline.Pipeline {
	p := &pipeline.Pipeline{
		ID:     "test-pipeline",
		Name:   "test",
		Input:  &pipeline.SourceConfig{Path: input},
		Output: &pipeline.SinkConfig{Path: output},
	}
	for _, spec := range transforms {
		p.Transforms = append(p.Transforms, pipeline.StageConfig{Raw: spec})
	}
	return p
}

func TestExecuteCSVToJSON(t *testing.T) {
	input := writeInput(t, "people.csv", peopleCSV)
	output := filepath.Join(t.TempDir(), "adults.json")

	e := NewExecutor(nil, false)
	result, err := e.Execute(context.Background(), testPipeline(input, output,
		"filter:Age,>,17",
		"sort:Age:desc",
		"select:Name,Age",
	))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if result.Status != StatusSuccess {
		t.Fatalf("status = %q, want success", result.Status)
	}
	if result.RecordsLoaded != 3 || result.RecordsWritten != 2 {
		t.Errorf("loaded=%d written=%d, want 3/2", result.RecordsLoaded, result.RecordsWritten)
	}
	if len(result.Stages) != 3 {
		t.Fatalf("got %d stage reports, want 3", len(result.Stages))
	}
	for _, report := range result.Stages {
		if report.Skipped {
			t.Errorf("stage %d (%s) unexpectedly skipped: %s", report.Index, report.Spec, report.Reason)
		}
	}

	data, err := os.ReadFile(output)
	if err != nil {
		t.Fatalf("reading output: %v", err)
	}
	want := `[
  {
    "Name": "Ana",
    "Age": 34
  },
  {
    "Name": "Cleo",
    "Age": 28
  }
]
`
	if string(data) != want {
		t.Errorf("output mismatch:\ngot:\n%s\nwant:\n%s", data, want)
	}
}

func TestExecuteSkipsMalformedStage(t *testing.T) {
	input := writeInput(t, "people.csv", peopleCSV)
	output := filepath.Join(t.TempDir(), "out.csv")

	e := NewExecutor(nil, false)
	result, err := e.Execute(context.Background(), testPipeline(input, output,
		"frobnicate:Name",
		"select:Name",
	))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if result.Status != StatusSuccess {
		t.Fatalf("status = %q, want success", result.Status)
	}
	if len(result.Stages) != 2 {
		t.Fatalf("got %d stage reports, want 2", len(result.Stages))
	}
	if !result.Stages[0].Skipped {
		t.Error("malformed stage not reported as skipped")
	}
	if result.Stages[0].Reason == "" {
		t.Error("skipped stage has no reason")
	}
	if result.Stages[0].RecordsOut != 3 {
		t.Errorf("skipped stage RecordsOut = %d, want pass-through 3", result.Stages[0].RecordsOut)
	}
	if result.Stages[1].Skipped {
		t.Errorf("valid stage skipped: %s", result.Stages[1].Reason)
	}

	data, err := os.ReadFile(output)
	if err != nil {
		t.Fatalf("reading output: %v", err)
	}
	if got := string(data); got != "Name\nAna\nBo\nCleo\n" {
		t.Errorf("output = %q", got)
	}
}

func TestExecuteDryRun(t *testing.T) {
	input := writeInput(t, "people.csv", peopleCSV)
	output := filepath.Join(t.TempDir(), "out.json")

	e := NewExecutor(nil, true)
	result, err := e.Execute(context.Background(), testPipeline(input, output, "filter:Age,>,17"))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if result.Status != StatusSuccess {
		t.Fatalf("status = %q, want success", result.Status)
	}
	if result.RecordsWritten != 2 {
		t.Errorf("RecordsWritten = %d, want 2", result.RecordsWritten)
	}
	if _, statErr := os.Stat(output); !os.IsNotExist(statErr) {
		t.Error("dry run created the output file")
	}
}

func TestExecuteLoadFailure(t *testing.T) {
	e := NewExecutor(nil, false)
	p := testPipeline(filepath.Join(t.TempDir(), "absent.csv"), filepath.Join(t.TempDir(), "out.csv"))

	result, err := e.Execute(context.Background(), p)
	if err == nil {
		t.Fatal("expected an error for a missing input file")
	}
	if result.Status != StatusError {
		t.Errorf("status = %q, want error", result.Status)
	}
	if result.Error == nil || result.Error.Code != ErrCodeLoadFailed {
		t.Errorf("error = %+v, want code %s", result.Error, ErrCodeLoadFailed)
	}
	if !strings.Contains(err.Error(), ErrCodeLoadFailed) {
		t.Errorf("returned error %q does not carry the code", err)
	}
}

func TestExecuteUnsupportedFormat(t *testing.T) {
	input := writeInput(t, "people.xml", "<people/>")
	e := NewExecutor(nil, false)

	result, err := e.Execute(context.Background(), testPipeline(input, "out.csv"))
	if err == nil {
		t.Fatal("expected an error for an unknown input format")
	}
	if result.Error == nil || result.Error.Code != ErrCodeUnsupportedFormat {
		t.Errorf("error = %+v, want code %s", result.Error, ErrCodeUnsupportedFormat)
	}
}

func TestExecuteNilPipeline(t *testing.T) {
	e := NewExecutor(nil, false)
	if _, err := e.Execute(context.Background(), nil); err != ErrNilPipeline {
		t.Errorf("err = %v, want ErrNilPipeline", err)
	}
}

func TestRun(t *testing.T) {
	ds := record.Dataset{}
	for _, row := range [][2]string{{"Ana", "34"}, {"Bo", "17"}} {
		r := record.New(2)
		r.Set("Name", value.Coerce(row[0]))
		r.Set("Age", value.Coerce(row[1]))
		ds = append(ds, r)
	}

	out, reports, err := Run(context.Background(), nil, []string{"filter:Age,>,17", "addcol:Tag=\"adult\""}, ds)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(out) != 1 {
		t.Fatalf("got %d records, want 1", len(out))
	}
	if len(reports) != 2 {
		t.Fatalf("got %d reports, want 2", len(reports))
	}
	tag, ok := out[0].Get("Tag")
	if !ok || tag.String() != "adult" {
		t.Errorf("Tag = %v (present=%v), want adult", tag, ok)
	}
}
