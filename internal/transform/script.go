// Package transform provides implementations for transform modules.
// This file implements the "script" transform, which reshapes records
// through a user-supplied JavaScript function executed with Goja.
package transform

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/dop251/goja"

	"github.com/rowmill/runtime/internal/errhandling"
	"github.com/rowmill/runtime/internal/record"
	"github.com/rowmill/runtime/internal/value"
)

// MaxScriptLength is the maximum allowed script size in bytes (100KB).
const MaxScriptLength = 100 * 1024

// ScriptModule runs a JavaScript transform(record) function on every
// record. The script file must define:
//
//	function transform(record) { ...; return record; }
//
// The function receives the record's fields as a plain object and must
// return an object; the returned object's fields become the new record.
//
// Goja runtime instances are not goroutine-safe. Each ScriptModule owns
// its runtime, so Process must not be called concurrently on the same
// instance.
type ScriptModule struct {
	path        string
	runtime     *goja.Runtime
	transformFn goja.Callable
	log         *slog.Logger
}

// NewScriptFromSpec creates a script module from the mini-language
// parameter string, which is the path of the JavaScript file. The script
// is read, compiled, and validated once; any failure here is a
// specification error.
func NewScriptFromSpec(params string, log *slog.Logger) (*ScriptModule, error) {
	path := strings.TrimSpace(params)
	if path == "" {
		return nil, errhandling.NewSpecError(errhandling.CodeSpecInvalid, "script:"+params,
			"expected a script file path")
	}
	if strings.Contains(path, "\x00") {
		return nil, errhandling.NewSpecError(errhandling.CodeSpecInvalid, "script:"+path,
			"script path contains invalid characters")
	}
	for _, segment := range strings.Split(filepath.ToSlash(filepath.Clean(path)), "/") {
		if segment == ".." {
			return nil, errhandling.NewSpecError(errhandling.CodeSpecInvalid, "script:"+path,
				"script path contains path traversal")
		}
	}

	source, err := readScript(path)
	if err != nil {
		return nil, err
	}
	if strings.TrimSpace(source) == "" {
		return nil, errhandling.NewSpecError(errhandling.CodeSpecInvalid, "script:"+path,
			"script is empty")
	}

	vm := goja.New()
	if _, err := vm.RunString(source); err != nil {
		return nil, errhandling.NewSpecError(errhandling.CodeSpecInvalid, "script:"+path,
			fmt.Sprintf("script compilation failed: %v", err))
	}

	transformVal := vm.Get("transform")
	if transformVal == nil || goja.IsUndefined(transformVal) {
		return nil, errhandling.NewSpecError(errhandling.CodeSpecInvalid, "script:"+path,
			"transform function not found in script")
	}
	transformFn, ok := goja.AssertFunction(transformVal)
	if !ok {
		return nil, errhandling.NewSpecError(errhandling.CodeSpecInvalid, "script:"+path,
			"transform is not a function")
	}

	return &ScriptModule{
		path:        path,
		runtime:     vm,
		transformFn: transformFn,
		log:         moduleLogger(log),
	}, nil
}

// readScript reads a script file with a hard size cap. The cap is
// enforced both on Stat and on Read so a file growing in between cannot
// slip past it.
func readScript(path string) (string, error) {
	info, err := os.Stat(path)
	if err != nil {
		return "", errhandling.NewSpecError(errhandling.CodeSpecInvalid, "script:"+path,
			fmt.Sprintf("cannot stat script file: %v", err))
	}
	if info.Size() > MaxScriptLength {
		return "", errhandling.NewSpecError(errhandling.CodeSpecInvalid, "script:"+path,
			fmt.Sprintf("script exceeds maximum length of %d bytes", MaxScriptLength))
	}

	f, err := os.Open(path)
	if err != nil {
		return "", errhandling.NewSpecError(errhandling.CodeSpecInvalid, "script:"+path,
			fmt.Sprintf("cannot open script file: %v", err))
	}
	defer f.Close()

	content, err := io.ReadAll(io.LimitReader(f, MaxScriptLength+1))
	if err != nil {
		return "", errhandling.NewSpecError(errhandling.CodeSpecInvalid, "script:"+path,
			fmt.Sprintf("cannot read script file: %v", err))
	}
	if len(content) > MaxScriptLength {
		return "", errhandling.NewSpecError(errhandling.CodeSpecInvalid, "script:"+path,
			fmt.Sprintf("script exceeds maximum length of %d bytes", MaxScriptLength))
	}
	return string(content), nil
}

// Action implements the Module interface.
func (m *ScriptModule) Action() string { return "script" }

// Process implements the Module interface.
// A record whose transform call fails passes through unchanged; the
// failure is logged. Context cancellation interrupts a running script.
func (m *ScriptModule) Process(ctx context.Context, ds record.Dataset) (record.Dataset, error) {
	result := make(record.Dataset, 0, len(ds))
	for i, r := range ds {
		if err := checkCancel(ctx); err != nil {
			return nil, err
		}

		out, err := m.transformRecord(ctx, r)
		if err != nil {
			m.log.Warn("script transform failed, keeping record unchanged",
				"script", m.path,
				"record", i,
				"error", err)
			result = append(result, r)
			continue
		}
		result = append(result, out)
	}
	return result, nil
}

// transformRecord runs the JavaScript function on one record and
// rebuilds a Record from the returned object. Field order follows the
// input record for surviving fields; fields the script added come after,
// sorted by name, since JavaScript objects round-tripped through a Go
// map carry no usable order.
func (m *ScriptModule) transformRecord(ctx context.Context, r *record.Record) (*record.Record, error) {
	done := make(chan struct{})
	defer close(done)
	go func() {
		select {
		case <-ctx.Done():
			m.runtime.Interrupt(ctx.Err().Error())
		case <-done:
		}
	}()

	env := make(map[string]interface{}, r.Len())
	for i := 0; i < r.Len(); i++ {
		f := r.At(i)
		env[f.Name] = f.Value.Native()
	}

	jsResult, err := m.transformFn(goja.Undefined(), m.runtime.ToValue(env))
	m.runtime.ClearInterrupt()
	if err != nil {
		if ctx.Err() != nil {
			return nil, ctx.Err()
		}
		return nil, err
	}

	if jsResult == nil || goja.IsUndefined(jsResult) || goja.IsNull(jsResult) {
		return nil, fmt.Errorf("transform returned null or undefined")
	}
	exported := jsResult.Export()
	fields, ok := exported.(map[string]interface{})
	if !ok {
		return nil, fmt.Errorf("transform returned %T, expected an object", exported)
	}

	out := record.New(len(fields))
	for i := 0; i < r.Len(); i++ {
		name := r.At(i).Name
		if native, exists := fields[name]; exists {
			out.Set(name, value.FromNative(native))
			delete(fields, name)
		}
	}
	added := make([]string, 0, len(fields))
	for name := range fields {
		added = append(added, name)
	}
	sort.Strings(added)
	for _, name := range added {
		out.Set(name, value.FromNative(fields[name]))
	}
	return out, nil
}

// Verify interface compliance at compile time
var _ Module = (*ScriptModule)(nil)
