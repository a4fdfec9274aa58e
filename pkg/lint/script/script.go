// Package script runs user rules written in Starlark.
//
// A rule file defines a check function and may set metadata globals:
//
//	NAME = "layer2-no-red"          # defaults to the file name
//	DESCRIPTION = "Skins must not hard-code red"
//	SEVERITY = "warning"
//
//	def check(content, path, options):
//	    out = []
//	    for i, line in enumerate(content.split("\n")):
//	        if "red" in line:
//	            out.append({"line": i + 1, "message": "red is hard-coded"})
//	    return out
//
// Each returned dict needs line and message and may carry column,
// suggestion and severity. Script errors surface as rule failures.
package script

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"go.starlark.net/starlark"
	"go.starlark.net/syntax"

	"github.com/leapstack-labs/archlint/pkg/core"
	"github.com/leapstack-labs/archlint/pkg/lint"
)

// Ext is the file extension of rule scripts.
const Ext = ".star"

// DefaultMaxSteps bounds the work a single check call may do.
const DefaultMaxSteps = 10_000_000

// LoadError describes a script that could not be loaded.
type LoadError struct {
	File    string
	Message string
}

func (e *LoadError) Error() string {
	return fmt.Sprintf("%s: %s", filepath.Base(e.File), e.Message)
}

// Load executes a rule script once and returns its rule definition.
// The module globals are frozen after loading, so the check function may
// be called from many goroutines, each on its own thread.
func Load(path string) (lint.RuleDef, error) {
	src, err := os.ReadFile(path) //nolint:gosec // G304: path comes from configuration
	if err != nil {
		return lint.RuleDef{}, &LoadError{File: path, Message: fmt.Sprintf("failed to read file: %v", err)}
	}
	return Compile(path, src)
}

// Compile executes script source as if loaded from path.
func Compile(path string, src []byte) (lint.RuleDef, error) {
	stem := strings.TrimSuffix(filepath.Base(path), Ext)
	thread := &starlark.Thread{
		Name:  "load:" + stem,
		Print: func(_ *starlark.Thread, _ string) {},
	}
	globals, err := starlark.ExecFileOptions(&syntax.FileOptions{}, thread, path, src, nil)
	if err != nil {
		return lint.RuleDef{}, &LoadError{File: path, Message: fmt.Sprintf("starlark execution error: %v", err)}
	}

	fn, ok := globals["check"].(starlark.Callable)
	if !ok {
		return lint.RuleDef{}, &LoadError{File: path, Message: "script must define a check(content, path, options) function"}
	}

	name := stringGlobal(globals, "NAME", stem)
	sev := core.SeverityUnset
	if s := stringGlobal(globals, "SEVERITY", ""); s != "" {
		parsed, ok := core.ParseSeverity(s)
		if !ok {
			return lint.RuleDef{}, &LoadError{File: path, Message: fmt.Sprintf("invalid SEVERITY %q", s)}
		}
		sev = parsed
	}

	return lint.RuleDef{
		Name:        name,
		Family:      lint.FamilyScript,
		Description: stringGlobal(globals, "DESCRIPTION", "Starlark rule "+filepath.Base(path)),
		Severity:    sev,
		Check: func(f *lint.File, opts lint.Options) ([]lint.Violation, error) {
			return run(name, fn, f, opts)
		},
	}, nil
}

// LoadDir loads every rule script in dir, in file name order.
func LoadDir(dir string) ([]lint.RuleDef, error) {
	matches, err := filepath.Glob(filepath.Join(dir, "*"+Ext))
	if err != nil {
		return nil, err
	}
	sort.Strings(matches)

	defs := make([]lint.RuleDef, 0, len(matches))
	var errs []error
	for _, m := range matches {
		def, err := Load(m)
		if err != nil {
			errs = append(errs, err)
			continue
		}
		defs = append(defs, def)
	}
	return defs, errors.Join(errs...)
}

func stringGlobal(globals starlark.StringDict, key, fallback string) string {
	if s, ok := globals[key].(starlark.String); ok && string(s) != "" {
		return string(s)
	}
	return fallback
}

func run(name string, fn starlark.Callable, f *lint.File, opts lint.Options) ([]lint.Violation, error) {
	thread := &starlark.Thread{
		Name:  "check:" + name,
		Print: func(_ *starlark.Thread, _ string) {},
	}
	thread.SetMaxExecutionSteps(DefaultMaxSteps)

	options, err := toStarlark(map[string]any(opts))
	if err != nil {
		return nil, err
	}

	result, err := starlark.Call(thread, fn, starlark.Tuple{
		starlark.String(f.Content),
		starlark.String(f.Path),
		options,
	}, nil)
	if err != nil {
		var evalErr *starlark.EvalError
		if errors.As(err, &evalErr) {
			return nil, errors.New(evalErr.Backtrace())
		}
		return nil, err
	}
	if result == starlark.None {
		return nil, nil
	}

	raw, err := toGo(result)
	if err != nil {
		return nil, fmt.Errorf("check result: %w", err)
	}
	items, ok := raw.([]any)
	if !ok {
		return nil, fmt.Errorf("check must return a list, got %s", result.Type())
	}

	vs := make([]lint.Violation, 0, len(items))
	for i, item := range items {
		v, err := toViolation(item)
		if err != nil {
			return nil, fmt.Errorf("result %d: %w", i, err)
		}
		vs = append(vs, v)
	}
	return vs, nil
}

func toViolation(item any) (lint.Violation, error) {
	m, ok := item.(map[string]any)
	if !ok {
		return lint.Violation{}, fmt.Errorf("want a dict, got %T", item)
	}
	var out struct {
		Line       int    `mapstructure:"line"`
		Column     int    `mapstructure:"column"`
		Message    string `mapstructure:"message"`
		Suggestion string `mapstructure:"suggestion"`
		Severity   string `mapstructure:"severity"`
	}
	if err := lint.Options(m).Decode(&out); err != nil {
		return lint.Violation{}, err
	}
	if out.Message == "" {
		return lint.Violation{}, errors.New("message is required")
	}

	v := lint.At(out.Line, out.Column, out.Message).WithSuggestion(out.Suggestion)
	if out.Severity != "" {
		sev, ok := core.ParseSeverity(out.Severity)
		if !ok {
			return lint.Violation{}, fmt.Errorf("invalid severity %q", out.Severity)
		}
		v.Severity = sev
	}
	return v, nil
}
