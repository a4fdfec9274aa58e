package lint

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"runtime/debug"

	"golang.org/x/sync/errgroup"

	"github.com/leapstack-labs/archlint/pkg/core"
)

// DefaultMaxConcurrency bounds how many files are checked at once.
const DefaultMaxConcurrency = 8

// Engine runs registered rules against resolved targets.
type Engine struct {
	registry        *Registry
	selector        Selector
	logger          *slog.Logger
	maxConcurrency  int
	policy          SeverityPolicy
	defaultSeverity core.Severity
	readFile        func(name string) ([]byte, error)
}

// EngineOption configures an Engine.
type EngineOption func(*Engine)

// WithLogger sets the logger used for skipped files and rule failures.
func WithLogger(logger *slog.Logger) EngineOption {
	return func(e *Engine) {
		if logger != nil {
			e.logger = logger
		}
	}
}

// WithMaxConcurrency bounds the number of files checked in parallel.
func WithMaxConcurrency(n int) EngineOption {
	return func(e *Engine) {
		if n > 0 {
			e.maxConcurrency = n
		}
	}
}

// WithConfig takes the severity policy and default severity from cfg.
func WithConfig(cfg *Config) EngineOption {
	return func(e *Engine) {
		if cfg == nil {
			return
		}
		if cfg.Policy != "" {
			e.policy = cfg.Policy
		}
		if cfg.DefaultSeverity.IsSet() {
			e.defaultSeverity = cfg.DefaultSeverity
		}
	}
}

// WithReadFile replaces the function used to read target content.
func WithReadFile(fn func(name string) ([]byte, error)) EngineOption {
	return func(e *Engine) {
		if fn != nil {
			e.readFile = fn
		}
	}
}

// NewEngine creates an engine over a registry and a selector.
func NewEngine(reg *Registry, sel Selector, opts ...EngineOption) *Engine {
	e := &Engine{
		registry:        reg,
		selector:        sel,
		logger:          slog.New(slog.DiscardHandler),
		maxConcurrency:  DefaultMaxConcurrency,
		policy:          PolicyPerRule,
		defaultSeverity: core.SeverityError,
		readFile:        os.ReadFile,
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// Registry returns the registry the engine draws rules from.
func (e *Engine) Registry() *Registry {
	return e.registry
}

// CheckFile runs every applicable rule against one target.
// A missing file is logged and yields no violations. A rule that fails or
// panics yields a single error violation and the remaining rules still run.
func (e *Engine) CheckFile(ctx context.Context, target Target) []Violation {
	data, err := e.readFile(target.Path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			e.logger.Warn("file not found, skipping", "path", target.Path)
			return []Violation{}
		}
		e.logger.Error("failed to read file", "path", target.Path, "error", err)
		return []Violation{{
			Rule:     "read-error",
			Severity: core.SeverityError,
			Message:  fmt.Sprintf("failed to read file: %v", err),
			File:     target.Path,
		}}
	}

	file := NewFile(target.Path, target.Context, string(data))
	applied := e.selector.Select(e.registry, target)
	violations := make([]Violation, 0)

	for _, a := range applied {
		if ctx.Err() != nil {
			break
		}
		found, err := e.runRule(a, file)
		for _, v := range found {
			if v.Rule == "" {
				v.Rule = a.Rule.Name
			}
			if v.File == "" {
				v.File = target.Path
			}
			v.Severity = e.resolveSeverity(a, v)
			violations = append(violations, v)
		}
		// A failing rule is always an error, whatever its configured severity.
		if err != nil {
			e.logger.Error("rule failed", "rule", a.Rule.Name, "path", target.Path, "error", err)
			violations = append(violations, Violation{
				Rule:     a.Rule.Name,
				Severity: core.SeverityError,
				Message:  fmt.Sprintf("rule failed: %v", err),
				File:     target.Path,
			})
		}
	}

	e.logger.Debug("checked file", "path", target.Path, "context", target.Context,
		"rules", len(applied), "violations", len(violations))
	return violations
}

// runRule invokes a check, converting a panic into an error.
func (e *Engine) runRule(a Applied, file *File) (vs []Violation, err error) {
	defer func() {
		if r := recover(); r != nil {
			e.logger.Debug("rule panicked", "rule", a.Rule.Name, "stack", string(debug.Stack()))
			vs = nil
			err = fmt.Errorf("panic: %v", r)
		}
	}()
	return a.Rule.Check(file, a.Options)
}

// resolveSeverity applies the severity policy to a reported violation.
// File-list findings keep their per-rule severity under the strict policy:
// a declared file that does not exist yet is informational by definition.
func (e *Engine) resolveSeverity(a Applied, v Violation) core.Severity {
	if e.policy == PolicyStrict && a.Rule.Family != FamilyFileList {
		return core.SeverityError
	}
	switch {
	case a.Severity.IsSet():
		return a.Severity
	case v.Severity.IsSet():
		return v.Severity
	case a.Rule.Severity.IsSet():
		return a.Rule.Severity
	default:
		return e.defaultSeverity
	}
}

// CheckFiles checks targets concurrently and concatenates the results in
// target order, so identical inputs always produce identical output.
func (e *Engine) CheckFiles(ctx context.Context, targets []Target) Result {
	perFile := make([][]Violation, len(targets))

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(e.maxConcurrency)
	for i, target := range targets {
		g.Go(func() error {
			if gctx.Err() != nil {
				return gctx.Err()
			}
			perFile[i] = e.CheckFile(gctx, target)
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		e.logger.Warn("lint run interrupted", "error", err)
	}

	result := Result{Violations: make([]Violation, 0)}
	for i, vs := range perFile {
		result.Violations = append(result.Violations, vs...)
		result.Files = append(result.Files, targets[i].Path)
	}
	return result
}
