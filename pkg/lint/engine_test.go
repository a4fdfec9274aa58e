package lint_test

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/leapstack-labs/archlint/internal/testutil"
	"github.com/leapstack-labs/archlint/pkg/core"
	"github.com/leapstack-labs/archlint/pkg/lint"
)

func writeFile(t *testing.T, dir, name, content string) string {
	t.Helper()
	path := filepath.Join(dir, name)
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}

func containsRule(word string, sev core.Severity) lint.CheckFunc {
	return func(f *lint.File, _ lint.Options) ([]lint.Violation, error) {
		var vs []lint.Violation
		for i, line := range f.Lines() {
			if strings.Contains(line, word) {
				v := lint.At(i+1, strings.Index(line, word)+1, "found "+word)
				v.Severity = sev
				vs = append(vs, v)
			}
		}
		return vs, nil
	}
}

func newRegistry(t *testing.T, rules ...lint.RuleDef) *lint.Registry {
	t.Helper()
	reg := lint.NewRegistry("test")
	for _, r := range rules {
		require.NoError(t, reg.Register(r))
	}
	return reg
}

func TestEngine_CheckFile_TagsViolations(t *testing.T) {
	dir := t.TempDir()
	path := writeFile(t, dir, "a.txt", "ok\nhas TODO here\n")

	reg := newRegistry(t, lint.RuleDef{
		Name: "x-todo", Family: lint.FamilyPattern, Severity: core.SeverityWarning,
		Check: containsRule("TODO", core.SeverityUnset),
	})
	eng := lint.NewEngine(reg, lint.AllSelector{}, lint.WithLogger(testutil.NewTestLogger(t)))

	vs := eng.CheckFile(context.Background(), lint.Target{Path: path})
	require.Len(t, vs, 1)
	assert.Equal(t, "x-todo", vs[0].Rule)
	assert.Equal(t, path, vs[0].File)
	assert.Equal(t, 2, vs[0].Line)
	assert.Equal(t, 5, vs[0].Column)
	assert.Equal(t, core.SeverityWarning, vs[0].Severity)
}

func TestEngine_CheckFile_MissingFile(t *testing.T) {
	reg := newRegistry(t, lint.RuleDef{Name: "r", Family: lint.FamilyPattern, Check: containsRule("x", 0)})
	eng := lint.NewEngine(reg, lint.AllSelector{}, lint.WithLogger(testutil.NewTestLogger(t)))

	vs := eng.CheckFile(context.Background(), lint.Target{Path: filepath.Join(t.TempDir(), "absent.css")})
	assert.NotNil(t, vs)
	assert.Empty(t, vs)
}

func TestEngine_CheckFile_FaultIsolation(t *testing.T) {
	dir := t.TempDir()
	path := writeFile(t, dir, "a.txt", "TODO\n")

	reg := newRegistry(t,
		lint.RuleDef{Name: "a-panics", Family: lint.FamilyPattern, Check: func(*lint.File, lint.Options) ([]lint.Violation, error) {
			panic("boom")
		}},
		lint.RuleDef{Name: "b-errors", Family: lint.FamilyPattern, Check: func(*lint.File, lint.Options) ([]lint.Violation, error) {
			return nil, errors.New("bad config")
		}},
		lint.RuleDef{Name: "c-works", Family: lint.FamilyPattern, Severity: core.SeverityInfo, Check: containsRule("TODO", 0)},
	)
	eng := lint.NewEngine(reg, lint.AllSelector{}, lint.WithLogger(testutil.NewTestLogger(t)))

	vs := eng.CheckFile(context.Background(), lint.Target{Path: path})
	require.Len(t, vs, 3)

	assert.Equal(t, "a-panics", vs[0].Rule)
	assert.Equal(t, core.SeverityError, vs[0].Severity)
	assert.Contains(t, vs[0].Message, "boom")

	assert.Equal(t, "b-errors", vs[1].Rule)
	assert.Equal(t, core.SeverityError, vs[1].Severity)
	assert.Contains(t, vs[1].Message, "bad config")

	assert.Equal(t, "c-works", vs[2].Rule)
	assert.Equal(t, core.SeverityInfo, vs[2].Severity)
}

func TestEngine_CheckFile_FailingRuleIgnoresSeverityOverride(t *testing.T) {
	dir := t.TempDir()
	path := writeFile(t, dir, "a.md", "TODO\n")

	reg := newRegistry(t, lint.RuleDef{
		Name: "boom", Family: lint.FamilyPattern, Severity: core.SeverityWarning,
		Check: func(*lint.File, lint.Options) ([]lint.Violation, error) {
			return []lint.Violation{lint.At(1, 1, "partial")}, errors.New("kaboom")
		},
	})
	cfg := lint.NewConfig().SetSeverity("boom", core.SeverityWarning)
	eng := lint.NewEngine(reg, lint.AllSelector{Config: cfg}, lint.WithConfig(cfg), lint.WithLogger(testutil.NewTestLogger(t)))

	vs := eng.CheckFile(context.Background(), lint.Target{Path: path})
	require.Len(t, vs, 2)
	assert.Equal(t, core.SeverityWarning, vs[0].Severity, "returned findings follow the override")
	assert.Equal(t, "rule failed: kaboom", vs[1].Message)
	assert.Equal(t, core.SeverityError, vs[1].Severity)
	assert.Equal(t, path, vs[1].File)
	assert.Equal(t, 1, lint.ExitCode(vs))
}

func TestEngine_StrictPolicyKeepsFileListSeverity(t *testing.T) {
	dir := t.TempDir()
	path := writeFile(t, dir, "file-list.md", "TODO\n")

	reg := newRegistry(t, lint.RuleDef{
		Name: "sync", Family: lint.FamilyFileList,
		Check: containsRule("TODO", core.SeverityInfo),
	})
	cfg := lint.NewConfig()
	cfg.Policy = lint.PolicyStrict
	eng := lint.NewEngine(reg, lint.AllSelector{Config: cfg}, lint.WithConfig(cfg))

	vs := eng.CheckFile(context.Background(), lint.Target{Path: path})
	require.Len(t, vs, 1)
	assert.Equal(t, core.SeverityInfo, vs[0].Severity)
	assert.Equal(t, 0, lint.ExitCode(vs))
}

func TestEngine_SeverityResolution(t *testing.T) {
	dir := t.TempDir()
	path := writeFile(t, dir, "a.txt", "TODO\n")

	tests := []struct {
		name     string
		ruleSev  core.Severity
		reported core.Severity
		override core.Severity
		policy   lint.SeverityPolicy
		want     core.Severity
	}{
		{name: "global default", want: core.SeverityError},
		{name: "rule default", ruleSev: core.SeverityWarning, want: core.SeverityWarning},
		{name: "reported beats rule default", ruleSev: core.SeverityWarning, reported: core.SeverityInfo, want: core.SeverityInfo},
		{name: "override beats all", ruleSev: core.SeverityWarning, reported: core.SeverityInfo, override: core.SeverityError, want: core.SeverityError},
		{name: "strict forces error", ruleSev: core.SeverityInfo, override: core.SeverityWarning, policy: lint.PolicyStrict, want: core.SeverityError},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			reg := newRegistry(t, lint.RuleDef{
				Name: "r", Family: lint.FamilyPattern, Severity: tt.ruleSev,
				Check: containsRule("TODO", tt.reported),
			})
			cfg := lint.NewConfig()
			if tt.override.IsSet() {
				cfg.SetSeverity("r", tt.override)
			}
			if tt.policy != "" {
				cfg.Policy = tt.policy
			}

			eng := lint.NewEngine(reg, lint.AllSelector{Config: cfg}, lint.WithConfig(cfg))
			vs := eng.CheckFile(context.Background(), lint.Target{Path: path})
			require.Len(t, vs, 1)
			assert.Equal(t, tt.want, vs[0].Severity)
		})
	}
}

func TestEngine_DisabledRulesAndOptions(t *testing.T) {
	dir := t.TempDir()
	path := writeFile(t, dir, "a.txt", "FIXME\n")

	var seen lint.Options
	reg := newRegistry(t,
		lint.RuleDef{Name: "off", Family: lint.FamilyPattern, Check: containsRule("FIXME", 0)},
		lint.RuleDef{Name: "on", Family: lint.FamilyPattern, Check: func(_ *lint.File, opts lint.Options) ([]lint.Violation, error) {
			seen = opts
			return nil, nil
		}},
	)
	cfg := lint.NewConfig().Disable("off").SetRuleOptions("on", map[string]any{"max": 3})

	vs := lint.NewEngine(reg, lint.AllSelector{Config: cfg}).CheckFile(context.Background(), lint.Target{Path: path})
	assert.Empty(t, vs)
	assert.Equal(t, 3, seen.Int("max", 0))
}

func TestEngine_PrefixSelector(t *testing.T) {
	dir := t.TempDir()
	path := writeFile(t, dir, "layer2.css", "TODO\n")

	reg := newRegistry(t,
		lint.RuleDef{Name: "layer1-x", Family: lint.FamilyLayer, Check: containsRule("TODO", 0)},
		lint.RuleDef{Name: "layer2-x", Family: lint.FamilyLayer, Check: containsRule("TODO", 0)},
	)
	eng := lint.NewEngine(reg, lint.PrefixSelector{})

	vs := eng.CheckFile(context.Background(), lint.Target{Path: path, Context: "layer2"})
	require.Len(t, vs, 1)
	assert.Equal(t, "layer2-x", vs[0].Rule)

	assert.Empty(t, eng.CheckFile(context.Background(), lint.Target{Path: path}))
}

func TestEngine_CheckFiles_DeterministicOrder(t *testing.T) {
	dir := t.TempDir()
	var targets []lint.Target
	for _, name := range []string{"c.txt", "a.txt", "b.txt", "d.txt", "e.txt"} {
		targets = append(targets, lint.Target{Path: writeFile(t, dir, name, "TODO\nTODO\n")})
	}
	targets = append(targets, lint.Target{Path: filepath.Join(dir, "missing.txt")})

	reg := newRegistry(t,
		lint.RuleDef{Name: "a", Family: lint.FamilyPattern, Check: containsRule("TODO", 0)},
		lint.RuleDef{Name: "b", Family: lint.FamilyPattern, Check: containsRule("TO", 0)},
	)
	eng := lint.NewEngine(reg, lint.AllSelector{}, lint.WithMaxConcurrency(3))

	first := eng.CheckFiles(context.Background(), targets)
	second := eng.CheckFiles(context.Background(), targets)

	if diff := cmp.Diff(first, second); diff != "" {
		t.Fatalf("runs differ (-first +second):\n%s", diff)
	}
	require.Len(t, first.Violations, 20)
	assert.Equal(t, targets[0].Path, first.Violations[0].File)
	assert.Equal(t, "a", first.Violations[0].Rule)
	assert.Equal(t, "a", first.Violations[1].Rule)
	assert.Equal(t, "b", first.Violations[2].Rule)
	assert.Len(t, first.Files, 6)
}

func TestResult_SummaryAndExitCode(t *testing.T) {
	vs := []lint.Violation{
		{Rule: "a", File: "x.css", Severity: core.SeverityError},
		{Rule: "b", File: "x.css", Severity: core.SeverityWarning},
		{Rule: "b", File: "w.css", Severity: core.SeverityInfo},
	}
	res := lint.Result{Violations: vs, Files: []string{"w.css", "x.css", "y.css"}}

	s := res.Summary()
	assert.Equal(t, 3, s.Total)
	assert.Equal(t, 1, s.Errors)
	assert.Equal(t, 1, s.Warnings)
	assert.Equal(t, 1, s.Info)
	assert.Equal(t, 3, s.FilesChecked)
	assert.Equal(t, []string{"w.css", "x.css"}, s.Files)
	assert.Equal(t, []string{"a", "b"}, s.Rules)

	assert.Equal(t, 1, lint.ExitCode(vs))
	assert.Equal(t, 0, lint.ExitCode(vs[1:]))
	assert.Equal(t, 0, lint.ExitCode(nil))

	assert.Len(t, lint.FilterBySeverity(vs, core.SeverityWarning), 2)
	assert.Len(t, lint.FilterBySeverity(vs, core.SeverityUnset), 3)
}
