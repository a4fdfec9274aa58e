package config

import (
	"context"
	"errors"
	"log/slog"
	"os"
	"path/filepath"
	"testing"

	"github.com/spf13/pflag"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/leapstack-labs/archlint/pkg/core"
	"github.com/leapstack-labs/archlint/pkg/lint"
	"github.com/leapstack-labs/archlint/pkg/lint/cssarch"
	"github.com/leapstack-labs/archlint/pkg/lint/template"
)

func testLoader(dir string, env ...string) *Loader {
	return &Loader{
		WorkDir:    dir,
		UserConfig: func() string { return "" },
		Environ:    func() []string { return env },
	}
}

func writeFile(t *testing.T, path, content string) {
	t.Helper()
	require.NoError(t, os.MkdirAll(filepath.Dir(path), 0o755))
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
}

func regs() Registries {
	return Registries{CSS: cssarch.Rules, Template: template.Rules}
}

func TestLoad_Defaults(t *testing.T) {
	dir := t.TempDir()
	cfg, err := testLoader(dir).Load("", nil)
	require.NoError(t, err)

	assert.Empty(t, cfg.File)
	assert.Equal(t, dir, cfg.ProjectRoot)
	assert.Equal(t, DefaultOutput, cfg.OutputFormat)
	assert.Equal(t, filepath.Join(dir, DefaultHistoryFile), cfg.HistoryPath)
	assert.True(t, cfg.Gitignore)
	assert.Equal(t, []string{"banned-words", "max-lines", "no-important"}, cfg.Template.CommonRules)
	assert.Equal(t, "warning", cfg.Template.Rules["banned-words"].Severity)
	assert.Equal(t, "⚠", cfg.Template.Severity["warning"])
	assert.Equal(t, DefaultFileListPath, cfg.FileList.Path)
	require.NoError(t, cfg.Validate(regs()))
}

func TestLoad_FileSearchedUpward(t *testing.T) {
	root := t.TempDir()
	writeFile(t, filepath.Join(root, "archlint.yaml"), `
output: json
packs: [rules/custom.yaml]
css:
  service: blog
  severityPolicy: strict
  layers:
    layer2: ["app/styles/**/skin-*.css"]
  rules:
    layer2-no-layout:
      severity: warning
    layer5-single-purpose:
      maxDeclarations: 5
template:
  rules:
    banned-words:
      words: [HACK]
`)
	work := filepath.Join(root, "app", "styles")
	require.NoError(t, os.MkdirAll(work, 0o755))

	cfg, err := testLoader(work).Load("", nil)
	require.NoError(t, err)

	assert.Equal(t, filepath.Join(root, "archlint.yaml"), cfg.File)
	assert.Equal(t, root, cfg.ProjectRoot)
	assert.Equal(t, "json", cfg.OutputFormat)
	assert.Equal(t, []string{filepath.Join(root, "rules", "custom.yaml")}, cfg.Packs)
	assert.Equal(t, "blog", cfg.CSS.Service)

	lc := cfg.CSS.LintConfig()
	assert.Equal(t, lint.PolicyStrict, lc.Policy)
	assert.Equal(t, core.SeverityWarning, lc.GetSeverity("layer2-no-layout"))
	assert.Equal(t, 5, lc.GetRuleOptions("layer5-single-purpose").Int("maxDeclarations", 0))

	// File values merge into the defaults for the same rule.
	banned := cfg.Template.Rules["banned-words"]
	assert.Equal(t, "warning", banned.Severity)
	assert.Equal(t, []string{"HACK"}, lint.Options(banned.Options).Strings("words", nil))

	layer, ok := mustClassifier(t, cfg).Classify("app/styles/blog/skin-card.css")
	assert.True(t, ok)
	assert.Equal(t, cssarch.LayerSkins, layer)
}

func mustClassifier(t *testing.T, cfg *Loaded) *cssarch.Classifier {
	t.Helper()
	c, err := cfg.CSS.Classifier()
	require.NoError(t, err)
	return c
}

func TestLoad_JSONFile(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, filepath.Join(dir, "archlint.json"), `{"concurrency": 2, "filelist": {"path": "docs/{service}.md"}}`)

	cfg, err := testLoader(dir).Load("", nil)
	require.NoError(t, err)
	assert.Equal(t, 2, cfg.Concurrency)
	assert.Equal(t, "docs/blog.md", cfg.FileList.FileListPath("blog"))
}

func TestLoad_Precedence(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, filepath.Join(dir, "custom.yml"), "output: markdown\nconcurrency: 3\nhistory_path: h.db\n")

	flags := pflag.NewFlagSet("test", pflag.ContinueOnError)
	flags.StringP("output", "o", "", "")
	flags.Bool("verbose", false, "")
	flags.String("config", "", "")
	require.NoError(t, flags.Parse([]string{"--output", "text", "--config", "ignored.yaml"}))

	cfg, err := testLoader(t.TempDir(), "ARCHLINT_OUTPUT=json", "ARCHLINT_CONCURRENCY=6", "ARCHLINT_CSS__SERVICE=shop", "OTHER=1").
		Load(filepath.Join(dir, "custom.yml"), flags)
	require.NoError(t, err)

	assert.Equal(t, "text", cfg.OutputFormat, "flag beats env and file")
	assert.Equal(t, 6, cfg.Concurrency, "env beats file")
	assert.Equal(t, "shop", cfg.CSS.Service)
	assert.Equal(t, filepath.Join(dir, "h.db"), cfg.HistoryPath, "relative to the config file's directory")
	assert.False(t, cfg.Verbose)
}

func TestLoad_UserConfigFallback(t *testing.T) {
	userDir := t.TempDir()
	user := filepath.Join(userDir, "config.yaml")
	writeFile(t, user, "gitignore: false\n")

	work := t.TempDir()
	l := testLoader(work)
	l.UserConfig = func() string { return user }

	cfg, err := l.Load("", nil)
	require.NoError(t, err)
	assert.Equal(t, user, cfg.File)
	assert.False(t, cfg.Gitignore)
	assert.Equal(t, work, cfg.ProjectRoot, "user config does not move the project root")
}

func TestLoad_Errors(t *testing.T) {
	dir := t.TempDir()
	_, err := testLoader(dir).Load(filepath.Join(dir, "missing.yaml"), nil)
	require.Error(t, err)
	assert.True(t, errors.Is(err, os.ErrNotExist))

	writeFile(t, filepath.Join(dir, "archlint.yaml"), "css: [unclosed\n")
	_, err = testLoader(dir).Load("", nil)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "error reading config file")
}

func TestValidate(t *testing.T) {
	cfg := Default()
	cfg.OutputFormat = "xml"
	cfg.Concurrency = -1
	cfg.CSS.Rules = map[string]RuleSettings{
		"layer9-nothing":   {},
		"layer2-no-layout": {Severity: "loud"},
	}
	cfg.CSS.Layers = map[string][]string{"layer7": {"*.css"}}
	cfg.CSS.SeverityPolicy = "lenient"
	cfg.Template.CommonRules = append(cfg.Template.CommonRules, "no-such-rule")
	cfg.FileList.SeverityPolicy = "sometimes"

	err := cfg.Validate(regs())
	require.Error(t, err)

	var unknown *lint.UnknownRuleError
	require.True(t, errors.As(err, &unknown))

	msg := err.Error()
	for _, want := range []string{
		`output: invalid format "xml"`,
		"concurrency: must not be negative",
		"layer9-nothing",
		`rules.layer2-no-layout.severity: invalid severity "loud"`,
		`layers: unknown layer "layer7"`,
		`invalid severity policy "lenient"`,
		"no-such-rule",
		`filelist: invalid severity policy "sometimes"`,
	} {
		assert.Contains(t, msg, want)
	}
}

func TestFileListLintConfig(t *testing.T) {
	fl := Default().FileList
	lc := fl.LintConfig("/repo", "blog")
	opts := lc.GetRuleOptions("file-list-sync")
	assert.Equal(t, "/repo", opts.String("root", ""))
	assert.Equal(t, "blog", opts.String("service", ""))
	assert.Equal(t, []string{"app/components/", "app/lib/", "app/data-io/"}, opts.Strings("prefixes", nil))
}

func TestKeywordSet(t *testing.T) {
	c := CSSConfig{Keywords: map[string]map[string]any{
		cssarch.LayerUtilities: {"maxDeclarations": 1},
	}}
	kw := c.KeywordSet()
	assert.Equal(t, 1, kw[cssarch.LayerUtilities].Int("maxDeclarations", 0))
	assert.NotEmpty(t, kw[cssarch.LayerSkins].Strings("forbiddenProperties", nil))
}

func TestDefaultYAML(t *testing.T) {
	data, err := DefaultYAML()
	require.NoError(t, err)
	assert.Contains(t, string(data), "commonRules:")
	assert.Contains(t, string(data), "history_path: .archlint/history.db")
	assert.NotContains(t, string(data), "verbose")
}

func TestGetLogger(t *testing.T) {
	assert.NotNil(t, GetLogger(context.Background()))

	logger := slog.New(slog.DiscardHandler)
	ctx := context.WithValue(context.Background(), LoggerKey(), logger)
	assert.Same(t, logger, GetLogger(ctx))
}

func TestConfigContext(t *testing.T) {
	_, ok := FromContext(context.Background())
	assert.False(t, ok)

	loaded := &Loaded{Config: Default(), File: "archlint.yaml"}
	got, ok := FromContext(WithConfig(context.Background(), loaded))
	require.True(t, ok)
	assert.Same(t, loaded, got)
}
