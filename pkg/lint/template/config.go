package template

import (
	"errors"
	"fmt"
	"path"
	"path/filepath"
	"slices"
	"sort"
	"strings"

	"github.com/gobwas/glob"

	"github.com/leapstack-labs/archlint/pkg/core"
	"github.com/leapstack-labs/archlint/pkg/lint"
)

// Config is the `template` section of the configuration file.
type Config struct {
	// CommonRules apply to every resolved file.
	CommonRules []string `koanf:"commonRules" json:"commonRules" yaml:"commonRules"`
	// TemplateRules add rules for documents classified as a template kind.
	TemplateRules map[string][]string `koanf:"templateRules" json:"templateRules" yaml:"templateRules"`
	// Rules holds per-rule settings and options.
	Rules map[string]RuleConfig `koanf:"rules" json:"rules" yaml:"rules"`
	// Ignore lists paths skipped while resolving targets.
	Ignore IgnoreConfig `koanf:"ignore" json:"ignore" yaml:"ignore"`
	// Severity maps a severity name to the symbol printed before violations.
	Severity map[string]string `koanf:"severity" json:"severity" yaml:"severity"`
	// SeverityPolicy is "per-rule" (default) or "strict".
	SeverityPolicy string `koanf:"severityPolicy" json:"severityPolicy" yaml:"severityPolicy"`
}

// IgnoreConfig holds ignore patterns.
type IgnoreConfig struct {
	Files []string `koanf:"files" json:"files" yaml:"files"`
}

// RuleConfig is the configuration of one template rule. Keys other than the
// ones below are handed to the rule as options.
type RuleConfig struct {
	Enabled          *bool          `koanf:"enabled" json:"enabled,omitempty" yaml:"enabled,omitempty"`
	Severity         string         `koanf:"severity" json:"severity,omitempty" yaml:"severity,omitempty"`
	FileTypes        []string       `koanf:"fileTypes" json:"fileTypes,omitempty" yaml:"fileTypes,omitempty"`
	ExcludeTemplates []string       `koanf:"templateExceptions" json:"templateExceptions,omitempty" yaml:"templateExceptions,omitempty"`
	ExcludeFiles     []string       `koanf:"fileExceptions" json:"fileExceptions,omitempty" yaml:"fileExceptions,omitempty"`
	Options          map[string]any `koanf:",remain" json:"-" yaml:",inline"`
}

// IsEnabled reports whether the rule runs. Rules are enabled unless
// explicitly switched off.
func (rc RuleConfig) IsEnabled() bool {
	return rc.Enabled == nil || *rc.Enabled
}

// AppliesTo reports whether the rule runs for a file of the given kind.
// File exceptions are substrings of the slash path, or wildcards when they
// contain '*' or '?'.
func (rc RuleConfig) AppliesTo(p string, kind Kind) bool {
	ext := strings.ToLower(filepath.Ext(p))
	if len(rc.FileTypes) > 0 && !slices.ContainsFunc(rc.FileTypes, func(ft string) bool {
		return strings.EqualFold(normalizeExt(ft), ext)
	}) {
		return false
	}
	if kind != "" && slices.Contains(rc.ExcludeTemplates, string(kind)) {
		return false
	}
	slashed := filepath.ToSlash(p)
	for _, pattern := range rc.ExcludeFiles {
		if matchesFile(slashed, pattern) {
			return false
		}
	}
	return true
}

func matchesFile(slashed, pattern string) bool {
	if !strings.ContainsAny(pattern, "*?") {
		return strings.Contains(slashed, pattern)
	}
	g, err := glob.Compile(pattern, '/')
	if err != nil {
		return false
	}
	return g.Match(slashed) || g.Match(path.Base(slashed))
}

func normalizeExt(ext string) string {
	ext = strings.TrimSpace(ext)
	if ext != "" && !strings.HasPrefix(ext, ".") {
		ext = "." + ext
	}
	return strings.ToLower(ext)
}

// DefaultConfig returns the built-in template configuration.
func DefaultConfig() Config {
	return Config{
		CommonRules: []string{"banned-words", "max-lines", "no-important"},
		TemplateRules: map[string][]string{
			string(KindRequirements): {"required-sections", "section-order"},
			string(KindWorkflow):     {"required-sections", "section-order", "required-commands", "file-path-format"},
			string(KindDesign):       {"required-sections", "section-order", "file-path-format"},
			string(KindFileList):     {"required-sections"},
		},
		Rules: map[string]RuleConfig{
			"banned-words": {
				Severity:  "warning",
				FileTypes: []string{".md", ".ts", ".tsx", ".js", ".jsx"},
			},
			"max-lines": {
				FileTypes: []string{".md", ".ts", ".tsx", ".js", ".jsx", ".css"},
			},
			"no-important": {
				FileTypes: []string{".css"},
			},
		},
		Ignore: IgnoreConfig{
			Files: []string{"node_modules", ".git", "dist", "build", "*.min.css"},
		},
		Severity: map[string]string{
			"error":   "✖",
			"warning": "⚠",
			"info":    "ℹ",
		},
	}
}

// RulesFor returns the rule names that apply to a document kind: the common
// rules followed by the kind's template rules, without duplicates.
func (c *Config) RulesFor(kind Kind) []string {
	seen := make(map[string]bool)
	var out []string
	add := func(names []string) {
		for _, n := range names {
			if !seen[n] {
				seen[n] = true
				out = append(out, n)
			}
		}
	}
	add(c.CommonRules)
	if kind != "" {
		add(c.TemplateRules[string(kind)])
	}
	return out
}

// Referenced returns every rule name the configuration mentions, sorted.
func (c *Config) Referenced() []string {
	set := make(map[string]bool)
	for _, n := range c.CommonRules {
		set[n] = true
	}
	for _, names := range c.TemplateRules {
		for _, n := range names {
			set[n] = true
		}
	}
	for n := range c.Rules {
		set[n] = true
	}
	out := make([]string, 0, len(set))
	for n := range set {
		out = append(out, n)
	}
	sort.Strings(out)
	return out
}

// Validate checks rule references, template kinds, severities and symbols
// against reg. All problems are reported together.
func (c *Config) Validate(reg *lint.Registry) error {
	var errs []error
	if err := reg.CheckKnown(c.Referenced()...); err != nil {
		errs = append(errs, err)
	}

	kinds := make([]string, 0, len(c.TemplateRules))
	for k := range c.TemplateRules {
		kinds = append(kinds, k)
	}
	sort.Strings(kinds)
	for _, k := range kinds {
		if _, err := ParseKind(k); err != nil {
			errs = append(errs, fmt.Errorf("templateRules: %w", err))
		}
	}

	for _, name := range c.Referenced() {
		rc, ok := c.Rules[name]
		if !ok || rc.Severity == "" {
			continue
		}
		if _, ok := core.ParseSeverity(rc.Severity); !ok {
			errs = append(errs, fmt.Errorf("rules.%s.severity: invalid severity %q", name, rc.Severity))
		}
	}
	for _, name := range c.Referenced() {
		for _, pattern := range c.Rules[name].ExcludeFiles {
			if !strings.ContainsAny(pattern, "*?") {
				continue
			}
			if _, err := glob.Compile(pattern, '/'); err != nil {
				errs = append(errs, fmt.Errorf("rules.%s.fileExceptions: invalid pattern %q: %w", name, pattern, err))
			}
		}
	}

	for name := range c.Severity {
		if _, ok := core.ParseSeverity(name); !ok {
			errs = append(errs, fmt.Errorf("severity symbols: invalid severity %q", name))
		}
	}

	if _, err := lint.ParseSeverityPolicy(c.SeverityPolicy); err != nil {
		errs = append(errs, err)
	}
	return errors.Join(errs...)
}

// LintConfig converts the section into an engine configuration carrying the
// severity policy. Call Validate first.
func (c *Config) LintConfig() *lint.Config {
	cfg := lint.NewConfig()
	if policy, err := lint.ParseSeverityPolicy(c.SeverityPolicy); err == nil {
		cfg.Policy = policy
	}
	for name, rc := range c.Rules {
		if !rc.IsEnabled() {
			cfg.Disable(name)
		}
		if sev, ok := core.ParseSeverity(rc.Severity); ok {
			cfg.SetSeverity(name, sev)
		}
		if len(rc.Options) > 0 {
			cfg.SetRuleOptions(name, rc.Options)
		}
	}
	return cfg
}
