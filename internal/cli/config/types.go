// Package config provides configuration management for the archlint CLI.
//
// Configuration is layered with koanf: built-in defaults, the project config
// file, ARCHLINT_ environment variables and finally explicitly set flags.
// Each linter owns one section (css, template, filelist); the template
// section type lives in pkg/lint/template so library users can load it
// without the CLI.
package config

import (
	"strings"

	"github.com/leapstack-labs/archlint/pkg/core"
	"github.com/leapstack-labs/archlint/pkg/lint"
	"github.com/leapstack-labs/archlint/pkg/lint/cssarch"
	"github.com/leapstack-labs/archlint/pkg/lint/filelist"
	"github.com/leapstack-labs/archlint/pkg/lint/template"
)

// Default configuration values.
const (
	DefaultHistoryFile  = ".archlint/history.db"
	DefaultOutput       = "auto" // Auto-detect: TTY=text, non-TTY=markdown
	DefaultFileListPath = "docs/{service}/file-list.md"
	AppName             = "archlint"
	EnvPrefix           = "ARCHLINT_"
)

// ConfigFileNames are searched, in order, in the project root.
var ConfigFileNames = []string{"archlint.yaml", "archlint.yml", "archlint.json"}

// Config holds all CLI configuration options.
type Config struct {
	Verbose      bool   `koanf:"verbose" yaml:"-"`
	NoColor      bool   `koanf:"no_color" yaml:"-"`
	OutputFormat string `koanf:"output" yaml:"output"`
	HistoryPath  string `koanf:"history_path" yaml:"history_path"`
	// Concurrency bounds the files checked in parallel; 0 uses the engine default.
	Concurrency int  `koanf:"concurrency" yaml:"concurrency"`
	Gitignore   bool `koanf:"gitignore" yaml:"gitignore"`
	// Packs and Scripts add custom rules to every linter. Scripts may name
	// .star files or directories holding them.
	Packs   []string `koanf:"packs" yaml:"packs,omitempty"`
	Scripts []string `koanf:"scripts" yaml:"scripts,omitempty"`

	CSS      CSSConfig       `koanf:"css" yaml:"css"`
	Template template.Config `koanf:"template" yaml:"template"`
	FileList FileListConfig  `koanf:"filelist" yaml:"filelist"`

	// ProjectRoot is the directory holding the config file, or the working
	// directory when there is none. Relative paths resolve against it.
	ProjectRoot string `koanf:"-" yaml:"-"`
}

// CSSConfig is the css section.
type CSSConfig struct {
	// Service restricts no-argument runs to one service's stylesheets.
	Service string `koanf:"service" yaml:"service,omitempty"`
	// Layers maps a layer id to globs that assign files to it, ahead of
	// file-name detection.
	Layers map[string][]string `koanf:"layers" yaml:"layers,omitempty"`
	// Keywords override the built-in per-layer vocabularies.
	Keywords       map[string]map[string]any `koanf:"keywords" yaml:"keywords,omitempty"`
	Rules          map[string]RuleSettings   `koanf:"rules" yaml:"rules,omitempty"`
	Ignore         []string                  `koanf:"ignore" yaml:"ignore"`
	SeverityPolicy string                    `koanf:"severityPolicy" yaml:"severityPolicy"`
}

// RuleSettings configures one rule. Keys other than enabled and severity
// are handed to the rule as options.
type RuleSettings struct {
	Enabled  *bool          `koanf:"enabled" yaml:"enabled,omitempty"`
	Severity string         `koanf:"severity" yaml:"severity,omitempty"`
	Options  map[string]any `koanf:",remain" yaml:",inline"`
}

// FileListConfig is the filelist section.
type FileListConfig struct {
	// Path locates a service's file list; "{service}" is substituted.
	Path           string   `koanf:"path" yaml:"path"`
	Prefixes       []string `koanf:"prefixes" yaml:"prefixes"`
	SeverityPolicy string   `koanf:"severityPolicy" yaml:"severityPolicy"`
}

// Default returns the built-in configuration.
func Default() *Config {
	return &Config{
		OutputFormat: DefaultOutput,
		HistoryPath:  DefaultHistoryFile,
		Gitignore:    true,
		CSS: CSSConfig{
			Ignore:         []string{"node_modules", ".git", "dist", "build", "*.min.css"},
			SeverityPolicy: string(lint.PolicyPerRule),
		},
		Template: template.DefaultConfig(),
		FileList: FileListConfig{
			Path:           DefaultFileListPath,
			Prefixes:       append([]string(nil), filelist.DefaultPrefixes...),
			SeverityPolicy: string(lint.PolicyPerRule),
		},
	}
}

// FileListPath returns the file list location for a service.
func (c *FileListConfig) FileListPath(service string) string {
	p := c.Path
	if p == "" {
		p = DefaultFileListPath
	}
	return strings.ReplaceAll(p, "{service}", service)
}

// LintConfig converts the css section into an engine configuration.
func (c *CSSConfig) LintConfig() *lint.Config {
	return settingsConfig(c.SeverityPolicy, c.Rules)
}

// KeywordSet merges the configured vocabularies over the built-in ones.
func (c *CSSConfig) KeywordSet() cssarch.Keywords {
	override := make(cssarch.Keywords, len(c.Keywords))
	for layer, opts := range c.Keywords {
		override[layer] = lint.Options(opts)
	}
	return cssarch.DefaultKeywords().Merge(override)
}

// Classifier builds the layer classifier from the layers globs.
func (c *CSSConfig) Classifier() (*cssarch.Classifier, error) {
	return cssarch.NewClassifier(c.Layers)
}

// LintConfig converts the filelist section into an engine configuration.
func (c *FileListConfig) LintConfig(root, service string) *lint.Config {
	cfg := settingsConfig(c.SeverityPolicy, nil)
	opts := map[string]any{"root": root}
	if service != "" {
		opts["service"] = service
	}
	if len(c.Prefixes) > 0 {
		opts["prefixes"] = c.Prefixes
	}
	cfg.SetRuleOptions(filelist.RuleName, opts)
	return cfg
}

func settingsConfig(policy string, rules map[string]RuleSettings) *lint.Config {
	cfg := lint.NewConfig()
	if p, err := lint.ParseSeverityPolicy(policy); err == nil {
		cfg.Policy = p
	}
	for name, rs := range rules {
		if rs.Enabled != nil && !*rs.Enabled {
			cfg.Disable(name)
		}
		if sev, ok := core.ParseSeverity(rs.Severity); ok {
			cfg.SetSeverity(name, sev)
		}
		if len(rs.Options) > 0 {
			cfg.SetRuleOptions(name, rs.Options)
		}
	}
	return cfg
}
