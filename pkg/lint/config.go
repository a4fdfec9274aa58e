package lint

import (
	"fmt"
	"sort"

	"github.com/leapstack-labs/archlint/pkg/core"
)

// SeverityPolicy decides how the severity of a violation is resolved.
type SeverityPolicy string

const (
	// PolicyPerRule resolves severity as config override, then the
	// severity the check reported, then the rule default, then the
	// engine default.
	PolicyPerRule SeverityPolicy = "per-rule"
	// PolicyStrict reports every violation as an error.
	PolicyStrict SeverityPolicy = "strict"
)

// ParseSeverityPolicy validates a policy name. Empty means PolicyPerRule.
func ParseSeverityPolicy(s string) (SeverityPolicy, error) {
	switch SeverityPolicy(s) {
	case "", PolicyPerRule:
		return PolicyPerRule, nil
	case PolicyStrict:
		return PolicyStrict, nil
	default:
		return "", fmt.Errorf("invalid severity policy %q (want %s or %s)", s, PolicyPerRule, PolicyStrict)
	}
}

// Config controls which rules are enabled, their severity and options.
// It is read-only once a run has started.
type Config struct {
	// DisabledRules contains rule names to skip
	DisabledRules map[string]bool

	// SeverityOverrides changes the default severity of rules
	SeverityOverrides map[string]core.Severity

	// RuleOptions holds rule-specific configuration
	RuleOptions map[string]Options

	// Policy selects the severity resolution strategy
	Policy SeverityPolicy

	// DefaultSeverity applies when neither config nor rule decide.
	DefaultSeverity core.Severity
}

// NewConfig creates a default configuration with all rules enabled.
func NewConfig() *Config {
	return &Config{
		DisabledRules:     make(map[string]bool),
		SeverityOverrides: make(map[string]core.Severity),
		RuleOptions:       make(map[string]Options),
		Policy:            PolicyPerRule,
		DefaultSeverity:   core.SeverityError,
	}
}

// IsDisabled returns true if the rule should be skipped.
func (c *Config) IsDisabled(name string) bool {
	if c == nil {
		return false
	}
	return c.DisabledRules[name]
}

// GetSeverity returns the configured override for a rule, if any.
func (c *Config) GetSeverity(name string) core.Severity {
	if c == nil {
		return core.SeverityUnset
	}
	return c.SeverityOverrides[name]
}

// GetRuleOptions returns the options for a rule.
func (c *Config) GetRuleOptions(name string) Options {
	if c == nil || c.RuleOptions == nil {
		return nil
	}
	return c.RuleOptions[name]
}

// Disable disables a rule by name.
func (c *Config) Disable(name string) *Config {
	c.DisabledRules[name] = true
	return c
}

// SetSeverity overrides the severity for a rule.
func (c *Config) SetSeverity(name string, severity core.Severity) *Config {
	c.SeverityOverrides[name] = severity
	return c
}

// SetRuleOptions sets rule-specific options, merging over existing keys.
func (c *Config) SetRuleOptions(name string, opts map[string]any) *Config {
	if c.RuleOptions == nil {
		c.RuleOptions = make(map[string]Options)
	}
	merged := c.RuleOptions[name].Clone()
	if merged == nil {
		merged = make(Options, len(opts))
	}
	for k, v := range opts {
		merged[k] = v
	}
	c.RuleOptions[name] = merged
	return c
}

// Referenced returns every rule name the configuration mentions, sorted.
func (c *Config) Referenced() []string {
	if c == nil {
		return nil
	}
	seen := make(map[string]bool)
	for name := range c.DisabledRules {
		seen[name] = true
	}
	for name := range c.SeverityOverrides {
		seen[name] = true
	}
	for name := range c.RuleOptions {
		seen[name] = true
	}
	names := make([]string, 0, len(seen))
	for name := range seen {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// Validate checks that every rule the configuration mentions is registered.
func (c *Config) Validate(reg *Registry) error {
	if c == nil {
		return nil
	}
	if _, err := ParseSeverityPolicy(string(c.Policy)); err != nil {
		return err
	}
	return reg.CheckKnown(c.Referenced()...)
}
