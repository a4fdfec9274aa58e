package config

import (
	"errors"
	"fmt"
	"slices"
	"sort"

	"github.com/leapstack-labs/archlint/internal/cli/output"
	"github.com/leapstack-labs/archlint/pkg/core"
	"github.com/leapstack-labs/archlint/pkg/lint"
	"github.com/leapstack-labs/archlint/pkg/lint/cssarch"
)

// Registries are the rule sets configuration is validated against.
type Registries struct {
	CSS      *lint.Registry
	Template *lint.Registry
}

// Validate checks the whole configuration and reports every problem at
// once. Unknown rule names are returned as *lint.UnknownRuleError inside
// the joined error.
func (c *Config) Validate(regs Registries) error {
	var errs []error

	if _, ok := output.ParseMode(c.OutputFormat); !ok {
		errs = append(errs, fmt.Errorf("output: invalid format %q (want one of %v)", c.OutputFormat, output.Modes()))
	}
	if c.Concurrency < 0 {
		errs = append(errs, fmt.Errorf("concurrency: must not be negative, got %d", c.Concurrency))
	}

	if err := c.CSS.validate(regs.CSS); err != nil {
		errs = append(errs, fmt.Errorf("css: %w", err))
	}
	if regs.Template != nil {
		if err := c.Template.Validate(regs.Template); err != nil {
			errs = append(errs, fmt.Errorf("template: %w", err))
		}
	}
	if _, err := lint.ParseSeverityPolicy(c.FileList.SeverityPolicy); err != nil {
		errs = append(errs, fmt.Errorf("filelist: %w", err))
	}
	return errors.Join(errs...)
}

func (c *CSSConfig) validate(reg *lint.Registry) error {
	var errs []error
	if reg != nil {
		names := make([]string, 0, len(c.Rules))
		for name := range c.Rules {
			names = append(names, name)
		}
		sort.Strings(names)
		if err := reg.CheckKnown(names...); err != nil {
			errs = append(errs, err)
		}
		for _, name := range names {
			if sev := c.Rules[name].Severity; sev != "" {
				if _, ok := core.ParseSeverity(sev); !ok {
					errs = append(errs, fmt.Errorf("rules.%s.severity: invalid severity %q", name, sev))
				}
			}
		}
	}

	layers := cssarch.Layers()
	for _, section := range []struct {
		name string
		keys []string
	}{
		{"layers", mapKeys(c.Layers)},
		{"keywords", mapKeys(c.Keywords)},
	} {
		for _, id := range section.keys {
			if !slices.Contains(layers, id) {
				errs = append(errs, fmt.Errorf("%s: unknown layer %q (want one of %v)", section.name, id, layers))
			}
		}
	}
	if _, err := c.Classifier(); err != nil {
		errs = append(errs, err)
	}
	if _, err := lint.ParseSeverityPolicy(c.SeverityPolicy); err != nil {
		errs = append(errs, err)
	}
	return errors.Join(errs...)
}

func mapKeys[V any](m map[string]V) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
