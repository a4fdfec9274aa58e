package template

import (
	"github.com/leapstack-labs/archlint/pkg/core"
	"github.com/leapstack-labs/archlint/pkg/lint"
)

// Selector applies the common rules to every file and the template rules
// of the file's kind, filtered by each rule's file types and file and
// template exceptions.
type Selector struct {
	Config *Config
}

// Select implements lint.Selector.
func (s Selector) Select(reg *lint.Registry, target lint.Target) []lint.Applied {
	if s.Config == nil {
		return []lint.Applied{}
	}
	kind := Kind(target.Context)

	names := s.Config.RulesFor(kind)
	applied := make([]lint.Applied, 0, len(names))
	for _, name := range names {
		rule, ok := reg.Get(name)
		if !ok {
			continue
		}
		rc := s.Config.Rules[name]
		if !rc.IsEnabled() || !rc.AppliesTo(target.Path, kind) {
			continue
		}
		sev, _ := core.ParseSeverity(rc.Severity)
		applied = append(applied, lint.Applied{
			Rule:     rule,
			Options:  lint.Options(rc.Options).Clone(),
			Severity: sev,
		})
	}
	return applied
}
