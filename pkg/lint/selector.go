package lint

import "github.com/leapstack-labs/archlint/pkg/core"

// Applied is a rule selected for a target together with its merged options.
type Applied struct {
	Rule     RuleDef
	Options  Options
	Severity core.Severity // configured override; unset defers to the engine
}

// Selector answers "which rules apply to this target". Implementations
// must return rules in a deterministic order; no match is an empty slice.
type Selector interface {
	Select(reg *Registry, target Target) []Applied
}

// SelectorFunc adapts a function to the Selector interface.
type SelectorFunc func(reg *Registry, target Target) []Applied

// Select implements Selector.
func (f SelectorFunc) Select(reg *Registry, target Target) []Applied {
	return f(reg, target)
}

// AllSelector applies every enabled rule regardless of context.
type AllSelector struct {
	Config *Config
}

// Select implements Selector.
func (s AllSelector) Select(reg *Registry, _ Target) []Applied {
	return applyConfig(s.Config, reg.All())
}

// PrefixSelector applies the rules whose name starts with "{context}-".
// Targets without a context get no rules.
type PrefixSelector struct {
	Config *Config
}

// Select implements Selector.
func (s PrefixSelector) Select(reg *Registry, target Target) []Applied {
	if target.Context == "" {
		return []Applied{}
	}
	return applyConfig(s.Config, reg.WithPrefix(target.Context+"-"))
}

func applyConfig(cfg *Config, rules []RuleDef) []Applied {
	applied := make([]Applied, 0, len(rules))
	for _, rule := range rules {
		if cfg.IsDisabled(rule.Name) {
			continue
		}
		applied = append(applied, Applied{
			Rule:     rule,
			Options:  cfg.GetRuleOptions(rule.Name),
			Severity: cfg.GetSeverity(rule.Name),
		})
	}
	return applied
}
