package lint

import (
	"errors"
	"fmt"
	"sort"
	"strings"
	"sync"
)

// Registration errors.
var (
	ErrEmptyRuleName = errors.New("rule name is empty")
	ErrNilCheck      = errors.New("rule has no check function")
	ErrUnknownFamily = errors.New("rule family is not recognised")
)

// DuplicateRuleError is returned when a rule name is registered twice.
type DuplicateRuleError struct {
	Name string
}

func (e *DuplicateRuleError) Error() string {
	return fmt.Sprintf("rule %q is already registered", e.Name)
}

// UnknownRuleError lists rule names referenced by configuration that no
// registered rule answers to.
type UnknownRuleError struct {
	Names []string
}

func (e *UnknownRuleError) Error() string {
	return fmt.Sprintf("unknown rule(s): %s", strings.Join(e.Names, ", "))
}

// Registry stores lint rules for discovery. Each linter owns one.
type Registry struct {
	mu    sync.RWMutex
	name  string
	rules map[string]RuleDef // keyed by Name
}

// NewRegistry creates an empty registry. The name identifies the linter
// the rules belong to (e.g. "css", "template").
func NewRegistry(name string) *Registry {
	return &Registry{
		name:  name,
		rules: make(map[string]RuleDef),
	}
}

// Name returns the linter name the registry was created with.
func (r *Registry) Name() string {
	return r.name
}

// Register adds a rule. Duplicate names are rejected.
func (r *Registry) Register(rule RuleDef) error {
	if err := validateRule(rule); err != nil {
		return err
	}

	r.mu.Lock()
	defer r.mu.Unlock()
	if _, exists := r.rules[rule.Name]; exists {
		return &DuplicateRuleError{Name: rule.Name}
	}
	r.rules[rule.Name] = rule
	return nil
}

// MustRegister is Register for init() functions in rule packages.
// It panics on an invalid or duplicate rule.
func (r *Registry) MustRegister(rules ...RuleDef) {
	for _, rule := range rules {
		if err := r.Register(rule); err != nil {
			panic(fmt.Sprintf("%s: %v", r.name, err))
		}
	}
}

// Override replaces an existing rule, or adds it if absent. It is the
// explicit path for custom rule packs that shadow a built-in rule.
// It reports whether an existing rule was replaced.
func (r *Registry) Override(rule RuleDef) (bool, error) {
	if err := validateRule(rule); err != nil {
		return false, err
	}

	r.mu.Lock()
	defer r.mu.Unlock()
	_, existed := r.rules[rule.Name]
	r.rules[rule.Name] = rule
	return existed, nil
}

func validateRule(rule RuleDef) error {
	if strings.TrimSpace(rule.Name) == "" {
		return ErrEmptyRuleName
	}
	if rule.Check == nil {
		return fmt.Errorf("%s: %w", rule.Name, ErrNilCheck)
	}
	if !rule.Family.Valid() {
		return fmt.Errorf("%s: %w", rule.Name, ErrUnknownFamily)
	}
	return nil
}

// Get returns a rule by its name.
func (r *Registry) Get(name string) (RuleDef, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	rule, ok := r.rules[name]
	return rule, ok
}

// All returns all registered rules sorted by name.
func (r *Registry) All() []RuleDef {
	r.mu.RLock()
	defer r.mu.RUnlock()

	rules := make([]RuleDef, 0, len(r.rules))
	for _, rule := range r.rules {
		rules = append(rules, rule)
	}
	sort.Slice(rules, func(i, j int) bool { return rules[i].Name < rules[j].Name })
	return rules
}

// Names returns all registered rule names, sorted.
func (r *Registry) Names() []string {
	rules := r.All()
	names := make([]string, len(rules))
	for i, rule := range rules {
		names[i] = rule.Name
	}
	return names
}

// WithPrefix returns rules whose name starts with prefix, sorted by name.
func (r *Registry) WithPrefix(prefix string) []RuleDef {
	var rules []RuleDef
	for _, rule := range r.All() {
		if strings.HasPrefix(rule.Name, prefix) {
			rules = append(rules, rule)
		}
	}
	return rules
}

// ByFamily returns all rules in a family, sorted by name.
func (r *Registry) ByFamily(f Family) []RuleDef {
	var rules []RuleDef
	for _, rule := range r.All() {
		if rule.Family == f {
			rules = append(rules, rule)
		}
	}
	return rules
}

// Resolve looks up rules by name, preserving the requested order.
// Every unknown name is reported in a single *UnknownRuleError.
func (r *Registry) Resolve(names []string) ([]RuleDef, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	rules := make([]RuleDef, 0, len(names))
	var unknown []string
	for _, name := range names {
		rule, ok := r.rules[name]
		if !ok {
			unknown = append(unknown, name)
			continue
		}
		rules = append(rules, rule)
	}
	if len(unknown) > 0 {
		return nil, &UnknownRuleError{Names: unknown}
	}
	return rules, nil
}

// CheckKnown returns an *UnknownRuleError for any name that is not registered.
func (r *Registry) CheckKnown(names ...string) error {
	_, err := r.Resolve(names)
	return err
}

// Clone returns an independent registry holding the same rules. Commands
// clone the built-in registries before adding custom rules to them.
func (r *Registry) Clone() *Registry {
	r.mu.RLock()
	defer r.mu.RUnlock()
	c := NewRegistry(r.name)
	for name, rule := range r.rules {
		c.rules[name] = rule
	}
	return c
}

// Count returns the number of registered rules.
func (r *Registry) Count() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.rules)
}
