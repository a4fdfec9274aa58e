// Package pack loads user-defined pattern rules from YAML rule packs.
//
// A pack looks like:
//
//	rules:
//	  - name: layer2-no-hex-colors
//	    description: Skins must use color tokens
//	    severity: warning
//	    pattern: '#[0-9a-fA-F]{3,8}\b'
//	    message: 'hard-coded color {match}'
//	    suggestion: use a layer 1 color token
//	    fileTypes: [.css]
//	    contexts: [layer2]
//
// Every compiled rule belongs to the pattern family and reports one
// violation per match. A rule with `override: true` takes the place of the
// built-in rule of the same name instead of failing as a duplicate.
package pack

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"regexp"
	"slices"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/leapstack-labs/archlint/pkg/core"
	"github.com/leapstack-labs/archlint/pkg/lint"
)

// Pack is a parsed rule pack file.
type Pack struct {
	Path  string `yaml:"-"`
	Rules []Rule `yaml:"rules"`
}

// Rule is one pattern rule as written in YAML.
type Rule struct {
	Name            string   `yaml:"name"`
	Description     string   `yaml:"description"`
	Severity        string   `yaml:"severity"`
	Pattern         string   `yaml:"pattern"`
	Message         string   `yaml:"message"`
	Suggestion      string   `yaml:"suggestion"`
	FileTypes       []string `yaml:"fileTypes"`
	Contexts        []string `yaml:"contexts"`
	CaseInsensitive bool     `yaml:"caseInsensitive"`
	// Override replaces the built-in rule of the same name.
	Override        bool     `yaml:"override"`
}

// Load reads and parses a pack file.
func Load(path string) (*Pack, error) {
	data, err := os.ReadFile(path) //nolint:gosec // G304: path comes from configuration
	if err != nil {
		return nil, fmt.Errorf("read rule pack: %w", err)
	}
	p, err := Parse(data)
	if err != nil {
		return nil, fmt.Errorf("rule pack %s: %w", path, err)
	}
	p.Path = path
	return p, nil
}

// Parse parses pack YAML. Unknown fields are rejected so typos surface.
func Parse(data []byte) (*Pack, error) {
	var p Pack
	dec := yaml.NewDecoder(bytes.NewReader(data))
	dec.KnownFields(true)
	if err := dec.Decode(&p); err != nil && !errors.Is(err, io.EOF) {
		return nil, fmt.Errorf("parse yaml: %w", err)
	}
	return &p, nil
}

// Compile turns every rule of the pack into a rule definition. All invalid
// rules are reported together.
func (p *Pack) Compile() ([]lint.RuleDef, error) {
	defs := make([]lint.RuleDef, 0, len(p.Rules))
	var errs []error
	for i, r := range p.Rules {
		def, err := r.compile()
		if err != nil {
			errs = append(errs, fmt.Errorf("rule %d (%s): %w", i+1, r.Name, err))
			continue
		}
		defs = append(defs, def)
	}
	if err := errors.Join(errs...); err != nil {
		return nil, err
	}
	return defs, nil
}

// Registration lists what Register did to a registry.
type Registration struct {
	Added    []string // new rules
	Replaced []string // built-in rules shadowed by an override rule
}

// Register compiles the pack and registers its rules in reg. A rule marked
// override replaces the registered rule of the same name and is skipped
// when reg has no such rule; any other name clash fails with
// *lint.DuplicateRuleError.
func (p *Pack) Register(reg *lint.Registry) (Registration, error) {
	var out Registration
	defs, err := p.Compile()
	if err != nil {
		return out, fmt.Errorf("rule pack %s: %w", p.Path, err)
	}
	for i, def := range defs {
		if !p.Rules[i].Override {
			if err := reg.Register(def); err != nil {
				return out, fmt.Errorf("rule pack %s: %w", p.Path, err)
			}
			out.Added = append(out.Added, def.Name)
			continue
		}
		if _, ok := reg.Get(def.Name); !ok {
			continue
		}
		if _, err := reg.Override(def); err != nil {
			return out, fmt.Errorf("rule pack %s: %w", p.Path, err)
		}
		out.Replaced = append(out.Replaced, def.Name)
	}
	return out, nil
}

func (r Rule) compile() (lint.RuleDef, error) {
	if r.Name == "" || r.Pattern == "" {
		return lint.RuleDef{}, errors.New("name and pattern are required")
	}
	expr := r.Pattern
	if r.CaseInsensitive {
		expr = "(?i)" + expr
	}
	re, err := regexp.Compile(expr)
	if err != nil {
		return lint.RuleDef{}, fmt.Errorf("pattern: %w", err)
	}

	var sev core.Severity
	if r.Severity != "" {
		s, ok := core.ParseSeverity(r.Severity)
		if !ok {
			return lint.RuleDef{}, fmt.Errorf("invalid severity %q", r.Severity)
		}
		sev = s
	}

	fileTypes := make([]string, len(r.FileTypes))
	for i, ft := range r.FileTypes {
		ft = strings.ToLower(strings.TrimSpace(ft))
		if !strings.HasPrefix(ft, ".") {
			ft = "." + ft
		}
		fileTypes[i] = ft
	}

	message := r.Message
	if message == "" {
		message = "forbidden pattern {match}"
	}
	description := r.Description
	if description == "" {
		description = "Disallow " + r.Pattern
	}

	return lint.RuleDef{
		Name:        r.Name,
		Family:      lint.FamilyPattern,
		Description: description,
		Severity:    sev,
		Check: func(f *lint.File, _ lint.Options) ([]lint.Violation, error) {
			if len(fileTypes) > 0 && !slices.Contains(fileTypes, strings.ToLower(filepath.Ext(f.Path))) {
				return nil, nil
			}
			if len(r.Contexts) > 0 && !slices.Contains(r.Contexts, f.Context) {
				return nil, nil
			}
			var vs []lint.Violation
			for _, m := range lint.FindMatches(f.Lines(), re) {
				vs = append(vs, lint.At(m.Line, m.Column, strings.ReplaceAll(message, "{match}", m.Text)).
					WithContext(m.LineText).
					WithSuggestion(r.Suggestion))
			}
			return vs, nil
		},
	}, nil
}
