package cssarch

import (
	"strings"

	"github.com/leapstack-labs/archlint/pkg/lint"
)

// Keywords maps a layer id to the parameters shared by that layer's rules
// (allowed and forbidden vocabularies). Rule-specific options win over them.
type Keywords map[string]lint.Options

// DefaultKeywords returns the built-in vocabularies.
func DefaultKeywords() Keywords {
	return Keywords{
		LayerSkins: {
			"forbiddenProperties": []string{
				"display: flex", "display: inline-flex", "display: grid", "display: inline-grid",
				"flex", "flex-direction", "flex-wrap", "flex-flow", "flex-grow", "flex-shrink", "flex-basis",
				"justify-content", "justify-items", "align-items", "align-content", "align-self",
				"grid-template", "grid-template-columns", "grid-template-rows", "grid-template-areas",
				"grid-column", "grid-row", "grid-area", "grid-auto-flow",
				"gap", "row-gap", "column-gap", "order",
			},
			"applyAllowList": []string{},
		},
		LayerLayout: {
			"allowedProperties": []string{
				"display", "flex", "flex-direction", "flex-wrap", "flex-flow", "flex-grow", "flex-shrink",
				"flex-basis", "order", "justify-content", "justify-items", "justify-self",
				"align-items", "align-content", "align-self", "place-items", "place-content", "place-self",
				"gap", "row-gap", "column-gap", "grid", "grid-template", "grid-template-columns",
				"grid-template-rows", "grid-template-areas", "grid-auto-flow", "grid-auto-columns",
				"grid-auto-rows", "grid-column", "grid-column-start", "grid-column-end", "grid-row",
				"grid-row-start", "grid-row-end", "grid-area",
			},
			"tokenAllowedProperties": []string{"gap", "row-gap", "column-gap"},
			"tokenAllowedPrefixes":   []string{"--spacing"},
		},
		LayerAnimation: {
			"allowedOutsideKeyframes": []string{"animation", "animation-*", "transition", "transition-*", "will-change"},
		},
		LayerUtilities: {
			"maxDeclarations": 3,
		},
		LayerComponents: {
			"allowedPrefixes": []string{},
		},
	}
}

// Merge layers override on top of k, per layer and per key.
func (k Keywords) Merge(override Keywords) Keywords {
	out := make(Keywords, len(k))
	for layer, opts := range k {
		out[layer] = opts.Clone()
	}
	for layer, opts := range override {
		out[layer] = out[layer].Merge(opts)
	}
	return out
}

// Selector picks "{layer}-*" rules for a target and merges the layer's
// keywords beneath each rule's configured options.
type Selector struct {
	Config   *lint.Config
	Keywords Keywords
}

// Select implements lint.Selector.
func (s Selector) Select(reg *lint.Registry, target lint.Target) []lint.Applied {
	applied := lint.PrefixSelector{Config: s.Config}.Select(reg, target)
	layerOpts := s.Keywords[target.Context]
	for i := range applied {
		applied[i].Options = layerOpts.Merge(applied[i].Options)
	}
	return applied
}

// matchesProperty compares a declaration against a vocabulary entry.
// Entries are either a property name ("gap"), a property/value pair
// ("display: flex"), or a prefix wildcard ("animation-*").
func matchesProperty(d Decl, entry string) bool {
	entry = strings.ToLower(strings.TrimSpace(entry))
	if prop, value, ok := strings.Cut(entry, ":"); ok {
		return d.Property == strings.TrimSpace(prop) &&
			normalizeValue(d.Value) == normalizeValue(value)
	}
	if prefix, ok := strings.CutSuffix(entry, "*"); ok {
		return strings.HasPrefix(d.Property, prefix)
	}
	return d.Property == entry
}

func matchesAny(d Decl, entries []string) bool {
	for _, e := range entries {
		if matchesProperty(d, e) {
			return true
		}
	}
	return false
}

func normalizeValue(v string) string {
	return strings.Join(strings.Fields(strings.ToLower(v)), " ")
}
