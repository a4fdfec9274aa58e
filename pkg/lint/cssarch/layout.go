package cssarch

import (
	"strings"

	"github.com/leapstack-labs/archlint/pkg/core"
	"github.com/leapstack-labs/archlint/pkg/lint"
)

var layoutAllowedProperties = lint.RuleDef{
	Name:        "layer3-allowed-properties",
	Family:      lint.FamilyLayer,
	Description: "Layout may only use flex and grid properties",
	Severity:    core.SeverityError,
	ConfigKeys:  []string{"allowedProperties"},
	Rationale:   "Keeping layer 3 to an allow-list makes it possible to swap skins without touching layout, and vice versa.",
	BadExample:  ".grid { display: grid; color: red; }",
	GoodExample: ".grid { display: grid; gap: var(--spacing-4); }",
	Check: sheetCheck(func(s *Sheet, opts lint.Options) []lint.Violation {
		allowed := opts.Strings("allowedProperties", nil)
		var vs []lint.Violation
		for _, d := range s.Decls {
			if d.IsCustomProperty() || d.InRoot() || d.InKeyframes() {
				continue
			}
			if !matchesAny(d, allowed) {
				vs = append(vs, declViolation(s, d, "property %q is not a layout property", d.Property).
					WithSuggestion("move visual styling to layer 2 (skins)"))
			}
		}
		return vs
	}),
}

var layoutNoTokenReference = lint.RuleDef{
	Name:        "layer3-no-token-reference",
	Family:      lint.FamilyLayer,
	Description: "Layout must not reference tokens except spacing tokens in gap properties",
	Severity:    core.SeverityError,
	ConfigKeys:  []string{"tokenAllowedProperties", "tokenAllowedPrefixes"},
	Rationale:   "Layout should be structural. Spacing is the one token family that shapes structure, and only through gap.",
	BadExample:  ".stack { padding: var(--spacing-4); }",
	GoodExample: ".stack { gap: var(--spacing-4); }",
	Check: sheetCheck(func(s *Sheet, opts lint.Options) []lint.Violation {
		props := opts.Strings("tokenAllowedProperties", nil)
		prefixes := opts.Strings("tokenAllowedPrefixes", nil)

		var vs []lint.Violation
		for _, d := range s.Decls {
			for _, m := range varCallPattern.FindAllStringSubmatch(d.Value, -1) {
				token := m[1]
				if matchesAny(d, props) && hasAnyPrefix(token, prefixes) {
					continue
				}
				vs = append(vs, declViolation(s, d, "token reference %s is not allowed on %q", displayToken(token), d.Property).
					WithSuggestion("only gap-family properties may reference spacing tokens"))
			}
		}
		return vs
	}),
}

func hasAnyPrefix(s string, prefixes []string) bool {
	for _, p := range prefixes {
		if s != "" && strings.HasPrefix(s, p) {
			return true
		}
	}
	return false
}

func displayToken(token string) string {
	if token == "" {
		return "var()"
	}
	return "var(" + token + ")"
}
