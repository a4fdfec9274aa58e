package cssarch

import (
	"regexp"

	"github.com/leapstack-labs/archlint/pkg/core"
	"github.com/leapstack-labs/archlint/pkg/lint"
)

var varCallPattern = regexp.MustCompile(`var\(\s*(--[\w-]*)?`)

var tokensNoVarReference = lint.RuleDef{
	Name:        "layer1-no-var-reference",
	Family:      lint.FamilyLayer,
	Description: "Design tokens must hold raw values, not var() references",
	Severity:    core.SeverityError,
	Rationale:   "Tokens are the source of truth. Aliasing one token to another hides the real value and creates ordering dependencies inside layer 1.",
	BadExample:  ":root { --color-link: var(--color-blue); }",
	GoodExample: ":root { --color-link: #1d4ed8; }",
	Check: sheetCheck(func(s *Sheet, _ lint.Options) []lint.Violation {
		var vs []lint.Violation
		for _, m := range lint.FindMatches(s.Lines, varCallPattern) {
			vs = append(vs, lint.At(m.Line, m.Column, "var() reference in a token definition").
				WithContext(m.LineText).
				WithSuggestion("replace the reference with a literal value"))
		}
		return vs
	}),
}

var tokensRootOnly = lint.RuleDef{
	Name:        "layer1-root-only",
	Family:      lint.FamilyLayer,
	Description: "Layer 1 may only declare custom properties inside :root",
	Severity:    core.SeverityError,
	Rationale:   "Tokens are global. Declaring them under other selectors scopes them accidentally, and plain properties belong to later layers.",
	BadExample:  ".dark { --color-bg: #000; }",
	GoodExample: ":root { --color-bg: #fff; }",
	Check: sheetCheck(func(s *Sheet, _ lint.Options) []lint.Violation {
		var vs []lint.Violation
		for _, d := range s.Decls {
			switch {
			case !d.IsCustomProperty():
				vs = append(vs, declViolation(s, d, "property %q is not a design token", d.Property).
					WithSuggestion("move styling declarations to layer 2 or later"))
			case !d.InRoot():
				vs = append(vs, declViolation(s, d, "token %s must be declared inside :root", d.Property))
			}
		}
		return vs
	}),
}
