package cssarch

import (
	"fmt"

	"github.com/leapstack-labs/archlint/pkg/core"
	"github.com/leapstack-labs/archlint/pkg/lint"
)

// Rules holds every CSS architecture rule.
var Rules = lint.NewRegistry("css")

func init() {
	for _, layer := range []string{LayerTokens, LayerSkins, LayerLayout, LayerAnimation, LayerUtilities} {
		Rules.MustRegister(noImportantRule(layer))
	}
	Rules.MustRegister(
		tokensNoVarReference,
		tokensRootOnly,
		skinsNoLayout,
		skinsNoCustomProperties,
		skinsNoUndefinedApply,
		layoutAllowedProperties,
		layoutNoTokenReference,
		animationKeyframesOnly,
		utilitiesSinglePurpose,
		componentsNoTailwind,
		componentsNoInlineStyle,
	)
}

// sheetCheck adapts a check over a scanned stylesheet to a lint.CheckFunc.
func sheetCheck(fn func(s *Sheet, opts lint.Options) []lint.Violation) lint.CheckFunc {
	return func(f *lint.File, opts lint.Options) ([]lint.Violation, error) {
		return fn(Scan(f.Content), opts), nil
	}
}

// lineAt returns the source text of a 1-based line, or "".
func lineAt(s *Sheet, n int) string {
	if n < 1 || n > len(s.Lines) {
		return ""
	}
	return s.Lines[n-1]
}

func declViolation(s *Sheet, d Decl, format string, args ...any) lint.Violation {
	return lint.At(d.Line, d.Column, fmt.Sprintf(format, args...)).WithContext(lineAt(s, d.Line))
}

func noImportantRule(layer string) lint.RuleDef {
	return lint.RuleDef{
		Name:        layer + "-no-important",
		Family:      lint.FamilyPattern,
		Description: "Disallow !important in " + LayerTitle(layer),
		Severity:    core.SeverityError,
		Rationale:   "!important breaks the cascade order the layers rely on; a later layer can no longer override an earlier one.",
		BadExample:  ".card { color: red !important; }",
		GoodExample: ".card { color: red; }",
		Fix:         "Raise specificity in the layer that owns the property, or move the declaration to a later layer.",
		Check: sheetCheck(func(s *Sheet, _ lint.Options) []lint.Violation {
			var vs []lint.Violation
			for _, m := range lint.FindMatches(s.Lines, lint.ImportantPattern) {
				vs = append(vs, lint.At(m.Line, m.Column, "!important is not allowed").
					WithContext(m.LineText).
					WithSuggestion("remove !important and fix the cascade instead"))
			}
			return vs
		}),
	}
}
