package cssarch

import (
	"fmt"

	"github.com/leapstack-labs/archlint/pkg/core"
	"github.com/leapstack-labs/archlint/pkg/lint"
)

var animationKeyframesOnly = lint.RuleDef{
	Name:        "layer4-keyframes-only",
	Family:      lint.FamilyLayer,
	Description: "Animation layer declares keyframes and animation/transition properties only",
	Severity:    core.SeverityWarning,
	ConfigKeys:  []string{"allowedOutsideKeyframes"},
	Rationale:   "Motion is opt-in and removable; mixing static styling into layer 4 makes reduced-motion variants incomplete.",
	BadExample:  ".fade { opacity: 0; transition: opacity 200ms; }",
	GoodExample: ".fade { transition: opacity 200ms; }",
	Check: sheetCheck(func(s *Sheet, opts lint.Options) []lint.Violation {
		allowed := opts.Strings("allowedOutsideKeyframes", nil)
		var vs []lint.Violation
		for _, d := range s.Decls {
			if d.InKeyframes() || d.IsCustomProperty() || d.InRoot() {
				continue
			}
			if !matchesAny(d, allowed) {
				vs = append(vs, declViolation(s, d, "property %q belongs outside the animation layer", d.Property))
			}
		}
		return vs
	}),
}

var utilitiesSinglePurpose = lint.RuleDef{
	Name:        "layer5-single-purpose",
	Family:      lint.FamilyLayer,
	Description: "Utility classes should do one thing",
	Severity:    core.SeverityWarning,
	ConfigKeys:  []string{"maxDeclarations"},
	Rationale:   "A utility with many declarations is a component in disguise and belongs in a skin.",
	BadExample:  ".u-card { padding: 1rem; border: 1px solid; border-radius: 4px; box-shadow: none; }",
	GoodExample: ".u-hidden { display: none; }",
	Check: sheetCheck(func(s *Sheet, opts lint.Options) []lint.Violation {
		limit := opts.Int("maxDeclarations", 3)
		var vs []lint.Violation
		for _, b := range s.Blocks {
			if b.Declarations <= limit || isKeyframes(b.Selector) || isRootSelector(b.Selector) {
				continue
			}
			msg := fmt.Sprintf("utility %s has %d declarations (max %d)", b.Selector, b.Declarations, limit)
			vs = append(vs, lint.At(b.Line, b.Column, msg).
				WithContext(lineAt(s, b.Line)).
				WithSuggestion("split it into single-purpose utilities or move it to a skin"))
		}
		return vs
	}),
}
