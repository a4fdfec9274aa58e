package cssarch

import (
	"strings"

	"github.com/leapstack-labs/archlint/pkg/core"
	"github.com/leapstack-labs/archlint/pkg/lint"
)

var skinsNoLayout = lint.RuleDef{
	Name:        "layer2-no-layout",
	Family:      lint.FamilyLayer,
	Description: "Skins must not define flex or grid layout",
	Severity:    core.SeverityError,
	ConfigKeys:  []string{"forbiddenProperties"},
	Rationale:   "Layout is owned by layer 3. A skin that sets display or gap fights with the layout layer and makes components impossible to rearrange.",
	BadExample:  ".card { display: flex; color: var(--color-text); }",
	GoodExample: ".card { color: var(--color-text); }",
	Fix:         "Move the declaration to the service's layer3.css.",
	Check: sheetCheck(func(s *Sheet, opts lint.Options) []lint.Violation {
		forbidden := opts.Strings("forbiddenProperties", nil)
		var vs []lint.Violation
		for _, d := range s.Decls {
			if d.InRoot() {
				continue
			}
			for _, entry := range forbidden {
				if matchesProperty(d, entry) {
					vs = append(vs, declViolation(s, d, "layout declaration %q is not allowed in skins", d.Property+": "+d.Value).
						WithSuggestion("move it to layer 3 (layout)"))
					break
				}
			}
		}
		return vs
	}),
}

var skinsNoCustomProperties = lint.RuleDef{
	Name:        "layer2-no-custom-properties",
	Family:      lint.FamilyLayer,
	Description: "Skins must not define CSS custom properties",
	Severity:    core.SeverityError,
	Rationale:   "Custom properties are tokens and live in layer 1; skins consume them.",
	BadExample:  ".card { --card-bg: #fff; }",
	GoodExample: ".card { background: var(--color-surface); }",
	Check: sheetCheck(func(s *Sheet, _ lint.Options) []lint.Violation {
		var vs []lint.Violation
		for _, d := range s.Decls {
			if d.IsCustomProperty() {
				vs = append(vs, declViolation(s, d, "custom property %s must be defined in layer 1", d.Property).
					WithSuggestion("add the token to layer1.css and reference it with var()"))
			}
		}
		return vs
	}),
}

var skinsNoUndefinedApply = lint.RuleDef{
	Name:        "layer2-no-undefined-apply",
	Family:      lint.FamilyLayer,
	Description: "@apply may only reference classes defined in the same file",
	Severity:    core.SeverityError,
	ConfigKeys:  []string{"applyAllowList"},
	Rationale:   "@apply of an unknown class silently pulls in utility styles and couples the skin to the utility framework.",
	BadExample:  ".btn { @apply px-4 py-2; }",
	GoodExample: ".btn-base { color: red; }\n.btn { @apply btn-base; }",
	Check: sheetCheck(func(s *Sheet, opts lint.Options) []lint.Violation {
		defined := s.DefinedClasses()
		for _, c := range opts.Strings("applyAllowList", nil) {
			defined[strings.TrimPrefix(c, ".")] = true
		}

		var vs []lint.Violation
		for _, at := range s.AtRules {
			if at.Name != "apply" {
				continue
			}
			for _, class := range strings.Fields(at.Params) {
				class = strings.TrimPrefix(class, ".")
				if class == "" || strings.HasPrefix(class, "!") {
					continue
				}
				if !defined[class] {
					vs = append(vs, lint.At(at.Line, at.Column, "@apply references undefined class "+class).
						WithContext(lineAt(s, at.Line)).
						WithSuggestion("define ."+class+" in this file or add it to applyAllowList"))
				}
			}
		}
		return vs
	}),
}
