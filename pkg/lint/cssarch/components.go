package cssarch

import (
	"regexp"
	"strings"
	"unicode/utf8"

	"github.com/leapstack-labs/archlint/pkg/core"
	"github.com/leapstack-labs/archlint/pkg/lint"
)

// classAttrPattern captures the literal value of className/class attributes,
// including the string inside className={`...`} or className={"..."}.
var classAttrPattern = regexp.MustCompile("\\bclass(?:Name)?\\s*=\\s*(?:\"([^\"]*)\"|'([^']*)'|\\{\\s*[`\"']([^`\"']*)[`\"']\\s*\\})")

// tailwindPattern recognises common Tailwind utility classes, with optional
// variant prefixes (md:, hover:) and arbitrary values (w-[12px]).
var tailwindPattern = regexp.MustCompile(`^(?:[a-z0-9-]+:)*-?(?:` +
	`(?:p|px|py|pt|pr|pb|pl|m|mx|my|mt|mr|mb|ml|w|h|min-w|min-h|max-w|max-h|size|space-x|space-y|gap|gap-x|gap-y|inset|top|right|bottom|left|z|order|basis|grow|shrink|col-span|row-span|cols|rows|text|font|leading|tracking|bg|from|via|to|border|border-[trblxy]|rounded|rounded-[trbl]{1,2}|shadow|ring|outline|opacity|blur|duration|delay|ease|animate|translate-x|translate-y|rotate|scale|items|justify|content|self|place|overflow|overflow-[xy]|object|cursor|select|decoration|underline-offset|line-clamp|aspect|grid-cols|grid-rows|flex|list|fill|stroke)-[\w./%#\[\]()-]+` +
	`|flex|inline-flex|grid|inline-grid|block|inline-block|inline|hidden|contents|table|relative|absolute|fixed|sticky|static|` +
	`underline|uppercase|lowercase|capitalize|italic|truncate|grow|shrink|container|sr-only|border|rounded|shadow|transition|antialiased` +
	`)$`)

var inlineStylePattern = regexp.MustCompile(`\bstyle\s*=\s*\{\s*\{`)

var componentsNoTailwind = lint.RuleDef{
	Name:        "components-no-tailwind",
	Family:      lint.FamilyPattern,
	Description: "Components must use layer classes instead of Tailwind utilities",
	Severity:    core.SeverityError,
	ConfigKeys:  []string{"allowedPrefixes"},
	Rationale:   "Utility classes in markup bypass the layer system; styling changes then require editing every component.",
	BadExample:  `<div className="flex gap-4 p-2">`,
	GoodExample: `<div className="blog-card">`,
	Check: func(f *lint.File, opts lint.Options) ([]lint.Violation, error) {
		allowed := opts.Strings("allowedPrefixes", nil)
		var vs []lint.Violation
		for i, line := range f.Lines() {
			if isCommentLine(line) {
				continue
			}
			for _, loc := range classAttrPattern.FindAllStringSubmatchIndex(line, -1) {
				start, end := attrValueBounds(loc)
				if start < 0 {
					continue
				}
				vs = append(vs, tailwindClasses(line, start, end, i+1, allowed)...)
			}
		}
		return vs, nil
	},
}

var componentsNoInlineStyle = lint.RuleDef{
	Name:        "components-no-inline-style",
	Family:      lint.FamilyPattern,
	Description: "Components should not set inline styles",
	Severity:    core.SeverityWarning,
	Rationale:   "Inline styles cannot be themed by skins and win over every layer.",
	BadExample:  `<div style={{ color: "red" }}>`,
	GoodExample: `<div className="alert-text">`,
	Check: func(f *lint.File, _ lint.Options) ([]lint.Violation, error) {
		var vs []lint.Violation
		for _, m := range lint.FindMatches(f.Lines(), inlineStylePattern) {
			if isCommentLine(m.LineText) {
				continue
			}
			vs = append(vs, lint.At(m.Line, m.Column, "inline style object").
				WithContext(m.LineText).
				WithSuggestion("add a class to the appropriate layer instead"))
		}
		return vs, nil
	},
}

// attrValueBounds returns the byte range of whichever alternative matched.
func attrValueBounds(loc []int) (int, int) {
	for g := 1; g <= 3; g++ {
		if loc[2*g] >= 0 {
			return loc[2*g], loc[2*g+1]
		}
	}
	return -1, -1
}

func tailwindClasses(line string, start, end, lineNo int, allowed []string) []lint.Violation {
	var vs []lint.Violation
	value := line[start:end]
	offset := 0
	for _, class := range strings.Fields(value) {
		idx := strings.Index(value[offset:], class) + offset
		offset = idx + len(class)
		if hasAnyPrefix(class, allowed) || !tailwindPattern.MatchString(class) {
			continue
		}
		col := utf8.RuneCountInString(line[:start+idx]) + 1
		vs = append(vs, lint.At(lineNo, col, "Tailwind utility class "+class+" used in component").
			WithContext(line).
			WithSuggestion("replace it with a class from the service's layer stylesheets"))
	}
	return vs
}

func isCommentLine(line string) bool {
	t := strings.TrimSpace(line)
	return strings.HasPrefix(t, "//") || strings.HasPrefix(t, "/*") || strings.HasPrefix(t, "*")
}
