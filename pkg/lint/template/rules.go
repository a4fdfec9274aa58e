package template

import "github.com/leapstack-labs/archlint/pkg/lint"

// Rules holds every template rule.
var Rules = lint.NewRegistry("template")

func init() {
	Rules.MustRegister(
		bannedWords,
		maxLines,
		noImportant,
		requiredSections,
		sectionOrder,
		requiredCommands,
		filePathFormat,
	)
}
