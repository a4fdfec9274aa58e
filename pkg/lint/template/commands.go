package template

import (
	"fmt"
	"regexp"
	"strings"

	"github.com/leapstack-labs/archlint/pkg/core"
	"github.com/leapstack-labs/archlint/pkg/lint"
)

var (
	defaultCommands = []string{"npm run lint", "npm run test"}
	shellLangs      = map[string]bool{"bash": true, "sh": true, "shell": true, "zsh": true, "console": true}

	// incompleteRunPattern matches a package-manager run with no script.
	incompleteRunPattern = regexp.MustCompile(`^(?:npm|pnpm|yarn|bun)\s+run\s*$`)
)

var requiredCommands = lint.RuleDef{
	Name:        "required-commands",
	Family:      lint.FamilyStructure,
	Description: "Workflow documents must list the required commands in shell code blocks",
	Severity:    core.SeverityError,
	ConfigKeys:  []string{"commands"},
	Rationale:   "Workflows are executed by copy and paste; commands outside shell blocks or without a script name are not runnable.",
	BadExample:  "Run npm run lint before pushing.",
	GoodExample: "```bash\nnpm run lint\n```",
	Check: func(f *lint.File, opts lint.Options) ([]lint.Violation, error) {
		var (
			vs    []lint.Violation
			found = make(map[string]bool)
		)
		for _, fc := range fences(f.Lines()) {
			if !shellLangs[fc.Lang] {
				continue
			}
			for i, raw := range fc.Lines {
				cmd := normalizeCommand(raw)
				if cmd == "" {
					continue
				}
				if incompleteRunPattern.MatchString(cmd) {
					vs = append(vs, lint.At(fc.Start+i+1, 1, fmt.Sprintf("malformed command %q: missing script name", cmd)).
						WithContext(raw).
						WithSuggestion("use the form \"npm run <script>\""))
					continue
				}
				found[cmd] = true
			}
		}

		for _, want := range opts.Strings("commands", defaultCommands) {
			want = normalizeCommand(want)
			if !hasCommand(found, want) {
				vs = append(vs, lint.Violation{
					Message:    fmt.Sprintf("required command %q not found in a bash code block", want),
					Suggestion: "add it inside a ```bash block",
				})
			}
		}
		return vs, nil
	},
}

// normalizeCommand strips prompts and collapses whitespace.
func normalizeCommand(line string) string {
	line = strings.TrimSpace(line)
	line = strings.TrimPrefix(line, "$ ")
	if strings.HasPrefix(line, "#") {
		return ""
	}
	return strings.Join(strings.Fields(line), " ")
}

// hasCommand reports whether want was run, alone or with arguments.
func hasCommand(found map[string]bool, want string) bool {
	for cmd := range found {
		if cmd == want || strings.HasPrefix(cmd, want+" ") {
			return true
		}
	}
	return false
}
