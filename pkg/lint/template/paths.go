package template

import (
	"fmt"
	"path"
	"strings"
	"unicode/utf8"

	"github.com/leapstack-labs/archlint/pkg/core"
	"github.com/leapstack-labs/archlint/pkg/lint"
)

var filePathFormat = lint.RuleDef{
	Name:        "file-path-format",
	Family:      lint.FamilyStructure,
	Description: "File paths in code spans must be root-relative, have an extension and contain no spaces",
	Severity:    core.SeverityError,
	Rationale:   "Documented paths are used to generate and verify file lists; relative or ambiguous paths cannot be resolved.",
	BadExample:  "`./app/lib/user` `../styles/my file.css`",
	GoodExample: "`app/lib/user.ts` `app/components/blog/`",
	Check: func(f *lint.File, _ lint.Options) ([]lint.Violation, error) {
		lines := f.Lines()
		fenced := fencedLines(lines)

		var vs []lint.Violation
		for i, line := range lines {
			if fenced[i] {
				continue
			}
			for _, loc := range codeSpanPattern.FindAllStringSubmatchIndex(line, -1) {
				p := line[loc[2]:loc[3]]
				if !looksLikePath(p) {
					continue
				}
				col := utf8.RuneCountInString(line[:loc[2]]) + 1
				for _, problem := range pathProblems(p) {
					vs = append(vs, lint.At(i+1, col, fmt.Sprintf("path %q %s", p, problem.msg)).
						WithContext(line).
						WithSuggestion(problem.fix))
				}
			}
		}
		return vs, nil
	},
}

// looksLikePath filters code spans down to file references. The first
// word must contain a slash, which rules out shell commands like `cd app`.
func looksLikePath(s string) bool {
	fields := strings.Fields(s)
	if len(fields) == 0 || !strings.Contains(fields[0], "/") {
		return false
	}
	if strings.Contains(s, "://") || strings.ContainsAny(s, "*{}<>()=$|") {
		return false
	}
	return true
}

type pathProblem struct {
	msg string
	fix string
}

func pathProblems(p string) []pathProblem {
	var out []pathProblem
	if strings.HasPrefix(p, "./") || strings.HasPrefix(p, "../") {
		out = append(out, pathProblem{
			msg: "must be written from the project root",
			fix: "remove the ./ or ../ prefix and write the full path from the root",
		})
	}
	if strings.ContainsAny(p, " \t") {
		out = append(out, pathProblem{
			msg: "must not contain spaces",
			fix: "rename the file or use kebab-case",
		})
	}
	if !strings.HasSuffix(p, "/") && path.Ext(p) == "" {
		out = append(out, pathProblem{
			msg: "has no file extension",
			fix: "add the extension, or end directory paths with /",
		})
	}
	return out
}
