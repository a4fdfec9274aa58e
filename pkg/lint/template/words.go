package template

import (
	"regexp"
	"slices"
	"strings"
	"unicode"
	"unicode/utf8"

	"github.com/leapstack-labs/archlint/pkg/core"
	"github.com/leapstack-labs/archlint/pkg/lint"
)

// Contexts in which a banned word is tolerated.
const (
	ExceptComments   = "comments"
	ExceptStrings    = "strings"
	ExceptImports    = "imports"
	ExceptURLs       = "urls"
	ExceptInlineCode = "inlineCode"
	ExceptCodeBlocks = "codeBlocks"
)

var (
	defaultBannedWords = []string{"TODO", "FIXME", "console.log"}
	defaultExceptions  = []string{ExceptStrings, ExceptImports, ExceptURLs, ExceptInlineCode, ExceptCodeBlocks}

	urlPattern    = regexp.MustCompile(`[a-zA-Z][a-zA-Z0-9+.-]*://[^\s)>\]"']+`)
	importPattern = regexp.MustCompile(`^\s*(?:import\s|export\s.*\sfrom\s|@import\s)|\brequire\(`)
)

var bannedWords = lint.RuleDef{
	Name:        "banned-words",
	Family:      lint.FamilyPattern,
	Description: "Disallow configured words such as TODO, FIXME and console.log",
	Severity:    core.SeverityWarning,
	ConfigKeys:  []string{"words", "exceptions"},
	Rationale:   "Leftover markers and debug output slip into reviews and releases unnoticed.",
	BadExample:  "console.log(user)\n// TODO: handle errors",
	GoodExample: "logger.debug(user)",
	Fix:         "Resolve the marker or track it in the issue tracker. Exceptions: comments, strings, imports, urls, inlineCode, codeBlocks.",
	Check: func(f *lint.File, opts lint.Options) ([]lint.Violation, error) {
		words := opts.Strings("words", defaultBannedWords)
		exc := opts.Strings("exceptions", defaultExceptions)
		type banned struct {
			word string
			re   *regexp.Regexp
		}
		patterns := make([]banned, 0, len(words))
		for _, w := range words {
			if w = strings.TrimSpace(w); w != "" {
				patterns = append(patterns, banned{word: w, re: wordPattern(w)})
			}
		}

		lines := f.Lines()
		var fenced []bool
		if isMarkdown(f.Ext()) {
			fenced = fencedLines(lines)
		}

		var vs []lint.Violation
		for i, line := range lines {
			inFence := fenced != nil && fenced[i]
			for _, b := range patterns {
				for _, loc := range b.re.FindAllStringIndex(line, -1) {
					if shouldIgnore(line, loc[0], exc, inFence) {
						continue
					}
					col := utf8.RuneCountInString(line[:loc[0]]) + 1
					vs = append(vs, lint.At(i+1, col, "banned word \""+b.word+"\"").
						WithContext(line).
						WithSuggestion(bannedWordSuggestion(b.word)))
				}
			}
		}
		return vs, nil
	},
}

// wordPattern matches w literally, anchored on word boundaries where w
// starts or ends with a word character.
func wordPattern(w string) *regexp.Regexp {
	expr := regexp.QuoteMeta(w)
	if r, _ := utf8.DecodeRuneInString(w); isWordRune(r) {
		expr = `\b` + expr
	}
	if r, _ := utf8.DecodeLastRuneInString(w); isWordRune(r) {
		expr += `\b`
	}
	return regexp.MustCompile(expr)
}

func isWordRune(r rune) bool {
	return r == '_' || r < unicode.MaxASCII && (unicode.IsLetter(r) || unicode.IsDigit(r))
}

func bannedWordSuggestion(word string) string {
	switch strings.ToLower(word) {
	case "console.log":
		return "remove the debug output or use the application logger"
	case "todo", "fixme":
		return "resolve it or move it to the issue tracker"
	default:
		return "remove or replace the word"
	}
}

// shouldIgnore decides for a single match whether it sits in an excepted
// context. Matches on the same line are judged independently.
func shouldIgnore(line string, pos int, exceptions []string, inFence bool) bool {
	has := func(name string) bool { return slices.Contains(exceptions, name) }

	if has(ExceptCodeBlocks) && inFence {
		return true
	}
	if has(ExceptComments) && inComment(line, pos) {
		return true
	}
	if has(ExceptImports) && importPattern.MatchString(line) {
		return true
	}
	if has(ExceptURLs) && inSpan(urlPattern.FindAllStringIndex(line, -1), pos) {
		return true
	}
	if has(ExceptInlineCode) && insideDelimiter(line, pos, '`') {
		return true
	}
	if has(ExceptStrings) && (insideDelimiter(line, pos, '"') || insideSingleQuotes(line, pos)) {
		return true
	}
	return false
}

// inComment reports whether pos follows a line or block comment opener.
func inComment(line string, pos int) bool {
	t := strings.TrimSpace(line)
	if strings.HasPrefix(t, "//") || strings.HasPrefix(t, "/*") || strings.HasPrefix(t, "*") || strings.HasPrefix(t, "<!--") {
		return true
	}
	for i := 0; i+1 < pos && i+1 < len(line); i++ {
		if line[i] == '/' && line[i+1] == '/' && (i == 0 || line[i-1] != ':') {
			return true
		}
		if line[i] == '/' && line[i+1] == '*' {
			return !strings.Contains(line[i:pos], "*/")
		}
		if strings.HasPrefix(line[i:], "<!--") {
			return !strings.Contains(line[i:pos], "-->")
		}
	}
	return false
}

func inSpan(spans [][]int, pos int) bool {
	for _, s := range spans {
		if pos >= s[0] && pos < s[1] {
			return true
		}
	}
	return false
}

// insideDelimiter reports whether an odd number of unescaped delimiters
// precede pos on the line.
// insideSingleQuotes is insideDelimiter for '. An apostrophe inside a word
// ("don't") neither opens nor closes a literal.
func insideSingleQuotes(line string, pos int) bool {
	open := false
	for i := 0; i < pos && i < len(line); i++ {
		switch line[i] {
		case '\\':
			i++
		case '\'':
			if open {
				open = false
			} else if i == 0 || !isWordByte(line[i-1]) {
				open = true
			}
		}
	}
	return open
}

func isWordByte(b byte) bool {
	return b == '_' || b >= '0' && b <= '9' || b >= 'a' && b <= 'z' || b >= 'A' && b <= 'Z' || b >= 0x80
}

func insideDelimiter(line string, pos int, delim byte) bool {
	open := false
	for i := 0; i < pos && i < len(line); i++ {
		switch line[i] {
		case '\\':
			i++
		case delim:
			open = !open
		}
	}
	return open
}
