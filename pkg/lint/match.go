package lint

import (
	"regexp"
	"unicode/utf8"
)

// ImportantPattern matches a CSS !important flag, tolerating whitespace
// after the bang.
var ImportantPattern = regexp.MustCompile(`!\s*important`)

// Match is one occurrence of a pattern in a file.
type Match struct {
	Line     int    // 1-based
	Column   int    // 1-based, in runes
	Text     string // matched text
	LineText string // the whole line
	Offset   int    // byte offset of the match within the line
}

// FindMatches returns every occurrence of re in lines, one Match per
// occurrence. Regexp values carry no match state, so a compiled pattern
// can be shared between rules and goroutines.
func FindMatches(lines []string, re *regexp.Regexp) []Match {
	var matches []Match
	for i, line := range lines {
		for _, loc := range re.FindAllStringIndex(line, -1) {
			if loc[1] == loc[0] {
				continue
			}
			matches = append(matches, Match{
				Line:     i + 1,
				Column:   utf8.RuneCountInString(line[:loc[0]]) + 1,
				Text:     line[loc[0]:loc[1]],
				LineText: line,
				Offset:   loc[0],
			})
		}
	}
	return matches
}
