package template

import (
	"regexp"
	"strings"
)

var (
	headingPattern  = regexp.MustCompile(`^(#{1,6})\s+(.+?)\s*#*\s*$`)
	fencePattern    = regexp.MustCompile("^\\s*(```+|~~~+)\\s*([\\w+-]*)")
	codeSpanPattern = regexp.MustCompile("`([^`]+)`")
)

func splitLines(content string) []string {
	return strings.Split(strings.ReplaceAll(content, "\r\n", "\n"), "\n")
}

type heading struct {
	Level int
	Text  string
	Line  int
}

// headings returns ATX headings outside fenced code blocks.
func headings(lines []string) []heading {
	var out []heading
	inFence := fencedLines(lines)
	for i, line := range lines {
		if inFence[i] {
			continue
		}
		if m := headingPattern.FindStringSubmatch(line); m != nil {
			out = append(out, heading{Level: len(m[1]), Text: m[2], Line: i + 1})
		}
	}
	return out
}

// headingTexts returns the lower-cased text of every heading.
func headingTexts(lines []string) map[string]bool {
	out := make(map[string]bool)
	for _, h := range headings(lines) {
		out[strings.ToLower(h.Text)] = true
	}
	return out
}

// sectionName strips markdown heading markers from a configured section.
func sectionName(s string) string {
	return strings.ToLower(strings.TrimSpace(strings.TrimLeft(strings.TrimSpace(s), "#")))
}

type fence struct {
	Lang  string
	Start int // 1-based line of the opening delimiter
	Lines []string
}

// fences returns every fenced code block. An unterminated fence runs to the
// end of the document.
func fences(lines []string) []fence {
	var (
		out    []fence
		cur    *fence
		marker string
	)
	for i, line := range lines {
		m := fencePattern.FindStringSubmatch(line)
		if cur == nil {
			if m != nil {
				cur = &fence{Lang: strings.ToLower(m[2]), Start: i + 1}
				marker = m[1]
			}
			continue
		}
		if m != nil && strings.HasPrefix(m[1], marker[:1]) && len(m[1]) >= len(marker) && m[2] == "" {
			out = append(out, *cur)
			cur = nil
			continue
		}
		cur.Lines = append(cur.Lines, line)
	}
	if cur != nil {
		out = append(out, *cur)
	}
	return out
}

// fencedLines marks the lines that belong to a fenced block, delimiters
// included.
func fencedLines(lines []string) []bool {
	mask := make([]bool, len(lines))
	for _, f := range fences(lines) {
		for i := f.Start - 1; i < f.Start+len(f.Lines) && i < len(lines); i++ {
			mask[i] = true
		}
		if end := f.Start + len(f.Lines); end < len(lines) {
			mask[end] = true
		}
	}
	return mask
}

func isMarkdown(ext string) bool {
	return ext == ".md" || ext == ".mdx"
}
