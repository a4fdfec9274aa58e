package cssarch

import (
	"regexp"
	"strings"

	"github.com/leapstack-labs/archlint/pkg/lint"
)

// Decl is a single property declaration inside a block.
type Decl struct {
	Property  string   // lower-cased property name
	Value     string   // value with any !important removed
	Important bool     // declaration carried !important
	Line      int      // 1-based line of the property name
	Column    int      // 1-based column of the property name
	Selectors []string // enclosing block headers, outermost first
}

// InRoot reports whether the declaration sits inside a :root block.
func (d Decl) InRoot() bool {
	for _, s := range d.Selectors {
		if isRootSelector(s) {
			return true
		}
	}
	return false
}

// InKeyframes reports whether the declaration sits inside @keyframes.
func (d Decl) InKeyframes() bool {
	for _, s := range d.Selectors {
		if isKeyframes(s) {
			return true
		}
	}
	return false
}

// IsCustomProperty reports whether the declaration defines a --variable.
func (d Decl) IsCustomProperty() bool {
	return strings.HasPrefix(d.Property, "--")
}

// AtRule is an at-rule statement such as @apply or @import.
type AtRule struct {
	Name      string // without the leading @, lower-cased
	Params    string
	Line      int
	Column    int
	Selectors []string
}

// Block is a `selector { ... }` region.
type Block struct {
	Selector     string
	Line         int
	Column       int
	Declarations int // direct declarations, nested blocks excluded
	Parents      []string
}

// Sheet is the result of scanning a stylesheet.
type Sheet struct {
	Decls   []Decl
	AtRules []AtRule
	Blocks  []Block
	// Lines holds the source with comments blanked out, preserving columns.
	Lines []string
}

type frame struct {
	block Block
	index int
}

// Scan walks a stylesheet once, tracking comment, string and block state.
// Column positions in Lines match the original source.
func Scan(content string) *Sheet {
	content = strings.ReplaceAll(content, "\r\n", "\n")
	sheet := &Sheet{}
	stripped := []byte(content)

	var (
		stack     []frame
		buf       strings.Builder
		started   bool
		startLine int
		startCol  int
		inComment bool
		quote     byte
		line      = 1
		col       = 0
	)

	selectors := func() []string {
		out := make([]string, len(stack))
		for i, f := range stack {
			out[i] = f.block.Selector
		}
		return out
	}

	reset := func() {
		buf.Reset()
		started = false
	}

	flush := func() {
		text := strings.TrimSpace(buf.String())
		defer reset()
		if text == "" {
			return
		}
		if strings.HasPrefix(text, "@") {
			name, params, _ := strings.Cut(text[1:], " ")
			sheet.AtRules = append(sheet.AtRules, AtRule{
				Name:      strings.ToLower(strings.TrimSpace(name)),
				Params:    strings.TrimSpace(params),
				Line:      startLine,
				Column:    startCol,
				Selectors: selectors(),
			})
			return
		}
		if len(stack) == 0 {
			return
		}
		prop, value, ok := strings.Cut(text, ":")
		if !ok {
			return
		}
		important := lint.ImportantPattern.MatchString(value)
		if important {
			value = lint.ImportantPattern.ReplaceAllString(value, "")
		}
		sheet.Decls = append(sheet.Decls, Decl{
			Property:  strings.ToLower(strings.TrimSpace(prop)),
			Value:     strings.TrimSpace(value),
			Important: important,
			Line:      startLine,
			Column:    startCol,
			Selectors: selectors(),
		})
		top := &stack[len(stack)-1]
		top.block.Declarations++
	}

	for i := 0; i < len(content); i++ {
		c := content[i]
		if c == '\n' {
			line++
			col = 0
			if !inComment && started {
				buf.WriteByte(' ')
			}
			continue
		}
		if c&0xC0 != 0x80 {
			col++
		}

		if inComment {
			stripped[i] = ' '
			if c == '*' && i+1 < len(content) && content[i+1] == '/' {
				stripped[i+1] = ' '
				i++
				col++
				inComment = false
			}
			continue
		}

		if quote != 0 {
			buf.WriteByte(c)
			if c == '\\' && i+1 < len(content) && content[i+1] != '\n' {
				buf.WriteByte(content[i+1])
				i++
				col++
			} else if c == quote {
				quote = 0
			}
			continue
		}

		switch c {
		case '/':
			if i+1 < len(content) && content[i+1] == '*' {
				inComment = true
				stripped[i] = ' '
				stripped[i+1] = ' '
				i++
				col++
				continue
			}
		case '"', '\'':
			quote = c
		case '{':
			header := strings.TrimSpace(buf.String())
			hl, hc := startLine, startCol
			if !started {
				hl, hc = line, col
			}
			parents := selectors()
			stack = append(stack, frame{
				block: Block{Selector: header, Line: hl, Column: hc, Parents: parents},
				index: len(sheet.Blocks),
			})
			sheet.Blocks = append(sheet.Blocks, Block{})
			reset()
			continue
		case '}':
			flush()
			if len(stack) > 0 {
				top := stack[len(stack)-1]
				sheet.Blocks[top.index] = top.block
				stack = stack[:len(stack)-1]
			}
			continue
		case ';':
			flush()
			continue
		}

		if !started {
			if c == ' ' || c == '\t' {
				continue
			}
			started = true
			startLine, startCol = line, col
		}
		buf.WriteByte(c)
	}

	// Unclosed blocks still count.
	for _, f := range stack {
		sheet.Blocks[f.index] = f.block
	}

	sheet.Lines = strings.Split(string(stripped), "\n")
	return sheet
}

// DefinedClasses returns every class name that appears in a block selector.
func (s *Sheet) DefinedClasses() map[string]bool {
	classes := make(map[string]bool)
	for _, b := range s.Blocks {
		for _, m := range classPattern.FindAllStringSubmatch(b.Selector, -1) {
			classes[m[1]] = true
		}
	}
	return classes
}

var classPattern = regexp.MustCompile(`\.(-?[A-Za-z_][\w-]*)`)

func isRootSelector(s string) bool {
	for _, part := range strings.Split(s, ",") {
		if strings.TrimSpace(part) == ":root" {
			return true
		}
	}
	return false
}

func isKeyframes(s string) bool {
	s = strings.ToLower(s)
	return strings.HasPrefix(s, "@keyframes") || strings.HasPrefix(s, "@-webkit-keyframes")
}
