package cssarch

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestScan_Declarations(t *testing.T) {
	css := `:root {
  --color-bg: #fff;
}
/* .commented { display: grid; } */
.card {
  color: red !important;
  background: url("a;b.png");
}
@media (min-width: 600px) {
  .card { padding: 1rem; }
}
`
	sheet := Scan(css)
	require.Len(t, sheet.Decls, 4)

	root := sheet.Decls[0]
	assert.Equal(t, "--color-bg", root.Property)
	assert.Equal(t, "#fff", root.Value)
	assert.True(t, root.InRoot())
	assert.True(t, root.IsCustomProperty())
	assert.Equal(t, 2, root.Line)
	assert.Equal(t, 3, root.Column)

	color := sheet.Decls[1]
	assert.Equal(t, "color", color.Property)
	assert.Equal(t, "red", color.Value)
	assert.True(t, color.Important)
	assert.False(t, color.InRoot())
	assert.Equal(t, 6, color.Line)

	bg := sheet.Decls[2]
	assert.Equal(t, `url("a;b.png")`, bg.Value)

	padding := sheet.Decls[3]
	assert.Equal(t, []string{"@media (min-width: 600px)", ".card"}, padding.Selectors)
	assert.Equal(t, 10, padding.Line)
	assert.Equal(t, 11, padding.Column)

	// Comments are blanked but columns are preserved.
	assert.Equal(t, len(`/* .commented { display: grid; } */`), len(sheet.Lines[3]))
	assert.NotContains(t, sheet.Lines[3], "display")
}

func TestScan_KeyframesAndBlocks(t *testing.T) {
	css := `@keyframes fade {
  from { opacity: 0; }
  to { opacity: 1; }
}
.u-hidden { display: none; }
`
	sheet := Scan(css)
	require.Len(t, sheet.Decls, 3)
	assert.True(t, sheet.Decls[0].InKeyframes())
	assert.False(t, sheet.Decls[2].InKeyframes())

	require.Len(t, sheet.Blocks, 4)
	assert.Equal(t, "@keyframes fade", sheet.Blocks[0].Selector)
	assert.Equal(t, 0, sheet.Blocks[0].Declarations)
	assert.Equal(t, ".u-hidden", sheet.Blocks[3].Selector)
	assert.Equal(t, 1, sheet.Blocks[3].Declarations)
	assert.Equal(t, 5, sheet.Blocks[3].Line)
}

func TestScan_AtRulesAndClasses(t *testing.T) {
	css := `.btn-base { color: red; }
.btn, .link:hover {
  @apply btn-base missing;
}
`
	sheet := Scan(css)
	require.Len(t, sheet.AtRules, 1)
	assert.Equal(t, "apply", sheet.AtRules[0].Name)
	assert.Equal(t, "btn-base missing", sheet.AtRules[0].Params)
	assert.Equal(t, 3, sheet.AtRules[0].Line)
	assert.Equal(t, 3, sheet.AtRules[0].Column)

	classes := sheet.DefinedClasses()
	assert.True(t, classes["btn-base"])
	assert.True(t, classes["btn"])
	assert.True(t, classes["link"])
	assert.False(t, classes["missing"])
}

func TestClassify(t *testing.T) {
	tests := []struct {
		path   string
		want   string
		wantOK bool
	}{
		{"app/styles/blog/layer1.css", LayerTokens, true},
		{"app/styles/blog/layer2-skin.css", LayerSkins, true},
		{"app/styles/blog/Layer3.css", LayerLayout, true},
		{"app/styles/blog/layer9.css", "", false},
		{"app/styles/blog/base.css", "", false},
		{"app/components/blog/Card.tsx", LayerComponents, true},
		{"app/components/blog/util.ts", LayerComponents, true},
		{"README.md", "", false},
	}

	for _, tt := range tests {
		t.Run(tt.path, func(t *testing.T) {
			got, ok := Classify(tt.path)
			assert.Equal(t, tt.wantOK, ok)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestClassifier_Patterns(t *testing.T) {
	c, err := NewClassifier(map[string][]string{LayerSkins: {"**/theme/*.css"}})
	require.NoError(t, err)

	got, ok := c.Classify("app/styles/theme/colors.css")
	assert.True(t, ok)
	assert.Equal(t, LayerSkins, got)

	got, ok = c.Classify("app/styles/blog/layer4.css")
	assert.True(t, ok)
	assert.Equal(t, LayerAnimation, got)

	_, err = NewClassifier(map[string][]string{LayerSkins: {"[unterminated"}})
	assert.Error(t, err)
}
