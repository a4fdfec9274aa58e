package lint

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestOptions_Accessors(t *testing.T) {
	opts := Options{
		"max":     float64(300),
		"name":    "x",
		"enabled": true,
		"words":   []any{"TODO", 3, "FIXME"},
		"single":  "only",
	}

	assert.Equal(t, 300, opts.Int("max", 0))
	assert.Equal(t, 7, opts.Int("missing", 7))
	assert.Equal(t, "x", opts.String("name", ""))
	assert.Equal(t, "d", opts.String("max", "d"))
	assert.True(t, opts.Bool("enabled", false))
	assert.Equal(t, []string{"TODO", "FIXME"}, opts.Strings("words", nil))
	assert.Equal(t, []string{"only"}, opts.Strings("single", nil))

	var nilOpts Options
	assert.Equal(t, 1, nilOpts.Int("max", 1))
	assert.Nil(t, nilOpts.Strings("words", nil))
}

func TestOptions_Decode(t *testing.T) {
	type wordsConfig struct {
		Words []string `mapstructure:"words"`
		Max   int      `mapstructure:"max"`
	}

	var cfg wordsConfig
	require.NoError(t, Options{"words": []any{"TODO"}, "max": "12"}.Decode(&cfg))
	assert.Equal(t, []string{"TODO"}, cfg.Words)
	assert.Equal(t, 12, cfg.Max)
}

func TestOptions_Merge(t *testing.T) {
	base := Options{"a": 1, "b": 2}
	merged := base.Merge(Options{"b": 3})
	assert.Equal(t, Options{"a": 1, "b": 3}, merged)
	assert.Equal(t, 2, base["b"])
}

func TestFindMatches(t *testing.T) {
	lines := []string{"a !important; b !important;", "none", "日本 !important"}
	matches := FindMatches(lines, ImportantPattern)
	require.Len(t, matches, 3)
	assert.Equal(t, 1, matches[0].Line)
	assert.Equal(t, 3, matches[0].Column)
	assert.Equal(t, 17, matches[1].Column)
	assert.Equal(t, 3, matches[2].Line)
	assert.Equal(t, 4, matches[2].Column)
}
