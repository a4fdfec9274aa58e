// Package cssarch implements the layered CSS architecture linter.
//
// Stylesheets are split into five layers, each with its own vocabulary:
//
//	layer1  design tokens   custom properties with raw values, :root only
//	layer2  skins           colour, typography, borders; no layout
//	layer3  layout          flex/grid properties only
//	layer4  animation       @keyframes and animation/transition properties
//	layer5  utilities       single-purpose helper classes
//
// Components (.ts/.tsx/.jsx) form a sixth context that must not use
// Tailwind utility classes directly. Rules are named "{layer}-..." and are
// selected for a file by its detected layer.
package cssarch

import (
	"fmt"
	"log/slog"
	"os"
	"path"
	"path/filepath"
	"regexp"
	"sort"
	"strings"

	"github.com/gobwas/glob"
)

// Layer identifiers.
const (
	LayerTokens     = "layer1"
	LayerSkins      = "layer2"
	LayerLayout     = "layer3"
	LayerAnimation  = "layer4"
	LayerUtilities  = "layer5"
	LayerComponents = "components"
)

// Layers lists the contexts in architectural order.
func Layers() []string {
	return []string{LayerTokens, LayerSkins, LayerLayout, LayerAnimation, LayerUtilities, LayerComponents}
}

// LayerTitle returns a human-readable name for a layer.
func LayerTitle(layer string) string {
	switch layer {
	case LayerTokens:
		return "Layer 1 (tokens)"
	case LayerSkins:
		return "Layer 2 (skins)"
	case LayerLayout:
		return "Layer 3 (layout)"
	case LayerAnimation:
		return "Layer 4 (animation)"
	case LayerUtilities:
		return "Layer 5 (utilities)"
	case LayerComponents:
		return "Components"
	default:
		return layer
	}
}

var layerFilePattern = regexp.MustCompile(`^layer([1-5])(?:[-_.]|$)`)

var componentExtensions = map[string]bool{".ts": true, ".tsx": true, ".jsx": true}

// Classifier detects the layer of a file.
type Classifier struct {
	patterns map[string][]glob.Glob
	order    []string
}

// NewClassifier builds a classifier. patterns maps a layer id to glob
// patterns that take precedence over file-name detection.
func NewClassifier(patterns map[string][]string) (*Classifier, error) {
	c := &Classifier{patterns: make(map[string][]glob.Glob)}
	for layer, globs := range patterns {
		for _, p := range globs {
			g, err := glob.Compile(p, '/')
			if err != nil {
				return nil, fmt.Errorf("layer %s: invalid pattern %q: %w", layer, p, err)
			}
			c.patterns[layer] = append(c.patterns[layer], g)
		}
		c.order = append(c.order, layer)
	}
	sort.Strings(c.order)
	return c, nil
}

// Classify returns the layer of a file, or false if it has none.
func (c *Classifier) Classify(p string) (string, bool) {
	slashed := filepath.ToSlash(p)
	if c != nil {
		for _, layer := range c.order {
			for _, g := range c.patterns[layer] {
				if g.Match(slashed) || g.Match(path.Base(slashed)) {
					return layer, true
				}
			}
		}
	}
	return Classify(p)
}

// Classify detects the layer from the file name alone: "layerN" prefixes
// for stylesheets, and script extensions for components.
func Classify(p string) (string, bool) {
	ext := strings.ToLower(filepath.Ext(p))
	if componentExtensions[ext] {
		return LayerComponents, true
	}
	if ext != ".css" {
		return "", false
	}
	base := strings.ToLower(strings.TrimSuffix(filepath.Base(p), filepath.Ext(p)))
	m := layerFilePattern.FindStringSubmatch(base)
	if m == nil {
		return "", false
	}
	return "layer" + m[1], true
}

// ServicePaths returns the stylesheet and component paths that make up a
// service: app/styles/<service>/layer{1..5}.css and app/components/<service>.
// Absent layer files are skipped.
func ServicePaths(root, service string, logger *slog.Logger) []string {
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	var paths []string
	for i := 1; i <= 5; i++ {
		p := filepath.Join(root, "app", "styles", service, fmt.Sprintf("layer%d.css", i))
		if _, err := os.Stat(p); err != nil {
			logger.Info("layer file not present, skipping", "path", p)
			continue
		}
		paths = append(paths, p)
	}
	components := filepath.Join(root, "app", "components", service)
	if info, err := os.Stat(components); err == nil && info.IsDir() {
		paths = append(paths, components)
	}
	return paths
}
