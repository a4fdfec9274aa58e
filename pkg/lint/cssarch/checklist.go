package cssarch

// Checklist returns the self-review items a developer walks through after
// fixing violations in a file of the given layer.
func Checklist(layer string) []string {
	switch layer {
	case LayerTokens:
		return []string{
			"Every declaration is a custom property inside :root",
			"Token values are literals (no var() aliases)",
			"Token names follow the --{category}-{name} convention",
			"No !important",
		}
	case LayerSkins:
		return []string{
			"No display:flex/grid, gap or other layout declarations",
			"No custom property definitions; tokens are consumed via var()",
			"Every @apply target is defined in this file",
			"Colours, typography and borders reference layer 1 tokens",
			"No !important",
		}
	case LayerLayout:
		return []string{
			"Only flex/grid properties are used",
			"Token references appear only in gap properties and only for spacing tokens",
			"No colours, fonts or borders",
			"No !important",
		}
	case LayerAnimation:
		return []string{
			"Motion is declared with @keyframes and animation/transition properties",
			"Static styling lives in skins, not here",
			"Reduced-motion preferences are respected",
			"No !important",
		}
	case LayerUtilities:
		return []string{
			"Each utility class does one thing",
			"Utility names describe their effect, not their usage",
			"No !important",
		}
	case LayerComponents:
		return []string{
			"className values use layer classes, not Tailwind utilities",
			"No inline style objects",
			"New classes were added to the right layer stylesheet",
		}
	default:
		return nil
	}
}
