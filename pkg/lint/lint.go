package lint

import "github.com/leapstack-labs/archlint/pkg/core"

// Severity aliases core.Severity so rule packages need a single import.
type Severity = core.Severity

// Severity levels re-exported from core.
const (
	SeverityError   = core.SeverityError
	SeverityWarning = core.SeverityWarning
	SeverityInfo    = core.SeverityInfo
)

// ParseSeverity converts a string to a Severity value.
func ParseSeverity(s string) (Severity, bool) {
	return core.ParseSeverity(s)
}
