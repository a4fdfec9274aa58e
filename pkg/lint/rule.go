package lint

import (
	"fmt"
	"strings"
)

// Family is the closed set of rule categories. Every rule belongs to
// exactly one family; switches over Family are expected to be exhaustive.
type Family int

// Rule families.
const (
	familyInvalid Family = iota
	// FamilyPattern rules match forbidden text per line (banned words, !important).
	FamilyPattern
	// FamilyLayer rules enforce per-layer vocabularies using block tracking.
	FamilyLayer
	// FamilyStructure rules check document structure (sections, order, paths).
	FamilyStructure
	// FamilySize rules check file size limits.
	FamilySize
	// FamilyFileList rules compare declared file lists against the disk.
	FamilyFileList
	// FamilyScript rules are user-supplied Starlark checks.
	FamilyScript
)

// Families lists all valid families in declaration order.
func Families() []Family {
	return []Family{FamilyPattern, FamilyLayer, FamilyStructure, FamilySize, FamilyFileList, FamilyScript}
}

// String returns the family name.
func (f Family) String() string {
	switch f {
	case FamilyPattern:
		return "pattern"
	case FamilyLayer:
		return "layer"
	case FamilyStructure:
		return "structure"
	case FamilySize:
		return "size"
	case FamilyFileList:
		return "filelist"
	case FamilyScript:
		return "script"
	case familyInvalid:
		return "invalid"
	default:
		return fmt.Sprintf("family(%d)", int(f))
	}
}

// Valid reports whether f is one of the declared families.
func (f Family) Valid() bool {
	switch f {
	case FamilyPattern, FamilyLayer, FamilyStructure, FamilySize, FamilyFileList, FamilyScript:
		return true
	case familyInvalid:
		return false
	default:
		return false
	}
}

// ParseFamily converts a family name to a Family.
func ParseFamily(s string) (Family, bool) {
	for _, f := range Families() {
		if f.String() == strings.ToLower(strings.TrimSpace(s)) {
			return f, true
		}
	}
	return familyInvalid, false
}

// MarshalText implements encoding.TextMarshaler.
func (f Family) MarshalText() ([]byte, error) {
	return []byte(f.String()), nil
}
