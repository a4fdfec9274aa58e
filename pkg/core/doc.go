// Package core defines the vocabulary shared by every linter: severities
// and rule documentation.
//
// The Golden Rule: pkg/core imports only the standard library.
// All other packages depend on core, not the reverse.
package core
