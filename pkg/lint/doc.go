// Package lint provides the pluggable rule engine shared by the archlint linters.
//
// # Architecture
//
// The lint package follows a modular architecture:
//
//  1. Root package (pkg/lint/): rule definitions, registry, selectors, the engine and results
//  2. Resolver (pkg/lint/resolve/): turns CLI targets into classified files
//  3. Rule families (pkg/lint/cssarch/, pkg/lint/template/, pkg/lint/filelist/)
//  4. Custom rules (pkg/lint/pack/ for YAML rule packs, pkg/lint/script/ for Starlark)
//  5. Reporter (pkg/lint/report/): console, markdown and JSON output
//
// # Rule Registration
//
// Each linter owns a Registry and fills it from init():
//
//	var Rules = lint.NewRegistry("css")
//
//	func init() {
//		Rules.MustRegister(noImportant, noLayout)
//	}
//
// Registering the same name twice is an error; Override is the explicit
// replacement path.
//
// # Running
//
// A Selector decides which rules apply to a target. PrefixSelector matches
// rule names against the target context ("layer2" selects "layer2-*"):
//
//	cfg := lint.NewConfig()
//	cfg.Disable("layer5-single-purpose")
//	cfg.SetSeverity("layer2-no-layout", core.SeverityWarning)
//
//	eng := lint.NewEngine(cssarch.Rules, lint.PrefixSelector{Config: cfg}, lint.WithConfig(cfg))
//	result := eng.CheckFiles(ctx, targets)
//	os.Exit(lint.ExitCode(result.Violations))
//
// # Severity
//
// Under PolicyPerRule a violation's severity is the configured override, then
// the severity the check reported, then the rule default, then the engine
// default (error). PolicyStrict reports everything as an error.
package lint
