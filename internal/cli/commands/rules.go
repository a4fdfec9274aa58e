package commands

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/leapstack-labs/archlint/internal/cli/output"
	"github.com/leapstack-labs/archlint/pkg/core"
	"github.com/leapstack-labs/archlint/pkg/lint"
	"github.com/leapstack-labs/archlint/pkg/lint/cssarch"
	"github.com/leapstack-labs/archlint/pkg/lint/filelist"
	"github.com/leapstack-labs/archlint/pkg/lint/template"
)

// customLinter labels rules loaded from packs and scripts.
const customLinter = "custom"

// RulesOptions holds options for the rules command.
type RulesOptions struct {
	Linter  string // Filter by linter: css, template, filelist, custom
	Family  string // Filter by family
	Verbose bool   // Show full documentation
	Format  string // Output format
}

// NewRulesCommand creates the rules command.
func NewRulesCommand() *cobra.Command {
	opts := &RulesOptions{}
	cmd := &cobra.Command{
		Use:   "rules [NAME]",
		Short: "List available lint rules",
		Long: `List all available lint rules with their documentation.

Rules are organized by linter (css, template, filelist, and custom rules
from packs and scripts) and family (pattern, layer, structure, ...).
Use --verbose to see full documentation including examples and fix guidance.

Output adapts to environment:
  - Terminal: Styled output with colors
  - Piped/Scripted: Markdown format
  - JSON: Machine-readable format`,
		Example: `  # List all rules
  archlint rules

  # Show details for a specific rule
  archlint rules layer2-no-layout

  # List the css rules only
  archlint rules --linter css

  # List the pattern rules
  archlint rules --family pattern

  # Output as JSON
  archlint rules --format json`,
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if len(args) > 0 {
				return showRule(cmd, args[0], opts)
			}
			return listRules(cmd, opts)
		},
	}

	cmd.Flags().StringVar(&opts.Linter, "linter", "", "Filter by linter: css, template, filelist, custom")
	cmd.Flags().StringVar(&opts.Family, "family", "", "Filter by family")
	cmd.Flags().BoolVarP(&opts.Verbose, "verbose", "V", false, "Show full documentation")
	cmd.Flags().StringVarP(&opts.Format, "format", "f", "", "Output format: text, json, markdown")

	_ = cmd.RegisterFlagCompletionFunc("linter", func(_ *cobra.Command, _ []string, _ string) ([]string, cobra.ShellCompDirective) {
		return []string{"css", "template", "filelist", customLinter}, cobra.ShellCompDirectiveNoFileComp
	})
	_ = cmd.RegisterFlagCompletionFunc("family", func(_ *cobra.Command, _ []string, _ string) ([]string, cobra.ShellCompDirective) {
		var names []string
		for _, f := range lint.Families() {
			names = append(names, f.String())
		}
		return names, cobra.ShellCompDirectiveNoFileComp
	})

	return cmd
}

// allRules returns the documentation of every built-in and custom rule,
// ordered by linter then name.
func allRules(cc *CommandContext) ([]core.RuleInfo, error) {
	var infos []core.RuleInfo
	for _, reg := range []*lint.Registry{cssarch.Rules, template.Rules, filelist.Rules} {
		for _, def := range reg.All() {
			infos = append(infos, def.Info(reg.Name()))
		}
	}
	custom, err := loadCustomRules(cc.Cfg)
	if err != nil {
		return nil, err
	}
	defs, err := custom.defs()
	if err != nil {
		return nil, err
	}
	for _, def := range defs {
		infos = append(infos, def.Info(customLinter))
	}
	return infos, nil
}

func filterRules(rules []core.RuleInfo, opts *RulesOptions) ([]core.RuleInfo, error) {
	if opts.Family != "" {
		if _, ok := lint.ParseFamily(opts.Family); !ok {
			return nil, fmt.Errorf("--family: unknown family %q", opts.Family)
		}
	}
	var out []core.RuleInfo
	for _, rule := range rules {
		if opts.Linter != "" && !strings.EqualFold(rule.Linter, opts.Linter) {
			continue
		}
		if opts.Family != "" && !strings.EqualFold(rule.Family, opts.Family) {
			continue
		}
		out = append(out, rule)
	}
	return out, nil
}

func listRules(cmd *cobra.Command, opts *RulesOptions) error {
	cc, err := NewCommandContext(cmd)
	if err != nil {
		return err
	}
	r := cc.WithFormat(cmd, opts.Format)

	rules, err := allRules(cc)
	if err != nil {
		return err
	}
	rules, err = filterRules(rules, opts)
	if err != nil {
		return err
	}

	switch r.EffectiveMode() {
	case output.ModeJSON:
		if rules == nil {
			rules = []core.RuleInfo{}
		}
		return r.JSON(rules)
	case output.ModeMarkdown:
		listRulesMarkdown(r, rules, opts.Verbose)
	default:
		listRulesText(r, rules, opts.Verbose)
	}
	return nil
}

func listRulesText(r *output.Renderer, rules []core.RuleInfo, verbose bool) {
	styles := r.Styles()

	r.Println("")
	r.Println(styles.Header1.Render(fmt.Sprintf("Lint Rules (%d)", len(rules))))
	r.Println("")

	if !verbose {
		rows := make([][]string, 0, len(rules))
		for _, rule := range rules {
			rows = append(rows, []string{rule.Name, rule.Linter, rule.Family, rule.DefaultSeverity.String(), rule.Description})
		}
		r.Table([]string{"Rule", "Linter", "Family", "Severity", "Description"}, rows)
	} else {
		currentLinter := ""
		for _, rule := range rules {
			if rule.Linter != currentLinter {
				currentLinter = rule.Linter
				r.Println(styles.Header2.Render(capitalizeFirst(currentLinter)))
				r.Println("")
			}
			r.Printf("  %s  %s [%s]\n",
				styles.Severity(rule.DefaultSeverity).Render(rule.DefaultSeverity.String()),
				styles.Bold.Render(rule.Name),
				rule.Family,
			)
			r.Println(styles.Muted.Render("      " + rule.Description))
			if rule.Rationale != "" {
				r.Println(styles.Muted.Render("      Why: " + truncateOneLine(rule.Rationale, 80)))
			}
			r.Println("")
		}
	}

	r.Println("")
	r.Println(styles.Muted.Render("Use 'archlint rules <name>' for detailed documentation"))
	r.Println("")
}

func listRulesMarkdown(r *output.Renderer, rules []core.RuleInfo, verbose bool) {
	r.Println("# Lint Rules")
	r.Println("")

	currentLinter := ""
	for _, rule := range rules {
		if rule.Linter != currentLinter {
			if currentLinter != "" {
				r.Println("")
			}
			currentLinter = rule.Linter
			r.Println("## " + capitalizeFirst(currentLinter))
			r.Println("")
		}
		r.Printf("- **%s** (`%s`, %s) - %s\n", rule.Name, rule.DefaultSeverity.String(), rule.Family, rule.Description)
		if verbose && rule.Rationale != "" {
			r.Println("  > " + rule.Rationale)
		}
	}
	r.Println("")
}

func showRule(cmd *cobra.Command, name string, opts *RulesOptions) error {
	cc, err := NewCommandContext(cmd)
	if err != nil {
		return err
	}
	r := cc.WithFormat(cmd, opts.Format)

	rules, err := allRules(cc)
	if err != nil {
		return err
	}
	var found *core.RuleInfo
	for i := range rules {
		if rules[i].Name == name {
			found = &rules[i]
			break
		}
	}
	if found == nil {
		return &lint.UnknownRuleError{Names: []string{name}}
	}

	switch r.EffectiveMode() {
	case output.ModeJSON:
		return r.JSON(found)
	case output.ModeMarkdown:
		showRuleMarkdown(r, found)
	default:
		showRuleText(r, found)
	}
	return nil
}

func showRuleText(r *output.Renderer, rule *core.RuleInfo) {
	styles := r.Styles()

	r.Println("")
	r.Println(styles.Header1.Render(rule.Name))
	r.Println("")

	r.Printf("  %s: %s\n", styles.Bold.Render("Linter"), rule.Linter)
	r.Printf("  %s: %s\n", styles.Bold.Render("Family"), rule.Family)
	r.Printf("  %s: %s\n", styles.Bold.Render("Severity"), rule.DefaultSeverity.String())
	if len(rule.ConfigKeys) > 0 {
		r.Printf("  %s: %s\n", styles.Bold.Render("Options"), strings.Join(rule.ConfigKeys, ", "))
	}
	r.Println("")

	r.Println(styles.Bold.Render("Description"))
	r.Println("  " + rule.Description)
	r.Println("")

	if rule.Rationale != "" {
		r.Println(styles.Bold.Render("Why This Matters"))
		r.Println("  " + rule.Rationale)
		r.Println("")
	}
	if rule.BadExample != "" {
		r.Println(styles.Bold.Render("Bad"))
		r.Println(indent(rule.BadExample, "  "))
		r.Println("")
	}
	if rule.GoodExample != "" {
		r.Println(styles.Bold.Render("Good"))
		r.Println(indent(rule.GoodExample, "  "))
		r.Println("")
	}
	if rule.Fix != "" {
		r.Println(styles.Bold.Render("How to Fix"))
		r.Println("  " + rule.Fix)
		r.Println("")
	}
}

func showRuleMarkdown(r *output.Renderer, rule *core.RuleInfo) {
	lang := ""
	if rule.Linter == "css" {
		lang = "css"
	}

	r.Println(output.FormatHeader(1, rule.Name))
	r.Println(output.FormatKeyValue("Linter", rule.Linter))
	r.Println(output.FormatKeyValue("Family", rule.Family))
	r.Println(output.FormatKeyValue("Severity", rule.DefaultSeverity.String()))
	if len(rule.ConfigKeys) > 0 {
		r.Println(output.FormatKeyValue("Options", strings.Join(rule.ConfigKeys, ", ")))
	}
	r.Println("")
	r.Println(rule.Description)
	r.Println("")

	if rule.Rationale != "" {
		r.Println(output.FormatHeader(2, "Why This Matters"))
		r.Println(rule.Rationale)
		r.Println("")
	}
	if rule.BadExample != "" {
		r.Println(output.FormatHeader(2, "Bad"))
		r.Println(output.FormatCodeBlock(lang, rule.BadExample))
	}
	if rule.GoodExample != "" {
		r.Println(output.FormatHeader(2, "Good"))
		r.Println(output.FormatCodeBlock(lang, rule.GoodExample))
	}
	if rule.Fix != "" {
		r.Println(output.FormatHeader(2, "How to Fix"))
		r.Println(rule.Fix)
	}
}

func capitalizeFirst(s string) string {
	if s == "" {
		return s
	}
	return strings.ToUpper(s[:1]) + s[1:]
}

func truncateOneLine(s string, maxLen int) string {
	s = strings.ReplaceAll(s, "\n", " ")
	if len(s) <= maxLen {
		return s
	}
	return s[:maxLen-3] + "..."
}

func indent(s, prefix string) string {
	lines := strings.Split(strings.TrimRight(s, "\n"), "\n")
	for i, l := range lines {
		lines[i] = prefix + l
	}
	return strings.Join(lines, "\n")
}
