package commands

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"path/filepath"
	"slices"
	"strings"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/leapstack-labs/archlint/internal/cli/config"
	"github.com/leapstack-labs/archlint/internal/cli/output"
	"github.com/leapstack-labs/archlint/internal/history"
	"github.com/leapstack-labs/archlint/internal/watch"
	"github.com/leapstack-labs/archlint/pkg/core"
	"github.com/leapstack-labs/archlint/pkg/lint"
	"github.com/leapstack-labs/archlint/pkg/lint/cssarch"
	"github.com/leapstack-labs/archlint/pkg/lint/filelist"
	"github.com/leapstack-labs/archlint/pkg/lint/pack"
	"github.com/leapstack-labs/archlint/pkg/lint/report"
	"github.com/leapstack-labs/archlint/pkg/lint/resolve"
	"github.com/leapstack-labs/archlint/pkg/lint/script"
	"github.com/leapstack-labs/archlint/pkg/lint/template"
)

// ErrLintFailed is returned when a run found error-level violations. The
// root command exits 1 for it without printing an error banner.
var ErrLintFailed = errors.New("lint errors found")

// LintOptions holds the options shared by the lint commands.
type LintOptions struct {
	Format   string   // Output format: text, markdown, json
	Disable  []string // Rules to disable
	Severity string   // Minimum severity shown: error, warning, info
	Rules    []string // Run only these rules
	Context  bool     // Print the offending source line
	Report   bool     // Write a markdown report under tests/lint
}

func addLintFlags(cmd *cobra.Command, opts *LintOptions) {
	cmd.Flags().StringVarP(&opts.Format, "format", "f", "", "Output format: text, markdown, json")
	cmd.Flags().StringSliceVar(&opts.Disable, "disable", nil, "Rules to disable")
	cmd.Flags().StringVar(&opts.Severity, "severity", "info", "Minimum severity shown: error, warning, info")
	cmd.Flags().StringSliceVar(&opts.Rules, "rule", nil, "Run only these rules")
	cmd.Flags().BoolVar(&opts.Context, "context", false, "Show the offending source line")
	cmd.Flags().BoolVar(&opts.Report, "report", false, "Also write a markdown report to "+report.ReportDir)

	_ = cmd.RegisterFlagCompletionFunc("format", func(_ *cobra.Command, _ []string, _ string) ([]string, cobra.ShellCompDirective) {
		return []string{"text", "markdown", "json"}, cobra.ShellCompDirectiveNoFileComp
	})
	_ = cmd.RegisterFlagCompletionFunc("severity", func(_ *cobra.Command, _ []string, _ string) ([]string, cobra.ShellCompDirective) {
		return []string{"error", "warning", "info"}, cobra.ShellCompDirectiveNoFileComp
	})
}

var cssExtensions = []string{".css", ".ts", ".tsx", ".jsx"}

// job is one linter's engine together with the targets it checks.
type job struct {
	linter  string
	engine  *lint.Engine
	targets []lint.Target
	watch   []string          // paths watched in --watch mode
	exts    []string          // extensions that trigger a re-run; nil means all
	layers  map[string]string // css only: file -> layer, for checklists
}

// linterRun describes one invocation of a lint command.
type linterRun struct {
	name   string // recorded in history: css, template, filelist or lint
	title  string // markdown title
	prefix string // report file name prefix
	args   []string
	build  func(e *linterEnv) ([]*job, error)
}

// linterEnv holds what every job of a command needs. It is built once per
// command, before any file is checked.
type linterEnv struct {
	cc        *CommandContext
	opts      *LintOptions
	renderer  *output.Renderer
	threshold core.Severity
	symbols   map[core.Severity]string

	css         *lint.Registry
	template    *lint.Registry
	customNames []string
}

func newLinterEnv(cmd *cobra.Command, opts *LintOptions) (*linterEnv, error) {
	cc, err := NewCommandContext(cmd)
	if err != nil {
		return nil, err
	}

	threshold, ok := core.ParseSeverity(opts.Severity)
	if !ok {
		return nil, fmt.Errorf("--severity: invalid severity %q (want error, warning or info)", opts.Severity)
	}
	if _, ok := output.ParseMode(opts.Format); !ok {
		return nil, fmt.Errorf("--format: invalid format %q (want one of %v)", opts.Format, output.Modes())
	}

	custom, err := loadCustomRules(cc.Cfg)
	if err != nil {
		return nil, err
	}
	cssReg, cssAdded, err := registryWith(cssarch.Rules, custom, cc.Logger)
	if err != nil {
		return nil, err
	}
	tmplReg, tmplAdded, err := registryWith(template.Rules, custom, cc.Logger)
	if err != nil {
		return nil, err
	}
	if err := custom.checkOverrides(cssAdded.Replaced, tmplAdded.Replaced); err != nil {
		return nil, err
	}
	names := cssAdded.Added
	if len(names) > 0 {
		cc.Logger.Debug("loaded custom rules", "rules", names)
	}

	if err := cc.Cfg.Validate(config.Registries{CSS: cssReg, Template: tmplReg}); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}
	symbols, err := report.ParseSymbols(cc.Cfg.Template.Severity)
	if err != nil {
		return nil, fmt.Errorf("invalid configuration: template: %w", err)
	}

	e := &linterEnv{
		cc:          cc,
		opts:        opts,
		renderer:    cc.WithFormat(cmd, opts.Format),
		threshold:   threshold,
		symbols:     symbols,
		css:         cssReg,
		template:    tmplReg,
		customNames: names,
	}
	if err := e.checkRuleFlags(); err != nil {
		return nil, err
	}
	return e, nil
}

// checkRuleFlags rejects --rule and --disable names no linter knows.
func (e *linterEnv) checkRuleFlags() error {
	var unknown []string
	for _, name := range slices.Concat(e.opts.Rules, e.opts.Disable) {
		name = strings.TrimSpace(name)
		if _, ok := e.css.Get(name); ok {
			continue
		}
		if _, ok := e.template.Get(name); ok {
			continue
		}
		if _, ok := filelist.Rules.Get(name); ok {
			continue
		}
		unknown = append(unknown, name)
	}
	if len(unknown) > 0 {
		return &lint.UnknownRuleError{Names: unknown}
	}
	return nil
}

// customRules are the configured rule packs and Starlark scripts.
type customRules struct {
	packs   []*pack.Pack
	scripts []lint.RuleDef
}

// loadCustomRules reads the configured rule packs and compiles the scripts.
func loadCustomRules(cfg *config.Loaded) (customRules, error) {
	var c customRules
	for _, p := range cfg.Packs {
		pk, err := pack.Load(p)
		if err != nil {
			return c, err
		}
		c.packs = append(c.packs, pk)
	}
	for _, p := range cfg.Scripts {
		info, err := os.Stat(p)
		if err != nil {
			return c, fmt.Errorf("rule script: %w", err)
		}
		if info.IsDir() {
			loaded, err := script.LoadDir(p)
			if err != nil {
				return c, fmt.Errorf("rule scripts in %s: %w", p, err)
			}
			c.scripts = append(c.scripts, loaded...)
			continue
		}
		def, err := script.Load(p)
		if err != nil {
			return c, fmt.Errorf("rule script: %w", err)
		}
		c.scripts = append(c.scripts, def)
	}
	return c, nil
}

// defs compiles every custom rule, overrides included.
func (c customRules) defs() ([]lint.RuleDef, error) {
	var defs []lint.RuleDef
	for _, pk := range c.packs {
		compiled, err := pk.Compile()
		if err != nil {
			return nil, fmt.Errorf("rule pack %s: %w", pk.Path, err)
		}
		defs = append(defs, compiled...)
	}
	return append(defs, c.scripts...), nil
}

// checkOverrides rejects override rules that replaced no built-in rule.
func (c customRules) checkOverrides(replaced ...[]string) error {
	var unknown []string
	for _, pk := range c.packs {
		for _, r := range pk.Rules {
			if !r.Override {
				continue
			}
			if !slices.ContainsFunc(replaced, func(names []string) bool { return slices.Contains(names, r.Name) }) {
				unknown = append(unknown, r.Name)
			}
		}
	}
	if len(unknown) > 0 {
		return fmt.Errorf("override rules replace no built-in rule: %w", &lint.UnknownRuleError{Names: unknown})
	}
	return nil
}

// registryWith clones base and registers the custom rules into the clone.
// Override rules replace the clone's built-in rule of the same name.
func registryWith(base *lint.Registry, custom customRules, logger *slog.Logger) (*lint.Registry, pack.Registration, error) {
	reg := base.Clone()
	var all pack.Registration
	for _, pk := range custom.packs {
		got, err := pk.Register(reg)
		if err != nil {
			return nil, all, fmt.Errorf("custom rule: %w", err)
		}
		all.Added = append(all.Added, got.Added...)
		all.Replaced = append(all.Replaced, got.Replaced...)
	}
	for _, def := range custom.scripts {
		if err := reg.Register(def); err != nil {
			return nil, all, fmt.Errorf("custom rule: %w", err)
		}
		all.Added = append(all.Added, def.Name)
	}
	for _, name := range all.Replaced {
		logger.Info("custom rule overrides built-in rule", "rule", name, "linter", reg.Name())
	}
	return reg, all, nil
}

// ruleFilter wraps a linter's selector: it appends the custom rules the
// base selection did not pick and applies --rule and --disable.
type ruleFilter struct {
	base    lint.Selector
	config  *lint.Config
	custom  []string
	only    map[string]bool
	disable map[string]bool
}

// Select implements lint.Selector.
func (f ruleFilter) Select(reg *lint.Registry, target lint.Target) []lint.Applied {
	applied := f.base.Select(reg, target)
	seen := make(map[string]bool, len(applied))
	for _, a := range applied {
		seen[a.Rule.Name] = true
	}
	for _, name := range f.custom {
		if seen[name] || f.config.IsDisabled(name) {
			continue
		}
		if rule, ok := reg.Get(name); ok {
			applied = append(applied, lint.Applied{
				Rule:     rule,
				Options:  f.config.GetRuleOptions(name),
				Severity: f.config.GetSeverity(name),
			})
		}
	}

	out := make([]lint.Applied, 0, len(applied))
	for _, a := range applied {
		if f.disable[a.Rule.Name] || (len(f.only) > 0 && !f.only[a.Rule.Name]) {
			continue
		}
		out = append(out, a)
	}
	return out
}

func (e *linterEnv) selector(base lint.Selector, cfg *lint.Config, withCustom bool) lint.Selector {
	f := ruleFilter{base: base, config: cfg, only: nameSet(e.opts.Rules), disable: nameSet(e.opts.Disable)}
	if withCustom {
		f.custom = e.customNames
	}
	return f
}

func nameSet(names []string) map[string]bool {
	set := make(map[string]bool, len(names))
	for _, n := range names {
		if n = strings.TrimSpace(n); n != "" {
			set[n] = true
		}
	}
	return set
}

func (e *linterEnv) engine(linter string, reg *lint.Registry, sel lint.Selector, cfg *lint.Config) *lint.Engine {
	return lint.NewEngine(reg, sel,
		lint.WithConfig(cfg),
		lint.WithLogger(e.cc.Logger.With("linter", linter)),
		lint.WithMaxConcurrency(e.cc.Cfg.Concurrency),
	)
}

func (e *linterEnv) resolver(ignore, exts []string, classify resolve.ClassifyFunc) *resolve.Resolver {
	return &resolve.Resolver{
		Ignore:           ignore,
		Extensions:       exts,
		Classify:         classify,
		RespectGitignore: e.cc.Cfg.Gitignore,
		Logger:           e.cc.Logger,
	}
}

// relativeTo classifies paths relative to root, so configured globs such as
// "app/styles/**" match whatever directory archlint runs from.
func relativeTo(root string, classify resolve.ClassifyFunc) resolve.ClassifyFunc {
	return func(p string) (string, bool) {
		if abs, err := filepath.Abs(p); err == nil {
			if rel, err := filepath.Rel(root, abs); err == nil && !strings.HasPrefix(rel, "..") {
				p = rel
			}
		}
		return classify(p)
	}
}

// cssJob resolves stylesheets and components. Files without a layer are
// dropped: no css rule applies to them.
func (e *linterEnv) cssJob(targets []string, service, layer string) (*job, error) {
	cfg := e.cc.Cfg
	root := cfg.ProjectRoot
	if service == "" && len(targets) == 0 {
		service = cfg.CSS.Service
	}
	if service != "" {
		paths := cssarch.ServicePaths(root, service, e.cc.Logger)
		if len(paths) == 0 {
			return nil, fmt.Errorf("service %q has no stylesheets or components under %s", service, root)
		}
		targets = append(slices.Clone(targets), paths...)
	}
	if len(targets) == 0 {
		targets = []string{root}
	}
	if layer != "" && !slices.Contains(cssarch.Layers(), layer) {
		return nil, fmt.Errorf("--layer: unknown layer %q (want one of %v)", layer, cssarch.Layers())
	}

	classifier, err := cfg.CSS.Classifier()
	if err != nil {
		return nil, err
	}
	res := e.resolver(cfg.CSS.Ignore, cssExtensions, relativeTo(root, classifier.Classify))
	res.Filter = layer
	resolved, err := res.Resolve(targets)
	if err != nil {
		return nil, err
	}

	kept := make([]lint.Target, 0, len(resolved))
	layers := make(map[string]string)
	for _, t := range resolved {
		if t.Context == "" {
			e.cc.Logger.Debug("no layer detected, skipping", "path", t.Path)
			continue
		}
		kept = append(kept, t)
		layers[t.Path] = t.Context
	}

	lc := cfg.CSS.LintConfig()
	sel := e.selector(cssarch.Selector{Config: lc, Keywords: cfg.CSS.KeywordSet()}, lc, true)
	return &job{
		linter:  "css",
		engine:  e.engine("css", e.css, sel, lc),
		targets: kept,
		watch:   existing(targets),
		exts:    cssExtensions,
		layers:  layers,
	}, nil
}

// templateJob resolves documents and source files for the template linter.
// Stylesheets in cssLayers belong to the css linter, whose per-layer rule
// already reports their !important; the template variant skips them.
func (e *linterEnv) templateJob(targets []string, kind string, cssLayers map[string]string) (*job, error) {
	cfg := e.cc.Cfg
	tc := &cfg.Template
	if kind != "" {
		if _, err := template.ParseKind(kind); err != nil {
			return nil, fmt.Errorf("--template: %w", err)
		}
	}
	if len(targets) == 0 {
		targets = []string{cfg.ProjectRoot}
	}

	exts := templateExtensions(tc)
	res := e.resolver(tc.Ignore.Files, exts, template.ClassifyFile)
	res.Filter = kind
	resolved, err := res.Resolve(targets)
	if err != nil {
		return nil, err
	}

	lc := tc.LintConfig()
	var base lint.Selector = template.Selector{Config: tc}
	if len(cssLayers) > 0 {
		base = skipRule(base, template.NoImportantRule, func(t lint.Target) bool {
			return cssLayers[t.Path] != ""
		})
	}
	sel := e.selector(base, lc, true)
	return &job{
		linter:  "template",
		engine:  e.engine("template", e.template, sel, lc),
		targets: resolved,
		watch:   existing(targets),
		exts:    exts,
	}, nil
}

// skipRule drops one rule from the selection for the targets skip matches.
func skipRule(base lint.Selector, name string, skip func(lint.Target) bool) lint.Selector {
	return lint.SelectorFunc(func(reg *lint.Registry, t lint.Target) []lint.Applied {
		applied := base.Select(reg, t)
		if !skip(t) {
			return applied
		}
		return slices.DeleteFunc(applied, func(a lint.Applied) bool { return a.Rule.Name == name })
	})
}

// templateExtensions is the set of file types the common rules look at,
// plus markdown for the template rules. A common rule without file types
// means every file.
func templateExtensions(tc *template.Config) []string {
	exts := []string{".md", ".mdx"}
	for _, name := range tc.CommonRules {
		rc := tc.Rules[name]
		if len(rc.FileTypes) == 0 {
			return nil
		}
		for _, ft := range rc.FileTypes {
			ft = strings.ToLower(strings.TrimSpace(ft))
			if !strings.HasPrefix(ft, ".") {
				ft = "." + ft
			}
			if !slices.Contains(exts, ft) {
				exts = append(exts, ft)
			}
		}
	}
	return exts
}

// fileListOptions selects the file lists to compare.
type fileListOptions struct {
	Service  string
	FileList string
	Root     string
	// OnlyLists keeps resolved files named like the configured file list;
	// used when the targets are arbitrary paths.
	OnlyLists bool
}

// fileListJob resolves file-list documents. Without targets every file
// list matching the configured path is checked.
func (e *linterEnv) fileListJob(targets []string, fo fileListOptions) (*job, error) {
	cfg := e.cc.Cfg
	root := cfg.ProjectRoot
	if fo.Root != "" {
		abs, err := filepath.Abs(fo.Root)
		if err != nil {
			return nil, fmt.Errorf("--root: %w", err)
		}
		root = abs
	}
	pattern := filepath.ToSlash(cfg.FileList.Path)
	if pattern == "" {
		pattern = config.DefaultFileListPath
	}

	switch {
	case fo.FileList != "":
		targets = []string{fo.FileList}
	case fo.Service != "":
		targets = []string{filepath.Join(root, cfg.FileList.FileListPath(fo.Service))}
	case len(targets) == 0:
		targets = []string{filepath.ToSlash(filepath.Join(root, strings.ReplaceAll(pattern, "{service}", "*")))}
	}

	resolved, err := e.resolver(nil, []string{".md"}, nil).Resolve(targets)
	if err != nil {
		return nil, err
	}
	if fo.OnlyLists {
		base := pathBase(pattern)
		kept := resolved[:0]
		for _, t := range resolved {
			if filepath.Base(t.Path) == base {
				kept = append(kept, t)
			}
		}
		resolved = kept
	}

	lc := cfg.FileList.LintConfig(root, fo.Service)
	all := lint.AllSelector{Config: lc}
	base := lint.SelectorFunc(func(reg *lint.Registry, t lint.Target) []lint.Applied {
		applied := all.Select(reg, t)
		if fo.Service != "" {
			return applied
		}
		if svc := serviceFromPattern(pattern, root, t.Path); svc != "" {
			for i := range applied {
				applied[i].Options = applied[i].Options.Merge(lint.Options{"service": svc})
			}
		}
		return applied
	})

	watchPaths := existing(targets)
	for _, prefix := range cfg.FileList.Prefixes {
		watchPaths = append(watchPaths, existing([]string{filepath.Join(root, prefix)})...)
	}
	if len(watchPaths) == 0 {
		watchPaths = []string{root}
	}

	return &job{
		linter:  "filelist",
		engine:  e.engine("filelist", filelist.Rules, e.selector(base, lc, false), lc),
		targets: resolved,
		watch:   watchPaths,
	}, nil
}

// serviceFromPattern extracts the service from a path matching a
// "{service}" pattern such as docs/{service}/file-list.md.
func serviceFromPattern(pattern, root, p string) string {
	before, after, ok := strings.Cut(pattern, "{service}")
	if !ok {
		return ""
	}
	if abs, err := filepath.Abs(p); err == nil {
		if rel, err := filepath.Rel(root, abs); err == nil {
			p = rel
		}
	}
	p = filepath.ToSlash(p)
	if !strings.HasPrefix(p, before) || !strings.HasSuffix(p, after) || len(p) <= len(before)+len(after) {
		return ""
	}
	svc := p[len(before) : len(p)-len(after)]
	if strings.Contains(svc, "/") {
		return ""
	}
	return svc
}

func pathBase(slashed string) string {
	if i := strings.LastIndex(slashed, "/"); i >= 0 {
		return slashed[i+1:]
	}
	return slashed
}

// existing keeps the paths that exist on disk; globs are dropped.
func existing(paths []string) []string {
	out := make([]string, 0, len(paths))
	for _, p := range paths {
		if _, err := os.Stat(p); err == nil {
			out = append(out, p)
		}
	}
	return out
}

// runLinters builds the jobs, checks every target, reports, and in watch
// mode repeats on every change until interrupted.
func runLinters(cmd *cobra.Command, opts *LintOptions, lr linterRun) error {
	e, err := newLinterEnv(cmd, opts)
	if err != nil {
		return err
	}

	ctx := cmd.Context()
	watching := flagBool(cmd, "watch")
	if watching {
		var stop context.CancelFunc
		ctx, stop = signal.NotifyContext(ctx, os.Interrupt, syscall.SIGTERM)
		defer stop()
	}
	save := flagBool(cmd, "save")

	var jobs []*job
	once := func() (bool, error) {
		built, err := lr.build(e)
		if err != nil {
			return false, err
		}
		jobs = built
		started := time.Now()
		res := e.check(ctx, built)
		return e.publish(ctx, lr, built, res, started, time.Now(), save)
	}

	failed, err := once()
	if err != nil {
		return err
	}
	if !watching {
		if failed {
			return ErrLintFailed
		}
		return nil
	}
	return e.watch(ctx, jobs, func() {
		if _, err := once(); err != nil {
			e.renderer.Warning(err.Error())
		}
	})
}

// check runs every job. With several jobs, identical violations (a custom
// rule seen by two linters) are reported once.
func (e *linterEnv) check(ctx context.Context, jobs []*job) lint.Result {
	var combined lint.Result
	seenFiles := make(map[string]bool)
	seenViolations := make(map[lint.Violation]bool)
	for _, j := range jobs {
		res := j.engine.CheckFiles(ctx, j.targets)
		for _, f := range res.Files {
			if !seenFiles[f] {
				seenFiles[f] = true
				combined.Files = append(combined.Files, f)
			}
		}
		for _, v := range res.Violations {
			if len(jobs) > 1 {
				if seenViolations[v] {
					continue
				}
				seenViolations[v] = true
			}
			combined.Violations = append(combined.Violations, v)
		}
	}
	return combined
}

// publish renders the result, writes the optional report and history
// entry, and reports whether errors were found. The severity threshold
// only affects what is shown.
func (e *linterEnv) publish(ctx context.Context, lr linterRun, jobs []*job, res lint.Result, started, finished time.Time, save bool) (bool, error) {
	r := e.renderer
	shown := lint.Result{Violations: lint.FilterBySeverity(res.Violations, e.threshold), Files: res.Files}
	layers := jobLayers(jobs)

	var rep report.Reporter
	switch r.EffectiveMode() {
	case output.ModeJSON:
		rep = report.JSON{}
	case output.ModeMarkdown:
		rep = &report.Markdown{Title: lr.title, Layers: layers}
	default:
		rep = &report.Console{
			Symbols:     e.symbols,
			Styles:      report.NewStyles(r.LipglossRenderer()),
			ShowContext: e.opts.Context,
		}
	}
	if err := rep.Report(r.Writer(), shown); err != nil {
		return false, fmt.Errorf("failed to write results: %w", err)
	}

	if e.opts.Report {
		var buf bytes.Buffer
		md := &report.Markdown{Title: lr.title, Checklist: true, Layers: layers}
		if err := md.Report(&buf, shown); err != nil {
			return false, fmt.Errorf("failed to render report: %w", err)
		}
		path, err := report.WriteMarkdownFile(e.cc.Cfg.ProjectRoot, lr.prefix, buf.String())
		if err != nil {
			return false, err
		}
		e.notice("Report written to " + path)
	}

	if save {
		id, err := e.save(ctx, lr, res, started, finished)
		if err != nil {
			return false, err
		}
		e.notice("Saved run " + id)
	}
	return lint.ExitCode(res.Violations) != 0, nil
}

// notice prints a side message; in JSON mode it goes to stderr so stdout
// stays parseable.
func (e *linterEnv) notice(msg string) {
	if e.renderer.EffectiveMode() == output.ModeJSON {
		_, _ = fmt.Fprintln(e.renderer.ErrWriter(), msg)
		return
	}
	e.renderer.Muted(msg)
}

func (e *linterEnv) save(ctx context.Context, lr linterRun, res lint.Result, started, finished time.Time) (string, error) {
	store, err := history.Open(e.cc.Cfg.HistoryPath)
	if err != nil {
		return "", err
	}
	defer func() { _ = store.Close() }()

	run, err := store.Save(ctx, history.NewRun(lr.name, lr.args, started, finished, res), res.Violations)
	if err != nil {
		return "", err
	}
	e.cc.Logger.Debug("saved run", "id", run.ID, "path", e.cc.Cfg.HistoryPath)
	return run.ID, nil
}

func jobLayers(jobs []*job) map[string]string {
	layers := make(map[string]string)
	for _, j := range jobs {
		for path, layer := range j.layers {
			layers[path] = layer
		}
	}
	return layers
}

// watch re-runs the command whenever a watched file changes.
func (e *linterEnv) watch(ctx context.Context, jobs []*job, rerun func()) error {
	var paths, exts []string
	allExts := false
	for _, j := range jobs {
		for _, p := range j.watch {
			if !slices.Contains(paths, p) {
				paths = append(paths, p)
			}
		}
		if j.exts == nil {
			allExts = true
		}
		for _, ext := range j.exts {
			if !slices.Contains(exts, ext) {
				exts = append(exts, ext)
			}
		}
	}
	if allExts {
		exts = nil
	}
	if len(paths) == 0 {
		paths = []string{e.cc.Cfg.ProjectRoot}
	}

	reportDir := filepath.Join(e.cc.Cfg.ProjectRoot, filepath.FromSlash(report.ReportDir))
	historyDir := filepath.Dir(e.cc.Cfg.HistoryPath)
	w := &watch.Watcher{
		Paths:      paths,
		Extensions: exts,
		Logger:     e.cc.Logger,
		Skip: func(p string) bool {
			abs, err := filepath.Abs(p)
			if err != nil {
				return false
			}
			return isWithin(reportDir, abs) || isWithin(historyDir, abs)
		},
	}
	e.notice("Watching for changes. Press Ctrl+C to stop.")
	return w.Run(ctx, func(_ []string) { rerun() })
}

func isWithin(dir, p string) bool {
	rel, err := filepath.Rel(dir, p)
	return err == nil && rel != ".." && !strings.HasPrefix(rel, ".."+string(filepath.Separator))
}
