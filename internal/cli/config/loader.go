package config

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	"github.com/adrg/xdg"
	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/confmap"
	"github.com/knadh/koanf/providers/env"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/providers/posflag"
	"github.com/knadh/koanf/v2"
	"github.com/spf13/pflag"
	yamlv3 "gopkg.in/yaml.v3"
)

// loggerKey is used to store the logger in context.
type loggerKey struct{}

// configKey is used to store the loaded configuration in context.
type configKey struct{}

// maxUpwardSearchLevels limits how far up the directory tree to search for config files.
const maxUpwardSearchLevels = 10

// Loaded is the result of a configuration load.
type Loaded struct {
	*Config
	// File is the config file that was read, or "" when defaults were used.
	File string
}

// Loader loads configuration. The zero value searches from the working
// directory and the user's XDG config directory.
type Loader struct {
	// WorkDir is where the upward search starts; "" means os.Getwd.
	WorkDir string
	// UserConfig returns the user-level config file, or "" if none exists.
	// Nil means the XDG config directory is searched.
	UserConfig func() string
	// Environ replaces os.Environ for tests.
	Environ func() []string
}

// Load reads configuration from file, environment variables, and flags.
// Precedence (highest to lowest): flags > env vars > config file > defaults
func Load(cfgFile string, flags *pflag.FlagSet) (*Loaded, error) {
	return (&Loader{}).Load(cfgFile, flags)
}

// Load reads configuration with explicit search settings.
func (l *Loader) Load(cfgFile string, flags *pflag.FlagSet) (*Loaded, error) {
	k := koanf.New(".")

	workDir := l.WorkDir
	if workDir == "" {
		wd, err := os.Getwd()
		if err != nil {
			return nil, fmt.Errorf("resolve working directory: %w", err)
		}
		workDir = wd
	}

	// 1. Defaults
	defaults, err := defaultsMap()
	if err != nil {
		return nil, fmt.Errorf("failed to load defaults: %w", err)
	}
	if err := k.Load(confmap.Provider(defaults, ""), nil); err != nil {
		return nil, fmt.Errorf("failed to load defaults: %w", err)
	}

	// 2. Config file: explicit, then upward search, then the user config
	projectRoot := workDir
	used := ""
	switch {
	case cfgFile != "":
		if _, err := os.Stat(cfgFile); err != nil {
			return nil, fmt.Errorf("config file %s: %w", cfgFile, err)
		}
		used = cfgFile
		if abs, err := filepath.Abs(cfgFile); err == nil {
			projectRoot = filepath.Dir(abs)
		}
	default:
		if found := findConfigUpward(workDir); found != "" {
			used = found
			projectRoot = filepath.Dir(found)
		} else if user := l.userConfig(); user != "" {
			used = user
		}
	}
	if used != "" {
		if err := k.Load(file.Provider(used), yaml.Parser()); err != nil {
			return nil, fmt.Errorf("error reading config file %s: %w", used, err)
		}
	}

	// 3. Environment variables (ARCHLINT_ prefix)
	// Transform: ARCHLINT_HISTORY_PATH -> history_path, ARCHLINT_CSS__SERVICE -> css.service
	if err := l.loadEnv(k); err != nil {
		return nil, fmt.Errorf("failed to load env vars: %w", err)
	}

	// 4. Flags (highest priority)
	if flags != nil {
		if err := k.Load(posflag.ProviderWithFlag(flags, ".", k, func(f *pflag.Flag) (string, any) {
			// Only load flags that were explicitly set
			if !f.Changed || f.Name == "config" {
				return "", nil
			}
			return strings.ReplaceAll(f.Name, "-", "_"), posflag.FlagVal(flags, f)
		}), nil); err != nil {
			return nil, fmt.Errorf("failed to load flags: %w", err)
		}
	}

	// 5. Unmarshal into Config struct
	var cfg Config
	if err := k.UnmarshalWithConf("", &cfg, koanf.UnmarshalConf{Tag: "koanf"}); err != nil {
		return nil, fmt.Errorf("unable to decode config: %w", err)
	}
	cfg.ProjectRoot = projectRoot
	cfg.HistoryPath = resolvePathRelativeTo(cfg.HistoryPath, projectRoot)
	for i, p := range cfg.Packs {
		cfg.Packs[i] = resolvePathRelativeTo(p, projectRoot)
	}
	for i, p := range cfg.Scripts {
		cfg.Scripts[i] = resolvePathRelativeTo(p, projectRoot)
	}

	return &Loaded{Config: &cfg, File: used}, nil
}

// loadEnv loads env vars, honouring Loader.Environ in tests.
func (l *Loader) loadEnv(k *koanf.Koanf) error {
	if l.Environ == nil {
		return k.Load(env.Provider(EnvPrefix, ".", envKey), nil)
	}
	m := make(map[string]any)
	for _, kv := range l.Environ() {
		key, value, ok := strings.Cut(kv, "=")
		if !ok || !strings.HasPrefix(key, EnvPrefix) {
			continue
		}
		m[envKey(key)] = value
	}
	return k.Load(confmap.Provider(m, "."), nil)
}

func envKey(s string) string {
	s = strings.ToLower(strings.TrimPrefix(s, EnvPrefix))
	return strings.ReplaceAll(s, "__", ".")
}

func (l *Loader) userConfig() string {
	if l.UserConfig != nil {
		return l.UserConfig()
	}
	for _, name := range []string{"config.yaml", "config.yml", "config.json"} {
		if p, err := xdg.SearchConfigFile(filepath.Join(AppName, name)); err == nil {
			return p
		}
	}
	return ""
}

// configExistsIn returns the config file in dir, if any.
func configExistsIn(dir string) string {
	for _, name := range ConfigFileNames {
		p := filepath.Join(dir, name)
		if info, err := os.Stat(p); err == nil && !info.IsDir() {
			return p
		}
	}
	return ""
}

// findConfigUpward searches upward from startDir for an archlint config file.
// Returns empty string if not found within maxUpwardSearchLevels.
func findConfigUpward(startDir string) string {
	dir := startDir
	for i := 0; i < maxUpwardSearchLevels; i++ {
		if p := configExistsIn(dir); p != "" {
			return p
		}
		parent := filepath.Dir(dir)
		if parent == dir {
			// Reached filesystem root
			break
		}
		dir = parent
	}
	return ""
}

// resolvePathRelativeTo resolves a path relative to baseDir if it's not absolute.
// Returns the path unchanged if it's empty or already absolute.
func resolvePathRelativeTo(path, baseDir string) string {
	if path == "" || filepath.IsAbs(path) {
		return path
	}
	return filepath.Join(baseDir, path)
}

// DefaultYAML renders the built-in configuration as YAML. `archlint setup`
// writes it as the starting project config.
func DefaultYAML() ([]byte, error) {
	return yamlv3.Marshal(Default())
}

func defaultsMap() (map[string]any, error) {
	data, err := DefaultYAML()
	if err != nil {
		return nil, err
	}
	return yaml.Parser().Unmarshal(data)
}

// LoggerKey returns the context key used for storing the logger.
// This allows the commands package to retrieve the logger from context
// without creating an import cycle with the cli package.
func LoggerKey() any {
	return loggerKey{}
}

// GetLogger retrieves the logger from the command context.
func GetLogger(ctx context.Context) *slog.Logger {
	if l, ok := ctx.Value(loggerKey{}).(*slog.Logger); ok {
		return l
	}
	// Return discard logger as safe fallback
	return slog.New(slog.DiscardHandler)
}

// WithConfig returns a context carrying the loaded configuration.
func WithConfig(ctx context.Context, cfg *Loaded) context.Context {
	return context.WithValue(ctx, configKey{}, cfg)
}

// FromContext returns the configuration stored by WithConfig.
func FromContext(ctx context.Context) (*Loaded, bool) {
	cfg, ok := ctx.Value(configKey{}).(*Loaded)
	return cfg, ok && cfg != nil
}
