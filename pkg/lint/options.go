package lint

import (
	"fmt"

	"github.com/go-viper/mapstructure/v2"
)

// Options is the per-rule configuration slice handed to a check.
type Options map[string]any

// Clone returns a shallow copy of the options.
func (o Options) Clone() Options {
	if o == nil {
		return nil
	}
	out := make(Options, len(o))
	for k, v := range o {
		out[k] = v
	}
	return out
}

// Merge returns a copy of o with the keys of other layered on top.
func (o Options) Merge(other Options) Options {
	out := o.Clone()
	if out == nil {
		out = make(Options, len(other))
	}
	for k, v := range other {
		out[k] = v
	}
	return out
}

// Decode fills a struct from the options using `mapstructure` tags.
// Scalars are weakly typed so YAML and JSON numbers both decode.
func (o Options) Decode(out any) error {
	dec, err := mapstructure.NewDecoder(&mapstructure.DecoderConfig{
		Result:           out,
		WeaklyTypedInput: true,
		TagName:          "mapstructure",
	})
	if err != nil {
		return err
	}
	if err := dec.Decode(map[string]any(o)); err != nil {
		return fmt.Errorf("decode rule options: %w", err)
	}
	return nil
}

// GetOption extracts a typed option with a default value.
func GetOption[T any](opts Options, key string, defaultVal T) T {
	if opts == nil {
		return defaultVal
	}
	v, ok := opts[key]
	if !ok {
		return defaultVal
	}
	if typed, ok := v.(T); ok {
		return typed
	}
	return defaultVal
}

// Int extracts an int option, handling float64 from JSON.
func (o Options) Int(key string, defaultVal int) int {
	v, ok := o[key]
	if !ok {
		return defaultVal
	}
	switch n := v.(type) {
	case int:
		return n
	case int64:
		return int(n)
	case uint64:
		return int(n)
	case float64:
		return int(n)
	default:
		return defaultVal
	}
}

// String extracts a string option.
func (o Options) String(key string, defaultVal string) string {
	return GetOption(o, key, defaultVal)
}

// Bool extracts a bool option.
func (o Options) Bool(key string, defaultVal bool) bool {
	return GetOption(o, key, defaultVal)
}

// Strings extracts a string slice option.
func (o Options) Strings(key string, defaultVal []string) []string {
	v, ok := o[key]
	if !ok {
		return defaultVal
	}
	switch s := v.(type) {
	case []string:
		return s
	case []any:
		result := make([]string, 0, len(s))
		for _, item := range s {
			if str, ok := item.(string); ok {
				result = append(result, str)
			}
		}
		return result
	case string:
		return []string{s}
	default:
		return defaultVal
	}
}
