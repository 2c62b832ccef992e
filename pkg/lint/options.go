package lint

import (
	"time"

	"github.com/spf13/cast"
)

// GetOption extracts a typed option with a default value.
func GetOption[T any](opts map[string]any, key string, defaultVal T) T {
	v, ok := opts[key]
	if !ok {
		return defaultVal
	}
	if typed, ok := v.(T); ok {
		return typed
	}
	return defaultVal
}

// GetIntOption extracts an int option, accepting any numeric or string form.
func GetIntOption(opts map[string]any, key string, defaultVal int) int {
	v, ok := opts[key]
	if !ok {
		return defaultVal
	}
	n, err := cast.ToIntE(v)
	if err != nil {
		return defaultVal
	}
	return n
}

// GetDurationOption extracts a duration option such as "6h" or a number of
// nanoseconds.
func GetDurationOption(opts map[string]any, key string, defaultVal time.Duration) time.Duration {
	v, ok := opts[key]
	if !ok {
		return defaultVal
	}
	d, err := cast.ToDurationE(v)
	if err != nil {
		return defaultVal
	}
	return d
}
