package dialect

import (
	"errors"
	"sort"
	"strings"
	"sync"
)

// Dialect registry
var (
	dialectsMu sync.RWMutex
	dialects   = make(map[string]*Dialect)
)

// ErrUnknownDialect is returned when a dialect name is not registered.
var ErrUnknownDialect = errors.New("unknown dialect")

// Get returns a dialect by name (case-insensitive).
func Get(name string) (*Dialect, bool) {
	dialectsMu.RLock()
	defer dialectsMu.RUnlock()
	d, ok := dialects[strings.ToLower(name)]
	return d, ok
}

// Lookup is like Get but returns an error wrapping ErrUnknownDialect that lists the available names.
func Lookup(name string) (*Dialect, error) {
	if d, ok := Get(name); ok {
		return d, nil
	}
	return nil, errors.Join(ErrUnknownDialect,
		errors.New("available: "+strings.Join(List(), ", ")))
}

// Register registers a dialect in the global registry.
func Register(d *Dialect) {
	dialectsMu.Lock()
	defer dialectsMu.Unlock()
	dialects[strings.ToLower(d.Name)] = d
}

// List returns all registered dialect names (sorted).
func List() []string {
	dialectsMu.RLock()
	defer dialectsMu.RUnlock()
	names := make([]string, 0, len(dialects))
	for name := range dialects {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}
