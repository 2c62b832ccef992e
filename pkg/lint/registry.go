package lint

import (
	"sort"
	"sync"
)

// globalRegistry is the single global registry for all lint rules.
var globalRegistry = &Registry{
	rules: make(map[string]RuleDef),
}

// Registry stores registered lint rules for discovery.
type Registry struct {
	mu    sync.RWMutex
	rules map[string]RuleDef // keyed by ID
}

// Register adds a rule to the global registry.
// Call this from init() functions.
func Register(rule RuleDef) {
	globalRegistry.mu.Lock()
	defer globalRegistry.mu.Unlock()
	globalRegistry.rules[rule.ID] = rule
}

// GetAll returns all registered rules sorted by ID.
func GetAll() []RuleDef {
	globalRegistry.mu.RLock()
	defer globalRegistry.mu.RUnlock()

	rules := make([]RuleDef, 0, len(globalRegistry.rules))
	for _, rule := range globalRegistry.rules {
		rules = append(rules, rule)
	}
	sort.Slice(rules, func(i, j int) bool { return rules[i].ID < rules[j].ID })
	return rules
}

// GetByID returns a rule by its ID.
func GetByID(id string) (RuleDef, bool) {
	globalRegistry.mu.RLock()
	defer globalRegistry.mu.RUnlock()
	rule, ok := globalRegistry.rules[id]
	return rule, ok
}
