package lint

import (
	"fmt"
	"sort"
)

// Config controls which rules are enabled, their severity and options.
type Config struct {
	// DisabledRules contains rule IDs to skip
	DisabledRules map[string]bool

	// SeverityOverrides changes the default severity of rules
	SeverityOverrides map[string]Severity

	// RuleOptions holds per-rule settings keyed by rule ID
	RuleOptions map[string]map[string]any

	// extra are rules known only to this configuration, such as scripted ones.
	extra []RuleDef
}

// NewConfig creates a default configuration with all rules enabled.
func NewConfig() *Config {
	return &Config{
		DisabledRules:     make(map[string]bool),
		SeverityOverrides: make(map[string]Severity),
		RuleOptions:       make(map[string]map[string]any),
	}
}

// ConfigFromSeverities builds a Config from rule → severity names, as read
// from a configuration file. Unknown rules and severities are errors.
func ConfigFromSeverities(severities map[string]string) (*Config, error) {
	cfg := NewConfig()
	if err := cfg.ApplySeverities(severities); err != nil {
		return nil, err
	}
	return cfg, nil
}

// ApplySeverities sets the severity of each named rule, registered or added.
func (c *Config) ApplySeverities(severities map[string]string) error {
	for id, name := range severities {
		if _, ok := c.LookupRule(id); !ok {
			return fmt.Errorf("lint: unknown rule %q", id)
		}
		sev, ok := ParseSeverity(name)
		if !ok {
			return fmt.Errorf("lint: rule %q: invalid severity %q", id, name)
		}
		c.SetSeverity(id, sev)
	}
	return nil
}

// AddRule makes rule known to this configuration only. Its ID must not
// collide with a registered rule or one added earlier.
func (c *Config) AddRule(rule RuleDef) error {
	if rule.ID == "" || rule.Check == nil {
		return fmt.Errorf("lint: rule needs an id and a check function")
	}
	if _, ok := c.LookupRule(rule.ID); ok {
		return fmt.Errorf("lint: rule %q already defined", rule.ID)
	}
	c.extra = append(c.extra, rule)
	return nil
}

// Rules returns the registered rules plus the added ones, sorted by ID.
func (c *Config) Rules() []RuleDef {
	rules := GetAll()
	if c == nil || len(c.extra) == 0 {
		return rules
	}
	rules = append(rules, c.extra...)
	sort.Slice(rules, func(i, j int) bool { return rules[i].ID < rules[j].ID })
	return rules
}

// LookupRule finds a registered or added rule.
func (c *Config) LookupRule(id string) (RuleDef, bool) {
	if rule, ok := GetByID(id); ok {
		return rule, true
	}
	if c != nil {
		for _, rule := range c.extra {
			if rule.ID == id {
				return rule, true
			}
		}
	}
	return RuleDef{}, false
}

// IsDisabled returns true if the rule should be skipped.
func (c *Config) IsDisabled(ruleID string) bool {
	if c == nil {
		return false
	}
	return c.DisabledRules[ruleID]
}

// GetSeverity returns the severity for a rule, applying any override.
func (c *Config) GetSeverity(ruleID string, defaultSeverity Severity) Severity {
	if c != nil {
		if sev, ok := c.SeverityOverrides[ruleID]; ok {
			return sev
		}
	}
	return defaultSeverity
}

// Disable disables a rule by ID.
func (c *Config) Disable(ruleID string) *Config {
	c.DisabledRules[ruleID] = true
	return c
}

// SetSeverity overrides the severity for a rule. SeverityOff disables it.
func (c *Config) SetSeverity(ruleID string, severity Severity) *Config {
	if severity == SeverityOff {
		return c.Disable(ruleID)
	}
	delete(c.DisabledRules, ruleID)
	c.SeverityOverrides[ruleID] = severity
	return c
}

// SetRuleOptions replaces the options passed to a rule.
func (c *Config) SetRuleOptions(ruleID string, opts map[string]any) *Config {
	c.RuleOptions[ruleID] = opts
	return c
}

// GetRuleOptions returns the options for a rule, or nil.
func (c *Config) GetRuleOptions(ruleID string) map[string]any {
	if c == nil {
		return nil
	}
	return c.RuleOptions[ruleID]
}
