// Package config provides configuration management for the NebulaSQL CLI.
//
// Values are layered (lowest to highest): built-in defaults, nebulasql.yaml,
// NEBULASQL_* environment variables and explicitly set command-line flags.
package config

import (
	"fmt"

	"github.com/leapstack-labs/nebulasql/internal/starlark"
	"github.com/leapstack-labs/nebulasql/pkg/dialect"
	"github.com/leapstack-labs/nebulasql/pkg/format"
	"github.com/leapstack-labs/nebulasql/pkg/lint"
)

// Default configuration values.
const (
	DefaultDialect     = "nebula"
	DefaultOutput      = "auto" // Auto-detect: TTY=text, non-TTY=markdown
	DefaultKeywordCase = "upper"
	DefaultWorkers     = 4
	DefaultServeAddr   = "127.0.0.1:8765"
)

// Config holds all CLI configuration options.
type Config struct {
	Dialect                 string         `koanf:"dialect"`
	AnsiKeywords            bool           `koanf:"ansi_keywords"`
	LegacyExponentAsDecimal bool           `koanf:"legacy_exponent_as_decimal"`
	OutputFormat            string         `koanf:"output"`
	Verbose                 bool           `koanf:"verbose"`
	KeywordCase             string         `koanf:"keyword_case"`
	Workers                 int            `koanf:"workers"`
	Lint                    LintConfig     `koanf:"lint"`
	Cache                   CacheConfig    `koanf:"cache"`
	Serve                   ServeConfig    `koanf:"serve"`
	Starlark                StarlarkConfig `koanf:"starlark"`
}

// LintConfig configures the rules run by check, the LSP and the server.
type LintConfig struct {
	Severity map[string]string         `koanf:"severity"` // rule id -> error|warning|info|hint|off
	Disable  []string                  `koanf:"disable"`
	Rules    map[string]map[string]any `koanf:"rules"` // rule id -> options
}

// CacheConfig points check at its result cache. An empty path disables it.
type CacheConfig struct {
	Path string `koanf:"path"`
}

// ServeConfig configures the HTTP API.
type ServeConfig struct {
	Addr string `koanf:"addr"`
}

// StarlarkConfig lists script files that define extra lint rules.
type StarlarkConfig struct {
	Rules []string `koanf:"rules"`
}

// ResolveDialect returns the configured dialect with the mode flags applied
// on top. A flag can switch a mode on but never off.
func (c *Config) ResolveDialect() (*dialect.Dialect, error) {
	name := c.Dialect
	if name == "" {
		name = DefaultDialect
	}
	d, err := dialect.Lookup(name)
	if err != nil {
		return nil, fmt.Errorf("dialect %q: %w", name, err)
	}
	if c.AnsiKeywords || c.LegacyExponentAsDecimal {
		d = d.With(d.AnsiKeywords() || c.AnsiKeywords, d.LegacyExponentAsDecimal() || c.LegacyExponentAsDecimal)
	}
	return d, nil
}

// ResolveKeywordCase returns the printer keyword case.
func (c *Config) ResolveKeywordCase() (format.KeywordCase, error) {
	kc, ok := format.ParseKeywordCase(c.KeywordCase)
	if !ok {
		return kc, fmt.Errorf("invalid keyword_case %q (want upper or lower)", c.KeywordCase)
	}
	return kc, nil
}

// BuildLintConfig converts the lint section into an analyzer config. Rules
// from the Starlark scripts are added first so the section can configure them.
func (c *Config) BuildLintConfig() (*lint.Config, error) {
	cfg := lint.NewConfig()
	for _, path := range c.Starlark.Rules {
		rules, err := starlark.LoadRules(path, nil)
		if err != nil {
			return nil, err
		}
		for _, rule := range rules {
			if err := cfg.AddRule(rule); err != nil {
				return nil, fmt.Errorf("%s: %w", path, err)
			}
		}
	}
	if err := cfg.ApplySeverities(c.Lint.Severity); err != nil {
		return nil, err
	}
	for _, id := range c.Lint.Disable {
		if _, ok := cfg.LookupRule(id); !ok {
			return nil, fmt.Errorf("lint: unknown rule %q", id)
		}
		cfg.Disable(id)
	}
	for id, opts := range c.Lint.Rules {
		cfg.SetRuleOptions(id, opts)
	}
	return cfg, nil
}

// WorkerCount returns the configured worker limit, never less than one.
func (c *Config) WorkerCount() int {
	if c.Workers < 1 {
		return 1
	}
	return c.Workers
}

// Defaults returns a Config holding only the built-in defaults.
func Defaults() *Config {
	return &Config{
		Dialect:      DefaultDialect,
		OutputFormat: DefaultOutput,
		KeywordCase:  DefaultKeywordCase,
		Workers:      DefaultWorkers,
		Serve:        ServeConfig{Addr: DefaultServeAddr},
	}
}
