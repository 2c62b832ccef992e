package config

import (
	"fmt"
	"os"
	"path/filepath"
	"regexp"
	"strings"

	"github.com/go-viper/mapstructure/v2"
	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/confmap"
	"github.com/knadh/koanf/providers/env"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/providers/posflag"
	"github.com/knadh/koanf/v2"
	"github.com/spf13/pflag"
)

// EnvPrefix prefixes every environment variable read by the loader.
// A double underscore separates nested keys: NEBULASQL_LINT__DISABLE -> lint.disable.
const EnvPrefix = "NEBULASQL_"

// maxUpwardSearchLevels limits how far up the directory tree to search for config files.
const maxUpwardSearchLevels = 10

var configNames = []string{"nebulasql.yaml", "nebulasql.yml"}

// Package-level koanf instance and config file tracking
var (
	k              = koanf.New(".")
	configFileUsed string
	currentConfig  *Config
)

// configExistsIn returns the config file in dir, or "".
func configExistsIn(dir string) string {
	for _, name := range configNames {
		candidate := filepath.Join(dir, name)
		if _, err := os.Stat(candidate); err == nil {
			return candidate
		}
	}
	return ""
}

// findConfigFile finds the config file to use.
// Priority: explicit path > nebulasql.yaml in CWD or up to maxUpwardSearchLevels parents.
func findConfigFile(explicit string) string {
	if explicit != "" {
		return explicit
	}
	dir, err := os.Getwd()
	if err != nil {
		return ""
	}
	for i := 0; i < maxUpwardSearchLevels; i++ {
		if found := configExistsIn(dir); found != "" {
			return found
		}
		parent := filepath.Dir(dir)
		if parent == dir {
			break
		}
		dir = parent
	}
	return ""
}

// ResetConfig resets the koanf instance. Used for testing.
func ResetConfig() {
	k = koanf.New(".")
	configFileUsed = ""
	currentConfig = nil
}

// LoadConfig loads configuration from file, environment variables, and flags.
// Precedence (highest to lowest): flags > env vars > config file > defaults
func LoadConfig(cfgFile string, flags *pflag.FlagSet) (*Config, error) {
	k = koanf.New(".")

	// 1. Load defaults
	if err := k.Load(confmap.Provider(map[string]interface{}{
		"dialect":                    DefaultDialect,
		"ansi_keywords":              false,
		"legacy_exponent_as_decimal": false,
		"output":                     DefaultOutput,
		"verbose":                    false,
		"keyword_case":               DefaultKeywordCase,
		"workers":                    DefaultWorkers,
		"serve.addr":                 DefaultServeAddr,
	}, "."), nil); err != nil {
		return nil, fmt.Errorf("failed to load defaults: %w", err)
	}

	// 2. Config file
	configFileUsed = findConfigFile(cfgFile)
	if configFileUsed != "" {
		if err := k.Load(file.Provider(configFileUsed), yaml.Parser()); err != nil {
			return nil, fmt.Errorf("error reading config file %s: %w", configFileUsed, err)
		}
	}

	// 3. Environment variables: NEBULASQL_KEYWORD_CASE -> keyword_case
	if err := k.Load(env.Provider(EnvPrefix, ".", envKey), nil); err != nil {
		return nil, fmt.Errorf("failed to load env vars: %w", err)
	}

	// 4. Flags (highest priority)
	if flags != nil {
		if err := k.Load(posflag.ProviderWithFlag(flags, ".", k, func(f *pflag.Flag) (string, interface{}) {
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
	if err := k.UnmarshalWithConf("", &cfg, koanf.UnmarshalConf{
		Tag: "koanf",
		DecoderConfig: &mapstructure.DecoderConfig{
			DecodeHook: mapstructure.ComposeDecodeHookFunc(
				mapstructure.StringToTimeDurationHookFunc(),
				mapstructure.StringToSliceHookFunc(","),
			),
			Result:           &cfg,
			WeaklyTypedInput: true,
		},
	}); err != nil {
		return nil, fmt.Errorf("unable to decode config: %w", err)
	}

	cfg.Cache.Path = expandEnvVars(cfg.Cache.Path)
	cfg.Serve.Addr = expandEnvVars(cfg.Serve.Addr)
	if configFileUsed != "" {
		base := filepath.Dir(configFileUsed)
		cfg.Cache.Path = resolvePathRelativeTo(cfg.Cache.Path, base)
		for i, p := range cfg.Starlark.Rules {
			cfg.Starlark.Rules[i] = resolvePathRelativeTo(expandEnvVars(p), base)
		}
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	currentConfig = &cfg
	return &cfg, nil
}

// Validate checks values that every command depends on.
func (c *Config) Validate() error {
	if _, err := c.ResolveDialect(); err != nil {
		return err
	}
	if _, err := c.ResolveKeywordCase(); err != nil {
		return err
	}
	switch c.OutputFormat {
	case "", "auto", "text", "markdown", "json", "yaml":
	default:
		return fmt.Errorf("invalid output %q (want auto, text, markdown, json or yaml)", c.OutputFormat)
	}
	if _, err := c.BuildLintConfig(); err != nil {
		return err
	}
	return nil
}

// GetConfigFileUsed returns the path to the config file being used, if any.
func GetConfigFileUsed() string {
	return configFileUsed
}

// GetCurrentConfig returns the configuration loaded by the last LoadConfig call.
func GetCurrentConfig() *Config {
	return currentConfig
}

func envKey(s string) string {
	s = strings.ToLower(strings.TrimPrefix(s, EnvPrefix))
	return strings.ReplaceAll(s, "__", ".")
}

// resolvePathRelativeTo resolves a path relative to baseDir if it's not absolute.
func resolvePathRelativeTo(path, baseDir string) string {
	if path == "" || filepath.IsAbs(path) {
		return path
	}
	return filepath.Join(baseDir, path)
}

var envVarPattern = regexp.MustCompile(`\$\{([^}]+)\}`)

// expandEnvVars expands ${VAR} patterns, leaving unknown variables in place.
func expandEnvVars(s string) string {
	return envVarPattern.ReplaceAllStringFunc(s, func(match string) string {
		if val := os.Getenv(match[2 : len(match)-1]); val != "" {
			return val
		}
		return match
	})
}
