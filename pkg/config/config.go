// Package config loads the backup-tool configuration file: per-host and
// per-policy section overlays on top of a shared set of defaults, grounded
// on original_source/archive/bt/config.py and original_source/archive/
// config.py's ChainMap-based section lookup.
package config

import (
	"fmt"
	"os"
	"strings"

	"gopkg.in/yaml.v3"
)

// EnvVar is the environment variable that overrides the default
// configuration file path, per spec.md §6.
const EnvVar = "BACKUP_CFG"

// DefaultPath is used when EnvVar is unset.
const DefaultPath = "/etc/backup.cfg"

// ConfigError reports a problem loading or resolving configuration.
type ConfigError struct {
	Reason string
}

func (e *ConfigError) Error() string {
	return fmt.Sprintf("configuration error: %s", e.Reason)
}

// file is the on-disk shape: a flat defaults map plus named sections. A
// section name is "host/policy", "host", or "policy", matching the
// configparser section names original_source's bt/config.py constructed.
type file struct {
	Defaults map[string]string            `yaml:"defaults"`
	Sections map[string]map[string]string `yaml:"sections"`
}

// Config is a fully resolved configuration: defaults overlaid, in
// increasing precedence, by the policy section, the host section, and the
// "host/policy" section.
type Config struct {
	values map[string]string
}

// ConfigFilePath returns the configured path: BACKUP_CFG if set, else
// DefaultPath.
func ConfigFilePath() string {
	if p := os.Getenv(EnvVar); p != "" {
		return p
	}
	return DefaultPath
}

// Load reads and resolves configuration for host/policy from path.
func Load(path, host, policy string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, &ConfigError{Reason: fmt.Sprintf("configuration file %s not found", path)}
	}
	return Parse(data, host, policy)
}

// Parse resolves configuration for host/policy from raw YAML bytes.
func Parse(data []byte, host, policy string) (*Config, error) {
	var f file
	if err := yaml.Unmarshal(data, &f); err != nil {
		return nil, fmt.Errorf("unable to parse configuration: %w", err)
	}

	values := make(map[string]string, len(f.Defaults))
	for k, v := range f.Defaults {
		values[k] = v
	}
	// Overlay order, least to most specific: policy, host, host/policy.
	for _, name := range []string{policy, host, host + "/" + policy} {
		for k, v := range f.Sections[name] {
			values[k] = v
		}
	}

	return &Config{values: values}, nil
}

// Get returns the raw (unexpanded) value for key, and whether it was set.
func (c *Config) Get(key string) (string, bool) {
	v, ok := c.values[key]
	return v, ok
}

// GetRequired returns key's value, or a ConfigError if it is unset.
func (c *Config) GetRequired(key string) (string, error) {
	v, ok := c.Get(key)
	if !ok || v == "" {
		return "", &ConfigError{Reason: fmt.Sprintf("%s is required but not set", key)}
	}
	return v, nil
}

// GetSplit returns key's value split on commas, with surrounding whitespace
// trimmed from each element; empty elements are dropped. An unset key
// yields an empty (not nil-error) slice.
func (c *Config) GetSplit(key string) []string {
	v, ok := c.Get(key)
	if !ok || strings.TrimSpace(v) == "" {
		return nil
	}
	parts := strings.Split(v, ",")
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		p = strings.TrimSpace(p)
		if p != "" {
			out = append(out, p)
		}
	}
	return out
}

// GetSplitSep returns key's value split on sep, with surrounding whitespace
// trimmed from each element and empty elements dropped, as used for the
// "/"-delimited schedule chain (e.g. "full/cumu/incr").
func (c *Config) GetSplitSep(key, sep string) []string {
	v, ok := c.Get(key)
	if !ok || strings.TrimSpace(v) == "" {
		return nil
	}
	parts := strings.Split(v, sep)
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		p = strings.TrimSpace(p)
		if p != "" {
			out = append(out, p)
		}
	}
	return out
}

// Expand substitutes %(key)s placeholders in s, first from extra (highest
// precedence, for runtime-computed values like date/schedule), then from
// the resolved configuration values, matching configparser's
// BasicInterpolation.
func (c *Config) Expand(s string, extra map[string]string) string {
	return expandTemplate(s, func(key string) (string, bool) {
		if v, ok := extra[key]; ok {
			return v, true
		}
		return c.Get(key)
	})
}
