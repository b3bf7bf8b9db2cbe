// Package config loads templink configuration by layering built-in
// defaults, the user config file, and TEMPLINK_* environment variables.
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/knadh/koanf/parsers/toml"
	"github.com/knadh/koanf/providers/confmap"
	"github.com/knadh/koanf/providers/env"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/v2"

	"github.com/templink/templink/pkg/errors"
)

// defaults is the base configuration layer.
func defaults() map[string]interface{} {
	return map[string]interface{}{
		"repo_url":                "",
		"repo_branch":             "main",
		"home_dir":                "",
		"auto_sync":               true,
		"prompt_for_scripts":      true,
		"max_parallel_operations": 4,
		"script_timeout_seconds":  300,
	}
}

// Config is the resolved templink configuration.
type Config struct {
	// RepoURL is the template repository to sync from.
	RepoURL string `koanf:"repo_url"`

	// RepoBranch is the branch checked out in the repository cache.
	RepoBranch string `koanf:"repo_branch"`

	// HomeDir overrides the home directory dotfiles templates link into.
	// Empty means the OS home directory.
	HomeDir string `koanf:"home_dir"`

	// AutoSync refreshes a missing or stale repository cache before
	// install/apply.
	AutoSync bool `koanf:"auto_sync"`

	// PromptForScripts asks before executing a template's install.sh.
	PromptForScripts bool `koanf:"prompt_for_scripts"`

	// MaxParallelOperations bounds concurrent template applications.
	MaxParallelOperations int `koanf:"max_parallel_operations"`

	// ScriptTimeoutSeconds bounds install script execution.
	ScriptTimeoutSeconds int `koanf:"script_timeout_seconds"`
}

// ScriptTimeout returns the install script budget as a duration.
func (c *Config) ScriptTimeout() time.Duration {
	return time.Duration(c.ScriptTimeoutSeconds) * time.Second
}

// IsConfigured reports whether a repository URL has been set.
func (c *Config) IsConfigured() bool {
	return c.RepoURL != ""
}

// Load reads the configuration: built-in defaults, then the config file at
// configFilePath if it exists, then TEMPLINK_* environment variables.
func Load(configFilePath string) (*Config, error) {
	k := koanf.New(".")

	// 1. Built-in defaults
	if err := k.Load(confmap.Provider(defaults(), "."), nil); err != nil {
		return nil, errors.Wrap(err, errors.ErrConfigLoad, "failed to load defaults")
	}

	// 2. User config file, if present
	if configFilePath != "" {
		if _, err := os.Stat(configFilePath); err == nil {
			if err := k.Load(file.Provider(configFilePath), toml.Parser()); err != nil {
				return nil, errors.Wrapf(err, errors.ErrConfigParse, "failed to load config from %s", configFilePath)
			}
		}
	}

	// 3. Environment variables
	if err := k.Load(env.Provider("TEMPLINK_", ".", func(s string) string {
		return strings.ToLower(strings.TrimPrefix(s, "TEMPLINK_"))
	}), nil); err != nil {
		return nil, errors.Wrap(err, errors.ErrConfigLoad, "failed to load env vars")
	}

	var cfg Config
	if err := k.Unmarshal("", &cfg); err != nil {
		return nil, errors.Wrap(err, errors.ErrConfigParse, "failed to unmarshal configuration")
	}

	if err := validate(&cfg); err != nil {
		return nil, err
	}
	return &cfg, nil
}

func validate(cfg *Config) error {
	if cfg.MaxParallelOperations < 1 || cfg.MaxParallelOperations > 16 {
		return errors.Newf(errors.ErrConfigValid,
			"max_parallel_operations must be between 1 and 16, got %d", cfg.MaxParallelOperations)
	}
	if cfg.ScriptTimeoutSeconds < 1 {
		return errors.Newf(errors.ErrConfigValid,
			"script_timeout_seconds must be positive, got %d", cfg.ScriptTimeoutSeconds)
	}
	return nil
}

// settableKeys are the keys `templink config set` accepts.
var settableKeys = map[string]struct{}{
	"repo_url":                {},
	"repo_branch":             {},
	"home_dir":                {},
	"auto_sync":               {},
	"prompt_for_scripts":      {},
	"max_parallel_operations": {},
	"script_timeout_seconds":  {},
}

// SetKey updates one key in the config file, creating the file if needed.
// Only the file layer is touched; defaults and env are never written.
func SetKey(configFilePath, key, value string) error {
	if _, ok := settableKeys[key]; !ok {
		return errors.Newf(errors.ErrInvalidInput, "unknown configuration key %q", key)
	}

	k := koanf.New(".")
	if _, err := os.Stat(configFilePath); err == nil {
		if err := k.Load(file.Provider(configFilePath), toml.Parser()); err != nil {
			return errors.Wrapf(err, errors.ErrConfigParse, "failed to load config from %s", configFilePath)
		}
	}

	if err := k.Set(key, coerceValue(value)); err != nil {
		return errors.Wrapf(err, errors.ErrConfigLoad, "failed to set %s", key)
	}

	out, err := k.Marshal(toml.Parser())
	if err != nil {
		return errors.Wrap(err, errors.ErrConfigLoad, "failed to serialize configuration")
	}

	if err := os.MkdirAll(filepath.Dir(configFilePath), 0755); err != nil {
		return errors.Wrap(err, errors.ErrConfigLoad, "failed to create config directory")
	}
	if err := os.WriteFile(configFilePath, out, 0644); err != nil {
		return errors.Wrapf(err, errors.ErrConfigLoad, "failed to write %s", configFilePath)
	}
	return nil
}

// coerceValue keeps booleans and integers typed in the written TOML.
func coerceValue(value string) interface{} {
	switch value {
	case "true":
		return true
	case "false":
		return false
	}
	var n int
	if _, err := fmt.Sscanf(value, "%d", &n); err == nil && fmt.Sprintf("%d", n) == value {
		return n
	}
	return value
}
