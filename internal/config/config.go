// Package config loads CLI configuration: data-root location and backup
// tuning, from JSONC config files with defaults < global file < explicit
// file < flag-override precedence.
package config

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"github.com/tailscale/hujson"
)

// Config holds all configuration options.
type Config struct {
	// From config files (serialized)
	DataRoot            string `json:"data_root"`
	BackupRetentionDays int    `json:"backup_retention_days,omitempty"`
	BackupIntervalHours int    `json:"backup_interval_hours,omitempty"`
	LogLevel            string `json:"log_level,omitempty"`

	// Resolved paths (computed, not serialized)
	DataRootAbs string `json:"-"`

	// Sources tracks which config files were loaded (for diagnostics)
	Sources Sources `json:"-"`
}

// Sources tracks which config files were loaded.
type Sources struct {
	Global   string // Path to global config if loaded, empty otherwise
	Explicit string // Path to explicit config if loaded, empty otherwise
}

var (
	ErrConfigFileNotFound = errors.New("config file not found")
	ErrConfigFileRead     = errors.New("cannot read config file")
	ErrConfigInvalid      = errors.New("invalid config file")
	ErrRetentionNegative  = errors.New("backup_retention_days must not be negative")
	ErrIntervalNegative   = errors.New("backup_interval_hours must not be negative")
)

// Default returns the default configuration. The empty DataRoot resolves to
// ~/.deskflow at load time.
func Default() Config {
	return Config{
		BackupRetentionDays: 7,
		BackupIntervalHours: 24,
		LogLevel:            "info",
	}
}

// globalPath returns the global config file path: $XDG_CONFIG_HOME/deskflow/
// config.json if set, otherwise ~/.config/deskflow/config.json. Empty if the
// home directory cannot be determined.
func globalPath(env map[string]string) string {
	if xdg := env["XDG_CONFIG_HOME"]; xdg != "" {
		return filepath.Join(xdg, "deskflow", "config.json")
	}

	if home := env["HOME"]; home != "" {
		return filepath.Join(home, ".config", "deskflow", "config.json")
	}

	return ""
}

// LoadInput holds the inputs for Load.
type LoadInput struct {
	ConfigPath       string            // -c/--config flag value; if set, the file must exist
	DataRootOverride string            // --data-root flag value; empty means no override
	Env              map[string]string // environment variables
}

// Load resolves configuration with the following precedence (highest wins):
// 1. Defaults
// 2. Global user config ($XDG_CONFIG_HOME/deskflow/config.json or ~/.config/deskflow/config.json)
// 3. Explicit config file via ConfigPath (if non-empty)
// 4. CLI overrides.
//
// DataRootAbs in the returned Config is always absolute.
func Load(input LoadInput) (Config, error) {
	cfg := Default()

	globalCfg, gPath, err := loadOptional(globalPath(input.Env))
	if err != nil {
		return Config{}, err
	}

	cfg.Sources.Global = gPath
	cfg = merge(cfg, globalCfg)

	if input.ConfigPath != "" {
		explicitCfg, err := loadRequired(input.ConfigPath)
		if err != nil {
			return Config{}, err
		}

		cfg.Sources.Explicit = input.ConfigPath
		cfg = merge(cfg, explicitCfg)
	}

	if input.DataRootOverride != "" {
		cfg.DataRoot = input.DataRootOverride
	}

	if err := validate(cfg); err != nil {
		return Config{}, err
	}

	root := cfg.DataRoot
	if root == "" {
		home, homeErr := os.UserHomeDir()
		if homeErr != nil {
			return Config{}, fmt.Errorf("resolving home directory: %w", homeErr)
		}

		root = filepath.Join(home, ".deskflow")
	} else if !filepath.IsAbs(root) {
		wd, wdErr := os.Getwd()
		if wdErr != nil {
			return Config{}, fmt.Errorf("cannot get working directory: %w", wdErr)
		}

		root = filepath.Join(wd, root)
	}

	cfg.DataRootAbs = root

	return cfg, nil
}

// loadOptional loads a config file that may be absent. A missing or empty
// path yields a zero config and no error.
func loadOptional(path string) (Config, string, error) {
	if path == "" {
		return Config{}, "", nil
	}

	// Missing or unreadable global configs are skipped, not fatal.
	data, err := os.ReadFile(path)
	if err != nil {
		return Config{}, "", nil
	}

	cfg, parseErr := parse(data)
	if parseErr != nil {
		return Config{}, "", fmt.Errorf("%w %s: %w", ErrConfigInvalid, path, parseErr)
	}

	return cfg, path, nil
}

// loadRequired loads an explicitly requested config file, failing loudly if
// it does not exist or does not parse.
func loadRequired(path string) (Config, error) {
	if _, err := os.Stat(path); err != nil {
		return Config{}, fmt.Errorf("%w: %s", ErrConfigFileNotFound, path)
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return Config{}, fmt.Errorf("%w: %s", ErrConfigFileRead, path)
	}

	cfg, parseErr := parse(data)
	if parseErr != nil {
		return Config{}, fmt.Errorf("%w %s: %w", ErrConfigInvalid, path, parseErr)
	}

	return cfg, nil
}

func parse(data []byte) (Config, error) {
	// Standardize JSONC to JSON
	standardized, err := hujson.Standardize(data)
	if err != nil {
		return Config{}, fmt.Errorf("invalid JSONC: %w", err)
	}

	var cfg Config

	if err := json.Unmarshal(standardized, &cfg); err != nil {
		return Config{}, fmt.Errorf("invalid JSON: %w", err)
	}

	return cfg, nil
}

func merge(base, overlay Config) Config {
	if overlay.DataRoot != "" {
		base.DataRoot = overlay.DataRoot
	}

	if overlay.BackupRetentionDays != 0 {
		base.BackupRetentionDays = overlay.BackupRetentionDays
	}

	if overlay.BackupIntervalHours != 0 {
		base.BackupIntervalHours = overlay.BackupIntervalHours
	}

	if overlay.LogLevel != "" {
		base.LogLevel = overlay.LogLevel
	}

	return base
}

func validate(cfg Config) error {
	if cfg.BackupRetentionDays < 0 {
		return ErrRetentionNegative
	}

	if cfg.BackupIntervalHours < 0 {
		return ErrIntervalNegative
	}

	return nil
}
