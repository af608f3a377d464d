package config

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"runtime"
	"strconv"
)

// Config represents the reviewerd configuration.
type Config struct {
	BaseRef        string        `json:"baseRef"`
	FilterPattern  string        `json:"filterPattern"`
	MaxDiffBytes   int           `json:"maxDiffBytes"`
	TimeoutSeconds int           `json:"timeoutSeconds"`
	PersonaPaths   []string      `json:"personaPaths"`
	ReportDir      string        `json:"reportDir"`
	CacheEnabled   bool          `json:"cacheEnabled"`
	Privacy        PrivacyConfig `json:"privacy"`
}

// PrivacyConfig controls redaction behavior.
type PrivacyConfig struct {
	RedactSecrets bool `json:"redactSecrets"`
}

// Default returns a Config with all defaults applied.
func Default() Config {
	return Config{
		BaseRef:        "development",
		FilterPattern:  "*.py",
		MaxDiffBytes:   500000,
		TimeoutSeconds: 60,
		PersonaPaths: []string{
			"notebooks/code_reviewer_persona.md",
			"docs/code_reviewer_persona.md",
			".code-reviewer/persona.md",
		},
		ReportDir:    ".reviews",
		CacheEnabled: true,
		Privacy: PrivacyConfig{
			RedactSecrets: true,
		},
	}
}

// ConfigDir returns the platform-appropriate config directory for reviewerd.
func ConfigDir() (string, error) {
	if xdg := os.Getenv("XDG_CONFIG_HOME"); xdg != "" {
		return filepath.Join(xdg, "reviewerd"), nil
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("cannot determine home directory: %w", err)
	}
	switch runtime.GOOS {
	case "darwin":
		return filepath.Join(home, "Library", "Application Support", "reviewerd"), nil
	case "windows":
		if appData := os.Getenv("APPDATA"); appData != "" {
			return filepath.Join(appData, "reviewerd"), nil
		}
		return filepath.Join(home, "AppData", "Roaming", "reviewerd"), nil
	default:
		return filepath.Join(home, ".config", "reviewerd"), nil
	}
}

// ConfigPath returns the full path to the config file.
func ConfigPath() (string, error) {
	dir, err := ConfigDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(dir, "config.json"), nil
}

// LoadFile loads config from the config file. Returns zero Config and nil
// error if the file doesn't exist.
func LoadFile() (Config, error) {
	path, err := ConfigPath()
	if err != nil {
		return Config{}, err
	}
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return Config{}, nil
		}
		return Config{}, fmt.Errorf("reading config file: %w", err)
	}
	var cfg Config
	if err := json.Unmarshal(data, &cfg); err != nil {
		return Config{}, fmt.Errorf("parsing config file: %w", err)
	}
	return cfg, nil
}

// Save writes the config to the config file.
func Save(cfg Config) error {
	path, err := ConfigPath()
	if err != nil {
		return err
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("creating config directory: %w", err)
	}
	data, err := json.MarshalIndent(cfg, "", "  ")
	if err != nil {
		return fmt.Errorf("marshaling config: %w", err)
	}
	return os.WriteFile(path, data, 0o644)
}

// Load builds the effective config by merging: defaults <- file <- env <-
// overrides. The overrides map comes from CLI flags; only set values win.
func Load(overrides map[string]string) (Config, error) {
	cfg := Default()

	path, err := ConfigPath()
	if err != nil {
		return Config{}, err
	}
	data, err := os.ReadFile(path)
	switch {
	case err == nil:
		var fileCfg Config
		if err := json.Unmarshal(data, &fileCfg); err != nil {
			return Config{}, fmt.Errorf("parsing config file: %w", err)
		}
		mergeFile(&cfg, fileCfg)
		mergeFileBools(&cfg, data)
	case !os.IsNotExist(err):
		return Config{}, fmt.Errorf("reading config file: %w", err)
	}

	mergeEnv(&cfg)
	mergeOverrides(&cfg, overrides)

	return cfg, nil
}

func mergeFile(dst *Config, src Config) {
	if src.BaseRef != "" {
		dst.BaseRef = src.BaseRef
	}
	if src.FilterPattern != "" {
		dst.FilterPattern = src.FilterPattern
	}
	if src.MaxDiffBytes > 0 {
		dst.MaxDiffBytes = src.MaxDiffBytes
	}
	if src.TimeoutSeconds > 0 {
		dst.TimeoutSeconds = src.TimeoutSeconds
	}
	if len(src.PersonaPaths) > 0 {
		dst.PersonaPaths = src.PersonaPaths
	}
	if src.ReportDir != "" {
		dst.ReportDir = src.ReportDir
	}
}

// mergeFileBools carries the boolean fields across separately: a plain Config
// round-trip cannot tell an explicit false from an absent key, so presence is
// detected with pointer fields against the raw file content.
func mergeFileBools(cfg *Config, data []byte) {
	var b struct {
		CacheEnabled *bool `json:"cacheEnabled"`
		Privacy      struct {
			RedactSecrets *bool `json:"redactSecrets"`
		} `json:"privacy"`
	}
	if err := json.Unmarshal(data, &b); err != nil {
		return
	}
	if b.CacheEnabled != nil {
		cfg.CacheEnabled = *b.CacheEnabled
	}
	if b.Privacy.RedactSecrets != nil {
		cfg.Privacy.RedactSecrets = *b.Privacy.RedactSecrets
	}
}

func mergeEnv(cfg *Config) {
	if v := os.Getenv("REVIEWERD_BASE_REF"); v != "" {
		cfg.BaseRef = v
	}
	if v := os.Getenv("REVIEWERD_FILTER"); v != "" {
		cfg.FilterPattern = v
	}
	if v := os.Getenv("REVIEWERD_MAX_DIFF_BYTES"); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			cfg.MaxDiffBytes = n
		}
	}
	if v := os.Getenv("REVIEWERD_TIMEOUT_SECONDS"); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			cfg.TimeoutSeconds = n
		}
	}
	if v := os.Getenv("REVIEWERD_REPORT_DIR"); v != "" {
		cfg.ReportDir = v
	}
}

func mergeOverrides(cfg *Config, overrides map[string]string) {
	if overrides == nil {
		return
	}
	if v, ok := overrides["baseRef"]; ok && v != "" {
		cfg.BaseRef = v
	}
	if v, ok := overrides["filterPattern"]; ok && v != "" {
		cfg.FilterPattern = v
	}
	if v, ok := overrides["maxDiffBytes"]; ok && v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			cfg.MaxDiffBytes = n
		}
	}
	if v, ok := overrides["timeoutSeconds"]; ok && v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			cfg.TimeoutSeconds = n
		}
	}
	if v, ok := overrides["reportDir"]; ok && v != "" {
		cfg.ReportDir = v
	}
}

// SetField sets a single config field by key name. Returns an error if the
// key is unknown.
func SetField(cfg *Config, key, value string) error {
	switch key {
	case "baseRef":
		cfg.BaseRef = value
	case "filterPattern":
		cfg.FilterPattern = value
	case "maxDiffBytes":
		n, err := strconv.Atoi(value)
		if err != nil {
			return fmt.Errorf("maxDiffBytes must be an integer: %w", err)
		}
		cfg.MaxDiffBytes = n
	case "timeoutSeconds":
		n, err := strconv.Atoi(value)
		if err != nil {
			return fmt.Errorf("timeoutSeconds must be an integer: %w", err)
		}
		cfg.TimeoutSeconds = n
	case "reportDir":
		cfg.ReportDir = value
	default:
		return fmt.Errorf("unknown config key: %s", key)
	}
	return nil
}
