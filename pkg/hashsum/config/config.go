package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/adrg/xdg"
	"github.com/spf13/viper"

	"github.com/jamesainslie/hashsum/pkg/hashsum/digest"
	"github.com/jamesainslie/hashsum/pkg/hashsum/types"
)

// RotationConfig configures log file rotation.
type RotationConfig struct {
	MaxSize    string `mapstructure:"max_size"`
	MaxAge     int    `mapstructure:"max_age"`
	MaxBackups int    `mapstructure:"max_backups"`
	Daily      bool   `mapstructure:"daily"`
}

// LoggingConfig configures application logging.
type LoggingConfig struct {
	Level      string            `mapstructure:"level"`
	Path       string            `mapstructure:"path"`
	Rotation   RotationConfig    `mapstructure:"rotation"`
	Components map[string]string `mapstructure:"components"`
}

// CacheConfig configures the persistent digest cache.
type CacheConfig struct {
	Enabled bool   `mapstructure:"enabled"`
	Path    string `mapstructure:"path"`
}

// HistoryConfig configures the run history log.
type HistoryConfig struct {
	Enabled       bool   `mapstructure:"enabled"`
	Path          string `mapstructure:"path"`
	RetentionDays int    `mapstructure:"retention_days"`
}

// Config is the application configuration.
type Config struct {
	Algorithm   string        `mapstructure:"algorithm"`
	ChunkSize   string        `mapstructure:"chunk_size"`
	Workers     int           `mapstructure:"workers"`
	AllowUpward bool          `mapstructure:"allow_upward"`
	Exclude     []string      `mapstructure:"exclude"`
	Output      string        `mapstructure:"output"`
	Template    string        `mapstructure:"template"`
	Cache       CacheConfig   `mapstructure:"cache"`
	History     HistoryConfig `mapstructure:"history"`
	Logging     LoggingConfig `mapstructure:"logging"`

	// File is the config file that was read, empty when none was found.
	File string `mapstructure:"-"`

	// AlgorithmSet reports whether algorithm came from the config file or
	// the environment rather than the built-in default.
	AlgorithmSet bool `mapstructure:"-"`
}

// ChunkSizeBytes parses ChunkSize.
func (c *Config) ChunkSizeBytes() (int, error) {
	if c.ChunkSize == "" {
		return digest.DefaultChunkSize, nil
	}
	return types.ParseChunkSize(c.ChunkSize)
}

// Validate checks values that would otherwise fail deep inside a command.
func (c *Config) Validate() error {
	if _, err := digest.ParseAlgorithm(c.Algorithm); err != nil {
		return fmt.Errorf("algorithm: %w", err)
	}
	if _, err := c.ChunkSizeBytes(); err != nil {
		return fmt.Errorf("chunk_size: %w", err)
	}
	if c.Workers < 0 {
		return fmt.Errorf("workers: must not be negative, got %d", c.Workers)
	}
	if c.History.RetentionDays < 0 {
		return fmt.Errorf("history.retention_days: must not be negative, got %d", c.History.RetentionDays)
	}
	return nil
}

// Load reads configuration. When file is empty the first config.yaml
// found in these directories is used:
//   - $XDG_CONFIG_HOME/hashsum
//   - $HOME/.config/hashsum
//
// Environment variables prefixed with HASHSUM_ override file values,
// with "." in key names replaced by "_" (HASHSUM_CACHE_ENABLED).
func Load(file string) (*Config, error) {
	v := viper.New()
	SetDefaults(v)

	if file != "" {
		v.SetConfigFile(file)
	} else {
		v.SetConfigName("config")
		v.SetConfigType("yaml")
		dir, err := ConfigDir()
		if err != nil {
			return nil, err
		}
		v.AddConfigPath(dir)
		if home, err := os.UserHomeDir(); err == nil {
			v.AddConfigPath(filepath.Join(home, ".config", "hashsum"))
		}
	}

	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_", "-", "_"))
	v.AutomaticEnv()

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if file != "" || !errors.As(err, &notFound) {
			return nil, fmt.Errorf("failed to read config file: %w", err)
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}
	cfg.File = v.ConfigFileUsed()
	_, envSet := os.LookupEnv(EnvPrefix + "_ALGORITHM")
	cfg.AlgorithmSet = v.InConfig("algorithm") || envSet

	for _, p := range []*string{&cfg.Cache.Path, &cfg.History.Path, &cfg.Logging.Path} {
		expanded, err := ExpandPath(*p)
		if err != nil {
			return nil, err
		}
		*p = expanded
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}
	return &cfg, nil
}

// SetDefaults registers every default on v.
func SetDefaults(v *viper.Viper) {
	v.SetDefault("algorithm", DefaultAlgorithm)
	v.SetDefault("chunk_size", DefaultChunkSize)
	v.SetDefault("workers", 0)
	v.SetDefault("allow_upward", false)
	v.SetDefault("exclude", DefaultExclusions)
	v.SetDefault("output", DefaultOutput)
	v.SetDefault("template", "")

	v.SetDefault("cache.enabled", true)
	v.SetDefault("cache.path", DefaultCachePath())

	v.SetDefault("history.enabled", true)
	v.SetDefault("history.path", DefaultHistoryPath())
	v.SetDefault("history.retention_days", DefaultRetentionDays)

	v.SetDefault("logging.level", "info")
	v.SetDefault("logging.path", "") // empty uses logging.DefaultLogPath
	v.SetDefault("logging.rotation.max_size", "10MB")
	v.SetDefault("logging.rotation.max_age", 30)
	v.SetDefault("logging.rotation.max_backups", 5)
	v.SetDefault("logging.rotation.daily", true)
	v.SetDefault("logging.components", map[string]string{
		"cache":  "info",
		"verify": "info",
		"watch":  "warn",
	})
}

// ConfigDir returns $XDG_CONFIG_HOME/hashsum, or ~/.config/hashsum when
// XDG_CONFIG_HOME is unset.
func ConfigDir() (string, error) {
	if xdgConfigHome := os.Getenv("XDG_CONFIG_HOME"); xdgConfigHome != "" {
		return filepath.Join(xdgConfigHome, "hashsum"), nil
	}

	homeDir, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("failed to get user home directory: %w", err)
	}
	return filepath.Join(homeDir, ".config", "hashsum"), nil
}

// ConfigPath returns the default config file path.
func ConfigPath() (string, error) {
	dir, err := ConfigDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(dir, "config.yaml"), nil
}

// WriteDefault writes a commented default config file to path, or to
// ConfigPath when path is empty. It returns the path written and
// os.ErrExist if a file is already there.
func WriteDefault(path string) (string, error) {
	if path == "" {
		var err error
		if path, err = ConfigPath(); err != nil {
			return "", err
		}
	}

	if _, err := os.Stat(path); err == nil {
		return path, fmt.Errorf("%s: %w", path, os.ErrExist)
	} else if !os.IsNotExist(err) {
		return "", fmt.Errorf("failed to check config file: %w", err)
	}

	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return "", fmt.Errorf("failed to create config directory: %w", err)
	}

	content := fmt.Sprintf(defaultConfigTemplate,
		DefaultAlgorithm, DefaultChunkSize, DefaultOutput,
		DefaultCachePath(), DefaultHistoryPath(), DefaultRetentionDays)

	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		return "", fmt.Errorf("failed to write default config: %w", err)
	}
	return path, nil
}

const defaultConfigTemplate = `# hashsum configuration

# Digest algorithm for "hashsum digest". When set here, "hashsum create"
# also uses it for an output name without an extension and appends it.
# Run "hashsum algorithms" for the full list.
# algorithm: %s

# Read buffer size per file.
chunk_size: %s

# Concurrent digests (0 = based on CPU count).
workers: 0

# Store paths outside the manifest directory as ../relative instead of
# absolute.
allow_upward: false

# Patterns skipped when a directory is given as input.
exclude:
  - .git
  - "*.swp"
  - .DS_Store

# Report format for check: pretty, plain, json, jsonl, yaml, paths, null,
# csv, markdown, template.
output: %s

# Template for -o template, e.g. "{status}\t{path}\n".
template: ""

# Persistent digest cache. Entries are dropped when a file's mtime changes.
cache:
  enabled: true
  path: %s

# Log of create and check runs.
history:
  enabled: true
  path: %s
  retention_days: %d

logging:
  # debug, info, warn, error
  level: info
  # Empty uses $XDG_STATE_HOME/hashsum/hashsum.log
  path: ""
  rotation:
    max_size: 10MB
    max_age: 30       # days
    max_backups: 5
    daily: true
  components:
    cache: info
    verify: info
    watch: warn
`

// ExpandPath expands a leading ~ to the user's home directory.
func ExpandPath(path string) (string, error) {
	if !strings.HasPrefix(path, "~") {
		return path, nil
	}

	homeDir, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("failed to get user home directory: %w", err)
	}
	return filepath.Join(homeDir, path[1:]), nil
}

// CacheDir returns $XDG_CACHE_HOME/hashsum.
func CacheDir() string {
	return filepath.Join(xdg.CacheHome, "hashsum")
}

// DataDir returns $XDG_DATA_HOME/hashsum.
func DataDir() string {
	return filepath.Join(xdg.DataHome, "hashsum")
}

// DefaultCachePath returns the badger directory of the digest cache.
func DefaultCachePath() string {
	return filepath.Join(CacheDir(), "digests")
}

// DefaultHistoryPath returns the directory history entries are kept in.
func DefaultHistoryPath() string {
	return filepath.Join(DataDir(), "history")
}
