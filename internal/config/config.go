package config

import (
	"encoding/json"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/viper"

	"codetour/internal/paths"
)

// CurrentVersion is the only config schema version this build understands.
const CurrentVersion = 1

// Config represents the complete codetour configuration
type Config struct {
	Version  int    `json:"version" mapstructure:"version"`
	RepoRoot string `json:"repoRoot" mapstructure:"repoRoot"`

	Tours   ToursConfig   `json:"tours" mapstructure:"tours"`
	Git     GitConfig     `json:"git" mapstructure:"git"`
	Symbols SymbolsConfig `json:"symbols" mapstructure:"symbols"`
	History HistoryConfig `json:"history" mapstructure:"history"`
	Logging LoggingConfig `json:"logging" mapstructure:"logging"`
}

// ToursConfig locates tour files
type ToursConfig struct {
	Dir string `json:"dir" mapstructure:"dir"`
}

// GitConfig contains revision oracle settings
type GitConfig struct {
	Enabled bool `json:"enabled" mapstructure:"enabled"`

	// TimeoutMs bounds each git invocation. 0 disables the timeout.
	TimeoutMs int `json:"timeoutMs" mapstructure:"timeoutMs"`

	// RenameSimilarity is the -M threshold, in percent, for rename detection.
	RenameSimilarity int `json:"renameSimilarity" mapstructure:"renameSimilarity"`
}

// SymbolsConfig contains symbol provider settings
type SymbolsConfig struct {
	// Backends in preference order. Known values: "scip", "treesitter".
	Backends      []string `json:"backends" mapstructure:"backends"`
	ScipIndexPath string   `json:"scipIndexPath" mapstructure:"scipIndexPath"`
}

// HistoryConfig controls the run history database
type HistoryConfig struct {
	Enabled bool `json:"enabled" mapstructure:"enabled"`
}

// LoggingConfig contains logging configuration
type LoggingConfig struct {
	Format string `json:"format" mapstructure:"format"`
	Level  string `json:"level" mapstructure:"level"`

	// File, relative to .codetour/, additionally receives logs when set.
	File       string `json:"file,omitempty" mapstructure:"file"`
	MaxSize    string `json:"maxSize,omitempty" mapstructure:"maxSize"` // e.g. "10MB"; empty disables rotation
	MaxBackups int    `json:"maxBackups,omitempty" mapstructure:"maxBackups"`
}

// envBindings maps config keys to the environment variables that override them.
var envBindings = map[string]string{
	"logging.level":         "CODETOUR_LOG_LEVEL",
	"logging.format":        "CODETOUR_LOG_FORMAT",
	"git.timeoutMs":         "CODETOUR_GIT_TIMEOUT_MS",
	"symbols.scipIndexPath": "CODETOUR_SCIP_INDEX",
}

// DefaultConfig returns the default configuration
func DefaultConfig() *Config {
	return &Config{
		Version:  CurrentVersion,
		RepoRoot: ".",
		Tours: ToursConfig{
			Dir: paths.DefaultToursDir,
		},
		Git: GitConfig{
			Enabled:          true,
			TimeoutMs:        10000,
			RenameSimilarity: 50,
		},
		Symbols: SymbolsConfig{
			Backends:      []string{"scip", "treesitter"},
			ScipIndexPath: ".scip/index.scip",
		},
		History: HistoryConfig{
			Enabled: true,
		},
		Logging: LoggingConfig{
			Format:     "human",
			Level:      "warn",
			MaxSize:    "10MB",
			MaxBackups: 3,
		},
	}
}

// LoadConfig loads configuration from .codetour/config.json. A missing file yields the
// defaults; environment overrides apply either way.
func LoadConfig(repoRoot string) (*Config, error) {
	v := viper.New()
	setDefaults(v, DefaultConfig())

	v.SetConfigName("config")
	v.SetConfigType("json")
	v.AddConfigPath(paths.ConfigDir(repoRoot))

	for key, env := range envBindings {
		if err := v.BindEnv(key, env); err != nil {
			return nil, err
		}
	}

	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, &ConfigError{Field: "file", Message: err.Error()}
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, err
	}

	return &cfg, nil
}

func setDefaults(v *viper.Viper, d *Config) {
	v.SetDefault("version", d.Version)
	v.SetDefault("repoRoot", d.RepoRoot)
	v.SetDefault("tours.dir", d.Tours.Dir)
	v.SetDefault("git.enabled", d.Git.Enabled)
	v.SetDefault("git.timeoutMs", d.Git.TimeoutMs)
	v.SetDefault("git.renameSimilarity", d.Git.RenameSimilarity)
	v.SetDefault("symbols.backends", d.Symbols.Backends)
	v.SetDefault("symbols.scipIndexPath", d.Symbols.ScipIndexPath)
	v.SetDefault("history.enabled", d.History.Enabled)
	v.SetDefault("logging.format", d.Logging.Format)
	v.SetDefault("logging.level", d.Logging.Level)
	v.SetDefault("logging.file", d.Logging.File)
	v.SetDefault("logging.maxSize", d.Logging.MaxSize)
	v.SetDefault("logging.maxBackups", d.Logging.MaxBackups)
}

// SupportedEnvVars lists the environment variables LoadConfig honors.
func SupportedEnvVars() []string {
	vars := make([]string, 0, len(envBindings))
	for _, env := range envBindings {
		vars = append(vars, env)
	}
	return vars
}

// Save writes the configuration to .codetour/config.json
func (c *Config) Save(repoRoot string) error {
	dir, err := paths.EnsureConfigDir(repoRoot)
	if err != nil {
		return err
	}

	data, err := json.MarshalIndent(c, "", "  ")
	if err != nil {
		return err
	}

	return os.WriteFile(filepath.Join(dir, "config.json"), append(data, '\n'), 0644)
}

// Validate checks if the configuration is valid
func (c *Config) Validate() error {
	if c.Version != CurrentVersion {
		return &ConfigError{Field: "version", Message: "unsupported config version"}
	}
	if c.Tours.Dir == "" {
		return &ConfigError{Field: "tours.dir", Message: "must not be empty"}
	}
	if c.Git.TimeoutMs < 0 {
		return &ConfigError{Field: "git.timeoutMs", Message: "must not be negative"}
	}
	if c.Git.RenameSimilarity < 1 || c.Git.RenameSimilarity > 100 {
		return &ConfigError{Field: "git.renameSimilarity", Message: "must be between 1 and 100"}
	}
	for _, b := range c.Symbols.Backends {
		switch b {
		case "scip", "treesitter":
		default:
			return &ConfigError{Field: "symbols.backends", Message: "unknown backend " + b}
		}
	}
	switch strings.ToLower(c.Logging.Format) {
	case "", "human", "json":
	default:
		return &ConfigError{Field: "logging.format", Message: "must be human or json"}
	}
	if c.Logging.MaxBackups < 0 {
		return &ConfigError{Field: "logging.maxBackups", Message: "must not be negative"}
	}
	return nil
}

// ConfigError represents a configuration error
type ConfigError struct {
	Field   string
	Message string
}

func (e *ConfigError) Error() string {
	return "config error in field '" + e.Field + "': " + e.Message
}
