package config

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/joho/godotenv"

	"github.com/mainbong/storage_fixtures/internal/filesystem"
)

// ErrInvalidConfig is returned (wrapped) by Validate and Set
var ErrInvalidConfig = errors.New("invalid config")

// Range is an inclusive integer range
type Range struct {
	Min int `json:"min"`
	Max int `json:"max"`
}

// Config holds the generator configuration
type Config struct {
	BaseDir         string   `json:"base_dir"`
	Groups          []string `json:"groups"`
	FileCount       Range    `json:"file_count"`
	ContentSize     Range    `json:"content_size"`
	TextProbability float64  `json:"text_probability"`
	Seed            int64    `json:"seed"` // 0 seeds from the clock
	LogDir          string   `json:"log_dir"`
	LogLevel        string   `json:"log_level"` // "debug", "info", "warn", "error"
}

var (
	configDir  = filepath.Join(os.Getenv("HOME"), ".storage-fixtures")
	configFile = filepath.Join(configDir, "config.json")
	defaultFS  = filesystem.NewOSFileSystem()
)

// Default returns the built-in configuration
func Default() *Config {
	cfg := &Config{
		BaseDir:         DefaultBaseDir,
		FileCount:       Range{Min: DefaultMinFiles, Max: DefaultMaxFiles},
		ContentSize:     Range{Min: DefaultMinSize, Max: DefaultMaxSize},
		TextProbability: DefaultTextProbability,
		LogDir:          filepath.Join(configDir, "logs"),
		LogLevel:        DefaultLogLevel,
	}
	cfg.Groups = make([]string, len(DefaultGroups))
	copy(cfg.Groups, DefaultGroups)
	return cfg
}

// Load loads the configuration from the default config file, falling back to
// the built-in defaults when the file does not exist
func Load() (*Config, error) {
	return LoadWithFS(defaultFS, configDir, configFile)
}

// LoadWithFS loads the configuration using a custom FileSystem (for testing).
// Unlike Save it never creates anything on disk.
func LoadWithFS(fs filesystem.FileSystem, dir, file string) (*Config, error) {
	cfg := Default()
	cfg.LogDir = filepath.Join(dir, "logs")

	if _, err := fs.Stat(file); err == nil {
		data, err := fs.ReadFile(file)
		if err != nil {
			return nil, fmt.Errorf("failed to read config file: %w", err)
		}

		if err := json.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("failed to parse config file: %w", err)
		}
	} else if !os.IsNotExist(err) {
		return nil, fmt.Errorf("failed to stat config file: %w", err)
	}

	if strings.TrimSpace(cfg.LogDir) == "" {
		cfg.LogDir = filepath.Join(dir, "logs")
	}

	return cfg, nil
}

// Save saves the configuration to the default config file
func (c *Config) Save() error {
	return c.SaveWithFS(defaultFS, configFile)
}

// SaveWithFS saves the configuration using a custom FileSystem (for testing)
func (c *Config) SaveWithFS(fs filesystem.FileSystem, file string) error {
	data, err := json.MarshalIndent(c, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal config: %w", err)
	}

	dir := filepath.Dir(file)
	if err := fs.MkdirAll(dir, DirPerm); err != nil {
		return fmt.Errorf("failed to create config directory: %w", err)
	}

	if err := fs.WriteFile(file, data, 0600); err != nil {
		return fmt.Errorf("failed to write config file: %w", err)
	}

	return nil
}

// GetConfigDir returns the configuration directory path
func GetConfigDir() string {
	return configDir
}

// GetConfigFile returns the configuration file path
func GetConfigFile() string {
	return configFile
}

// ApplyEnv overrides fields from STORAGE_FIXTURES_* environment variables.
// A .env file at envPath is loaded first if it exists; variables already set
// in the process environment win over the file.
func (c *Config) ApplyEnv(envPath string) error {
	if envPath != "" {
		if err := godotenv.Load(envPath); err != nil && !os.IsNotExist(err) {
			return fmt.Errorf("failed to load env file %s: %w", envPath, err)
		}
	}

	overrides := []struct {
		env string
		key string
	}{
		{EnvBaseDir, "base_dir"},
		{EnvSeed, "seed"},
		{EnvLogLevel, "log_level"},
	}
	for _, o := range overrides {
		value, ok := os.LookupEnv(o.env)
		if !ok || value == "" {
			continue
		}
		if err := c.Set(o.key, value); err != nil {
			return fmt.Errorf("%s: %w", o.env, err)
		}
	}

	return nil
}

// GroupDir returns the absolute directory for a group path
func (c *Config) GroupDir(group string) string {
	return filepath.Join(c.BaseDir, filepath.FromSlash(group))
}

// Validate checks that the configuration can drive a run
func (c *Config) Validate() error {
	if strings.TrimSpace(c.BaseDir) == "" {
		return fmt.Errorf("%w: base_dir is empty", ErrInvalidConfig)
	}
	if len(c.Groups) == 0 {
		return fmt.Errorf("%w: no groups configured", ErrInvalidConfig)
	}

	seen := make(map[string]bool, len(c.Groups))
	for _, group := range c.Groups {
		if err := validateGroup(group); err != nil {
			return err
		}
		clean := filepath.Clean(filepath.FromSlash(group))
		if seen[clean] {
			return fmt.Errorf("%w: duplicate group %q", ErrInvalidConfig, group)
		}
		seen[clean] = true
	}

	if err := validateRange("file_count", c.FileCount); err != nil {
		return err
	}
	if err := validateRange("content_size", c.ContentSize); err != nil {
		return err
	}
	if c.TextProbability < 0 || c.TextProbability > 1 {
		return fmt.Errorf("%w: text_probability %v is outside [0, 1]", ErrInvalidConfig, c.TextProbability)
	}
	if _, err := normalizeLevel(c.LogLevel); err != nil {
		return err
	}

	return nil
}

func validateGroup(group string) error {
	if strings.TrimSpace(group) == "" {
		return fmt.Errorf("%w: empty group path", ErrInvalidConfig)
	}
	p := filepath.FromSlash(group)
	if filepath.IsAbs(p) {
		return fmt.Errorf("%w: group %q must be relative to base_dir", ErrInvalidConfig, group)
	}
	clean := filepath.Clean(p)
	if clean == "." || clean == ".." || strings.HasPrefix(clean, ".."+string(filepath.Separator)) {
		return fmt.Errorf("%w: group %q escapes base_dir", ErrInvalidConfig, group)
	}
	return nil
}

func validateRange(name string, r Range) error {
	if r.Min < 0 {
		return fmt.Errorf("%w: %s.min %d is negative", ErrInvalidConfig, name, r.Min)
	}
	if r.Min > r.Max {
		return fmt.Errorf("%w: %s.min %d is greater than max %d", ErrInvalidConfig, name, r.Min, r.Max)
	}
	return nil
}

func normalizeLevel(value string) (string, error) {
	switch strings.ToLower(strings.TrimSpace(value)) {
	case "debug", "info", "warn", "error":
		return strings.ToLower(strings.TrimSpace(value)), nil
	default:
		return "", fmt.Errorf("%w: invalid log_level: %s", ErrInvalidConfig, value)
	}
}

// Set updates a config value by key.
func (c *Config) Set(key, value string) error {
	switch strings.ToLower(strings.TrimSpace(key)) {
	case "base_dir":
		if strings.TrimSpace(value) == "" {
			return fmt.Errorf("%w: base_dir is empty", ErrInvalidConfig)
		}
		c.BaseDir = value
	case "groups":
		var groups []string
		for _, g := range strings.Split(value, ",") {
			if g = strings.TrimSpace(g); g != "" {
				groups = append(groups, g)
			}
		}
		for _, g := range groups {
			if err := validateGroup(g); err != nil {
				return err
			}
		}
		if len(groups) == 0 {
			return fmt.Errorf("%w: no groups in %q", ErrInvalidConfig, value)
		}
		c.Groups = groups
	case "file_count.min":
		return c.setInt(key, value, &c.FileCount.Min)
	case "file_count.max":
		return c.setInt(key, value, &c.FileCount.Max)
	case "content_size.min":
		return c.setInt(key, value, &c.ContentSize.Min)
	case "content_size.max":
		return c.setInt(key, value, &c.ContentSize.Max)
	case "text_probability":
		parsed, err := strconv.ParseFloat(value, 64)
		if err != nil || parsed < 0 || parsed > 1 {
			return fmt.Errorf("%w: invalid text_probability: %s", ErrInvalidConfig, value)
		}
		c.TextProbability = parsed
	case "seed":
		parsed, err := strconv.ParseInt(value, 10, 64)
		if err != nil {
			return fmt.Errorf("%w: invalid seed: %s", ErrInvalidConfig, value)
		}
		c.Seed = parsed
	case "log_dir":
		c.LogDir = value
	case "log_level":
		level, err := normalizeLevel(value)
		if err != nil {
			return err
		}
		c.LogLevel = level
	default:
		return fmt.Errorf("unknown config key: %s", key)
	}

	return nil
}

func (c *Config) setInt(key, value string, dst *int) error {
	parsed, err := strconv.Atoi(value)
	if err != nil || parsed < 0 {
		return fmt.Errorf("%w: invalid %s: %s", ErrInvalidConfig, key, value)
	}
	*dst = parsed
	return nil
}
