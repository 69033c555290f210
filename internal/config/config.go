// Package config provides configuration loading and management for the
// content mover.
package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/bmatcuk/doublestar/v4"
	"gopkg.in/yaml.v3"

	"content-mover/internal/idctx"
	"content-mover/internal/idtypes"
	"content-mover/internal/logger"
)

// Lock backends.
const (
	LockMemory = "memory"
	LockRedis  = "redis"
)

// Config represents the complete configuration.
type Config struct {
	Log            LogConfig            `yaml:"log"`
	Lock           LockConfig           `yaml:"lock"`
	Install        InstallConfig        `yaml:"install"`
	Package        PackageConfig        `yaml:"package"`
	Classification ClassificationConfig `yaml:"classification"`
	// Locale selects the language of address texts (BCP 47, e.g. "de").
	Locale string `yaml:"locale"`
}

// LogConfig configures logging.
type LogConfig struct {
	Level  string `yaml:"level"`
	Format string `yaml:"format"`
}

// LockConfig configures the per-object install lock.
type LockConfig struct {
	// Backend is "memory" or "redis".
	Backend  string        `yaml:"backend"`
	RedisURL string        `yaml:"redisURL,omitempty"`
	Prefix   string        `yaml:"prefix"`
	TTL      time.Duration `yaml:"ttl"`
	// Wait bounds how long an install waits for a held lock.
	Wait time.Duration `yaml:"wait"`
}

// InstallConfig configures installs.
type InstallConfig struct {
	// ReserveNew mints target ids for unmapped source ids.
	ReserveNew bool `yaml:"reserveNew"`
	// TransactionLog is the JSON-lines log file entries are appended to.
	TransactionLog string `yaml:"transactionLog,omitempty"`
	// MetricsFile receives the install metrics in text exposition format.
	MetricsFile string `yaml:"metricsFile,omitempty"`
	Parallelism int    `yaml:"parallelism"`
}

// PackageConfig selects the auxiliary files that are packaged.
type PackageConfig struct {
	Include       []string `yaml:"include,omitempty"`
	Exclude       []string `yaml:"exclude,omitempty"`
	IncludeSystem bool     `yaml:"includeSystem,omitempty"`
}

// ClassificationConfig extends the built-in field classification tables.
type ClassificationConfig struct {
	Child         map[string]idtypes.FieldType `yaml:"child,omitempty"`
	Transform     map[string]idtypes.FieldType `yaml:"transform,omitempty"`
	ExtensionArgs map[string][]string          `yaml:"extensionArgs,omitempty"`
}

// DefaultConfig returns a Config with sensible defaults.
func DefaultConfig() *Config {
	return &Config{
		Log: LogConfig{
			Level:  "info",
			Format: string(logger.FormatConsole),
		},
		Lock: LockConfig{
			Backend: LockMemory,
			Prefix:  "content-mover:lock:",
			TTL:     5 * time.Minute,
			Wait:    30 * time.Second,
		},
		Install: InstallConfig{
			Parallelism: 4,
		},
		Locale: "en",
	}
}

// Validate checks that the configuration is valid.
func (c *Config) Validate() error {
	var errs []error

	if _, err := logger.ParseLevel(c.Log.Level); err != nil {
		errs = append(errs, fmt.Errorf("log.level: %w", err))
	}

	if _, err := logger.ParseFormat(c.Log.Format); err != nil {
		errs = append(errs, fmt.Errorf("log.format: %w", err))
	}

	switch c.Lock.Backend {
	case LockMemory:
	case LockRedis:
		if c.Lock.RedisURL == "" {
			errs = append(errs, errors.New("lock.redisURL is required for the redis backend"))
		}
	default:
		errs = append(errs, fmt.Errorf("lock.backend must be %q or %q, got %q", LockMemory, LockRedis, c.Lock.Backend))
	}

	if c.Lock.TTL < 0 || c.Lock.Wait < 0 {
		errs = append(errs, errors.New("lock.ttl and lock.wait must not be negative"))
	}

	if c.Install.Parallelism < 0 {
		errs = append(errs, errors.New("install.parallelism must not be negative"))
	}

	for _, p := range append(append([]string(nil), c.Package.Include...), c.Package.Exclude...) {
		if !doublestar.ValidatePattern(p) {
			errs = append(errs, fmt.Errorf("package: invalid file pattern %q", p))
		}
	}

	for section, entries := range map[string]map[string]idtypes.FieldType{
		"child":     c.Classification.Child,
		"transform": c.Classification.Transform,
	} {
		for name, ft := range entries {
			if !ft.Type.IsKnown() {
				errs = append(errs, fmt.Errorf("classification.%s.%s: unknown type %q", section, name, ft.Type))
			}

			if ft.ParentType != "" && !ft.ParentType.IsKnown() {
				errs = append(errs, fmt.Errorf("classification.%s.%s: unknown parent type %q", section, name, ft.ParentType))
			}
		}
	}

	if _, err := idctx.ParseLocale(c.Locale); err != nil {
		errs = append(errs, fmt.Errorf("locale: %w", err))
	}

	return errors.Join(errs...)
}

// Tables returns the default classification tables extended by the
// configured entries.
func (c *Config) Tables() *idtypes.Tables {
	t := idtypes.DefaultTables()
	t.Merge(c.Classification.Child, c.Classification.Transform, c.Classification.ExtensionArgs)

	return t
}

// Messages returns the address display messages of the configured locale.
func (c *Config) Messages() (*idctx.Messages, error) {
	tag, err := idctx.ParseLocale(c.Locale)
	if err != nil {
		return nil, err
	}

	return idctx.NewMessages(tag), nil
}

// LoadFromFile loads configuration from a YAML file on top of the
// defaults.
func LoadFromFile(path string) (*Config, error) {
	return readFile(path, DefaultConfig())
}

// readFile decodes path over config. Layers are read over an empty Config
// so that only the values they set take part in Merge.
func readFile(path string, config *Config) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	if err := yaml.Unmarshal(data, config); err != nil {
		return nil, fmt.Errorf("failed to parse config file: %w", err)
	}

	return config, nil
}

// SaveToFile saves configuration to a YAML file.
func (c *Config) SaveToFile(path string) error {
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("failed to create config directory: %w", err)
	}

	data, err := yaml.Marshal(c)
	if err != nil {
		return fmt.Errorf("failed to marshal config: %w", err)
	}

	if err := os.WriteFile(path, data, 0o644); err != nil {
		return fmt.Errorf("failed to write config file: %w", err)
	}

	return nil
}

// Merge merges another config into this one. Non-zero values of other
// take precedence; classification entries are added.
func (c *Config) Merge(other *Config) {
	if other == nil {
		return
	}

	if other.Log.Level != "" {
		c.Log.Level = other.Log.Level
	}

	if other.Log.Format != "" {
		c.Log.Format = other.Log.Format
	}

	if other.Lock.Backend != "" {
		c.Lock.Backend = other.Lock.Backend
	}

	if other.Lock.RedisURL != "" {
		c.Lock.RedisURL = other.Lock.RedisURL
	}

	if other.Lock.Prefix != "" {
		c.Lock.Prefix = other.Lock.Prefix
	}

	if other.Lock.TTL != 0 {
		c.Lock.TTL = other.Lock.TTL
	}

	if other.Lock.Wait != 0 {
		c.Lock.Wait = other.Lock.Wait
	}

	if other.Install.ReserveNew {
		c.Install.ReserveNew = true
	}

	if other.Install.TransactionLog != "" {
		c.Install.TransactionLog = other.Install.TransactionLog
	}

	if other.Install.MetricsFile != "" {
		c.Install.MetricsFile = other.Install.MetricsFile
	}

	if other.Install.Parallelism != 0 {
		c.Install.Parallelism = other.Install.Parallelism
	}

	if len(other.Package.Include) > 0 {
		c.Package.Include = other.Package.Include
	}

	if len(other.Package.Exclude) > 0 {
		c.Package.Exclude = other.Package.Exclude
	}

	if other.Package.IncludeSystem {
		c.Package.IncludeSystem = true
	}

	c.Classification.Child = mergeMap(c.Classification.Child, other.Classification.Child)
	c.Classification.Transform = mergeMap(c.Classification.Transform, other.Classification.Transform)
	c.Classification.ExtensionArgs = mergeMap(c.Classification.ExtensionArgs, other.Classification.ExtensionArgs)

	if other.Locale != "" {
		c.Locale = other.Locale
	}
}

func mergeMap[V any](dst, src map[string]V) map[string]V {
	if len(src) == 0 {
		return dst
	}

	if dst == nil {
		dst = make(map[string]V, len(src))
	}

	for k, v := range src {
		dst[k] = v
	}

	return dst
}
