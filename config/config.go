package config

import (
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"gopkg.in/yaml.v3"
	"tagchain/internal/domain"
)

// TagDirEnv names the environment variable holding the TreeTagger install directory.
const TagDirEnv = "TREETAGGER_HOME"

// DefaultTagDirs are probed, in order, when neither an explicit tag
// directory nor TREETAGGER_HOME is set.
var DefaultTagDirs = []string{
	"/usr/local/treetagger",
	"/opt/treetagger",
	"/usr/share/treetagger",
}

// Config holds all configuration for the tagging step.
type Config struct {
	Tagger  TaggerConfig  `yaml:"tagger"`
	Filter  FilterConfig  `yaml:"filter"`
	Source  SourceConfig  `yaml:"source"`
	Store   StoreConfig   `yaml:"store"`
	Logging LoggingConfig `yaml:"logging"`
}

// TaggerConfig holds processor and external tool configuration.
type TaggerConfig struct {
	Processor      string        `yaml:"processor"`       // "tagging.treetagger", "tagging.simple"
	Language       string        `yaml:"language"`        // e.g. "en", "fr", "de"
	TagDir         string        `yaml:"tag_dir"`         // overrides TREETAGGER_HOME
	ParameterFile  string        `yaml:"parameter_file"`  // overrides lib/<language>.par
	InputEncoding  string        `yaml:"input_encoding"`
	OutputEncoding string        `yaml:"output_encoding"`
	Sentinel       string        `yaml:"sentinel"`
	UnknownLemma   string        `yaml:"unknown_lemma"`
	BatchSize      int           `yaml:"batch_size"` // documents per tagger call, 0 = all
	Workers        int           `yaml:"workers"`
	Timeout        time.Duration `yaml:"timeout"` // 0 = no timeout
	CacheSize      int           `yaml:"cache_size"` // cached tagger calls, 0 = off
}

// FilterConfig holds the token cleaning rules.
type FilterConfig struct {
	Tags           []string `yaml:"tags"`
	MinLemmaLength int      `yaml:"min_lemma_length"` // lemmas must be strictly longer
}

// SourceConfig holds document discovery configuration.
type SourceConfig struct {
	Includes []string `yaml:"includes"`
	Excludes []string `yaml:"excludes"`
}

// StoreConfig holds result storage configuration.
type StoreConfig struct {
	Driver string `yaml:"driver"` // "bolt", "sqlite", "memory"
	Path   string `yaml:"path"`   // empty = .tagchain/results.<ext> in the root dir
}

// LoggingConfig holds logging configuration.
type LoggingConfig struct {
	Level  string `yaml:"level"`
	Format string `yaml:"format"` // "text" or "json"
}

// DefaultConfig returns the default configuration.
func DefaultConfig() *Config {
	return &Config{
		Tagger: TaggerConfig{
			Processor:      "tagging.treetagger",
			Language:       "en",
			InputEncoding:  "utf-8",
			OutputEncoding: "utf-8",
			Sentinel:       "<eol>",
			UnknownLemma:   "<unknown>",
			BatchSize:      0,
			Workers:        1,
		},
		Filter: FilterConfig{
			Tags:           []string{"SENT", "KON", "PUN", "DT"},
			MinLemmaLength: 2,
		},
		Source: SourceConfig{
			Includes: []string{"**/*.txt", "**/*.md", "**/*.html", "**/*.htm"},
			Excludes: []string{"**/.git/**", "**/.tagchain/**", "**/node_modules/**", "**/vendor/**"},
		},
		Store: StoreConfig{
			Driver: "bolt",
		},
		Logging: LoggingConfig{
			Level:  "info",
			Format: "text",
		},
	}
}

// Load loads configuration from a YAML file.
func Load(path string) (*Config, error) {
	cfg := DefaultConfig()

	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return cfg, nil // Return defaults if no config file
		}
		return nil, err
	}

	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, err
	}

	return cfg, nil
}

// LoadFromDir loads configuration from a directory (looks for tagchain.yaml).
func LoadFromDir(dir string) (*Config, error) {
	path := filepath.Join(dir, "tagchain.yaml")
	if _, err := os.Stat(path); err == nil {
		return Load(path)
	}

	path = filepath.Join(dir, ".tagchain", "config.yaml")
	if _, err := os.Stat(path); err == nil {
		return Load(path)
	}

	return DefaultConfig(), nil
}

// Save saves configuration to a YAML file.
func (c *Config) Save(path string) error {
	data, err := yaml.Marshal(c)
	if err != nil {
		return err
	}
	return os.WriteFile(path, data, 0644)
}

// Validate reports the first unusable setting as a *domain.ConfigurationError.
func (c *Config) Validate() error {
	t := c.Tagger
	switch {
	case t.Processor == "":
		return &domain.ConfigurationError{Field: "tagger.processor", Reason: "must not be empty"}
	case t.Language == "":
		return &domain.ConfigurationError{Field: "tagger.language", Reason: "must not be empty"}
	case t.Sentinel == "":
		return &domain.ConfigurationError{Field: "tagger.sentinel", Reason: "must not be empty"}
	case t.UnknownLemma == "":
		return &domain.ConfigurationError{Field: "tagger.unknown_lemma", Reason: "must not be empty"}
	case t.BatchSize < 0:
		return &domain.ConfigurationError{Field: "tagger.batch_size", Reason: "must not be negative"}
	case t.Workers < 1:
		return &domain.ConfigurationError{Field: "tagger.workers", Reason: "must be at least 1"}
	case t.CacheSize < 0:
		return &domain.ConfigurationError{Field: "tagger.cache_size", Reason: "must not be negative"}
	case t.Timeout < 0:
		return &domain.ConfigurationError{Field: "tagger.timeout", Reason: "must not be negative"}
	case c.Filter.MinLemmaLength < 0:
		return &domain.ConfigurationError{Field: "filter.min_lemma_length", Reason: "must not be negative"}
	}

	switch c.Store.Driver {
	case "bolt", "sqlite", "memory":
	default:
		return &domain.ConfigurationError{Field: "store.driver", Reason: fmt.Sprintf("unsupported driver %q", c.Store.Driver)}
	}

	switch c.Logging.Format {
	case "", "text", "json":
	default:
		return &domain.ConfigurationError{Field: "logging.format", Reason: fmt.Sprintf("unsupported format %q", c.Logging.Format)}
	}

	return nil
}

// ResolveTagDir picks the TreeTagger install directory: the explicit value,
// then $TREETAGGER_HOME, then the first existing DefaultTagDirs entry.
func ResolveTagDir(explicit string, lookupEnv func(string) (string, bool)) (string, error) {
	if explicit != "" {
		if !isDir(explicit) {
			return "", &domain.ConfigurationError{Field: "tagger.tag_dir", Reason: fmt.Sprintf("%s is not a directory", explicit)}
		}
		return explicit, nil
	}

	if lookupEnv == nil {
		lookupEnv = os.LookupEnv
	}
	if env, ok := lookupEnv(TagDirEnv); ok && env != "" {
		if !isDir(env) {
			return "", &domain.ConfigurationError{Field: TagDirEnv, Reason: fmt.Sprintf("%s is not a directory", env)}
		}
		return env, nil
	}

	for _, dir := range DefaultTagDirs {
		if isDir(dir) {
			return dir, nil
		}
	}

	return "", &domain.ConfigurationError{
		Field:  "tagger.tag_dir",
		Reason: fmt.Sprintf("not set, %s is unset and no default install directory exists", TagDirEnv),
	}
}

func isDir(path string) bool {
	info, err := os.Stat(path)
	return err == nil && info.IsDir()
}

// ComputeConfigHash hashes the settings that change a run's output.
// Stored runs whose hash differs from the current config are stale.
func ComputeConfigHash(cfg *Config) string {
	relevant := struct {
		Processor      string   `json:"processor"`
		Language       string   `json:"language"`
		ParameterFile  string   `json:"parameter_file"`
		Sentinel       string   `json:"sentinel"`
		UnknownLemma   string   `json:"unknown_lemma"`
		Tags           []string `json:"tags"`
		MinLemmaLength int      `json:"min_lemma_length"`
	}{
		Processor:      cfg.Tagger.Processor,
		Language:       cfg.Tagger.Language,
		ParameterFile:  cfg.Tagger.ParameterFile,
		Sentinel:       cfg.Tagger.Sentinel,
		UnknownLemma:   cfg.Tagger.UnknownLemma,
		Tags:           cfg.Filter.Tags,
		MinLemmaLength: cfg.Filter.MinLemmaLength,
	}

	data, _ := json.Marshal(relevant)
	hash := sha256.Sum256(data)
	return hex.EncodeToString(hash[:8])
}

// StoreDBPath returns the path of the result database for the given driver.
func StoreDBPath(dir string, store StoreConfig) string {
	if store.Path != "" {
		if filepath.IsAbs(store.Path) {
			return store.Path
		}
		return filepath.Join(dir, store.Path)
	}
	ext := "db"
	if store.Driver == "sqlite" {
		ext = "sqlite"
	}
	return filepath.Join(dir, ".tagchain", "results."+ext)
}

// EnsureDataDir ensures the .tagchain directory exists.
func EnsureDataDir(dir string) error {
	return os.MkdirAll(filepath.Join(dir, ".tagchain"), 0755)
}
