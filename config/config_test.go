package config

import (
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"

	"tagchain/internal/domain"
)

func TestDefaultConfig(t *testing.T) {
	cfg := DefaultConfig()

	if cfg.Tagger.Processor != "tagging.treetagger" {
		t.Errorf("expected Processor=tagging.treetagger, got %s", cfg.Tagger.Processor)
	}
	if cfg.Tagger.InputEncoding != "utf-8" || cfg.Tagger.OutputEncoding != "utf-8" {
		t.Errorf("expected utf-8 encodings, got %s/%s", cfg.Tagger.InputEncoding, cfg.Tagger.OutputEncoding)
	}
	if cfg.Tagger.Sentinel != "<eol>" {
		t.Errorf("expected Sentinel=<eol>, got %s", cfg.Tagger.Sentinel)
	}
	if cfg.Filter.MinLemmaLength != 2 {
		t.Errorf("expected MinLemmaLength=2, got %d", cfg.Filter.MinLemmaLength)
	}
	want := []string{"SENT", "KON", "PUN", "DT"}
	if len(cfg.Filter.Tags) != len(want) {
		t.Fatalf("expected tags %v, got %v", want, cfg.Filter.Tags)
	}
	for i := range want {
		if cfg.Filter.Tags[i] != want[i] {
			t.Errorf("expected tag %s at %d, got %s", want[i], i, cfg.Filter.Tags[i])
		}
	}
	if err := cfg.Validate(); err != nil {
		t.Errorf("default config should validate, got %v", err)
	}
}

func TestLoad_NonExistent(t *testing.T) {
	cfg, err := Load("/nonexistent/path/config.yaml")
	if err != nil {
		t.Errorf("expected no error for non-existent file, got %v", err)
	}
	if cfg == nil {
		t.Error("expected default config, got nil")
	}
}

func TestLoad_ValidYAML(t *testing.T) {
	tmpDir := t.TempDir()
	configPath := filepath.Join(tmpDir, "tagchain.yaml")

	content := `
tagger:
  language: fr
  batch_size: 50
  timeout: 30s
filter:
  tags: [PUN, SENT]
  min_lemma_length: 3
store:
  driver: sqlite
`
	if err := os.WriteFile(configPath, []byte(content), 0644); err != nil {
		t.Fatal(err)
	}

	cfg, err := Load(configPath)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if cfg.Tagger.Language != "fr" {
		t.Errorf("expected Language=fr, got %s", cfg.Tagger.Language)
	}
	if cfg.Tagger.BatchSize != 50 {
		t.Errorf("expected BatchSize=50, got %d", cfg.Tagger.BatchSize)
	}
	if cfg.Tagger.Timeout != 30*time.Second {
		t.Errorf("expected Timeout=30s, got %s", cfg.Tagger.Timeout)
	}
	if len(cfg.Filter.Tags) != 2 {
		t.Errorf("expected 2 filtered tags, got %v", cfg.Filter.Tags)
	}
	if cfg.Filter.MinLemmaLength != 3 {
		t.Errorf("expected MinLemmaLength=3, got %d", cfg.Filter.MinLemmaLength)
	}
	if cfg.Store.Driver != "sqlite" {
		t.Errorf("expected Driver=sqlite, got %s", cfg.Store.Driver)
	}
	// untouched keys keep their defaults
	if cfg.Tagger.Sentinel != "<eol>" {
		t.Errorf("expected default Sentinel, got %s", cfg.Tagger.Sentinel)
	}
}

func TestLoadFromDir(t *testing.T) {
	tmpDir := t.TempDir()
	if err := os.MkdirAll(filepath.Join(tmpDir, ".tagchain"), 0755); err != nil {
		t.Fatal(err)
	}
	configPath := filepath.Join(tmpDir, ".tagchain", "config.yaml")

	content := `
tagger:
  workers: 4
`
	if err := os.WriteFile(configPath, []byte(content), 0644); err != nil {
		t.Fatal(err)
	}

	cfg, err := LoadFromDir(tmpDir)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if cfg.Tagger.Workers != 4 {
		t.Errorf("expected Workers=4, got %d", cfg.Tagger.Workers)
	}
}

func TestSave_RoundTrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "tagchain.yaml")
	cfg := DefaultConfig()
	cfg.Tagger.Language = "de"

	if err := cfg.Save(path); err != nil {
		t.Fatal(err)
	}
	loaded, err := Load(path)
	if err != nil {
		t.Fatal(err)
	}
	if loaded.Tagger.Language != "de" {
		t.Errorf("expected Language=de, got %s", loaded.Tagger.Language)
	}
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name  string
		mod   func(*Config)
		field string
	}{
		{"empty language", func(c *Config) { c.Tagger.Language = "" }, "tagger.language"},
		{"zero workers", func(c *Config) { c.Tagger.Workers = 0 }, "tagger.workers"},
		{"negative batch", func(c *Config) { c.Tagger.BatchSize = -1 }, "tagger.batch_size"},
		{"negative length", func(c *Config) { c.Filter.MinLemmaLength = -1 }, "filter.min_lemma_length"},
		{"unknown driver", func(c *Config) { c.Store.Driver = "postgres" }, "store.driver"},
		{"unknown log format", func(c *Config) { c.Logging.Format = "xml" }, "logging.format"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := DefaultConfig()
			tt.mod(cfg)

			err := cfg.Validate()
			if !errors.Is(err, domain.ErrConfiguration) {
				t.Fatalf("expected configuration error, got %v", err)
			}
			var ce *domain.ConfigurationError
			if !errors.As(err, &ce) || ce.Field != tt.field {
				t.Errorf("expected field %s, got %v", tt.field, err)
			}
		})
	}
}

func TestResolveTagDir(t *testing.T) {
	explicit := t.TempDir()
	envDir := t.TempDir()

	env := func(value string) func(string) (string, bool) {
		return func(key string) (string, bool) {
			if key == TagDirEnv && value != "" {
				return value, true
			}
			return "", false
		}
	}

	got, err := ResolveTagDir(explicit, env(envDir))
	if err != nil || got != explicit {
		t.Errorf("explicit dir should win, got %q, %v", got, err)
	}

	got, err = ResolveTagDir("", env(envDir))
	if err != nil || got != envDir {
		t.Errorf("env dir should be used, got %q, %v", got, err)
	}

	if _, err := ResolveTagDir(filepath.Join(explicit, "missing"), env("")); !errors.Is(err, domain.ErrConfiguration) {
		t.Errorf("missing explicit dir should be a configuration error, got %v", err)
	}

	saved := DefaultTagDirs
	DefaultTagDirs = []string{filepath.Join(explicit, "nope")}
	defer func() { DefaultTagDirs = saved }()

	if _, err := ResolveTagDir("", env("")); !errors.Is(err, domain.ErrConfiguration) {
		t.Errorf("unresolvable dir should be a configuration error, got %v", err)
	}
}

func TestComputeConfigHash(t *testing.T) {
	a := DefaultConfig()
	b := DefaultConfig()
	if ComputeConfigHash(a) != ComputeConfigHash(b) {
		t.Error("identical configs should hash the same")
	}

	b.Filter.MinLemmaLength = 3
	if ComputeConfigHash(a) == ComputeConfigHash(b) {
		t.Error("changing the filter should change the hash")
	}

	c := DefaultConfig()
	c.Tagger.Workers = 8
	if ComputeConfigHash(a) != ComputeConfigHash(c) {
		t.Error("worker count does not change output and should not change the hash")
	}
}

func TestStoreDBPath(t *testing.T) {
	path := StoreDBPath("/home/user/corpus", StoreConfig{Driver: "bolt"})
	expected := filepath.Join("/home/user/corpus", ".tagchain", "results.db")
	if path != expected {
		t.Errorf("expected %s, got %s", expected, path)
	}

	path = StoreDBPath("/home/user/corpus", StoreConfig{Driver: "sqlite"})
	expected = filepath.Join("/home/user/corpus", ".tagchain", "results.sqlite")
	if path != expected {
		t.Errorf("expected %s, got %s", expected, path)
	}

	path = StoreDBPath("/home/user/corpus", StoreConfig{Driver: "bolt", Path: "out/runs.db"})
	expected = filepath.Join("/home/user/corpus", "out", "runs.db")
	if path != expected {
		t.Errorf("expected %s, got %s", expected, path)
	}
}
