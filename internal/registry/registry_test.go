package registry

import (
	"context"
	"errors"
	"log/slog"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"tagchain/config"
	"tagchain/internal/adapter/analyzer"
	"tagchain/internal/adapter/treetagger"
	"tagchain/internal/domain"
	"tagchain/internal/port"
)

type stubTagger struct{ name string }

func (s stubTagger) Tag(context.Context, string) ([]string, error) { return nil, nil }
func (s stubTagger) Name() string { return s.name }

func stubFactory(name string) Factory {
	return func(config.TaggerConfig, *slog.Logger) (port.Tagger, error) {
		return stubTagger{name: name}, nil
	}
}

func TestRegistry_Build(t *testing.T) {
	r := New(nil)
	r.Register("tagging.stub", stubFactory("tagging.stub"), domain.Availability{Available: true})

	tagger, err := r.Build("tagging.stub", config.DefaultConfig().Tagger)
	require.NoError(t, err)
	assert.Equal(t, "tagging.stub", tagger.Name())
}

func TestRegistry_UnknownProcessor(t *testing.T) {
	r := New(nil)
	r.Register("tagging.stub", stubFactory("tagging.stub"), domain.Availability{Available: true})

	_, err := r.Build("tagging.missing", config.DefaultConfig().Tagger)
	assert.ErrorIs(t, err, domain.ErrUnknownProcessor)
}

func TestRegistry_UnavailableProcessor(t *testing.T) {
	r := New(nil)
	called := false
	r.Register("tagging.broken", func(config.TaggerConfig, *slog.Logger) (port.Tagger, error) {
		called = true
		return nil, nil
	}, domain.Availability{Available: false, Diagnostic: "binary missing"})

	_, err := r.Build("tagging.broken", config.DefaultConfig().Tagger)
	require.Error(t, err)
	assert.False(t, called, "factory must not run for an unavailable processor")

	var tue *domain.ToolUnavailableError
	require.True(t, errors.As(err, &tue))
	assert.Equal(t, "binary missing", tue.Diagnostic)
	assert.ErrorIs(t, err, domain.ErrToolUnavailable)
}

func TestRegistry_NamesSorted(t *testing.T) {
	r := New(nil)
	r.Register("b", stubFactory("b"), domain.Availability{Available: true})
	r.Register("a", stubFactory("a"), domain.Availability{Available: false})

	assert.Equal(t, []string{"a", "b"}, r.Names())
	entries := r.Entries()
	require.Len(t, entries, 2)
	assert.Equal(t, "a", entries[0].Name)
	assert.False(t, entries[0].Availability.Available)
}

func TestDefault_WithoutTreeTagger(t *testing.T) {
	t.Setenv("PATH", t.TempDir())
	t.Setenv(config.TagDirEnv, "")

	cfg := config.DefaultConfig().Tagger
	cfg.TagDir = t.TempDir()
	r := Default(cfg, nil)

	assert.Equal(t, []string{analyzer.SimpleName, treetagger.Name}, r.Names())

	_, err := r.Build(treetagger.Name, cfg)
	assert.ErrorIs(t, err, domain.ErrToolUnavailable)

	tagger, err := r.Build(analyzer.SimpleName, cfg)
	require.NoError(t, err)
	assert.Equal(t, analyzer.SimpleName, tagger.Name())
}

func TestDefault_WithTreeTagger(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.MkdirAll(filepath.Join(dir, "bin"), 0755))
	require.NoError(t, os.MkdirAll(filepath.Join(dir, "lib"), 0755))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "bin", treetagger.BinaryName), []byte("#!/bin/sh\n"), 0755))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "lib", "english.par"), []byte("par"), 0644))

	t.Setenv(config.TagDirEnv, dir)
	cfg := config.DefaultConfig().Tagger

	r := Default(cfg, nil)
	tagger, err := r.Build(treetagger.Name, cfg)
	require.NoError(t, err)
	assert.Equal(t, treetagger.Name, tagger.Name())

	// model for another language missing: configuration, not availability
	cfg.Language = "de"
	_, err = r.Build(treetagger.Name, cfg)
	assert.ErrorIs(t, err, domain.ErrConfiguration)
}
