// Package registry maps processor names to tagger factories. A Registry is
// built once at startup and handed to whoever needs to construct taggers.
package registry

import (
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"sort"

	"tagchain/config"
	"tagchain/internal/adapter/analyzer"
	"tagchain/internal/adapter/treetagger"
	"tagchain/internal/domain"
	"tagchain/internal/port"
)

// Factory builds a tagger from the tagger configuration.
type Factory func(cfg config.TaggerConfig, logger *slog.Logger) (port.Tagger, error)

// Entry is one registered processor.
type Entry struct {
	Name         string
	Factory      Factory
	Availability domain.Availability
}

// Registry is an explicit processor table.
type Registry struct {
	entries map[string]Entry
	logger  *slog.Logger
}

// New creates an empty Registry.
func New(logger *slog.Logger) *Registry {
	if logger == nil {
		logger = slog.Default()
	}
	return &Registry{entries: make(map[string]Entry), logger: logger}
}

// Register adds or replaces a processor.
func (r *Registry) Register(name string, f Factory, avail domain.Availability) {
	r.entries[name] = Entry{Name: name, Factory: f, Availability: avail}
	if !avail.Available {
		r.logger.Debug("processor unavailable", "processor", name, "diagnostic", avail.Diagnostic)
	}
}

// Build constructs the named tagger. Unavailable processors fail with a
// *domain.ToolUnavailableError carrying the probe diagnostic.
func (r *Registry) Build(name string, cfg config.TaggerConfig) (port.Tagger, error) {
	e, ok := r.entries[name]
	if !ok {
		return nil, fmt.Errorf("%w: %s (registered: %v)", domain.ErrUnknownProcessor, name, r.Names())
	}
	if !e.Availability.Available {
		return nil, &domain.ToolUnavailableError{Processor: name, Diagnostic: e.Availability.Diagnostic}
	}
	return e.Factory(cfg, r.logger)
}

// Names returns the registered processor names, sorted.
func (r *Registry) Names() []string {
	names := make([]string, 0, len(r.entries))
	for name := range r.entries {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// Entries returns the registered processors, sorted by name.
func (r *Registry) Entries() []Entry {
	entries := make([]Entry, 0, len(r.entries))
	for _, name := range r.Names() {
		entries = append(entries, r.entries[name])
	}
	return entries
}

// Default registers the builtin processors. TreeTagger is probed here, once.
func Default(cfg config.TaggerConfig, logger *slog.Logger) *Registry {
	r := New(logger)

	// Resolution errors are reported again by the factory, where they
	// surface as configuration errors rather than unavailability.
	tagDir, _ := config.ResolveTagDir(cfg.TagDir, os.LookupEnv)
	avail := treetagger.Probe(tagDir)
	r.Register(treetagger.Name, newTreeTagger(avail.Binary), avail)

	r.Register(analyzer.SimpleName, func(cfg config.TaggerConfig, _ *slog.Logger) (port.Tagger, error) {
		return analyzer.NewSimpleTagger(cfg.Sentinel, cfg.UnknownLemma), nil
	}, domain.Availability{Available: true})

	return r
}

func newTreeTagger(binary string) Factory {
	return func(cfg config.TaggerConfig, logger *slog.Logger) (port.Tagger, error) {
		opts := treetagger.Options{
			Binary:         binary,
			Language:       cfg.Language,
			ParameterFile:  cfg.ParameterFile,
			InputEncoding:  cfg.InputEncoding,
			OutputEncoding: cfg.OutputEncoding,
			Sentinel:       cfg.Sentinel,
		}
		tagDir, err := config.ResolveTagDir(cfg.TagDir, os.LookupEnv)
		if err != nil && !filepath.IsAbs(cfg.ParameterFile) {
			return nil, err
		}
		opts.TagDir = tagDir
		return treetagger.New(opts, logger)
	}
}
