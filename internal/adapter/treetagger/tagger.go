// Package treetagger runs the TreeTagger part-of-speech tagger as an
// external process.
package treetagger

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	"golang.org/x/text/encoding"

	"tagchain/internal/adapter/analyzer"
	"tagchain/internal/domain"
)

// Name is the registry key of the TreeTagger processor.
const Name = "tagging.treetagger"

// languageNames maps ISO codes to TreeTagger parameter file stems.
var languageNames = map[string]string{
	"bg": "bulgarian",
	"de": "german",
	"en": "english",
	"es": "spanish",
	"et": "estonian",
	"fi": "finnish",
	"fr": "french",
	"gl": "galician",
	"it": "italian",
	"nl": "dutch",
	"pl": "polish",
	"pt": "portuguese",
	"ru": "russian",
	"sk": "slovak",
}

// Options configures a Tagger. Binary comes from Probe and TagDir from
// config.ResolveTagDir.
type Options struct {
	Binary         string
	TagDir         string
	Language       string
	ParameterFile  string
	InputEncoding  string
	OutputEncoding string
	Sentinel       string
}

// Option customizes a Tagger.
type Option func(*Tagger)

// WithRunner replaces the process runner.
func WithRunner(r Runner) Option {
	return func(t *Tagger) { t.runner = r }
}

// Tagger feeds text to the tree-tagger binary and returns its output lines.
type Tagger struct {
	binary    string
	paramFile string
	enc       encoding.Encoding
	encName   string
	tokenizer *analyzer.Tokenizer
	runner    Runner
	logger    *slog.Logger
}

// New validates opts and returns a ready Tagger.
func New(opts Options, logger *slog.Logger, options ...Option) (*Tagger, error) {
	if logger == nil {
		logger = slog.Default()
	}
	if opts.Binary == "" {
		return nil, &domain.ToolUnavailableError{Processor: Name, Diagnostic: "no tree-tagger binary"}
	}
	if !strings.HasPrefix(opts.Sentinel, "<") || !strings.HasSuffix(opts.Sentinel, ">") {
		return nil, &domain.ConfigurationError{
			Field:  "tagger.sentinel",
			Reason: fmt.Sprintf("%q must look like an SGML tag to pass through tree-tagger unanalyzed", opts.Sentinel),
		}
	}

	enc, encName, err := resolveEncoding(opts.InputEncoding, opts.OutputEncoding)
	if err != nil {
		return nil, err
	}

	paramFile, err := resolveParameterFile(opts.TagDir, opts.ParameterFile, opts.Language, isUTF8(enc))
	if err != nil {
		return nil, err
	}

	t := &Tagger{
		binary:    opts.Binary,
		paramFile: paramFile,
		enc:       enc,
		encName:   encName,
		tokenizer: analyzer.NewTokenizer(opts.Sentinel),
		runner:    execRunner{logger: logger},
		logger:    logger,
	}
	for _, o := range options {
		o(t)
	}

	logger.Debug("treetagger ready", "binary", t.binary, "parameter_file", t.paramFile, "encoding", t.encName)
	return t, nil
}

func (t *Tagger) Name() string {
	return Name
}

// Tag tokenizes text one token per line and runs tree-tagger over it.
func (t *Tagger) Tag(ctx context.Context, text string) ([]string, error) {
	tokens := t.tokenizer.Tokenize(text)
	if len(tokens) == 0 {
		return []string{}, nil
	}

	input, err := encode(t.enc, strings.Join(tokens, "\n")+"\n")
	if err != nil {
		return nil, err
	}

	stdout, stderr, err := t.runner.Run(ctx, t.binary, input, "-token", "-lemma", "-sgml", "-quiet", t.paramFile)
	if err != nil {
		if ctxErr := ctx.Err(); ctxErr != nil {
			return nil, fmt.Errorf("tree-tagger: %w", ctxErr)
		}
		return nil, fmt.Errorf("tree-tagger: %w: %s", err, truncate(strings.TrimSpace(string(stderr)), 512))
	}

	out, err := decode(t.enc, stdout)
	if err != nil {
		return nil, err
	}
	return splitLines(out), nil
}

func splitLines(out string) []string {
	out = strings.TrimRight(out, "\r\n")
	if out == "" {
		return []string{}
	}
	lines := strings.Split(out, "\n")
	for i, l := range lines {
		lines[i] = strings.TrimSuffix(l, "\r")
	}
	return lines
}

// resolveParameterFile finds the language model. An explicit relative path
// is taken relative to <tagDir>/lib.
func resolveParameterFile(tagDir, explicit, language string, utf8 bool) (string, error) {
	if explicit != "" {
		path := explicit
		if !filepath.IsAbs(path) {
			if tagDir == "" {
				return "", &domain.ConfigurationError{Field: "tagger.parameter_file", Reason: "relative path needs a tag directory"}
			}
			path = filepath.Join(tagDir, "lib", explicit)
		}
		if !fileExists(path) {
			return "", &domain.ConfigurationError{Field: "tagger.parameter_file", Reason: fmt.Sprintf("%s does not exist", path)}
		}
		return path, nil
	}

	if tagDir == "" {
		return "", &domain.ConfigurationError{Field: "tagger.tag_dir", Reason: "no tag directory to look up parameter files in"}
	}

	stem := language
	if name, ok := languageNames[strings.ToLower(language)]; ok {
		stem = name
	}

	candidates := []string{stem + ".par"}
	if utf8 {
		candidates = []string{stem + "-utf8.par", stem + ".par"}
	}
	for _, c := range candidates {
		path := filepath.Join(tagDir, "lib", c)
		if fileExists(path) {
			return path, nil
		}
	}
	return "", &domain.ConfigurationError{
		Field:  "tagger.language",
		Reason: fmt.Sprintf("no parameter file for %q in %s (tried %v)", language, filepath.Join(tagDir, "lib"), candidates),
	}
}

func fileExists(path string) bool {
	info, err := os.Stat(path)
	return err == nil && !info.IsDir()
}
