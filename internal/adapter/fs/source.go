package fs

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"log/slog"
	"path/filepath"
	"strings"

	"tagchain/internal/domain"
)

// Source reads every matching file under a root as one document. The UID
// is the slash-separated path relative to the root.
type Source struct {
	root   string
	walker *Walker
	logger *slog.Logger
}

// NewSource creates a filesystem document source.
func NewSource(root string, walker *Walker, logger *slog.Logger) *Source {
	if logger == nil {
		logger = slog.Default()
	}
	return &Source{root: root, walker: walker, logger: logger}
}

func (s *Source) Documents(ctx context.Context) ([]domain.Document, error) {
	files, err := s.walker.Walk(s.root)
	if err != nil {
		return nil, fmt.Errorf("failed to walk directory: %w", err)
	}

	docs := make([]domain.Document, 0, len(files))
	for _, f := range files {
		if err := ctx.Err(); err != nil {
			return nil, err
		}

		text, err := ReadFile(f.Path)
		if err != nil {
			return nil, fmt.Errorf("failed to read %s: %w", f.RelPath, err)
		}

		switch strings.ToLower(filepath.Ext(f.Path)) {
		case ".html", ".htm":
			text, err = ExtractHTMLText(text)
			if err != nil {
				return nil, fmt.Errorf("failed to parse %s: %w", f.RelPath, err)
			}
		}

		docs = append(docs, domain.Document{UID: f.RelPath, Text: text})
	}

	s.logger.Debug("documents loaded", "root", s.root, "count", len(docs))
	return docs, nil
}

// LineSource treats every line of a reader as one document, with UIDs
// line-1, line-2, ... Empty lines are empty documents.
type LineSource struct {
	r io.Reader
}

// NewLineSource creates a line-per-document source.
func NewLineSource(r io.Reader) *LineSource {
	return &LineSource{r: r}
}

func (s *LineSource) Documents(ctx context.Context) ([]domain.Document, error) {
	var docs []domain.Document
	scanner := bufio.NewScanner(s.r)
	scanner.Buffer(make([]byte, 0, 64*1024), 16*1024*1024)
	for scanner.Scan() {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		docs = append(docs, domain.Document{
			UID:  fmt.Sprintf("line-%d", len(docs)+1),
			Text: strings.TrimSuffix(scanner.Text(), "\r"),
		})
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("failed to read documents: %w", err)
	}
	return docs, nil
}
