// Package tagstream rebuilds per-document token lists from the flat output
// of a part-of-speech tagger and filters them down to lemmas.
package tagstream

import (
	"strings"

	"tagchain/internal/domain"
)

const (
	// DefaultSentinel separates documents in the tagger input. It is a
	// single SGML-like token, so the tagger passes it through unanalyzed.
	DefaultSentinel = "<eol>"

	// DefaultUnknownLemma is what TreeTagger emits when it has no lemma.
	DefaultUnknownLemma = "<unknown>"
)

// Reshaper splits a tag stream back into documents.
type Reshaper struct {
	Sentinel     string
	UnknownLemma string
}

// NewReshaper returns a Reshaper; empty arguments select the defaults.
func NewReshaper(sentinel, unknownLemma string) Reshaper {
	if sentinel == "" {
		sentinel = DefaultSentinel
	}
	if unknownLemma == "" {
		unknownLemma = DefaultUnknownLemma
	}
	return Reshaper{Sentinel: sentinel, UnknownLemma: unknownLemma}
}

// Separator is the text placed between documents before tagging.
func (r Reshaper) Separator() string {
	return "\n" + r.Sentinel + "\n"
}

// Join concatenates texts into the single buffer fed to the tagger.
func (r Reshaper) Join(texts []string) string {
	return strings.Join(texts, r.Separator())
}

// Reshape rebuilds documents from tagger output lines. A line whose first
// field is the sentinel closes the current document; the last document is
// closed by the end of the stream, so the result always holds one more
// document than there are sentinels. Any other line must carry exactly
// three fields, otherwise a *domain.FormatError is returned and no partial
// result.
func (r Reshaper) Reshape(lines []string) ([][]domain.TaggedToken, error) {
	var result [][]domain.TaggedToken
	buffer := []domain.TaggedToken{}

	for i, line := range lines {
		fields := strings.Split(line, "\t")
		if fields[0] == r.Sentinel {
			result = append(result, r.fallback(buffer))
			buffer = []domain.TaggedToken{}
			continue
		}
		if len(fields) != 3 {
			return nil, &domain.FormatError{Line: i + 1, Fields: len(fields), Text: line}
		}
		buffer = append(buffer, domain.TaggedToken{
			Surface: fields[0],
			Tag:     fields[1],
			Lemma:   fields[2],
		})
	}

	return append(result, r.fallback(buffer)), nil
}

// fallback replaces unknown lemmas with the surface form, in place.
func (r Reshaper) fallback(doc []domain.TaggedToken) []domain.TaggedToken {
	for i := range doc {
		if doc[i].Lemma == r.UnknownLemma {
			doc[i].Lemma = doc[i].Surface
		}
	}
	return doc
}
