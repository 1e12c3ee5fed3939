package tagstream

import (
	"unicode/utf8"

	"tagchain/internal/domain"
)

// DefaultFilteredTags are the TreeTagger English tags dropped by Clean:
// sentence end, coordinating conjunction, punctuation and determiner.
var DefaultFilteredTags = []string{"SENT", "KON", "PUN", "DT"}

// DefaultMinLemmaLength drops lemmas of one or two characters.
const DefaultMinLemmaLength = 2

// Filter selects which tokens survive cleaning.
type Filter struct {
	Tags           map[string]struct{}
	MinLemmaLength int
}

// NewFilter builds a Filter from a tag list.
func NewFilter(tags []string, minLemmaLength int) Filter {
	set := make(map[string]struct{}, len(tags))
	for _, t := range tags {
		set[t] = struct{}{}
	}
	return Filter{Tags: set, MinLemmaLength: minLemmaLength}
}

// DefaultFilter returns the filter applied when nothing is configured.
func DefaultFilter() Filter {
	return NewFilter(DefaultFilteredTags, DefaultMinLemmaLength)
}

// Clean drops filtered tags and short lemmas from every document and keeps
// the lemmas of what remains. Documents are never dropped: an empty input
// document yields an empty, non-nil slot at the same index.
func Clean(docs [][]domain.TaggedToken, f Filter) [][]string {
	cleaned := make([][]string, len(docs))
	for i, doc := range docs {
		cleaned[i] = lemmas(filterShort(filterTags(doc, f.Tags), f.MinLemmaLength))
	}
	return cleaned
}

func filterTags(doc []domain.TaggedToken, tags map[string]struct{}) []domain.TaggedToken {
	kept := make([]domain.TaggedToken, 0, len(doc))
	for _, tok := range doc {
		if _, drop := tags[tok.Tag]; !drop {
			kept = append(kept, tok)
		}
	}
	return kept
}

// filterShort keeps lemmas strictly longer than min characters.
func filterShort(doc []domain.TaggedToken, min int) []domain.TaggedToken {
	kept := make([]domain.TaggedToken, 0, len(doc))
	for _, tok := range doc {
		if utf8.RuneCountInString(tok.Lemma) > min {
			kept = append(kept, tok)
		}
	}
	return kept
}

func lemmas(doc []domain.TaggedToken) []string {
	out := make([]string, len(doc))
	for i, tok := range doc {
		out[i] = tok.Lemma
	}
	return out
}
