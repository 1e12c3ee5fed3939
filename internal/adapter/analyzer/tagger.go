package analyzer

import (
	"context"
	"strings"
	"unicode"
)

// SimpleName is the registry key of the rule-based tagger.
const SimpleName = "tagging.simple"

// SimpleTagger is a dependency-free tagger for English. It emits the same
// stream format as TreeTagger, using a closed-class lexicon for function
// words and shape rules for everything else.
type SimpleTagger struct {
	tokenizer    *Tokenizer
	unknownLemma string
	lexicon      map[string]lexEntry
}

// NewSimpleTagger creates a new SimpleTagger.
func NewSimpleTagger(sentinel, unknownLemma string) *SimpleTagger {
	return &SimpleTagger{
		tokenizer:    NewTokenizer(sentinel),
		unknownLemma: unknownLemma,
		lexicon:      defaultLexicon(),
	}
}

func (s *SimpleTagger) Name() string {
	return SimpleName
}

// Tag returns one "surface\ttag\tlemma" line per token.
func (s *SimpleTagger) Tag(ctx context.Context, text string) ([]string, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	tokens := s.tokenizer.Segment(text)
	lines := make([]string, 0, len(tokens))
	for _, tok := range tokens {
		if tok.Boundary {
			lines = append(lines, tok.Text)
			continue
		}
		tag, lemma := s.tagToken(tok.Text)
		lines = append(lines, tok.Text+"\t"+tag+"\t"+lemma)
	}
	return lines, nil
}

func (s *SimpleTagger) tagToken(tok string) (tag, lemma string) {
	lower := strings.ToLower(tok)
	if e, ok := s.lexicon[lower]; ok {
		return e.tag, e.lemma
	}

	var letters, digits, other int
	for _, r := range tok {
		switch {
		case unicode.IsLetter(r):
			letters++
		case unicode.IsDigit(r):
			digits++
		default:
			other++
		}
	}

	switch {
	case letters == 0 && digits == 0 && other > 0:
		if tok == "." || tok == "!" || tok == "?" {
			return "SENT", tok
		}
		return "PUN", tok
	case letters == 0 && digits > 0:
		return "CD", tok
	case letters > 0 && digits > 0:
		return "NN", s.unknownLemma
	}
	return "NN", lower
}

type lexEntry struct {
	tag   string
	lemma string
}

// defaultLexicon returns common English function words with their tags.
func defaultLexicon() map[string]lexEntry {
	lex := make(map[string]lexEntry)
	add := func(tag string, words ...string) {
		for _, w := range words {
			lex[w] = lexEntry{tag: tag, lemma: w}
		}
	}

	add("DT", "a", "an", "the", "this", "that", "these", "those", "each", "every", "some", "any", "no")
	add("KON", "and", "or", "but", "nor", "yet")
	add("IN", "of", "in", "on", "at", "by", "for", "from", "with", "to", "as", "into", "about",
		"than", "if", "because", "while", "after", "before", "over", "under", "between")
	add("PP", "i", "you", "he", "she", "it", "we", "they", "me", "him", "her", "us", "them")
	add("PP$", "my", "your", "his", "its", "our", "their")
	add("MD", "can", "could", "may", "might", "must", "shall", "should", "will", "would")

	verbs := map[string][]string{
		"be":   {"is", "are", "was", "were", "be", "been", "being", "am"},
		"have": {"has", "have", "had", "having"},
		"do":   {"do", "does", "did", "doing", "done"},
	}
	for lemma, forms := range verbs {
		for _, f := range forms {
			lex[f] = lexEntry{tag: "VB", lemma: lemma}
		}
	}
	return lex
}
