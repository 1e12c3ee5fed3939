package analyzer

import (
	"strings"
	"unicode"
)

// Tokenizer splits text into one token per word or punctuation mark,
// keeping sentinel lines intact so document boundaries survive tagging.
type Tokenizer struct {
	sentinel string
}

// NewTokenizer creates a new Tokenizer.
func NewTokenizer(sentinel string) *Tokenizer {
	return &Tokenizer{sentinel: sentinel}
}

// Token is one tokenizer output. Boundary is set only for a sentinel that
// stood alone on its line; the same text inside a line is an ordinary word.
type Token struct {
	Text     string
	Boundary bool
}

// Segment splits text into tokens, marking document boundaries.
func (t *Tokenizer) Segment(text string) []Token {
	var tokens []Token
	for _, line := range strings.Split(text, "\n") {
		if t.sentinel != "" && strings.TrimSpace(line) == t.sentinel {
			tokens = append(tokens, Token{Text: t.sentinel, Boundary: true})
			continue
		}
		for _, w := range splitTokens(line) {
			tokens = append(tokens, Token{Text: w})
		}
	}
	return tokens
}

// Tokenize splits text into tokens.
func (t *Tokenizer) Tokenize(text string) []string {
	segs := t.Segment(text)
	tokens := make([]string, len(segs))
	for i, tok := range segs {
		tokens[i] = tok.Text
	}
	return tokens
}

// splitTokens groups letters, digits and underscores into words; every
// other non-space rune becomes a token of its own.
func splitTokens(text string) []string {
	var tokens []string
	var current strings.Builder

	flush := func() {
		if current.Len() > 0 {
			tokens = append(tokens, current.String())
			current.Reset()
		}
	}

	for _, r := range text {
		switch {
		case unicode.IsLetter(r) || unicode.IsDigit(r) || r == '_':
			current.WriteRune(r)
		case unicode.IsSpace(r):
			flush()
		default:
			flush()
			tokens = append(tokens, string(r))
		}
	}
	flush()

	return tokens
}
