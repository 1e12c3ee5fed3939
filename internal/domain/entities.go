package domain

import "time"

// Document is one raw input text with its caller-supplied identifier.
type Document struct {
	UID  string
	Text string
}

// TaggedToken is one (surface, tag, lemma) triple produced by a tagger.
type TaggedToken struct {
	Surface string `json:"surface"`
	Tag     string `json:"tag"`
	Lemma   string `json:"lemma"`
}

// TokenizedDoc is a cleaned document: lemmas only, reattached to its UID.
type TokenizedDoc struct {
	UID    string   `json:"uid"`
	Tokens []string `json:"tokens"`
}

// SourceMeta describes how a data source was produced.
type SourceMeta struct {
	Tokenized bool   `json:"tokenized"`
	Processor string `json:"processor,omitempty"`
	Language  string `json:"language,omitempty"`
}

// TokenizedSource is the data source handed to the next step of the chain.
type TokenizedSource struct {
	Docs []TokenizedDoc `json:"docs"`
	Meta SourceMeta     `json:"meta"`
}

// UIDs returns the document identifiers in order.
func (s TokenizedSource) UIDs() []string {
	uids := make([]string, len(s.Docs))
	for i, d := range s.Docs {
		uids[i] = d.UID
	}
	return uids
}

// Run is the outcome of one tagging step.
type Run struct {
	ID         string          `json:"id"`
	CreatedAt  time.Time       `json:"created_at"`
	Processor  string          `json:"processor"`
	Language   string          `json:"language"`
	ConfigHash string          `json:"config_hash"`
	Tagged     [][]TaggedToken `json:"tagged"`
	Source     TokenizedSource `json:"data_source"`
}

// RunSummary is the listing view of a stored run.
type RunSummary struct {
	ID         string    `json:"id"`
	CreatedAt  time.Time `json:"created_at"`
	Processor  string    `json:"processor"`
	Language   string    `json:"language"`
	ConfigHash string    `json:"config_hash"`
	DocCount   int       `json:"doc_count"`
	TokenCount int       `json:"token_count"`
}

// Summary computes the listing view of r.
func (r *Run) Summary() RunSummary {
	tokens := 0
	for _, d := range r.Source.Docs {
		tokens += len(d.Tokens)
	}
	return RunSummary{
		ID:         r.ID,
		CreatedAt:  r.CreatedAt,
		Processor:  r.Processor,
		Language:   r.Language,
		ConfigHash: r.ConfigHash,
		DocCount:   len(r.Source.Docs),
		TokenCount: tokens,
	}
}

// Availability is the result of probing for a processor's external tool.
type Availability struct {
	Available  bool
	Binary     string
	Diagnostic string
}
