package port

import "context"

// Tagger runs a part-of-speech tagger over a text stream.
type Tagger interface {
	// Tag returns one output line per token, in stream order. Lines are
	// "surface\ttag\tlemma", or the sentinel echoed back verbatim.
	Tag(ctx context.Context, text string) ([]string, error)

	// Name returns the registry key of the processor.
	Name() string
}
