package domain

import (
	"errors"
	"fmt"
)

var (
	ErrToolUnavailable  = errors.New("tool unavailable")
	ErrFormat           = errors.New("malformed tag stream")
	ErrConfiguration    = errors.New("invalid configuration")
	ErrUnknownProcessor = errors.New("unknown processor")
	ErrDocumentCount    = errors.New("document count mismatch")
	ErrDuplicateUID     = errors.New("duplicate document uid")
	ErrRunNotFound      = errors.New("run not found")
)

// ToolUnavailableError reports a processor whose external tool could not be located.
type ToolUnavailableError struct {
	Processor  string
	Diagnostic string
}

func (e *ToolUnavailableError) Error() string {
	if e.Diagnostic == "" {
		return fmt.Sprintf("processor %s: tool unavailable", e.Processor)
	}
	return fmt.Sprintf("processor %s: tool unavailable: %s", e.Processor, e.Diagnostic)
}

func (e *ToolUnavailableError) Is(target error) bool {
	return target == ErrToolUnavailable
}

// FormatError reports a tagger output line that is not a (surface, tag, lemma) triple.
type FormatError struct {
	Line   int // 1-based
	Fields int
	Text   string
}

func (e *FormatError) Error() string {
	return fmt.Sprintf("line %d: expected 3 tab-separated fields, got %d: %q", e.Line, e.Fields, e.Text)
}

func (e *FormatError) Is(target error) bool {
	return target == ErrFormat
}

// ConfigurationError reports a setting that cannot be used.
type ConfigurationError struct {
	Field  string
	Reason string
}

func (e *ConfigurationError) Error() string {
	return fmt.Sprintf("config %s: %s", e.Field, e.Reason)
}

func (e *ConfigurationError) Is(target error) bool {
	return target == ErrConfiguration
}
