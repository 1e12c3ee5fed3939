package treetagger

import (
	"fmt"
	"strings"

	"golang.org/x/text/encoding"
	"golang.org/x/text/encoding/htmlindex"
	"golang.org/x/text/encoding/unicode"

	"tagchain/internal/domain"
)

// lookupEncoding resolves a WHATWG encoding label such as "utf-8" or "latin1".
func lookupEncoding(field, label string) (encoding.Encoding, string, error) {
	enc, err := htmlindex.Get(strings.TrimSpace(label))
	if err != nil {
		return nil, "", &domain.ConfigurationError{Field: field, Reason: fmt.Sprintf("unknown encoding %q", label)}
	}
	name, err := htmlindex.Name(enc)
	if err != nil {
		name = label
	}
	return enc, name, nil
}

// resolveEncoding checks that the tagger reads and writes the same
// encoding and returns it.
func resolveEncoding(input, output string) (encoding.Encoding, string, error) {
	in, inName, err := lookupEncoding("tagger.input_encoding", input)
	if err != nil {
		return nil, "", err
	}
	_, outName, err := lookupEncoding("tagger.output_encoding", output)
	if err != nil {
		return nil, "", err
	}
	if inName != outName {
		return nil, "", &domain.ConfigurationError{
			Field:  "tagger.output_encoding",
			Reason: fmt.Sprintf("%s differs from input encoding %s", outName, inName),
		}
	}
	return in, inName, nil
}

func isUTF8(enc encoding.Encoding) bool {
	return enc == unicode.UTF8
}

func encode(enc encoding.Encoding, text string) ([]byte, error) {
	if isUTF8(enc) {
		return []byte(text), nil
	}
	out, err := enc.NewEncoder().String(text)
	if err != nil {
		return nil, fmt.Errorf("encode tagger input: %w", err)
	}
	return []byte(out), nil
}

func decode(enc encoding.Encoding, data []byte) (string, error) {
	if isUTF8(enc) {
		return string(data), nil
	}
	out, err := enc.NewDecoder().Bytes(data)
	if err != nil {
		return "", fmt.Errorf("decode tagger output: %w", err)
	}
	return string(out), nil
}
