package export

import (
	"encoding/json"
	"io"

	"tagchain/internal/domain"
)

// JSONExporter writes a run as one indented JSON document.
type JSONExporter struct{}

func NewJSONExporter() *JSONExporter {
	return &JSONExporter{}
}

func (e *JSONExporter) Export(w io.Writer, run *domain.Run) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(run)
}

func (e *JSONExporter) Extension() string {
	return "json"
}
