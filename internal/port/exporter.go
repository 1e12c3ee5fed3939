package port

import (
	"io"

	"tagchain/internal/domain"
)

// Exporter writes a stored run in an external format.
type Exporter interface {
	Export(w io.Writer, run *domain.Run) error

	// Extension is the conventional file extension, without the dot.
	Extension() string
}
