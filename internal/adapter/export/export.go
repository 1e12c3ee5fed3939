// Package export renders stored runs for use outside tagchain.
package export

import (
	"fmt"
	"log/slog"

	"tagchain/internal/domain"
	"tagchain/internal/port"
)

// ForFormat returns the exporter registered under format.
func ForFormat(format string, logger *slog.Logger) (port.Exporter, error) {
	switch format {
	case "json":
		return NewJSONExporter(), nil
	case "xlsx":
		return NewXLSXExporter(logger), nil
	default:
		return nil, &domain.ConfigurationError{Field: "format", Reason: fmt.Sprintf("unsupported export format %q", format)}
	}
}
