package port

import (
	"context"

	"tagchain/internal/domain"
)

// DocumentSource yields the ordered documents of one tagging run.
type DocumentSource interface {
	Documents(ctx context.Context) ([]domain.Document, error)
}
