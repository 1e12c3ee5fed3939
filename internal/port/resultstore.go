package port

import (
	"context"

	"tagchain/internal/domain"
)

// ResultStore persists tagging runs for downstream inspection.
type ResultStore interface {
	SaveRun(ctx context.Context, run *domain.Run) error

	GetRun(ctx context.Context, id string) (*domain.Run, error)

	// ListRuns returns run summaries, oldest first.
	ListRuns(ctx context.Context) ([]domain.RunSummary, error)

	LatestRun(ctx context.Context) (*domain.Run, error)

	Close() error
}
