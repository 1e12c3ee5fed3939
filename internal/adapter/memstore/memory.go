package memstore

import (
	"context"
	"fmt"
	"sort"
	"sync"

	"tagchain/internal/domain"
)

// MemoryStore keeps runs in process memory. Runs are copied on the way in
// and out so callers cannot mutate stored state.
type MemoryStore struct {
	mu   sync.RWMutex
	runs map[string]*domain.Run
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		runs: make(map[string]*domain.Run),
	}
}

func (s *MemoryStore) SaveRun(_ context.Context, run *domain.Run) error {
	if len(run.Tagged) != len(run.Source.Docs) {
		return fmt.Errorf("%w: run %s has %d tagged and %d cleaned documents",
			domain.ErrDocumentCount, run.ID, len(run.Tagged), len(run.Source.Docs))
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.runs[run.ID] = cloneRun(run)
	return nil
}

func (s *MemoryStore) GetRun(_ context.Context, id string) (*domain.Run, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	run, ok := s.runs[id]
	if !ok {
		return nil, fmt.Errorf("%w: %s", domain.ErrRunNotFound, id)
	}
	return cloneRun(run), nil
}

func (s *MemoryStore) ListRuns(_ context.Context) ([]domain.RunSummary, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	runs := make([]domain.RunSummary, 0, len(s.runs))
	for _, run := range s.runs {
		runs = append(runs, run.Summary())
	}
	sort.Slice(runs, func(i, j int) bool { return runs[i].ID < runs[j].ID })
	return runs, nil
}

func (s *MemoryStore) LatestRun(ctx context.Context) (*domain.Run, error) {
	runs, _ := s.ListRuns(ctx)
	if len(runs) == 0 {
		return nil, fmt.Errorf("%w: no runs stored", domain.ErrRunNotFound)
	}
	return s.GetRun(ctx, runs[len(runs)-1].ID)
}

func (s *MemoryStore) Close() error {
	return nil
}

func cloneRun(run *domain.Run) *domain.Run {
	out := *run
	out.Tagged = make([][]domain.TaggedToken, len(run.Tagged))
	for i, doc := range run.Tagged {
		out.Tagged[i] = append([]domain.TaggedToken{}, doc...)
	}
	out.Source.Docs = make([]domain.TokenizedDoc, len(run.Source.Docs))
	for i, d := range run.Source.Docs {
		out.Source.Docs[i] = domain.TokenizedDoc{UID: d.UID, Tokens: append([]string{}, d.Tokens...)}
	}
	return &out
}
