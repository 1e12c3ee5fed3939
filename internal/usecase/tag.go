package usecase

import (
	"context"
	"crypto/rand"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/oklog/ulid/v2"
	"golang.org/x/sync/errgroup"

	"tagchain/internal/domain"
	"tagchain/internal/port"
	"tagchain/internal/tagstream"
)

// TagOptions configures a TagUseCase. A non-nil Filter is applied exactly
// as given, so a zero Filter keeps every token.
type TagOptions struct {
	Language   string
	Sentinel   string
	Unknown    string
	Filter     *tagstream.Filter // nil = tagstream.DefaultFilter()
	BatchSize  int               // documents per tagger call, 0 = all at once
	Workers    int
	ConfigHash string
}

// TagUseCase runs documents through a tagger and cleans the result.
type TagUseCase struct {
	tagger   port.Tagger
	reshaper tagstream.Reshaper
	filter   tagstream.Filter
	opts     TagOptions
	logger   *slog.Logger

	mu      sync.Mutex
	entropy *ulid.MonotonicEntropy
	now     func() time.Time
}

// NewTagUseCase creates a new tag use case.
func NewTagUseCase(tagger port.Tagger, opts TagOptions, logger *slog.Logger) *TagUseCase {
	if logger == nil {
		logger = slog.Default()
	}
	if opts.Workers < 1 {
		opts.Workers = 1
	}
	filter := tagstream.DefaultFilter()
	if opts.Filter != nil {
		filter = *opts.Filter
	}
	return &TagUseCase{
		tagger:   tagger,
		reshaper: tagstream.NewReshaper(opts.Sentinel, opts.Unknown),
		filter:   filter,
		opts:     opts,
		logger:   logger,
		entropy:  ulid.Monotonic(rand.Reader, 0),
		now:      time.Now,
	}
}

// ProgressFunc is called after every finished batch.
type ProgressFunc func(done, total int)

// Run tags docs and returns the run: the full reconstructed token triples
// and the cleaned, uid-keyed data source.
func (u *TagUseCase) Run(ctx context.Context, docs []domain.Document, progress ProgressFunc) (*domain.Run, error) {
	if err := checkUIDs(docs); err != nil {
		return nil, err
	}

	run := &domain.Run{
		ID:         u.newID(),
		CreatedAt:  u.now().UTC(),
		Processor:  u.tagger.Name(),
		Language:   u.opts.Language,
		ConfigHash: u.opts.ConfigHash,
		Tagged:     [][]domain.TaggedToken{},
		Source: domain.TokenizedSource{
			Docs: []domain.TokenizedDoc{},
			Meta: domain.SourceMeta{Tokenized: true, Processor: u.tagger.Name(), Language: u.opts.Language},
		},
	}

	// An empty joined buffer would still reshape into one document.
	if len(docs) == 0 {
		return run, nil
	}

	tagged, err := u.tagBatches(ctx, docs, progress)
	if err != nil {
		return nil, err
	}

	cleaned := tagstream.Clean(tagged, u.filter)
	run.Tagged = tagged
	run.Source.Docs = zipUIDs(docs, cleaned)

	u.logger.Info("tagging finished",
		"run_id", run.ID,
		"processor", run.Processor,
		"documents", len(docs),
		"tokens", run.Summary().TokenCount,
	)
	return run, nil
}

func (u *TagUseCase) tagBatches(ctx context.Context, docs []domain.Document, progress ProgressFunc) ([][]domain.TaggedToken, error) {
	batches := splitBatches(docs, u.opts.BatchSize)
	results := make([][][]domain.TaggedToken, len(batches))

	var progressMu sync.Mutex
	done := 0

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(u.opts.Workers)
	for i, batch := range batches {
		i, batch := i, batch
		g.Go(func() error {
			tagged, err := u.tagBatch(gctx, batch)
			if err != nil {
				return fmt.Errorf("batch %d: %w", i, err)
			}
			results[i] = tagged

			progressMu.Lock()
			done += len(batch)
			if progress != nil {
				progress(done, len(docs))
			}
			progressMu.Unlock()
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	tagged := make([][]domain.TaggedToken, 0, len(docs))
	for _, r := range results {
		tagged = append(tagged, r...)
	}
	return tagged, nil
}

// tagBatch joins one batch, tags it and splits the output back into documents.
func (u *TagUseCase) tagBatch(ctx context.Context, batch []domain.Document) ([][]domain.TaggedToken, error) {
	texts := make([]string, len(batch))
	for i, d := range batch {
		texts[i] = d.Text
	}

	start := time.Now()
	lines, err := u.tagger.Tag(ctx, u.reshaper.Join(texts))
	if err != nil {
		return nil, fmt.Errorf("tagger %s: %w", u.tagger.Name(), err)
	}
	u.logger.Debug("batch tagged",
		"documents", len(batch),
		"lines", len(lines),
		"duration_ms", time.Since(start).Milliseconds(),
	)

	tagged, err := u.reshaper.Reshape(lines)
	if err != nil {
		return nil, err
	}
	if len(tagged) != len(batch) {
		return nil, fmt.Errorf("%w: %d documents in, %d out (does a document contain %q on its own line?)",
			domain.ErrDocumentCount, len(batch), len(tagged), u.reshaper.Sentinel)
	}
	return tagged, nil
}

func (u *TagUseCase) newID() string {
	u.mu.Lock()
	defer u.mu.Unlock()
	return ulid.MustNew(ulid.Timestamp(u.now()), u.entropy).String()
}

func splitBatches(docs []domain.Document, size int) [][]domain.Document {
	if size <= 0 || size >= len(docs) {
		return [][]domain.Document{docs}
	}
	var batches [][]domain.Document
	for i := 0; i < len(docs); i += size {
		end := i + size
		if end > len(docs) {
			end = len(docs)
		}
		batches = append(batches, docs[i:end])
	}
	return batches
}

// zipUIDs attaches uids to cleaned documents by position.
func zipUIDs(docs []domain.Document, cleaned [][]string) []domain.TokenizedDoc {
	out := make([]domain.TokenizedDoc, len(docs))
	for i, d := range docs {
		out[i] = domain.TokenizedDoc{UID: d.UID, Tokens: cleaned[i]}
	}
	return out
}

func checkUIDs(docs []domain.Document) error {
	seen := make(map[string]int, len(docs))
	for i, d := range docs {
		if j, ok := seen[d.UID]; ok {
			return fmt.Errorf("%w: %q at positions %d and %d", domain.ErrDuplicateUID, d.UID, j, i)
		}
		seen[d.UID] = i
	}
	return nil
}
