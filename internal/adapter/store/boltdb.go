package store

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"time"

	"go.etcd.io/bbolt"
	"tagchain/internal/domain"
)

var (
	bucketRuns    = []byte("runs")
	bucketRunDocs = []byte("run_docs")
	bucketMeta    = []byte("meta")
)

type BoltStore struct {
	db *bbolt.DB
}

func NewBoltStore(path string) (*BoltStore, error) {
	db, err := bbolt.Open(path, 0600, &bbolt.Options{Timeout: 2 * time.Second})
	if err != nil {
		return nil, fmt.Errorf("failed to open bolt db: %w", err)
	}

	if err := db.Update(createBuckets); err != nil {
		db.Close()
		return nil, err
	}

	return &BoltStore{db: db}, nil
}

func createBuckets(tx *bbolt.Tx) error {
	for _, b := range [][]byte{bucketRuns, bucketRunDocs, bucketMeta} {
		if _, err := tx.CreateBucketIfNotExists(b); err != nil {
			return fmt.Errorf("failed to create bucket %s: %w", b, err)
		}
	}
	return nil
}

func (s *BoltStore) Close() error {
	return s.db.Close()
}

type runMeta struct {
	CreatedAt  time.Time         `json:"created_at"`
	Processor  string            `json:"processor"`
	Language   string            `json:"language"`
	ConfigHash string            `json:"config_hash"`
	Source     domain.SourceMeta `json:"source"`
	DocCount   int               `json:"doc_count"`
	TokenCount int               `json:"token_count"`
}

type docRecord struct {
	UID    string               `json:"uid"`
	Tagged []domain.TaggedToken `json:"tagged"`
	Tokens []string             `json:"tokens"`
}

// docKey orders documents of a run by position under a shared prefix.
func docKey(runID string, pos int) []byte {
	return []byte(fmt.Sprintf("%s/%08d", runID, pos))
}

func (s *BoltStore) SaveRun(_ context.Context, run *domain.Run) error {
	if len(run.Tagged) != len(run.Source.Docs) {
		return fmt.Errorf("%w: run %s has %d tagged and %d cleaned documents",
			domain.ErrDocumentCount, run.ID, len(run.Tagged), len(run.Source.Docs))
	}

	summary := run.Summary()
	meta := runMeta{
		CreatedAt:  run.CreatedAt,
		Processor:  run.Processor,
		Language:   run.Language,
		ConfigHash: run.ConfigHash,
		Source:     run.Source.Meta,
		DocCount:   summary.DocCount,
		TokenCount: summary.TokenCount,
	}

	return s.db.Update(func(tx *bbolt.Tx) error {
		data, err := json.Marshal(meta)
		if err != nil {
			return err
		}
		if err := tx.Bucket(bucketRuns).Put([]byte(run.ID), data); err != nil {
			return err
		}

		docs := tx.Bucket(bucketRunDocs)
		for i, d := range run.Source.Docs {
			rec, err := json.Marshal(docRecord{UID: d.UID, Tagged: run.Tagged[i], Tokens: d.Tokens})
			if err != nil {
				return err
			}
			if err := docs.Put(docKey(run.ID, i), rec); err != nil {
				return err
			}
		}
		return nil
	})
}

func (s *BoltStore) GetRun(_ context.Context, id string) (*domain.Run, error) {
	var run *domain.Run
	err := s.db.View(func(tx *bbolt.Tx) error {
		data := tx.Bucket(bucketRuns).Get([]byte(id))
		if data == nil {
			return fmt.Errorf("%w: %s", domain.ErrRunNotFound, id)
		}
		var meta runMeta
		if err := json.Unmarshal(data, &meta); err != nil {
			return err
		}

		run = &domain.Run{
			ID:         id,
			CreatedAt:  meta.CreatedAt,
			Processor:  meta.Processor,
			Language:   meta.Language,
			ConfigHash: meta.ConfigHash,
			Tagged:     make([][]domain.TaggedToken, 0, meta.DocCount),
			Source: domain.TokenizedSource{
				Docs: make([]domain.TokenizedDoc, 0, meta.DocCount),
				Meta: meta.Source,
			},
		}

		prefix := []byte(id + "/")
		c := tx.Bucket(bucketRunDocs).Cursor()
		for k, v := c.Seek(prefix); k != nil && bytes.HasPrefix(k, prefix); k, v = c.Next() {
			var rec docRecord
			if err := json.Unmarshal(v, &rec); err != nil {
				return fmt.Errorf("corrupt document %s: %w", k, err)
			}
			run.Tagged = append(run.Tagged, nonNilTagged(rec.Tagged))
			run.Source.Docs = append(run.Source.Docs, domain.TokenizedDoc{UID: rec.UID, Tokens: nonNilTokens(rec.Tokens)})
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return run, nil
}

func (s *BoltStore) ListRuns(_ context.Context) ([]domain.RunSummary, error) {
	var runs []domain.RunSummary
	err := s.db.View(func(tx *bbolt.Tx) error {
		return tx.Bucket(bucketRuns).ForEach(func(k, v []byte) error {
			var meta runMeta
			if err := json.Unmarshal(v, &meta); err != nil {
				return err
			}
			runs = append(runs, meta.summary(string(k)))
			return nil
		})
	})
	return runs, err
}

// LatestRun relies on ULID keys sorting by creation time.
func (s *BoltStore) LatestRun(ctx context.Context) (*domain.Run, error) {
	var id string
	err := s.db.View(func(tx *bbolt.Tx) error {
		k, _ := tx.Bucket(bucketRuns).Cursor().Last()
		if k != nil {
			id = string(k)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	if id == "" {
		return nil, fmt.Errorf("%w: no runs stored", domain.ErrRunNotFound)
	}
	return s.GetRun(ctx, id)
}

// Clear removes all stored runs.
func (s *BoltStore) Clear() error {
	return s.db.Update(func(tx *bbolt.Tx) error {
		for _, b := range [][]byte{bucketRuns, bucketRunDocs} {
			if err := tx.DeleteBucket(b); err != nil && err != bbolt.ErrBucketNotFound {
				return err
			}
		}
		return createBuckets(tx)
	})
}

func (m runMeta) summary(id string) domain.RunSummary {
	return domain.RunSummary{
		ID:         id,
		CreatedAt:  m.CreatedAt,
		Processor:  m.Processor,
		Language:   m.Language,
		ConfigHash: m.ConfigHash,
		DocCount:   m.DocCount,
		TokenCount: m.TokenCount,
	}
}

func nonNilTagged(t []domain.TaggedToken) []domain.TaggedToken {
	if t == nil {
		return []domain.TaggedToken{}
	}
	return t
}

func nonNilTokens(t []string) []string {
	if t == nil {
		return []string{}
	}
	return t
}
