package store

import (
	"context"
	"errors"
	"path/filepath"
	"testing"
	"time"

	"tagchain/internal/domain"
	"tagchain/internal/port"
)

func sampleRun(id string, created time.Time) *domain.Run {
	return &domain.Run{
		ID:         id,
		CreatedAt:  created,
		Processor:  "tagging.simple",
		Language:   "en",
		ConfigHash: "abc123",
		Tagged: [][]domain.TaggedToken{
			{{Surface: "Dogs", Tag: "NNS", Lemma: "dog"}, {Surface: ".", Tag: "SENT", Lemma: "."}},
			{},
			{{Surface: "cats", Tag: "NNS", Lemma: "cat"}},
		},
		Source: domain.TokenizedSource{
			Docs: []domain.TokenizedDoc{
				{UID: "a.txt", Tokens: []string{"dog"}},
				{UID: "b.txt", Tokens: []string{}},
				{UID: "c.txt", Tokens: []string{"cat"}},
			},
			Meta: domain.SourceMeta{Tokenized: true, Processor: "tagging.simple", Language: "en"},
		},
	}
}

func openStores(t *testing.T) map[string]port.ResultStore {
	t.Helper()
	ctx := context.Background()
	dir := t.TempDir()

	bolt, err := Open(ctx, "bolt", filepath.Join(dir, "results.db"))
	if err != nil {
		t.Fatal(err)
	}
	sqlite, err := Open(ctx, "sqlite", filepath.Join(dir, "results.sqlite"))
	if err != nil {
		t.Fatal(err)
	}
	mem, err := Open(ctx, "memory", "")
	if err != nil {
		t.Fatal(err)
	}

	stores := map[string]port.ResultStore{"bolt": bolt, "sqlite": sqlite, "memory": mem}
	t.Cleanup(func() {
		for _, st := range stores {
			st.Close()
		}
	})
	return stores
}

func TestResultStore_RoundTrip(t *testing.T) {
	ctx := context.Background()
	created := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)

	for name, st := range openStores(t) {
		t.Run(name, func(t *testing.T) {
			run := sampleRun("01HZZZZZZZZZZZZZZZZZZZZZZA", created)
			if err := st.SaveRun(ctx, run); err != nil {
				t.Fatal(err)
			}

			got, err := st.GetRun(ctx, run.ID)
			if err != nil {
				t.Fatal(err)
			}

			if !got.CreatedAt.Equal(created) {
				t.Errorf("expected created %s, got %s", created, got.CreatedAt)
			}
			if got.Processor != "tagging.simple" || got.Language != "en" || got.ConfigHash != "abc123" {
				t.Errorf("unexpected run header: %+v", got)
			}
			if !got.Source.Meta.Tokenized {
				t.Error("expected tokenized meta")
			}
			if len(got.Tagged) != 3 || len(got.Source.Docs) != 3 {
				t.Fatalf("expected 3 documents, got %d/%d", len(got.Tagged), len(got.Source.Docs))
			}
			if got.Tagged[0][0].Lemma != "dog" || got.Tagged[0][1].Tag != "SENT" {
				t.Errorf("unexpected tagged doc: %+v", got.Tagged[0])
			}
			if got.Tagged[1] == nil || len(got.Tagged[1]) != 0 {
				t.Errorf("empty document should come back empty, got %#v", got.Tagged[1])
			}
			if got.Source.Docs[1].UID != "b.txt" || got.Source.Docs[1].Tokens == nil {
				t.Errorf("empty document should keep its slot: %#v", got.Source.Docs[1])
			}
			if got.Source.Docs[2].UID != "c.txt" || got.Source.Docs[2].Tokens[0] != "cat" {
				t.Errorf("unexpected third document: %+v", got.Source.Docs[2])
			}
		})
	}
}

func TestResultStore_ListAndLatest(t *testing.T) {
	ctx := context.Background()
	base := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)

	for name, st := range openStores(t) {
		t.Run(name, func(t *testing.T) {
			if _, err := st.LatestRun(ctx); !errors.Is(err, domain.ErrRunNotFound) {
				t.Fatalf("expected ErrRunNotFound on empty store, got %v", err)
			}

			ids := []string{"01HAAAAAAAAAAAAAAAAAAAAAAB", "01HAAAAAAAAAAAAAAAAAAAAAAA", "01HAAAAAAAAAAAAAAAAAAAAAAC"}
			for i, id := range ids {
				if err := st.SaveRun(ctx, sampleRun(id, base.Add(time.Duration(i)*time.Minute))); err != nil {
					t.Fatal(err)
				}
			}

			runs, err := st.ListRuns(ctx)
			if err != nil {
				t.Fatal(err)
			}
			if len(runs) != 3 {
				t.Fatalf("expected 3 runs, got %d", len(runs))
			}
			if runs[0].ID != ids[1] || runs[2].ID != ids[2] {
				t.Errorf("runs should be ordered by id: %+v", runs)
			}
			if runs[0].DocCount != 3 || runs[0].TokenCount != 2 {
				t.Errorf("unexpected counts: %+v", runs[0])
			}

			latest, err := st.LatestRun(ctx)
			if err != nil {
				t.Fatal(err)
			}
			if latest.ID != ids[2] {
				t.Errorf("expected latest %s, got %s", ids[2], latest.ID)
			}
		})
	}
}

func TestResultStore_NotFound(t *testing.T) {
	ctx := context.Background()
	for name, st := range openStores(t) {
		t.Run(name, func(t *testing.T) {
			if _, err := st.GetRun(ctx, "missing"); !errors.Is(err, domain.ErrRunNotFound) {
				t.Errorf("expected ErrRunNotFound, got %v", err)
			}
		})
	}
}

func TestResultStore_RejectsMisalignedRun(t *testing.T) {
	ctx := context.Background()
	for name, st := range openStores(t) {
		t.Run(name, func(t *testing.T) {
			run := sampleRun("01HBBBBBBBBBBBBBBBBBBBBBBB", time.Now())
			run.Tagged = run.Tagged[:2]
			if err := st.SaveRun(ctx, run); !errors.Is(err, domain.ErrDocumentCount) {
				t.Errorf("expected ErrDocumentCount, got %v", err)
			}
		})
	}
}

func TestOpen_UnknownDriver(t *testing.T) {
	if _, err := Open(context.Background(), "postgres", ""); !errors.Is(err, domain.ErrConfiguration) {
		t.Errorf("expected configuration error, got %v", err)
	}
}

func TestBoltStore_Migration(t *testing.T) {
	path := filepath.Join(t.TempDir(), "results.db")
	st, err := NewBoltStore(path)
	if err != nil {
		t.Fatal(err)
	}
	defer st.Close()

	result, err := st.Migrate()
	if err != nil {
		t.Fatal(err)
	}
	if result.NeedsRebuild {
		t.Error("fresh store should not need a rebuild")
	}
	if v, _ := st.GetSchemaVersion(); v != CurrentSchemaVersion {
		t.Errorf("expected schema v%d, got v%d", CurrentSchemaVersion, v)
	}

	if err := st.SetSchemaVersion(CurrentSchemaVersion + 1); err != nil {
		t.Fatal(err)
	}
	if _, err := st.CheckMigration(); err == nil {
		t.Error("newer schema should be rejected")
	}
}

func TestBoltStore_Clear(t *testing.T) {
	ctx := context.Background()
	st, err := NewBoltStore(filepath.Join(t.TempDir(), "results.db"))
	if err != nil {
		t.Fatal(err)
	}
	defer st.Close()

	if err := st.SaveRun(ctx, sampleRun("01HCCCCCCCCCCCCCCCCCCCCCCC", time.Now())); err != nil {
		t.Fatal(err)
	}
	if err := st.Clear(); err != nil {
		t.Fatal(err)
	}
	runs, err := st.ListRuns(ctx)
	if err != nil {
		t.Fatal(err)
	}
	if len(runs) != 0 {
		t.Errorf("expected no runs after clear, got %d", len(runs))
	}
}

func TestSQLiteStore_ForeignKeysOnEveryConnection(t *testing.T) {
	ctx := context.Background()
	st, err := OpenSQLite(ctx, filepath.Join(t.TempDir(), "results.sqlite"))
	if err != nil {
		t.Fatal(err)
	}
	defer st.Close()

	// Hold several connections at once so the pool has to open new ones.
	for i := 0; i < 3; i++ {
		conn, err := st.db.Conn(ctx)
		if err != nil {
			t.Fatal(err)
		}
		defer conn.Close()

		var enabled int
		if err := conn.QueryRowContext(ctx, "PRAGMA foreign_keys").Scan(&enabled); err != nil {
			t.Fatal(err)
		}
		if enabled != 1 {
			t.Errorf("connection %d: foreign_keys = %d, want 1", i, enabled)
		}
	}

	if err := st.SaveRun(ctx, sampleRun("01HDDDDDDDDDDDDDDDDDDDDDDD", time.Now())); err != nil {
		t.Fatal(err)
	}
	if _, err := st.db.ExecContext(ctx, "DELETE FROM runs WHERE id = ?", "01HDDDDDDDDDDDDDDDDDDDDDDD"); err != nil {
		t.Fatal(err)
	}
	var docs int
	if err := st.db.QueryRowContext(ctx, "SELECT COUNT(*) FROM run_docs").Scan(&docs); err != nil {
		t.Fatal(err)
	}
	if docs != 0 {
		t.Errorf("expected cascade to remove documents, %d left", docs)
	}
}
