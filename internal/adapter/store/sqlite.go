package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	_ "modernc.org/sqlite"

	"tagchain/internal/domain"
)

// SQLiteStore keeps runs in a SQLite database.
type SQLiteStore struct {
	db *sql.DB
}

// OpenSQLite opens a SQLite database with WAL mode enabled.
func OpenSQLite(ctx context.Context, path string) (*SQLiteStore, error) {
	// DSN pragmas run on every pooled connection; foreign_keys is per connection.
	db, err := sql.Open("sqlite", sqliteDSN(path))
	if err != nil {
		return nil, err
	}

	// Enable WAL mode for better concurrency
	if _, err := db.ExecContext(ctx, "PRAGMA journal_mode=WAL"); err != nil {
		db.Close()
		return nil, err
	}

	if err := initSchema(ctx, db); err != nil {
		db.Close()
		return nil, err
	}

	return &SQLiteStore{db: db}, nil
}

func sqliteDSN(path string) string {
	return "file:" + path + "?_pragma=foreign_keys(1)&_pragma=busy_timeout(5000)"
}

// Close closes the database connection
func (s *SQLiteStore) Close() error {
	return s.db.Close()
}

func initSchema(ctx context.Context, db *sql.DB) error {
	schema := `
CREATE TABLE IF NOT EXISTS runs (
	id TEXT PRIMARY KEY,
	created_at TEXT NOT NULL,
	processor TEXT NOT NULL,
	language TEXT NOT NULL,
	config_hash TEXT NOT NULL,
	source_meta TEXT NOT NULL,
	doc_count INTEGER NOT NULL,
	token_count INTEGER NOT NULL
);

CREATE TABLE IF NOT EXISTS run_docs (
	run_id TEXT NOT NULL,
	position INTEGER NOT NULL,
	uid TEXT NOT NULL,
	tagged TEXT NOT NULL,
	tokens TEXT NOT NULL,
	PRIMARY KEY(run_id, position),
	FOREIGN KEY(run_id) REFERENCES runs(id) ON DELETE CASCADE
);
`
	_, err := db.ExecContext(ctx, schema)
	return err
}

func (s *SQLiteStore) SaveRun(ctx context.Context, run *domain.Run) error {
	if len(run.Tagged) != len(run.Source.Docs) {
		return fmt.Errorf("%w: run %s has %d tagged and %d cleaned documents",
			domain.ErrDocumentCount, run.ID, len(run.Tagged), len(run.Source.Docs))
	}

	meta, err := json.Marshal(run.Source.Meta)
	if err != nil {
		return err
	}
	summary := run.Summary()

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer tx.Rollback()

	_, err = tx.ExecContext(ctx,
		`INSERT INTO runs (id, created_at, processor, language, config_hash, source_meta, doc_count, token_count)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
		run.ID, run.CreatedAt.UTC().Format(time.RFC3339Nano), run.Processor, run.Language,
		run.ConfigHash, string(meta), summary.DocCount, summary.TokenCount)
	if err != nil {
		return fmt.Errorf("insert run: %w", err)
	}

	stmt, err := tx.PrepareContext(ctx,
		`INSERT INTO run_docs (run_id, position, uid, tagged, tokens) VALUES (?, ?, ?, ?, ?)`)
	if err != nil {
		return err
	}
	defer stmt.Close()

	for i, d := range run.Source.Docs {
		tagged, err := json.Marshal(nonNilTagged(run.Tagged[i]))
		if err != nil {
			return err
		}
		tokens, err := json.Marshal(nonNilTokens(d.Tokens))
		if err != nil {
			return err
		}
		if _, err := stmt.ExecContext(ctx, run.ID, i, d.UID, string(tagged), string(tokens)); err != nil {
			return fmt.Errorf("insert document %s: %w", d.UID, err)
		}
	}

	return tx.Commit()
}

func (s *SQLiteStore) GetRun(ctx context.Context, id string) (*domain.Run, error) {
	row := s.db.QueryRowContext(ctx,
		`SELECT id, created_at, processor, language, config_hash, source_meta, doc_count, token_count
		 FROM runs WHERE id = ?`, id)
	summary, meta, err := scanRun(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("%w: %s", domain.ErrRunNotFound, id)
	}
	if err != nil {
		return nil, err
	}

	run := &domain.Run{
		ID:         summary.ID,
		CreatedAt:  summary.CreatedAt,
		Processor:  summary.Processor,
		Language:   summary.Language,
		ConfigHash: summary.ConfigHash,
		Tagged:     make([][]domain.TaggedToken, 0, summary.DocCount),
		Source: domain.TokenizedSource{
			Docs: make([]domain.TokenizedDoc, 0, summary.DocCount),
			Meta: meta,
		},
	}

	rows, err := s.db.QueryContext(ctx,
		`SELECT uid, tagged, tokens FROM run_docs WHERE run_id = ? ORDER BY position`, id)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	for rows.Next() {
		var uid, taggedJSON, tokensJSON string
		if err := rows.Scan(&uid, &taggedJSON, &tokensJSON); err != nil {
			return nil, err
		}
		var tagged []domain.TaggedToken
		if err := json.Unmarshal([]byte(taggedJSON), &tagged); err != nil {
			return nil, fmt.Errorf("corrupt document %s: %w", uid, err)
		}
		var tokens []string
		if err := json.Unmarshal([]byte(tokensJSON), &tokens); err != nil {
			return nil, fmt.Errorf("corrupt document %s: %w", uid, err)
		}
		run.Tagged = append(run.Tagged, nonNilTagged(tagged))
		run.Source.Docs = append(run.Source.Docs, domain.TokenizedDoc{UID: uid, Tokens: nonNilTokens(tokens)})
	}
	return run, rows.Err()
}

func (s *SQLiteStore) ListRuns(ctx context.Context) ([]domain.RunSummary, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT id, created_at, processor, language, config_hash, source_meta, doc_count, token_count
		 FROM runs ORDER BY id`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var runs []domain.RunSummary
	for rows.Next() {
		summary, _, err := scanRun(rows)
		if err != nil {
			return nil, err
		}
		runs = append(runs, summary)
	}
	return runs, rows.Err()
}

func (s *SQLiteStore) LatestRun(ctx context.Context) (*domain.Run, error) {
	var id string
	err := s.db.QueryRowContext(ctx, `SELECT id FROM runs ORDER BY id DESC LIMIT 1`).Scan(&id)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("%w: no runs stored", domain.ErrRunNotFound)
	}
	if err != nil {
		return nil, err
	}
	return s.GetRun(ctx, id)
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanRun(row rowScanner) (domain.RunSummary, domain.SourceMeta, error) {
	var (
		summary   domain.RunSummary
		meta      domain.SourceMeta
		createdAt string
		metaJSON  string
	)
	err := row.Scan(&summary.ID, &createdAt, &summary.Processor, &summary.Language,
		&summary.ConfigHash, &metaJSON, &summary.DocCount, &summary.TokenCount)
	if err != nil {
		return summary, meta, err
	}
	summary.CreatedAt, err = time.Parse(time.RFC3339Nano, createdAt)
	if err != nil {
		return summary, meta, fmt.Errorf("invalid created_at %q: %w", createdAt, err)
	}
	if err := json.Unmarshal([]byte(metaJSON), &meta); err != nil {
		return summary, meta, err
	}
	return summary, meta, nil
}
