package store

import (
	"context"
	"fmt"

	"tagchain/internal/adapter/memstore"
	"tagchain/internal/domain"
	"tagchain/internal/port"
)

// Open opens the result store for driver ("bolt", "sqlite" or "memory").
// Bolt stores are migrated to the current schema on open.
func Open(ctx context.Context, driver, path string) (port.ResultStore, error) {
	switch driver {
	case "bolt", "":
		st, err := NewBoltStore(path)
		if err != nil {
			return nil, err
		}
		if _, err := st.Migrate(); err != nil {
			st.Close()
			return nil, fmt.Errorf("migration failed: %w", err)
		}
		return st, nil
	case "sqlite":
		return OpenSQLite(ctx, path)
	case "memory":
		return memstore.NewMemoryStore(), nil
	default:
		return nil, &domain.ConfigurationError{Field: "store.driver", Reason: fmt.Sprintf("unsupported driver %q", driver)}
	}
}
