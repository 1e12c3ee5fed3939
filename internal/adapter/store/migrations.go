package store

import (
	"encoding/json"
	"fmt"

	"go.etcd.io/bbolt"
)

// CurrentSchemaVersion is the current schema version.
// Increment this when making breaking changes to the storage format.
const CurrentSchemaVersion = 1

var keySchemaVersion = []byte("schema_version")

// GetSchemaVersion returns the stored schema version, 0 for a fresh database.
func (s *BoltStore) GetSchemaVersion() (int, error) {
	var version int
	err := s.db.View(func(tx *bbolt.Tx) error {
		data := tx.Bucket(bucketMeta).Get(keySchemaVersion)
		if data == nil {
			return nil
		}
		return json.Unmarshal(data, &version)
	})
	return version, err
}

// SetSchemaVersion stores the schema version.
func (s *BoltStore) SetSchemaVersion(version int) error {
	return s.db.Update(func(tx *bbolt.Tx) error {
		data, err := json.Marshal(version)
		if err != nil {
			return err
		}
		return tx.Bucket(bucketMeta).Put(keySchemaVersion, data)
	})
}

// MigrationResult describes the result of a migration check.
type MigrationResult struct {
	NeedsRebuild bool
	OldVersion   int
	NewVersion   int
	Reason       string
}

// CheckMigration checks whether stored runs can be read by this version.
func (s *BoltStore) CheckMigration() (*MigrationResult, error) {
	version, err := s.GetSchemaVersion()
	if err != nil {
		return nil, fmt.Errorf("failed to get schema version: %w", err)
	}

	result := &MigrationResult{
		OldVersion: version,
		NewVersion: CurrentSchemaVersion,
	}

	switch {
	case version > CurrentSchemaVersion:
		return nil, fmt.Errorf("result store schema v%d is newer than supported v%d", version, CurrentSchemaVersion)
	case version > 0 && version < CurrentSchemaVersion:
		result.NeedsRebuild = true
		result.Reason = fmt.Sprintf("schema v%d -> v%d", version, CurrentSchemaVersion)
	}
	return result, nil
}

// Migrate clears outdated runs and stamps the current schema version.
func (s *BoltStore) Migrate() (*MigrationResult, error) {
	result, err := s.CheckMigration()
	if err != nil {
		return nil, err
	}
	if result.NeedsRebuild {
		if err := s.Clear(); err != nil {
			return nil, fmt.Errorf("failed to clear outdated runs: %w", err)
		}
	}
	if result.OldVersion != CurrentSchemaVersion {
		if err := s.SetSchemaVersion(CurrentSchemaVersion); err != nil {
			return nil, err
		}
	}
	return result, nil
}
