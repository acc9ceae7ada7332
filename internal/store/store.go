package store

import (
	"context"
	"database/sql"

	"github.com/godispatch/core/internal/store/migrations"
)

// Store provides access to all storage repositories.
type Store struct {
	db       *sql.DB
	failures *FailureStore
}

func NewStore(db *sql.DB) *Store {
	return &Store{
		db:       db,
		failures: NewFailureStore(NewQueryInterceptor(db)),
	}
}

// Migrate creates or upgrades the schema.
func (s *Store) Migrate(ctx context.Context) error {
	return migrations.Run(ctx, s.db)
}

func (s *Store) Failures() *FailureStore {
	return s.failures
}

func (s *Store) Close() error {
	return s.db.Close()
}
