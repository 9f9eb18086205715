// Package store provides the SQLite time-series store for keyword ranking
// observations. Rows are append-only: an observation is written once after
// each probe and never updated.
package store

import (
	"database/sql"

	"github.com/hazyhaar/rankwatch/dbopen"
)

// Store wraps the rankings database.
type Store struct {
	DB *sql.DB
}

// NewStore creates a Store from an already-opened database connection.
// The caller is responsible for applying the schema.
func NewStore(db *sql.DB) *Store {
	return &Store{DB: db}
}

// Open opens (or creates) the rankings database at path, applies pragmas
// and the schema, and returns a ready Store. Parent directories are
// created as needed.
func Open(path string) (*Store, error) {
	db, err := dbopen.Open(path, dbopen.WithMkdirAll(), dbopen.WithSchema(Schema))
	if err != nil {
		return nil, err
	}
	return &Store{DB: db}, nil
}

// Close closes the underlying database.
func (s *Store) Close() error {
	return s.DB.Close()
}
