package store

import (
	"database/sql"

	"go.uber.org/zap"
)

// Store implements the order lifecycle and inventory operations against
// a single Postgres database. Every mutating operation runs in one
// transaction; the caller's tenant id scopes every lookup and write.
type Store struct {
	db  *sql.DB
	log *zap.Logger
}

func New(db *sql.DB, log *zap.Logger) *Store {
	if log == nil {
		log = zap.NewNop()
	}
	return &Store{db: db, log: log}
}

func (s *Store) DB() *sql.DB {
	return s.db
}
