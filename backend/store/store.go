// Package store is the record store: row-level access to the learning
// platform tables. Uniqueness and the purchase invariants are enforced by the
// schema and by conditional updates, never by check-then-insert.
package store

import (
	"context"

	"skillhub/backend/utils"

	"gorm.io/gorm"
)

type Store struct {
	db  *gorm.DB
	log *utils.Logger
}

func New(db *gorm.DB, baseLog *utils.Logger) *Store {
	return &Store{db: db, log: baseLog.With("component", "store")}
}

func (s *Store) DB() *gorm.DB {
	return s.db
}

func (s *Store) conn(ctx context.Context) *gorm.DB {
	return s.db.WithContext(ctx)
}
