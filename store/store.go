// Package store is the durable record store for events, waiting list entries
// and tickets. It is a thin layer over pocketbase/dbx on sqlite: callers get
// indexed lookups plus a transactional read-modify-write scope via WithTx.
package store

import (
	"database/sql"
	"errors"
	"time"

	"github.com/pocketbase/dbx"
	_ "modernc.org/sqlite"
)

type Store struct {
	b dbx.Builder
}

// Open opens (creating if needed) the sqlite database at path.
func Open(path string) (*dbx.DB, error) {
	db, err := dbx.Open("sqlite", path)
	if err != nil {
		return nil, err
	}
	// sqlite allows a single writer; serializing on the pool avoids
	// SQLITE_BUSY churn under concurrent mutations.
	db.DB().SetMaxOpenConns(1)
	if _, err := db.NewQuery("PRAGMA foreign_keys = ON").Execute(); err != nil {
		return nil, err
	}
	return db, nil
}

func New(db *dbx.DB) *Store {
	return &Store{b: db}
}

// WithTx runs fn against a transactional view of the store. All writes inside
// fn commit or roll back as one unit. Calling WithTx on a store that is
// already transactional reuses the ambient transaction.
func (s *Store) WithTx(fn func(tx *Store) error) error {
	db, ok := s.b.(*dbx.DB)
	if !ok {
		return fn(s)
	}
	return db.Transactional(func(tx *dbx.Tx) error {
		return fn(&Store{b: tx})
	})
}

func toMillis(t time.Time) int64 {
	return t.UnixMilli()
}

func fromMillis(ms int64) time.Time {
	return time.UnixMilli(ms).UTC()
}

func isNoRows(err error) bool {
	return errors.Is(err, sql.ErrNoRows)
}
