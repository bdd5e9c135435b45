// Package repository is the Postgres implementation of the entity store. Each
// entity family lives in its own file; all of them run against an
// sqlx.ExtContext so the same code serves both the plain connection pool and
// an open transaction.
package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/jmoiron/sqlx"

	"github.com/learnledger/indexer/internal/store"
)

// Postgres is the durable store backend. Reads outside a transaction hit the
// pool directly; the ingest loop wraps each event in InTx so its writes and
// the cursor advance commit atomically.
type Postgres struct {
	session
	db *sqlx.DB
}

var (
	_ store.Backend = (*Postgres)(nil)
	_ store.Store   = (*session)(nil)
)

// NewPostgres wraps an open connection pool.
func NewPostgres(db *sqlx.DB) *Postgres {
	return &Postgres{session: session{ext: db}, db: db}
}

// InTx runs fn against a transactional session. Any error from fn rolls the
// whole event back.
func (p *Postgres) InTx(ctx context.Context, fn func(store.Store) error) error {
	tx, err := p.db.BeginTxx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin tx: %w", err)
	}
	if err := fn(&session{ext: tx}); err != nil {
		if rbErr := tx.Rollback(); rbErr != nil {
			return fmt.Errorf("rollback after %w: %v", err, rbErr)
		}
		return err
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit: %w", err)
	}
	return nil
}

// Ping reports connectivity.
func (p *Postgres) Ping(ctx context.Context) error {
	return p.db.PingContext(ctx)
}

// Close releases the pool.
func (p *Postgres) Close() error {
	return p.db.Close()
}

// session implements every Store method against one ExtContext.
type session struct {
	ext sqlx.ExtContext
}

// getOne scans a single row into dest, translating sql.ErrNoRows into the
// store's explicit-absence contract.
func (s *session) getOne(ctx context.Context, dest interface{}, query string, args ...interface{}) (bool, error) {
	if err := sqlx.GetContext(ctx, s.ext, dest, query, args...); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return false, nil
		}
		return false, err
	}
	return true, nil
}

func normalizeSort(order string) string {
	if order == "ASC" || order == "asc" {
		return "ASC"
	}
	return "DESC"
}

func pageBounds(page, size int) (int, int) {
	if page < 1 {
		page = 1
	}
	if size <= 0 || size > 100 {
		size = 20
	}
	return size, (page - 1) * size
}
