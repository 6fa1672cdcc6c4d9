// Package store persists the entity pool between runs and keeps a log of
// committed sessions.
package store

import (
	"context"

	"glicko-ranker/ranker/pool"
)

// Store is the persistence collaborator. Load returns a nil pool and a nil
// error when there is no usable prior state.
type Store interface {
	Load(ctx context.Context) (*pool.Pool, error)
	Save(ctx context.Context, p *pool.Pool) error
	LogSession(ctx context.Context, rec SessionRecord) error
	Sessions(ctx context.Context, limit int) ([]SessionRecord, error)
	Close()
}

var (
	_ Store = (*FileStore)(nil)
	_ Store = (*DB)(nil)
)
