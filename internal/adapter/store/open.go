package store

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/couchcryptid/ride-check/internal/config"
	"github.com/couchcryptid/ride-check/internal/domain"
)

// Open builds the selection store named by cfg.SelectionStore. The returned
// close function releases the database pool, if any.
func Open(ctx context.Context, cfg *config.Config) (domain.SelectionStore, func(), error) {
	switch cfg.SelectionStore {
	case config.StorePostgres:
		pool, err := pgxpool.New(ctx, cfg.DatabaseURL)
		if err != nil {
			return nil, nil, fmt.Errorf("connect to postgres: %w", err)
		}
		s := NewPostgresStore(pool, cfg.SelectionProfile)
		if err := s.EnsureSchema(ctx); err != nil {
			pool.Close()
			return nil, nil, err
		}
		return s, pool.Close, nil
	case config.StoreFile:
		return NewFileStore(cfg.SelectionFile), func() {}, nil
	default:
		return nil, nil, fmt.Errorf("unknown selection store %q", cfg.SelectionStore)
	}
}
