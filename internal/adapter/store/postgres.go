package store

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
)

// DBTX is the subset of pgxpool.Pool and pgx.Tx the store needs.
type DBTX interface {
	Exec(ctx context.Context, sql string, arguments ...any) (pgconn.CommandTag, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
}

const schemaSQL = `CREATE TABLE IF NOT EXISTS ride_selection (
	profile    TEXT PRIMARY KEY,
	city       TEXT NOT NULL,
	updated_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
)`

// PostgresStore keeps one selection row per profile.
type PostgresStore struct {
	db      DBTX
	profile string
}

// NewPostgresStore creates a store for the given profile.
func NewPostgresStore(db DBTX, profile string) *PostgresStore {
	return &PostgresStore{db: db, profile: profile}
}

// EnsureSchema creates the ride_selection table if it does not exist.
func (s *PostgresStore) EnsureSchema(ctx context.Context) error {
	if _, err := s.db.Exec(ctx, schemaSQL); err != nil {
		return fmt.Errorf("create ride_selection: %w", err)
	}
	return nil
}

// Load returns the profile's city, or "" when no row exists.
func (s *PostgresStore) Load(ctx context.Context) (string, error) {
	var city string
	err := s.db.QueryRow(ctx,
		`SELECT city FROM ride_selection WHERE profile = $1`,
		s.profile,
	).Scan(&city)
	if errors.Is(err, pgx.ErrNoRows) {
		return "", nil
	}
	if err != nil {
		return "", fmt.Errorf("load selection for %s: %w", s.profile, err)
	}
	return city, nil
}

// Save upserts the profile's city.
func (s *PostgresStore) Save(ctx context.Context, city string) error {
	_, err := s.db.Exec(ctx,
		`INSERT INTO ride_selection (profile, city, updated_at)
		 VALUES ($1, $2, NOW())
		 ON CONFLICT (profile) DO UPDATE SET city = EXCLUDED.city, updated_at = EXCLUDED.updated_at`,
		s.profile, city,
	)
	if err != nil {
		return fmt.Errorf("save selection for %s: %w", s.profile, err)
	}
	return nil
}
