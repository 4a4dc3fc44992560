package segment

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
)

// PostgresStore persists segment profiles in PostgreSQL.
type PostgresStore struct {
	db *sql.DB
}

// NewPostgresStore creates a PostgreSQL-backed segment store.
func NewPostgresStore(db *sql.DB) *PostgresStore {
	return &PostgresStore{db: db}
}

// Migrate creates the segment_profiles table if it doesn't exist.
// cmd/migrate is the canonical path; this covers fresh dev databases.
func (s *PostgresStore) Migrate(ctx context.Context) error {
	_, err := s.db.ExecContext(ctx, `
		CREATE TABLE IF NOT EXISTS segment_profiles (
			customer_id    VARCHAR(64) PRIMARY KEY,
			prepaid_count  INTEGER NOT NULL DEFAULT 0 CHECK (prepaid_count >= 0),
			postpaid_count INTEGER NOT NULL DEFAULT 0 CHECK (postpaid_count >= 0),
			updated_at     TIMESTAMPTZ NOT NULL DEFAULT NOW()
		);
	`)
	return err
}

func (s *PostgresStore) Lookup(ctx context.Context, customerID string) (*Profile, error) {
	var p Profile
	err := s.db.QueryRowContext(ctx, `
		SELECT customer_id, prepaid_count, postpaid_count
		FROM segment_profiles
		WHERE customer_id = $1
	`, customerID).Scan(&p.CustomerID, &p.PrepaidCount, &p.PostpaidCount)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to look up segment profile: %w", err)
	}
	return &p, nil
}

func (s *PostgresStore) Upsert(ctx context.Context, profile *Profile) error {
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO segment_profiles (customer_id, prepaid_count, postpaid_count, updated_at)
		VALUES ($1, $2, $3, NOW())
		ON CONFLICT (customer_id) DO UPDATE
		SET prepaid_count = EXCLUDED.prepaid_count,
		    postpaid_count = EXCLUDED.postpaid_count,
		    updated_at = NOW()
	`, profile.CustomerID, profile.PrepaidCount, profile.PostpaidCount)
	if err != nil {
		return fmt.Errorf("failed to upsert segment profile: %w", err)
	}
	return nil
}
