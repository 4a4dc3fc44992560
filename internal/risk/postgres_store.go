package risk

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"time"
)

// PostgresStore persists assessments in PostgreSQL.
type PostgresStore struct {
	db *sql.DB
}

// NewPostgresStore creates a PostgreSQL-backed assessment store.
func NewPostgresStore(db *sql.DB) *PostgresStore {
	return &PostgresStore{db: db}
}

// Migrate creates the risk_assessments table if it doesn't exist.
// cmd/migrate is the canonical path; this covers fresh dev databases.
func (s *PostgresStore) Migrate(ctx context.Context) error {
	_, err := s.db.ExecContext(ctx, `
		CREATE TABLE IF NOT EXISTS risk_assessments (
			id           VARCHAR(36) PRIMARY KEY,
			customer_id  VARCHAR(64) NOT NULL,
			amount       NUMERIC(16,2) NOT NULL,
			probability  NUMERIC(4,3) NOT NULL CHECK (probability >= 0 AND probability <= 1),
			decision     VARCHAR(10) NOT NULL CHECK (decision IN ('BLOCK', 'REVIEW', 'MONITOR', 'APPROVE')),
			findings     JSONB NOT NULL DEFAULT '[]',
			weights      JSONB NOT NULL DEFAULT '{}',
			evaluated_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
		);

		CREATE INDEX IF NOT EXISTS idx_risk_assessments_customer
			ON risk_assessments (customer_id, evaluated_at DESC);
	`)
	return err
}

func (s *PostgresStore) Record(ctx context.Context, assessment *Assessment) error {
	findingsJSON, err := json.Marshal(assessment.Findings)
	if err != nil {
		return fmt.Errorf("failed to marshal findings: %w", err)
	}
	weightsJSON, err := json.Marshal(assessment.Weights)
	if err != nil {
		return fmt.Errorf("failed to marshal weights: %w", err)
	}

	_, err = s.db.ExecContext(ctx, `
		INSERT INTO risk_assessments (id, customer_id, amount, probability, decision, findings, weights, evaluated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
	`,
		assessment.ID,
		assessment.CustomerID,
		assessment.Amount,
		assessment.Probability,
		string(assessment.Decision),
		findingsJSON,
		weightsJSON,
		assessment.EvaluatedAt,
	)
	if err != nil {
		return fmt.Errorf("failed to record assessment: %w", err)
	}
	return nil
}

func (s *PostgresStore) ListByCustomer(ctx context.Context, customerID string, limit int) ([]*Assessment, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT id, customer_id, amount, probability, decision, findings, weights, evaluated_at
		FROM risk_assessments
		WHERE customer_id = $1
		ORDER BY evaluated_at DESC
		LIMIT $2
	`, customerID, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to list assessments: %w", err)
	}
	defer func() { _ = rows.Close() }()

	var result []*Assessment
	for rows.Next() {
		var a Assessment
		var findingsJSON, weightsJSON []byte
		var evaluatedAt time.Time

		if err := rows.Scan(&a.ID, &a.CustomerID, &a.Amount, &a.Probability, &a.Decision, &findingsJSON, &weightsJSON, &evaluatedAt); err != nil {
			continue
		}
		a.EvaluatedAt = evaluatedAt
		a.Action = a.Decision.Action()
		_ = json.Unmarshal(findingsJSON, &a.Findings)
		a.Weights = make(map[string]float64)
		_ = json.Unmarshal(weightsJSON, &a.Weights)
		result = append(result, &a)
	}
	return result, rows.Err()
}
