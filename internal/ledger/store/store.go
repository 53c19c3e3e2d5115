package store

import (
	"context"
	"database/sql"
	"fmt"

	"notion2mf/internal/ledger"
)

type Store struct {
	db *sql.DB
}

func New(db *sql.DB) *Store {
	return &Store{db: db}
}

const schema = `
CREATE TABLE IF NOT EXISTS invoice_submissions (
	id            UUID PRIMARY KEY,
	run_id        TEXT NOT NULL,
	billing_id    TEXT NOT NULL,
	invoice_key   TEXT NOT NULL,
	customer_name TEXT NOT NULL,
	total         NUMERIC(16, 2) NOT NULL,
	submitted_at  TIMESTAMPTZ NOT NULL
);

CREATE TABLE IF NOT EXISTS invoice_submission_sources (
	submission_id UUID NOT NULL REFERENCES invoice_submissions (id) ON DELETE CASCADE,
	source_id     TEXT NOT NULL,
	PRIMARY KEY (submission_id, source_id)
);

CREATE INDEX IF NOT EXISTS invoice_submission_sources_source_id_idx
	ON invoice_submission_sources (source_id);

ALTER TABLE invoice_submissions ALTER COLUMN total TYPE NUMERIC(16, 2);
`

// Migrate creates the ledger tables when they do not exist yet.
func (s *Store) Migrate(ctx context.Context) error {
	if _, err := s.db.ExecContext(ctx, schema); err != nil {
		return fmt.Errorf("migrating ledger schema: %w", err)
	}
	return nil
}

// CreateSubmission inserts the submission and its source rows in one transaction.
func (s *Store) CreateSubmission(ctx context.Context, sub *ledger.Submission) error {
	dbTx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("beginning transaction: %w", err)
	}
	defer dbTx.Rollback()

	query := `
		INSERT INTO invoice_submissions (id, run_id, billing_id, invoice_key, customer_name, total, submitted_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
	`
	if _, err := dbTx.ExecContext(ctx, query,
		sub.ID,
		sub.RunID,
		sub.BillingID,
		sub.InvoiceKey,
		sub.CustomerName,
		sub.Total,
		sub.SubmittedAt,
	); err != nil {
		return fmt.Errorf("inserting submission: %w", err)
	}

	sourceQuery := `
		INSERT INTO invoice_submission_sources (submission_id, source_id)
		VALUES ($1, $2)
		ON CONFLICT DO NOTHING
	`
	for _, id := range sub.SourceIDs {
		if _, err := dbTx.ExecContext(ctx, sourceQuery, sub.ID, id); err != nil {
			return fmt.Errorf("inserting submission source %s: %w", id, err)
		}
	}

	if err := dbTx.Commit(); err != nil {
		return fmt.Errorf("committing transaction: %w", err)
	}

	return nil
}

// SubmittedSourceIDs returns the subset of sourceIDs that already belong to a submission.
func (s *Store) SubmittedSourceIDs(ctx context.Context, sourceIDs []string) (map[string]bool, error) {
	seen := make(map[string]bool)
	if len(sourceIDs) == 0 {
		return seen, nil
	}

	rows, err := s.db.QueryContext(ctx,
		`SELECT DISTINCT source_id FROM invoice_submission_sources WHERE source_id = ANY($1)`,
		sourceIDs,
	)
	if err != nil {
		return nil, fmt.Errorf("querying submission sources: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		var id string
		if err := rows.Scan(&id); err != nil {
			return nil, fmt.Errorf("scanning source id: %w", err)
		}
		seen[id] = true
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating submission sources: %w", err)
	}

	return seen, nil
}
