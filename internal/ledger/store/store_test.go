package store_test

import (
	"context"
	"database/sql"
	"os"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"notion2mf/internal/database"
	"notion2mf/internal/ledger"
	"notion2mf/internal/ledger/store"
)

// Runs against a real Postgres when LEDGER_TEST_DATABASE_URL is set.
func newTestStore(t *testing.T) (*store.Store, *sql.DB) {
	t.Helper()

	connStr := os.Getenv("LEDGER_TEST_DATABASE_URL")
	if connStr == "" {
		t.Skip("LEDGER_TEST_DATABASE_URL not set")
	}

	ctx := context.Background()
	db, err := database.New(ctx, connStr)
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })

	s := store.New(db)
	require.NoError(t, s.Migrate(ctx))
	require.NoError(t, s.Migrate(ctx), "migration must be repeatable")
	return s, db
}

func TestStore_Submissions(t *testing.T) {
	s, _ := newTestStore(t)
	ctx := context.Background()

	billed := "page-" + uuid.NewString()
	other := "page-" + uuid.NewString()

	seen, err := s.SubmittedSourceIDs(ctx, []string{billed, other})
	require.NoError(t, err)
	assert.Empty(t, seen)

	sub := &ledger.Submission{
		ID:           uuid.New(),
		RunID:        "run-1",
		BillingID:    "mf-1",
		InvoiceKey:   "202503-Acme",
		CustomerName: "Acme",
		Total:        decimal.NewFromInt(132000),
		SourceIDs:    []string{billed, billed},
		SubmittedAt:  time.Now().UTC(),
	}
	require.NoError(t, s.CreateSubmission(ctx, sub))

	seen, err = s.SubmittedSourceIDs(ctx, []string{billed, other})
	require.NoError(t, err)
	assert.Equal(t, map[string]bool{billed: true}, seen)

	seen, err = s.SubmittedSourceIDs(ctx, nil)
	require.NoError(t, err)
	assert.Empty(t, seen)
}

func TestStore_CreateSubmission_FractionalTotal(t *testing.T) {
	s, db := newTestStore(t)
	ctx := context.Background()

	sub := &ledger.Submission{
		ID:           uuid.New(),
		RunID:        "run-1",
		BillingID:    "mf-2",
		InvoiceKey:   "Workshop",
		CustomerName: "Acme",
		Total:        decimal.RequireFromString("2199.99"),
		SourceIDs:    []string{"page-" + uuid.NewString()},
		SubmittedAt:  time.Now().UTC(),
	}
	require.NoError(t, s.CreateSubmission(ctx, sub))

	var total string
	err := db.QueryRowContext(ctx, `SELECT total::text FROM invoice_submissions WHERE id = $1`, sub.ID).Scan(&total)
	require.NoError(t, err)
	assert.Equal(t, "2199.99", total)
}
