// Package ledger remembers which Notion projects have already been billed so that a
// repeated sync does not create the same MoneyForward billing twice.
package ledger

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"
	"notion2mf/internal/logger"
	"notion2mf/pkg/models"
)

// ErrNoSources is returned when an invoice carries no source project ids.
var ErrNoSources = errors.New("ledger: invoice has no source projects")

// Submission is one billing created in MoneyForward.
type Submission struct {
	ID           uuid.UUID
	RunID        string
	BillingID    string
	InvoiceKey   string // invoice number, or the project name for single invoices
	CustomerName string
	Total        decimal.Decimal
	SourceIDs    []string
	SubmittedAt  time.Time
}

//go:generate mockgen -source=service.go -destination=repository_mock.go -package=ledger
type Repository interface {
	CreateSubmission(ctx context.Context, s *Submission) error
	SubmittedSourceIDs(ctx context.Context, sourceIDs []string) (map[string]bool, error)
}

type Service struct {
	repo Repository
	now  func() time.Time
	log  zerolog.Logger
}

func NewService(repo Repository) *Service {
	return &Service{
		repo: repo,
		now:  time.Now,
		log:  logger.WithComponent("ledger"),
	}
}

// FilterUnsubmitted splits invoices into those that still need to be sent and those with at
// least one source project that was already billed. Input order is kept in both lists.
func (s *Service) FilterUnsubmitted(ctx context.Context, invoices []*models.Invoice) (pending, submitted []*models.Invoice, err error) {
	var ids []string
	for _, inv := range invoices {
		ids = append(ids, inv.SourceRecordIDs()...)
	}
	if len(ids) == 0 {
		return invoices, nil, nil
	}

	seen, err := s.repo.SubmittedSourceIDs(ctx, ids)
	if err != nil {
		return nil, nil, fmt.Errorf("looking up submissions: %w", err)
	}

	for _, inv := range invoices {
		if anySubmitted(inv.SourceRecordIDs(), seen) {
			submitted = append(submitted, inv)
			continue
		}
		pending = append(pending, inv)
	}

	s.log.Debug().
		Int("pending", len(pending)).
		Int("already_submitted", len(submitted)).
		Msg("Filtered invoices against ledger")

	return pending, submitted, nil
}

func anySubmitted(ids []string, seen map[string]bool) bool {
	for _, id := range ids {
		if seen[id] {
			return true
		}
	}
	return false
}

// Record stores the billing created for inv.
func (s *Service) Record(ctx context.Context, runID string, inv *models.Invoice, billingID string) (*Submission, error) {
	sources := inv.SourceRecordIDs()
	if len(sources) == 0 {
		return nil, ErrNoSources
	}

	key := inv.InvoiceNumber
	if key == "" {
		key = inv.ProjectName
	}

	sub := &Submission{
		ID:           uuid.New(),
		RunID:        runID,
		BillingID:    billingID,
		InvoiceKey:   key,
		CustomerName: inv.CustomerName,
		Total:        inv.TotalAmount,
		SourceIDs:    append([]string(nil), sources...),
		SubmittedAt:  s.now().UTC(),
	}
	if err := s.repo.CreateSubmission(ctx, sub); err != nil {
		return nil, fmt.Errorf("recording submission %s: %w", key, err)
	}

	s.log.Info().
		Str("run_id", runID).
		Str("billing_id", billingID).
		Str("invoice", key).
		Msg("Submission recorded")

	return sub, nil
}
