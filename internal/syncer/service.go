// Package syncer runs the end to end flow: read completed projects from Notion, map them to
// invoices, submit them to MoneyForward and flag the source projects as invoiced.
package syncer

import (
	"context"
	"fmt"

	"github.com/rs/zerolog"
	"golang.org/x/sync/errgroup"
	"notion2mf/internal/invoice"
	"notion2mf/internal/ledger"
	"notion2mf/internal/logger"
	"notion2mf/internal/moneyforward"
	"notion2mf/internal/notion"
	"notion2mf/pkg/models"
)

// DefaultWorkers bounds the number of concurrent MoneyForward requests.
const DefaultWorkers = 4

//go:generate mockgen -source=service.go -destination=service_mock.go -package=syncer
type RecordSource interface {
	FetchProjects(ctx context.Context, f notion.Filter) ([]*models.TrainingProject, error)
	ResolveCustomerNames(ctx context.Context, projects []*models.TrainingProject)
	MarkProjectsAsInvoiced(ctx context.Context, pageIDs []string) (ok, failed int)
}

type BillingClient interface {
	CreateInvoice(ctx context.Context, inv *models.Invoice) (*moneyforward.Billing, error)
}

type Ledger interface {
	FilterUnsubmitted(ctx context.Context, invoices []*models.Invoice) (pending, submitted []*models.Invoice, err error)
	Record(ctx context.Context, runID string, inv *models.Invoice, billingID string) (*ledger.Submission, error)
}

type Service struct {
	source  RecordSource
	billing BillingClient
	mapper  *invoice.Mapper
	ledger  Ledger
	workers int
	runID   string
	log     zerolog.Logger
}

type Option func(*Service)

// WithLedger enables duplicate detection and submission bookkeeping.
func WithLedger(l Ledger) Option {
	return func(s *Service) {
		s.ledger = l
	}
}

func WithWorkers(n int) Option {
	return func(s *Service) {
		if n > 0 {
			s.workers = n
		}
	}
}

// WithRunID tags log lines and ledger entries with the id of this run.
func WithRunID(id string) Option {
	return func(s *Service) {
		s.runID = id
	}
}

func NewService(source RecordSource, billing BillingClient, mapper *invoice.Mapper, opts ...Option) *Service {
	s := &Service{
		source:  source,
		billing: billing,
		mapper:  mapper,
		workers: DefaultWorkers,
	}
	for _, opt := range opts {
		opt(s)
	}
	s.log = logger.WithRunID("syncer", s.runID)
	return s
}

// Request selects the projects of one run.
type Request struct {
	Filter  notion.Filter
	Grouped bool
}

// Plan is what Submit would send.
type Plan struct {
	Projects         int
	AlreadyInvoiced  int
	Invoices         []*models.Invoice
	AlreadySubmitted []*models.Invoice
	MappingErrors    []string
}

// Prepare fetches and maps projects without touching MoneyForward. Projects already flagged
// as invoiced in Notion are left out, and so are invoices the ledger has seen before.
func (s *Service) Prepare(ctx context.Context, req Request) (*Plan, error) {
	const op = "Prepare"

	projects, err := s.source.FetchProjects(ctx, req.Filter)
	if err != nil {
		return nil, fmt.Errorf("%s: failed to fetch projects: %w", op, err)
	}

	plan := &Plan{Projects: len(projects)}

	open := make([]*models.TrainingProject, 0, len(projects))
	for _, p := range projects {
		if p.Invoiced {
			plan.AlreadyInvoiced++
			continue
		}
		open = append(open, p)
	}

	s.source.ResolveCustomerNames(ctx, open)

	var invoices []*models.Invoice
	if req.Grouped {
		invoices, plan.MappingErrors, err = s.mapper.MapGrouped(open, true)
	} else {
		invoices, plan.MappingErrors, err = s.mapper.MapBatch(open, true)
	}
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	if s.ledger != nil {
		invoices, plan.AlreadySubmitted, err = s.ledger.FilterUnsubmitted(ctx, invoices)
		if err != nil {
			return nil, fmt.Errorf("%s: %w", op, err)
		}
	}
	plan.Invoices = invoices

	s.log.Info().
		Int("projects", plan.Projects).
		Int("already_invoiced", plan.AlreadyInvoiced).
		Int("invoices", len(plan.Invoices)).
		Int("already_submitted", len(plan.AlreadySubmitted)).
		Int("mapping_errors", len(plan.MappingErrors)).
		Msg("Sync plan prepared")

	return plan, nil
}

// Created pairs an invoice with the billing MoneyForward made for it.
type Created struct {
	Invoice *models.Invoice
	Billing *moneyforward.Billing
}

// Failure is an invoice MoneyForward rejected.
type Failure struct {
	Invoice *models.Invoice
	Err     error
}

// Result reports a Submit call. Created and Failed follow plan order.
type Result struct {
	Created        []Created
	Failed         []Failure
	Marked         int
	MarkFailed     int
	RecordFailures int
}

// Submit creates a billing per planned invoice with at most the configured number of
// requests in flight. A failing invoice does not stop the others. Source projects of every
// created invoice are then flagged as invoiced and recorded in the ledger.
//
// When ctx is canceled, invoices not yet sent are reported as failed with the context
// error and the billings already created are still flagged and recorded. The partial
// Result is returned together with an error wrapping ctx.Err().
func (s *Service) Submit(ctx context.Context, plan *Plan) (*Result, error) {
	const op = "Submit"

	billings := make([]*moneyforward.Billing, len(plan.Invoices))
	errs := make([]error, len(plan.Invoices))

	var g errgroup.Group
	g.SetLimit(s.workers)

	for i, inv := range plan.Invoices {
		g.Go(func() error {
			if err := ctx.Err(); err != nil {
				errs[i] = err
				return nil
			}
			billings[i], errs[i] = s.billing.CreateInvoice(ctx, inv)
			return nil
		})
	}
	_ = g.Wait()

	result := &Result{}
	var sourceIDs []string
	for i, inv := range plan.Invoices {
		if billings[i] == nil {
			err := errs[i]
			if err == nil {
				err = fmt.Errorf("no billing returned for %s", inv.ProjectName)
			}
			s.log.Error().
				Err(err).
				Str("project", inv.ProjectName).
				Msg("Failed to create invoice")
			result.Failed = append(result.Failed, Failure{Invoice: inv, Err: err})
			continue
		}
		result.Created = append(result.Created, Created{Invoice: inv, Billing: billings[i]})
		sourceIDs = append(sourceIDs, inv.SourceRecordIDs()...)
	}

	// Billings already exist in MoneyForward, so bookkeeping runs even after a cancel.
	bookkeeping := context.WithoutCancel(ctx)

	if len(sourceIDs) > 0 {
		result.Marked, result.MarkFailed = s.source.MarkProjectsAsInvoiced(bookkeeping, sourceIDs)
	}

	if s.ledger != nil {
		result.RecordFailures = s.record(bookkeeping, result.Created)
	}

	s.log.Info().
		Int("created", len(result.Created)).
		Int("failed", len(result.Failed)).
		Int("marked", result.Marked).
		Int("mark_failed", result.MarkFailed).
		Msg("Sync submitted")

	if err := ctx.Err(); err != nil {
		return result, fmt.Errorf("%s: %w", op, err)
	}
	return result, nil
}

func (s *Service) record(ctx context.Context, created []Created) int {
	failures := 0
	for _, c := range created {
		if _, err := s.ledger.Record(ctx, s.runID, c.Invoice, c.Billing.ID); err != nil {
			s.log.Error().Err(err).Str("billing_id", c.Billing.ID).Msg("Failed to record submission")
			failures++
		}
	}
	return failures
}
