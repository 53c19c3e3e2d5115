// Package invoice turns Notion training projects into MoneyForward invoices.
//
// Two mapping modes are supported:
//   - one invoice per project (MapToInvoice, MapBatch)
//   - one invoice per customer and calendar month (MapGrouped)
//
// Amounts are exact decimals. Consumption tax is computed on the invoice subtotal and
// rounded to whole yen with banker's rounding.
//
// A Mapper holds no mutable state once built and never modifies the projects it is given,
// so one Mapper may be shared by concurrent callers. Batch calls either skip invalid units
// and report them as messages, or stop at the first failure and return the error with no
// invoices.
package invoice

import (
	"time"

	"cloud.google.com/go/civil"
	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"
	"notion2mf/internal/logger"
	"notion2mf/pkg/models"
)

// DefaultPaymentTermsDays is the number of days between invoice date and due date.
const DefaultPaymentTermsDays = 30

// Mapper converts training projects into invoices.
type Mapper struct {
	taxRate          decimal.Decimal
	paymentTermsDays int
	now              func() time.Time
	log              zerolog.Logger
}

// Option configures a Mapper.
type Option func(*Mapper)

// WithTaxRate overrides the consumption tax rate (default 0.10).
func WithTaxRate(rate decimal.Decimal) Option {
	return func(m *Mapper) {
		m.taxRate = rate
	}
}

// WithPaymentTerms overrides the default payment terms in days.
func WithPaymentTerms(days int) Option {
	return func(m *Mapper) {
		m.paymentTermsDays = days
	}
}

// WithClock sets the clock used when a project has neither end nor start date.
func WithClock(now func() time.Time) Option {
	return func(m *Mapper) {
		m.now = now
	}
}

// NewMapper creates a mapper with the Japanese defaults: 10% tax, 30 day payment terms.
func NewMapper(opts ...Option) *Mapper {
	m := &Mapper{
		taxRate:          models.DefaultTaxRate,
		paymentTermsDays: DefaultPaymentTermsDays,
		now:              time.Now,
		log:              logger.WithComponent("invoice-mapper"),
	}
	for _, opt := range opts {
		opt(m)
	}
	return m
}

// TaxRate returns the tax rate applied to new invoices.
func (m *Mapper) TaxRate() decimal.Decimal {
	return m.taxRate
}

// PaymentTermsDays returns the default payment terms.
func (m *Mapper) PaymentTermsDays() int {
	return m.paymentTermsDays
}

// MapOptions tune a single MapToInvoice call. Nil fields fall back to the mapper defaults.
type MapOptions struct {
	// InvoiceDate overrides the date derived from the project.
	InvoiceDate *civil.Date

	// PaymentTermsDays overrides the mapper's payment terms.
	PaymentTermsDays *int
}

func (m *Mapper) termsFor(opts MapOptions) int {
	if opts.PaymentTermsDays != nil {
		return *opts.PaymentTermsDays
	}
	return m.paymentTermsDays
}
