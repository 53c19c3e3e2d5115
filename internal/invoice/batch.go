package invoice

import (
	"fmt"

	"github.com/rs/zerolog"
	"notion2mf/pkg/models"
)

// errorPolicy decides what happens to a failed unit. Batch and grouped mapping share it so
// that both modes report failures identically.
type errorPolicy struct {
	skip     bool
	messages []string
	log      zerolog.Logger
}

// handle records the failure under key. It returns nil when the unit should be skipped and
// the error itself when the whole call has to stop.
func (p *errorPolicy) handle(key string, err error) error {
	if !p.skip {
		return err
	}

	msg := fmt.Sprintf("%s: %v", key, err)
	p.messages = append(p.messages, msg)
	p.log.Warn().
		Str("unit", key).
		Err(err).
		Msg("Skipping invoice")
	return nil
}

// MapBatch converts every project into its own invoice, in input order.
//
// With skipErrors a failing project adds one "{title}: {error}" message and is left out.
// Without it the first failure is returned and no invoices are.
func (m *Mapper) MapBatch(projects []*models.TrainingProject, skipErrors bool) ([]*models.Invoice, []string, error) {
	policy := &errorPolicy{skip: skipErrors, log: m.log}
	invoices := make([]*models.Invoice, 0, len(projects))

	for _, project := range projects {
		inv, err := m.MapToInvoice(project, MapOptions{})
		if err != nil {
			if err := policy.handle(project.Title, err); err != nil {
				return nil, nil, err
			}
			continue
		}
		invoices = append(invoices, inv)
	}

	m.log.Info().
		Int("invoices", len(invoices)).
		Int("errors", len(policy.messages)).
		Msg("Batch mapping completed")

	return invoices, policy.messages, nil
}
