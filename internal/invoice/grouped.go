package invoice

import (
	"fmt"
	"strings"
	"time"

	"cloud.google.com/go/civil"
	"notion2mf/pkg/models"
)

// groupKey identifies one customer×month partition. Matching is exact.
type groupKey struct {
	customer string
	year     int
	month    time.Month
}

// MapGrouped consolidates projects into one invoice per customer and start month.
//
// Projects are validated for grouping first; failures are skipped with a message or, without
// skipErrors, returned immediately. Groups keep the order in which their first project
// appeared and items keep input order within a group.
func (m *Mapper) MapGrouped(projects []*models.TrainingProject, skipErrors bool) ([]*models.Invoice, []string, error) {
	policy := &errorPolicy{skip: skipErrors, log: m.log}

	groups := make(map[groupKey][]*models.TrainingProject)
	var order []groupKey // first occurrence order

	for _, project := range projects {
		if err := validateForGroup(project); err != nil {
			if err := policy.handle(project.Title, err); err != nil {
				return nil, nil, err
			}
			continue
		}

		key := groupKey{
			customer: project.CustomerName,
			year:     project.StartDate.Year(),
			month:    project.StartDate.Month(),
		}
		if _, exists := groups[key]; !exists {
			order = append(order, key)
		}
		groups[key] = append(groups[key], project)
	}

	m.log.Debug().
		Int("projects", len(projects)).
		Int("groups", len(order)).
		Msg("Grouped projects by customer and month")

	invoices := make([]*models.Invoice, 0, len(order))
	for _, key := range order {
		inv, err := m.buildGroupInvoice(key, groups[key])
		if err != nil {
			gerr := &GroupError{Customer: key.customer, Year: key.year, Month: key.month, Err: err}
			if err := policy.handle(gerr.Key(), gerr); err != nil {
				return nil, nil, err
			}
			continue
		}
		invoices = append(invoices, inv)
	}

	m.log.Info().
		Int("invoices", len(invoices)).
		Int("errors", len(policy.messages)).
		Msg("Grouped mapping completed")

	return invoices, policy.messages, nil
}

func (m *Mapper) buildGroupInvoice(key groupKey, projects []*models.TrainingProject) (*models.Invoice, error) {
	invoiceDate := lastDayOfMonth(key.year, key.month)
	dueDate := invoiceDate.AddDays(m.paymentTermsDays)

	items := make([]models.InvoiceItem, 0, len(projects))
	sourceIDs := make([]string, 0, len(projects))
	for _, p := range projects {
		items = append(items, projectItem(p))
		sourceIDs = append(sourceIDs, p.ID)
	}

	inv := &models.Invoice{
		InvoiceNumber: fmt.Sprintf("%04d%02d-%s", key.year, int(key.month), key.customer),
		InvoiceDate:   invoiceDate,
		DueDate:       &dueDate,
		CustomerName:  key.customer,
		// TODO: reject groups whose projects point at different customer pages once the
		// customer database exposes a stable code to compare.
		CustomerID:  projects[0].CustomerID,
		Items:       items,
		TaxRate:     m.taxRate,
		Notes:       groupNotes(key, projects),
		SourceIDs:   sourceIDs,
		ProjectName: fmt.Sprintf("%s %d年%d月分", key.customer, key.year, int(key.month)),
	}
	inv.CalculateTotals()

	if err := inv.Validate(); err != nil {
		return nil, err
	}

	m.log.Info().
		Str("customer", key.customer).
		Str("invoice_number", inv.InvoiceNumber).
		Int("items", len(items)).
		Str("total", inv.TotalAmount.String()).
		Msg("Grouped invoice created")

	return inv, nil
}

func groupNotes(key groupKey, projects []*models.TrainingProject) string {
	var sb strings.Builder
	fmt.Fprintf(&sb, "%s %d年%d月分 研修実施 %d件", key.customer, key.year, int(key.month), len(projects))
	for i, p := range projects {
		fmt.Fprintf(&sb, "\n%d. %s (%s)", i+1, p.Title, p.FormatDateRange())
	}
	return sb.String()
}

func lastDayOfMonth(year int, month time.Month) civil.Date {
	// Day 0 of the next month normalizes to the last day of this one.
	return civil.DateOf(time.Date(year, month+1, 0, 0, 0, 0, 0, time.UTC))
}
