package invoice

import (
	"fmt"
	"strings"

	"cloud.google.com/go/civil"
	"notion2mf/pkg/models"
)

const descriptionSeparator = " / "

// MapToInvoice converts one training project into an invoice.
//
// The invoice date is opts.InvoiceDate if given, otherwise the project's end date, then its
// start date, then today. A project that fails validation yields a *ValidationError and no
// invoice.
func (m *Mapper) MapToInvoice(project *models.TrainingProject, opts MapOptions) (*models.Invoice, error) {
	if err := validateForSingle(project); err != nil {
		return nil, err
	}

	invoiceDate := m.determineInvoiceDate(project)
	if opts.InvoiceDate != nil {
		invoiceDate = *opts.InvoiceDate
	}
	dueDate := invoiceDate.AddDays(m.termsFor(opts))

	customerName := project.CustomerName
	if customerName == "" {
		customerName = models.UnsetCustomerName
	}

	inv := &models.Invoice{
		InvoiceDate:  invoiceDate,
		DueDate:      &dueDate,
		CustomerName: customerName,
		CustomerID:   project.CustomerID,
		Items:        []models.InvoiceItem{projectItem(project)},
		TaxRate:      m.taxRate,
		Notes:        projectNotes(project),
		SourceID:     project.ID,
		ProjectName:  project.Title,
	}
	inv.CalculateTotals()

	if err := inv.Validate(); err != nil {
		return nil, fmt.Errorf("invoice: building invoice for %q: %w", project.Title, err)
	}

	m.log.Info().
		Str("project_id", project.ID).
		Str("title", project.Title).
		Stringer("invoice_date", invoiceDate).
		Str("total", inv.TotalAmount.String()).
		Msg("Invoice created")

	return inv, nil
}

func (m *Mapper) determineInvoiceDate(p *models.TrainingProject) civil.Date {
	switch {
	case p.EndDate != nil:
		return civil.DateOf(*p.EndDate)
	case p.StartDate != nil:
		return civil.DateOf(*p.StartDate)
	default:
		return civil.DateOf(m.now())
	}
}

// projectItem builds the single line billed for a project.
func projectItem(p *models.TrainingProject) models.InvoiceItem {
	return models.NewInvoiceItem(p.Title, 1, *p.Amount, itemDescription(p))
}

// itemDescription lists the period, participants, days, location and format that are set.
func itemDescription(p *models.TrainingProject) string {
	var parts []string

	if p.StartDate != nil && p.EndDate != nil {
		parts = append(parts, "実施期間: "+p.FormatDateRange())
	}
	if p.Participants > 0 {
		parts = append(parts, fmt.Sprintf("参加人数: %d名", p.Participants))
	}
	if p.Days > 0 {
		parts = append(parts, fmt.Sprintf("日数: %d日", p.Days))
	}
	if p.Location != "" {
		parts = append(parts, "場所: "+p.Location)
	}
	if p.Format != "" {
		parts = append(parts, "形式: "+p.Format)
	}

	return strings.Join(parts, descriptionSeparator)
}

func projectNotes(p *models.TrainingProject) string {
	var parts []string
	if p.Notes != "" {
		parts = append(parts, p.Notes)
	}
	parts = append(parts, "Notion案件ID: "+p.ID)
	return strings.Join(parts, "\n\n")
}
