package invoice

import (
	"github.com/shopspring/decimal"
	"notion2mf/pkg/models"
)

// Summary aggregates the amounts of a set of invoices.
type Summary struct {
	Count     int
	Subtotal  decimal.Decimal
	TaxAmount decimal.Decimal
	Total     decimal.Decimal
}

// Summarize adds up subtotal, tax and total over invoices.
func Summarize(invoices []*models.Invoice) Summary {
	s := Summary{
		Count:     len(invoices),
		Subtotal:  decimal.Zero,
		TaxAmount: decimal.Zero,
		Total:     decimal.Zero,
	}
	for _, inv := range invoices {
		s.Subtotal = s.Subtotal.Add(inv.Subtotal)
		s.TaxAmount = s.TaxAmount.Add(inv.TaxAmount)
		s.Total = s.Total.Add(inv.TotalAmount)
	}
	return s
}
