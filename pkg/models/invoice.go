package models

import (
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"cloud.google.com/go/civil"
	"github.com/shopspring/decimal"
)

// UnsetCustomerName is used when a single project has no customer attached.
const UnsetCustomerName = "顧客名未設定"

// DefaultTaxRate is the Japanese consumption tax rate applied to invoices.
var DefaultTaxRate = decimal.RequireFromString("0.10")

// ErrInvalidInvoice is returned when an invoice breaks one of its financial invariants.
var ErrInvalidInvoice = errors.New("invalid invoice")

// InvoiceItem is one billed line of an invoice.
type InvoiceItem struct {
	ItemName    string
	Quantity    int
	UnitPrice   decimal.Decimal
	Amount      decimal.Decimal // UnitPrice × Quantity
	Description string
}

// NewInvoiceItem builds a line whose amount is unitPrice × quantity. A quantity below one is
// treated as one.
func NewInvoiceItem(name string, quantity int, unitPrice decimal.Decimal, description string) InvoiceItem {
	if quantity < 1 {
		quantity = 1
	}
	return InvoiceItem{
		ItemName:    name,
		Quantity:    quantity,
		UnitPrice:   unitPrice,
		Amount:      unitPrice.Mul(decimal.NewFromInt(int64(quantity))),
		Description: description,
	}
}

// Invoice is the billing document sent to MoneyForward.
type Invoice struct {
	// Identification; only grouped invoices carry a number
	InvoiceNumber string

	// Dates
	InvoiceDate civil.Date
	DueDate     *civil.Date

	// Customer
	CustomerName string
	CustomerID   string

	Items []InvoiceItem

	// Amounts (yen, exact decimals)
	Subtotal    decimal.Decimal // before tax
	TaxRate     decimal.Decimal
	TaxAmount   decimal.Decimal
	TotalAmount decimal.Decimal // Subtotal + TaxAmount

	// Metadata
	Notes       string
	SourceID    string   // originating Notion page (single invoices)
	SourceIDs   []string // originating Notion pages (grouped invoices)
	ProjectName string
}

// CalculateTotals recomputes subtotal, tax and total from the current items.
// Tax is rounded to whole yen using banker's rounding.
func (inv *Invoice) CalculateTotals() {
	subtotal := decimal.Zero
	for _, item := range inv.Items {
		subtotal = subtotal.Add(item.Amount)
	}
	inv.Subtotal = subtotal
	inv.TaxAmount = subtotal.Mul(inv.TaxRate).RoundBank(0)
	inv.TotalAmount = inv.Subtotal.Add(inv.TaxAmount)
}

// Validate checks the financial invariants of the invoice and reports every violation.
func (inv *Invoice) Validate() error {
	var problems []string

	if len(inv.Items) == 0 {
		problems = append(problems, "invoice has no items")
	}
	if strings.TrimSpace(inv.CustomerName) == "" {
		problems = append(problems, "customer name is empty")
	}

	sum := decimal.Zero
	for i, item := range inv.Items {
		if strings.TrimSpace(item.ItemName) == "" {
			problems = append(problems, fmt.Sprintf("item %d has no name", i+1))
		}
		if item.Quantity < 1 {
			problems = append(problems, fmt.Sprintf("item %d quantity must be at least 1 (got %d)", i+1, item.Quantity))
		}
		if item.Amount.IsNegative() {
			problems = append(problems, fmt.Sprintf("item %d amount is negative: %s", i+1, item.Amount))
		}
		sum = sum.Add(item.Amount)
	}

	if !sum.Equal(inv.Subtotal) {
		problems = append(problems, fmt.Sprintf("subtotal %s does not match item sum %s", inv.Subtotal, sum))
	}
	if inv.Subtotal.IsNegative() || inv.TaxAmount.IsNegative() || inv.TotalAmount.IsNegative() {
		problems = append(problems, "amounts must not be negative")
	}
	if !inv.Subtotal.Add(inv.TaxAmount).Equal(inv.TotalAmount) {
		problems = append(problems, fmt.Sprintf("total %s is not subtotal %s + tax %s", inv.TotalAmount, inv.Subtotal, inv.TaxAmount))
	}

	if len(problems) > 0 {
		return fmt.Errorf("%w: %s", ErrInvalidInvoice, strings.Join(problems, "; "))
	}
	return nil
}

// SourceRecordIDs returns the Notion pages this invoice was built from.
func (inv *Invoice) SourceRecordIDs() []string {
	if len(inv.SourceIDs) > 0 {
		return inv.SourceIDs
	}
	if inv.SourceID != "" {
		return []string{inv.SourceID}
	}
	return nil
}

// ToMap exports the invoice as a field map, leaving out absent optional fields.
// Decimals become plain JSON numbers and dates YYYY-MM-DD strings.
func (inv *Invoice) ToMap() map[string]any {
	m := map[string]any{
		"invoice_date":  inv.InvoiceDate.String(),
		"customer_name": inv.CustomerName,
		"subtotal":      jsonNumber(inv.Subtotal),
		"tax_rate":      jsonNumber(inv.TaxRate),
		"tax_amount":    jsonNumber(inv.TaxAmount),
		"total_amount":  jsonNumber(inv.TotalAmount),
	}

	items := make([]map[string]any, 0, len(inv.Items))
	for _, item := range inv.Items {
		im := map[string]any{
			"item_name":  item.ItemName,
			"quantity":   item.Quantity,
			"unit_price": jsonNumber(item.UnitPrice),
			"amount":     jsonNumber(item.Amount),
		}
		if item.Description != "" {
			im["description"] = item.Description
		}
		items = append(items, im)
	}
	m["items"] = items

	if inv.InvoiceNumber != "" {
		m["invoice_number"] = inv.InvoiceNumber
	}
	if inv.DueDate != nil {
		m["due_date"] = inv.DueDate.String()
	}
	if inv.CustomerID != "" {
		m["customer_id"] = inv.CustomerID
	}
	if inv.Notes != "" {
		m["notes"] = inv.Notes
	}
	if inv.SourceID != "" {
		m["source_id"] = inv.SourceID
	}
	if len(inv.SourceIDs) > 0 {
		m["source_ids"] = append([]string(nil), inv.SourceIDs...)
	}
	if inv.ProjectName != "" {
		m["project_name"] = inv.ProjectName
	}

	return m
}

// MarshalJSON encodes the invoice in its exported map form.
func (inv *Invoice) MarshalJSON() ([]byte, error) {
	return json.Marshal(inv.ToMap())
}

// FormatSummary renders a short human readable preview.
func (inv *Invoice) FormatSummary() string {
	number := inv.InvoiceNumber
	if number == "" {
		number = "未発行"
	}

	lines := []string{
		"請求書: " + number,
		"顧客: " + inv.CustomerName,
		"請求日: " + inv.InvoiceDate.String(),
		"小計: " + FormatYen(inv.Subtotal) + "（税抜）",
		"消費税: " + FormatYen(inv.TaxAmount),
		"合計: " + FormatYen(inv.TotalAmount) + "（税込）",
	}
	return strings.Join(lines, "\n")
}

func jsonNumber(d decimal.Decimal) json.Number {
	return json.Number(d.String())
}
