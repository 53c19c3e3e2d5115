package models

import (
	"encoding/json"
	"errors"
	"testing"
	"time"

	"cloud.google.com/go/civil"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestInvoice(amounts ...int64) *Invoice {
	inv := &Invoice{
		InvoiceDate:  civil.Date{Year: 2025, Month: time.January, Day: 15},
		CustomerName: "Acme",
		TaxRate:      DefaultTaxRate,
	}
	for _, a := range amounts {
		inv.Items = append(inv.Items, NewInvoiceItem("Course", 1, decimal.NewFromInt(a), ""))
	}
	inv.CalculateTotals()
	return inv
}

func TestNewInvoiceItem(t *testing.T) {
	item := NewInvoiceItem("Course", 3, decimal.NewFromInt(2500), "desc")
	assert.Equal(t, 3, item.Quantity)
	assert.True(t, item.Amount.Equal(decimal.NewFromInt(7500)))

	clamped := NewInvoiceItem("Course", 0, decimal.NewFromInt(2500), "")
	assert.Equal(t, 1, clamped.Quantity)
	assert.True(t, clamped.Amount.Equal(decimal.NewFromInt(2500)))
}

func TestInvoice_CalculateTotals(t *testing.T) {
	inv := newTestInvoice(50000, 70000)
	assert.True(t, inv.Subtotal.Equal(decimal.NewFromInt(120000)))
	assert.True(t, inv.TaxAmount.Equal(decimal.NewFromInt(12000)))
	assert.True(t, inv.TotalAmount.Equal(decimal.NewFromInt(132000)))
	require.NoError(t, inv.Validate())

	empty := &Invoice{TaxRate: DefaultTaxRate}
	empty.CalculateTotals()
	assert.True(t, empty.TotalAmount.IsZero())
}

func TestInvoice_Validate(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(inv *Invoice)
		wantErr string
	}{
		{name: "Valid", mutate: func(*Invoice) {}},
		{
			name:    "NoItems",
			mutate:  func(inv *Invoice) { inv.Items = nil; inv.CalculateTotals() },
			wantErr: "invoice has no items",
		},
		{
			name:    "BlankCustomer",
			mutate:  func(inv *Invoice) { inv.CustomerName = "  " },
			wantErr: "customer name is empty",
		},
		{
			name:    "SubtotalMismatch",
			mutate:  func(inv *Invoice) { inv.Subtotal = decimal.NewFromInt(1) },
			wantErr: "does not match item sum",
		},
		{
			name:    "TotalMismatch",
			mutate:  func(inv *Invoice) { inv.TotalAmount = inv.TotalAmount.Add(decimal.NewFromInt(1)) },
			wantErr: "is not subtotal",
		},
		{
			name:    "UnnamedItem",
			mutate:  func(inv *Invoice) { inv.Items[0].ItemName = "" },
			wantErr: "item 1 has no name",
		},
		{
			name: "NegativeItem",
			mutate: func(inv *Invoice) {
				inv.Items[0] = NewInvoiceItem("Refund", 1, decimal.NewFromInt(-10), "")
				inv.CalculateTotals()
			},
			wantErr: "item 1 amount is negative",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			inv := newTestInvoice(1000)
			tt.mutate(inv)

			err := inv.Validate()
			if tt.wantErr == "" {
				assert.NoError(t, err)
				return
			}
			require.Error(t, err)
			assert.True(t, errors.Is(err, ErrInvalidInvoice))
			assert.Contains(t, err.Error(), tt.wantErr)
		})
	}
}

func TestInvoice_SourceRecordIDs(t *testing.T) {
	assert.Nil(t, (&Invoice{}).SourceRecordIDs())
	assert.Equal(t, []string{"a"}, (&Invoice{SourceID: "a"}).SourceRecordIDs())
	assert.Equal(t, []string{"a", "b"}, (&Invoice{SourceID: "x", SourceIDs: []string{"a", "b"}}).SourceRecordIDs())
}

func TestInvoice_ToMap(t *testing.T) {
	inv := newTestInvoice(100000)

	m := inv.ToMap()
	assert.Equal(t, "2025-01-15", m["invoice_date"])
	assert.Equal(t, json.Number("110000"), m["total_amount"])
	assert.Equal(t, json.Number("0.1"), m["tax_rate"])
	for _, key := range []string{"invoice_number", "due_date", "customer_id", "notes", "source_id", "source_ids", "project_name"} {
		assert.NotContains(t, m, key)
	}
	items := m["items"].([]map[string]any)
	require.Len(t, items, 1)
	assert.NotContains(t, items[0], "description")

	due := civil.Date{Year: 2025, Month: time.February, Day: 14}
	inv.DueDate = &due
	inv.InvoiceNumber = "202501-Acme"
	inv.SourceIDs = []string{"a", "b"}
	inv.Items[0].Description = "参加人数: 10名"

	m = inv.ToMap()
	assert.Equal(t, "2025-02-14", m["due_date"])
	assert.Equal(t, "202501-Acme", m["invoice_number"])
	assert.Equal(t, []string{"a", "b"}, m["source_ids"])
	assert.Equal(t, "参加人数: 10名", m["items"].([]map[string]any)[0]["description"])
}

func TestInvoice_MarshalJSON(t *testing.T) {
	inv := newTestInvoice(12345)

	data, err := json.Marshal(inv)
	require.NoError(t, err)
	assert.JSONEq(t, `{
		"invoice_date": "2025-01-15",
		"customer_name": "Acme",
		"subtotal": 12345,
		"tax_rate": 0.1,
		"tax_amount": 1234,
		"total_amount": 13579,
		"items": [{"item_name": "Course", "quantity": 1, "unit_price": 12345, "amount": 12345}]
	}`, string(data))
}

func TestInvoice_FormatSummary(t *testing.T) {
	inv := newTestInvoice(100000)
	want := "請求書: 未発行\n" +
		"顧客: Acme\n" +
		"請求日: 2025-01-15\n" +
		"小計: 100,000円（税抜）\n" +
		"消費税: 10,000円\n" +
		"合計: 110,000円（税込）"
	assert.Equal(t, want, inv.FormatSummary())
}
