package moneyforward

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"cloud.google.com/go/civil"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"notion2mf/pkg/models"
)

func testInvoice(customer string) *models.Invoice {
	due := civil.Date{Year: 2025, Month: time.February, Day: 14}
	inv := &models.Invoice{
		InvoiceDate:  civil.Date{Year: 2025, Month: time.January, Day: 15},
		DueDate:      &due,
		CustomerName: customer,
		Items: []models.InvoiceItem{
			models.NewInvoiceItem("Intro Course", 1, decimal.NewFromInt(100000), "参加人数: 10名"),
		},
		TaxRate:     models.DefaultTaxRate,
		Notes:       "Notion案件ID: page-1",
		SourceID:    "page-1",
		ProjectName: "Intro Course",
	}
	inv.CalculateTotals()
	return inv
}

func TestBillingRequestFrom(t *testing.T) {
	payload, err := billingRequestFrom(testInvoice("Acme"))
	require.NoError(t, err)

	data, err := json.Marshal(payload)
	require.NoError(t, err)
	assert.JSONEq(t, `{"billing": {
		"billing_date": "2025-01-15",
		"due_date": "2025-02-14",
		"billing_number": "",
		"note": "Notion案件ID: page-1",
		"partner_name": "Acme",
		"items": [{
			"name": "Intro Course",
			"quantity": 1,
			"unit_price": 100000,
			"description": "参加人数: 10名",
			"excise": "ten_percent"
		}]
	}}`, string(data))
}

func TestBillingRequestFrom_Variants(t *testing.T) {
	inv := testInvoice(models.UnsetCustomerName)
	inv.DueDate = nil

	payload, err := billingRequestFrom(inv)
	require.NoError(t, err)
	assert.Empty(t, payload.Billing.PartnerName)
	assert.Nil(t, payload.Billing.DueDate)

	inv.TaxRate = decimal.RequireFromString("0.08")
	payload, err = billingRequestFrom(inv)
	require.NoError(t, err)
	assert.Equal(t, "eight_percent", payload.Billing.Items[0].Excise)

	inv.TaxRate = decimal.RequireFromString("0.05")
	_, err = billingRequestFrom(inv)
	assert.True(t, errors.Is(err, ErrUnsupportedTaxRate))
}

func TestErrorMessage(t *testing.T) {
	tests := []struct {
		name string
		body string
		want string
	}{
		{"List", `{"errors": ["name is required", {"message": "date is invalid"}]}`, "name is required, date is invalid"},
		{"FieldMap", `{"errors": {"items": ["is empty"], "billing_date": "is invalid"}}`, "billing_date: is invalid, items: is empty"},
		{"Single", `{"error": "invalid_token"}`, "invalid_token"},
		{"Raw", "Internal Server Error\n", "Internal Server Error"},
		{"UnknownJSON", `{"status": 500}`, `{"status": 500}`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, errorMessage([]byte(tt.body)))
		})
	}
}

func TestClient_CreateInvoice(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPost, r.Method)
		assert.Equal(t, "/billings", r.URL.Path)
		assert.Equal(t, "application/json", r.Header.Get("Content-Type"))

		var req billingRequest
		require.NoError(t, json.NewDecoder(r.Body).Decode(&req))
		assert.Equal(t, "2025-01-15", req.Billing.BillingDate)
		assert.Len(t, req.Billing.Items, 1)

		w.WriteHeader(http.StatusCreated)
		io.WriteString(w, `{"id": "bill-1", "billing_number": "0001", "total_price": "110000"}`)
	}))
	defer srv.Close()

	billing, err := NewClient(srv.Client(), srv.URL).CreateInvoice(context.Background(), testInvoice("Acme"))
	require.NoError(t, err)
	assert.Equal(t, "bill-1", billing.ID)
	assert.Equal(t, "0001", billing.BillingNumber)
	assert.Equal(t, json.Number("110000"), billing.TotalPrice)
}

func TestClient_Errors(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case "/billings":
			if r.Method == http.MethodPost {
				w.WriteHeader(http.StatusUnprocessableEntity)
				io.WriteString(w, `{"errors": ["partner is required"]}`)
				return
			}
			w.WriteHeader(http.StatusUnauthorized)
			io.WriteString(w, `{"error": "invalid_token"}`)
		default:
			w.WriteHeader(http.StatusNotFound)
		}
	}))
	defer srv.Close()

	c := NewClient(srv.Client(), srv.URL)

	_, err := c.CreateInvoice(context.Background(), testInvoice("Acme"))
	var apiErr *APIError
	require.True(t, errors.As(err, &apiErr))
	assert.Equal(t, http.StatusUnprocessableEntity, apiErr.StatusCode)
	assert.Equal(t, "partner is required", apiErr.Message)
	assert.False(t, errors.Is(err, ErrNotAuthenticated))

	err = c.TestConnection(context.Background())
	assert.True(t, errors.Is(err, ErrNotAuthenticated))

	_, err = c.GetInvoice(context.Background(), "nope")
	require.True(t, errors.As(err, &apiErr))
	assert.Equal(t, http.StatusNotFound, apiErr.StatusCode)
}

func TestClient_ListInvoices(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "2", r.URL.Query().Get("page"))
		assert.Equal(t, "50", r.URL.Query().Get("per_page"))
		io.WriteString(w, `{"data": [{"id": "a"}, {"id": "b"}], "pagination": {"total_count": 2}}`)
	}))
	defer srv.Close()

	billings, err := NewClient(srv.Client(), srv.URL).ListInvoices(context.Background(), 2, 50)
	require.NoError(t, err)
	require.Len(t, billings, 2)
	assert.Equal(t, "b", billings[1].ID)
}
