package moneyforward

import (
	"encoding/json"
	"fmt"
	"sort"
	"strings"

	"github.com/shopspring/decimal"
	"notion2mf/pkg/models"
)

type billingRequest struct {
	Billing billingPayload `json:"billing"`
}

type billingPayload struct {
	BillingDate   string        `json:"billing_date"`
	DueDate       *string       `json:"due_date"`
	BillingNumber string        `json:"billing_number"`
	Note          string        `json:"note"`
	Items         []billingItem `json:"items"`
	PartnerName   string        `json:"partner_name,omitempty"`
}

type billingItem struct {
	Name        string      `json:"name"`
	Quantity    int         `json:"quantity"`
	UnitPrice   json.Number `json:"unit_price"`
	Description string      `json:"description"`
	Excise      string      `json:"excise"`
}

var exciseTypes = []struct {
	rate   decimal.Decimal
	excise string
}{
	{decimal.RequireFromString("0.10"), "ten_percent"},
	{decimal.RequireFromString("0.08"), "eight_percent"},
}

func exciseFor(rate decimal.Decimal) (string, error) {
	for _, e := range exciseTypes {
		if e.rate.Equal(rate) {
			return e.excise, nil
		}
	}
	return "", fmt.Errorf("%w: %s", ErrUnsupportedTaxRate, rate)
}

// billingRequestFrom converts an invoice into the billing payload. The placeholder customer
// is not sent as partner name.
func billingRequestFrom(inv *models.Invoice) (*billingRequest, error) {
	excise, err := exciseFor(inv.TaxRate)
	if err != nil {
		return nil, err
	}

	items := make([]billingItem, 0, len(inv.Items))
	for _, item := range inv.Items {
		items = append(items, billingItem{
			Name:        item.ItemName,
			Quantity:    item.Quantity,
			UnitPrice:   json.Number(item.UnitPrice.String()),
			Description: item.Description,
			Excise:      excise,
		})
	}

	payload := billingPayload{
		BillingDate:   inv.InvoiceDate.String(),
		BillingNumber: inv.InvoiceNumber,
		Note:          inv.Notes,
		Items:         items,
	}
	if inv.DueDate != nil {
		due := inv.DueDate.String()
		payload.DueDate = &due
	}
	if inv.CustomerName != "" && inv.CustomerName != models.UnsetCustomerName {
		payload.PartnerName = inv.CustomerName
	}

	return &billingRequest{Billing: payload}, nil
}

// errorMessage extracts a readable message from an error body: an "errors" list or field
// map, an "error" value, or the raw text.
func errorMessage(body []byte) string {
	var parsed map[string]json.RawMessage
	if err := json.Unmarshal(body, &parsed); err != nil {
		return strings.TrimSpace(string(body))
	}

	if raw, ok := parsed["errors"]; ok {
		var list []any
		if json.Unmarshal(raw, &list) == nil {
			parts := make([]string, 0, len(list))
			for _, e := range list {
				parts = append(parts, stringify(e))
			}
			return strings.Join(parts, ", ")
		}

		var fields map[string]any
		if json.Unmarshal(raw, &fields) == nil {
			names := make([]string, 0, len(fields))
			for name := range fields {
				names = append(names, name)
			}
			sort.Strings(names)

			parts := make([]string, 0, len(names))
			for _, name := range names {
				parts = append(parts, name+": "+stringify(fields[name]))
			}
			return strings.Join(parts, ", ")
		}
		return strings.TrimSpace(string(raw))
	}

	if raw, ok := parsed["error"]; ok {
		var v any
		if json.Unmarshal(raw, &v) == nil {
			return stringify(v)
		}
	}

	return strings.TrimSpace(string(body))
}

func stringify(v any) string {
	switch t := v.(type) {
	case string:
		return t
	case []any:
		parts := make([]string, 0, len(t))
		for _, e := range t {
			parts = append(parts, stringify(e))
		}
		return strings.Join(parts, ", ")
	case map[string]any:
		if msg, ok := t["message"].(string); ok {
			return msg
		}
		data, _ := json.Marshal(t)
		return string(data)
	default:
		return fmt.Sprint(t)
	}
}
