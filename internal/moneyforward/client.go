// Package moneyforward submits invoices to the MoneyForward Cloud Invoice API (v3).
//
// The client expects an *http.Client that already carries OAuth credentials, as returned
// by the auth package.
package moneyforward

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"

	"github.com/rs/zerolog"
	"notion2mf/internal/logger"
	"notion2mf/pkg/models"
)

const DefaultBaseURL = "https://invoice.moneyforward.com/api/v3"

var (
	// ErrNotAuthenticated is matched by API errors caused by a missing or rejected token.
	ErrNotAuthenticated = errors.New("moneyforward: not authenticated")

	// ErrUnsupportedTaxRate is returned when an invoice rate has no MoneyForward excise type.
	ErrUnsupportedTaxRate = errors.New("moneyforward: unsupported tax rate")
)

// APIError is a non-2xx answer from the MoneyForward API.
type APIError struct {
	StatusCode int
	Message    string
}

func (e *APIError) Error() string {
	return fmt.Sprintf("moneyforward: status %d: %s", e.StatusCode, e.Message)
}

// Is lets errors.Is(err, ErrNotAuthenticated) match 401 responses.
func (e *APIError) Is(target error) bool {
	return target == ErrNotAuthenticated && e.StatusCode == http.StatusUnauthorized
}

// Billing is the part of a MoneyForward billing the CLI reports back.
type Billing struct {
	ID            string      `json:"id"`
	BillingNumber string      `json:"billing_number"`
	BillingDate   string      `json:"billing_date"`
	DueDate       string      `json:"due_date"`
	PartnerName   string      `json:"partner_name"`
	Title         string      `json:"title"`
	TotalPrice    json.Number `json:"total_price"`
	PDFURL        string      `json:"pdf_url"`
}

// Client is a MoneyForward invoice API client.
type Client struct {
	http    *http.Client
	baseURL string
	log     zerolog.Logger
}

// NewClient creates a client on top of an authenticated HTTP client.
func NewClient(httpClient *http.Client, baseURL string) *Client {
	if baseURL == "" {
		baseURL = DefaultBaseURL
	}
	return &Client{
		http:    httpClient,
		baseURL: strings.TrimRight(baseURL, "/"),
		log:     logger.WithComponent("moneyforward"),
	}
}

// CreateInvoice registers the invoice as a billing and returns what MoneyForward created.
func (c *Client) CreateInvoice(ctx context.Context, inv *models.Invoice) (*Billing, error) {
	const op = "CreateInvoice"

	payload, err := billingRequestFrom(inv)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	c.log.Info().
		Str("project", inv.ProjectName).
		Str("customer", inv.CustomerName).
		Str("total", inv.TotalAmount.String()).
		Msg("Creating billing")

	var billing Billing
	if err := c.do(ctx, http.MethodPost, "/billings", payload, &billing); err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	c.log.Info().Str("billing_id", billing.ID).Msg("Billing created")
	return &billing, nil
}

// GetInvoice fetches one billing by id.
func (c *Client) GetInvoice(ctx context.Context, id string) (*Billing, error) {
	const op = "GetInvoice"

	var billing Billing
	if err := c.do(ctx, http.MethodGet, "/billings/"+url.PathEscape(id), nil, &billing); err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	return &billing, nil
}

// ListInvoices returns one page of billings.
func (c *Client) ListInvoices(ctx context.Context, page, perPage int) ([]Billing, error) {
	const op = "ListInvoices"

	q := url.Values{}
	q.Set("page", strconv.Itoa(page))
	q.Set("per_page", strconv.Itoa(perPage))

	var resp struct {
		Data []Billing `json:"data"`
	}
	if err := c.do(ctx, http.MethodGet, "/billings?"+q.Encode(), nil, &resp); err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	return resp.Data, nil
}

// TestConnection lists a single billing to check that the token is accepted.
func (c *Client) TestConnection(ctx context.Context) error {
	if _, err := c.ListInvoices(ctx, 1, 1); err != nil {
		c.log.Error().Err(err).Msg("MoneyForward connection failed")
		return err
	}
	c.log.Info().Msg("MoneyForward connection succeeded")
	return nil
}

func (c *Client) do(ctx context.Context, method, path string, body, out any) error {
	var reader io.Reader
	if body != nil {
		data, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("encoding request: %w", err)
		}
		reader = bytes.NewReader(data)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, reader)
	if err != nil {
		return fmt.Errorf("creating request: %w", err)
	}
	req.Header.Set("Accept", "application/json")
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return fmt.Errorf("executing request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		data, _ := io.ReadAll(io.LimitReader(resp.Body, 1<<20))
		return &APIError{StatusCode: resp.StatusCode, Message: errorMessage(data)}
	}

	if out == nil {
		return nil
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("decoding response: %w", err)
	}
	return nil
}
