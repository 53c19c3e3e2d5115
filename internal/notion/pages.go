package notion

import (
	"context"
	"fmt"
	"net/http"

	"notion2mf/pkg/models"
)

// GetProject fetches and parses a single project page.
func (c *Client) GetProject(ctx context.Context, pageID string) (*models.TrainingProject, error) {
	const op = "GetProject"

	var p page
	if err := c.do(ctx, http.MethodGet, "/pages/"+pageID, nil, &p); err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	project, err := c.parsePage(p)
	if err != nil {
		return nil, fmt.Errorf("%s: page %s: %w", op, pageID, err)
	}
	return project, nil
}

// CustomerName returns the title of a customer page, or "" when the page has no title.
func (c *Client) CustomerName(ctx context.Context, pageID string) (string, error) {
	const op = "CustomerName"

	var p page
	if err := c.do(ctx, http.MethodGet, "/pages/"+pageID, nil, &p); err != nil {
		return "", fmt.Errorf("%s: %w", op, err)
	}

	for _, prop := range p.Properties {
		if prop.Type == "title" {
			return plainText(prop.Title), nil
		}
	}
	return "", nil
}

// ResolveCustomerNames fills CustomerName from the related customer pages. Each customer
// page is fetched once; lookups that fail are logged and leave the name empty.
func (c *Client) ResolveCustomerNames(ctx context.Context, projects []*models.TrainingProject) {
	names := make(map[string]string)

	for _, p := range projects {
		if p.CustomerID == "" || p.CustomerName != "" {
			continue
		}

		name, cached := names[p.CustomerID]
		if !cached {
			var err error
			name, err = c.CustomerName(ctx, p.CustomerID)
			if err != nil {
				c.log.Warn().
					Str("customer_id", p.CustomerID).
					Err(err).
					Msg("Failed to resolve customer name")
			}
			names[p.CustomerID] = name
		}
		p.CustomerName = name
	}

	c.log.Debug().Int("customers", len(names)).Msg("Resolved customer names")
}

// MarkInvoiced sets the invoiced checkbox of a project page.
func (c *Client) MarkInvoiced(ctx context.Context, pageID string) error {
	const op = "MarkInvoiced"

	body := map[string]any{
		"properties": map[string]any{
			c.props.Invoiced: map[string]any{"checkbox": true},
		},
	}
	if err := c.do(ctx, http.MethodPatch, "/pages/"+pageID, body, nil); err != nil {
		return fmt.Errorf("%s: page %s: %w", op, pageID, err)
	}

	c.log.Info().Str("page_id", pageID).Msg("Marked project as invoiced")
	return nil
}

// MarkProjectsAsInvoiced flags every page and reports how many updates succeeded and failed.
func (c *Client) MarkProjectsAsInvoiced(ctx context.Context, pageIDs []string) (ok, failed int) {
	for _, id := range pageIDs {
		if err := c.MarkInvoiced(ctx, id); err != nil {
			c.log.Warn().Err(err).Msg("Failed to mark project as invoiced")
			failed++
			continue
		}
		ok++
	}
	return ok, failed
}
