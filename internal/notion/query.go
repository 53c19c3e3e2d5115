package notion

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"cloud.google.com/go/civil"
	"github.com/shopspring/decimal"
	"notion2mf/pkg/models"
)

// maxPageSize is the largest page the Notion query endpoint returns.
const maxPageSize = 100

// Filter narrows the projects returned by FetchProjects. Zero fields do not filter.
type Filter struct {
	Status    models.ProjectStatus
	StartFrom *civil.Date
	StartTo   *civil.Date
	AmountMin *decimal.Decimal
	AmountMax *decimal.Decimal

	// Limit caps the number of projects; 0 fetches everything.
	Limit int
}

// MonthRange sets the start date bounds to one calendar month.
func (f *Filter) MonthRange(year int, month time.Month) {
	from := civil.Date{Year: year, Month: month, Day: 1}
	to := civil.DateOf(time.Date(year, month+1, 0, 0, 0, 0, 0, time.UTC))
	f.StartFrom = &from
	f.StartTo = &to
}

// YearRange sets the start date bounds to one calendar year.
func (f *Filter) YearRange(year int) {
	from := civil.Date{Year: year, Month: time.January, Day: 1}
	to := civil.Date{Year: year, Month: time.December, Day: 31}
	f.StartFrom = &from
	f.StartTo = &to
}

type queryRequest struct {
	Filter      map[string]any `json:"filter,omitempty"`
	PageSize    int            `json:"page_size,omitempty"`
	StartCursor string         `json:"start_cursor,omitempty"`
}

type queryResponse struct {
	Results    []page `json:"results"`
	HasMore    bool   `json:"has_more"`
	NextCursor string `json:"next_cursor"`
}

// buildFilter translates f into a Notion filter object: nil for no conditions, the bare
// condition for one, and an "and" compound otherwise.
func (c *Client) buildFilter(f Filter) map[string]any {
	var conditions []map[string]any

	if f.Status != "" {
		conditions = append(conditions, map[string]any{
			"property": c.props.Status,
			"status":   map[string]any{"equals": string(f.Status)},
		})
	}
	if f.StartFrom != nil {
		conditions = append(conditions, map[string]any{
			"property": c.props.StartDate,
			"date":     map[string]any{"on_or_after": f.StartFrom.String()},
		})
	}
	if f.StartTo != nil {
		conditions = append(conditions, map[string]any{
			"property": c.props.StartDate,
			"date":     map[string]any{"on_or_before": f.StartTo.String()},
		})
	}
	if f.AmountMin != nil {
		conditions = append(conditions, map[string]any{
			"property": c.props.Amount,
			"number":   map[string]any{"greater_than_or_equal_to": json.Number(f.AmountMin.String())},
		})
	}
	if f.AmountMax != nil {
		conditions = append(conditions, map[string]any{
			"property": c.props.Amount,
			"number":   map[string]any{"less_than_or_equal_to": json.Number(f.AmountMax.String())},
		})
	}

	switch len(conditions) {
	case 0:
		return nil
	case 1:
		return conditions[0]
	default:
		return map[string]any{"and": conditions}
	}
}

// FetchProjects queries the database and returns the matching projects in the order Notion
// returns them. Pages that cannot be parsed are logged and skipped.
func (c *Client) FetchProjects(ctx context.Context, f Filter) ([]*models.TrainingProject, error) {
	const op = "FetchProjects"

	c.log.Info().
		Str("database_id", c.databaseID).
		Str("status", string(f.Status)).
		Int("limit", f.Limit).
		Msg("Fetching training projects")

	req := queryRequest{
		Filter:   c.buildFilter(f),
		PageSize: maxPageSize,
	}
	if f.Limit > 0 && f.Limit < maxPageSize {
		req.PageSize = f.Limit
	}

	var projects []*models.TrainingProject
	path := fmt.Sprintf("/databases/%s/query", c.databaseID)

	for {
		var resp queryResponse
		if err := c.do(ctx, http.MethodPost, path, req, &resp); err != nil {
			return nil, fmt.Errorf("%s: %w", op, err)
		}

		for _, p := range resp.Results {
			project, err := c.parsePage(p)
			if err != nil {
				c.log.Warn().Str("page_id", p.ID).Err(err).Msg("Skipping unparsable page")
				continue
			}
			projects = append(projects, project)
			if f.Limit > 0 && len(projects) >= f.Limit {
				return c.fetched(projects), nil
			}
		}

		if !resp.HasMore || resp.NextCursor == "" {
			break
		}
		req.StartCursor = resp.NextCursor
	}

	return c.fetched(projects), nil
}

func (c *Client) fetched(projects []*models.TrainingProject) []*models.TrainingProject {
	c.log.Info().Int("count", len(projects)).Msg("Fetched training projects")
	return projects
}
