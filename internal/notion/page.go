package notion

import (
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/shopspring/decimal"
	"notion2mf/pkg/models"
)

const untitled = "無題"

type page struct {
	ID             string              `json:"id"`
	CreatedTime    string              `json:"created_time"`
	LastEditedTime string              `json:"last_edited_time"`
	Properties     map[string]property `json:"properties"`
}

type richText struct {
	PlainText string `json:"plain_text"`
}

type namedOption struct {
	Name string `json:"name"`
}

type dateValue struct {
	Start string `json:"start"`
	End   string `json:"end"`
}

type relation struct {
	ID string `json:"id"`
}

type property struct {
	Type     string       `json:"type"`
	Title    []richText   `json:"title"`
	RichText []richText   `json:"rich_text"`
	Status   *namedOption `json:"status"`
	Select   *namedOption `json:"select"`
	Date     *dateValue   `json:"date"`
	Relation []relation   `json:"relation"`
	Number   *json.Number `json:"number"`
	Checkbox bool         `json:"checkbox"`
}

// parsePage converts a database page into a project using the configured property names.
// Properties that are absent or of another type leave the field unset.
func (c *Client) parsePage(p page) (*models.TrainingProject, error) {
	props := p.Properties
	prop := func(name string) property { return props[name] }

	project := &models.TrainingProject{
		ID:       p.ID,
		Title:    titleOf(prop(c.props.Title)),
		Status:   models.ProjectStatus(statusOf(prop(c.props.Status))),
		Location: textOf(prop(c.props.Location)),
		Format:   selectOf(prop(c.props.Format)),
		Notes:    textOf(prop(c.props.Notes)),
		Invoiced: checkboxOf(prop(c.props.Invoiced)),
	}

	var err error
	if project.StartDate, err = dateOf(prop(c.props.StartDate)); err != nil {
		return nil, fmt.Errorf("property %s: %w", c.props.StartDate, err)
	}
	if project.EndDate, err = dateOf(prop(c.props.EndDate)); err != nil {
		return nil, fmt.Errorf("property %s: %w", c.props.EndDate, err)
	}

	project.CustomerID = relationOf(prop(c.props.Customer))

	if project.Amount, err = numberOf(prop(c.props.Amount)); err != nil {
		return nil, fmt.Errorf("property %s: %w", c.props.Amount, err)
	}
	if project.UnitPrice, err = numberOf(prop(c.props.UnitPrice)); err != nil {
		return nil, fmt.Errorf("property %s: %w", c.props.UnitPrice, err)
	}

	participants, err := numberOf(prop(c.props.Participants))
	if err != nil {
		return nil, fmt.Errorf("property %s: %w", c.props.Participants, err)
	}
	project.Participants = intOf(participants)

	days, err := numberOf(prop(c.props.Days))
	if err != nil {
		return nil, fmt.Errorf("property %s: %w", c.props.Days, err)
	}
	project.Days = intOf(days)

	project.CreatedTime = timestampOf(p.CreatedTime)
	project.LastEditedTime = timestampOf(p.LastEditedTime)

	return project, nil
}

func plainText(parts []richText) string {
	var sb strings.Builder
	for _, part := range parts {
		sb.WriteString(part.PlainText)
	}
	return sb.String()
}

func titleOf(p property) string {
	if p.Type == "title" {
		if title := plainText(p.Title); title != "" {
			return title
		}
	}
	return untitled
}

func statusOf(p property) string {
	if p.Type == "status" && p.Status != nil {
		return p.Status.Name
	}
	return ""
}

func selectOf(p property) string {
	if p.Type == "select" && p.Select != nil {
		return p.Select.Name
	}
	return ""
}

func textOf(p property) string {
	if p.Type == "rich_text" {
		return plainText(p.RichText)
	}
	return ""
}

func checkboxOf(p property) bool {
	return p.Type == "checkbox" && p.Checkbox
}

// relationOf returns the first related page id.
func relationOf(p property) string {
	if p.Type == "relation" && len(p.Relation) > 0 {
		return p.Relation[0].ID
	}
	return ""
}

func numberOf(p property) (*decimal.Decimal, error) {
	if p.Type != "number" || p.Number == nil {
		return nil, nil
	}
	d, err := decimal.NewFromString(p.Number.String())
	if err != nil {
		return nil, fmt.Errorf("invalid number %q: %w", p.Number.String(), err)
	}
	return &d, nil
}

func intOf(d *decimal.Decimal) int {
	if d == nil {
		return 0
	}
	return int(d.IntPart())
}

// dateOf reads the start of a date property, which is either a plain date or a timestamp.
func dateOf(p property) (*time.Time, error) {
	if p.Type != "date" || p.Date == nil || p.Date.Start == "" {
		return nil, nil
	}
	t, err := parseDate(p.Date.Start)
	if err != nil {
		return nil, err
	}
	return &t, nil
}

func parseDate(s string) (time.Time, error) {
	if t, err := time.Parse(time.DateOnly, s); err == nil {
		return t, nil
	}
	t, err := time.Parse(time.RFC3339, s)
	if err != nil {
		return time.Time{}, fmt.Errorf("invalid date %q", s)
	}
	return t, nil
}

func timestampOf(s string) *time.Time {
	if s == "" {
		return nil
	}
	t, err := time.Parse(time.RFC3339, s)
	if err != nil {
		return nil
	}
	return &t
}
