package output

import (
	"encoding/csv"
	"encoding/json"
	"fmt"
	"io"
	"strconv"
	"time"

	"notion2mf/pkg/models"
)

// ProjectCSVHeader is the header row written by WriteProjectsCSV.
var ProjectCSVHeader = []string{
	"案件名", "ステータス", "顧客名", "金額",
	"開始日", "終了日", "場所", "形式",
	"参加人数", "日数", "備考",
}

// WriteProjectsJSON writes the projects as an indented JSON array.
func WriteProjectsJSON(w io.Writer, projects []*models.TrainingProject) error {
	if projects == nil {
		projects = []*models.TrainingProject{}
	}
	return writeJSON(w, projects)
}

// WriteInvoicesJSON writes the invoices in their exported map form as a JSON array.
func WriteInvoicesJSON(w io.Writer, invoices []*models.Invoice) error {
	data := make([]map[string]any, 0, len(invoices))
	for _, inv := range invoices {
		data = append(data, inv.ToMap())
	}
	return writeJSON(w, data)
}

func writeJSON(w io.Writer, v any) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	enc.SetEscapeHTML(false)
	if err := enc.Encode(v); err != nil {
		return fmt.Errorf("encoding json: %w", err)
	}
	return nil
}

// WriteProjectsCSV writes a header and one row per project. Nothing is written for an
// empty list.
func WriteProjectsCSV(w io.Writer, projects []*models.TrainingProject) error {
	if len(projects) == 0 {
		return nil
	}

	cw := csv.NewWriter(w)
	if err := cw.Write(ProjectCSVHeader); err != nil {
		return fmt.Errorf("writing csv header: %w", err)
	}

	for _, p := range projects {
		amount := "0"
		if p.Amount != nil {
			amount = p.Amount.String()
		}
		row := []string{
			p.Title,
			string(p.Status),
			p.CustomerName,
			amount,
			formatDate(p.StartDate),
			formatDate(p.EndDate),
			p.Location,
			p.Format,
			formatCount(p.Participants),
			formatCount(p.Days),
			p.Notes,
		}
		if err := cw.Write(row); err != nil {
			return fmt.Errorf("writing csv row: %w", err)
		}
	}

	cw.Flush()
	return cw.Error()
}

func formatDate(t *time.Time) string {
	if t == nil {
		return ""
	}
	return t.Format(time.DateOnly)
}

func formatCount(n int) string {
	if n <= 0 {
		return ""
	}
	return strconv.Itoa(n)
}
