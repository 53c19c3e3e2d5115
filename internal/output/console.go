// Package output renders projects and invoices for the terminal and for files.
package output

import (
	"fmt"
	"io"
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/lipgloss/table"
	"notion2mf/pkg/models"
)

var (
	okStyle      = lipgloss.NewStyle().Foreground(lipgloss.Color("46"))
	errorStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("196")).Bold(true)
	warningStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("220"))
	infoStyle    = lipgloss.NewStyle().Foreground(lipgloss.Color("39"))
	titleStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("51")).Bold(true)
	labelStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("51"))
	headerStyle  = lipgloss.NewStyle().Foreground(lipgloss.Color("51")).Bold(true).Padding(0, 1)
	cellStyle    = lipgloss.NewStyle().Padding(0, 1)

	statusStyles = map[models.ProjectStatus]lipgloss.Style{
		models.StatusReceived:   lipgloss.NewStyle().Foreground(lipgloss.Color("220")),
		models.StatusInProgress: lipgloss.NewStyle().Foreground(lipgloss.Color("39")),
		models.StatusCompleted:  lipgloss.NewStyle().Foreground(lipgloss.Color("46")),
	}
)

// Console prints status lines and listings to a writer.
type Console struct {
	w io.Writer
}

func NewConsole(w io.Writer) *Console {
	return &Console{w: w}
}

func (c *Console) Success(format string, args ...any) {
	fmt.Fprintln(c.w, okStyle.Render("[OK]")+" "+fmt.Sprintf(format, args...))
}

func (c *Console) Error(format string, args ...any) {
	fmt.Fprintln(c.w, errorStyle.Render("[ERROR] "+fmt.Sprintf(format, args...)))
}

func (c *Console) Warning(format string, args ...any) {
	fmt.Fprintln(c.w, warningStyle.Render("[WARNING] "+fmt.Sprintf(format, args...)))
}

func (c *Console) Info(format string, args ...any) {
	fmt.Fprintln(c.w, infoStyle.Render("[INFO] "+fmt.Sprintf(format, args...)))
}

func (c *Console) Println(a ...any) {
	fmt.Fprintln(c.w, a...)
}

// ProjectTable prints one row per project with title, status, customer, amount and period.
func (c *Console) ProjectTable(projects []*models.TrainingProject) {
	if len(projects) == 0 {
		c.Warning("データが見つかりませんでした")
		return
	}

	t := table.New().
		Border(lipgloss.RoundedBorder()).
		BorderStyle(lipgloss.NewStyle().Foreground(lipgloss.Color("240"))).
		Headers("案件名", "ステータス", "顧客名", "金額", "期間").
		StyleFunc(func(row, col int) lipgloss.Style {
			if row == table.HeaderRow {
				return headerStyle
			}
			if col == 3 {
				return cellStyle.Align(lipgloss.Right)
			}
			return cellStyle
		})

	for _, p := range projects {
		t.Row(p.Title, renderStatus(p.Status), orDash(p.CustomerName), p.FormatAmount(), p.FormatDateRange())
	}

	fmt.Fprintln(c.w, titleStyle.Render(fmt.Sprintf("研修案件一覧 (%d件)", len(projects))))
	fmt.Fprintln(c.w, t.Render())
}

// ProjectDetails prints every set field of each project.
func (c *Console) ProjectDetails(projects []*models.TrainingProject) {
	if len(projects) == 0 {
		c.Warning("データが見つかりませんでした")
		return
	}

	fmt.Fprintln(c.w, titleStyle.Render(fmt.Sprintf("研修案件一覧 (%d件)", len(projects))))
	fmt.Fprintln(c.w)

	for i, p := range projects {
		fmt.Fprintln(c.w, titleStyle.Render(fmt.Sprintf("━━━ %d. %s ━━━", i+1, p.Title)))
		c.field("ステータス", orDash(string(p.Status)))
		c.field("顧客名", orDash(p.CustomerName))
		c.field("金額", p.FormatAmount()+" (税抜)")
		c.field("期間", p.FormatDateRange())
		if p.Location != "" {
			c.field("場所", p.Location)
		}
		if p.Format != "" {
			c.field("形式", p.Format)
		}
		if p.Participants > 0 {
			c.field("参加人数", fmt.Sprintf("%d名", p.Participants))
		}
		if p.Days > 0 {
			c.field("日数", fmt.Sprintf("%d日", p.Days))
		}
		if p.Notes != "" {
			c.field("備考", p.Notes)
		}
		fmt.Fprintln(c.w)
	}
}

// InvoicePreview prints the summary and items of an invoice before submission.
func (c *Console) InvoicePreview(inv *models.Invoice) {
	fmt.Fprintln(c.w, titleStyle.Render("━━━ 請求書プレビュー ━━━"))
	for _, line := range strings.Split(inv.FormatSummary(), "\n") {
		fmt.Fprintln(c.w, "  "+line)
	}
	for i, item := range inv.Items {
		fmt.Fprintf(c.w, "  %d. %s × %d  %s\n", i+1, item.ItemName, item.Quantity, models.FormatYen(item.Amount))
		if item.Description != "" {
			fmt.Fprintln(c.w, "     "+item.Description)
		}
	}
}

func (c *Console) field(label, value string) {
	fmt.Fprintf(c.w, "  %s %s\n", labelStyle.Render(label+":"), value)
}

func renderStatus(s models.ProjectStatus) string {
	if s == "" {
		return "-"
	}
	if style, ok := statusStyles[s]; ok {
		return style.Render(string(s))
	}
	return string(s)
}

func orDash(s string) string {
	if s == "" {
		return "-"
	}
	return s
}
