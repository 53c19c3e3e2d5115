package models

import (
	"time"

	"github.com/shopspring/decimal"
	"golang.org/x/text/language"
	"golang.org/x/text/message"
)

// ProjectStatus is the workflow state of a training project in Notion.
type ProjectStatus string

const (
	StatusReceived   ProjectStatus = "受注"
	StatusInProgress ProjectStatus = "実施中"
	StatusCompleted  ProjectStatus = "完了"
)

// ProjectStatuses lists every status the Notion database knows about, in workflow order.
var ProjectStatuses = []ProjectStatus{StatusReceived, StatusInProgress, StatusCompleted}

// ParseProjectStatus returns the status matching s, or false when s is not a known status.
func ParseProjectStatus(s string) (ProjectStatus, bool) {
	for _, status := range ProjectStatuses {
		if string(status) == s {
			return status, true
		}
	}
	return "", false
}

const dateLayout = "2006-01-02"

var yen = message.NewPrinter(language.Japanese)

// TrainingProject is one row of the Notion training database.
type TrainingProject struct {
	// Notion page identifiers
	ID string `json:"id"`

	// Core fields
	Title  string        `json:"title"`
	Status ProjectStatus `json:"status,omitempty"`

	// Schedule
	StartDate *time.Time `json:"start_date,omitempty"`
	EndDate   *time.Time `json:"end_date,omitempty"`

	// Customer (relation to the customer database)
	CustomerName string `json:"customer_name,omitempty"`
	CustomerID   string `json:"customer_id,omitempty"`

	// Amounts are pre-tax and kept as exact decimals
	Amount       *decimal.Decimal `json:"amount,omitempty"`
	UnitPrice    *decimal.Decimal `json:"unit_price,omitempty"`
	Participants int              `json:"participants,omitempty"`
	Days         int              `json:"days,omitempty"`

	// Training details
	Location string `json:"location,omitempty"`
	Format   string `json:"format,omitempty"` // オンライン / オフライン / ハイブリッド

	Notes    string `json:"notes,omitempty"`
	Invoiced bool   `json:"invoiced,omitempty"`

	CreatedTime    *time.Time `json:"created_time,omitempty"`
	LastEditedTime *time.Time `json:"last_edited_time,omitempty"`
}

// HasPositiveAmount reports whether the project carries an amount greater than zero.
func (p *TrainingProject) HasPositiveAmount() bool {
	return p.Amount != nil && p.Amount.IsPositive()
}

// FormatAmount renders the amount as whole yen with thousands separators, e.g. "100,000円".
func (p *TrainingProject) FormatAmount() string {
	if p.Amount == nil {
		return "0円"
	}
	return FormatYen(*p.Amount)
}

// FormatDateRange renders "start 〜 end", only the start when both are the same instant,
// and "未設定" when there is no start date.
func (p *TrainingProject) FormatDateRange() string {
	if p.StartDate == nil {
		return "未設定"
	}

	start := p.StartDate.Format(dateLayout)
	if p.EndDate != nil && !p.EndDate.Equal(*p.StartDate) {
		return start + " 〜 " + p.EndDate.Format(dateLayout)
	}
	return start
}

// FormatYen renders an amount rounded half to even to whole yen with thousands separators.
func FormatYen(d decimal.Decimal) string {
	return yen.Sprintf("%d円", d.RoundBank(0).IntPart())
}
