package config

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

// NotionProperties maps project fields to the property names of the Notion database.
type NotionProperties struct {
	Title        string `yaml:"title"`
	Status       string `yaml:"status"`
	StartDate    string `yaml:"start_date"`
	EndDate      string `yaml:"end_date"`
	Customer     string `yaml:"customer"`
	Amount       string `yaml:"amount"`
	UnitPrice    string `yaml:"unit_price"`
	Participants string `yaml:"participants"`
	Days         string `yaml:"days"`
	Location     string `yaml:"location"`
	Format       string `yaml:"format"`
	Notes        string `yaml:"notes"`
	Invoiced     string `yaml:"invoiced"`
}

// DefaultNotionProperties returns the property names of the training project database.
func DefaultNotionProperties() NotionProperties {
	return NotionProperties{
		Title:        "案件名",
		Status:       "ステータス",
		StartDate:    "開始",
		EndDate:      "終了",
		Customer:     "顧客名",
		Amount:       "金額",
		UnitPrice:    "単価",
		Participants: "参加人数",
		Days:         "日数",
		Location:     "研修場所",
		Format:       "研修形式",
		Notes:        "備考",
		Invoiced:     "請求済み",
	}
}

// LoadNotionProperties reads property names from a YAML file. Names missing from the file
// keep their defaults; an empty path returns the defaults unchanged.
func LoadNotionProperties(path string) (NotionProperties, error) {
	const op = "LoadNotionProperties"

	props := DefaultNotionProperties()
	if path == "" {
		return props, nil
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return props, fmt.Errorf("%s: failed to read %s: %w", op, path, err)
	}

	var override NotionProperties
	if err := yaml.Unmarshal(data, &override); err != nil {
		return props, fmt.Errorf("%s: failed to parse %s: %w", op, path, err)
	}

	props.merge(override)
	return props, nil
}

func (p *NotionProperties) merge(o NotionProperties) {
	set := func(dst *string, v string) {
		if v != "" {
			*dst = v
		}
	}
	set(&p.Title, o.Title)
	set(&p.Status, o.Status)
	set(&p.StartDate, o.StartDate)
	set(&p.EndDate, o.EndDate)
	set(&p.Customer, o.Customer)
	set(&p.Amount, o.Amount)
	set(&p.UnitPrice, o.UnitPrice)
	set(&p.Participants, o.Participants)
	set(&p.Days, o.Days)
	set(&p.Location, o.Location)
	set(&p.Format, o.Format)
	set(&p.Notes, o.Notes)
	set(&p.Invoiced, o.Invoiced)
}
