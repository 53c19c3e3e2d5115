package invoice_test

import (
	"fmt"
	"log"
	"time"

	"github.com/shopspring/decimal"

	"notion2mf/internal/invoice"
	"notion2mf/pkg/models"
)

// Example maps one finished training project into an invoice.
func Example() {
	end := time.Date(2025, time.January, 15, 0, 0, 0, 0, time.UTC)
	fee := decimal.NewFromInt(100000)

	project := &models.TrainingProject{
		ID:           "page-1",
		Title:        "Intro Course",
		Amount:       &fee,
		EndDate:      &end,
		Participants: 10,
	}

	inv, err := invoice.NewMapper().MapToInvoice(project, invoice.MapOptions{})
	if err != nil {
		log.Fatal(err)
	}

	fmt.Println("invoice date:", inv.InvoiceDate)
	fmt.Println("due date:", inv.DueDate.String())
	fmt.Println("item:", inv.Items[0].ItemName, inv.Items[0].Description)
	fmt.Println("subtotal:", inv.Subtotal, "tax:", inv.TaxAmount, "total:", inv.TotalAmount)
	// Output:
	// invoice date: 2025-01-15
	// due date: 2025-02-14
	// item: Intro Course 参加人数: 10名
	// subtotal: 100000 tax: 10000 total: 110000
}

// ExampleMapper_MapGrouped consolidates a customer's projects of one month.
func ExampleMapper_MapGrouped() {
	march := func(d int) *time.Time {
		t := time.Date(2025, time.March, d, 0, 0, 0, 0, time.UTC)
		return &t
	}
	yen := func(v int64) *decimal.Decimal {
		d := decimal.NewFromInt(v)
		return &d
	}

	projects := []*models.TrainingProject{
		{ID: "a", Title: "Kickoff", CustomerName: "Acme", StartDate: march(3), Amount: yen(50000)},
		{ID: "b", Title: "Followup", CustomerName: "Acme", StartDate: march(20), Amount: yen(70000)},
		{ID: "c", Title: "Broken", CustomerName: "Acme", StartDate: march(21)},
	}

	invoices, skipped, err := invoice.NewMapper().MapGrouped(projects, true)
	if err != nil {
		log.Fatal(err)
	}

	for _, inv := range invoices {
		fmt.Println(inv.InvoiceNumber, inv.InvoiceDate, inv.TotalAmount, len(inv.Items))
	}
	fmt.Println("skipped:", len(skipped))
	// Output:
	// 202503-Acme 2025-03-31 132000 2
	// skipped: 1
}
