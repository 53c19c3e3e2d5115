package invoice_test

import (
	"errors"
	"testing"
	"time"

	"cloud.google.com/go/civil"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"notion2mf/internal/invoice"
	"notion2mf/pkg/models"
)

func TestMapper_MapGrouped_SingleCustomerMonth(t *testing.T) {
	projects := []*models.TrainingProject{
		{ID: "a", Title: "Kickoff", CustomerName: "Acme", CustomerID: "c-1", StartDate: day(2025, time.March, 3), Amount: amount("50000")},
		{ID: "b", Title: "Followup", CustomerName: "Acme", CustomerID: "c-1", StartDate: day(2025, time.March, 20), EndDate: day(2025, time.March, 21), Amount: amount("70000")},
	}

	invoices, messages, err := invoice.NewMapper().MapGrouped(projects, true)
	require.NoError(t, err)
	assert.Empty(t, messages)
	require.Len(t, invoices, 1)

	inv := invoices[0]
	assert.Equal(t, "202503-Acme", inv.InvoiceNumber)
	assert.Equal(t, civil.Date{Year: 2025, Month: time.March, Day: 31}, inv.InvoiceDate)
	require.NotNil(t, inv.DueDate)
	assert.Equal(t, civil.Date{Year: 2025, Month: time.April, Day: 30}, *inv.DueDate)
	assert.Equal(t, "Acme", inv.CustomerName)
	assert.Equal(t, "c-1", inv.CustomerID)
	assert.Equal(t, "Acme 2025年3月分", inv.ProjectName)
	assert.Equal(t, []string{"a", "b"}, inv.SourceIDs)
	assert.Empty(t, inv.SourceID)

	require.Len(t, inv.Items, 2)
	assert.Equal(t, "Kickoff", inv.Items[0].ItemName)
	assert.Equal(t, "Followup", inv.Items[1].ItemName)
	assert.Equal(t, "実施期間: 2025-03-20 〜 2025-03-21", inv.Items[1].Description)

	assert.True(t, inv.Subtotal.Equal(decimal.NewFromInt(120000)))
	assert.True(t, inv.TaxAmount.Equal(decimal.NewFromInt(12000)))
	assert.True(t, inv.TotalAmount.Equal(decimal.NewFromInt(132000)))

	wantNotes := "Acme 2025年3月分 研修実施 2件\n" +
		"1. Kickoff (2025-03-03)\n" +
		"2. Followup (2025-03-20 〜 2025-03-21)"
	assert.Equal(t, wantNotes, inv.Notes)
}

func TestMapper_MapGrouped_Partitioning(t *testing.T) {
	projects := []*models.TrainingProject{
		{ID: "1", Title: "Acme Jan", CustomerName: "Acme", StartDate: day(2025, time.January, 10), Amount: amount("1000")},
		{ID: "2", Title: "Beta Jan", CustomerName: "Beta", StartDate: day(2025, time.January, 11), Amount: amount("2000")},
		{ID: "3", Title: "Acme Feb", CustomerName: "Acme", StartDate: day(2025, time.February, 1), Amount: amount("3000")},
		{ID: "4", Title: "Acme Jan 2", CustomerName: "Acme", StartDate: day(2025, time.January, 31), Amount: amount("4000")},
		{ID: "5", Title: "Acme Jan next year", CustomerName: "Acme", StartDate: day(2026, time.January, 5), Amount: amount("5000")},
		{ID: "6", Title: "lowercase", CustomerName: "acme", StartDate: day(2025, time.January, 12), Amount: amount("6000")},
	}

	invoices, messages, err := invoice.NewMapper().MapGrouped(projects, false)
	require.NoError(t, err)
	assert.Empty(t, messages)

	var numbers []string
	for _, inv := range invoices {
		numbers = append(numbers, inv.InvoiceNumber)
	}
	assert.Equal(t, []string{
		"202501-Acme",
		"202501-Beta",
		"202502-Acme",
		"202601-Acme",
		"202501-acme",
	}, numbers)

	assert.Equal(t, []string{"1", "4"}, invoices[0].SourceIDs)
	assert.Equal(t, civil.Date{Year: 2025, Month: time.February, Day: 28}, invoices[2].InvoiceDate)

	// Every valid project lands in exactly one invoice.
	seen := map[string]int{}
	for _, inv := range invoices {
		for _, id := range inv.SourceIDs {
			seen[id]++
		}
	}
	assert.Len(t, seen, len(projects))
	for id, n := range seen {
		assert.Equal(t, 1, n, "project %s", id)
	}
}

func TestMapper_MapGrouped_LeapYear(t *testing.T) {
	projects := []*models.TrainingProject{
		{ID: "1", Title: "Leap", CustomerName: "Acme", StartDate: day(2024, time.February, 2), Amount: amount("1000")},
		{ID: "2", Title: "Dec", CustomerName: "Acme", StartDate: day(2024, time.December, 2), Amount: amount("1000")},
	}

	invoices, _, err := invoice.NewMapper().MapGrouped(projects, false)
	require.NoError(t, err)
	require.Len(t, invoices, 2)
	assert.Equal(t, civil.Date{Year: 2024, Month: time.February, Day: 29}, invoices[0].InvoiceDate)
	assert.Equal(t, civil.Date{Year: 2024, Month: time.December, Day: 31}, invoices[1].InvoiceDate)
	assert.Equal(t, civil.Date{Year: 2025, Month: time.January, Day: 30}, *invoices[1].DueDate)
}

func TestMapper_MapGrouped_InvalidProjects(t *testing.T) {
	projects := []*models.TrainingProject{
		{ID: "1", Title: "No Customer", StartDate: day(2025, time.May, 1), Amount: amount("1000")},
		{ID: "2", Title: "No Start", CustomerName: "Acme", Amount: amount("1000")},
		{ID: "3", Title: "Zero", CustomerName: "Acme", StartDate: day(2025, time.May, 1), Amount: amount("0")},
		{ID: "4", Title: "Valid", CustomerName: "Acme", StartDate: day(2025, time.May, 1), Amount: amount("1000")},
	}

	t.Run("SkipErrors", func(t *testing.T) {
		invoices, messages, err := invoice.NewMapper().MapGrouped(projects, true)
		require.NoError(t, err)

		require.Len(t, invoices, 1)
		assert.Equal(t, []string{"4"}, invoices[0].SourceIDs)

		require.Len(t, messages, 3)
		assert.Contains(t, messages[0], "No Customer: ")
		assert.Contains(t, messages[0], "customer name is not set")
		assert.Contains(t, messages[1], "start date is not set")
		assert.Contains(t, messages[2], "amount must be greater than zero")
	})

	t.Run("Strict", func(t *testing.T) {
		invoices, messages, err := invoice.NewMapper().MapGrouped(projects, false)
		require.Error(t, err)
		assert.True(t, errors.Is(err, invoice.ErrInvalidRecord))
		assert.Nil(t, invoices)
		assert.Nil(t, messages)
	})
}

func TestMapper_MapGrouped_UntitledProjectKeepsGroup(t *testing.T) {
	projects := []*models.TrainingProject{
		{ID: "1", Title: "Valid", CustomerName: "Acme", StartDate: day(2025, time.March, 3), Amount: amount("50000")},
		{ID: "2", Title: " ", CustomerName: "Acme", StartDate: day(2025, time.March, 10), Amount: amount("70000")},
	}

	invoices, messages, err := invoice.NewMapper().MapGrouped(projects, true)
	require.NoError(t, err)

	require.Len(t, invoices, 1)
	assert.Equal(t, []string{"1"}, invoices[0].SourceIDs)
	require.Len(t, messages, 1)
	assert.Contains(t, messages[0], "title is not set")
}

func TestMapper_MapGrouped_AllInvalid(t *testing.T) {
	projects := []*models.TrainingProject{
		{ID: "1", Title: "A"},
		{ID: "2", Title: "B"},
	}

	invoices, messages, err := invoice.NewMapper().MapGrouped(projects, true)
	require.NoError(t, err)
	assert.Empty(t, invoices)
	assert.Len(t, messages, 2)
}

func TestMapper_MapGrouped_Empty(t *testing.T) {
	invoices, messages, err := invoice.NewMapper().MapGrouped(nil, false)
	require.NoError(t, err)
	assert.Empty(t, invoices)
	assert.Empty(t, messages)
}

func TestSummarize(t *testing.T) {
	projects := []*models.TrainingProject{
		{ID: "1", Title: "One", Amount: amount("100000"), EndDate: day(2025, 1, 15)},
		{ID: "2", Title: "Two", Amount: amount("12345"), EndDate: day(2025, 1, 16)},
	}
	invoices, _, err := invoice.NewMapper().MapBatch(projects, false)
	require.NoError(t, err)

	s := invoice.Summarize(invoices)
	assert.Equal(t, 2, s.Count)
	assert.True(t, s.Subtotal.Equal(decimal.NewFromInt(112345)))
	assert.True(t, s.TaxAmount.Equal(decimal.NewFromInt(11234)))
	assert.True(t, s.Total.Equal(decimal.NewFromInt(123579)))

	empty := invoice.Summarize(nil)
	assert.Equal(t, 0, empty.Count)
	assert.True(t, empty.Total.IsZero())
}
