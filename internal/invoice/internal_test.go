package invoice

import (
	"errors"
	"testing"
	"time"

	"cloud.google.com/go/civil"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"notion2mf/pkg/models"
)

func TestDetermineInvoiceDate(t *testing.T) {
	now := time.Date(2025, time.August, 8, 12, 0, 0, 0, time.UTC)
	m := NewMapper(WithClock(func() time.Time { return now }))

	start := time.Date(2025, time.July, 1, 0, 0, 0, 0, time.UTC)
	end := time.Date(2025, time.July, 3, 0, 0, 0, 0, time.UTC)

	tests := []struct {
		name    string
		project *models.TrainingProject
		want    civil.Date
	}{
		{"EndDate", &models.TrainingProject{StartDate: &start, EndDate: &end}, civil.Date{Year: 2025, Month: time.July, Day: 3}},
		{"StartDateOnly", &models.TrainingProject{StartDate: &start}, civil.Date{Year: 2025, Month: time.July, Day: 1}},
		{"Today", &models.TrainingProject{}, civil.Date{Year: 2025, Month: time.August, Day: 8}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, m.determineInvoiceDate(tt.project))
		})
	}
}

func TestLastDayOfMonth(t *testing.T) {
	tests := []struct {
		year  int
		month time.Month
		want  int
	}{
		{2025, time.January, 31},
		{2025, time.February, 28},
		{2024, time.February, 29},
		{2025, time.April, 30},
		{2025, time.December, 31},
	}

	for _, tt := range tests {
		got := lastDayOfMonth(tt.year, tt.month)
		assert.Equal(t, civil.Date{Year: tt.year, Month: tt.month, Day: tt.want}, got)
	}
}

func TestErrorPolicy(t *testing.T) {
	boom := errors.New("boom")

	strict := &errorPolicy{}
	assert.Equal(t, boom, strict.handle("unit", boom))
	assert.Empty(t, strict.messages)

	lenient := &errorPolicy{skip: true}
	require.NoError(t, lenient.handle("unit", boom))
	assert.Equal(t, []string{"unit: boom"}, lenient.messages)
}

func TestBuildGroupInvoice_InvariantFailure(t *testing.T) {
	// A negative rate produces a negative tax amount, which the invoice rejects.
	m := NewMapper(WithTaxRate(decimal.RequireFromString("-0.5")))
	start := time.Date(2025, time.March, 1, 0, 0, 0, 0, time.UTC)
	a := decimal.NewFromInt(1000)

	projects := []*models.TrainingProject{
		{ID: "1", Title: "Valid", CustomerName: "Acme", StartDate: &start, Amount: &a},
	}

	invoices, messages, err := m.MapGrouped(projects, true)
	require.NoError(t, err)
	assert.Empty(t, invoices)
	require.Len(t, messages, 1)
	assert.Contains(t, messages[0], "Acme 2025年3月: ")
	assert.Contains(t, messages[0], "amounts must not be negative")

	_, _, err = m.MapGrouped(projects, false)
	var gerr *GroupError
	require.True(t, errors.As(err, &gerr))
	assert.Equal(t, "Acme", gerr.Customer)
	assert.True(t, errors.Is(err, models.ErrInvalidInvoice))
}

func TestValidationError(t *testing.T) {
	err := &ValidationError{Subject: "Course", Violations: []string{"a", "b"}}
	assert.Equal(t, "validation failed (Course): a; b", err.Error())
	assert.True(t, errors.Is(err, ErrInvalidRecord))
	assert.False(t, errors.Is(err, models.ErrInvalidInvoice))
}
