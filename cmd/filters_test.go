package cmd

import (
	"testing"
	"time"

	"cloud.google.com/go/civil"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"notion2mf/pkg/models"
)

func TestFilterFlags_Build(t *testing.T) {
	now := time.Date(2026, time.October, 16, 12, 0, 0, 0, time.UTC)
	date := func(y int, m time.Month, d int) *civil.Date {
		return &civil.Date{Year: y, Month: m, Day: d}
	}

	tests := []struct {
		name     string
		flags    filterFlags
		wantFrom *civil.Date
		wantTo   *civil.Date
	}{
		{name: "None"},
		{
			name:     "YearAndMonth",
			flags:    filterFlags{year: 2024, month: 2},
			wantFrom: date(2024, time.February, 1),
			wantTo:   date(2024, time.February, 29),
		},
		{
			name:     "YearOnly",
			flags:    filterFlags{year: 2025},
			wantFrom: date(2025, time.January, 1),
			wantTo:   date(2025, time.December, 31),
		},
		{
			name:     "MonthUsesCurrentYear",
			flags:    filterFlags{month: 3},
			wantFrom: date(2026, time.March, 1),
			wantTo:   date(2026, time.March, 31),
		},
		{
			name:     "ExplicitDates",
			flags:    filterFlags{dateFrom: "2025-01-01", dateTo: "2025-03-31"},
			wantFrom: date(2025, time.January, 1),
			wantTo:   date(2025, time.March, 31),
		},
		{
			name:     "MonthOverridesDates",
			flags:    filterFlags{dateFrom: "2025-01-01", year: 2025, month: 6},
			wantFrom: date(2025, time.June, 1),
			wantTo:   date(2025, time.June, 30),
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f, err := tt.flags.build(now)
			require.NoError(t, err)
			assert.Equal(t, tt.wantFrom, f.StartFrom)
			assert.Equal(t, tt.wantTo, f.StartTo)
		})
	}
}

func TestFilterFlags_BuildValues(t *testing.T) {
	f, err := filterFlags{status: "完了", limit: 5, amountMin: "100000", amountMax: "500000.5"}.build(time.Now())
	require.NoError(t, err)

	assert.Equal(t, models.StatusCompleted, f.Status)
	assert.Equal(t, 5, f.Limit)
	require.NotNil(t, f.AmountMin)
	assert.True(t, f.AmountMin.Equal(decimal.NewFromInt(100000)))
	require.NotNil(t, f.AmountMax)
	assert.Equal(t, "500000.5", f.AmountMax.String())
}

func TestFilterFlags_BuildErrors(t *testing.T) {
	tests := []struct {
		name    string
		flags   filterFlags
		wantErr string
	}{
		{name: "MonthTooLarge", flags: filterFlags{month: 13}, wantErr: "月は1-12の範囲で指定してください"},
		{name: "MonthNegative", flags: filterFlags{year: 2025, month: -1}, wantErr: "月は1-12の範囲で指定してください"},
		{name: "UnknownStatus", flags: filterFlags{status: "請求済"}, wantErr: "不正なステータス"},
		{name: "BadDate", flags: filterFlags{dateFrom: "2025/01/01"}, wantErr: "--date-from"},
		{name: "BadAmount", flags: filterFlags{amountMax: "abc"}, wantErr: "--amount-max"},
		{name: "NegativeLimit", flags: filterFlags{limit: -1}, wantErr: "--limit"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := tt.flags.build(time.Now())
			assert.ErrorContains(t, err, tt.wantErr)
		})
	}
}
