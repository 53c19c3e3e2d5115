package cmd

import (
	"fmt"
	"time"

	"cloud.google.com/go/civil"
	"github.com/shopspring/decimal"
	"github.com/spf13/cobra"
	"notion2mf/internal/notion"
	"notion2mf/pkg/models"
)

// filterFlags holds the project selection flags shared by fetch and export.
type filterFlags struct {
	status    string
	limit     int
	year      int
	month     int
	dateFrom  string
	dateTo    string
	amountMin string
	amountMax string
}

func addFilterFlags(cmd *cobra.Command, withLimit bool) {
	flags := cmd.Flags()
	flags.String("status", "", "ステータスでフィルタ (受注, 実施中, 完了)")
	if withLimit {
		flags.Int("limit", 0, "取得件数の上限")
	}
	flags.Int("year", 0, "西暦で絞り込み (例: 2025)")
	flags.Int("month", 0, "月で絞り込み (1-12)")
	flags.String("date-from", "", "開始日の下限 (YYYY-MM-DD)")
	flags.String("date-to", "", "開始日の上限 (YYYY-MM-DD)")
	flags.String("amount-min", "", "金額の下限")
	flags.String("amount-max", "", "金額の上限")
}

func readFilterFlags(cmd *cobra.Command) filterFlags {
	flags := cmd.Flags()
	var f filterFlags
	f.status, _ = flags.GetString("status")
	f.limit, _ = flags.GetInt("limit")
	f.year, _ = flags.GetInt("year")
	f.month, _ = flags.GetInt("month")
	f.dateFrom, _ = flags.GetString("date-from")
	f.dateTo, _ = flags.GetString("date-to")
	f.amountMin, _ = flags.GetString("amount-min")
	f.amountMax, _ = flags.GetString("amount-max")
	return f
}

// build turns the flags into a Notion filter. --year and --month replace --date-from and
// --date-to; --month without --year refers to the current year of now.
func (f filterFlags) build(now time.Time) (notion.Filter, error) {
	var filter notion.Filter

	if f.status != "" {
		status, ok := models.ParseProjectStatus(f.status)
		if !ok {
			return filter, fmt.Errorf("不正なステータスです: %s (受注, 実施中, 完了 のいずれか)", f.status)
		}
		filter.Status = status
	}

	if f.limit < 0 {
		return filter, fmt.Errorf("--limit は0以上で指定してください")
	}
	filter.Limit = f.limit

	if f.dateFrom != "" {
		d, err := civil.ParseDate(f.dateFrom)
		if err != nil {
			return filter, fmt.Errorf("--date-from の日付形式が不正です (YYYY-MM-DD): %w", err)
		}
		filter.StartFrom = &d
	}
	if f.dateTo != "" {
		d, err := civil.ParseDate(f.dateTo)
		if err != nil {
			return filter, fmt.Errorf("--date-to の日付形式が不正です (YYYY-MM-DD): %w", err)
		}
		filter.StartTo = &d
	}

	if f.year != 0 || f.month != 0 {
		year := f.year
		if year == 0 {
			year = now.Year()
		}
		if f.month != 0 {
			if f.month < 1 || f.month > 12 {
				return filter, fmt.Errorf("月は1-12の範囲で指定してください")
			}
			filter.MonthRange(year, time.Month(f.month))
		} else {
			filter.YearRange(year)
		}
	}

	var err error
	if filter.AmountMin, err = parseAmount("--amount-min", f.amountMin); err != nil {
		return filter, err
	}
	if filter.AmountMax, err = parseAmount("--amount-max", f.amountMax); err != nil {
		return filter, err
	}

	return filter, nil
}

func parseAmount(flag, s string) (*decimal.Decimal, error) {
	if s == "" {
		return nil, nil
	}
	d, err := decimal.NewFromString(s)
	if err != nil {
		return nil, fmt.Errorf("%s の金額が不正です: %s", flag, s)
	}
	return &d, nil
}
