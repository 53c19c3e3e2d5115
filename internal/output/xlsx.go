package output

import (
	"fmt"
	"io"
	"strings"

	"github.com/xuri/excelize/v2"
	"notion2mf/pkg/models"
)

const (
	InvoicesSheet = "Invoices"
	ItemsSheet    = "Items"
)

var (
	invoiceHeader = []any{"請求書番号", "件名", "請求日", "支払期限", "顧客名", "小計", "税率", "消費税", "合計", "備考", "元案件ID"}
	itemHeader    = []any{"件名", "No.", "品目", "数量", "単価", "金額", "説明"}
)

// WriteInvoicesXLSX writes a workbook with one row per invoice on the Invoices sheet and one
// row per line item on the Items sheet.
func WriteInvoicesXLSX(w io.Writer, invoices []*models.Invoice) error {
	const op = "WriteInvoicesXLSX"

	f := excelize.NewFile()
	defer f.Close()

	if err := f.SetSheetName("Sheet1", InvoicesSheet); err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}
	if _, err := f.NewSheet(ItemsSheet); err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}

	bold, err := f.NewStyle(&excelize.Style{Font: &excelize.Font{Bold: true}})
	if err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}

	if err := writeRow(f, InvoicesSheet, 1, invoiceHeader); err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}
	if err := writeRow(f, ItemsSheet, 1, itemHeader); err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}
	if err := f.SetRowStyle(InvoicesSheet, 1, 1, bold); err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}
	if err := f.SetRowStyle(ItemsSheet, 1, 1, bold); err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}

	itemRow := 2
	for i, inv := range invoices {
		due := ""
		if inv.DueDate != nil {
			due = inv.DueDate.String()
		}
		row := []any{
			inv.InvoiceNumber,
			inv.ProjectName,
			inv.InvoiceDate.String(),
			due,
			inv.CustomerName,
			inv.Subtotal.InexactFloat64(),
			inv.TaxRate.InexactFloat64(),
			inv.TaxAmount.InexactFloat64(),
			inv.TotalAmount.InexactFloat64(),
			inv.Notes,
			strings.Join(inv.SourceRecordIDs(), ","),
		}
		if err := writeRow(f, InvoicesSheet, i+2, row); err != nil {
			return fmt.Errorf("%s: %w", op, err)
		}

		for n, item := range inv.Items {
			row := []any{
				inv.ProjectName,
				n + 1,
				item.ItemName,
				item.Quantity,
				item.UnitPrice.InexactFloat64(),
				item.Amount.InexactFloat64(),
				item.Description,
			}
			if err := writeRow(f, ItemsSheet, itemRow, row); err != nil {
				return fmt.Errorf("%s: %w", op, err)
			}
			itemRow++
		}
	}

	if _, err := f.WriteTo(w); err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}
	return nil
}

func writeRow(f *excelize.File, sheet string, row int, values []any) error {
	cell, err := excelize.CoordinatesToCellName(1, row)
	if err != nil {
		return err
	}
	return f.SetSheetRow(sheet, cell, &values)
}
