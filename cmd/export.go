package cmd

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/rs/zerolog"
	"github.com/spf13/cobra"
	"notion2mf/internal/invoice"
	"notion2mf/internal/logger"
	"notion2mf/internal/notion"
	"notion2mf/internal/output"
	"notion2mf/internal/sheets"
	"notion2mf/pkg/models"
)

var exportCmd = &cobra.Command{
	Use:   "export",
	Short: "研修案件を請求書形式でエクスポート",
	Long: `Notionの研修案件を請求書に変換し、JSONまたはExcelファイルに出力します。

--grouped を指定すると、顧客×開始月ごとに1枚の請求書にまとめます。
--sheet を指定すると、GOOGLE_SHEET_URL のスプレッドシートにも請求書を追記します。`,
	Example: `  notion2mf export --output invoices.json
  notion2mf export --status 完了 --output completed.json
  notion2mf export --year 2025 --month 1 --grouped --output 2025-01.json
  notion2mf export --date-from 2025-01-01 --date-to 2025-03-31 --output q1.xlsx
  notion2mf export --amount-min 100000 --output large-projects.json --sheet`,
	RunE: runExport,
}

func init() {
	rootCmd.AddCommand(exportCmd)

	addFilterFlags(exportCmd, false)
	exportCmd.Flags().Bool("grouped", false, "顧客×月でグループ化して請求書を作成")
	exportCmd.Flags().StringP("output", "o", "", "出力先ファイル")
	exportCmd.Flags().String("format", "", "出力形式 (json, xlsx; 省略時は拡張子から判定)")
	exportCmd.Flags().Bool("skip-errors", true, "エラーをスキップして処理を継続")
	exportCmd.Flags().Bool("show-stats", true, "統計情報を表示")
	exportCmd.Flags().Bool("sheet", false, "Google Sheetsにも請求書を追記")
	_ = exportCmd.MarkFlagRequired("output")
}

func runExport(cmd *cobra.Command, args []string) error {
	log := logger.WithComponent("export")

	grouped, _ := cmd.Flags().GetBool("grouped")
	outputPath, _ := cmd.Flags().GetString("output")
	format, _ := cmd.Flags().GetString("format")
	skipErrors, _ := cmd.Flags().GetBool("skip-errors")
	showStats, _ := cmd.Flags().GetBool("show-stats")
	toSheet, _ := cmd.Flags().GetBool("sheet")

	format, err := exportFormat(format, outputPath)
	if err != nil {
		return err
	}

	filter, err := readFilterFlags(cmd).build(time.Now())
	if err != nil {
		return err
	}

	if toSheet && (cfg == nil || cfg.Sheets.URL == "") {
		return fmt.Errorf("--sheet には GOOGLE_SHEET_URL の設定が必要です")
	}

	client, err := newNotionClient(log)
	if err != nil {
		return err
	}

	ctx, cancel := commandContext(log)
	defer cancel()

	log.Info().
		Str("output", outputPath).
		Str("format", format).
		Bool("grouped", grouped).
		Bool("skip_errors", skipErrors).
		Msg("Starting invoice export")

	console.Info("Notionからデータを取得中...")
	projects, err := client.FetchProjects(ctx, filter)
	if err != nil {
		return handleExportError(err, log)
	}
	if len(projects) == 0 {
		console.Warning("データが見つかりませんでした")
		return nil
	}
	console.Info("%d件の研修案件を取得しました", len(projects))

	client.ResolveCustomerNames(ctx, projects)

	mapper := newMapper()
	var (
		invoices []*models.Invoice
		messages []string
	)
	if grouped {
		console.Info("顧客×月でグループ化して請求書形式に変換中...")
		invoices, messages, err = mapper.MapGrouped(projects, skipErrors)
	} else {
		console.Info("請求書形式に変換中...")
		invoices, messages, err = mapper.MapBatch(projects, skipErrors)
	}
	if err != nil {
		return handleExportError(err, log)
	}

	if len(messages) > 0 {
		console.Warning("%d件のエラーがありました:", len(messages))
		for _, msg := range messages {
			console.Error("  - %s", msg)
		}
	}
	if len(invoices) == 0 {
		return fmt.Errorf("有効な請求書を作成できませんでした")
	}

	if showStats {
		printStats(invoice.Summarize(invoices))
	}

	if err := writeInvoices(outputPath, format, invoices, log); err != nil {
		return err
	}
	console.Success("請求書データを出力しました: %s", outputPath)

	if toSheet {
		if err := appendToSheet(ctx, invoices, log); err != nil {
			return handleExportError(err, log)
		}
		console.Success("Google Sheetsに%d件追記しました", len(invoices))
	}

	console.Success("%d件の請求書を作成しました", len(invoices))
	return nil
}

func exportFormat(format, path string) (string, error) {
	if format == "" {
		if strings.EqualFold(filepath.Ext(path), ".xlsx") {
			return "xlsx", nil
		}
		return "json", nil
	}

	format = strings.ToLower(format)
	if format != "json" && format != "xlsx" {
		return "", fmt.Errorf("不正な出力形式です: %s (json, xlsx)", format)
	}
	return format, nil
}

func writeInvoices(path, format string, invoices []*models.Invoice, log zerolog.Logger) error {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("failed to create output file: %w", err)
	}
	defer func() {
		if closeErr := f.Close(); closeErr != nil {
			log.Warn().Err(closeErr).Msg("Failed to close output file")
		}
	}()

	if format == "xlsx" {
		err = output.WriteInvoicesXLSX(f, invoices)
	} else {
		err = output.WriteInvoicesJSON(f, invoices)
	}
	if err != nil {
		return fmt.Errorf("failed to write invoices: %w", err)
	}

	log.Info().Str("file", path).Int("invoices", len(invoices)).Msg("Invoices written")
	return nil
}

func appendToSheet(ctx context.Context, invoices []*models.Invoice, log zerolog.Logger) error {
	svc, err := sheets.NewSheetsService(ctx, cfg.Sheets.URL, sheets.Credentials{
		File: cfg.Sheets.CredentialsFile,
		JSON: cfg.Sheets.CredentialsJSON,
	})
	if err != nil {
		return err
	}

	log.Debug().Str("worksheet", cfg.Sheets.Worksheet).Msg("Appending invoices to Google Sheet")
	return svc.WriteInvoices(ctx, invoices, cfg.Sheets.Worksheet)
}

func printStats(s invoice.Summary) {
	console.Println()
	console.Info("=== 統計情報 ===")
	console.Println(fmt.Sprintf("請求書件数: %d件", s.Count))
	console.Println(fmt.Sprintf("小計: %s（税抜）", models.FormatYen(s.Subtotal)))
	console.Println(fmt.Sprintf("消費税: %s", models.FormatYen(s.TaxAmount)))
	console.Println(fmt.Sprintf("合計: %s（税込）", models.FormatYen(s.Total)))
	console.Println()
}

// handleExportError turns known failures into actionable messages.
func handleExportError(err error, log zerolog.Logger) error {
	log.Error().Err(err).Msg("Export failed")

	var apiErr *notion.APIError
	switch {
	case errors.Is(err, context.Canceled):
		return fmt.Errorf("処理がキャンセルされました")
	case errors.Is(err, invoice.ErrInvalidRecord):
		return fmt.Errorf("請求書に変換できない案件があります (--skip-errors で続行できます): %w", err)
	case errors.As(err, &apiErr) && apiErr.StatusCode == http.StatusUnauthorized:
		return fmt.Errorf("Notionの認証に失敗しました。NOTION_API_KEY を確認してください")
	case errors.As(err, &apiErr) && apiErr.StatusCode == http.StatusNotFound:
		return fmt.Errorf("Notionのデータベースが見つかりません。NOTION_DATABASE_ID とインテグレーションの共有設定を確認してください")
	case errors.Is(err, sheets.ErrNoCredentials):
		return fmt.Errorf("Google認証情報がありません。GOOGLE_APPLICATION_CREDENTIALS または GOOGLE_CREDENTIALS を設定してください")
	default:
		return err
	}
}
