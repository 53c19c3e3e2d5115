package cmd

import (
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/spf13/cobra"
	"notion2mf/internal/logger"
	"notion2mf/internal/syncer"
	"notion2mf/pkg/models"
)

// previewLimit caps the invoices listed by a dry run and the errors listed by a sync.
const previewLimit = 5

var syncCmd = &cobra.Command{
	Use:   "sync",
	Short: "Notionの案件をMoneyForwardに自動同期",
	Long: `指定したステータスの案件を取得し、まだ請求書が作成されていないものを
MoneyForwardに一括作成します。作成に成功した案件はNotionで請求済みになります。

DATABASE_URL を設定すると、作成済みの請求書を台帳に記録し、二重作成を防ぎます。`,
	Example: `  notion2mf sync
  notion2mf sync --status 完了 --grouped
  notion2mf sync --dry-run
  notion2mf sync --limit 5 --yes`,
	RunE: runSync,
}

func init() {
	rootCmd.AddCommand(syncCmd)

	syncCmd.Flags().String("status", string(models.StatusCompleted), "ステータスでフィルタ")
	syncCmd.Flags().Int("limit", 0, "処理する件数の上限")
	syncCmd.Flags().Bool("grouped", false, "顧客×月でグループ化して請求書を作成")
	syncCmd.Flags().Bool("dry-run", false, "実際には作成せず、プレビューのみ表示")
	syncCmd.Flags().BoolP("yes", "y", false, "確認せずに作成")
	syncCmd.Flags().Int("workers", 0, "同時に作成する請求書の数 (デフォルト: SYNC_WORKERS)")
}

func runSync(cmd *cobra.Command, args []string) error {
	runID := uuid.New().String()
	log := logger.WithRunID("sync", runID)

	status, _ := cmd.Flags().GetString("status")
	limit, _ := cmd.Flags().GetInt("limit")
	grouped, _ := cmd.Flags().GetBool("grouped")
	dryRun, _ := cmd.Flags().GetBool("dry-run")
	yes, _ := cmd.Flags().GetBool("yes")
	workers, _ := cmd.Flags().GetInt("workers")

	filter, err := filterFlags{status: status, limit: limit}.build(time.Now())
	if err != nil {
		return err
	}
	if workers <= 0 && cfg != nil {
		workers = cfg.Sync.Workers
	}

	client, err := newNotionClient(log)
	if err != nil {
		return err
	}

	ctx, cancel := commandContext(log)
	defer cancel()

	var billing syncer.BillingClient
	if !dryRun {
		mf, err := newMoneyForwardClient(ctx, log)
		if err != nil {
			return err
		}
		billing = mf
	}

	opts := []syncer.Option{syncer.WithWorkers(workers), syncer.WithRunID(runID)}
	ledgerSvc, closeLedger, err := newLedger(ctx, log)
	if err != nil {
		return err
	}
	defer closeLedger()
	if ledgerSvc != nil {
		opts = append(opts, syncer.WithLedger(ledgerSvc))
	}

	svc := syncer.NewService(client, billing, newMapper(), opts...)

	log.Info().
		Str("status", string(filter.Status)).
		Int("limit", filter.Limit).
		Bool("grouped", grouped).
		Bool("dry_run", dryRun).
		Int("workers", workers).
		Msg("Starting sync")

	console.Info("Notionから%sの案件を取得中...", filter.Status)
	plan, err := svc.Prepare(ctx, syncer.Request{Filter: filter, Grouped: grouped})
	if err != nil {
		return handleExportError(err, log)
	}

	if plan.Projects == 0 {
		console.Warning("データが見つかりませんでした")
		return nil
	}
	console.Info("%d件の案件を取得しました", plan.Projects)
	if plan.AlreadyInvoiced > 0 {
		console.Info("請求済みの案件を除外しました: %d件", plan.AlreadyInvoiced)
	}
	if len(plan.AlreadySubmitted) > 0 {
		console.Info("台帳に作成済みの請求書を除外しました: %d件", len(plan.AlreadySubmitted))
	}
	printMappingErrors(plan.MappingErrors)

	if len(plan.Invoices) == 0 {
		console.Warning("作成する請求書はありません")
		return nil
	}
	console.Info("%d件の請求書を作成します", len(plan.Invoices))

	if dryRun {
		console.Info("[DRY RUN] 実際には作成しません")
		for i, inv := range plan.Invoices {
			if i == previewLimit {
				console.Info("... 他%d件", len(plan.Invoices)-previewLimit)
				break
			}
			console.Println()
			console.Println(fmt.Sprintf("%d. %s", i+1, inv.ProjectName))
			console.InvoicePreview(inv)
		}
		return nil
	}

	if !yes {
		confirmed, err := confirm(ctx, fmt.Sprintf("%d件の請求書をMoneyForwardに作成しますか？", len(plan.Invoices)))
		if err != nil {
			return err
		}
		if !confirmed {
			console.Info("キャンセルしました")
			return nil
		}
	}

	console.Info("MoneyForwardに請求書を作成中...")
	result, submitErr := svc.Submit(ctx, plan)
	if result == nil {
		return handleSubmitError(submitErr, log)
	}

	for _, c := range result.Created {
		console.Success("作成完了: %s", c.Invoice.ProjectName)
	}
	for _, f := range result.Failed {
		console.Error("作成失敗: %s - %v", f.Invoice.ProjectName, f.Err)
	}
	if result.Marked > 0 {
		console.Success("請求済みフラグを更新: %d件", result.Marked)
	}
	if result.MarkFailed > 0 {
		console.Warning("フラグ更新失敗: %d件", result.MarkFailed)
	}
	if result.RecordFailures > 0 {
		console.Warning("台帳への記録失敗: %d件", result.RecordFailures)
	}

	console.Println()
	console.Info("=== 同期結果 ===")
	console.Success("成功: %d件", len(result.Created))
	if submitErr != nil {
		console.Error("失敗: %d件", len(result.Failed))
		return handleSubmitError(submitErr, log)
	}
	if len(result.Failed) > 0 {
		console.Error("失敗: %d件", len(result.Failed))
		return fmt.Errorf("%d件の請求書を作成できませんでした", len(result.Failed))
	}
	return nil
}

func printMappingErrors(messages []string) {
	if len(messages) == 0 {
		return
	}
	console.Warning("%d件のエラーがありました:", len(messages))
	for i, msg := range messages {
		if i == previewLimit {
			console.Error("  ... 他%d件", len(messages)-previewLimit)
			break
		}
		console.Error("  - %s", msg)
	}
}
