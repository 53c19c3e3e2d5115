package cmd

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/charmbracelet/huh"
	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"github.com/spf13/cobra"
	"notion2mf/internal/invoice"
	"notion2mf/internal/ledger"
	"notion2mf/internal/logger"
	"notion2mf/internal/moneyforward"
	"notion2mf/internal/notion"
	"notion2mf/pkg/models"
)

// recentProjectLimit is how many completed projects the picker offers.
const recentProjectLimit = 10

var createInvoiceCmd = &cobra.Command{
	Use:   "create-invoice",
	Short: "対話式で請求書を作成",
	Long: `Notionの研修案件を1件選んでMoneyForwardの請求書を作成します。

最近の完了案件から選択するか、--notion-id で案件を直接指定します。
作成後、Notionの請求済みフラグを更新します。`,
	Example: `  notion2mf create-invoice
  notion2mf create-invoice --notion-id 1a2b3c4d
  notion2mf create-invoice --dry-run`,
	RunE: runCreateInvoice,
}

func init() {
	rootCmd.AddCommand(createInvoiceCmd)

	createInvoiceCmd.Flags().String("notion-id", "", "Notion案件ID (指定した案件から請求書を作成)")
	createInvoiceCmd.Flags().Bool("dry-run", false, "実際には作成せず、プレビューのみ表示")
	createInvoiceCmd.Flags().BoolP("yes", "y", false, "確認せずに作成")
}

func runCreateInvoice(cmd *cobra.Command, args []string) error {
	runID := uuid.New().String()
	log := logger.WithRunID("create-invoice", runID)

	notionID, _ := cmd.Flags().GetString("notion-id")
	dryRun, _ := cmd.Flags().GetBool("dry-run")
	yes, _ := cmd.Flags().GetBool("yes")

	client, err := newNotionClient(log)
	if err != nil {
		return err
	}

	ctx, cancel := commandContext(log)
	defer cancel()

	var mf *moneyforward.Client
	if !dryRun {
		if mf, err = newMoneyForwardClient(ctx, log); err != nil {
			return err
		}
	}

	project, err := selectProject(ctx, client, notionID)
	if err != nil || project == nil {
		return err
	}

	console.Info("請求書を作成中: %s", project.Title)
	inv, err := newMapper().MapToInvoice(project, invoice.MapOptions{})
	if err != nil {
		return handleMappingError(err, log)
	}

	console.Println()
	console.InvoicePreview(inv)
	console.Println()

	if project.Invoiced {
		console.Warning("この案件は既に請求済みです")
	}

	if dryRun {
		console.Info("[DRY RUN] 実際には作成しません")
		return nil
	}

	if !yes {
		confirmed, err := confirm(ctx, "この請求書をMoneyForwardに作成しますか？")
		if err != nil {
			return err
		}
		if !confirmed {
			console.Info("キャンセルしました")
			return nil
		}
	}

	ledgerSvc, closeLedger, err := newLedger(ctx, log)
	if err != nil {
		return err
	}
	defer closeLedger()

	if ledgerSvc != nil {
		_, submitted, err := ledgerSvc.FilterUnsubmitted(ctx, []*models.Invoice{inv})
		if err != nil {
			return err
		}
		if len(submitted) > 0 {
			return fmt.Errorf("この案件の請求書は既に作成済みです (台帳に記録があります)")
		}
	}

	console.Info("MoneyForwardに請求書を作成中...")
	billing, err := mf.CreateInvoice(ctx, inv)
	if err != nil {
		return handleSubmitError(err, log)
	}

	console.Success("請求書を作成しました！")
	if billing.ID != "" {
		console.Info("請求書ID: %s", billing.ID)
	}

	if ledgerSvc != nil {
		recordSubmission(ctx, ledgerSvc, runID, inv, billing.ID)
	}

	console.Info("Notionの請求済みフラグを更新中...")
	if err := client.MarkInvoiced(ctx, project.ID); err != nil {
		log.Warn().Err(err).Msg("Failed to mark project as invoiced")
		console.Warning("請求済みフラグの更新に失敗しました")
		return nil
	}
	console.Success("請求済みフラグを更新しました")
	return nil
}

// selectProject returns the project named by notionID, or lets the user pick one of the
// most recent completed projects. It returns nil when there is nothing to pick.
func selectProject(ctx context.Context, client *notion.Client, notionID string) (*models.TrainingProject, error) {
	if notionID != "" {
		project, err := client.GetProject(ctx, notionID)
		if err != nil {
			return nil, fmt.Errorf("案件を取得できませんでした: %w", err)
		}
		client.ResolveCustomerNames(ctx, []*models.TrainingProject{project})
		return project, nil
	}

	console.Info("最近の完了案件を取得中...")
	projects, err := client.FetchProjects(ctx, notion.Filter{
		Status: models.StatusCompleted,
		Limit:  recentProjectLimit,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to fetch projects: %w", err)
	}
	if len(projects) == 0 {
		console.Warning("完了した案件が見つかりませんでした")
		return nil, nil
	}
	client.ResolveCustomerNames(ctx, projects)

	options := make([]huh.Option[int], 0, len(projects))
	for i, p := range projects {
		options = append(options, huh.NewOption(projectLabel(i, p), i))
	}

	var choice int
	form := huh.NewForm(
		huh.NewGroup(
			huh.NewSelect[int]().
				Title(fmt.Sprintf("%d件の案件が見つかりました。作成する案件を選択してください", len(projects))).
				Options(options...).
				Value(&choice),
		),
	)
	if err := form.RunWithContext(ctx); err != nil {
		if errors.Is(err, huh.ErrUserAborted) {
			console.Info("キャンセルしました")
			return nil, nil
		}
		return nil, err
	}

	return projects[choice], nil
}

func projectLabel(i int, p *models.TrainingProject) string {
	label := fmt.Sprintf("%d. %s - %s", i+1, p.Title, p.FormatAmount())
	if p.CustomerName != "" {
		label += " (" + p.CustomerName + ")"
	}
	return label
}

func confirm(ctx context.Context, title string) (bool, error) {
	var ok bool
	form := huh.NewForm(
		huh.NewGroup(
			huh.NewConfirm().
				Title(title).
				Affirmative("はい").
				Negative("いいえ").
				Value(&ok),
		),
	)
	if err := form.RunWithContext(ctx); err != nil {
		if errors.Is(err, huh.ErrUserAborted) {
			return false, nil
		}
		return false, err
	}
	return ok, nil
}

func handleMappingError(err error, log zerolog.Logger) error {
	log.Error().Err(err).Msg("Mapping failed")

	var verr *invoice.ValidationError
	if errors.As(err, &verr) {
		return fmt.Errorf("案件「%s」は請求書に変換できません: %s", verr.Subject, strings.Join(verr.Violations, "; "))
	}
	return err
}

// handleSubmitError provides user-friendly messages for MoneyForward failures.
func handleSubmitError(err error, log zerolog.Logger) error {
	log.Error().Err(err).Msg("Invoice submission failed")

	switch {
	case errors.Is(err, moneyforward.ErrNotAuthenticated):
		return fmt.Errorf("MoneyForwardの認証が無効です。'notion2mf auth' を再実行してください")
	case errors.Is(err, moneyforward.ErrUnsupportedTaxRate):
		return fmt.Errorf("MoneyForwardが対応していない税率です。INVOICE_TAX_RATE を確認してください: %w", err)
	case errors.Is(err, context.Canceled):
		return fmt.Errorf("処理がキャンセルされました")
	default:
		return fmt.Errorf("請求書の作成に失敗しました: %w", err)
	}
}

type submissionRecorder interface {
	Record(ctx context.Context, runID string, inv *models.Invoice, billingID string) (*ledger.Submission, error)
}

// recordSubmission stores the created billing in the ledger. A failure only warns: the
// billing already exists in MoneyForward.
func recordSubmission(ctx context.Context, rec submissionRecorder, runID string, inv *models.Invoice, billingID string) {
	if _, err := rec.Record(ctx, runID, inv, billingID); err != nil {
		console.Warning("台帳への記録に失敗しました: %v", err)
	}
}
