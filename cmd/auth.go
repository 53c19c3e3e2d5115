package cmd

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/rs/zerolog"
	"github.com/spf13/cobra"
	"notion2mf/internal/auth"
	"notion2mf/internal/logger"
	"notion2mf/internal/moneyforward"
)

var authCmd = &cobra.Command{
	Use:   "auth",
	Short: "MoneyForwardで認証",
	Long: `MoneyForwardのOAuth 2.0認証フローを開始します。

ブラウザが自動的に開き、MoneyForwardにログインして認可を行います。
取得したトークンは MONEYFORWARD_TOKEN_FILE に保存され、期限切れ時は自動で更新されます。`,
	Example: `  notion2mf auth
  notion2mf auth --timeout 10m
  notion2mf auth --logout`,
	RunE: runAuth,
}

func init() {
	rootCmd.AddCommand(authCmd)

	authCmd.Flags().Bool("logout", false, "保存済みのトークンを削除")
	authCmd.Flags().Duration("timeout", auth.DefaultTimeout, "ブラウザでの認可を待つ時間")
}

func runAuth(cmd *cobra.Command, args []string) error {
	log := logger.WithComponent("auth-cmd")

	logout, _ := cmd.Flags().GetBool("logout")
	timeout, _ := cmd.Flags().GetDuration("timeout")

	authenticator, err := newAuthenticator(log)
	if err != nil {
		return err
	}

	if logout {
		if err := authenticator.Logout(); err != nil {
			return fmt.Errorf("failed to remove token: %w", err)
		}
		console.Success("ログアウトしました")
		return nil
	}

	ctx, cancel := commandContext(log)
	defer cancel()

	authenticator.SetTimeout(timeout)

	console.Info("MoneyForward OAuth 2.0認証を開始します...")
	console.Info("ブラウザが開きます。MoneyForwardにログインして認可してください。")

	if _, err := authenticator.Authenticate(ctx); err != nil {
		return handleAuthError(err, timeout, log)
	}

	console.Success("認証が完了しました！")
	console.Info("トークンを保存しました: %s", authenticator.Store().Path())

	console.Info("接続をテスト中...")
	httpClient, err := authenticator.HTTPClient(ctx)
	if err != nil {
		return err
	}

	testCtx, testCancel := context.WithTimeout(ctx, 30*time.Second)
	defer testCancel()

	mf := moneyforward.NewClient(httpClient, cfg.MoneyForward.APIURL)
	if err := mf.TestConnection(testCtx); err != nil {
		console.Warning("接続テストに失敗しました: %v", err)
		return nil
	}
	console.Success("MoneyForward APIに正常に接続できました")
	return nil
}

func handleAuthError(err error, timeout time.Duration, log zerolog.Logger) error {
	log.Error().Err(err).Msg("Authentication failed")

	switch {
	case errors.Is(err, auth.ErrAuthTimeout):
		return fmt.Errorf("認証がタイムアウトしました (%s)。もう一度 'notion2mf auth' を実行してください", timeout)
	case errors.Is(err, auth.ErrStateMismatch):
		return fmt.Errorf("認証エラー: stateが一致しません。もう一度やり直してください")
	case errors.Is(err, auth.ErrAuthorizationDenied):
		return fmt.Errorf("認証が拒否されました: %w", err)
	case errors.Is(err, context.Canceled):
		return fmt.Errorf("認証がキャンセルされました")
	default:
		return fmt.Errorf("認証エラー: %w", err)
	}
}
