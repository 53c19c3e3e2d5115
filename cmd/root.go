package cmd

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"notion2mf/internal/config"
	"notion2mf/internal/logger"
	"notion2mf/internal/output"
)

var version = "0.3.0"

var (
	cfg     *config.Config
	console = output.NewConsole(os.Stdout)
)

var rootCmd = &cobra.Command{
	Use:   "notion2mf",
	Short: "Notion to MoneyForward 請求書転記ツール",
	Long: `Notionの研修案件データベースからデータを取得し、
MoneyForwardの請求書として作成するCLIツールです。

Required environment variables:
  NOTION_API_KEY             - Notion integration token
  NOTION_DATABASE_ID         - Training project database ID
  MONEYFORWARD_CLIENT_ID     - MoneyForward OAuth client ID (auth, create-invoice, sync)
  MONEYFORWARD_CLIENT_SECRET - MoneyForward OAuth client secret (auth, create-invoice, sync)`,
	Version:       version,
	SilenceUsage:  true,
	SilenceErrors: true,
}

// Version reports the CLI version.
func Version() string {
	return version
}

// Execute runs the CLI with the loaded configuration.
func Execute(c *config.Config) {
	log := logger.WithComponent("cmd")
	cfg = c

	if err := rootCmd.Execute(); err != nil {
		log.Error().
			Err(err).
			Msg("Command execution failed")
		console.Error("エラー: %v", err)
		os.Exit(1)
	}
}

func init() {
	rootCmd.SetVersionTemplate(fmt.Sprintf("notion2mf version %s\n", version))
}
