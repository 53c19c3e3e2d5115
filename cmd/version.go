package cmd

import (
	"fmt"

	"github.com/spf13/cobra"
)

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "バージョン情報を表示",
	Run: func(cmd *cobra.Command, args []string) {
		out := cmd.OutOrStdout()
		fmt.Fprintf(out, "notion2mf version %s\n", version)
		fmt.Fprintln(out, "Notion to MoneyForward 請求書転記ツール")
	},
}

func init() {
	rootCmd.AddCommand(versionCmd)
}
