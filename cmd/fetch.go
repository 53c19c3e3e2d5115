package cmd

import (
	"fmt"
	"io"
	"os"
	"strings"
	"time"

	"github.com/rs/zerolog"
	"github.com/spf13/cobra"
	"notion2mf/internal/logger"
	"notion2mf/internal/output"
	"notion2mf/pkg/models"
)

var fetchCmd = &cobra.Command{
	Use:   "fetch",
	Short: "Notionから研修案件を取得して表示",
	Long: `Notionの研修案件データベースから案件を取得し、表・詳細・JSON・CSVで出力します。

--year と --month を指定すると開始日の範囲に変換されます。--month のみの場合は今年、
--year のみの場合はその年全体が対象になります。`,
	Example: `  notion2mf fetch
  notion2mf fetch --status 完了
  notion2mf fetch --year 2025 --month 1
  notion2mf fetch --format json --output data.json
  notion2mf fetch --limit 10 --format detailed`,
	RunE: runFetch,
}

func init() {
	rootCmd.AddCommand(fetchCmd)

	addFilterFlags(fetchCmd, true)
	fetchCmd.Flags().String("format", "table", "出力形式 (table, detailed, json, csv)")
	fetchCmd.Flags().StringP("output", "o", "", "出力先ファイル (指定しない場合は標準出力)")
}

func runFetch(cmd *cobra.Command, args []string) error {
	log := logger.WithComponent("fetch")

	format, _ := cmd.Flags().GetString("format")
	outputPath, _ := cmd.Flags().GetString("output")
	format = strings.ToLower(format)

	switch format {
	case "table", "detailed", "json", "csv":
	default:
		return fmt.Errorf("不正な出力形式です: %s (table, detailed, json, csv)", format)
	}

	filter, err := readFilterFlags(cmd).build(time.Now())
	if err != nil {
		return err
	}

	client, err := newNotionClient(log)
	if err != nil {
		return err
	}

	ctx, cancel := commandContext(log)
	defer cancel()

	log.Info().
		Str("status", string(filter.Status)).
		Int("limit", filter.Limit).
		Str("format", format).
		Msg("Fetching training projects")

	// Keep stdout clean when it carries the JSON or CSV document.
	toStdout := outputPath == "" && (format == "json" || format == "csv")
	if !toStdout {
		console.Info("Notionからデータを取得中...")
	}
	projects, err := client.FetchProjects(ctx, filter)
	if err != nil {
		return fmt.Errorf("failed to fetch projects: %w", err)
	}
	if len(projects) == 0 && !toStdout {
		console.Warning("データが見つかりませんでした")
		return nil
	}

	client.ResolveCustomerNames(ctx, projects)

	switch format {
	case "table":
		console.ProjectTable(projects)
	case "detailed":
		console.ProjectDetails(projects)
	case "json":
		return writeProjects(outputPath, "JSON", log, projects, output.WriteProjectsJSON)
	case "csv":
		return writeProjects(outputPath, "CSV", log, projects, output.WriteProjectsCSV)
	}
	return nil
}

func writeProjects(
	path, kind string,
	log zerolog.Logger,
	projects []*models.TrainingProject,
	write func(io.Writer, []*models.TrainingProject) error,
) error {
	if path == "" {
		return write(os.Stdout, projects)
	}

	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("failed to create output file: %w", err)
	}
	defer func() {
		if closeErr := f.Close(); closeErr != nil {
			log.Warn().Err(closeErr).Msg("Failed to close output file")
		}
	}()

	if err := write(f, projects); err != nil {
		return err
	}

	log.Info().Str("file", path).Int("projects", len(projects)).Msg("Projects written")
	console.Success("%sファイルを出力しました: %s", kind, path)
	return nil
}
