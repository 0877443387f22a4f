package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"keyword-research-go/internal/bootstrap"
	"keyword-research-go/pkg/pipeline"
	"keyword-research-go/pkg/report"
)

func newAnalyzeCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "analyze",
		Short: "Run one keyword analysis and export the report",
		Example: `  keyword-research analyze --topic "running shoes" --business-type retail
  keyword-research analyze -t crm -b saas --format yaml --output-dir reports --text`,
		RunE: runAnalyze,
	}

	f := cmd.Flags()
	f.StringP("topic", "t", "", "seed topic to research")
	f.StringP("business-type", "b", "", "business type used in prompts and the action plan")
	f.StringP("output-dir", "o", "", "directory the report is written to")
	f.String("format", "", "report format: json or yaml")
	f.Bool("text", false, "also print the report to stdout")
	_ = cmd.MarkFlagRequired("topic")
	return cmd
}

func runAnalyze(cmd *cobra.Command, args []string) error {
	_, cfg, err := loadConfig(cmd, map[string]string{
		"export.dir":    "output-dir",
		"export.format": "format",
	})
	if err != nil {
		return err
	}

	ctx, cancel := signalContext()
	defer cancel()

	app, err := bootstrap.New(ctx, cfg)
	if err != nil {
		return err
	}
	defer app.Close()

	topic, _ := cmd.Flags().GetString("topic")
	businessType, _ := cmd.Flags().GetString("business-type")

	run, err := app.Analyzer.Analyze(ctx, pipeline.Request{Topic: topic, BusinessType: businessType})
	if err != nil {
		return err
	}

	path, err := app.Exporter.Export(ctx, run.Report, cfg.Export.Dir, cfg.Export.Format)
	if err != nil {
		return err
	}

	if app.Publisher != nil {
		if _, err := app.Publisher.Publish(ctx, run.ID, run.Report); err != nil {
			app.Log.WithError(err).Warn("Failed to publish report")
		}
	}

	out := cmd.OutOrStdout()
	if text, _ := cmd.Flags().GetBool("text"); text {
		if err := report.RenderText(out, run.Report); err != nil {
			return err
		}
	}
	fmt.Fprintf(out, "Run %s: report saved to %s\n", run.ID, path)
	return nil
}
