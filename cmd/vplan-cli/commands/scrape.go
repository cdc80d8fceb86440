package commands

import (
	"fmt"
	"log/slog"

	"vplan-backend/internal/pipeline"
	"vplan-backend/lib/restyutil"
	"vplan-backend/lib/serviceutil"
	"vplan-backend/lib/telemetry"
	"vplan-backend/services/ingest"
	"vplan-backend/services/notify"

	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/spf13/cobra"
)

var (
	scrapeDb       *string
	scrapeDump     *string
	scrapeNoNotify *bool
)

func init() {
	scrapeDb = scrapeCmd.Flags().String("db", "", "Overrides the configured database.")
	scrapeDump = scrapeCmd.Flags().String("dump", "", "Write every fetched page into this directory.")
	scrapeNoNotify = scrapeCmd.Flags().Bool("no-notify", false, "Persist the delta without sending notifications.")
	rootCmd.AddCommand(scrapeCmd)
}

func renderReport(report ingest.CycleReport) {
	t := newTable()
	t.AppendHeader(append(table.Row{"Change"}, recordHeader...))
	for _, n := range report.Delta.New {
		t.AppendRow(append(table.Row{"new"}, recordRow(n.Record)...))
	}
	for _, c := range report.Delta.Changed {
		t.AppendRow(append(table.Row{"changed"}, recordRow(c.Record)...))
	}
	for _, r := range report.Delta.Removed {
		t.AppendRow(append(table.Row{"removed"}, recordRow(r.Record)...))
	}
	t.AppendFooter(table.Row{
		"total",
		fmt.Sprintf("%d new", report.New()),
		fmt.Sprintf("%d changed", report.Changed()),
		fmt.Sprintf("%d unchanged", report.Unchanged()),
		fmt.Sprintf("%d removed", report.Removed()),
	})
	t.Render()
}

var scrapeCmd = &cobra.Command{
	Use:   "scrape [--db <path>] [--dump <dir>] [--no-notify]",
	Short: "Runs a single ingest cycle and prints its delta.",
	Run: func(cmd *cobra.Command, args []string) {
		cfg, err := loadConfig()
		if err != nil {
			serviceutil.Fatal("failed to read config", err)
		}
		if *scrapeDb != "" {
			cfg.Database = *scrapeDb
		}

		var opts pipeline.Options
		if *scrapeDump != "" {
			out, err := restyutil.NewFilesystemOutput(*scrapeDump)
			if err != nil {
				serviceutil.Fatal("failed to create dump directory", err)
			}
			opts.Dump = out
		}
		if *scrapeNoNotify {
			opts.Transport = notify.NoopTransport{}
		}

		p, err := pipeline.New(cmd.Context(), cfg, opts, telemetry.SlogAPI{})
		if err != nil {
			serviceutil.Fatal("failed to initialize pipeline", err)
		}
		defer p.Close()

		report, err := p.Service.RunCycle(cmd.Context())
		if err != nil {
			serviceutil.Fatal("failed to run cycle", err)
		}
		renderReport(report)

		slog.Info(
			"cycle finished",
			"weeks", report.Weeks,
			"days", report.Days,
			"dispatched", report.Dispatched,
			"seconds", report.Duration.Seconds(),
		)
		if report.Err != nil {
			slog.Warn("cycle finished with errors", "err", report.Err)
		}
	},
}
