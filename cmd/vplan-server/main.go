package main

import (
	"flag"
	"log/slog"

	"vplan-backend/internal/config"
	"vplan-backend/internal/pipeline"
	"vplan-backend/lib/serviceutil"
	"vplan-backend/lib/telemetry"
	"vplan-backend/services/ingest"
)

func main() {
	verbose := flag.Bool("v", false, "Enable verbose logging/instrumentation.")
	initialScrape := flag.Bool("scrape", false, "Trigger an ingest cycle immediately on run.")
	configPath := flag.String("config", config.DefaultFile, "The config file to read.")
	database := flag.String("db", "", "Overrides the configured database (sqlite path or libsql url).")
	lockFile := flag.String("lock", "", "Overrides the configured cycle lock file.")
	flag.Parse()

	ctx := serviceutil.SignalContext()

	InitTelemetry(ctx, *verbose)

	cfg, err := config.Load(*configPath)
	if err != nil {
		serviceutil.Fatal("read config", err)
	}
	if *database != "" {
		cfg.Database = *database
	}
	if *lockFile != "" {
		cfg.LockFile = *lockFile
	}

	tel := telemetry.SlogAPI{}

	p, err := pipeline.New(ctx, cfg, pipeline.Options{Dump: DumpOutput(*verbose)}, tel)
	if err != nil {
		serviceutil.Fatal("init pipeline", err)
	}
	defer p.Close()

	scheduler := ingest.NewScheduler(p.Service, telemetry.NewScopedAPI("scheduler", tel))
	err = scheduler.Schedule(ctx, cfg.Schedule)
	if err != nil {
		serviceutil.Fatal("init scheduler", err)
	}

	if *initialScrape {
		go scheduler.Tick(ctx)
	}

	scheduler.Start()
	slog.Info("vplan-server started", "base_url", cfg.BaseUrl, "schedule", cfg.Schedule)

	<-ctx.Done()
	slog.Info("waiting for the running cycle to finish")
	<-scheduler.Stop().Done()
}
