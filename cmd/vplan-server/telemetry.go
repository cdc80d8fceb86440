package main

import (
	"context"
	"errors"
	"log/slog"
	"os"
	"time"

	"vplan-backend/lib/restyutil"
	"vplan-backend/lib/serviceutil"
	"vplan-backend/lib/telemetry"
)

func InitTelemetry(ctx context.Context, verbose bool) {
	telemetry.InitSlog(verbose)

	if verbose {
		slog.DebugContext(ctx, "verbose logging enabled")
	}

	tel, err := telemetry.SetupFromEnv(ctx, "vplan-server")
	if errors.Is(err, os.ErrNotExist) {
		slog.InfoContext(ctx, "telemetry.json5 not found, exporting nothing")
	} else if err != nil {
		serviceutil.Fatal("setup telemetry", err)
	}
	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), time.Second*10)
		defer cancel()
		err := tel.Shutdown(shutdownCtx)
		if err != nil {
			slog.Warn("telemetry shutdown", "err", err)
		}
	}()
	telemetry.InstrumentPerfStats(ctx, time.Minute)
}

// DumpOutput returns where raw publication pages are written in verbose
// mode.
func DumpOutput(verbose bool) restyutil.Output {
	if !verbose {
		return nil
	}
	out, err := restyutil.NewFilesystemOutput("<dev_state>/resty/untis")
	if err != nil {
		slog.Warn("http dumps disabled", "err", err)
		return nil
	}
	return out
}
