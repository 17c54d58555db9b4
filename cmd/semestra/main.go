package main

import (
	"context"
	"errors"
	"flag"
	"net/http"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	"github.com/robfig/cron/v3"

	"github.com/jinyuanZhou-Leo/Semestra-sub001/internal/bus"
	"github.com/jinyuanZhou-Leo/Semestra-sub001/internal/config"
	"github.com/jinyuanZhou-Leo/Semestra-sub001/internal/export"
	appLog "github.com/jinyuanZhou-Leo/Semestra-sub001/internal/log"
	"github.com/jinyuanZhou-Leo/Semestra-sub001/internal/schedule"
	"github.com/jinyuanZhou-Leo/Semestra-sub001/internal/timetable"
	"github.com/jinyuanZhou-Leo/Semestra-sub001/internal/web"
)

// flagConfig holds CLI flag values.
type flagConfig struct {
	configPath string
	listen     string
	once       bool
	outDir     string
}

func main() {
	appLog.Info("semestra starting", "version", "0.1.0")

	flags := parseFlags()

	conf, err := config.Load(flags.configPath)
	if err != nil {
		appLog.Error("failed to load config", err, "config_path", flags.configPath)
		os.Exit(1)
	}
	if flags.listen != "" {
		conf.Listen = flags.listen
	}
	if flags.outDir != "" {
		conf.Export.OutputDir = flags.outDir
	}

	appLog.Info("effective config",
		"listen", conf.Listen,
		"schedule_service", conf.ScheduleServiceURL,
		"semester", conf.Semester.ID,
		"day_window", conf.DayStart+"-"+conf.DayEnd,
		"refresh", conf.RefreshCron,
		"once", flags.once,
	)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	go func() {
		sig := <-sigCh
		appLog.Info("signal received, shutting down", "signal", sig.String())
		cancel()
	}()

	client := schedule.NewClient(conf.ScheduleServiceURL, conf.CacheDir)
	exporter := export.New(client, conf.Semester.ID,
		timetable.ToMinutes(conf.DayStart), timetable.ToMinutes(conf.DayEnd))

	if flags.once {
		if err := runOnce(ctx, conf, exporter); err != nil {
			appLog.Error("single-shot export failed", err)
			os.Exit(1)
		}
		return
	}

	// Composition root owns the one bus instance; everything else gets it
	// injected.
	notifier := bus.New()
	defer notifier.Clear()

	scheduler := cron.New()
	if _, err := scheduler.AddFunc(conf.RefreshCron, func() {
		notifier.Publish(bus.TopicScheduleChanged, bus.ScheduleChange{
			Source:     "semester",
			Reason:     "refresh",
			SemesterID: conf.Semester.ID,
		})
	}); err != nil {
		appLog.Error("invalid refresh cron spec", err, "refresh", conf.RefreshCron)
		os.Exit(1)
	}
	scheduler.Start()
	defer scheduler.Stop()

	server := web.NewServer(conf, notifier, exporter, client)
	defer server.Close()

	httpServer := &http.Server{
		Addr:    conf.Listen,
		Handler: server.Handler(),
	}

	go func() {
		<-ctx.Done()
		shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer shutdownCancel()
		_ = httpServer.Shutdown(shutdownCtx)
	}()

	appLog.Info("starting HTTP server", "listen", "http://"+conf.Listen)
	if err := httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		appLog.Error("HTTP server failed", err)
		os.Exit(1)
	}

	appLog.Info("semestra exiting")
}

// runOnce performs one fetch + export cycle for every configured format and
// writes the artifacts to the output directory.
func runOnce(ctx context.Context, conf *config.Config, exporter *export.Exporter) error {
	if err := os.MkdirAll(conf.Export.OutputDir, 0o755); err != nil {
		return err
	}

	for _, format := range conf.Export.Formats {
		req := export.Request{
			Format:         export.Format(format),
			Scope:          export.ScopeSemester,
			ScopeID:        conf.Semester.ID,
			Range:          export.RangeTerm,
			SkipRenderMode: export.SkipRenderMode(conf.Export.SkipRenderMode),
		}

		res, err := exporter.Export(ctx, req)
		if err != nil {
			return err
		}

		path := filepath.Join(conf.Export.OutputDir, res.Filename)
		if err := os.WriteFile(path, res.Blob, 0o644); err != nil {
			return err
		}
		appLog.Info("artifact written", "path", path, "bytes", len(res.Blob), "items", res.ItemCount)
	}
	return nil
}

func parseFlags() flagConfig {
	var cfg flagConfig

	flag.StringVar(&cfg.configPath, "config", "./semestra.yaml", "Path to config file")
	flag.StringVar(&cfg.listen, "listen", "", "HTTP listen address (overrides config if set)")
	flag.BoolVar(&cfg.once, "once", false, "Run one fetch+export cycle and exit")
	flag.StringVar(&cfg.outDir, "out", "", "Output directory for --once artifacts (overrides config)")

	flag.Parse()

	return cfg
}
