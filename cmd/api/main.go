package main

import (
	"context"
	"errors"
	"flag"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"golang.org/x/sync/errgroup"
	"sales-auditor-go/internal/archive"
	"sales-auditor-go/internal/config"
	"sales-auditor-go/internal/httpapi"
	"sales-auditor-go/internal/logger"
	"sales-auditor-go/internal/observe"
	"sales-auditor-go/internal/pipeline"
	"sales-auditor-go/internal/watch"
)

const serviceName = "sales-auditor-go"

var version = "dev"

func main() {
	_ = godotenv.Load() // loads .env

	configPath := flag.String("config", envOr("CONFIG_PATH", ""), "optional YAML config file")
	flag.Parse()

	cfg, err := config.Load(*configPath)
	if err != nil {
		logger.New().WithError(err).Fatal("invalid configuration")
	}

	log := logger.NewWith(logger.Options{Environment: cfg.Environment, Level: cfg.LogLevel})
	log.WithField("service", serviceName).WithField("version", version).Info("starting service")

	shutdownMetrics, err := observe.InitProvider(serviceName, version)
	if err != nil {
		log.WithError(err).Fatal("failed to init metrics")
	}
	defer shutdownMetrics(context.Background())
	metrics := observe.DefaultMetrics()

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	p, err := pipeline.Build(ctx, cfg, log, metrics)
	if err != nil {
		log.WithError(err).Fatal("failed to build pipeline")
	}

	var store *archive.Store
	if cfg.Archive.Path != "" {
		store, err = archive.Open(cfg.Archive.Path)
		if err != nil {
			log.WithError(err).Fatal("failed to open archive")
		}
		defer store.Close()
		log.WithField("archive_path", cfg.Archive.Path).Info("run archive enabled")
	}

	api := httpapi.New(p.Processor, httpapi.Options{
		ReportFileName: cfg.Report.FileName,
		Archive:        store,
		Metrics:        metrics,
	}, log)

	addr := ":" + cfg.Server.Port
	srv := &http.Server{
		Addr:         addr,
		Handler:      api.Handler(),
		ReadTimeout:  60 * time.Second,
		WriteTimeout: 15 * time.Minute,
		IdleTimeout:  120 * time.Second,
	}

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		log.WithField("addr", addr).Info("listening")
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	})
	g.Go(func() error {
		<-gctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		return srv.Shutdown(shutdownCtx)
	})

	if cfg.Watch.InboxDir != "" {
		w := watch.New(watch.Config{
			InboxDir:       cfg.Watch.InboxDir,
			OutboxDir:      cfg.Watch.OutboxDir,
			ReportFileName: cfg.Report.FileName,
			Debounce:       cfg.Watch.Debounce(),
		}, p.Processor, log)
		g.Go(func() error {
			if _, err := w.Backfill(gctx); err != nil {
				log.WithError(err).Warn("inbox backfill failed")
			}
			return w.Start(gctx)
		})
	}

	if err := g.Wait(); err != nil {
		log.WithError(err).Fatal("server terminated")
	}
	log.Info("shutdown complete")
}

func envOr(k, def string) string {
	if v := os.Getenv(k); v != "" {
		return v
	}
	return def
}
