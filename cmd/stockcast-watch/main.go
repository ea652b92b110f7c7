package main

import (
	"context"
	"log"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	alpacaapi "github.com/alpacahq/alpaca-trade-api-go/v3/alpaca"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"stockcast/internal/config"
	"stockcast/internal/domain"
	"stockcast/internal/httpapi"
	"stockcast/internal/metrics"
	"stockcast/internal/predict"
	"stockcast/internal/store"
	"stockcast/internal/util"
	"stockcast/internal/watch"
	"stockcast/internal/watchlist"
	"stockcast/pkg/stockcast"
)

func main() {
	cfg, err := config.Load(config.Path())
	if err != nil {
		log.Fatalf("loading config: %v", err)
	}

	logger := util.NewWriterLogger(os.Stdout, cfg.Logging.Level, cfg.Logging.Format)
	util.SetDefault(logger)

	if len(cfg.Watch.Tickers) == 0 {
		log.Fatalf("no tickers configured under watch.tickers")
	}

	reg := prometheus.NewRegistry()
	reg.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))
	rec := metrics.New(reg)

	client := stockcast.NewClient(cfg.Service.BaseURL,
		stockcast.WithTimeout(cfg.Service.Timeout),
		stockcast.WithUserAgent(cfg.Service.UserAgent),
		stockcast.WithLogger(logger),
		stockcast.WithObserver(rec),
	)

	history, err := store.Open(cfg.Storage.SQLitePath)
	if err != nil {
		log.Fatalf("opening history: %v", err)
	}
	defer history.Close()

	targets := make([]watch.Target, 0, len(cfg.Watch.Tickers))
	for _, t := range cfg.Watch.Tickers {
		targets = append(targets, watch.Target{
			Ticker:  strings.ToUpper(t.Ticker),
			Horizon: domain.Horizon(t.Horizon),
		})
	}

	runner := watch.NewRunner(client, targets,
		watch.WithStore(history),
		watch.WithExporter(store.NewParquetExporter(cfg.Storage.ExportDir)),
		watch.WithForecastObserver(rec),
		watch.WithLogger(logger),
		watch.WithOrchestratorOptions(
			predict.WithTimeout(cfg.Service.Timeout),
			predict.WithStaleObserver(rec),
		),
	)
	if err := runner.Schedule(cfg.Watch.Cron); err != nil {
		log.Fatalf("scheduling %q: %v", cfg.Watch.Cron, err)
	}

	opts := []httpapi.Option{
		httpapi.WithHistory(history),
		httpapi.WithExportDir(cfg.Storage.ExportDir),
		httpapi.WithMetrics(promhttp.HandlerFor(reg, promhttp.HandlerOpts{})),
		httpapi.WithLogger(logger),
	}
	// Optional Alpaca trading client for watchlist support.
	if cfg.Alpaca.Enabled() {
		ac := alpacaapi.NewClient(alpacaapi.ClientOpts{
			APIKey:    cfg.Alpaca.APIKey,
			APISecret: cfg.Alpaca.APISecret,
			BaseURL:   cfg.Alpaca.BaseURL,
		})
		opts = append(opts, httpapi.WithWatchlist(watchlist.New(ac, cfg.Alpaca.Watchlist)))
	}
	srv := httpapi.NewServer(runner, opts...)
	go func() {
		if err := srv.LoadWatchlist(); err != nil {
			logger.Warn("watchlist unavailable", "error", err)
		}
	}()

	httpServer := &http.Server{
		Addr:    cfg.Watch.Listen,
		Handler: srv.Handler(),
	}

	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	go func() {
		logger.Info("watch API listening", "addr", httpServer.Addr)
		if err := httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Error("HTTP server error", "error", err)
		}
	}()

	// Refresh once at startup rather than waiting for the first tick.
	go func() {
		if err := runner.RunOnce(ctx); err != nil {
			logger.Warn("initial refresh interrupted", "error", err)
		}
	}()
	runner.Start()

	<-ctx.Done()
	logger.Info("shutting down watcher")

	<-runner.Stop().Done()

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer shutdownCancel()

	if err := httpServer.Shutdown(shutdownCtx); err != nil {
		logger.Error("shutdown error", "error", err)
	}
}
