package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	configloader "github.com/kotobalab/tsuyaku/external/config"
	"github.com/kotobalab/tsuyaku/external/httpapi"
	recognizerimpl "github.com/kotobalab/tsuyaku/external/recognizer"
	repositoryimpl "github.com/kotobalab/tsuyaku/external/repository"
	speechtokenimpl "github.com/kotobalab/tsuyaku/external/speechtoken"
	summarizerimpl "github.com/kotobalab/tsuyaku/external/summarizer"
	translatorimpl "github.com/kotobalab/tsuyaku/external/translator"
	webhookimpl "github.com/kotobalab/tsuyaku/external/webhook"
	"github.com/kotobalab/tsuyaku/internal/config"
	"github.com/kotobalab/tsuyaku/internal/observability/metrics"
	"github.com/kotobalab/tsuyaku/internal/session"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/samber/do/v2"
)

const shutdownTimeout = 10 * time.Second

func main() {
	slog.Info("startup: loading configuration")
	cfg := mustLoadConfig()
	initLogger(cfg)
	slog.Info("startup: configuration loaded", "env", cfg.Env)

	slog.Info("startup: building dependency graph")
	injector := setupDI(cfg)

	slog.Info("startup: launching http server")
	runServer(cfg, injector)
}

func mustLoadConfig() *config.Config {
	cfg, err := configloader.Load()
	if err != nil {
		slog.Error("config validation failed", "error", err)
		os.Exit(1)
	}
	return cfg
}

func initLogger(cfg *config.Config) {
	logLevel := slog.LevelInfo
	if cfg.IsDevelopment() {
		logLevel = slog.LevelDebug
	}
	slog.SetDefault(slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{Level: logLevel})))
}

func setupDI(cfg *config.Config) do.Injector {
	injector := do.New()

	do.ProvideValue(injector, cfg)
	do.Provide(injector, func(i do.Injector) (*prometheus.Registry, error) {
		registry := prometheus.NewRegistry()
		registry.MustRegister(collectors.NewGoCollector())
		registry.MustRegister(collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))
		return registry, nil
	})
	do.Provide(injector, func(i do.Injector) (*metrics.Metrics, error) {
		registry := do.MustInvoke[*prometheus.Registry](i)
		return metrics.New(registry), nil
	})
	repositoryimpl.RegisterDI(injector)
	translatorimpl.RegisterDI(injector)
	summarizerimpl.RegisterDI(injector)
	speechtokenimpl.RegisterDI(injector)
	recognizerimpl.RegisterDI(injector)
	webhookimpl.RegisterDI(injector)
	session.RegisterDI(injector)
	httpapi.RegisterDI(injector)

	return injector
}

func runServer(cfg *config.Config, injector do.Injector) {
	server, err := do.Invoke[*httpapi.Server](injector)
	if err != nil {
		slog.Error("failed to resolve http server", "error", err)
		os.Exit(1)
	}

	httpServer := &http.Server{
		Addr:    fmt.Sprintf(":%d", cfg.HTTPPort),
		Handler: server.Router(),
	}

	done := make(chan struct{})
	go func() {
		slog.Info("startup: entering http serve loop", "port", cfg.HTTPPort)
		if err := httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			slog.Error("http serve failed", "error", err)
		}
		close(done)
	}()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	select {
	case <-sigCh:
		slog.Info("shutting down")
		ctx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		if err := httpServer.Shutdown(ctx); err != nil {
			slog.Error("http shutdown failed", "error", err)
		}
	case <-done:
	}
}
