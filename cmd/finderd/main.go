package main

import (
	"context"
	"flag"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/smoke-finder/search-core/internal/finderd"
	"github.com/smoke-finder/search-core/internal/mapgeom"
	"github.com/smoke-finder/search-core/pkg/config"
	"github.com/smoke-finder/search-core/pkg/logger"
)

func main() {
	var httpAddr string
	var configPath string
	var mapDir string
	var logLevel string

	flag.StringVar(&httpAddr, "http-addr", ":8080", "HTTP listen address")
	flag.StringVar(&configPath, "config", "", "path to the YAML configuration file (defaults when empty)")
	flag.StringVar(&mapDir, "map-dir", "", "map directory override")
	flag.StringVar(&logLevel, "log-level", "", "log level (debug, info, warn, error)")
	flag.Parse()

	cfg := config.DefaultConfig()
	if configPath != "" {
		loaded, err := config.LoadConfig(configPath)
		if err != nil {
			logger.Error("failed to load configuration", "path", configPath, "error", err)
			os.Exit(1)
		}
		cfg = loaded
	}
	if mapDir != "" {
		cfg.Maps.Dir = mapDir
	}
	if logLevel == "" {
		logLevel = cfg.LogLevel
	}

	logger.SetDefault(logger.NewText(logLevel, os.Stdout))

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)

	loader := mapgeom.NewLoader(cfg.Maps.Dir)
	if cfg.Maps.Default != "" {
		if _, err := loader.Load(cfg.Maps.Default); err != nil {
			logger.Error("failed to load default map", "map", cfg.Maps.Default, "error", err)
			stop()
			os.Exit(1)
		}
		logger.Info("default map loaded", "map", cfg.Maps.Default)
	}

	store := finderd.NewSearchStore()
	executor := finderd.NewSearchExecutor(store, loader, cfg)

	httpSrv := &http.Server{
		Addr:              httpAddr,
		Handler:           finderd.NewHTTPServer(store, executor, loader).Handler(),
		ReadHeaderTimeout: 5 * time.Second,
		WriteTimeout:      10 * time.Second,
		IdleTimeout:       120 * time.Second,
		MaxHeaderBytes:    1 << 20,
	}

	go func() {
		logger.Info("HTTP server listening", "addr", httpAddr)
		if err := httpSrv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Error("HTTP server error", "error", err)
			stop()
		}
	}()

	<-ctx.Done()
	logger.Info("shutdown requested")
	stop()

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := httpSrv.Shutdown(shutdownCtx); err != nil {
		logger.Error("HTTP shutdown error", "error", err)
	}
}
