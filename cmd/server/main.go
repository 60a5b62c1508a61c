// Package main runs the settings store: the HTTP service the configurator
// client reads settings from and writes them back to.
package main

import (
	"cmp"
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	nethttp "net/http"

	"go.uber.org/zap"

	"github.com/atinyakov/configurator/internal/config"
	"github.com/atinyakov/configurator/internal/db"
	"github.com/atinyakov/configurator/internal/logger"
	"github.com/atinyakov/configurator/internal/repository"
	"github.com/atinyakov/configurator/internal/server/handler/http"
	"github.com/atinyakov/configurator/internal/service"
)

var (
	// version holds the build version set via ldflags.
	version string
	// buildDate holds the build timestamp set via ldflags.
	buildDate string
)

func main() {
	options, err := config.Parse()
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(2)
	}

	fmt.Printf("Build version: %s\n", cmp.Or(version, "N/A"))
	fmt.Printf("Build date: %s\n", cmp.Or(buildDate, "N/A"))

	log := logger.New()
	defer func() { _ = log.Log.Sync() }()
	if err := log.Init(options.LogLevel); err != nil {
		fmt.Fprintln(os.Stderr, "failed to init logger:", err)
		os.Exit(1)
	}
	zapLogger := log.Log

	conn, dialect, err := db.Open(options.DatabaseDSN)
	if err != nil {
		zapLogger.Fatal("cannot init database", zap.Error(err))
	}
	defer conn.Close()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	db.StartRevisionPruner(ctx, conn, dialect,
		options.PruneInterval,
		options.RevisionRetention,
		zapLogger,
	)

	settingsRepo := repository.NewSettingsRepository(conn, dialect)
	settingsService := service.NewSettingsService(settingsRepo)
	settingsHandler := &http.SettingsHandler{SettingsService: settingsService, Log: zapLogger}
	router := http.NewRouter(settingsHandler, zapLogger)

	server := &nethttp.Server{
		Addr:              options.Port,
		Handler:           router,
		ReadHeaderTimeout: 10 * time.Second,
	}

	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := server.Shutdown(shutdownCtx); err != nil {
			zapLogger.Error("failed to shut down server", zap.Error(err))
		}
	}()

	zapLogger.Info("starting settings server",
		zap.String("addr", options.Port),
		zap.String("store", string(dialect)),
	)
	if err := server.ListenAndServe(); err != nil && !errors.Is(err, nethttp.ErrServerClosed) {
		zapLogger.Fatal("failed to start server", zap.Error(err))
	}
	zapLogger.Info("server stopped")
}
