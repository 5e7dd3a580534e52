// Command todod is the todochat server daemon.
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"log"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"

	"github.com/GoCodeAlone/todochat/chat"
	"github.com/GoCodeAlone/todochat/config"
	"github.com/GoCodeAlone/todochat/conversation"
	"github.com/GoCodeAlone/todochat/events"
	"github.com/GoCodeAlone/todochat/internal/version"
	"github.com/GoCodeAlone/todochat/interpreter"
	"github.com/GoCodeAlone/todochat/server"
	"github.com/GoCodeAlone/todochat/storage"
	"github.com/GoCodeAlone/todochat/task"
	"github.com/GoCodeAlone/todochat/user"
)

var configPath = flag.String("config", "", "path to YAML config file (optional)")

func main() {
	flag.Parse()

	cfg := config.DefaultConfig()
	if *configPath != "" {
		loaded, err := config.Load(*configPath)
		if err != nil {
			log.Fatalf("Failed to load config %s: %v", *configPath, err)
		}
		cfg = loaded
	}
	if err := cfg.ApplyEnv(os.LookupEnv); err != nil {
		log.Fatalf("Failed to read environment: %v", err)
	}
	if err := cfg.Validate(); err != nil {
		log.Fatalf("Invalid config: %v", err)
	}

	logger := newLogger(cfg.LogLevel, cfg.LogFormat)
	slog.SetDefault(logger)
	logger.Info("starting todod",
		slog.String("version", version.Version),
		slog.String("commit", version.Commit),
	)

	if err := run(cfg, logger); err != nil {
		logger.Error("todod exited", slog.Any("err", err))
		os.Exit(1)
	}
	logger.Info("shutdown complete")
}

func run(cfg *config.Config, logger *slog.Logger) error {
	db, err := storage.Open(cfg.Database.Path)
	if err != nil {
		return err
	}
	defer db.Close() //nolint:errcheck

	registry := prometheus.NewRegistry()
	registry.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)

	bus := events.NewInMemoryBus(registry)
	tasks := task.NewService(task.NewSQLiteStore(db), bus, logger)
	convs := conversation.NewStore(db)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	opts := []interpreter.Option{
		interpreter.WithLogger(logger),
		interpreter.WithMetrics(registry),
	}
	oracle, err := newOracle(ctx, cfg.Oracle)
	switch {
	case err == nil:
		opts = append(opts, interpreter.WithOracle(oracle, interpreter.OracleSettings{
			MaxTokens:    cfg.Oracle.MaxTokens,
			Temperature:  cfg.Oracle.Temperature,
			Timeout:      cfg.Oracle.Timeout,
			HistoryTurns: cfg.Oracle.HistoryTurns,
		}))
		logger.Info("oracle enabled", slog.String("provider", oracle.Name()))
	case errors.Is(err, errOracleDisabled):
		logger.Info("oracle disabled, using rules only")
	default:
		logger.Warn("oracle unavailable, using rules only", slog.Any("err", err))
	}
	interp := interpreter.New(tasks, opts...)

	srv := server.New(*cfg, version.Version, logger)
	srv.SetUserStore(user.NewStore(db))
	srv.SetTaskService(tasks)
	srv.SetConversations(convs)
	srv.SetChat(chat.NewService(convs, interp, logger))
	srv.SetBus(bus)
	srv.SetRegistry(registry)
	if interp.OracleEnabled() {
		srv.SetOracleName(oracle.Name())
	}

	errCh := make(chan error, 1)
	go func() {
		if err := srv.Start(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		return fmt.Errorf("server: %w", err)
	case <-ctx.Done():
	}

	logger.Info("shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	return srv.Stop(shutdownCtx)
}

func newLogger(level, format string) *slog.Logger {
	var lvl slog.Level
	switch strings.ToLower(level) {
	case "debug":
		lvl = slog.LevelDebug
	case "warn", "warning":
		lvl = slog.LevelWarn
	case "error":
		lvl = slog.LevelError
	default:
		lvl = slog.LevelInfo
	}
	opts := &slog.HandlerOptions{Level: lvl}
	if strings.EqualFold(format, "json") {
		return slog.New(slog.NewJSONHandler(os.Stdout, opts))
	}
	return slog.New(slog.NewTextHandler(os.Stdout, opts))
}
