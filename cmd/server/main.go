package main

import (
	"context"
	"flag"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/nhle/taskboard/internal/auth"
	"github.com/nhle/taskboard/internal/config"
	"github.com/nhle/taskboard/internal/overdue"
	"github.com/nhle/taskboard/internal/server"
	"github.com/nhle/taskboard/internal/store"
	"github.com/nhle/taskboard/internal/ws"
)

func main() {
	configPath := flag.String("config", "", "path to YAML config file")
	flag.Parse()

	logger := slog.New(slog.NewJSONHandler(os.Stdout, nil))
	slog.SetDefault(logger)

	cfg, err := config.Load(*configPath)
	if err != nil {
		logger.Error("loading config failed", "error", err)
		os.Exit(1)
	}

	st, err := store.NewSQLiteStore(cfg.DatabasePath)
	if err != nil {
		logger.Error("opening store failed", "error", err)
		os.Exit(1)
	}
	defer st.Close()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	hasher := auth.NewPasswordHasher(cfg.BcryptCost)

	if cfg.Seed {
		hash, err := hasher.Hash("password123")
		if err == nil {
			err = st.Seed(ctx, hash)
		}
		if err != nil {
			logger.Error("seeding failed", "error", err)
			os.Exit(1)
		}
		logger.Info("database seeded")
	}

	hub := ws.NewHub(logger)
	jwtManager := auth.NewJWTManager(cfg.JWTSecret, cfg.TokenTTL)
	srv := server.New(st, hub, jwtManager, hasher, cfg.CORSOrigins, logger)

	scanner := overdue.New(st, hub, cfg.OverdueScanInterval, logger)
	go scanner.Run(ctx)

	sigs := make(chan os.Signal, 1)
	signal.Notify(sigs, syscall.SIGINT, syscall.SIGTERM)
	go func() {
		<-sigs
		logger.Info("shutting down")
		cancel()

		shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer shutdownCancel()
		if err := srv.Shutdown(shutdownCtx); err != nil {
			logger.Error("shutdown failed", "error", err)
		}
	}()

	logger.Info("starting server", "addr", cfg.Addr)
	if err := srv.Listen(cfg.Addr); err != nil {
		logger.Error("server stopped", "error", err)
		os.Exit(1)
	}
}
