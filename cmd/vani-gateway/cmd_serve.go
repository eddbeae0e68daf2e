package main

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"path/filepath"
	"strconv"
	"syscall"
	"time"

	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"

	"github.com/SUBHA22-CODER/Vani-AgriGateway/internal/auth"
	"github.com/SUBHA22-CODER/Vani-AgriGateway/internal/cache"
	"github.com/SUBHA22-CODER/Vani-AgriGateway/internal/httpapi"
	"github.com/SUBHA22-CODER/Vani-AgriGateway/internal/profile"
	"github.com/SUBHA22-CODER/Vani-AgriGateway/internal/session"
	"github.com/SUBHA22-CODER/Vani-AgriGateway/internal/storage"
	"github.com/SUBHA22-CODER/Vani-AgriGateway/internal/types"
)

func init() {
	rootCmd.AddCommand(serveCmd)
}

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start the gateway daemon",
	RunE:  runServe,
}

func writePIDFile(dataDir string) (string, error) {
	pidPath := filepath.Join(dataDir, "vani-gateway.pid")
	pid := os.Getpid()
	if err := os.WriteFile(pidPath, []byte(strconv.Itoa(pid)+"\n"), 0644); err != nil {
		return "", fmt.Errorf("write PID file: %w", err)
	}
	return pidPath, nil
}

func runServe(cmd *cobra.Command, args []string) error {
	cfg := loadConfig()
	setupLogging(cfg)

	if err := os.MkdirAll(cfg.DataDir, 0755); err != nil {
		return fmt.Errorf("create data dir: %w", err)
	}

	pidPath, err := writePIDFile(cfg.DataDir)
	if err != nil {
		return err
	}
	defer os.Remove(pidPath)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	// Durable store: Postgres when configured, otherwise the in-memory
	// store is authoritative on its own.
	var store types.SessionStore = session.NewStore()
	if cfg.Database.URL != "" {
		pg, err := storage.NewPostgres(ctx, cfg.Database.URL)
		if err != nil {
			return fmt.Errorf("open durable store: %w", err)
		}
		defer pg.Close()
		if err := pg.InitSchema(ctx); err != nil {
			return err
		}
		store = pg
		slog.Info("durable session store enabled")
	}

	// Fast cache: layered over the durable store when redis is configured.
	if cfg.Redis.Addr != "" {
		redisCache := cache.NewRedis(cfg.Redis.Addr)
		defer redisCache.Close()
		if err := redisCache.Ping(ctx); err != nil {
			slog.Warn("redis unreachable at startup, continuing without it warm", "error", err)
		}
		store = cache.NewCoordinator(store, redisCache, cfg.CacheExpiry())
		slog.Info("session cache enabled", "addr", cfg.Redis.Addr)
	}

	sessions := session.NewManager(store, cfg.TTL(), cfg.ResumeGrace())
	profiles := profile.NewManager(profile.NewMemoryStore())
	tokens := auth.NewTokenService(cfg.JWT.Secret, cfg.JWTExpiry())
	authSvc := auth.NewService(profiles, sessions, tokens)

	sweeper := session.NewSweeper(store, cfg.TTL(), cfg.CleanupInterval())
	if err := sweeper.Start(); err != nil {
		return fmt.Errorf("start sweeper: %w", err)
	}
	defer sweeper.Stop()

	httpServer := &http.Server{
		Addr:    cfg.HTTP.Listen,
		Handler: httpapi.NewServer(authSvc, sessions),
	}

	slog.Info("vani-gateway started",
		"listen", cfg.HTTP.Listen,
		"log_level", cfg.LogLevel,
		"session_ttl", cfg.TTL().String(),
		"resume_grace", cfg.ResumeGrace().String(),
		"cleanup_interval", cfg.CleanupInterval().String(),
		"pid_file", pidPath,
	)

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		if err := httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			return fmt.Errorf("http server: %w", err)
		}
		return nil
	})
	g.Go(func() error {
		<-gctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		return httpServer.Shutdown(shutdownCtx)
	})

	if err := g.Wait(); err != nil {
		return err
	}
	slog.Info("shutting down")
	return nil
}
