package main

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/redis/go-redis/v9"
	"golang.org/x/sync/errgroup"

	"github.com/playperu/minigames/internal/config"
	"github.com/playperu/minigames/internal/database"
	"github.com/playperu/minigames/internal/handler/health"
	"github.com/playperu/minigames/internal/ids"
	"github.com/playperu/minigames/internal/migrations"
	"github.com/playperu/minigames/internal/room"
	"github.com/playperu/minigames/internal/server"
	"github.com/playperu/minigames/internal/storage"
)

const sweepInterval = 10 * time.Minute

func main() {
	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	if err := run(ctx, os.Stdout); err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(1)
	}
}

func run(ctx context.Context, stdout io.Writer) error {
	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("loading config: %w", err)
	}

	logger := slog.New(slog.NewJSONHandler(stdout, &slog.HandlerOptions{
		Level: cfg.LogLevel,
	}))

	g, gctx := errgroup.WithContext(ctx)

	// --- Room store ---
	var (
		repo   room.Repository
		checks = map[string]health.Checker{}
	)
	switch cfg.RoomStore {
	case "redis":
		rdb, err := openRedis(ctx, cfg.RedisURL)
		if err != nil {
			return fmt.Errorf("connecting to redis: %w", err)
		}
		defer rdb.Close()
		logger.Info("connected to redis")

		store := storage.NewRedis(rdb, cfg.RoomTTL)
		repo, checks["redis"] = store, store

	case "sqlite":
		db, err := database.Open(ctx, cfg.DBPath)
		if err != nil {
			return fmt.Errorf("connecting to sqlite: %w", err)
		}
		defer db.Close()

		applied, err := migrations.Run(ctx, db)
		if err != nil {
			return fmt.Errorf("running migrations: %w", err)
		}
		logger.Info("connected to sqlite", "path", cfg.DBPath, "migrations_applied", applied)

		store := storage.NewSQLite(db, cfg.RoomTTL)
		repo, checks["sqlite"] = store, store
		g.Go(func() error {
			sweep(gctx, logger, store)
			return nil
		})

	default:
		repo, checks["memory"] = storage.NewMemory(cfg.RoomTTL), health.Always
		logger.Warn("rooms are kept in memory and lost on restart")
	}

	broker := server.NewBroker()
	svc := room.NewService(repo, logger,
		room.WithNotifier(broker),
		room.WithHasher(ids.NewHasher(cfg.SecretPepper)),
		room.WithPuzzleImages(cfg.PuzzleImages),
		room.WithDefaultDuration(cfg.DefaultDurationSec),
		room.WithAdminAbsence(cfg.AdminAbsenceTimeout),
	)
	if cfg.SecretPepper == "" {
		logger.Warn("SECRET_PEPPER is empty, secret digests are unkeyed")
	}

	// --- HTTP Server ---
	srv := server.New(cfg.HTTPAddr, logger, svc, broker, checks)

	// --- Run ---
	g.Go(func() error {
		logger.Info("starting http server", "addr", cfg.HTTPAddr, "room_store", cfg.RoomStore)
		return srv.Run(gctx)
	})

	g.Go(func() error {
		<-gctx.Done()
		logger.Info("shutting down http server")
		return srv.Shutdown(context.Background())
	})

	return g.Wait()
}

func openRedis(ctx context.Context, rawURL string) (*redis.Client, error) {
	opt, err := redis.ParseURL(rawURL)
	if err != nil {
		return nil, fmt.Errorf("parsing redis url: %w", err)
	}
	rdb := redis.NewClient(opt)
	if err := rdb.Ping(ctx).Err(); err != nil {
		rdb.Close()
		return nil, fmt.Errorf("pinging redis: %w", err)
	}
	return rdb, nil
}

// sweep deletes expired SQLite rooms until ctx is done. Redis expires keys on
// its own and the memory store sweeps on write.
func sweep(ctx context.Context, logger *slog.Logger, store *storage.SQLite) {
	t := time.NewTicker(sweepInterval)
	defer t.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-t.C:
			n, err := store.Sweep(ctx)
			if err != nil {
				logger.Error("sweeping expired rooms", "error", err)
				continue
			}
			if n > 0 {
				logger.Info("swept expired rooms", "count", n)
			}
		}
	}
}
