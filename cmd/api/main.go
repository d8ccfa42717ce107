package main

import (
	"context"
	"errors"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/getsentry/sentry-go"
	"github.com/joho/godotenv"
	"gorm.io/gorm"

	"github.com/Bla-nqo/fundiconnect-builder/internal/config"
	"github.com/Bla-nqo/fundiconnect-builder/internal/db"
	"github.com/Bla-nqo/fundiconnect-builder/internal/logging"
	"github.com/Bla-nqo/fundiconnect-builder/internal/realtime"
	"github.com/Bla-nqo/fundiconnect-builder/internal/repository"
	"github.com/Bla-nqo/fundiconnect-builder/internal/repository/memstore"
	"github.com/Bla-nqo/fundiconnect-builder/internal/routes"
	"github.com/Bla-nqo/fundiconnect-builder/internal/services/auth"
)

func main() {
	_ = godotenv.Load()

	cfg := config.Load()
	logging.Setup(cfg.LogLevel)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// Sentry error tracking
	if cfg.SentryDSN != "" {
		if err := sentry.Init(sentry.ClientOptions{
			Dsn:              cfg.SentryDSN,
			EnableTracing:    true,
			TracesSampleRate: 0.2,
			Environment:      cfg.AppEnv,
		}); err != nil {
			slog.Error("sentry init failed", "error", err)
		} else {
			defer sentry.Flush(2 * time.Second)
		}
	}

	var (
		store *repository.Store
		gdb   *gorm.DB
	)
	switch cfg.StorageDriver {
	case config.StorageMemory:
		slog.Warn("using in-memory storage; data is lost on restart")
		store = memstore.New()
	default:
		var err error
		gdb, err = db.Connect(cfg.DBDSN)
		if err != nil {
			slog.Error("database connect failed", "error", err)
			os.Exit(1)
		}
		if err := db.Ping(ctx, gdb); err != nil {
			slog.Error("database ping failed", "error", err)
			os.Exit(1)
		}
		if err := db.Migrate(gdb); err != nil {
			slog.Error("database migration failed", "error", err)
			os.Exit(1)
		}
		store = repository.NewStore(gdb)
	}

	hub := realtime.NewHub()
	go hub.Run(ctx)

	var pub realtime.Publisher = hub
	if cfg.RedisAddr != "" {
		rdb := realtime.NewRedis(cfg.RedisAddr, cfg.RedisPassword)
		if err := rdb.Ping(ctx).Err(); err != nil {
			slog.Error("redis ping failed", "addr", cfg.RedisAddr, "error", err)
			os.Exit(1)
		}
		broker := realtime.NewRedisBroker(rdb, hub, cfg.RedisChannelPrefix)
		pub = broker
		go func() {
			if err := broker.Run(ctx); err != nil && !errors.Is(err, context.Canceled) {
				slog.Error("change broker stopped", "error", err)
			}
		}()
		defer rdb.Close()
		slog.Info("change feed fan-out via redis", "addr", cfg.RedisAddr)
	}

	svc := routes.NewServices(store, pub, cfg.JWTSecret, cfg.JWTExpiresMin)
	if cfg.SupabaseEnabled() {
		verifier, err := auth.NewSupabaseVerifier(cfg.SupabaseURL, cfg.SupabaseKey)
		if err != nil {
			slog.Error("supabase client init failed", "error", err)
			os.Exit(1)
		}
		svc.Auth.Verifier = verifier
		slog.Info("password checks delegated to supabase")
	}

	if err := svc.Catalog.Seed(ctx); err != nil {
		slog.Error("category seed failed", "error", err)
	}
	if n, err := svc.Auth.GrantAdmins(ctx, cfg.AdminEmails); err != nil {
		slog.Error("admin bootstrap failed", "error", err)
	} else if n > 0 {
		slog.Info("admin roles granted", "count", n)
	}

	app := routes.NewApp(cfg, svc, hub)

	// Graceful shutdown
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)

	go func() {
		slog.Info("server starting", "port", cfg.AppPort, "storage", cfg.StorageDriver)
		if err := app.Listen(":" + cfg.AppPort); err != nil {
			slog.Error("server failed to start", "error", err)
			os.Exit(1)
		}
	}()

	<-quit
	slog.Info("shutting down server...")

	if err := app.ShutdownWithTimeout(10 * time.Second); err != nil {
		slog.Error("server shutdown error", "error", err)
	}
	cancel()

	if gdb != nil {
		if err := db.Close(gdb); err != nil {
			slog.Error("database close error", "error", err)
		}
	}
	slog.Info("server stopped")
}
