package main

import (
	"context"
	"errors"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/joho/godotenv"
	"github.com/redis/go-redis/v9"
	"github.com/yukikurage/civic-proposals-api/internal/auth"
	"github.com/yukikurage/civic-proposals-api/internal/config"
	"github.com/yukikurage/civic-proposals-api/internal/database"
	"github.com/yukikurage/civic-proposals-api/internal/logger"
	"github.com/yukikurage/civic-proposals-api/internal/server"
	"go.uber.org/zap"
)

func main() {
	// .env is optional
	if err := godotenv.Load(); err != nil {
		log.Println("No .env file found, relying on environment variables")
	}

	cfg := config.Load()
	if err := cfg.Validate(); err != nil {
		log.Fatalf("Invalid configuration: %v", err)
	}
	gin.SetMode(cfg.GinMode)

	zl, err := logger.New(cfg.GinMode)
	if err != nil {
		log.Fatalf("Failed to build logger: %v", err)
	}
	defer func() { _ = zl.Sync() }()

	if err := database.Connect(cfg, zl); err != nil {
		zl.Fatal("failed to connect to database", zap.Error(err))
	}
	defer func() {
		if err := database.Close(); err != nil {
			zl.Warn("failed to close database", zap.Error(err))
		}
	}()

	if err := database.Migrate(zl); err != nil {
		zl.Fatal("failed to run migrations", zap.Error(err))
	}

	revoker, closeRevoker := buildRevoker(cfg, zl)
	defer closeRevoker()

	var google auth.GoogleVerifier
	if cfg.GoogleClientID != "" {
		google = auth.NewIDTokenVerifier(cfg.GoogleClientID)
	} else {
		zl.Warn("GOOGLE_CLIENT_ID not set, Google sign-in disabled")
	}

	deps := server.Dependencies{
		DB:      database.GetDB(),
		Log:     zl,
		Revoker: revoker,
		Google:  google,
	}
	svc := server.NewServices(cfg, deps)

	if cfg.AdminEmail != "" && cfg.AdminPassword != "" {
		created, err := svc.Accounts.BootstrapAdmin(cfg.AdminEmail, cfg.AdminPassword)
		if err != nil {
			zl.Fatal("failed to bootstrap admin", zap.Error(err))
		}
		if created {
			zl.Info("admin account created", zap.String("email", cfg.AdminEmail))
		}
	}

	if cfg.RecomputeFollowCounters {
		if err := svc.Follows.RecomputeCounters(); err != nil {
			zl.Error("failed to recompute follow counters", zap.Error(err))
		}
	}

	httpSrv := &http.Server{
		Addr:              ":" + cfg.Port,
		Handler:           server.New(cfg, deps, svc),
		ReadHeaderTimeout: 10 * time.Second,
	}

	go func() {
		if err := httpSrv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			zl.Fatal("http server failed", zap.Error(err))
		}
	}()
	zl.Info("server starting", zap.String("port", cfg.Port), zap.String("db_driver", cfg.DBDriver))

	sig := make(chan os.Signal, 1)
	signal.Notify(sig, syscall.SIGINT, syscall.SIGTERM)
	<-sig

	shutCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := httpSrv.Shutdown(shutCtx); err != nil {
		zl.Error("graceful shutdown failed", zap.Error(err))
	}
	zl.Info("server stopped")
}

// buildRevoker uses Redis when REDIS_URL is set and falls back to an in-process list.
func buildRevoker(cfg *config.Config, zl *zap.Logger) (auth.Revoker, func()) {
	if cfg.RedisURL == "" {
		zl.Warn("REDIS_URL not set, token revocation is kept in memory")
		return auth.NewMemoryRevoker(), func() {}
	}

	opt, err := redis.ParseURL(cfg.RedisURL)
	if err != nil {
		zl.Fatal("invalid REDIS_URL", zap.Error(err))
	}
	rdb := redis.NewClient(opt)

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := rdb.Ping(ctx).Err(); err != nil {
		zl.Fatal("failed to connect to redis", zap.Error(err))
	}

	return auth.NewRedisRevoker(rdb), func() { _ = rdb.Close() }
}
