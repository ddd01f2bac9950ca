package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/fieldops/contractor-api/internal/api"
	"github.com/fieldops/contractor-api/internal/core/service"
	mongodb "github.com/fieldops/contractor-api/internal/infrastructure/db/mongo"
	redisdb "github.com/fieldops/contractor-api/internal/infrastructure/db/redis"
	"github.com/fieldops/contractor-api/internal/infrastructure/queue"
	"github.com/fieldops/contractor-api/internal/pkg/config"
	"github.com/fieldops/contractor-api/pkg/logger"
)

func main() {
	cfg := config.Load()

	log := logger.Init(logger.Options{
		Level:  cfg.LogLevel,
		Pretty: cfg.Env == "development",
	})

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	// --- Stores (one client per process, shared by reference) ---
	mongoClient, db, err := mongodb.Connect(ctx, mongodb.Config{
		URI:      cfg.Mongo.URI,
		Database: cfg.Mongo.Database,
	})
	if err != nil {
		log.Fatal().Err(err).Msg("mongo connection failed")
	}
	defer func() {
		_ = mongoClient.Disconnect(context.Background())
	}()

	rdb, err := redisdb.Connect(ctx, redisdb.Config{
		Addr: cfg.Redis.Addr,
		DB:   cfg.Redis.DB,
	})
	if err != nil {
		log.Fatal().Err(err).Msg("redis connection failed")
	}
	defer func() { _ = rdb.Close() }()

	// --- Repositories ---
	inviteRepo := mongodb.NewInviteRepository(db)
	identityRepo := mongodb.NewIdentityRepository(db)
	memberRepo := mongodb.NewMemberRepository(db)

	for _, ensure := range []func(context.Context) error{
		inviteRepo.EnsureIndexes,
		identityRepo.EnsureIndexes,
		memberRepo.EnsureIndexes,
	} {
		if err := ensure(ctx); err != nil {
			log.Fatal().Err(err).Msg("index creation failed")
		}
	}

	// --- Services ---
	provisioning := service.NewProvisioningService(
		inviteRepo,
		memberRepo,
		redisdb.NewSignupDedup(rdb),
		log,
	)

	dispatcher := queue.NewDispatcher(cfg.Workers, provisioning, log)
	dispatcher.Start(ctx)

	identities := service.NewIdentityService(
		identityRepo,
		provisioning,
		dispatcher,
		cfg.JWTSecret,
		cfg.TokenTTL,
		log,
	)
	invites := service.NewInviteService(inviteRepo, cfg.InviteTTL, log)

	// --- HTTP ---
	e := api.NewRouter(api.RouterConfig{
		DB:         db,
		Redis:      rdb,
		JWTSecret:  cfg.JWTSecret,
		Invites:    invites,
		Identities: identities,
		Logger:     log,
	})

	go func() {
		log.Info().Str("port", cfg.Port).Str("env", cfg.Env).Msg("server starting")
		if err := e.Start(":" + cfg.Port); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatal().Err(err).Msg("server stopped unexpectedly")
		}
	}()

	<-ctx.Done()
	log.Info().Msg("shutdown signal received")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := e.Shutdown(shutdownCtx); err != nil {
		log.Error().Err(err).Msg("server shutdown failed")
	}

	// Workers stop once ctx is cancelled; wait for in-flight post-signup
	// reactions to finish.
	dispatcher.Wait()
	log.Info().Msg("server stopped")
}
