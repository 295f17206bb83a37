// Command server runs the up2d8 backend: subscriber onboarding, grounded
// conversation sessions, feedback/analytics intake, and the article
// catalogue, exposed as a JSON API.
package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/joho/godotenv"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	"github.com/up2d8/up2d8-backend/internal/config"
	httpapi "github.com/up2d8/up2d8-backend/internal/http"
	"github.com/up2d8/up2d8-backend/internal/llm"
	"github.com/up2d8/up2d8-backend/internal/observability"
	"github.com/up2d8/up2d8-backend/internal/repo"
	"github.com/up2d8/up2d8-backend/internal/secrets"
	"github.com/up2d8/up2d8-backend/internal/sysutil"
)

func main() {
	// .env is optional; real deployments use the environment directly.
	_ = godotenv.Load()

	cfg := config.MustLoad()

	// Logging.
	sysutil.SetLogLevel(cfg.LogLevel)
	zerolog.TimeFieldFormat = zerolog.TimeFormatUnix
	if cfg.LogPretty {
		log.Logger = log.Output(zerolog.ConsoleWriter{Out: os.Stderr, TimeFormat: time.RFC3339})
	}
	gin.SetMode(cfg.GinMode)

	version := sysutil.FirstNonEmpty(os.Getenv("SERVICE_VERSION"), "dev")

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	// Tracing.
	shutdownOTel, err := observability.SetupOTel(ctx, cfg.OTEL, version)
	if err != nil {
		log.Fatal().Err(err).Msg("otel setup failed")
	}
	defer func() {
		sctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := shutdownOTel(sctx); err != nil {
			log.Warn().Err(err).Msg("otel shutdown")
		}
	}()

	// Secrets: vault-backed when VAULT_ADDR is set, env-backed otherwise.
	var source secrets.Source
	if cfg.Secrets.VaultAddr != "" {
		source = secrets.NewVaultSource(cfg.Secrets.VaultAddr, cfg.Secrets.VaultToken)
	} else {
		source = secrets.EnvSource{}
	}
	provider := secrets.NewProvider(source)

	dsn, err := provider.Get(ctx, cfg.Secrets.StorageDSNName)
	if err != nil {
		log.Fatal().Err(err).Str("secret", cfg.Secrets.StorageDSNName).Msg("storage DSN unavailable")
	}
	apiKey, err := provider.Get(ctx, cfg.Secrets.GeminiKeyName)
	if err != nil {
		log.Fatal().Err(err).Str("secret", cfg.Secrets.GeminiKeyName).Msg("provider credential unavailable")
	}

	// Storage.
	db, err := repo.Open(dsn)
	if err != nil {
		log.Fatal().Err(err).Msg("opening database")
	}
	if !sysutil.IsTruthy(os.Getenv("SKIP_MIGRATIONS")) {
		if err := repo.AutoMigrate(db); err != nil {
			log.Fatal().Err(err).Msg("migrating schema")
		}
	}

	// Generative client.
	gen, err := llm.NewClient(ctx, apiKey, llm.Options{
		Model:          cfg.GenAI.Model,
		RequestTimeout: cfg.GenAI.RequestTimeout,
		MaxRetries:     cfg.GenAI.MaxRetries,
		BackoffBase:    cfg.GenAI.BackoffBase,
	})
	if err != nil {
		log.Fatal().Err(err).Msg("creating generative client")
	}

	// HTTP transport.
	engine := gin.New()
	httpapi.RegisterRoutes(engine, db, gen, cfg)

	srv := &http.Server{
		Addr:              ":" + cfg.Port,
		Handler:           engine,
		ReadTimeout:       cfg.ReadTimeout,
		ReadHeaderTimeout: cfg.ReadHeaderTimeout,
		WriteTimeout:      cfg.WriteTimeout,
		IdleTimeout:       cfg.IdleTimeout,
		MaxHeaderBytes:    cfg.MaxHeaderBytes,
	}

	go func() {
		log.Info().Str("addr", srv.Addr).Str("version", version).Msg("server listening")
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatal().Err(err).Msg("server failed")
		}
	}()

	<-ctx.Done()
	log.Info().Msg("shutting down")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Error().Err(err).Msg("graceful shutdown failed")
	}

	if sqlDB, err := db.DB(); err == nil {
		_ = sqlDB.Close()
	}
	log.Info().Msg("bye")
}
