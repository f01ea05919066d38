package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/WillSuttie/MvcBean/app/auth"
	"github.com/WillSuttie/MvcBean/app/beans"
	"github.com/WillSuttie/MvcBean/app/config"
	"github.com/WillSuttie/MvcBean/app/database"
	"github.com/WillSuttie/MvcBean/app/images"
	"github.com/WillSuttie/MvcBean/models"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
)

const shutdownTimeout = 5 * time.Second

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to load configuration")
	}

	setupLogging(cfg)

	db, err := database.Open(cfg)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to connect to database")
	}
	sqlDB, err := db.DB()
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to get database handle")
	}
	defer sqlDB.Close()

	if err := database.Migrate(db); err != nil {
		log.Fatal().Err(err).Msg("Failed to migrate database")
	}
	if cfg.SeedSampleData {
		if err := database.Seed(context.Background(), db); err != nil {
			log.Fatal().Err(err).Msg("Failed to seed database")
		}
	}

	storage, err := images.NewDiskStorage(cfg.ImagesDir)
	if err != nil {
		log.Fatal().Err(err).Str("dir", cfg.ImagesDir).Msg("Failed to prepare images directory")
	}
	if err := images.EnsurePlaceholder(context.Background(), storage); err != nil {
		log.Fatal().Err(err).Msg("Failed to write placeholder image")
	}

	bounds := beans.DefaultPriceBounds()
	bounds.Max = cfg.PriceMaxDecimal()
	store := beans.NewStore(models.NewBeansRepository(db), storage, beans.NewValidator(bounds))

	if len(cfg.AdminTokens) == 0 {
		log.Warn().Msg("No admin tokens configured, admin endpoints will reject every request")
	}

	srv := &http.Server{
		Addr: cfg.HTTPAddr,
		Handler: newRouter(routerDeps{
			logger:        log.Logger,
			store:         store,
			authenticator: auth.NewStaticTokens(cfg.AdminTokens),
			imagesDir:     storage.Dir(),
			pageSize:      cfg.PageSize,
		}),
		ReadHeaderTimeout: 10 * time.Second,
	}

	go func() {
		log.Info().Str("addr", cfg.HTTPAddr).Msg("Starting server")
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatal().Err(err).Msg("Failed to start server")
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, os.Interrupt, syscall.SIGTERM)
	<-quit

	log.Info().Msg("Shutting down server...")
	ctx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()

	if err := srv.Shutdown(ctx); err != nil {
		log.Fatal().Err(err).Msg("Failed to shutdown server")
	}

	log.Info().Msg("Server stopped")
}

func setupLogging(cfg *config.Config) {
	level, err := zerolog.ParseLevel(cfg.LogLevel)
	if err != nil {
		level = zerolog.InfoLevel
	}
	zerolog.SetGlobalLevel(level)

	if cfg.LogFormat == "console" {
		log.Logger = log.Output(zerolog.ConsoleWriter{Out: os.Stderr, TimeFormat: time.RFC3339})
	}
	zerolog.DefaultContextLogger = &log.Logger
}
