package main

import (
	"context"
	"errors"
	"fmt"
	stdlog "log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/jonboulle/clockwork"
	"github.com/rs/zerolog"

	"github.com/Dosada05/matchkid/config"
	"github.com/Dosada05/matchkid/db"
	"github.com/Dosada05/matchkid/handlers"
	"github.com/Dosada05/matchkid/repositories"
	api "github.com/Dosada05/matchkid/routes"
	"github.com/Dosada05/matchkid/scheduler"
	"github.com/Dosada05/matchkid/services"
	"github.com/Dosada05/matchkid/storage"
	"github.com/Dosada05/matchkid/utils"
)

const shutdownTimeout = 15 * time.Second

//go:generate swag init --dir ../ --generalInfo cmd/main.go --output ../docs --exclude ../_examples

// @title MatchKid API
// @version 1.0
// @description Youth sports team matching: challenges, matches and tournaments.
// @BasePath /
// @securityDefinitions.apikey BearerAuth
// @in header
// @name Authorization
func main() {
	zerolog.TimeFieldFormat = time.RFC3339
	logger := zerolog.New(os.Stdout).With().Timestamp().Str("service", "matchkid").Logger()

	cfg, err := config.Load()
	if err != nil {
		logger.Fatal().Err(err).Msg("failed to load configuration")
	}
	level, err := zerolog.ParseLevel(cfg.LogLevel)
	if err != nil {
		logger.Warn().Str("log_level", cfg.LogLevel).Msg("unknown log level, using info")
		level = zerolog.InfoLevel
	}
	logger = logger.Level(level)
	logger.Info().Int("port", cfg.ServerPort).Msg("configuration loaded")

	dbConn, err := db.Connect(cfg.DatabaseURL, 5*time.Second)
	if err != nil {
		logger.Fatal().Err(err).Msg("failed to connect to database")
	}
	defer func() {
		if err := dbConn.Close(); err != nil {
			logger.Error().Err(err).Msg("failed to close database connection")
		} else {
			logger.Info().Msg("database connection closed")
		}
	}()
	logger.Info().Msg("database connection established")

	ctx, stop := context.WithCancel(context.Background())
	defer stop()

	if err := db.EnsureSchema(ctx, dbConn); err != nil {
		logger.Fatal().Err(err).Msg("failed to apply database schema")
	}

	var uploader storage.FileUploader
	if cfg.R2.Enabled() {
		uploader, err = storage.NewCloudflareR2Uploader(ctx, storage.CloudflareR2UploaderConfig{
			AccountID:       cfg.R2.AccountID,
			AccessKeyID:     cfg.R2.AccessKeyID,
			SecretAccessKey: cfg.R2.SecretAccessKey,
			BucketName:      cfg.R2.BucketName,
			PublicBaseURL:   cfg.R2.PublicBaseURL,
		})
		if err != nil {
			logger.Fatal().Err(err).Msg("failed to initialize Cloudflare R2 uploader")
		}
		logger.Info().Str("bucket", cfg.R2.BucketName).Msg("Cloudflare R2 uploader initialized")
	} else {
		logger.Warn().Msg("R2 is not configured, team logo uploads are disabled")
	}

	clock := clockwork.NewRealClock()
	tokens := utils.NewTokenManager(cfg.JWTSecretKey, cfg.TokenTTL, clock)

	txRunner := repositories.NewTxRunner(dbConn)
	userRepo := repositories.NewPostgresUserRepository(dbConn)
	teamRepo := repositories.NewPostgresTeamRepository(dbConn)
	playerRepo := repositories.NewPostgresPlayerRepository(dbConn)
	challengeRepo := repositories.NewPostgresChallengeRepository(dbConn)
	matchRepo := repositories.NewPostgresMatchRepository(dbConn)
	tournamentRepo := repositories.NewPostgresTournamentRepository(dbConn)
	registrationRepo := repositories.NewPostgresRegistrationRepository(dbConn)

	authService := services.NewAuthService(userRepo, tokens)
	teamService := services.NewTeamService(teamRepo, playerRepo, uploader, logger.With().Str("component", "teams").Logger())
	challengeService := services.NewChallengeService(txRunner, challengeRepo, matchRepo, teamRepo, logger.With().Str("component", "challenges").Logger())
	matchService := services.NewMatchService(txRunner, matchRepo, teamRepo, logger.With().Str("component", "matches").Logger())
	tournamentService := services.NewTournamentService(txRunner, tournamentRepo, registrationRepo, teamRepo, logger.With().Str("component", "tournaments").Logger())
	dashboardService := services.NewDashboardService(userRepo, teamRepo, challengeRepo, matchRepo, tournamentRepo)

	var jobs *scheduler.Service
	if cfg.RepairInterval > 0 {
		jobs, err = scheduler.New(logger.With().Str("component", "scheduler").Logger())
		if err != nil {
			logger.Fatal().Err(err).Msg("failed to create scheduler")
		}
		if _, err := jobs.AddRepairJob(ctx, challengeService, cfg.RepairInterval); err != nil {
			logger.Fatal().Err(err).Msg("failed to register repair job")
		}
		jobs.Start()
	} else {
		logger.Info().Msg("repair sweep disabled")
	}

	router := chi.NewRouter()
	api.SetupRoutes(router, api.Handlers{
		Auth:       handlers.NewAuthHandler(authService),
		Team:       handlers.NewTeamHandler(teamService),
		Challenge:  handlers.NewChallengeHandler(challengeService),
		Match:      handlers.NewMatchHandler(matchService),
		Tournament: handlers.NewTournamentHandler(tournamentService),
		Calendar:   handlers.NewCalendarHandler(clock),
		Admin:      handlers.NewAdminHandler(dashboardService, challengeService),
		Health:     handlers.NewHealthHandler(dbConn),
	}, api.Options{
		Logger:         logger,
		Tokens:         tokens,
		AllowedOrigins: cfg.CORSAllowedOrigins,
	})
	logger.Info().Msg("routes configured")

	server := &http.Server{
		Addr:         fmt.Sprintf(":%d", cfg.ServerPort),
		Handler:      router,
		ReadTimeout:  10 * time.Second,
		WriteTimeout: 10 * time.Second,
		IdleTimeout:  120 * time.Second,
		ErrorLog:     stdlog.New(logger.With().Str("component", "http").Logger(), "", 0),
	}

	serverErrors := make(chan error, 1)
	go func() {
		logger.Info().Str("address", server.Addr).Msg("starting server")
		serverErrors <- server.ListenAndServe()
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)

	exitCode := 0
	select {
	case err := <-serverErrors:
		if !errors.Is(err, http.ErrServerClosed) {
			logger.Error().Err(err).Msg("server error")
			exitCode = 1
		}
	case sig := <-quit:
		logger.Info().Str("signal", sig.String()).Msg("shutdown signal received")

		shutdownCtx, cancelShutdown := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancelShutdown()

		if err := server.Shutdown(shutdownCtx); err != nil {
			logger.Error().Err(err).Msg("graceful shutdown failed")
			if closeErr := server.Close(); closeErr != nil {
				logger.Error().Err(closeErr).Msg("failed to force close server")
			}
			exitCode = 1
		} else {
			logger.Info().Msg("server shutdown complete")
		}
	}

	stop()
	if jobs != nil {
		if err := jobs.Stop(); err != nil {
			logger.Error().Err(err).Msg("failed to stop scheduler")
		}
	}
	logger.Info().Msg("application exited")
	if exitCode != 0 {
		dbConn.Close()
		os.Exit(exitCode)
	}
}
