package main

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/Dosada05/boules-league/brackets"
	"github.com/Dosada05/boules-league/config"
	"github.com/Dosada05/boules-league/db"
	"github.com/Dosada05/boules-league/handlers"
	"github.com/Dosada05/boules-league/metrics"
	"github.com/Dosada05/boules-league/repositories"
	"github.com/Dosada05/boules-league/repositories/memory"
	api "github.com/Dosada05/boules-league/routes"
	"github.com/Dosada05/boules-league/services"
	"github.com/Dosada05/boules-league/storage"
	"github.com/go-chi/chi/v5"
)

const schedulerInterval = 10 * time.Minute // How often past events are closed

func main() {
	// Загрузка конфигурации
	cfg, err := config.Load()
	if err != nil {
		slog.Error("failed to load configuration", slog.Any("error", err))
		os.Exit(1)
	}

	// Настройка логгера
	logger := slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{Level: cfg.LogLevel}))
	slog.SetDefault(logger)
	logger.Info("configuration loaded",
		slog.Int("port", cfg.ServerPort),
		slog.String("storage", cfg.StorageDriver),
		slog.String("generation_trigger", string(cfg.GenerationTrigger)),
	)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	// Хранилище
	var repos *repositories.Set
	switch cfg.StorageDriver {
	case config.StorageDriverPostgres:
		dbConn, err := db.Connect(cfg.DatabaseURL, 5*time.Second)
		if err != nil {
			logger.Error("failed to connect to database", slog.Any("error", err))
			os.Exit(1)
		}
		defer closeDB(dbConn, logger)
		if err := db.Migrate(ctx, dbConn); err != nil {
			logger.Error("failed to migrate database", slog.Any("error", err))
			os.Exit(1)
		}
		repos = repositories.NewPostgresSet(dbConn)
		logger.Info("database connection established")
	case config.StorageDriverMemory:
		repos = memory.NewStore().Set()
		logger.Warn("using in-memory storage, data is lost on restart")
	}

	// Инициализация загрузчика файлов (Cloudflare R2)
	var uploader storage.FileUploader
	if cfg.R2Enabled() {
		uploader, err = storage.NewCloudflareR2Uploader(ctx, storage.CloudflareR2UploaderConfig{
			AccountID:       cfg.R2AccountID,
			AccessKeyID:     cfg.R2AccessKeyID,
			SecretAccessKey: cfg.R2SecretAccessKey,
			BucketName:      cfg.R2BucketName,
			PublicBaseURL:   cfg.R2PublicBaseURL,
		}, logger)
		if err != nil {
			logger.Error("failed to initialize Cloudflare R2 uploader", slog.Any("error", err))
			os.Exit(1)
		}
		logger.Info("Cloudflare R2 uploader initialized")
	} else {
		logger.Info("R2 is not configured, avatar uploads are disabled")
	}

	metrics.Register()

	// Инициализация WebSocket Hub
	wsHub := brackets.NewHub(logger)
	go wsHub.Run(ctx)

	// Инициализация сервисов
	authService := services.NewAuthService(repos.Users, logger)
	userService := services.NewUserService(repos.Users, repos.Teams, repos.Matches, repos.Events, uploader, logger)
	standingService := services.NewStandingService(repos.Standings, repos.Users, logger)
	teamService := services.NewTeamService(repos.Teams, repos.Users, nil, logger)
	bracketService := services.NewBracketService(nil, repos.Events, repos.Teams, repos.Matches, repos.Standings, repos.Users, logger)
	generationService := services.NewGenerationService(
		repos.Tx,
		repos.Events,
		repos.Registrations,
		teamService,
		bracketService,
		services.GenerationPolicy{
			AutoEnabled:   cfg.GenerationTrigger.AllowsAuto(),
			ManualEnabled: cfg.GenerationTrigger.AllowsManual(),
		},
		wsHub,
		logger,
	)
	registrationService := services.NewRegistrationService(repos.Tx, repos.Registrations, repos.Events, repos.Users, generationService, logger)
	resultService := services.NewResultService(repos.Tx, repos.Matches, repos.Teams, repos.Confirmations, standingService, wsHub, logger)
	eventService := services.NewEventService(repos.Tx, repos.Events, repos.Teams, repos.Matches, repos.Users, cfg.MinPlayers, logger)

	if cfg.AdminEmail != "" {
		if err := authService.EnsureAdmin(ctx, cfg.AdminEmail, cfg.AdminPassword); err != nil {
			logger.Error("failed to bootstrap admin", slog.Any("error", err))
			os.Exit(1)
		}
	}

	// Закрытие прошедших событий
	go func() {
		ticker := time.NewTicker(schedulerInterval)
		defer ticker.Stop()
		logger.Info("event completion scheduler started", slog.Duration("interval", schedulerInterval))

		for {
			if _, err := eventService.CompletePastEvents(ctx); err != nil {
				logger.Error("scheduler: failed to complete past events", slog.Any("error", err))
			}
			select {
			case <-ticker.C:
			case <-ctx.Done():
				return
			}
		}
	}()

	router := chi.NewRouter()
	api.SetupRoutes(router, api.Handlers{
		Auth:         handlers.NewAuthHandler(authService, cfg.JWTSecretKey),
		User:         handlers.NewUserHandler(userService),
		Event:        handlers.NewEventHandler(eventService),
		Team:         handlers.NewTeamHandler(teamService, standingService),
		Registration: handlers.NewRegistrationHandler(registrationService),
		Match:        handlers.NewMatchHandler(resultService),
		Scoreboard:   handlers.NewScoreboardHandler(bracketService),
		Admin:        handlers.NewAdminHandler(userService, eventService, generationService, resultService),
		WebSocket:    handlers.NewWebSocketHandler(wsHub, cfg.CORSAllowedOrigins, logger),
	}, api.Options{
		JWTSecret:      cfg.JWTSecretKey,
		AllowedOrigins: cfg.CORSAllowedOrigins,
		RateLimitRPS:   cfg.RateLimitRPS,
		RateLimitBurst: cfg.RateLimitBurst,
	})

	// Настройка и запуск HTTP-сервера
	server := &http.Server{
		Addr:         fmt.Sprintf(":%d", cfg.ServerPort),
		Handler:      router,
		ReadTimeout:  10 * time.Second,
		WriteTimeout: 20 * time.Second,
		IdleTimeout:  120 * time.Second,
		ErrorLog:     slog.NewLogLogger(logger.Handler(), slog.LevelError),
	}

	serverErrors := make(chan error, 1)
	go func() {
		logger.Info("starting server", slog.String("address", server.Addr))
		serverErrors <- server.ListenAndServe()
	}()

	select {
	case err := <-serverErrors:
		if !errors.Is(err, http.ErrServerClosed) {
			logger.Error("server error", slog.Any("error", err))
			os.Exit(1)
		}
	case <-ctx.Done():
		logger.Info("shutdown signal received")
		shutdownCtx, cancelShutdown := context.WithTimeout(context.Background(), 15*time.Second)
		defer cancelShutdown()

		if err := server.Shutdown(shutdownCtx); err != nil {
			logger.Error("graceful shutdown failed", slog.Any("error", err))
			if closeErr := server.Close(); closeErr != nil {
				logger.Error("failed to force close server", slog.Any("error", closeErr))
			}
		} else {
			logger.Info("server shutdown complete")
		}
	}
	logger.Info("application exited")
}

func closeDB(dbConn *sql.DB, logger *slog.Logger) {
	if err := dbConn.Close(); err != nil {
		logger.Error("failed to close database connection", slog.Any("error", err))
		return
	}
	logger.Info("database connection closed")
}
