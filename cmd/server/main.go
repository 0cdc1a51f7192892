package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/rs/zerolog"
	"github.com/stemsi/quizgen-backend/internal/cache"
	"github.com/stemsi/quizgen-backend/internal/config"
	"github.com/stemsi/quizgen-backend/internal/database"
	"github.com/stemsi/quizgen-backend/internal/generator"
	"github.com/stemsi/quizgen-backend/internal/handler"
	"github.com/stemsi/quizgen-backend/internal/logger"
	"github.com/stemsi/quizgen-backend/internal/middleware"
	"github.com/stemsi/quizgen-backend/internal/repository"
	"github.com/stemsi/quizgen-backend/internal/router"
	"github.com/stemsi/quizgen-backend/internal/service"
	"github.com/stemsi/quizgen-backend/internal/validator"
)

func main() {
	// ─── Load Configuration ────────────────────────────────────────────
	cfg := config.Load()

	// ─── Initialize Logger ─────────────────────────────────────────────
	log := logger.Setup(cfg.LogLevel, cfg.LogFormat)
	log.Info().
		Str("port", cfg.ServerPort).
		Str("mode", cfg.GinMode).
		Str("db_driver", cfg.DBDriver).
		Bool("halt_on_incorrect", cfg.HaltOnIncorrect).
		Msg("Starting QuizGen Backend")

	if cfg.OpenAIAPIKey == "" {
		log.Warn().Msg("OPENAI_API_KEY is empty; quiz generation will fail")
	}

	// ─── Initialize Validator ──────────────────────────────────────────
	validator.Setup()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// ─── Connect to Database ───────────────────────────────────────────
	db, err := database.NewPool(ctx, cfg, log)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to connect to database")
	}
	defer db.Close()

	// ─── Connect to Redis ──────────────────────────────────────────────
	rdb, err := database.NewRedisClient(ctx, cfg, log)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to connect to Redis")
	}
	defer rdb.Close()

	// ─── Initialize Repositories ───────────────────────────────────────
	userRepo := repository.NewUserRepository(db)
	quizRepo := repository.NewQuizRepository(db)

	// ─── Initialize Services ──────────────────────────────────────────
	quizGenerator := generator.New(generator.NewOpenAIClient(cfg), cfg, log)
	quizCache := cache.NewQuizCache(rdb, cfg.QuizCacheTTL)

	authService := service.NewAuthService(cfg, userRepo, rdb, log)
	quizService := service.NewQuizSessionService(quizRepo, quizGenerator, quizCache, cfg.HaltOnIncorrect, log)

	// ─── Initialize Handlers ──────────────────────────────────────────
	sessionStore := middleware.NewSessionStore(cfg.SessionSecret, cfg.GinMode == "release")
	handlers := &router.Handlers{
		Auth: handler.NewAuthHandler(authService, sessionStore, log),
		Quiz: handler.NewQuizHandler(quizService, log),
	}

	// ─── Setup Router ──────────────────────────────────────────────────
	r := router.SetupRouter(authService, sessionStore, handlers, cfg)

	// ─── Create HTTP Server ────────────────────────────────────────────
	// WriteTimeout leaves room for a full generation round trip.
	srv := &http.Server{
		Addr:              ":" + cfg.ServerPort,
		Handler:           r,
		ReadHeaderTimeout: 10 * time.Second,
		WriteTimeout:      cfg.GenerationTimeout + 15*time.Second,
	}

	// ─── Start Server in Goroutine ─────────────────────────────────────
	go func() {
		log.Info().Str("addr", ":"+cfg.ServerPort).Msg("Server listening")
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatal().Err(err).Msg("Server error")
		}
	}()

	// ─── Graceful Shutdown ─────────────────────────────────────────────
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	sig := <-quit

	log.Info().Str("signal", sig.String()).Msg("Shutting down gracefully...")

	// In-flight generations may need the full timeout to finish.
	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), cfg.GenerationTimeout+5*time.Second)
	defer shutdownCancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Error().Err(err).Msg("HTTP server shutdown error")
	}

	log.Info().Msg("Shutdown complete")
}

// init sets zerolog global defaults before main runs.
func init() {
	zerolog.TimeFieldFormat = time.RFC3339
}
