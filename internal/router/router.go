package router

import (
	"net/http"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/gorilla/sessions"
	"github.com/stemsi/quizgen-backend/internal/config"
	"github.com/stemsi/quizgen-backend/internal/handler"
	"github.com/stemsi/quizgen-backend/internal/middleware"
	"github.com/stemsi/quizgen-backend/internal/response"
)

// Handlers groups all handler instances for route setup.
type Handlers struct {
	Auth *handler.AuthHandler
	Quiz *handler.QuizHandler
}

// SetupRouter configures all Gin route groups with appropriate middlewares.
func SetupRouter(
	verifier middleware.TokenVerifier,
	store sessions.Store,
	handlers *Handlers,
	cfg *config.Config,
) *gin.Engine {
	gin.SetMode(cfg.GinMode)
	router := gin.New()
	router.Use(gin.Logger(), gin.Recovery())

	// ─── CORS ──────────────────────────────────────────────────────────
	// If AllowedOrigins is set in config, restrict to that list;
	// otherwise allow all (*) so dev works without extra config.
	corsConfig := cors.DefaultConfig()
	if len(cfg.AllowedOrigins) > 0 {
		corsConfig.AllowOrigins = cfg.AllowedOrigins
		corsConfig.AllowCredentials = true
	} else {
		corsConfig.AllowAllOrigins = true
	}
	corsConfig.AllowMethods = []string{"GET", "POST", "OPTIONS"}
	corsConfig.AllowHeaders = []string{"Origin", "Content-Type", "Authorization", "X-Request-ID"}
	corsConfig.ExposeHeaders = []string{"X-Request-ID"}
	corsConfig.MaxAge = 12 * time.Hour
	router.Use(cors.New(corsConfig))

	router.Use(response.RequestIDMiddleware())
	router.Use(middleware.Brotli(middleware.DefaultBrotliMinLength))

	// Health check.
	router.GET("/health", func(c *gin.Context) {
		response.Success(c, http.StatusOK, gin.H{"status": "ok"})
	})

	api := router.Group("/api/v1")
	api.Use(middleware.ResolveUser(verifier, store))

	// ─── 1. Auth Group ─────────────────────────────────────────────────
	auth := api.Group("/auth")
	{
		auth.POST("/sign-up", handlers.Auth.SignUp)
		auth.POST("/sign-in", handlers.Auth.SignIn)

		auth.POST("/sign-out", middleware.RequireUser(), handlers.Auth.SignOut)
		auth.GET("/me", middleware.RequireUser(), handlers.Auth.Me)
	}

	// ─── 2. Quiz Group (anonymous allowed) ─────────────────────────────
	// Generation calls the language model, so it is rate limited per caller.
	generationLimiter := middleware.NewRateLimiter(cfg.QuizRateLimitPerMin, time.Minute)

	quizzes := api.Group("/quizzes")
	quizzes.Use(middleware.NoStore())
	{
		quizzes.POST("", generationLimiter.Middleware(), handlers.Quiz.StartQuiz)
		quizzes.GET("", middleware.RequireUser(), handlers.Quiz.ListQuizzes)
		quizzes.GET("/:quiz_id", handlers.Quiz.Resume)
		quizzes.POST("/:quiz_id/questions/:question_id/answer", handlers.Quiz.SubmitAnswer)
		quizzes.GET("/:quiz_id/results", handlers.Quiz.GetResults)
	}

	return router
}
