package routes

import (
	"net/http"

	"github.com/labstack/echo/v4"
	echomiddleware "github.com/labstack/echo/v4/middleware"

	"jobboard-gateway/internal/api/handlers"
	"jobboard-gateway/internal/api/middleware"
	"jobboard-gateway/internal/auth"
	"jobboard-gateway/internal/config"
	"jobboard-gateway/internal/githubapi"
	"jobboard-gateway/internal/health"
	"jobboard-gateway/internal/jobstore"
	"jobboard-gateway/internal/logging"
)

// Dependencies are the services the HTTP surface is built from
type Dependencies struct {
	Config   *config.Config
	Logger   logging.Logger
	Store    *jobstore.Store
	Enricher jobstore.Enricher
	OAuth    handlers.CodeExchanger
	GitHub   *githubapi.Client
	Tokens   *auth.TokenIssuer
	Health   *health.Checker
}

// SetupRoutes configures all API routes
func SetupRoutes(e *echo.Echo, deps Dependencies) {
	cfg := deps.Config
	logger := deps.Logger
	if logger == nil {
		logger = logging.NewNopLogger()
	}

	e.HTTPErrorHandler = handlers.ErrorHandler(logger)

	// Global middleware
	e.Use(middleware.RequestValidation(cfg.Server.MaxBodyBytes))
	e.Use(middleware.RequestLogger(logger.WithField("component", "http")))
	e.Use(echomiddleware.Recover())
	e.Use(middleware.CORSConfig(cfg.CORS.AllowOrigins))
	e.Use(middleware.TimeoutConfig(cfg.Server.RequestTimeout))

	requireAuth := auth.RequireIdentity(deps.Tokens)

	// Health check routes
	healthGroup := e.Group("/health")
	{
		healthGroup.GET("", handlers.HealthHandler(deps.Health))
		healthGroup.GET("/ready", handlers.ReadinessHandler(deps.Health))
		healthGroup.GET("/live", handlers.LivenessHandler(deps.Health))
	}

	// API v1 routes
	v1 := e.Group("/api/v1")
	{
		authHandler := handlers.NewAuthHandler(deps.OAuth, deps.GitHub, deps.Tokens, logger)
		authGroup := v1.Group("/auth")
		{
			authGroup.GET("/github/login", authHandler.LoginURL)
			authGroup.GET("/github/callback", authHandler.Callback)
			authGroup.POST("/github/callback", authHandler.Callback)
			authGroup.GET("/me", authHandler.Me, requireAuth)
		}

		owner, repo := cfg.IssuesRepository()
		issues := handlers.NewIssuesHandler(deps.GitHub, owner, repo, logger)
		issuesGroup := v1.Group("/issues")
		{
			issuesGroup.GET("", issues.List)
			issuesGroup.GET("/:number", issues.Get)
			issuesGroup.POST("", issues.Create)
		}

		jobs := handlers.NewJobsHandler(deps.Store, logger)
		jobsGroup := v1.Group("/jobs")
		{
			jobsGroup.GET("", jobs.List)
			jobsGroup.GET("/mine", jobs.Mine, requireAuth)
			jobsGroup.GET("/:id", jobs.Get)
			jobsGroup.POST("", jobs.Create, requireAuth)
		}

		v1.POST("/enrichment/summary", handlers.SummaryHandler(deps.Enricher, logger), requireAuth)
	}

	// Root route
	e.GET("/", func(c echo.Context) error {
		return c.JSON(http.StatusOK, map[string]string{
			"service": "jobboard-gateway",
			"version": deps.Health.Version(),
			"status":  "running",
		})
	})
}
