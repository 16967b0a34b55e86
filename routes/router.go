package routes

import (
	"strings"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"

	"github.com/cppla/docqa/config"
	"github.com/cppla/docqa/controllers"
	"github.com/cppla/docqa/middleware"
	"github.com/cppla/docqa/services"
	"github.com/cppla/docqa/utils"
)

// Deps are the services behind the routes.
type Deps struct {
	Auth      *services.AuthService
	Documents *services.DocumentService
	QA        *services.QAService
	Limiter   middleware.Limiter
}

// SetupRouter wires routes, middlewares, and controllers.
func SetupRouter(cfg config.AppConfig, deps Deps) *gin.Engine {
	switch strings.ToLower(cfg.GinMode) {
	case "debug":
		gin.SetMode(gin.DebugMode)
	case "test":
		gin.SetMode(gin.TestMode)
	default:
		gin.SetMode(gin.ReleaseMode)
	}

	r := gin.New()
	// Access log goes to its own rolling file; the application logger is the fallback.
	gl, err := utils.NewRollingFileLogger(cfg.GinPath, cfg.LogLevel, cfg.LogMaxSizeMB, cfg.LogMaxBackups, cfg.LogMaxAgeDays, cfg.LogCompress)
	if err != nil {
		utils.Sugar.Warnf("gin log file %s unavailable, using app logger: %v", cfg.GinPath, err)
		gl = utils.Logger
	}
	r.Use(utils.Ginzap(gl, time.RFC3339, true))
	r.Use(utils.RecoveryWithZap(gl, false))

	corsCfg := cors.Config{
		AllowMethods:     []string{"GET", "POST", "OPTIONS"},
		AllowHeaders:     []string{"Authorization", "Content-Type"},
		ExposeHeaders:    []string{"Content-Length", "WWW-Authenticate"},
		AllowCredentials: true,
		MaxAge:           12 * time.Hour,
	}
	if len(cfg.AllowedOrigins) == 1 && cfg.AllowedOrigins[0] == "*" {
		// Credentials cannot be combined with a wildcard origin.
		corsCfg.AllowAllOrigins = true
		corsCfg.AllowCredentials = false
	} else {
		corsCfg.AllowOrigins = cfg.AllowedOrigins
	}
	r.Use(cors.New(corsCfg))

	r.GET("/health", controllers.Health)

	authController := controllers.NewAuthController(deps.Auth)
	documentController := controllers.NewDocumentController(deps.Documents)
	qaController := controllers.NewQAController(deps.QA)

	limiter := deps.Limiter
	if limiter == nil {
		limiter = middleware.NewMemoryLimiter(cfg.RateLimitPerMinute)
	}
	limit := middleware.RateLimit(limiter)
	requireAuth := middleware.AuthRequired(deps.Auth)

	api := r.Group(cfg.APIPrefix)
	api.POST("/signup", limit, authController.Signup)
	api.POST("/token", limit, authController.Token)

	protected := api.Group("")
	protected.Use(requireAuth)
	protected.POST("/upload", limit, documentController.Upload)
	protected.POST("/ask", limit, qaController.Ask)
	protected.GET("/history", qaController.History)

	r.NoRoute(func(ctx *gin.Context) {
		utils.Error(ctx, 404, "Not Found")
	})

	return r
}
