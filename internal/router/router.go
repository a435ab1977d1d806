package router

import (
	"html/template"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"
	"go.uber.org/zap"

	"github.com/noah-isme/cbdms-web/internal/handler"
	"github.com/noah-isme/cbdms-web/internal/middleware"
	"github.com/noah-isme/cbdms-web/internal/service"
	"github.com/noah-isme/cbdms-web/internal/web"
	"github.com/noah-isme/cbdms-web/pkg/config"
	"github.com/noah-isme/cbdms-web/pkg/logger"
	reqidmiddleware "github.com/noah-isme/cbdms-web/pkg/middleware/requestid"
)

// Handlers groups all handler instances for route setup.
type Handlers struct {
	Landing  *handler.LandingHandler
	Schedule *handler.ScheduleHandler
	WS       *handler.WSHandler
	Metrics  *handler.MetricsHandler
}

// Deps are the shared services the middleware chain needs.
type Deps struct {
	Config     *config.Config
	Logger     *zap.Logger
	Metrics    *service.MetricsService
	Auth       *service.AuthService
	Workspaces *service.WorkspaceRegistry
	Templates  *template.Template
}

// SetupRouter configures all gin routes with their middleware.
func SetupRouter(deps Deps, handlers *Handlers) *gin.Engine {
	cfg := deps.Config
	if cfg.Env == config.EnvProduction {
		gin.SetMode(gin.ReleaseMode)
	}

	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(reqidmiddleware.Middleware())
	r.Use(logger.GinMiddleware(deps.Logger))
	r.Use(middleware.Metrics(deps.Metrics))
	r.Use(cors.New(corsConfig(cfg.CORS.AllowedOrigins)))
	r.Use(middleware.ErrorBoundary(deps.Logger))

	if deps.Templates != nil {
		r.SetHTMLTemplate(deps.Templates)
	}
	r.StaticFS("/static", web.Static())

	r.GET("/health", handlers.Metrics.Health)
	r.GET("/ready", handlers.Metrics.Ready)
	r.GET("/metrics", handlers.Metrics.Prometheus)
	if cfg.Env != config.EnvProduction {
		r.GET("/docs/*any", ginSwagger.WrapHandler(swaggerFiles.Handler))
	}

	session := middleware.Session(deps.Auth, deps.Workspaces, middleware.SessionOptions{
		CookieName:      cfg.Session.CookieName,
		TokenCookieName: cfg.Session.TokenCookieName,
		Secure:          cfg.Session.SecureCookies,
		MaxAge:          cfg.Session.WorkspaceTTL,
	})

	pages := r.Group("/", session)
	{
		pages.GET("/", handlers.Landing.Index)
		pages.GET("/schedule", handlers.Schedule.Page)
		pages.GET("/schedule/export", handlers.Schedule.Export)
		pages.POST("/schedule/edit", handlers.Schedule.Unlock)
		pages.POST("/schedule/slot", handlers.Schedule.SetSlot)
		pages.POST("/schedule/save", middleware.Audit(deps.Logger, "save", "time_schedule"), handlers.Schedule.Save)
		pages.POST("/schedule/delete", middleware.Audit(deps.Logger, "delete", "time_schedule"), handlers.Schedule.Delete)
		pages.POST("/schedule/reload", handlers.Schedule.Reload)
	}

	api := r.Group("/api/v1", session)
	{
		api.GET("/schedule", handlers.Schedule.Get)
		api.GET("/papers", handlers.Landing.Papers)
	}

	r.GET("/ws/notifications", session, handlers.WS.Notifications)

	return r
}

func corsConfig(allowedOrigins []string) cors.Config {
	corsCfg := cors.DefaultConfig()
	if len(allowedOrigins) == 0 || (len(allowedOrigins) == 1 && allowedOrigins[0] == "*") {
		corsCfg.AllowAllOrigins = true
	} else {
		corsCfg.AllowOrigins = allowedOrigins
		corsCfg.AllowCredentials = true
	}
	corsCfg.AllowMethods = []string{"GET", "POST", "OPTIONS"}
	corsCfg.AllowHeaders = []string{"Origin", "Content-Type", "Accept", "Authorization", "X-Request-ID"}
	corsCfg.ExposeHeaders = []string{"X-Request-ID", "Content-Disposition"}
	corsCfg.MaxAge = 12 * time.Hour
	return corsCfg
}
