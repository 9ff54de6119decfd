package v1

import (
	"github.com/gin-gonic/gin"

	"sessionhub/internal/core/apperror"
	"sessionhub/internal/domain/auth"
	"sessionhub/internal/domain/health"
	"sessionhub/internal/domain/users"
	"sessionhub/internal/infrastructure/http/v1/handlers"
	"sessionhub/internal/infrastructure/http/v1/middleware"
	"sessionhub/internal/infrastructure/ratelimit"
	"sessionhub/pkg/logger"
)

// RouterConfig holds router dependencies.
type RouterConfig struct {
	// Logger for request logging
	Logger *logger.Logger

	// Authenticator resolves access tokens into principals
	Authenticator middleware.Authenticator

	// Tokens selects where access tokens are read from
	Tokens middleware.TokenSource

	AuthService   *auth.Service
	UsersService  *users.Service
	HealthService *health.Service

	// Cookies controls session cookie attributes
	Cookies handlers.CookieConfig

	// Limiter enforces RateLimits; nil disables rate limiting
	Limiter    ratelimit.Limiter
	RateLimits RateLimits

	// Metrics is optional; when set, /metrics is exposed
	Metrics *middleware.Metrics

	// CORSOrigins lists browser origins allowed to send credentials
	CORSOrigins []string

	// Production selects gin release mode
	Production bool
}

// NewRouter creates and configures the Gin router.
func NewRouter(cfg RouterConfig) *gin.Engine {
	if cfg.Production {
		gin.SetMode(gin.ReleaseMode)
	}
	if cfg.Logger == nil {
		cfg.Logger = logger.Default()
	}

	router := gin.New()

	// Global middleware (order matters!)
	router.Use(middleware.Trace())
	if cfg.Metrics != nil {
		router.Use(cfg.Metrics.Middleware())
	}
	router.Use(middleware.Logger(cfg.Logger))
	router.Use(middleware.CORS(cfg.CORSOrigins))
	router.Use(middleware.ErrorHandler())
	router.Use(middleware.Recovery())

	router.NoRoute(func(c *gin.Context) {
		_ = c.Error(apperror.NewNotFound("route", c.Request.URL.Path))
	})

	g := guards{cfg: cfg}
	base := handlers.NewBaseHandler()

	if cfg.Metrics != nil {
		router.GET("/metrics", gin.WrapH(cfg.Metrics.Handler()))
	}

	registerHealthRoutes(router, g, base, cfg)
	registerAuthRoutes(router, g, base, cfg)
	registerUserRoutes(router, g, base, cfg)

	return router
}

func registerHealthRoutes(router *gin.Engine, g guards, base *handlers.BaseHandler, cfg RouterConfig) {
	if cfg.HealthService == nil {
		return
	}

	h := handlers.NewHealthHandler(base, cfg.HealthService)
	router.GET("/health", g.public(h.Health)...)
	router.GET("/db/ping", g.public(h.PingDB)...)
	router.GET("/storage/ping", g.public(h.PingStorage)...)
	router.GET("/redis/ping", g.public(h.PingRedis)...)
}

// registerAuthRoutes registers authentication endpoints.
// They carry their own IP-keyed budget instead of the general one.
func registerAuthRoutes(router *gin.Engine, g guards, base *handlers.BaseHandler, cfg RouterConfig) {
	if cfg.AuthService == nil {
		return
	}

	h := handlers.NewAuthHandler(base, cfg.AuthService, cfg.Cookies, cfg.Tokens)

	group := router.Group("/auth")
	use(group, g.limit(cfg.RateLimits.Auth, middleware.ByIP))

	login := []gin.HandlerFunc{}
	for _, l := range []gin.HandlerFunc{
		g.limit(cfg.RateLimits.LoginIP, middleware.ByIP),
		g.limit(cfg.RateLimits.LoginUsername, middleware.ByLoginUsername),
	} {
		if l != nil {
			login = append(login, l)
		}
	}

	group.POST("/register", h.Register)
	group.POST("/login", append(login, h.Login)...)
	group.POST("/refresh", h.Refresh)
	group.POST("/logout", h.Logout)
}

func registerUserRoutes(router *gin.Engine, g guards, base *handlers.BaseHandler, cfg RouterConfig) {
	if cfg.UsersService == nil || cfg.AuthService == nil {
		return
	}

	h := handlers.NewUsersHandler(base, cfg.UsersService, cfg.AuthService)

	group := router.Group("/users")
	group.GET("/me", g.route(auth.Required().WithPermissionsLoaded(), h.Me)...)
	group.GET("/:id", g.route(auth.Optional(), h.Get)...)
	group.POST("/:id/ban", g.route(auth.Required(auth.PermUsersBan), h.Ban)...)
	group.DELETE("/:id/ban", g.route(auth.Required(auth.PermUsersBan), h.Unban)...)
	group.POST("/:id/roles", g.route(auth.Required(auth.PermRolesAssign), h.AssignRole)...)
}
