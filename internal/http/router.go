package http

import (
	"context"
	"log/slog"

	"github.com/geocoder89/accounts/internal/account"
	"github.com/geocoder89/accounts/internal/domain/user"
	"github.com/geocoder89/accounts/internal/http/handlers"
	"github.com/geocoder89/accounts/internal/http/middlewares"
	"github.com/geocoder89/accounts/internal/observability"
	"github.com/gin-gonic/gin"
	"go.opentelemetry.io/contrib/instrumentation/github.com/gin-gonic/gin/otelgin"
)

// Accounts is what the routes need from account.Service.
type Accounts interface {
	handlers.AccountService
	ResolveIdentity(ctx context.Context, accessToken string) (user.User, error)
}

var _ Accounts = (*account.Service)(nil)

type RouterConfig struct {
	Env            string
	ServiceName    string
	AllowedOrigins []string
	MaxBodyBytes   int64
}

type Deps struct {
	Accounts Accounts
	Prom     *observability.Prom
	Checks   map[string]handlers.Pinger
}

func NewRouter(log *slog.Logger, cfg RouterConfig, deps Deps) *gin.Engine {
	if cfg.Env != "dev" {
		gin.SetMode(gin.ReleaseMode)
	}
	r := gin.New()

	// middleware

	r.Use(gin.Recovery())
	if cfg.ServiceName != "" {
		r.Use(otelgin.Middleware(cfg.ServiceName))
	}
	r.Use(middlewares.RequestID())
	r.Use(middlewares.RequestLogger(log))
	r.Use(middlewares.SecurityHeaders(cfg.Env == "prod"))
	r.Use(middlewares.CORSMiddleware(cfg.AllowedOrigins))
	if cfg.MaxBodyBytes > 0 {
		r.Use(middlewares.MaxBodyBytes(cfg.MaxBodyBytes))
	}
	if deps.Prom != nil {
		r.Use(deps.Prom.GinHandleMiddleware())
		r.GET("/metrics", gin.WrapH(deps.Prom.Handler()))
	}

	// health
	h := handlers.NewHealthHandler(deps.Checks)
	r.GET("/healthz", h.Healthz)
	r.GET("/readyz", h.Readyz)

	r.GET("/", handlers.Root)

	docs := handlers.NewDocsHandler(cfg.ServiceName)
	r.GET("/api/docs", docs.SwaggerUI)
	r.GET("/api/docs/openapi.yaml", docs.OpenAPI)

	// users
	authHandler := handlers.NewAuthHandler(deps.Accounts)
	authMW := middlewares.NewAuthMiddleware(deps.Accounts)

	users := r.Group("/api/users")
	{
		// login is an OAuth2 password grant, so it takes a form body
		users.POST("/login", authHandler.Login)
		users.POST("/signup", middlewares.RequireJSON(), authHandler.SignUp)
		users.POST("/refresh", middlewares.RequireJSON(), authHandler.Refresh)

		authed := users.Group("", authMW.RequireAuth())
		authed.GET("/me", authHandler.Me)
		authed.GET("/:id", authHandler.GetByID)
	}

	return r
}
