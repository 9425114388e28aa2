package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"repairmatch/internal/domain/user"
	"repairmatch/internal/handler/api"
	"repairmatch/internal/handler/middleware"
	"repairmatch/internal/pkg/config"
	"repairmatch/internal/pkg/metrics"
)

type route struct {
	Method  string
	Path    string
	Handler gin.HandlerFunc
	Mw      []gin.HandlerFunc
}

func NewRouter(
	engine *gin.Engine,
	cfg config.Config,
	m *metrics.Metrics,
	authHandler *api.AuthHandler,
	requestHandler *api.RequestHandler,
	chatHandler *api.ChatHandler,
	authMiddleware *middleware.AuthMiddleware,
) {
	setupMiddleware(engine, cfg)
	setupRoutes(engine, m, authHandler, requestHandler, chatHandler, authMiddleware)
}

func setupMiddleware(engine *gin.Engine, cfg config.Config) {
	// Recovery must be first (outermost) to catch panics from all other middleware
	engine.Use(middleware.CustomRecovery())
	engine.Use(middleware.NewCORSMiddleware(cfg.CORS))
	engine.Use(middleware.NewLogger(cfg.Log).LoggingMiddleware())
	engine.Use(middleware.ErrorHandler())
}

func setupRoutes(
	engine *gin.Engine,
	m *metrics.Metrics,
	authHandler *api.AuthHandler,
	requestHandler *api.RequestHandler,
	chatHandler *api.ChatHandler,
	authMiddleware *middleware.AuthMiddleware,
) {
	engine.GET("/health", healthCheck)
	engine.GET("/metrics", gin.WrapH(promhttp.HandlerFor(m.Registry, promhttp.HandlerOpts{})))

	apiGroup := engine.Group("/api")
	{
		auth := apiGroup.Group("/auth")
		{
			addRoutes(auth, []route{
				{Method: http.MethodPost, Path: "/login", Handler: authHandler.Login},
			})

			authRequired := auth.Group("")
			authRequired.Use(authMiddleware.RequireAuth())
			addRoutes(authRequired, []route{
				{Method: http.MethodPost, Path: "/logout", Handler: authHandler.Logout},
				{Method: http.MethodGet, Path: "/me", Handler: authHandler.Me},
			})
		}

		requests := apiGroup.Group("/requests")
		requests.Use(authMiddleware.RequireAuth())
		{
			customerOnly := authMiddleware.RequireKind(user.KindCustomer)
			storeOnly := authMiddleware.RequireKind(user.KindStore)

			addRoutes(requests, []route{
				{Method: http.MethodPost, Path: "", Handler: requestHandler.Create, Mw: []gin.HandlerFunc{customerOnly}},
				{Method: http.MethodGet, Path: "", Handler: requestHandler.List},
				{Method: http.MethodGet, Path: "/:id", Handler: requestHandler.Get},
				{Method: http.MethodDelete, Path: "/:id", Handler: requestHandler.Withdraw, Mw: []gin.HandlerFunc{customerOnly}},
				{Method: http.MethodPost, Path: "/accept", Handler: requestHandler.Accept, Mw: []gin.HandlerFunc{storeOnly}},
				{Method: http.MethodPost, Path: "/:id/complete", Handler: requestHandler.Complete, Mw: []gin.HandlerFunc{storeOnly}},
				{Method: http.MethodPost, Path: "/:id/cancel", Handler: requestHandler.Cancel, Mw: []gin.HandlerFunc{storeOnly}},
				{Method: http.MethodGet, Path: "/:id/messages", Handler: chatHandler.Messages},
			})
		}

		admin := apiGroup.Group("/admin/requests")
		admin.Use(authMiddleware.RequireAuth(), authMiddleware.RequireKind(user.KindAdmin))
		{
			addRoutes(admin, []route{
				{Method: http.MethodPost, Path: "/:id/cancel", Handler: requestHandler.AdminCancel},
				{Method: http.MethodPost, Path: "/:id/block-messages", Handler: requestHandler.BlockMessages},
			})
		}

		chat := apiGroup.Group("/chat")
		chat.Use(authMiddleware.RequireAuth())
		{
			storeOnly := authMiddleware.RequireKind(user.KindStore)

			addRoutes(chat, []route{
				{Method: http.MethodGet, Path: "/stream", Handler: chatHandler.Stream},
				{Method: http.MethodPost, Path: "/join", Handler: chatHandler.Join},
				{Method: http.MethodPost, Path: "/messages", Handler: chatHandler.SendMessage},
				{Method: http.MethodPost, Path: "/read", Handler: chatHandler.MarkRead, Mw: []gin.HandlerFunc{storeOnly}},
				{Method: http.MethodGet, Path: "/inbox", Handler: chatHandler.Inbox, Mw: []gin.HandlerFunc{storeOnly}},
			})
		}
	}
}

func healthCheck(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"status":  "ok",
		"message": "Service is healthy",
	})
}

func addRoutes(g *gin.RouterGroup, rs []route) {
	for _, r := range rs {
		h := r.Handler
		if len(r.Mw) > 0 {
			h = chainHandlers(append(r.Mw, r.Handler)...)
		}
		switch r.Method {
		case http.MethodGet:
			g.GET(r.Path, h)
		case http.MethodPost:
			g.POST(r.Path, h)
		case http.MethodPut:
			g.PUT(r.Path, h)
		case http.MethodPatch:
			g.PATCH(r.Path, h)
		case http.MethodDelete:
			g.DELETE(r.Path, h)
		default:
			g.Any(r.Path, h)
		}
	}
}

func chainHandlers(hs ...gin.HandlerFunc) gin.HandlerFunc {
	return func(c *gin.Context) {
		for _, h := range hs {
			h(c)
			if c.IsAborted() {
				return
			}
		}
	}
}
