package components

import (
	"repairmatch/internal/handler"
	"repairmatch/internal/handler/api"
	"repairmatch/internal/handler/middleware"
	"repairmatch/internal/pkg/config"

	"go.uber.org/fx"
)

var HandlerModule = fx.Module("handler",
	fx.Provide(
		func(cfg config.Config) config.JWTConfig { return cfg.JWT },
		func(cfg config.Config) config.CookieConfig { return cfg.Cookie },
		api.NewAuthHandler,
		api.NewRequestHandler,
		api.NewChatHandler,
		middleware.NewAuthMiddleware,
	),
	fx.Invoke(handler.NewRouter),
)
