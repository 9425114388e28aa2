package components

import (
	"context"

	"repairmatch/internal/pkg/config"
	"repairmatch/internal/pkg/metrics"
	"repairmatch/internal/realtime"
	"repairmatch/internal/usecase/commands"

	"github.com/redis/go-redis/v9"
	"go.uber.org/fx"
)

var RealtimeModule = fx.Module("realtime",
	fx.Provide(
		NewHub,
		NewBus,
		realtime.NewService,
		func(s *realtime.Service) commands.ChatBroadcaster { return s },
	),
)

func NewHub(lc fx.Lifecycle, m *metrics.Metrics) *realtime.Hub {
	hub := realtime.NewHub(m)

	lc.Append(fx.Hook{
		OnStop: func(_ context.Context) error {
			hub.Shutdown()
			return nil
		},
	})

	return hub
}

// NewBus selects the fan-out strategy: Redis pub/sub when REDIS_ADDR is set,
// otherwise events stay in-process.
func NewBus(lc fx.Lifecycle, hub *realtime.Hub, cfg config.Config) realtime.Bus {
	if cfg.Redis.Addr == "" {
		return realtime.NewLocalBus(hub)
	}

	client := redis.NewClient(&redis.Options{Addr: cfg.Redis.Addr})
	bus := realtime.NewRedisBus(hub, client, cfg.Redis.Channel)

	lc.Append(fx.Hook{
		OnStart: func(ctx context.Context) error {
			return bus.Start(ctx)
		},
		OnStop: func(_ context.Context) error {
			if err := bus.Stop(); err != nil {
				return err
			}
			return client.Close()
		},
	})

	return bus
}
