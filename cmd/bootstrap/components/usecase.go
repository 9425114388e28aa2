package components

import (
	"context"
	"time"

	"repairmatch/internal/integration/webhook"
	"repairmatch/internal/pkg/clock"
	"repairmatch/internal/pkg/config"
	"repairmatch/internal/pkg/metrics"
	"repairmatch/internal/pkg/rateguard"
	"repairmatch/internal/realtime"
	"repairmatch/internal/usecase/commands"
	"repairmatch/internal/usecase/matching"
	"repairmatch/internal/usecase/queries"
	"repairmatch/internal/usecase/shared"

	"go.uber.org/fx"
)

var UseCaseModule = fx.Module("usecase",
	usecaseBaseOption,
	usecaseCommandsModule,
	usecaseQueriesModule,
)

var usecaseBaseOption = fx.Provide(
	clock.NewRealClock,
	metrics.New,
	NewRateGuard,
	NewStoreMatcher,
	matching.NewPriceResolver,
	fx.Annotate(
		NewSyncNotifier,
		fx.As(new(commands.SyncNotifier)),
	),
	func(cfg config.Config) config.RequestsConfig { return cfg.Requests },
)

var usecaseCommandsModule = fx.Module("usecase/commands",
	fx.Provide(
		commands.NewAuthCommands,
		commands.NewRequestCommands,
		commands.NewChatCommands,
	),
)

var usecaseQueriesModule = fx.Module("usecase/queries",
	fx.Provide(
		queries.NewRequestQueries,
		queries.NewChatQueries,
	),
)

const rateGuardSweepInterval = time.Minute

func NewRateGuard(lc fx.Lifecycle, clk clock.Clock, cfg config.Config) *rateguard.Guard {
	guard := rateguard.New(clk)
	guard.Configure(commands.ActionCreateRequest, rateguard.Limit{
		Events: cfg.Requests.CreateLimit,
		Window: cfg.Requests.CreateWindow,
	})
	guard.Configure(commands.ActionSendMessage, rateguard.Limit{
		Events: cfg.Chat.SendLimit,
		Window: cfg.Chat.SendWindow,
	})
	guard.Configure(realtime.ActionJoin, rateguard.Limit{
		Events: cfg.Chat.JoinLimit,
		Window: cfg.Chat.JoinWindow,
	})

	// Join throttles are keyed by connection id, so idle keys pile up unless
	// swept.
	done := make(chan struct{})
	lc.Append(fx.Hook{
		OnStart: func(context.Context) error {
			go func() {
				ticker := time.NewTicker(rateGuardSweepInterval)
				defer ticker.Stop()
				for {
					select {
					case <-done:
						return
					case <-ticker.C:
						guard.Sweep()
					}
				}
			}()
			return nil
		},
		OnStop: func(context.Context) error {
			close(done)
			return nil
		},
	})
	return guard
}

func NewStoreMatcher(catalog matching.CatalogReads, cfg config.Config) *matching.StoreMatcher {
	return matching.NewStoreMatcher(catalog, cfg.Requests.FixedStoreID)
}

func NewSyncNotifier(uow shared.UnitOfWork, clk clock.Clock, cfg config.Config) *webhook.Notifier {
	return webhook.NewNotifier(uow, clk, cfg.Webhook)
}
