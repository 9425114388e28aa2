package components

import (
	"repairmatch/internal/infra/db"
	"repairmatch/internal/infra/readstore"
	"repairmatch/internal/infra/uow"
	"repairmatch/internal/usecase/commands"
	"repairmatch/internal/usecase/matching"
	"repairmatch/internal/usecase/queries"

	"github.com/jackc/pgx/v5/pgxpool"
	"go.uber.org/fx"
)

var RepositoryModule = fx.Module("repository",
	fx.Provide(
		NewDBTX,
		uow.NewPostgresUoW,
		fx.Annotate(
			readstore.NewCatalogReadStore,
			fx.As(new(matching.CatalogReads)),
		),
		fx.Annotate(
			readstore.NewRequestReadStore,
			fx.As(new(queries.RequestViewRepo)),
		),
		fx.Annotate(
			readstore.NewChatReadStore,
			fx.As(new(queries.ChatViewRepo)),
		),
		fx.Annotate(
			readstore.NewUserReadStore,
			fx.As(new(commands.UserReads)),
		),
	),
)

func NewDBTX(pool *pgxpool.Pool) db.DBTX {
	return pool
}
