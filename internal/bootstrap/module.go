package bootstrap

import (
	"context"
	"log/slog"

	"go.uber.org/fx"
	"gorm.io/gorm"

	"plantsync/internal/bootstrap/config"
	"plantsync/internal/bootstrap/database"
	"plantsync/internal/bootstrap/logging"
	"plantsync/internal/domain/entity"
	"plantsync/internal/domain/uid"
	businfra "plantsync/internal/infrastructure/bus"
	cacheinfra "plantsync/internal/infrastructure/cache"
	sqliterepo "plantsync/internal/infrastructure/persistence/sqlite/repository"
	sqliteuow "plantsync/internal/infrastructure/persistence/sqlite/uow"
	"plantsync/internal/ports"
	syncuc "plantsync/internal/usecase/sync"
)

var Module = fx.Options(
	fx.Provide(provideConfig),
	fx.Provide(provideDatabase),
	fx.Provide(provideApp),
	fx.Provide(sqliterepo.NewStoreLock),
	fx.Provide(
		fx.Annotate(
			sqliterepo.NewEquipmentRepository,
			fx.As(new(ports.EquipmentRepository)),
		),
	),
	fx.Provide(
		fx.Annotate(
			sqliterepo.NewCatalogRepository,
			fx.As(new(ports.CatalogRepository)),
		),
	),
	fx.Provide(
		fx.Annotate(
			sqliterepo.NewAuditLogReader,
			fx.As(new(ports.AuditReader)),
		),
	),
	fx.Provide(
		fx.Annotate(
			sqliteuow.NewUnitOfWork,
			fx.As(new(ports.UnitOfWork)),
		),
	),
	fx.Provide(
		fx.Annotate(
			cacheinfra.NewSQLiteCache,
			fx.As(new(ports.Cache)),
		),
	),
	fx.Provide(
		fx.Annotate(
			businfra.NewSyncBus,
			fx.As(new(ports.SyncBus)),
		),
	),
	fx.Provide(uid.NewGenerator),
	fx.Provide(provideWeights),
	fx.Provide(syncuc.NewService),
)

type configParams struct {
	fx.In

	Ctx        context.Context
	ConfigFile string `name:"configFile"`
}

func provideConfig(p configParams) (config.Config, error) {
	ctx := logging.WithAttrs(p.Ctx, slog.String("component", "bootstrap.fx"))
	return config.Load(ctx, p.ConfigFile)
}

func provideDatabase(lc fx.Lifecycle, ctx context.Context, cfg config.Config) (*gorm.DB, error) {
	logCtx := logging.WithAttrs(ctx, slog.String("component", "bootstrap.fx"))

	db, err := database.Open(logCtx, cfg.Database)
	if err != nil {
		return nil, err
	}

	lc.Append(fx.Hook{
		OnStop: func(_ context.Context) error {
			sqlDB, err := db.DB()
			if err != nil {
				return err
			}
			return sqlDB.Close()
		},
	})

	return db, nil
}

func provideApp(cfg config.Config, db *gorm.DB) *App {
	return &App{
		Config: cfg,
		DB:     db,
	}
}

func provideWeights(cfg config.Config) (entity.Weights, error) {
	return syncuc.LoadWeights(cfg.Scoring.ProfileFile)
}
