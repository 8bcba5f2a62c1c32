package app

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/N1seb/Render/internal/adapters/secondary/storage/pg"
	"github.com/N1seb/Render/internal/pkg/logger"
	"github.com/jmoiron/sqlx"
)

type App struct {
	Name string
	Cfg  *Config
	Log  *slog.Logger
}

func New(name string, cfg *Config) (*App, error) {
	log, err := logger.New(name, cfg.Log)
	if err != nil {
		return nil, fmt.Errorf("failed to init logger: %w", err)
	}

	return &App{
		Name: name,
		Cfg:  cfg,
		Log:  log,
	}, nil
}

func (a *App) Run(ctx context.Context) error {
	a.Log.Info("starting application")

	deps, err := a.initDependencies(ctx)
	if err != nil {
		return fmt.Errorf("failed to init dependencies: %w", err)
	}

	return a.runServices(ctx, deps)
}

// initPostgres подключается к PostgreSQL и применяет миграции
func (a *App) initPostgres(ctx context.Context) (*sqlx.DB, error) {
	db, err := a.Cfg.Postgres.NewConnection()
	if err != nil {
		return nil, fmt.Errorf("failed to connect to postgres: %w", err)
	}

	a.Log.Info("postgres connected successfully")

	if err := pg.RunMigrations(ctx, db, a.Log); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("failed to run migrations: %w", err)
	}

	return db, nil
}
