package main

import (
	"context"
	"errors"
	"time"

	"go-dashboard/internal/backend"
	"go-dashboard/internal/backend/mongostore"
	"go-dashboard/internal/config"
	"go-dashboard/internal/database"
	"go-dashboard/internal/logger"

	"go.uber.org/fx"
	"go.uber.org/fx/fxevent"
	"go.uber.org/zap"
)

const defaultFixtures = "cmd/seed/data/fixtures.json"

// Seed writes the fixtures file into the configured workspace and stops the app.
func Seed(lc fx.Lifecycle, cfg *config.Config, mongodb *database.MongodbDB, log *zap.Logger, shutdowner fx.Shutdowner) {
	lc.Append(fx.Hook{
		OnStart: func(ctx context.Context) error {
			if !mongodb.Enabled() {
				return errors.New("seeding needs BACKEND=mongo")
			}
			go func() {
				defer func() {
					if err := shutdowner.Shutdown(); err != nil {
						log.Error("Failed to shutdown", zap.Error(err))
					}
				}()

				path := cfg.FixturesFile
				if path == "" {
					path = defaultFixtures
				}
				log.Info("Seeding workspace", zap.String("workspace", cfg.WorkspaceID), zap.String("fixtures", path))

				fixtures, err := backend.LoadFixtures(path)
				if err != nil {
					log.Error("Failed to load fixtures", zap.Error(err))
					return
				}

				ctx, cancel := context.WithTimeout(context.Background(), time.Minute)
				defer cancel()

				store := mongostore.NewBackend(mongodb)
				if err := store.EnsureIndexes(ctx); err != nil {
					log.Error("Failed to create indexes", zap.Error(err))
					return
				}
				result, err := store.Seed(ctx, cfg.WorkspaceID, fixtures)
				if err != nil {
					log.Error("Seeding failed", zap.Error(err))
					return
				}
				for collection, count := range result {
					log.Info("Seeded collection", zap.String("collection", collection), zap.Int("count", count))
				}
				log.Info("Seeding completed")
			}()
			return nil
		},
	})
}

func main() {
	fx.New(
		fx.Provide(
			config.LoadConfig,
			database.NewDatabase,
			logger.NewLogger,
		),
		fx.WithLogger(func(log *zap.Logger) fxevent.Logger {
			return &fxevent.ZapLogger{Logger: log}
		}),
		fx.Invoke(Seed),
	).Run()
}
