package main

import (
	"context"
	"time"

	mongoMigration "opacbookings/internal/migrations/mongo"
	"opacbookings/pkg/config"
)

const JobName = "catalog-mongo-migration"

func main() {
	ctx, cancel := context.WithTimeout(context.Background(), 120*time.Second)
	defer cancel()

	cfg := config.Load(JobName)
	cfg.SetMongo()
	defer cfg.GracefulShutdown()

	cfg.Log.Info("Starting Mongo migration job")
	if err := mongoMigration.RunMigration(ctx, cfg.Client.Mongo, cfg.MongoDatabaseName, cfg.Log); err != nil {
		cfg.Log.Fatal("Migration failed", "error", err)
	}
}
