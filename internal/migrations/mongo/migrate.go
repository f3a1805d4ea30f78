package mongo

import (
	"context"
	"fmt"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"opacbookings/internal/catalog/repository"
	"opacbookings/internal/migrations/mongo/validators"
	"opacbookings/pkg/logger"
)

var (
	ItemsIndexes = []mongo.IndexModel{
		{Keys: bson.D{{Key: "item_id", Value: 1}}, Options: options.Index().SetUnique(true)},
		{Keys: bson.D{{Key: "biblio_id", Value: 1}, {Key: "bookable", Value: 1}}},
	}

	BookingsIndexes = []mongo.IndexModel{
		{Keys: bson.D{{Key: "booking_id", Value: 1}}, Options: options.Index().SetUnique(true)},
		{Keys: bson.D{
			{Key: "biblio_id", Value: 1},
			{Key: "start_date", Value: 1},
		}},
		{Keys: bson.D{
			{Key: "item_id", Value: 1},
			{Key: "start_date", Value: 1},
			{Key: "end_date", Value: 1},
		}},
		{Keys: bson.D{
			{Key: "patron_id", Value: 1},
			{Key: "start_date", Value: 1},
		}},
	}

	LibrariesIndexes = []mongo.IndexModel{
		{Keys: bson.D{{Key: "library_id", Value: 1}}, Options: options.Index().SetUnique(true)},
	}

	RulesIndexes = []mongo.IndexModel{
		{Keys: bson.D{
			{Key: "patron_category_id", Value: 1},
			{Key: "item_type_id", Value: 1},
			{Key: "library_id", Value: 1},
		}, Options: options.Index().SetUnique(true)},
	}

	PatronsIndexes = []mongo.IndexModel{
		{Keys: bson.D{{Key: "patron_id", Value: 1}}, Options: options.Index().SetUnique(true)},
	}

	BibliosIndexes = []mongo.IndexModel{
		{Keys: bson.D{{Key: "biblio_id", Value: 1}}, Options: options.Index().SetUnique(true)},
	}
)

type CollectionDef struct {
	Indexes   []mongo.IndexModel
	Validator bson.M
}

// Collections lists every collection the Mongo catalog reads, with its
// indexes and schema validator. A nil validator leaves the collection
// unvalidated.
func Collections() map[string]CollectionDef {
	return map[string]CollectionDef{
		repository.ItemsCollection:     {Indexes: ItemsIndexes, Validator: validators.ItemValidator},
		repository.BookingsCollection:  {Indexes: BookingsIndexes, Validator: validators.BookingValidator},
		repository.LibrariesCollection: {Indexes: LibrariesIndexes},
		repository.RulesCollection:     {Indexes: RulesIndexes, Validator: validators.RuleValidator},
		repository.PatronsCollection:   {Indexes: PatronsIndexes},
		repository.BibliosCollection:   {Indexes: BibliosIndexes},
		repository.CountersCollection:  {},
	}
}

func RunMigration(ctx context.Context, client *mongo.Client, dbName string, log *logger.Logger) error {
	db := client.Database(dbName)
	log.Info("Running catalog Mongo migrations", "database", dbName)

	for name, def := range Collections() {
		if err := ensureCollection(ctx, db, name, def.Validator, log); err != nil {
			return fmt.Errorf("failed to ensure collection %s: %w", name, err)
		}
		if len(def.Indexes) == 0 {
			continue
		}
		if err := ensureIndexes(ctx, db, name, def.Indexes); err != nil {
			return fmt.Errorf("failed to ensure indexes for %s: %w", name, err)
		}
		log.Info("Ensured indexes", "collection", name, "count", len(def.Indexes))
	}

	log.Info("All migrations applied successfully")
	return nil
}

func ensureCollection(ctx context.Context, db *mongo.Database, name string, validator bson.M, log *logger.Logger) error {
	existing, err := db.ListCollectionNames(ctx, bson.D{{Key: "name", Value: name}})
	if err != nil {
		return err
	}

	if len(existing) == 0 {
		log.Info("Creating collection", "collection", name)
		opts := options.CreateCollection()
		if validator != nil {
			opts.SetValidator(validator)
		}
		if err := db.CreateCollection(ctx, name, opts); err != nil {
			return fmt.Errorf("failed creating %s: %w", name, err)
		}
		return nil
	}

	if validator == nil {
		return nil
	}
	command := bson.D{
		{Key: "collMod", Value: name},
		{Key: "validator", Value: validator},
	}
	if err := db.RunCommand(ctx, command).Err(); err != nil {
		log.Warn("Failed updating validator", "collection", name, "error", err)
	}
	return nil
}

func ensureIndexes(ctx context.Context, db *mongo.Database, name string, models []mongo.IndexModel) error {
	_, err := db.Collection(name).Indexes().CreateMany(ctx, models)
	return err
}
