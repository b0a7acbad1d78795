package mongo

import (
	"context"
	"fmt"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"tablereserve/internal/migrations/mongo/validators"
	"tablereserve/pkg/logger"
)

var (
	ReservationsIndexes = []mongo.IndexModel{
		{Keys: bson.D{
			{Key: "restaurant_id", Value: 1},
			{Key: "res_date", Value: 1},
			{Key: "table_size", Value: 1},
			{Key: "status", Value: 1},
		}},
		{Keys: bson.D{
			{Key: "user_id", Value: 1},
			{Key: "status", Value: 1},
		}},
		// One live booking per user, restaurant and start; finished
		// reservations fall out of the index.
		{
			Keys: bson.D{
				{Key: "user_id", Value: 1},
				{Key: "restaurant_id", Value: 1},
				{Key: "res_date", Value: 1},
				{Key: "res_start_time", Value: 1},
			},
			Options: options.Index().
				SetName("uniq_live_reservation").
				SetUnique(true).
				SetPartialFilterExpression(bson.M{"status": "pending", "locked_by_admin": false}),
		},
	}

	RestaurantsIndexes = []mongo.IndexModel{
		{
			Keys:    bson.D{{Key: "name", Value: 1}},
			Options: options.Index().SetName("uniq_restaurant_name").SetUnique(true),
		},
	}

	PointTransactionsIndexes = []mongo.IndexModel{
		{
			Keys: bson.D{
				{Key: "source", Value: 1},
				{Key: "source_id", Value: 1},
				{Key: "type", Value: 1},
			},
			Options: options.Index().SetName("uniq_point_source").SetUnique(true),
		},
		{Keys: bson.D{
			{Key: "user_id", Value: 1},
			{Key: "created_at", Value: -1},
		}},
	}

	NotificationsIndexes = []mongo.IndexModel{
		{Keys: bson.D{
			{Key: "user_id", Value: 1},
			{Key: "created_at", Value: -1},
		}},
	}

	ReservationLocksIndexes = []mongo.IndexModel{
		{
			Keys:    bson.D{{Key: "expires_at", Value: 1}},
			Options: options.Index().SetName("ttl_lock_expiry").SetExpireAfterSeconds(0),
		},
	}
)

type collectionDef struct {
	Indexes   []mongo.IndexModel
	Validator bson.M
}

// Collections lists every collection the services write, keyed by name.
var Collections = map[string]collectionDef{
	"Reservations":       {Indexes: ReservationsIndexes, Validator: validators.ReservationValidator},
	"Restaurants":        {Indexes: RestaurantsIndexes, Validator: validators.RestaurantValidator},
	"Point_transactions": {Indexes: PointTransactionsIndexes, Validator: validators.PointTransactionValidator},
	"Notifications":      {Indexes: NotificationsIndexes, Validator: validators.NotificationValidator},
	"Reservation_locks":  {Indexes: ReservationLocksIndexes, Validator: validators.ReservationLockValidator},
}

func RunMigration(ctx context.Context, client *mongo.Client, dbName string, log *logger.Logger) error {
	db := client.Database(dbName)
	log.Info("Running Mongo migrations", "database", dbName)

	for name, def := range Collections {
		if err := ensureCollection(ctx, db, name, def.Validator, log); err != nil {
			return fmt.Errorf("failed to ensure collection %s: %w", name, err)
		}
		if err := ensureIndexes(ctx, db, name, def.Indexes, log); err != nil {
			return fmt.Errorf("failed to ensure indexes for %s: %w", name, err)
		}
	}

	log.Info("All migrations applied successfully", "database", dbName)
	return nil
}

func ensureCollection(ctx context.Context, db *mongo.Database, name string, validator bson.M, log *logger.Logger) error {
	existing, err := db.ListCollectionNames(ctx, bson.D{{Key: "name", Value: name}})
	if err != nil {
		return err
	}

	if len(existing) == 0 {
		log.Info("Creating collection", "collection", name)
		opts := options.CreateCollection().SetValidator(validator)
		if err := db.CreateCollection(ctx, name, opts); err != nil {
			return fmt.Errorf("failed creating %s: %w", name, err)
		}
		return nil
	}

	log.Info("Collection exists, updating validator", "collection", name)
	command := bson.D{
		{Key: "collMod", Value: name},
		{Key: "validator", Value: validator},
	}
	if err := db.RunCommand(ctx, command).Err(); err != nil {
		log.Warn("Failed updating validator", "collection", name, "error", err)
	}
	return nil
}

func ensureIndexes(ctx context.Context, db *mongo.Database, name string, models []mongo.IndexModel, log *logger.Logger) error {
	if len(models) == 0 {
		return nil
	}
	if _, err := db.Collection(name).Indexes().CreateMany(ctx, models); err != nil {
		return err
	}
	log.Info("Ensured indexes", "collection", name, "count", len(models))
	return nil
}
