package repository

import (
	"context"
	"errors"
	"fmt"
	restaurantserrors "tablereserve/internal/restaurants/errors"
	"tablereserve/pkg/config"
	mongotx "tablereserve/pkg/db/mongo"
	"tablereserve/pkg/model"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

const (
	CollectionName = "Restaurants"
)

type RestaurantRepository interface {
	Create(ctx context.Context, restaurant *model.Restaurant) error
	FindByID(ctx context.Context, id string) (*model.Restaurant, error)
	FindAll(ctx context.Context, limit int, offset int64) ([]*model.Restaurant, error)
	Count(ctx context.Context) (int64, error)
	Update(ctx context.Context, id string, restaurant *model.Restaurant) error
	Delete(ctx context.Context, id string) error
	ExecuteTransaction(ctx context.Context, fn mongotx.TransactionFunc) error
}

type mongoRestaurantRepository struct {
	cfg        *config.Config
	collection *mongo.Collection
	txManager  mongotx.TransactionManager
}

func NewMongoRestaurantRepository(cfg *config.Config) RestaurantRepository {
	db := cfg.Client.Mongo.Database(cfg.MongoDatabaseName)
	return &mongoRestaurantRepository{
		cfg:        cfg,
		collection: db.Collection(CollectionName),
		txManager:  mongotx.NewTransactionManager(cfg.Client.Mongo),
	}
}

func objectID(id string) (primitive.ObjectID, error) {
	oid, err := primitive.ObjectIDFromHex(id)
	if err != nil {
		return primitive.NilObjectID, fmt.Errorf("%w: %s", restaurantserrors.ErrInvalidID, id)
	}
	return oid, nil
}

func (r *mongoRestaurantRepository) Create(ctx context.Context, restaurant *model.Restaurant) error {
	ctx, cancel := mongotx.WithTimeout(ctx, r.cfg.WriteTimeout)
	defer cancel()

	restaurant.CreatedAt = time.Now().UTC().Truncate(time.Millisecond)
	result, err := r.collection.InsertOne(ctx, restaurant)
	if err != nil {
		if mongo.IsDuplicateKeyError(err) {
			return restaurantserrors.ErrDuplicateName
		}
		return fmt.Errorf("failed to create restaurant: %w", err)
	}

	if oid, ok := result.InsertedID.(primitive.ObjectID); ok {
		restaurant.ID = oid.Hex()
	}
	return nil
}

func (r *mongoRestaurantRepository) FindByID(ctx context.Context, id string) (*model.Restaurant, error) {
	ctx, cancel := mongotx.WithTimeout(ctx, r.cfg.ReadTimeout)
	defer cancel()

	oid, err := objectID(id)
	if err != nil {
		return nil, err
	}

	var restaurant model.Restaurant
	err = r.collection.FindOne(ctx, bson.M{"_id": oid}).Decode(&restaurant)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, restaurantserrors.ErrNotFound
		}
		return nil, fmt.Errorf("failed to find restaurant: %w", err)
	}

	return &restaurant, nil
}

func (r *mongoRestaurantRepository) FindAll(ctx context.Context, limit int, offset int64) ([]*model.Restaurant, error) {
	ctx, cancel := mongotx.WithTimeout(ctx, r.cfg.ReadTimeout)
	defer cancel()

	opts := options.Find().
		SetSort(bson.D{{Key: "name", Value: 1}}).
		SetLimit(int64(limit)).
		SetSkip(offset)

	cursor, err := r.collection.Find(ctx, bson.M{}, opts)
	if err != nil {
		return nil, fmt.Errorf("failed to find restaurants: %w", err)
	}
	defer cursor.Close(ctx)

	restaurants := []*model.Restaurant{}
	if err = cursor.All(ctx, &restaurants); err != nil {
		return nil, fmt.Errorf("failed to decode restaurants: %w", err)
	}

	return restaurants, nil
}

func (r *mongoRestaurantRepository) Count(ctx context.Context) (int64, error) {
	ctx, cancel := mongotx.WithTimeout(ctx, r.cfg.ReadTimeout)
	defer cancel()

	count, err := r.collection.CountDocuments(ctx, bson.M{})
	if err != nil {
		return 0, fmt.Errorf("failed to count restaurants: %w", err)
	}
	return count, nil
}

func (r *mongoRestaurantRepository) Update(ctx context.Context, id string, restaurant *model.Restaurant) error {
	ctx, cancel := mongotx.WithTimeout(ctx, r.cfg.WriteTimeout)
	defer cancel()

	oid, err := objectID(id)
	if err != nil {
		return err
	}

	update := bson.M{"$set": bson.M{
		"name":          restaurant.Name,
		"address":       restaurant.Address,
		"district":      restaurant.District,
		"province":      restaurant.Province,
		"postal_code":   restaurant.PostalCode,
		"tel":           restaurant.Tel,
		"region":        restaurant.Region,
		"open_time":     restaurant.OpenTime,
		"close_time":    restaurant.CloseTime,
		"small_tables":  restaurant.SmallTable,
		"medium_tables": restaurant.MediumTable,
		"large_tables":  restaurant.LargeTable,
	}}

	result, err := r.collection.UpdateOne(ctx, bson.M{"_id": oid}, update)
	if err != nil {
		if mongo.IsDuplicateKeyError(err) {
			return restaurantserrors.ErrDuplicateName
		}
		return fmt.Errorf("failed to update restaurant: %w", err)
	}
	if result.MatchedCount == 0 {
		return restaurantserrors.ErrNotFound
	}
	return nil
}

func (r *mongoRestaurantRepository) Delete(ctx context.Context, id string) error {
	ctx, cancel := mongotx.WithTimeout(ctx, r.cfg.WriteTimeout)
	defer cancel()

	oid, err := objectID(id)
	if err != nil {
		return err
	}

	result, err := r.collection.DeleteOne(ctx, bson.M{"_id": oid})
	if err != nil {
		return fmt.Errorf("failed to delete restaurant: %w", err)
	}
	if result.DeletedCount == 0 {
		return restaurantserrors.ErrNotFound
	}
	return nil
}

func (r *mongoRestaurantRepository) ExecuteTransaction(ctx context.Context, fn mongotx.TransactionFunc) error {
	return r.txManager.ExecuteTransaction(ctx, fn)
}
