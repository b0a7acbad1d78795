package repository

import (
	"context"
	"fmt"
	pointserrors "tablereserve/internal/points/errors"
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
	CollectionName = "Point_transactions"
)

// PointTransactionRepository is append-only: there is no update or delete.
type PointTransactionRepository interface {
	Create(ctx context.Context, tx *model.PointTransaction) error
	Find(ctx context.Context, userID string, limit int, offset int64) ([]*model.PointTransaction, error)
	Count(ctx context.Context, userID string) (int64, error)
	ExecuteTransaction(ctx context.Context, fn mongotx.TransactionFunc) error
}

type mongoPointTransactionRepository struct {
	cfg        *config.Config
	collection *mongo.Collection
	txManager  mongotx.TransactionManager
}

func NewMongoPointTransactionRepository(cfg *config.Config) PointTransactionRepository {
	db := cfg.Client.Mongo.Database(cfg.MongoDatabaseName)
	return &mongoPointTransactionRepository{
		cfg:        cfg,
		collection: db.Collection(CollectionName),
		txManager:  mongotx.NewTransactionManager(cfg.Client.Mongo),
	}
}

// userFilter matches one user's entries, or every entry when userID is empty.
func userFilter(userID string) bson.M {
	if userID == "" {
		return bson.M{}
	}
	return bson.M{"user_id": userID}
}

func (r *mongoPointTransactionRepository) Create(ctx context.Context, tx *model.PointTransaction) error {
	ctx, cancel := mongotx.WithTimeout(ctx, r.cfg.WriteTimeout)
	defer cancel()

	tx.CreatedAt = time.Now().UTC().Truncate(time.Millisecond)
	result, err := r.collection.InsertOne(ctx, tx)
	if err != nil {
		if mongo.IsDuplicateKeyError(err) {
			return pointserrors.ErrAlreadyRecorded
		}
		return fmt.Errorf("failed to create point transaction: %w", err)
	}

	if oid, ok := result.InsertedID.(primitive.ObjectID); ok {
		tx.ID = oid.Hex()
	}
	return nil
}

func (r *mongoPointTransactionRepository) Find(ctx context.Context, userID string, limit int, offset int64) ([]*model.PointTransaction, error) {
	ctx, cancel := mongotx.WithTimeout(ctx, r.cfg.ReadTimeout)
	defer cancel()

	opts := options.Find().
		SetSort(bson.D{{Key: "created_at", Value: -1}}).
		SetLimit(int64(limit)).
		SetSkip(offset)

	cursor, err := r.collection.Find(ctx, userFilter(userID), opts)
	if err != nil {
		return nil, fmt.Errorf("failed to find point transactions: %w", err)
	}
	defer cursor.Close(ctx)

	transactions := []*model.PointTransaction{}
	if err = cursor.All(ctx, &transactions); err != nil {
		return nil, fmt.Errorf("failed to decode point transactions: %w", err)
	}

	return transactions, nil
}

func (r *mongoPointTransactionRepository) Count(ctx context.Context, userID string) (int64, error) {
	ctx, cancel := mongotx.WithTimeout(ctx, r.cfg.ReadTimeout)
	defer cancel()

	count, err := r.collection.CountDocuments(ctx, userFilter(userID))
	if err != nil {
		return 0, fmt.Errorf("failed to count point transactions: %w", err)
	}
	return count, nil
}

func (r *mongoPointTransactionRepository) ExecuteTransaction(ctx context.Context, fn mongotx.TransactionFunc) error {
	return r.txManager.ExecuteTransaction(ctx, fn)
}
