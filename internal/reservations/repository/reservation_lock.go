package repository

import (
	"context"
	"fmt"
	reservationserrors "tablereserve/internal/reservations/errors"
	"tablereserve/pkg/config"
	mongotx "tablereserve/pkg/db/mongo"
	"tablereserve/pkg/model"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
)

const LockCollectionName = "Reservation_locks"

// ReservationLockRepository provides advisory locks keyed by string.
type ReservationLockRepository interface {
	Acquire(ctx context.Context, key, owner string, ttl time.Duration) error
	Release(ctx context.Context, key, owner string) error
}

type mongoReservationLockRepository struct {
	cfg        *config.Config
	collection *mongo.Collection
}

func NewReservationLockRepository(cfg *config.Config) ReservationLockRepository {
	db := cfg.Client.Mongo.Database(cfg.MongoDatabaseName)
	return &mongoReservationLockRepository{
		cfg:        cfg,
		collection: db.Collection(LockCollectionName),
	}
}

// Acquire inserts the lock document. A live holder yields ErrLockHeld; an
// expired one the TTL monitor has not reaped yet is removed and retried once.
func (r *mongoReservationLockRepository) Acquire(ctx context.Context, key, owner string, ttl time.Duration) error {
	ctx, cancel := mongotx.WithTimeout(ctx, r.cfg.WriteTimeout)
	defer cancel()

	for attempt := 0; attempt < 2; attempt++ {
		now := time.Now().UTC()
		lock := &model.ReservationLock{
			ID:        key,
			Owner:     owner,
			ExpiresAt: now.Add(ttl),
			CreatedAt: now,
		}

		_, err := r.collection.InsertOne(ctx, lock)
		if err == nil {
			return nil
		}
		if !mongo.IsDuplicateKeyError(err) {
			return fmt.Errorf("failed to acquire lock %s: %w", key, err)
		}

		result, err := r.collection.DeleteOne(ctx, bson.M{"_id": key, "expires_at": bson.M{"$lt": now}})
		if err != nil {
			return fmt.Errorf("failed to reap expired lock %s: %w", key, err)
		}
		if result.DeletedCount == 0 {
			break
		}
	}
	return reservationserrors.ErrLockHeld
}

// Release removes the lock only if owner still holds it.
func (r *mongoReservationLockRepository) Release(ctx context.Context, key, owner string) error {
	ctx, cancel := mongotx.WithTimeout(ctx, r.cfg.WriteTimeout)
	defer cancel()

	_, err := r.collection.DeleteOne(ctx, bson.M{"_id": key, "owner": owner})
	return err
}
