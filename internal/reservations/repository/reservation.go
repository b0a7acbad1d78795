package repository

import (
	"context"
	"errors"
	"fmt"
	reservationserrors "tablereserve/internal/reservations/errors"
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
	CollectionName = "Reservations"
)

type ReservationRepository interface {
	Create(ctx context.Context, reservation *model.Reservation) error
	FindByID(ctx context.Context, id string) (*model.Reservation, error)
	Find(ctx context.Context, filter model.ReservationFilter, limit int, offset int64) ([]*model.Reservation, error)
	Count(ctx context.Context, filter model.ReservationFilter) (int64, error)
	FindPendingForDay(ctx context.Context, restaurantID, date, tableSize string) ([]*model.Reservation, error)
	CountLive(ctx context.Context, userID string) (int64, error)
	ExistsLiveAt(ctx context.Context, userID, restaurantID, date, startTime, excludeID string) (bool, error)
	UpdateSchedule(ctx context.Context, id string, reservation *model.Reservation) error
	TransitionStatus(ctx context.Context, id, from, to string, lock bool) (*model.Reservation, error)
	Delete(ctx context.Context, id string) error
	DeleteByRestaurant(ctx context.Context, restaurantID string) (int64, error)
	ExecuteTransaction(ctx context.Context, fn mongotx.TransactionFunc) error
}

type mongoReservationRepository struct {
	cfg        *config.Config
	collection *mongo.Collection
	txManager  mongotx.TransactionManager
}

func NewMongoReservationRepository(cfg *config.Config) ReservationRepository {
	db := cfg.Client.Mongo.Database(cfg.MongoDatabaseName)
	return &mongoReservationRepository{
		cfg:        cfg,
		collection: db.Collection(CollectionName),
		txManager:  mongotx.NewTransactionManager(cfg.Client.Mongo),
	}
}

func liveFilter() bson.M {
	return bson.M{"status": model.StatusPending, "locked_by_admin": false}
}

func listFilter(filter model.ReservationFilter) bson.M {
	f := bson.M{}
	if filter.UserID != "" {
		f["user_id"] = filter.UserID
	}
	if filter.RestaurantID != "" {
		f["restaurant_id"] = filter.RestaurantID
	}
	return f
}

func objectID(id string) (primitive.ObjectID, error) {
	oid, err := primitive.ObjectIDFromHex(id)
	if err != nil {
		return primitive.NilObjectID, fmt.Errorf("%w: %s", reservationserrors.ErrInvalidID, id)
	}
	return oid, nil
}

func (r *mongoReservationRepository) Create(ctx context.Context, reservation *model.Reservation) error {
	ctx, cancel := mongotx.WithTimeout(ctx, r.cfg.WriteTimeout)
	defer cancel()

	now := time.Now().UTC().Truncate(time.Millisecond)
	reservation.CreatedAt = now
	reservation.UpdatedAt = now
	result, err := r.collection.InsertOne(ctx, reservation)
	if err != nil {
		if mongo.IsDuplicateKeyError(err) {
			return reservationserrors.ErrDuplicateLive
		}
		return fmt.Errorf("failed to create reservation: %w", err)
	}

	if oid, ok := result.InsertedID.(primitive.ObjectID); ok {
		reservation.ID = oid.Hex()
	}
	return nil
}

func (r *mongoReservationRepository) FindByID(ctx context.Context, id string) (*model.Reservation, error) {
	ctx, cancel := mongotx.WithTimeout(ctx, r.cfg.ReadTimeout)
	defer cancel()

	oid, err := objectID(id)
	if err != nil {
		return nil, err
	}

	var reservation model.Reservation
	err = r.collection.FindOne(ctx, bson.M{"_id": oid}).Decode(&reservation)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, reservationserrors.ErrNotFound
		}
		return nil, fmt.Errorf("failed to find reservation: %w", err)
	}

	return &reservation, nil
}

func (r *mongoReservationRepository) Find(ctx context.Context, filter model.ReservationFilter, limit int, offset int64) ([]*model.Reservation, error) {
	ctx, cancel := mongotx.WithTimeout(ctx, r.cfg.ReadTimeout)
	defer cancel()

	opts := options.Find().
		SetSort(bson.D{{Key: "res_date", Value: 1}, {Key: "res_start_time", Value: 1}}).
		SetLimit(int64(limit)).
		SetSkip(offset)

	cursor, err := r.collection.Find(ctx, listFilter(filter), opts)
	if err != nil {
		return nil, fmt.Errorf("failed to find reservations: %w", err)
	}
	defer cursor.Close(ctx)

	reservations := []*model.Reservation{}
	if err = cursor.All(ctx, &reservations); err != nil {
		return nil, fmt.Errorf("failed to decode reservations: %w", err)
	}

	return reservations, nil
}

func (r *mongoReservationRepository) Count(ctx context.Context, filter model.ReservationFilter) (int64, error) {
	ctx, cancel := mongotx.WithTimeout(ctx, r.cfg.ReadTimeout)
	defer cancel()

	count, err := r.collection.CountDocuments(ctx, listFilter(filter))
	if err != nil {
		return 0, fmt.Errorf("failed to count reservations: %w", err)
	}
	return count, nil
}

// FindPendingForDay returns the table-holding reservations of one restaurant
// day. An empty tableSize returns every class.
func (r *mongoReservationRepository) FindPendingForDay(ctx context.Context, restaurantID, date, tableSize string) ([]*model.Reservation, error) {
	ctx, cancel := mongotx.WithTimeout(ctx, r.cfg.ReadTimeout)
	defer cancel()

	filter := bson.M{
		"restaurant_id": restaurantID,
		"res_date":      date,
		"status":        model.StatusPending,
	}
	if tableSize != "" {
		filter["table_size"] = tableSize
	}

	cursor, err := r.collection.Find(ctx, filter)
	if err != nil {
		return nil, fmt.Errorf("failed to find reservations for day: %w", err)
	}
	defer cursor.Close(ctx)

	var reservations []*model.Reservation
	if err = cursor.All(ctx, &reservations); err != nil {
		return nil, fmt.Errorf("failed to decode reservations: %w", err)
	}
	return reservations, nil
}

func (r *mongoReservationRepository) CountLive(ctx context.Context, userID string) (int64, error) {
	ctx, cancel := mongotx.WithTimeout(ctx, r.cfg.ReadTimeout)
	defer cancel()

	filter := liveFilter()
	filter["user_id"] = userID

	count, err := r.collection.CountDocuments(ctx, filter)
	if err != nil {
		return 0, fmt.Errorf("failed to count live reservations: %w", err)
	}
	return count, nil
}

// ExistsLiveAt reports whether userID already holds a live reservation at the
// same restaurant, date and start time. excludeID skips the reservation being
// updated.
func (r *mongoReservationRepository) ExistsLiveAt(ctx context.Context, userID, restaurantID, date, startTime, excludeID string) (bool, error) {
	ctx, cancel := mongotx.WithTimeout(ctx, r.cfg.ReadTimeout)
	defer cancel()

	filter := liveFilter()
	filter["user_id"] = userID
	filter["restaurant_id"] = restaurantID
	filter["res_date"] = date
	filter["res_start_time"] = startTime
	if excludeID != "" {
		oid, err := objectID(excludeID)
		if err != nil {
			return false, err
		}
		filter["_id"] = bson.M{"$ne": oid}
	}

	count, err := r.collection.CountDocuments(ctx, filter, options.Count().SetLimit(1))
	if err != nil {
		return false, fmt.Errorf("failed to check duplicate reservation: %w", err)
	}
	return count > 0, nil
}

// UpdateSchedule rewrites the editable fields of a reservation that is still
// pending. It fails with ErrNotPending if the status moved concurrently.
func (r *mongoReservationRepository) UpdateSchedule(ctx context.Context, id string, reservation *model.Reservation) error {
	ctx, cancel := mongotx.WithTimeout(ctx, r.cfg.WriteTimeout)
	defer cancel()

	oid, err := objectID(id)
	if err != nil {
		return err
	}

	reservation.UpdatedAt = time.Now().UTC().Truncate(time.Millisecond)
	update := bson.M{"$set": bson.M{
		"name":           reservation.Name,
		"contact":        reservation.Contact,
		"res_date":       reservation.ResDate,
		"res_start_time": reservation.ResStartTime,
		"res_end_time":   reservation.ResEndTime,
		"duration_min":   reservation.DurationMin,
		"table_size":     reservation.TableSize,
		"party_size":     reservation.PartySize,
		"updated_at":     reservation.UpdatedAt,
	}}

	result, err := r.collection.UpdateOne(ctx, bson.M{"_id": oid, "status": model.StatusPending}, update)
	if err != nil {
		if mongo.IsDuplicateKeyError(err) {
			return reservationserrors.ErrDuplicateLive
		}
		return fmt.Errorf("failed to update reservation: %w", err)
	}
	if result.MatchedCount == 0 {
		return reservationserrors.ErrNotPending
	}
	return nil
}

// TransitionStatus moves a reservation from one status to another atomically
// and returns the updated document. lock marks it as locked by an administrator.
func (r *mongoReservationRepository) TransitionStatus(ctx context.Context, id, from, to string, lock bool) (*model.Reservation, error) {
	ctx, cancel := mongotx.WithTimeout(ctx, r.cfg.WriteTimeout)
	defer cancel()

	oid, err := objectID(id)
	if err != nil {
		return nil, err
	}

	set := bson.M{
		"status":     to,
		"updated_at": time.Now().UTC().Truncate(time.Millisecond),
	}
	if lock {
		set["locked_by_admin"] = true
	}

	opts := options.FindOneAndUpdate().SetReturnDocument(options.After)
	var updated model.Reservation
	err = r.collection.FindOneAndUpdate(ctx, bson.M{"_id": oid, "status": from}, bson.M{"$set": set}, opts).Decode(&updated)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, reservationserrors.ErrNotPending
		}
		return nil, fmt.Errorf("failed to update reservation status: %w", err)
	}
	return &updated, nil
}

func (r *mongoReservationRepository) Delete(ctx context.Context, id string) error {
	ctx, cancel := mongotx.WithTimeout(ctx, r.cfg.WriteTimeout)
	defer cancel()

	oid, err := objectID(id)
	if err != nil {
		return err
	}

	result, err := r.collection.DeleteOne(ctx, bson.M{"_id": oid})
	if err != nil {
		return fmt.Errorf("failed to delete reservation: %w", err)
	}
	if result.DeletedCount == 0 {
		return reservationserrors.ErrNotFound
	}
	return nil
}

func (r *mongoReservationRepository) DeleteByRestaurant(ctx context.Context, restaurantID string) (int64, error) {
	ctx, cancel := mongotx.WithTimeout(ctx, r.cfg.WriteTimeout)
	defer cancel()

	result, err := r.collection.DeleteMany(ctx, bson.M{"restaurant_id": restaurantID})
	if err != nil {
		return 0, fmt.Errorf("failed to delete restaurant reservations: %w", err)
	}
	return result.DeletedCount, nil
}

func (r *mongoReservationRepository) ExecuteTransaction(ctx context.Context, fn mongotx.TransactionFunc) error {
	return r.txManager.ExecuteTransaction(ctx, fn)
}
