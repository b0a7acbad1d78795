package service

import (
	"context"
	"fmt"
	"tablereserve/internal/reservations/repository"
	"tablereserve/internal/reservations/validator"
	"tablereserve/internal/scheduling"
	"tablereserve/pkg/config"
	apperrors "tablereserve/pkg/errors"
	"tablereserve/pkg/model"
	"time"
)

const NoTablesMessage = "No available tables found for the specified date and time."

type AvailabilityService interface {
	AvailableSlots(ctx context.Context, restaurantID string, query *model.AvailabilityQuery) ([]model.AvailableSlot, error)
	TableStatus(ctx context.Context, restaurantID, date string) ([]model.HourlyTableStatus, error)
}

type availabilityService struct {
	repo        repository.ReservationRepository
	restaurants RestaurantReader
	cache       AvailabilityCache
	validator   *validator.ReservationValidator
	banding     scheduling.Banding
	cfg         *config.Config
	now         func() time.Time
}

func NewAvailabilityService(
	repo repository.ReservationRepository,
	restaurants RestaurantReader,
	cache AvailabilityCache,
	validator *validator.ReservationValidator,
	cfg *config.Config,
) AvailabilityService {
	return &availabilityService{
		repo:        repo,
		restaurants: restaurants,
		cache:       cache,
		validator:   validator,
		banding:     scheduling.Banding{SmallMax: cfg.SmallTableMaxParty, MediumMax: cfg.MediumTableMaxParty},
		cfg:         cfg,
		now:         time.Now,
	}
}

// AvailableSlots lists the start times at which a party can be seated for
// the requested duration. An empty result is not an error.
func (s *availabilityService) AvailableSlots(ctx context.Context, restaurantID string, query *model.AvailabilityQuery) ([]model.AvailableSlot, error) {
	if err := s.validator.ValidateAvailabilityQuery(query); err != nil {
		return nil, validationFailure(s.cfg, err)
	}
	if err := s.rejectPast(query.Date); err != nil {
		return nil, err
	}

	restaurant, err := s.findRestaurant(ctx, restaurantID)
	if err != nil {
		return nil, err
	}

	size := s.banding.Classify(query.PartySize)
	variant := cacheVariant(restaurant, size)

	var cached []model.AvailableSlot
	entry, hit := s.cache.Get(ctx, restaurant.ID, query.Date, variant, query.Duration, &cached)
	if hit {
		return cached, nil
	}

	reservations, err := s.repo.FindPendingForDay(ctx, restaurant.ID, query.Date, size)
	if err != nil {
		return nil, apperrors.Internal("Failed to load reservations", err)
	}

	slots, err := scheduling.Slots(restaurant, size, query.Duration, reservations)
	if err != nil {
		return nil, apperrors.InvalidInput(err.Error())
	}

	result := make([]model.AvailableSlot, 0, len(slots))
	for _, slot := range scheduling.Available(slots) {
		result = append(result, model.AvailableSlot{
			Time: slot.Label(),
			AvailableTables: model.AvailableTables{
				Type:   size,
				Amount: slot.Available,
			},
		})
	}

	if err := s.cache.Set(ctx, entry, result); err != nil {
		s.cfg.Log.Warn("Failed to cache availability", "restaurant_id", restaurant.ID, "date", query.Date, "error", err)
	}
	return result, nil
}

// cacheVariant folds the restaurant's hours and inventory into the cache key
// so edits to the restaurant never serve stale slots.
func cacheVariant(restaurant *model.Restaurant, size string) string {
	return fmt.Sprintf("%s-%s-%s-%d", size, restaurant.OpenTime, restaurant.CloseTime, scheduling.TableCount(restaurant, size))
}

func (s *availabilityService) TableStatus(ctx context.Context, restaurantID, date string) ([]model.HourlyTableStatus, error) {
	if date == "" {
		return nil, apperrors.InvalidInput("Please add a date")
	}
	if _, err := scheduling.ParseDate(date); err != nil {
		return nil, apperrors.InvalidInput(err.Error())
	}

	restaurant, err := s.findRestaurant(ctx, restaurantID)
	if err != nil {
		return nil, err
	}

	reservations, err := s.repo.FindPendingForDay(ctx, restaurant.ID, date, "")
	if err != nil {
		return nil, apperrors.Internal("Failed to load reservations", err)
	}

	status, err := scheduling.TableStatus(restaurant, reservations)
	if err != nil {
		return nil, apperrors.InvalidInput(err.Error())
	}
	return status, nil
}

func (s *availabilityService) rejectPast(date string) error {
	day, err := scheduling.ParseDate(date)
	if err != nil {
		return apperrors.InvalidInput(err.Error())
	}
	if err := scheduling.ValidateNotPast(day, s.now()); err != nil {
		return apperrors.InvalidInput("Cannot check availability for a date in the past")
	}
	return nil
}

func (s *availabilityService) findRestaurant(ctx context.Context, id string) (*model.Restaurant, error) {
	return lookupRestaurant(ctx, s.restaurants, id)
}
