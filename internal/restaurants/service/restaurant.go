package service

import (
	"context"
	"errors"
	"fmt"
	"sync"
	restaurantserrors "tablereserve/internal/restaurants/errors"
	"tablereserve/internal/restaurants/repository"
	"tablereserve/internal/restaurants/validator"
	"tablereserve/pkg/config"
	apperrors "tablereserve/pkg/errors"
	"tablereserve/pkg/model"
	"tablereserve/pkg/sanitizer"
	"tablereserve/pkg/validation"

	"go.mongodb.org/mongo-driver/mongo"
)

// ReservationPurger removes a restaurant's reservations as part of its deletion.
type ReservationPurger interface {
	DeleteByRestaurant(ctx context.Context, restaurantID string) (int64, error)
}

// AvailabilityInvalidator drops cached availability when hours or table
// counts change.
type AvailabilityInvalidator interface {
	InvalidateRestaurant(ctx context.Context, restaurantID string) error
}

type RestaurantService interface {
	Create(ctx context.Context, restaurant *model.Restaurant) error
	GetByID(ctx context.Context, id string) (*model.Restaurant, error)
	GetAll(ctx context.Context, limit int, offset int64) ([]*model.Restaurant, int64, error)
	Update(ctx context.Context, id string, updates *model.RestaurantUpdate) (*model.Restaurant, error)
	Delete(ctx context.Context, id string) (int64, error)
}

type restaurantService struct {
	repo         repository.RestaurantRepository
	reservations ReservationPurger
	cache        AvailabilityInvalidator
	validator    *validator.RestaurantValidator
	cfg          *config.Config
}

func NewRestaurantService(
	repo repository.RestaurantRepository,
	reservations ReservationPurger,
	cache AvailabilityInvalidator,
	validator *validator.RestaurantValidator,
	cfg *config.Config,
) RestaurantService {
	return &restaurantService{
		repo:         repo,
		reservations: reservations,
		cache:        cache,
		validator:    validator,
		cfg:          cfg,
	}
}

func (s *restaurantService) Create(ctx context.Context, restaurant *model.Restaurant) error {
	if restaurant == nil {
		return apperrors.InvalidInput("Restaurant body is required")
	}
	s.sanitize(restaurant)

	if err := s.validator.Validate(restaurant); err != nil {
		s.cfg.Log.Warn("Restaurant validation failed",
			"name", restaurant.Name,
			"error", err,
		)
		return validationFailure(err)
	}

	if err := s.repo.Create(ctx, restaurant); err != nil {
		if errors.Is(err, restaurantserrors.ErrDuplicateName) {
			return apperrors.Conflict(fmt.Sprintf("Restaurant named %q already exists", restaurant.Name))
		}
		s.cfg.Log.Error("Failed to create restaurant",
			"name", restaurant.Name,
			"error", err,
		)
		return apperrors.Internal("Failed to create restaurant", err)
	}

	s.cfg.Log.Info("Restaurant created successfully",
		"id", restaurant.ID,
		"name", restaurant.Name,
	)
	return nil
}

func (s *restaurantService) GetByID(ctx context.Context, id string) (*model.Restaurant, error) {
	if id == "" {
		return nil, apperrors.InvalidInput("Restaurant ID cannot be empty")
	}

	restaurant, err := s.repo.FindByID(ctx, id)
	if err != nil {
		return nil, s.lookupFailure(id, err)
	}
	return restaurant, nil
}

func (s *restaurantService) GetAll(ctx context.Context, limit int, offset int64) ([]*model.Restaurant, int64, error) {
	var count int64
	var restaurants []*model.Restaurant
	var errCount, errFind error
	var wg sync.WaitGroup
	wg.Add(2)

	go func() {
		defer wg.Done()
		count, errCount = s.repo.Count(ctx)
	}()

	go func() {
		defer wg.Done()
		restaurants, errFind = s.repo.FindAll(ctx, limit, offset)
	}()

	wg.Wait()
	if err := errors.Join(errCount, errFind); err != nil {
		s.cfg.Log.Error("Failed to list restaurants",
			"limit", limit,
			"offset", offset,
			"error", err,
		)
		return nil, 0, apperrors.Internal("Failed to retrieve restaurants", err)
	}

	return restaurants, count, nil
}

func (s *restaurantService) Update(ctx context.Context, id string, updates *model.RestaurantUpdate) (*model.Restaurant, error) {
	if id == "" {
		return nil, apperrors.InvalidInput("Restaurant ID cannot be empty")
	}
	if updates == nil {
		return nil, apperrors.InvalidInput("Restaurant update body is required")
	}

	existing, err := s.repo.FindByID(ctx, id)
	if err != nil {
		return nil, s.lookupFailure(id, err)
	}

	s.sanitizeUpdate(updates)
	if err := s.validator.ValidateUpdate(updates); err != nil {
		return nil, validationFailure(err)
	}

	merged := mergeRestaurantUpdates(existing, updates)
	if err := s.validator.Validate(merged); err != nil {
		s.cfg.Log.Warn("Restaurant validation failed",
			"id", id,
			"name", merged.Name,
			"error", err,
		)
		return nil, validationFailure(err)
	}

	if err := s.repo.Update(ctx, id, merged); err != nil {
		switch {
		case errors.Is(err, restaurantserrors.ErrDuplicateName):
			return nil, apperrors.Conflict(fmt.Sprintf("Restaurant named %q already exists", merged.Name))
		case errors.Is(err, restaurantserrors.ErrNotFound):
			return nil, apperrors.NotFoundWithID("restaurant", id)
		}
		s.cfg.Log.Error("Failed to update restaurant",
			"id", id,
			"error", err,
		)
		return nil, apperrors.Internal("Failed to update restaurant", err)
	}

	if err := s.cache.InvalidateRestaurant(ctx, id); err != nil {
		s.cfg.Log.Warn("Failed to invalidate availability cache", "restaurant_id", id, "error", err)
	}

	s.cfg.Log.Info("Restaurant updated successfully",
		"id", id,
		"name", merged.Name,
	)
	return merged, nil
}

// Delete removes the restaurant and every reservation made at it in one
// transaction and returns how many reservations went with it.
func (s *restaurantService) Delete(ctx context.Context, id string) (int64, error) {
	if id == "" {
		return 0, apperrors.InvalidInput("Restaurant ID cannot be empty")
	}

	var purged int64
	err := s.repo.ExecuteTransaction(ctx, func(sessCtx mongo.SessionContext) error {
		if _, err := s.repo.FindByID(sessCtx, id); err != nil {
			return err
		}

		n, err := s.reservations.DeleteByRestaurant(sessCtx, id)
		if err != nil {
			return fmt.Errorf("failed to delete reservations: %w", err)
		}
		purged = n

		return s.repo.Delete(sessCtx, id)
	})
	if err != nil {
		return 0, s.lookupFailure(id, err)
	}

	if err := s.cache.InvalidateRestaurant(ctx, id); err != nil {
		s.cfg.Log.Warn("Failed to invalidate availability cache", "restaurant_id", id, "error", err)
	}

	s.cfg.Log.Info("Restaurant deleted successfully",
		"id", id,
		"reservations_deleted", purged,
	)
	return purged, nil
}

func (s *restaurantService) lookupFailure(id string, err error) error {
	if errors.Is(err, restaurantserrors.ErrNotFound) {
		return apperrors.NotFoundWithID("restaurant", id)
	}
	if errors.Is(err, restaurantserrors.ErrInvalidID) {
		return apperrors.InvalidInput("Invalid restaurant ID format")
	}
	s.cfg.Log.Error("Restaurant operation failed",
		"id", id,
		"error", err,
	)
	return apperrors.Internal("Failed to process restaurant", err)
}

func validationFailure(err error) error {
	var verrs validation.ValidationErrors
	if errors.As(err, &verrs) {
		return apperrors.Validation(verrs.Summary(), map[string]any{"errors": verrs})
	}
	return apperrors.InvalidInput(err.Error())
}

func (s *restaurantService) sanitize(restaurant *model.Restaurant) {
	restaurant.Name = sanitizer.NormalizeName(restaurant.Name)
	restaurant.Address = sanitizer.TrimAndNormalize(restaurant.Address)
	restaurant.District = sanitizer.TrimAndNormalize(restaurant.District)
	restaurant.Province = sanitizer.TrimAndNormalize(restaurant.Province)
	restaurant.Region = sanitizer.TrimAndNormalize(restaurant.Region)
	restaurant.PostalCode = sanitizer.NormalizeDigits(restaurant.PostalCode)
	restaurant.Tel = s.normalizePhone(restaurant.Tel)
	restaurant.OpenTime = sanitizer.TrimAndNormalize(restaurant.OpenTime)
	restaurant.CloseTime = sanitizer.TrimAndNormalize(restaurant.CloseTime)
}

func (s *restaurantService) sanitizeUpdate(updates *model.RestaurantUpdate) {
	apply := func(field *string, normalize func(string) string) {
		if field != nil {
			*field = normalize(*field)
		}
	}
	apply(updates.Name, sanitizer.NormalizeName)
	apply(updates.Address, sanitizer.TrimAndNormalize)
	apply(updates.District, sanitizer.TrimAndNormalize)
	apply(updates.Province, sanitizer.TrimAndNormalize)
	apply(updates.Region, sanitizer.TrimAndNormalize)
	apply(updates.PostalCode, sanitizer.NormalizeDigits)
	apply(updates.Tel, s.normalizePhone)
	apply(updates.OpenTime, sanitizer.TrimAndNormalize)
	apply(updates.CloseTime, sanitizer.TrimAndNormalize)
}

// normalizePhone keeps the raw input when it cannot be parsed so the e164
// rule reports it instead of "required".
func (s *restaurantService) normalizePhone(phone string) string {
	if normalized := sanitizer.NormalizePhone(phone, s.cfg.DefaultPhoneRegion); normalized != "" {
		return normalized
	}
	return sanitizer.TrimAndNormalize(phone)
}

func mergeRestaurantUpdates(existing *model.Restaurant, updates *model.RestaurantUpdate) *model.Restaurant {
	merged := *existing

	setString := func(dst *string, src *string) {
		if src != nil {
			*dst = *src
		}
	}
	setInt := func(dst *int, src *int) {
		if src != nil {
			*dst = *src
		}
	}

	setString(&merged.Name, updates.Name)
	setString(&merged.Address, updates.Address)
	setString(&merged.District, updates.District)
	setString(&merged.Province, updates.Province)
	setString(&merged.PostalCode, updates.PostalCode)
	setString(&merged.Tel, updates.Tel)
	setString(&merged.Region, updates.Region)
	setString(&merged.OpenTime, updates.OpenTime)
	setString(&merged.CloseTime, updates.CloseTime)
	setInt(&merged.SmallTable, updates.SmallTable)
	setInt(&merged.MediumTable, updates.MediumTable)
	setInt(&merged.LargeTable, updates.LargeTable)

	return &merged
}
