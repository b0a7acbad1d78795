package service

import (
	"context"
	"errors"
	"fmt"
	"sync"
	reservationserrors "tablereserve/internal/reservations/errors"
	"tablereserve/internal/reservations/events"
	"tablereserve/internal/reservations/repository"
	"tablereserve/internal/reservations/validator"
	restaurantserrors "tablereserve/internal/restaurants/errors"
	"tablereserve/internal/scheduling"
	"tablereserve/pkg/auth"
	"tablereserve/pkg/cache"
	"tablereserve/pkg/config"
	apperrors "tablereserve/pkg/errors"
	"tablereserve/pkg/model"
	"tablereserve/pkg/sanitizer"
	"tablereserve/pkg/validation"
	"time"

	"github.com/google/uuid"
	"go.mongodb.org/mongo-driver/mongo"
)

// RestaurantReader is the slice of the restaurant directory reservations need.
type RestaurantReader interface {
	FindByID(ctx context.Context, id string) (*model.Restaurant, error)
}

// Settler credits points for a completed reservation.
type Settler interface {
	Settle(ctx context.Context, reservation *model.Reservation) (*model.SettlementResult, error)
}

// AvailabilityCache is satisfied by *cache.AvailabilityCache.
type AvailabilityCache interface {
	Get(ctx context.Context, restaurantID, date, variant string, duration int, dst any) (cache.Entry, bool)
	Set(ctx context.Context, entry cache.Entry, value any) error
	Invalidate(ctx context.Context, restaurantID, date string) error
}

type ReservationService interface {
	Create(ctx context.Context, caller auth.Identity, restaurantID string, req *model.CreateReservationRequest) (*model.Reservation, error)
	GetByID(ctx context.Context, caller auth.Identity, id string) (*model.Reservation, error)
	List(ctx context.Context, caller auth.Identity, restaurantID string, limit int, offset int64) ([]*model.Reservation, int64, error)
	ListByUser(ctx context.Context, caller auth.Identity, userID string, limit int, offset int64) ([]*model.Reservation, int64, error)
	Update(ctx context.Context, caller auth.Identity, id string, req *model.UpdateReservationRequest) (*model.Reservation, error)
	Cancel(ctx context.Context, caller auth.Identity, id string) (*model.Reservation, error)
	MarkIncomplete(ctx context.Context, caller auth.Identity, id string) (*model.Reservation, error)
	Complete(ctx context.Context, caller auth.Identity, id string) (*model.CompletionResult, error)
	Settle(ctx context.Context, caller auth.Identity, id string) (*model.CompletionResult, error)
	Delete(ctx context.Context, caller auth.Identity, id string) error
}

type reservationService struct {
	repo        repository.ReservationRepository
	lockRepo    repository.ReservationLockRepository
	restaurants RestaurantReader
	settler     Settler
	publisher   events.Publisher
	cache       AvailabilityCache
	validator   *validator.ReservationValidator
	banding     scheduling.Banding
	cfg         *config.Config
	now         func() time.Time
}

func NewReservationService(
	repo repository.ReservationRepository,
	lockRepo repository.ReservationLockRepository,
	restaurants RestaurantReader,
	settler Settler,
	publisher events.Publisher,
	cache AvailabilityCache,
	validator *validator.ReservationValidator,
	cfg *config.Config,
) ReservationService {
	return &reservationService{
		repo:        repo,
		lockRepo:    lockRepo,
		restaurants: restaurants,
		settler:     settler,
		publisher:   publisher,
		cache:       cache,
		validator:   validator,
		banding:     scheduling.Banding{SmallMax: cfg.SmallTableMaxParty, MediumMax: cfg.MediumTableMaxParty},
		cfg:         cfg,
		now:         time.Now,
	}
}

func (s *reservationService) Create(ctx context.Context, caller auth.Identity, restaurantID string, req *model.CreateReservationRequest) (*model.Reservation, error) {
	if caller.UserID == "" {
		return nil, apperrors.Unauthorized("Not authorized to access this route")
	}
	if err := s.validator.ValidateCreate(req); err != nil {
		return nil, s.validationError(err)
	}

	restaurant, err := s.findRestaurant(ctx, restaurantID)
	if err != nil {
		return nil, err
	}

	ownerID := caller.UserID
	if caller.IsAdmin() && req.UserID != "" {
		ownerID = req.UserID
	}

	reservation := &model.Reservation{
		UserID:       ownerID,
		RestaurantID: restaurant.ID,
		Name:         sanitizer.TrimAndNormalize(req.Name),
		Contact:      sanitizer.TrimAndNormalize(req.Contact),
		ResDate:      req.ResDate,
		ResStartTime: req.ResStartTime,
		DurationMin:  req.Duration,
		TableSize:    req.TableSize,
		PartySize:    req.PartySize,
		Status:       model.StatusPending,
	}
	if err := s.schedule(restaurant, reservation); err != nil {
		return nil, err
	}

	release, err := s.acquireLocks(ctx,
		userLockKey(ownerID),
		slotLockKey(restaurant.ID, reservation.ResDate, reservation.TableSize),
	)
	if err != nil {
		return nil, err
	}
	defer release()

	err = s.repo.ExecuteTransaction(ctx, func(sessCtx mongo.SessionContext) error {
		if !caller.IsAdmin() {
			if err := s.verifyCap(sessCtx, ownerID); err != nil {
				return err
			}
		}
		if err := s.verifyDuplication(sessCtx, reservation, ""); err != nil {
			return err
		}
		if err := s.verifyCapacity(sessCtx, restaurant, reservation, ""); err != nil {
			return err
		}
		if err := s.repo.Create(sessCtx, reservation); err != nil {
			if errors.Is(err, reservationserrors.ErrDuplicateLive) {
				return apperrors.BadState("You already made a reservation at this time.")
			}
			return apperrors.Internal("Failed to create reservation", err)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.cfg.Log.Info("Reservation created",
		"reservation_id", reservation.ID,
		"user_id", reservation.UserID,
		"restaurant_id", reservation.RestaurantID,
		"res_date", reservation.ResDate,
		"res_start_time", reservation.ResStartTime,
		"table_size", reservation.TableSize,
	)
	s.afterMutation(ctx, events.TypeCreated, caller, reservation, "")
	return reservation, nil
}

func (s *reservationService) GetByID(ctx context.Context, caller auth.Identity, id string) (*model.Reservation, error) {
	reservation, err := s.load(ctx, id)
	if err != nil {
		return nil, err
	}
	if !caller.CanAccess(reservation.UserID) {
		return nil, apperrors.Unauthorized(fmt.Sprintf("User %s is not authorized to view this reservation", caller.UserID))
	}
	return reservation, nil
}

// List shows a user their own reservations and an administrator every
// reservation. restaurantID narrows either view.
func (s *reservationService) List(ctx context.Context, caller auth.Identity, restaurantID string, limit int, offset int64) ([]*model.Reservation, int64, error) {
	filter := model.ReservationFilter{RestaurantID: restaurantID}
	if !caller.IsAdmin() {
		filter.UserID = caller.UserID
	}
	return s.list(ctx, filter, limit, offset)
}

func (s *reservationService) ListByUser(ctx context.Context, caller auth.Identity, userID string, limit int, offset int64) ([]*model.Reservation, int64, error) {
	if !caller.IsAdmin() {
		return nil, 0, apperrors.Forbidden(fmt.Sprintf("User role %s is not authorized to access this route", caller.Role))
	}
	if userID == "" {
		return nil, 0, apperrors.InvalidInput("User ID cannot be empty")
	}
	return s.list(ctx, model.ReservationFilter{UserID: userID}, limit, offset)
}

func (s *reservationService) list(ctx context.Context, filter model.ReservationFilter, limit int, offset int64) ([]*model.Reservation, int64, error) {
	var count int64
	var reservations []*model.Reservation
	var errCount, errFind error
	var wg sync.WaitGroup
	wg.Add(2)

	go func() {
		defer wg.Done()
		count, errCount = s.repo.Count(ctx, filter)
		if errCount != nil {
			s.cfg.Log.Error("Failed to count reservations", "error", errCount)
			errCount = apperrors.Internal("Failed to count reservations", errCount)
		}
	}()

	go func() {
		defer wg.Done()
		reservations, errFind = s.repo.Find(ctx, filter, limit, offset)
		if errFind != nil {
			s.cfg.Log.Error("Failed to list reservations", "error", errFind)
			errFind = apperrors.Internal("Failed to retrieve reservations", errFind)
		}
	}()

	wg.Wait()
	if errCount != nil {
		return nil, 0, errCount
	}
	if errFind != nil {
		return nil, 0, errFind
	}

	return reservations, count, nil
}

func (s *reservationService) Update(ctx context.Context, caller auth.Identity, id string, req *model.UpdateReservationRequest) (*model.Reservation, error) {
	if err := s.validator.ValidateUpdate(req); err != nil {
		return nil, s.validationError(err)
	}

	existing, err := s.load(ctx, id)
	if err != nil {
		return nil, err
	}
	if !caller.CanAccess(existing.UserID) {
		return nil, apperrors.Unauthorized(fmt.Sprintf("User %s is not authorized to update this reservation", caller.UserID))
	}
	if existing.Status != model.StatusPending {
		return nil, apperrors.BadState(fmt.Sprintf("Cannot update a reservation that is %s", existing.Status))
	}

	merged := s.mergeUpdates(existing, req)
	if req.ChangesSchedule() {
		err = s.reschedule(ctx, merged)
	} else {
		err = s.saveUpdate(ctx, merged)
	}
	if err != nil {
		return nil, err
	}

	s.cfg.Log.Info("Reservation updated", "reservation_id", merged.ID, "user_id", caller.UserID)
	previousDate := ""
	if existing.ResDate != merged.ResDate {
		previousDate = existing.ResDate
	}
	s.afterMutation(ctx, events.TypeUpdated, caller, merged, previousDate)
	return merged, nil
}

// reschedule re-runs the window, duplicate and capacity checks for a moved
// reservation under the target slot lock.
func (s *reservationService) reschedule(ctx context.Context, merged *model.Reservation) error {
	restaurant, err := s.findRestaurant(ctx, merged.RestaurantID)
	if err != nil {
		return err
	}
	if err := s.schedule(restaurant, merged); err != nil {
		return err
	}

	release, err := s.acquireLocks(ctx, slotLockKey(restaurant.ID, merged.ResDate, merged.TableSize))
	if err != nil {
		return err
	}
	defer release()

	return s.repo.ExecuteTransaction(ctx, func(sessCtx mongo.SessionContext) error {
		if err := s.verifyDuplication(sessCtx, merged, merged.ID); err != nil {
			return err
		}
		if err := s.verifyCapacity(sessCtx, restaurant, merged, merged.ID); err != nil {
			return err
		}
		return s.saveUpdate(sessCtx, merged)
	})
}

func (s *reservationService) saveUpdate(ctx context.Context, merged *model.Reservation) error {
	if err := s.repo.UpdateSchedule(ctx, merged.ID, merged); err != nil {
		switch {
		case errors.Is(err, reservationserrors.ErrNotPending):
			return apperrors.BadState("Reservation is no longer pending")
		case errors.Is(err, reservationserrors.ErrDuplicateLive):
			return apperrors.BadState("You already made a reservation at this time.")
		}
		return apperrors.Internal("Failed to update reservation", err)
	}
	return nil
}

func (s *reservationService) Cancel(ctx context.Context, caller auth.Identity, id string) (*model.Reservation, error) {
	reservation, err := s.load(ctx, id)
	if err != nil {
		return nil, err
	}
	if !caller.CanAccess(reservation.UserID) {
		return nil, apperrors.Unauthorized(fmt.Sprintf("User %s is not authorized to cancel this reservation", caller.UserID))
	}

	switch reservation.Status {
	case model.StatusCancelled:
		return nil, apperrors.BadState("This reservation has already been cancelled")
	case model.StatusComplete, model.StatusIncomplete:
		return nil, apperrors.BadState(fmt.Sprintf("Cannot cancel a reservation that is %s", reservation.Status))
	}
	if reservation.LockedByAdmin && !caller.IsAdmin() {
		return nil, apperrors.BadState("This reservation has been locked by an administrator")
	}

	updated, err := s.transition(ctx, id, model.StatusCancelled, false)
	if err != nil {
		return nil, err
	}

	s.cfg.Log.Info("Reservation cancelled", "reservation_id", id, "user_id", caller.UserID)
	s.afterMutation(ctx, events.TypeCancelled, caller, updated, "")
	return updated, nil
}

// MarkIncomplete records a no-show. The reservation is locked so its owner
// can no longer act on it.
func (s *reservationService) MarkIncomplete(ctx context.Context, caller auth.Identity, id string) (*model.Reservation, error) {
	if !caller.IsAdmin() {
		return nil, apperrors.Forbidden(fmt.Sprintf("User role %s is not authorized to access this route", caller.Role))
	}

	reservation, err := s.load(ctx, id)
	if err != nil {
		return nil, err
	}
	if reservation.LockedByAdmin {
		return nil, apperrors.BadState("This reservation has already been locked by an administrator")
	}
	if reservation.Status != model.StatusPending {
		return nil, apperrors.BadState(fmt.Sprintf("Cannot mark a reservation that is %s as incomplete", reservation.Status))
	}

	updated, err := s.transition(ctx, id, model.StatusIncomplete, true)
	if err != nil {
		return nil, err
	}

	s.cfg.Log.Info("Reservation marked incomplete", "reservation_id", id, "admin_id", caller.UserID)
	s.afterMutation(ctx, events.TypeIncomplete, caller, updated, "")
	return updated, nil
}

// Complete closes a pending reservation and credits its owner. A failed
// credit does not fail the call; the completed event and the settle endpoint
// retry it.
func (s *reservationService) Complete(ctx context.Context, caller auth.Identity, id string) (*model.CompletionResult, error) {
	if !caller.IsAdmin() {
		return nil, apperrors.Forbidden(fmt.Sprintf("User role %s is not authorized to access this route", caller.Role))
	}

	reservation, err := s.load(ctx, id)
	if err != nil {
		return nil, err
	}
	if reservation.Status != model.StatusPending {
		return nil, apperrors.BadState(fmt.Sprintf("Cannot complete a reservation that is %s", reservation.Status))
	}

	updated, err := s.transition(ctx, id, model.StatusComplete, false)
	if err != nil {
		return nil, err
	}
	s.cfg.Log.Info("Reservation completed", "reservation_id", id, "admin_id", caller.UserID)

	result := &model.CompletionResult{Reservation: updated}
	settlement, err := s.settler.Settle(ctx, updated)
	if err != nil {
		s.cfg.Log.Error("Points settlement failed, left for reconciliation",
			"reservation_id", id,
			"user_id", updated.UserID,
			"error", err,
		)
	} else {
		result.Settled = true
		result.NewBalance = &settlement.NewBalance
	}

	s.afterMutation(ctx, events.TypeCompleted, caller, updated, "")
	return result, nil
}

// Settle retries the points credit of a completed reservation. Repeated calls
// credit at most once.
func (s *reservationService) Settle(ctx context.Context, caller auth.Identity, id string) (*model.CompletionResult, error) {
	if !caller.IsAdmin() {
		return nil, apperrors.Forbidden(fmt.Sprintf("User role %s is not authorized to access this route", caller.Role))
	}

	reservation, err := s.load(ctx, id)
	if err != nil {
		return nil, err
	}
	if reservation.Status != model.StatusComplete {
		return nil, apperrors.BadState("Only completed reservations can be settled")
	}

	settlement, err := s.settler.Settle(ctx, reservation)
	if err != nil {
		return nil, apperrors.Internal("Failed to settle reservation", err)
	}

	return &model.CompletionResult{
		Reservation: reservation,
		Settled:     true,
		NewBalance:  &settlement.NewBalance,
	}, nil
}

func (s *reservationService) Delete(ctx context.Context, caller auth.Identity, id string) error {
	reservation, err := s.load(ctx, id)
	if err != nil {
		return err
	}
	if !caller.CanAccess(reservation.UserID) {
		return apperrors.Unauthorized(fmt.Sprintf("User %s is not authorized to delete this reservation", caller.UserID))
	}

	if err := s.repo.Delete(ctx, id); err != nil {
		if errors.Is(err, reservationserrors.ErrNotFound) {
			return apperrors.NotFoundWithID("reservation", id)
		}
		return apperrors.Internal("Failed to delete reservation", err)
	}

	s.cfg.Log.Info("Reservation deleted", "reservation_id", id, "user_id", caller.UserID)
	s.afterMutation(ctx, events.TypeDeleted, caller, reservation, "")
	return nil
}

func (s *reservationService) load(ctx context.Context, id string) (*model.Reservation, error) {
	if id == "" {
		return nil, apperrors.InvalidInput("Reservation ID cannot be empty")
	}

	reservation, err := s.repo.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, reservationserrors.ErrNotFound) {
			return nil, apperrors.NotFoundWithID("reservation", id)
		}
		if errors.Is(err, reservationserrors.ErrInvalidID) {
			return nil, apperrors.InvalidInput("Invalid reservation ID format")
		}
		return nil, apperrors.Internal("Failed to retrieve reservation", err)
	}
	return reservation, nil
}

func (s *reservationService) findRestaurant(ctx context.Context, id string) (*model.Restaurant, error) {
	return lookupRestaurant(ctx, s.restaurants, id)
}

func lookupRestaurant(ctx context.Context, restaurants RestaurantReader, id string) (*model.Restaurant, error) {
	restaurant, err := restaurants.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, restaurantserrors.ErrNotFound) || errors.Is(err, restaurantserrors.ErrInvalidID) {
			return nil, apperrors.NotFoundWithID("restaurant", id)
		}
		return nil, apperrors.Internal("Failed to retrieve restaurant", err)
	}
	return restaurant, nil
}

func (s *reservationService) transition(ctx context.Context, id, to string, lock bool) (*model.Reservation, error) {
	updated, err := s.repo.TransitionStatus(ctx, id, model.StatusPending, to, lock)
	if err != nil {
		if errors.Is(err, reservationserrors.ErrNotPending) {
			return nil, apperrors.BadState("Reservation is no longer pending")
		}
		return nil, apperrors.Internal("Failed to update reservation status", err)
	}
	return updated, nil
}

// schedule resolves the table class and end clock of r and checks it against
// the restaurant's hours.
func (s *reservationService) schedule(restaurant *model.Restaurant, r *model.Reservation) error {
	day, err := scheduling.ParseDate(r.ResDate)
	if err != nil {
		return apperrors.InvalidInput(err.Error())
	}
	if err := scheduling.ValidateNotPast(day, s.now()); err != nil {
		return apperrors.InvalidInput("Cannot make a reservation in the past")
	}

	size, err := s.banding.Resolve(r.TableSize, r.PartySize)
	if err != nil {
		return apperrors.InvalidInput(err.Error())
	}
	r.TableSize = size

	start, err := scheduling.ReservationStart(r.ResDate, r.ResStartTime)
	if err != nil {
		return apperrors.InvalidInput(err.Error())
	}
	if !scheduling.IsWithinHours(start, r.DurationMin, restaurant.OpenTime, restaurant.CloseTime) {
		return apperrors.BadState(fmt.Sprintf("Reservation must be between %s and %s", restaurant.OpenTime, restaurant.CloseTime))
	}

	end, err := scheduling.EndClock(r.ResStartTime, r.DurationMin)
	if err != nil {
		return apperrors.InvalidInput(err.Error())
	}
	r.ResEndTime = end
	return nil
}

func (s *reservationService) mergeUpdates(existing *model.Reservation, updates *model.UpdateReservationRequest) *model.Reservation {
	merged := *existing

	if updates.Name != nil {
		merged.Name = sanitizer.TrimAndNormalize(*updates.Name)
	}
	if updates.Contact != nil {
		merged.Contact = sanitizer.TrimAndNormalize(*updates.Contact)
	}
	if updates.ResDate != nil {
		merged.ResDate = *updates.ResDate
	}
	if updates.ResStartTime != nil {
		merged.ResStartTime = *updates.ResStartTime
	}
	if updates.Duration != nil {
		merged.DurationMin = *updates.Duration
	}
	if updates.PartySize != nil {
		merged.PartySize = *updates.PartySize
		if updates.TableSize == nil {
			merged.TableSize = ""
		}
	}
	if updates.TableSize != nil {
		merged.TableSize = *updates.TableSize
	}
	if merged.DurationMin <= 0 {
		if _, duration, err := scheduling.ReservationSpan(existing); err == nil {
			merged.DurationMin = duration
		}
	}

	return &merged
}

func (s *reservationService) validationError(err error) error {
	return validationFailure(s.cfg, err)
}

func validationFailure(cfg *config.Config, err error) error {
	var verrs validation.ValidationErrors
	if errors.As(err, &verrs) {
		cfg.Log.Warn("Reservation validation failed", "error", err)
		return apperrors.Validation(verrs.Summary(), map[string]any{"errors": verrs})
	}
	return apperrors.InvalidInput(err.Error())
}

func (s *reservationService) verifyCap(ctx context.Context, userID string) error {
	live, err := s.repo.CountLive(ctx, userID)
	if err != nil {
		return apperrors.Internal("Failed to count reservations", err)
	}
	if live >= int64(s.cfg.MaxLiveReservations) {
		return apperrors.BadState(fmt.Sprintf("the user with id %s has already made %d reservations", userID, s.cfg.MaxLiveReservations))
	}
	return nil
}

func (s *reservationService) verifyDuplication(ctx context.Context, r *model.Reservation, excludeID string) error {
	exists, err := s.repo.ExistsLiveAt(ctx, r.UserID, r.RestaurantID, r.ResDate, r.ResStartTime, excludeID)
	if err != nil {
		return apperrors.Internal("Failed to check existing reservations", err)
	}
	if exists {
		return apperrors.BadState("You already made a reservation at this time.")
	}
	return nil
}

// verifyCapacity requires a free table of r's class in every hour r spans.
func (s *reservationService) verifyCapacity(ctx context.Context, restaurant *model.Restaurant, r *model.Reservation, excludeID string) error {
	existing, err := s.repo.FindPendingForDay(ctx, restaurant.ID, r.ResDate, r.TableSize)
	if err != nil {
		return apperrors.Internal("Failed to check table availability", err)
	}

	others := existing[:0:0]
	for _, e := range existing {
		if excludeID != "" && e.ID == excludeID {
			continue
		}
		others = append(others, e)
	}

	start, err := scheduling.ParseClock(r.ResStartTime)
	if err != nil {
		return apperrors.InvalidInput(err.Error())
	}
	occupancy := scheduling.BuildOccupancy(others, r.TableSize)
	if occupancy.Remaining(scheduling.TableCount(restaurant, r.TableSize), start, r.DurationMin) < 1 {
		return apperrors.BadState(NoTablesMessage)
	}
	return nil
}

// afterMutation drops cached availability and publishes the lifecycle event.
// Failures are logged; the mutation itself has already committed.
func (s *reservationService) afterMutation(ctx context.Context, eventType string, caller auth.Identity, r *model.Reservation, previousDate string) {
	dates := []string{r.ResDate}
	if previousDate != "" {
		dates = append(dates, previousDate)
	}
	for _, date := range dates {
		if err := s.cache.Invalidate(ctx, r.RestaurantID, date); err != nil {
			s.cfg.Log.Warn("Failed to invalidate availability cache",
				"restaurant_id", r.RestaurantID,
				"date", date,
				"error", err,
			)
		}
	}

	if err := s.publisher.Publish(ctx, eventType, caller.UserID, r); err != nil {
		s.cfg.Log.Error("Failed to publish reservation event",
			"event_type", eventType,
			"reservation_id", r.ID,
			"error", err,
		)
	}
}

func userLockKey(userID string) string {
	return "user:" + userID
}

func slotLockKey(restaurantID, date, size string) string {
	return fmt.Sprintf("slot:%s:%s:%s", restaurantID, date, size)
}

// acquireLocks takes keys in order and returns a release func for all of
// them. Callers pass the user key before the slot key.
func (s *reservationService) acquireLocks(ctx context.Context, keys ...string) (func(), error) {
	owner := uuid.NewString()
	var held []string

	release := func() {
		releaseCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), s.cfg.WriteTimeout)
		defer cancel()
		for i := len(held) - 1; i >= 0; i-- {
			if err := s.lockRepo.Release(releaseCtx, held[i], owner); err != nil {
				s.cfg.Log.Warn("Failed to release reservation lock", "lock_id", held[i], "error", err)
			}
		}
	}

	for _, key := range keys {
		if err := s.acquireLock(ctx, key, owner); err != nil {
			release()
			return nil, err
		}
		held = append(held, key)
	}
	return release, nil
}

func (s *reservationService) acquireLock(ctx context.Context, key, owner string) error {
	for attempt := 0; ; attempt++ {
		err := s.lockRepo.Acquire(ctx, key, owner, s.cfg.SlotLockTTL)
		if err == nil {
			return nil
		}
		if !errors.Is(err, reservationserrors.ErrLockHeld) {
			return apperrors.Internal("Failed to acquire reservation lock", err)
		}
		if attempt >= s.cfg.SlotLockRetries {
			s.cfg.Log.Warn("Reservation lock contended", "lock_id", key, "attempts", attempt+1)
			return apperrors.Conflict("This time slot is currently being booked by another request. Please try again.")
		}

		timer := time.NewTimer(s.cfg.SlotLockBackoff * time.Duration(attempt+1))
		select {
		case <-ctx.Done():
			timer.Stop()
			return apperrors.Timeout("Request cancelled while waiting for the reservation lock")
		case <-timer.C:
		}
	}
}
