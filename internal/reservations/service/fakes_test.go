package service

import (
	"context"
	"fmt"
	"sync"
	reservationserrors "tablereserve/internal/reservations/errors"
	"tablereserve/internal/reservations/events"
	"tablereserve/internal/reservations/validator"
	restaurantserrors "tablereserve/internal/restaurants/errors"
	"tablereserve/pkg/auth"
	"tablereserve/pkg/cache"
	"tablereserve/pkg/config"
	mongotx "tablereserve/pkg/db/mongo"
	apperrors "tablereserve/pkg/errors"
	"tablereserve/pkg/logger"
	"tablereserve/pkg/model"
	"testing"
	"time"
)

// ────────────────────────────────────────────────
// In-memory reservation repository
// ────────────────────────────────────────────────

type fakeReservationRepository struct {
	mu           sync.Mutex
	items        map[string]*model.Reservation
	nextID       int
	findByIDFunc func(ctx context.Context, id string) (*model.Reservation, error)
	// afterPendingRead runs once, after the next FindPendingForDay snapshot.
	afterPendingRead func()
}

func newFakeRepo(existing ...*model.Reservation) *fakeReservationRepository {
	repo := &fakeReservationRepository{items: map[string]*model.Reservation{}}
	for _, r := range existing {
		if r.ID == "" {
			repo.nextID++
			r.ID = fmt.Sprintf("%024d", repo.nextID)
		}
		repo.items[r.ID] = r
	}
	return repo
}

func (f *fakeReservationRepository) Create(ctx context.Context, r *model.Reservation) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.nextID++
	r.ID = fmt.Sprintf("%024d", f.nextID)
	copied := *r
	f.items[r.ID] = &copied
	return nil
}

func (f *fakeReservationRepository) FindByID(ctx context.Context, id string) (*model.Reservation, error) {
	if f.findByIDFunc != nil {
		return f.findByIDFunc(ctx, id)
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	r, ok := f.items[id]
	if !ok {
		return nil, reservationserrors.ErrNotFound
	}
	copied := *r
	return &copied, nil
}

func (f *fakeReservationRepository) matching(filter model.ReservationFilter) []*model.Reservation {
	var out []*model.Reservation
	for _, r := range f.items {
		if filter.UserID != "" && r.UserID != filter.UserID {
			continue
		}
		if filter.RestaurantID != "" && r.RestaurantID != filter.RestaurantID {
			continue
		}
		out = append(out, r)
	}
	return out
}

func (f *fakeReservationRepository) Find(ctx context.Context, filter model.ReservationFilter, limit int, offset int64) ([]*model.Reservation, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.matching(filter), nil
}

func (f *fakeReservationRepository) Count(ctx context.Context, filter model.ReservationFilter) (int64, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return int64(len(f.matching(filter))), nil
}

func (f *fakeReservationRepository) FindPendingForDay(ctx context.Context, restaurantID, date, tableSize string) ([]*model.Reservation, error) {
	f.mu.Lock()
	var out []*model.Reservation
	for _, r := range f.items {
		if r.RestaurantID == restaurantID && r.ResDate == date && r.Status == model.StatusPending &&
			(tableSize == "" || r.TableSize == tableSize) {
			copied := *r
			out = append(out, &copied)
		}
	}
	hook := f.afterPendingRead
	f.afterPendingRead = nil
	f.mu.Unlock()

	if hook != nil {
		hook()
	}
	return out, nil
}

func (f *fakeReservationRepository) CountLive(ctx context.Context, userID string) (int64, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var n int64
	for _, r := range f.items {
		if r.UserID == userID && r.IsLive() {
			n++
		}
	}
	return n, nil
}

func (f *fakeReservationRepository) ExistsLiveAt(ctx context.Context, userID, restaurantID, date, startTime, excludeID string) (bool, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, r := range f.items {
		if r.ID != excludeID && r.UserID == userID && r.RestaurantID == restaurantID &&
			r.ResDate == date && r.ResStartTime == startTime && r.IsLive() {
			return true, nil
		}
	}
	return false, nil
}

func (f *fakeReservationRepository) UpdateSchedule(ctx context.Context, id string, r *model.Reservation) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	existing, ok := f.items[id]
	if !ok || existing.Status != model.StatusPending {
		return reservationserrors.ErrNotPending
	}
	copied := *r
	f.items[id] = &copied
	return nil
}

func (f *fakeReservationRepository) TransitionStatus(ctx context.Context, id, from, to string, lock bool) (*model.Reservation, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	r, ok := f.items[id]
	if !ok || r.Status != from {
		return nil, reservationserrors.ErrNotPending
	}
	r.Status = to
	if lock {
		r.LockedByAdmin = true
	}
	copied := *r
	return &copied, nil
}

func (f *fakeReservationRepository) Delete(ctx context.Context, id string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if _, ok := f.items[id]; !ok {
		return reservationserrors.ErrNotFound
	}
	delete(f.items, id)
	return nil
}

func (f *fakeReservationRepository) DeleteByRestaurant(ctx context.Context, restaurantID string) (int64, error) {
	return 0, nil
}

func (f *fakeReservationRepository) ExecuteTransaction(ctx context.Context, fn mongotx.TransactionFunc) error {
	return fn(nil)
}

// ────────────────────────────────────────────────
// Other collaborators
// ────────────────────────────────────────────────

type fakeLockRepository struct {
	mu      sync.Mutex
	held    map[string]string
	acquire int
}

func newFakeLocks() *fakeLockRepository {
	return &fakeLockRepository{held: map[string]string{}}
}

func (l *fakeLockRepository) Acquire(ctx context.Context, key, owner string, ttl time.Duration) error {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.acquire++
	if _, ok := l.held[key]; ok {
		return reservationserrors.ErrLockHeld
	}
	l.held[key] = owner
	return nil
}

func (l *fakeLockRepository) Release(ctx context.Context, key, owner string) error {
	l.mu.Lock()
	defer l.mu.Unlock()
	if l.held[key] == owner {
		delete(l.held, key)
	}
	return nil
}

type mockRestaurantReader struct {
	findByIDFunc func(ctx context.Context, id string) (*model.Restaurant, error)
}

func (m *mockRestaurantReader) FindByID(ctx context.Context, id string) (*model.Restaurant, error) {
	return m.findByIDFunc(ctx, id)
}

func restaurantsWith(r *model.Restaurant) *mockRestaurantReader {
	return &mockRestaurantReader{findByIDFunc: func(ctx context.Context, id string) (*model.Restaurant, error) {
		if id != r.ID {
			return nil, restaurantserrors.ErrNotFound
		}
		copied := *r
		return &copied, nil
	}}
}

type mockSettler struct {
	settleFunc func(ctx context.Context, r *model.Reservation) (*model.SettlementResult, error)
	calls      int
}

func (m *mockSettler) Settle(ctx context.Context, r *model.Reservation) (*model.SettlementResult, error) {
	m.calls++
	if m.settleFunc != nil {
		return m.settleFunc(ctx, r)
	}
	return &model.SettlementResult{NewBalance: 10}, nil
}

type recordingPublisher struct {
	mu     sync.Mutex
	events []string
}

func (p *recordingPublisher) Publish(ctx context.Context, eventType string, actorID string, r *model.Reservation) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.events = append(p.events, eventType)
	return nil
}

type fakeCache struct {
	mu          sync.Mutex
	versions    map[string]int
	entries     map[string][]model.AvailableSlot
	invalidated []string
}

func newFakeCache() *fakeCache {
	return &fakeCache{versions: map[string]int{}, entries: map[string][]model.AvailableSlot{}}
}

func (c *fakeCache) Get(ctx context.Context, restaurantID, date, size string, duration int, dst any) (cache.Entry, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	day := restaurantID + "|" + date
	entry := cache.Entry{Key: fmt.Sprintf("%s|%s|%d|v%d", day, size, duration, c.versions[day])}
	v, ok := c.entries[entry.Key]
	if !ok {
		return entry, false
	}
	*dst.(*[]model.AvailableSlot) = v
	return entry, true
}

func (c *fakeCache) Set(ctx context.Context, entry cache.Entry, value any) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.entries[entry.Key] = value.([]model.AvailableSlot)
	return nil
}

func (c *fakeCache) Invalidate(ctx context.Context, restaurantID, date string) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	day := restaurantID + "|" + date
	c.invalidated = append(c.invalidated, day)
	c.versions[day]++
	return nil
}

// ────────────────────────────────────────────────
// Fixtures
// ────────────────────────────────────────────────

const (
	testRestaurantID = "5f1e8a7b9c0d1e2f3a4b5c6d"
	testDate         = "2025-05-10"
)

var testNow = time.Date(2025, 5, 1, 9, 0, 0, 0, time.UTC)

var (
	alice = auth.Identity{UserID: "u-alice", Role: auth.RoleUser}
	bob   = auth.Identity{UserID: "u-bob", Role: auth.RoleUser}
	admin = auth.Identity{UserID: "u-admin", Role: auth.RoleAdmin}
)

func testConfig() *config.Config {
	return &config.Config{
		Log:                  logger.Discard(),
		ReadTimeout:          time.Second,
		WriteTimeout:         time.Second,
		MaxLiveReservations:  3,
		PointsPerReservation: 10,
		SmallTableMaxParty:   4,
		MediumTableMaxParty:  9,
		SlotLockTTL:          10 * time.Second,
		SlotLockRetries:      1,
		SlotLockBackoff:      time.Millisecond,
	}
}

func testRestaurant(small, medium, large int) *model.Restaurant {
	return &model.Restaurant{
		ID:          testRestaurantID,
		Name:        "Baan Suan",
		OpenTime:    "10:00",
		CloseTime:   "22:00",
		SmallTable:  small,
		MediumTable: medium,
		LargeTable:  large,
	}
}

func pendingAt(userID, start string, duration int, size string) *model.Reservation {
	return &model.Reservation{
		UserID:       userID,
		RestaurantID: testRestaurantID,
		ResDate:      testDate,
		ResStartTime: start,
		DurationMin:  duration,
		TableSize:    size,
		Status:       model.StatusPending,
	}
}

type harness struct {
	svc       *reservationService
	repo      *fakeReservationRepository
	locks     *fakeLockRepository
	settler   *mockSettler
	publisher *recordingPublisher
	cache     *fakeCache
}

func newHarness(restaurant *model.Restaurant, existing ...*model.Reservation) *harness {
	cfg := testConfig()
	h := &harness{
		repo:      newFakeRepo(existing...),
		locks:     newFakeLocks(),
		settler:   &mockSettler{},
		publisher: &recordingPublisher{},
		cache:     newFakeCache(),
	}
	svc := NewReservationService(
		h.repo,
		h.locks,
		restaurantsWith(restaurant),
		h.settler,
		h.publisher,
		h.cache,
		validator.NewReservationValidator(cfg.Log),
		cfg,
	).(*reservationService)
	svc.now = func() time.Time { return testNow }
	h.svc = svc
	return h
}

func createRequest(start string, duration, party int) *model.CreateReservationRequest {
	return &model.CreateReservationRequest{
		ResDate:      testDate,
		ResStartTime: start,
		Duration:     duration,
		PartySize:    party,
	}
}

func assertStatus(t *testing.T, err error, want int) *apperrors.AppError {
	t.Helper()
	if err == nil {
		t.Fatalf("expected error with status %d, got nil", want)
	}
	appErr := apperrors.AsAppError(err)
	if appErr.StatusCode() != want {
		t.Fatalf("status = %d (%s), want %d", appErr.StatusCode(), appErr.Message, want)
	}
	return appErr
}

var _ events.Publisher = (*recordingPublisher)(nil)
