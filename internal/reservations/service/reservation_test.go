package service

import (
	"context"
	"errors"
	"net/http"
	"strings"
	"sync"
	"tablereserve/internal/reservations/events"
	"tablereserve/pkg/model"
	"testing"
)

// ────────────────────────────────────────────────
// Create
// ────────────────────────────────────────────────

func TestCreate_Success(t *testing.T) {
	h := newHarness(testRestaurant(2, 1, 1))

	r, err := h.svc.Create(context.Background(), alice, testRestaurantID, createRequest("18:00", 90, 6))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if r.Status != model.StatusPending || r.UserID != alice.UserID {
		t.Errorf("reservation = %+v", r)
	}
	if r.TableSize != model.TableMedium {
		t.Errorf("TableSize = %s, want medium for a party of 6", r.TableSize)
	}
	if r.ResEndTime != "19:30" {
		t.Errorf("ResEndTime = %s, want 19:30", r.ResEndTime)
	}
	if len(h.publisher.events) != 1 || h.publisher.events[0] != events.TypeCreated {
		t.Errorf("events = %v", h.publisher.events)
	}
	if len(h.cache.invalidated) != 1 {
		t.Errorf("cache should be invalidated once, got %v", h.cache.invalidated)
	}
	if len(h.locks.held) != 0 {
		t.Errorf("locks must be released, still held: %v", h.locks.held)
	}
}

func TestCreate_NonAdminCannotBookForOthers(t *testing.T) {
	h := newHarness(testRestaurant(2, 0, 0))

	req := createRequest("12:00", 60, 2)
	req.UserID = "5f1e8a7b9c0d1e2f3a4b5c00"
	r, err := h.svc.Create(context.Background(), alice, testRestaurantID, req)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if r.UserID != alice.UserID {
		t.Errorf("UserID = %s, want caller %s", r.UserID, alice.UserID)
	}
}

func TestCreate_LiveReservationCap(t *testing.T) {
	h := newHarness(testRestaurant(5, 0, 0),
		pendingAt(alice.UserID, "11:00", 60, model.TableSmall),
		pendingAt(alice.UserID, "13:00", 60, model.TableSmall),
		pendingAt(alice.UserID, "15:00", 60, model.TableSmall),
	)

	_, err := h.svc.Create(context.Background(), alice, testRestaurantID, createRequest("18:00", 60, 2))
	appErr := assertStatus(t, err, http.StatusBadRequest)
	if appErr.Message != "the user with id u-alice has already made 3 reservations" {
		t.Errorf("message = %q", appErr.Message)
	}
}

func TestCreate_CapIgnoresClosedAndLockedReservations(t *testing.T) {
	cancelled := pendingAt(alice.UserID, "11:00", 60, model.TableSmall)
	cancelled.Status = model.StatusCancelled
	locked := pendingAt(alice.UserID, "13:00", 60, model.TableSmall)
	locked.LockedByAdmin = true
	complete := pendingAt(alice.UserID, "15:00", 60, model.TableSmall)
	complete.Status = model.StatusComplete

	h := newHarness(testRestaurant(5, 0, 0), cancelled, locked, complete)
	if _, err := h.svc.Create(context.Background(), alice, testRestaurantID, createRequest("18:00", 60, 2)); err != nil {
		t.Fatalf("non-live reservations must not count toward the cap: %v", err)
	}
}

func TestCreate_AdminExemptFromCap(t *testing.T) {
	h := newHarness(testRestaurant(5, 0, 0),
		pendingAt(admin.UserID, "11:00", 60, model.TableSmall),
		pendingAt(admin.UserID, "13:00", 60, model.TableSmall),
		pendingAt(admin.UserID, "15:00", 60, model.TableSmall),
	)

	if _, err := h.svc.Create(context.Background(), admin, testRestaurantID, createRequest("18:00", 60, 2)); err != nil {
		t.Fatalf("admin should be exempt from the cap: %v", err)
	}
}

func TestCreate_DuplicateStartTime(t *testing.T) {
	h := newHarness(testRestaurant(5, 0, 0), pendingAt(alice.UserID, "18:00", 60, model.TableSmall))

	_, err := h.svc.Create(context.Background(), alice, testRestaurantID, createRequest("18:00", 60, 2))
	appErr := assertStatus(t, err, http.StatusBadRequest)
	if appErr.Message != "You already made a reservation at this time." {
		t.Errorf("message = %q", appErr.Message)
	}
}

func TestCreate_OutsideOpeningHours(t *testing.T) {
	tests := []struct {
		name     string
		start    string
		duration int
		wantErr  bool
	}{
		{"inside", "18:00", 60, false},
		{"ends at close", "21:00", 60, false},
		{"starts at open", "10:00", 60, false},
		{"before open", "09:30", 60, true},
		{"runs past close", "21:30", 60, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			h := newHarness(testRestaurant(2, 0, 0))
			_, err := h.svc.Create(context.Background(), alice, testRestaurantID, createRequest(tt.start, tt.duration, 2))
			if !tt.wantErr {
				if err != nil {
					t.Fatalf("unexpected error: %v", err)
				}
				return
			}
			appErr := assertStatus(t, err, http.StatusBadRequest)
			if appErr.Message != "Reservation must be between 10:00 and 22:00" {
				t.Errorf("message = %q", appErr.Message)
			}
		})
	}
}

func TestCreate_PastDate(t *testing.T) {
	h := newHarness(testRestaurant(2, 0, 0))
	req := createRequest("18:00", 60, 2)
	req.ResDate = "2025-04-30"

	_, err := h.svc.Create(context.Background(), alice, testRestaurantID, req)
	assertStatus(t, err, http.StatusBadRequest)
}

func TestCreate_ValidationFailure(t *testing.T) {
	h := newHarness(testRestaurant(2, 0, 0))
	req := createRequest("6pm", 0, 2)

	_, err := h.svc.Create(context.Background(), alice, testRestaurantID, req)
	appErr := assertStatus(t, err, http.StatusBadRequest)
	if !strings.Contains(appErr.Message, "resStartTime") {
		t.Errorf("message should name the field, got %q", appErr.Message)
	}
}

func TestCreate_RestaurantNotFound(t *testing.T) {
	h := newHarness(testRestaurant(2, 0, 0))

	_, err := h.svc.Create(context.Background(), alice, "5f1e8a7b9c0d1e2f3a4b5cff", createRequest("18:00", 60, 2))
	appErr := assertStatus(t, err, http.StatusNotFound)
	if appErr.Message != "No restaurant with the id of 5f1e8a7b9c0d1e2f3a4b5cff" {
		t.Errorf("message = %q", appErr.Message)
	}
}

func TestCreate_NoTableLeft(t *testing.T) {
	h := newHarness(testRestaurant(1, 0, 0), pendingAt(bob.UserID, "18:00", 60, model.TableSmall))

	_, err := h.svc.Create(context.Background(), alice, testRestaurantID, createRequest("18:30", 60, 2))
	appErr := assertStatus(t, err, http.StatusBadRequest)
	if appErr.Message != NoTablesMessage {
		t.Errorf("message = %q", appErr.Message)
	}

	if _, err := h.svc.Create(context.Background(), alice, testRestaurantID, createRequest("19:00", 60, 2)); err != nil {
		t.Errorf("19:00 should be free: %v", err)
	}
}

func TestCreate_LockContention(t *testing.T) {
	h := newHarness(testRestaurant(2, 0, 0))
	h.locks.held[slotLockKey(testRestaurantID, testDate, model.TableSmall)] = "someone-else"

	_, err := h.svc.Create(context.Background(), alice, testRestaurantID, createRequest("18:00", 60, 2))
	assertStatus(t, err, http.StatusConflict)

	if _, held := h.locks.held[userLockKey(alice.UserID)]; held {
		t.Errorf("user lock must be released when the slot lock fails")
	}
	// one user lock plus an initial and one retried slot attempt
	if h.locks.acquire != 3 {
		t.Errorf("acquire attempts = %d, want 3", h.locks.acquire)
	}
}

func TestCreate_ConcurrentRequestsNeverOverbook(t *testing.T) {
	h := newHarness(testRestaurant(1, 0, 0))
	h.svc.cfg.SlotLockRetries = 50

	users := []string{"u1", "u2", "u3", "u4", "u5", "u6"}
	var wg sync.WaitGroup
	var mu sync.Mutex
	succeeded := 0
	for _, u := range users {
		wg.Add(1)
		go func(userID string) {
			defer wg.Done()
			caller := alice
			caller.UserID = userID
			if _, err := h.svc.Create(context.Background(), caller, testRestaurantID, createRequest("18:00", 60, 2)); err == nil {
				mu.Lock()
				succeeded++
				mu.Unlock()
			}
		}(u)
	}
	wg.Wait()

	if succeeded != 1 {
		t.Errorf("succeeded = %d, want exactly 1 for a single table", succeeded)
	}
}

// ────────────────────────────────────────────────
// Update
// ────────────────────────────────────────────────

func TestUpdate_ExcludesItselfFromCapacity(t *testing.T) {
	existing := pendingAt(alice.UserID, "18:00", 60, model.TableSmall)
	h := newHarness(testRestaurant(1, 0, 0), existing)

	duration := 120
	updated, err := h.svc.Update(context.Background(), alice, existing.ID, &model.UpdateReservationRequest{Duration: &duration})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if updated.ResEndTime != "20:00" {
		t.Errorf("ResEndTime = %s, want 20:00", updated.ResEndTime)
	}
}

func TestUpdate_RejectsOtherUsersAndClosedReservations(t *testing.T) {
	existing := pendingAt(alice.UserID, "18:00", 60, model.TableSmall)
	closed := pendingAt(alice.UserID, "12:00", 60, model.TableSmall)
	closed.Status = model.StatusCancelled
	h := newHarness(testRestaurant(2, 0, 0), existing, closed)

	start := "19:00"
	_, err := h.svc.Update(context.Background(), bob, existing.ID, &model.UpdateReservationRequest{ResStartTime: &start})
	assertStatus(t, err, http.StatusUnauthorized)

	_, err = h.svc.Update(context.Background(), alice, closed.ID, &model.UpdateReservationRequest{ResStartTime: &start})
	assertStatus(t, err, http.StatusBadRequest)
}

func TestUpdate_RevalidatesWindow(t *testing.T) {
	existing := pendingAt(alice.UserID, "18:00", 60, model.TableSmall)
	h := newHarness(testRestaurant(2, 0, 0), existing)

	start := "21:30"
	_, err := h.svc.Update(context.Background(), alice, existing.ID, &model.UpdateReservationRequest{ResStartTime: &start})
	assertStatus(t, err, http.StatusBadRequest)
}

func TestUpdate_MovingDateInvalidatesBothDays(t *testing.T) {
	existing := pendingAt(alice.UserID, "18:00", 60, model.TableSmall)
	h := newHarness(testRestaurant(2, 0, 0), existing)

	date := "2025-05-11"
	if _, err := h.svc.Update(context.Background(), alice, existing.ID, &model.UpdateReservationRequest{ResDate: &date}); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(h.cache.invalidated) != 2 {
		t.Errorf("invalidated = %v, want both days", h.cache.invalidated)
	}
}

func TestUpdate_ContactOnlySkipsSlotChecks(t *testing.T) {
	mine := pendingAt(alice.UserID, "18:00", 60, model.TableSmall)
	other := pendingAt(bob.UserID, "18:00", 60, model.TableSmall)
	h := newHarness(testRestaurant(1, 0, 0), mine, other)

	contact := " 0812345678 "
	updated, err := h.svc.Update(context.Background(), alice, mine.ID, &model.UpdateReservationRequest{Contact: &contact})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if updated.Contact != "0812345678" {
		t.Errorf("Contact = %q", updated.Contact)
	}
	if h.locks.acquire != 0 {
		t.Errorf("contact edit took %d slot locks, want 0", h.locks.acquire)
	}
	if stored := h.repo.items[mine.ID]; stored.Contact != "0812345678" {
		t.Errorf("stored contact = %q", stored.Contact)
	}

	duration := 90
	_, err = h.svc.Update(context.Background(), alice, mine.ID, &model.UpdateReservationRequest{Duration: &duration})
	assertStatus(t, err, http.StatusBadRequest)
}

// ────────────────────────────────────────────────
// Status transitions
// ────────────────────────────────────────────────

func TestCancel_Twice(t *testing.T) {
	existing := pendingAt(alice.UserID, "18:00", 60, model.TableSmall)
	h := newHarness(testRestaurant(2, 0, 0), existing)

	r, err := h.svc.Cancel(context.Background(), alice, existing.ID)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if r.Status != model.StatusCancelled {
		t.Errorf("status = %s", r.Status)
	}

	_, err = h.svc.Cancel(context.Background(), alice, existing.ID)
	appErr := assertStatus(t, err, http.StatusBadRequest)
	if appErr.Message != "This reservation has already been cancelled" {
		t.Errorf("message = %q", appErr.Message)
	}
}

func TestCancel_Authorization(t *testing.T) {
	existing := pendingAt(alice.UserID, "18:00", 60, model.TableSmall)
	locked := pendingAt(alice.UserID, "12:00", 60, model.TableSmall)
	locked.LockedByAdmin = true
	h := newHarness(testRestaurant(2, 0, 0), existing, locked)

	_, err := h.svc.Cancel(context.Background(), bob, existing.ID)
	assertStatus(t, err, http.StatusUnauthorized)

	_, err = h.svc.Cancel(context.Background(), alice, locked.ID)
	assertStatus(t, err, http.StatusBadRequest)

	if _, err := h.svc.Cancel(context.Background(), admin, locked.ID); err != nil {
		t.Errorf("admin may cancel a locked reservation: %v", err)
	}
}

func TestCancel_CompleteReservation(t *testing.T) {
	done := pendingAt(alice.UserID, "18:00", 60, model.TableSmall)
	done.Status = model.StatusComplete
	h := newHarness(testRestaurant(2, 0, 0), done)

	_, err := h.svc.Cancel(context.Background(), alice, done.ID)
	assertStatus(t, err, http.StatusBadRequest)
}

func TestMarkIncomplete(t *testing.T) {
	existing := pendingAt(alice.UserID, "18:00", 60, model.TableSmall)
	h := newHarness(testRestaurant(2, 0, 0), existing)

	_, err := h.svc.MarkIncomplete(context.Background(), alice, existing.ID)
	assertStatus(t, err, http.StatusForbidden)

	r, err := h.svc.MarkIncomplete(context.Background(), admin, existing.ID)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if r.Status != model.StatusIncomplete || !r.LockedByAdmin {
		t.Errorf("reservation = %+v", r)
	}

	_, err = h.svc.MarkIncomplete(context.Background(), admin, existing.ID)
	assertStatus(t, err, http.StatusBadRequest)

	_, err = h.svc.Cancel(context.Background(), alice, existing.ID)
	assertStatus(t, err, http.StatusBadRequest)
}

func TestComplete_SettlesOnce(t *testing.T) {
	existing := pendingAt(alice.UserID, "18:00", 60, model.TableSmall)
	h := newHarness(testRestaurant(2, 0, 0), existing)

	_, err := h.svc.Complete(context.Background(), alice, existing.ID)
	assertStatus(t, err, http.StatusForbidden)

	result, err := h.svc.Complete(context.Background(), admin, existing.ID)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !result.Settled || result.NewBalance == nil || *result.NewBalance != 10 {
		t.Errorf("result = %+v", result)
	}
	if result.Reservation.Status != model.StatusComplete {
		t.Errorf("status = %s", result.Reservation.Status)
	}

	_, err = h.svc.Complete(context.Background(), admin, existing.ID)
	assertStatus(t, err, http.StatusBadRequest)
	if h.settler.calls != 1 {
		t.Errorf("settler calls = %d, want 1", h.settler.calls)
	}
}

func TestComplete_SettlementFailureIsReported(t *testing.T) {
	existing := pendingAt(alice.UserID, "18:00", 60, model.TableSmall)
	h := newHarness(testRestaurant(2, 0, 0), existing)
	h.settler.settleFunc = func(ctx context.Context, r *model.Reservation) (*model.SettlementResult, error) {
		return nil, errors.New("mongo unavailable")
	}

	result, err := h.svc.Complete(context.Background(), admin, existing.ID)
	if err != nil {
		t.Fatalf("completion must succeed when settlement fails: %v", err)
	}
	if result.Settled || result.NewBalance != nil {
		t.Errorf("result = %+v, want settled=false", result)
	}
	if h.publisher.events[len(h.publisher.events)-1] != events.TypeCompleted {
		t.Errorf("completed event must still be published for reconciliation")
	}
}

func TestSettle_RequiresComplete(t *testing.T) {
	existing := pendingAt(alice.UserID, "18:00", 60, model.TableSmall)
	h := newHarness(testRestaurant(2, 0, 0), existing)

	_, err := h.svc.Settle(context.Background(), admin, existing.ID)
	assertStatus(t, err, http.StatusBadRequest)

	if _, err := h.svc.Complete(context.Background(), admin, existing.ID); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	result, err := h.svc.Settle(context.Background(), admin, existing.ID)
	if err != nil || !result.Settled {
		t.Fatalf("Settle() = %+v, %v", result, err)
	}
}

func TestDelete(t *testing.T) {
	existing := pendingAt(alice.UserID, "18:00", 60, model.TableSmall)
	h := newHarness(testRestaurant(2, 0, 0), existing)

	err := h.svc.Delete(context.Background(), bob, existing.ID)
	assertStatus(t, err, http.StatusUnauthorized)

	if err := h.svc.Delete(context.Background(), alice, existing.ID); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	_, err = h.svc.GetByID(context.Background(), alice, existing.ID)
	assertStatus(t, err, http.StatusNotFound)
}

// ────────────────────────────────────────────────
// Reads
// ────────────────────────────────────────────────

func TestList_RoleFiltered(t *testing.T) {
	h := newHarness(testRestaurant(5, 0, 0),
		pendingAt(alice.UserID, "11:00", 60, model.TableSmall),
		pendingAt(alice.UserID, "13:00", 60, model.TableSmall),
		pendingAt(bob.UserID, "15:00", 60, model.TableSmall),
	)

	_, count, err := h.svc.List(context.Background(), alice, "", 25, 0)
	if err != nil || count != 2 {
		t.Errorf("user list count = %d, err = %v; want 2", count, err)
	}

	_, count, err = h.svc.List(context.Background(), admin, "", 25, 0)
	if err != nil || count != 3 {
		t.Errorf("admin list count = %d, err = %v; want 3", count, err)
	}

	_, _, err = h.svc.ListByUser(context.Background(), alice, bob.UserID, 25, 0)
	assertStatus(t, err, http.StatusForbidden)

	reservations, _, err := h.svc.ListByUser(context.Background(), admin, bob.UserID, 25, 0)
	if err != nil || len(reservations) != 1 {
		t.Errorf("ListByUser() = %d, %v", len(reservations), err)
	}
}

func TestGetByID_Ownership(t *testing.T) {
	existing := pendingAt(alice.UserID, "18:00", 60, model.TableSmall)
	h := newHarness(testRestaurant(2, 0, 0), existing)

	if _, err := h.svc.GetByID(context.Background(), alice, existing.ID); err != nil {
		t.Errorf("owner should read: %v", err)
	}
	if _, err := h.svc.GetByID(context.Background(), admin, existing.ID); err != nil {
		t.Errorf("admin should read: %v", err)
	}
	_, err := h.svc.GetByID(context.Background(), bob, existing.ID)
	assertStatus(t, err, http.StatusUnauthorized)
}
