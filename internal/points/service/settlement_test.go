package service

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"sync"
	"testing"
	"time"

	pointserrors "tablereserve/internal/points/errors"
	userserrors "tablereserve/internal/users/errors"
	"tablereserve/pkg/auth"
	"tablereserve/pkg/config"
	mongotx "tablereserve/pkg/db/mongo"
	apperrors "tablereserve/pkg/errors"
	"tablereserve/pkg/logger"
	"tablereserve/pkg/model"
)

// ledger is an in-memory store shared by the transaction and user fakes so a
// failed unit of work can be rolled back as a whole.
type ledger struct {
	mu       sync.Mutex
	entries  []*model.PointTransaction
	balances map[string]int
	failInc  error
}

func newLedger(balances map[string]int) *ledger {
	return &ledger{balances: balances}
}

func (l *ledger) Create(ctx context.Context, tx *model.PointTransaction) error {
	for _, e := range l.entries {
		if e.Source == tx.Source && e.SourceID == tx.SourceID && e.Type == tx.Type {
			return pointserrors.ErrAlreadyRecorded
		}
	}
	tx.ID = fmt.Sprintf("%024d", len(l.entries)+1)
	tx.CreatedAt = time.Now()
	copied := *tx
	l.entries = append(l.entries, &copied)
	return nil
}

func (l *ledger) Find(ctx context.Context, userID string, limit int, offset int64) ([]*model.PointTransaction, error) {
	l.mu.Lock()
	defer l.mu.Unlock()
	var out []*model.PointTransaction
	for _, e := range l.entries {
		if userID == "" || e.UserID == userID {
			out = append(out, e)
		}
	}
	return out, nil
}

func (l *ledger) Count(ctx context.Context, userID string) (int64, error) {
	out, _ := l.Find(ctx, userID, 0, 0)
	return int64(len(out)), nil
}

// ExecuteTransaction serialises units of work and restores the previous state
// when fn fails.
func (l *ledger) ExecuteTransaction(ctx context.Context, fn mongotx.TransactionFunc) error {
	l.mu.Lock()
	defer l.mu.Unlock()

	entries := append([]*model.PointTransaction(nil), l.entries...)
	balances := make(map[string]int, len(l.balances))
	for k, v := range l.balances {
		balances[k] = v
	}

	if err := fn(nil); err != nil {
		l.entries, l.balances = entries, balances
		return err
	}
	return nil
}

func (l *ledger) FindByID(ctx context.Context, id string) (*model.User, error) {
	l.mu.Lock()
	defer l.mu.Unlock()
	balance, ok := l.balances[id]
	if !ok {
		return nil, userserrors.ErrNotFound
	}
	return &model.User{ID: id, CurrentPoints: balance}, nil
}

func (l *ledger) IncrementPoints(ctx context.Context, id string, amount int) (int, error) {
	if l.failInc != nil {
		return 0, l.failInc
	}
	if _, ok := l.balances[id]; !ok {
		return 0, userserrors.ErrNotFound
	}
	l.balances[id] += amount
	return l.balances[id], nil
}

type recordingNotifier struct {
	mu       sync.Mutex
	messages []string
	err      error
}

func (n *recordingNotifier) Notify(ctx context.Context, userID, title, message string) error {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.messages = append(n.messages, userID+": "+title)
	return n.err
}

func newSettlement(l *ledger, n *recordingNotifier) SettlementService {
	cfg := &config.Config{Log: logger.Discard(), PointsPerReservation: 10}
	return NewSettlementService(l, l, n, cfg)
}

func completed(id, userID string) *model.Reservation {
	return &model.Reservation{
		ID:           id,
		UserID:       userID,
		ResDate:      "2025-05-10",
		ResStartTime: "18:00",
		Status:       model.StatusComplete,
	}
}

func TestSettle_CreditsOnceAndRecordsEarn(t *testing.T) {
	l := newLedger(map[string]int{"u-alice": 25})
	n := &recordingNotifier{}
	svc := newSettlement(l, n)

	result, err := svc.Settle(context.Background(), completed("r-1", "u-alice"))
	if err != nil {
		t.Fatalf("Settle() error = %v", err)
	}
	if result.NewBalance != 35 || result.AlreadySettled {
		t.Errorf("result = %+v, want balance 35 newly settled", result)
	}

	if len(l.entries) != 1 {
		t.Fatalf("ledger has %d entries, want 1", len(l.entries))
	}
	entry := l.entries[0]
	if entry.Type != model.TransactionEarn || entry.Source != model.SourceReservation || entry.SourceID != "r-1" || entry.Amount != 10 {
		t.Errorf("entry = %+v", entry)
	}
	if len(n.messages) != 1 {
		t.Errorf("notifications = %v, want one", n.messages)
	}
}

func TestSettle_RepeatDoesNotDoubleCredit(t *testing.T) {
	l := newLedger(map[string]int{"u-alice": 0})
	n := &recordingNotifier{}
	svc := newSettlement(l, n)
	r := completed("r-1", "u-alice")

	if _, err := svc.Settle(context.Background(), r); err != nil {
		t.Fatalf("first Settle() error = %v", err)
	}
	again, err := svc.Settle(context.Background(), r)
	if err != nil {
		t.Fatalf("second Settle() error = %v", err)
	}
	if !again.AlreadySettled || again.NewBalance != 10 {
		t.Errorf("second result = %+v, want already settled at 10", again)
	}
	if l.balances["u-alice"] != 10 || len(l.entries) != 1 {
		t.Errorf("balance = %d entries = %d, want 10 and 1", l.balances["u-alice"], len(l.entries))
	}
	if len(n.messages) != 1 {
		t.Errorf("notifications = %d, want 1", len(n.messages))
	}
}

func TestSettle_ConcurrentCallsCreditOnce(t *testing.T) {
	l := newLedger(map[string]int{"u-alice": 0})
	svc := newSettlement(l, &recordingNotifier{})
	r := completed("r-1", "u-alice")

	var wg sync.WaitGroup
	for i := 0; i < 8; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			if _, err := svc.Settle(context.Background(), r); err != nil {
				t.Errorf("Settle() error = %v", err)
			}
		}()
	}
	wg.Wait()

	if l.balances["u-alice"] != 10 {
		t.Errorf("balance = %d, want 10", l.balances["u-alice"])
	}
}

func TestSettle_RollsBackWhenCreditFails(t *testing.T) {
	l := newLedger(map[string]int{"u-alice": 5})
	l.failInc = errors.New("connection reset")
	svc := newSettlement(l, &recordingNotifier{})

	_, err := svc.Settle(context.Background(), completed("r-1", "u-alice"))
	if got := apperrors.AsAppError(err).StatusCode(); got != http.StatusInternalServerError {
		t.Fatalf("status = %d, want 500", got)
	}
	if len(l.entries) != 0 || l.balances["u-alice"] != 5 {
		t.Errorf("state changed after failed settlement: entries=%d balance=%d", len(l.entries), l.balances["u-alice"])
	}

	l.failInc = nil
	result, err := svc.Settle(context.Background(), completed("r-1", "u-alice"))
	if err != nil || result.NewBalance != 15 {
		t.Errorf("retry = %+v, %v; want balance 15", result, err)
	}
}

func TestSettle_Guards(t *testing.T) {
	l := newLedger(map[string]int{"u-alice": 0})
	svc := newSettlement(l, &recordingNotifier{})

	pending := completed("r-1", "u-alice")
	pending.Status = model.StatusPending

	tests := []struct {
		name       string
		r          *model.Reservation
		wantStatus int
	}{
		{name: "nil reservation", r: nil, wantStatus: http.StatusBadRequest},
		{name: "not complete", r: pending, wantStatus: http.StatusBadRequest},
		{name: "unknown user", r: completed("r-2", "u-ghost"), wantStatus: http.StatusNotFound},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := svc.Settle(context.Background(), tt.r)
			if err == nil {
				t.Fatal("expected error")
			}
			if got := apperrors.AsAppError(err).StatusCode(); got != tt.wantStatus {
				t.Errorf("status = %d, want %d", got, tt.wantStatus)
			}
		})
	}
	if len(l.entries) != 0 {
		t.Errorf("ledger has %d entries after rejected settlements", len(l.entries))
	}
}

func TestSettle_NotificationFailureIsIgnored(t *testing.T) {
	l := newLedger(map[string]int{"u-alice": 0})
	svc := newSettlement(l, &recordingNotifier{err: errors.New("boom")})

	result, err := svc.Settle(context.Background(), completed("r-1", "u-alice"))
	if err != nil || result.NewBalance != 10 {
		t.Errorf("Settle() = %+v, %v", result, err)
	}
}

func TestListTransactions_RoleFiltered(t *testing.T) {
	l := newLedger(map[string]int{"u-alice": 0, "u-bob": 0})
	svc := newSettlement(l, &recordingNotifier{})
	ctx := context.Background()

	for i, owner := range []string{"u-alice", "u-bob", "u-alice"} {
		if _, err := svc.Settle(ctx, completed(fmt.Sprintf("r-%d", i), owner)); err != nil {
			t.Fatalf("Settle() error = %v", err)
		}
	}

	_, count, err := svc.ListTransactions(ctx, auth.Identity{UserID: "u-alice", Role: auth.RoleUser}, 25, 0)
	if err != nil || count != 2 {
		t.Errorf("user view count = %d, err = %v; want 2", count, err)
	}
	_, count, err = svc.ListTransactions(ctx, auth.Identity{UserID: "u-admin", Role: auth.RoleAdmin}, 25, 0)
	if err != nil || count != 3 {
		t.Errorf("admin view count = %d, err = %v; want 3", count, err)
	}
	if _, _, err := svc.ListTransactions(ctx, auth.Identity{}, 25, 0); err == nil {
		t.Errorf("anonymous caller should be rejected")
	}
}
