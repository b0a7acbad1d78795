package consumer

import (
	"context"
	"errors"
	"testing"

	reservationserrors "tablereserve/internal/reservations/errors"
	"tablereserve/internal/reservations/events"
	apperrors "tablereserve/pkg/errors"
	"tablereserve/pkg/kafka"
	"tablereserve/pkg/logger"
	"tablereserve/pkg/model"
)

type mockReservationReader struct {
	FindByIDFunc func(ctx context.Context, id string) (*model.Reservation, error)
}

func (m *mockReservationReader) FindByID(ctx context.Context, id string) (*model.Reservation, error) {
	return m.FindByIDFunc(ctx, id)
}

type mockSettler struct {
	calls      int
	SettleFunc func(ctx context.Context, r *model.Reservation) (*model.SettlementResult, error)
}

func (m *mockSettler) Settle(ctx context.Context, r *model.Reservation) (*model.SettlementResult, error) {
	m.calls++
	if m.SettleFunc == nil {
		return &model.SettlementResult{NewBalance: 10}, nil
	}
	return m.SettleFunc(ctx, r)
}

type memoryClaims struct {
	claimed  map[string]bool
	released []string
	err      error
}

func newMemoryClaims() *memoryClaims {
	return &memoryClaims{claimed: map[string]bool{}}
}

func (c *memoryClaims) Claim(ctx context.Context, eventID string) (bool, error) {
	if c.err != nil {
		return false, c.err
	}
	if c.claimed[eventID] {
		return false, nil
	}
	c.claimed[eventID] = true
	return true, nil
}

func (c *memoryClaims) Release(ctx context.Context, eventID string) error {
	delete(c.claimed, eventID)
	c.released = append(c.released, eventID)
	return nil
}

func completedReservation() *model.Reservation {
	return &model.Reservation{ID: "r-1", UserID: "u-alice", Status: model.StatusComplete}
}

func eventMessage(t *testing.T, eventType string, r *model.Reservation) kafka.Message {
	t.Helper()
	msg, err := kafka.NewMessage().
		WithKey(r.ID).
		WithEventType(eventType).
		WithEventID(events.EventID(eventType, r)).
		WithValue(events.ReservationEvent{Type: eventType, Reservation: r}).
		Build()
	if err != nil {
		t.Fatalf("Build() error = %v", err)
	}
	return msg
}

func storedAs(r *model.Reservation) *mockReservationReader {
	return &mockReservationReader{
		FindByIDFunc: func(ctx context.Context, id string) (*model.Reservation, error) {
			return r, nil
		},
	}
}

func TestHandle_SettlesCompletedReservation(t *testing.T) {
	settler := &mockSettler{}
	claims := newMemoryClaims()
	c := NewSettlementConsumer(storedAs(completedReservation()), settler, claims, logger.Discard())

	msg := eventMessage(t, events.TypeCompleted, completedReservation())
	if err := c.Handle(context.Background(), msg); err != nil {
		t.Fatalf("Handle() error = %v", err)
	}
	if settler.calls != 1 {
		t.Errorf("Settle called %d times, want 1", settler.calls)
	}

	if err := c.Handle(context.Background(), msg); err != nil {
		t.Fatalf("redelivery Handle() error = %v", err)
	}
	if settler.calls != 1 {
		t.Errorf("redelivery settled again: %d calls", settler.calls)
	}
}

func TestHandle_Skips(t *testing.T) {
	cancelled := completedReservation()
	cancelled.Status = model.StatusCancelled

	tests := []struct {
		name      string
		eventType string
		reader    *mockReservationReader
	}{
		{
			name:      "other event type",
			eventType: events.TypeCreated,
			reader:    storedAs(completedReservation()),
		},
		{
			name:      "reservation no longer complete",
			eventType: events.TypeCompleted,
			reader:    storedAs(cancelled),
		},
		{
			name:      "reservation deleted",
			eventType: events.TypeCompleted,
			reader: &mockReservationReader{
				FindByIDFunc: func(ctx context.Context, id string) (*model.Reservation, error) {
					return nil, reservationserrors.ErrNotFound
				},
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			settler := &mockSettler{}
			c := NewSettlementConsumer(tt.reader, settler, newMemoryClaims(), logger.Discard())
			if err := c.Handle(context.Background(), eventMessage(t, tt.eventType, completedReservation())); err != nil {
				t.Fatalf("Handle() error = %v", err)
			}
			if settler.calls != 0 {
				t.Errorf("Settle called %d times, want 0", settler.calls)
			}
		})
	}
}

func TestHandle_ClassifiesFailures(t *testing.T) {
	tests := []struct {
		name          string
		settleErr     error
		wantTransient bool
	}{
		{name: "store failure is retried", settleErr: apperrors.Internal("Failed to settle reservation", errors.New("timeout")), wantTransient: true},
		{name: "missing user goes to dlq", settleErr: apperrors.NotFoundWithID("user", "u-alice"), wantTransient: false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			settler := &mockSettler{
				SettleFunc: func(ctx context.Context, r *model.Reservation) (*model.SettlementResult, error) {
					return nil, tt.settleErr
				},
			}
			claims := newMemoryClaims()
			c := NewSettlementConsumer(storedAs(completedReservation()), settler, claims, logger.Discard())

			err := c.Handle(context.Background(), eventMessage(t, events.TypeCompleted, completedReservation()))
			var kafkaErr *kafka.KafkaError
			if !errors.As(err, &kafkaErr) {
				t.Fatalf("Handle() error = %v, want KafkaError", err)
			}
			if kafkaErr.IsTransient() != tt.wantTransient {
				t.Errorf("IsTransient() = %v, want %v", kafkaErr.IsTransient(), tt.wantTransient)
			}
			if len(claims.released) != 1 {
				t.Errorf("claim released %d times, want 1", len(claims.released))
			}
		})
	}
}

func TestHandle_MalformedPayloadIsPermanent(t *testing.T) {
	c := NewSettlementConsumer(storedAs(completedReservation()), &mockSettler{}, newMemoryClaims(), logger.Discard())

	msg := kafka.Message{
		Value:   []byte("{not json"),
		Headers: map[string]string{kafka.HeaderEventType: events.TypeCompleted},
	}
	err := c.Handle(context.Background(), msg)
	var kafkaErr *kafka.KafkaError
	if !errors.As(err, &kafkaErr) || !kafkaErr.IsPermanent() {
		t.Errorf("Handle() error = %v, want permanent", err)
	}
}

func TestHandle_DedupOutageStillSettles(t *testing.T) {
	settler := &mockSettler{}
	claims := newMemoryClaims()
	claims.err = errors.New("redis down")
	c := NewSettlementConsumer(storedAs(completedReservation()), settler, claims, logger.Discard())

	if err := c.Handle(context.Background(), eventMessage(t, events.TypeCompleted, completedReservation())); err != nil {
		t.Fatalf("Handle() error = %v", err)
	}
	if settler.calls != 1 {
		t.Errorf("Settle called %d times, want 1", settler.calls)
	}
}
