// Package consumer settles completed reservations from the lifecycle event
// stream. It is the out-of-band retry path for credits that failed inline.
package consumer

import (
	"context"
	"errors"
	"net/http"

	reservationserrors "tablereserve/internal/reservations/errors"
	"tablereserve/internal/reservations/events"
	apperrors "tablereserve/pkg/errors"
	"tablereserve/pkg/kafka"
	"tablereserve/pkg/logger"
	"tablereserve/pkg/model"
)

type ReservationReader interface {
	FindByID(ctx context.Context, id string) (*model.Reservation, error)
}

type Settler interface {
	Settle(ctx context.Context, reservation *model.Reservation) (*model.SettlementResult, error)
}

// Claimer is satisfied by *cache.Deduper.
type Claimer interface {
	Claim(ctx context.Context, eventID string) (bool, error)
	Release(ctx context.Context, eventID string) error
}

type SettlementConsumer struct {
	reservations ReservationReader
	settler      Settler
	claims       Claimer
	log          *logger.Logger
}

func NewSettlementConsumer(reservations ReservationReader, settler Settler, claims Claimer, log *logger.Logger) *SettlementConsumer {
	return &SettlementConsumer{
		reservations: reservations,
		settler:      settler,
		claims:       claims,
		log:          log,
	}
}

// Handle is a kafka.MessageHandler. Only reservation.completed events are
// acted on; the reservation is re-read so a stale event never settles a
// reservation that is not complete.
func (c *SettlementConsumer) Handle(ctx context.Context, msg kafka.Message) error {
	if msg.GetEventType() != events.TypeCompleted {
		return nil
	}

	var evt events.ReservationEvent
	if err := msg.DecodeValue(&evt); err != nil {
		return kafka.NewPermanentError("deserialization failed", err)
	}
	if evt.Reservation == nil || evt.Reservation.ID == "" {
		return kafka.NewPermanentError("invalid message: reservation missing", nil)
	}
	reservationID := evt.Reservation.ID

	eventID := msg.GetEventID()
	if eventID == "" {
		eventID = events.EventID(events.TypeCompleted, evt.Reservation)
	}

	claimed, err := c.claims.Claim(ctx, eventID)
	if err != nil {
		c.log.Warn("Event dedup unavailable, relying on ledger index", "event_id", eventID, "error", err)
		claimed = true
	}
	if !claimed {
		c.log.Debug("Skipping already processed event", "event_id", eventID, "reservation_id", reservationID)
		return nil
	}

	if err := c.settle(ctx, reservationID); err != nil {
		if releaseErr := c.claims.Release(ctx, eventID); releaseErr != nil {
			c.log.Warn("Failed to release event claim", "event_id", eventID, "error", releaseErr)
		}
		return err
	}
	return nil
}

func (c *SettlementConsumer) settle(ctx context.Context, reservationID string) error {
	reservation, err := c.reservations.FindByID(ctx, reservationID)
	if err != nil {
		if errors.Is(err, reservationserrors.ErrNotFound) || errors.Is(err, reservationserrors.ErrInvalidID) {
			c.log.Warn("Completed reservation no longer exists", "reservation_id", reservationID)
			return nil
		}
		return kafka.NewTransientError("failed to load reservation", err)
	}
	if reservation.Status != model.StatusComplete {
		c.log.Warn("Ignoring completed event for reservation in another state",
			"reservation_id", reservationID,
			"status", reservation.Status,
		)
		return nil
	}

	result, err := c.settler.Settle(ctx, reservation)
	if err != nil {
		if apperrors.AsAppError(err).StatusCode() >= http.StatusInternalServerError {
			return kafka.NewTransientError("settlement failed", err)
		}
		return kafka.NewPermanentError("settlement rejected", err)
	}

	c.log.Info("Settlement reconciled",
		"reservation_id", reservationID,
		"user_id", reservation.UserID,
		"current_points", result.NewBalance,
		"already_settled", result.AlreadySettled,
	)
	return nil
}
