// Package events publishes reservation lifecycle changes to Kafka.
package events

import (
	"context"
	"fmt"
	"tablereserve/pkg/kafka"
	"tablereserve/pkg/logger"
	"tablereserve/pkg/middleware"
	"tablereserve/pkg/model"
	"time"
)

const (
	TypeCreated    = "reservation.created"
	TypeUpdated    = "reservation.updated"
	TypeCancelled  = "reservation.cancelled"
	TypeIncomplete = "reservation.incomplete"
	TypeCompleted  = "reservation.completed"
	TypeDeleted    = "reservation.deleted"

	SchemaVersion = "1"
	Source        = "reservations-service"
)

// ReservationEvent is the payload of every lifecycle message.
type ReservationEvent struct {
	Type        string             `json:"type"`
	ActorID     string             `json:"actorId"`
	Reservation *model.Reservation `json:"reservation"`
	OccurredAt  time.Time          `json:"occurredAt"`
}

type Publisher interface {
	Publish(ctx context.Context, eventType string, actorID string, reservation *model.Reservation) error
}

// EventID is stable for terminal transitions so consumers can drop redeliveries.
func EventID(eventType string, reservation *model.Reservation) string {
	return fmt.Sprintf("%s:%s", eventType, reservation.ID)
}

type kafkaPublisher struct {
	producer *kafka.Producer
	log      *logger.Logger
}

func NewKafkaPublisher(producer *kafka.Producer, log *logger.Logger) Publisher {
	return &kafkaPublisher{producer: producer, log: log}
}

func (p *kafkaPublisher) Publish(ctx context.Context, eventType string, actorID string, reservation *model.Reservation) error {
	builder := kafka.NewMessage().
		WithKey(reservation.ID).
		WithEventType(eventType).
		WithSchemaVersion(SchemaVersion).
		WithSource(Source).
		WithValue(ReservationEvent{
			Type:        eventType,
			ActorID:     actorID,
			Reservation: reservation,
			OccurredAt:  time.Now().UTC(),
		})

	switch eventType {
	case TypeCompleted, TypeCancelled, TypeIncomplete, TypeDeleted:
		builder = builder.WithEventID(EventID(eventType, reservation))
	}
	if requestID, ok := ctx.Value(middleware.RequestIDKey).(string); ok && requestID != "" {
		builder = builder.WithCorrelationID(requestID)
	}

	msg, err := builder.Build()
	if err != nil {
		return err
	}
	return p.producer.Publish(ctx, msg)
}

type noopPublisher struct{}

// NewNoopPublisher is used when events are disabled.
func NewNoopPublisher() Publisher {
	return noopPublisher{}
}

func (noopPublisher) Publish(context.Context, string, string, *model.Reservation) error {
	return nil
}
