package kafka

import (
	"context"
	"errors"
	"fmt"
	"testing"
)

func TestMessage_RetryCount(t *testing.T) {
	msg := Message{Headers: map[string]string{}}
	if msg.GetRetryCount() != 0 {
		t.Fatalf("fresh message retry count = %d", msg.GetRetryCount())
	}
	for i := 0; i < 12; i++ {
		msg.IncrementRetryCount()
	}
	if got := msg.GetRetryCount(); got != 12 {
		t.Errorf("retry count = %d, want 12", got)
	}
	if msg.Headers[HeaderRetryCount] != "12" {
		t.Errorf("header = %q", msg.Headers[HeaderRetryCount])
	}

	var bare Message
	bare.IncrementRetryCount()
	if bare.GetRetryCount() != 1 {
		t.Errorf("nil headers should be initialised")
	}
}

func TestMessageBuilder(t *testing.T) {
	msg, err := NewMessage().
		WithKey("res-1").
		WithValue(map[string]string{"status": "complete"}).
		WithEventType("reservation.completed").
		WithCorrelationID("req-1").
		Build()
	if err != nil {
		t.Fatalf("Build() error = %v", err)
	}
	if msg.GetEventID() == "" || msg.Headers[HeaderTimestamp] == "" {
		t.Errorf("event id and timestamp should be generated: %+v", msg.Headers)
	}
	if msg.GetEventType() != "reservation.completed" || msg.GetCorrelationID() != "req-1" {
		t.Errorf("headers = %+v", msg.Headers)
	}

	var decoded map[string]string
	if err := msg.DecodeValue(&decoded); err != nil || decoded["status"] != "complete" {
		t.Errorf("DecodeValue() = %v, %v", decoded, err)
	}
}

func TestMessageBuilder_EncodeFailure(t *testing.T) {
	_, err := NewMessage().WithKey("k").WithValue(make(chan int)).Build()
	if !errors.Is(err, ErrInvalidMessage) {
		t.Errorf("Build() error = %v, want ErrInvalidMessage", err)
	}
}

func TestClassifyError(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want ErrorType
	}{
		{"nil", nil, ErrorTypeUnknown},
		{"tagged transient", NewTransientError("db", errors.New("x")), ErrorTypeTransient},
		{"tagged permanent", NewPermanentError("decode", errors.New("x")), ErrorTypePermanent},
		{"wrapped deadline", fmt.Errorf("settle: %w", context.DeadlineExceeded), ErrorTypeTransient},
		{"connection refused", errors.New("dial tcp: Connection Refused"), ErrorTypeTransient},
		{"unknown", errors.New("boom"), ErrorTypePermanent},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := ClassifyError(tt.err); got != tt.want {
				t.Errorf("ClassifyError() = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestShouldRetry(t *testing.T) {
	transient := NewTransientError("db", errors.New("timeout"))
	if !ShouldRetry(transient, 0, 3) {
		t.Errorf("transient error under the limit should retry")
	}
	if ShouldRetry(transient, 3, 3) {
		t.Errorf("retries exhausted")
	}
	if ShouldRetry(errors.New("boom"), 0, 3) {
		t.Errorf("permanent error should not retry")
	}
}
