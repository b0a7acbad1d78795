package kafka_config

import (
	"strings"
	"testing"
)

func TestLoad_Defaults(t *testing.T) {
	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	if len(cfg.Brokers) != 1 || cfg.Brokers[0] != DefaultKafkaBrokers {
		t.Errorf("Brokers = %v", cfg.Brokers)
	}
	if cfg.ReservationEventsTopic != DefaultReservationEventsTopic || cfg.SettlementGroupID != DefaultSettlementGroupID {
		t.Errorf("topic/group = %s/%s", cfg.ReservationEventsTopic, cfg.SettlementGroupID)
	}
	if cfg.ConsumerStartOffset != -2 {
		t.Errorf("ConsumerStartOffset = %d, want oldest", cfg.ConsumerStartOffset)
	}
}

func TestLoad_FromEnvironment(t *testing.T) {
	t.Setenv(EnvKafkaBrokers, " kafka-1:9092, ,kafka-2:9092 ")
	t.Setenv(EnvReservationEventsTopic, "res-events")
	t.Setenv(EnvReservationEventsDLQTopic, "res-events-dlq")
	t.Setenv(EnvKafkaProducerCompression, "ZSTD")
	t.Setenv(EnvKafkaConsumerMaxRetries, "0")

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	if strings.Join(cfg.Brokers, ",") != "kafka-1:9092,kafka-2:9092" {
		t.Errorf("Brokers = %v", cfg.Brokers)
	}
	if cfg.ReservationEventsTopic != "res-events" || cfg.ReservationEventsDLQTopic != "res-events-dlq" {
		t.Errorf("topics = %s/%s", cfg.ReservationEventsTopic, cfg.ReservationEventsDLQTopic)
	}
	if cfg.ProducerCompression != "zstd" {
		t.Errorf("ProducerCompression = %s", cfg.ProducerCompression)
	}
	if cfg.ConsumerMaxRetries != 0 {
		t.Errorf("ConsumerMaxRetries = %d", cfg.ConsumerMaxRetries)
	}
}

func TestLoad_Rejects(t *testing.T) {
	tests := []struct {
		name    string
		key     string
		value   string
		wantMsg string
	}{
		{"unparsable duration", EnvKafkaConsumerRetryBackoff, "soon", EnvKafkaConsumerRetryBackoff},
		{"unparsable flag", EnvKafkaEnableMiddleware, "maybe", EnvKafkaEnableMiddleware},
		{"unknown compression", EnvKafkaProducerCompression, "brotli", "ProducerCompression"},
		{"dlq same as topic", EnvReservationEventsDLQTopic, DefaultReservationEventsTopic, "ReservationEventsDLQTopic"},
		{"explicit offset", EnvKafkaConsumerStartOffset, "42", "ConsumerStartOffset"},
		{"heartbeat past session", EnvKafkaConsumerHeartbeatInterval, "1m", "ConsumerHeartbeatInterval"},
		{"no brokers", EnvKafkaBrokers, " , ", "broker"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Setenv(tt.key, tt.value)
			_, err := Load()
			if err == nil {
				t.Fatalf("Load() should fail")
			}
			if !strings.Contains(err.Error(), tt.wantMsg) {
				t.Errorf("error %q does not mention %s", err.Error(), tt.wantMsg)
			}
		})
	}
}
