// Package kafka_config holds the broker, topic and client settings for the
// reservation event stream.
package kafka_config

import (
	"fmt"
	"slices"
	"strings"
	"time"

	"tablereserve/pkg/logger"
)

type Config struct {
	Brokers []string

	ReservationEventsTopic    string
	ReservationEventsDLQTopic string
	SettlementGroupID         string

	ProducerMaxAttempts  int
	ProducerBatchTimeout time.Duration
	ProducerRequireAcks  int    // -1 all replicas, 0 none, 1 leader
	ProducerCompression  string // none, gzip, snappy, lz4, zstd
	ProducerAsync        bool

	ConsumerStartOffset       int64 // -1 newest, -2 oldest
	ConsumerMinBytes          int
	ConsumerMaxBytes          int
	ConsumerMaxWait           time.Duration
	ConsumerCommitInterval    time.Duration
	ConsumerHeartbeatInterval time.Duration
	ConsumerSessionTimeout    time.Duration
	ConsumerRebalanceTimeout  time.Duration
	ConsumerMaxRetries        int
	ConsumerRetryBackoff      time.Duration

	EnableMiddleware bool
}

var compressions = []string{"none", "gzip", "snappy", "lz4", "zstd"}

// Load reads the Kafka settings from the environment. A variable that is set
// but cannot be parsed is an error rather than a silent fallback.
func Load() (*Config, error) {
	env := &envReader{}
	cfg := &Config{
		Brokers: env.list(EnvKafkaBrokers, DefaultKafkaBrokers),

		ReservationEventsTopic:    env.str(EnvReservationEventsTopic, DefaultReservationEventsTopic),
		ReservationEventsDLQTopic: env.str(EnvReservationEventsDLQTopic, DefaultReservationEventsDLQTopic),
		SettlementGroupID:         env.str(EnvSettlementGroupID, DefaultSettlementGroupID),

		ProducerMaxAttempts:  env.number(EnvKafkaProducerMaxAttempts, DefaultProducerMaxAttempts),
		ProducerBatchTimeout: env.duration(EnvKafkaProducerBatchTimeout, DefaultProducerBatchTimeout),
		ProducerRequireAcks:  env.number(EnvKafkaProducerRequireAcks, DefaultProducerRequireAcks),
		ProducerCompression:  strings.ToLower(env.str(EnvKafkaProducerCompression, DefaultProducerCompression)),
		ProducerAsync:        env.flag(EnvKafkaProducerAsync, DefaultProducerAsync),

		ConsumerStartOffset:       env.number64(EnvKafkaConsumerStartOffset, DefaultConsumerStartOffset),
		ConsumerMinBytes:          env.number(EnvKafkaConsumerMinBytes, DefaultConsumerMinBytes),
		ConsumerMaxBytes:          env.number(EnvKafkaConsumerMaxBytes, DefaultConsumerMaxBytes),
		ConsumerMaxWait:           env.duration(EnvKafkaConsumerMaxWait, DefaultConsumerMaxWait),
		ConsumerCommitInterval:    env.duration(EnvKafkaConsumerCommitInterval, DefaultConsumerCommitInterval),
		ConsumerHeartbeatInterval: env.duration(EnvKafkaConsumerHeartbeatInterval, DefaultConsumerHeartbeatInterval),
		ConsumerSessionTimeout:    env.duration(EnvKafkaConsumerSessionTimeout, DefaultConsumerSessionTimeout),
		ConsumerRebalanceTimeout:  env.duration(EnvKafkaConsumerRebalanceTimeout, DefaultConsumerRebalanceTimeout),
		ConsumerMaxRetries:        env.number(EnvKafkaConsumerMaxRetries, DefaultConsumerMaxRetries),
		ConsumerRetryBackoff:      env.duration(EnvKafkaConsumerRetryBackoff, DefaultConsumerRetryBackoff),

		EnableMiddleware: env.flag(EnvKafkaEnableMiddleware, DefaultEnableMiddleware),
	}

	problems := append(env.invalid, cfg.problems()...)
	if len(problems) > 0 {
		return nil, validationError(problems)
	}
	return cfg, nil
}

func (cfg *Config) Validate() error {
	if problems := cfg.problems(); len(problems) > 0 {
		return validationError(problems)
	}
	return nil
}

func (cfg *Config) problems() []string {
	var problems []string
	check := func(ok bool, format string, args ...any) {
		if !ok {
			problems = append(problems, fmt.Sprintf(format, args...))
		}
	}

	check(len(cfg.Brokers) > 0, "At least one Kafka broker is required")
	check(cfg.ReservationEventsTopic != "", "ReservationEventsTopic is required")
	check(cfg.SettlementGroupID != "", "SettlementGroupID is required")
	check(cfg.ReservationEventsDLQTopic != cfg.ReservationEventsTopic,
		"ReservationEventsDLQTopic must differ from ReservationEventsTopic, got: %s", cfg.ReservationEventsDLQTopic)

	check(cfg.ProducerMaxAttempts > 0, "ProducerMaxAttempts must be positive, got: %d", cfg.ProducerMaxAttempts)
	check(cfg.ProducerBatchTimeout > 0, "ProducerBatchTimeout must be positive, got: %s", cfg.ProducerBatchTimeout)
	check(slices.Contains(compressions, cfg.ProducerCompression),
		"ProducerCompression must be one of %v, got: %s", compressions, cfg.ProducerCompression)
	check(cfg.ProducerRequireAcks >= -1 && cfg.ProducerRequireAcks <= 1,
		"ProducerRequireAcks must be -1, 0, or 1, got: %d", cfg.ProducerRequireAcks)

	check(cfg.ConsumerStartOffset == -1 || cfg.ConsumerStartOffset == -2,
		"ConsumerStartOffset must be -1 (newest) or -2 (oldest), got: %d", cfg.ConsumerStartOffset)
	check(cfg.ConsumerMinBytes > 0 && cfg.ConsumerMinBytes <= cfg.ConsumerMaxBytes,
		"ConsumerMinBytes must be positive and at most ConsumerMaxBytes, got: %d/%d", cfg.ConsumerMinBytes, cfg.ConsumerMaxBytes)
	for name, d := range map[string]time.Duration{
		"ConsumerMaxWait":           cfg.ConsumerMaxWait,
		"ConsumerCommitInterval":    cfg.ConsumerCommitInterval,
		"ConsumerHeartbeatInterval": cfg.ConsumerHeartbeatInterval,
		"ConsumerSessionTimeout":    cfg.ConsumerSessionTimeout,
		"ConsumerRebalanceTimeout":  cfg.ConsumerRebalanceTimeout,
	} {
		check(d > 0, "%s must be positive, got: %s", name, d)
	}
	check(cfg.ConsumerHeartbeatInterval < cfg.ConsumerSessionTimeout,
		"ConsumerHeartbeatInterval (%s) must be shorter than ConsumerSessionTimeout (%s)",
		cfg.ConsumerHeartbeatInterval, cfg.ConsumerSessionTimeout)
	check(cfg.ConsumerMaxRetries >= 0, "ConsumerMaxRetries cannot be negative, got: %d", cfg.ConsumerMaxRetries)
	check(cfg.ConsumerRetryBackoff >= 0, "ConsumerRetryBackoff cannot be negative, got: %s", cfg.ConsumerRetryBackoff)

	slices.Sort(problems)
	return problems
}

func validationError(problems []string) error {
	var b strings.Builder
	b.WriteString("Kafka configuration validation failed:\n")
	for i, p := range problems {
		fmt.Fprintf(&b, "  %d. %s\n", i+1, p)
	}
	return fmt.Errorf("%s", b.String())
}

func (cfg *Config) LogConfiguration(log *logger.Logger) {
	log.Info("Kafka configuration loaded",
		"brokers", cfg.Brokers,
		"reservation_events_topic", cfg.ReservationEventsTopic,
		"reservation_events_dlq_topic", cfg.ReservationEventsDLQTopic,
		"settlement_group_id", cfg.SettlementGroupID,
		"producer_require_acks", cfg.ProducerRequireAcks,
		"producer_compression", cfg.ProducerCompression,
		"producer_async", cfg.ProducerAsync,
		"consumer_start_offset", cfg.ConsumerStartOffset,
		"consumer_max_retries", cfg.ConsumerMaxRetries,
		"consumer_retry_backoff", cfg.ConsumerRetryBackoff,
		"enable_middleware", cfg.EnableMiddleware,
	)
}
