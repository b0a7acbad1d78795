package kafka_config

import "time"

const (
	DefaultKafkaBrokers = "localhost:9092"

	DefaultReservationEventsTopic    = "reservation-events"
	DefaultReservationEventsDLQTopic = "reservation-events-dlq"
	DefaultSettlementGroupID         = "points-settlement"

	// Lifecycle events are keyed by reservation id; acks from all replicas
	// keep a completed event from being lost before settlement sees it.
	DefaultProducerMaxAttempts  = 3
	DefaultProducerBatchTimeout = 10 * time.Millisecond
	DefaultProducerRequireAcks  = -1
	DefaultProducerCompression  = "snappy"
	DefaultProducerAsync        = false

	// A fresh settlement group starts from the oldest retained event so
	// completions published before the first deploy are still credited.
	DefaultConsumerStartOffset       = -2
	DefaultConsumerMinBytes          = 1
	DefaultConsumerMaxBytes          = 1 << 20
	DefaultConsumerMaxWait           = 500 * time.Millisecond
	DefaultConsumerCommitInterval    = time.Second
	DefaultConsumerHeartbeatInterval = 3 * time.Second
	DefaultConsumerSessionTimeout    = 10 * time.Second
	DefaultConsumerRebalanceTimeout  = 30 * time.Second
	DefaultConsumerMaxRetries        = 5
	DefaultConsumerRetryBackoff      = time.Second

	DefaultEnableMiddleware = true
)
