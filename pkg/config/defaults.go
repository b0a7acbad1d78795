package config

import "time"

const (
	DefaultMongoURI          = "mongodb://localhost:27017"
	DefaultMongoDatabaseName = "tablereserve"
	DefaultMongoConnTimeout  = 10 * time.Second

	DefaultRedisEnabled         = true
	DefaultRedisAddr            = "localhost:6379"
	DefaultRedisDB              = 0
	DefaultAvailabilityCacheTTL = 2 * time.Minute
	DefaultEventDedupTTL        = 48 * time.Hour

	DefaultPort      = "8080"
	DefaultLogLevel  = "info"
	DefaultLogFormat = "json"

	DefaultRateLimitRequests = 60
	DefaultRateLimitWindow   = 1 * time.Minute

	DefaultRequestTimeout = 30 * time.Second
	DefaultIdempotencyTTL = 24 * time.Hour
	DefaultMaxRequestSize = 1 * 1024 * 1024 // 1MB

	DefaultReadTimeout     = 15 * time.Second
	DefaultWriteTimeout    = 15 * time.Second
	DefaultIdleTimeout     = 60 * time.Second
	DefaultShutdownTimeout = 30 * time.Second

	DefaultPaginationLimit = 100

	DefaultMaxLiveReservations  = 3
	DefaultPointsPerReservation = 10
	DefaultSmallTableMaxParty   = 4
	DefaultMediumTableMaxParty  = 9
	DefaultSlotLockTTL          = 10 * time.Second
	DefaultSlotLockRetries      = 5
	DefaultSlotLockBackoff      = 100 * time.Millisecond
	DefaultPhoneRegion          = "TH"

	DefaultEventsEnabled = true
)
