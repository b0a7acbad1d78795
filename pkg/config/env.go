package config

const (
	EnvMongoURI          = "MONGO_URI"
	EnvMongoDatabaseName = "MONGO_DATABASE_NAME"
	EnvMongoConnTimeout  = "MONGO_CONN_TIMEOUT"

	EnvRedisEnabled         = "REDIS_ENABLED"
	EnvRedisAddr            = "REDIS_ADDR"
	EnvRedisPassword        = "REDIS_PASSWORD"
	EnvRedisDB              = "REDIS_DB"
	EnvAvailabilityCacheTTL = "AVAILABILITY_CACHE_TTL"
	EnvEventDedupTTL        = "EVENT_DEDUP_TTL"

	EnvPort      = "PORT"
	EnvLogLevel  = "LOG_LEVEL"
	EnvLogFormat = "LOG_FORMAT"

	EnvJWTSecret = "JWT_SECRET"

	EnvRateLimitRequests = "RATE_LIMIT_REQUESTS"
	EnvRateLimitWindow   = "RATE_LIMIT_WINDOW"

	EnvRequestTimeout = "REQUEST_TIMEOUT"
	EnvIdempotencyTTL = "IDEMPOTENCY_TTL"
	EnvMaxRequestSize = "MAX_REQUEST_SIZE"

	EnvReadTimeout     = "READ_TIMEOUT"
	EnvWriteTimeout    = "WRITE_TIMEOUT"
	EnvIdleTimeout     = "IDLE_TIMEOUT"
	EnvShutdownTimeout = "SHUTDOWN_TIMEOUT"

	EnvMaxLiveReservations  = "MAX_LIVE_RESERVATIONS"
	EnvPointsPerReservation = "POINTS_PER_RESERVATION"
	EnvSmallTableMaxParty   = "SMALL_TABLE_MAX_PARTY"
	EnvMediumTableMaxParty  = "MEDIUM_TABLE_MAX_PARTY"
	EnvSlotLockTTL          = "SLOT_LOCK_TTL"
	EnvSlotLockRetries      = "SLOT_LOCK_RETRIES"
	EnvSlotLockBackoff      = "SLOT_LOCK_BACKOFF"
	EnvDefaultPhoneRegion   = "DEFAULT_PHONE_REGION"

	EnvEventsEnabled = "EVENTS_ENABLED"
)
