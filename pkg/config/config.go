package config

import (
	"fmt"
	"os"
	"regexp"
	"strconv"
	"strings"
	"tablereserve/pkg/client"
	"tablereserve/pkg/logger"
	"time"

	"github.com/joho/godotenv"
)

var mongoURIRegex = regexp.MustCompile(`^mongodb(\+srv)?://`)

type Config struct {
	MongoURI          string
	MongoDatabaseName string
	MongoConnTimeout  time.Duration

	RedisEnabled         bool
	RedisAddr            string
	RedisPassword        string
	RedisDB              int
	AvailabilityCacheTTL time.Duration
	EventDedupTTL        time.Duration

	Port string

	JWTSecret string

	RateLimitRequests int
	RateLimitWindow   time.Duration

	RequestTimeout time.Duration
	IdempotencyTTL time.Duration
	MaxRequestSize int

	ReadTimeout     time.Duration
	WriteTimeout    time.Duration
	IdleTimeout     time.Duration
	ShutdownTimeout time.Duration

	MaxLiveReservations  int
	PointsPerReservation int
	SmallTableMaxParty   int
	MediumTableMaxParty  int
	SlotLockTTL          time.Duration
	SlotLockRetries      int
	SlotLockBackoff      time.Duration
	DefaultPhoneRegion   string

	EventsEnabled bool

	Log    *logger.Logger
	Client *client.Client
}

// Load reads an optional .env file, then the environment, and exits on
// invalid configuration.
func Load(serviceName string) *Config {
	_ = godotenv.Load()

	cfg := &Config{
		MongoURI:          getEnvStr(EnvMongoURI, DefaultMongoURI),
		MongoDatabaseName: getEnvStr(EnvMongoDatabaseName, DefaultMongoDatabaseName),
		MongoConnTimeout:  getEnvDuration(EnvMongoConnTimeout, DefaultMongoConnTimeout),

		RedisEnabled:         getEnvBool(EnvRedisEnabled, DefaultRedisEnabled),
		RedisAddr:            getEnvStr(EnvRedisAddr, DefaultRedisAddr),
		RedisPassword:        getEnvStr(EnvRedisPassword, ""),
		RedisDB:              getEnvNum(EnvRedisDB, DefaultRedisDB),
		AvailabilityCacheTTL: getEnvDuration(EnvAvailabilityCacheTTL, DefaultAvailabilityCacheTTL),
		EventDedupTTL:        getEnvDuration(EnvEventDedupTTL, DefaultEventDedupTTL),

		Port: getEnvStr(EnvPort, DefaultPort),

		JWTSecret: getEnvStr(EnvJWTSecret, ""),

		RateLimitRequests: getEnvNum(EnvRateLimitRequests, DefaultRateLimitRequests),
		RateLimitWindow:   getEnvDuration(EnvRateLimitWindow, DefaultRateLimitWindow),

		RequestTimeout: getEnvDuration(EnvRequestTimeout, DefaultRequestTimeout),
		IdempotencyTTL: getEnvDuration(EnvIdempotencyTTL, DefaultIdempotencyTTL),
		MaxRequestSize: getEnvNum(EnvMaxRequestSize, DefaultMaxRequestSize),

		ReadTimeout:     getEnvDuration(EnvReadTimeout, DefaultReadTimeout),
		WriteTimeout:    getEnvDuration(EnvWriteTimeout, DefaultWriteTimeout),
		IdleTimeout:     getEnvDuration(EnvIdleTimeout, DefaultIdleTimeout),
		ShutdownTimeout: getEnvDuration(EnvShutdownTimeout, DefaultShutdownTimeout),

		MaxLiveReservations:  getEnvNum(EnvMaxLiveReservations, DefaultMaxLiveReservations),
		PointsPerReservation: getEnvNum(EnvPointsPerReservation, DefaultPointsPerReservation),
		SmallTableMaxParty:   getEnvNum(EnvSmallTableMaxParty, DefaultSmallTableMaxParty),
		MediumTableMaxParty:  getEnvNum(EnvMediumTableMaxParty, DefaultMediumTableMaxParty),
		SlotLockTTL:          getEnvDuration(EnvSlotLockTTL, DefaultSlotLockTTL),
		SlotLockRetries:      getEnvNum(EnvSlotLockRetries, DefaultSlotLockRetries),
		SlotLockBackoff:      getEnvDuration(EnvSlotLockBackoff, DefaultSlotLockBackoff),
		DefaultPhoneRegion:   strings.ToUpper(getEnvStr(EnvDefaultPhoneRegion, DefaultPhoneRegion)),

		EventsEnabled: getEnvBool(EnvEventsEnabled, DefaultEventsEnabled),

		Log: logger.New(logger.Config{
			Level:     getEnvStr(EnvLogLevel, DefaultLogLevel),
			Format:    getEnvStr(EnvLogFormat, DefaultLogFormat),
			AddSource: true,
			Service:   serviceName,
		}),
		Client: client.NewClient(),
	}

	if err := cfg.Validate(); err != nil {
		cfg.Log.Fatal(err.Error())
	}
	cfg.LogConfiguration()
	return cfg
}

func (cfg *Config) SetMongo() {
	cfg.Client.SetMongo(cfg.Log, cfg.MongoURI, cfg.MongoConnTimeout)
}

// SetRedis connects to Redis when enabled. A failed connection leaves the
// client nil and dependent features fall back to running without a cache.
func (cfg *Config) SetRedis() {
	if !cfg.RedisEnabled {
		cfg.Log.Info("Redis disabled by configuration")
		return
	}
	cfg.Client.SetRedis(cfg.Log, cfg.RedisAddr, cfg.RedisPassword, cfg.RedisDB)
}

func (cfg *Config) Validate() error {
	var errors []string

	if port, err := strconv.Atoi(cfg.Port); err != nil || port < 1 || port > 65535 {
		errors = append(errors, fmt.Sprintf("Port must be between 1 and 65535, got: %s", cfg.Port))
	}

	if cfg.MongoURI == "" {
		errors = append(errors, "MongoURI cannot be empty")
	} else if len(cfg.MongoURI) < 10 || !mongoURIRegex.MatchString(cfg.MongoURI) {
		errors = append(errors, fmt.Sprintf("MongoURI must start with 'mongodb://' or 'mongodb+srv://', got: %s", redactMongoURI(cfg.MongoURI)))
	}
	if cfg.MongoDatabaseName == "" {
		errors = append(errors, "MongoDatabaseName cannot be empty")
	}
	if cfg.RedisEnabled && cfg.RedisAddr == "" {
		errors = append(errors, "RedisAddr cannot be empty when Redis is enabled")
	}
	if cfg.JWTSecret != "" && len(cfg.JWTSecret) < 16 {
		errors = append(errors, "JWTSecret must be at least 16 characters")
	}

	positiveDurations := []struct {
		name  string
		value time.Duration
	}{
		{"MongoConnTimeout", cfg.MongoConnTimeout},
		{"AvailabilityCacheTTL", cfg.AvailabilityCacheTTL},
		{"EventDedupTTL", cfg.EventDedupTTL},
		{"RateLimitWindow", cfg.RateLimitWindow},
		{"RequestTimeout", cfg.RequestTimeout},
		{"IdempotencyTTL", cfg.IdempotencyTTL},
		{"ReadTimeout", cfg.ReadTimeout},
		{"WriteTimeout", cfg.WriteTimeout},
		{"IdleTimeout", cfg.IdleTimeout},
		{"ShutdownTimeout", cfg.ShutdownTimeout},
		{"SlotLockTTL", cfg.SlotLockTTL},
		{"SlotLockBackoff", cfg.SlotLockBackoff},
	}
	for _, d := range positiveDurations {
		if d.value <= 0 {
			errors = append(errors, fmt.Sprintf("%s must be positive, got: %s", d.name, d.value))
		}
	}

	if cfg.RateLimitRequests <= 0 {
		errors = append(errors, fmt.Sprintf("RateLimitRequests must be positive, got: %d", cfg.RateLimitRequests))
	}
	if cfg.MaxRequestSize <= 0 {
		errors = append(errors, fmt.Sprintf("MaxRequestSize must be positive, got: %d", cfg.MaxRequestSize))
	}
	if cfg.MaxLiveReservations <= 0 {
		errors = append(errors, fmt.Sprintf("MaxLiveReservations must be positive, got: %d", cfg.MaxLiveReservations))
	}
	if cfg.PointsPerReservation <= 0 {
		errors = append(errors, fmt.Sprintf("PointsPerReservation must be positive, got: %d", cfg.PointsPerReservation))
	}
	if cfg.SmallTableMaxParty < 1 {
		errors = append(errors, fmt.Sprintf("SmallTableMaxParty must be at least 1, got: %d", cfg.SmallTableMaxParty))
	}
	if cfg.MediumTableMaxParty <= cfg.SmallTableMaxParty {
		errors = append(errors, fmt.Sprintf("MediumTableMaxParty (%d) must be greater than SmallTableMaxParty (%d)", cfg.MediumTableMaxParty, cfg.SmallTableMaxParty))
	}
	if cfg.SlotLockRetries < 0 {
		errors = append(errors, fmt.Sprintf("SlotLockRetries cannot be negative, got: %d", cfg.SlotLockRetries))
	}
	if len(cfg.DefaultPhoneRegion) != 2 {
		errors = append(errors, fmt.Sprintf("DefaultPhoneRegion must be a two-letter region code, got: %s", cfg.DefaultPhoneRegion))
	}

	if len(errors) > 0 {
		errMsg := "Configuration validation failed:\n"
		for i, err := range errors {
			errMsg += fmt.Sprintf("  %d. %s\n", i+1, err)
		}
		return fmt.Errorf("%s", errMsg)
	}

	return nil
}

// RequireJWTSecret is called by services that authenticate requests.
func (cfg *Config) RequireJWTSecret() {
	if cfg.JWTSecret == "" {
		cfg.Log.Fatal("JWT_SECRET must be set for services that authenticate requests")
	}
}

func (cfg *Config) LogConfiguration() {
	cfg.Log.Info("Configuration loaded successfully",
		"mongo_uri", redactMongoURI(cfg.MongoURI),
		"mongo_database", cfg.MongoDatabaseName,
		"mongo_conn_timeout", cfg.MongoConnTimeout,
		"redis_enabled", cfg.RedisEnabled,
		"redis_addr", cfg.RedisAddr,
		"redis_db", cfg.RedisDB,
		"availability_cache_ttl", cfg.AvailabilityCacheTTL,
		"port", cfg.Port,
		"jwt_secret_set", cfg.JWTSecret != "",
		"rate_limit_requests", cfg.RateLimitRequests,
		"rate_limit_window", cfg.RateLimitWindow,
		"request_timeout", cfg.RequestTimeout,
		"idempotency_ttl", cfg.IdempotencyTTL,
		"max_request_size", cfg.MaxRequestSize,
		"read_timeout", cfg.ReadTimeout,
		"write_timeout", cfg.WriteTimeout,
		"idle_timeout", cfg.IdleTimeout,
		"shutdown_timeout", cfg.ShutdownTimeout,
		"max_live_reservations", cfg.MaxLiveReservations,
		"points_per_reservation", cfg.PointsPerReservation,
		"small_table_max_party", cfg.SmallTableMaxParty,
		"medium_table_max_party", cfg.MediumTableMaxParty,
		"slot_lock_ttl", cfg.SlotLockTTL,
		"slot_lock_retries", cfg.SlotLockRetries,
		"events_enabled", cfg.EventsEnabled,
	)
}

func redactMongoURI(uri string) string {
	credentialRegex := regexp.MustCompile(`(mongodb(\+srv)?://)[^:]+:[^@]+@`)
	return credentialRegex.ReplaceAllString(uri, "${1}***:***@")
}

func getEnvStr(key, fallback string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return fallback
}

func getEnvNum(key string, fallback int) int {
	if value := os.Getenv(key); value != "" {
		if n, err := strconv.Atoi(value); err == nil {
			return n
		}
	}
	return fallback
}

func getEnvBool(key string, fallback bool) bool {
	if value := os.Getenv(key); value != "" {
		if b, err := strconv.ParseBool(value); err == nil {
			return b
		}
	}
	return fallback
}

func getEnvDuration(key string, fallback time.Duration) time.Duration {
	if value := os.Getenv(key); value != "" {
		if d, err := time.ParseDuration(value); err == nil {
			return d
		}
	}
	return fallback
}

func (cfg *Config) GracefulShutdown() {
	cfg.Client.GracefulShutdown(cfg.Log)
}

func NormalizePaginationLimit(limit int) int {
	if limit <= 0 {
		limit = 25
	} else if limit > DefaultPaginationLimit {
		limit = DefaultPaginationLimit
	}
	return limit
}

func NormalizeOffset(offset int64) int64 {
	return max(0, offset)
}
