package main

import (
	"context"

	notificationshandler "tablereserve/internal/notifications/handler"
	notificationsrepository "tablereserve/internal/notifications/repository"
	notificationsservice "tablereserve/internal/notifications/service"
	notificationsvalidator "tablereserve/internal/notifications/validator"
	pointshandler "tablereserve/internal/points/handler"
	pointsrepository "tablereserve/internal/points/repository"
	pointsservice "tablereserve/internal/points/service"
	"tablereserve/internal/reservations/events"
	"tablereserve/internal/reservations/handler"
	"tablereserve/internal/reservations/repository"
	"tablereserve/internal/reservations/service"
	"tablereserve/internal/reservations/validator"
	restaurantsrepository "tablereserve/internal/restaurants/repository"
	usershandler "tablereserve/internal/users/handler"
	usersrepository "tablereserve/internal/users/repository"
	usersservice "tablereserve/internal/users/service"
	"tablereserve/pkg/app"
	"tablereserve/pkg/cache"
	"tablereserve/pkg/config"
	"tablereserve/pkg/contracts"
	"tablereserve/pkg/kafka"
	kafka_config "tablereserve/pkg/kafka/config"
	kafka_middleware "tablereserve/pkg/kafka/middleware"
)

const ServiceName = "reservations"

func main() {
	cfg := config.Load(ServiceName)
	cfg.RequireJWTSecret()
	cfg.SetMongo()
	cfg.SetRedis()

	cfg.Log.Info("Starting Reservations service")
	serverApp := app.NewApplication(cfg)

	publisher := initPublisher(cfg, serverApp)
	serverApp.SetApp(initHandlers(cfg, publisher)...)
	serverApp.Run()
}

// initPublisher returns a Kafka-backed publisher, or a no-op one when events
// are disabled or the brokers are misconfigured.
func initPublisher(cfg *config.Config, serverApp *app.Application) events.Publisher {
	if !cfg.EventsEnabled {
		cfg.Log.Info("Reservation events disabled by configuration")
		return events.NewNoopPublisher()
	}

	kafkaCfg, err := kafka_config.Load()
	if err != nil {
		cfg.Log.Error("Invalid Kafka configuration, reservation events disabled", "error", err)
		return events.NewNoopPublisher()
	}
	kafkaCfg.LogConfiguration(cfg.Log)

	producer, err := kafka.NewProducer(kafkaCfg, kafkaCfg.ReservationEventsTopic, kafkaCfg.ReservationEventsDLQTopic, cfg.Log)
	if err != nil {
		cfg.Log.Error("Failed to create Kafka producer, reservation events disabled", "error", err)
		return events.NewNoopPublisher()
	}

	metrics := kafka_middleware.NewMetrics()
	if kafkaCfg.EnableMiddleware {
		producer.Use(kafka_middleware.LoggingProducerMiddleware(cfg.Log))
		producer.Use(metrics.ProducerMiddleware())
	}

	serverApp.OnShutdown(func(ctx context.Context) {
		metrics.Log(cfg.Log)
		if err := producer.Close(); err != nil {
			cfg.Log.Error("Failed to close Kafka producer", "error", err)
		}
	})

	cfg.Log.Info("Reservation events enabled", "topic", kafkaCfg.ReservationEventsTopic)
	return events.NewKafkaPublisher(producer, cfg.Log)
}

func initHandlers(cfg *config.Config, publisher events.Publisher) []contracts.Handler {
	availabilityCache := cache.NewAvailabilityCache(cfg.Client.Redis, cfg.AvailabilityCacheTTL)

	reservationRepo := repository.NewMongoReservationRepository(cfg)
	lockRepo := repository.NewReservationLockRepository(cfg)
	restaurantRepo := restaurantsrepository.NewMongoRestaurantRepository(cfg)
	userRepo := usersrepository.NewMongoUserRepository(cfg)
	pointRepo := pointsrepository.NewMongoPointTransactionRepository(cfg)
	notificationRepo := notificationsrepository.NewMongoNotificationRepository(cfg)

	notificationService := notificationsservice.NewNotificationService(
		notificationRepo,
		notificationsvalidator.NewNotificationValidator(cfg.Log),
		cfg,
	)
	settlementService := pointsservice.NewSettlementService(pointRepo, userRepo, notificationService, cfg)
	userService := usersservice.NewUserService(userRepo, cfg)

	reservationValidator := validator.NewReservationValidator(cfg.Log)
	reservationService := service.NewReservationService(
		reservationRepo,
		lockRepo,
		restaurantRepo,
		settlementService,
		publisher,
		availabilityCache,
		reservationValidator,
		cfg,
	)
	availabilityService := service.NewAvailabilityService(
		reservationRepo,
		restaurantRepo,
		availabilityCache,
		reservationValidator,
		cfg,
	)

	cfg.Log.Info("Reservation services initialized",
		"database", cfg.MongoDatabaseName,
		"availability_cache", availabilityCache.Enabled(),
	)

	return []contracts.Handler{
		handler.NewReservationHandler(reservationService, availabilityService, cfg.Log),
		pointshandler.NewPointTransactionHandler(settlementService, cfg.Log),
		usershandler.NewUserHandler(userService, cfg.Log),
		notificationshandler.NewNotificationHandler(notificationService, cfg.Log),
	}
}
