package main

import (
	"context"
	"errors"
	"os"
	"os/signal"
	"syscall"

	notificationsrepository "tablereserve/internal/notifications/repository"
	notificationsservice "tablereserve/internal/notifications/service"
	notificationsvalidator "tablereserve/internal/notifications/validator"
	"tablereserve/internal/points/consumer"
	pointsrepository "tablereserve/internal/points/repository"
	pointsservice "tablereserve/internal/points/service"
	reservationsrepository "tablereserve/internal/reservations/repository"
	usersrepository "tablereserve/internal/users/repository"
	"tablereserve/pkg/cache"
	"tablereserve/pkg/config"
	"tablereserve/pkg/kafka"
	kafka_config "tablereserve/pkg/kafka/config"
	kafka_middleware "tablereserve/pkg/kafka/middleware"
)

const ServiceName = "settlement"

// The settlement worker credits points for reservations whose inline
// settlement failed, driven by reservation.completed events.
func main() {
	cfg := config.Load(ServiceName)
	cfg.SetMongo()
	cfg.SetRedis()
	defer cfg.GracefulShutdown()

	kafkaCfg, err := kafka_config.Load()
	if err != nil {
		cfg.Log.Fatal("Invalid Kafka configuration", "error", err)
	}
	kafkaCfg.LogConfiguration(cfg.Log)

	handler := initConsumer(cfg)
	worker, err := kafka.NewConsumer(
		kafkaCfg,
		kafkaCfg.ReservationEventsTopic,
		kafkaCfg.SettlementGroupID,
		kafkaCfg.ReservationEventsDLQTopic,
		handler.Handle,
		cfg.Log,
	)
	if err != nil {
		cfg.Log.Fatal("Failed to create Kafka consumer", "error", err)
	}

	metrics := kafka_middleware.NewMetrics()
	worker.Use(kafka_middleware.LoggingConsumerMiddleware(cfg.Log))
	worker.Use(metrics.ConsumerMiddleware())

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	cfg.Log.Info("Starting settlement consumer",
		"topic", kafkaCfg.ReservationEventsTopic,
		"group_id", kafkaCfg.SettlementGroupID,
	)
	if err := worker.Start(ctx); err != nil && !errors.Is(err, context.Canceled) {
		cfg.Log.Error("Settlement consumer stopped", "error", err)
	}

	cfg.Log.Info("Shutting down settlement consumer")
	metrics.Log(cfg.Log)
	if err := worker.Close(); err != nil {
		cfg.Log.Error("Failed to close Kafka consumer", "error", err)
	}
}

func initConsumer(cfg *config.Config) *consumer.SettlementConsumer {
	notificationService := notificationsservice.NewNotificationService(
		notificationsrepository.NewMongoNotificationRepository(cfg),
		notificationsvalidator.NewNotificationValidator(cfg.Log),
		cfg,
	)
	settlementService := pointsservice.NewSettlementService(
		pointsrepository.NewMongoPointTransactionRepository(cfg),
		usersrepository.NewMongoUserRepository(cfg),
		notificationService,
		cfg,
	)

	return consumer.NewSettlementConsumer(
		reservationsrepository.NewMongoReservationRepository(cfg),
		settlementService,
		cache.NewDeduper(cfg.Client.Redis, ServiceName, cfg.EventDedupTTL),
		cfg.Log,
	)
}
