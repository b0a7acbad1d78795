package main

import (
	reservationsrepository "tablereserve/internal/reservations/repository"
	"tablereserve/internal/restaurants/handler"
	"tablereserve/internal/restaurants/repository"
	"tablereserve/internal/restaurants/service"
	"tablereserve/internal/restaurants/validator"
	"tablereserve/pkg/app"
	"tablereserve/pkg/cache"
	"tablereserve/pkg/config"
)

const ServiceName = "restaurants"

func main() {
	cfg := config.Load(ServiceName)
	cfg.RequireJWTSecret()
	cfg.SetMongo()
	cfg.SetRedis()

	cfg.Log.Info("Starting Restaurants service")
	restaurantService := initServices(cfg)
	serverApp := app.NewApplication(cfg)
	serverApp.SetApp(handler.NewRestaurantHandler(restaurantService, cfg.Log))
	serverApp.Run()
}

func initServices(cfg *config.Config) service.RestaurantService {
	restaurantService := service.NewRestaurantService(
		repository.NewMongoRestaurantRepository(cfg),
		reservationsrepository.NewMongoReservationRepository(cfg),
		cache.NewAvailabilityCache(cfg.Client.Redis, cfg.AvailabilityCacheTTL),
		validator.NewRestaurantValidator(cfg.Log),
		cfg,
	)

	cfg.Log.Info("Restaurant service initialized", "database", cfg.MongoDatabaseName)
	return restaurantService
}
