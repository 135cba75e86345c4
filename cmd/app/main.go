package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/Domenick1991/airport/api"
	"github.com/Domenick1991/airport/config"
	"github.com/Domenick1991/airport/internal/bootstrap"
	"github.com/Domenick1991/airport/internal/cache"
	"github.com/Domenick1991/airport/internal/kafka"
	"github.com/Domenick1991/airport/internal/logger"
	"github.com/Domenick1991/airport/internal/repository"
	"github.com/Domenick1991/airport/internal/service/booking"
	"github.com/Domenick1991/airport/internal/service/flights"
	"github.com/Domenick1991/airport/migrations"
	"github.com/gin-gonic/gin"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/joho/godotenv"
)

func main() {
	_ = godotenv.Load()

	cfgPath := os.Getenv("CONFIG_PATH")
	if cfgPath == "" {
		cfgPath = "config.yaml"
	}

	cfg, err := config.LoadConfig(cfgPath)
	if err != nil {
		logger.Fatal("load config", "error", err)
	}
	logger.Init(cfg.Log.Level, cfg.Log.Format)
	if cfg.HTTP.GinMode != "" {
		gin.SetMode(cfg.HTTP.GinMode)
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	pool, err := pgxpool.New(ctx, cfg.Database.DSN())
	if err != nil {
		logger.Fatal("connect postgres", "error", err)
	}
	defer pool.Close()

	if cfg.Database.AutoMigrate {
		if err := migrations.Apply(ctx, pool); err != nil {
			logger.Fatal("apply migrations", "error", err)
		}
	}

	redisCache := cache.NewRedisCache(cfg.Redis, time.Duration(cfg.Flights.CacheTTLSeconds)*time.Second)
	defer redisCache.Close()

	producer := kafka.NewProducer(cfg.Kafka.Brokers)
	defer producer.Close()
	if err := producer.CheckConnection(ctx); err != nil {
		logger.Get().Warn("kafka is unavailable, order events will be dropped until it recovers", "error", err)
	}

	flightRepo := repository.NewFlightRepository(pool)
	orderRepo := repository.NewOrderRepository(pool)

	flightService := flights.NewFlightService(flightRepo, redisCache, time.Duration(cfg.Flights.CacheTTLSeconds)*time.Second)
	orderService := booking.NewOrderService(
		repository.NewTxManager(pool),
		orderRepo,
		flightRepo,
		booking.WithProducer(producer, cfg.Kafka.OrdersTopic, cfg.Kafka.NotificationsTopic),
	)

	router := api.NewRouter(api.RouterConfig{
		JWTSecret:      cfg.Auth.JWTSecret,
		SwaggerDir:     cfg.HTTP.SwaggerDir,
		IdempotencyTTL: time.Duration(cfg.Flights.IdempotencyTTLMinutes) * time.Minute,
	}, flightService, orderService, redisCache)

	checks := []bootstrap.HealthCheck{
		{Name: "postgres", Check: pool.Ping},
		{Name: "redis", Check: redisCache.Ping},
	}
	if err := bootstrap.Run(ctx, cfg, router, checks...); err != nil {
		logger.Fatal("server error", "error", err)
	}
}
