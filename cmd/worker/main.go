package main

import (
	"context"
	"errors"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/Domenick1991/airport/config"
	"github.com/Domenick1991/airport/internal/cache"
	"github.com/Domenick1991/airport/internal/email"
	"github.com/Domenick1991/airport/internal/kafka"
	"github.com/Domenick1991/airport/internal/logger"
	"github.com/Domenick1991/airport/internal/repository"
	"github.com/Domenick1991/airport/internal/service/flights"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/joho/godotenv"
	kafkaGo "github.com/segmentio/kafka-go"
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
	log := logger.Get().With("component", "worker")

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	pool, err := pgxpool.New(ctx, cfg.Database.DSN())
	if err != nil {
		logger.Fatal("connect postgres", "error", err)
	}
	defer pool.Close()

	redisCache := cache.NewRedisCache(cfg.Redis, time.Duration(cfg.Flights.CacheTTLSeconds)*time.Second)
	defer redisCache.Close()

	flightService := flights.NewFlightService(repository.NewFlightRepository(pool), redisCache, time.Duration(cfg.Flights.CacheTTLSeconds)*time.Second)

	consumer := kafka.NewConsumer(cfg.Kafka.Brokers, cfg.Kafka.GroupID, cfg.Kafka.NotificationsTopic)
	defer consumer.Close()

	emailSender := email.NewSender()

	go func() {
		err := consumer.Consume(ctx, func(ctx context.Context, msg kafkaGo.Message) error {
			event, err := kafka.DecodeOrderEvent(msg)
			if err != nil {
				log.Warn("skip undecodable event", "error", err)
				return nil
			}
			return emailSender.Send(ctx, event)
		})
		if err != nil && !errors.Is(err, context.Canceled) {
			log.Error("consumer stopped", "error", err)
		}
	}()

	sweepTicker := time.NewTicker(time.Duration(cfg.Worker.CompletionSweepMinutes) * time.Minute)
	defer sweepTicker.Stop()

	log.Info("worker started", "topic", cfg.Kafka.NotificationsTopic, "sweep_minutes", cfg.Worker.CompletionSweepMinutes)
	for {
		select {
		case <-sweepTicker.C:
			if _, err := flightService.CompleteArrived(ctx, time.Now()); err != nil {
				log.Error("complete arrived flights", "error", err)
			}
		case <-ctx.Done():
			log.Info("shutting down")
			return
		}
	}
}
