package main

import (
	"context"
	"log"
	"os/signal"
	"syscall"

	"github.com/T1-gumayutri/xt-fashion-store-sub000/internal/application/notification"
	"github.com/T1-gumayutri/xt-fashion-store-sub000/internal/config"
	"github.com/T1-gumayutri/xt-fashion-store-sub000/internal/infrastructure/encoding/avro"
	kafkainfra "github.com/T1-gumayutri/xt-fashion-store-sub000/internal/infrastructure/messaging/kafka"
	"github.com/T1-gumayutri/xt-fashion-store-sub000/pkg/logger"
)

// Tiến trình đọc topic order events và gửi thông báo cho khách theo từng loại event.
func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("load config failed: %v", err)
	}

	appLog, err := logger.NewZapLogger(cfg.App.Env, "xt-fashion-order-events")
	if err != nil {
		log.Fatalf("init logger failed: %v", err)
	}
	defer func() { _ = appLog.Sync() }()

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	codec, err := avro.NewOrderEventCodec()
	if err != nil {
		appLog.Fatal("init avro codec failed", logger.Error(err))
	}

	consumer := kafkainfra.NewOrderEventConsumer(cfg.Kafka, codec, notification.NewService(appLog), appLog)
	defer func() {
		if err := consumer.Close(); err != nil {
			appLog.Warn("close kafka consumer failed", logger.Error(err))
		}
	}()

	appLog.Info("consuming order events",
		logger.String("topic", cfg.Kafka.OrderTopic),
		logger.String("group", cfg.Kafka.ConsumerGroup),
	)
	if err := consumer.Start(ctx); err != nil {
		appLog.Error("kafka consumer stopped", logger.Error(err))
		return
	}
	appLog.Info("order events consumer exited")
}
