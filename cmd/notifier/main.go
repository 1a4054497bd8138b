package main

import (
	"context"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/ariefcatur/go-seller-marketplace/internal/config"
	kafkax "github.com/ariefcatur/go-seller-marketplace/internal/kafka"
	"github.com/ariefcatur/go-seller-marketplace/internal/notify"
	"github.com/ariefcatur/go-seller-marketplace/internal/orders"
	"github.com/ariefcatur/go-seller-marketplace/internal/realtime"
	"github.com/ariefcatur/go-seller-marketplace/internal/redisx"
	"github.com/joho/godotenv"
)

func main() {
	_ = godotenv.Load()

	cfg, err := config.Load()
	if err != nil {
		slog.Error("config", "err", err)
		os.Exit(1)
	}
	service := cfg.ServiceName + "-notifier"
	slog.SetDefault(config.NewLogger(cfg.LogLevel, service))

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	// Redis: dedup claims, shared presence and the hub channel the API instances listen on
	rdb, err := redisx.New(ctx, cfg.RedisAddr, cfg.RedisPassword, cfg.RedisDB)
	if err != nil {
		slog.Error("redis", "err", err)
		os.Exit(1)
	}
	defer rdb.Close()

	hub := realtime.NewHub(&realtime.RedisPresence{Redis: rdb}, rdb)
	svc := notify.NewService(&redisx.Deduper{Redis: rdb, Service: "notifier"}, hub)

	cons := kafkax.NewConsumer(cfg.KafkaBrokers, cfg.NotifierGroup, orders.TopicOrders, cfg.NotifierWorkers)
	slog.Info("notifier consumer started", "group", cfg.NotifierGroup, "topic", orders.TopicOrders, "workers", cfg.NotifierWorkers)
	if err := cons.Start(ctx, svc.HandleOrderEvent); err != nil {
		slog.Error("consumer exit", "err", err)
		os.Exit(1)
	}
	slog.Info("notifier stopped")
}
