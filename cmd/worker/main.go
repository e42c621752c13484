// cmd/worker consumes booking notifications from RabbitMQ and hands them to
// the console notifier.
package main

import (
	"context"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/Shivanand-hulikatti/table-booking/internal/config"
	"github.com/Shivanand-hulikatti/table-booking/internal/notify"
)

const reconnectDelay = 3 * time.Second

func main() {
	cfg, err := config.LoadWorker()
	if err != nil {
		slog.Error("config", "err", err)
		os.Exit(1)
	}
	slog.SetDefault(slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{Level: cfg.SlogLevel()})))

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	consumer := notify.NewConsumer(notify.ConsumerConfig{
		URL:      cfg.AMQPURL,
		Exchange: cfg.NotifyExchange,
		Queue:    cfg.NotifyQueue,
		Prefetch: cfg.Prefetch,
		Tag:      "table-booking-worker",
	}, notify.Console{})

	// Reconnect until shutdown; Run returns when the broker closes the channel.
	for ctx.Err() == nil {
		if err := consumer.Connect(); err != nil {
			slog.Warn("broker connect failed, retrying", "err", err, "in", reconnectDelay.String())
			sleep(ctx, reconnectDelay)
			continue
		}
		slog.Info("worker consuming", "queue", cfg.NotifyQueue)
		if err := consumer.Run(ctx); err != nil {
			slog.Warn("consume stopped", "err", err)
		}
		consumer.Close()
		if ctx.Err() == nil {
			sleep(ctx, reconnectDelay)
		}
	}
	slog.Info("worker stopped")
}

func sleep(ctx context.Context, d time.Duration) {
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
	case <-t.C:
	}
}
