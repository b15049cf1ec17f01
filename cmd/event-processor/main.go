package main

import (
	"context"
	"fmt"
	"os/signal"
	"syscall"

	"github.com/prometheus/client_golang/prometheus"
	"go.uber.org/zap"

	"github.com/radieske/battle-monads/internal/chainevents/consumer"
	"github.com/radieske/battle-monads/internal/chainevents/pubsub"
	"github.com/radieske/battle-monads/internal/shared/cache"
	"github.com/radieske/battle-monads/internal/shared/config"
	"github.com/radieske/battle-monads/internal/shared/kafka"
	"github.com/radieske/battle-monads/internal/shared/logger"
	"github.com/radieske/battle-monads/internal/shared/metrics"
)

func main() {
	cfg := config.LoadFor("event-processor")

	log, err := logger.New(cfg.ServiceName, cfg.Env)
	if err != nil {
		panic(fmt.Errorf("logger init: %w", err))
	}
	defer log.Sync()

	rdb, err := cache.ConnectRedis(cfg.RedisAddr)
	if err != nil {
		log.Fatal("failed to connect redis", zap.Error(err))
	}
	defer rdb.Close()

	reader := kafka.NewReader(cfg.KafkaBrokers, cfg.TopicBattleEvents, cfg.ServiceName)
	defer reader.Close()
	dlq := kafka.NewWriter(cfg.KafkaBrokers, cfg.TopicBattleEventsDLQ)
	defer dlq.Close()

	reg := prometheus.NewRegistry()
	m := metrics.NewEvents(reg, "event_processor")

	proc := &consumer.Processor{
		Log:         logger.Component(log, "processor"),
		Reader:      reader,
		DLQ:         dlq,
		Broadcaster: pubsub.NewRedisBroadcaster(rdb),
		Channel:     cfg.RedisPubSubChannel,
		OnConsumed:  func() { m.Consumed.Inc() },
		OnBroadcast: func() { m.Broadcast.Inc() },
		OnError:     func(stage string) { m.Errors.WithLabelValues(stage).Inc() },
	}

	_ = metrics.StartMetricsServer(cfg.MetricsPort, reg, func(ctx context.Context) error {
		return rdb.Ping(ctx).Err()
	})
	log.Info("metrics/health listening", zap.String("port", cfg.MetricsPort))

	// Sinalização para shutdown gracioso (SIGINT/SIGTERM)
	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	log.Info("event-processor started", zap.String("topic", cfg.TopicBattleEvents), zap.String("channel", cfg.RedisPubSubChannel))
	if err := proc.Run(ctx); err != nil && ctx.Err() == nil {
		log.Fatal("processor stopped with error", zap.Error(err))
	}
	log.Info("event-processor stopped")
}
