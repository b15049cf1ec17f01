package main

import (
	"context"
	"fmt"
	"os/signal"
	"syscall"

	"github.com/ethereum/go-ethereum/common"
	"github.com/prometheus/client_golang/prometheus"
	"go.uber.org/zap"

	"github.com/radieske/battle-monads/internal/chainevents"
	"github.com/radieske/battle-monads/internal/chainevents/publisher"
	"github.com/radieske/battle-monads/internal/contract"
	"github.com/radieske/battle-monads/internal/shared/cache"
	"github.com/radieske/battle-monads/internal/shared/chain"
	"github.com/radieske/battle-monads/internal/shared/config"
	"github.com/radieske/battle-monads/internal/shared/kafka"
	"github.com/radieske/battle-monads/internal/shared/logger"
	"github.com/radieske/battle-monads/internal/shared/metrics"
)

func main() {
	cfg := config.LoadFor("event-watcher")

	log, err := logger.New(cfg.ServiceName, cfg.Env)
	if err != nil {
		panic(fmt.Errorf("logger init: %w", err))
	}
	defer log.Sync()

	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	eth, err := chain.Dial(ctx, cfg.RPCURL)
	if err != nil {
		log.Fatal("failed to dial rpc", zap.Error(err), zap.String("rpc", cfg.RPCURL))
	}
	defer eth.Close()

	addr := common.HexToAddress(cfg.BattleContract)
	bm, err := contract.NewBattleMonads(addr, eth)
	if err != nil {
		log.Fatal("failed to bind battle contract", zap.Error(err))
	}

	// cursor do último bloco processado
	rdb, err := cache.ConnectRedis(cfg.RedisAddr)
	if err != nil {
		log.Fatal("failed to connect redis", zap.Error(err))
	}
	defer rdb.Close()

	// cria tópico se estiver em ambiente local/dev
	if cfg.Env == "local" || cfg.Env == "dev" {
		brokers := kafka.Brokers(cfg.KafkaBrokers)
		for _, topic := range []string{cfg.TopicBattleEvents, cfg.TopicBattleEventsDLQ} {
			if err := publisher.EnsureTopic(ctx, brokers, topic, log); err != nil {
				log.Warn("ensure topic failed", zap.String("topic", topic), zap.Error(err))
			}
		}
	}

	writer := kafka.NewWriter(cfg.KafkaBrokers, cfg.TopicBattleEvents)
	pub := publisher.NewKafkaPublisher(writer, logger.Component(log, "publisher"))
	defer pub.Close()

	reg := prometheus.NewRegistry()
	m := metrics.NewEvents(reg, "event_watcher")
	pub.OnPublish = func() { m.Published.Inc() }

	w := &chainevents.Watcher{
		Log:        logger.Component(log, "watcher"),
		Source:     eth,
		Decoder:    chainevents.NewDecoder(bm),
		Contract:   addr,
		Publisher:  pub,
		Cursor:     chainevents.NewRedisCursor(rdb),
		Interval:   cfg.LogPollInterval,
		OnObserved: func(t string) { m.Observed.WithLabelValues(t).Inc() },
		OnError:    func(stage string) { m.Errors.WithLabelValues(stage).Inc() },
		OnHead:     func(b uint64) { m.Head.Set(float64(b)) },
	}

	health := metrics.All(
		func(ctx context.Context) error { return rdb.Ping(ctx).Err() },
		func(ctx context.Context) error {
			_, err := eth.BlockNumber(ctx)
			return err
		},
	)
	_ = metrics.StartMetricsServer(cfg.MetricsPort, reg, health)
	log.Info("metrics/health listening", zap.String("port", cfg.MetricsPort))

	log.Info("event-watcher started", zap.String("contract", addr.Hex()), zap.Duration("interval", cfg.LogPollInterval))
	if err := w.Run(ctx); err != nil && ctx.Err() == nil {
		log.Fatal("watcher stopped with error", zap.Error(err))
	}
	log.Info("event-watcher stopped")
}
