package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/ethereum/go-ethereum/common"
	"github.com/prometheus/client_golang/prometheus"
	"go.uber.org/zap"

	httpapi "github.com/radieske/battle-monads/internal/api/http"
	"github.com/radieske/battle-monads/internal/api/ws"
	"github.com/radieske/battle-monads/internal/client"
	"github.com/radieske/battle-monads/internal/contract"
	"github.com/radieske/battle-monads/internal/gateway"
	"github.com/radieske/battle-monads/internal/identity"
	"github.com/radieske/battle-monads/internal/identity/repo"
	"github.com/radieske/battle-monads/internal/pricefeed"
	"github.com/radieske/battle-monads/internal/shared/cache"
	"github.com/radieske/battle-monads/internal/shared/chain"
	"github.com/radieske/battle-monads/internal/shared/config"
	"github.com/radieske/battle-monads/internal/shared/db"
	"github.com/radieske/battle-monads/internal/shared/logger"
	"github.com/radieske/battle-monads/internal/shared/metrics"
)

func main() {
	cfg := config.LoadFor("battle-client")

	log, err := logger.New(cfg.ServiceName, cfg.Env)
	if err != nil {
		panic(fmt.Errorf("logger init: %w", err))
	}
	defer log.Sync()

	log.Info("starting service", zap.String("service", cfg.ServiceName), zap.String("env", cfg.Env))

	// Sinalização para shutdown gracioso (SIGINT/SIGTERM)
	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	// chain
	eth, err := chain.Dial(ctx, cfg.RPCURL)
	if err != nil {
		log.Fatal("failed to dial rpc", zap.Error(err), zap.String("rpc", cfg.RPCURL))
	}
	defer eth.Close()
	log.Info("rpc connected", zap.String("rpc", cfg.RPCURL))

	guard := chain.NewNetworkGuard(eth, cfg.ChainID)
	if err := guard.Check(ctx); err != nil {
		log.Warn("wallet network mismatch", zap.Error(err), zap.Int64("want", cfg.ChainID))
	}
	go guard.Run(ctx, 30*time.Second)

	bm, err := contract.NewBattleMonads(common.HexToAddress(cfg.BattleContract), eth)
	if err != nil {
		log.Fatal("failed to bind battle contract", zap.Error(err))
	}

	var oracle pricefeed.Oracle
	if addr := common.HexToAddress(cfg.PriceFeedsContract); addr != (common.Address{}) {
		pf, err := contract.NewPriceFeeds(addr, eth)
		if err != nil {
			log.Fatal("failed to bind price feeds", zap.Error(err))
		}
		oracle = pf
	} else {
		log.Warn("price feeds contract not configured, serving placeholder prices")
	}

	reg := prometheus.NewRegistry()
	reg.MustRegister(prometheus.NewGoCollector(), prometheus.NewProcessCollector(prometheus.ProcessCollectorOpts{}))
	m := metrics.NewClient(reg)

	// carteira opcional: sem keystore o cliente só lê
	var signer gateway.Signer
	if cfg.WalletKeystore != "" {
		ks, err := chain.LoadKeystoreSigner(cfg.WalletKeystore, cfg.WalletPassphrase, cfg.ChainID)
		if err != nil {
			log.Fatal("failed to load wallet keystore", zap.Error(err))
		}
		signer = ks
		log.Info("wallet connected", zap.String("address", ks.Address().Hex()))
	}

	gw := gateway.New(bm, signer, gateway.Options{
		Logger:  logger.Component(log, "gateway"),
		Network: guard,
		Tracker: gateway.NewTxTracker(eth),
		OnSubmit: func(op, outcome string) {
			m.TxSubmits.WithLabelValues(op, outcome).Inc()
		},
	})

	// conecta com db Postgres (perfis de identidade)
	pg, err := db.ConnectPostgres(cfg.PostgresDSN)
	if err != nil {
		log.Fatal("failed to connect postgres", zap.Error(err))
	}
	defer pg.Close()
	log.Info("postgres connected")

	profiles := repo.NewPostgres(pg)
	linker := identity.NewLinker(profiles, logger.Component(log, "identity"), func(outcome string) {
		m.Links.WithLabelValues(outcome).Inc()
	})

	// conecta com cache Redis
	rdb, err := cache.ConnectRedis(cfg.RedisAddr)
	if err != nil {
		log.Fatal("failed to connect redis", zap.Error(err))
	}
	defer rdb.Close()
	log.Info("redis connected")

	hub := ws.NewHub(func(r *http.Request) bool { return true }, logger.Component(log, "ws"))

	cl := client.New(client.Deps{
		Log:     logger.Component(log, "client"),
		Gateway: gw,
		Prices: pricefeed.New(oracle, logger.Component(log, "pricefeed"), func() {
			m.Fallbacks.Inc()
		}),
		PriceSink: pricefeed.NewStore(rdb),
		Profiles:  profiles,
		Linker:    linker,
		Notifier:  hub,
		Metrics:   m,
	})
	cl.Start(ctx)
	defer cl.Stop()

	if cfg.BattleID > 0 {
		if _, err := cl.Watch(cfg.BattleID); err != nil {
			log.Error("failed to watch battle", zap.Int64("battle_id", cfg.BattleID), zap.Error(err))
		} else {
			log.Info("watching battle", zap.Int64("battle_id", cfg.BattleID))
		}
	}

	// eventos on-chain repassados pelo event-processor
	ws.StartRedisSubscriber(ctx, rdb, cfg.RedisPubSubChannel, hub, cl, logger.Component(log, "ws"))

	var verifier httpapi.SessionVerifier
	if cfg.IdentityURL != "" {
		verifier = identity.NewProvider(cfg.IdentityURL, cfg.IdentityAnonKey)
	} else {
		log.Warn("identity provider not configured, sign-in disabled")
	}

	api := &httpapi.API{
		Log:      logger.Component(log, "http"),
		Backend:  cl,
		Tracker:  gw.Tracker(),
		Network:  guard.Status,
		Verifier: verifier,
		WS:       hub.HandleWS,
	}

	srv := &http.Server{
		Addr:              ":" + cfg.HTTPPort,
		Handler:           api.Router(),
		ReadHeaderTimeout: 5 * time.Second,
	}
	go func() {
		log.Info("http listening", zap.String("addr", srv.Addr))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatal("http server failed", zap.Error(err))
		}
	}()

	// métricas e health: postgres, redis e rpc
	health := metrics.All(
		pg.PingContext,
		func(ctx context.Context) error { return rdb.Ping(ctx).Err() },
		func(ctx context.Context) error {
			_, err := eth.BlockNumber(ctx)
			return err
		},
	)
	msrv := metrics.StartMetricsServer(cfg.MetricsPort, reg, health)
	log.Info("metrics/health listening", zap.String("port", cfg.MetricsPort))

	<-ctx.Done()
	log.Info("shutting down")

	shutdownCtx, done := context.WithTimeout(context.Background(), 5*time.Second)
	defer done()
	_ = srv.Shutdown(shutdownCtx)
	_ = msrv.Shutdown(shutdownCtx)
	log.Info("battle-client stopped")
}
