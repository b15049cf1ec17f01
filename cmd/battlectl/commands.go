package main

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/core/types"
	"github.com/ethereum/go-ethereum/ethclient"
	"go.uber.org/zap"
	cli "gopkg.in/urfave/cli.v1"

	"github.com/radieske/battle-monads/internal/battleview"
	"github.com/radieske/battle-monads/internal/contract"
	"github.com/radieske/battle-monads/internal/feed"
	"github.com/radieske/battle-monads/internal/gateway"
	"github.com/radieske/battle-monads/internal/pricefeed"
	"github.com/radieske/battle-monads/internal/shared/cache"
	"github.com/radieske/battle-monads/internal/shared/chain"
	"github.com/radieske/battle-monads/internal/shared/config"
	"github.com/radieske/battle-monads/internal/shared/logger"
)

// session reúne conexão, binding e gateway de um comando
type session struct {
	cfg   config.Config
	log   *zap.Logger
	eth   *ethclient.Client
	guard *chain.NetworkGuard
	gw    *gateway.Gateway
}

func open(ctx context.Context, c *cli.Context, withWallet bool) (*session, error) {
	cfg := settings(c)
	log, err := logger.New(cfg.ServiceName, cfg.Env)
	if err != nil {
		return nil, fmt.Errorf("logger init: %w", err)
	}

	eth, err := chain.Dial(ctx, cfg.RPCURL)
	if err != nil {
		return nil, err
	}
	bm, err := contract.NewBattleMonads(common.HexToAddress(cfg.BattleContract), eth)
	if err != nil {
		eth.Close()
		return nil, fmt.Errorf("bind battle contract: %w", err)
	}

	var signer gateway.Signer
	if withWallet {
		if cfg.WalletKeystore == "" {
			eth.Close()
			return nil, gateway.ErrNoWallet
		}
		ks, err := chain.LoadKeystoreSigner(cfg.WalletKeystore, cfg.WalletPassphrase, cfg.ChainID)
		if err != nil {
			eth.Close()
			return nil, err
		}
		signer = ks
	} else if cfg.WalletKeystore != "" {
		// leitura: só o endereço importa, a senha pode faltar
		if addr, err := chain.KeystoreAddress(cfg.WalletKeystore); err == nil {
			signer = chain.WatchOnly(addr)
		}
	}

	guard := chain.NewNetworkGuard(eth, cfg.ChainID)
	gw := gateway.New(bm, signer, gateway.Options{
		Logger:  logger.Component(log, "gateway"),
		Network: guard,
		Tracker: gateway.NewTxTracker(eth),
	})
	return &session{cfg: cfg, log: log, eth: eth, guard: guard, gw: gw}, nil
}

func (s *session) Close() {
	s.eth.Close()
	_ = s.log.Sync()
}

type battleOutput struct {
	Battle  gateway.Battle  `json:"battle"`
	View    battleview.View `json:"view"`
	ETHPool string          `json:"eth_pool_mon"`
	BTCPool string          `json:"btc_pool_mon"`
}

func battleCmd(c *cli.Context) error {
	id, err := argInt(c, 0, "battle id")
	if err != nil {
		return err
	}
	ctx, cancel := timeout()
	defer cancel()
	s, err := open(ctx, c, false)
	if err != nil {
		return err
	}
	defer s.Close()

	b, err := s.gw.Battle(ctx, id)
	if err != nil {
		return err
	}
	if !b.Exists() {
		return fmt.Errorf("battle %d not found", id)
	}
	consts, err := s.gw.Constants(ctx)
	if err != nil {
		s.log.Warn("contract constants unavailable, using defaults", zap.Error(err))
	}

	m := battleview.NewModel()
	m.SetDuration(consts.BattleDuration)
	m.SetBattle(b)
	if acct := s.gw.Account(); acct != (common.Address{}) {
		if bets, err := s.gw.UserBets(ctx, id, acct); err == nil {
			m.SetUserBets(bets, 0)
		}
	}
	return printJSON(battleOutput{
		Battle:  b,
		View:    m.Recompute(),
		ETHPool: gateway.FromWei(b.ETHPool),
		BTCPool: gateway.FromWei(b.BTCPool),
	})
}

func monsterCmd(c *cli.Context) error {
	id, err := argInt(c, 0, "monster id")
	if err != nil {
		return err
	}
	ctx, cancel := timeout()
	defer cancel()
	s, err := open(ctx, c, false)
	if err != nil {
		return err
	}
	defer s.Close()

	m, err := s.gw.Monster(ctx, id)
	if err != nil {
		return err
	}
	prices := pricefeed.New(oracle(s), s.log, nil)
	p, _ := prices.Fetch(ctx)
	price := p.ETH.Price
	if m.Side == gateway.SideBTC {
		price = p.BTC.Price
	}
	return printJSON(battleview.Monster(m, price))
}

func commentsCmd(c *cli.Context) error {
	id, err := argInt(c, 0, "battle id")
	if err != nil {
		return err
	}
	ctx, cancel := timeout()
	defer cancel()
	s, err := open(ctx, c, false)
	if err != nil {
		return err
	}
	defer s.Close()

	cs, err := s.gw.Comments(ctx, id)
	if err != nil {
		return err
	}
	// sem profile store: autores aparecem pelo endereço abreviado
	return printJSON(feed.Build(ctx, cs, nil, time.Now(), s.log))
}

type betsOutput struct {
	User       common.Address `json:"user"`
	Unit       string         `json:"unit"`
	ETH        string         `json:"eth"`
	BTC        string         `json:"btc"`
	Total      string         `json:"total"`
	CanComment bool           `json:"can_comment"`
	Damage     int64          `json:"attack_damage"`
}

func betsCmd(c *cli.Context) error {
	id, err := argInt(c, 0, "battle id")
	if err != nil {
		return err
	}
	ctx, cancel := timeout()
	defer cancel()
	s, err := open(ctx, c, false)
	if err != nil {
		return err
	}
	defer s.Close()

	user := s.gw.Account()
	if raw := c.String(userFlag.Name); raw != "" {
		if !common.IsHexAddress(raw) {
			return fmt.Errorf("invalid address %q", raw)
		}
		user = common.HexToAddress(raw)
	}
	if user == (common.Address{}) {
		return gateway.ErrNoWallet
	}
	bets, err := s.gw.UserBets(ctx, id, user)
	if err != nil {
		return err
	}
	can, err := s.gw.CanUserComment(ctx, id, user)
	if err != nil {
		return err
	}
	return printJSON(betsOutput{
		User:       user,
		Unit:       chain.NativeSymbol,
		ETH:        gateway.FromWeiFixed(bets.ETH, 4),
		BTC:        gateway.FromWeiFixed(bets.BTC, 4),
		Total:      gateway.FromWeiFixed(bets.Total(), 4),
		CanComment: can,
		Damage:     battleview.AttackDamage(bets.Total()),
	})
}

// pricesCmd prefere o snapshot publicado pelo battle-client e cai para o oráculo
func pricesCmd(c *cli.Context) error {
	ctx, cancel := timeout()
	defer cancel()
	cfg := settings(c)

	if rdb, err := cache.ConnectRedis(cfg.RedisAddr); err == nil {
		defer rdb.Close()
		if p, ok, err := pricefeed.NewStore(rdb).Latest(ctx); err == nil && ok {
			return printJSON(p)
		}
	}

	s, err := open(ctx, c, false)
	if err != nil {
		// sem RPC também vale o placeholder
		return printJSON(pricefeed.Placeholder(time.Now()))
	}
	defer s.Close()
	p, _ := pricefeed.New(oracle(s), s.log, nil).Fetch(ctx)
	return printJSON(p)
}

func constantsCmd(c *cli.Context) error {
	ctx, cancel := timeout()
	defer cancel()
	s, err := open(ctx, c, false)
	if err != nil {
		return err
	}
	defer s.Close()

	consts, err := s.gw.Constants(ctx)
	if err != nil {
		s.log.Warn("contract constants unavailable, using defaults", zap.Error(err))
	}
	return printJSON(map[string]any{
		"battle_duration": consts.BattleDuration.String(),
		"default_hp":      consts.DefaultHP,
		"min_bet_mon":     gateway.FromWei(consts.MinBet),
		"max_bet_mon":     gateway.FromWei(consts.MaxBet),
	})
}

func betCmd(c *cli.Context) error {
	id, err := argInt(c, 0, "battle id")
	if err != nil {
		return err
	}
	side, ok := gateway.ParseSide(c.Args().Get(1))
	if !ok {
		return fmt.Errorf("invalid side %q (eth|btc)", c.Args().Get(1))
	}
	amount := c.Args().Get(2)
	if _, err := gateway.ValidateBet(amount); err != nil {
		return err
	}
	return write(c, gateway.OpBet, func(ctx context.Context, s *session) (*types.Transaction, error) {
		return s.gw.PlaceBet(ctx, id, side, amount)
	})
}

func commentCmd(c *cli.Context) error {
	id, err := argInt(c, 0, "battle id")
	if err != nil {
		return err
	}
	var target *gateway.Side
	if raw := c.String(targetFlag.Name); raw != "" {
		side, ok := gateway.ParseSide(raw)
		if !ok {
			return fmt.Errorf("invalid target %q (eth|btc)", raw)
		}
		target = &side
	}
	draft, err := feed.ParseComment(strings.Join(c.Args().Tail(), " "), target)
	if err != nil {
		return err
	}
	return write(c, gateway.OpComment, func(ctx context.Context, s *session) (*types.Transaction, error) {
		can, err := s.gw.CanUserComment(ctx, id, s.gw.Account())
		if err != nil {
			return nil, err
		}
		// a CLI já tem carteira; só a aposta prévia pode bloquear
		if gate := feed.Check(true, true, can); !gate.Allowed {
			return nil, fmt.Errorf("%s", gate.Blockers[0].Guidance)
		}
		return feed.NewSubmitter(s.gw, nil).Submit(ctx, id, draft)
	})
}

func claimCmd(c *cli.Context) error {
	id, err := argInt(c, 0, "battle id")
	if err != nil {
		return err
	}
	return write(c, gateway.OpClaim, func(ctx context.Context, s *session) (*types.Transaction, error) {
		return s.gw.ClaimReward(ctx, id)
	})
}

func endCmd(c *cli.Context) error {
	id, err := argInt(c, 0, "battle id")
	if err != nil {
		return err
	}
	return write(c, gateway.OpEndBattle, func(ctx context.Context, s *session) (*types.Transaction, error) {
		return s.gw.EndBattle(ctx, id)
	})
}

func createCmd(c *cli.Context) error {
	return write(c, gateway.OpCreateBattle, func(ctx context.Context, s *session) (*types.Transaction, error) {
		return s.gw.CreateBattle(ctx)
	})
}

type txOutput struct {
	Op          string          `json:"op,omitempty"`
	Hash        common.Hash     `json:"hash"`
	State       gateway.TxState `json:"state"`
	BlockNumber uint64          `json:"block_number,omitempty"`
	Explorer    string          `json:"explorer"`
}

// write submete uma escrita e, com --wait, acompanha o recibo
func write(c *cli.Context, op string, send func(ctx context.Context, s *session) (*types.Transaction, error)) error {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Minute)
	defer cancel()
	s, err := open(ctx, c, true)
	if err != nil {
		return err
	}
	defer s.Close()

	tx, err := send(ctx, s)
	if err != nil {
		return err
	}
	out := txOutput{Op: op, Hash: tx.Hash(), State: gateway.TxPending, Explorer: chain.TxURL(tx.Hash())}
	if c.Bool(waitFlag.Name) {
		state, err := s.gw.Tracker().Wait(ctx, tx.Hash(), 2*time.Second)
		if err != nil {
			return err
		}
		out.State = state
		if rec, ok := s.gw.Tracker().Last(op); ok {
			out.BlockNumber = rec.BlockNumber
		}
	}
	return printJSON(out)
}

func txCmd(c *cli.Context) error {
	raw := c.Args().First()
	if len(raw) != 66 || !strings.HasPrefix(raw, "0x") {
		return fmt.Errorf("invalid tx hash %q", raw)
	}
	ctx, cancel := timeout()
	defer cancel()
	s, err := open(ctx, c, false)
	if err != nil {
		return err
	}
	defer s.Close()

	hash := common.HexToHash(raw)
	state, block, err := s.gw.Tracker().Status(ctx, hash)
	if err != nil {
		return err
	}
	return printJSON(txOutput{Hash: hash, State: state, BlockNumber: block, Explorer: chain.TxURL(hash)})
}

func networkCmd(c *cli.Context) error {
	ctx, cancel := timeout()
	defer cancel()
	s, err := open(ctx, c, false)
	if err != nil {
		return err
	}
	defer s.Close()

	_ = s.guard.Check(ctx)
	return printJSON(s.guard.Status())
}

// oracle devolve nil (interface) quando o PriceFeeds não está configurado
func oracle(s *session) pricefeed.Oracle {
	addr := common.HexToAddress(s.cfg.PriceFeedsContract)
	if addr == (common.Address{}) {
		return nil
	}
	pf, err := contract.NewPriceFeeds(addr, s.eth)
	if err != nil {
		s.log.Warn("price feeds binding failed", zap.Error(err))
		return nil
	}
	return pf
}
