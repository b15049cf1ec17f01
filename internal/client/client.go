// Package client é o núcleo do battle-client: mantém as arenas observadas,
// o poller de preços, a sessão de identidade e encaminha as escritas.
package client

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/core/types"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	"github.com/radieske/battle-monads/internal/battleview"
	"github.com/radieske/battle-monads/internal/feed"
	"github.com/radieske/battle-monads/internal/gateway"
	"github.com/radieske/battle-monads/internal/identity"
	"github.com/radieske/battle-monads/internal/poller"
	"github.com/radieske/battle-monads/internal/pricefeed"
	"github.com/radieske/battle-monads/internal/shared/metrics"
	"github.com/radieske/battle-monads/pkg/contracts/events"
)

var ErrNotWatching = errors.New("client: battle is not being watched")

// BlockedError indica que o usuário não pode postar; Gate traz os motivos.
type BlockedError struct{ Gate feed.Gate }

func (e *BlockedError) Error() string {
	if len(e.Gate.Blockers) == 0 {
		return "comment blocked"
	}
	return e.Gate.Blockers[0].Guidance
}

// Notifier recebe cada atualização aceita (hub websocket).
type Notifier interface {
	Notify(battleID int64, resource string, payload any)
}

// PriceSink guarda o último snapshot de preços (Redis).
type PriceSink interface {
	Save(ctx context.Context, p pricefeed.Prices) error
}

type Deps struct {
	Log       *zap.Logger
	Gateway   *gateway.Gateway
	Prices    *pricefeed.Feed
	PriceSink PriceSink
	Profiles  feed.ProfileLookup
	Linker    *identity.Linker
	Notifier  Notifier
	Metrics   *metrics.Client
}

// Client mantém uma arena por batalha observada.
type Client struct {
	log      *zap.Logger
	gw       *gateway.Gateway
	profiles feed.ProfileLookup
	linker   *identity.Linker
	notifier Notifier
	sink     PriceSink
	metrics  *metrics.Client

	prices *poller.Poller[pricefeed.Prices]

	ctx context.Context

	mu        sync.RWMutex
	arenas    map[int64]*Arena
	session   *identity.Session
	constants gateway.Constants
}

func New(d Deps) *Client {
	log := d.Log
	if log == nil {
		log = zap.NewNop()
	}
	c := &Client{
		log:       log,
		gw:        d.Gateway,
		profiles:  d.Profiles,
		linker:    d.Linker,
		notifier:  d.Notifier,
		sink:      d.PriceSink,
		metrics:   d.Metrics,
		arenas:    map[int64]*Arena{},
		constants: gateway.Constants{BattleDuration: gateway.DefaultBattleDuration},
	}
	feedFetch := func(ctx context.Context) (pricefeed.Prices, error) {
		return pricefeed.Placeholder(time.Now()), nil
	}
	if d.Prices != nil {
		feedFetch = d.Prices.Fetch
	}
	c.prices = poller.New(poller.Options{Name: ResPrices, Interval: pricefeed.Interval, Logger: log, Hooks: c.hooks()},
		feedFetch, c.onPrices)
	return c
}

// Start lê as constantes do contrato e inicia o poller de preços.
func (c *Client) Start(ctx context.Context) {
	c.ctx = ctx
	consts, err := c.gw.Constants(ctx)
	if err != nil {
		c.log.Warn("contract constants unavailable, using defaults", zap.Error(err))
	}
	c.mu.Lock()
	c.constants = consts
	c.mu.Unlock()

	c.prices.Start(ctx)
}

// Stop derruba todas as arenas e o poller de preços.
func (c *Client) Stop() {
	c.mu.Lock()
	arenas := c.arenas
	c.arenas = map[int64]*Arena{}
	c.mu.Unlock()
	for _, a := range arenas {
		a.Close()
	}
	c.prices.Stop()
}

// Watch abre (ou reaproveita) a arena da batalha.
func (c *Client) Watch(battleID int64) (*Arena, error) {
	if battleID <= 0 {
		return nil, gateway.ErrInvalidBattle
	}
	d := c.duration()
	c.mu.Lock()
	defer c.mu.Unlock()
	if a, ok := c.arenas[battleID]; ok {
		return a, nil
	}
	ctx := c.ctx
	if ctx == nil {
		ctx = context.Background()
	}
	a := newArena(c, battleID, d)
	a.start(ctx, c)
	c.arenas[battleID] = a
	c.log.Info("watching battle", zap.Int64("battle_id", battleID))
	return a, nil
}

// Unwatch fecha a arena; as leituras dela param imediatamente.
func (c *Client) Unwatch(battleID int64) bool {
	c.mu.Lock()
	a, ok := c.arenas[battleID]
	delete(c.arenas, battleID)
	c.mu.Unlock()
	if ok {
		a.Close()
		c.log.Info("battle unwatched", zap.Int64("battle_id", battleID))
	}
	return ok
}

func (c *Client) arena(battleID int64) (*Arena, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	a, ok := c.arenas[battleID]
	return a, ok
}

func (c *Client) Watching() []int64 {
	c.mu.RLock()
	defer c.mu.RUnlock()
	out := make([]int64, 0, len(c.arenas))
	for id := range c.arenas {
		out = append(out, id)
	}
	return out
}

func (c *Client) Snapshot(battleID int64) (Snapshot, error) {
	a, ok := c.arena(battleID)
	if !ok {
		return Snapshot{}, ErrNotWatching
	}
	return a.snapshot(c), nil
}

// Prices devolve o último snapshot (placeholder antes da primeira leitura).
func (c *Client) Prices() pricefeed.Prices {
	if p, ok := c.prices.Latest(); ok {
		return p
	}
	return pricefeed.Placeholder(time.Now())
}

func (c *Client) Constants() gateway.Constants {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.constants
}

func (c *Client) Wallet() common.Address { return c.gw.Account() }

// ──────────────────────────────────────────────
//  Sessão
// ──────────────────────────────────────────────

func (c *Client) Session() *identity.Session {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.session
}

// SetSession troca a sessão atual (nil = logout) e dispara o vínculo
// carteira/identidade quando os dois existem.
func (c *Client) SetSession(ctx context.Context, s *identity.Session) {
	c.mu.Lock()
	c.session = s
	c.mu.Unlock()
	c.LinkIdentity(ctx)
}

func (c *Client) LinkIdentity(ctx context.Context) {
	if c.linker == nil {
		return
	}
	c.linker.Observe(ctx, c.Session(), c.Wallet())
}

// ──────────────────────────────────────────────
//  Escritas
// ──────────────────────────────────────────────

// PlaceBet envia a aposta e registra o valor como provisório até uma leitura
// de getUserBets disparada depois da submissão.
func (c *Client) PlaceBet(ctx context.Context, battleID int64, side gateway.Side, amount string) (*types.Transaction, error) {
	a, watching := c.arena(battleID)
	var mark uint64
	if watching {
		mark = a.userBets.Issued()
	}
	tx, err := c.gw.PlaceBet(ctx, battleID, side, amount)
	if err != nil {
		return nil, err
	}
	if watching {
		a.model.AddProvisional(tx.Value(), mark)
		a.userBets.Trigger()
		a.battle.Trigger()
		a.canComment.Trigger()
	}
	return tx, nil
}

// Comment valida a permissão e envia o comentário (ou ataque).
func (c *Client) Comment(ctx context.Context, battleID int64, content string, target *gateway.Side) (*types.Transaction, error) {
	d, err := feed.ParseComment(content, target)
	if err != nil {
		return nil, err
	}
	a, ok := c.arena(battleID)
	if !ok {
		if a, err = c.Watch(battleID); err != nil {
			return nil, err
		}
	}
	canComment, known := a.canComment.Latest()
	if !known {
		canComment, err = c.gw.CanUserComment(ctx, battleID, c.Wallet())
		if err != nil && !errors.Is(err, gateway.ErrReadDisabled) {
			return nil, err
		}
	}
	gate := feed.Check(c.Session() != nil, c.Wallet() != (common.Address{}), canComment)
	if !gate.Allowed {
		return nil, &BlockedError{Gate: gate}
	}
	return a.submitter.Submit(ctx, battleID, d)
}

func (c *Client) ClaimReward(ctx context.Context, battleID int64) (*types.Transaction, error) {
	tx, err := c.gw.ClaimReward(ctx, battleID)
	if err == nil {
		c.trigger(battleID, ResUserBets, ResBattle)
	}
	return tx, err
}

func (c *Client) EndBattle(ctx context.Context, battleID int64) (*types.Transaction, error) {
	tx, err := c.gw.EndBattle(ctx, battleID)
	if err == nil {
		c.trigger(battleID, ResBattle)
	}
	return tx, err
}

func (c *Client) CreateBattle(ctx context.Context) (*types.Transaction, error) {
	return c.gw.CreateBattle(ctx)
}

// ──────────────────────────────────────────────
//  Invalidação por eventos on-chain
// ──────────────────────────────────────────────

// Invalidate relê só os recursos afetados pelo evento.
func (c *Client) Invalidate(e events.Envelope) {
	switch e.Type {
	case events.TypeBetPlaced:
		c.trigger(e.BattleID, ResBattle, ResUserBets, ResCanComment)
	case events.TypeCommentAdded:
		c.trigger(e.BattleID, ResComments)
	case events.TypeMonsterAttacked:
		c.trigger(e.BattleID, ResETHMonster, ResBTCMonster, ResComments)
	case events.TypeBattleEnded:
		c.trigger(e.BattleID, ResBattle, ResETHMonster, ResBTCMonster)
	case events.TypeRewardClaimed:
		c.trigger(e.BattleID, ResUserBets)
	}
}

func (c *Client) trigger(battleID int64, resources ...string) {
	a, ok := c.arena(battleID)
	if !ok {
		return
	}
	for _, r := range resources {
		switch r {
		case ResBattle:
			a.battle.Trigger()
		case ResETHMonster:
			a.ethMonster.Trigger()
		case ResBTCMonster:
			a.btcMonster.Trigger()
		case ResComments:
			a.comments.Trigger()
		case ResUserBets:
			a.userBets.Trigger()
		case ResCanComment:
			a.canComment.Trigger()
		}
	}
}

// ──────────────────────────────────────────────
//  helpers
// ──────────────────────────────────────────────

func (c *Client) onPrices(p pricefeed.Prices) {
	if c.sink != nil {
		ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
		if err := c.sink.Save(ctx, p); err != nil {
			c.log.Warn("price snapshot not stored", zap.Error(err))
		}
		cancel()
	}
	c.notify(0, ResPrices, p)
}

func (c *Client) monsterView(m gateway.Monster) battleview.MonsterView {
	p := c.Prices()
	price := decimal.Zero
	switch m.Side {
	case gateway.SideETH:
		price = p.ETH.Price
	case gateway.SideBTC:
		price = p.BTC.Price
	}
	return battleview.Monster(m, price)
}

func (c *Client) duration() time.Duration {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.constants.BattleDuration
}

func (c *Client) notify(battleID int64, resource string, payload any) {
	if c.notifier != nil {
		c.notifier.Notify(battleID, resource, payload)
	}
}

func (c *Client) hooks() poller.Hooks {
	if c.metrics == nil {
		return poller.Hooks{}
	}
	m := c.metrics
	return poller.Hooks{
		OnPoll:  func(r string) { m.Polls.WithLabelValues(r).Inc() },
		OnError: func(r string, _ error) { m.PollErrs.WithLabelValues(r).Inc() },
		OnStale: func(r string) { m.Stale.WithLabelValues(r).Inc() },
	}
}
