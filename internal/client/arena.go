package client

import (
	"context"
	"sync"
	"time"

	"github.com/ethereum/go-ethereum/common"
	"go.uber.org/zap"

	"github.com/radieske/battle-monads/internal/battleview"
	"github.com/radieske/battle-monads/internal/feed"
	"github.com/radieske/battle-monads/internal/gateway"
	"github.com/radieske/battle-monads/internal/poller"
)

// Intervalos de leitura por recurso.
const (
	BattleInterval     = 5 * time.Second
	MonsterInterval    = 3 * time.Second
	CommentsInterval   = 3 * time.Second
	UserBetsInterval   = 5 * time.Second
	CanCommentInterval = 5 * time.Second
)

// Nomes de recurso (label de métrica e tipo de mensagem no websocket).
const (
	ResBattle     = "battle"
	ResETHMonster = "eth_monster"
	ResBTCMonster = "btc_monster"
	ResComments   = "comments"
	ResUserBets   = "user_bets"
	ResCanComment = "can_comment"
	ResView       = "view"
	ResPrices     = "prices"
)

// Arena é o conjunto de leituras de uma batalha aberta. Existe enquanto a
// batalha estiver sendo observada; Close derruba todos os pollers.
type Arena struct {
	ID int64

	battle     *poller.Poller[gateway.Battle]
	ethMonster *poller.Poller[gateway.Monster]
	btcMonster *poller.Poller[gateway.Monster]
	comments   *poller.Poller[[]feed.Entry]
	userBets   *poller.Poller[gateway.UserBets]
	canComment *poller.Poller[bool]

	model     *battleview.Model
	submitter *feed.Submitter

	cancel context.CancelFunc
	wg     sync.WaitGroup
}

func newArena(c *Client, battleID int64, duration time.Duration) *Arena {
	a := &Arena{ID: battleID, model: battleview.NewModel()}
	a.model.SetDuration(duration)
	log := c.log.With(zap.Int64("battle_id", battleID))
	hooks := c.hooks()
	opts := func(name string, every time.Duration) poller.Options {
		return poller.Options{Name: name, Interval: every, Logger: log, Hooks: hooks}
	}
	gw := c.gw

	a.battle = poller.New(opts(ResBattle, BattleInterval), func(ctx context.Context) (gateway.Battle, error) {
		return gw.Battle(ctx, battleID)
	}, func(b gateway.Battle) {
		a.model.SetBattle(b)
		c.notify(battleID, ResBattle, b)
		c.notify(battleID, ResView, a.model.View())
		// ids dos monstros chegam com a batalha
		a.ethMonster.Trigger()
		a.btcMonster.Trigger()
	})

	monsterFetch := func(pick func(gateway.Battle) int64) poller.Fetch[gateway.Monster] {
		return func(ctx context.Context) (gateway.Monster, error) {
			b, _ := a.battle.Latest()
			return gw.Monster(ctx, pick(b))
		}
	}
	a.ethMonster = poller.New(opts(ResETHMonster, MonsterInterval),
		monsterFetch(func(b gateway.Battle) int64 { return b.ETHMonsterID }),
		func(m gateway.Monster) { c.notify(battleID, ResETHMonster, c.monsterView(m)) })
	a.btcMonster = poller.New(opts(ResBTCMonster, MonsterInterval),
		monsterFetch(func(b gateway.Battle) int64 { return b.BTCMonsterID }),
		func(m gateway.Monster) { c.notify(battleID, ResBTCMonster, c.monsterView(m)) })

	a.comments = poller.New(opts(ResComments, CommentsInterval), func(ctx context.Context) ([]feed.Entry, error) {
		cs, err := gw.Comments(ctx, battleID)
		if err != nil {
			return nil, err
		}
		return feed.Build(ctx, cs, c.profiles, time.Now(), log), nil
	}, func(es []feed.Entry) { c.notify(battleID, ResComments, es) })

	a.userBets = poller.NewSeq(opts(ResUserBets, UserBetsInterval), func(ctx context.Context) (gateway.UserBets, error) {
		return gw.UserBets(ctx, battleID, c.Wallet())
	}, func(u gateway.UserBets, seq uint64) {
		a.model.SetUserBets(u, seq)
		c.notify(battleID, ResUserBets, u)
		c.notify(battleID, ResView, a.model.View())
	})

	a.canComment = poller.New(opts(ResCanComment, CanCommentInterval), func(ctx context.Context) (bool, error) {
		return gw.CanUserComment(ctx, battleID, c.Wallet())
	}, func(ok bool) { c.notify(battleID, ResCanComment, ok) })

	a.submitter = feed.NewSubmitter(gw, a.comments.Trigger)
	return a
}

func (a *Arena) start(ctx context.Context, c *Client) {
	ctx, a.cancel = context.WithCancel(ctx)
	a.battle.Start(ctx)
	a.ethMonster.Start(ctx)
	a.btcMonster.Start(ctx)
	a.comments.Start(ctx)
	a.userBets.Start(ctx)
	a.canComment.Start(ctx)

	a.wg.Add(1)
	go func() {
		defer a.wg.Done()
		ticker := time.NewTicker(battleview.TickInterval)
		defer ticker.Stop()
		for {
			select {
			case <-ctx.Done():
				return
			case <-ticker.C:
				if a.model.Live() {
					c.notify(a.ID, ResView, a.model.Tick())
				}
			}
		}
	}()
}

// Close cancela todos os pollers da batalha e espera o término.
func (a *Arena) Close() {
	if a.cancel != nil {
		a.cancel()
	}
	a.battle.Stop()
	a.ethMonster.Stop()
	a.btcMonster.Stop()
	a.comments.Stop()
	a.userBets.Stop()
	a.canComment.Stop()
	a.wg.Wait()
}

// Snapshot é o estado completo de uma arena para a API.
type Snapshot struct {
	BattleID   int64                   `json:"battle_id"`
	Battle     *gateway.Battle         `json:"battle"`
	ETHMonster *battleview.MonsterView `json:"eth_monster"`
	BTCMonster *battleview.MonsterView `json:"btc_monster"`
	Comments   []feed.Entry            `json:"comments"`
	UserBets   *gateway.UserBets       `json:"user_bets"`
	CanComment bool                    `json:"can_comment"`
	Gate       feed.Gate               `json:"comment_gate"`
	View       battleview.View         `json:"view"`
	Wallet     *common.Address         `json:"wallet,omitempty"`
	Errors     map[string]string       `json:"errors,omitempty"`
}

func (a *Arena) snapshot(c *Client) Snapshot {
	s := Snapshot{BattleID: a.ID, Comments: []feed.Entry{}, View: a.model.View(), Errors: map[string]string{}}
	if b, ok := a.battle.Latest(); ok {
		s.Battle = &b
	}
	if m, ok := a.ethMonster.Latest(); ok {
		v := c.monsterView(m)
		s.ETHMonster = &v
	}
	if m, ok := a.btcMonster.Latest(); ok {
		v := c.monsterView(m)
		s.BTCMonster = &v
	}
	if es, ok := a.comments.Latest(); ok && es != nil {
		s.Comments = es
	}
	if u, ok := a.userBets.Latest(); ok {
		s.UserBets = &u
	}
	s.CanComment, _ = a.canComment.Latest()

	w := c.Wallet()
	if w != (common.Address{}) {
		s.Wallet = &w
	}
	s.Gate = feed.Check(c.Session() != nil, s.Wallet != nil, s.CanComment)

	for name, err := range map[string]error{
		ResBattle: a.battle.Err(), ResETHMonster: a.ethMonster.Err(), ResBTCMonster: a.btcMonster.Err(),
		ResComments: a.comments.Err(), ResUserBets: a.userBets.Err(), ResCanComment: a.canComment.Err(),
	} {
		if err != nil {
			s.Errors[name] = err.Error()
		}
	}
	if len(s.Errors) == 0 {
		s.Errors = nil
	}
	return s
}
