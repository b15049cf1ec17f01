package battleview

import (
	"math/big"
	"sync"
	"time"

	"github.com/shopspring/decimal"

	"github.com/radieske/battle-monads/internal/gateway"
)

// TickInterval do recálculo do tempo restante.
const TickInterval = time.Second

// View é o estado derivado exibido para uma batalha.
type View struct {
	BattleID      int64           `json:"battle_id"`
	Status        Status          `json:"status"`
	Remaining     string          `json:"remaining"`
	RemainingSecs int64           `json:"remaining_seconds"`
	Progress      float64         `json:"progress"`
	ETHOdds       decimal.Decimal `json:"eth_odds"`
	BTCOdds       decimal.Decimal `json:"btc_odds"`
	TotalPool     string          `json:"total_pool"` // MON
	Winner        gateway.Winner  `json:"winner"`

	UserStake        string `json:"user_stake"` // MON
	StakeProvisional bool   `json:"stake_provisional"`
	AttackDamage     int64  `json:"attack_damage"`

	ComputedAt time.Time `json:"computed_at"`
}

// Model guarda as últimas leituras e recalcula a View a cada tick.
type Model struct {
	mu          sync.RWMutex
	battle      gateway.Battle
	hasBattle   bool
	duration    time.Duration
	bets        gateway.UserBets
	provisional *big.Int // aposta submetida e ainda não refletida em getUserBets
	provAfter   uint64   // só leituras com seq maior reconciliam o provisório
	view        View
	now         func() time.Time
}

func NewModel() *Model {
	return &Model{duration: gateway.DefaultBattleDuration, now: time.Now}
}

func (m *Model) SetBattle(b gateway.Battle) {
	m.mu.Lock()
	m.battle, m.hasBattle = b, true
	m.mu.Unlock()
	m.Recompute()
}

func (m *Model) SetDuration(d time.Duration) {
	if d <= 0 {
		return
	}
	m.mu.Lock()
	m.duration = d
	m.mu.Unlock()
	m.Recompute()
}

// SetUserBets aplica a leitura de número seq. O saldo provisório só é
// descartado por leituras disparadas depois da submissão.
func (m *Model) SetUserBets(b gateway.UserBets, seq uint64) {
	m.mu.Lock()
	m.bets = b
	if seq > m.provAfter {
		m.provisional = nil
	}
	m.mu.Unlock()
	m.Recompute()
}

// AddProvisional soma uma aposta submetida até a primeira leitura de
// getUserBets com seq maior que after.
func (m *Model) AddProvisional(wei *big.Int, after uint64) {
	if wei == nil || wei.Sign() <= 0 {
		return
	}
	m.mu.Lock()
	m.provAfter = after
	if m.provisional == nil {
		m.provisional = new(big.Int)
	}
	m.provisional.Add(m.provisional, wei)
	m.mu.Unlock()
	m.Recompute()
}

// Tick recalcula a View; chamado a cada TickInterval enquanto a batalha está ativa.
func (m *Model) Tick() View { return m.Recompute() }

func (m *Model) Recompute() View {
	m.mu.Lock()
	defer m.mu.Unlock()

	now := m.now()
	v := View{ComputedAt: now}
	if m.hasBattle {
		b := m.battle
		rem := Remaining(b.EndTime, now)
		v.BattleID = b.ID
		v.Status = StatusOf(b.IsActive, b.IsSettled)
		v.Remaining = FormatRemaining(rem)
		v.RemainingSecs = int64(rem / time.Second)
		v.Progress = Progress(b.EndTime, now, m.duration)
		v.ETHOdds, v.BTCOdds = Odds(b.ETHPool, b.BTCPool)
		v.TotalPool = gateway.FromWei(new(big.Int).Add(orZero(b.ETHPool), orZero(b.BTCPool)))
		v.Winner = b.Winner
	}

	stake := m.bets.Total()
	if m.provisional != nil {
		stake.Add(stake, m.provisional)
		v.StakeProvisional = true
	}
	v.UserStake = gateway.FromWei(stake)
	v.AttackDamage = AttackDamage(stake)

	m.view = v
	return v
}

func (m *Model) View() View {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.view
}

// Live indica se o tick de 1s deve continuar rodando.
func (m *Model) Live() bool {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.hasBattle && StatusOf(m.battle.IsActive, m.battle.IsSettled) == StatusLive
}
