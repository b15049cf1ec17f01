package gateway

import (
	"math/big"
	"time"

	"github.com/ethereum/go-ethereum/common"
)

// Side é o enum MonsterType do contrato.
type Side uint8

const (
	SideETH Side = 0
	SideBTC Side = 1
)

func (s Side) String() string {
	switch s {
	case SideETH:
		return "ETH"
	case SideBTC:
		return "BTC"
	default:
		return "UNKNOWN"
	}
}

// ParseSide aceita "eth"/"btc" (qualquer caixa) ou "0"/"1".
func ParseSide(s string) (Side, bool) {
	switch s {
	case "eth", "ETH", "Eth", "0":
		return SideETH, true
	case "btc", "BTC", "Btc", "1":
		return SideBTC, true
	}
	return 0, false
}

// Winner é o lado vencedor; só é definido quando a batalha está liquidada.
type Winner int

const WinnerUndetermined Winner = -1

type Battle struct {
	ID           int64     `json:"id"`
	ETHMonsterID int64     `json:"eth_monster_id"`
	BTCMonsterID int64     `json:"btc_monster_id"`
	StartTime    time.Time `json:"start_time"`
	EndTime      time.Time `json:"end_time"`
	IsActive     bool      `json:"is_active"`
	IsSettled    bool      `json:"is_settled"`
	Winner       Winner    `json:"winner"`
	ETHPool      *big.Int  `json:"eth_pool"`
	BTCPool      *big.Int  `json:"btc_pool"`
}

// Exists é falso para ids sem batalha (o contrato devolve tudo zerado).
func (b Battle) Exists() bool { return b.ID > 0 }

type Monster struct {
	ID         int64     `json:"id"`
	Side       Side      `json:"side"`
	BirthPrice *big.Int  `json:"birth_price"` // 8 casas implícitas
	CurrentHP  int64     `json:"current_hp"`
	MaxHP      int64     `json:"max_hp"`
	CreateTime time.Time `json:"create_time"`
	Exists     bool      `json:"exists"`
}

type Comment struct {
	ID           int64          `json:"id"`
	BattleID     int64          `json:"battle_id"`
	User         common.Address `json:"user"`
	Content      string         `json:"content"`
	Timestamp    time.Time      `json:"timestamp"`
	IsAttack     bool           `json:"is_attack"`
	AttackTarget Side           `json:"attack_target"`
}

type UserBets struct {
	ETH *big.Int `json:"eth"`
	BTC *big.Int `json:"btc"`
}

// Total soma as apostas dos dois lados.
func (u UserBets) Total() *big.Int {
	t := new(big.Int)
	if u.ETH != nil {
		t.Add(t, u.ETH)
	}
	if u.BTC != nil {
		t.Add(t, u.BTC)
	}
	return t
}

type Constants struct {
	BattleDuration time.Duration `json:"battle_duration"`
	DefaultHP      int64         `json:"default_hp"`
	MinBet         *big.Int      `json:"min_bet"`
	MaxBet         *big.Int      `json:"max_bet"`
}
