// Package battleview deriva, a partir das leituras do contrato, os valores
// exibidos da batalha: status, tempo restante, progresso, odds e monstros.
package battleview

import (
	"fmt"
	"math/big"
	"time"

	"github.com/shopspring/decimal"

	"github.com/radieske/battle-monads/internal/gateway"
)

type Status string

const (
	StatusLive         Status = "live"
	StatusEnded        Status = "ended"
	StatusStartingSoon Status = "starting_soon"
)

// EndedLabel substitui o tempo restante quando ele chega a zero.
const EndedLabel = "Ended"

// StatusOf resolve o status a partir de (isActive, isSettled).
// Liquidada tem prioridade: (true, true) é ended.
func StatusOf(isActive, isSettled bool) Status {
	switch {
	case isSettled:
		return StatusEnded
	case isActive:
		return StatusLive
	default:
		return StatusStartingSoon
	}
}

// Remaining é max(0, end - now) truncado em segundos.
func Remaining(end, now time.Time) time.Duration {
	d := end.Sub(now)
	if d <= 0 {
		return 0
	}
	return d.Truncate(time.Second)
}

// FormatRemaining mostra a maior unidade não nula e a seguinte, se não nula:
// "1d 2h", "1h 1m", "5m 3s", "42s". Zero ou negativo vira "Ended".
func FormatRemaining(d time.Duration) string {
	secs := int64(d / time.Second)
	if secs <= 0 {
		return EndedLabel
	}
	units := []struct {
		size int64
		name string
	}{{86400, "d"}, {3600, "h"}, {60, "m"}, {1, "s"}}

	for i, u := range units {
		if secs < u.size {
			continue
		}
		major := secs / u.size
		out := fmt.Sprintf("%d%s", major, u.name)
		if i+1 < len(units) {
			next := units[i+1]
			if minor := (secs % u.size) / next.size; minor > 0 {
				out += fmt.Sprintf(" %d%s", minor, next.name)
			}
		}
		return out
	}
	return EndedLabel
}

// Progress é a fração restante da batalha, limitada a [0, 1].
func Progress(end, now time.Time, duration time.Duration) float64 {
	if duration <= 0 {
		return 0
	}
	p := float64(end.Sub(now)) / float64(duration)
	switch {
	case p < 0:
		return 0
	case p > 1:
		return 1
	}
	return p
}

// Odds devolve a porcentagem de cada lado: o lado ETH recebe pool BTC / total.
// Sem apostas, 50/50.
func Odds(ethPool, btcPool *big.Int) (eth, btc decimal.Decimal) {
	a := decimal.NewFromBigInt(orZero(ethPool), 0)
	b := decimal.NewFromBigInt(orZero(btcPool), 0)
	total := a.Add(b)
	if total.IsZero() {
		fifty := decimal.NewFromInt(50)
		return fifty, fifty
	}
	hundred := decimal.NewFromInt(100)
	return b.Mul(hundred).Div(total), a.Mul(hundred).Div(total)
}

// RelativeAge formata a idade de um comentário: "now", "5m ago", "3h ago", "2d ago".
func RelativeAge(ts, now time.Time) string {
	mins := int64(now.Sub(ts) / time.Minute)
	switch {
	case mins < 1:
		return "now"
	case mins < 60:
		return fmt.Sprintf("%dm ago", mins)
	case mins < 60*24:
		return fmt.Sprintf("%dh ago", mins/60)
	default:
		return fmt.Sprintf("%dd ago", mins/(60*24))
	}
}

// Limites da prévia de dano de um ataque.
const (
	DamagePerWei = 1e16 // 0.01 MON apostado = 1 HP
	MinDamage    = 1
	MaxDamage    = 50
)

// AttackDamage é a prévia do dano de um ataque: 1 HP a cada 0.01 MON apostado
// na batalha, entre 1 e 50. Sem aposta não há dano. O valor definitivo vem do
// evento MonsterAttacked.
func AttackDamage(stake *big.Int) int64 {
	if stake == nil || stake.Sign() <= 0 {
		return 0
	}
	d := new(big.Int).Quo(stake, big.NewInt(DamagePerWei))
	switch {
	case d.Cmp(big.NewInt(MinDamage)) < 0:
		return MinDamage
	case d.Cmp(big.NewInt(MaxDamage)) > 0:
		return MaxDamage
	}
	return d.Int64()
}

type MonsterView struct {
	gateway.Monster
	HPPercent       decimal.Decimal `json:"hp_percent"`
	PriceChangePct  decimal.Decimal `json:"price_change_percent"`
	RecoveryPer5Min int64           `json:"recovery_hp_per_5min"`
}

// Monster calcula os derivados de um monstro com o preço atual do ativo.
func Monster(m gateway.Monster, price decimal.Decimal) MonsterView {
	v := MonsterView{Monster: m, HPPercent: decimal.Zero, PriceChangePct: decimal.Zero}
	if m.MaxHP > 0 {
		v.HPPercent = decimal.NewFromInt(m.CurrentHP).Mul(decimal.NewFromInt(100)).
			Div(decimal.NewFromInt(m.MaxHP)).Round(2)
		if v.HPPercent.GreaterThan(decimal.NewFromInt(100)) {
			v.HPPercent = decimal.NewFromInt(100)
		}
	}
	birth := decimal.NewFromBigInt(orZero(m.BirthPrice), -8)
	if !birth.IsZero() && !price.IsZero() {
		v.PriceChangePct = price.Sub(birth).Div(birth).Mul(decimal.NewFromInt(100)).Round(2)
	}
	v.RecoveryPer5Min = RecoveryHint(v.PriceChangePct)
	return v
}

// RecoveryHint: floor(change*10) em alta, floor(change*5) em baixa, HP por 5 min.
func RecoveryHint(changePct decimal.Decimal) int64 {
	if changePct.IsPositive() {
		return changePct.Mul(decimal.NewFromInt(10)).Floor().IntPart()
	}
	return changePct.Mul(decimal.NewFromInt(5)).Floor().IntPart()
}

func orZero(v *big.Int) *big.Int {
	if v == nil {
		return new(big.Int)
	}
	return v
}
