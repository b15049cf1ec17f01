package battleview

import (
	"math/big"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"

	"github.com/radieske/battle-monads/internal/gateway"
)

func TestStatusOf(t *testing.T) {
	assert.Equal(t, StatusLive, StatusOf(true, false))
	assert.Equal(t, StatusEnded, StatusOf(false, true))
	assert.Equal(t, StatusStartingSoon, StatusOf(false, false))
	assert.Equal(t, StatusEnded, StatusOf(true, true))
}

func TestFormatRemaining(t *testing.T) {
	cases := map[time.Duration]string{
		3661 * time.Second:            "1h 1m",
		3600 * time.Second:            "1h",
		26 * time.Hour:                "1d 2h",
		24 * time.Hour:                "1d",
		5*time.Minute + 3*time.Second: "5m 3s",
		42 * time.Second:              "42s",
		0:                             "Ended",
		-time.Minute:                  "Ended",
	}
	for d, want := range cases {
		assert.Equal(t, want, FormatRemaining(d), d.String())
	}
}

func TestRemainingNeverNegative(t *testing.T) {
	now := time.Unix(10_000, 0)
	assert.Equal(t, time.Duration(0), Remaining(now.Add(-time.Hour), now))
	assert.Equal(t, EndedLabel, FormatRemaining(Remaining(now, now)))
}

func TestProgressClamped(t *testing.T) {
	now := time.Unix(10_000, 0)
	assert.Equal(t, 0.0, Progress(now.Add(-time.Minute), now, 4*time.Hour))
	assert.Equal(t, 1.0, Progress(now.Add(5*time.Hour), now, 4*time.Hour))
	assert.InDelta(t, 0.5, Progress(now.Add(2*time.Hour), now, 4*time.Hour), 1e-9)
}

func TestOdds(t *testing.T) {
	eth, btc := Odds(big.NewInt(0), big.NewInt(0))
	assert.True(t, eth.Equal(decimal.NewFromInt(50)))
	assert.True(t, btc.Equal(decimal.NewFromInt(50)))

	eth, btc = Odds(big.NewInt(300), big.NewInt(700))
	assert.True(t, eth.Equal(decimal.NewFromInt(70)), eth.String())
	assert.True(t, btc.Equal(decimal.NewFromInt(30)), btc.String())

	eth, btc = Odds(nil, big.NewInt(1))
	assert.True(t, eth.Equal(decimal.NewFromInt(100)))
	assert.True(t, btc.IsZero())
}

func TestRelativeAge(t *testing.T) {
	now := time.Unix(1_000_000, 0)
	assert.Equal(t, "now", RelativeAge(now.Add(-30*time.Second), now))
	assert.Equal(t, "5m ago", RelativeAge(now.Add(-5*time.Minute), now))
	assert.Equal(t, "3h ago", RelativeAge(now.Add(-3*time.Hour-10*time.Minute), now))
	assert.Equal(t, "2d ago", RelativeAge(now.Add(-50*time.Hour), now))
}

func TestAttackDamage(t *testing.T) {
	assert.Equal(t, int64(0), AttackDamage(nil))
	assert.Equal(t, int64(0), AttackDamage(big.NewInt(0)))
	assert.Equal(t, int64(1), AttackDamage(big.NewInt(1)))
	assert.Equal(t, int64(5), AttackDamage(big.NewInt(5e16)))
	assert.Equal(t, int64(50), AttackDamage(new(big.Int).Mul(big.NewInt(1e18), big.NewInt(3))))
}

func TestMonsterView(t *testing.T) {
	m := gateway.Monster{ID: 1, CurrentHP: 80, MaxHP: 100, BirthPrice: big.NewInt(200000000000)} // 2000
	v := Monster(m, decimal.NewFromInt(2100))
	assert.Equal(t, "80", v.HPPercent.String())
	assert.Equal(t, "5", v.PriceChangePct.String())
	assert.Equal(t, int64(50), v.RecoveryPer5Min)

	v = Monster(m, decimal.NewFromInt(1970)) // -1.5%
	assert.Equal(t, int64(-8), v.RecoveryPer5Min)

	v = Monster(gateway.Monster{CurrentHP: 120, MaxHP: 100}, decimal.Zero)
	assert.Equal(t, "100", v.HPPercent.String())
}

func TestModelProvisionalStake(t *testing.T) {
	now := time.Unix(1_000_000, 0)
	m := NewModel()
	m.now = func() time.Time { return now }

	m.SetBattle(gateway.Battle{ID: 1, IsActive: true, EndTime: now.Add(3661 * time.Second), ETHPool: big.NewInt(300), BTCPool: big.NewInt(700)})
	v := m.View()
	assert.Equal(t, StatusLive, v.Status)
	assert.Equal(t, "1h 1m", v.Remaining)
	assert.True(t, m.Live())

	m.AddProvisional(big.NewInt(5e16), 4)
	v = m.View()
	assert.True(t, v.StakeProvisional)
	assert.Equal(t, "0.05", v.UserStake)
	assert.Equal(t, int64(5), v.AttackDamage)

	// leitura disparada antes da submissão não reconcilia
	m.SetUserBets(gateway.UserBets{ETH: big.NewInt(0), BTC: big.NewInt(0)}, 4)
	v = m.View()
	assert.True(t, v.StakeProvisional)
	assert.Equal(t, "0.05", v.UserStake)

	m.SetUserBets(gateway.UserBets{ETH: big.NewInt(5e16), BTC: big.NewInt(0)}, 5)
	v = m.View()
	assert.False(t, v.StakeProvisional)
	assert.Equal(t, "0.05", v.UserStake)

	now = now.Add(2 * time.Hour)
	v = m.Tick()
	assert.Equal(t, EndedLabel, v.Remaining)
	assert.Equal(t, 0.0, v.Progress)
}
