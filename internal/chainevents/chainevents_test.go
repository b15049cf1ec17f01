package chainevents

import (
	"context"
	"errors"
	"math/big"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/ethereum/go-ethereum"
	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/core/types"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/radieske/battle-monads/internal/contract"
	"github.com/radieske/battle-monads/pkg/contracts/events"
)

var (
	battleAddr = common.HexToAddress("0x79d6c0F8f1c92F98C4Ef3B76F0229406c8C3A63d")
	user       = common.HexToAddress("0x742d35Cc6634C0532925a3b844Bc9e7595f0bEb0")
)

func newDecoder(t *testing.T) (*Decoder, *contract.BattleMonads) {
	t.Helper()
	bm, err := contract.NewBattleMonads(battleAddr, nil)
	require.NoError(t, err)
	return NewDecoder(bm), bm
}

func betPlacedLog(t *testing.T, bm *contract.BattleMonads, block uint64, battleID int64) types.Log {
	t.Helper()
	ev := bm.ABI().Events["BetPlaced"]
	data, err := ev.Inputs.NonIndexed().Pack(uint8(1), big.NewInt(5e16))
	require.NoError(t, err)
	return types.Log{
		Address:     battleAddr,
		Topics:      []common.Hash{ev.ID, common.BigToHash(big.NewInt(battleID)), common.BytesToHash(user.Bytes())},
		Data:        data,
		BlockNumber: block,
		TxHash:      common.HexToHash("0xaa"),
		Index:       2,
	}
}

func TestDecodeBetPlaced(t *testing.T) {
	d, bm := newDecoder(t)
	env, err := d.Decode(betPlacedLog(t, bm, 77, 3))
	require.NoError(t, err)

	assert.Equal(t, events.TypeBetPlaced, env.Type)
	assert.Equal(t, int64(3), env.BattleID)
	assert.Equal(t, uint64(77), env.BlockNumber)
	assert.Equal(t, uint(2), env.LogIndex)
	assert.NotEmpty(t, env.ID)

	var p events.BetPlaced
	require.NoError(t, env.Decode(&p))
	assert.Equal(t, "50000000000000000", p.AmountWei)
	assert.Equal(t, uint8(1), p.Side)
	assert.Equal(t, "0x742d35cc6634c0532925a3b844bc9e7595f0beb0", p.User)
}

func TestDecodeMonsterAttacked(t *testing.T) {
	d, bm := newDecoder(t)
	ev := bm.ABI().Events["MonsterAttacked"]
	data, err := ev.Inputs.NonIndexed().Pack(uint8(0), big.NewInt(12), big.NewInt(88))
	require.NoError(t, err)

	env, err := d.Decode(types.Log{Topics: []common.Hash{ev.ID, common.BigToHash(big.NewInt(9))}, Data: data})
	require.NoError(t, err)

	var p events.MonsterAttacked
	require.NoError(t, env.Decode(&p))
	assert.Equal(t, int64(9), p.BattleID)
	assert.Equal(t, "12", p.Damage)
	assert.Equal(t, "88", p.NewHP)
}

func TestDecodeUnknownTopic(t *testing.T) {
	d, _ := newDecoder(t)
	_, err := d.Decode(types.Log{Topics: []common.Hash{common.HexToHash("0x1234")}})
	assert.ErrorIs(t, err, ErrUnknownEvent)
	_, err = d.Decode(types.Log{})
	assert.ErrorIs(t, err, ErrUnknownEvent)
}

type fakeSource struct {
	head    uint64
	logs    []types.Log
	queries []ethereum.FilterQuery
}

func (f *fakeSource) BlockNumber(context.Context) (uint64, error) { return f.head, nil }

func (f *fakeSource) FilterLogs(_ context.Context, q ethereum.FilterQuery) ([]types.Log, error) {
	f.queries = append(f.queries, q)
	var out []types.Log
	for _, l := range f.logs {
		if l.BlockNumber >= q.FromBlock.Uint64() && l.BlockNumber <= q.ToBlock.Uint64() {
			out = append(out, l)
		}
	}
	return out, nil
}

type memPublisher struct {
	got []events.Envelope
	err error
}

func (m *memPublisher) Publish(_ context.Context, e events.Envelope) error {
	if m.err != nil {
		return m.err
	}
	m.got = append(m.got, e)
	return nil
}

func TestWatcherPublishesAndAdvancesCursor(t *testing.T) {
	d, bm := newDecoder(t)
	mr := miniredis.RunT(t)
	cursor := NewRedisCursor(redis.NewClient(&redis.Options{Addr: mr.Addr()}))
	ctx := context.Background()
	require.NoError(t, cursor.Save(ctx, 99))

	removed := betPlacedLog(t, bm, 150, 4)
	removed.Removed = true
	src := &fakeSource{head: 250, logs: []types.Log{betPlacedLog(t, bm, 120, 3), removed, betPlacedLog(t, bm, 240, 3)}}
	pub := &memPublisher{}

	w := &Watcher{Log: zap.NewNop(), Source: src, Decoder: d, Contract: battleAddr, Publisher: pub, Cursor: cursor, Interval: time.Hour}
	require.NoError(t, w.init(ctx))
	w.Step(ctx)

	require.Len(t, pub.got, 2)
	assert.Equal(t, uint64(120), pub.got[0].BlockNumber)
	assert.Equal(t, uint64(240), pub.got[1].BlockNumber)
	require.Len(t, src.queries, 2) // 100-199, 200-250
	assert.Equal(t, uint64(199), src.queries[0].ToBlock.Uint64())

	last, ok, err := cursor.Load(ctx)
	require.NoError(t, err)
	assert.True(t, ok)
	assert.Equal(t, uint64(250), last)
}

func TestWatcherRetriesRangeOnPublishFailure(t *testing.T) {
	d, bm := newDecoder(t)
	src := &fakeSource{head: 10, logs: []types.Log{betPlacedLog(t, bm, 5, 1)}}
	pub := &memPublisher{err: errors.New("kafka down")}
	var stages []string

	w := &Watcher{Log: zap.NewNop(), Source: src, Decoder: d, Contract: battleAddr, Publisher: pub, Interval: time.Hour,
		OnError: func(s string) { stages = append(stages, s) }}
	w.next = 1
	w.Step(context.Background())
	assert.Equal(t, []string{"publish"}, stages)
	assert.Equal(t, uint64(1), w.next)

	pub.err = nil
	w.Step(context.Background())
	require.Len(t, pub.got, 1)
	assert.Equal(t, uint64(11), w.next)
}
