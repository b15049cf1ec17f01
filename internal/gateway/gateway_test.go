package gateway

import (
	"context"
	"errors"
	"math/big"
	"testing"

	"github.com/ethereum/go-ethereum"
	"github.com/ethereum/go-ethereum/accounts/abi/bind"
	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/core/types"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/radieske/battle-monads/internal/contract"
	"github.com/radieske/battle-monads/internal/poller"
	"github.com/radieske/battle-monads/internal/shared/chain"
)

var alice = common.HexToAddress("0x742d35Cc6634C0532925a3b844Bc9e7595f0bEb0")

type fakeContract struct {
	reads   int
	battle  contract.BattleInfo
	comErr  error
	sendErr error
	value   *big.Int
	side    uint8
	sent    int
}

func (f *fakeContract) GetBattle(*bind.CallOpts, *big.Int) (contract.BattleInfo, error) {
	f.reads++
	return f.battle, nil
}
func (f *fakeContract) Monsters(_ *bind.CallOpts, id *big.Int) (contract.MonsterInfo, error) {
	f.reads++
	return contract.MonsterInfo{Id: id, MonsterType: 1, BirthPrice: big.NewInt(6500000000000), CurrentHP: big.NewInt(80), MaxHP: big.NewInt(100), CreateTime: big.NewInt(1000), Exists: true}, nil
}
func (f *fakeContract) GetBattleComments(*bind.CallOpts, *big.Int) ([]contract.CommentInfo, error) {
	f.reads++
	if f.comErr != nil {
		return nil, f.comErr
	}
	return []contract.CommentInfo{{Id: big.NewInt(1), BattleId: big.NewInt(1), User: alice, Content: "gm", Timestamp: big.NewInt(10)}}, nil
}
func (f *fakeContract) GetUserBets(*bind.CallOpts, *big.Int, common.Address) (contract.UserBetsInfo, error) {
	f.reads++
	return contract.UserBetsInfo{EthBet: big.NewInt(5), BtcBet: big.NewInt(0)}, nil
}
func (f *fakeContract) CanUserComment(*bind.CallOpts, *big.Int, common.Address) (bool, error) {
	f.reads++
	return true, nil
}
func (f *fakeContract) Constants(*bind.CallOpts) (contract.Constants, error) {
	return contract.Constants{BattleDuration: big.NewInt(0), DefaultHP: big.NewInt(100), MinBet: MinBetWei, MaxBet: MaxBetWei}, nil
}
func (f *fakeContract) Bet(opts *bind.TransactOpts, _ *big.Int, side uint8) (*types.Transaction, error) {
	f.value, f.side = opts.Value, side
	return f.tx()
}
func (f *fakeContract) AddComment(*bind.TransactOpts, *big.Int, string) (*types.Transaction, error) {
	return f.tx()
}
func (f *fakeContract) ClaimReward(*bind.TransactOpts, *big.Int) (*types.Transaction, error) {
	return f.tx()
}
func (f *fakeContract) EndBattle(*bind.TransactOpts, *big.Int) (*types.Transaction, error) {
	return f.tx()
}
func (f *fakeContract) CreateBattle(*bind.TransactOpts) (*types.Transaction, error) {
	return f.tx()
}
func (f *fakeContract) tx() (*types.Transaction, error) {
	if f.sendErr != nil {
		return nil, f.sendErr
	}
	f.sent++
	return types.NewTx(&types.LegacyTx{Nonce: uint64(f.sent)}), nil
}

type fakeSigner struct{ err error }

func (s fakeSigner) Address() common.Address { return alice }
func (s fakeSigner) TransactOpts(context.Context) (*bind.TransactOpts, error) {
	if s.err != nil {
		return nil, s.err
	}
	return &bind.TransactOpts{From: alice}, nil
}

type fakeNetwork struct{ err error }

func (n fakeNetwork) Check(context.Context) error { return n.err }

func TestReadsShortCircuitWithoutParameters(t *testing.T) {
	fc := &fakeContract{}
	g := New(fc, nil, Options{})
	ctx := context.Background()

	_, err := g.Battle(ctx, 0)
	assert.ErrorIs(t, err, ErrReadDisabled)
	assert.ErrorIs(t, err, poller.ErrDisabled)
	_, err = g.Monster(ctx, -1)
	assert.ErrorIs(t, err, ErrReadDisabled)
	_, err = g.Comments(ctx, 0)
	assert.ErrorIs(t, err, ErrReadDisabled)
	_, err = g.UserBets(ctx, 1, common.Address{})
	assert.ErrorIs(t, err, ErrReadDisabled)
	_, err = g.CanUserComment(ctx, 1, common.Address{})
	assert.ErrorIs(t, err, ErrReadDisabled)

	assert.Zero(t, fc.reads)
}

func TestBattleWinnerOnlyWhenSettled(t *testing.T) {
	fc := &fakeContract{battle: contract.BattleInfo{Id: big.NewInt(1), EndTime: big.NewInt(2000), IsActive: true, Winner: 0}}
	g := New(fc, nil, Options{})

	b, err := g.Battle(context.Background(), 1)
	require.NoError(t, err)
	assert.Equal(t, WinnerUndetermined, b.Winner)
	assert.Equal(t, int64(0), b.ETHPool.Int64())

	fc.battle.IsActive, fc.battle.IsSettled, fc.battle.Winner = false, true, 1
	b, err = g.Battle(context.Background(), 1)
	require.NoError(t, err)
	assert.Equal(t, Winner(SideBTC), b.Winner)
}

func TestMonsterAndUserBets(t *testing.T) {
	g := New(&fakeContract{}, nil, Options{})
	m, err := g.Monster(context.Background(), 6)
	require.NoError(t, err)
	assert.Equal(t, SideBTC, m.Side)
	assert.Equal(t, int64(80), m.CurrentHP)

	bets, err := g.UserBets(context.Background(), 1, alice)
	require.NoError(t, err)
	assert.Equal(t, int64(5), bets.Total().Int64())
}

func TestCommentsMalformedBecomesEmpty(t *testing.T) {
	fc := &fakeContract{comErr: errors.New("abi: cannot marshal in to go type: length insufficient 3 require 32")}
	g := New(fc, nil, Options{})

	comments, err := g.Comments(context.Background(), 1)
	require.NoError(t, err)
	assert.Empty(t, comments)

	fc.comErr = errors.New("dial tcp: connection refused")
	_, err = g.Comments(context.Background(), 1)
	assert.Error(t, err)
}

func TestConstantsFallbackDuration(t *testing.T) {
	g := New(&fakeContract{}, nil, Options{})
	c, err := g.Constants(context.Background())
	require.NoError(t, err)
	assert.Equal(t, DefaultBattleDuration, c.BattleDuration)
	assert.Equal(t, int64(100), c.DefaultHP)
}

func TestValidateBetRange(t *testing.T) {
	for _, ok := range []string{"0.01", "1.0", "0.5", "1"} {
		_, err := ValidateBet(ok)
		assert.NoError(t, err, ok)
	}
	for _, bad := range []string{"0.009", "1.01", "0"} {
		_, err := ValidateBet(bad)
		assert.ErrorIs(t, err, ErrBetOutOfRange, bad)
	}
	_, err := ValidateBet("x")
	assert.ErrorIs(t, err, ErrInvalidAmount)
}

func TestPlaceBetAttachesExactValue(t *testing.T) {
	fc := &fakeContract{}
	var outcomes []string
	tracker := NewTxTracker(nil)
	g := New(fc, fakeSigner{}, Options{Tracker: tracker, OnSubmit: func(op, outcome string) { outcomes = append(outcomes, op+":"+outcome) }})

	tx, err := g.PlaceBet(context.Background(), 1, SideBTC, "0.05")
	require.NoError(t, err)
	assert.Equal(t, "50000000000000000", fc.value.String())
	assert.Equal(t, uint8(1), fc.side)
	assert.Equal(t, []string{"bet:submitted"}, outcomes)

	rec, ok := tracker.Last(OpBet)
	require.True(t, ok)
	assert.Equal(t, tx.Hash(), rec.Hash)
	assert.Equal(t, TxPending, rec.State)
}

func TestPlaceBetOutOfRangeDoesNotSubmit(t *testing.T) {
	fc := &fakeContract{}
	g := New(fc, fakeSigner{}, Options{})

	_, err := g.PlaceBet(context.Background(), 1, SideETH, "1.01")
	assert.ErrorIs(t, err, ErrBetOutOfRange)
	_, err = g.PlaceBet(context.Background(), 1, SideETH, "0.009")
	assert.ErrorIs(t, err, ErrBetOutOfRange)
	assert.Zero(t, fc.sent)
}

func TestAddCommentRejectsBlank(t *testing.T) {
	fc := &fakeContract{}
	g := New(fc, fakeSigner{}, Options{})
	_, err := g.AddComment(context.Background(), 1, "   ")
	assert.ErrorIs(t, err, ErrEmptyComment)
	assert.Zero(t, fc.sent)
}

func TestWriteErrorClassification(t *testing.T) {
	cases := []struct {
		name    string
		signer  Signer
		network error
		sendErr error
		want    ErrorKind
	}{
		{"no wallet", nil, nil, nil, KindRejected},
		{"signer refused", fakeSigner{err: errors.New("could not decrypt key with given password")}, nil, nil, KindRejected},
		{"wrong network", fakeSigner{}, chain.ErrWrongNetwork, nil, KindWrongNetwork},
		{"revert", fakeSigner{}, nil, errors.New("failed to estimate gas needed: execution reverted: Battle not active"), KindReverted},
		{"transport", fakeSigner{}, nil, errors.New("Post \"https://rpc\": dial tcp: i/o timeout"), KindNetwork},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			fc := &fakeContract{sendErr: tc.sendErr}
			g := New(fc, tc.signer, Options{Network: fakeNetwork{err: tc.network}})

			_, err := g.ClaimReward(context.Background(), 1)
			var we *WriteError
			require.ErrorAs(t, err, &we)
			assert.Equal(t, tc.want, we.Kind)
			assert.Equal(t, OpClaim, we.Op)
		})
	}
}

type fakeReceipts struct {
	rcpt *types.Receipt
	err  error
}

func (f *fakeReceipts) TransactionReceipt(context.Context, common.Hash) (*types.Receipt, error) {
	return f.rcpt, f.err
}

func TestTxTrackerStatus(t *testing.T) {
	r := &fakeReceipts{err: ethereum.NotFound}
	tr := NewTxTracker(r)
	h := common.HexToHash("0x01")
	tr.Record(OpComment, h)

	st, _, err := tr.Status(context.Background(), h)
	require.NoError(t, err)
	assert.Equal(t, TxPending, st)

	r.rcpt, r.err = &types.Receipt{Status: types.ReceiptStatusSuccessful, BlockNumber: big.NewInt(9)}, nil
	st, block, err := tr.Status(context.Background(), h)
	require.NoError(t, err)
	assert.Equal(t, TxConfirmed, st)
	assert.Equal(t, uint64(9), block)

	rec, _ := tr.Last(OpComment)
	assert.Equal(t, TxConfirmed, rec.State)

	r.rcpt = &types.Receipt{Status: types.ReceiptStatusFailed}
	st, _, err = tr.Status(context.Background(), h)
	require.NoError(t, err)
	assert.Equal(t, TxFailed, st)
}

func TestLifecycleWritesRecordedPerOp(t *testing.T) {
	fc := &fakeContract{}
	tracker := NewTxTracker(nil)
	g := New(fc, fakeSigner{}, Options{Tracker: tracker})
	ctx := context.Background()

	created, err := g.CreateBattle(ctx)
	require.NoError(t, err)
	ended, err := g.EndBattle(ctx, 2)
	require.NoError(t, err)
	_, err = g.EndBattle(ctx, 0)
	assert.ErrorIs(t, err, ErrInvalidBattle)

	rec, ok := tracker.Last(OpCreateBattle)
	require.True(t, ok)
	assert.Equal(t, created.Hash(), rec.Hash)
	rec, ok = tracker.Last(OpEndBattle)
	require.True(t, ok)
	assert.Equal(t, ended.Hash(), rec.Hash)
	_, ok = tracker.Last(OpClaim)
	assert.False(t, ok)
	assert.Equal(t, 2, fc.sent)
}

func TestWatchOnlyWalletCannotWrite(t *testing.T) {
	fc := &fakeContract{}
	g := New(fc, chain.WatchOnly(alice), Options{})
	assert.Equal(t, alice, g.Account())

	_, err := g.ClaimReward(context.Background(), 1)
	var we *WriteError
	require.ErrorAs(t, err, &we)
	assert.Equal(t, KindRejected, we.Kind)
	assert.Zero(t, fc.sent)
}
