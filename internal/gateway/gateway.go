package gateway

import (
	"context"
	"errors"
	"fmt"
	"math/big"
	"strings"
	"time"

	"github.com/ethereum/go-ethereum/accounts/abi/bind"
	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/core/types"
	"go.uber.org/zap"

	"github.com/radieske/battle-monads/internal/contract"
	"github.com/radieske/battle-monads/internal/poller"
	"github.com/radieske/battle-monads/internal/shared/chain"
)

var (
	// ErrReadDisabled: parâmetro ausente, a leitura não é feita.
	ErrReadDisabled  = fmt.Errorf("gateway: read disabled: %w", poller.ErrDisabled)
	ErrBetOutOfRange = errors.New("gateway: bet must be between 0.01 and 1 MON")
	ErrEmptyComment  = errors.New("gateway: comment is empty")
	ErrNoWallet      = errors.New("gateway: wallet not connected")
	ErrInvalidBattle = errors.New("gateway: invalid battle id")
)

// Limites de aposta em wei (0.01 e 1.0 MON).
var (
	MinBetWei = big.NewInt(1e16)
	MaxBetWei = big.NewInt(1e18)
)

// DefaultBattleDuration é usada quando BATTLE_DURATION não pôde ser lido.
const DefaultBattleDuration = 4 * time.Hour

// Contract é o subconjunto do binding BattleMonads usado pelo gateway.
type Contract interface {
	GetBattle(opts *bind.CallOpts, battleId *big.Int) (contract.BattleInfo, error)
	Monsters(opts *bind.CallOpts, monsterId *big.Int) (contract.MonsterInfo, error)
	GetBattleComments(opts *bind.CallOpts, battleId *big.Int) ([]contract.CommentInfo, error)
	GetUserBets(opts *bind.CallOpts, battleId *big.Int, user common.Address) (contract.UserBetsInfo, error)
	CanUserComment(opts *bind.CallOpts, battleId *big.Int, user common.Address) (bool, error)
	Constants(opts *bind.CallOpts) (contract.Constants, error)

	Bet(opts *bind.TransactOpts, battleId *big.Int, side uint8) (*types.Transaction, error)
	AddComment(opts *bind.TransactOpts, battleId *big.Int, content string) (*types.Transaction, error)
	ClaimReward(opts *bind.TransactOpts, battleId *big.Int) (*types.Transaction, error)
	EndBattle(opts *bind.TransactOpts, battleId *big.Int) (*types.Transaction, error)
	CreateBattle(opts *bind.TransactOpts) (*types.Transaction, error)
}

// Signer é a carteira conectada.
type Signer interface {
	Address() common.Address
	TransactOpts(ctx context.Context) (*bind.TransactOpts, error)
}

// NetworkChecker bloqueia escritas fora da chain configurada.
type NetworkChecker interface {
	Check(ctx context.Context) error
}

type Options struct {
	Logger   *zap.Logger
	Network  NetworkChecker
	Tracker  *TxTracker
	OnSubmit func(op, outcome string)
}

// Gateway concentra as leituras e escritas no contrato BattleMonads.
type Gateway struct {
	c       Contract
	signer  Signer
	network NetworkChecker
	tracker *TxTracker
	log     *zap.Logger
	onSub   func(op, outcome string)
}

func New(c Contract, signer Signer, opts Options) *Gateway {
	log := opts.Logger
	if log == nil {
		log = zap.NewNop()
	}
	return &Gateway{
		c:       c,
		signer:  signer,
		network: opts.Network,
		tracker: opts.Tracker,
		log:     log,
		onSub:   opts.OnSubmit,
	}
}

// Account devolve o endereço conectado, ou o endereço zero sem carteira.
func (g *Gateway) Account() common.Address {
	if g.signer == nil {
		return common.Address{}
	}
	return g.signer.Address()
}

func (g *Gateway) Tracker() *TxTracker { return g.tracker }

// ──────────────────────────────────────────────
//  Leituras
// ──────────────────────────────────────────────

func (g *Gateway) Battle(ctx context.Context, battleID int64) (Battle, error) {
	if battleID <= 0 {
		return Battle{}, ErrReadDisabled
	}
	info, err := g.c.GetBattle(callOpts(ctx), big.NewInt(battleID))
	if err != nil {
		return Battle{}, fmt.Errorf("getBattle(%d): %w", battleID, err)
	}
	b := Battle{
		ID:           bigInt64(info.Id),
		ETHMonsterID: bigInt64(info.EthMonsterId),
		BTCMonsterID: bigInt64(info.BtcMonsterId),
		StartTime:    unixTime(info.StartTime),
		EndTime:      unixTime(info.EndTime),
		IsActive:     info.IsActive,
		IsSettled:    info.IsSettled,
		Winner:       WinnerUndetermined,
		ETHPool:      orZero(info.EthPool),
		BTCPool:      orZero(info.BtcPool),
	}
	if b.IsSettled {
		b.Winner = Winner(info.Winner)
	}
	return b, nil
}

func (g *Gateway) Monster(ctx context.Context, monsterID int64) (Monster, error) {
	if monsterID <= 0 {
		return Monster{}, ErrReadDisabled
	}
	info, err := g.c.Monsters(callOpts(ctx), big.NewInt(monsterID))
	if err != nil {
		return Monster{}, fmt.Errorf("monsters(%d): %w", monsterID, err)
	}
	return Monster{
		ID:         bigInt64(info.Id),
		Side:       Side(info.MonsterType),
		BirthPrice: orZero(info.BirthPrice),
		CurrentHP:  bigInt64(info.CurrentHP),
		MaxHP:      bigInt64(info.MaxHP),
		CreateTime: unixTime(info.CreateTime),
		Exists:     info.Exists,
	}, nil
}

// Comments devolve o log de comentários na ordem do contrato. Um retorno mal
// formado vira lista vazia; só falhas de transporte viram erro.
func (g *Gateway) Comments(ctx context.Context, battleID int64) ([]Comment, error) {
	if battleID <= 0 {
		return nil, ErrReadDisabled
	}
	rows, err := g.c.GetBattleComments(callOpts(ctx), big.NewInt(battleID))
	if err != nil {
		if isDecodeError(err) {
			g.log.Warn("malformed comment rows", zap.Int64("battle_id", battleID), zap.Error(err))
			return []Comment{}, nil
		}
		return nil, fmt.Errorf("getBattleComments(%d): %w", battleID, err)
	}
	out := make([]Comment, 0, len(rows))
	for _, r := range rows {
		out = append(out, Comment{
			ID:           bigInt64(r.Id),
			BattleID:     bigInt64(r.BattleId),
			User:         r.User,
			Content:      r.Content,
			Timestamp:    unixTime(r.Timestamp),
			IsAttack:     r.IsAttack,
			AttackTarget: Side(r.AttackTarget),
		})
	}
	return out, nil
}

func (g *Gateway) UserBets(ctx context.Context, battleID int64, user common.Address) (UserBets, error) {
	if battleID <= 0 || user == (common.Address{}) {
		return UserBets{}, ErrReadDisabled
	}
	info, err := g.c.GetUserBets(callOpts(ctx), big.NewInt(battleID), user)
	if err != nil {
		return UserBets{}, fmt.Errorf("getUserBets(%d): %w", battleID, err)
	}
	return UserBets{ETH: orZero(info.EthBet), BTC: orZero(info.BtcBet)}, nil
}

func (g *Gateway) CanUserComment(ctx context.Context, battleID int64, user common.Address) (bool, error) {
	if battleID <= 0 || user == (common.Address{}) {
		return false, ErrReadDisabled
	}
	ok, err := g.c.CanUserComment(callOpts(ctx), big.NewInt(battleID), user)
	if err != nil {
		return false, fmt.Errorf("canUserComment(%d): %w", battleID, err)
	}
	return ok, nil
}

// Constants lê as constantes do contrato; sem resposta usa a duração padrão.
func (g *Gateway) Constants(ctx context.Context) (Constants, error) {
	c, err := g.c.Constants(callOpts(ctx))
	if err != nil {
		return Constants{BattleDuration: DefaultBattleDuration, MinBet: MinBetWei, MaxBet: MaxBetWei},
			fmt.Errorf("constants: %w", err)
	}
	out := Constants{
		BattleDuration: time.Duration(bigInt64(c.BattleDuration)) * time.Second,
		DefaultHP:      bigInt64(c.DefaultHP),
		MinBet:         orZero(c.MinBet),
		MaxBet:         orZero(c.MaxBet),
	}
	if out.BattleDuration <= 0 {
		out.BattleDuration = DefaultBattleDuration
	}
	return out, nil
}

// ──────────────────────────────────────────────
//  Escritas
// ──────────────────────────────────────────────

// ValidateBet converte e valida o valor apostado sem submeter nada.
func ValidateBet(amount string) (*big.Int, error) {
	wei, err := ToWei(amount)
	if err != nil {
		return nil, err
	}
	if wei.Cmp(MinBetWei) < 0 || wei.Cmp(MaxBetWei) > 0 {
		return nil, ErrBetOutOfRange
	}
	return wei, nil
}

// PlaceBet aposta amount MON no lado escolhido. O valor vai como msg.value.
func (g *Gateway) PlaceBet(ctx context.Context, battleID int64, side Side, amount string) (*types.Transaction, error) {
	if battleID <= 0 {
		return nil, ErrInvalidBattle
	}
	if side != SideETH && side != SideBTC {
		return nil, fmt.Errorf("gateway: unknown side %d", side)
	}
	wei, err := ValidateBet(amount)
	if err != nil {
		return nil, err
	}
	return g.submit(ctx, OpBet, wei, func(opts *bind.TransactOpts) (*types.Transaction, error) {
		return g.c.Bet(opts, big.NewInt(battleID), uint8(side))
	})
}

func (g *Gateway) AddComment(ctx context.Context, battleID int64, content string) (*types.Transaction, error) {
	if battleID <= 0 {
		return nil, ErrInvalidBattle
	}
	if strings.TrimSpace(content) == "" {
		return nil, ErrEmptyComment
	}
	return g.submit(ctx, OpComment, nil, func(opts *bind.TransactOpts) (*types.Transaction, error) {
		return g.c.AddComment(opts, big.NewInt(battleID), content)
	})
}

func (g *Gateway) ClaimReward(ctx context.Context, battleID int64) (*types.Transaction, error) {
	if battleID <= 0 {
		return nil, ErrInvalidBattle
	}
	return g.submit(ctx, OpClaim, nil, func(opts *bind.TransactOpts) (*types.Transaction, error) {
		return g.c.ClaimReward(opts, big.NewInt(battleID))
	})
}

func (g *Gateway) EndBattle(ctx context.Context, battleID int64) (*types.Transaction, error) {
	if battleID <= 0 {
		return nil, ErrInvalidBattle
	}
	return g.submit(ctx, OpEndBattle, nil, func(opts *bind.TransactOpts) (*types.Transaction, error) {
		return g.c.EndBattle(opts, big.NewInt(battleID))
	})
}

func (g *Gateway) CreateBattle(ctx context.Context) (*types.Transaction, error) {
	return g.submit(ctx, OpCreateBattle, nil, func(opts *bind.TransactOpts) (*types.Transaction, error) {
		return g.c.CreateBattle(opts)
	})
}

// submit aplica as checagens comuns, assina e envia uma única vez (sem retry).
func (g *Gateway) submit(ctx context.Context, op string, value *big.Int, send func(*bind.TransactOpts) (*types.Transaction, error)) (*types.Transaction, error) {
	if g.signer == nil {
		g.outcome(op, KindRejected)
		return nil, &WriteError{Op: op, Kind: KindRejected, Err: ErrNoWallet}
	}
	if g.network != nil {
		if err := g.network.Check(ctx); err != nil {
			werr := classify(op, err)
			g.outcome(op, werr.Kind)
			return nil, werr
		}
	}

	opts, err := g.signer.TransactOpts(ctx)
	if err != nil {
		g.outcome(op, KindRejected)
		return nil, &WriteError{Op: op, Kind: KindRejected, Err: err}
	}
	opts.Context = ctx
	if value != nil {
		opts.Value = value
	}

	tx, err := send(opts)
	if err != nil {
		werr := classify(op, err)
		g.outcome(op, werr.Kind)
		g.log.Warn("transaction not submitted", zap.String("op", op), zap.String("kind", string(werr.Kind)), zap.Error(err))
		return nil, werr
	}

	g.outcome(op, "submitted")
	if g.tracker != nil {
		g.tracker.Record(op, tx.Hash())
	}
	g.log.Info("transaction submitted", zap.String("op", op), zap.String("tx", tx.Hash().Hex()))
	return tx, nil
}

func (g *Gateway) outcome(op string, kind ErrorKind) {
	if g.onSub != nil {
		g.onSub(op, string(kind))
	}
}

// ──────────────────────────────────────────────
//  Erros de escrita
// ──────────────────────────────────────────────

// Operações de escrita (chave do TxTracker e label de métrica).
const (
	OpBet          = "bet"
	OpComment      = "comment"
	OpClaim        = "claim"
	OpEndBattle    = "end_battle"
	OpCreateBattle = "create_battle"
)

type ErrorKind string

const (
	KindRejected     ErrorKind = "rejected"
	KindReverted     ErrorKind = "reverted"
	KindNetwork      ErrorKind = "network"
	KindWrongNetwork ErrorKind = "wrong_network"
)

// WriteError descreve uma escrita que não chegou a ser submetida.
type WriteError struct {
	Op   string
	Kind ErrorKind
	Err  error
}

func (e *WriteError) Error() string {
	return fmt.Sprintf("%s %s: %v", e.Op, e.Kind, e.Err)
}

func (e *WriteError) Unwrap() error { return e.Err }

func classify(op string, err error) *WriteError {
	var we *WriteError
	if errors.As(err, &we) {
		return we
	}
	kind := KindNetwork
	msg := strings.ToLower(err.Error())
	switch {
	case errors.Is(err, chain.ErrWrongNetwork):
		kind = KindWrongNetwork
	case strings.Contains(msg, "user rejected"), strings.Contains(msg, "user denied"),
		strings.Contains(msg, "could not decrypt"), strings.Contains(msg, "authentication needed"):
		kind = KindRejected
	case strings.Contains(msg, "revert"), strings.Contains(msg, "failed to estimate gas"),
		strings.Contains(msg, "insufficient funds"):
		kind = KindReverted
	}
	return &WriteError{Op: op, Kind: kind, Err: err}
}

// ──────────────────────────────────────────────
//  helpers
// ──────────────────────────────────────────────

func callOpts(ctx context.Context) *bind.CallOpts {
	return &bind.CallOpts{Context: ctx}
}

func isDecodeError(err error) bool {
	return strings.HasPrefix(err.Error(), "abi:")
}

func bigInt64(v *big.Int) int64 {
	if v == nil || !v.IsInt64() {
		return 0
	}
	return v.Int64()
}

func unixTime(v *big.Int) time.Time {
	s := bigInt64(v)
	if s <= 0 {
		return time.Time{}
	}
	return time.Unix(s, 0).UTC()
}

func orZero(v *big.Int) *big.Int {
	if v == nil {
		return new(big.Int)
	}
	return v
}
