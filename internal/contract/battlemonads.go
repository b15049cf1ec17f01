package contract

import (
	"fmt"
	"math/big"
	"strings"

	"github.com/ethereum/go-ethereum/accounts/abi"
	"github.com/ethereum/go-ethereum/accounts/abi/bind"
	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/core/types"
)

// BattleInfo espelha o retorno de getBattle.
type BattleInfo struct {
	Id           *big.Int
	EthMonsterId *big.Int
	BtcMonsterId *big.Int
	StartTime    *big.Int
	EndTime      *big.Int
	IsActive     bool
	IsSettled    bool
	Winner       uint8
	EthPool      *big.Int
	BtcPool      *big.Int
}

// MonsterInfo espelha o getter público monsters(uint256).
type MonsterInfo struct {
	Id          *big.Int
	MonsterType uint8
	BirthPrice  *big.Int
	CurrentHP   *big.Int
	MaxHP       *big.Int
	CreateTime  *big.Int
	Exists      bool
}

// CommentInfo espelha BattleMonads.Comment.
type CommentInfo struct {
	Id           *big.Int
	BattleId     *big.Int
	User         common.Address
	Content      string
	Timestamp    *big.Int
	IsAttack     bool
	AttackTarget uint8
}

// UserBetsInfo espelha o retorno de getUserBets.
type UserBetsInfo struct {
	EthBet *big.Int
	BtcBet *big.Int
}

// Constants agrupa as constantes públicas do contrato.
type Constants struct {
	BattleDuration *big.Int
	DefaultHP      *big.Int
	MinBet         *big.Int
	MaxBet         *big.Int
}

// BattleMonads é o wrapper de alto nível do contrato on-chain.
type BattleMonads struct {
	abi      abi.ABI
	address  common.Address
	contract *bind.BoundContract
}

// NewBattleMonads conecta a um BattleMonads já implantado.
func NewBattleMonads(addr common.Address, backend bind.ContractBackend) (*BattleMonads, error) {
	parsed, err := abi.JSON(strings.NewReader(BattleMonadsABI))
	if err != nil {
		return nil, err
	}
	return &BattleMonads{
		abi:      parsed,
		address:  addr,
		contract: bind.NewBoundContract(addr, parsed, backend, backend, backend),
	}, nil
}

// Address retorna o endereço do contrato.
func (c *BattleMonads) Address() common.Address { return c.address }

// ABI retorna o ABI já parseado (usado pelo decoder de eventos).
func (c *BattleMonads) ABI() abi.ABI { return c.abi }

// ──────────────────────────────────────────────
//  Read methods
// ──────────────────────────────────────────────

func (c *BattleMonads) GetBattle(opts *bind.CallOpts, battleId *big.Int) (BattleInfo, error) {
	var info BattleInfo
	out := []interface{}{&info}
	if err := c.contract.Call(opts, &out, "getBattle", battleId); err != nil {
		return BattleInfo{}, err
	}
	return info, nil
}

func (c *BattleMonads) Monsters(opts *bind.CallOpts, monsterId *big.Int) (MonsterInfo, error) {
	var info MonsterInfo
	out := []interface{}{&info}
	if err := c.contract.Call(opts, &out, "monsters", monsterId); err != nil {
		return MonsterInfo{}, err
	}
	return info, nil
}

// GetBattleComments devolve o log de comentários; um retorno fora do formato
// esperado vira erro em vez de panic.
func (c *BattleMonads) GetBattleComments(opts *bind.CallOpts, battleId *big.Int) ([]CommentInfo, error) {
	var comments []CommentInfo
	out := []interface{}{&comments}
	if err := c.contract.Call(opts, &out, "getBattleComments", battleId); err != nil {
		return nil, err
	}
	return comments, nil
}

func (c *BattleMonads) GetUserBets(opts *bind.CallOpts, battleId *big.Int, user common.Address) (UserBetsInfo, error) {
	var info UserBetsInfo
	out := []interface{}{&info}
	if err := c.contract.Call(opts, &out, "getUserBets", battleId, user); err != nil {
		return UserBetsInfo{}, err
	}
	return info, nil
}

func (c *BattleMonads) CanUserComment(opts *bind.CallOpts, battleId *big.Int, user common.Address) (bool, error) {
	var out []interface{}
	if err := c.contract.Call(opts, &out, "canUserComment", battleId, user); err != nil {
		return false, err
	}
	if len(out) != 1 {
		return false, fmt.Errorf("canUserComment: unexpected output length %d", len(out))
	}
	ok, isBool := out[0].(bool)
	if !isBool {
		return false, fmt.Errorf("canUserComment: unexpected output type %T", out[0])
	}
	return ok, nil
}

// Constants lê BATTLE_DURATION, DEFAULT_HP, MIN_BET e MAX_BET.
func (c *BattleMonads) Constants(opts *bind.CallOpts) (Constants, error) {
	var consts Constants
	for _, f := range []struct {
		method string
		dst    **big.Int
	}{
		{"BATTLE_DURATION", &consts.BattleDuration},
		{"DEFAULT_HP", &consts.DefaultHP},
		{"MIN_BET", &consts.MinBet},
		{"MAX_BET", &consts.MaxBet},
	} {
		v, err := c.uint256(opts, f.method)
		if err != nil {
			return Constants{}, err
		}
		*f.dst = v
	}
	return consts, nil
}

func (c *BattleMonads) uint256(opts *bind.CallOpts, method string) (*big.Int, error) {
	var out []interface{}
	if err := c.contract.Call(opts, &out, method); err != nil {
		return nil, err
	}
	if len(out) != 1 {
		return nil, fmt.Errorf("%s: unexpected output length %d", method, len(out))
	}
	v, ok := out[0].(*big.Int)
	if !ok {
		return nil, fmt.Errorf("%s: unexpected output type %T", method, out[0])
	}
	return v, nil
}

// ──────────────────────────────────────────────
//  Write methods
// ──────────────────────────────────────────────

// Bet aposta em um lado; o valor apostado vai em opts.Value.
func (c *BattleMonads) Bet(opts *bind.TransactOpts, battleId *big.Int, side uint8) (*types.Transaction, error) {
	return c.contract.Transact(opts, "bet", battleId, side)
}

func (c *BattleMonads) AddComment(opts *bind.TransactOpts, battleId *big.Int, content string) (*types.Transaction, error) {
	return c.contract.Transact(opts, "addComment", battleId, content)
}

func (c *BattleMonads) ClaimReward(opts *bind.TransactOpts, battleId *big.Int) (*types.Transaction, error) {
	return c.contract.Transact(opts, "claimReward", battleId)
}

func (c *BattleMonads) EndBattle(opts *bind.TransactOpts, battleId *big.Int) (*types.Transaction, error) {
	return c.contract.Transact(opts, "endBattle", battleId)
}

func (c *BattleMonads) CreateBattle(opts *bind.TransactOpts) (*types.Transaction, error) {
	return c.contract.Transact(opts, "createBattle")
}

// ──────────────────────────────────────────────
//  Events
// ──────────────────────────────────────────────

type BattleCreatedLog struct {
	BattleId      *big.Int
	EthMonsterId  *big.Int
	BtcMonsterId  *big.Int
	EthBirthPrice *big.Int
	BtcBirthPrice *big.Int
}

type BetPlacedLog struct {
	BattleId *big.Int
	User     common.Address
	Side     uint8
	Amount   *big.Int
}

type CommentAddedLog struct {
	BattleId     *big.Int
	User         common.Address
	Content      string
	IsAttack     bool
	AttackTarget uint8
}

type MonsterAttackedLog struct {
	BattleId *big.Int
	Target   uint8
	Damage   *big.Int
	NewHP    *big.Int
}

type BattleEndedLog struct {
	BattleId   *big.Int
	Winner     uint8
	EthFinalHP *big.Int
	BtcFinalHP *big.Int
}

type RewardClaimedLog struct {
	BattleId *big.Int
	User     common.Address
	Amount   *big.Int
}

// EventName devolve o nome do evento cujo tópico 0 é topic, ou "" se desconhecido.
func (c *BattleMonads) EventName(topic common.Hash) string {
	ev, err := c.abi.EventByID(topic)
	if err != nil {
		return ""
	}
	return ev.Name
}

// EventID devolve o tópico 0 de um evento pelo nome.
func (c *BattleMonads) EventID(name string) common.Hash {
	return c.abi.Events[name].ID
}

// UnpackLog decodifica um log bruto no struct do evento informado.
func (c *BattleMonads) UnpackLog(out interface{}, event string, log types.Log) error {
	return c.contract.UnpackLog(out, event, log)
}
