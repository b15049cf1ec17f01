package chainevents

import (
	"encoding/json"
	"errors"
	"fmt"
	"math/big"
	"strings"
	"time"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/core/types"
	"github.com/google/uuid"

	"github.com/radieske/battle-monads/internal/contract"
	"github.com/radieske/battle-monads/pkg/contracts/events"
)

var ErrUnknownEvent = errors.New("chainevents: unknown event")

// Decoder converte logs brutos do BattleMonads em envelopes JSON.
type Decoder struct {
	bm  *contract.BattleMonads
	now func() time.Time
}

func NewDecoder(bm *contract.BattleMonads) *Decoder {
	return &Decoder{bm: bm, now: time.Now}
}

func (d *Decoder) Decode(l types.Log) (events.Envelope, error) {
	if len(l.Topics) == 0 {
		return events.Envelope{}, ErrUnknownEvent
	}
	name := d.bm.EventName(l.Topics[0])

	var (
		battleID *big.Int
		payload  any
	)
	switch name {
	case events.TypeBattleCreated:
		var ev contract.BattleCreatedLog
		if err := d.bm.UnpackLog(&ev, name, l); err != nil {
			return events.Envelope{}, err
		}
		battleID = ev.BattleId
		payload = events.BattleCreated{
			BattleID:      ev.BattleId.Int64(),
			ETHMonsterID:  ev.EthMonsterId.Int64(),
			BTCMonsterID:  ev.BtcMonsterId.Int64(),
			ETHBirthPrice: ev.EthBirthPrice.String(),
			BTCBirthPrice: ev.BtcBirthPrice.String(),
		}
	case events.TypeBetPlaced:
		var ev contract.BetPlacedLog
		if err := d.bm.UnpackLog(&ev, name, l); err != nil {
			return events.Envelope{}, err
		}
		battleID = ev.BattleId
		payload = events.BetPlaced{
			BattleID:  ev.BattleId.Int64(),
			User:      strings.ToLower(ev.User.Hex()),
			Side:      ev.Side,
			AmountWei: ev.Amount.String(),
		}
	case events.TypeCommentAdded:
		var ev contract.CommentAddedLog
		if err := d.bm.UnpackLog(&ev, name, l); err != nil {
			return events.Envelope{}, err
		}
		battleID = ev.BattleId
		payload = events.CommentAdded{
			BattleID:     ev.BattleId.Int64(),
			User:         strings.ToLower(ev.User.Hex()),
			Content:      ev.Content,
			IsAttack:     ev.IsAttack,
			AttackTarget: ev.AttackTarget,
		}
	case events.TypeMonsterAttacked:
		var ev contract.MonsterAttackedLog
		if err := d.bm.UnpackLog(&ev, name, l); err != nil {
			return events.Envelope{}, err
		}
		battleID = ev.BattleId
		payload = events.MonsterAttacked{
			BattleID: ev.BattleId.Int64(),
			Target:   ev.Target,
			Damage:   ev.Damage.String(),
			NewHP:    ev.NewHP.String(),
		}
	case events.TypeBattleEnded:
		var ev contract.BattleEndedLog
		if err := d.bm.UnpackLog(&ev, name, l); err != nil {
			return events.Envelope{}, err
		}
		battleID = ev.BattleId
		payload = events.BattleEnded{
			BattleID:   ev.BattleId.Int64(),
			Winner:     ev.Winner,
			ETHFinalHP: ev.EthFinalHP.String(),
			BTCFinalHP: ev.BtcFinalHP.String(),
		}
	case events.TypeRewardClaimed:
		var ev contract.RewardClaimedLog
		if err := d.bm.UnpackLog(&ev, name, l); err != nil {
			return events.Envelope{}, err
		}
		battleID = ev.BattleId
		payload = events.RewardClaimed{
			BattleID:  ev.BattleId.Int64(),
			User:      strings.ToLower(ev.User.Hex()),
			AmountWei: ev.Amount.String(),
		}
	default:
		return events.Envelope{}, fmt.Errorf("%w: topic %s", ErrUnknownEvent, l.Topics[0].Hex())
	}

	raw, err := json.Marshal(payload)
	if err != nil {
		return events.Envelope{}, err
	}
	return events.Envelope{
		ID:          uuid.NewString(),
		Type:        name,
		BattleID:    battleID.Int64(),
		BlockNumber: l.BlockNumber,
		TxHash:      l.TxHash.Hex(),
		LogIndex:    l.Index,
		Payload:     raw,
		ObservedAt:  d.now().UTC(),
	}, nil
}

// Topics devolve o filtro de tópico 0 com todos os eventos conhecidos.
func (d *Decoder) Topics() [][]common.Hash {
	names := []string{
		events.TypeBattleCreated, events.TypeBetPlaced, events.TypeCommentAdded,
		events.TypeMonsterAttacked, events.TypeBattleEnded, events.TypeRewardClaimed,
	}
	ids := make([]common.Hash, 0, len(names))
	for _, n := range names {
		ids = append(ids, d.bm.EventID(n))
	}
	return [][]common.Hash{ids}
}
