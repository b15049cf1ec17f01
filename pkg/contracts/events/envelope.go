package events

import (
	"encoding/json"
	"time"
)

// Tipos de evento emitidos pelo contrato BattleMonads
const (
	TypeBattleCreated   = "BattleCreated"
	TypeBetPlaced       = "BetPlaced"
	TypeCommentAdded    = "CommentAdded"
	TypeMonsterAttacked = "MonsterAttacked"
	TypeBattleEnded     = "BattleEnded"
	TypeRewardClaimed   = "RewardClaimed"
)

// Envelope é a mensagem publicada no tópico "battle_events" e repassada
// pelo event-processor ao canal Redis consumido pelo battle-client.
type Envelope struct {
	ID          string          `json:"id"`
	Type        string          `json:"type"`
	BattleID    int64           `json:"battle_id"`
	BlockNumber uint64          `json:"block_number"`
	TxHash      string          `json:"tx_hash"`
	LogIndex    uint            `json:"log_index"`
	Payload     json.RawMessage `json:"payload"`
	ObservedAt  time.Time       `json:"observed_at"`
}

// Decode desserializa o payload no tipo concreto do evento
func (e Envelope) Decode(dst any) error {
	return json.Unmarshal(e.Payload, dst)
}
