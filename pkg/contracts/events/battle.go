package events

// Valores em wei e preços (8 casas) trafegam como string decimal para não perder precisão.

type BattleCreated struct {
	BattleID      int64  `json:"battle_id"`
	ETHMonsterID  int64  `json:"eth_monster_id"`
	BTCMonsterID  int64  `json:"btc_monster_id"`
	ETHBirthPrice string `json:"eth_birth_price"`
	BTCBirthPrice string `json:"btc_birth_price"`
}

type BetPlaced struct {
	BattleID  int64  `json:"battle_id"`
	User      string `json:"user"`
	Side      uint8  `json:"side"` // 0 = ETH, 1 = BTC
	AmountWei string `json:"amount_wei"`
}

type CommentAdded struct {
	BattleID     int64  `json:"battle_id"`
	User         string `json:"user"`
	Content      string `json:"content"`
	IsAttack     bool   `json:"is_attack"`
	AttackTarget uint8  `json:"attack_target"`
}

type MonsterAttacked struct {
	BattleID int64  `json:"battle_id"`
	Target   uint8  `json:"target"`
	Damage   string `json:"damage"`
	NewHP    string `json:"new_hp"`
}

type BattleEnded struct {
	BattleID   int64  `json:"battle_id"`
	Winner     uint8  `json:"winner"`
	ETHFinalHP string `json:"eth_final_hp"`
	BTCFinalHP string `json:"btc_final_hp"`
}

type RewardClaimed struct {
	BattleID  int64  `json:"battle_id"`
	User      string `json:"user"`
	AmountWei string `json:"amount_wei"`
}
