package topics

const (
	// Eventos emitidos pelo contrato BattleMonads
	BattleEvents = "battle_events"

	// DLQs
	BattleEventsDLQ = "battle_events_dlq"

	// Canal Redis Pub/Sub consumido pelo battle-client (ws + invalidação)
	BattleBroadcast = "battle_updates_broadcast"
)
