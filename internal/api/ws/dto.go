package ws

// ClientMsg representa uma mensagem recebida do cliente WebSocket
// Type: subscribe | unsubscribe | ping
// BattleID: obrigatório para subscribe/unsubscribe (0 = só preços)
type ClientMsg struct {
	Type     string `json:"type"`
	BattleID int64  `json:"battleId"`
}

// Update é enviado aos inscritos de uma batalha a cada leitura aceita
type Update struct {
	BattleID int64       `json:"battleId"`
	Resource string      `json:"resource"` // battle | comments | view | prices | event ...
	Payload  interface{} `json:"payload"`
}
