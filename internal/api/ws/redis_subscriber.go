package ws

import (
	"context"
	"encoding/json"

	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	"github.com/radieske/battle-monads/pkg/contracts/events"
)

// Invalidator relê os recursos afetados por um evento on-chain
type Invalidator interface {
	Invalidate(e events.Envelope)
}

// StartRedisSubscriber escuta o canal Redis Pub/Sub alimentado pelo
// event-processor. Cada evento dispara a releitura dos recursos afetados e é
// repassado aos clientes WebSocket inscritos na batalha.
func StartRedisSubscriber(ctx context.Context, r *redis.Client, channel string, hub *Hub, inv Invalidator, log *zap.Logger) {
	sub := r.Subscribe(ctx, channel)
	ch := sub.Channel()
	go func() {
		for {
			select {
			case <-ctx.Done():
				_ = sub.Close() // encerra a inscrição ao finalizar o contexto
				return
			case msg := <-ch:
				if msg == nil {
					continue
				}
				var ev events.Envelope
				if err := json.Unmarshal([]byte(msg.Payload), &ev); err != nil {
					log.Warn("ws subscriber unmarshal error", zap.Error(err))
					continue
				}
				if inv != nil {
					inv.Invalidate(ev)
				}
				hub.Broadcast(Update{BattleID: ev.BattleID, Resource: "event", Payload: ev})
			}
		}
	}()
}
