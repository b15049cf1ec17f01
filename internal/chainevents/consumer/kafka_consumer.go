package consumer

import (
	"context"
	"encoding/json"
	"time"

	"github.com/segmentio/kafka-go"
	"go.uber.org/zap"

	"github.com/radieske/battle-monads/pkg/contracts/events"
)

// MessageReader é a parte do kafka.Reader usada pelo processor.
type MessageReader interface {
	ReadMessage(ctx context.Context) (kafka.Message, error)
}

// MessageWriter recebe mensagens inválidas (DLQ).
type MessageWriter interface {
	WriteMessages(ctx context.Context, msgs ...kafka.Message) error
}

type Broadcaster interface {
	Publish(ctx context.Context, channel string, payload []byte) error
}

// Processor consome eventos de batalha do Kafka e repassa cada um ao canal
// Redis lido pelo battle-client. Mensagens inválidas vão para a DLQ.
// Callbacks de métricas podem ser usadas para monitoramento de cada etapa
type Processor struct {
	Log         *zap.Logger
	Reader      MessageReader
	DLQ         MessageWriter
	Broadcaster Broadcaster
	Channel     string

	OnConsumed  func()       // métricas (counter++)
	OnBroadcast func()       // métricas
	OnError     func(string) // métricas por fase
}

// Run inicia o loop principal de consumo
func (p *Processor) Run(ctx context.Context) error {
	for {
		m, err := p.Reader.ReadMessage(ctx)
		if err != nil {
			if ctx.Err() != nil {
				return ctx.Err() // encerra se o contexto for cancelado
			}
			p.Log.Warn("kafka read failed", zap.Error(err))
			p.fail("read")
			time.Sleep(500 * time.Millisecond)
			continue
		}
		p.Handle(ctx, m)
	}
}

// Handle processa uma mensagem
func (p *Processor) Handle(ctx context.Context, m kafka.Message) {
	if p.OnConsumed != nil {
		p.OnConsumed()
	}

	var ev events.Envelope
	if err := json.Unmarshal(m.Value, &ev); err != nil || ev.Type == "" || ev.BattleID <= 0 {
		p.Log.Warn("invalid message", zap.Error(err), zap.ByteString("key", m.Key))
		p.fail("decode")
		p.deadLetter(ctx, m)
		return
	}

	// re-serializa para normalizar o payload enviado ao WS
	out, _ := json.Marshal(ev)
	if err := p.Broadcaster.Publish(ctx, p.Channel, out); err != nil {
		p.Log.Warn("redis publish failed", zap.String("type", ev.Type), zap.Error(err))
		p.fail("broadcast")
		return
	}
	if p.OnBroadcast != nil {
		p.OnBroadcast()
	}
	p.Log.Debug("battle event broadcast", zap.String("type", ev.Type), zap.Int64("battle_id", ev.BattleID))
}

func (p *Processor) deadLetter(ctx context.Context, m kafka.Message) {
	if p.DLQ == nil {
		return
	}
	if err := p.DLQ.WriteMessages(ctx, kafka.Message{Key: m.Key, Value: m.Value, Time: time.Now()}); err != nil {
		p.Log.Warn("dlq write failed", zap.Error(err))
		p.fail("dlq")
	}
}

func (p *Processor) fail(stage string) {
	if p.OnError != nil {
		p.OnError(stage)
	}
}
