package publisher

import (
	"context"
	"encoding/json"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/segmentio/kafka-go"
	"go.uber.org/zap"

	"github.com/radieske/battle-monads/pkg/contracts/events"
)

// KafkaPublisher encapsula o writer Kafka e o logger.
type KafkaPublisher struct {
	writer    *kafka.Writer
	log       *zap.Logger
	OnPublish func() // métricas
}

// EnsureTopic cria o tópico em ambientes local/dev (single-broker).
// Em caso de existência prévia, mantém execução.
func EnsureTopic(ctx context.Context, brokers []string, topic string, log *zap.Logger) error {
	if len(brokers) == 0 {
		return fmt.Errorf("kafka brokers not provided")
	}
	ctx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()

	conn, err := kafka.DialContext(ctx, "tcp", brokers[0])
	if err != nil {
		return fmt.Errorf("connect kafka: %w", err)
	}
	defer conn.Close()

	controller, err := conn.Controller()
	if err != nil {
		return fmt.Errorf("kafka controller: %w", err)
	}
	cconn, err := kafka.DialContext(ctx, "tcp", fmt.Sprintf("%s:%d", controller.Host, controller.Port))
	if err != nil {
		return fmt.Errorf("dial controller: %w", err)
	}
	defer cconn.Close()

	err = cconn.CreateTopics(kafka.TopicConfig{Topic: topic, NumPartitions: 1, ReplicationFactor: 1})
	if err != nil && !strings.Contains(err.Error(), "already exists") {
		return err
	}
	if err == nil {
		log.Info("kafka topic created", zap.String("topic", topic))
	}
	return nil
}

// NewKafkaPublisher cria um publisher para o tópico de eventos de batalha.
func NewKafkaPublisher(w *kafka.Writer, log *zap.Logger) *KafkaPublisher {
	w.RequiredAcks = kafka.RequireAll
	w.BatchTimeout = 10 * time.Millisecond
	w.ReadTimeout = 10 * time.Second
	w.WriteTimeout = 10 * time.Second
	return &KafkaPublisher{writer: w, log: log}
}

// Publish serializa o envelope em JSON. A chave é o id da batalha, então os
// eventos de uma batalha ficam na mesma partição e em ordem.
func (p *KafkaPublisher) Publish(ctx context.Context, e events.Envelope) error {
	value, err := json.Marshal(e)
	if err != nil {
		return err
	}

	msg := kafka.Message{
		Key:   []byte(strconv.FormatInt(e.BattleID, 10)),
		Value: value,
		Time:  time.Now(),
	}

	if err := p.writer.WriteMessages(ctx, msg); err != nil {
		p.log.Error("failed to publish battle event", zap.String("type", e.Type), zap.Error(err))
		return err
	}
	if p.OnPublish != nil {
		p.OnPublish()
	}

	p.log.Debug("published battle event",
		zap.String("type", e.Type),
		zap.Int64("battle_id", e.BattleID),
		zap.Uint64("block", e.BlockNumber))
	return nil
}

// Close finaliza o writer e libera recursos associados.
func (p *KafkaPublisher) Close() error {
	return p.writer.Close()
}
