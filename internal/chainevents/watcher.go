package chainevents

import (
	"context"
	"math/big"
	"time"

	"github.com/ethereum/go-ethereum"
	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/core/types"
	"go.uber.org/zap"

	"github.com/radieske/battle-monads/pkg/contracts/events"
)

// LogSource é a parte do ethclient usada pelo watcher.
type LogSource interface {
	BlockNumber(ctx context.Context) (uint64, error)
	FilterLogs(ctx context.Context, q ethereum.FilterQuery) ([]types.Log, error)
}

// Publisher recebe cada evento decodificado.
type Publisher interface {
	Publish(ctx context.Context, e events.Envelope) error
}

// MaxBlockRange limita cada eth_getLogs.
const MaxBlockRange = 100

// Watcher lê periodicamente os logs do contrato e publica cada evento
// Callbacks de métricas são opcionais
type Watcher struct {
	Log       *zap.Logger
	Source    LogSource
	Decoder   *Decoder
	Contract  common.Address
	Publisher Publisher
	Cursor    Cursor
	Interval  time.Duration

	OnObserved func(eventType string)
	OnError    func(stage string)
	OnHead     func(block uint64)

	next uint64
}

// Run inicia a partir do cursor salvo (ou do bloco atual) e só avança o
// cursor depois de publicar todo o intervalo.
func (w *Watcher) Run(ctx context.Context) error {
	if err := w.init(ctx); err != nil {
		return err
	}
	ticker := time.NewTicker(w.Interval)
	defer ticker.Stop()
	for {
		w.Step(ctx)
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-ticker.C:
		}
	}
}

func (w *Watcher) init(ctx context.Context) error {
	if w.Cursor != nil {
		last, ok, err := w.Cursor.Load(ctx)
		if err != nil {
			w.Log.Warn("cursor load failed, starting from head", zap.Error(err))
		} else if ok {
			w.next = last + 1
			return nil
		}
	}
	head, err := w.Source.BlockNumber(ctx)
	if err != nil {
		return err
	}
	w.next = head
	return nil
}

// Step processa de next até o bloco atual em janelas de MaxBlockRange.
func (w *Watcher) Step(ctx context.Context) {
	head, err := w.Source.BlockNumber(ctx)
	if err != nil {
		w.fail("head", err)
		return
	}
	for w.next <= head {
		to := w.next + MaxBlockRange - 1
		if to > head {
			to = head
		}
		logs, err := w.Source.FilterLogs(ctx, ethereum.FilterQuery{
			FromBlock: new(big.Int).SetUint64(w.next),
			ToBlock:   new(big.Int).SetUint64(to),
			Addresses: []common.Address{w.Contract},
			Topics:    w.Decoder.Topics(),
		})
		if err != nil {
			w.fail("filter_logs", err)
			return
		}
		for _, l := range logs {
			if l.Removed {
				continue
			}
			env, err := w.Decoder.Decode(l)
			if err != nil {
				w.fail("decode", err)
				continue
			}
			if w.OnObserved != nil {
				w.OnObserved(env.Type)
			}
			if err := w.Publisher.Publish(ctx, env); err != nil {
				// tenta o mesmo intervalo no próximo ciclo
				w.fail("publish", err)
				return
			}
		}
		if w.Cursor != nil {
			if err := w.Cursor.Save(ctx, to); err != nil {
				w.fail("cursor", err)
			}
		}
		if w.OnHead != nil {
			w.OnHead(to)
		}
		w.next = to + 1
	}
}

func (w *Watcher) fail(stage string, err error) {
	w.Log.Warn("watcher step failed", zap.String("stage", stage), zap.Error(err))
	if w.OnError != nil {
		w.OnError(stage)
	}
}
