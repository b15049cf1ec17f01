package gateway

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/ethereum/go-ethereum"
	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/core/types"
)

type TxState string

const (
	TxPending   TxState = "pending"
	TxConfirmed TxState = "confirmed"
	TxFailed    TxState = "failed"
)

// ReceiptReader é a parte do ethclient usada para acompanhar transações.
type ReceiptReader interface {
	TransactionReceipt(ctx context.Context, txHash common.Hash) (*types.Receipt, error)
}

// TxRecord é a última transação submetida por operação.
type TxRecord struct {
	Op          string      `json:"op"`
	Hash        common.Hash `json:"hash"`
	State       TxState     `json:"state"`
	BlockNumber uint64      `json:"block_number,omitempty"`
	SubmittedAt time.Time   `json:"submitted_at"`
}

// TxTracker guarda o último hash por operação e consulta o recibo sob demanda.
type TxTracker struct {
	reader ReceiptReader

	mu   sync.RWMutex
	last map[string]TxRecord
}

func NewTxTracker(reader ReceiptReader) *TxTracker {
	return &TxTracker{reader: reader, last: map[string]TxRecord{}}
}

func (t *TxTracker) Record(op string, hash common.Hash) {
	t.mu.Lock()
	t.last[op] = TxRecord{Op: op, Hash: hash, State: TxPending, SubmittedAt: time.Now()}
	t.mu.Unlock()
}

// Last devolve o registro mais recente da operação.
func (t *TxTracker) Last(op string) (TxRecord, bool) {
	t.mu.RLock()
	defer t.mu.RUnlock()
	r, ok := t.last[op]
	return r, ok
}

// Status consulta o recibo: sem recibo ainda é pending.
func (t *TxTracker) Status(ctx context.Context, hash common.Hash) (TxState, uint64, error) {
	rcpt, err := t.reader.TransactionReceipt(ctx, hash)
	if errors.Is(err, ethereum.NotFound) {
		return TxPending, 0, nil
	}
	if err != nil {
		return TxPending, 0, err
	}
	state := TxConfirmed
	if rcpt.Status != types.ReceiptStatusSuccessful {
		state = TxFailed
	}
	var block uint64
	if rcpt.BlockNumber != nil {
		block = rcpt.BlockNumber.Uint64()
	}
	t.update(hash, state, block)
	return state, block, nil
}

// Wait consulta o recibo a cada interval até resolver ou ctx ser cancelado.
// Não há timeout próprio.
func (t *TxTracker) Wait(ctx context.Context, hash common.Hash, interval time.Duration) (TxState, error) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for {
		state, _, err := t.Status(ctx, hash)
		if err == nil && state != TxPending {
			return state, nil
		}
		select {
		case <-ctx.Done():
			return TxPending, ctx.Err()
		case <-ticker.C:
		}
	}
}

func (t *TxTracker) update(hash common.Hash, state TxState, block uint64) {
	t.mu.Lock()
	defer t.mu.Unlock()
	for op, r := range t.last {
		if r.Hash == hash {
			r.State = state
			r.BlockNumber = block
			t.last[op] = r
		}
	}
}
