package chain

import (
	"context"
	"errors"
	"fmt"
	"math/big"
	"sync"
	"time"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/ethclient"
)

// Monad testnet: rede única suportada pelo contrato BattleMonads
const (
	MonadTestnetID   = 10143
	NativeSymbol     = "MON"
	NativeDecimals   = 18
	MonadExplorerURL = "https://testnet-explorer.monad.xyz"
)

// ErrWrongNetwork indica que o RPC conectado não é a chain esperada.
var ErrWrongNetwork = errors.New("chain: wrong network")

// Dial conecta ao RPC JSON e valida a conexão pedindo o chain id.
func Dial(ctx context.Context, rpcURL string) (*ethclient.Client, error) {
	ctx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()

	client, err := ethclient.DialContext(ctx, rpcURL)
	if err != nil {
		return nil, fmt.Errorf("dial rpc: %w", err)
	}
	if _, err := client.ChainID(ctx); err != nil {
		client.Close()
		return nil, fmt.Errorf("rpc chain id: %w", err)
	}
	return client, nil
}

// ChainIDReader é a parte do ethclient usada pelo NetworkGuard.
type ChainIDReader interface {
	ChainID(ctx context.Context) (*big.Int, error)
}

// NetworkStatus é o estado exibido enquanto a rede estiver errada.
type NetworkStatus struct {
	Want      int64     `json:"want"`
	Have      int64     `json:"have"`
	OK        bool      `json:"ok"`
	CheckedAt time.Time `json:"checked_at"`
	Hint      string    `json:"hint,omitempty"`
}

// NetworkGuard detecta conexão a uma rede diferente da configurada.
// Escritas ficam bloqueadas enquanto Check retornar ErrWrongNetwork.
type NetworkGuard struct {
	reader ChainIDReader
	want   int64

	mu   sync.RWMutex
	last NetworkStatus
}

func NewNetworkGuard(reader ChainIDReader, want int64) *NetworkGuard {
	return &NetworkGuard{reader: reader, want: want}
}

// Check consulta eth_chainId e atualiza o status persistente.
func (g *NetworkGuard) Check(ctx context.Context) error {
	id, err := g.reader.ChainID(ctx)
	if err != nil {
		return fmt.Errorf("chain id: %w", err)
	}

	st := NetworkStatus{Want: g.want, Have: id.Int64(), CheckedAt: time.Now()}
	st.OK = st.Have == st.Want
	if !st.OK {
		st.Hint = fmt.Sprintf("switch the wallet/RPC to chain %d before sending transactions", g.want)
	}

	g.mu.Lock()
	g.last = st
	g.mu.Unlock()

	if !st.OK {
		return fmt.Errorf("%w: connected to %d, want %d", ErrWrongNetwork, st.Have, st.Want)
	}
	return nil
}

// Status retorna a última checagem (zero value antes da primeira).
func (g *NetworkGuard) Status() NetworkStatus {
	g.mu.RLock()
	defer g.mu.RUnlock()
	return g.last
}

// Run checa a rede periodicamente até o ctx ser cancelado.
func (g *NetworkGuard) Run(ctx context.Context, interval time.Duration) {
	_ = g.Check(ctx)
	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			_ = g.Check(ctx)
		}
	}
}

// TxURL aponta a transação no explorer da Monad testnet.
func TxURL(hash common.Hash) string {
	return MonadExplorerURL + "/tx/" + hash.Hex()
}
