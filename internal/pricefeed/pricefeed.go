package pricefeed

import (
	"context"
	"math/big"
	"sync"
	"time"

	"github.com/ethereum/go-ethereum/accounts/abi/bind"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/radieske/battle-monads/internal/contract"
)

// PriceDecimals: o oráculo devolve preços com 8 casas implícitas.
const PriceDecimals = 8

// Interval de atualização dos preços.
const Interval = 5 * time.Second

type Snapshot struct {
	Symbol        string          `json:"symbol"`
	Price         decimal.Decimal `json:"price"`
	Timestamp     time.Time       `json:"timestamp"`
	Change        decimal.Decimal `json:"change"`
	ChangePercent decimal.Decimal `json:"change_percent"`
	Placeholder   bool            `json:"placeholder"`
}

type Prices struct {
	ETH       Snapshot  `json:"eth"`
	BTC       Snapshot  `json:"btc"`
	FetchedAt time.Time `json:"fetched_at"`
}

// Placeholder é o snapshot fixo exibido quando o oráculo não responde.
func Placeholder(now time.Time) Prices {
	return Prices{
		ETH: Snapshot{
			Symbol: "ETH", Price: decimal.NewFromInt(2520), Timestamp: now,
			Change: decimal.NewFromInt(120), ChangePercent: decimal.RequireFromString("5.00"),
			Placeholder: true,
		},
		BTC: Snapshot{
			Symbol: "BTC", Price: decimal.NewFromInt(65500), Timestamp: now,
			Change: decimal.NewFromInt(1500), ChangePercent: decimal.RequireFromString("2.34"),
			Placeholder: true,
		},
		FetchedAt: now,
	}
}

// Oracle é a leitura dos dois preços de referência.
type Oracle interface {
	ETHPrice(opts *bind.CallOpts) (contract.PriceInfo, error)
	BTCPrice(opts *bind.CallOpts) (contract.PriceInfo, error)
}

// Feed lê o oráculo e calcula a variação contra a observação anterior.
type Feed struct {
	oracle     Oracle
	log        *zap.Logger
	onFallback func()
	now        func() time.Time

	mu      sync.Mutex
	prevETH *decimal.Decimal
	prevBTC *decimal.Decimal
}

// New cria o feed. oracle nil (endereço não configurado) sempre devolve o placeholder.
func New(oracle Oracle, log *zap.Logger, onFallback func()) *Feed {
	if log == nil {
		log = zap.NewNop()
	}
	return &Feed{oracle: oracle, log: log, onFallback: onFallback, now: time.Now}
}

// Fetch lê ETH e BTC em paralelo. Nunca devolve erro: qualquer falha vira o
// snapshot placeholder.
func (f *Feed) Fetch(ctx context.Context) (Prices, error) {
	now := f.now()
	if f.oracle == nil {
		return f.fallback(now, nil), nil
	}

	var eth, btc contract.PriceInfo
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		var err error
		eth, err = f.oracle.ETHPrice(&bind.CallOpts{Context: gctx})
		return err
	})
	g.Go(func() error {
		var err error
		btc, err = f.oracle.BTCPrice(&bind.CallOpts{Context: gctx})
		return err
	})
	if err := g.Wait(); err != nil {
		return f.fallback(now, err), nil
	}
	if eth.Price == nil || btc.Price == nil || eth.Price.Sign() <= 0 || btc.Price.Sign() <= 0 {
		return f.fallback(now, nil), nil
	}

	f.mu.Lock()
	defer f.mu.Unlock()
	out := Prices{
		ETH:       snapshot("ETH", eth, f.prevETH),
		BTC:       snapshot("BTC", btc, f.prevBTC),
		FetchedAt: now,
	}
	f.prevETH, f.prevBTC = &out.ETH.Price, &out.BTC.Price
	return out, nil
}

func (f *Feed) fallback(now time.Time, err error) Prices {
	f.mu.Lock()
	f.prevETH, f.prevBTC = nil, nil
	f.mu.Unlock()

	if err != nil {
		f.log.Warn("price oracle unavailable, serving placeholder", zap.Error(err))
	}
	if f.onFallback != nil {
		f.onFallback()
	}
	return Placeholder(now)
}

func snapshot(symbol string, info contract.PriceInfo, prev *decimal.Decimal) Snapshot {
	s := Snapshot{
		Symbol:        symbol,
		Price:         ScalePrice(info.Price),
		Timestamp:     unix(info.UpdatedAt),
		Change:        decimal.Zero,
		ChangePercent: decimal.Zero,
	}
	if prev != nil && !prev.IsZero() {
		s.Change = s.Price.Sub(*prev)
		s.ChangePercent = s.Change.Div(*prev).Mul(decimal.NewFromInt(100)).Round(2)
	}
	return s
}

// ScalePrice converte o inteiro de 8 casas do oráculo em decimal.
func ScalePrice(raw *big.Int) decimal.Decimal {
	if raw == nil {
		return decimal.Zero
	}
	return decimal.NewFromBigInt(raw, -PriceDecimals)
}

func unix(v *big.Int) time.Time {
	if v == nil || !v.IsInt64() || v.Sign() <= 0 {
		return time.Time{}
	}
	return time.Unix(v.Int64(), 0).UTC()
}
