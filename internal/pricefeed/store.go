package pricefeed

import (
	"context"
	"encoding/json"
	"time"

	"github.com/redis/go-redis/v9"
)

const keyLatest = "prices:latest"

// StoreTTL mantém o snapshot só enquanto ele ainda é recente.
const StoreTTL = 30 * time.Second

// Store publica o último snapshot no Redis para leitores sem RPC (battlectl).
type Store struct{ R *redis.Client }

func NewStore(r *redis.Client) *Store { return &Store{R: r} }

func (s *Store) Save(ctx context.Context, p Prices) error {
	b, err := json.Marshal(p)
	if err != nil {
		return err
	}
	return s.R.Set(ctx, keyLatest, b, StoreTTL).Err()
}

// Latest devolve (prices, true) se houver snapshot ainda válido.
func (s *Store) Latest(ctx context.Context) (Prices, bool, error) {
	b, err := s.R.Get(ctx, keyLatest).Bytes()
	if err == redis.Nil {
		return Prices{}, false, nil
	}
	if err != nil {
		return Prices{}, false, err
	}
	var p Prices
	if err := json.Unmarshal(b, &p); err != nil {
		return Prices{}, false, err
	}
	return p, true, nil
}
