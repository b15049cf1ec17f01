package chainevents

import (
	"context"
	"errors"
	"strconv"

	"github.com/redis/go-redis/v9"
)

const keyCursor = "chainevents:last_block"

// Cursor guarda o último bloco já publicado para retomar após restart.
type Cursor interface {
	Load(ctx context.Context) (uint64, bool, error)
	Save(ctx context.Context, block uint64) error
}

type RedisCursor struct{ R *redis.Client }

func NewRedisCursor(r *redis.Client) *RedisCursor { return &RedisCursor{R: r} }

func (c *RedisCursor) Load(ctx context.Context) (uint64, bool, error) {
	v, err := c.R.Get(ctx, keyCursor).Result()
	if errors.Is(err, redis.Nil) {
		return 0, false, nil
	}
	if err != nil {
		return 0, false, err
	}
	n, err := strconv.ParseUint(v, 10, 64)
	if err != nil {
		return 0, false, err
	}
	return n, true, nil
}

func (c *RedisCursor) Save(ctx context.Context, block uint64) error {
	return c.R.Set(ctx, keyCursor, strconv.FormatUint(block, 10), 0).Err()
}
