package credits

import (
	"context"
	"fmt"

	"github.com/redis/go-redis/v9"
	"github.com/shopspring/decimal"
)

const redisKeyCredits = "credits:balance:"

// RedisStore keeps credit balances in Redis as integer smallest-denomination
// units so DecrBy/IncrBy stay atomic across processes.
type RedisStore struct {
	client *redis.Client
}

func NewRedisStore(client *redis.Client) *RedisStore {
	return &RedisStore{client: client}
}

func (s *RedisStore) key(playerID string) string {
	return redisKeyCredits + playerID
}

func (s *RedisStore) Balance(ctx context.Context, playerID string) (decimal.Decimal, error) {
	u, err := s.client.Get(ctx, s.key(playerID)).Int64()
	if err == redis.Nil {
		return decimal.Zero, nil
	}
	if err != nil {
		return decimal.Zero, fmt.Errorf("reading credits for %s: %w", playerID, err)
	}
	return fromUnits(u), nil
}

func (s *RedisStore) Debit(ctx context.Context, playerID string, amount decimal.Decimal) (decimal.Decimal, error) {
	u, err := units(amount)
	if err != nil {
		return decimal.Zero, err
	}

	remaining, err := s.client.DecrBy(ctx, s.key(playerID), u).Result()
	if err != nil {
		return decimal.Zero, fmt.Errorf("debiting credits for %s: %w", playerID, err)
	}
	if remaining < 0 {
		// Rollback; the account never had the funds.
		s.client.IncrBy(ctx, s.key(playerID), u)
		return fromUnits(remaining + u), ErrInsufficientCredits
	}
	return fromUnits(remaining), nil
}

func (s *RedisStore) Credit(ctx context.Context, playerID string, amount decimal.Decimal) (decimal.Decimal, error) {
	u, err := units(amount)
	if err != nil {
		return decimal.Zero, err
	}

	balance, err := s.client.IncrBy(ctx, s.key(playerID), u).Result()
	if err != nil {
		return decimal.Zero, fmt.Errorf("crediting %s: %w", playerID, err)
	}
	return fromUnits(balance), nil
}

func (s *RedisStore) Set(ctx context.Context, playerID string, balance decimal.Decimal) error {
	u, err := units(balance)
	if err != nil {
		return err
	}
	if err := s.client.Set(ctx, s.key(playerID), u, 0).Err(); err != nil {
		return fmt.Errorf("setting credits for %s: %w", playerID, err)
	}
	return nil
}
