package tokens

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"

	"github.com/fastprodman/shopledger/internal/repos/tokens"
)

var _ tokens.Cache = (*cache)(nil)

type cache struct {
	client *redis.Client
}

func New(client *redis.Client) *cache {
	return &cache{client: client}
}

func key(hash string) string {
	return "token:" + hash
}

func (c *cache) Get(ctx context.Context, hash string) (uuid.UUID, bool, error) {
	val, err := c.client.Get(ctx, key(hash)).Result()
	if errors.Is(err, redis.Nil) {
		return uuid.Nil, false, nil
	}

	if err != nil {
		return uuid.Nil, false, fmt.Errorf("get cached token: %w", err)
	}

	id, err := uuid.Parse(val)
	if err != nil {
		return uuid.Nil, false, fmt.Errorf("parse cached identity id: %w", err)
	}

	return id, true, nil
}

func (c *cache) Set(ctx context.Context, hash string, identityID uuid.UUID, ttl time.Duration) error {
	if ttl <= 0 {
		return nil
	}

	err := c.client.Set(ctx, key(hash), identityID.String(), ttl).Err()
	if err != nil {
		return fmt.Errorf("cache token: %w", err)
	}

	return nil
}
