package memrepo

import (
	"context"
	"time"

	"github.com/google/uuid"

	"github.com/fastprodman/shopledger/internal/repos/tokens"
)

var (
	_ tokens.Tokens = (*Tokens)(nil)
	_ tokens.Cache  = (*TokenCache)(nil)
)

type Tokens struct{ s *Store }

func (r *Tokens) Insert(_ context.Context, t tokens.Token) (tokens.Token, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	err := r.s.failure("tokens.Insert")
	if err != nil {
		return tokens.Token{}, err
	}

	if t.ID == uuid.Nil {
		t.ID = uuid.New()
	}

	t.CreatedAt = r.s.now()
	r.s.tokens[t.Hash] = t

	return t, nil
}

func (r *Tokens) FindActive(_ context.Context, hash string, now time.Time) (tokens.Token, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	err := r.s.failure("tokens.FindActive")
	if err != nil {
		return tokens.Token{}, err
	}

	t, ok := r.s.tokens[hash]
	if !ok || !t.ExpiresAt.After(now) {
		return tokens.Token{}, tokens.ErrNotFound
	}

	return t, nil
}

func (r *Tokens) DeleteExpired(_ context.Context, now time.Time) (int64, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	var n int64

	for hash, t := range r.s.tokens {
		if !t.ExpiresAt.After(now) {
			delete(r.s.tokens, hash)
			n++
		}
	}

	return n, nil
}

// TokenCache ignores TTLs.
type TokenCache struct{ s *Store }

func (c *TokenCache) Get(_ context.Context, hash string) (uuid.UUID, bool, error) {
	c.s.mu.Lock()
	defer c.s.mu.Unlock()

	err := c.s.failure("cache.Get")
	if err != nil {
		return uuid.Nil, false, err
	}

	id, ok := c.s.cache[hash]

	return id, ok, nil
}

func (c *TokenCache) Set(_ context.Context, hash string, identityID uuid.UUID, ttl time.Duration) error {
	c.s.mu.Lock()
	defer c.s.mu.Unlock()

	if ttl <= 0 {
		return nil
	}

	c.s.cache[hash] = identityID

	return nil
}

// Cached reports whether hash is in the cache.
func (c *TokenCache) Cached(hash string) bool {
	c.s.mu.Lock()
	defer c.s.mu.Unlock()

	_, ok := c.s.cache[hash]

	return ok
}
