package tokens

import (
	"context"
	"time"

	"github.com/google/uuid"

	"github.com/fastprodman/shopledger/internal/errs"
)

var ErrNotFound = errs.New(errs.ErrUnauthenticated, "invalid or expired token")

// Token is a stored access token. Only the hash of the bearer value is kept.
type Token struct {
	ID         uuid.UUID
	IdentityID uuid.UUID
	Hash       string
	ExpiresAt  time.Time
	CreatedAt  time.Time
}

type Tokens interface {
	Insert(ctx context.Context, t Token) (Token, error)
	// FindActive returns ErrNotFound for unknown and expired tokens.
	FindActive(ctx context.Context, hash string, now time.Time) (Token, error)
	DeleteExpired(ctx context.Context, now time.Time) (int64, error)
}

// Cache is a read-through cache in front of Tokens. A miss is (uuid.Nil,
// false, nil).
type Cache interface {
	Get(ctx context.Context, hash string) (uuid.UUID, bool, error)
	Set(ctx context.Context, hash string, identityID uuid.UUID, ttl time.Duration) error
}
