package auth

import (
	"context"
	"crypto/rand"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"

	"github.com/fastprodman/shopledger/internal/errs"
	"github.com/fastprodman/shopledger/internal/repos/identities"
	"github.com/fastprodman/shopledger/internal/repos/tokens"
)

const tokenBytes = 32

var (
	ErrInvalidToken     = errs.New(errs.ErrUnauthenticated, "invalid or expired token")
	ErrInactiveIdentity = errs.New(errs.ErrForbidden, "account is disabled")
	ErrPasswordTooLong  = errs.New(errs.ErrInvalidInput, "password must be at most 72 bytes")
)

type Config struct {
	TokenTTL   time.Duration
	CacheTTL   time.Duration
	BcryptCost int
}

// Token is an issued bearer token. Value is shown once and never stored.
type Token struct {
	Value     string
	ExpiresAt time.Time
}

// Issuer hashes passwords and issues and resolves opaque bearer tokens.
type Issuer struct {
	tokens     tokens.Tokens
	cache      tokens.Cache
	identities identities.Identities
	cfg        Config
	now        func() time.Time
}

// New returns an Issuer. cache may be nil.
func New(t tokens.Tokens, cache tokens.Cache, ids identities.Identities, cfg Config) *Issuer {
	if cfg.BcryptCost == 0 {
		cfg.BcryptCost = bcrypt.DefaultCost
	}

	return &Issuer{tokens: t, cache: cache, identities: ids, cfg: cfg, now: time.Now}
}

func (i *Issuer) Hash(password string) (string, error) {
	h, err := bcrypt.GenerateFromPassword([]byte(password), i.cfg.BcryptCost)
	if errors.Is(err, bcrypt.ErrPasswordTooLong) {
		return "", ErrPasswordTooLong
	}

	if err != nil {
		return "", fmt.Errorf("hash password: %w", err)
	}

	return string(h), nil
}

func (i *Issuer) Verify(password, hash string) bool {
	return bcrypt.CompareHashAndPassword([]byte(hash), []byte(password)) == nil
}

// HashToken is the stored form of a bearer token.
func HashToken(raw string) string {
	sum := sha256.Sum256([]byte(raw))

	return hex.EncodeToString(sum[:])
}

func (i *Issuer) IssueToken(ctx context.Context, identityID uuid.UUID) (Token, error) {
	buf := make([]byte, tokenBytes)

	_, err := rand.Read(buf)
	if err != nil {
		return Token{}, fmt.Errorf("generate token: %w", err)
	}

	raw := hex.EncodeToString(buf)
	expires := i.now().Add(i.cfg.TokenTTL)

	_, err = i.tokens.Insert(ctx, tokens.Token{
		IdentityID: identityID,
		Hash:       HashToken(raw),
		ExpiresAt:  expires,
	})
	if err != nil {
		return Token{}, fmt.Errorf("store token: %w", err)
	}

	return Token{Value: raw, ExpiresAt: expires}, nil
}

// Authenticate resolves a bearer token to its active identity.
func (i *Issuer) Authenticate(ctx context.Context, raw string) (identities.Identity, error) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return identities.Identity{}, ErrInvalidToken
	}

	id, err := i.resolve(ctx, HashToken(raw))
	if err != nil {
		return identities.Identity{}, err
	}

	identity, err := i.identities.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, identities.ErrNotFound) {
			return identities.Identity{}, ErrInvalidToken
		}

		return identities.Identity{}, fmt.Errorf("load identity: %w", err)
	}

	if !identity.IsActive {
		return identities.Identity{}, ErrInactiveIdentity
	}

	return identity, nil
}

// resolve checks the cache, then Postgres. Cache failures only cost a DB
// round trip.
func (i *Issuer) resolve(ctx context.Context, hash string) (uuid.UUID, error) {
	if i.cache != nil {
		id, ok, err := i.cache.Get(ctx, hash)
		if err != nil {
			slog.WarnContext(ctx, "token cache read failed", "error", err)
		}

		if ok {
			return id, nil
		}
	}

	now := i.now()

	t, err := i.tokens.FindActive(ctx, hash, now)
	if err != nil {
		if errors.Is(err, tokens.ErrNotFound) {
			return uuid.Nil, ErrInvalidToken
		}

		return uuid.Nil, fmt.Errorf("find token: %w", err)
	}

	if i.cache != nil {
		ttl := min(i.cfg.CacheTTL, t.ExpiresAt.Sub(now))

		err = i.cache.Set(ctx, hash, t.IdentityID, ttl)
		if err != nil {
			slog.WarnContext(ctx, "token cache write failed", "error", err)
		}
	}

	return t.IdentityID, nil
}

// PurgeExpired deletes expired tokens.
func (i *Issuer) PurgeExpired(ctx context.Context) (int64, error) {
	n, err := i.tokens.DeleteExpired(ctx, i.now())
	if err != nil {
		return 0, fmt.Errorf("purge expired tokens: %w", err)
	}

	return n, nil
}
