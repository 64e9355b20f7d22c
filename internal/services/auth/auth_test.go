package auth

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"

	"github.com/fastprodman/shopledger/internal/errs"
	"github.com/fastprodman/shopledger/internal/repos/identities"
	"github.com/fastprodman/shopledger/internal/repos/memrepo"
	"github.com/fastprodman/shopledger/internal/repos/settings"
)

func newIssuer(t *testing.T) (*Issuer, *memrepo.Store, *memrepo.TokenCache) {
	t.Helper()

	store := memrepo.New(settings.Settings{})
	cache := store.TokenCache()

	iss := New(store.Tokens(), cache, store.Identities(), Config{
		TokenTTL:   time.Hour,
		CacheTTL:   10 * time.Minute,
		BcryptCost: bcrypt.MinCost,
	})

	return iss, store, cache
}

func TestHashVerify(t *testing.T) {
	t.Parallel()

	iss, _, _ := newIssuer(t)

	h, err := iss.Hash("s3cret-pass")
	require.NoError(t, err)
	assert.NotEqual(t, "s3cret-pass", h)
	assert.True(t, iss.Verify("s3cret-pass", h))
	assert.False(t, iss.Verify("s3cret-pasS", h))
	assert.False(t, iss.Verify("s3cret-pass", "not-a-hash"))

	short, err := iss.Hash("x")
	require.NoError(t, err)
	assert.True(t, iss.Verify("x", short))

	// 72 runes but more than 72 bytes.
	_, err = iss.Hash(strings.Repeat("é", 72))
	require.ErrorIs(t, err, ErrPasswordTooLong)
	require.ErrorIs(t, err, errs.ErrInvalidInput)
}

func TestIssueAndAuthenticate(t *testing.T) {
	t.Parallel()

	iss, store, cache := newIssuer(t)
	ctx := context.Background()

	user := store.AddIdentity(identities.Identity{Email: "u@example.com", IsActive: true})

	tok, err := iss.IssueToken(ctx, user.ID)
	require.NoError(t, err)
	assert.Len(t, tok.Value, 2*tokenBytes)
	assert.False(t, cache.Cached(HashToken(tok.Value)))

	got, err := iss.Authenticate(ctx, tok.Value)
	require.NoError(t, err)
	assert.Equal(t, user.ID, got.ID)
	assert.True(t, cache.Cached(HashToken(tok.Value)), "read-through cache filled")

	// Served from the cache even when the token store is down.
	store.Fail("tokens.FindActive", errors.New("db down"))

	got, err = iss.Authenticate(ctx, tok.Value)
	require.NoError(t, err)
	assert.Equal(t, user.ID, got.ID)
}

func TestAuthenticate_Rejections(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name    string
		setup   func(t *testing.T, iss *Issuer, store *memrepo.Store) string
		wantErr error
	}{
		{
			name:    "empty",
			setup:   func(*testing.T, *Issuer, *memrepo.Store) string { return "  " },
			wantErr: errs.ErrUnauthenticated,
		},
		{
			name:    "unknown",
			setup:   func(*testing.T, *Issuer, *memrepo.Store) string { return "deadbeef" },
			wantErr: errs.ErrUnauthenticated,
		},
		{
			name: "expired",
			setup: func(t *testing.T, iss *Issuer, store *memrepo.Store) string {
				t.Helper()

				u := store.AddIdentity(identities.Identity{Email: "e@example.com", IsActive: true})
				tok, err := iss.IssueToken(context.Background(), u.ID)
				require.NoError(t, err)

				iss.now = func() time.Time { return time.Now().Add(2 * time.Hour) }

				return tok.Value
			},
			wantErr: errs.ErrUnauthenticated,
		},
		{
			name: "inactive_identity",
			setup: func(t *testing.T, iss *Issuer, store *memrepo.Store) string {
				t.Helper()

				u := store.AddIdentity(identities.Identity{Email: "i@example.com", IsActive: false})
				tok, err := iss.IssueToken(context.Background(), u.ID)
				require.NoError(t, err)

				return tok.Value
			},
			wantErr: errs.ErrForbidden,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			iss, store, _ := newIssuer(t)
			raw := tt.setup(t, iss, store)

			_, err := iss.Authenticate(context.Background(), raw)
			require.ErrorIs(t, err, tt.wantErr)
		})
	}
}

func TestPurgeExpired(t *testing.T) {
	t.Parallel()

	iss, store, _ := newIssuer(t)
	u := store.AddIdentity(identities.Identity{Email: "p@example.com", IsActive: true})

	_, err := iss.IssueToken(context.Background(), u.ID)
	require.NoError(t, err)

	n, err := iss.PurgeExpired(context.Background())
	require.NoError(t, err)
	assert.Zero(t, n)

	iss.now = func() time.Time { return time.Now().Add(2 * time.Hour) }

	n, err = iss.PurgeExpired(context.Background())
	require.NoError(t, err)
	assert.Equal(t, int64(1), n)
}
