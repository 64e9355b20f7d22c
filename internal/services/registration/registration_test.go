package registration

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"

	"github.com/fastprodman/shopledger/internal/errs"
	"github.com/fastprodman/shopledger/internal/repos/identities"
	"github.com/fastprodman/shopledger/internal/repos/memrepo"
	"github.com/fastprodman/shopledger/internal/repos/referrals"
	"github.com/fastprodman/shopledger/internal/repos/settings"
	"github.com/fastprodman/shopledger/internal/repos/transactions"
	"github.com/fastprodman/shopledger/internal/services/auth"
	"github.com/fastprodman/shopledger/internal/services/ledger"
	"github.com/fastprodman/shopledger/internal/services/referral"
)

var defaults = settings.Settings{ReferrerReward: 500, ReferredReward: 500, IsActive: true}

type fixture struct {
	svc    *Service
	store  *memrepo.Store
	issuer *auth.Issuer
	mock   sqlmock.Sqlmock
}

func newFixture(t *testing.T, codes CodeSource) fixture {
	t.Helper()

	db, mock, err := sqlmock.New()
	require.NoError(t, err)

	t.Cleanup(func() {
		assert.NoError(t, mock.ExpectationsWereMet())
		_ = db.Close()
	})

	store := memrepo.New(defaults)
	l := ledger.New(db, store.Wallets(), store.Transactions())
	refs := referral.New(db, store.Identities(), store.Referrals(), store.Settings(), l, referral.Config{CodeLength: 8})
	issuer := auth.New(store.Tokens(), nil, store.Identities(), auth.Config{
		TokenTTL:   time.Hour,
		BcryptCost: bcrypt.MinCost,
	})

	if codes == nil {
		codes = refs.Codes()
	}

	svc := New(db, store.Identities(), issuer, refs, l, codes)

	return fixture{svc: svc, store: store, issuer: issuer, mock: mock}
}

func (f fixture) expectTx(commit bool) {
	f.mock.ExpectBegin()

	if commit {
		f.mock.ExpectCommit()
	} else {
		f.mock.ExpectRollback()
	}
}

func (f fixture) referrer(t *testing.T, code string) identities.Identity {
	t.Helper()

	hash, err := f.issuer.Hash("referrer-pass")
	require.NoError(t, err)

	return f.store.AddIdentity(identities.Identity{
		Email:        "referrer@example.com",
		PasswordHash: hash,
		FullName:     "Referrer",
		ReferralCode: &code,
		IsActive:     true,
	})
}

func TestRegister_WithoutCode(t *testing.T) {
	t.Parallel()

	f := newFixture(t, nil)
	f.expectTx(true)

	res, err := f.svc.Register(context.Background(), Input{
		Email:    "  New.User@Example.COM ",
		Password: "secret-pass",
		FullName: "New User",
	})
	require.NoError(t, err)

	assert.Equal(t, "new.user@example.com", res.Identity.Email)
	assert.Equal(t, identities.RoleCustomer, res.Identity.Role)
	assert.Len(t, res.Identity.Code(), 8)
	assert.Nil(t, res.Identity.ReferredBy)
	assert.NotEmpty(t, res.Token)
	assert.False(t, res.RewardPending)
	assert.Nil(t, res.Referral)

	assert.Equal(t, 1, f.store.WalletCount())
	assert.Zero(t, f.store.Balance(res.Identity.ID))
	assert.Empty(t, f.store.AllReferrals())

	got, err := f.issuer.Authenticate(context.Background(), res.Token)
	require.NoError(t, err)
	assert.Equal(t, res.Identity.ID, got.ID)
}

func TestRegister_WithCodeRewardsBothSides(t *testing.T) {
	t.Parallel()

	f := newFixture(t, nil)
	ref := f.referrer(t, "FRIEND01")

	f.expectTx(true)
	f.expectTx(true)

	res, err := f.svc.Register(context.Background(), Input{
		Email:        "friend@example.com",
		Password:     "secret-pass",
		FullName:     "Friend",
		ReferralCode: "FRIEND01",
	})
	require.NoError(t, err)

	require.NotNil(t, res.Referral)
	assert.Equal(t, referrals.StatusCompleted, res.Referral.Status)
	require.NotNil(t, res.Identity.ReferredBy)
	assert.Equal(t, "FRIEND01", *res.Identity.ReferredBy)
	assert.False(t, res.RewardPending)

	assert.Equal(t, int64(500), f.store.Balance(ref.ID))
	assert.Equal(t, int64(500), f.store.Balance(res.Identity.ID))
	assert.Equal(t, f.store.LogSum(ref.ID), f.store.Balance(ref.ID))
	assert.Zero(t, f.store.PendingCount())

	welcome := f.store.TransactionsOf(res.Identity.ID)
	require.Len(t, welcome, 1)
	assert.Equal(t, transactions.KindReferralBonus, welcome[0].Kind)
	assert.Equal(t, "Welcome bonus from referral", welcome[0].Description)
}

func TestRegister_UnknownCodeWritesNothing(t *testing.T) {
	t.Parallel()

	f := newFixture(t, nil)
	f.referrer(t, "FRIEND01")

	// Codes match exactly, like GET /referral/validate/{code}.
	for _, code := range []string{"friend01", " FRIEND01", "FRIEND01 ", "FRIEND0"} {
		_, err := f.svc.Register(context.Background(), Input{
			Email:        "friend@example.com",
			Password:     "secret-pass",
			ReferralCode: code,
		})
		require.ErrorIs(t, err, ErrInvalidReferralCode, "code %q", code)
		require.ErrorIs(t, err, errs.ErrInvalidInput)
	}

	assert.Equal(t, 1, f.store.IdentityCount())
	assert.Zero(t, f.store.WalletCount())
	assert.Empty(t, f.store.AllReferrals())
}

func TestRegister_SameCodeTwice(t *testing.T) {
	t.Parallel()

	f := newFixture(t, nil)
	ref := f.referrer(t, "FRIEND01")

	for _, email := range []string{"a@example.com", "b@example.com"} {
		f.expectTx(true)
		f.expectTx(true)

		_, err := f.svc.Register(context.Background(), Input{
			Email:        email,
			Password:     "secret-pass",
			ReferralCode: "FRIEND01",
		})
		require.NoError(t, err)
	}

	assert.Len(t, f.store.AllReferrals(), 2)
	assert.Equal(t, int64(1000), f.store.Balance(ref.ID))
	assert.Len(t, f.store.TransactionsOf(ref.ID), 2)
}

func TestRegister_DuplicateEmail(t *testing.T) {
	t.Parallel()

	f := newFixture(t, nil)
	f.referrer(t, "FRIEND01")

	_, err := f.svc.Register(context.Background(), Input{
		Email:    "Referrer@example.com",
		Password: "secret-pass",
	})
	require.ErrorIs(t, err, identities.ErrEmailTaken)
	require.ErrorIs(t, err, errs.ErrConflict)
}

func TestRegister_InputValidation(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name    string
		in      Input
		wantErr error
	}{
		{name: "blank_email", in: Input{Email: "   ", Password: "x"}, wantErr: ErrEmailRequired},
		{name: "empty_password", in: Input{Email: "a@example.com"}, wantErr: ErrPasswordRequired},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			f := newFixture(t, nil)

			_, err := f.svc.Register(context.Background(), tt.in)
			require.ErrorIs(t, err, tt.wantErr)
			require.ErrorIs(t, err, errs.ErrInvalidInput)
		})
	}
}

func TestRegister_RewardFailureLeavesPending(t *testing.T) {
	t.Parallel()

	f := newFixture(t, nil)
	ref := f.referrer(t, "FRIEND01")

	f.store.Fail("referrals.Insert", errs.Unavailable("insert referral", errors.New("db down")))
	f.expectTx(true)
	f.expectTx(false)

	res, err := f.svc.Register(context.Background(), Input{
		Email:        "friend@example.com",
		Password:     "secret-pass",
		ReferralCode: "FRIEND01",
	})
	require.NoError(t, err)
	assert.True(t, res.RewardPending)
	assert.Nil(t, res.Referral)
	assert.NotEmpty(t, res.Token)

	assert.Equal(t, 1, f.store.PendingCount())
	assert.Zero(t, f.store.Balance(ref.ID))
	assert.Zero(t, f.store.Balance(res.Identity.ID))
}

type scriptedCodes struct {
	codes []string
}

func (s *scriptedCodes) Generate(context.Context) (string, error) {
	c := s.codes[0]
	s.codes = s.codes[1:]

	return c, nil
}

func TestRegister_RetriesOnCodeCollision(t *testing.T) {
	t.Parallel()

	f := newFixture(t, &scriptedCodes{codes: []string{"FRIEND01", "FRESH001"}})
	f.referrer(t, "FRIEND01")

	f.expectTx(false)
	f.expectTx(true)

	res, err := f.svc.Register(context.Background(), Input{
		Email:    "new@example.com",
		Password: "secret-pass",
	})
	require.NoError(t, err)
	assert.Equal(t, "FRESH001", res.Identity.Code())
}

func TestRegister_TokenFailureIsUnavailable(t *testing.T) {
	t.Parallel()

	f := newFixture(t, nil)
	f.store.Fail("tokens.Insert", errors.New("db down"))
	f.expectTx(true)

	_, err := f.svc.Register(context.Background(), Input{
		Email:    "new@example.com",
		Password: "secret-pass",
	})
	require.ErrorIs(t, err, errs.ErrUnavailable)

	// The account exists; logging in works.
	res, err := f.svc.Login(context.Background(), "new@example.com", "secret-pass")
	require.NoError(t, err)
	assert.NotEmpty(t, res.Token)
}

func TestLogin(t *testing.T) {
	t.Parallel()

	f := newFixture(t, nil)
	ref := f.referrer(t, "FRIEND01")

	hash, err := f.issuer.Hash("disabled-pass")
	require.NoError(t, err)
	f.store.AddIdentity(identities.Identity{Email: "off@example.com", PasswordHash: hash})

	tests := []struct {
		name     string
		email    string
		password string
		wantErr  error
	}{
		{name: "ok", email: " REFERRER@example.com", password: "referrer-pass"},
		{name: "wrong_password", email: "referrer@example.com", password: "nope", wantErr: errs.ErrUnauthenticated},
		{name: "unknown_email", email: "ghost@example.com", password: "referrer-pass", wantErr: errs.ErrUnauthenticated},
		{name: "disabled", email: "off@example.com", password: "disabled-pass", wantErr: errs.ErrForbidden},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			res, err := f.svc.Login(context.Background(), tt.email, tt.password)
			if tt.wantErr != nil {
				require.ErrorIs(t, err, tt.wantErr)
				return
			}

			require.NoError(t, err)
			assert.Equal(t, ref.ID, res.Identity.ID)
			assert.NotEmpty(t, res.Token)
		})
	}
}
