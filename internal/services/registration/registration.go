// Package registration creates customer identities together with their
// wallet and, when a referral code is used, their referral rewards.
package registration

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/fastprodman/shopledger/internal/errs"
	"github.com/fastprodman/shopledger/internal/infra/pgutils"
	"github.com/fastprodman/shopledger/internal/repos/identities"
	"github.com/fastprodman/shopledger/internal/repos/referrals"
	"github.com/fastprodman/shopledger/internal/repos/wallets"
	"github.com/fastprodman/shopledger/internal/services/auth"
	"github.com/fastprodman/shopledger/internal/services/referral"
)

const insertAttempts = 3

var (
	ErrEmailRequired       = errs.New(errs.ErrInvalidInput, "email is required")
	ErrPasswordRequired    = errs.New(errs.ErrInvalidInput, "password is required")
	ErrInvalidReferralCode = errs.New(errs.ErrInvalidInput, "invalid referral code")
	ErrInvalidCredentials  = errs.New(errs.ErrUnauthenticated, "invalid credentials")
	ErrAccountDisabled     = errs.New(errs.ErrForbidden, "account is disabled")
)

type Credentials interface {
	Hash(password string) (string, error)
	Verify(password, hash string) bool
	IssueToken(ctx context.Context, identityID uuid.UUID) (auth.Token, error)
}

type Referrals interface {
	ValidateCode(ctx context.Context, code string) (identities.Identity, error)
	Enqueue(ctx context.Context, tx *sql.Tx, referrerID, referredID uuid.UUID, code string) error
	RecordAndReward(ctx context.Context, referrerID, referredID uuid.UUID, code string) (referrals.Referral, error)
}

type Wallets interface {
	OpenWallet(ctx context.Context, tx *sql.Tx, ownerID uuid.UUID) (wallets.Wallet, error)
}

type CodeSource interface {
	Generate(ctx context.Context) (string, error)
}

type Input struct {
	Email        string
	Password     string
	FullName     string
	Phone        *string
	ReferralCode string
}

type Result struct {
	Identity  identities.Identity
	Token     string
	ExpiresAt time.Time
	// RewardPending is set when the referral reward is left to the retry
	// worker.
	RewardPending bool
	Referral      *referrals.Referral
}

type Service struct {
	db          *sql.DB
	identities  identities.Identities
	credentials Credentials
	referrals   Referrals
	wallets     Wallets
	codes       CodeSource
}

func New(
	db *sql.DB,
	ids identities.Identities,
	creds Credentials,
	refs Referrals,
	w Wallets,
	codes CodeSource,
) *Service {
	return &Service{
		db:          db,
		identities:  ids,
		credentials: creds,
		referrals:   refs,
		wallets:     w,
		codes:       codes,
	}
}

func NormalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}

// Register runs the signup flow:
//
// 1) Reject a taken email or an unknown referral code before writing.
// 2) Create the identity, its wallet and the reward outbox row in one DB
// transaction.
// 3) Issue the referral rewards. A failure here leaves the outbox row for the
// retry worker.
// 4) Issue an access token.
func (s *Service) Register(ctx context.Context, in Input) (Result, error) {
	in.Email = NormalizeEmail(in.Email)

	if in.Email == "" {
		return Result{}, ErrEmailRequired
	}

	if in.Password == "" {
		return Result{}, ErrPasswordRequired
	}

	_, err := s.identities.FindByEmail(ctx, in.Email)
	switch {
	case err == nil:
		return Result{}, identities.ErrEmailTaken
	case !errors.Is(err, identities.ErrNotFound):
		return Result{}, fmt.Errorf("check email: %w", err)
	}

	var referrer *identities.Identity

	if in.ReferralCode != "" {
		r, err := s.referrals.ValidateCode(ctx, in.ReferralCode)
		if err != nil {
			if errors.Is(err, referral.ErrCodeNotFound) {
				return Result{}, ErrInvalidReferralCode
			}

			return Result{}, fmt.Errorf("validate referral code: %w", err)
		}

		referrer = &r
	}

	hash, err := s.credentials.Hash(in.Password)
	if err != nil {
		return Result{}, err
	}

	identity, err := s.create(ctx, in, hash, referrer)
	if err != nil {
		return Result{}, err
	}

	slog.InfoContext(ctx, "identity registered",
		"identity_id", identity.ID,
		"referred", referrer != nil,
	)

	res := Result{Identity: identity}

	if referrer != nil {
		ref, err := s.referrals.RecordAndReward(ctx, referrer.ID, identity.ID, in.ReferralCode)
		if err != nil {
			slog.WarnContext(ctx, "referral reward deferred",
				"referrer_id", referrer.ID,
				"referred_id", identity.ID,
				"error", err,
			)

			res.RewardPending = true
		} else {
			res.Referral = &ref
		}
	}

	tok, err := s.credentials.IssueToken(ctx, identity.ID)
	if err != nil {
		return Result{}, errs.Unavailable("issue token", err)
	}

	res.Token = tok.Value
	res.ExpiresAt = tok.ExpiresAt

	return res, nil
}

// create inserts the identity with a fresh referral code, retrying when the
// code loses a uniqueness race.
func (s *Service) create(ctx context.Context, in Input, hash string, referrer *identities.Identity) (identities.Identity, error) {
	for range insertAttempts {
		code, err := s.codes.Generate(ctx)
		if err != nil {
			return identities.Identity{}, fmt.Errorf("generate referral code: %w", err)
		}

		candidate := identities.Identity{
			Email:        in.Email,
			PasswordHash: hash,
			FullName:     strings.TrimSpace(in.FullName),
			Phone:        in.Phone,
			Role:         identities.RoleCustomer,
			ReferralCode: &code,
			IsActive:     true,
		}

		if referrer != nil {
			used := in.ReferralCode
			candidate.ReferredBy = &used
		}

		var created identities.Identity

		err = pgutils.WithTx(ctx, s.db, func(tx *sql.Tx) error {
			var err error

			created, err = s.identities.Insert(ctx, tx, candidate)
			if err != nil {
				return fmt.Errorf("insert identity: %w", err)
			}

			_, err = s.wallets.OpenWallet(ctx, tx, created.ID)
			if err != nil {
				return err
			}

			if referrer == nil {
				return nil
			}

			return s.referrals.Enqueue(ctx, tx, referrer.ID, created.ID, in.ReferralCode)
		})
		if errors.Is(err, identities.ErrReferralCodeTaken) {
			continue
		}

		if err != nil {
			return identities.Identity{}, fmt.Errorf("create identity: %w", err)
		}

		return created, nil
	}

	return identities.Identity{}, referral.ErrCodeSpaceExhausted
}

// Login exchanges email and password for a new access token.
func (s *Service) Login(ctx context.Context, email, password string) (Result, error) {
	identity, err := s.identities.FindByEmail(ctx, NormalizeEmail(email))
	if err != nil {
		if errors.Is(err, identities.ErrNotFound) {
			return Result{}, ErrInvalidCredentials
		}

		return Result{}, fmt.Errorf("find identity: %w", err)
	}

	if !s.credentials.Verify(password, identity.PasswordHash) {
		return Result{}, ErrInvalidCredentials
	}

	if !identity.IsActive {
		return Result{}, ErrAccountDisabled
	}

	tok, err := s.credentials.IssueToken(ctx, identity.ID)
	if err != nil {
		return Result{}, errs.Unavailable("issue token", err)
	}

	return Result{Identity: identity, Token: tok.Value, ExpiresAt: tok.ExpiresAt}, nil
}
