package referral

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"github.com/fastprodman/shopledger/internal/infra/metrics"
	"github.com/fastprodman/shopledger/internal/infra/pgutils"
	"github.com/fastprodman/shopledger/internal/repos/identities"
	"github.com/fastprodman/shopledger/internal/repos/referrals"
	"github.com/fastprodman/shopledger/internal/repos/settings"
	"github.com/fastprodman/shopledger/internal/repos/transactions"
	"github.com/fastprodman/shopledger/internal/services/ledger"
)

// codeAssignAttempts bounds lazy code assignment races.
const codeAssignAttempts = 3

// Service records referral relationships and issues both rewards exactly once
// per referred identity.
type Service struct {
	db         *sql.DB
	identities identities.Identities
	referrals  referrals.Referrals
	settings   settings.Store
	ledger     Ledger
	codes      *CodeGenerator
	linkBase   string
	now        func() time.Time
}

func New(
	db *sql.DB,
	ids identities.Identities,
	refs referrals.Referrals,
	st settings.Store,
	l Ledger,
	cfg Config,
) *Service {
	return &Service{
		db:         db,
		identities: ids,
		referrals:  refs,
		settings:   st,
		ledger:     l,
		codes:      NewCodeGenerator(cfg.CodeLength, ids),
		linkBase:   cfg.LinkBaseURL,
		now:        time.Now,
	}
}

// Codes exposes the generator so registration draws from the same space.
func (s *Service) Codes() *CodeGenerator {
	return s.codes
}

// ValidateCode resolves a referral code to its owner. The match is exact.
func (s *Service) ValidateCode(ctx context.Context, code string) (identities.Identity, error) {
	if code == "" {
		return identities.Identity{}, ErrCodeNotFound
	}

	referrer, err := s.identities.FindByReferralCode(ctx, code)
	if err != nil {
		if errors.Is(err, identities.ErrNotFound) {
			return identities.Identity{}, ErrCodeNotFound
		}

		return identities.Identity{}, fmt.Errorf("find referrer: %w", err)
	}

	return referrer, nil
}

// Enqueue writes the outbox row for a reward that RecordAndReward will
// issue, inside the caller's transaction.
func (s *Service) Enqueue(ctx context.Context, tx *sql.Tx, referrerID, referredID uuid.UUID, code string) error {
	err := s.referrals.EnqueuePending(ctx, tx, referrals.Pending{
		ReferrerID:   referrerID,
		ReferredID:   referredID,
		ReferralCode: code,
	})
	if err != nil {
		return fmt.Errorf("enqueue referral reward: %w", err)
	}

	return nil
}

// RecordAndReward runs in a single DB transaction:
//
// 1) Read the settings (materializing defaults) and snapshot the rewards.
// 2) Insert the referral; an existing pair is returned untouched.
// 3) Credit the referrer, then the referred identity.
// 4) Clear the outbox row.
func (s *Service) RecordAndReward(ctx context.Context, referrerID, referredID uuid.UUID, code string) (referrals.Referral, error) {
	ref, outcome, err := s.recordAndReward(ctx, referrerID, referredID, code)
	if err != nil {
		metrics.ReferralRewards.WithLabelValues(metrics.RewardFailed).Inc()
		return referrals.Referral{}, fmt.Errorf("record and reward: %w", err)
	}

	metrics.ReferralRewards.WithLabelValues(outcome).Inc()

	slog.InfoContext(ctx, "referral processed",
		"referral_id", ref.ID,
		"referrer_id", referrerID,
		"referred_id", referredID,
		"outcome", outcome,
	)

	return ref, nil
}

func (s *Service) recordAndReward(ctx context.Context, referrerID, referredID uuid.UUID, code string) (referrals.Referral, string, error) {
	st, err := s.settings.Get(ctx)
	if err != nil {
		return referrals.Referral{}, "", fmt.Errorf("read settings: %w", err)
	}

	referred, err := s.identities.FindByID(ctx, referredID)
	if err != nil {
		return referrals.Referral{}, "", fmt.Errorf("find referred identity: %w", err)
	}

	now := s.now()
	candidate := referrals.Referral{
		ReferrerID:   referrerID,
		ReferredID:   referredID,
		ReferralCode: code,
		Status:       referrals.StatusPending,
	}

	if st.IsActive {
		candidate.Status = referrals.StatusCompleted
		candidate.ReferrerReward = st.ReferrerReward
		candidate.ReferredReward = st.ReferredReward
		candidate.RewardedAt = &now
	}

	var (
		ref     referrals.Referral
		outcome string
	)

	err = pgutils.WithTx(ctx, s.db, func(tx *sql.Tx) error {
		var (
			created bool
			err     error
		)

		ref, created, err = s.referrals.Insert(ctx, tx, candidate)
		if err != nil {
			return fmt.Errorf("insert referral: %w", err)
		}

		switch {
		case !created:
			outcome = metrics.RewardDuplicate
		case !st.IsActive:
			outcome = metrics.RewardInactive
		default:
			outcome = metrics.RewardIssued

			err = s.credit(ctx, tx, ref, referred)
			if err != nil {
				return err
			}
		}

		err = s.referrals.ResolvePending(ctx, tx, referredID)
		if err != nil {
			return fmt.Errorf("resolve pending reward: %w", err)
		}

		return nil
	})
	if err != nil {
		return referrals.Referral{}, "", err
	}

	return ref, outcome, nil
}

func (s *Service) credit(ctx context.Context, tx *sql.Tx, ref referrals.Referral, referred identities.Identity) error {
	refID := ref.ID.String()

	entries := []ledger.Entry{
		{
			OwnerID:     ref.ReferrerID,
			Amount:      ref.ReferrerReward,
			Kind:        transactions.KindReferralBonus,
			Description: "Referral bonus for inviting " + referred.FullName,
			ReferenceID: &refID,
		},
		{
			OwnerID:     ref.ReferredID,
			Amount:      ref.ReferredReward,
			Kind:        transactions.KindReferralBonus,
			Description: welcomeDescription,
			ReferenceID: &refID,
		},
	}

	for _, e := range entries {
		if e.Amount == 0 {
			continue
		}

		_, err := s.ledger.Apply(ctx, tx, e)
		if err != nil {
			return fmt.Errorf("credit %s: %w", e.OwnerID, err)
		}
	}

	return nil
}

func (s *Service) ListForReferrer(ctx context.Context, referrerID uuid.UUID, limit, offset int) ([]referrals.Referral, error) {
	limit, offset, err := ledger.NormalizePage(limit, offset)
	if err != nil {
		return nil, err
	}

	list, err := s.referrals.ListForReferrer(ctx, referrerID, limit, offset)
	if err != nil {
		return nil, fmt.Errorf("list referrals: %w", err)
	}

	return list, nil
}

// MyCode returns the identity's code, assigning one on first use, with its
// referral stats.
func (s *Service) MyCode(ctx context.Context, identityID uuid.UUID) (MyCode, error) {
	code, err := s.EnsureCode(ctx, identityID)
	if err != nil {
		return MyCode{}, err
	}

	stats, err := s.referrals.StatsForReferrer(ctx, identityID)
	if err != nil {
		return MyCode{}, fmt.Errorf("referral stats: %w", err)
	}

	recent, err := s.referrals.ListForReferrer(ctx, identityID, RecentReferrals, 0)
	if err != nil {
		return MyCode{}, fmt.Errorf("list referrals: %w", err)
	}

	return MyCode{
		Code:      code,
		Link:      s.linkBase + code,
		Stats:     stats,
		Referrals: recent,
	}, nil
}

// EnsureCode returns the assigned code or assigns a fresh one.
func (s *Service) EnsureCode(ctx context.Context, identityID uuid.UUID) (string, error) {
	identity, err := s.identities.FindByID(ctx, identityID)
	if err != nil {
		return "", fmt.Errorf("find identity: %w", err)
	}

	if identity.ReferralCode != nil {
		return *identity.ReferralCode, nil
	}

	for range codeAssignAttempts {
		candidate, err := s.codes.Generate(ctx)
		if err != nil {
			return "", err
		}

		code, err := s.identities.AssignReferralCode(ctx, identityID, candidate)
		if errors.Is(err, identities.ErrReferralCodeTaken) {
			continue
		}

		if err != nil {
			return "", fmt.Errorf("assign referral code: %w", err)
		}

		return code, nil
	}

	return "", ErrCodeSpaceExhausted
}

func (s *Service) Settings(ctx context.Context) (settings.Settings, error) {
	st, err := s.settings.Get(ctx)
	if err != nil {
		return settings.Settings{}, fmt.Errorf("read settings: %w", err)
	}

	return st, nil
}

// UpdateSettings only affects referrals recorded afterwards; existing records
// keep their snapshots.
func (s *Service) UpdateSettings(ctx context.Context, u settings.Update) (settings.Settings, error) {
	st, err := s.settings.Update(ctx, u)
	if err != nil {
		return settings.Settings{}, fmt.Errorf("update settings: %w", err)
	}

	slog.InfoContext(ctx, "referral settings updated",
		"referrer_reward", st.ReferrerReward,
		"referred_reward", st.ReferredReward,
		"min_order_amount", st.MinOrderAmount,
		"is_active", st.IsActive,
	)

	return st, nil
}

func (s *Service) ListAll(ctx context.Context, limit, offset int) ([]referrals.Detailed, error) {
	limit, offset, err := ledger.NormalizePage(limit, offset)
	if err != nil {
		return nil, err
	}

	list, err := s.referrals.ListDetailed(ctx, limit, offset)
	if err != nil {
		return nil, fmt.Errorf("list all referrals: %w", err)
	}

	return list, nil
}

// RetryPending re-drives outbox rows left behind by failed registrations.
func (s *Service) RetryPending(ctx context.Context, maxAttempts, batch int) (RetryReport, error) {
	pending, err := s.referrals.ListPending(ctx, maxAttempts, batch)
	if err != nil {
		return RetryReport{}, fmt.Errorf("list pending rewards: %w", err)
	}

	var report RetryReport

	for _, p := range pending {
		_, err = s.RecordAndReward(ctx, p.ReferrerID, p.ReferredID, p.ReferralCode)
		if err == nil {
			report.Issued++
			continue
		}

		report.Failed++

		slog.WarnContext(ctx, "referral reward retry failed",
			"referrer_id", p.ReferrerID,
			"referred_id", p.ReferredID,
			"attempt", p.Attempts+1,
			"error", err,
		)

		markErr := s.referrals.MarkPendingFailed(ctx, p.ReferredID, err.Error())
		if markErr != nil {
			return report, fmt.Errorf("mark pending reward failed: %w", markErr)
		}
	}

	return report, nil
}
