package referrals

import (
	"context"
	"database/sql"
	"time"

	"github.com/google/uuid"

	"github.com/fastprodman/shopledger/internal/errs"
)

var (
	ErrSelfReferral    = errs.New(errs.ErrInvalidInput, "identity cannot refer itself")
	ErrUnknownIdentity = errs.New(errs.ErrNotFound, "referral identity not found")
)

type Status string

const (
	StatusPending   Status = "pending"
	StatusCompleted Status = "completed"
	StatusRewarded  Status = "rewarded"
)

// Done reports whether the referral counts as completed in stats.
func (s Status) Done() bool {
	return s == StatusCompleted || s == StatusRewarded
}

// Referral rewards are snapshots of the settings at creation time.
type Referral struct {
	ID             uuid.UUID
	ReferrerID     uuid.UUID
	ReferredID     uuid.UUID
	ReferralCode   string
	Status         Status
	ReferrerReward int64
	ReferredReward int64
	CreatedAt      time.Time
	RewardedAt     *time.Time
}

type Detailed struct {
	Referral
	ReferrerEmail string
	ReferrerName  string
	ReferredEmail string
	ReferredName  string
}

type Stats struct {
	Total       int
	Completed   int
	TotalEarned int64
}

// Pending is an outbox row for a referral reward that has not been issued.
type Pending struct {
	ReferredID   uuid.UUID
	ReferrerID   uuid.UUID
	ReferralCode string
	Attempts     int
	LastError    *string
	CreatedAt    time.Time
}

type Referrals interface {
	// Insert is a no-op when the (referrer, referred) pair exists: it returns
	// the stored record and created=false.
	Insert(ctx context.Context, tx *sql.Tx, r Referral) (ref Referral, created bool, err error)
	ListForReferrer(ctx context.Context, referrerID uuid.UUID, limit, offset int) ([]Referral, error)
	StatsForReferrer(ctx context.Context, referrerID uuid.UUID) (Stats, error)
	ListDetailed(ctx context.Context, limit, offset int) ([]Detailed, error)

	EnqueuePending(ctx context.Context, tx *sql.Tx, p Pending) error
	ResolvePending(ctx context.Context, tx *sql.Tx, referredID uuid.UUID) error
	ListPending(ctx context.Context, maxAttempts, limit int) ([]Pending, error)
	MarkPendingFailed(ctx context.Context, referredID uuid.UUID, reason string) error
}
