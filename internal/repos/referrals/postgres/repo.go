package referrals

import (
	"database/sql"

	"github.com/fastprodman/shopledger/internal/repos/referrals"
)

var _ referrals.Referrals = (*referralsRepo)(nil)

type referralsRepo struct{ db *sql.DB }

func New(db *sql.DB) *referralsRepo {
	return &referralsRepo{db: db}
}

const referralColumns = `
	id, referrer_id, referred_id, referral_code, status,
	referrer_reward, referred_reward, created_at, rewarded_at
`

type rowScanner interface {
	Scan(dest ...any) error
}

func scanReferral(row rowScanner, extra ...any) (referrals.Referral, error) {
	var (
		r      referrals.Referral
		status string
	)

	dest := []any{
		&r.ID, &r.ReferrerID, &r.ReferredID, &r.ReferralCode, &status,
		&r.ReferrerReward, &r.ReferredReward, &r.CreatedAt, &r.RewardedAt,
	}

	err := row.Scan(append(dest, extra...)...)
	if err != nil {
		return referrals.Referral{}, err
	}

	r.Status = referrals.Status(status)

	return r, nil
}
