package referrals

import (
	"context"
	"database/sql"
	"errors"

	"github.com/google/uuid"

	"github.com/fastprodman/shopledger/internal/errs"
	"github.com/fastprodman/shopledger/internal/infra/pgutils"
	"github.com/fastprodman/shopledger/internal/repos/referrals"
)

func (r *referralsRepo) Insert(ctx context.Context, tx *sql.Tx, in referrals.Referral) (referrals.Referral, bool, error) {
	if in.ReferrerID == in.ReferredID {
		return referrals.Referral{}, false, referrals.ErrSelfReferral
	}

	if in.ID == uuid.Nil {
		in.ID = uuid.New()
	}

	row := tx.QueryRowContext(ctx, `
		INSERT INTO referrals (
			id, referrer_id, referred_id, referral_code, status,
			referrer_reward, referred_reward, rewarded_at
		)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
		ON CONFLICT (referrer_id, referred_id) DO NOTHING
		RETURNING `+referralColumns,
		in.ID, in.ReferrerID, in.ReferredID, in.ReferralCode, string(in.Status),
		in.ReferrerReward, in.ReferredReward, in.RewardedAt,
	)

	out, err := scanReferral(row)
	if err == nil {
		return out, true, nil
	}

	if !errors.Is(err, sql.ErrNoRows) {
		_, fk := pgutils.ForeignKeyViolation(err)
		if fk {
			return referrals.Referral{}, false, referrals.ErrUnknownIdentity
		}

		return referrals.Referral{}, false, errs.Unavailable("insert referral", err)
	}

	// The pair already exists. ON CONFLICT waited for the other writer, so
	// its row is visible to this statement.
	row = tx.QueryRowContext(ctx, `
		SELECT `+referralColumns+`
		FROM referrals
		WHERE referrer_id = $1 AND referred_id = $2
	`, in.ReferrerID, in.ReferredID)

	out, err = scanReferral(row)
	if err != nil {
		return referrals.Referral{}, false, errs.Unavailable("load existing referral", err)
	}

	return out, false, nil
}
