package referrals

import (
	"context"

	"github.com/google/uuid"

	"github.com/fastprodman/shopledger/internal/errs"
	"github.com/fastprodman/shopledger/internal/repos/referrals"
)

func (r *referralsRepo) ListForReferrer(ctx context.Context, referrerID uuid.UUID, limit, offset int) ([]referrals.Referral, error) {
	rows, err := r.db.QueryContext(ctx, `
		SELECT `+referralColumns+`
		FROM referrals
		WHERE referrer_id = $1
		ORDER BY created_at DESC, id
		LIMIT $2 OFFSET $3
	`, referrerID, limit, offset)
	if err != nil {
		return nil, errs.Unavailable("list referrals", err)
	}
	//nolint:errcheck
	defer rows.Close()

	out := make([]referrals.Referral, 0, limit)

	for rows.Next() {
		ref, err := scanReferral(rows)
		if err != nil {
			return nil, errs.Unavailable("scan referral", err)
		}

		out = append(out, ref)
	}

	err = rows.Err()
	if err != nil {
		return nil, errs.Unavailable("iterate referrals", err)
	}

	return out, nil
}

func (r *referralsRepo) StatsForReferrer(ctx context.Context, referrerID uuid.UUID) (referrals.Stats, error) {
	var s referrals.Stats

	err := r.db.QueryRowContext(ctx, `
		SELECT
			COUNT(*),
			COUNT(*) FILTER (WHERE status IN ('completed', 'rewarded')),
			COALESCE(SUM(referrer_reward) FILTER (WHERE status IN ('completed', 'rewarded')), 0)::BIGINT
		FROM referrals
		WHERE referrer_id = $1
	`, referrerID).Scan(&s.Total, &s.Completed, &s.TotalEarned)
	if err != nil {
		return referrals.Stats{}, errs.Unavailable("referral stats", err)
	}

	return s, nil
}

func (r *referralsRepo) ListDetailed(ctx context.Context, limit, offset int) ([]referrals.Detailed, error) {
	rows, err := r.db.QueryContext(ctx, `
		SELECT
			r.id, r.referrer_id, r.referred_id, r.referral_code, r.status,
			r.referrer_reward, r.referred_reward, r.created_at, r.rewarded_at,
			rr.email, rr.full_name, rd.email, rd.full_name
		FROM referrals r
		JOIN identities rr ON rr.id = r.referrer_id
		JOIN identities rd ON rd.id = r.referred_id
		ORDER BY r.created_at DESC, r.id
		LIMIT $1 OFFSET $2
	`, limit, offset)
	if err != nil {
		return nil, errs.Unavailable("list referrals", err)
	}
	//nolint:errcheck
	defer rows.Close()

	out := make([]referrals.Detailed, 0, limit)

	for rows.Next() {
		var d referrals.Detailed

		d.Referral, err = scanReferral(rows, &d.ReferrerEmail, &d.ReferrerName, &d.ReferredEmail, &d.ReferredName)
		if err != nil {
			return nil, errs.Unavailable("scan referral", err)
		}

		out = append(out, d)
	}

	err = rows.Err()
	if err != nil {
		return nil, errs.Unavailable("iterate referrals", err)
	}

	return out, nil
}
