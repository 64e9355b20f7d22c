package referrals

import (
	"context"
	"database/sql"

	"github.com/google/uuid"

	"github.com/fastprodman/shopledger/internal/errs"
	"github.com/fastprodman/shopledger/internal/repos/referrals"
)

func (r *referralsRepo) EnqueuePending(ctx context.Context, tx *sql.Tx, p referrals.Pending) error {
	_, err := tx.ExecContext(ctx, `
		INSERT INTO pending_referral_rewards (referred_id, referrer_id, referral_code)
		VALUES ($1, $2, $3)
		ON CONFLICT (referred_id) DO NOTHING
	`, p.ReferredID, p.ReferrerID, p.ReferralCode)
	if err != nil {
		return errs.Unavailable("enqueue pending reward", err)
	}

	return nil
}

func (r *referralsRepo) ResolvePending(ctx context.Context, tx *sql.Tx, referredID uuid.UUID) error {
	_, err := tx.ExecContext(ctx, `
		DELETE FROM pending_referral_rewards
		WHERE referred_id = $1
	`, referredID)
	if err != nil {
		return errs.Unavailable("resolve pending reward", err)
	}

	return nil
}

// ListPending returns the oldest rows that still have attempts left.
func (r *referralsRepo) ListPending(ctx context.Context, maxAttempts, limit int) ([]referrals.Pending, error) {
	rows, err := r.db.QueryContext(ctx, `
		SELECT referred_id, referrer_id, referral_code, attempts, last_error, created_at
		FROM pending_referral_rewards
		WHERE attempts < $1
		ORDER BY created_at, referred_id
		LIMIT $2
	`, maxAttempts, limit)
	if err != nil {
		return nil, errs.Unavailable("list pending rewards", err)
	}
	//nolint:errcheck
	defer rows.Close()

	var out []referrals.Pending

	for rows.Next() {
		var p referrals.Pending

		err = rows.Scan(&p.ReferredID, &p.ReferrerID, &p.ReferralCode, &p.Attempts, &p.LastError, &p.CreatedAt)
		if err != nil {
			return nil, errs.Unavailable("scan pending reward", err)
		}

		out = append(out, p)
	}

	err = rows.Err()
	if err != nil {
		return nil, errs.Unavailable("iterate pending rewards", err)
	}

	return out, nil
}

func (r *referralsRepo) MarkPendingFailed(ctx context.Context, referredID uuid.UUID, reason string) error {
	_, err := r.db.ExecContext(ctx, `
		UPDATE pending_referral_rewards
		SET attempts = attempts + 1, last_error = $2, updated_at = now()
		WHERE referred_id = $1
	`, referredID, reason)
	if err != nil {
		return errs.Unavailable("mark pending reward failed", err)
	}

	return nil
}
