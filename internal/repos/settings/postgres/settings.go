package settings

import (
	"context"
	"database/sql"

	"github.com/fastprodman/shopledger/internal/errs"
	"github.com/fastprodman/shopledger/internal/infra/pgutils"
	"github.com/fastprodman/shopledger/internal/repos/settings"
)

var _ settings.Store = (*settingsRepo)(nil)

type settingsRepo struct {
	db       *sql.DB
	defaults settings.Settings
}

// New returns a store that initializes the singleton from defaults.
func New(db *sql.DB, defaults settings.Settings) *settingsRepo {
	return &settingsRepo{db: db, defaults: defaults}
}

func (r *settingsRepo) Get(ctx context.Context) (settings.Settings, error) {
	_, err := r.db.ExecContext(ctx, `
		INSERT INTO referral_settings (id, referrer_reward, referred_reward, min_order_amount, is_active)
		VALUES (1, $1, $2, $3, $4)
		ON CONFLICT (id) DO NOTHING
	`, r.defaults.ReferrerReward, r.defaults.ReferredReward, r.defaults.MinOrderAmount, r.defaults.IsActive)
	if err != nil {
		return settings.Settings{}, errs.Unavailable("initialize referral settings", err)
	}

	var s settings.Settings

	err = r.db.QueryRowContext(ctx, `
		SELECT referrer_reward, referred_reward, min_order_amount, is_active, updated_at
		FROM referral_settings
		WHERE id = 1
	`).Scan(&s.ReferrerReward, &s.ReferredReward, &s.MinOrderAmount, &s.IsActive, &s.UpdatedAt)
	if err != nil {
		return settings.Settings{}, errs.Unavailable("read referral settings", err)
	}

	return s, nil
}

// Update upserts, so an update before the first read still starts from the
// defaults.
func (r *settingsRepo) Update(ctx context.Context, u settings.Update) (settings.Settings, error) {
	err := u.Validate()
	if err != nil {
		return settings.Settings{}, err
	}

	var s settings.Settings

	err = r.db.QueryRowContext(ctx, `
		INSERT INTO referral_settings (id, referrer_reward, referred_reward, min_order_amount, is_active)
		VALUES (
			1,
			COALESCE($1::BIGINT, $5::BIGINT),
			COALESCE($2::BIGINT, $6::BIGINT),
			COALESCE($3::BIGINT, $7::BIGINT),
			COALESCE($4::BOOLEAN, $8::BOOLEAN)
		)
		ON CONFLICT (id) DO UPDATE SET
			referrer_reward  = COALESCE($1::BIGINT, referral_settings.referrer_reward),
			referred_reward  = COALESCE($2::BIGINT, referral_settings.referred_reward),
			min_order_amount = COALESCE($3::BIGINT, referral_settings.min_order_amount),
			is_active        = COALESCE($4::BOOLEAN, referral_settings.is_active),
			updated_at       = now()
		RETURNING referrer_reward, referred_reward, min_order_amount, is_active, updated_at
	`,
		u.ReferrerReward, u.ReferredReward, u.MinOrderAmount, u.IsActive,
		r.defaults.ReferrerReward, r.defaults.ReferredReward, r.defaults.MinOrderAmount, r.defaults.IsActive,
	).Scan(&s.ReferrerReward, &s.ReferredReward, &s.MinOrderAmount, &s.IsActive, &s.UpdatedAt)
	if err != nil {
		_, check := pgutils.CheckViolation(err)
		if check {
			return settings.Settings{}, settings.ErrNegativeAmount
		}

		return settings.Settings{}, errs.Unavailable("update referral settings", err)
	}

	return s, nil
}
