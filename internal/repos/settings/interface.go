package settings

import (
	"context"
	"time"

	"github.com/fastprodman/shopledger/internal/errs"
)

var ErrNegativeAmount = errs.New(errs.ErrInvalidInput, "reward and minimum order amounts must not be negative")

// Settings is the referral program singleton. Amounts are minor units.
type Settings struct {
	ReferrerReward int64
	ReferredReward int64
	MinOrderAmount int64
	IsActive       bool
	UpdatedAt      time.Time
}

// Update is a partial update; nil fields are left as they are.
type Update struct {
	ReferrerReward *int64
	ReferredReward *int64
	MinOrderAmount *int64
	IsActive       *bool
}

func (u Update) Validate() error {
	for _, v := range []*int64{u.ReferrerReward, u.ReferredReward, u.MinOrderAmount} {
		if v != nil && *v < 0 {
			return ErrNegativeAmount
		}
	}

	return nil
}

type Store interface {
	// Get materializes the defaults when the singleton does not exist yet.
	Get(ctx context.Context) (Settings, error)
	Update(ctx context.Context, u Update) (Settings, error)
}
