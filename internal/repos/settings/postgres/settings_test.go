package settings

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/fastprodman/shopledger/internal/infra/pgtestutil"
	"github.com/fastprodman/shopledger/internal/repos/settings"
)

var defaults = settings.Settings{ReferrerReward: 500, ReferredReward: 500, IsActive: true}

func ptr[T any](v T) *T { return &v }

func TestSettings_GetMaterializesDefaults(t *testing.T) {
	t.Parallel()

	db, cleanup := pgtestutil.NewTestDB(t)
	defer cleanup()

	repo := New(db, defaults)
	ctx := context.Background()

	var rows int
	require.NoError(t, db.QueryRow(`SELECT COUNT(*) FROM referral_settings`).Scan(&rows))
	assert.Zero(t, rows, "uninitialized before first read")

	s, err := repo.Get(ctx)
	require.NoError(t, err)
	assert.Equal(t, int64(500), s.ReferrerReward)
	assert.Equal(t, int64(500), s.ReferredReward)
	assert.Zero(t, s.MinOrderAmount)
	assert.True(t, s.IsActive)

	require.NoError(t, db.QueryRow(`SELECT COUNT(*) FROM referral_settings`).Scan(&rows))
	assert.Equal(t, 1, rows)

	// Defaults only apply once.
	_, err = New(db, settings.Settings{ReferrerReward: 1}).Get(ctx)
	require.NoError(t, err)

	s, err = repo.Get(ctx)
	require.NoError(t, err)
	assert.Equal(t, int64(500), s.ReferrerReward)
}

func TestSettings_Update(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name    string
		readFst bool
		update  settings.Update
		want    settings.Settings
		wantErr error
	}{
		{
			name:    "partial_after_read",
			readFst: true,
			update:  settings.Update{ReferrerReward: ptr(int64(750)), ReferredReward: ptr(int64(750)), MinOrderAmount: ptr(int64(2500))},
			want:    settings.Settings{ReferrerReward: 750, ReferredReward: 750, MinOrderAmount: 2500, IsActive: true},
		},
		{
			name:   "before_first_read_starts_from_defaults",
			update: settings.Update{IsActive: ptr(false)},
			want:   settings.Settings{ReferrerReward: 500, ReferredReward: 500, IsActive: false},
		},
		{
			name:    "negative_rejected",
			update:  settings.Update{ReferredReward: ptr(int64(-1))},
			wantErr: settings.ErrNegativeAmount,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			db, cleanup := pgtestutil.NewTestDB(t)
			defer cleanup()

			repo := New(db, defaults)
			ctx := context.Background()

			if tt.readFst {
				_, err := repo.Get(ctx)
				require.NoError(t, err)
			}

			got, err := repo.Update(ctx, tt.update)
			if tt.wantErr != nil {
				require.ErrorIs(t, err, tt.wantErr)
				return
			}

			require.NoError(t, err)
			got.UpdatedAt = tt.want.UpdatedAt
			assert.Equal(t, tt.want, got)
		})
	}
}
