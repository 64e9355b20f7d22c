package identities

import (
	"context"
	"database/sql"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/fastprodman/shopledger/internal/infra/pgtestutil"
	"github.com/fastprodman/shopledger/internal/repos/identities"
)

func strPtr(s string) *string { return &s }

func insertIdentity(t *testing.T, db *sql.DB, repo *identitiesRepo, in identities.Identity) (identities.Identity, error) {
	t.Helper()

	ctx := context.Background()

	tx, err := db.BeginTx(ctx, nil)
	require.NoError(t, err)

	out, err := repo.Insert(ctx, tx, in)
	if err != nil {
		_ = tx.Rollback()
		return out, err
	}

	require.NoError(t, tx.Commit())

	return out, nil
}

func TestIdentities_Insert(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name    string
		seed    []identities.Identity
		in      identities.Identity
		wantErr error
	}{
		{
			name: "ok_insert",
			in: identities.Identity{
				Email: "ann@example.com", PasswordHash: "h", FullName: "Ann",
				ReferralCode: strPtr("ANN00001"), IsActive: true,
			},
		},
		{
			name: "duplicate_email",
			seed: []identities.Identity{
				{Email: "bob@example.com", PasswordHash: "h", FullName: "Bob", IsActive: true},
			},
			in:      identities.Identity{Email: "bob@example.com", PasswordHash: "h", FullName: "Bob 2"},
			wantErr: identities.ErrEmailTaken,
		},
		{
			name: "duplicate_referral_code",
			seed: []identities.Identity{
				{Email: "c1@example.com", PasswordHash: "h", FullName: "C1", ReferralCode: strPtr("SAMECODE")},
			},
			in:      identities.Identity{Email: "c2@example.com", PasswordHash: "h", FullName: "C2", ReferralCode: strPtr("SAMECODE")},
			wantErr: identities.ErrReferralCodeTaken,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			db, cleanup := pgtestutil.NewTestDB(t)
			defer cleanup()

			repo := New(db)

			for _, s := range tt.seed {
				_, err := insertIdentity(t, db, repo, s)
				require.NoError(t, err)
			}

			out, err := insertIdentity(t, db, repo, tt.in)
			if tt.wantErr != nil {
				require.ErrorIs(t, err, tt.wantErr)
				return
			}

			require.NoError(t, err)
			assert.NotEqual(t, uuid.Nil, out.ID)
			assert.Equal(t, identities.RoleCustomer, out.Role)
			assert.False(t, out.CreatedAt.IsZero())

			got, err := repo.FindByEmail(context.Background(), tt.in.Email)
			require.NoError(t, err)
			assert.Equal(t, out.ID, got.ID)
		})
	}
}

func TestIdentities_FindByReferralCode_ExactMatch(t *testing.T) {
	t.Parallel()

	db, cleanup := pgtestutil.NewTestDB(t)
	defer cleanup()

	repo := New(db)
	ctx := context.Background()

	ref, err := insertIdentity(t, db, repo, identities.Identity{
		Email: "ref@example.com", PasswordHash: "h", FullName: "Ref", ReferralCode: strPtr("AB12CD34"),
	})
	require.NoError(t, err)

	got, err := repo.FindByReferralCode(ctx, "AB12CD34")
	require.NoError(t, err)
	assert.Equal(t, ref.ID, got.ID)

	for _, code := range []string{"ab12cd34", "AB12CD35", "AB12CD3", ""} {
		_, err = repo.FindByReferralCode(ctx, code)
		require.ErrorIs(t, err, identities.ErrNotFound, "code %q", code)
	}

	exists, err := repo.ReferralCodeExists(ctx, "AB12CD34")
	require.NoError(t, err)
	assert.True(t, exists)

	exists, err = repo.ReferralCodeExists(ctx, "ZZZZZZZZ")
	require.NoError(t, err)
	assert.False(t, exists)
}

func TestIdentities_AssignReferralCode(t *testing.T) {
	t.Parallel()

	db, cleanup := pgtestutil.NewTestDB(t)
	defer cleanup()

	repo := New(db)
	ctx := context.Background()

	legacy, err := insertIdentity(t, db, repo, identities.Identity{
		Email: "legacy@example.com", PasswordHash: "h", FullName: "Legacy",
	})
	require.NoError(t, err)

	other, err := insertIdentity(t, db, repo, identities.Identity{
		Email: "other@example.com", PasswordHash: "h", FullName: "Other", ReferralCode: strPtr("TAKEN001"),
	})
	require.NoError(t, err)

	_, err = repo.AssignReferralCode(ctx, legacy.ID, other.Code())
	require.ErrorIs(t, err, identities.ErrReferralCodeTaken)

	code, err := repo.AssignReferralCode(ctx, legacy.ID, "FRESH001")
	require.NoError(t, err)
	assert.Equal(t, "FRESH001", code)

	// Assigned at most once.
	code, err = repo.AssignReferralCode(ctx, legacy.ID, "FRESH002")
	require.NoError(t, err)
	assert.Equal(t, "FRESH001", code)

	_, err = repo.AssignReferralCode(ctx, uuid.New(), "FRESH003")
	require.ErrorIs(t, err, identities.ErrNotFound)
}
