package wallets

import (
	"context"
	"database/sql"
	"sync"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/fastprodman/shopledger/internal/infra/pgtestutil"
	"github.com/fastprodman/shopledger/internal/repos/wallets"
)

func seedIdentity(t *testing.T, db *sql.DB, email string) uuid.UUID {
	t.Helper()

	id := uuid.New()

	_, err := db.Exec(`
		INSERT INTO identities (id, email, password_hash, full_name)
		VALUES ($1, $2, 'h', $2)
	`, id, email)
	require.NoError(t, err)

	return id
}

func inTx(t *testing.T, db *sql.DB, fn func(tx *sql.Tx) error) error {
	t.Helper()

	tx, err := db.BeginTx(context.Background(), nil)
	require.NoError(t, err)

	err = fn(tx)
	if err != nil {
		_ = tx.Rollback()
		return err
	}

	require.NoError(t, tx.Commit())

	return nil
}

func TestWallets_GetOrCreate(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name    string
		seed    bool
		wantErr error
	}{
		{name: "creates_at_zero", seed: true},
		{name: "unknown_owner_fk_violation", seed: false, wantErr: wallets.ErrOwnerNotFound},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			db, cleanup := pgtestutil.NewTestDB(t)
			defer cleanup()

			repo := New(db)
			ctx := context.Background()

			owner := uuid.New()
			if tt.seed {
				owner = seedIdentity(t, db, "owner@example.com")
			}

			var got wallets.Wallet

			err := inTx(t, db, func(tx *sql.Tx) error {
				var err error
				got, err = repo.GetOrCreate(ctx, tx, owner)

				return err
			})
			if tt.wantErr != nil {
				require.ErrorIs(t, err, tt.wantErr)
				return
			}

			require.NoError(t, err)
			assert.Equal(t, owner, got.OwnerID)
			assert.Zero(t, got.Balance)

			again, err := repo.Get(ctx, owner)
			require.NoError(t, err)
			assert.Equal(t, got.ID, again.ID)
		})
	}
}

func TestWallets_GetOrCreate_ConcurrentConverges(t *testing.T) {
	t.Parallel()

	db, cleanup := pgtestutil.NewTestDB(t)
	defer cleanup()

	repo := New(db)
	owner := seedIdentity(t, db, "race@example.com")

	const workers = 8

	ids := make([]uuid.UUID, workers)

	var wg sync.WaitGroup

	for i := range workers {
		wg.Add(1)

		go func() {
			defer wg.Done()

			_ = inTx(t, db, func(tx *sql.Tx) error {
				w, err := repo.GetOrCreate(context.Background(), tx, owner)
				ids[i] = w.ID

				return err
			})
		}()
	}

	wg.Wait()

	for _, id := range ids {
		assert.Equal(t, ids[0], id)
	}

	var count int
	require.NoError(t, db.QueryRow(`SELECT COUNT(*) FROM wallets WHERE owner_id = $1`, owner).Scan(&count))
	assert.Equal(t, 1, count)
}

func TestWallets_ApplyDelta(t *testing.T) {
	t.Parallel()

	db, cleanup := pgtestutil.NewTestDB(t)
	defer cleanup()

	repo := New(db)
	ctx := context.Background()
	owner := seedIdentity(t, db, "delta@example.com")

	var balance int64

	err := inTx(t, db, func(tx *sql.Tx) error {
		_, err := repo.GetOrCreate(ctx, tx, owner)
		if err != nil {
			return err
		}

		_, err = repo.ApplyDelta(ctx, tx, owner, 1000)
		if err != nil {
			return err
		}

		balance, err = repo.ApplyDelta(ctx, tx, owner, -250)

		return err
	})
	require.NoError(t, err)
	assert.Equal(t, int64(750), balance)

	err = inTx(t, db, func(tx *sql.Tx) error {
		_, err := repo.ApplyDelta(ctx, tx, uuid.New(), 1)
		return err
	})
	require.ErrorIs(t, err, wallets.ErrWalletNotFound)
}

func TestWallets_FindDriftAndReset(t *testing.T) {
	t.Parallel()

	db, cleanup := pgtestutil.NewTestDB(t)
	defer cleanup()

	repo := New(db)
	ctx := context.Background()

	healthy := seedIdentity(t, db, "healthy@example.com")
	drifted := seedIdentity(t, db, "drifted@example.com")

	_, err := db.Exec(`
		INSERT INTO wallets (id, owner_id, balance) VALUES ($1, $2, 500), ($3, $4, 999)
	`, uuid.New(), healthy, uuid.New(), drifted)
	require.NoError(t, err)

	_, err = db.Exec(`
		INSERT INTO wallet_transactions (id, owner_id, amount, kind)
		VALUES ($1, $2, 500, 'credit'), ($3, $4, 700, 'credit'), ($5, $4, -200, 'debit')
	`, uuid.New(), healthy, uuid.New(), drifted, uuid.New())
	require.NoError(t, err)

	drift, err := repo.FindDrift(ctx)
	require.NoError(t, err)
	require.Len(t, drift, 1)
	assert.Equal(t, wallets.Drift{OwnerID: drifted, Cached: 999, Ledger: 500}, drift[0])

	var reset wallets.Drift

	err = inTx(t, db, func(tx *sql.Tx) error {
		var err error
		reset, err = repo.ResetToLedger(ctx, tx, drifted)

		return err
	})
	require.NoError(t, err)
	assert.Equal(t, int64(500), reset.Ledger)

	w, err := repo.Get(ctx, drifted)
	require.NoError(t, err)
	assert.Equal(t, int64(500), w.Balance)

	drift, err = repo.FindDrift(ctx)
	require.NoError(t, err)
	assert.Empty(t, drift)
}

func TestWallets_ListWithOwners(t *testing.T) {
	t.Parallel()

	db, cleanup := pgtestutil.NewTestDB(t)
	defer cleanup()

	repo := New(db)
	ctx := context.Background()
	owner := seedIdentity(t, db, "listed@example.com")

	err := inTx(t, db, func(tx *sql.Tx) error {
		_, err := repo.GetOrCreate(ctx, tx, owner)
		return err
	})
	require.NoError(t, err)

	list, err := repo.ListWithOwners(ctx)
	require.NoError(t, err)
	require.Len(t, list, 1)
	assert.Equal(t, "listed@example.com", list[0].OwnerEmail)
	assert.Equal(t, owner, list[0].OwnerID)
}
