package wallets

import (
	"context"
	"database/sql"
	"errors"

	"github.com/google/uuid"

	"github.com/fastprodman/shopledger/internal/errs"
	"github.com/fastprodman/shopledger/internal/infra/pgutils"
	"github.com/fastprodman/shopledger/internal/repos/wallets"
)

// GetOrCreate relies on the owner_id unique constraint: concurrent callers
// both insert-or-skip and then queue on the same row lock.
func (r *walletsRepo) GetOrCreate(ctx context.Context, tx *sql.Tx, ownerID uuid.UUID) (wallets.Wallet, error) {
	_, err := tx.ExecContext(ctx, `
		INSERT INTO wallets (id, owner_id, balance)
		VALUES ($1, $2, 0)
		ON CONFLICT (owner_id) DO NOTHING
	`, uuid.New(), ownerID)
	if err != nil {
		_, fk := pgutils.ForeignKeyViolation(err)
		if fk {
			return wallets.Wallet{}, wallets.ErrOwnerNotFound
		}

		return wallets.Wallet{}, errs.Unavailable("create wallet", err)
	}

	var w wallets.Wallet

	err = tx.QueryRowContext(ctx, `
		SELECT id, owner_id, balance, created_at, updated_at
		FROM wallets
		WHERE owner_id = $1
		FOR UPDATE
	`, ownerID).Scan(&w.ID, &w.OwnerID, &w.Balance, &w.CreatedAt, &w.UpdatedAt)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return wallets.Wallet{}, wallets.ErrWalletNotFound
		}

		return wallets.Wallet{}, errs.Unavailable("lock wallet", err)
	}

	return w, nil
}
