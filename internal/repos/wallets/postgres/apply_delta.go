package wallets

import (
	"context"
	"database/sql"
	"errors"

	"github.com/google/uuid"

	"github.com/fastprodman/shopledger/internal/errs"
	"github.com/fastprodman/shopledger/internal/repos/wallets"
)

func (r *walletsRepo) ApplyDelta(ctx context.Context, tx *sql.Tx, ownerID uuid.UUID, delta int64) (int64, error) {
	var balance int64

	err := tx.QueryRowContext(ctx, `
		UPDATE wallets
		SET balance = balance + $2, updated_at = now()
		WHERE owner_id = $1
		RETURNING balance
	`, ownerID, delta).Scan(&balance)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return 0, wallets.ErrWalletNotFound
		}

		return 0, errs.Unavailable("apply balance delta", err)
	}

	return balance, nil
}
