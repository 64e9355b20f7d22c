package wallets

import (
	"context"
	"database/sql"
	"errors"

	"github.com/google/uuid"

	"github.com/fastprodman/shopledger/internal/errs"
	"github.com/fastprodman/shopledger/internal/repos/wallets"
)

func (r *walletsRepo) FindDrift(ctx context.Context) ([]wallets.Drift, error) {
	rows, err := r.db.QueryContext(ctx, `
		SELECT w.owner_id, w.balance, COALESCE(SUM(t.amount), 0)::BIGINT AS ledger
		FROM wallets w
		LEFT JOIN wallet_transactions t ON t.owner_id = w.owner_id
		GROUP BY w.owner_id, w.balance
		HAVING w.balance <> COALESCE(SUM(t.amount), 0)
	`)
	if err != nil {
		return nil, errs.Unavailable("find wallet drift", err)
	}
	//nolint:errcheck
	defer rows.Close()

	var out []wallets.Drift

	for rows.Next() {
		var d wallets.Drift

		err = rows.Scan(&d.OwnerID, &d.Cached, &d.Ledger)
		if err != nil {
			return nil, errs.Unavailable("scan wallet drift", err)
		}

		out = append(out, d)
	}

	err = rows.Err()
	if err != nil {
		return nil, errs.Unavailable("iterate wallet drift", err)
	}

	return out, nil
}

func (r *walletsRepo) ResetToLedger(ctx context.Context, tx *sql.Tx, ownerID uuid.UUID) (wallets.Drift, error) {
	d := wallets.Drift{OwnerID: ownerID}

	err := tx.QueryRowContext(ctx, `
		SELECT balance
		FROM wallets
		WHERE owner_id = $1
		FOR UPDATE
	`, ownerID).Scan(&d.Cached)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return wallets.Drift{}, wallets.ErrWalletNotFound
		}

		return wallets.Drift{}, errs.Unavailable("lock wallet", err)
	}

	err = tx.QueryRowContext(ctx, `
		SELECT COALESCE(SUM(amount), 0)::BIGINT
		FROM wallet_transactions
		WHERE owner_id = $1
	`, ownerID).Scan(&d.Ledger)
	if err != nil {
		return wallets.Drift{}, errs.Unavailable("sum wallet log", err)
	}

	if d.Cached == d.Ledger {
		return d, nil
	}

	_, err = tx.ExecContext(ctx, `
		UPDATE wallets
		SET balance = $2, updated_at = now()
		WHERE owner_id = $1
	`, ownerID, d.Ledger)
	if err != nil {
		return wallets.Drift{}, errs.Unavailable("reset wallet balance", err)
	}

	return d, nil
}
