package wallets

import (
	"context"
	"database/sql"
	"errors"

	"github.com/google/uuid"

	"github.com/fastprodman/shopledger/internal/errs"
	"github.com/fastprodman/shopledger/internal/repos/wallets"
)

func (r *walletsRepo) Get(ctx context.Context, ownerID uuid.UUID) (wallets.Wallet, error) {
	var w wallets.Wallet

	err := r.db.QueryRowContext(ctx, `
		SELECT id, owner_id, balance, created_at, updated_at
		FROM wallets
		WHERE owner_id = $1
	`, ownerID).Scan(&w.ID, &w.OwnerID, &w.Balance, &w.CreatedAt, &w.UpdatedAt)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return wallets.Wallet{}, wallets.ErrWalletNotFound
		}

		return wallets.Wallet{}, errs.Unavailable("get wallet", err)
	}

	return w, nil
}

func (r *walletsRepo) ListWithOwners(ctx context.Context) ([]wallets.WithOwner, error) {
	rows, err := r.db.QueryContext(ctx, `
		SELECT w.id, w.owner_id, w.balance, w.created_at, w.updated_at, i.email, i.full_name
		FROM wallets w
		JOIN identities i ON i.id = w.owner_id
		ORDER BY w.created_at DESC, w.id
	`)
	if err != nil {
		return nil, errs.Unavailable("list wallets", err)
	}
	//nolint:errcheck
	defer rows.Close()

	var out []wallets.WithOwner

	for rows.Next() {
		var w wallets.WithOwner

		err = rows.Scan(&w.ID, &w.OwnerID, &w.Balance, &w.CreatedAt, &w.UpdatedAt, &w.OwnerEmail, &w.OwnerName)
		if err != nil {
			return nil, errs.Unavailable("scan wallet", err)
		}

		out = append(out, w)
	}

	err = rows.Err()
	if err != nil {
		return nil, errs.Unavailable("iterate wallets", err)
	}

	return out, nil
}
