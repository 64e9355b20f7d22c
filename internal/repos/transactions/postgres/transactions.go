package transactions

import (
	"context"
	"database/sql"

	"github.com/google/uuid"

	"github.com/fastprodman/shopledger/internal/errs"
	"github.com/fastprodman/shopledger/internal/infra/pgutils"
	"github.com/fastprodman/shopledger/internal/repos/transactions"
)

var _ transactions.Transactions = (*transactionsRepo)(nil)

type transactionsRepo struct{ db *sql.DB }

func New(db *sql.DB) *transactionsRepo {
	return &transactionsRepo{db: db}
}

func (r *transactionsRepo) Insert(ctx context.Context, tx *sql.Tx, t transactions.Transaction) (transactions.Transaction, error) {
	if !t.Kind.Valid() {
		return transactions.Transaction{}, transactions.ErrInvalidKind
	}

	if t.ID == uuid.Nil {
		t.ID = uuid.New()
	}

	err := tx.QueryRowContext(ctx, `
		INSERT INTO wallet_transactions (id, owner_id, amount, kind, description, reference_id)
		VALUES ($1, $2, $3, $4, $5, $6)
		RETURNING seq, created_at
	`, t.ID, t.OwnerID, t.Amount, string(t.Kind), t.Description, t.ReferenceID).Scan(&t.Seq, &t.CreatedAt)
	if err != nil {
		_, dup := pgutils.UniqueViolation(err)
		if dup {
			return transactions.Transaction{}, transactions.ErrDuplicateTransaction
		}

		_, fk := pgutils.ForeignKeyViolation(err)
		if fk {
			return transactions.Transaction{}, transactions.ErrWalletNotFound
		}

		return transactions.Transaction{}, errs.Unavailable("insert transaction", err)
	}

	return t, nil
}

func (r *transactionsRepo) ListRecent(ctx context.Context, ownerID uuid.UUID, limit, offset int) ([]transactions.Transaction, error) {
	rows, err := r.db.QueryContext(ctx, `
		SELECT seq, id, owner_id, amount, kind, description, reference_id, created_at
		FROM wallet_transactions
		WHERE owner_id = $1
		ORDER BY created_at DESC, seq DESC
		LIMIT $2 OFFSET $3
	`, ownerID, limit, offset)
	if err != nil {
		return nil, errs.Unavailable("list transactions", err)
	}
	//nolint:errcheck
	defer rows.Close()

	out := make([]transactions.Transaction, 0, limit)

	for rows.Next() {
		var (
			t    transactions.Transaction
			kind string
		)

		err = rows.Scan(&t.Seq, &t.ID, &t.OwnerID, &t.Amount, &kind, &t.Description, &t.ReferenceID, &t.CreatedAt)
		if err != nil {
			return nil, errs.Unavailable("scan transaction", err)
		}

		t.Kind = transactions.Kind(kind)
		out = append(out, t)
	}

	err = rows.Err()
	if err != nil {
		return nil, errs.Unavailable("iterate transactions", err)
	}

	return out, nil
}
