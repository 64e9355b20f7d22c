package transactions

import (
	"context"
	"database/sql"
	"errors"
	"testing"
	"time"

	"github.com/google/uuid"

	"github.com/fastprodman/shopledger/internal/infra/pgtestutil"
	"github.com/fastprodman/shopledger/internal/repos/transactions"
)

func seedWallet(t *testing.T, db *sql.DB) uuid.UUID {
	t.Helper()

	owner := uuid.New()

	_, err := db.Exec(`
		INSERT INTO identities (id, email, password_hash, full_name)
		VALUES ($1, $2, 'h', 'Owner')
	`, owner, owner.String()+"@example.com")
	if err != nil {
		t.Fatalf("seed identity: %v", err)
	}

	_, err = db.Exec(`INSERT INTO wallets (id, owner_id, balance) VALUES ($1, $2, 0)`, uuid.New(), owner)
	if err != nil {
		t.Fatalf("seed wallet: %v", err)
	}

	return owner
}

func TestTransactions_Insert(t *testing.T) {
	t.Parallel()

	dupID := uuid.New()

	tests := []struct {
		name    string
		seed    func(db *sql.DB, owner uuid.UUID) // prepare transactions if needed
		in      func(owner uuid.UUID) transactions.Transaction
		wantErr error
	}{
		{
			name: "ok_insert",
			in: func(owner uuid.UUID) transactions.Transaction {
				ref := "order-1"

				return transactions.Transaction{
					OwnerID: owner, Amount: 1000, Kind: transactions.KindCredit,
					Description: "Admin top-up", ReferenceID: &ref,
				}
			},
		},
		{
			name: "negative_credit_allowed",
			in: func(owner uuid.UUID) transactions.Transaction {
				return transactions.Transaction{OwnerID: owner, Amount: -5, Kind: transactions.KindCredit}
			},
		},
		{
			name: "duplicate_transaction",
			seed: func(db *sql.DB, owner uuid.UUID) {
				_, err := db.Exec(`
					INSERT INTO wallet_transactions (id, owner_id, amount, kind) VALUES ($1, $2, 1, 'credit')
				`, dupID, owner)
				if err != nil {
					t.Fatalf("seed tx: %v", err)
				}
			},
			in: func(owner uuid.UUID) transactions.Transaction {
				return transactions.Transaction{ID: dupID, OwnerID: owner, Amount: 1, Kind: transactions.KindCredit}
			},
			wantErr: transactions.ErrDuplicateTransaction,
		},
		{
			name: "wallet_not_exist_fk_violation",
			in: func(uuid.UUID) transactions.Transaction {
				return transactions.Transaction{OwnerID: uuid.New(), Amount: 1, Kind: transactions.KindCredit}
			},
			wantErr: transactions.ErrWalletNotFound,
		},
		{
			name: "invalid_kind",
			in: func(owner uuid.UUID) transactions.Transaction {
				return transactions.Transaction{OwnerID: owner, Amount: 1, Kind: "gift"}
			},
			wantErr: transactions.ErrInvalidKind,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			db, cleanup := pgtestutil.NewTestDB(t)
			defer cleanup()

			repo := New(db)
			owner := seedWallet(t, db)

			if tt.seed != nil {
				tt.seed(db, owner)
			}

			ctx := context.Background()
			tx, err := db.BeginTx(ctx, nil)
			if err != nil {
				t.Fatalf("begin tx: %v", err)
			}
			//nolint:errcheck
			defer tx.Rollback()

			got, err := repo.Insert(ctx, tx, tt.in(owner))

			if tt.wantErr == nil {
				if err != nil {
					t.Fatalf("unexpected error: %v", err)
				}

				if got.ID == uuid.Nil || got.Seq == 0 || got.CreatedAt.IsZero() {
					t.Fatalf("expected generated id/seq/created_at, got %+v", got)
				}

				return
			}

			if !errors.Is(err, tt.wantErr) {
				t.Fatalf("unexpected error: got %v, want %v", err, tt.wantErr)
			}
		})
	}
}

func TestTransactions_ListRecent_OrderAndPaging(t *testing.T) {
	t.Parallel()

	db, cleanup := pgtestutil.NewTestDB(t)
	defer cleanup()

	repo := New(db)
	owner := seedWallet(t, db)
	ctx := context.Background()

	// Same created_at for all rows: seq decides.
	at := time.Date(2025, 1, 1, 12, 0, 0, 0, time.UTC)
	for i := 1; i <= 5; i++ {
		_, err := db.Exec(`
			INSERT INTO wallet_transactions (id, owner_id, amount, kind, created_at)
			VALUES ($1, $2, $3, 'credit', $4)
		`, uuid.New(), owner, int64(i), at)
		if err != nil {
			t.Fatalf("seed tx %d: %v", i, err)
		}
	}

	page, err := repo.ListRecent(ctx, owner, 2, 0)
	if err != nil {
		t.Fatalf("list: %v", err)
	}

	if len(page) != 2 || page[0].Amount != 5 || page[1].Amount != 4 {
		t.Fatalf("first page: got %+v", page)
	}

	page, err = repo.ListRecent(ctx, owner, 2, 4)
	if err != nil {
		t.Fatalf("list: %v", err)
	}

	if len(page) != 1 || page[0].Amount != 1 {
		t.Fatalf("last page: got %+v", page)
	}
}
