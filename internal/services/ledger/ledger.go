package ledger

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"

	"github.com/google/uuid"

	"github.com/fastprodman/shopledger/internal/infra/metrics"
	"github.com/fastprodman/shopledger/internal/infra/pgutils"
	"github.com/fastprodman/shopledger/internal/repos/transactions"
	"github.com/fastprodman/shopledger/internal/repos/wallets"
)

// Service keeps wallet balances and the transaction log in step: every
// balance change and its log entry commit in the same DB transaction.
type Service struct {
	db      *sql.DB
	wallets wallets.Wallets
	txns    transactions.Transactions
}

func New(db *sql.DB, w wallets.Wallets, t transactions.Transactions) *Service {
	return &Service{db: db, wallets: w, txns: t}
}

// GetOrCreateWallet returns the owner's wallet, creating it at zero.
func (s *Service) GetOrCreateWallet(ctx context.Context, ownerID uuid.UUID) (wallets.Wallet, error) {
	var w wallets.Wallet

	err := pgutils.WithTx(ctx, s.db, func(tx *sql.Tx) error {
		var err error
		w, err = s.OpenWallet(ctx, tx, ownerID)

		return err
	})
	if err != nil {
		return wallets.Wallet{}, fmt.Errorf("get or create wallet: %w", err)
	}

	return w, nil
}

// OpenWallet is GetOrCreateWallet inside a caller-owned transaction.
func (s *Service) OpenWallet(ctx context.Context, tx *sql.Tx, ownerID uuid.UUID) (wallets.Wallet, error) {
	w, err := s.wallets.GetOrCreate(ctx, tx, ownerID)
	if err != nil {
		return wallets.Wallet{}, fmt.Errorf("open wallet: %w", err)
	}

	return w, nil
}

// Apply runs the balance update and the log append inside tx:
//
// 1) Get or create the wallet and lock its row.
// 2) Apply the delta.
// 3) Append the transaction.
func (s *Service) Apply(ctx context.Context, tx *sql.Tx, e Entry) (Result, error) {
	if !e.Kind.Valid() {
		return Result{}, transactions.ErrInvalidKind
	}

	_, err := s.wallets.GetOrCreate(ctx, tx, e.OwnerID)
	if err != nil {
		return Result{}, fmt.Errorf("lock wallet: %w", err)
	}

	balance, err := s.wallets.ApplyDelta(ctx, tx, e.OwnerID, e.Amount)
	if err != nil {
		return Result{}, fmt.Errorf("apply delta: %w", err)
	}

	t, err := s.txns.Insert(ctx, tx, transactions.Transaction{
		OwnerID:     e.OwnerID,
		Amount:      e.Amount,
		Kind:        e.Kind,
		Description: e.Description,
		ReferenceID: e.ReferenceID,
	})
	if err != nil {
		return Result{}, fmt.Errorf("insert transaction: %w", err)
	}

	return Result{Transaction: t, Balance: balance}, nil
}

// AdjustBalance applies e in its own DB transaction.
func (s *Service) AdjustBalance(ctx context.Context, e Entry) (Result, error) {
	var res Result

	err := pgutils.WithTx(ctx, s.db, func(tx *sql.Tx) error {
		var err error
		res, err = s.Apply(ctx, tx, e)

		return err
	})
	if err != nil {
		return Result{}, fmt.Errorf("adjust balance: %w", err)
	}

	slog.InfoContext(ctx, "balance adjusted",
		"owner_id", e.OwnerID,
		"amount", e.Amount,
		"kind", e.Kind,
		"balance", res.Balance,
	)

	return res, nil
}

// TopUp is the admin adjustment: credit for positive amounts, debit for
// negative ones.
func (s *Service) TopUp(ctx context.Context, ownerID uuid.UUID, amount int64, description string) (Result, error) {
	if amount == 0 {
		return Result{}, ErrZeroAmount
	}

	kind := transactions.KindCredit
	if amount < 0 {
		kind = transactions.KindDebit
	}

	if description == "" {
		description = DefaultTopUpDescription
	}

	return s.AdjustBalance(ctx, Entry{
		OwnerID:     ownerID,
		Amount:      amount,
		Kind:        kind,
		Description: description,
	})
}

// Overview returns the wallet, created lazily, and its most recent entries.
// An existing wallet is read without opening a transaction.
func (s *Service) Overview(ctx context.Context, ownerID uuid.UUID) (Overview, error) {
	w, err := s.wallets.Get(ctx, ownerID)
	if errors.Is(err, wallets.ErrWalletNotFound) {
		w, err = s.GetOrCreateWallet(ctx, ownerID)
		if err != nil {
			return Overview{}, err
		}
	} else if err != nil {
		return Overview{}, fmt.Errorf("get wallet: %w", err)
	}

	recent, err := s.txns.ListRecent(ctx, ownerID, OverviewRecent, 0)
	if err != nil {
		return Overview{}, fmt.Errorf("list recent transactions: %w", err)
	}

	return Overview{Wallet: w, Recent: recent}, nil
}

func (s *Service) ListTransactions(ctx context.Context, ownerID uuid.UUID, limit, offset int) ([]transactions.Transaction, error) {
	limit, offset, err := NormalizePage(limit, offset)
	if err != nil {
		return nil, err
	}

	list, err := s.txns.ListRecent(ctx, ownerID, limit, offset)
	if err != nil {
		return nil, fmt.Errorf("list transactions: %w", err)
	}

	return list, nil
}

func (s *Service) ListWallets(ctx context.Context) ([]wallets.WithOwner, error) {
	list, err := s.wallets.ListWithOwners(ctx)
	if err != nil {
		return nil, fmt.Errorf("list wallets: %w", err)
	}

	return list, nil
}

// Reconcile resets every wallet whose cached balance differs from the sum of
// its log and returns the corrections made.
func (s *Service) Reconcile(ctx context.Context) ([]wallets.Drift, error) {
	candidates, err := s.wallets.FindDrift(ctx)
	if err != nil {
		return nil, fmt.Errorf("find drift: %w", err)
	}

	fixed := make([]wallets.Drift, 0, len(candidates))

	for _, c := range candidates {
		var d wallets.Drift

		err = pgutils.WithTx(ctx, s.db, func(tx *sql.Tx) error {
			var err error
			d, err = s.wallets.ResetToLedger(ctx, tx, c.OwnerID)

			return err
		})
		if err != nil {
			return fixed, fmt.Errorf("reset wallet %s: %w", c.OwnerID, err)
		}

		// A concurrent write may have settled it between the scan and the lock.
		if d.Cached == d.Ledger {
			continue
		}

		metrics.DriftCorrections.Inc()
		slog.ErrorContext(ctx, "wallet balance drifted from log",
			"owner_id", d.OwnerID,
			"cached", d.Cached,
			"ledger", d.Ledger,
		)

		fixed = append(fixed, d)
	}

	return fixed, nil
}
