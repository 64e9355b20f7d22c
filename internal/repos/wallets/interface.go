package wallets

import (
	"context"
	"database/sql"
	"time"

	"github.com/google/uuid"

	"github.com/fastprodman/shopledger/internal/errs"
)

var (
	ErrOwnerNotFound  = errs.New(errs.ErrNotFound, "wallet owner not found")
	ErrWalletNotFound = errs.New(errs.ErrNotFound, "wallet not found")
)

// Wallet.Balance is a cached projection of the owner's transaction log.
type Wallet struct {
	ID        uuid.UUID
	OwnerID   uuid.UUID
	Balance   int64
	CreatedAt time.Time
	UpdatedAt time.Time
}

type WithOwner struct {
	Wallet
	OwnerEmail string
	OwnerName  string
}

// Drift is a wallet whose cached balance disagrees with its log.
type Drift struct {
	OwnerID uuid.UUID
	Cached  int64
	Ledger  int64
}

type Wallets interface {
	// GetOrCreate returns the owner's wallet, creating it at zero, and holds
	// its row lock until tx ends.
	GetOrCreate(ctx context.Context, tx *sql.Tx, ownerID uuid.UUID) (Wallet, error)
	Get(ctx context.Context, ownerID uuid.UUID) (Wallet, error)
	ApplyDelta(ctx context.Context, tx *sql.Tx, ownerID uuid.UUID, delta int64) (int64, error)
	ListWithOwners(ctx context.Context) ([]WithOwner, error)
	FindDrift(ctx context.Context) ([]Drift, error)
	// ResetToLedger locks the wallet and sets its balance to the log sum.
	ResetToLedger(ctx context.Context, tx *sql.Tx, ownerID uuid.UUID) (Drift, error)
}
