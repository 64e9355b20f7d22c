package ledger

import (
	"github.com/google/uuid"

	"github.com/fastprodman/shopledger/internal/errs"
	"github.com/fastprodman/shopledger/internal/repos/transactions"
	"github.com/fastprodman/shopledger/internal/repos/wallets"
)

const (
	DefaultPageLimit = 50
	MaxPageLimit     = 100
	OverviewRecent   = 20

	DefaultTopUpDescription = "Admin top-up"
)

var (
	ErrZeroAmount     = errs.New(errs.ErrInvalidInput, "amount must not be zero")
	ErrNegativeOffset = errs.New(errs.ErrInvalidInput, "offset must not be negative")
)

// Entry is one balance change: a delta plus the log line that explains it.
type Entry struct {
	OwnerID     uuid.UUID
	Amount      int64 // minor units, signed
	Kind        transactions.Kind
	Description string
	ReferenceID *string
}

type Result struct {
	Transaction transactions.Transaction
	Balance     int64
}

type Overview struct {
	Wallet wallets.Wallet
	Recent []transactions.Transaction
}

// NormalizePage applies the listing defaults: limit 50 when unset, at most
// 100.
func NormalizePage(limit, offset int) (int, int, error) {
	if offset < 0 {
		return 0, 0, ErrNegativeOffset
	}

	if limit <= 0 {
		limit = DefaultPageLimit
	}

	if limit > MaxPageLimit {
		limit = MaxPageLimit
	}

	return limit, offset, nil
}
