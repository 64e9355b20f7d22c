package transactions

import (
	"context"
	"database/sql"
	"time"

	"github.com/google/uuid"

	"github.com/fastprodman/shopledger/internal/errs"
)

var (
	ErrDuplicateTransaction = errs.New(errs.ErrConflict, "duplicate transaction")
	ErrInvalidKind          = errs.New(errs.ErrInvalidInput, "invalid transaction kind")
	ErrWalletNotFound       = errs.New(errs.ErrNotFound, "wallet not found")
)

// Kind says why a balance changed. The sign of the amount is not tied to
// the kind.
type Kind string

const (
	KindCredit        Kind = "credit"
	KindDebit         Kind = "debit"
	KindReferralBonus Kind = "referral_bonus"
	KindOrderPayment  Kind = "order_payment"
	KindRefund        Kind = "refund"
)

func (k Kind) Valid() bool {
	switch k {
	case KindCredit, KindDebit, KindReferralBonus, KindOrderPayment, KindRefund:
		return true
	default:
		return false
	}
}

// Transaction is an immutable log entry. Seq breaks created_at ties in
// insertion order.
type Transaction struct {
	Seq         int64
	ID          uuid.UUID
	OwnerID     uuid.UUID
	Amount      int64
	Kind        Kind
	Description string
	ReferenceID *string
	CreatedAt   time.Time
}

type Transactions interface {
	Insert(ctx context.Context, tx *sql.Tx, t Transaction) (Transaction, error)
	ListRecent(ctx context.Context, ownerID uuid.UUID, limit, offset int) ([]Transaction, error)
}
