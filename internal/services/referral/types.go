package referral

import (
	"context"
	"database/sql"

	"github.com/fastprodman/shopledger/internal/errs"
	"github.com/fastprodman/shopledger/internal/repos/referrals"
	"github.com/fastprodman/shopledger/internal/services/ledger"
)

const (
	RecentReferrals = 100

	welcomeDescription = "Welcome bonus from referral"
)

var ErrCodeNotFound = errs.New(errs.ErrNotFound, "invalid referral code")

// Ledger is the part of the wallet service the referral ledger credits
// through.
type Ledger interface {
	Apply(ctx context.Context, tx *sql.Tx, e ledger.Entry) (ledger.Result, error)
}

type Config struct {
	CodeLength  int
	LinkBaseURL string
}

// MyCode is what an identity sees about its own referral program standing.
type MyCode struct {
	Code      string
	Link      string
	Stats     referrals.Stats
	Referrals []referrals.Referral
}

type RetryReport struct {
	Issued int
	Failed int
}
