package api

import (
	"context"

	"github.com/google/uuid"

	"github.com/fastprodman/shopledger/internal/repos/identities"
	"github.com/fastprodman/shopledger/internal/repos/referrals"
	"github.com/fastprodman/shopledger/internal/repos/settings"
	"github.com/fastprodman/shopledger/internal/repos/transactions"
	"github.com/fastprodman/shopledger/internal/repos/wallets"
	"github.com/fastprodman/shopledger/internal/services/ledger"
	"github.com/fastprodman/shopledger/internal/services/referral"
	"github.com/fastprodman/shopledger/internal/services/registration"
)

type AccountService interface {
	Register(ctx context.Context, in registration.Input) (registration.Result, error)
	Login(ctx context.Context, email, password string) (registration.Result, error)
}

type Authenticator interface {
	Authenticate(ctx context.Context, token string) (identities.Identity, error)
}

type WalletService interface {
	Overview(ctx context.Context, ownerID uuid.UUID) (ledger.Overview, error)
	ListTransactions(ctx context.Context, ownerID uuid.UUID, limit, offset int) ([]transactions.Transaction, error)
	TopUp(ctx context.Context, ownerID uuid.UUID, amount int64, description string) (ledger.Result, error)
	AdjustBalance(ctx context.Context, e ledger.Entry) (ledger.Result, error)
	ListWallets(ctx context.Context) ([]wallets.WithOwner, error)
}

type ReferralService interface {
	ValidateCode(ctx context.Context, code string) (identities.Identity, error)
	MyCode(ctx context.Context, identityID uuid.UUID) (referral.MyCode, error)
	ListForReferrer(ctx context.Context, referrerID uuid.UUID, limit, offset int) ([]referrals.Referral, error)
	Settings(ctx context.Context) (settings.Settings, error)
	UpdateSettings(ctx context.Context, u settings.Update) (settings.Settings, error)
	ListAll(ctx context.Context, limit, offset int) ([]referrals.Detailed, error)
}

// Services is everything the router dispatches to.
type Services struct {
	Accounts  AccountService
	Auth      Authenticator
	Wallets   WalletService
	Referrals ReferralService
}
