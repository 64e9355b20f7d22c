package api

import (
	"time"

	"github.com/google/uuid"

	"github.com/fastprodman/shopledger/internal/money"
	"github.com/fastprodman/shopledger/internal/repos/identities"
	"github.com/fastprodman/shopledger/internal/repos/referrals"
	"github.com/fastprodman/shopledger/internal/repos/settings"
	"github.com/fastprodman/shopledger/internal/repos/transactions"
	"github.com/fastprodman/shopledger/internal/repos/wallets"
	"github.com/fastprodman/shopledger/internal/services/registration"
)

// Amounts travel as decimal strings with two fractional digits.

// registerRequest accepts any non-empty password up to bcrypt's 72 byte input
// limit; there is no minimum length.
type registerRequest struct {
	Email        string  `json:"email" validate:"required,email,max=254"`
	Password     string  `json:"password" validate:"required,max=72"`
	FullName     string  `json:"full_name" validate:"required,max=200"`
	Phone        *string `json:"phone" validate:"omitempty,max=32"`
	ReferralCode string  `json:"referral_code" validate:"omitempty,max=32"`
}

type loginRequest struct {
	Email    string `json:"email" validate:"required"`
	Password string `json:"password" validate:"required"`
}

type topUpRequest struct {
	UserID      string `json:"user_id" validate:"required,uuid"`
	Amount      string `json:"amount" validate:"required"`
	Description string `json:"description" validate:"max=500"`
}

type adjustRequest struct {
	UserID      string  `json:"user_id" validate:"required,uuid"`
	Amount      string  `json:"amount" validate:"required"`
	Type        string  `json:"type" validate:"required,oneof=credit debit referral_bonus order_payment refund"`
	Description string  `json:"description" validate:"required,max=500"`
	ReferenceID *string `json:"reference_id" validate:"omitempty,max=128"`
}

type settingsRequest struct {
	ReferrerReward *string `json:"referrer_reward"`
	ReferredReward *string `json:"referred_reward"`
	MinOrderAmount *string `json:"min_order_amount"`
	IsActive       *bool   `json:"is_active"`
}

type identityResponse struct {
	ID           uuid.UUID       `json:"id"`
	Email        string          `json:"email"`
	FullName     string          `json:"full_name"`
	Phone        *string         `json:"phone"`
	Role         identities.Role `json:"role"`
	ReferralCode *string         `json:"referral_code"`
	ReferredBy   *string         `json:"referred_by"`
	IsActive     bool            `json:"is_active"`
	CreatedAt    time.Time       `json:"created_at"`
}

func toIdentity(i identities.Identity) identityResponse {
	return identityResponse{
		ID:           i.ID,
		Email:        i.Email,
		FullName:     i.FullName,
		Phone:        i.Phone,
		Role:         i.Role,
		ReferralCode: i.ReferralCode,
		ReferredBy:   i.ReferredBy,
		IsActive:     i.IsActive,
		CreatedAt:    i.CreatedAt,
	}
}

type authResponse struct {
	AccessToken   string            `json:"access_token"`
	TokenType     string            `json:"token_type"`
	ExpiresAt     time.Time         `json:"expires_at"`
	User          identityResponse  `json:"user"`
	RewardPending bool              `json:"reward_pending,omitempty"`
	Referral      *referralResponse `json:"referral,omitempty"`
}

func toAuth(res registration.Result) authResponse {
	out := authResponse{
		AccessToken:   res.Token,
		TokenType:     "bearer",
		ExpiresAt:     res.ExpiresAt,
		User:          toIdentity(res.Identity),
		RewardPending: res.RewardPending,
	}

	if res.Referral != nil {
		ref := toReferral(*res.Referral)
		out.Referral = &ref
	}

	return out
}

type transactionResponse struct {
	ID          uuid.UUID         `json:"id"`
	UserID      uuid.UUID         `json:"user_id"`
	Amount      string            `json:"amount"`
	Type        transactions.Kind `json:"type"`
	Description string            `json:"description"`
	ReferenceID *string           `json:"reference_id"`
	CreatedAt   time.Time         `json:"created_at"`
}

func toTransactions(list []transactions.Transaction) []transactionResponse {
	out := make([]transactionResponse, 0, len(list))
	for _, t := range list {
		out = append(out, transactionResponse{
			ID:          t.ID,
			UserID:      t.OwnerID,
			Amount:      money.Format(t.Amount),
			Type:        t.Kind,
			Description: t.Description,
			ReferenceID: t.ReferenceID,
			CreatedAt:   t.CreatedAt,
		})
	}

	return out
}

type walletResponse struct {
	Balance      string                `json:"balance"`
	Transactions []transactionResponse `json:"transactions"`
}

type adjustResponse struct {
	Message     string              `json:"message"`
	NewBalance  string              `json:"new_balance"`
	Transaction transactionResponse `json:"transaction"`
}

type walletOwnerResponse struct {
	ID        uuid.UUID `json:"id"`
	UserID    uuid.UUID `json:"user_id"`
	Balance   string    `json:"balance"`
	UserEmail string    `json:"user_email"`
	UserName  string    `json:"user_name"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

func toWalletOwners(list []wallets.WithOwner) []walletOwnerResponse {
	out := make([]walletOwnerResponse, 0, len(list))
	for _, w := range list {
		out = append(out, walletOwnerResponse{
			ID:        w.ID,
			UserID:    w.OwnerID,
			Balance:   money.Format(w.Balance),
			UserEmail: w.OwnerEmail,
			UserName:  w.OwnerName,
			CreatedAt: w.CreatedAt,
			UpdatedAt: w.UpdatedAt,
		})
	}

	return out
}

type referralResponse struct {
	ID             uuid.UUID        `json:"id"`
	ReferrerID     uuid.UUID        `json:"referrer_id"`
	ReferredID     uuid.UUID        `json:"referred_id"`
	ReferralCode   string           `json:"referral_code"`
	Status         referrals.Status `json:"status"`
	ReferrerReward string           `json:"referrer_reward"`
	ReferredReward string           `json:"referred_reward"`
	CreatedAt      time.Time        `json:"created_at"`
	RewardedAt     *time.Time       `json:"rewarded_at"`
}

func toReferral(r referrals.Referral) referralResponse {
	return referralResponse{
		ID:             r.ID,
		ReferrerID:     r.ReferrerID,
		ReferredID:     r.ReferredID,
		ReferralCode:   r.ReferralCode,
		Status:         r.Status,
		ReferrerReward: money.Format(r.ReferrerReward),
		ReferredReward: money.Format(r.ReferredReward),
		CreatedAt:      r.CreatedAt,
		RewardedAt:     r.RewardedAt,
	}
}

type detailedReferralResponse struct {
	referralResponse
	ReferrerEmail string `json:"referrer_email"`
	ReferrerName  string `json:"referrer_name"`
	ReferredEmail string `json:"referred_email"`
	ReferredName  string `json:"referred_name"`
}

type myCodeResponse struct {
	ReferralCode       string             `json:"referral_code"`
	ReferralLink       string             `json:"referral_link"`
	TotalReferrals     int                `json:"total_referrals"`
	CompletedReferrals int                `json:"completed_referrals"`
	TotalEarned        string             `json:"total_earned"`
	Referrals          []referralResponse `json:"referrals"`
}

type validateResponse struct {
	Valid        bool   `json:"valid"`
	ReferrerName string `json:"referrer_name"`
}

type settingsResponse struct {
	ReferrerReward string    `json:"referrer_reward"`
	ReferredReward string    `json:"referred_reward"`
	MinOrderAmount string    `json:"min_order_amount"`
	IsActive       bool      `json:"is_active"`
	UpdatedAt      time.Time `json:"updated_at"`
}

func toSettings(s settings.Settings) settingsResponse {
	return settingsResponse{
		ReferrerReward: money.Format(s.ReferrerReward),
		ReferredReward: money.Format(s.ReferredReward),
		MinOrderAmount: money.Format(s.MinOrderAmount),
		IsActive:       s.IsActive,
		UpdatedAt:      s.UpdatedAt,
	}
}
