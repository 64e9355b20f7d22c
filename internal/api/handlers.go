package api

import (
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"github.com/fastprodman/shopledger/internal/errs"
	"github.com/fastprodman/shopledger/internal/money"
	"github.com/fastprodman/shopledger/internal/repos/settings"
	"github.com/fastprodman/shopledger/internal/repos/transactions"
	"github.com/fastprodman/shopledger/internal/services/ledger"
	"github.com/fastprodman/shopledger/internal/services/registration"
)

const defaultReferrerName = "A friend"

type handler struct {
	svc Services
}

func parseAmount(field, raw string) (int64, error) {
	amount, err := money.Parse(raw)
	if err != nil {
		return 0, invalid("%s: %v", field, err)
	}

	return amount, nil
}

func parseUserID(raw string) (uuid.UUID, error) {
	id, err := uuid.Parse(raw)
	if err != nil {
		return uuid.Nil, invalid("user_id must be a UUID")
	}

	return id, nil
}

func parseOptionalAmount(field string, raw *string) (*int64, error) {
	if raw == nil {
		return nil, nil //nolint:nilnil
	}

	amount, err := parseAmount(field, *raw)
	if err != nil {
		return nil, err
	}

	return &amount, nil
}

// --- Auth ---

// Register handles POST /api/auth/register
func (h *handler) Register(w http.ResponseWriter, r *http.Request) {
	var req registerRequest

	err := decodeJSON(w, r, &req)
	if err != nil {
		writeServiceError(w, r, err)
		return
	}

	res, err := h.svc.Accounts.Register(r.Context(), registration.Input{
		Email:        req.Email,
		Password:     req.Password,
		FullName:     req.FullName,
		Phone:        req.Phone,
		ReferralCode: req.ReferralCode,
	})
	if err != nil {
		writeServiceError(w, r, err)
		return
	}

	writeJSON(w, http.StatusCreated, toAuth(res))
}

// Login handles POST /api/auth/login
func (h *handler) Login(w http.ResponseWriter, r *http.Request) {
	var req loginRequest

	err := decodeJSON(w, r, &req)
	if err != nil {
		writeServiceError(w, r, err)
		return
	}

	res, err := h.svc.Accounts.Login(r.Context(), req.Email, req.Password)
	if err != nil {
		writeServiceError(w, r, err)
		return
	}

	writeJSON(w, http.StatusOK, toAuth(res))
}

// Me handles GET /api/auth/me
func (h *handler) Me(w http.ResponseWriter, r *http.Request) {
	identity, _ := identityFrom(r.Context())
	writeJSON(w, http.StatusOK, toIdentity(identity))
}

// --- Wallet ---

// Wallet handles GET /api/wallet
func (h *handler) Wallet(w http.ResponseWriter, r *http.Request) {
	identity, _ := identityFrom(r.Context())

	ov, err := h.svc.Wallets.Overview(r.Context(), identity.ID)
	if err != nil {
		writeServiceError(w, r, err)
		return
	}

	writeJSON(w, http.StatusOK, walletResponse{
		Balance:      money.Format(ov.Wallet.Balance),
		Transactions: toTransactions(ov.Recent),
	})
}

// Transactions handles GET /api/wallet/transactions?limit&skip
func (h *handler) Transactions(w http.ResponseWriter, r *http.Request) {
	identity, _ := identityFrom(r.Context())

	limit, offset, err := pageParams(r)
	if err != nil {
		writeServiceError(w, r, err)
		return
	}

	list, err := h.svc.Wallets.ListTransactions(r.Context(), identity.ID, limit, offset)
	if err != nil {
		writeServiceError(w, r, err)
		return
	}

	writeJSON(w, http.StatusOK, toTransactions(list))
}

// TopUp handles POST /api/wallet/admin/topup
func (h *handler) TopUp(w http.ResponseWriter, r *http.Request) {
	var req topUpRequest

	err := decodeJSON(w, r, &req)
	if err != nil {
		writeServiceError(w, r, err)
		return
	}

	amount, err := parseAmount("amount", req.Amount)
	if err != nil {
		writeServiceError(w, r, err)
		return
	}

	owner, err := parseUserID(req.UserID)
	if err != nil {
		writeServiceError(w, r, err)
		return
	}

	res, err := h.svc.Wallets.TopUp(r.Context(), owner, amount, strings.TrimSpace(req.Description))
	if err != nil {
		writeServiceError(w, r, err)
		return
	}

	writeJSON(w, http.StatusOK, adjustResponse{
		Message:     "Wallet updated",
		NewBalance:  money.Format(res.Balance),
		Transaction: toTransactions([]transactions.Transaction{res.Transaction})[0],
	})
}

// Adjust handles POST /api/wallet/admin/adjust. Order payments and refunds
// reach the wallet through it.
func (h *handler) Adjust(w http.ResponseWriter, r *http.Request) {
	var req adjustRequest

	err := decodeJSON(w, r, &req)
	if err != nil {
		writeServiceError(w, r, err)
		return
	}

	amount, err := parseAmount("amount", req.Amount)
	if err != nil {
		writeServiceError(w, r, err)
		return
	}

	if amount == 0 {
		writeServiceError(w, r, ledger.ErrZeroAmount)
		return
	}

	owner, err := parseUserID(req.UserID)
	if err != nil {
		writeServiceError(w, r, err)
		return
	}

	res, err := h.svc.Wallets.AdjustBalance(r.Context(), ledger.Entry{
		OwnerID:     owner,
		Amount:      amount,
		Kind:        transactions.Kind(req.Type),
		Description: req.Description,
		ReferenceID: req.ReferenceID,
	})
	if err != nil {
		writeServiceError(w, r, err)
		return
	}

	writeJSON(w, http.StatusOK, adjustResponse{
		Message:     "Wallet updated",
		NewBalance:  money.Format(res.Balance),
		Transaction: toTransactions([]transactions.Transaction{res.Transaction})[0],
	})
}

// AllWallets handles GET /api/wallet/admin/all
func (h *handler) AllWallets(w http.ResponseWriter, r *http.Request) {
	list, err := h.svc.Wallets.ListWallets(r.Context())
	if err != nil {
		writeServiceError(w, r, err)
		return
	}

	writeJSON(w, http.StatusOK, toWalletOwners(list))
}

// --- Referral ---

// MyCode handles GET /api/referral/my-code
func (h *handler) MyCode(w http.ResponseWriter, r *http.Request) {
	identity, _ := identityFrom(r.Context())

	mc, err := h.svc.Referrals.MyCode(r.Context(), identity.ID)
	if err != nil {
		writeServiceError(w, r, err)
		return
	}

	refs := make([]referralResponse, 0, len(mc.Referrals))
	for _, ref := range mc.Referrals {
		refs = append(refs, toReferral(ref))
	}

	writeJSON(w, http.StatusOK, myCodeResponse{
		ReferralCode:       mc.Code,
		ReferralLink:       mc.Link,
		TotalReferrals:     mc.Stats.Total,
		CompletedReferrals: mc.Stats.Completed,
		TotalEarned:        money.Format(mc.Stats.TotalEarned),
		Referrals:          refs,
	})
}

// MyReferrals handles GET /api/referral/my-referrals?limit=&skip=
func (h *handler) MyReferrals(w http.ResponseWriter, r *http.Request) {
	identity, _ := identityFrom(r.Context())

	limit, offset, err := pageParams(r)
	if err != nil {
		writeServiceError(w, r, err)
		return
	}

	list, err := h.svc.Referrals.ListForReferrer(r.Context(), identity.ID, limit, offset)
	if err != nil {
		writeServiceError(w, r, err)
		return
	}

	out := make([]referralResponse, 0, len(list))
	for _, ref := range list {
		out = append(out, toReferral(ref))
	}

	writeJSON(w, http.StatusOK, out)
}

// ValidateCode handles GET /api/referral/validate/{code}
func (h *handler) ValidateCode(w http.ResponseWriter, r *http.Request) {
	referrer, err := h.svc.Referrals.ValidateCode(r.Context(), chi.URLParam(r, "code"))
	if err != nil {
		writeServiceError(w, r, err)
		return
	}

	name := referrer.FullName
	if name == "" {
		name = defaultReferrerName
	}

	writeJSON(w, http.StatusOK, validateResponse{Valid: true, ReferrerName: name})
}

// Settings handles GET /api/referral/settings
func (h *handler) Settings(w http.ResponseWriter, r *http.Request) {
	st, err := h.svc.Referrals.Settings(r.Context())
	if err != nil {
		writeServiceError(w, r, err)
		return
	}

	writeJSON(w, http.StatusOK, toSettings(st))
}

// UpdateSettings handles PUT /api/referral/settings
func (h *handler) UpdateSettings(w http.ResponseWriter, r *http.Request) {
	var req settingsRequest

	err := decodeJSON(w, r, &req)
	if err != nil {
		writeServiceError(w, r, err)
		return
	}

	var u settings.Update

	u.IsActive = req.IsActive

	for _, f := range []struct {
		name string
		raw  *string
		dst  **int64
	}{
		{"referrer_reward", req.ReferrerReward, &u.ReferrerReward},
		{"referred_reward", req.ReferredReward, &u.ReferredReward},
		{"min_order_amount", req.MinOrderAmount, &u.MinOrderAmount},
	} {
		*f.dst, err = parseOptionalAmount(f.name, f.raw)
		if err != nil {
			writeServiceError(w, r, err)
			return
		}
	}

	st, err := h.svc.Referrals.UpdateSettings(r.Context(), u)
	if err != nil {
		writeServiceError(w, r, err)
		return
	}

	writeJSON(w, http.StatusOK, toSettings(st))
}

// AllReferrals handles GET /api/referral/admin/all?limit&skip
func (h *handler) AllReferrals(w http.ResponseWriter, r *http.Request) {
	limit, offset, err := pageParams(r)
	if err != nil {
		writeServiceError(w, r, err)
		return
	}

	list, err := h.svc.Referrals.ListAll(r.Context(), limit, offset)
	if err != nil {
		writeServiceError(w, r, err)
		return
	}

	out := make([]detailedReferralResponse, 0, len(list))
	for _, d := range list {
		out = append(out, detailedReferralResponse{
			referralResponse: toReferral(d.Referral),
			ReferrerEmail:    d.ReferrerEmail,
			ReferrerName:     d.ReferrerName,
			ReferredEmail:    d.ReferredEmail,
			ReferredName:     d.ReferredName,
		})
	}

	writeJSON(w, http.StatusOK, out)
}

func notFound(w http.ResponseWriter, r *http.Request) {
	writeServiceError(w, r, errs.New(errs.ErrNotFound, "route not found"))
}

func methodNotAllowed(w http.ResponseWriter, _ *http.Request) {
	writeError(w, http.StatusMethodNotAllowed, "method not allowed")
}
