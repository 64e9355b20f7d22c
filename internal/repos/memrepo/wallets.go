package memrepo

import (
	"context"
	"database/sql"
	"sort"

	"github.com/google/uuid"

	"github.com/fastprodman/shopledger/internal/repos/wallets"
)

var _ wallets.Wallets = (*Wallets)(nil)

type Wallets struct{ s *Store }

func (r *Wallets) GetOrCreate(_ context.Context, _ *sql.Tx, ownerID uuid.UUID) (wallets.Wallet, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	err := r.s.failure("wallets.GetOrCreate")
	if err != nil {
		return wallets.Wallet{}, err
	}

	w, ok := r.s.wallets[ownerID]
	if ok {
		return w, nil
	}

	if _, known := r.s.identities[ownerID]; !known {
		return wallets.Wallet{}, wallets.ErrOwnerNotFound
	}

	now := r.s.now()
	w = wallets.Wallet{ID: uuid.New(), OwnerID: ownerID, CreatedAt: now, UpdatedAt: now}
	r.s.wallets[ownerID] = w

	return w, nil
}

func (r *Wallets) Get(_ context.Context, ownerID uuid.UUID) (wallets.Wallet, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	w, ok := r.s.wallets[ownerID]
	if !ok {
		return wallets.Wallet{}, wallets.ErrWalletNotFound
	}

	return w, nil
}

func (r *Wallets) ApplyDelta(_ context.Context, _ *sql.Tx, ownerID uuid.UUID, delta int64) (int64, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	err := r.s.failure("wallets.ApplyDelta")
	if err != nil {
		return 0, err
	}

	w, ok := r.s.wallets[ownerID]
	if !ok {
		return 0, wallets.ErrWalletNotFound
	}

	w.Balance += delta
	w.UpdatedAt = r.s.now()
	r.s.wallets[ownerID] = w

	return w.Balance, nil
}

func (r *Wallets) ListWithOwners(_ context.Context) ([]wallets.WithOwner, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	out := make([]wallets.WithOwner, 0, len(r.s.wallets))

	for _, w := range r.s.wallets {
		owner := r.s.identities[w.OwnerID]
		out = append(out, wallets.WithOwner{Wallet: w, OwnerEmail: owner.Email, OwnerName: owner.FullName})
	}

	sort.Slice(out, func(i, j int) bool { return out[i].OwnerEmail < out[j].OwnerEmail })

	return out, nil
}

func (r *Wallets) FindDrift(_ context.Context) ([]wallets.Drift, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	sums := make(map[uuid.UUID]int64)
	for _, t := range r.s.txns {
		sums[t.OwnerID] += t.Amount
	}

	var out []wallets.Drift

	for owner, w := range r.s.wallets {
		if w.Balance != sums[owner] {
			out = append(out, wallets.Drift{OwnerID: owner, Cached: w.Balance, Ledger: sums[owner]})
		}
	}

	return out, nil
}

func (r *Wallets) ResetToLedger(_ context.Context, _ *sql.Tx, ownerID uuid.UUID) (wallets.Drift, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	w, ok := r.s.wallets[ownerID]
	if !ok {
		return wallets.Drift{}, wallets.ErrWalletNotFound
	}

	var sum int64

	for _, t := range r.s.txns {
		if t.OwnerID == ownerID {
			sum += t.Amount
		}
	}

	d := wallets.Drift{OwnerID: ownerID, Cached: w.Balance, Ledger: sum}
	w.Balance = sum
	r.s.wallets[ownerID] = w

	return d, nil
}
