package memrepo

import (
	"context"
	"database/sql"

	"github.com/google/uuid"

	"github.com/fastprodman/shopledger/internal/repos/transactions"
)

var _ transactions.Transactions = (*Transactions)(nil)

type Transactions struct{ s *Store }

func (r *Transactions) Insert(_ context.Context, _ *sql.Tx, t transactions.Transaction) (transactions.Transaction, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	err := r.s.failure("transactions.Insert")
	if err != nil {
		return transactions.Transaction{}, err
	}

	if !t.Kind.Valid() {
		return transactions.Transaction{}, transactions.ErrInvalidKind
	}

	if _, ok := r.s.wallets[t.OwnerID]; !ok {
		return transactions.Transaction{}, transactions.ErrWalletNotFound
	}

	if t.ID == uuid.Nil {
		t.ID = uuid.New()
	}

	for _, existing := range r.s.txns {
		if existing.ID == t.ID {
			return transactions.Transaction{}, transactions.ErrDuplicateTransaction
		}
	}

	r.s.seq++
	t.Seq = r.s.seq
	t.CreatedAt = r.s.now()
	r.s.txns = append(r.s.txns, t)

	return t, nil
}

func (r *Transactions) ListRecent(_ context.Context, ownerID uuid.UUID, limit, offset int) ([]transactions.Transaction, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	var mine []transactions.Transaction

	// Newest first: reverse insertion order.
	for i := len(r.s.txns) - 1; i >= 0; i-- {
		if r.s.txns[i].OwnerID == ownerID {
			mine = append(mine, r.s.txns[i])
		}
	}

	return page(mine, limit, offset), nil
}
