// Package memrepo holds in-memory repositories for service tests. They
// ignore the *sql.Tx they are handed, so a rolled-back write stays visible
// here; rollback of the reward transaction is covered by the Postgres-backed
// service tests in the referral and registration packages. Fail injects an
// error into the next call of a named operation.
package memrepo

import (
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/fastprodman/shopledger/internal/repos/identities"
	"github.com/fastprodman/shopledger/internal/repos/referrals"
	"github.com/fastprodman/shopledger/internal/repos/settings"
	"github.com/fastprodman/shopledger/internal/repos/tokens"
	"github.com/fastprodman/shopledger/internal/repos/transactions"
	"github.com/fastprodman/shopledger/internal/repos/wallets"
)

type pairKey struct{ referrer, referred uuid.UUID }

// Store is the shared state behind every in-memory repository.
type Store struct {
	mu sync.Mutex

	identities map[uuid.UUID]identities.Identity
	wallets    map[uuid.UUID]wallets.Wallet
	txns       []transactions.Transaction
	referrals  []referrals.Referral
	pairs      map[pairKey]int
	pending    map[uuid.UUID]referrals.Pending
	settings   *settings.Settings
	defaults   settings.Settings
	tokens     map[string]tokens.Token
	cache      map[string]uuid.UUID

	seq   int64
	fails map[string][]error
	clock func() time.Time
}

func New(defaults settings.Settings) *Store {
	return &Store{
		identities: make(map[uuid.UUID]identities.Identity),
		wallets:    make(map[uuid.UUID]wallets.Wallet),
		pairs:      make(map[pairKey]int),
		pending:    make(map[uuid.UUID]referrals.Pending),
		defaults:   defaults,
		tokens:     make(map[string]tokens.Token),
		cache:      make(map[string]uuid.UUID),
		fails:      make(map[string][]error),
		clock:      time.Now,
	}
}

// Fail makes the next call of op return err. Calls queue up.
func (s *Store) Fail(op string, err error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.fails[op] = append(s.fails[op], err)
}

// failure pops an injected error. Callers hold s.mu.
func (s *Store) failure(op string) error {
	q := s.fails[op]
	if len(q) == 0 {
		return nil
	}

	s.fails[op] = q[1:]

	return q[0]
}

func (s *Store) now() time.Time {
	return s.clock()
}

func (s *Store) Identities() *Identities     { return &Identities{s: s} }
func (s *Store) Wallets() *Wallets           { return &Wallets{s: s} }
func (s *Store) Transactions() *Transactions { return &Transactions{s: s} }
func (s *Store) Referrals() *Referrals       { return &Referrals{s: s} }
func (s *Store) Settings() *Settings         { return &Settings{s: s} }
func (s *Store) Tokens() *Tokens             { return &Tokens{s: s} }
func (s *Store) TokenCache() *TokenCache     { return &TokenCache{s: s} }

// Balance returns the cached balance of owner, or 0 without a wallet.
func (s *Store) Balance(owner uuid.UUID) int64 {
	s.mu.Lock()
	defer s.mu.Unlock()

	return s.wallets[owner].Balance
}

// LogSum folds the transaction log of owner.
func (s *Store) LogSum(owner uuid.UUID) int64 {
	s.mu.Lock()
	defer s.mu.Unlock()

	var sum int64

	for _, t := range s.txns {
		if t.OwnerID == owner {
			sum += t.Amount
		}
	}

	return sum
}

// TransactionsOf returns owner's log in insertion order.
func (s *Store) TransactionsOf(owner uuid.UUID) []transactions.Transaction {
	s.mu.Lock()
	defer s.mu.Unlock()

	var out []transactions.Transaction

	for _, t := range s.txns {
		if t.OwnerID == owner {
			out = append(out, t)
		}
	}

	return out
}

// AllReferrals returns every stored referral in insertion order.
func (s *Store) AllReferrals() []referrals.Referral {
	s.mu.Lock()
	defer s.mu.Unlock()

	return append([]referrals.Referral(nil), s.referrals...)
}

// IdentityCount returns the number of stored identities.
func (s *Store) IdentityCount() int {
	s.mu.Lock()
	defer s.mu.Unlock()

	return len(s.identities)
}

// WalletCount returns the number of stored wallets.
func (s *Store) WalletCount() int {
	s.mu.Lock()
	defer s.mu.Unlock()

	return len(s.wallets)
}

// PendingCount returns the number of outbox rows.
func (s *Store) PendingCount() int {
	s.mu.Lock()
	defer s.mu.Unlock()

	return len(s.pending)
}

// SetBalance overwrites a cached balance to simulate drift.
func (s *Store) SetBalance(owner uuid.UUID, balance int64) {
	s.mu.Lock()
	defer s.mu.Unlock()

	w := s.wallets[owner]
	w.Balance = balance
	s.wallets[owner] = w
}

func page[T any](items []T, limit, offset int) []T {
	if offset >= len(items) {
		return []T{}
	}

	end := offset + limit
	if end > len(items) {
		end = len(items)
	}

	return append([]T(nil), items[offset:end]...)
}

// AddIdentity stores i directly, filling ID and Role when empty.
func (s *Store) AddIdentity(i identities.Identity) identities.Identity {
	s.mu.Lock()
	defer s.mu.Unlock()

	if i.ID == uuid.Nil {
		i.ID = uuid.New()
	}

	if i.Role == "" {
		i.Role = identities.RoleCustomer
	}

	i.CreatedAt = s.now()
	s.identities[i.ID] = i

	return i
}
