package memrepo

import (
	"context"
	"database/sql"

	"github.com/google/uuid"

	"github.com/fastprodman/shopledger/internal/repos/referrals"
)

var _ referrals.Referrals = (*Referrals)(nil)

type Referrals struct{ s *Store }

func (r *Referrals) Insert(_ context.Context, _ *sql.Tx, in referrals.Referral) (referrals.Referral, bool, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	err := r.s.failure("referrals.Insert")
	if err != nil {
		return referrals.Referral{}, false, err
	}

	if in.ReferrerID == in.ReferredID {
		return referrals.Referral{}, false, referrals.ErrSelfReferral
	}

	_, okReferrer := r.s.identities[in.ReferrerID]
	_, okReferred := r.s.identities[in.ReferredID]

	if !okReferrer || !okReferred {
		return referrals.Referral{}, false, referrals.ErrUnknownIdentity
	}

	key := pairKey{in.ReferrerID, in.ReferredID}
	if idx, ok := r.s.pairs[key]; ok {
		return r.s.referrals[idx], false, nil
	}

	if in.ID == uuid.Nil {
		in.ID = uuid.New()
	}

	in.CreatedAt = r.s.now()
	r.s.pairs[key] = len(r.s.referrals)
	r.s.referrals = append(r.s.referrals, in)

	return in, true, nil
}

func (r *Referrals) ListForReferrer(_ context.Context, referrerID uuid.UUID, limit, offset int) ([]referrals.Referral, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	var mine []referrals.Referral

	for i := len(r.s.referrals) - 1; i >= 0; i-- {
		if r.s.referrals[i].ReferrerID == referrerID {
			mine = append(mine, r.s.referrals[i])
		}
	}

	return page(mine, limit, offset), nil
}

func (r *Referrals) StatsForReferrer(_ context.Context, referrerID uuid.UUID) (referrals.Stats, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	var st referrals.Stats

	for _, ref := range r.s.referrals {
		if ref.ReferrerID != referrerID {
			continue
		}

		st.Total++

		if ref.Status.Done() {
			st.Completed++
			st.TotalEarned += ref.ReferrerReward
		}
	}

	return st, nil
}

func (r *Referrals) ListDetailed(_ context.Context, limit, offset int) ([]referrals.Detailed, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	all := make([]referrals.Detailed, 0, len(r.s.referrals))

	for i := len(r.s.referrals) - 1; i >= 0; i-- {
		ref := r.s.referrals[i]
		referrer := r.s.identities[ref.ReferrerID]
		referred := r.s.identities[ref.ReferredID]

		all = append(all, referrals.Detailed{
			Referral:      ref,
			ReferrerEmail: referrer.Email,
			ReferrerName:  referrer.FullName,
			ReferredEmail: referred.Email,
			ReferredName:  referred.FullName,
		})
	}

	return page(all, limit, offset), nil
}

func (r *Referrals) EnqueuePending(_ context.Context, _ *sql.Tx, p referrals.Pending) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	err := r.s.failure("referrals.EnqueuePending")
	if err != nil {
		return err
	}

	if _, ok := r.s.pending[p.ReferredID]; ok {
		return nil
	}

	p.Attempts = 0
	p.CreatedAt = r.s.now()
	r.s.pending[p.ReferredID] = p

	return nil
}

func (r *Referrals) ResolvePending(_ context.Context, _ *sql.Tx, referredID uuid.UUID) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	err := r.s.failure("referrals.ResolvePending")
	if err != nil {
		return err
	}

	delete(r.s.pending, referredID)

	return nil
}

func (r *Referrals) ListPending(_ context.Context, maxAttempts, limit int) ([]referrals.Pending, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	var out []referrals.Pending

	for _, p := range r.s.pending {
		if p.Attempts < maxAttempts && len(out) < limit {
			out = append(out, p)
		}
	}

	return out, nil
}

func (r *Referrals) MarkPendingFailed(_ context.Context, referredID uuid.UUID, reason string) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	p, ok := r.s.pending[referredID]
	if !ok {
		return nil
	}

	p.Attempts++
	p.LastError = &reason
	r.s.pending[referredID] = p

	return nil
}
