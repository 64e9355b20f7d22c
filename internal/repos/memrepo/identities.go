package memrepo

import (
	"context"
	"database/sql"
	"errors"

	"github.com/google/uuid"

	"github.com/fastprodman/shopledger/internal/repos/identities"
)

var _ identities.Identities = (*Identities)(nil)

type Identities struct{ s *Store }

func (r *Identities) Insert(_ context.Context, _ *sql.Tx, in identities.Identity) (identities.Identity, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	err := r.s.failure("identities.Insert")
	if err != nil {
		return identities.Identity{}, err
	}

	for _, existing := range r.s.identities {
		if existing.Email == in.Email {
			return identities.Identity{}, identities.ErrEmailTaken
		}

		if in.ReferralCode != nil && existing.ReferralCode != nil && *existing.ReferralCode == *in.ReferralCode {
			return identities.Identity{}, identities.ErrReferralCodeTaken
		}
	}

	if in.ID == uuid.Nil {
		in.ID = uuid.New()
	}

	if in.Role == "" {
		in.Role = identities.RoleCustomer
	}

	in.CreatedAt = r.s.now()
	r.s.identities[in.ID] = in

	return in, nil
}

func (r *Identities) FindByID(_ context.Context, id uuid.UUID) (identities.Identity, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	err := r.s.failure("identities.FindByID")
	if err != nil {
		return identities.Identity{}, err
	}

	i, ok := r.s.identities[id]
	if !ok {
		return identities.Identity{}, identities.ErrNotFound
	}

	return i, nil
}

func (r *Identities) FindByEmail(_ context.Context, email string) (identities.Identity, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	err := r.s.failure("identities.FindByEmail")
	if err != nil {
		return identities.Identity{}, err
	}

	for _, i := range r.s.identities {
		if i.Email == email {
			return i, nil
		}
	}

	return identities.Identity{}, identities.ErrNotFound
}

func (r *Identities) FindByReferralCode(_ context.Context, code string) (identities.Identity, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	err := r.s.failure("identities.FindByReferralCode")
	if err != nil {
		return identities.Identity{}, err
	}

	for _, i := range r.s.identities {
		if i.ReferralCode != nil && *i.ReferralCode == code {
			return i, nil
		}
	}

	return identities.Identity{}, identities.ErrNotFound
}

func (r *Identities) ReferralCodeExists(ctx context.Context, code string) (bool, error) {
	_, err := r.FindByReferralCode(ctx, code)
	if errors.Is(err, identities.ErrNotFound) {
		return false, nil
	}

	if err != nil {
		return false, err
	}

	return true, nil
}

func (r *Identities) AssignReferralCode(_ context.Context, id uuid.UUID, code string) (string, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	err := r.s.failure("identities.AssignReferralCode")
	if err != nil {
		return "", err
	}

	i, ok := r.s.identities[id]
	if !ok {
		return "", identities.ErrNotFound
	}

	if i.ReferralCode != nil {
		return *i.ReferralCode, nil
	}

	for _, other := range r.s.identities {
		if other.ReferralCode != nil && *other.ReferralCode == code {
			return "", identities.ErrReferralCodeTaken
		}
	}

	i.ReferralCode = &code
	r.s.identities[id] = i

	return code, nil
}
