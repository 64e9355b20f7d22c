package memrepo

import (
	"context"

	"github.com/fastprodman/shopledger/internal/repos/settings"
)

var _ settings.Store = (*Settings)(nil)

type Settings struct{ s *Store }

func (r *Settings) Get(_ context.Context) (settings.Settings, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	err := r.s.failure("settings.Get")
	if err != nil {
		return settings.Settings{}, err
	}

	return r.materialize(), nil
}

// materialize returns the singleton, creating it from defaults. Callers hold
// s.mu.
func (r *Settings) materialize() settings.Settings {
	if r.s.settings == nil {
		st := r.s.defaults
		st.UpdatedAt = r.s.now()
		r.s.settings = &st
	}

	return *r.s.settings
}

func (r *Settings) Update(_ context.Context, u settings.Update) (settings.Settings, error) {
	err := u.Validate()
	if err != nil {
		return settings.Settings{}, err
	}

	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	st := r.materialize()

	if u.ReferrerReward != nil {
		st.ReferrerReward = *u.ReferrerReward
	}

	if u.ReferredReward != nil {
		st.ReferredReward = *u.ReferredReward
	}

	if u.MinOrderAmount != nil {
		st.MinOrderAmount = *u.MinOrderAmount
	}

	if u.IsActive != nil {
		st.IsActive = *u.IsActive
	}

	st.UpdatedAt = r.s.now()
	r.s.settings = &st

	return st, nil
}

// Initialized reports whether the singleton has been materialized.
func (r *Settings) Initialized() bool {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	return r.s.settings != nil
}
