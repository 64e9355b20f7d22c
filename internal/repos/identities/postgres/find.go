package identities

import (
	"context"

	"github.com/google/uuid"

	"github.com/fastprodman/shopledger/internal/errs"
	"github.com/fastprodman/shopledger/internal/repos/identities"
)

func (r *identitiesRepo) FindByID(ctx context.Context, id uuid.UUID) (identities.Identity, error) {
	row := r.db.QueryRowContext(ctx, `SELECT `+selectColumns+` FROM identities WHERE id = $1`, id)

	out, err := scanIdentity(row)
	if err != nil {
		return identities.Identity{}, mapReadErr("find identity by id", err)
	}

	return out, nil
}

func (r *identitiesRepo) FindByEmail(ctx context.Context, email string) (identities.Identity, error) {
	row := r.db.QueryRowContext(ctx, `SELECT `+selectColumns+` FROM identities WHERE email = $1`, email)

	out, err := scanIdentity(row)
	if err != nil {
		return identities.Identity{}, mapReadErr("find identity by email", err)
	}

	return out, nil
}

// FindByReferralCode is an exact, case-sensitive match.
func (r *identitiesRepo) FindByReferralCode(ctx context.Context, code string) (identities.Identity, error) {
	row := r.db.QueryRowContext(ctx, `SELECT `+selectColumns+` FROM identities WHERE referral_code = $1`, code)

	out, err := scanIdentity(row)
	if err != nil {
		return identities.Identity{}, mapReadErr("find identity by referral code", err)
	}

	return out, nil
}

func (r *identitiesRepo) ReferralCodeExists(ctx context.Context, code string) (bool, error) {
	var exists bool

	err := r.db.QueryRowContext(ctx, `
		SELECT EXISTS (SELECT 1 FROM identities WHERE referral_code = $1)
	`, code).Scan(&exists)
	if err != nil {
		return false, errs.Unavailable("check referral code", err)
	}

	return exists, nil
}
