package identities

import (
	"context"
	"database/sql"
	"errors"

	"github.com/google/uuid"
)

func (r *identitiesRepo) AssignReferralCode(ctx context.Context, id uuid.UUID, code string) (string, error) {
	var assigned string

	err := r.db.QueryRowContext(ctx, `
		UPDATE identities
		SET referral_code = $2
		WHERE id = $1 AND referral_code IS NULL
		RETURNING referral_code
	`, id, code).Scan(&assigned)
	if err == nil {
		return assigned, nil
	}

	if !errors.Is(err, sql.ErrNoRows) {
		return "", mapWriteErr("assign referral code", err)
	}

	// Either the identity is unknown or someone assigned a code first.
	current, err := r.FindByID(ctx, id)
	if err != nil {
		return "", err
	}

	return current.Code(), nil
}
