package identities

import (
	"context"
	"database/sql"

	"github.com/google/uuid"

	"github.com/fastprodman/shopledger/internal/repos/identities"
)

func (r *identitiesRepo) Insert(ctx context.Context, tx *sql.Tx, in identities.Identity) (identities.Identity, error) {
	if in.ID == uuid.Nil {
		in.ID = uuid.New()
	}

	if in.Role == "" {
		in.Role = identities.RoleCustomer
	}

	row := tx.QueryRowContext(ctx, `
		INSERT INTO identities (
			id, email, password_hash, full_name, phone, role,
			referral_code, referred_by, is_active
		)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
		RETURNING `+selectColumns,
		in.ID, in.Email, in.PasswordHash, in.FullName, in.Phone, string(in.Role),
		in.ReferralCode, in.ReferredBy, in.IsActive,
	)

	out, err := scanIdentity(row)
	if err != nil {
		return identities.Identity{}, mapWriteErr("insert identity", err)
	}

	return out, nil
}
