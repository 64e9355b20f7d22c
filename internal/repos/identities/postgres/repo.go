package identities

import (
	"database/sql"
	"errors"

	"github.com/fastprodman/shopledger/internal/errs"
	"github.com/fastprodman/shopledger/internal/infra/pgutils"
	"github.com/fastprodman/shopledger/internal/repos/identities"
)

const (
	constraintEmail        = "identities_email_key"
	constraintReferralCode = "identities_referral_code_key"
)

var _ identities.Identities = (*identitiesRepo)(nil)

type identitiesRepo struct{ db *sql.DB }

func New(db *sql.DB) *identitiesRepo {
	return &identitiesRepo{db: db}
}

const selectColumns = `
	id, email, password_hash, full_name, phone, role,
	referral_code, referred_by, is_active, created_at
`

type rowScanner interface {
	Scan(dest ...any) error
}

func scanIdentity(row rowScanner) (identities.Identity, error) {
	var (
		i    identities.Identity
		role string
	)

	err := row.Scan(
		&i.ID, &i.Email, &i.PasswordHash, &i.FullName, &i.Phone, &role,
		&i.ReferralCode, &i.ReferredBy, &i.IsActive, &i.CreatedAt,
	)
	if err != nil {
		return identities.Identity{}, err
	}

	i.Role = identities.Role(role)

	return i, nil
}

// mapWriteErr translates constraint violations on the identities table.
func mapWriteErr(op string, err error) error {
	constraint, ok := pgutils.UniqueViolation(err)
	if ok {
		switch constraint {
		case constraintEmail:
			return identities.ErrEmailTaken
		case constraintReferralCode:
			return identities.ErrReferralCodeTaken
		}
	}

	return errs.Unavailable(op, err)
}

func mapReadErr(op string, err error) error {
	if errors.Is(err, sql.ErrNoRows) {
		return identities.ErrNotFound
	}

	return errs.Unavailable(op, err)
}
