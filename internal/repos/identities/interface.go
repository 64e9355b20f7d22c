package identities

import (
	"context"
	"database/sql"
	"time"

	"github.com/google/uuid"

	"github.com/fastprodman/shopledger/internal/errs"
)

var (
	ErrNotFound          = errs.New(errs.ErrNotFound, "identity not found")
	ErrEmailTaken        = errs.New(errs.ErrConflict, "email already registered")
	ErrReferralCodeTaken = errs.New(errs.ErrConflict, "referral code already taken")
)

type Role string

const (
	RoleCustomer Role = "customer"
	RoleAdmin    Role = "admin"
	RoleManager  Role = "manager"
)

func (r Role) Valid() bool {
	switch r {
	case RoleCustomer, RoleAdmin, RoleManager:
		return true
	default:
		return false
	}
}

// IsStaff reports whether r may use the admin endpoints.
func (r Role) IsStaff() bool {
	return r == RoleAdmin || r == RoleManager
}

type Identity struct {
	ID           uuid.UUID
	Email        string
	PasswordHash string
	FullName     string
	Phone        *string
	Role         Role
	ReferralCode *string
	ReferredBy   *string
	IsActive     bool
	CreatedAt    time.Time
}

// Code returns the assigned referral code or "".
func (i Identity) Code() string {
	if i.ReferralCode == nil {
		return ""
	}

	return *i.ReferralCode
}

type Identities interface {
	Insert(ctx context.Context, tx *sql.Tx, identity Identity) (Identity, error)
	FindByID(ctx context.Context, id uuid.UUID) (Identity, error)
	FindByEmail(ctx context.Context, email string) (Identity, error)
	FindByReferralCode(ctx context.Context, code string) (Identity, error)
	ReferralCodeExists(ctx context.Context, code string) (bool, error)
	// AssignReferralCode sets the code only when none is assigned yet and
	// returns the code the identity ends up with.
	AssignReferralCode(ctx context.Context, id uuid.UUID, code string) (string, error)
}
