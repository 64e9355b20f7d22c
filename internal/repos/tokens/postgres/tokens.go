package tokens

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"github.com/google/uuid"

	"github.com/fastprodman/shopledger/internal/errs"
	"github.com/fastprodman/shopledger/internal/repos/tokens"
)

var _ tokens.Tokens = (*tokensRepo)(nil)

type tokensRepo struct{ db *sql.DB }

func New(db *sql.DB) *tokensRepo {
	return &tokensRepo{db: db}
}

func (r *tokensRepo) Insert(ctx context.Context, t tokens.Token) (tokens.Token, error) {
	if t.ID == uuid.Nil {
		t.ID = uuid.New()
	}

	err := r.db.QueryRowContext(ctx, `
		INSERT INTO access_tokens (id, identity_id, token_hash, expires_at)
		VALUES ($1, $2, $3, $4)
		RETURNING created_at
	`, t.ID, t.IdentityID, t.Hash, t.ExpiresAt).Scan(&t.CreatedAt)
	if err != nil {
		return tokens.Token{}, errs.Unavailable("insert access token", err)
	}

	return t, nil
}

func (r *tokensRepo) FindActive(ctx context.Context, hash string, now time.Time) (tokens.Token, error) {
	var t tokens.Token

	err := r.db.QueryRowContext(ctx, `
		SELECT id, identity_id, token_hash, expires_at, created_at
		FROM access_tokens
		WHERE token_hash = $1 AND expires_at > $2
	`, hash, now).Scan(&t.ID, &t.IdentityID, &t.Hash, &t.ExpiresAt, &t.CreatedAt)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return tokens.Token{}, tokens.ErrNotFound
		}

		return tokens.Token{}, errs.Unavailable("find access token", err)
	}

	return t, nil
}

func (r *tokensRepo) DeleteExpired(ctx context.Context, now time.Time) (int64, error) {
	res, err := r.db.ExecContext(ctx, `DELETE FROM access_tokens WHERE expires_at <= $1`, now)
	if err != nil {
		return 0, errs.Unavailable("delete expired tokens", err)
	}

	n, err := res.RowsAffected()
	if err != nil {
		return 0, errs.Unavailable("delete expired tokens", err)
	}

	return n, nil
}
