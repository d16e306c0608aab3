package database

import (
	"context"
	"errors"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/konetibalaji/benchsales-match/pkg/apperr"
	"github.com/konetibalaji/benchsales-match/pkg/models"
)

// PIIVaultRepo persists encrypted originals behind substituted tokens.
// pkg/pii is the only caller — it owns the encryption key and token
// format, this repo is pure storage.
type PIIVaultRepo struct {
	pool *pgxpool.Pool
}

// Put stores an entry, keyed by its token.
func (r *PIIVaultRepo) Put(ctx context.Context, e *models.PIIVaultEntry) error {
	_, err := r.pool.Exec(ctx, `
		INSERT INTO pii_vault_entries (token, tenant_id, type, ciphertext, created_at)
		VALUES ($1,$2,$3,$4, now())
		ON CONFLICT (token) DO NOTHING`,
		e.Token, e.TenantID, e.Type, e.Ciphertext)
	if err != nil {
		return apperr.Transient("put pii vault entry", err)
	}
	return nil
}

// Get resolves a token back to its ciphertext, scoped to tenant so one
// tenant can never resolve another tenant's token even if it guessed it.
func (r *PIIVaultRepo) Get(ctx context.Context, tc TenantContext, token string) (*models.PIIVaultEntry, error) {
	row := r.pool.QueryRow(ctx, `
		SELECT token, tenant_id, type, ciphertext, created_at
		FROM pii_vault_entries WHERE tenant_id=$1 AND token=$2`, tc.TenantID, token)

	var e models.PIIVaultEntry
	err := row.Scan(&e.Token, &e.TenantID, &e.Type, &e.Ciphertext, &e.CreatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, apperr.NotFound("pii vault entry not found")
	}
	if err != nil {
		return nil, apperr.Transient("get pii vault entry", err)
	}
	return &e, nil
}
