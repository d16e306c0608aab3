package database

import (
	"context"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/konetibalaji/benchsales-match/pkg/apperr"
	"github.com/konetibalaji/benchsales-match/pkg/models"
)

// IdentityRepo persists normalised IdentitySignature rows used to
// dedupe consultants across repeated resume submissions.
type IdentityRepo struct {
	pool *pgxpool.Pool
}

// Add inserts a signature for a consultant.
func (r *IdentityRepo) Add(ctx context.Context, tc TenantContext, s *models.IdentitySignature) error {
	if s.ID == "" {
		s.ID = uuid.NewString()
	}
	s.TenantID = tc.TenantID
	_, err := r.pool.Exec(ctx, `
		INSERT INTO identity_signatures (id, consultant_id, tenant_id, kind, value)
		VALUES ($1,$2,$3,$4,$5)`,
		s.ID, s.ConsultantID, s.TenantID, s.Kind, s.Value)
	if err != nil {
		return apperr.Transient("insert identity signature", err)
	}
	return nil
}

// FindConsultantsBySignature returns the distinct consultant ids already
// carrying a matching (kind, value) signature within the tenant — the
// candidate set for a dedupe decision before creating a new consultant.
func (r *IdentityRepo) FindConsultantsBySignature(ctx context.Context, tc TenantContext, kind models.IdentityKind, value string) ([]string, error) {
	rows, err := r.pool.Query(ctx, `
		SELECT DISTINCT consultant_id FROM identity_signatures
		WHERE tenant_id=$1 AND kind=$2 AND value=$3`, tc.TenantID, kind, value)
	if err != nil {
		return nil, apperr.Transient("find consultants by signature", err)
	}
	defer rows.Close()

	var out []string
	for rows.Next() {
		var id string
		if err := rows.Scan(&id); err != nil {
			return nil, apperr.Transient("scan consultant id", err)
		}
		out = append(out, id)
	}
	return out, rows.Err()
}

// SignaturesFor returns every signature recorded for a consultant.
func (r *IdentityRepo) SignaturesFor(ctx context.Context, tc TenantContext, consultantID string) ([]models.IdentitySignature, error) {
	rows, err := r.pool.Query(ctx, `
		SELECT id, consultant_id, tenant_id, kind, value FROM identity_signatures
		WHERE tenant_id=$1 AND consultant_id=$2`, tc.TenantID, consultantID)
	if err != nil {
		return nil, apperr.Transient("list identity signatures", err)
	}
	defer rows.Close()

	var out []models.IdentitySignature
	for rows.Next() {
		var s models.IdentitySignature
		if err := rows.Scan(&s.ID, &s.ConsultantID, &s.TenantID, &s.Kind, &s.Value); err != nil {
			return nil, apperr.Transient("scan identity signature", err)
		}
		out = append(out, s)
	}
	return out, rows.Err()
}
