package database

import (
	"context"
	"encoding/json"
	"errors"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/konetibalaji/benchsales-match/pkg/apperr"
	"github.com/konetibalaji/benchsales-match/pkg/models"
)

// ResumeRepo persists the normalised per-document payload produced by
// the resume ingestion worker, keyed by (tenantId, consultantId, fileKey).
type ResumeRepo struct {
	pool *pgxpool.Pool
}

// Upsert writes (or overwrites) the resume row for its file key.
func (r *ResumeRepo) Upsert(ctx context.Context, tc TenantContext, res *models.Resume) error {
	if res.ID == "" {
		res.ID = uuid.NewString()
	}
	res.TenantID = tc.TenantID
	candidate, err := json.Marshal(res.Candidate)
	if err != nil {
		return apperr.Validation("marshal resume candidate")
	}
	_, err = r.pool.Exec(ctx, `
		INSERT INTO resumes
			(id, tenant_id, consultant_id, document_id, file_key, matched_skill_ids, skills, candidate, summary, updated_at)
		VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9, now())
		ON CONFLICT (tenant_id, consultant_id, file_key) DO UPDATE SET
			document_id       = EXCLUDED.document_id,
			matched_skill_ids = EXCLUDED.matched_skill_ids,
			skills            = EXCLUDED.skills,
			candidate         = EXCLUDED.candidate,
			summary           = EXCLUDED.summary,
			updated_at        = now()`,
		res.ID, res.TenantID, res.ConsultantID, res.DocumentID, res.FileKey,
		res.MatchedSkillIDs, res.Skills, candidate, res.Summary)
	if err != nil {
		return apperr.Transient("upsert resume", err)
	}
	return nil
}

// Get fetches the resume row for a consultant+fileKey pair.
func (r *ResumeRepo) Get(ctx context.Context, tc TenantContext, consultantID, fileKey string) (*models.Resume, error) {
	row := r.pool.QueryRow(ctx, `
		SELECT id, tenant_id, consultant_id, document_id, file_key, matched_skill_ids, skills, candidate, summary, updated_at
		FROM resumes WHERE tenant_id=$1 AND consultant_id=$2 AND file_key=$3`, tc.TenantID, consultantID, fileKey)
	res, err := scanResume(row)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, apperr.NotFound("resume not found")
	}
	if err != nil {
		return nil, apperr.Transient("get resume", err)
	}
	return res, nil
}

// ListByConsultant returns every resume row on file for a consultant.
func (r *ResumeRepo) ListByConsultant(ctx context.Context, tc TenantContext, consultantID string) ([]*models.Resume, error) {
	rows, err := r.pool.Query(ctx, `
		SELECT id, tenant_id, consultant_id, document_id, file_key, matched_skill_ids, skills, candidate, summary, updated_at
		FROM resumes WHERE tenant_id=$1 AND consultant_id=$2 ORDER BY updated_at DESC`, tc.TenantID, consultantID)
	if err != nil {
		return nil, apperr.Transient("list resumes", err)
	}
	defer rows.Close()

	var out []*models.Resume
	for rows.Next() {
		res, err := scanResume(rows)
		if err != nil {
			return nil, apperr.Transient("scan resume", err)
		}
		out = append(out, res)
	}
	return out, rows.Err()
}

func scanResume(row rowScanner) (*models.Resume, error) {
	var res models.Resume
	var candidate []byte
	err := row.Scan(&res.ID, &res.TenantID, &res.ConsultantID, &res.DocumentID, &res.FileKey,
		&res.MatchedSkillIDs, &res.Skills, &candidate, &res.Summary, &res.UpdatedAt)
	if err != nil {
		return nil, err
	}
	if len(candidate) > 0 {
		if err := json.Unmarshal(candidate, &res.Candidate); err != nil {
			return nil, err
		}
	}
	return &res, nil
}
