package database

import (
	"context"
	"errors"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/konetibalaji/benchsales-match/pkg/apperr"
	"github.com/konetibalaji/benchsales-match/pkg/models"
)

// RequirementRepo persists Requirement and RequirementSkill rows.
type RequirementRepo struct {
	pool *pgxpool.Pool
}

// Create inserts a new requirement.
func (r *RequirementRepo) Create(ctx context.Context, tc TenantContext, req *models.Requirement) error {
	if req.ID == "" {
		req.ID = uuid.NewString()
	}
	req.TenantID = tc.TenantID
	_, err := r.pool.Exec(ctx, `
		INSERT INTO requirements
			(id, tenant_id, title, client_name, description, location, type, status, source, min_rate, max_rate, posted_at, closes_at)
		VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10,$11, COALESCE($12, now()), $13)`,
		req.ID, req.TenantID, req.Title, req.ClientName, req.Description, req.Location, req.Type,
		req.Status, req.Source, req.MinRate, req.MaxRate, req.PostedAt, req.ClosesAt)
	if err != nil {
		return apperr.Transient("insert requirement", err)
	}
	return nil
}

// Get fetches a requirement scoped to tc.TenantID.
func (r *RequirementRepo) Get(ctx context.Context, tc TenantContext, id string) (*models.Requirement, error) {
	row := r.pool.QueryRow(ctx, `
		SELECT id, tenant_id, title, client_name, description, location, type, status, source, min_rate, max_rate, posted_at, closes_at
		FROM requirements WHERE tenant_id=$1 AND id=$2`, tc.TenantID, id)
	req, err := scanRequirement(row)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, apperr.NotFound("requirement not found")
	}
	if err != nil {
		return nil, apperr.Transient("get requirement", err)
	}
	return req, nil
}

// UpdateStatus transitions a requirement's lifecycle status.
func (r *RequirementRepo) UpdateStatus(ctx context.Context, tc TenantContext, id string, status models.RequirementStatus) error {
	tag, err := r.pool.Exec(ctx, `
		UPDATE requirements SET status=$3 WHERE tenant_id=$1 AND id=$2`, tc.TenantID, id, status)
	if err != nil {
		return apperr.Transient("update requirement status", err)
	}
	if tag.RowsAffected() == 0 {
		return apperr.NotFound("requirement not found")
	}
	return nil
}

// ListOpen returns OPEN/IN_PROGRESS requirements for a tenant.
func (r *RequirementRepo) ListOpen(ctx context.Context, tc TenantContext, limit int) ([]*models.Requirement, error) {
	rows, err := r.pool.Query(ctx, `
		SELECT id, tenant_id, title, client_name, description, location, type, status, source, min_rate, max_rate, posted_at, closes_at
		FROM requirements
		WHERE tenant_id=$1 AND status IN ('OPEN','IN_PROGRESS')
		ORDER BY posted_at DESC LIMIT $2`, tc.TenantID, limit)
	if err != nil {
		return nil, apperr.Transient("list requirements", err)
	}
	defer rows.Close()

	var out []*models.Requirement
	for rows.Next() {
		req, err := scanRequirement(rows)
		if err != nil {
			return nil, apperr.Transient("scan requirement", err)
		}
		out = append(out, req)
	}
	return out, rows.Err()
}

// ListIDs returns every requirement id in a tenant, for bulk reindexing.
func (r *RequirementRepo) ListIDs(ctx context.Context, tc TenantContext) ([]string, error) {
	rows, err := r.pool.Query(ctx, `SELECT id FROM requirements WHERE tenant_id=$1`, tc.TenantID)
	if err != nil {
		return nil, apperr.Transient("list requirement ids", err)
	}
	defer rows.Close()

	var out []string
	for rows.Next() {
		var id string
		if err := rows.Scan(&id); err != nil {
			return nil, apperr.Transient("scan requirement id", err)
		}
		out = append(out, id)
	}
	return out, rows.Err()
}

// FindByTitleAndClient looks up a requirement by case-insensitive
// (title, clientName) match — the upsert key the requirement ingestion
// worker uses to decide between updating an existing requirement and
// creating a new one.
func (r *RequirementRepo) FindByTitleAndClient(ctx context.Context, tc TenantContext, title, clientName string) (*models.Requirement, error) {
	row := r.pool.QueryRow(ctx, `
		SELECT id, tenant_id, title, client_name, description, location, type, status, source, min_rate, max_rate, posted_at, closes_at
		FROM requirements
		WHERE tenant_id=$1 AND lower(title)=lower($2) AND lower(client_name)=lower($3)
		LIMIT 1`, tc.TenantID, title, clientName)
	req, err := scanRequirement(row)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, apperr.NotFound("requirement not found")
	}
	if err != nil {
		return nil, apperr.Transient("find requirement by title and client", err)
	}
	return req, nil
}

// ReplaceSkills overwrites the full skill edge set for a requirement.
func (r *RequirementRepo) ReplaceSkills(ctx context.Context, tc TenantContext, requirementID string, skills []models.RequirementSkill) error {
	tx, err := r.pool.Begin(ctx)
	if err != nil {
		return apperr.Transient("begin tx", err)
	}
	defer tx.Rollback(ctx)

	if _, err := tx.Exec(ctx, `
		DELETE FROM requirement_skills
		WHERE requirement_id=$1 AND requirement_id IN (SELECT id FROM requirements WHERE tenant_id=$2)`,
		requirementID, tc.TenantID); err != nil {
		return apperr.Transient("clear requirement skills", err)
	}

	for _, s := range skills {
		if _, err := tx.Exec(ctx, `
			INSERT INTO requirement_skills (requirement_id, skill_id, weight) VALUES ($1,$2,$3)
			ON CONFLICT (requirement_id, skill_id) DO UPDATE SET weight = EXCLUDED.weight`,
			requirementID, s.SkillID, s.Weight); err != nil {
			return apperr.Transient("insert requirement skill", err)
		}
	}

	if err := tx.Commit(ctx); err != nil {
		return apperr.Transient("commit tx", err)
	}
	return nil
}

// SkillsFor returns every weighted skill edge for a requirement.
func (r *RequirementRepo) SkillsFor(ctx context.Context, tc TenantContext, requirementID string) ([]models.RequirementSkill, error) {
	rows, err := r.pool.Query(ctx, `
		SELECT rs.requirement_id, rs.skill_id, rs.weight
		FROM requirement_skills rs
		JOIN requirements r ON r.id = rs.requirement_id
		WHERE r.tenant_id=$1 AND rs.requirement_id=$2`, tc.TenantID, requirementID)
	if err != nil {
		return nil, apperr.Transient("list requirement skills", err)
	}
	defer rows.Close()

	var out []models.RequirementSkill
	for rows.Next() {
		var rs models.RequirementSkill
		if err := rows.Scan(&rs.RequirementID, &rs.SkillID, &rs.Weight); err != nil {
			return nil, apperr.Transient("scan requirement skill", err)
		}
		out = append(out, rs)
	}
	return out, rows.Err()
}

func scanRequirement(row rowScanner) (*models.Requirement, error) {
	var req models.Requirement
	err := row.Scan(&req.ID, &req.TenantID, &req.Title, &req.ClientName, &req.Description,
		&req.Location, &req.Type, &req.Status, &req.Source, &req.MinRate, &req.MaxRate,
		&req.PostedAt, &req.ClosesAt)
	if err != nil {
		return nil, err
	}
	return &req, nil
}
