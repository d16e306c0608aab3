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

// ConsultantRepo persists Consultant and ConsultantSkill rows, always
// scoped to a tenant.
type ConsultantRepo struct {
	pool *pgxpool.Pool
}

// Create inserts a new consultant.
func (r *ConsultantRepo) Create(ctx context.Context, tc TenantContext, c *models.Consultant) error {
	if c.ID == "" {
		c.ID = uuid.NewString()
	}
	c.TenantID = tc.TenantID
	_, err := r.pool.Exec(ctx, `
		INSERT INTO consultants
			(id, tenant_id, first_name, last_name, email, phone, location, availability, rate, experience, summary, updated_at)
		VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10,$11, now())`,
		c.ID, c.TenantID, c.FirstName, c.LastName, c.Email, c.Phone, c.Location, c.Availability, c.Rate, c.Experience, c.Summary)
	if err != nil {
		return apperr.Transient("insert consultant", err)
	}
	return nil
}

// Get fetches a single consultant scoped to tc.TenantID.
func (r *ConsultantRepo) Get(ctx context.Context, tc TenantContext, id string) (*models.Consultant, error) {
	row := r.pool.QueryRow(ctx, `
		SELECT id, tenant_id, first_name, last_name, email, phone, location, availability, rate, experience, summary, updated_at
		FROM consultants WHERE tenant_id = $1 AND id = $2`, tc.TenantID, id)
	c, err := scanConsultant(row)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, apperr.NotFound("consultant not found")
	}
	if err != nil {
		return nil, apperr.Transient("get consultant", err)
	}
	return c, nil
}

// Update overwrites the mutable fields of an existing consultant.
func (r *ConsultantRepo) Update(ctx context.Context, tc TenantContext, c *models.Consultant) error {
	tag, err := r.pool.Exec(ctx, `
		UPDATE consultants
		SET first_name=$3, last_name=$4, email=$5, phone=$6, location=$7,
		    availability=$8, rate=$9, experience=$10, summary=$11, updated_at=now()
		WHERE tenant_id=$1 AND id=$2`,
		tc.TenantID, c.ID, c.FirstName, c.LastName, c.Email, c.Phone, c.Location,
		c.Availability, c.Rate, c.Experience, c.Summary)
	if err != nil {
		return apperr.Transient("update consultant", err)
	}
	if tag.RowsAffected() == 0 {
		return apperr.NotFound("consultant not found")
	}
	return nil
}

// ListByAvailability returns consultants in a tenant filtered by availability.
func (r *ConsultantRepo) ListByAvailability(ctx context.Context, tc TenantContext, availability models.Availability, limit int) ([]*models.Consultant, error) {
	rows, err := r.pool.Query(ctx, `
		SELECT id, tenant_id, first_name, last_name, email, phone, location, availability, rate, experience, summary, updated_at
		FROM consultants WHERE tenant_id=$1 AND availability=$2
		ORDER BY updated_at DESC LIMIT $3`, tc.TenantID, availability, limit)
	if err != nil {
		return nil, apperr.Transient("list consultants", err)
	}
	defer rows.Close()

	var out []*models.Consultant
	for rows.Next() {
		c, err := scanConsultant(rows)
		if err != nil {
			return nil, apperr.Transient("scan consultant", err)
		}
		out = append(out, c)
	}
	return out, rows.Err()
}

// ListIDs returns every consultant id in a tenant, for bulk reindexing.
func (r *ConsultantRepo) ListIDs(ctx context.Context, tc TenantContext) ([]string, error) {
	rows, err := r.pool.Query(ctx, `SELECT id FROM consultants WHERE tenant_id=$1`, tc.TenantID)
	if err != nil {
		return nil, apperr.Transient("list consultant ids", err)
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

// FindByEmail looks up a consultant by case-insensitive email match,
// the second step of the consultant resolution order.
func (r *ConsultantRepo) FindByEmail(ctx context.Context, tc TenantContext, email string) (*models.Consultant, error) {
	row := r.pool.QueryRow(ctx, `
		SELECT id, tenant_id, first_name, last_name, email, phone, location, availability, rate, experience, summary, updated_at
		FROM consultants WHERE tenant_id=$1 AND lower(email)=lower($2) LIMIT 1`, tc.TenantID, email)
	c, err := scanConsultant(row)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, apperr.NotFound("consultant not found")
	}
	if err != nil {
		return nil, apperr.Transient("find consultant by email", err)
	}
	return c, nil
}

// FindByPhoneDigits looks up a consultant whose stored phone number
// contains digits, ignoring any formatting punctuation — the third step
// of the consultant resolution order.
func (r *ConsultantRepo) FindByPhoneDigits(ctx context.Context, tc TenantContext, digits string) (*models.Consultant, error) {
	row := r.pool.QueryRow(ctx, `
		SELECT id, tenant_id, first_name, last_name, email, phone, location, availability, rate, experience, summary, updated_at
		FROM consultants
		WHERE tenant_id=$1 AND regexp_replace(coalesce(phone,''), '[^0-9]', '', 'g') LIKE '%' || $2 || '%'
		      AND $2 <> ''
		LIMIT 1`, tc.TenantID, digits)
	c, err := scanConsultant(row)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, apperr.NotFound("consultant not found")
	}
	if err != nil {
		return nil, apperr.Transient("find consultant by phone", err)
	}
	return c, nil
}

// ReplaceSkills overwrites the full skill edge set for a consultant.
func (r *ConsultantRepo) ReplaceSkills(ctx context.Context, tc TenantContext, consultantID string, skills []models.ConsultantSkill) error {
	tx, err := r.pool.Begin(ctx)
	if err != nil {
		return apperr.Transient("begin tx", err)
	}
	defer tx.Rollback(ctx)

	if _, err := tx.Exec(ctx, `
		DELETE FROM consultant_skills
		WHERE consultant_id=$1 AND consultant_id IN (SELECT id FROM consultants WHERE tenant_id=$2)`,
		consultantID, tc.TenantID); err != nil {
		return apperr.Transient("clear consultant skills", err)
	}

	for _, s := range skills {
		if _, err := tx.Exec(ctx, `
			INSERT INTO consultant_skills (consultant_id, skill_id, weight) VALUES ($1,$2,$3)
			ON CONFLICT (consultant_id, skill_id) DO UPDATE SET weight = EXCLUDED.weight`,
			consultantID, s.SkillID, s.Weight); err != nil {
			return apperr.Transient("insert consultant skill", err)
		}
	}

	if err := tx.Commit(ctx); err != nil {
		return apperr.Transient("commit tx", err)
	}
	return nil
}

// SkillsFor returns every weighted skill edge for a consultant.
func (r *ConsultantRepo) SkillsFor(ctx context.Context, tc TenantContext, consultantID string) ([]models.ConsultantSkill, error) {
	rows, err := r.pool.Query(ctx, `
		SELECT cs.consultant_id, cs.skill_id, cs.weight
		FROM consultant_skills cs
		JOIN consultants c ON c.id = cs.consultant_id
		WHERE c.tenant_id=$1 AND cs.consultant_id=$2`, tc.TenantID, consultantID)
	if err != nil {
		return nil, apperr.Transient("list consultant skills", err)
	}
	defer rows.Close()

	var out []models.ConsultantSkill
	for rows.Next() {
		var cs models.ConsultantSkill
		if err := rows.Scan(&cs.ConsultantID, &cs.SkillID, &cs.Weight); err != nil {
			return nil, apperr.Transient("scan consultant skill", err)
		}
		out = append(out, cs)
	}
	return out, rows.Err()
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanConsultant(row rowScanner) (*models.Consultant, error) {
	var c models.Consultant
	err := row.Scan(&c.ID, &c.TenantID, &c.FirstName, &c.LastName, &c.Email, &c.Phone,
		&c.Location, &c.Availability, &c.Rate, &c.Experience, &c.Summary, &c.UpdatedAt)
	if err != nil {
		return nil, err
	}
	return &c, nil
}
