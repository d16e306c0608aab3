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

// SkillRepo persists the global canonical skill catalog. Skills are not
// tenant-scoped — they are shared vocabulary across every tenant.
type SkillRepo struct {
	pool *pgxpool.Pool
}

// Upsert inserts a skill or returns the existing one by name.
func (r *SkillRepo) Upsert(ctx context.Context, s *models.Skill) (*models.Skill, error) {
	if s.ID == "" {
		s.ID = uuid.NewString()
	}
	row := r.pool.QueryRow(ctx, `
		INSERT INTO skills (id, name, category, ontology_node_id)
		VALUES ($1,$2,$3,$4)
		ON CONFLICT (name) DO UPDATE SET category = COALESCE(EXCLUDED.category, skills.category)
		RETURNING id, name, category, ontology_node_id`,
		s.ID, s.Name, s.Category, s.OntologyNodeID)

	var out models.Skill
	if err := row.Scan(&out.ID, &out.Name, &out.Category, &out.OntologyNodeID); err != nil {
		return nil, apperr.Transient("upsert skill", err)
	}
	return &out, nil
}

// GetByName looks up a skill by its canonical name.
func (r *SkillRepo) GetByName(ctx context.Context, name string) (*models.Skill, error) {
	row := r.pool.QueryRow(ctx, `SELECT id, name, category, ontology_node_id FROM skills WHERE name=$1`, name)
	var out models.Skill
	err := row.Scan(&out.ID, &out.Name, &out.Category, &out.OntologyNodeID)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, apperr.NotFound("skill not found")
	}
	if err != nil {
		return nil, apperr.Transient("get skill", err)
	}
	return &out, nil
}

// ListAll returns the full skill catalog.
func (r *SkillRepo) ListAll(ctx context.Context) ([]*models.Skill, error) {
	rows, err := r.pool.Query(ctx, `SELECT id, name, category, ontology_node_id FROM skills ORDER BY name`)
	if err != nil {
		return nil, apperr.Transient("list skills", err)
	}
	defer rows.Close()

	var out []*models.Skill
	for rows.Next() {
		var s models.Skill
		if err := rows.Scan(&s.ID, &s.Name, &s.Category, &s.OntologyNodeID); err != nil {
			return nil, apperr.Transient("scan skill", err)
		}
		out = append(out, &s)
	}
	return out, rows.Err()
}
