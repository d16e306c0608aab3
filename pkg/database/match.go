package database

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/konetibalaji/benchsales-match/pkg/apperr"
	"github.com/konetibalaji/benchsales-match/pkg/models"
)

// MatchRepo persists Match, MatchFeatureSnapshot, and MatchFeedback rows.
type MatchRepo struct {
	pool *pgxpool.Pool
}

// Upsert writes or rescoring a consultant/requirement pair, keyed by the
// unique (tenant, consultant, requirement) index so rerunning the
// matcher updates the existing row rather than duplicating it.
func (r *MatchRepo) Upsert(ctx context.Context, tc TenantContext, m *models.Match) error {
	if m.ID == "" {
		m.ID = uuid.NewString()
	}
	m.TenantID = tc.TenantID
	explanation, err := m.Explanation.MarshalForStorage()
	if err != nil {
		return apperr.Validation("marshal match explanation")
	}
	feedback, err := m.Feedback.MarshalForStorage()
	if err != nil {
		return apperr.Validation("marshal match feedback")
	}

	row := r.pool.QueryRow(ctx, `
		INSERT INTO matches (id, tenant_id, consultant_id, requirement_id, score, status, explanation, feedback, created_at, updated_at)
		VALUES ($1,$2,$3,$4,$5,$6,$7,$8, now(), now())
		ON CONFLICT (tenant_id, consultant_id, requirement_id) DO UPDATE SET
			score = EXCLUDED.score,
			explanation = EXCLUDED.explanation,
			updated_at = now()
		RETURNING id`,
		m.ID, m.TenantID, m.ConsultantID, m.RequirementID, m.Score, m.Status, explanation, feedback)

	if err := row.Scan(&m.ID); err != nil {
		return apperr.Transient("upsert match", err)
	}
	return nil
}

// UpsertWithSnapshot writes the rescored Match and its immutable
// MatchFeatureSnapshot atomically in one transaction, so a reader
// never observes one write without the other.
func (r *MatchRepo) UpsertWithSnapshot(ctx context.Context, tc TenantContext, m *models.Match, snap *models.MatchFeatureSnapshot) error {
	if m.ID == "" {
		m.ID = uuid.NewString()
	}
	m.TenantID = tc.TenantID
	explanation, err := m.Explanation.MarshalForStorage()
	if err != nil {
		return apperr.Validation("marshal match explanation")
	}
	feedback, err := m.Feedback.MarshalForStorage()
	if err != nil {
		return apperr.Validation("marshal match feedback")
	}

	tx, err := r.pool.Begin(ctx)
	if err != nil {
		return apperr.Transient("begin match transaction", err)
	}
	defer func() { _ = tx.Rollback(ctx) }()

	row := tx.QueryRow(ctx, `
		INSERT INTO matches (id, tenant_id, consultant_id, requirement_id, score, status, explanation, feedback, created_at, updated_at)
		VALUES ($1,$2,$3,$4,$5,$6,$7,$8, now(), now())
		ON CONFLICT (tenant_id, consultant_id, requirement_id) DO UPDATE SET
			score = EXCLUDED.score,
			explanation = EXCLUDED.explanation,
			updated_at = now()
		RETURNING id`,
		m.ID, m.TenantID, m.ConsultantID, m.RequirementID, m.Score, m.Status, explanation, feedback)
	if err := row.Scan(&m.ID); err != nil {
		return apperr.Transient("upsert match", err)
	}

	if snap.ID == "" {
		snap.ID = uuid.NewString()
	}
	snap.MatchID = m.ID
	features, err := snap.Features.MarshalForStorage()
	if err != nil {
		return apperr.Validation("marshal feature snapshot")
	}
	snapExplanation, err := snap.Explanation.MarshalForStorage()
	if err != nil {
		return apperr.Validation("marshal feature snapshot explanation")
	}
	if _, err := tx.Exec(ctx, `
		INSERT INTO match_feature_snapshots (id, match_id, model_version, features, explanation, created_at)
		VALUES ($1,$2,$3,$4,$5, now())`,
		snap.ID, snap.MatchID, snap.ModelVersion, features, snapExplanation); err != nil {
		return apperr.Transient("insert feature snapshot", err)
	}

	if err := tx.Commit(ctx); err != nil {
		return apperr.Transient("commit match upsert", err)
	}
	return nil
}

// UpdateFeedback overwrites a match's aggregated feedback JSON, used
// after a new MatchFeedback row is recorded.
func (r *MatchRepo) UpdateFeedback(ctx context.Context, tc TenantContext, matchID string, feedback models.VersionedJSON) error {
	raw, err := feedback.MarshalForStorage()
	if err != nil {
		return apperr.Validation("marshal match feedback aggregate")
	}
	tag, err := r.pool.Exec(ctx, `
		UPDATE matches SET feedback=$3, updated_at=now() WHERE tenant_id=$1 AND id=$2`, tc.TenantID, matchID, raw)
	if err != nil {
		return apperr.Transient("update match feedback", err)
	}
	if tag.RowsAffected() == 0 {
		return apperr.NotFound("match not found")
	}
	return nil
}

// ListInWindow returns every match for a tenant created within
// [windowStart, windowEnd], used by the offline/online evaluation run.
func (r *MatchRepo) ListInWindow(ctx context.Context, tc TenantContext, windowStart, windowEnd time.Time) ([]*models.Match, error) {
	rows, err := r.pool.Query(ctx, `
		SELECT id, tenant_id, consultant_id, requirement_id, score, status, explanation, feedback, created_at, updated_at
		FROM matches WHERE tenant_id=$1 AND created_at >= $2 AND created_at <= $3
		ORDER BY requirement_id, score DESC`, tc.TenantID, windowStart, windowEnd)
	if err != nil {
		return nil, apperr.Transient("list matches in window", err)
	}
	defer rows.Close()

	var out []*models.Match
	for rows.Next() {
		m, err := scanMatch(rows)
		if err != nil {
			return nil, apperr.Transient("scan match", err)
		}
		out = append(out, m)
	}
	return out, rows.Err()
}

// Get fetches a match scoped to tc.TenantID.
func (r *MatchRepo) Get(ctx context.Context, tc TenantContext, id string) (*models.Match, error) {
	row := r.pool.QueryRow(ctx, `
		SELECT id, tenant_id, consultant_id, requirement_id, score, status, explanation, feedback, created_at, updated_at
		FROM matches WHERE tenant_id=$1 AND id=$2`, tc.TenantID, id)
	m, err := scanMatch(row)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, apperr.NotFound("match not found")
	}
	if err != nil {
		return nil, apperr.Transient("get match", err)
	}
	return m, nil
}

// ListForRequirement returns every match for a requirement, best score first.
func (r *MatchRepo) ListForRequirement(ctx context.Context, tc TenantContext, requirementID string, limit int) ([]*models.Match, error) {
	rows, err := r.pool.Query(ctx, `
		SELECT id, tenant_id, consultant_id, requirement_id, score, status, explanation, feedback, created_at, updated_at
		FROM matches WHERE tenant_id=$1 AND requirement_id=$2
		ORDER BY score DESC LIMIT $3`, tc.TenantID, requirementID, limit)
	if err != nil {
		return nil, apperr.Transient("list matches", err)
	}
	defer rows.Close()

	var out []*models.Match
	for rows.Next() {
		m, err := scanMatch(rows)
		if err != nil {
			return nil, apperr.Transient("scan match", err)
		}
		out = append(out, m)
	}
	return out, rows.Err()
}

// UpdateStatus transitions a match's review lifecycle status.
func (r *MatchRepo) UpdateStatus(ctx context.Context, tc TenantContext, id string, status models.MatchStatus) error {
	tag, err := r.pool.Exec(ctx, `
		UPDATE matches SET status=$3, updated_at=now() WHERE tenant_id=$1 AND id=$2`, tc.TenantID, id, status)
	if err != nil {
		return apperr.Transient("update match status", err)
	}
	if tag.RowsAffected() == 0 {
		return apperr.NotFound("match not found")
	}
	return nil
}

// SaveFeatureSnapshot persists one immutable per-scoring-run history row.
func (r *MatchRepo) SaveFeatureSnapshot(ctx context.Context, snap *models.MatchFeatureSnapshot) error {
	if snap.ID == "" {
		snap.ID = uuid.NewString()
	}
	features, err := snap.Features.MarshalForStorage()
	if err != nil {
		return apperr.Validation("marshal feature snapshot")
	}
	explanation, err := snap.Explanation.MarshalForStorage()
	if err != nil {
		return apperr.Validation("marshal feature snapshot explanation")
	}
	_, err = r.pool.Exec(ctx, `
		INSERT INTO match_feature_snapshots (id, match_id, model_version, features, explanation, created_at)
		VALUES ($1,$2,$3,$4,$5, now())`,
		snap.ID, snap.MatchID, snap.ModelVersion, features, explanation)
	if err != nil {
		return apperr.Transient("insert feature snapshot", err)
	}
	return nil
}

// AddFeedback appends a human (or automated) review outcome.
func (r *MatchRepo) AddFeedback(ctx context.Context, tc TenantContext, fb *models.MatchFeedback) error {
	if fb.ID == "" {
		fb.ID = uuid.NewString()
	}
	fb.TenantID = tc.TenantID
	meta, err := fb.Metadata.MarshalForStorage()
	if err != nil {
		return apperr.Validation("marshal feedback metadata")
	}
	_, err = r.pool.Exec(ctx, `
		INSERT INTO match_feedback (id, match_id, tenant_id, outcome, rating, reason, metadata, created_at)
		VALUES ($1,$2,$3,$4,$5,$6,$7, now())`,
		fb.ID, fb.MatchID, fb.TenantID, fb.Outcome, fb.Rating, fb.Reason, meta)
	if err != nil {
		return apperr.Transient("insert match feedback", err)
	}
	return nil
}

// FeedbackForMatch returns every feedback row for a match, oldest first.
func (r *MatchRepo) FeedbackForMatch(ctx context.Context, tc TenantContext, matchID string) ([]*models.MatchFeedback, error) {
	rows, err := r.pool.Query(ctx, `
		SELECT id, match_id, tenant_id, outcome, rating, reason, metadata, created_at
		FROM match_feedback WHERE tenant_id=$1 AND match_id=$2 ORDER BY created_at`, tc.TenantID, matchID)
	if err != nil {
		return nil, apperr.Transient("list match feedback", err)
	}
	defer rows.Close()

	var out []*models.MatchFeedback
	for rows.Next() {
		var fb models.MatchFeedback
		var raw []byte
		if err := rows.Scan(&fb.ID, &fb.MatchID, &fb.TenantID, &fb.Outcome, &fb.Rating, &fb.Reason, &raw, &fb.CreatedAt); err != nil {
			return nil, apperr.Transient("scan match feedback", err)
		}
		parsed, err := models.ParseVersionedJSON(raw)
		if err != nil {
			return nil, apperr.Transient("parse feedback metadata", err)
		}
		fb.Metadata = parsed
		out = append(out, &fb)
	}
	return out, rows.Err()
}

func scanMatch(row rowScanner) (*models.Match, error) {
	var m models.Match
	var explanationRaw, feedbackRaw []byte
	err := row.Scan(&m.ID, &m.TenantID, &m.ConsultantID, &m.RequirementID, &m.Score, &m.Status,
		&explanationRaw, &feedbackRaw, &m.CreatedAt, &m.UpdatedAt)
	if err != nil {
		return nil, err
	}
	explanation, err := models.ParseVersionedJSON(explanationRaw)
	if err != nil {
		return nil, err
	}
	feedback, err := models.ParseVersionedJSON(feedbackRaw)
	if err != nil {
		return nil, err
	}
	m.Explanation = explanation
	m.Feedback = feedback
	return &m, nil
}
