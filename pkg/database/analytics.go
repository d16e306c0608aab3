package database

import (
	"context"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/konetibalaji/benchsales-match/pkg/apperr"
	"github.com/konetibalaji/benchsales-match/pkg/models"
)

// AnalyticsRepo persists evaluation run snapshots.
type AnalyticsRepo struct {
	pool *pgxpool.Pool
}

// Save persists one evaluation run.
func (r *AnalyticsRepo) Save(ctx context.Context, tc TenantContext, a *models.AnalyticsSnapshot) error {
	if a.ID == "" {
		a.ID = uuid.NewString()
	}
	a.TenantID = tc.TenantID
	metrics, err := a.Metrics.MarshalForStorage()
	if err != nil {
		return apperr.Validation("marshal analytics metrics")
	}
	_, err = r.pool.Exec(ctx, `
		INSERT INTO analytics_snapshots
			(id, tenant_id, window_start, window_end, metrics, sample_size, coverage, baseline_delta, review_summary, created_at)
		VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9, now())`,
		a.ID, a.TenantID, a.WindowStart, a.WindowEnd, metrics, a.SampleSize, a.Coverage, a.BaselineDelta, a.ReviewSummary)
	if err != nil {
		return apperr.Transient("insert analytics snapshot", err)
	}
	return nil
}

// Latest returns the most recent snapshot for a tenant.
func (r *AnalyticsRepo) Latest(ctx context.Context, tc TenantContext) (*models.AnalyticsSnapshot, error) {
	row := r.pool.QueryRow(ctx, `
		SELECT id, tenant_id, window_start, window_end, metrics, sample_size, coverage, baseline_delta, review_summary, created_at
		FROM analytics_snapshots WHERE tenant_id=$1 ORDER BY window_end DESC LIMIT 1`, tc.TenantID)

	var a models.AnalyticsSnapshot
	var raw []byte
	err := row.Scan(&a.ID, &a.TenantID, &a.WindowStart, &a.WindowEnd, &raw, &a.SampleSize, &a.Coverage, &a.BaselineDelta, &a.ReviewSummary, &a.CreatedAt)
	if err != nil {
		return nil, apperr.Transient("get latest analytics snapshot", err)
	}
	parsed, err := models.ParseVersionedJSON(raw)
	if err != nil {
		return nil, apperr.Transient("parse analytics metrics", err)
	}
	a.Metrics = parsed
	return &a, nil
}
