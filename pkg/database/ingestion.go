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

// IngestionRepo persists RequirementIngestion records — the raw-text
// queue feeding requirement parsing (email/manual upload adapters).
type IngestionRepo struct {
	pool *pgxpool.Pool
}

// Create inserts a new ingestion record, or returns the existing one if
// the same tenant already ingested identical content (content_hash is
// unique per tenant).
func (r *IngestionRepo) Create(ctx context.Context, tc TenantContext, ing *models.RequirementIngestion) (*models.RequirementIngestion, bool, error) {
	if ing.ID == "" {
		ing.ID = uuid.NewString()
	}
	ing.TenantID = tc.TenantID
	parsed, err := ing.ParsedData.MarshalForStorage()
	if err != nil {
		return nil, false, apperr.Validation("marshal parsed data")
	}

	row := r.pool.QueryRow(ctx, `
		INSERT INTO requirement_ingestions (id, tenant_id, source, raw_content, content_hash, parsed_data, status, retry_count)
		VALUES ($1,$2,$3,$4,$5,$6,$7,$8)
		ON CONFLICT (tenant_id, content_hash) DO UPDATE SET tenant_id = requirement_ingestions.tenant_id
		RETURNING id, (xmax = 0) AS inserted`,
		ing.ID, ing.TenantID, ing.Source, ing.RawContent, ing.ContentHash, parsed, ing.Status, ing.RetryCount)

	var returnedID string
	var inserted bool
	if err := row.Scan(&returnedID, &inserted); err != nil {
		return nil, false, apperr.Transient("insert requirement ingestion", err)
	}
	if !inserted {
		existing, err := r.Get(ctx, tc, returnedID)
		return existing, false, err
	}
	ing.ID = returnedID
	return ing, true, nil
}

// Get fetches an ingestion record scoped to tc.TenantID.
func (r *IngestionRepo) Get(ctx context.Context, tc TenantContext, id string) (*models.RequirementIngestion, error) {
	row := r.pool.QueryRow(ctx, `
		SELECT id, tenant_id, source, raw_content, content_hash, parsed_data, status, retry_count, processed_at, latency_ms
		FROM requirement_ingestions WHERE tenant_id=$1 AND id=$2`, tc.TenantID, id)
	ing, err := scanIngestion(row)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, apperr.NotFound("requirement ingestion not found")
	}
	if err != nil {
		return nil, apperr.Transient("get requirement ingestion", err)
	}
	return ing, nil
}

// MarkProcessed records a successful parse outcome.
func (r *IngestionRepo) MarkProcessed(ctx context.Context, tc TenantContext, id string, parsed models.VersionedJSON, latencyMs int) error {
	payload, err := parsed.MarshalForStorage()
	if err != nil {
		return apperr.Validation("marshal parsed data")
	}
	tag, err := r.pool.Exec(ctx, `
		UPDATE requirement_ingestions
		SET status='PROCESSED', parsed_data=$3, processed_at=now(), latency_ms=$4
		WHERE tenant_id=$1 AND id=$2`, tc.TenantID, id, payload, latencyMs)
	if err != nil {
		return apperr.Transient("mark ingestion processed", err)
	}
	if tag.RowsAffected() == 0 {
		return apperr.NotFound("requirement ingestion not found")
	}
	return nil
}

// MarkFailed increments the retry counter and records a failure.
func (r *IngestionRepo) MarkFailed(ctx context.Context, tc TenantContext, id string) error {
	tag, err := r.pool.Exec(ctx, `
		UPDATE requirement_ingestions SET status='FAILED', retry_count = retry_count + 1
		WHERE tenant_id=$1 AND id=$2`, tc.TenantID, id)
	if err != nil {
		return apperr.Transient("mark ingestion failed", err)
	}
	if tag.RowsAffected() == 0 {
		return apperr.NotFound("requirement ingestion not found")
	}
	return nil
}

func scanIngestion(row rowScanner) (*models.RequirementIngestion, error) {
	var ing models.RequirementIngestion
	var raw []byte
	err := row.Scan(&ing.ID, &ing.TenantID, &ing.Source, &ing.RawContent, &ing.ContentHash, &raw,
		&ing.Status, &ing.RetryCount, &ing.ProcessedAt, &ing.LatencyMs)
	if err != nil {
		return nil, err
	}
	parsed, err := models.ParseVersionedJSON(raw)
	if err != nil {
		return nil, err
	}
	ing.ParsedData = parsed
	return &ing, nil
}
