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

// DocumentRepo persists DocumentAsset rows and their DocumentMetadata
// side table tracking ingestion/PII processing state.
type DocumentRepo struct {
	pool *pgxpool.Pool
}

// Create inserts a new document asset reference.
func (r *DocumentRepo) Create(ctx context.Context, tc TenantContext, d *models.DocumentAsset) error {
	if d.ID == "" {
		d.ID = uuid.NewString()
	}
	d.TenantID = tc.TenantID
	_, err := r.pool.Exec(ctx, `
		INSERT INTO document_assets
			(id, tenant_id, kind, file_name, content_type, size_bytes, storage_key, consultant_id, requirement_id, created_at)
		VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9, now())`,
		d.ID, d.TenantID, d.Kind, d.FileName, d.ContentType, d.SizeBytes, d.StorageKey, d.ConsultantID, d.RequirementID)
	if err != nil {
		return apperr.Transient("insert document asset", err)
	}
	return nil
}

// Get fetches a document asset scoped to tc.TenantID.
func (r *DocumentRepo) Get(ctx context.Context, tc TenantContext, id string) (*models.DocumentAsset, error) {
	row := r.pool.QueryRow(ctx, `
		SELECT id, tenant_id, kind, file_name, content_type, size_bytes, storage_key, consultant_id, requirement_id, created_at
		FROM document_assets WHERE tenant_id=$1 AND id=$2`, tc.TenantID, id)

	var d models.DocumentAsset
	err := row.Scan(&d.ID, &d.TenantID, &d.Kind, &d.FileName, &d.ContentType, &d.SizeBytes,
		&d.StorageKey, &d.ConsultantID, &d.RequirementID, &d.CreatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, apperr.NotFound("document not found")
	}
	if err != nil {
		return nil, apperr.Transient("get document asset", err)
	}
	return &d, nil
}

// UpsertMetadata writes the per-document ingestion/PII tracking row,
// keyed by the document's tenant+sha256 so re-uploading identical bytes
// is detected at the unique index rather than at application logic.
func (r *DocumentRepo) UpsertMetadata(ctx context.Context, tc TenantContext, m *models.DocumentMetadata) error {
	m.TenantID = tc.TenantID
	payload, err := m.PIISummary.MarshalForStorage()
	if err != nil {
		return apperr.Validation("marshal pii summary")
	}
	_, err = r.pool.Exec(ctx, `
		INSERT INTO document_metadata
			(document_id, tenant_id, sha256, sha1, md5, ingestion_status, pii_status, pii_summary,
			 page_count, text_byte_size, ingestion_latency_ms, extracted_at, last_redaction_at)
		VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10,$11,$12,$13)
		ON CONFLICT (document_id) DO UPDATE SET
			ingestion_status = EXCLUDED.ingestion_status,
			pii_status = EXCLUDED.pii_status,
			pii_summary = EXCLUDED.pii_summary,
			page_count = EXCLUDED.page_count,
			text_byte_size = EXCLUDED.text_byte_size,
			ingestion_latency_ms = EXCLUDED.ingestion_latency_ms,
			extracted_at = EXCLUDED.extracted_at,
			last_redaction_at = EXCLUDED.last_redaction_at`,
		m.DocumentID, m.TenantID, m.SHA256, m.SHA1, m.MD5, m.IngestionStatus, m.PIIStatus, payload,
		m.PageCount, m.TextByteSize, m.IngestionLatencyMs, m.ExtractedAt, m.LastRedactionAt)
	if err != nil {
		return apperr.Transient("upsert document metadata", err)
	}
	return nil
}

// FindBySHA256 looks up an existing document by content hash, the
// primary dedupe check before re-ingesting a resume.
func (r *DocumentRepo) FindBySHA256(ctx context.Context, tc TenantContext, sha256 string) (*models.DocumentMetadata, error) {
	row := r.pool.QueryRow(ctx, `
		SELECT document_id, tenant_id, sha256, sha1, md5, ingestion_status, pii_status, pii_summary,
		       page_count, text_byte_size, ingestion_latency_ms, extracted_at, last_redaction_at
		FROM document_metadata WHERE tenant_id=$1 AND sha256=$2`, tc.TenantID, sha256)

	m, err := scanDocumentMetadata(row)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, apperr.NotFound("document metadata not found")
	}
	if err != nil {
		return nil, apperr.Transient("find document by sha256", err)
	}
	return m, nil
}

func scanDocumentMetadata(row rowScanner) (*models.DocumentMetadata, error) {
	var m models.DocumentMetadata
	var raw []byte
	err := row.Scan(&m.DocumentID, &m.TenantID, &m.SHA256, &m.SHA1, &m.MD5, &m.IngestionStatus,
		&m.PIIStatus, &raw, &m.PageCount, &m.TextByteSize, &m.IngestionLatencyMs, &m.ExtractedAt, &m.LastRedactionAt)
	if err != nil {
		return nil, err
	}
	parsed, err := models.ParseVersionedJSON(raw)
	if err != nil {
		return nil, err
	}
	m.PIISummary = parsed
	return &m, nil
}
