package database

import (
	"context"

	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/konetibalaji/benchsales-match/pkg/apperr"
	"github.com/konetibalaji/benchsales-match/pkg/models"
)

// SearchDocRepo persists the durable copy of each entity's hybrid index
// row. pkg/search's Index.Hydrate can reload a tenant's in-memory Bleve +
// vector index from this table; the server does not call it at startup,
// and the Indexer keeps the index updated incrementally.
type SearchDocRepo struct {
	pool *pgxpool.Pool
}

// Upsert writes or replaces a search document.
func (r *SearchDocRepo) Upsert(ctx context.Context, tc TenantContext, d *models.SearchDocument) error {
	d.TenantID = tc.TenantID
	meta, err := d.Metadata.MarshalForStorage()
	if err != nil {
		return apperr.Validation("marshal search document metadata")
	}
	_, err = r.pool.Exec(ctx, `
		INSERT INTO search_documents (tenant_id, entity_type, entity_id, content, metadata, search_vector, embedding, updated_at)
		VALUES ($1,$2,$3,$4,$5,$6,$7, now())
		ON CONFLICT (tenant_id, entity_type, entity_id) DO UPDATE SET
			content = EXCLUDED.content,
			metadata = EXCLUDED.metadata,
			search_vector = EXCLUDED.search_vector,
			embedding = EXCLUDED.embedding,
			updated_at = now()`,
		d.TenantID, d.EntityType, d.EntityID, d.Content, meta, d.SearchVector, toFloat64Slice(d.Embedding))
	if err != nil {
		return apperr.Transient("upsert search document", err)
	}
	return nil
}

// ListByTenant streams every search document for a tenant, used to
// rebuild the in-memory index on process startup.
func (r *SearchDocRepo) ListByTenant(ctx context.Context, tc TenantContext) ([]*models.SearchDocument, error) {
	rows, err := r.pool.Query(ctx, `
		SELECT tenant_id, entity_type, entity_id, content, metadata, search_vector, embedding, updated_at
		FROM search_documents WHERE tenant_id=$1`, tc.TenantID)
	if err != nil {
		return nil, apperr.Transient("list search documents", err)
	}
	defer rows.Close()

	var out []*models.SearchDocument
	for rows.Next() {
		var d models.SearchDocument
		var raw []byte
		var embedding []float64
		if err := rows.Scan(&d.TenantID, &d.EntityType, &d.EntityID, &d.Content, &raw, &d.SearchVector, &embedding, &d.UpdatedAt); err != nil {
			return nil, apperr.Transient("scan search document", err)
		}
		parsed, err := models.ParseVersionedJSON(raw)
		if err != nil {
			return nil, apperr.Transient("parse search document metadata", err)
		}
		d.Metadata = parsed
		d.Embedding = toFloat32Slice(embedding)
		out = append(out, &d)
	}
	return out, rows.Err()
}

// Delete removes a search document (entity deleted/withdrawn).
func (r *SearchDocRepo) Delete(ctx context.Context, tc TenantContext, entityType models.EntityType, entityID string) error {
	_, err := r.pool.Exec(ctx, `
		DELETE FROM search_documents WHERE tenant_id=$1 AND entity_type=$2 AND entity_id=$3`,
		tc.TenantID, entityType, entityID)
	if err != nil {
		return apperr.Transient("delete search document", err)
	}
	return nil
}

func toFloat64Slice(in []float32) []float64 {
	out := make([]float64, len(in))
	for i, v := range in {
		out[i] = float64(v)
	}
	return out
}

func toFloat32Slice(in []float64) []float32 {
	out := make([]float32, len(in))
	for i, v := range in {
		out[i] = float32(v)
	}
	return out
}
