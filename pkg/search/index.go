// Package search implements a hybrid (lexical + vector) index: one
// Bleve index and one brute-force vector store per tenant, reloadable
// from database.SearchDocRepo via Hydrate and kept
// current by explicit IndexEntity/Delete calls after each mutation.
// Each tenant gets its own index so a lexical query can never surface
// another tenant's rows even by construction.
package search

import (
	"context"
	"sort"
	"strings"
	"sync"

	"github.com/blevesearch/bleve/v2"
	"github.com/blevesearch/bleve/v2/analysis/analyzer/standard"

	"github.com/konetibalaji/benchsales-match/pkg/apperr"
	"github.com/konetibalaji/benchsales-match/pkg/config"
	"github.com/konetibalaji/benchsales-match/pkg/database"
	"github.com/konetibalaji/benchsales-match/pkg/models"
)

// bleveDoc is the shape indexed into Bleve; only content is searched,
// entityType is stored for filtering without a round trip.
type bleveDoc struct {
	Content    string `json:"content"`
	EntityType string `json:"entityType"`
}

// tenantIndex holds one tenant's lexical and vector data in memory.
type tenantIndex struct {
	bleve    bleve.Index
	vectors  map[string][]float32
	metadata map[string]models.VersionedJSON
	content  map[string]string
	entity   map[string]models.EntityType
}

func newTenantIndex() (*tenantIndex, error) {
	docMapping := bleve.NewDocumentMapping()
	textField := bleve.NewTextFieldMapping()
	textField.Analyzer = standard.Name
	docMapping.AddFieldMappingsAt("content", textField)
	keywordField := bleve.NewKeywordFieldMapping()
	docMapping.AddFieldMappingsAt("entityType", keywordField)

	mapping := bleve.NewIndexMapping()
	mapping.DefaultMapping = docMapping

	idx, err := bleve.NewMemOnly(mapping)
	if err != nil {
		return nil, apperr.Fatal("create in-memory search index", err)
	}
	return &tenantIndex{
		bleve:    idx,
		vectors:  map[string][]float32{},
		metadata: map[string]models.VersionedJSON{},
		content:  map[string]string{},
		entity:   map[string]models.EntityType{},
	}, nil
}

// Index holds every tenant's hybrid search state.
type Index struct {
	mu      sync.RWMutex
	tenants map[string]*tenantIndex
	cfg     config.SearchConfig
}

// NewIndex builds an empty Index; call Hydrate per tenant to restore
// state persisted in database.SearchDocRepo.
func NewIndex(cfg config.SearchConfig) *Index {
	return &Index{tenants: map[string]*tenantIndex{}, cfg: cfg}
}

func docKey(entityType models.EntityType, entityID string) string {
	return string(entityType) + ":" + entityID
}

func (ix *Index) tenant(tenantID string) (*tenantIndex, error) {
	ix.mu.Lock()
	defer ix.mu.Unlock()
	t, ok := ix.tenants[tenantID]
	if ok {
		return t, nil
	}
	t, err := newTenantIndex()
	if err != nil {
		return nil, err
	}
	ix.tenants[tenantID] = t
	return t, nil
}

// Hydrate loads every persisted search document for tc's tenant into
// memory. Nothing in this repository calls it: after a process start a
// tenant's index is empty until Hydrate, IndexEntity or
// Indexer.ReindexAll fills it.
func (ix *Index) Hydrate(ctx context.Context, tc database.TenantContext, repo *database.SearchDocRepo) error {
	docs, err := repo.ListByTenant(ctx, tc)
	if err != nil {
		return err
	}
	for _, d := range docs {
		if err := ix.index(tc.TenantID, d); err != nil {
			return err
		}
	}
	return nil
}

// IndexEntity stores d in memory for tc's tenant. Callers are
// responsible for persisting d via database.SearchDocRepo.Upsert first
// (or accepting it will be lost on restart until the next Hydrate).
func (ix *Index) IndexEntity(_ context.Context, tc database.TenantContext, d *models.SearchDocument) error {
	d.TenantID = tc.TenantID
	return ix.index(tc.TenantID, d)
}

func (ix *Index) index(tenantID string, d *models.SearchDocument) error {
	t, err := ix.tenant(tenantID)
	if err != nil {
		return err
	}
	key := docKey(d.EntityType, d.EntityID)

	ix.mu.Lock()
	defer ix.mu.Unlock()
	if err := t.bleve.Index(key, bleveDoc{Content: d.Content, EntityType: string(d.EntityType)}); err != nil {
		return apperr.Fatal("index search document", err)
	}
	dim := ix.cfg.EmbeddingDims
	vec := d.Embedding
	if dim > 0 {
		vec = padOrTruncate(vec, dim)
	}
	t.vectors[key] = vec
	t.metadata[key] = d.Metadata
	t.content[key] = d.Content
	t.entity[key] = d.EntityType
	return nil
}

// Delete removes an entity from tc's tenant index (caller also deletes
// the persisted row via database.SearchDocRepo.Delete).
func (ix *Index) Delete(_ context.Context, tc database.TenantContext, entityType models.EntityType, entityID string) error {
	t, err := ix.tenant(tc.TenantID)
	if err != nil {
		return err
	}
	key := docKey(entityType, entityID)

	ix.mu.Lock()
	defer ix.mu.Unlock()
	if err := t.bleve.Delete(key); err != nil {
		return apperr.Fatal("delete search document", err)
	}
	delete(t.vectors, key)
	delete(t.metadata, key)
	delete(t.content, key)
	delete(t.entity, key)
	return nil
}

// Filters are the hard predicates applied before ranking.
type Filters struct {
	Location *string
	Skills   []string
	MaxRate  *float64
}

// Result is one hybridSearch hit.
type Result struct {
	EntityType   models.EntityType
	EntityID     string
	TotalScore   float64
	VectorScore  float64
	LexicalScore float64
}

// HybridSearch applies hard filters, then a weighted blend of vector
// similarity and Bleve lexical score, capped at min(limit, 100).
func (ix *Index) HybridSearch(ctx context.Context, tc database.TenantContext, query string, queryEmbedding []float32, entityTypes []models.EntityType, filters Filters, limit int) ([]Result, error) {
	if limit <= 0 || limit > 100 {
		if limit <= 0 {
			limit = ix.cfg.MaxResults
		}
		if limit <= 0 || limit > 100 {
			limit = 100
		}
	}

	t, err := ix.tenant(tc.TenantID)
	if err != nil {
		return nil, err
	}

	ix.mu.RLock()
	defer ix.mu.RUnlock()

	lexicalScores := map[string]float64{}
	if strings.TrimSpace(query) != "" {
		req := bleve.NewSearchRequest(bleve.NewMatchQuery(query))
		req.Size = 10000
		hits, err := t.bleve.Search(req)
		if err != nil {
			return nil, apperr.Fatal("run lexical search", err)
		}
		var maxScore float64
		for _, h := range hits.Hits {
			if h.Score > maxScore {
				maxScore = h.Score
			}
		}
		for _, h := range hits.Hits {
			if maxScore > 0 {
				lexicalScores[h.ID] = h.Score / maxScore
			}
		}
	}

	typeFilter := make(map[models.EntityType]bool, len(entityTypes))
	for _, et := range entityTypes {
		typeFilter[et] = true
	}

	wV := ix.cfg.VectorWeight
	wL := ix.cfg.LexicalWeight
	if wV == 0 && wL == 0 {
		wV, wL = 0.6, 0.4
	}

	var results []Result
	for key, entityType := range t.entity {
		if len(typeFilter) > 0 && !typeFilter[entityType] {
			continue
		}
		if !passesFilters(t.metadata[key], filters) {
			continue
		}

		vScore := 0.0
		if len(queryEmbedding) > 0 {
			vScore = cosineSimilarity(queryEmbedding, t.vectors[key])
		}
		lScore := lexicalScores[key]

		parts := strings.SplitN(key, ":", 2)
		entityID := key
		if len(parts) == 2 {
			entityID = parts[1]
		}
		results = append(results, Result{
			EntityType:   entityType,
			EntityID:     entityID,
			VectorScore:  vScore,
			LexicalScore: lScore,
			TotalScore:   wV*vScore + wL*lScore,
		})
	}

	sort.Slice(results, func(i, j int) bool { return results[i].TotalScore > results[j].TotalScore })
	if len(results) > limit {
		results = results[:limit]
	}
	return results, nil
}

func passesFilters(meta models.VersionedJSON, f Filters) bool {
	data := meta.Data
	if data == nil {
		data = map[string]any{}
	}
	if f.Location != nil && *f.Location != "" {
		loc, _ := data["location"].(string)
		if !strings.Contains(strings.ToLower(loc), strings.ToLower(*f.Location)) {
			return false
		}
	}
	if len(f.Skills) > 0 {
		have := map[string]bool{}
		if raw, ok := data["skills"].([]any); ok {
			for _, s := range raw {
				if name, ok := s.(string); ok {
					have[strings.ToLower(name)] = true
				}
			}
		}
		for _, want := range f.Skills {
			if !have[strings.ToLower(want)] {
				return false
			}
		}
	}
	if f.MaxRate != nil {
		if raw, ok := data["rateRange"].([]any); ok && len(raw) == 2 {
			if hi, ok := toFloat(raw[1]); ok && hi > *f.MaxRate {
				return false
			}
		}
	}
	return true
}

func toFloat(v any) (float64, bool) {
	switch n := v.(type) {
	case float64:
		return n, true
	case float32:
		return float64(n), true
	case int:
		return float64(n), true
	default:
		return 0, false
	}
}
