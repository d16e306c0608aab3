package search

import (
	"context"
	"strings"

	"github.com/konetibalaji/benchsales-match/pkg/apperr"
	"github.com/konetibalaji/benchsales-match/pkg/database"
	"github.com/konetibalaji/benchsales-match/pkg/models"
)

// Embedder is the collaborator surface pkg/embedding.Client provides.
// When nil (or Embed fails) content is indexed with a zero vector of
// dimension D, so the lexical side of the index still works.
type Embedder interface {
	Embed(ctx context.Context, text string) ([]float32, error)
}

// Indexer assembles content for a consultant/requirement and indexes
// it, both persisting the row and updating the in-memory Index — the
// indexEntity(tenantId, {entityType, entityId}) operation.
type Indexer struct {
	index        *Index
	repo         *database.SearchDocRepo
	consultants  *database.ConsultantRepo
	requirements *database.RequirementRepo
	skills       *database.SkillRepo
	embedder     Embedder
	dim          int
}

// NewIndexer wires the collaborators IndexEntity needs.
func NewIndexer(index *Index, repo *database.SearchDocRepo, consultants *database.ConsultantRepo, requirements *database.RequirementRepo, skills *database.SkillRepo, embedder Embedder, dim int) *Indexer {
	return &Indexer{index: index, repo: repo, consultants: consultants, requirements: requirements, skills: skills, embedder: embedder, dim: dim}
}

// skillNames resolves skill ids to their canonical names, falling back
// to the id itself if the catalog lookup fails (content assembly should
// never hard-fail on a missing skill name).
func (ix *Indexer) skillNames(ctx context.Context, ids []string) []string {
	all, err := ix.skills.ListAll(ctx)
	if err != nil {
		return ids
	}
	byID := make(map[string]string, len(all))
	for _, s := range all {
		byID[s.ID] = s.Name
	}
	out := make([]string, len(ids))
	for i, id := range ids {
		if name, ok := byID[id]; ok {
			out[i] = name
		} else {
			out[i] = id
		}
	}
	return out
}

// IndexEntity rebuilds and persists the hybrid index row for one
// consultant or requirement.
func (ix *Indexer) IndexEntity(ctx context.Context, tc database.TenantContext, entityType models.EntityType, entityID string) error {
	var doc *models.SearchDocument
	var err error
	switch entityType {
	case models.EntityConsultant:
		doc, err = ix.assembleConsultant(ctx, tc, entityID)
	case models.EntityRequirement:
		doc, err = ix.assembleRequirement(ctx, tc, entityID)
	default:
		return apperr.Validation("unknown entity type for indexing")
	}
	if err != nil {
		return err
	}

	doc.Embedding = ix.embed(ctx, doc.Content)

	if err := ix.repo.Upsert(ctx, tc, doc); err != nil {
		return err
	}
	return ix.index.IndexEntity(ctx, tc, doc)
}

// ReindexAll rebuilds the hybrid index row for every entity of
// entityType in the tenant — the bulk counterpart to IndexEntity, used
// after an ontology republish or to repair a drifted index.
func (ix *Indexer) ReindexAll(ctx context.Context, tc database.TenantContext, entityType models.EntityType) (int, error) {
	var ids []string
	var err error
	switch entityType {
	case models.EntityConsultant:
		ids, err = ix.consultants.ListIDs(ctx, tc)
	case models.EntityRequirement:
		ids, err = ix.requirements.ListIDs(ctx, tc)
	default:
		return 0, apperr.Validation("unknown entity type for reindex")
	}
	if err != nil {
		return 0, err
	}

	indexed := 0
	for _, id := range ids {
		if err := ix.IndexEntity(ctx, tc, entityType, id); err != nil {
			return indexed, err
		}
		indexed++
	}
	return indexed, nil
}

func (ix *Indexer) embed(ctx context.Context, content string) []float32 {
	if ix.embedder == nil {
		return make([]float32, ix.dim)
	}
	vec, err := ix.embedder.Embed(ctx, content)
	if err != nil {
		return make([]float32, ix.dim)
	}
	return padOrTruncate(vec, ix.dim)
}

func (ix *Indexer) assembleConsultant(ctx context.Context, tc database.TenantContext, id string) (*models.SearchDocument, error) {
	c, err := ix.consultants.Get(ctx, tc, id)
	if err != nil {
		return nil, err
	}
	skillEdges, err := ix.consultants.SkillsFor(ctx, tc, id)
	if err != nil {
		return nil, err
	}
	ids := make([]string, len(skillEdges))
	for i, s := range skillEdges {
		ids[i] = s.SkillID
	}
	skillNames := ix.skillNames(ctx, ids)

	summary := ""
	if c.Summary != nil {
		summary = *c.Summary
	}
	content := strings.Join([]string{
		c.FirstName + " " + c.LastName,
		summary,
		strings.Join(skillNames, ", "),
	}, "\n")

	metadata := map[string]any{
		"availability": c.Availability,
		"skills":       skillNames,
		"updatedAt":    c.UpdatedAt,
	}
	if c.Rate != nil {
		metadata["rate"] = *c.Rate
	}
	if c.Location != nil {
		metadata["location"] = *c.Location
	}

	return &models.SearchDocument{
		EntityType:   models.EntityConsultant,
		EntityID:     id,
		Content:      content,
		Metadata:     models.VersionedJSON{SchemaVersion: 1, Data: metadata},
		SearchVector: content,
	}, nil
}

func (ix *Indexer) assembleRequirement(ctx context.Context, tc database.TenantContext, id string) (*models.SearchDocument, error) {
	r, err := ix.requirements.Get(ctx, tc, id)
	if err != nil {
		return nil, err
	}
	skillEdges, err := ix.requirements.SkillsFor(ctx, tc, id)
	if err != nil {
		return nil, err
	}
	ids := make([]string, len(skillEdges))
	for i, s := range skillEdges {
		ids[i] = s.SkillID
	}
	skillNames := ix.skillNames(ctx, ids)

	content := strings.Join([]string{
		r.Title,
		r.ClientName,
		r.Description,
		strings.Join(skillNames, ", "),
	}, "\n")

	metadata := map[string]any{
		"status":   r.Status,
		"skills":   skillNames,
		"postedAt": r.PostedAt,
	}
	if r.Location != nil {
		metadata["location"] = *r.Location
	}
	if r.ClosesAt != nil {
		metadata["closesAt"] = *r.ClosesAt
	}
	if r.MinRate != nil || r.MaxRate != nil {
		lo, hi := 0.0, 0.0
		if r.MinRate != nil {
			lo = *r.MinRate
		}
		if r.MaxRate != nil {
			hi = *r.MaxRate
		}
		metadata["rateRange"] = []float64{lo, hi}
	}

	return &models.SearchDocument{
		EntityType:   models.EntityRequirement,
		EntityID:     id,
		Content:      content,
		Metadata:     models.VersionedJSON{SchemaVersion: 1, Data: metadata},
		SearchVector: content,
	}, nil
}
