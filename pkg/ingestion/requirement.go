package ingestion

import (
	"context"
	"crypto/md5"
	"encoding/hex"
	"encoding/json"
	"time"

	"github.com/konetibalaji/benchsales-match/pkg/apperr"
	"github.com/konetibalaji/benchsales-match/pkg/database"
	"github.com/konetibalaji/benchsales-match/pkg/models"
	"github.com/konetibalaji/benchsales-match/pkg/ontology"
	"github.com/konetibalaji/benchsales-match/pkg/queue"
)

// RequirementQueue is the logical queue name requirement ingestion jobs run on.
const RequirementQueue = "requirement.ingestion"

// RequirementRequest is the synchronous entry point's input.
type RequirementRequest struct {
	RawContent string
	Source     string
}

// RequirementResult reports whether the content was a dedupe hit.
type RequirementResult struct {
	IngestionID string
	Duplicate   bool
}

type requirementJobPayload struct {
	TenantID    string `json:"tenantId"`
	IngestionID string `json:"ingestionId"`
}

// RequirementPipeline wires the collaborators the requirement ingestion
// path needs.
type RequirementPipeline struct {
	store     *database.Store
	queue     *queue.Store
	extractor StructuredExtractor
	matcher   *ontology.Matcher
	indexer   EntityIndexer
}

// NewRequirementPipeline builds a RequirementPipeline.
func NewRequirementPipeline(store *database.Store, queueStore *queue.Store, extractor StructuredExtractor, matcher *ontology.Matcher, indexer EntityIndexer) *RequirementPipeline {
	return &RequirementPipeline{store: store, queue: queueStore, extractor: extractor, matcher: matcher, indexer: indexer}
}

// SetMatcher swaps the live skill matcher, used after an ontology reload.
func (p *RequirementPipeline) SetMatcher(m *ontology.Matcher) { p.matcher = m }

// Intake hashes raw content (MD5), dedupes against (tenantId,
// contentHash), persists a PENDING ingestion row, and enqueues.
func (p *RequirementPipeline) Intake(ctx context.Context, tc database.TenantContext, req RequirementRequest) (*RequirementResult, error) {
	sum := md5.Sum([]byte(req.RawContent))
	hash := hex.EncodeToString(sum[:])

	ing := &models.RequirementIngestion{
		Source:      req.Source,
		RawContent:  req.RawContent,
		ContentHash: hash,
		Status:      models.ReqIngestionPending,
		ParsedData:  models.VersionedJSON{SchemaVersion: 1, Data: map[string]any{}},
	}
	created, inserted, err := p.store.Ingestions.Create(ctx, tc, ing)
	if err != nil {
		return nil, err
	}
	if !inserted {
		return &RequirementResult{IngestionID: created.ID, Duplicate: true}, nil
	}

	payload := requirementJobPayload{TenantID: tc.TenantID, IngestionID: created.ID}
	if _, err := p.queue.Enqueue(ctx, RequirementQueue, payload, queue.EnqueueOptions{
		TenantID:       tc.TenantID,
		IdempotencyKey: created.ID,
	}); err != nil {
		return nil, err
	}
	return &RequirementResult{IngestionID: created.ID, Duplicate: false}, nil
}

// Handler is the queue.Handler for requirement.ingestion.
func (p *RequirementPipeline) Handler() queue.Handler {
	return func(ctx context.Context, job *queue.Job) error {
		var payload requirementJobPayload
		if err := json.Unmarshal(job.Payload, &payload); err != nil {
			return apperr.Validation("decode requirement job payload: " + err.Error())
		}
		tc, err := database.NewTenantContext(payload.TenantID)
		if err != nil {
			return err
		}
		return p.process(ctx, tc, payload.IngestionID)
	}
}

func (p *RequirementPipeline) process(ctx context.Context, tc database.TenantContext, ingestionID string) error {
	started := time.Now()

	ing, err := p.store.Ingestions.Get(ctx, tc, ingestionID)
	if err != nil {
		return err
	}

	structured, err := p.extractor.Extract(ctx, ing.RawContent)
	if err != nil {
		_ = p.store.Ingestions.MarkFailed(ctx, tc, ingestionID)
		return err
	}

	skillIDs, skillNames := p.resolveSkills(structured.Skills, ing.RawContent)

	req, err := p.store.Requirements.FindByTitleAndClient(ctx, tc, structured.Title, structured.ClientName)
	if err != nil {
		if apperr.KindOf(err) != apperr.KindNotFound {
			_ = p.store.Ingestions.MarkFailed(ctx, tc, ingestionID)
			return err
		}
		req = &models.Requirement{
			Title:       structured.Title,
			ClientName:  structured.ClientName,
			Description: ing.RawContent,
			Location:    structured.Location,
			Status:      models.RequirementOpen,
			Source:      ing.Source,
			MinRate:     structured.SuggestedRate,
			MaxRate:     structured.SuggestedRate,
		}
		if err := p.store.Requirements.Create(ctx, tc, req); err != nil {
			_ = p.store.Ingestions.MarkFailed(ctx, tc, ingestionID)
			return err
		}
	}

	edges := make([]models.RequirementSkill, len(skillIDs))
	for i, id := range skillIDs {
		edges[i] = models.RequirementSkill{RequirementID: req.ID, SkillID: id, Weight: 60}
	}
	if err := p.store.Requirements.ReplaceSkills(ctx, tc, req.ID, edges); err != nil {
		_ = p.store.Ingestions.MarkFailed(ctx, tc, ingestionID)
		return err
	}

	if p.indexer != nil {
		if err := p.indexer.IndexEntity(ctx, tc, models.EntityRequirement, req.ID); err != nil {
			_ = p.store.Ingestions.MarkFailed(ctx, tc, ingestionID)
			return err
		}
	}

	parsed := models.VersionedJSON{SchemaVersion: 1, Data: map[string]any{
		"title":         structured.Title,
		"clientName":    structured.ClientName,
		"skills":        skillNames,
		"requirementId": req.ID,
	}}
	return p.store.Ingestions.MarkProcessed(ctx, tc, ingestionID, parsed, int(time.Since(started).Milliseconds()))
}

func (p *RequirementPipeline) resolveSkills(named []string, rawText string) ([]string, []string) {
	seen := make(map[string]bool)
	var ids, names []string
	for _, name := range named {
		if skill, ok := p.matcher.MatchByName(name); ok && !seen[skill.ID] {
			seen[skill.ID] = true
			ids = append(ids, skill.ID)
			names = append(names, skill.Name)
		}
	}
	matchedIDs, matchedNames := p.matcher.Match(rawText)
	for i, id := range matchedIDs {
		if !seen[id] {
			seen[id] = true
			ids = append(ids, id)
			names = append(names, matchedNames[i])
		}
	}
	return ids, names
}
