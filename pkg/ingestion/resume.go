// Package ingestion composes extraction, PII redaction, skill
// normalisation, and consultant/requirement resolution into the
// resume and requirement ingestion pipelines: a thin synchronous entry
// point that hashes, dedupes, persists, and enqueues, plus the
// asynchronous worker handlers pkg/queue drives.
package ingestion

import (
	"context"
	"crypto/md5"
	"crypto/sha1"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"regexp"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/konetibalaji/benchsales-match/pkg/apperr"
	"github.com/konetibalaji/benchsales-match/pkg/blob"
	"github.com/konetibalaji/benchsales-match/pkg/database"
	"github.com/konetibalaji/benchsales-match/pkg/extract"
	"github.com/konetibalaji/benchsales-match/pkg/models"
	"github.com/konetibalaji/benchsales-match/pkg/ner"
	"github.com/konetibalaji/benchsales-match/pkg/ontology"
	"github.com/konetibalaji/benchsales-match/pkg/pii"
	"github.com/konetibalaji/benchsales-match/pkg/queue"
)

// ResumeQueue is the logical queue name resume ingestion jobs run on.
const ResumeQueue = "resume.ingestion"

// ResumeRequest is the synchronous entry point's input: raw bytes plus
// the metadata describing where they came from.
type ResumeRequest struct {
	FileName      string
	ContentType   string
	Content       []byte
	Source        string
	ConsultantID  *string
	RequirementID *string
}

// ResumeResult reports whether the upload was a dedupe hit.
type ResumeResult struct {
	DocumentID string
	Duplicate  bool
}

// resumeJobPayload is the job payload shape the enqueue step produces.
type resumeJobPayload struct {
	TenantID      string  `json:"tenantId"`
	DocumentID    string  `json:"documentId"`
	StorageKey    string  `json:"storageKey"`
	ContentType   string  `json:"contentType"`
	Source        string  `json:"source"`
	ConsultantID  *string `json:"consultantId,omitempty"`
	RequirementID *string `json:"requirementId,omitempty"`
}

// ResumePipeline wires every collaborator the resume ingestion path
// needs, both for the synchronous intake call and the worker handler.
type ResumePipeline struct {
	store     *database.Store
	blob      *blob.Store
	queue     *queue.Store
	extractor *extract.Extractor
	ner       ner.EntityRecognizer
	redactor  *pii.Redactor
	matcher   *ontology.Matcher
	indexer   EntityIndexer
}

// EntityIndexer is the collaborator surface pkg/search.Indexer
// provides; ingestion calls it once a consultant's skills/summary are
// up to date so the hybrid index never drifts from persisted state.
type EntityIndexer interface {
	IndexEntity(ctx context.Context, tc database.TenantContext, entityType models.EntityType, entityID string) error
}

// NewResumePipeline builds a ResumePipeline from its collaborators. The
// skill matcher is swappable via SetMatcher once the ontology is
// (re)loaded, since it must be refreshed whenever the skill catalog
// changes.
func NewResumePipeline(store *database.Store, blobStore *blob.Store, queueStore *queue.Store, extractor *extract.Extractor, recognizer ner.EntityRecognizer, redactor *pii.Redactor, matcher *ontology.Matcher, indexer EntityIndexer) *ResumePipeline {
	return &ResumePipeline{
		store:     store,
		blob:      blobStore,
		queue:     queueStore,
		extractor: extractor,
		ner:       recognizer,
		redactor:  redactor,
		matcher:   matcher,
		indexer:   indexer,
	}
}

// SetMatcher swaps the live skill matcher, used after an ontology reload.
func (p *ResumePipeline) SetMatcher(m *ontology.Matcher) { p.matcher = m }

// Intake runs the resume intake steps in order: hash, dedupe check,
// blob persist, DocumentAsset/DocumentMetadata creation, and enqueue.
func (p *ResumePipeline) Intake(ctx context.Context, tc database.TenantContext, req ResumeRequest) (*ResumeResult, error) {
	sha256Sum := hex.EncodeToString(sha256Of(req.Content))
	sha1Sum := hex.EncodeToString(sha1Of(req.Content))
	md5Sum := hex.EncodeToString(md5Of(req.Content))

	if existing, err := p.store.Documents.FindBySHA256(ctx, tc, sha256Sum); err == nil {
		return &ResumeResult{DocumentID: existing.DocumentID, Duplicate: true}, nil
	} else if apperr.KindOf(err) != apperr.KindNotFound {
		return nil, err
	}

	documentID := uuid.NewString()
	storageKey := blob.DocumentKey(tc.TenantID, documentID, req.FileName)

	if err := p.blob.Put(ctx, storageKey, req.ContentType, req.Content); err != nil {
		return nil, err
	}

	asset := &models.DocumentAsset{
		ID:            documentID,
		Kind:          models.DocumentResume,
		FileName:      req.FileName,
		ContentType:   req.ContentType,
		SizeBytes:     int64(len(req.Content)),
		StorageKey:    storageKey,
		ConsultantID:  req.ConsultantID,
		RequirementID: req.RequirementID,
	}
	if err := p.store.Documents.Create(ctx, tc, asset); err != nil {
		return nil, err
	}

	meta := &models.DocumentMetadata{
		DocumentID:      documentID,
		SHA256:          sha256Sum,
		SHA1:            &sha1Sum,
		MD5:             &md5Sum,
		IngestionStatus: models.IngestionPending,
		PIIStatus:       models.PIIUnknown,
		PIISummary:      models.VersionedJSON{SchemaVersion: 1, Data: map[string]any{}},
	}
	if err := p.store.Documents.UpsertMetadata(ctx, tc, meta); err != nil {
		return nil, err
	}

	payload := resumeJobPayload{
		TenantID:      tc.TenantID,
		DocumentID:    documentID,
		StorageKey:    storageKey,
		ContentType:   req.ContentType,
		Source:        req.Source,
		ConsultantID:  req.ConsultantID,
		RequirementID: req.RequirementID,
	}
	if _, err := p.queue.Enqueue(ctx, ResumeQueue, payload, queue.EnqueueOptions{
		TenantID:       tc.TenantID,
		IdempotencyKey: documentID,
	}); err != nil {
		return nil, err
	}

	return &ResumeResult{DocumentID: documentID, Duplicate: false}, nil
}

// Handler is the queue.Handler for resume.ingestion — the full
// extract-redact-normalize-resolve worker pipeline.
func (p *ResumePipeline) Handler() queue.Handler {
	return func(ctx context.Context, job *queue.Job) error {
		var payload resumeJobPayload
		if err := json.Unmarshal(job.Payload, &payload); err != nil {
			return apperr.Validation("decode resume job payload: " + err.Error())
		}
		tc, err := database.NewTenantContext(payload.TenantID)
		if err != nil {
			return err
		}
		return p.process(ctx, tc, payload)
	}
}

func (p *ResumePipeline) process(ctx context.Context, tc database.TenantContext, payload resumeJobPayload) error {
	started := time.Now()

	content, err := p.blob.Get(ctx, payload.StorageKey)
	if err != nil {
		return err
	}

	// (a) extract
	text, err := p.extractor.Extract(content, payload.ContentType)
	if err != nil {
		return apperr.Wrap(apperr.KindTransient, "extract document text", err)
	}

	// (b) NER — recognize against the clean, pre-redaction text so
	// downstream candidate extraction (step d) still has real values.
	entities := p.ner.Recognize(text)
	var persons []pii.EntitySpan
	var firstPerson string
	for _, e := range entities {
		if e.Type != "PERSON" {
			continue
		}
		persons = append(persons, pii.EntitySpan{Start: e.Start, End: e.End, Value: e.Value})
		if firstPerson == "" {
			firstPerson = e.Value
		}
	}
	candidate := extractCandidate(text, firstPerson)

	// (c) PII redaction
	redactedText, piiSummary, err := p.redactor.Redact(ctx, tc, text, persons)
	if err != nil {
		return err
	}

	// (d) skill normalisation
	matchedSkillIDs, skillNames := p.matcher.Match(redactedText)
	summary := truncateSummary(redactedText, 500)

	// (e) consultant resolution
	consultantID, err := resolveConsultant(ctx, p.store.Consultants, tc, payload.ConsultantID, candidate)
	if err != nil {
		return err
	}

	if err := p.applyCandidateToConsultant(ctx, tc, consultantID, candidate, summary); err != nil {
		return err
	}
	if err := p.store.Consultants.ReplaceSkills(ctx, tc, consultantID, skillEdges(consultantID, matchedSkillIDs)); err != nil {
		return err
	}

	// (f) resume upsert
	res := &models.Resume{
		ConsultantID:    consultantID,
		DocumentID:      payload.DocumentID,
		FileKey:         payload.StorageKey,
		MatchedSkillIDs: matchedSkillIDs,
		Skills:          skillNames,
		Candidate:       candidate,
		Summary:         &summary,
	}
	if err := p.store.Resumes.Upsert(ctx, tc, res); err != nil {
		return err
	}

	// (g) identity signature refresh
	if err := RefreshIdentitySignatures(ctx, p.store.Identity, p.store.Consultants, tc, consultantID); err != nil {
		return err
	}

	if p.indexer != nil {
		if err := p.indexer.IndexEntity(ctx, tc, models.EntityConsultant, consultantID); err != nil {
			return err
		}
	}

	// (h) metadata update
	findingCount := 0
	if counts, ok := piiSummary.Data["counts"].(map[string]any); ok {
		findingCount = len(counts)
	}
	piiStatus := models.PIIClean
	if findingCount > 0 {
		piiStatus = models.PIIFlagged
	}
	now := time.Now()
	meta := &models.DocumentMetadata{
		DocumentID:         payload.DocumentID,
		IngestionStatus:    models.IngestionComplete,
		PIIStatus:          piiStatus,
		PIISummary:         piiSummary,
		TextByteSize:       intPtr(len(text)),
		IngestionLatencyMs: intPtr(int(time.Since(started).Milliseconds())),
		ExtractedAt:        &now,
		LastRedactionAt:    &now,
	}
	return p.store.Documents.UpsertMetadata(ctx, tc, meta)
}

func (p *ResumePipeline) applyCandidateToConsultant(ctx context.Context, tc database.TenantContext, consultantID string, candidate models.ResumeCandidate, summary string) error {
	c, err := p.store.Consultants.Get(ctx, tc, consultantID)
	if err != nil {
		return err
	}
	if c.FirstName == "" && candidate.FirstName != "" {
		c.FirstName = candidate.FirstName
	}
	if c.LastName == "" && candidate.LastName != "" {
		c.LastName = candidate.LastName
	}
	if c.Email == nil && len(candidate.Emails) > 0 {
		c.Email = &candidate.Emails[0]
	}
	if c.Phone == nil && len(candidate.Phones) > 0 {
		c.Phone = &candidate.Phones[0]
	}
	if c.Location == nil && candidate.Location != nil {
		c.Location = candidate.Location
	}
	c.Summary = &summary
	return p.store.Consultants.Update(ctx, tc, c)
}

func skillEdges(consultantID string, skillIDs []string) []models.ConsultantSkill {
	out := make([]models.ConsultantSkill, len(skillIDs))
	for i, id := range skillIDs {
		out[i] = models.ConsultantSkill{ConsultantID: consultantID, SkillID: id, Weight: 60}
	}
	return out
}

var (
	candidateEmailRe = regexp.MustCompile(`[a-zA-Z0-9._%+\-]+@[a-zA-Z0-9.\-]+\.[a-zA-Z]{2,}`)
	candidatePhoneRe = regexp.MustCompile(`(?:\+?\d{1,2}[\s.\-]?)?\(?\d{3}\)?[\s.\-]?\d{3}[\s.\-]?\d{4}`)
)

// extractCandidate scrapes the header-ish fields (name, email, phone)
// directly off the clean text, before any PII token substitution, since
// consultant resolution needs the real email/phone values.
func extractCandidate(text, personName string) models.ResumeCandidate {
	var c models.ResumeCandidate
	if personName != "" {
		parts := strings.Fields(personName)
		c.FullName = personName
		c.FirstName = parts[0]
		if len(parts) > 1 {
			c.LastName = strings.Join(parts[1:], " ")
		}
	}
	c.Emails = candidateEmailRe.FindAllString(text, -1)
	c.Phones = candidatePhoneRe.FindAllString(text, -1)
	if line := firstNonEmptyLine(text); line != "" && len(line) < 100 {
		c.Headline = &line
	}
	return c
}

func firstNonEmptyLine(text string) string {
	for _, line := range strings.Split(text, "\n") {
		trimmed := strings.TrimSpace(line)
		if trimmed != "" {
			return trimmed
		}
	}
	return ""
}

func truncateSummary(text string, max int) string {
	trimmed := strings.TrimSpace(text)
	if len(trimmed) <= max {
		return trimmed
	}
	return trimmed[:max]
}

func sha256Of(b []byte) []byte {
	sum := sha256.Sum256(b)
	return sum[:]
}

func sha1Of(b []byte) []byte {
	sum := sha1.Sum(b)
	return sum[:]
}

func md5Of(b []byte) []byte {
	sum := md5.Sum(b)
	return sum[:]
}

func intPtr(v int) *int { return &v }
