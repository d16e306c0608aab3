package ingestion_test

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/konetibalaji/benchsales-match/pkg/database"
	"github.com/konetibalaji/benchsales-match/pkg/ingestion"
	"github.com/konetibalaji/benchsales-match/pkg/models"
	"github.com/konetibalaji/benchsales-match/pkg/pii"
)

func sha256Hex(b []byte) string {
	sum := sha256.Sum256(b)
	return hex.EncodeToString(sum[:])
}

func newResumePipeline(t *testing.T, store *database.Store) *ingestion.ResumePipeline {
	t.Helper()
	matcher := seedSkills(t, store, "Go", "Kubernetes")
	redactor := pii.NewRedactor(pii.NewDetector([]string{"EMAIL", "PHONE", "SSN", "PERSON"}), newVault(t, store))
	return ingestion.NewResumePipeline(store, newBlobStore(), newQueueStore(store), newExtractor(), newRecognizer(), redactor, matcher, nil)
}

func TestResumeIntakeDedupesOnSHA256(t *testing.T) {
	store := newTestStore(t)
	tc := mustTenant(t, "tenant-acme")
	p := newResumePipeline(t, store)
	ctx := context.Background()

	content := []byte("John Smith\nEmail: john.smith@acme.io Phone: 415-555-0199\nSkills: Go, Kubernetes\n")

	first, err := p.Intake(ctx, tc, ingestion.ResumeRequest{
		FileName: "resume.txt", ContentType: "text/plain", Content: content, Source: "manual",
	})
	require.NoError(t, err)
	require.False(t, first.Duplicate)

	second, err := p.Intake(ctx, tc, ingestion.ResumeRequest{
		FileName: "resume.txt", ContentType: "text/plain", Content: content, Source: "manual",
	})
	require.NoError(t, err)
	require.True(t, second.Duplicate)
	require.Equal(t, first.DocumentID, second.DocumentID)
}

func TestResumeWorkerResolvesConsultantAndSkills(t *testing.T) {
	store := newTestStore(t)
	tc := mustTenant(t, "tenant-acme")
	p := newResumePipeline(t, store)
	ctx := context.Background()

	content := []byte("John Smith\nEmail: john.smith@acme.io Phone: 415-555-0199\nSkills: Go, Kubernetes\nExperienced backend engineer.\n")

	result, err := p.Intake(ctx, tc, ingestion.ResumeRequest{
		FileName: "resume.txt", ContentType: "text/plain", Content: content, Source: "manual",
	})
	require.NoError(t, err)
	require.False(t, result.Duplicate)

	qs := newQueueStore(store)
	job, err := qs.Claim(ctx, ingestion.ResumeQueue, "test-worker")
	require.NoError(t, err)

	require.NoError(t, p.Handler()(ctx, job))

	meta, err := store.Documents.FindBySHA256(ctx, tc, sha256Hex(content))
	require.NoError(t, err)
	require.Equal(t, models.IngestionComplete, meta.IngestionStatus)
	require.Equal(t, models.PIIFlagged, meta.PIIStatus)

	consultant, err := store.Consultants.FindByEmail(ctx, tc, "john.smith@acme.io")
	require.NoError(t, err)
	require.Equal(t, "John", consultant.FirstName)

	skills, err := store.Consultants.SkillsFor(ctx, tc, consultant.ID)
	require.NoError(t, err)
	require.Len(t, skills, 2)

	resumes, err := store.Resumes.ListByConsultant(ctx, tc, consultant.ID)
	require.NoError(t, err)
	require.Len(t, resumes, 1)
	require.ElementsMatch(t, []string{"Go", "Kubernetes"}, resumes[0].Skills)

	sigs, err := store.Identity.SignaturesFor(ctx, tc, consultant.ID)
	require.NoError(t, err)
	require.NotEmpty(t, sigs)
}

func TestResumeWorkerReusesExistingConsultantByEmail(t *testing.T) {
	store := newTestStore(t)
	tc := mustTenant(t, "tenant-acme")
	p := newResumePipeline(t, store)
	ctx := context.Background()

	email := "jane.doe@acme.io"
	existing := &models.Consultant{FirstName: "Jane", LastName: "Doe", Email: &email, Availability: models.AvailabilityAvailable}
	require.NoError(t, store.Consultants.Create(ctx, tc, existing))

	content := []byte("Jane Doe\nEmail: jane.doe@acme.io\nSkills: Go\n")
	result, err := p.Intake(ctx, tc, ingestion.ResumeRequest{
		FileName: "resume2.txt", ContentType: "text/plain", Content: content, Source: "manual",
	})
	require.NoError(t, err)

	qs := newQueueStore(store)
	job, err := qs.Claim(ctx, ingestion.ResumeQueue, "test-worker")
	require.NoError(t, err)
	require.NoError(t, p.Handler()(ctx, job))

	resumes, err := store.Resumes.ListByConsultant(ctx, tc, existing.ID)
	require.NoError(t, err)
	require.Len(t, resumes, 1)
	_ = result
}
