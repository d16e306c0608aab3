package database_test

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/konetibalaji/benchsales-match/pkg/config"
	"github.com/konetibalaji/benchsales-match/pkg/database"
	"github.com/konetibalaji/benchsales-match/pkg/models"
	"github.com/konetibalaji/benchsales-match/test/util"
)

func newStore(t *testing.T) (*database.Store, database.TenantContext) {
	t.Helper()
	dsn := util.SetupTestSchema(t)

	store, err := database.NewStore(context.Background(), config.DatabaseConfig{
		DSN:             dsn,
		MaxConns:        5,
		MinConns:        1,
		MaxConnLifetime: time.Hour,
		MaxConnIdleTime: 15 * time.Minute,
	})
	require.NoError(t, err)
	t.Cleanup(store.Close)

	tc, err := database.NewTenantContext("tenant-acme")
	require.NoError(t, err)
	return store, tc
}

func TestConsultantCreateGetUpdate(t *testing.T) {
	store, tc := newStore(t)
	ctx := context.Background()

	c := &models.Consultant{
		FirstName:    "Ada",
		LastName:     "Lovelace",
		Availability: models.AvailabilityAvailable,
	}
	require.NoError(t, store.Consultants.Create(ctx, tc, c))

	fetched, err := store.Consultants.Get(ctx, tc, c.ID)
	require.NoError(t, err)
	require.Equal(t, "Ada", fetched.FirstName)

	fetched.Availability = models.AvailabilityAssigned
	require.NoError(t, store.Consultants.Update(ctx, tc, fetched))

	refetched, err := store.Consultants.Get(ctx, tc, c.ID)
	require.NoError(t, err)
	require.Equal(t, models.AvailabilityAssigned, refetched.Availability)
}

func TestConsultantSkillsRoundTrip(t *testing.T) {
	store, tc := newStore(t)
	ctx := context.Background()

	c := &models.Consultant{FirstName: "Grace", LastName: "Hopper", Availability: models.AvailabilityAvailable}
	require.NoError(t, store.Consultants.Create(ctx, tc, c))

	skill, err := store.Skills.Upsert(ctx, &models.Skill{Name: "COBOL"})
	require.NoError(t, err)

	require.NoError(t, store.Consultants.ReplaceSkills(ctx, tc, c.ID, []models.ConsultantSkill{
		{ConsultantID: c.ID, SkillID: skill.ID, Weight: 80},
	}))

	skills, err := store.Consultants.SkillsFor(ctx, tc, c.ID)
	require.NoError(t, err)
	require.Len(t, skills, 1)
	require.Equal(t, 80, skills[0].Weight)
}

func TestRequirementLifecycle(t *testing.T) {
	store, tc := newStore(t)
	ctx := context.Background()

	req := &models.Requirement{
		Title:       "Senior Go Engineer",
		ClientName:  "Initech",
		Description: "Backend services",
		Status:      models.RequirementOpen,
		Source:      "manual",
	}
	require.NoError(t, store.Requirements.Create(ctx, tc, req))

	open, err := store.Requirements.ListOpen(ctx, tc, 10)
	require.NoError(t, err)
	require.Len(t, open, 1)

	require.NoError(t, store.Requirements.UpdateStatus(ctx, tc, req.ID, models.RequirementClosed))
	open, err = store.Requirements.ListOpen(ctx, tc, 10)
	require.NoError(t, err)
	require.Empty(t, open)
}

func TestMatchUpsertIsIdempotentOnPair(t *testing.T) {
	store, tc := newStore(t)
	ctx := context.Background()

	c := &models.Consultant{FirstName: "Linus", LastName: "T", Availability: models.AvailabilityAvailable}
	require.NoError(t, store.Consultants.Create(ctx, tc, c))
	req := &models.Requirement{Title: "Kernel work", ClientName: "OSF", Description: "d", Status: models.RequirementOpen, Source: "manual"}
	require.NoError(t, store.Requirements.Create(ctx, tc, req))

	m := &models.Match{ConsultantID: c.ID, RequirementID: req.ID, Score: 0.7, Status: models.MatchReview}
	require.NoError(t, store.Matches.Upsert(ctx, tc, m))
	firstID := m.ID

	m2 := &models.Match{ConsultantID: c.ID, RequirementID: req.ID, Score: 0.9, Status: models.MatchReview}
	require.NoError(t, store.Matches.Upsert(ctx, tc, m2))

	matches, err := store.Matches.ListForRequirement(ctx, tc, req.ID, 10)
	require.NoError(t, err)
	require.Len(t, matches, 1)
	require.Equal(t, firstID, matches[0].ID)
	require.InDelta(t, 0.9, matches[0].Score, 1e-9)
}

func TestDocumentMetadataDedupeBySHA256(t *testing.T) {
	store, tc := newStore(t)
	ctx := context.Background()

	doc := &models.DocumentAsset{
		Kind:        models.DocumentResume,
		FileName:    "resume.pdf",
		ContentType: "application/pdf",
		SizeBytes:   1024,
		StorageKey:  "s3://bucket/key",
	}
	require.NoError(t, store.Documents.Create(ctx, tc, doc))

	meta := &models.DocumentMetadata{
		DocumentID:      doc.ID,
		SHA256:          "deadbeef",
		IngestionStatus: models.IngestionComplete,
		PIIStatus:       models.PIIClean,
		PIISummary:      models.VersionedJSON{SchemaVersion: 1, Data: map[string]any{}},
	}
	require.NoError(t, store.Documents.UpsertMetadata(ctx, tc, meta))

	found, err := store.Documents.FindBySHA256(ctx, tc, "deadbeef")
	require.NoError(t, err)
	require.Equal(t, doc.ID, found.DocumentID)
}

func TestConsultantFindByEmailAndPhone(t *testing.T) {
	store, tc := newStore(t)
	ctx := context.Background()

	email := "jane.doe@acme.io"
	phone := "415-555-0134"
	c := &models.Consultant{
		FirstName:    "Jane",
		LastName:     "Doe",
		Email:        &email,
		Phone:        &phone,
		Availability: models.AvailabilityAvailable,
	}
	require.NoError(t, store.Consultants.Create(ctx, tc, c))

	byEmail, err := store.Consultants.FindByEmail(ctx, tc, "JANE.DOE@ACME.IO")
	require.NoError(t, err)
	require.Equal(t, c.ID, byEmail.ID)

	byPhone, err := store.Consultants.FindByPhoneDigits(ctx, tc, "4155550134")
	require.NoError(t, err)
	require.Equal(t, c.ID, byPhone.ID)

	_, err = store.Consultants.FindByEmail(ctx, tc, "nobody@nowhere.io")
	require.Error(t, err)
}

func TestResumeUpsertIsIdempotentOnFileKey(t *testing.T) {
	store, tc := newStore(t)
	ctx := context.Background()

	c := &models.Consultant{FirstName: "Ada", LastName: "Lovelace", Availability: models.AvailabilityAvailable}
	require.NoError(t, store.Consultants.Create(ctx, tc, c))

	doc := &models.DocumentAsset{
		Kind:        models.DocumentResume,
		FileName:    "resume.pdf",
		ContentType: "application/pdf",
		SizeBytes:   2048,
		StorageKey:  "tenants/t/documents/d/resume.pdf",
	}
	require.NoError(t, store.Documents.Create(ctx, tc, doc))

	summary := "Experienced Go engineer"
	res := &models.Resume{
		ConsultantID:    c.ID,
		DocumentID:      doc.ID,
		FileKey:         doc.StorageKey,
		MatchedSkillIDs: []string{},
		Skills:          []string{"Go", "Postgres"},
		Candidate:       models.ResumeCandidate{FirstName: "Ada", LastName: "Lovelace", FullName: "Ada Lovelace"},
		Summary:         &summary,
	}
	require.NoError(t, store.Resumes.Upsert(ctx, tc, res))
	firstID := res.ID

	res2 := &models.Resume{
		ID:              "",
		ConsultantID:    c.ID,
		DocumentID:      doc.ID,
		FileKey:         doc.StorageKey,
		MatchedSkillIDs: []string{},
		Skills:          []string{"Go", "Postgres", "Kubernetes"},
		Candidate:       models.ResumeCandidate{FirstName: "Ada", LastName: "Lovelace", FullName: "Ada Lovelace"},
	}
	require.NoError(t, store.Resumes.Upsert(ctx, tc, res2))

	fetched, err := store.Resumes.Get(ctx, tc, c.ID, doc.StorageKey)
	require.NoError(t, err)
	require.Equal(t, firstID, fetched.ID)
	require.ElementsMatch(t, []string{"Go", "Postgres", "Kubernetes"}, fetched.Skills)

	list, err := store.Resumes.ListByConsultant(ctx, tc, c.ID)
	require.NoError(t, err)
	require.Len(t, list, 1)
}
