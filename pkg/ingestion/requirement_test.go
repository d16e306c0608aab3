package ingestion_test

import (
	"context"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/konetibalaji/benchsales-match/pkg/database"
	"github.com/konetibalaji/benchsales-match/pkg/ingestion"
)

func newRequirementPipeline(t *testing.T, store *database.Store) *ingestion.RequirementPipeline {
	t.Helper()
	matcher := seedSkills(t, store, "Go", "Kubernetes")
	return ingestion.NewRequirementPipeline(store, newQueueStore(store), ingestion.NewHeuristicExtractor(), matcher, nil)
}

func TestRequirementIntakeDedupesOnContentHash(t *testing.T) {
	store := newTestStore(t)
	tc := mustTenant(t, "tenant-acme")
	p := newRequirementPipeline(t, store)
	ctx := context.Background()

	raw := "Title: Backend Engineer\nClient: Acme Corp\nLocation: Remote\nSkills: Go, Kubernetes\nWe need a strong backend engineer."

	first, err := p.Intake(ctx, tc, ingestion.RequirementRequest{RawContent: raw, Source: "manual"})
	require.NoError(t, err)
	require.False(t, first.Duplicate)

	second, err := p.Intake(ctx, tc, ingestion.RequirementRequest{RawContent: raw, Source: "manual"})
	require.NoError(t, err)
	require.True(t, second.Duplicate)
	require.Equal(t, first.IngestionID, second.IngestionID)
}

func TestRequirementWorkerCreatesAndUpdatesRequirement(t *testing.T) {
	store := newTestStore(t)
	tc := mustTenant(t, "tenant-acme")
	p := newRequirementPipeline(t, store)
	ctx := context.Background()

	raw := "Title: Backend Engineer\nClient: Acme Corp\nLocation: Remote\nSkills: Go, Kubernetes\nWe need a strong backend engineer."
	result, err := p.Intake(ctx, tc, ingestion.RequirementRequest{RawContent: raw, Source: "manual"})
	require.NoError(t, err)

	qs := newQueueStore(store)
	job, err := qs.Claim(ctx, ingestion.RequirementQueue, "test-worker")
	require.NoError(t, err)
	require.NoError(t, p.Handler()(ctx, job))

	ing, err := store.Ingestions.Get(ctx, tc, result.IngestionID)
	require.NoError(t, err)
	require.EqualValues(t, "PROCESSED", ing.Status)

	req, err := store.Requirements.FindByTitleAndClient(ctx, tc, "Backend Engineer", "Acme Corp")
	require.NoError(t, err)

	skills, err := store.Requirements.SkillsFor(ctx, tc, req.ID)
	require.NoError(t, err)
	require.Len(t, skills, 2)

	// Re-ingesting a second posting for the same title/client should
	// update the existing requirement rather than creating a new one.
	raw2 := "Title: Backend Engineer\nClient: Acme Corp\nLocation: Remote\nSkills: Go\nRevised scope."
	result2, err := p.Intake(ctx, tc, ingestion.RequirementRequest{RawContent: raw2, Source: "manual"})
	require.NoError(t, err)
	job2, err := qs.Claim(ctx, ingestion.RequirementQueue, "test-worker")
	require.NoError(t, err)
	require.NoError(t, p.Handler()(ctx, job2))

	req2, err := store.Requirements.FindByTitleAndClient(ctx, tc, "Backend Engineer", "Acme Corp")
	require.NoError(t, err)
	require.Equal(t, req.ID, req2.ID)
	_ = result2
}
