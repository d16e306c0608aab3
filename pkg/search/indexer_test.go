package search_test

import (
	"context"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/konetibalaji/benchsales-match/pkg/config"
	"github.com/konetibalaji/benchsales-match/pkg/database"
	"github.com/konetibalaji/benchsales-match/pkg/models"
	"github.com/konetibalaji/benchsales-match/pkg/search"
	"github.com/konetibalaji/benchsales-match/test/util"
)

func newTestStore(t *testing.T) *database.Store {
	t.Helper()
	dsn := util.SetupTestSchema(t)
	store, err := database.NewStore(context.Background(), config.DatabaseConfig{DSN: dsn})
	require.NoError(t, err)
	t.Cleanup(store.Close)
	return store
}

type stubEmbedder struct{ vec []float32 }

func (s stubEmbedder) Embed(_ context.Context, _ string) ([]float32, error) { return s.vec, nil }

func TestIndexEntityAssemblesAndPersistsConsultant(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()
	tc := mustTenant(t, "tenant-acme")

	skill, err := store.Skills.Upsert(ctx, &models.Skill{Name: "Golang"})
	require.NoError(t, err)

	summary := "Backend engineer"
	location := "Remote"
	consultant := &models.Consultant{
		TenantID: tc.TenantID, FirstName: "Jane", LastName: "Doe",
		Summary: &summary, Location: &location, Availability: models.AvailabilityAvailable,
	}
	require.NoError(t, store.Consultants.Create(ctx, tc, consultant))
	require.NoError(t, store.Consultants.ReplaceSkills(ctx, tc, consultant.ID, []models.ConsultantSkill{{ConsultantID: consultant.ID, SkillID: skill.ID, Weight: 1}}))

	idx := search.NewIndex(config.SearchConfig{EmbeddingDims: 2})
	indexer := search.NewIndexer(idx, store.SearchDocs, store.Consultants, store.Requirements, store.Skills, stubEmbedder{vec: []float32{0.5, 0.5}}, 2)

	require.NoError(t, indexer.IndexEntity(ctx, tc, models.EntityConsultant, consultant.ID))

	results, err := idx.HybridSearch(ctx, tc, "Jane Doe", []float32{0.5, 0.5}, nil, search.Filters{}, 10)
	require.NoError(t, err)
	require.Len(t, results, 1)
	require.Equal(t, consultant.ID, results[0].EntityID)

	docs, err := store.SearchDocs.ListByTenant(ctx, tc)
	require.NoError(t, err)
	require.Len(t, docs, 1)
	require.Contains(t, docs[0].Content, "Golang")
}
