package search_test

import (
	"context"
	"fmt"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/konetibalaji/benchsales-match/pkg/config"
	"github.com/konetibalaji/benchsales-match/pkg/database"
	"github.com/konetibalaji/benchsales-match/pkg/models"
	"github.com/konetibalaji/benchsales-match/pkg/search"
)

func mustTenant(t *testing.T, id string) database.TenantContext {
	t.Helper()
	tc, err := database.NewTenantContext(id)
	require.NoError(t, err)
	return tc
}

func TestHybridSearchRanksByWeightedScore(t *testing.T) {
	ix := search.NewIndex(config.SearchConfig{VectorWeight: 0.6, LexicalWeight: 0.4, EmbeddingDims: 3})
	tc := mustTenant(t, "tenant-acme")
	ctx := context.Background()

	require.NoError(t, ix.IndexEntity(ctx, tc, &models.SearchDocument{
		EntityType: models.EntityConsultant, EntityID: "c1",
		Content:  "Senior golang engineer with kubernetes experience",
		Metadata: models.VersionedJSON{SchemaVersion: 1, Data: map[string]any{"skills": []any{"Go", "Kubernetes"}}},
		Embedding: []float32{1, 0, 0},
	}))
	require.NoError(t, ix.IndexEntity(ctx, tc, &models.SearchDocument{
		EntityType: models.EntityConsultant, EntityID: "c2",
		Content:  "Frontend designer with no backend experience",
		Metadata: models.VersionedJSON{SchemaVersion: 1, Data: map[string]any{"skills": []any{"CSS"}}},
		Embedding: []float32{0, 1, 0},
	}))

	results, err := ix.HybridSearch(ctx, tc, "golang kubernetes", []float32{1, 0, 0}, nil, search.Filters{}, 10)
	require.NoError(t, err)
	require.NotEmpty(t, results)
	require.Equal(t, "c1", results[0].EntityID)
}

func TestHybridSearchAppliesSkillFilter(t *testing.T) {
	ix := search.NewIndex(config.SearchConfig{EmbeddingDims: 2})
	tc := mustTenant(t, "tenant-acme")
	ctx := context.Background()

	require.NoError(t, ix.IndexEntity(ctx, tc, &models.SearchDocument{
		EntityType: models.EntityConsultant, EntityID: "c1",
		Content:  "Go engineer",
		Metadata: models.VersionedJSON{SchemaVersion: 1, Data: map[string]any{"skills": []any{"Go"}}},
	}))
	require.NoError(t, ix.IndexEntity(ctx, tc, &models.SearchDocument{
		EntityType: models.EntityConsultant, EntityID: "c2",
		Content:  "Java engineer",
		Metadata: models.VersionedJSON{SchemaVersion: 1, Data: map[string]any{"skills": []any{"Java"}}},
	}))

	results, err := ix.HybridSearch(ctx, tc, "", nil, nil, search.Filters{Skills: []string{"Go"}}, 10)
	require.NoError(t, err)
	require.Len(t, results, 1)
	require.Equal(t, "c1", results[0].EntityID)
}

func TestHybridSearchNeverLeaksAcrossTenants(t *testing.T) {
	ix := search.NewIndex(config.SearchConfig{EmbeddingDims: 2})
	ctx := context.Background()

	tenantA := mustTenant(t, "tenant-a")
	tenantB := mustTenant(t, "tenant-b")

	require.NoError(t, ix.IndexEntity(ctx, tenantA, &models.SearchDocument{
		EntityType: models.EntityConsultant, EntityID: "c1", Content: "shared name engineer",
	}))
	require.NoError(t, ix.IndexEntity(ctx, tenantB, &models.SearchDocument{
		EntityType: models.EntityConsultant, EntityID: "c1", Content: "shared name engineer",
	}))

	resultsA, err := ix.HybridSearch(ctx, tenantA, "engineer", nil, nil, search.Filters{}, 10)
	require.NoError(t, err)
	require.Len(t, resultsA, 1)

	require.NoError(t, ix.Delete(ctx, tenantA, models.EntityConsultant, "c1"))

	resultsA, err = ix.HybridSearch(ctx, tenantA, "engineer", nil, nil, search.Filters{}, 10)
	require.NoError(t, err)
	require.Empty(t, resultsA)

	resultsB, err := ix.HybridSearch(ctx, tenantB, "engineer", nil, nil, search.Filters{}, 10)
	require.NoError(t, err)
	require.Len(t, resultsB, 1)
}

func TestHybridSearchCapsLimitAt100(t *testing.T) {
	ix := search.NewIndex(config.SearchConfig{})
	tc := mustTenant(t, "tenant-acme")
	ctx := context.Background()

	for i := 0; i < 120; i++ {
		require.NoError(t, ix.IndexEntity(ctx, tc, &models.SearchDocument{
			EntityType: models.EntityConsultant, EntityID: fmt.Sprintf("c-%d", i),
			Content: "engineer",
		}))
	}

	results, err := ix.HybridSearch(ctx, tc, "engineer", nil, nil, search.Filters{}, 500)
	require.NoError(t, err)
	require.LessOrEqual(t, len(results), 100)
}
