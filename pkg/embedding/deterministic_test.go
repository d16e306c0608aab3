package embedding_test

import (
	"context"
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/konetibalaji/benchsales-match/pkg/embedding"
)

func TestDeterministicEmbedIsStableAndUnitLength(t *testing.T) {
	d := embedding.NewDeterministic(16)

	vec1, err := d.Embed(context.Background(), "golang engineer with kubernetes experience")
	require.NoError(t, err)
	vec2, err := d.Embed(context.Background(), "golang engineer with kubernetes experience")
	require.NoError(t, err)

	assert.Equal(t, vec1, vec2)
	assert.Len(t, vec1, 16)

	var sumSquares float64
	for _, v := range vec1 {
		sumSquares += float64(v) * float64(v)
	}
	assert.InDelta(t, 1.0, math.Sqrt(sumSquares), 1e-6)
}

func TestDeterministicEmbedDiffersByText(t *testing.T) {
	d := embedding.NewDeterministic(16)

	vec1, err := d.Embed(context.Background(), "golang engineer")
	require.NoError(t, err)
	vec2, err := d.Embed(context.Background(), "python data scientist")
	require.NoError(t, err)

	assert.NotEqual(t, vec1, vec2)
}

func TestDeterministicDefaultsDimension(t *testing.T) {
	d := embedding.NewDeterministic(0)

	vec, err := d.Embed(context.Background(), "anything")
	require.NoError(t, err)
	assert.Len(t, vec, 384)
}

func TestDeterministicEmbedBatch(t *testing.T) {
	d := embedding.NewDeterministic(8)

	vecs, err := d.EmbedBatch(context.Background(), []string{"a", "b", "c"})
	require.NoError(t, err)
	require.Len(t, vecs, 3)
	for _, v := range vecs {
		assert.Len(t, v, 8)
	}
}
