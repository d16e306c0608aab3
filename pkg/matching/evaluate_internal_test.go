package matching

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/konetibalaji/benchsales-match/pkg/models"
)

func TestRelevanceOfTakesMaxAcrossSources(t *testing.T) {
	m := &models.Match{
		Status: models.MatchReview,
		Feedback: models.VersionedJSON{Data: map[string]any{
			"HIRED":             float64(1),
			"submissionStatus":  "SUBMITTED",
		}},
	}
	require.Equal(t, 3.0, relevanceOf(m))
}

func TestRelevanceOfFallsBackToStatus(t *testing.T) {
	m := &models.Match{Status: models.MatchShortlisted, Feedback: models.VersionedJSON{Data: map[string]any{}}}
	require.Equal(t, 2.0, relevanceOf(m))
}

func TestNdcgAtKIsOneForIdealOrder(t *testing.T) {
	rels := []float64{3, 2, 1, 0}
	require.InDelta(t, 1.0, ndcgAtK(rels, 10), 0.0001)
}

func TestNdcgAtKPenalizesOutOfOrder(t *testing.T) {
	ideal := []float64{3, 2, 1, 0}
	reversed := []float64{0, 1, 2, 3}
	require.Less(t, ndcgAtK(reversed, 10), ndcgAtK(ideal, 10))
}

func TestHitAtKRespectsThresholdAndK(t *testing.T) {
	rels := []float64{0, 0, 2, 3}
	require.Equal(t, 1.0, hitAtK(rels, 10, 1))
	require.Equal(t, 0.0, hitAtK(rels, 2, 1))
}

func TestMeanOfEmptyIsZero(t *testing.T) {
	require.Equal(t, 0.0, mean(nil))
}
