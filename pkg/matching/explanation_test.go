package matching_test

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/konetibalaji/benchsales-match/pkg/matching"
	"github.com/konetibalaji/benchsales-match/pkg/models"
	"github.com/konetibalaji/benchsales-match/pkg/summarize"
)

func TestBuildExplanationSortsContributionsDescending(t *testing.T) {
	req := &models.Requirement{MinRate: ptr(80.0), MaxRate: ptr(100.0), Location: ptr("Austin, TX")}
	con := &models.Consultant{Location: ptr("Austin, TX"), Availability: models.AvailabilityAvailable, Rate: ptr(90.0)}
	f := matching.FeatureVector{
		SkillOverlap: 0.9, VectorScore: 0.2, LexicalScore: 0.1,
		Availability: 1, LocationMatch: 1, RateAlignment: 1, RecencyScore: 0.5,
	}
	facts := summarize.MatchSummaryFacts{RequirementTitle: "Backend Engineer"}

	exp := matching.BuildExplanation(req, con, f, 0.7, 0.8, 0.75, 0.16, []string{"Go"}, nil, summarize.Result{}, facts, "")

	require.NotEmpty(t, exp.Contributions)
	for i := 1; i < len(exp.Contributions); i++ {
		require.GreaterOrEqual(t, exp.Contributions[i-1].Contribution, exp.Contributions[i].Contribution)
	}
	require.Equal(t, "MATCH", exp.Deltas.LocationStatus)
	require.True(t, exp.Deltas.RateWithinRange)
	require.Equal(t, matching.ModelVersion, exp.ModelVersion)
}

func TestBuildExplanationRendersVersionedJSONRoundtrip(t *testing.T) {
	req := &models.Requirement{}
	con := &models.Consultant{Availability: models.AvailabilityAvailable}
	f := matching.FeatureVector{}
	exp := matching.BuildExplanation(req, con, f, 0.1, 0.1, 0.1, 0, nil, nil, summarize.Result{}, summarize.MatchSummaryFacts{}, "")

	vj := exp.ToVersionedJSON()
	require.Equal(t, 1, vj.SchemaVersion)
	require.Equal(t, matching.ModelVersion, vj.Data["modelVersion"])
}
