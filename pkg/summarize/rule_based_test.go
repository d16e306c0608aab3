package summarize_test

import (
	"context"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/konetibalaji/benchsales-match/pkg/summarize"
)

func TestRuleBasedNeverExceedsInputFacts(t *testing.T) {
	s := summarize.NewRuleBased()
	rate := 5.0
	facts := summarize.MatchSummaryFacts{
		RequirementTitle: "Backend Engineer",
		ClientName:       "Acme Corp",
		AlignedSkills:    []string{"Go", "Kubernetes"},
		MissingSkills:    []string{"Terraform"},
		LocationStatus:   "MATCH",
		RateDelta:        &rate,
		RateWithinRange:  true,
		AvailabilityDesc: "available now",
		LTRScore:         0.82,
	}

	result, err := s.Summarize(context.Background(), facts)
	require.NoError(t, err)
	require.True(t, result.Grounded)
	require.Equal(t, "rule_based", result.Provider)
	require.Contains(t, result.Summary, "Backend Engineer")
	require.Contains(t, result.Summary, "Acme Corp")
	require.Contains(t, result.Summary, "Go, Kubernetes")
	require.InDelta(t, 0.82, result.Confidence, 0.001)
	require.Len(t, result.Highlights, 3)
}

func TestRuleBasedHandlesEmptyFacts(t *testing.T) {
	s := summarize.NewRuleBased()
	result, err := s.Summarize(context.Background(), summarize.MatchSummaryFacts{})
	require.NoError(t, err)
	require.True(t, result.Grounded)
	require.Empty(t, result.Highlights)
	require.InDelta(t, 0.5, result.Confidence, 0.001)
}
