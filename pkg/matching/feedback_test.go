package matching_test

import (
	"context"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/konetibalaji/benchsales-match/pkg/config"
	"github.com/konetibalaji/benchsales-match/pkg/matching"
	"github.com/konetibalaji/benchsales-match/pkg/models"
	"github.com/konetibalaji/benchsales-match/pkg/search"
)

func TestSubmitFeedbackAggregatesCountsOnMatch(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()
	tc := mustTenant(t, "tenant-acme")

	con := &models.Consultant{TenantID: tc.TenantID, FirstName: "Ada", Availability: models.AvailabilityAvailable}
	require.NoError(t, store.Consultants.Create(ctx, tc, con))
	req := &models.Requirement{TenantID: tc.TenantID, Title: "Go Engineer", ClientName: "Acme"}
	require.NoError(t, store.Requirements.Create(ctx, tc, req))

	m := &models.Match{ConsultantID: con.ID, RequirementID: req.ID, Score: 0.5, Status: models.MatchReview,
		Explanation: models.VersionedJSON{SchemaVersion: 1, Data: map[string]any{}},
		Feedback:    models.VersionedJSON{SchemaVersion: 1, Data: map[string]any{}}}
	require.NoError(t, store.Matches.Upsert(ctx, tc, m))

	idx := search.NewIndex(config.SearchConfig{})
	engine := matching.NewEngine(store, idx, nil, nil, nil, nil, config.MatchingConfig{})

	require.NoError(t, engine.SubmitFeedback(ctx, tc, m.ID, matching.FeedbackInput{Outcome: models.FeedbackPositive}))
	require.NoError(t, engine.SubmitFeedback(ctx, tc, m.ID, matching.FeedbackInput{Outcome: models.FeedbackPositive}))
	require.NoError(t, engine.SubmitFeedback(ctx, tc, m.ID, matching.FeedbackInput{Outcome: models.FeedbackNegative}))

	updated, err := store.Matches.Get(ctx, tc, m.ID)
	require.NoError(t, err)
	require.InDelta(t, 2.0, updated.Feedback.Data["POSITIVE"].(float64), 0.0001)
	require.InDelta(t, 1.0, updated.Feedback.Data["NEGATIVE"].(float64), 0.0001)
	require.InDelta(t, 3.0, updated.Feedback.Data["total"].(float64), 0.0001)
}
