package matching_test

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/konetibalaji/benchsales-match/pkg/config"
	"github.com/konetibalaji/benchsales-match/pkg/matching"
	"github.com/konetibalaji/benchsales-match/pkg/models"
	"github.com/konetibalaji/benchsales-match/pkg/search"
)

func TestEvaluateComputesNDCGHitAndCoverage(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()
	tc := mustTenant(t, "tenant-acme")

	req := &models.Requirement{TenantID: tc.TenantID, Title: "Go Engineer", ClientName: "Acme"}
	require.NoError(t, store.Requirements.Create(ctx, tc, req))

	good := &models.Consultant{TenantID: tc.TenantID, FirstName: "Ada", Availability: models.AvailabilityAvailable}
	require.NoError(t, store.Consultants.Create(ctx, tc, good))
	poor := &models.Consultant{TenantID: tc.TenantID, FirstName: "Bo", Availability: models.AvailabilityAvailable}
	require.NoError(t, store.Consultants.Create(ctx, tc, poor))

	emptyVJ := models.VersionedJSON{SchemaVersion: 1, Data: map[string]any{}}
	mGood := &models.Match{ConsultantID: good.ID, RequirementID: req.ID, Score: 0.9, Status: models.MatchReview, Explanation: emptyVJ, Feedback: emptyVJ}
	require.NoError(t, store.Matches.Upsert(ctx, tc, mGood))
	mPoor := &models.Match{ConsultantID: poor.ID, RequirementID: req.ID, Score: 0.4, Status: models.MatchReview, Explanation: emptyVJ, Feedback: emptyVJ}
	require.NoError(t, store.Matches.Upsert(ctx, tc, mPoor))

	idx := search.NewIndex(config.SearchConfig{})
	engine := matching.NewEngine(store, idx, nil, nil, nil, nil, config.MatchingConfig{})

	require.NoError(t, engine.SubmitFeedback(ctx, tc, mGood.ID, matching.FeedbackInput{Outcome: models.FeedbackHired}))

	now := time.Now()
	report, total, err := engine.Evaluate(ctx, tc, matching.EvaluationWindow{
		Start:             now.Add(-time.Hour),
		End:               now.Add(time.Hour),
		OnlineWindowHours: 2,
	})
	require.NoError(t, err)
	require.Equal(t, 2, total)
	require.InDelta(t, 0.5, report.Coverage, 0.0001) // 1 of 2 matches has feedback
	require.Greater(t, report.NDCGAtK, 0.0)
	require.Equal(t, 1.0, report.HitAtK) // the HIRED match clears the default threshold

	snapshot := report.ToSnapshot(tc.TenantID, matching.EvaluationWindow{Start: now.Add(-time.Hour), End: now.Add(time.Hour)}, total)
	require.NoError(t, store.Analytics.Save(ctx, tc, snapshot))

	latest, err := store.Analytics.Latest(ctx, tc)
	require.NoError(t, err)
	require.InDelta(t, report.Coverage, latest.Coverage, 0.0001)
}
