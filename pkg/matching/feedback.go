package matching

import (
	"context"

	"github.com/konetibalaji/benchsales-match/pkg/audit"
	"github.com/konetibalaji/benchsales-match/pkg/database"
	"github.com/konetibalaji/benchsales-match/pkg/models"
)

// FeedbackInput is the caller-supplied shape of one review outcome.
type FeedbackInput struct {
	Outcome  models.FeedbackOutcome
	Rating   *int
	Reason   *string
	Metadata models.VersionedJSON
}

// SubmitFeedback inserts a MatchFeedback row and atomically recomputes
// the per-match outcome-count aggregate written back to Match.feedback.
func (e *Engine) SubmitFeedback(ctx context.Context, tc database.TenantContext, matchID string, in FeedbackInput) error {
	fb := &models.MatchFeedback{
		MatchID:  matchID,
		TenantID: tc.TenantID,
		Outcome:  in.Outcome,
		Rating:   in.Rating,
		Reason:   in.Reason,
		Metadata: in.Metadata,
	}
	if err := e.store.Matches.AddFeedback(ctx, tc, fb); err != nil {
		return err
	}

	all, err := e.store.Matches.FeedbackForMatch(ctx, tc, matchID)
	if err != nil {
		return err
	}
	aggregate := aggregateFeedback(all)
	if err := e.store.Matches.UpdateFeedback(ctx, tc, matchID, aggregate); err != nil {
		return err
	}

	if e.audit != nil {
		entityID := matchID
		_, _ = e.audit.Record(ctx, audit.RecordInput{
			TenantID:   tc.TenantID,
			Action:     "matching.feedback",
			EntityType: "Match",
			EntityID:   &entityID,
			ResultCode: "OK",
		})
	}
	return nil
}

// aggregateFeedback counts feedback rows by outcome, the shape
// Match.feedback stores.
func aggregateFeedback(rows []*models.MatchFeedback) models.VersionedJSON {
	counts := map[string]int{}
	for _, fb := range rows {
		counts[string(fb.Outcome)]++
	}
	data := make(map[string]any, len(counts)+1)
	for k, v := range counts {
		data[k] = v
	}
	data["total"] = len(rows)
	return models.VersionedJSON{SchemaVersion: 1, Data: data}
}
