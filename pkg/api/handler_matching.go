package api

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/konetibalaji/benchsales-match/pkg/apperr"
	"github.com/konetibalaji/benchsales-match/pkg/matching"
	"github.com/konetibalaji/benchsales-match/pkg/models"
)

// rankHandler handles POST /api/v1/requirements/:id/rank.
func (s *Server) rankHandler(c *gin.Context) {
	var req rankRequest
	_ = c.ShouldBindJSON(&req) // absent body means default limit

	results, err := s.matcher.Rank(c.Request.Context(), tenantFrom(c), c.Param("id"), req.Limit)
	if err != nil {
		writeError(c, err)
		return
	}

	out := make([]scoredMatchResponse, 0, len(results))
	for _, r := range results {
		out = append(out, toScoredMatchResponse(r))
	}
	c.JSON(http.StatusOK, gin.H{"matches": out})
}

// getMatchHandler handles GET /api/v1/matches/:id.
func (s *Server) getMatchHandler(c *gin.Context) {
	m, err := s.store.Matches.Get(c.Request.Context(), tenantFrom(c), c.Param("id"))
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"matchId":       m.ID,
		"consultantId":  m.ConsultantID,
		"requirementId": m.RequirementID,
		"score":         m.Score,
		"status":        string(m.Status),
		"explanation":   m.Explanation,
		"feedback":      m.Feedback,
	})
}

var validFeedbackOutcomes = map[string]models.FeedbackOutcome{
	string(models.FeedbackPositive): models.FeedbackPositive,
	string(models.FeedbackNegative): models.FeedbackNegative,
	string(models.FeedbackNeutral):  models.FeedbackNeutral,
	string(models.FeedbackHired):    models.FeedbackHired,
	string(models.FeedbackRejected): models.FeedbackRejected,
}

// submitFeedbackHandler handles POST /api/v1/matches/:id/feedback.
func (s *Server) submitFeedbackHandler(c *gin.Context) {
	var req feedbackRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, errorResponse{Error: err.Error()})
		return
	}
	outcome, ok := validFeedbackOutcomes[req.Outcome]
	if !ok {
		writeError(c, apperr.Validation("unknown feedback outcome "+req.Outcome))
		return
	}

	in := matching.FeedbackInput{
		Outcome:  outcome,
		Rating:   req.Rating,
		Reason:   req.Reason,
		Metadata: models.VersionedJSON{SchemaVersion: 1, Data: req.Metadata},
	}
	if in.Metadata.Data == nil {
		in.Metadata.Data = map[string]any{}
	}

	if err := s.matcher.SubmitFeedback(c.Request.Context(), tenantFrom(c), c.Param("id"), in); err != nil {
		writeError(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}

// evaluateHandler handles POST /api/v1/evaluate, computing nDCG/Hit/
// coverage metrics for matches in the given window and persisting the
// run as an AnalyticsSnapshot.
func (s *Server) evaluateHandler(c *gin.Context) {
	var req evaluateRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, errorResponse{Error: err.Error()})
		return
	}
	start, err := time.Parse(time.RFC3339, req.Start)
	if err != nil {
		writeError(c, apperr.Validation("start must be RFC3339"))
		return
	}
	end, err := time.Parse(time.RFC3339, req.End)
	if err != nil {
		writeError(c, apperr.Validation("end must be RFC3339"))
		return
	}
	onlineWindow := req.OnlineWindowHours
	if onlineWindow <= 0 {
		onlineWindow = 24
	}

	tc := tenantFrom(c)
	win := matching.EvaluationWindow{
		Start:             start,
		End:               end,
		OnlineWindowHours: onlineWindow,
		Baseline:          req.Baseline,
		ReviewSummary:     req.ReviewSummary,
	}
	report, sampleSize, err := s.matcher.Evaluate(c.Request.Context(), tc, win)
	if err != nil {
		writeError(c, err)
		return
	}

	snapshot := report.ToSnapshot(tc.TenantID, win, sampleSize)
	if err := s.store.Analytics.Save(c.Request.Context(), tc, snapshot); err != nil {
		writeError(c, err)
		return
	}

	c.JSON(http.StatusOK, toEvaluationResponse(report, sampleSize))
}
