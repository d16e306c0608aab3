package matching

import (
	"context"
	"math"
	"sort"
	"time"

	"github.com/konetibalaji/benchsales-match/pkg/database"
	"github.com/konetibalaji/benchsales-match/pkg/models"
)

// EvaluationWindow is the period an evaluation run scores over, plus
// the trailing slice used for the "online" restricted metrics.
type EvaluationWindow struct {
	Start             time.Time
	End               time.Time
	OnlineWindowHours int
	Baseline          *float64
	ReviewSummary     *string
}

// EvaluationReport is the computed metric set for one run, ready to be
// persisted as a models.AnalyticsSnapshot.
type EvaluationReport struct {
	NDCGAtK       float64
	HitAtK        float64
	Coverage      float64
	OnlineNDCG    float64
	OnlineHitRate float64
	BaselineDelta *float64
}

const (
	defaultK         = 10
	hitThreshold     = 1.0
)

// feedbackRelevance maps the strongest recorded feedback outcome for a
// match to a relevance grade.
func feedbackRelevance(counts map[string]int) float64 {
	best := 0.0
	grades := map[string]float64{
		string(models.FeedbackHired):    3,
		string(models.FeedbackPositive): 2,
		string(models.FeedbackNeutral):  1,
		string(models.FeedbackNegative): 0,
		string(models.FeedbackRejected): 0,
	}
	for outcome, n := range counts {
		if n <= 0 {
			continue
		}
		if g, ok := grades[outcome]; ok && g > best {
			best = g
		}
	}
	return best
}

func statusRelevance(status models.MatchStatus) float64 {
	switch status {
	case models.MatchHired:
		return 3
	case models.MatchShortlisted, models.MatchSubmitted:
		return 2
	default:
		return 0
	}
}

// submissionRelevance reads an optional external-ATS submission status
// recorded on a match's feedback payload under the "submissionStatus"
// key — there is no separate Submission entity in this schema, so the
// evaluation treats a submission outcome as another feedback fact.
func submissionRelevance(data map[string]any) float64 {
	raw, ok := data["submissionStatus"]
	if !ok {
		return 0
	}
	status, ok := raw.(string)
	if !ok {
		return 0
	}
	switch models.SubmissionStatus(status) {
	case models.SubmissionHired, models.SubmissionOffer:
		return 3
	case models.SubmissionInterview:
		return 2.5
	case models.SubmissionSubmitted:
		return 2
	default:
		return 0
	}
}

func relevanceOf(m *models.Match) float64 {
	counts := map[string]int{}
	for k, v := range m.Feedback.Data {
		if k == "total" {
			continue
		}
		if n, ok := v.(float64); ok {
			counts[k] = int(n)
		}
	}
	return math.Max(feedbackRelevance(counts), math.Max(statusRelevance(m.Status), submissionRelevance(m.Feedback.Data)))
}

func dcgAtK(relevances []float64, k int) float64 {
	var sum float64
	for i, rel := range relevances {
		if i >= k {
			break
		}
		sum += rel / math.Log2(float64(i+2))
	}
	return sum
}

func ndcgAtK(sortedByScore []float64, k int) float64 {
	ideal := make([]float64, len(sortedByScore))
	copy(ideal, sortedByScore)
	sort.Sort(sort.Reverse(sort.Float64Slice(ideal)))
	idealDCG := dcgAtK(ideal, k)
	if idealDCG == 0 {
		return 0
	}
	return dcgAtK(sortedByScore, k) / idealDCG
}

func hitAtK(relevances []float64, k int, threshold float64) float64 {
	for i, rel := range relevances {
		if i >= k {
			break
		}
		if rel >= threshold {
			return 1
		}
	}
	return 0
}

// Evaluate computes offline and online nDCG@K/Hit@K/coverage over
// win's window and returns the report plus the number of matches it
// was computed over, without persisting it — callers decide when/
// whether to write an AnalyticsSnapshot via EvaluationReport.ToSnapshot.
func (e *Engine) Evaluate(ctx context.Context, tc database.TenantContext, win EvaluationWindow) (EvaluationReport, int, error) {
	matches, err := e.store.Matches.ListInWindow(ctx, tc, win.Start, win.End)
	if err != nil {
		return EvaluationReport{}, 0, err
	}

	byRequirement := map[string][]*models.Match{}
	for _, m := range matches {
		byRequirement[m.RequirementID] = append(byRequirement[m.RequirementID], m)
	}

	onlineStart := win.End.Add(-time.Duration(win.OnlineWindowHours) * time.Hour)

	var ndcgs, hits, onlineNdcgs, onlineHits []float64
	var withFeedback, total int

	for _, reqMatches := range byRequirement {
		sort.Slice(reqMatches, func(i, j int) bool { return reqMatches[i].Score > reqMatches[j].Score })
		relevances := make([]float64, len(reqMatches))
		for i, m := range reqMatches {
			relevances[i] = relevanceOf(m)
			total++
			if hasFeedback(m) {
				withFeedback++
			}
		}
		ndcgs = append(ndcgs, ndcgAtK(relevances, defaultK))
		hits = append(hits, hitAtK(relevances, defaultK, hitThreshold))

		var onlineRelevances []float64
		for i, m := range reqMatches {
			if !m.CreatedAt.Before(onlineStart) && !m.CreatedAt.After(win.End) {
				onlineRelevances = append(onlineRelevances, relevances[i])
			}
		}
		if len(onlineRelevances) > 0 {
			onlineNdcgs = append(onlineNdcgs, ndcgAtK(onlineRelevances, defaultK))
			onlineHits = append(onlineHits, hitAtK(onlineRelevances, defaultK, hitThreshold))
		}
	}

	report := EvaluationReport{
		NDCGAtK:       mean(ndcgs),
		HitAtK:        mean(hits),
		OnlineNDCG:    mean(onlineNdcgs),
		OnlineHitRate: mean(onlineHits),
	}
	if total > 0 {
		report.Coverage = float64(withFeedback) / float64(total)
	}
	if win.Baseline != nil {
		delta := report.NDCGAtK - *win.Baseline
		report.BaselineDelta = &delta
	}
	return report, total, nil
}

func hasFeedback(m *models.Match) bool {
	total, ok := m.Feedback.Data["total"].(float64)
	return ok && total > 0
}

func mean(values []float64) float64 {
	if len(values) == 0 {
		return 0
	}
	var sum float64
	for _, v := range values {
		sum += v
	}
	return sum / float64(len(values))
}

// ToSnapshot renders an EvaluationReport as the AnalyticsSnapshot row
// the store persists, one per run.
func (r EvaluationReport) ToSnapshot(tenantID string, win EvaluationWindow, sampleSize int) *models.AnalyticsSnapshot {
	data := map[string]any{
		"ndcgAtK":       r.NDCGAtK,
		"hitAtK":        r.HitAtK,
		"onlineNdcgAtK": r.OnlineNDCG,
		"onlineHitRate": r.OnlineHitRate,
	}
	return &models.AnalyticsSnapshot{
		TenantID:      tenantID,
		WindowStart:   win.Start,
		WindowEnd:     win.End,
		Metrics:       models.VersionedJSON{SchemaVersion: 1, Data: data},
		SampleSize:    sampleSize,
		Coverage:      r.Coverage,
		BaselineDelta: r.BaselineDelta,
		ReviewSummary: win.ReviewSummary,
	}
}
