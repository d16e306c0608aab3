package api

import (
	"time"

	"github.com/konetibalaji/benchsales-match/pkg/database"
	"github.com/konetibalaji/benchsales-match/pkg/matching"
	"github.com/konetibalaji/benchsales-match/pkg/models"
	"github.com/konetibalaji/benchsales-match/pkg/version"
)

// healthResponse is the body GET /health returns.
type healthResponse struct {
	Status      string                   `json:"status"`
	Version     string                   `json:"version"`
	Database    *database.HealthStatus   `json:"database"`
	WorkerPools []queueHealthResponse    `json:"queues,omitempty"`
}

type queueHealthResponse struct {
	Queue       string `json:"queue"`
	Depth       int    `json:"depth"`
	DLQCount    int    `json:"dlqCount"`
	ActiveCount int    `json:"activeCount"`
}

func buildVersion() string { return version.Full() }

// requirementResponse is the JSON shape returned for a requirement.
type requirementResponse struct {
	ID          string     `json:"id"`
	Title       string     `json:"title"`
	ClientName  string     `json:"clientName"`
	Description string     `json:"description"`
	Location    *string    `json:"location,omitempty"`
	Status      string     `json:"status"`
	MinRate     *float64   `json:"minRate,omitempty"`
	MaxRate     *float64   `json:"maxRate,omitempty"`
	PostedAt    time.Time  `json:"postedAt"`
	ClosesAt    *time.Time `json:"closesAt,omitempty"`
}

func toRequirementResponse(r *models.Requirement) requirementResponse {
	return requirementResponse{
		ID:          r.ID,
		Title:       r.Title,
		ClientName:  r.ClientName,
		Description: r.Description,
		Location:    r.Location,
		Status:      string(r.Status),
		MinRate:     r.MinRate,
		MaxRate:     r.MaxRate,
		PostedAt:    r.PostedAt,
		ClosesAt:    r.ClosesAt,
	}
}

// consultantResponse is the JSON shape returned for a consultant.
type consultantResponse struct {
	ID           string  `json:"id"`
	FirstName    string  `json:"firstName"`
	LastName     string  `json:"lastName"`
	Email        *string `json:"email,omitempty"`
	Location     *string `json:"location,omitempty"`
	Availability string  `json:"availability"`
	Rate         *float64 `json:"rate,omitempty"`
}

func toConsultantResponse(c *models.Consultant) consultantResponse {
	return consultantResponse{
		ID:           c.ID,
		FirstName:    c.FirstName,
		LastName:     c.LastName,
		Email:        c.Email,
		Location:     c.Location,
		Availability: string(c.Availability),
		Rate:         c.Rate,
	}
}

// scoredMatchResponse is one ranked match plus its full explanation.
type scoredMatchResponse struct {
	MatchID       string               `json:"matchId"`
	ConsultantID  string               `json:"consultantId"`
	RequirementID string               `json:"requirementId"`
	Score         float64              `json:"score"`
	Status        string               `json:"status"`
	Explanation   matching.Explanation `json:"explanation"`
}

func toScoredMatchResponse(m matching.ScoredMatch) scoredMatchResponse {
	return scoredMatchResponse{
		MatchID:       m.Match.ID,
		ConsultantID:  m.Match.ConsultantID,
		RequirementID: m.Match.RequirementID,
		Score:         m.Match.Score,
		Status:        string(m.Match.Status),
		Explanation:   m.Explanation,
	}
}

// evaluationResponse reports one evaluation run.
type evaluationResponse struct {
	NDCGAtK       float64  `json:"ndcgAtK"`
	HitAtK        float64  `json:"hitAtK"`
	Coverage      float64  `json:"coverage"`
	OnlineNDCG    float64  `json:"onlineNdcgAtK"`
	OnlineHitRate float64  `json:"onlineHitRate"`
	BaselineDelta *float64 `json:"baselineDelta,omitempty"`
	SampleSize    int      `json:"sampleSize"`
}

func toEvaluationResponse(r matching.EvaluationReport, sampleSize int) evaluationResponse {
	return evaluationResponse{
		NDCGAtK:       r.NDCGAtK,
		HitAtK:        r.HitAtK,
		Coverage:      r.Coverage,
		OnlineNDCG:    r.OnlineNDCG,
		OnlineHitRate: r.OnlineHitRate,
		BaselineDelta: r.BaselineDelta,
		SampleSize:    sampleSize,
	}
}
