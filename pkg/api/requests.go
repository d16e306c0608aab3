package api

// reindexRequest is the body POST /api/v1/search/reindex accepts.
// EntityType is "CONSULTANT" or "REQUIREMENT".
type reindexRequest struct {
	EntityType string `json:"entityType" binding:"required"`
}

// requirementIntakeRequest is the body POST /api/v1/requirements accepts.
// RawContent is free text (email body, pasted job description); the
// ingestion pipeline extracts structure from it asynchronously.
type requirementIntakeRequest struct {
	RawContent string `json:"rawContent" binding:"required"`
	Source     string `json:"source"`
}

// resumeIntakeRequest is the body POST /api/v1/resumes accepts. Content
// is base64-encoded file bytes; large uploads should go through
// pkg/blob's presigned PUT flow instead and pass StorageKey, but this
// path covers the common small-file case in one round trip.
type resumeIntakeRequest struct {
	FileName      string  `json:"fileName" binding:"required"`
	ContentType   string  `json:"contentType" binding:"required"`
	ContentBase64 string  `json:"contentBase64" binding:"required"`
	Source        string  `json:"source"`
	ConsultantID  *string `json:"consultantId,omitempty"`
	RequirementID *string `json:"requirementId,omitempty"`
}

// rankRequest is the body POST /api/v1/requirements/:id/rank accepts.
type rankRequest struct {
	Limit int `json:"limit"`
}

// feedbackRequest is the body POST /api/v1/matches/:id/feedback accepts.
type feedbackRequest struct {
	Outcome  string         `json:"outcome" binding:"required"`
	Rating   *int           `json:"rating,omitempty"`
	Reason   *string        `json:"reason,omitempty"`
	Metadata map[string]any `json:"metadata,omitempty"`
}

// evaluateRequest is the body POST /api/v1/evaluate accepts. Start/End
// are RFC3339 timestamps bounding the match window to evaluate.
type evaluateRequest struct {
	Start             string   `json:"start" binding:"required"`
	End               string   `json:"end" binding:"required"`
	OnlineWindowHours int      `json:"onlineWindowHours"`
	Baseline          *float64 `json:"baseline,omitempty"`
	ReviewSummary     *string  `json:"reviewSummary,omitempty"`
}
