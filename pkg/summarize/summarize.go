// Package summarize turns a match's grounded facts into a short
// human-readable summary and highlight list, without ever introducing
// a fact the caller did not supply.
package summarize

import "context"

// MatchSummaryFacts is the grounded input a Summarizer may draw on and
// nothing else: implementations must never fabricate a fact that isn't
// present here.
type MatchSummaryFacts struct {
	RequirementTitle   string
	ClientName         string
	ConsultantHeadline string
	AlignedSkills      []string
	MissingSkills      []string
	LocationStatus     string
	RateDelta          *float64
	RateWithinRange    bool
	AvailabilityDesc   string
	RetrievalScore     float64
	LinearScore        float64
	LTRScore           float64
}

// Result is a Summarizer's output: a short summary, a highlight list,
// a confidence score, whether every claim traces back to the input
// facts, and which provider produced it.
type Result struct {
	Summary    string
	Highlights []string
	Confidence float64
	Grounded   bool
	Provider   string
}

// Summarizer turns facts into a Result. Implementations must not invent
// facts absent from MatchSummaryFacts.
type Summarizer interface {
	Summarize(ctx context.Context, facts MatchSummaryFacts) (Result, error)
}
