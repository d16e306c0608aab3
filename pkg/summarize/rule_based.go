package summarize

import (
	"context"
	"fmt"
	"strings"
)

// RuleBased is the deterministic default Summarizer: it composes a
// summary and highlight list directly from the supplied facts using
// fixed sentence templates, so it can never say anything the caller
// did not already know.
type RuleBased struct{}

// NewRuleBased builds the deterministic default collaborator.
func NewRuleBased() *RuleBased { return &RuleBased{} }

// Summarize assembles a templated summary from facts. It always
// returns Grounded: true and Provider: "rule_based".
func (RuleBased) Summarize(_ context.Context, facts MatchSummaryFacts) (Result, error) {
	var sentences []string
	var highlights []string

	if len(facts.AlignedSkills) > 0 {
		sentences = append(sentences, fmt.Sprintf("Matches on %s.", strings.Join(facts.AlignedSkills, ", ")))
		highlights = append(highlights, fmt.Sprintf("%d aligned skill(s): %s", len(facts.AlignedSkills), strings.Join(facts.AlignedSkills, ", ")))
	}
	if len(facts.MissingSkills) > 0 {
		highlights = append(highlights, fmt.Sprintf("Missing: %s", strings.Join(facts.MissingSkills, ", ")))
	}
	if facts.LocationStatus != "" {
		sentences = append(sentences, fmt.Sprintf("Location: %s.", facts.LocationStatus))
	}
	if facts.RateDelta != nil {
		withinLabel := "outside range"
		if facts.RateWithinRange {
			withinLabel = "within range"
		}
		sentences = append(sentences, fmt.Sprintf("Rate delta %.2f, %s.", *facts.RateDelta, withinLabel))
		highlights = append(highlights, fmt.Sprintf("Rate %s", withinLabel))
	}
	if facts.AvailabilityDesc != "" {
		sentences = append(sentences, fmt.Sprintf("Availability: %s.", facts.AvailabilityDesc))
	}

	if facts.ConsultantHeadline != "" {
		sentences = append([]string{facts.ConsultantHeadline}, sentences...)
	}
	if facts.RequirementTitle != "" {
		prefix := fmt.Sprintf("For %s", facts.RequirementTitle)
		if facts.ClientName != "" {
			prefix += fmt.Sprintf(" at %s", facts.ClientName)
		}
		sentences = append([]string{prefix + ":"}, sentences...)
	}

	confidence := 0.5
	switch {
	case facts.LTRScore > 0:
		confidence = facts.LTRScore
	case facts.LinearScore > 0:
		confidence = facts.LinearScore
	}

	return Result{
		Summary:    strings.Join(sentences, " "),
		Highlights: highlights,
		Confidence: clamp01(confidence),
		Grounded:   true,
		Provider:   "rule_based",
	}, nil
}

func clamp01(v float64) float64 {
	if v < 0 {
		return 0
	}
	if v > 1 {
		return 1
	}
	return v
}
