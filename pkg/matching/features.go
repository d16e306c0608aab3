// Package matching implements the candidate retrieval, feature
// extraction, multi-stage scoring, explanation, feedback, and
// evaluation pipeline that turns a requirement into a ranked, grounded
// list of consultant matches.
//
// Collaborators are wired the same way pkg/queue/worker.go does: a
// struct of narrow interfaces built through constructor injection,
// composed with pkg/search's hybrid retrieval and pkg/summarize's
// fallback-on-degrade pattern.
package matching

import (
	"math"
	"strings"
	"time"

	"github.com/konetibalaji/benchsales-match/pkg/models"
	"github.com/konetibalaji/benchsales-match/pkg/search"
)

// FeatureVector is the [0,1]-bounded feature set computed per candidate.
type FeatureVector struct {
	SkillOverlap  float64
	VectorScore   float64
	LexicalScore  float64
	Availability  float64
	LocationMatch float64
	RateAlignment float64
	RecencyScore  float64
}

// featureOrder is the fixed iteration order used everywhere a feature
// vector is rendered (explanation contributions, LTR input) so the
// published tree weights below line up with the right dimension.
var featureOrder = []string{
	"skillOverlap", "vectorScore", "lexicalScore",
	"availability", "locationMatch", "rateAlignment", "recencyScore",
}

func (f FeatureVector) asMap() map[string]float64 {
	return map[string]float64{
		"skillOverlap":  f.SkillOverlap,
		"vectorScore":   f.VectorScore,
		"lexicalScore":  f.LexicalScore,
		"availability":  f.Availability,
		"locationMatch": f.LocationMatch,
		"rateAlignment": f.RateAlignment,
		"recencyScore":  f.RecencyScore,
	}
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

// skillOverlap computes Σ min(reqW(s), conW(s)) over the skills the
// requirement and consultant share, divided by Σ reqW(s) over every
// requirement skill; 0 if the requirement has no skills at all.
func skillOverlap(reqSkills []models.RequirementSkill, conSkills []models.ConsultantSkill) float64 {
	if len(reqSkills) == 0 {
		return 0
	}
	conWeights := make(map[string]int, len(conSkills))
	for _, cs := range conSkills {
		conWeights[cs.SkillID] = cs.Weight
	}
	var num, den float64
	for _, rs := range reqSkills {
		den += float64(rs.Weight)
		if cw, ok := conWeights[rs.SkillID]; ok {
			num += math.Min(float64(rs.Weight), float64(cw))
		}
	}
	if den == 0 {
		return 0
	}
	return clamp01(num / den)
}

func availabilityScore(a models.Availability) float64 {
	switch a {
	case models.AvailabilityAvailable:
		return 1
	case models.AvailabilityInterviewing:
		return 0.6
	case models.AvailabilityAssigned:
		return 0.25
	default:
		return 0
	}
}

// locationMatch compares a requirement's location to a consultant's,
// case-insensitively, with graded partial credit for "remote" and
// same-region matches.
func locationMatch(reqLocation, conLocation *string) float64 {
	if reqLocation == nil || conLocation == nil || strings.TrimSpace(*reqLocation) == "" || strings.TrimSpace(*conLocation) == "" {
		return 0.5
	}
	req := strings.ToLower(strings.TrimSpace(*reqLocation))
	con := strings.ToLower(strings.TrimSpace(*conLocation))
	if req == con {
		return 1
	}
	if strings.Contains(req, "remote") || strings.Contains(con, "remote") {
		return 0.8
	}
	reqFirst := strings.TrimSpace(strings.SplitN(req, ",", 2)[0])
	conFirst := strings.TrimSpace(strings.SplitN(con, ",", 2)[0])
	if reqFirst != "" && reqFirst == conFirst {
		return 0.6
	}
	return 0.25
}

// rateAlignment scores how well a consultant's rate sits inside (or
// near) the requirement's [minRate, maxRate] band.
func rateAlignment(minRate, maxRate, consultantRate *float64) float64 {
	if consultantRate == nil {
		return 0.5
	}
	rate := *consultantRate
	switch {
	case minRate != nil && maxRate != nil:
		lo, hi := *minRate, *maxRate
		if lo > hi {
			lo, hi = hi, lo
		}
		if rate >= lo && rate <= hi {
			return 1
		}
		mid := (lo + hi) / 2
		span := hi - lo
		if span <= 0 {
			span = 1
		}
		return clamp01(1 - math.Abs(rate-mid)/(1.5*span))
	case minRate != nil:
		return clamp01(1 - math.Abs(rate-*minRate)/math.Max(*minRate, 1))
	case maxRate != nil:
		return clamp01(1 - math.Abs(rate-*maxRate)/math.Max(*maxRate, 1))
	default:
		return 0.5
	}
}

const recencyWindow = 90 * 24 * time.Hour

// recencyScore decays linearly to 0 over a 90-day window since the
// consultant record was last updated.
func recencyScore(updatedAt, now time.Time) float64 {
	age := now.Sub(updatedAt)
	if age < 0 {
		age = 0
	}
	return clamp01(1 - float64(age)/float64(recencyWindow))
}

// BuildFeatures assembles the full feature vector for one candidate,
// combining the hybrid retrieval sub-scores with the requirement and
// consultant rows fetched from the store.
func BuildFeatures(req *models.Requirement, reqSkills []models.RequirementSkill, con *models.Consultant, conSkills []models.ConsultantSkill, retrieval search.Result, now time.Time) FeatureVector {
	return FeatureVector{
		SkillOverlap:  skillOverlap(reqSkills, conSkills),
		VectorScore:   clamp01(retrieval.VectorScore),
		LexicalScore:  clamp01(retrieval.LexicalScore),
		Availability:  availabilityScore(con.Availability),
		LocationMatch: locationMatch(req.Location, con.Location),
		RateAlignment: rateAlignment(req.MinRate, req.MaxRate, con.Rate),
		RecencyScore:  recencyScore(con.UpdatedAt, now),
	}
}

// passesHardFilters drops candidates that can never be a sensible
// match regardless of score: unavailable, essentially no skill
// overlap when skills were required, wrong region when a location was
// required, or a rate far outside any plausible band.
func passesHardFilters(f FeatureVector, requirementHasSkills, requirementHasLocation bool) bool {
	if f.Availability <= 0 {
		return false
	}
	if requirementHasSkills && f.SkillOverlap < 0.15 {
		return false
	}
	if requirementHasLocation && f.LocationMatch < 0.25 {
		return false
	}
	if f.RateAlignment < 0.2 {
		return false
	}
	return true
}
