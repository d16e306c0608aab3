package matching

import (
	"sort"

	"github.com/konetibalaji/benchsales-match/pkg/models"
	"github.com/konetibalaji/benchsales-match/pkg/summarize"
)

// ModelVersion identifies the fixed LTR ensemble published in scoring.go;
// bumped whenever linearWeights or ltrEnsemble change so historical
// MatchFeatureSnapshot rows remain attributable to the version that
// produced them.
const ModelVersion = "ltr-v1"

// FeatureContribution is one row of the explanation's ranked feature
// breakdown.
type FeatureContribution struct {
	Feature      string  `json:"feature"`
	Value        float64 `json:"value"`
	Weight       float64 `json:"weight"`
	Contribution float64 `json:"contribution"`
}

// Deltas summarizes the non-numeric signals a reviewer scans first.
type Deltas struct {
	LocationStatus   string   `json:"locationStatus"`
	RateDelta        *float64 `json:"rateDelta"`
	RateWithinRange  bool     `json:"rateWithinRange"`
	AvailabilityDesc string   `json:"availabilityDescription"`
}

// Explanation is the full grounded record attached to a Match.
type Explanation struct {
	ModelVersion   string                      `json:"modelVersion"`
	RankerVersion  string                      `json:"rankerVersion"`
	AlignedSkills  []string                    `json:"alignedSkills"`
	Contributions  []FeatureContribution       `json:"contributions"`
	Deltas         Deltas                      `json:"deltas"`
	RetrievalScore float64                     `json:"retrievalScore"`
	VectorScore    float64                     `json:"vectorScore"`
	LexicalScore   float64                     `json:"lexicalScore"`
	LinearScore    float64                     `json:"linearScore"`
	LTRScore       float64                     `json:"ltrScore"`
	FinalScore     float64                     `json:"finalScore"`
	Highlights     []string                    `json:"highlights"`
	Facts          summarize.MatchSummaryFacts `json:"facts"`
}

func locationStatus(v float64) string {
	switch {
	case v >= 1:
		return "MATCH"
	case v >= 0.8:
		return "REMOTE_COMPATIBLE"
	case v >= 0.6:
		return "SAME_REGION"
	case v == 0.5:
		return "UNKNOWN"
	default:
		return "MISMATCH"
	}
}

func availabilityDescription(a models.Availability) string {
	switch a {
	case models.AvailabilityAvailable:
		return "available now"
	case models.AvailabilityInterviewing:
		return "interviewing, may be available soon"
	case models.AvailabilityAssigned:
		return "currently assigned"
	default:
		return "unavailable"
	}
}

func rateDelta(req *models.Requirement, consultantRate *float64) *float64 {
	if consultantRate == nil {
		return nil
	}
	rate := *consultantRate
	switch {
	case req.MinRate != nil && req.MaxRate != nil:
		mid := (*req.MinRate + *req.MaxRate) / 2
		delta := rate - mid
		return &delta
	case req.MinRate != nil:
		delta := rate - *req.MinRate
		return &delta
	case req.MaxRate != nil:
		delta := rate - *req.MaxRate
		return &delta
	default:
		return nil
	}
}

func rateWithinRange(req *models.Requirement, consultantRate *float64) bool {
	if consultantRate == nil || req.MinRate == nil || req.MaxRate == nil {
		return false
	}
	lo, hi := *req.MinRate, *req.MaxRate
	if lo > hi {
		lo, hi = hi, lo
	}
	return *consultantRate >= lo && *consultantRate <= hi
}

// alignedAndMissingSkills returns the canonical names shared between
// the requirement and consultant, and the requirement's names the
// consultant lacks, given an id->name lookup.
func alignedAndMissingSkills(reqSkills []models.RequirementSkill, conSkills []models.ConsultantSkill, nameOf func(string) string) (aligned, missing []string) {
	conIDs := make(map[string]bool, len(conSkills))
	for _, cs := range conSkills {
		conIDs[cs.SkillID] = true
	}
	for _, rs := range reqSkills {
		name := nameOf(rs.SkillID)
		if conIDs[rs.SkillID] {
			aligned = append(aligned, name)
		} else {
			missing = append(missing, name)
		}
	}
	return aligned, missing
}

// BuildExplanation assembles the full grounded explanation record for
// one scored candidate. modelVersion identifies the scoring run
// (normally config.MatchingConfig.ModelVersion, falling back to
// ModelVersion when unset).
func BuildExplanation(req *models.Requirement, con *models.Consultant, f FeatureVector, linear, ltr, final float64, retrieval float64, aligned, missing []string, summary summarize.Result, facts summarize.MatchSummaryFacts, modelVersion string) Explanation {
	fm := f.asMap()
	contributions := make([]FeatureContribution, 0, len(featureOrder))
	for _, name := range featureOrder {
		w := linearWeights[name]
		v := fm[name]
		contributions = append(contributions, FeatureContribution{
			Feature:      name,
			Value:        v,
			Weight:       w,
			Contribution: w * v,
		})
	}
	sort.Slice(contributions, func(i, j int) bool {
		return contributions[i].Contribution > contributions[j].Contribution
	})

	if modelVersion == "" {
		modelVersion = ModelVersion
	}
	delta := rateDelta(req, con.Rate)
	return Explanation{
		ModelVersion:   modelVersion,
		RankerVersion:  ModelVersion,
		AlignedSkills:  aligned,
		Contributions:  contributions,
		Deltas: Deltas{
			LocationStatus:   locationStatus(f.LocationMatch),
			RateDelta:        delta,
			RateWithinRange:  rateWithinRange(req, con.Rate),
			AvailabilityDesc: availabilityDescription(con.Availability),
		},
		RetrievalScore: retrieval,
		VectorScore:    f.VectorScore,
		LexicalScore:   f.LexicalScore,
		LinearScore:    linear,
		LTRScore:       ltr,
		FinalScore:     final,
		Highlights:     summary.Highlights,
		Facts:          facts,
	}
}

// ToVersionedJSON renders e as the VersionedJSON the database layer
// expects, round-tripping through its own JSON tags via map[string]any.
func (e Explanation) ToVersionedJSON() models.VersionedJSON {
	return models.VersionedJSON{SchemaVersion: 1, Data: structToMap(e)}
}
