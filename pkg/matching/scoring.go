package matching

import "math"

// linearWeights are the fixed per-feature coefficients for the first
// scoring stage.
var linearWeights = map[string]float64{
	"skillOverlap":  0.35,
	"vectorScore":   0.25,
	"lexicalScore":  0.10,
	"availability":  0.10,
	"locationMatch": 0.10,
	"rateAlignment": 0.07,
	"recencyScore":  0.03,
}

// LinearScore computes the calibrated weighted sum over the feature
// vector plus a tunable base weight.
func LinearScore(f FeatureVector, baseWeight float64) float64 {
	fm := f.asMap()
	sum := baseWeight
	for _, name := range featureOrder {
		sum += linearWeights[name] * fm[name]
	}
	return clamp01(sum)
}

// RetrievalScore blends the hybrid index's two sub-scores, independent
// of any hard filters or downstream scoring stage.
func RetrievalScore(f FeatureVector) float64 {
	return 0.6*f.VectorScore + 0.4*f.LexicalScore
}

// ltrTree is one node of a depth-1 regression stump: split on a named
// feature at a threshold, contributing leftValue or rightValue to the
// raw ensemble sum.
type ltrTree struct {
	feature   string
	threshold float64
	leftValue float64 // feature <= threshold
	rightVal  float64 // feature > threshold
}

// ltrEnsemble is a small, fixed, published gradient-boosted ensemble:
// each stump nudges the raw score toward higher values when a feature
// known to correlate with a good match clears its threshold. The
// weights were chosen so the ensemble roughly reproduces the linear
// stage's ranking while letting a handful of nonlinear interactions
// (high skill overlap AND decent rate alignment, very fresh listings)
// move a candidate up or down the board.
var ltrEnsemble = []ltrTree{
	{feature: "skillOverlap", threshold: 0.6, leftValue: -0.15, rightVal: 0.35},
	{feature: "retrievalScore", threshold: 0.5, leftValue: -0.10, rightVal: 0.25},
	{feature: "linearScore", threshold: 0.55, leftValue: -0.20, rightVal: 0.30},
	{feature: "rateAlignment", threshold: 0.5, leftValue: -0.10, rightVal: 0.15},
	{feature: "locationMatch", threshold: 0.6, leftValue: -0.08, rightVal: 0.12},
	{feature: "recencyScore", threshold: 0.5, leftValue: -0.05, rightVal: 0.08},
}

const (
	ltrBase         = -0.1
	ltrLearningRate = 0.5
)

func sigmoid(x float64) float64 {
	return 1 / (1 + math.Exp(-x))
}

// LTRScore evaluates the fixed ensemble over the feature vector plus
// the linear and retrieval scores, returning a probability in [0,1].
func LTRScore(f FeatureVector, linear, retrieval float64) float64 {
	inputs := f.asMap()
	inputs["linearScore"] = linear
	inputs["retrievalScore"] = retrieval

	var raw float64
	for _, tree := range ltrEnsemble {
		v, ok := inputs[tree.feature]
		if !ok {
			continue
		}
		if v <= tree.threshold {
			raw += tree.leftValue
		} else {
			raw += tree.rightVal
		}
	}
	return sigmoid(ltrBase + ltrLearningRate*raw)
}

// ScoreWeights are the resolved per-run blend weights for the final
// score, derived once from MatchingConfig and whether LLM rerank ran.
type ScoreWeights struct {
	Linear float64
	LTR    float64
	LLM    float64
}

// ResolveWeights derives the final blend weights: linearWeight is
// fixed at 0.35, llmWeight is the configured rerank weight capped at
// 0.3 (0 when rerank is disabled), and ltrWeight absorbs the rest,
// floored at 0.2.
func ResolveWeights(rerankEnabled bool, configuredRerankWeight float64) ScoreWeights {
	const linearWeight = 0.35
	llmWeight := 0.0
	if rerankEnabled {
		llmWeight = math.Min(0.3, configuredRerankWeight)
	}
	ltrWeight := math.Max(0.2, 1-linearWeight-llmWeight)
	return ScoreWeights{Linear: linearWeight, LTR: ltrWeight, LLM: llmWeight}
}

// FinalScore blends the three scoring stages; llmConfidence is ignored
// (falls back to ltr) when the LLM stage did not run for this candidate.
func FinalScore(w ScoreWeights, linear, ltr float64, llmConfidence *float64) float64 {
	llm := ltr
	if llmConfidence != nil {
		llm = *llmConfidence
	}
	denom := w.Linear + w.LTR + w.LLM
	if denom <= 0 {
		return clamp01(ltr)
	}
	return clamp01((w.Linear*linear + w.LTR*ltr + w.LLM*llm) / denom)
}
