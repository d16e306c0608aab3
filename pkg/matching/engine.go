package matching

import (
	"context"
	"sort"
	"time"

	"github.com/konetibalaji/benchsales-match/pkg/audit"
	"github.com/konetibalaji/benchsales-match/pkg/config"
	"github.com/konetibalaji/benchsales-match/pkg/database"
	"github.com/konetibalaji/benchsales-match/pkg/models"
	"github.com/konetibalaji/benchsales-match/pkg/search"
	"github.com/konetibalaji/benchsales-match/pkg/summarize"
)

// Breaker is the collaborator surface pkg/resilience.Breaker provides;
// narrowed so the engine can be tested without Redis.
type Breaker interface {
	Do(ctx context.Context, fn func(ctx context.Context) error) error
}

// noopBreaker runs fn directly, used when rerank has no breaker wired.
type noopBreaker struct{}

func (noopBreaker) Do(ctx context.Context, fn func(ctx context.Context) error) error { return fn(ctx) }

// Engine computes ranked, explained consultant matches for a
// requirement, persists them, and records an audit entry for the run.
type Engine struct {
	store         *database.Store
	index         *search.Index
	embedder      search.Embedder
	summarizer    summarize.Summarizer
	breaker       Breaker
	audit         *audit.Store
	cfg           config.MatchingConfig
	rerankEnabled bool
	now           func() time.Time
}

// NewEngine wires the matching engine's collaborators. summarizer may be
// nil — rerank is then skipped entirely regardless of cfg.RerankEnabled.
// A nil breaker is replaced by a no-op breaker that lets every call through.
func NewEngine(store *database.Store, index *search.Index, embedder search.Embedder, summarizer summarize.Summarizer, breaker Breaker, auditStore *audit.Store, cfg config.MatchingConfig) *Engine {
	if breaker == nil {
		breaker = noopBreaker{}
	}
	return &Engine{
		store:         store,
		index:         index,
		embedder:      embedder,
		summarizer:    summarizer,
		breaker:       breaker,
		audit:         auditStore,
		cfg:           cfg,
		rerankEnabled: cfg.RerankEnabled && summarizer != nil,
		now:           time.Now,
	}
}

// candidate bundles everything the scoring pipeline needs about one
// retrieved consultant as it moves through retrieval, filtering,
// scoring, and optional rerank.
type candidate struct {
	consultant     *models.Consultant
	skills         []models.ConsultantSkill
	retrieval      search.Result
	features       FeatureVector
	alignedSkills  []string
	missingSkills  []string
	linear         float64
	ltr            float64
	final          float64
	summary        summarize.Result
	facts          summarize.MatchSummaryFacts
}

// ScoredMatch is one ranked, persisted, explained result.
type ScoredMatch struct {
	Match       *models.Match
	Explanation Explanation
}

// Rank computes, scores, persists, and explains the top N consultant
// matches for requirementID.
func (e *Engine) Rank(ctx context.Context, tc database.TenantContext, requirementID string, n int) ([]ScoredMatch, error) {
	if n <= 0 {
		n = 10
	}
	req, err := e.store.Requirements.Get(ctx, tc, requirementID)
	if err != nil {
		return nil, err
	}
	reqSkills, err := e.store.Requirements.SkillsFor(ctx, tc, requirementID)
	if err != nil {
		return nil, err
	}
	allSkills, err := e.store.Skills.ListAll(ctx)
	if err != nil {
		return nil, err
	}
	skillName := skillNameResolver(allSkills)

	retrievalLimit := n * 3
	if retrievalLimit < 25 {
		retrievalLimit = 25
	}

	queryText := req.Title + " " + req.ClientName + " " + req.Description
	var queryEmbedding []float32
	if e.embedder != nil {
		if emb, embErr := e.embedder.Embed(ctx, queryText); embErr == nil {
			queryEmbedding = emb
		}
	}

	filters := search.Filters{Location: req.Location}
	results, err := e.index.HybridSearch(ctx, tc, queryText, queryEmbedding, []models.EntityType{models.EntityConsultant}, filters, retrievalLimit)
	if err != nil {
		return nil, err
	}

	now := e.now()
	candidates := make([]candidate, 0, len(results))
	for _, res := range results {
		con, getErr := e.store.Consultants.Get(ctx, tc, res.EntityID)
		if getErr != nil {
			continue
		}
		conSkills, skErr := e.store.Consultants.SkillsFor(ctx, tc, con.ID)
		if skErr != nil {
			continue
		}
		f := BuildFeatures(req, reqSkills, con, conSkills, res, now)
		aligned, missing := alignedAndMissingSkills(reqSkills, conSkills, skillName)
		candidates = append(candidates, candidate{
			consultant:    con,
			skills:        conSkills,
			retrieval:     res,
			features:      f,
			alignedSkills: aligned,
			missingSkills: missing,
		})
	}

	requirementHasSkills := len(reqSkills) > 0
	requirementHasLocation := req.Location != nil && *req.Location != ""
	filtered := make([]candidate, 0, len(candidates))
	for _, c := range candidates {
		if passesHardFilters(c.features, requirementHasSkills, requirementHasLocation) {
			filtered = append(filtered, c)
		}
	}
	if len(filtered) == 0 {
		filtered = candidates
	}

	for i := range filtered {
		c := &filtered[i]
		retrieval := RetrievalScore(c.features)
		c.linear = LinearScore(c.features, e.cfg.BaseWeight)
		c.ltr = LTRScore(c.features, c.linear, retrieval)
		c.facts = buildFacts(req, c.consultant, c.features, retrieval, c.linear, c.ltr, c.alignedSkills, c.missingSkills)
	}

	sort.Slice(filtered, func(i, j int) bool { return filtered[i].ltr > filtered[j].ltr })

	rerankCount := n * 2
	if rerankCount > 10 {
		rerankCount = 10
	}
	if e.rerankEnabled {
		for i := range filtered {
			if i >= rerankCount {
				break
			}
			e.rerank(ctx, &filtered[i])
		}
	}

	weights := ResolveWeights(e.rerankEnabled, e.cfg.RerankWeight)
	for i := range filtered {
		c := &filtered[i]
		var llmConfidence *float64
		if c.summary.Provider != "" {
			conf := c.summary.Confidence
			llmConfidence = &conf
		}
		c.final = FinalScore(weights, c.linear, c.ltr, llmConfidence)
	}

	sort.Slice(filtered, func(i, j int) bool { return filtered[i].final > filtered[j].final })
	if len(filtered) > n {
		filtered = filtered[:n]
	}

	modelVersion := e.cfg.ModelVersion
	if modelVersion == "" {
		modelVersion = ModelVersion
	}

	out := make([]ScoredMatch, 0, len(filtered))
	for i := range filtered {
		c := &filtered[i]
		retrieval := RetrievalScore(c.features)
		explanation := BuildExplanation(req, c.consultant, c.features, c.linear, c.ltr, c.final, retrieval, c.alignedSkills, c.missingSkills, c.summary, c.facts, modelVersion)

		m := &models.Match{
			TenantID:      tc.TenantID,
			ConsultantID:  c.consultant.ID,
			RequirementID: req.ID,
			Score:         c.final,
			Status:        models.MatchReview,
			Explanation:   explanation.ToVersionedJSON(),
			Feedback:      models.VersionedJSON{SchemaVersion: 1, Data: map[string]any{}},
		}
		snap := &models.MatchFeatureSnapshot{
			ModelVersion: modelVersion,
			Features:     models.VersionedJSON{SchemaVersion: 1, Data: c.features.asMapAny()},
			Explanation:  explanation.ToVersionedJSON(),
		}
		if err := e.store.Matches.UpsertWithSnapshot(ctx, tc, m, snap); err != nil {
			return nil, err
		}
		out = append(out, ScoredMatch{Match: m, Explanation: explanation})
	}

	if e.audit != nil {
		entityID := req.ID
		_, _ = e.audit.Record(ctx, audit.RecordInput{
			TenantID:   tc.TenantID,
			Action:     "matching.rank",
			EntityType: "Requirement",
			EntityID:   &entityID,
			ResultCode: "OK",
		})
	}

	return out, nil
}

// rerank calls the summariser collaborator through the circuit
// breaker; any failure (transport error, open breaker) leaves
// c.summary zero-valued, so FinalScore falls back to the ltr score.
func (e *Engine) rerank(ctx context.Context, c *candidate) {
	_ = e.breaker.Do(ctx, func(ctx context.Context) error {
		result, err := e.summarizer.Summarize(ctx, c.facts)
		if err != nil {
			return err
		}
		c.summary = result
		return nil
	})
}

func buildFacts(req *models.Requirement, con *models.Consultant, f FeatureVector, retrieval, linear, ltr float64, aligned, missing []string) summarize.MatchSummaryFacts {
	var headline string
	if con.Summary != nil {
		headline = *con.Summary
	}
	return summarize.MatchSummaryFacts{
		RequirementTitle:   req.Title,
		ClientName:         req.ClientName,
		ConsultantHeadline: headline,
		AlignedSkills:      aligned,
		MissingSkills:      missing,
		LocationStatus:     locationStatus(f.LocationMatch),
		RateDelta:          rateDelta(req, con.Rate),
		RateWithinRange:    rateWithinRange(req, con.Rate),
		AvailabilityDesc:   availabilityDescription(con.Availability),
		RetrievalScore:     retrieval,
		LinearScore:        linear,
		LTRScore:           ltr,
	}
}

func skillNameResolver(all []*models.Skill) func(string) string {
	byID := make(map[string]string, len(all))
	for _, s := range all {
		byID[s.ID] = s.Name
	}
	return func(id string) string {
		if name, ok := byID[id]; ok {
			return name
		}
		return id
	}
}

func (f FeatureVector) asMapAny() map[string]any {
	m := f.asMap()
	out := make(map[string]any, len(m))
	for k, v := range m {
		out[k] = v
	}
	return out
}
