// Package ontology matches free text against the canonical skill
// catalog: a case-insensitive, word-boundary regex per skill name,
// compiled once and reused across every document a worker processes.
package ontology

import (
	"context"
	"regexp"
	"sort"
	"strings"

	"github.com/konetibalaji/benchsales-match/pkg/models"
)

const maxMatches = 50

// SkillRepo is the read surface pkg/database's SkillRepo provides.
type SkillRepo interface {
	ListAll(ctx context.Context) ([]*models.Skill, error)
}

// compiledSkill pairs a skill with its word-boundary matcher.
type compiledSkill struct {
	skill *models.Skill
	re    *regexp.Regexp
}

// Matcher holds a compiled snapshot of the skill catalog.
type Matcher struct {
	skills []compiledSkill
}

// Load builds a Matcher from the current catalog. Call again to refresh
// after the catalog changes — compilation is cheap enough to redo per
// worker-pool start rather than needing a live-reload mechanism.
func Load(ctx context.Context, repo SkillRepo) (*Matcher, error) {
	all, err := repo.ListAll(ctx)
	if err != nil {
		return nil, err
	}
	m := &Matcher{skills: make([]compiledSkill, 0, len(all))}
	for _, s := range all {
		re, err := regexp.Compile(`(?i)\b` + regexp.QuoteMeta(s.Name) + `\b`)
		if err != nil {
			continue // skill names are operator-curated; skip an unexpected pattern rather than fail the whole load
		}
		m.skills = append(m.skills, compiledSkill{skill: s, re: re})
	}
	return m, nil
}

// Match returns the matched skill ids and canonical names found in
// text, each skill counted at most once, capped at 50 matches, in
// catalog order.
func (m *Matcher) Match(text string) (ids []string, names []string) {
	for _, cs := range m.skills {
		if len(ids) >= maxMatches {
			break
		}
		if cs.re.MatchString(text) {
			ids = append(ids, cs.skill.ID)
			names = append(names, cs.skill.Name)
		}
	}
	return ids, names
}

// MatchByName resolves a single skill name case-insensitively, the
// form the requirement-ingestion path needs.
func (m *Matcher) MatchByName(name string) (*models.Skill, bool) {
	lower := strings.ToLower(name)
	for _, cs := range m.skills {
		if strings.ToLower(cs.skill.Name) == lower {
			return cs.skill, true
		}
	}
	return nil, false
}

// Names returns every known canonical skill name, sorted, mainly for
// diagnostics and tests.
func (m *Matcher) Names() []string {
	out := make([]string, len(m.skills))
	for i, cs := range m.skills {
		out[i] = cs.skill.Name
	}
	sort.Strings(out)
	return out
}
