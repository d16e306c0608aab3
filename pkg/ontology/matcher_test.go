package ontology_test

import (
	"context"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/konetibalaji/benchsales-match/pkg/models"
	"github.com/konetibalaji/benchsales-match/pkg/ontology"
)

type fakeSkillRepo struct {
	skills []*models.Skill
}

func (f fakeSkillRepo) ListAll(_ context.Context) ([]*models.Skill, error) { return f.skills, nil }

func TestMatchFindsWordBoundaryMatchesCaseInsensitively(t *testing.T) {
	repo := fakeSkillRepo{skills: []*models.Skill{
		{ID: "s1", Name: "Go"},
		{ID: "s2", Name: "Java"},
		{ID: "s3", Name: "React"},
	}}
	m, err := ontology.Load(context.Background(), repo)
	require.NoError(t, err)

	ids, names := m.Match("Senior engineer with GO and react experience, not javascript")
	require.ElementsMatch(t, []string{"s1", "s3"}, ids)
	require.ElementsMatch(t, []string{"Go", "React"}, names)
}

func TestMatchDoesNotMatchSubstringWithinAnotherWord(t *testing.T) {
	repo := fakeSkillRepo{skills: []*models.Skill{{ID: "s1", Name: "Go"}}}
	m, err := ontology.Load(context.Background(), repo)
	require.NoError(t, err)

	ids, _ := m.Match("Works at Gogole on gopher tooling")
	require.Empty(t, ids)
}

func TestMatchCapsAt50(t *testing.T) {
	var skills []*models.Skill
	names := "abcdefghijklmnopqrstuvwxyz"
	text := ""
	for i := 0; i < 60; i++ {
		n := names[i%len(names):i%len(names)+1]
		name := n + string(rune('A'+i%26)) + "skill"
		skills = append(skills, &models.Skill{ID: name, Name: name})
		text += name + " "
	}
	repo := fakeSkillRepo{skills: skills}
	m, err := ontology.Load(context.Background(), repo)
	require.NoError(t, err)

	ids, _ := m.Match(text)
	require.LessOrEqual(t, len(ids), 50)
}

func TestMatchByNameIsCaseInsensitive(t *testing.T) {
	repo := fakeSkillRepo{skills: []*models.Skill{{ID: "s1", Name: "Kubernetes"}}}
	m, err := ontology.Load(context.Background(), repo)
	require.NoError(t, err)

	s, ok := m.MatchByName("kubernetes")
	require.True(t, ok)
	require.Equal(t, "s1", s.ID)

	_, ok = m.MatchByName("nope")
	require.False(t, ok)
}
