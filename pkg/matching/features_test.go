package matching_test

import (
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/konetibalaji/benchsales-match/pkg/matching"
	"github.com/konetibalaji/benchsales-match/pkg/models"
	"github.com/konetibalaji/benchsales-match/pkg/search"
)

func ptr[T any](v T) *T { return &v }

func TestBuildFeaturesComputesSkillOverlap(t *testing.T) {
	req := &models.Requirement{Location: ptr("Austin, TX")}
	reqSkills := []models.RequirementSkill{
		{SkillID: "go", Weight: 3},
		{SkillID: "k8s", Weight: 2},
	}
	con := &models.Consultant{
		Location:     ptr("Austin, TX"),
		Availability: models.AvailabilityAvailable,
		Rate:         ptr(90.0),
		UpdatedAt:    time.Now(),
	}
	conSkills := []models.ConsultantSkill{{SkillID: "go", Weight: 3}}

	f := matching.BuildFeatures(req, reqSkills, con, conSkills, search.Result{VectorScore: 0.8, LexicalScore: 0.5}, time.Now())

	require.InDelta(t, 0.6, f.SkillOverlap, 0.001) // 3/(3+2)
	require.InDelta(t, 1.0, f.LocationMatch, 0.001)
	require.InDelta(t, 1.0, f.Availability, 0.001)
	require.InDelta(t, 0.8, f.VectorScore, 0.001)
	require.InDelta(t, 0.5, f.LexicalScore, 0.001)
}

func TestBuildFeaturesLocationGrading(t *testing.T) {
	cases := []struct {
		name     string
		req, con *string
		want     float64
	}{
		{"exact match", ptr("Austin, TX"), ptr("austin, tx"), 1.0},
		{"remote either side", ptr("Remote"), ptr("Austin, TX"), 0.8},
		{"same region", ptr("Austin, TX"), ptr("Austin, CA"), 0.6},
		{"mismatch", ptr("Austin, TX"), ptr("Boston, MA"), 0.25},
		{"missing one side", nil, ptr("Austin, TX"), 0.5},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			req := &models.Requirement{Location: tc.req}
			con := &models.Consultant{Location: tc.con, Availability: models.AvailabilityAvailable}
			f := matching.BuildFeatures(req, nil, con, nil, search.Result{}, time.Now())
			require.InDelta(t, tc.want, f.LocationMatch, 0.001)
		})
	}
}

func TestBuildFeaturesRateAlignmentWithinBand(t *testing.T) {
	req := &models.Requirement{MinRate: ptr(80.0), MaxRate: ptr(100.0)}
	con := &models.Consultant{Availability: models.AvailabilityAvailable, Rate: ptr(90.0)}
	f := matching.BuildFeatures(req, nil, con, nil, search.Result{}, time.Now())
	require.InDelta(t, 1.0, f.RateAlignment, 0.001)
}

func TestBuildFeaturesRateAlignmentOutsideBandDecays(t *testing.T) {
	req := &models.Requirement{MinRate: ptr(80.0), MaxRate: ptr(100.0)}
	con := &models.Consultant{Availability: models.AvailabilityAvailable, Rate: ptr(160.0)}
	f := matching.BuildFeatures(req, nil, con, nil, search.Result{}, time.Now())
	require.Less(t, f.RateAlignment, 0.5)
}

func TestBuildFeaturesMissingRateDefaultsToHalf(t *testing.T) {
	req := &models.Requirement{MinRate: ptr(80.0), MaxRate: ptr(100.0)}
	con := &models.Consultant{Availability: models.AvailabilityAvailable}
	f := matching.BuildFeatures(req, nil, con, nil, search.Result{}, time.Now())
	require.InDelta(t, 0.5, f.RateAlignment, 0.001)
}

func TestBuildFeaturesRecencyDecaysOverNinetyDays(t *testing.T) {
	req := &models.Requirement{}
	now := time.Now()
	con := &models.Consultant{Availability: models.AvailabilityAvailable, UpdatedAt: now.Add(-45 * 24 * time.Hour)}
	f := matching.BuildFeatures(req, nil, con, nil, search.Result{}, now)
	require.InDelta(t, 0.5, f.RecencyScore, 0.01)
}

func TestNoRequirementSkillsYieldsZeroOverlap(t *testing.T) {
	req := &models.Requirement{}
	con := &models.Consultant{Availability: models.AvailabilityAvailable}
	f := matching.BuildFeatures(req, nil, con, []models.ConsultantSkill{{SkillID: "go", Weight: 1}}, search.Result{}, time.Now())
	require.Equal(t, 0.0, f.SkillOverlap)
}
