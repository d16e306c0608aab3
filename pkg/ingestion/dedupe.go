package ingestion

import (
	"context"
	"strings"

	"github.com/konetibalaji/benchsales-match/pkg/database"
	"github.com/konetibalaji/benchsales-match/pkg/models"
)

// RefreshIdentitySignatures emits the {EMAIL, PHONE, NAME_LOC} signatures
// for one consultant after any mutation. That consultant's existing
// signatures are consulted so a
// previously-recorded (kind, value) pair is never inserted twice; there
// is no update-in-place here because IdentityRepo is append-only by
// design (the log of every value a consultant has ever carried is part
// of the dedupe evidence, not just its current value).
func RefreshIdentitySignatures(ctx context.Context, identity *database.IdentityRepo, consultants *database.ConsultantRepo, tc database.TenantContext, consultantID string) error {
	c, err := consultants.Get(ctx, tc, consultantID)
	if err != nil {
		return err
	}

	wanted := signaturesFor(c)
	if len(wanted) == 0 {
		return nil
	}

	existing, err := identity.SignaturesFor(ctx, tc, consultantID)
	if err != nil {
		return err
	}
	have := make(map[string]bool, len(existing))
	for _, s := range existing {
		have[string(s.Kind)+":"+s.Value] = true
	}

	for kind, value := range wanted {
		if have[string(kind)+":"+value] {
			continue
		}
		if err := identity.Add(ctx, tc, &models.IdentitySignature{
			ConsultantID: consultantID,
			Kind:         kind,
			Value:        value,
		}); err != nil {
			return err
		}
	}
	return nil
}

func signaturesFor(c *models.Consultant) map[models.IdentityKind]string {
	out := make(map[models.IdentityKind]string, 3)
	if c.Email != nil && *c.Email != "" {
		out[models.IdentityEmail] = strings.ToLower(*c.Email)
	}
	if c.Phone != nil {
		if digits := digitsOnly(*c.Phone); digits != "" {
			out[models.IdentityPhone] = digits
		}
	}
	location := ""
	if c.Location != nil {
		location = *c.Location
	}
	nameLoc := strings.ToLower(c.FirstName + c.LastName + location)
	if nameLoc != "" {
		out[models.IdentityNameLoc] = nameLoc
	}
	return out
}

// DuplicateClusters computes the transitive closure of consultants that
// share a non-empty identity signature within a tenant, surfaced as
// duplicate candidates pending manual review.
func DuplicateClusters(ctx context.Context, identity *database.IdentityRepo, tc database.TenantContext, consultantIDs []string) ([]models.IdentityCluster, error) {
	parent := make(map[string]string, len(consultantIDs))
	for _, id := range consultantIDs {
		parent[id] = id
	}
	var find func(string) string
	find = func(id string) string {
		if parent[id] != id {
			parent[id] = find(parent[id])
		}
		return parent[id]
	}
	union := func(a, b string) {
		ra, rb := find(a), find(b)
		if ra != rb {
			parent[ra] = rb
		}
	}

	for _, id := range consultantIDs {
		sigs, err := identity.SignaturesFor(ctx, tc, id)
		if err != nil {
			return nil, err
		}
		for _, s := range sigs {
			peers, err := identity.FindConsultantsBySignature(ctx, tc, s.Kind, s.Value)
			if err != nil {
				return nil, err
			}
			for _, peer := range peers {
				if _, ok := parent[peer]; ok {
					union(id, peer)
				}
			}
		}
	}

	groups := make(map[string][]string)
	for _, id := range consultantIDs {
		root := find(id)
		groups[root] = append(groups[root], id)
	}

	var clusters []models.IdentityCluster
	for _, members := range groups {
		if len(members) < 2 {
			continue
		}
		clusters = append(clusters, models.IdentityCluster{Members: members, Status: "PENDING"})
	}
	return clusters, nil
}
