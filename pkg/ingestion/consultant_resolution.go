package ingestion

import (
	"context"
	"regexp"

	"github.com/konetibalaji/benchsales-match/pkg/apperr"
	"github.com/konetibalaji/benchsales-match/pkg/database"
	"github.com/konetibalaji/benchsales-match/pkg/models"
)

var nonDigits = regexp.MustCompile(`\D+`)

func digitsOnly(s string) string { return nonDigits.ReplaceAllString(s, "") }

// resolveConsultant walks a fixed resolution order: existing
// consultantId on the document, then case-insensitive email lookup,
// then digits-only phone-contains lookup, then a new stub.
func resolveConsultant(ctx context.Context, repo *database.ConsultantRepo, tc database.TenantContext, documentConsultantID *string, candidate models.ResumeCandidate) (string, error) {
	if documentConsultantID != nil && *documentConsultantID != "" {
		if _, err := repo.Get(ctx, tc, *documentConsultantID); err == nil {
			return *documentConsultantID, nil
		} else if apperr.KindOf(err) != apperr.KindNotFound {
			return "", err
		}
	}

	for _, email := range candidate.Emails {
		if c, err := repo.FindByEmail(ctx, tc, email); err == nil {
			return c.ID, nil
		} else if apperr.KindOf(err) != apperr.KindNotFound {
			return "", err
		}
	}

	for _, phone := range candidate.Phones {
		digits := digitsOnly(phone)
		if digits == "" {
			continue
		}
		if c, err := repo.FindByPhoneDigits(ctx, tc, digits); err == nil {
			return c.ID, nil
		} else if apperr.KindOf(err) != apperr.KindNotFound {
			return "", err
		}
	}

	stub := &models.Consultant{
		FirstName:    candidate.FirstName,
		LastName:     candidate.LastName,
		Availability: models.AvailabilityAvailable,
	}
	if len(candidate.Emails) > 0 {
		stub.Email = &candidate.Emails[0]
	}
	if len(candidate.Phones) > 0 {
		stub.Phone = &candidate.Phones[0]
	}
	if candidate.Location != nil {
		stub.Location = candidate.Location
	}
	if err := repo.Create(ctx, tc, stub); err != nil {
		return "", err
	}
	return stub.ID, nil
}
